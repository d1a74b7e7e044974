package notedb

import "github.com/ashwell/soapnote/internal/models"

// Store defines the persistence operations for clinical notes. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type Store interface {
	SaveNote(note *models.ClinicalNote, audio []byte, format string) (int64, error)
	GetNote(id int64) (*models.StoredNote, error)
	SearchNotes(f Filter) ([]*models.StoredNote, error)
	SaveAudio(noteID int64, data []byte, format string) error
	GetAudio(noteID int64) (*models.AudioRecording, error)
	DeleteNote(id int64) error
	Statistics() (*models.Statistics, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
