// Package models defines the domain types for soapnote.
package models

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ashwell/soapnote/internal/apperr"
	"github.com/ashwell/soapnote/internal/language"
)

// DefaultAudioFormat is the container format assumed for recordings when
// none is specified.
const DefaultAudioFormat = "wav"

// emptySection is rendered for a section that holds no fragments.
const emptySection = "No information recorded"

// ClinicalNote is a structured SOAP note under construction. Sections are
// append-only fragment lists; once the note is handed to persistence it is
// frozen and further appends are no-ops.
type ClinicalNote struct {
	PatientID     string
	PhysicianName string
	Language      string
	Timestamp     time.Time
	Subjective    []string
	Objective     []string
	Assessment    []string
	Plan          []string

	frozen bool
}

// NewClinicalNote creates an empty note with the given identity. The patient
// id and physician name must be non-empty and the language must be in the
// supported set.
func NewClinicalNote(patientID, physicianName, lang string) (*ClinicalNote, error) {
	n := &ClinicalNote{
		PatientID:     patientID,
		PhysicianName: physicianName,
		Language:      lang,
		Timestamp:     time.Now().UTC(),
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Validate checks the identity invariants.
func (n *ClinicalNote) Validate() error {
	if err := validation.ValidateStruct(n,
		validation.Field(&n.PatientID, validation.Required),
		validation.Field(&n.PhysicianName, validation.Required),
		validation.Field(&n.Language, validation.Required),
	); err != nil {
		return fmt.Errorf("models: %w: %v", apperr.ErrValidation, err)
	}
	if !language.IsSupported(n.Language) {
		return fmt.Errorf("models: %w: %s", apperr.ErrUnsupportedLanguage, n.Language)
	}
	return nil
}

// AddSubjective appends a patient-reported fragment. Blank text is a no-op.
func (n *ClinicalNote) AddSubjective(text string) { n.append(&n.Subjective, text) }

// AddObjective appends a measured or observed fragment. Blank text is a no-op.
func (n *ClinicalNote) AddObjective(text string) { n.append(&n.Objective, text) }

// AddAssessment appends a diagnosis or impression fragment. Blank text is a no-op.
func (n *ClinicalNote) AddAssessment(text string) { n.append(&n.Assessment, text) }

// AddPlan appends a treatment or follow-up fragment. Blank text is a no-op.
func (n *ClinicalNote) AddPlan(text string) { n.append(&n.Plan, text) }

func (n *ClinicalNote) append(section *[]string, text string) {
	if n.frozen {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	*section = append(*section, text)
}

// Freeze makes the note immutable. Called by the store at save time.
func (n *ClinicalNote) Freeze() { n.frozen = true }

// Frozen reports whether the note has been handed to persistence.
func (n *ClinicalNote) Frozen() bool { return n.frozen }

// GenerateNote renders the note in the canonical human-readable layout.
// The output is stable for identical field values.
func (n *ClinicalNote) GenerateNote() string {
	var b strings.Builder
	b.WriteString("CLINICAL NOTE\n")
	fmt.Fprintf(&b, "Date: %s\n", n.Timestamp.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Patient ID: %s\n", n.PatientID)
	fmt.Fprintf(&b, "Physician: %s\n", n.PhysicianName)
	fmt.Fprintf(&b, "Language: %s\n", language.Display(n.Language))
	b.WriteString("\n")

	writeSection(&b, "SUBJECTIVE", n.Subjective)
	writeSection(&b, "OBJECTIVE", n.Objective)
	writeSection(&b, "ASSESSMENT", n.Assessment)
	writeSection(&b, "PLAN", n.Plan)

	fmt.Fprintf(&b, "Electronically signed by: %s", n.PhysicianName)
	return b.String()
}

func writeSection(b *strings.Builder, header string, fragments []string) {
	fmt.Fprintf(b, "%s:\n", header)
	if len(fragments) == 0 {
		b.WriteString(emptySection)
	} else {
		b.WriteString(strings.Join(fragments, "\n"))
	}
	b.WriteString("\n\n")
}

// Export key names, fixed for EHR interoperability.
const (
	keyPatientID     = "patient_id"
	keyPhysicianName = "physician_name"
	keyLanguage      = "language"
	keyTimestamp     = "timestamp"
)

// ToMap exports the note as a flat string mapping: identity fields, an
// RFC 3339 timestamp, and the four sections as newline-joined text. The
// mapping is both the JSON export shape and the parameter set handed to
// persistence.
func (n *ClinicalNote) ToMap() map[string]string {
	return map[string]string{
		keyPatientID:     n.PatientID,
		keyPhysicianName: n.PhysicianName,
		keyLanguage:      n.Language,
		keyTimestamp:     n.Timestamp.Format(time.RFC3339Nano),
		"subjective":     strings.Join(n.Subjective, "\n"),
		"objective":      strings.Join(n.Objective, "\n"),
		"assessment":     strings.Join(n.Assessment, "\n"),
		"plan":           strings.Join(n.Plan, "\n"),
	}
}

// FromMap reconstructs a note from a ToMap export. Surrogate identity
// (note id, created_at) is owned by the store and not part of the mapping.
func FromMap(m map[string]string) (*ClinicalNote, error) {
	ts, err := time.Parse(time.RFC3339Nano, m[keyTimestamp])
	if err != nil {
		return nil, fmt.Errorf("models: %w: bad timestamp %q", apperr.ErrValidation, m[keyTimestamp])
	}
	n := &ClinicalNote{
		PatientID:     m[keyPatientID],
		PhysicianName: m[keyPhysicianName],
		Language:      m[keyLanguage],
		Timestamp:     ts,
		Subjective:    splitFragments(m["subjective"]),
		Objective:     splitFragments(m["objective"]),
		Assessment:    splitFragments(m["assessment"]),
		Plan:          splitFragments(m["plan"]),
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

func splitFragments(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, "\n")
}

// StoredNote is the persisted, identity-bearing form of a ClinicalNote.
type StoredNote struct {
	NoteID        int64     `json:"note_id"`
	PatientID     string    `json:"patient_id"`
	PhysicianName string    `json:"physician_name"`
	Language      string    `json:"language"`
	Timestamp     time.Time `json:"timestamp"`
	Subjective    []string  `json:"subjective"`
	Objective     []string  `json:"objective"`
	Assessment    []string  `json:"assessment"`
	Plan          []string  `json:"plan"`
	CreatedAt     time.Time `json:"created_at"`
	HasAudio      bool      `json:"has_audio"`
}

// Note rebuilds the frozen ClinicalNote held by a StoredNote.
func (s *StoredNote) Note() *ClinicalNote {
	n := &ClinicalNote{
		PatientID:     s.PatientID,
		PhysicianName: s.PhysicianName,
		Language:      s.Language,
		Timestamp:     s.Timestamp,
		Subjective:    s.Subjective,
		Objective:     s.Objective,
		Assessment:    s.Assessment,
		Plan:          s.Plan,
	}
	n.Freeze()
	return n
}

// AudioRecording is the stored dictation audio for a note (at most one).
type AudioRecording struct {
	AudioID   int64     `json:"audio_id"`
	NoteID    int64     `json:"note_id"`
	Data      []byte    `json:"-"`
	Format    string    `json:"audio_format"`
	CreatedAt time.Time `json:"created_at"`
}

// Statistics aggregates store-wide counts.
type Statistics struct {
	TotalNotes       int            `json:"total_notes"`
	TotalPatients    int            `json:"total_patients"`
	TotalPhysicians  int            `json:"total_physicians"`
	TotalRecordings  int            `json:"total_recordings"`
	NotesByLanguage  map[string]int `json:"notes_by_language"`
	NotesByPhysician map[string]int `json:"notes_by_physician"`
	NotesLastWeek    int            `json:"notes_last_week"`
}
