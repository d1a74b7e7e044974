package notedb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ashwell/soapnote/internal/apperr"
	"github.com/ashwell/soapnote/internal/models"
)

// DefaultSearchLimit caps SearchNotes results when the caller gives no limit.
const DefaultSearchLimit = 50

// statsWindow is the recency window reported by Statistics.
const statsWindow = 7 * 24 * time.Hour

// Filter narrows a SearchNotes call. Zero-valued fields are ignored; present
// fields are AND-combined.
type Filter struct {
	PatientID     string
	PhysicianName string
	Start         time.Time
	End           time.Time
	Limit         int
}

// SaveNote freezes the note and inserts it, returning the assigned note id.
// When audio is non-empty a recording row is inserted afterward; if that
// second step fails the note row is kept and the error is an
// *apperr.AudioError carrying the new id so callers can retry just the
// audio step.
func (db *DB) SaveNote(note *models.ClinicalNote, audio []byte, format string) (int64, error) {
	if err := note.Validate(); err != nil {
		return 0, err
	}
	note.Freeze()

	subj, _ := json.Marshal(note.Subjective)
	obj, _ := json.Marshal(note.Objective)
	assess, _ := json.Marshal(note.Assessment)
	plan, _ := json.Marshal(note.Plan)

	res, err := db.conn.Exec(`
		INSERT INTO clinical_notes
			(patient_id, physician_name, language, timestamp, subjective, objective, assessment, plan, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, note.PatientID, note.PhysicianName, note.Language, note.Timestamp.UTC(),
		string(subj), string(obj), string(assess), string(plan), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("notedb: insert note: %w", wrapBusy(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("notedb: last insert id: %w", err)
	}

	if len(audio) > 0 {
		if err := db.SaveAudio(id, audio, format); err != nil {
			return id, &apperr.AudioError{NoteID: id, Err: err}
		}
	}
	return id, nil
}

// SaveAudio inserts a recording for an existing note. A dangling note id is
// rejected with apperr.ErrNotFound before touching the recordings table.
func (db *DB) SaveAudio(noteID int64, data []byte, format string) error {
	if len(data) == 0 {
		return fmt.Errorf("notedb: %w: empty audio data", apperr.ErrValidation)
	}
	if format == "" {
		format = models.DefaultAudioFormat
	}
	if err := db.noteExists(noteID); err != nil {
		return err
	}
	_, err := db.conn.Exec(`
		INSERT INTO audio_recordings (note_id, audio_data, audio_format, created_at)
		VALUES (?, ?, ?, ?)
	`, noteID, data, format, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("notedb: insert audio: %w", wrapBusy(err))
	}
	return nil
}

func (db *DB) noteExists(noteID int64) error {
	var one int
	err := db.conn.QueryRow(`SELECT 1 FROM clinical_notes WHERE note_id = ?`, noteID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("notedb: note %d: %w", noteID, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("notedb: note exists: %w", wrapBusy(err))
	}
	return nil
}

const noteColumns = `
	n.note_id, n.patient_id, n.physician_name, n.language, n.timestamp,
	n.subjective, n.objective, n.assessment, n.plan, n.created_at,
	EXISTS(SELECT 1 FROM audio_recordings a WHERE a.note_id = n.note_id)
`

// GetNote returns a stored note by primary key.
func (db *DB) GetNote(id int64) (*models.StoredNote, error) {
	row := db.conn.QueryRow(`SELECT `+noteColumns+` FROM clinical_notes n WHERE n.note_id = ?`, id)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notedb: note %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("notedb: get note: %w", err)
	}
	return note, nil
}

// SearchNotes returns notes matching the filter, most recent first.
func (db *DB) SearchNotes(f Filter) ([]*models.StoredNote, error) {
	var conds []string
	var args []any

	if f.PatientID != "" {
		conds = append(conds, "n.patient_id = ?")
		args = append(args, f.PatientID)
	}
	if f.PhysicianName != "" {
		conds = append(conds, "n.physician_name = ?")
		args = append(args, f.PhysicianName)
	}
	if !f.Start.IsZero() {
		conds = append(conds, "n.timestamp >= ?")
		args = append(args, f.Start.UTC())
	}
	if !f.End.IsZero() {
		conds = append(conds, "n.timestamp <= ?")
		args = append(args, f.End.UTC())
	}

	query := `SELECT ` + noteColumns + ` FROM clinical_notes n`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	query += " ORDER BY n.timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("notedb: search: %w", wrapBusy(err))
	}
	defer rows.Close()

	var out []*models.StoredNote
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("notedb: search scan: %w", err)
		}
		out = append(out, note)
	}
	return out, rows.Err()
}

// GetAudio returns the recording for a note. A note without audio yields
// apperr.ErrNoAudio, distinct from apperr.ErrNotFound for an absent note.
func (db *DB) GetAudio(noteID int64) (*models.AudioRecording, error) {
	if err := db.noteExists(noteID); err != nil {
		return nil, err
	}
	rec := &models.AudioRecording{NoteID: noteID}
	err := db.conn.QueryRow(`
		SELECT audio_id, audio_data, audio_format, created_at
		FROM audio_recordings WHERE note_id = ?
		ORDER BY audio_id DESC LIMIT 1
	`, noteID).Scan(&rec.AudioID, &rec.Data, &rec.Format, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notedb: note %d: %w", noteID, apperr.ErrNoAudio)
	}
	if err != nil {
		return nil, fmt.Errorf("notedb: get audio: %w", wrapBusy(err))
	}
	return rec, nil
}

// DeleteNote removes a note and, via the FK cascade, its recording.
// Deleting an absent id is a no-op.
func (db *DB) DeleteNote(id int64) error {
	if _, err := db.conn.Exec(`DELETE FROM clinical_notes WHERE note_id = ?`, id); err != nil {
		return fmt.Errorf("notedb: delete note: %w", wrapBusy(err))
	}
	return nil
}

// Statistics aggregates counts over the full store.
func (db *DB) Statistics() (*models.Statistics, error) {
	stats := &models.Statistics{
		NotesByLanguage:  map[string]int{},
		NotesByPhysician: map[string]int{},
	}

	scalars := []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(*) FROM clinical_notes`, &stats.TotalNotes},
		{`SELECT COUNT(DISTINCT patient_id) FROM clinical_notes`, &stats.TotalPatients},
		{`SELECT COUNT(DISTINCT physician_name) FROM clinical_notes`, &stats.TotalPhysicians},
		{`SELECT COUNT(*) FROM audio_recordings`, &stats.TotalRecordings},
	}
	for _, s := range scalars {
		if err := db.conn.QueryRow(s.query).Scan(s.dst); err != nil {
			return nil, fmt.Errorf("notedb: statistics: %w", wrapBusy(err))
		}
	}

	if err := db.countBy(`SELECT language, COUNT(*) FROM clinical_notes GROUP BY language`, stats.NotesByLanguage); err != nil {
		return nil, err
	}
	if err := db.countBy(`SELECT physician_name, COUNT(*) FROM clinical_notes GROUP BY physician_name`, stats.NotesByPhysician); err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().Add(-statsWindow)
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM clinical_notes WHERE timestamp >= ?`, cutoff).Scan(&stats.NotesLastWeek); err != nil {
		return nil, fmt.Errorf("notedb: statistics window: %w", wrapBusy(err))
	}
	return stats, nil
}

func (db *DB) countBy(query string, dst map[string]int) error {
	rows, err := db.conn.Query(query)
	if err != nil {
		return fmt.Errorf("notedb: statistics group: %w", wrapBusy(err))
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		dst[key] = n
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (*models.StoredNote, error) {
	var n models.StoredNote
	var subj, obj, assess, plan string
	if err := row.Scan(&n.NoteID, &n.PatientID, &n.PhysicianName, &n.Language, &n.Timestamp,
		&subj, &obj, &assess, &plan, &n.CreatedAt, &n.HasAudio); err != nil {
		return nil, err
	}
	for _, col := range []struct {
		raw string
		dst *[]string
	}{
		{subj, &n.Subjective},
		{obj, &n.Objective},
		{assess, &n.Assessment},
		{plan, &n.Plan},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dst); err != nil {
			return nil, fmt.Errorf("decode section: %w", err)
		}
	}
	return &n, nil
}
