package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ashwell/soapnote/internal/language"
	"github.com/ashwell/soapnote/internal/models"
	"github.com/ashwell/soapnote/internal/noteservice"
)

const maxAudioBytes = 50 << 20 // 50 MB

// audioContentTypes maps stored recording formats to response MIME types.
var audioContentTypes = map[string]string{
	"wav":  "audio/wav",
	"flac": "audio/flac",
	"ogg":  "audio/ogg",
	"mp3":  "audio/mpeg",
}

// readAudioForm extracts the "audio" file from a multipart form and
// returns its bytes plus the format inferred from the file extension.
func readAudioForm(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return nil, "", false
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'audio' field in multipart form"))
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read audio"))
		return nil, "", false
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	if format == "" {
		format = models.DefaultAudioFormat
	}
	return data, format, true
}

// CreateVoiceNote handles POST /api/notes/voice (multipart/form-data with
// fields patient_id, physician_name, language, and file "audio").
//
//	@Summary		Create a note by transcribing a dictation recording
//	@Tags			notes
//	@Accept			mpfd
//	@Produce		json
//	@Param			patient_id		formData	string	true	"Patient identifier"
//	@Param			physician_name	formData	string	true	"Physician name"
//	@Param			language		formData	string	false	"BCP 47 language code"
//	@Param			audio			formData	file	true	"Dictation recording"
//	@Success		201				{object}	NoteDetail
//	@Failure		400				{object}	errResponse
//	@Failure		422				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/voice [post]
func (h *Handler) CreateVoiceNote(w http.ResponseWriter, r *http.Request) {
	data, format, ok := readAudioForm(w, r)
	if !ok {
		return
	}
	lang := r.FormValue("language")
	if lang == "" {
		lang = language.Default
	}
	note, err := h.svc.CreateNoteFromVoice(r.Context(), noteservice.VoiceParams{
		Audio:         data,
		AudioFormat:   format,
		PatientID:     r.FormValue("patient_id"),
		PhysicianName: r.FormValue("physician_name"),
		Language:      lang,
	})
	if err != nil {
		writeError(w, err, "create voice note")
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// AttachAudio handles POST /api/notes/{id}/audio.
//
//	@Summary		Attach a recording to an existing note
//	@Tags			audio
//	@Accept			mpfd
//	@Param			id		path		int		true	"Note id"
//	@Param			audio	formData	file	true	"Recording"
//	@Success		201		"Recording stored"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/audio [post]
func (h *Handler) AttachAudio(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	data, format, ok := readAudioForm(w, r)
	if !ok {
		return
	}
	if err := h.svc.AttachAudio(r.Context(), id, data, format); err != nil {
		writeError(w, err, "attach audio")
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// GetAudio handles GET /api/notes/{id}/audio: the raw recording bytes.
//
//	@Summary		Download the recording attached to a note
//	@Tags			audio
//	@Produce		octet-stream
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{file}		binary
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/audio [get]
func (h *Handler) GetAudio(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	rec, err := h.svc.Audio(r.Context(), id)
	if err != nil {
		writeError(w, err, "get audio")
		return
	}
	ct, ok := audioContentTypes[rec.Format]
	if !ok {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rec.Data)
}
