package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ashwell/soapnote/internal/noteservice"
	"github.com/ashwell/soapnote/internal/testutil"
)

// testEnv sets up a temp SQLite DB, service, and router for testing.
// authToken == "" means disabled mode; non-empty means token mode.
func testEnv(t *testing.T, authToken string) (*noteservice.Service, http.Handler) {
	t.Helper()

	svc := noteservice.NewService(testutil.TestDB(t), nil, nil)
	router := NewRouter(svc, authToken != "", authToken, nil)
	return svc, router
}

func createNote(t *testing.T, router http.Handler, patientID, text string) NoteDetail {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"patient_id":     patientID,
		"physician_name": "Dr. Chen",
		"language":       "en-US",
		"text":           text,
	})
	req := httptest.NewRequest(http.MethodPost, "/notes", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var note NoteDetail
	if err := json.Unmarshal(w.Body.Bytes(), &note); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return note
}

func TestCreateAndGetNote(t *testing.T) {
	_, router := testEnv(t, "")

	created := createNote(t, router, "PT-1",
		"Patient complains of chest pain. Blood pressure is 140/90. Likely angina. Order ECG.")
	if created.NoteID == 0 {
		t.Fatal("created note has no id")
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/notes/%d", created.NoteID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var note NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.PatientID != "PT-1" {
		t.Errorf("patient_id = %q", note.PatientID)
	}
	if len(note.Subjective) != 1 || len(note.Objective) != 1 || len(note.Assessment) != 1 || len(note.Plan) != 1 {
		t.Errorf("sections: S=%v O=%v A=%v P=%v",
			note.Subjective, note.Objective, note.Assessment, note.Plan)
	}
}

func TestCreateNoteValidation(t *testing.T) {
	_, router := testEnv(t, "")

	cases := []map[string]string{
		{"physician_name": "Dr. Chen", "text": "Patient reports pain."},
		{"patient_id": "PT-2", "text": "Patient reports pain."},
		{"patient_id": "PT-2", "physician_name": "Dr. Chen", "language": "xx-XX", "text": "a"},
	}
	for i, c := range cases {
		body, _ := json.Marshal(c)
		req := httptest.NewRequest(http.MethodPost, "/notes", bytes.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("case %d: status = %d, want 400", i, w.Code)
		}
	}
}

func TestGetNoteNotFound(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/notes/9999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/notes/abc", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id status = %d, want 400", w.Code)
	}
}

func TestSearchNotes(t *testing.T) {
	_, router := testEnv(t, "")

	createNote(t, router, "PT-10", "Patient reports cough.")
	createNote(t, router, "PT-10", "Patient reports fever.")
	createNote(t, router, "PT-11", "Patient reports fatigue.")

	req := httptest.NewRequest(http.MethodGet, "/notes?patient_id=PT-10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d", w.Code)
	}
	var resp NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 || len(resp.Notes) != 2 {
		t.Errorf("total = %d, notes = %d, want 2", resp.Total, len(resp.Notes))
	}

	req = httptest.NewRequest(http.MethodGet, "/notes?limit=1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Notes) != 1 {
		t.Errorf("limited notes = %d, want 1", len(resp.Notes))
	}

	req = httptest.NewRequest(http.MethodGet, "/notes?from=not-a-time", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad from status = %d, want 400", w.Code)
	}
}

func TestDocument(t *testing.T) {
	_, router := testEnv(t, "")

	created := createNote(t, router, "PT-20", "Patient complains of back pain.")

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/notes/%d/document", created.NoteID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("document status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "CLINICAL NOTE") {
		t.Errorf("document does not start with header: %q", body)
	}
	if !strings.Contains(body, "Patient complains of back pain.") {
		t.Errorf("document missing subjective text: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}
}

func TestDeleteNote(t *testing.T) {
	_, router := testEnv(t, "")

	created := createNote(t, router, "PT-30", "Patient reports nausea.")

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/notes/%d", created.NoteID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/notes/%d", created.NoteID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}

	// Deleting again is a no-op.
	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/notes/%d", created.NoteID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("second delete status = %d, want 204", w.Code)
	}
}

func audioRequest(t *testing.T, url, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	fw, err := mw.CreateFormFile("audio", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAttachAndGetAudio(t *testing.T) {
	_, router := testEnv(t, "")

	created := createNote(t, router, "PT-40", "Patient reports dizziness.")

	// No recording yet.
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/notes/%d/audio", created.NoteID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("audio before attach = %d, want 404", w.Code)
	}

	req = audioRequest(t, fmt.Sprintf("/notes/%d/audio", created.NoteID), "dictation.wav", []byte("RIFFbytes"), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("attach status = %d, body = %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/notes/%d/audio", created.NoteID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get audio status = %d", w.Code)
	}
	if w.Body.String() != "RIFFbytes" {
		t.Errorf("audio body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("content type = %q, want audio/wav", ct)
	}

	// Attaching to a missing note is a 404.
	req = audioRequest(t, "/notes/9999/audio", "dictation.wav", []byte("RIFF"), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("attach to missing note = %d, want 404", w.Code)
	}
}

func TestCreateVoiceNoteWithoutTranscriber(t *testing.T) {
	_, router := testEnv(t, "")

	req := audioRequest(t, "/notes/voice", "dictation.wav", []byte("RIFF"), map[string]string{
		"patient_id":     "PT-50",
		"physician_name": "Dr. Chen",
		"language":       "en-US",
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("voice create without transcriber = %d, want 400", w.Code)
	}
}

func TestStatistics(t *testing.T) {
	_, router := testEnv(t, "")

	createNote(t, router, "PT-60", "Patient reports cough.")
	createNote(t, router, "PT-61", "Patient reports fever.")

	req := httptest.NewRequest(http.MethodGet, "/statistics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("statistics status = %d", w.Code)
	}
	var stats StatisticsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.TotalNotes != 2 || stats.TotalPatients != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.NotesByLanguage["en-US"] != 2 {
		t.Errorf("by language = %v", stats.NotesByLanguage)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, router := testEnv(t, "sekrit")

	req := httptest.NewRequest(http.MethodGet, "/statistics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/statistics", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/statistics", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", w.Code)
	}
}
