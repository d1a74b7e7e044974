// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes SOAP note tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ashwell/soapnote/internal/language"
	"github.com/ashwell/soapnote/internal/notedb"
	"github.com/ashwell/soapnote/internal/noteservice"
)

// Server wraps the MCP server with SOAP note tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all note tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"SOAPNote",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a clinical note by classifying encounter text into "+
			"SOAP sections (Subjective, Objective, Assessment, Plan). Read the dictation "+
			"contract first via the get_dictation_contract tool or the "+
			"soapnote://dictation-format resource."),
		mcp.WithString("patient_id", mcp.Required(), mcp.Description("Patient identifier (e.g. PT-48291)")),
		mcp.WithString("physician_name", mcp.Required(), mcp.Description("Attending physician name")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Encounter transcript to classify")),
		mcp.WithString("language", mcp.Description("BCP 47 language code (default en-US)")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Read a stored clinical note, rendered as a formatted document."),
		mcp.WithString("note_id", mcp.Required(), mcp.Description("Numeric note id")),
	), s.getNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search notes by patient, physician, and date range."),
		mcp.WithString("patient_id", mcp.Description("Filter by patient identifier")),
		mcp.WithString("physician_name", mcp.Description("Filter by physician name")),
		mcp.WithString("from", mcp.Description("Earliest timestamp, RFC 3339")),
		mcp.WithString("to", mcp.Description("Latest timestamp, RFC 3339")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a clinical note and its audio recording."),
		mcp.WithString("note_id", mcp.Required(), mcp.Description("Numeric note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("get_statistics",
		mcp.WithDescription("Aggregate counters over the note store: totals, notes per "+
			"language and physician, and activity over the last seven days."),
	), s.getStatistics)

	s.mcp.AddTool(mcp.NewTool("get_dictation_contract",
		mcp.WithDescription("Returns the dictation format contract: supported languages "+
			"and how sentences are assigned to SOAP sections. Call this before creating notes."),
	), s.getDictationContract)

	// Resource: dictation format contract.
	s.mcp.AddResource(
		mcp.NewResource("soapnote://dictation-format", "Dictation Format Contract",
			mcp.WithResourceDescription("How encounter text is segmented and classified into SOAP sections."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDictationFormatResource,
	)

	s.registerAttachAudio()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// requireNoteID parses the note_id string argument.
func requireNoteID(req mcp.CallToolRequest) (int64, error) {
	raw, err := req.RequireString("note_id")
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid note_id: %s", raw)
	}
	return id, nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	patientID, err := req.RequireString("patient_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	physician, err := req.RequireString("physician_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lang := language.Default
	if v, lErr := req.RequireString("language"); lErr == nil && v != "" {
		lang = v
	}

	note, err := s.svc.CreateNoteFromText(ctx, noteservice.CreateParams{
		Text:          text,
		PatientID:     patientID,
		PhysicianName: physician,
		Language:      lang,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(note, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireNoteID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: note %d", id)), nil
	}
	return mcp.NewToolResultText(note.Note().GenerateNote()), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var f notedb.Filter
	if v, err := req.RequireString("patient_id"); err == nil {
		f.PatientID = v
	}
	if v, err := req.RequireString("physician_name"); err == nil {
		f.PhysicianName = v
	}
	if v, err := req.RequireString("from"); err == nil && v != "" {
		ts, pErr := time.Parse(time.RFC3339, v)
		if pErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid 'from' timestamp: %s", v)), nil
		}
		f.Start = ts
	}
	if v, err := req.RequireString("to"); err == nil && v != "" {
		ts, pErr := time.Parse(time.RFC3339, v)
		if pErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid 'to' timestamp: %s", v)), nil
		}
		f.End = ts
	}

	notes, err := s.svc.SearchNotes(ctx, f)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(notes, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireNoteID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteNote(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: note %d", id)), nil
}

func (s *Server) getStatistics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.svc.Statistics(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDictationContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DictationFormatContract), nil
}

func (s *Server) readDictationFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "soapnote://dictation-format",
			MIMEType: "text/markdown",
			Text:     DictationFormatContract,
		},
	}, nil
}
