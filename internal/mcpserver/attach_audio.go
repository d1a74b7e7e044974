package mcpserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ashwell/soapnote/internal/models"
)

const maxAudioSize = 10 << 20 // 10 MB

var audioMimeToFormat = map[string]string{
	"audio/wav":   "wav",
	"audio/x-wav": "wav",
	"audio/wave":  "wav",
	"audio/flac":  "flac",
	"audio/ogg":   "ogg",
	"audio/mpeg":  "mp3",
	"audio/mp3":   "mp3",
}

func (s *Server) registerAttachAudio() {
	s.mcp.AddTool(mcp.NewTool("attach_audio",
		mcp.WithDescription("Attach a dictation recording to an existing note. Accepts "+
			"base64-encoded audio bytes or a data:audio/...;base64 URI."),
		mcp.WithString("note_id", mcp.Required(), mcp.Description("Numeric note id")),
		mcp.WithString("audio", mcp.Required(), mcp.Description("Base64-encoded audio, or a data URI")),
		mcp.WithString("format", mcp.Description("Audio container format (default wav)")),
	), s.attachAudio)
}

func (s *Server) attachAudio(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireNoteID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("audio")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	format := models.DefaultAudioFormat
	if v, fErr := req.RequireString("format"); fErr == nil && v != "" {
		format = strings.ToLower(v)
	}

	var data []byte
	if strings.HasPrefix(raw, "data:") {
		var uriFormat string
		data, uriFormat, err = decodeAudioDataURI(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if uriFormat != "" {
			format = uriFormat
		}
	} else {
		data, err = decodeBase64(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid base64 audio: %v", err)), nil
		}
	}

	if len(data) > maxAudioSize {
		return mcp.NewToolResultError(fmt.Sprintf("recording too large: %d bytes (max %d)", len(data), maxAudioSize)), nil
	}

	if err := s.svc.AttachAudio(ctx, id, data, format); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("attached %d bytes of %s audio to note %d", len(data), format, id)), nil
}

// decodeAudioDataURI parses a data:[<mediatype>][;base64],<data> URI and
// returns the bytes plus the format implied by the MIME type.
func decodeAudioDataURI(uri string) ([]byte, string, error) {
	rest := strings.TrimPrefix(uri, "data:")
	commaIdx := strings.Index(rest, ",")
	if commaIdx < 0 {
		return nil, "", fmt.Errorf("invalid data URI: missing comma separator")
	}

	meta := rest[:commaIdx]
	encoded := rest[commaIdx+1:]

	if !strings.Contains(meta, ";base64") {
		return nil, "", fmt.Errorf("only base64 data URIs are supported")
	}

	data, err := decodeBase64(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 data: %w", err)
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	format := audioMimeToFormat[mime]
	if format == "" {
		return nil, "", fmt.Errorf("unsupported MIME type in data URI: %s", mime)
	}
	return data, format, nil
}

func decodeBase64(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}
