package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/deckwright/deckfonts-mcp/internal/analysis"
	"github.com/deckwright/deckfonts-mcp/internal/errors"
	"github.com/deckwright/deckfonts-mcp/internal/logging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "ppt_open", "ppt_analyze_fonts").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000;
// the message names the taxonomy kind and the data carries the error string.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	logging.ToolCall(params.Name, time.Since(start), err != nil)
	if err != nil {
		return s.errorResponse(req.ID, -32000,
			fmt.Sprintf("Tool execution failed (%s)", errorKind(err)), err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Resolves the session from the session manager
//  4. Calls the appropriate session operation
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Session Lifecycle
	case "ppt_open":
		return s.handlePptOpen(ctx, args)
	case "ppt_close":
		return s.handlePptClose(args)
	case "ppt_deck_info":
		return s.handlePptDeckInfo(args)

	// Font Analysis and Repair
	case "ppt_analyze_fonts":
		return s.handlePptAnalyzeFonts(ctx, args)
	case "ppt_replace_font":
		return s.handlePptReplaceFont(ctx, args)
	case "ppt_remove_shapes":
		return s.handlePptRemoveShapes(ctx, args)
	case "ppt_save":
		return s.handlePptSave(ctx, args)
	case "ppt_update_and_save":
		return s.handlePptUpdateAndSave(ctx, args)

	// Embedded Media
	case "ppt_list_media":
		return s.handlePptListMedia(ctx, args)
	case "ppt_scan_picture_text":
		return s.handlePptScanPictureText(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// errorKind labels an error with its taxonomy kind for the error response.
func errorKind(err error) string {
	var ioErr *errors.IOError
	switch {
	case errors.Is(err, errors.ErrNotFound):
		return "not_found"
	case errors.Is(err, errors.ErrLoadFailure):
		return "load_failure"
	case errors.Is(err, errors.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, errors.ErrInvalidArgument):
		return "invalid_argument"
	case errors.As(err, &ioErr):
		return "io_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Session Lifecycle Handlers ===

type pptOpenArgs struct {
	FilePath string `json:"file_path"`
}

type pptOpenResult struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

func (s *Server) handlePptOpen(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pptOpenArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.FilePath == "" {
		return nil, errors.NewValidation("file_path", "must not be empty")
	}
	sess, err := s.sessions.Open(ctx, a.FilePath)
	if err != nil {
		return nil, err
	}
	info := sess.Info()
	return pptOpenResult{
		SessionID: sess.ID(),
		Status:    fmt.Sprintf("opened %s: %d slides", a.FilePath, info.SlideCount),
	}, nil
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type pptCloseResult struct {
	Closed bool `json:"closed"`
}

func (s *Server) handlePptClose(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return pptCloseResult{Closed: s.sessions.Close(a.SessionID)}, nil
}

func (s *Server) handlePptDeckInfo(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(a.SessionID)
	if err != nil {
		return nil, err
	}
	return sess.Info(), nil
}

// === Font Analysis and Repair Handlers ===

func (s *Server) handlePptAnalyzeFonts(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(a.SessionID)
	if err != nil {
		return nil, err
	}
	return sess.Analyze(ctx)
}

type pptReplaceFontArgs struct {
	SessionID string `json:"session_id"`
	FromFont  string `json:"from_font"`
	ToFont    string `json:"to_font"`
}

type pptReplaceFontResult struct {
	RunsReplaced int `json:"runs_replaced"`
}

func (s *Server) handlePptReplaceFont(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pptReplaceFontArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.FromFont == "" {
		return nil, errors.NewValidation("from_font", "must not be empty")
	}
	sess, err := s.sessions.Get(a.SessionID)
	if err != nil {
		return nil, err
	}
	replaced, err := sess.ReplaceFont(ctx, a.FromFont, a.ToFont)
	if err != nil {
		return nil, err
	}
	return pptReplaceFontResult{RunsReplaced: replaced}, nil
}

type pptRemoveShapesArgs struct {
	SessionID string              `json:"session_id"`
	Locations []analysis.Location `json:"locations"`
}

type pptRemoveShapesResult struct {
	ShapesRemoved int `json:"shapes_removed"`
}

func (s *Server) handlePptRemoveShapes(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pptRemoveShapesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(a.SessionID)
	if err != nil {
		return nil, err
	}
	removed, err := sess.RemoveLocations(ctx, a.Locations)
	if err != nil {
		return nil, err
	}
	return pptRemoveShapesResult{ShapesRemoved: removed}, nil
}

type pptSaveArgs struct {
	SessionID  string `json:"session_id"`
	OutputPath string `json:"output_path"`
}

type pptSaveResult struct {
	SavedTo string `json:"saved_to"`
}

func (s *Server) handlePptSave(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pptSaveArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(a.SessionID)
	if err != nil {
		return nil, err
	}
	saved, err := sess.Save(ctx, a.OutputPath)
	if err != nil {
		return nil, err
	}
	return pptSaveResult{SavedTo: saved}, nil
}

type pptUpdateAndSaveArgs struct {
	SessionID         string              `json:"session_id"`
	ReplacementFont   string              `json:"replacement_font"`
	InconsistentFonts []string            `json:"inconsistent_fonts"`
	LocationsToRemove []analysis.Location `json:"locations_to_remove"`
	OutputPath        string              `json:"output_path"`
}

type pptUpdateAndSaveResult struct {
	ShapesRemoved int    `json:"shapes_removed"`
	RunsReplaced  int    `json:"runs_replaced"`
	SavedTo       string `json:"saved_to"`
	Summary       string `json:"summary"`
}

func (s *Server) handlePptUpdateAndSave(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pptUpdateAndSaveArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(a.SessionID)
	if err != nil {
		return nil, err
	}
	summary, err := sess.UpdateAndSave(ctx, a.ReplacementFont, a.InconsistentFonts, a.LocationsToRemove, a.OutputPath)
	if err != nil {
		return nil, err
	}
	return pptUpdateAndSaveResult{
		ShapesRemoved: summary.ShapesRemoved,
		RunsReplaced:  summary.RunsReplaced,
		SavedTo:       summary.SavedTo,
		Summary: fmt.Sprintf("removed %d shapes, replaced %d runs, saved to %s",
			summary.ShapesRemoved, summary.RunsReplaced, summary.SavedTo),
	}, nil
}

// === Embedded Media Handlers ===

func (s *Server) handlePptListMedia(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(a.SessionID)
	if err != nil {
		return nil, err
	}
	return sess.MediaInventory(ctx)
}

type pptScanPictureTextArgs struct {
	SessionID string `json:"session_id"`
	Language  string `json:"language"`
	// MinConfidence is a pointer so an explicit 0 (keep every word) is
	// distinguishable from the flag being absent.
	MinConfidence *float64 `json:"min_confidence"`
}

const defaultMinConfidence = 0.5

func resolveMinConfidence(v *float64) float64 {
	if v == nil {
		return defaultMinConfidence
	}
	return *v
}

func (s *Server) handlePptScanPictureText(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pptScanPictureTextArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = "eng"
	}
	sess, err := s.sessions.Get(a.SessionID)
	if err != nil {
		return nil, err
	}
	return sess.ScanPictureText(ctx, a.Language, resolveMinConfidence(a.MinConfidence))
}
