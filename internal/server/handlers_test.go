package server

import (
	"archive/zip"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestDeck builds a two-slide .pptx: Calibri dominates, Arial is
// second, and Comic Sans appears twice on slide 2.
func writeTestDeck(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "deck.pptx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	writePart := func(name, data string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(data)); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", name, err)
		}
	}

	writePart("[Content_Types].xml", xml.Header+
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`)
	writePart("ppt/presentation.xml", xml.Header+
		`<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`+
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`+
		`<p:sldIdLst><p:sldId id="256" r:id="rId1"/><p:sldId id="257" r:id="rId2"/></p:sldIdLst>`+
		`<p:sldSz cx="9144000" cy="6858000"/></p:presentation>`)
	writePart("ppt/_rels/presentation.xml.rels", xml.Header+
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide1.xml"/>`+
		`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide2.xml"/>`+
		`</Relationships>`)

	shape := func(id int, name, font, text string) string {
		return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>`+
			`<p:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="1000" cy="1000"/></a:xfrm></p:spPr>`+
			`<p:txBody><a:bodyPr/><a:p><a:r><a:rPr lang="en-US"><a:latin typeface="%s"/></a:rPr>`+
			`<a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>`, id, name, font, text)
	}
	slide := func(shapes ...string) string {
		return xml.Header +
			`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
			` xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
			`<p:cSld><p:spTree>` + strings.Join(shapes, "") + `</p:spTree></p:cSld></p:sld>`
	}

	writePart("ppt/slides/slide1.xml", slide(
		shape(2, "Title 1", "Calibri", "alpha"),
		shape(3, "Body 1", "Calibri", "beta"),
		shape(4, "Body 2", "Arial", "gamma"),
	))
	writePart("ppt/slides/slide2.xml", slide(
		shape(2, "Note 1", "Comic Sans", "delta"),
		shape(3, "Note 2", "Comic Sans", "epsilon"),
	))

	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish fixture: %v", err)
	}
	return path
}

// callTool invokes a tool through the full tools/call path and decodes the
// JSON text content into out.
func callTool(t *testing.T, s *Server, name string, args interface{}, out interface{}) *MCPResponse {
	t.Helper()

	argJSON, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("failed to marshal args: %v", err)
	}
	params, err := json.Marshal(ToolCallParams{Name: name, Arguments: argJSON})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	if resp == nil {
		t.Fatal("tools/call produced no response")
	}
	if resp.Error != nil || out == nil {
		return resp
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	text := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("failed to decode tool result %q: %v", text, err)
	}
	return resp
}

// openDeck opens the fixture deck through ppt_open and returns the session id.
func openDeck(t *testing.T, s *Server, path string) string {
	t.Helper()
	var opened struct {
		SessionID string `json:"session_id"`
		Status    string `json:"status"`
	}
	resp := callTool(t, s, "ppt_open", map[string]string{"file_path": path}, &opened)
	if resp.Error != nil {
		t.Fatalf("ppt_open failed: %+v", resp.Error)
	}
	if opened.SessionID == "" {
		t.Fatal("ppt_open returned no session id")
	}
	return opened.SessionID
}

func TestToolCallUnknownTool(t *testing.T) {
	s := New()
	resp := callTool(t, s, "ppt_levitate", map[string]string{}, nil)
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Fatalf("unknown tool: got %+v, want -32000 error", resp.Error)
	}
}

func TestToolCallInvalidParams(t *testing.T) {
	s := New()
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name":`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("invalid params: got %+v, want -32602 error", resp.Error)
	}
}

func TestPptOpenMissingFile(t *testing.T) {
	s := New()
	resp := callTool(t, s, "ppt_open",
		map[string]string{"file_path": filepath.Join(t.TempDir(), "missing.pptx")}, nil)
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Fatalf("got %+v, want -32000 error", resp.Error)
	}
	if !strings.Contains(resp.Error.Message, "not_found") {
		t.Errorf("error message should carry the kind, got %q", resp.Error.Message)
	}
}

func TestPptOpenCorruptDeck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pptx")
	if err := os.WriteFile(path, []byte("not a zip container"), 0644); err != nil {
		t.Fatal(err)
	}

	s := New()
	resp := callTool(t, s, "ppt_open", map[string]string{"file_path": path}, nil)
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Fatalf("got %+v, want -32000 error", resp.Error)
	}
	if !strings.Contains(resp.Error.Message, "load_failure") {
		t.Errorf("error message should carry the load_failure kind, got %q", resp.Error.Message)
	}
}

func TestPptOpenEmptyPath(t *testing.T) {
	s := New()
	resp := callTool(t, s, "ppt_open", map[string]string{}, nil)
	if resp.Error == nil {
		t.Fatal("empty path should fail")
	}
	if !strings.Contains(resp.Error.Message, "invalid_argument") {
		t.Errorf("error message should carry the kind, got %q", resp.Error.Message)
	}
}

func TestPptDeckInfo(t *testing.T) {
	s := New()
	id := openDeck(t, s, writeTestDeck(t, t.TempDir()))

	var info struct {
		SlideCount     int   `json:"slide_count"`
		CanvasWidthEMU int64 `json:"canvas_width_emu"`
	}
	resp := callTool(t, s, "ppt_deck_info", map[string]string{"session_id": id}, &info)
	if resp.Error != nil {
		t.Fatalf("ppt_deck_info failed: %+v", resp.Error)
	}
	if info.SlideCount != 2 {
		t.Errorf("slide_count: got %d, want 2", info.SlideCount)
	}
	if info.CanvasWidthEMU != 9144000 {
		t.Errorf("canvas_width_emu: got %d, want 9144000", info.CanvasWidthEMU)
	}
}

func TestPptDeckInfoUnknownSession(t *testing.T) {
	s := New()
	resp := callTool(t, s, "ppt_deck_info", map[string]string{"session_id": "nope"}, nil)
	if resp.Error == nil || !strings.Contains(resp.Error.Message, "not_found") {
		t.Fatalf("got %+v, want not_found error", resp.Error)
	}
}

type analyzeResult struct {
	UsedFonts               []string `json:"used_fonts"`
	UnusedFonts             []string `json:"unused_fonts"`
	InconsistentlyUsedFonts []string `json:"inconsistently_used_fonts"`
	InconsistentLocations   []struct {
		SlideNumber int    `json:"slide_number"`
		ShapeName   string `json:"shape_name"`
	} `json:"inconsistent_font_locations"`
}

func TestAnalyzeReplaceSaveFlow(t *testing.T) {
	dir := t.TempDir()
	s := New()
	id := openDeck(t, s, writeTestDeck(t, dir))

	var res analyzeResult
	resp := callTool(t, s, "ppt_analyze_fonts", map[string]string{"session_id": id}, &res)
	if resp.Error != nil {
		t.Fatalf("ppt_analyze_fonts failed: %+v", resp.Error)
	}
	if len(res.UsedFonts) != 2 || res.UsedFonts[0] != "Calibri" || res.UsedFonts[1] != "Arial" {
		t.Fatalf("used_fonts: got %v, want [Calibri Arial]", res.UsedFonts)
	}
	if len(res.InconsistentlyUsedFonts) != 1 || res.InconsistentlyUsedFonts[0] != "Comic Sans" {
		t.Fatalf("inconsistently_used_fonts: got %v", res.InconsistentlyUsedFonts)
	}
	if len(res.InconsistentLocations) != 2 {
		t.Fatalf("inconsistent_font_locations: got %d, want 2", len(res.InconsistentLocations))
	}

	var replaced struct {
		RunsReplaced int `json:"runs_replaced"`
	}
	resp = callTool(t, s, "ppt_replace_font", map[string]string{
		"session_id": id,
		"from_font":  "Comic Sans",
		"to_font":    "Calibri",
	}, &replaced)
	if resp.Error != nil {
		t.Fatalf("ppt_replace_font failed: %+v", resp.Error)
	}
	if replaced.RunsReplaced != 2 {
		t.Errorf("runs_replaced: got %d, want 2", replaced.RunsReplaced)
	}

	out := filepath.Join(dir, "fixed.pptx")
	var saved struct {
		SavedTo string `json:"saved_to"`
	}
	resp = callTool(t, s, "ppt_save", map[string]string{
		"session_id":  id,
		"output_path": out,
	}, &saved)
	if resp.Error != nil {
		t.Fatalf("ppt_save failed: %+v", resp.Error)
	}
	if saved.SavedTo != out {
		t.Errorf("saved_to: got %q, want %q", saved.SavedTo, out)
	}

	// The saved deck has no Comic Sans left.
	id2 := openDeck(t, s, out)
	var res2 analyzeResult
	resp = callTool(t, s, "ppt_analyze_fonts", map[string]string{"session_id": id2}, &res2)
	if resp.Error != nil {
		t.Fatalf("re-analysis failed: %+v", resp.Error)
	}
	if len(res2.InconsistentlyUsedFonts) != 0 {
		t.Errorf("repaired deck still inconsistent: %v", res2.InconsistentlyUsedFonts)
	}
}

func TestReplaceFontRejectedWithoutAnalysis(t *testing.T) {
	s := New()
	id := openDeck(t, s, writeTestDeck(t, t.TempDir()))

	resp := callTool(t, s, "ppt_replace_font", map[string]string{
		"session_id": id,
		"from_font":  "Comic Sans",
		"to_font":    "Calibri",
	}, nil)
	if resp.Error == nil || !strings.Contains(resp.Error.Message, "invalid_state") {
		t.Fatalf("got %+v, want invalid_state error", resp.Error)
	}
}

func TestReplaceFontRejectsUnseenReplacement(t *testing.T) {
	s := New()
	id := openDeck(t, s, writeTestDeck(t, t.TempDir()))

	callTool(t, s, "ppt_analyze_fonts", map[string]string{"session_id": id}, nil)
	resp := callTool(t, s, "ppt_replace_font", map[string]string{
		"session_id": id,
		"from_font":  "Comic Sans",
		"to_font":    "Papyrus",
	}, nil)
	if resp.Error == nil || !strings.Contains(resp.Error.Message, "invalid_argument") {
		t.Fatalf("got %+v, want invalid_argument error", resp.Error)
	}
}

func TestRemoveShapes(t *testing.T) {
	s := New()
	id := openDeck(t, s, writeTestDeck(t, t.TempDir()))

	var removed struct {
		ShapesRemoved int `json:"shapes_removed"`
	}
	resp := callTool(t, s, "ppt_remove_shapes", map[string]interface{}{
		"session_id": id,
		"locations": []map[string]interface{}{
			{"slide_number": 2, "shape_name": "Note 1"},
			{"slide_number": 2, "shape_name": "No Such Shape"},
		},
	}, &removed)
	if resp.Error != nil {
		t.Fatalf("ppt_remove_shapes failed: %+v", resp.Error)
	}
	if removed.ShapesRemoved != 1 {
		t.Errorf("shapes_removed: got %d, want 1", removed.ShapesRemoved)
	}
}

func TestUpdateAndSaveTool(t *testing.T) {
	dir := t.TempDir()
	s := New()
	id := openDeck(t, s, writeTestDeck(t, dir))

	var res analyzeResult
	callTool(t, s, "ppt_analyze_fonts", map[string]string{"session_id": id}, &res)

	out := filepath.Join(dir, "repaired.pptx")
	var result struct {
		ShapesRemoved int    `json:"shapes_removed"`
		RunsReplaced  int    `json:"runs_replaced"`
		Summary       string `json:"summary"`
	}
	resp := callTool(t, s, "ppt_update_and_save", map[string]interface{}{
		"session_id":         id,
		"replacement_font":   "Calibri",
		"inconsistent_fonts": res.InconsistentlyUsedFonts,
		"locations_to_remove": []map[string]interface{}{
			{"slide_number": 2, "shape_name": "Note 2"},
		},
		"output_path": out,
	}, &result)
	if resp.Error != nil {
		t.Fatalf("ppt_update_and_save failed: %+v", resp.Error)
	}
	if result.ShapesRemoved != 1 || result.RunsReplaced != 1 {
		t.Errorf("got removed=%d replaced=%d, want 1/1", result.ShapesRemoved, result.RunsReplaced)
	}
	if !strings.Contains(result.Summary, out) {
		t.Errorf("summary should name the output path, got %q", result.Summary)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestPptClose(t *testing.T) {
	s := New()
	id := openDeck(t, s, writeTestDeck(t, t.TempDir()))

	var closed struct {
		Closed bool `json:"closed"`
	}
	resp := callTool(t, s, "ppt_close", map[string]string{"session_id": id}, &closed)
	if resp.Error != nil {
		t.Fatalf("ppt_close failed: %+v", resp.Error)
	}
	if !closed.Closed {
		t.Error("closed: got false, want true")
	}

	// The session is gone.
	resp = callTool(t, s, "ppt_deck_info", map[string]string{"session_id": id}, nil)
	if resp.Error == nil {
		t.Error("deck info on closed session should fail")
	}

	// Closing again reports false, not an error.
	resp = callTool(t, s, "ppt_close", map[string]string{"session_id": id}, &closed)
	if resp.Error != nil || closed.Closed {
		t.Errorf("second close: got %+v closed=%v, want clean false", resp.Error, closed.Closed)
	}
}

func TestPptListMediaEmptyDeck(t *testing.T) {
	s := New()
	id := openDeck(t, s, writeTestDeck(t, t.TempDir()))

	var items []struct {
		Name string `json:"name"`
	}
	resp := callTool(t, s, "ppt_list_media", map[string]string{"session_id": id}, &items)
	if resp.Error != nil {
		t.Fatalf("ppt_list_media failed: %+v", resp.Error)
	}
	if len(items) != 0 {
		t.Errorf("media items: got %d, want 0", len(items))
	}
}

func TestScanConfidenceDefaulting(t *testing.T) {
	var absent pptScanPictureTextArgs
	if err := json.Unmarshal([]byte(`{"session_id":"x"}`), &absent); err != nil {
		t.Fatal(err)
	}
	if got := resolveMinConfidence(absent.MinConfidence); got != defaultMinConfidence {
		t.Errorf("omitted min_confidence: got %v, want %v", got, defaultMinConfidence)
	}

	// An explicit zero means keep every word; it must not fall back to
	// the default.
	var zero pptScanPictureTextArgs
	if err := json.Unmarshal([]byte(`{"session_id":"x","min_confidence":0}`), &zero); err != nil {
		t.Fatal(err)
	}
	if zero.MinConfidence == nil {
		t.Fatal("explicit zero should decode as present")
	}
	if got := resolveMinConfidence(zero.MinConfidence); got != 0 {
		t.Errorf("explicit zero min_confidence: got %v, want 0", got)
	}

	var set pptScanPictureTextArgs
	if err := json.Unmarshal([]byte(`{"session_id":"x","min_confidence":0.8}`), &set); err != nil {
		t.Fatal(err)
	}
	if got := resolveMinConfidence(set.MinConfidence); got != 0.8 {
		t.Errorf("explicit min_confidence: got %v, want 0.8", got)
	}
}
