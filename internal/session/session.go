package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/deckwright/deckfonts-mcp/internal/analysis"
	"github.com/deckwright/deckfonts-mcp/internal/deck"
	"github.com/deckwright/deckfonts-mcp/internal/errors"
	"github.com/deckwright/deckfonts-mcp/internal/logging"
	"github.com/deckwright/deckfonts-mcp/internal/media"
	"github.com/deckwright/deckfonts-mcp/internal/picturetext"
)

// Session is one open presentation and the analysis state that goes with it.
//
// The visible-font cache is what ReplaceFont and UpdateAndSave validate
// replacement fonts against. It is populated by Analyze and invalidated by
// any operation that changes the document, so a replacement can never be
// justified by analysis results that no longer describe the deck.
//
// All methods serialize on the session's lock; a Session is safe for
// concurrent use.
type Session struct {
	mu           sync.Mutex
	id           string
	doc          *deck.Document
	visibleFonts map[string]bool // lowercase font names from the last analysis
	stale        bool            // true until the next Analyze
}

// ID returns the session handle.
func (s *Session) ID() string {
	return s.id
}

// Info describes the open presentation.
type Info struct {
	Path            string  `json:"path"`
	SlideCount      int     `json:"slide_count"`
	HiddenSlides    int     `json:"hidden_slides"`
	CanvasWidthEMU  int64   `json:"canvas_width_emu"`
	CanvasHeightEMU int64   `json:"canvas_height_emu"`
	CanvasWidthIn   float64 `json:"canvas_width_in"`
	CanvasHeightIn  float64 `json:"canvas_height_in"`
	MediaCount      int     `json:"media_count"`
	Title           string  `json:"title,omitempty"`
	Creator         string  `json:"creator,omitempty"`
}

// UpdateSummary reports what UpdateAndSave changed.
type UpdateSummary struct {
	ShapesRemoved int    `json:"shapes_removed"`
	RunsReplaced  int    `json:"runs_replaced"`
	SavedTo       string `json:"saved_to"`
}

// Reopen replaces the session's document with the presentation at path.
// The previous document and any cached analysis are discarded.
func (s *Session) Reopen(ctx context.Context, path string) error {
	doc, err := deck.Open(ctx, path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.doc = doc
	s.visibleFonts = nil
	s.stale = true
	s.mu.Unlock()
	logging.SessionEvent("reopened", s.id, "path", path)
	return nil
}

// Info returns metadata about the open presentation.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	hidden := 0
	for _, sl := range s.doc.Slides() {
		if sl.Hidden {
			hidden++
		}
	}
	core := s.doc.Core()
	return Info{
		Path:            s.doc.Path(),
		SlideCount:      s.doc.SlideCount(),
		HiddenSlides:    hidden,
		CanvasWidthEMU:  s.doc.CanvasWidth(),
		CanvasHeightEMU: s.doc.CanvasHeight(),
		CanvasWidthIn:   deck.EMUToInch(s.doc.CanvasWidth()),
		CanvasHeightIn:  deck.EMUToInch(s.doc.CanvasHeight()),
		MediaCount:      len(s.doc.MediaParts()),
		Title:           core.Title,
		Creator:         core.Creator,
	}
}

// Analyze classifies font usage across the whole deck and refreshes the
// visible-font cache. The cache stays fresh until the next mutation.
func (s *Session) Analyze(ctx context.Context) (*analysis.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := analysis.Analyze(ctx, s.doc.Slides(), s.doc.CanvasWidth(), s.doc.CanvasHeight())
	if err != nil {
		return nil, err
	}
	s.visibleFonts = res.VisibleFontKeys()
	s.stale = false
	return res, nil
}

// RemoveLocations deletes the named shapes from their slides and returns how
// many were actually removed. Locations that no longer match anything are
// logged and skipped; they never fail the call. Any removal invalidates the
// cached analysis.
func (s *Session) RemoveLocations(ctx context.Context, locs []analysis.Location) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(ctx, locs)
}

func (s *Session) removeLocked(ctx context.Context, locs []analysis.Location) (int, error) {
	removed := 0
	for _, loc := range locs {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if s.doc.RemoveShape(loc.SlideNumber, loc.ShapeName) {
			removed++
			continue
		}
		logging.WarnContext(ctx, "shape not found for removal",
			"session_id", s.id,
			"slide_number", loc.SlideNumber,
			"shape_name", loc.ShapeName)
	}
	if removed > 0 {
		s.stale = true
	}
	return removed, nil
}

// ReplaceFont rewrites every run using font from (case-insensitive) to use
// font to, across all slides. The replacement font must be visibly in use
// according to a fresh analysis; a stale or missing analysis is an error,
// as is a replacement font the deck never shows. A successful replacement
// invalidates the cached analysis.
func (s *Session) ReplaceFont(ctx context.Context, from, to string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(from) == "" {
		return 0, errors.NewValidation("from_font", "must not be empty")
	}
	if err := s.validateReplacementLocked(to); err != nil {
		return 0, err
	}
	return s.replaceLocked(from, to), nil
}

func (s *Session) replaceLocked(from, to string) int {
	replaced := s.doc.ReplaceFont(from, to)
	if replaced > 0 {
		s.stale = true
	}
	return replaced
}

func (s *Session) validateReplacementLocked(to string) error {
	if strings.TrimSpace(to) == "" {
		return errors.NewValidation("replacement_font", "must not be empty")
	}
	if s.stale || s.visibleFonts == nil {
		return errors.NewState("replace fonts", "analysis results are stale; run analyze first")
	}
	if !s.visibleFonts[strings.ToLower(to)] {
		return &errors.ValidationError{
			Field:   "replacement_font",
			Value:   to,
			Message: fmt.Sprintf("font %q is not visibly used in the presentation", to),
		}
	}
	return nil
}

// Save writes the presentation to path, or back over its source file when
// path is empty.
func (s *Session) Save(ctx context.Context, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, path)
}

func (s *Session) saveLocked(ctx context.Context, path string) (string, error) {
	if path == "" {
		path = s.doc.Path()
	}
	if err := s.doc.Save(ctx, path); err != nil {
		return "", err
	}
	return path, nil
}

// UpdateAndSave is the one-call repair: validate the replacement font
// against the current analysis, remove the given shapes, rewrite every
// listed font to the replacement, and save.
//
// Validation happens before any mutation, so a rejected replacement leaves
// the document untouched. Once validated, the removals and rewrites all run
// against that one decision; the cached analysis ends up stale whenever
// anything actually changed.
func (s *Session) UpdateAndSave(ctx context.Context, replacement string, fonts []string, locs []analysis.Location, outPath string) (*UpdateSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateReplacementLocked(replacement); err != nil {
		return nil, err
	}

	removed, err := s.removeLocked(ctx, locs)
	if err != nil {
		return nil, err
	}
	replaced := 0
	for _, font := range fonts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		replaced += s.replaceLocked(font, replacement)
	}

	saved, err := s.saveLocked(ctx, outPath)
	if err != nil {
		return nil, err
	}
	return &UpdateSummary{
		ShapesRemoved: removed,
		RunsReplaced:  replaced,
		SavedTo:       saved,
	}, nil
}

// MediaInventory lists the embedded media parts of the presentation.
func (s *Session) MediaInventory(ctx context.Context) ([]media.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return media.Inventory(ctx, s.doc.MediaParts())
}

// ScanPictureText runs OCR over the embedded raster pictures and reports
// text trapped inside them.
func (s *Session) ScanPictureText(ctx context.Context, language string, minConfidence float64) ([]picturetext.Finding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return picturetext.Scan(ctx, s.doc.MediaParts(), language, minConfidence)
}
