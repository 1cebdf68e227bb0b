package analysis

import (
	"context"
	"sort"
	"strings"

	"github.com/deckwright/deckfonts-mcp/internal/deck"
)

// topUsedFonts is how many of the most-frequent visible fonts count as the
// deck's intended fonts. Everything ranked below is inconsistent usage.
const topUsedFonts = 2

// Location identifies one shape on one slide.
type Location struct {
	SlideNumber int    `json:"slide_number"`
	ShapeName   string `json:"shape_name"`
}

// Result is the full font-usage classification of a presentation.
//
// Font names are compared case-insensitively throughout; the first
// encountered casing is the one reported. Every font that appears anywhere
// in the deck lands in exactly one of UsedFonts, UnusedFonts, or
// InconsistentlyUsedFonts.
type Result struct {
	// UsedFonts are the dominant visible fonts, most frequent first.
	UsedFonts []string `json:"used_fonts"`
	// UnusedFonts appear in the deck but never in visible text.
	UnusedFonts []string `json:"unused_fonts"`
	// InconsistentlyUsedFonts are visible but outside the dominant set.
	InconsistentlyUsedFonts []string `json:"inconsistently_used_fonts"`
	// UnusedFontLocations are shapes whose text boxes contribute nothing
	// visible: empty boxes and boxes positioned off the canvas. One entry
	// per finding, so a shape may appear more than once.
	UnusedFontLocations []Location `json:"unused_font_locations"`
	// InconsistentFontLocations are the shapes where inconsistent fonts
	// occur, one entry per occurrence.
	InconsistentFontLocations []Location `json:"inconsistent_font_locations"`
}

// fontStat accumulates visible usage of one font.
type fontStat struct {
	display   string
	count     int // qualifying runs, not distinct shapes
	firstSeen int
	locations []Location
}

// Analyze walks every slide and classifies font usage against the canvas
// (canvasW x canvasH EMU).
//
// A font counts as visibly used only when all three hold: the slide is not
// hidden, the shape intersects the canvas, and the run's own text is not
// whitespace. The most frequent visible fonts (ties broken by first
// encounter) become UsedFonts; the rest of the visible fonts are
// inconsistent; fonts never visibly used are unused.
func Analyze(ctx context.Context, slides []deck.Slide, canvasW, canvasH int64) (*Result, error) {
	res := &Result{
		UsedFonts:                 []string{},
		UnusedFonts:               []string{},
		InconsistentlyUsedFonts:   []string{},
		UnusedFontLocations:       []Location{},
		InconsistentFontLocations: []Location{},
	}

	allDisplay := make(map[string]string)
	var allOrder []string
	visible := make(map[string]*fontStat)
	ordinal := 0

	for _, slide := range slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slideVisible := !slide.Hidden
		for _, shape := range slide.Shapes {
			if shape.TextBox == nil {
				continue
			}
			shapeVisible := true
			if shape.HasFrame {
				shapeVisible = ShapeVisible(shape.X, shape.Y, shape.W, shape.H, canvasW, canvasH)
			}
			loc := Location{SlideNumber: shape.SlideNumber, ShapeName: shape.Name}

			if strings.TrimSpace(shape.TextBox.Text()) == "" {
				// An empty text box is dead weight wherever it sits.
				res.UnusedFontLocations = append(res.UnusedFontLocations, loc)
			} else if !shapeVisible {
				res.UnusedFontLocations = append(res.UnusedFontLocations, loc)
			}

			for _, para := range shape.TextBox.Paragraphs {
				for _, run := range para.Runs {
					if run.FontName == "" {
						continue
					}
					ordinal++
					key := strings.ToLower(run.FontName)
					if _, ok := allDisplay[key]; !ok {
						allDisplay[key] = run.FontName
						allOrder = append(allOrder, key)
					}
					if !slideVisible || !shapeVisible || strings.TrimSpace(run.Text) == "" {
						continue
					}
					st, ok := visible[key]
					if !ok {
						st = &fontStat{display: run.FontName, firstSeen: ordinal}
						visible[key] = st
					}
					st.count++
					st.locations = append(st.locations, loc)
				}
			}
		}
	}

	for _, key := range allOrder {
		if _, ok := visible[key]; !ok {
			res.UnusedFonts = append(res.UnusedFonts, allDisplay[key])
		}
	}

	ranked := make([]*fontStat, 0, len(visible))
	for _, st := range visible {
		ranked = append(ranked, st)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].firstSeen < ranked[j].firstSeen
	})

	for i, st := range ranked {
		if i < topUsedFonts {
			res.UsedFonts = append(res.UsedFonts, st.display)
			continue
		}
		res.InconsistentlyUsedFonts = append(res.InconsistentlyUsedFonts, st.display)
		res.InconsistentFontLocations = append(res.InconsistentFontLocations, st.locations...)
	}

	return res, nil
}

// VisibleFontKeys returns the lowercase names of every font the analysis
// found in visible use (used and inconsistent alike). The result backs the
// replacement-font validation cache.
func (r *Result) VisibleFontKeys() map[string]bool {
	keys := make(map[string]bool, len(r.UsedFonts)+len(r.InconsistentlyUsedFonts))
	for _, f := range r.UsedFonts {
		keys[strings.ToLower(f)] = true
	}
	for _, f := range r.InconsistentlyUsedFonts {
		keys[strings.ToLower(f)] = true
	}
	return keys
}
