// Package analysis classifies font usage across the slides of a
// presentation: which fonts carry the deck, which are visual noise, and
// where that noise lives.
package analysis

// ShapeVisible reports whether any part of the rectangle (x, y, w, h)
// intersects the slide canvas. A shape is off-slide only when it lies
// entirely beyond one of the four canvas edges; partial overlap counts as
// visible.
//
// All values are EMU. The canvas origin is the top-left corner.
func ShapeVisible(x, y, w, h, canvasW, canvasH int64) bool {
	if x+w <= 0 || x >= canvasW {
		return false
	}
	if y+h <= 0 || y >= canvasH {
		return false
	}
	return true
}
