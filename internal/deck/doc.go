// Package deck reads, edits, and writes PowerPoint (.pptx) presentations.
//
// # Model
//
// A Document is an exclusive in-memory copy of one presentation: every part
// of the zip container held as raw bytes, plus a parsed XML tree for each
// slide part. Read accessors build lightweight Slide/Shape/TextRun views over
// the trees; mutations (RemoveShape, ReplaceFont) edit the trees in place and
// mark the affected parts dirty. Save streams a new container in which
// untouched parts are copied byte for byte and dirty slide parts are
// re-serialized, so everything the editor never touched survives unchanged.
//
// # Coordinates
//
// All positions and sizes are EMU (English Metric Units): 914400 per inch,
// 12700 per point. A standard 16:9 canvas is 9144000 x 6858000.
package deck
