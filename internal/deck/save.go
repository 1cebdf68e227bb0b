package deck

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/deckwright/deckfonts-mcp/internal/errors"
)

// Save writes the presentation to a file. Untouched parts are copied byte
// for byte from the opened container; slide parts edited since open are
// re-serialized from their XML trees. Saving over the source path is safe.
//
// A failed write is removed where possible, but no rollback is attempted
// beyond that.
func (d *Document) Save(ctx context.Context, path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIO("create directory for", path, err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.NewIO("create", path, err)
	}

	writeErr := d.writeTo(ctx, f)
	closeErr := f.Close()

	if writeErr != nil {
		// Attempt cleanup on write failure
		os.Remove(path)
		return errors.NewIO("write", path, writeErr)
	}
	if closeErr != nil {
		return errors.NewIO("close", path, closeErr)
	}
	return nil
}

// writeTo streams the container to w in the original part order.
func (d *Document) writeTo(ctx context.Context, w io.Writer) error {
	serialized := make(map[string][]byte, len(d.slides))
	for _, sp := range d.slides {
		if sp.dirty {
			serialized[sp.partName] = []byte(sp.root.OutputXML(true))
		}
	}

	zw := zip.NewWriter(w)
	for _, part := range d.parts {
		if err := ctx.Err(); err != nil {
			zw.Close()
			return err
		}
		data := part.Data
		if edited, ok := serialized[part.Name]; ok {
			data = edited
		}
		pw, err := zw.Create(part.Name)
		if err != nil {
			zw.Close()
			return err
		}
		if _, err := pw.Write(data); err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}
