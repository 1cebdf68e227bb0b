package deck

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/deckwright/deckfonts-mcp/internal/errors"
)

// maxZipEntrySize is the maximum allowed size for a single file extracted
// from the container. This prevents zip bomb attacks. 50 MB is generous for
// any legitimate PPTX part.
const maxZipEntrySize = 50 << 20 // 50 MB

// maxZipTotalSize is the cumulative limit for all extracted content from a
// single container.
const maxZipTotalSize = 200 << 20 // 200 MB

// maxZipEntries is the maximum number of files allowed in the container.
const maxZipEntries = 10000

// Part is one file inside the presentation container.
type Part struct {
	Name string
	Data []byte
}

// CoreProperties holds document metadata from docProps/core.xml. All fields
// may be empty.
type CoreProperties struct {
	Title          string `json:"title,omitempty"`
	Subject        string `json:"subject,omitempty"`
	Creator        string `json:"creator,omitempty"`
	LastModifiedBy string `json:"last_modified_by,omitempty"`
}

// slidePart is one slide of the presentation: its container part name, its
// 1-based position in the slide order, and its parsed XML tree.
type slidePart struct {
	number   int
	partName string
	root     *xmlquery.Node
	dirty    bool
}

// Document is an exclusive in-memory copy of one .pptx presentation.
//
// A Document is not safe for concurrent use; callers serialize access.
type Document struct {
	path    string
	parts   []Part
	partIdx map[string]int

	canvasW int64
	canvasH int64

	slides []*slidePart
	core   CoreProperties
}

// --- Container XML structures (read-only parts decoded with struct tags) ---

type presentationXML struct {
	XMLName     xml.Name        `xml:"presentation"`
	SlideIdList *slideIdListXML `xml:"sldIdLst"`
	SlideSz     *slideSzXML     `xml:"sldSz"`
}

type slideIdListXML struct {
	SlideId []slideIdXML `xml:"sldId"`
}

type slideIdXML struct {
	ID  string `xml:"id,attr"`
	RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"` // r:id attribute for relationship
}

type slideSzXML struct {
	Cx int64 `xml:"cx,attr"` // Width in EMUs
	Cy int64 `xml:"cy,attr"` // Height in EMUs
}

type relationshipXML struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type relationshipsXML struct {
	XMLName       xml.Name          `xml:"Relationships"`
	Relationships []relationshipXML `xml:"Relationship"`
}

type corePropertiesXML struct {
	XMLName        xml.Name `xml:"coreProperties"`
	Title          string   `xml:"title"`
	Subject        string   `xml:"subject"`
	Creator        string   `xml:"creator"`
	LastModifiedBy string   `xml:"lastModifiedBy"`
}

// Open loads the presentation at path entirely into memory and parses its
// slide parts.
//
// A missing file reports errors.ErrNotFound; anything that exists but cannot
// be read as a presentation reports a LoadError. The returned Document holds
// no file handle, so saving back over the source path is safe.
func Open(ctx context.Context, path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("presentation", path)
		}
		return nil, errors.NewLoad(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.NewLoad(path, err)
	}
	if info.Size() > maxZipTotalSize {
		return nil, errors.NewLoad(path, fmt.Errorf("file size %d exceeds maximum allowed (%d bytes)", info.Size(), maxZipTotalSize))
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, errors.NewLoad(path, fmt.Errorf("failed to open zip: %w", err))
	}
	if len(zr.File) > maxZipEntries {
		return nil, errors.NewLoad(path, fmt.Errorf("zip archive contains too many entries (%d > %d)", len(zr.File), maxZipEntries))
	}

	d := &Document{
		path:    path,
		parts:   make([]Part, 0, len(zr.File)),
		partIdx: make(map[string]int, len(zr.File)),
	}

	var total int64
	for _, zf := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.HasSuffix(zf.Name, "/") {
			continue // directory entry
		}
		if _, dup := d.partIdx[zf.Name]; dup {
			continue // duplicate entries keep the first copy
		}
		data, err := readZipEntry(zf)
		if err != nil {
			return nil, errors.NewLoad(path, err)
		}
		total += int64(len(data))
		if total > maxZipTotalSize {
			return nil, errors.NewLoad(path, fmt.Errorf("extracted content exceeds maximum allowed size (%d bytes)", maxZipTotalSize))
		}
		d.partIdx[zf.Name] = len(d.parts)
		d.parts = append(d.parts, Part{Name: zf.Name, Data: data})
	}

	for _, required := range []string{"[Content_Types].xml", "ppt/presentation.xml"} {
		if _, ok := d.partIdx[required]; !ok {
			return nil, errors.NewLoad(path, fmt.Errorf("required part missing: %s", required))
		}
	}

	if err := d.parsePresentation(ctx); err != nil {
		return nil, errors.NewLoad(path, err)
	}
	d.parseCoreProperties()

	return d, nil
}

func readZipEntry(zf *zip.File) ([]byte, error) {
	if zf.UncompressedSize64 > maxZipEntrySize {
		return nil, fmt.Errorf("file %s exceeds maximum allowed size (%d bytes)", zf.Name, maxZipEntrySize)
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in zip: %w", zf.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, int64(maxZipEntrySize)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from zip: %w", zf.Name, err)
	}
	if int64(len(data)) > int64(maxZipEntrySize) {
		return nil, fmt.Errorf("file %s actual size exceeds maximum allowed size", zf.Name)
	}
	return data, nil
}

// parsePresentation reads slide order and canvas size from
// ppt/presentation.xml, resolves each slide relationship to its part, and
// parses the slide XML trees.
func (d *Document) parsePresentation(ctx context.Context) error {
	var pres presentationXML
	if err := xml.Unmarshal(d.partData("ppt/presentation.xml"), &pres); err != nil {
		return fmt.Errorf("failed to parse presentation.xml: %w", err)
	}

	d.canvasW, d.canvasH = DefaultCanvasWidth, DefaultCanvasHeight
	if pres.SlideSz != nil && pres.SlideSz.Cx > 0 && pres.SlideSz.Cy > 0 {
		d.canvasW, d.canvasH = pres.SlideSz.Cx, pres.SlideSz.Cy
	}

	rels := d.parseRelationships("ppt/_rels/presentation.xml.rels")

	if pres.SlideIdList == nil {
		return nil
	}
	for _, sldId := range pres.SlideIdList.SlideId {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := ""
		for _, rel := range rels {
			if rel.ID == sldId.RID {
				target = rel.Target
				break
			}
		}
		if target == "" {
			continue
		}
		if !strings.HasPrefix(target, "ppt/") {
			target = "ppt/" + target
		}
		idx, ok := d.partIdx[target]
		if !ok {
			continue
		}
		root, err := xmlquery.Parse(bytes.NewReader(d.parts[idx].Data))
		if err != nil {
			return fmt.Errorf("failed to parse slide %s: %w", target, err)
		}
		d.slides = append(d.slides, &slidePart{
			number:   len(d.slides) + 1,
			partName: target,
			root:     root,
		})
	}
	return nil
}

func (d *Document) parseRelationships(partName string) []relationshipXML {
	data := d.partData(partName)
	if data == nil {
		return nil // relationships file may not exist
	}
	var rels relationshipsXML
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil
	}
	return rels.Relationships
}

// parseCoreProperties reads docProps/core.xml. Missing or malformed metadata
// is acceptable.
func (d *Document) parseCoreProperties() {
	data := d.partData("docProps/core.xml")
	if data == nil {
		return
	}
	var core corePropertiesXML
	if err := xml.Unmarshal(data, &core); err != nil {
		return
	}
	d.core = CoreProperties{
		Title:          core.Title,
		Subject:        core.Subject,
		Creator:        core.Creator,
		LastModifiedBy: core.LastModifiedBy,
	}
}

func (d *Document) partData(name string) []byte {
	idx, ok := d.partIdx[name]
	if !ok {
		return nil
	}
	return d.parts[idx].Data
}

func (d *Document) slideByNumber(number int) *slidePart {
	for _, sp := range d.slides {
		if sp.number == number {
			return sp
		}
	}
	return nil
}

// Path returns the file path the document was opened from.
func (d *Document) Path() string {
	return d.path
}

// SlideCount returns the number of slides in presentation order.
func (d *Document) SlideCount() int {
	return len(d.slides)
}

// CanvasWidth returns the slide canvas width in EMU.
func (d *Document) CanvasWidth() int64 {
	return d.canvasW
}

// CanvasHeight returns the slide canvas height in EMU.
func (d *Document) CanvasHeight() int64 {
	return d.canvasH
}

// Core returns document metadata from docProps/core.xml.
func (d *Document) Core() CoreProperties {
	return d.core
}

// MediaParts returns the embedded media parts (ppt/media/*) in container
// order. The returned slices alias document memory and must not be modified.
func (d *Document) MediaParts() []Part {
	var media []Part
	for _, p := range d.parts {
		if strings.HasPrefix(p.Name, "ppt/media/") {
			media = append(media, p)
		}
	}
	return media
}
