package picturetext

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path"
	"strings"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/deckwright/deckfonts-mcp/internal/deck"
	"github.com/deckwright/deckfonts-mcp/internal/logging"
)

// DefaultLanguage is the Tesseract language used when the caller gives none.
const DefaultLanguage = "eng"

// Word is one recognized word and Tesseract's confidence in it.
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
}

// Finding is the OCR result for one embedded picture that contained text
// (or could not be scanned).
type Finding struct {
	Part  string `json:"part"` // container part name, e.g. ppt/media/image1.png
	Text  string `json:"text"` // full recognized text with original spacing
	Words []Word `json:"words,omitempty"`
	Note  string `json:"note,omitempty"` // set when the picture could not be scanned
}

// scannable are the extensions Tesseract can be fed after decoding.
var scannable = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// Scan runs OCR over every embedded raster picture and reports the ones
// containing text. Words below minConfidence are dropped from the word
// list; the full text is reported as recognized. Pictures that fail to
// decode or scan yield a Finding with a note instead of failing the whole
// scan.
func Scan(ctx context.Context, parts []deck.Part, language string, minConfidence float64) ([]Finding, error) {
	if language == "" {
		language = DefaultLanguage
	}
	findings := []Finding{}
	for _, part := range parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !scannable[strings.ToLower(path.Ext(part.Name))] {
			continue
		}
		f, ok := scanPart(part, language, minConfidence)
		if ok {
			findings = append(findings, f)
		}
	}
	return findings, nil
}

// scanPart OCRs one picture. The second return is false when the picture
// was scanned cleanly and contained no text at all.
func scanPart(part deck.Part, language string, minConfidence float64) (Finding, bool) {
	finding := Finding{Part: part.Name}

	img, err := imaging.Decode(bytes.NewReader(part.Data))
	if err != nil {
		logging.Warn("failed to decode picture for OCR", "part", part.Name, "error", err)
		finding.Note = "failed to decode"
		return finding, true
	}

	tmpPath, err := writeTempPNG(effect.Grayscale(img))
	if err != nil {
		logging.Warn("failed to stage picture for OCR", "part", part.Name, "error", err)
		finding.Note = "failed to stage for OCR"
		return finding, true
	}
	defer os.Remove(tmpPath)

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		finding.Note = fmt.Sprintf("failed to set language %q", language)
		return finding, true
	}
	if err := client.SetImage(tmpPath); err != nil {
		finding.Note = "failed to load into OCR engine"
		return finding, true
	}

	text, err := client.Text()
	if err != nil {
		logging.Warn("OCR failed", "part", part.Name, "error", err)
		finding.Note = "OCR failed"
		return finding, true
	}
	finding.Text = strings.TrimSpace(text)

	// Word boxes are best effort; full text stands on its own if they fail.
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err == nil {
		for _, box := range boxes {
			confidence := float64(box.Confidence) / 100.0
			if box.Word == "" || confidence < minConfidence {
				continue
			}
			finding.Words = append(finding.Words, Word{
				Text:       box.Word,
				Confidence: confidence,
			})
		}
	}

	if finding.Text == "" && len(finding.Words) == 0 {
		return Finding{}, false
	}
	return finding, true
}

// writeTempPNG saves an image to a temporary PNG file and returns its path.
// Tesseract needs a file path; the caller removes the file after use.
func writeTempPNG(img image.Image) (string, error) {
	tmpFile, err := os.CreateTemp("", "deckfonts-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if err := png.Encode(tmpFile, img); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to encode temp image: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}

// EngineInfo describes OCR availability on this system.
type EngineInfo struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Engine probes the Tesseract installation.
func Engine() EngineInfo {
	client := gosseract.NewClient()
	defer client.Close()
	version := client.Version()
	if version == "" {
		return EngineInfo{Available: false, Error: "tesseract not available"}
	}
	return EngineInfo{Available: true, Version: version}
}
