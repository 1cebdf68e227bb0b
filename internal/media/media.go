// Package media inventories the pictures embedded in a presentation.
//
// Fonts only cover text the deck renders as text. Text that was pasted in
// as a screenshot is invisible to font analysis, so the inventory surfaces
// what pictures exist, how big they are, and what they look like (palette,
// brightness) to point a reviewer at the parts font tooling cannot reach.
package media

import (
	"bytes"
	"context"
	"image"
	"math"
	"path"
	"sort"
	"strings"

	"github.com/anthonynsimon/bild/histogram"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/deckwright/deckfonts-mcp/internal/deck"
	"github.com/deckwright/deckfonts-mcp/internal/logging"
)

// maxSwatches is the palette size reported per picture.
const maxSwatches = 5

// sampleSize is the bounding box pictures are downscaled into before
// palette sampling.
const sampleSize = 64

// labMergeDistance is the CIE-Lab distance under which two quantized colors
// are considered the same swatch.
const labMergeDistance = 0.15

// Swatch is one dominant color of a picture.
type Swatch struct {
	Hex        string  `json:"hex"`        // "#rrggbb"
	Percentage float64 `json:"percentage"` // share of sampled pixels (0-100)
}

// Item describes one embedded media part.
type Item struct {
	Name          string   `json:"name"`   // container part name
	Format        string   `json:"format"` // by extension
	SizeBytes     int      `json:"size_bytes"`
	Width         int      `json:"width,omitempty"`
	Height        int      `json:"height,omitempty"`
	Palette       []Swatch `json:"palette,omitempty"`
	MeanLuminance float64  `json:"mean_luminance,omitempty"` // 0-255
	Note          string   `json:"note,omitempty"`
}

// rasterFormats maps decodable extensions to their reported format name.
var rasterFormats = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".gif":  "gif",
	".bmp":  "bmp",
	".tif":  "tiff",
	".tiff": "tiff",
}

// Inventory describes every embedded media part. Raster pictures get
// dimensions, a dominant-color palette, and a mean luminance; vector and
// unknown formats are listed with a note. A picture that fails to decode is
// reported, not fatal.
func Inventory(ctx context.Context, parts []deck.Part) ([]Item, error) {
	items := make([]Item, 0, len(parts))
	for _, part := range parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items = append(items, describe(part))
	}
	return items, nil
}

func describe(part deck.Part) Item {
	ext := strings.ToLower(path.Ext(part.Name))
	item := Item{
		Name:      part.Name,
		Format:    strings.TrimPrefix(ext, "."),
		SizeBytes: len(part.Data),
	}
	format, raster := rasterFormats[ext]
	if !raster {
		item.Note = "not a raster format; skipped pixel analysis"
		return item
	}
	item.Format = format

	img, err := imaging.Decode(bytes.NewReader(part.Data))
	if err != nil {
		logging.Warn("failed to decode media part", "part", part.Name, "error", err)
		item.Note = "failed to decode"
		return item
	}
	bounds := img.Bounds()
	item.Width = bounds.Dx()
	item.Height = bounds.Dy()

	sample := imaging.Fit(img, sampleSize, sampleSize, imaging.Lanczos)
	item.Palette = dominantSwatches(sample)
	item.MeanLuminance = meanLuminance(sample)
	return item
}

// dominantSwatches buckets the sampled pixels into a coarse color grid,
// merges buckets that sit within labMergeDistance of each other, and
// returns the biggest survivors.
func dominantSwatches(img image.Image) []Swatch {
	type bucket struct {
		color colorful.Color
		count int
	}

	counts := make(map[[3]uint8]int)
	total := 0
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if a == 0 {
				continue // fully transparent pixels say nothing about the picture
			}
			key := [3]uint8{
				uint8(r>>8) / 32 * 32,
				uint8(g>>8) / 32 * 32,
				uint8(b>>8) / 32 * 32,
			}
			counts[key]++
			total++
		}
	}
	if total == 0 {
		return nil
	}

	buckets := make([]bucket, 0, len(counts))
	for key, count := range counts {
		buckets = append(buckets, bucket{
			color: colorful.Color{
				R: float64(key[0]) / 255,
				G: float64(key[1]) / 255,
				B: float64(key[2]) / 255,
			},
			count: count,
		})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].count > buckets[j].count })

	merged := make([]bucket, 0, maxSwatches)
	for _, b := range buckets {
		absorbed := false
		for i := range merged {
			if merged[i].color.DistanceLab(b.color) < labMergeDistance {
				merged[i].count += b.count
				absorbed = true
				break
			}
		}
		if !absorbed {
			merged = append(merged, b)
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].count > merged[j].count })
	if len(merged) > maxSwatches {
		merged = merged[:maxSwatches]
	}

	swatches := make([]Swatch, 0, len(merged))
	for _, b := range merged {
		swatches = append(swatches, Swatch{
			Hex:        b.color.Hex(),
			Percentage: math.Round(float64(b.count)/float64(total)*1000) / 10,
		})
	}
	return swatches
}

// meanLuminance computes the Rec. 601 luma average from the channel
// histograms of the sampled picture.
func meanLuminance(img image.Image) float64 {
	h := histogram.NewRGBAHistogram(img)
	lum := 0.299*histogramMean(h.R.Bins) + 0.587*histogramMean(h.G.Bins) + 0.114*histogramMean(h.B.Bins)
	return math.Round(lum*10) / 10
}

func histogramMean(bins []int) float64 {
	total := 0
	weighted := 0
	for value, count := range bins {
		total += count
		weighted += value * count
	}
	if total == 0 {
		return 0
	}
	return float64(weighted) / float64(total)
}
