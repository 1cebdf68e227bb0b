package picturetext

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/deckwright/deckfonts-mcp/internal/deck"
)

func TestScanSkipsNonRasterParts(t *testing.T) {
	findings, err := Scan(context.Background(), []deck.Part{
		{Name: "ppt/media/image1.emf", Data: []byte{0x01}},
		{Name: "ppt/media/chart1.xml", Data: []byte("<chart/>")},
	}, "", 0.5)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("findings: got %+v, want none", findings)
	}
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Scan(ctx, []deck.Part{{Name: "ppt/media/image1.png"}}, "eng", 0.5)
	if err == nil {
		t.Fatal("expected error from cancelled scan")
	}
}

func TestScanUndecodablePictureIsSoft(t *testing.T) {
	findings, err := Scan(context.Background(), []deck.Part{
		{Name: "ppt/media/image1.png", Data: []byte("definitely not a png")},
	}, "eng", 0.5)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(findings) != 1 || findings[0].Note != "failed to decode" {
		t.Errorf("got %+v, want one failed-to-decode finding", findings)
	}
}

func TestScanBlankPicture(t *testing.T) {
	if !Engine().Available {
		t.Skip("tesseract not installed")
	}

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	findings, err := Scan(context.Background(),
		[]deck.Part{{Name: "ppt/media/image1.png", Data: buf.Bytes()}}, "eng", 0.5)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("blank picture should yield no findings, got %+v", findings)
	}
}

func TestWriteTempPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	path, err := writeTempPNG(img)
	if err != nil {
		t.Fatalf("writeTempPNG failed: %v", err)
	}
	defer os.Remove(path)

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("temp file missing: %v", err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("temp file is not a png: %v", err)
	}
	if decoded.Bounds().Dx() != 8 {
		t.Errorf("decoded width: got %d, want 8", decoded.Bounds().Dx())
	}
}
