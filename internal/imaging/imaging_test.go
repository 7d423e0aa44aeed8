package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int, c color.Color) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}
	return img
}

func TestNormalizeJPEG(t *testing.T) {
	p, err := NormalizePhoto(bytes.NewReader(createTestJPEG(100, 100)))
	if err != nil {
		t.Fatalf("NormalizePhoto: %v", err)
	}
	if p.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", p.MIME)
	}
	if p.Width != 100 || p.Height != 100 {
		t.Errorf("expected 100x100, got %dx%d", p.Width, p.Height)
	}
	decode(t, p.Data)
}

func TestNormalizePNGIsReencoded(t *testing.T) {
	p, err := NormalizePhoto(bytes.NewReader(createTestPNG(50, 50, color.NRGBA{0, 0, 255, 255})))
	if err != nil {
		t.Fatalf("NormalizePhoto: %v", err)
	}
	if p.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", p.MIME)
	}
	decode(t, p.Data)
}

func TestNormalizeFlattensTransparency(t *testing.T) {
	p, err := NormalizePhoto(bytes.NewReader(createTestPNG(20, 20, color.NRGBA{0, 0, 0, 0})))
	if err != nil {
		t.Fatalf("NormalizePhoto: %v", err)
	}
	r, g, b, _ := decode(t, p.Data).At(10, 10).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Errorf("expected transparent pixel to become white, got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestNormalizeDownscales(t *testing.T) {
	p, err := NormalizePhoto(bytes.NewReader(createTestJPEG(2048, 1024)))
	if err != nil {
		t.Fatalf("NormalizePhoto: %v", err)
	}
	if p.Width != MaxDimension || p.Height != MaxDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension/2, p.Width, p.Height)
	}
	b := decode(t, p.Data).Bounds()
	if b.Dx() != p.Width || b.Dy() != p.Height {
		t.Errorf("reported size %dx%d does not match encoded %dx%d", p.Width, p.Height, b.Dx(), b.Dy())
	}
}

func TestNormalizeTallImage(t *testing.T) {
	p, err := NormalizePhoto(bytes.NewReader(createTestJPEG(100, 3000)))
	if err != nil {
		t.Fatalf("NormalizePhoto: %v", err)
	}
	if p.Height != MaxDimension {
		t.Errorf("expected height %d, got %d", MaxDimension, p.Height)
	}
	if p.Width < 1 {
		t.Errorf("expected positive width, got %d", p.Width)
	}
}

func TestNormalizeRejectsUnsupported(t *testing.T) {
	_, err := NormalizePhoto(strings.NewReader("this is plain text, not an image"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestNormalizeRejectsOversized(t *testing.T) {
	_, err := NormalizePhoto(bytes.NewReader(make([]byte, MaxUploadBytes+1)))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}
