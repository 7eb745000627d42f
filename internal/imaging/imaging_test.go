package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// encodePNG renders a w x h test image as PNG bytes.
func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test PNG: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test JPEG: %v", err)
	}
	return buf.Bytes()
}

func TestFromBytesAcceptsImage(t *testing.T) {
	data := encodePNG(t, 8, 8)

	img, err := FromBytes(data, "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", img.MIMEType)
	}
	if img.Preview == nil || img.Preview.Released() {
		t.Error("expected a rendered preview")
	}
}

func TestFromBytesSniffsWhenUndeclared(t *testing.T) {
	img, err := FromBytes(encodeJPEG(t, 4, 4), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.MIMEType != "image/jpeg" {
		t.Errorf("MIMEType = %q, want sniffed image/jpeg", img.MIMEType)
	}
}

func TestFromBytesRejectsNonImage(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		declared string
	}{
		{"pdf", []byte("%PDF-1.4\n%some pdf content here"), "application/pdf"},
		{"pdf with lying declared type", []byte("%PDF-1.4\n%some pdf content here"), "image/jpeg"},
		{"text", []byte("just a plain text file"), ""},
		{"empty", nil, "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromBytes(tt.data, tt.declared)
			if !errors.Is(err, ErrNotImage) {
				t.Errorf("expected ErrNotImage, got %v", err)
			}
		})
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(path, encodePNG(t, 8, 8), 0644); err != nil {
		t.Fatal(err)
	}

	img, err := FromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q", img.MIMEType)
	}
}

func TestFromFileMissing(t *testing.T) {
	if _, err := FromFile(filepath.Join(t.TempDir(), "nope.jpg")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBase64RoundTrip(t *testing.T) {
	data := encodePNG(t, 2, 2)
	img, err := FromBytes(data, "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if img.Base64() == "" {
		t.Error("expected non-empty base64 payload")
	}
}

func TestRelease(t *testing.T) {
	img, err := FromBytes(encodePNG(t, 4, 4), "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if img.Preview.Released() {
		t.Fatal("preview should start unreleased")
	}
	img.Release()
	if img.Preview != nil {
		t.Error("Release should clear the preview handle")
	}
	// Releasing again is a no-op.
	img.Release()
}

func TestCloneOwnsItsPreview(t *testing.T) {
	img, err := FromBytes(encodePNG(t, 4, 4), "image/png")
	if err != nil {
		t.Fatal(err)
	}

	clone := img.Clone()
	img.Release()

	if clone.Preview.Released() {
		t.Error("releasing the original must not release the clone's preview")
	}
	clone.Release()

	// Clones of released handles are themselves released.
	if !img.Clone().Preview.Released() {
		t.Error("clone of a released image should carry no preview")
	}
}

func TestRenderPreviewDownscales(t *testing.T) {
	data := encodePNG(t, 2000, 1000)
	p, err := RenderPreview(data, 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Width != 1024 || p.Height != 512 {
		t.Errorf("preview dimensions = %dx%d, want 1024x512", p.Width, p.Height)
	}
	if p.MIMEType != "image/jpeg" {
		t.Errorf("preview MIMEType = %q", p.MIMEType)
	}
}

func TestRenderPreviewKeepsSmallImages(t *testing.T) {
	p, err := RenderPreview(encodePNG(t, 100, 60), 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Width != 100 || p.Height != 60 {
		t.Errorf("small image resized to %dx%d", p.Width, p.Height)
	}
}

func TestPreviewDimensions(t *testing.T) {
	tests := []struct {
		w, h, maxDim   int
		wantW, wantH   int
	}{
		{2048, 1024, 1024, 1024, 512},
		{1024, 2048, 1024, 512, 1024},
		{500, 500, 1024, 500, 500},
		{1024, 1024, 1024, 1024, 1024},
		{3000, 10, 1024, 1024, 3},
	}
	for _, tt := range tests {
		gotW, gotH := previewDimensions(tt.w, tt.h, tt.maxDim)
		if gotW != tt.wantW || gotH != tt.wantH {
			t.Errorf("previewDimensions(%d, %d, %d) = (%d, %d), want (%d, %d)",
				tt.w, tt.h, tt.maxDim, gotW, gotH, tt.wantW, tt.wantH)
		}
	}
}

func TestExtractExifNoMetadata(t *testing.T) {
	// A bare generated PNG carries no EXIF; extraction reports that rather
	// than inventing fields.
	if _, err := ExtractExif(encodePNG(t, 4, 4)); err == nil {
		t.Error("expected error for image without EXIF")
	}
}

func TestPromptContext(t *testing.T) {
	var nilMeta *ExifMeta
	if got := nilMeta.PromptContext(); got != "" {
		t.Errorf("nil meta PromptContext = %q, want empty", got)
	}

	meta := &ExifMeta{CameraMake: "Fujifilm", CameraModel: "X100V"}
	if got := meta.PromptContext(); got != "Shot on: Fujifilm X100V." {
		t.Errorf("PromptContext = %q", got)
	}
}
