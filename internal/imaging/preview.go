package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultPreviewMaxDimension is the maximum dimension (width or height) for
// rendered previews.
const DefaultPreviewMaxDimension = 1024

// previewJPEGQuality balances preview fidelity against history file size,
// since every history entry embeds its preview.
const previewJPEGQuality = 80

// Preview is the ephemeral display handle for a selected image: a downscaled
// JPEG held in memory until released.
type Preview struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mimeType"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Release frees the preview bytes.
func (p *Preview) Release() {
	if p == nil {
		return
	}
	p.Data = nil
}

// Released reports whether the handle has been released.
func (p *Preview) Released() bool {
	return p == nil || p.Data == nil
}

// Clone returns an independent copy of the preview, so two holders can
// release separately. A released handle clones to a released handle.
func (p *Preview) Clone() *Preview {
	if p == nil {
		return nil
	}
	c := *p
	if p.Data != nil {
		c.Data = append([]byte(nil), p.Data...)
	}
	return &c
}

// RenderPreview decodes raw image bytes and renders a preview no larger than
// maxDimension on either axis, re-encoded as JPEG. Images already within
// bounds are re-encoded without resizing so previews have a uniform format.
func RenderPreview(data []byte, maxDimension int) (*Preview, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()
	newW, newH := previewDimensions(origW, origH, maxDimension)

	out := img
	if newW != origW || newH != origH {
		resized := image.NewRGBA(image.Rect(0, 0, newW, newH))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		out = resized
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: previewJPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}

	log.Debug().
		Str("format", format).
		Int("orig_width", origW).
		Int("orig_height", origH).
		Int("new_width", newW).
		Int("new_height", newH).
		Int("output_size", buf.Len()).
		Msg("Preview rendered")

	return &Preview{
		Data:     buf.Bytes(),
		MIMEType: "image/jpeg",
		Width:    newW,
		Height:   newH,
	}, nil
}

// previewDimensions scales (w, h) to fit within maxDimension, preserving
// aspect ratio. Dimensions already within bounds are returned unchanged.
func previewDimensions(w, h, maxDimension int) (int, int) {
	if w <= maxDimension && h <= maxDimension {
		return w, h
	}
	if w >= h {
		return maxDimension, max(h*maxDimension/w, 1)
	}
	return max(w*maxDimension/h, 1), maxDimension
}
