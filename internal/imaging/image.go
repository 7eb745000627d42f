// Package imaging handles photograph intake: validating that a submitted file
// really is an image, preparing its bytes for transport, extracting EXIF
// context, and rendering an in-memory preview for display.
package imaging

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrNotImage is returned when a submitted file is not an image. Intake
// rejects it before any request is ever built.
var ErrNotImage = errors.New("selected file is not an image")

// ImageInput is a user-provided photograph prepared for transmission.
// The raw bytes and MIME type travel to the analysis provider; the preview is
// a local display handle and is never sent.
type ImageInput struct {
	Data     []byte    `json:"data"`
	MIMEType string    `json:"mimeType"`
	Preview  *Preview  `json:"preview,omitempty"`
	Meta     *ExifMeta `json:"meta,omitempty"`
}

// FromBytes validates and wraps raw image bytes. The content is sniffed; a
// declared MIME type is honored only when it agrees that this is an image.
// Anything that is not image/* fails with ErrNotImage.
func FromBytes(data []byte, declaredMIME string) (*ImageInput, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrNotImage)
	}

	sniffed := http.DetectContentType(data)
	mimeType := declaredMIME
	if mimeType == "" {
		mimeType = sniffed
	}

	if !strings.HasPrefix(mimeType, "image/") || !strings.HasPrefix(sniffed, "image/") {
		log.Debug().
			Str("declared", declaredMIME).
			Str("sniffed", sniffed).
			Msg("Rejecting non-image intake")
		return nil, fmt.Errorf("%w: got %s", ErrNotImage, sniffed)
	}

	img := &ImageInput{Data: data, MIMEType: mimeType}

	// EXIF and preview are enrichment, not requirements.
	if meta, err := ExtractExif(data); err == nil {
		img.Meta = meta
	} else {
		log.Debug().Err(err).Msg("No EXIF metadata extracted")
	}
	if p, err := RenderPreview(data, DefaultPreviewMaxDimension); err == nil {
		img.Preview = p
	} else {
		log.Debug().Err(err).Msg("Preview rendering failed")
	}

	return img, nil
}

// FromFile reads and validates an image file from disk.
func FromFile(path string) (*ImageInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image file: %w", err)
	}

	declared := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	img, err := FromBytes(data, declared)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("path", path).
		Str("mime_type", img.MIMEType).
		Int("bytes", len(data)).
		Bool("has_exif", img.Meta != nil).
		Msg("Image loaded")
	return img, nil
}

// Base64 returns the transport encoding of the image payload.
func (i *ImageInput) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// Release frees the display handle. Called when the image is superseded by a
// new selection or the session resets, so previews do not accumulate.
func (i *ImageInput) Release() {
	if i == nil || i.Preview == nil {
		return
	}
	i.Preview.Release()
	i.Preview = nil
}

// Clone returns a copy with its own display handle, so releasing one copy
// cannot blank the other. Raw bytes and metadata are shared; both are
// immutable after intake, only the preview is ever released.
func (i *ImageInput) Clone() *ImageInput {
	if i == nil {
		return nil
	}
	c := *i
	c.Preview = i.Preview.Clone()
	return &c
}
