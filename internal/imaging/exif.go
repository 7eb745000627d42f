package imaging

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
)

// ExifMeta is the camera context extracted from an image, used to enrich the
// analysis instruction and history listings. Every field is optional.
type ExifMeta struct {
	CameraMake  string    `json:"cameraMake,omitempty"`
	CameraModel string    `json:"cameraModel,omitempty"`
	DateTaken   time.Time `json:"dateTaken,omitempty"`
	HasDate     bool      `json:"hasDate,omitempty"`
}

// ExtractExif decodes EXIF metadata from raw image bytes. The library reads
// only the metadata region, not the full image. Absence of metadata is an
// error to the caller only in the sense that there is nothing to attach.
func ExtractExif(data []byte) (*ExifMeta, error) {
	exif, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode EXIF: %w", err)
	}

	meta := &ExifMeta{
		CameraMake:  strings.TrimSpace(exif.Make),
		CameraModel: strings.TrimSpace(exif.Model),
	}

	// Fallback chain: DateTimeOriginal > CreateDate > ModifyDate.
	switch {
	case !exif.DateTimeOriginal().IsZero():
		meta.DateTaken = exif.DateTimeOriginal()
		meta.HasDate = true
	case !exif.CreateDate().IsZero():
		meta.DateTaken = exif.CreateDate()
		meta.HasDate = true
	case !exif.ModifyDate().IsZero():
		meta.DateTaken = exif.ModifyDate()
		meta.HasDate = true
	}

	if meta.CameraMake == "" && meta.CameraModel == "" && !meta.HasDate {
		return nil, fmt.Errorf("no usable EXIF fields")
	}
	return meta, nil
}

// PromptContext renders the metadata as a short text block for inclusion in
// the analysis instruction. Returns "" when there is nothing worth saying.
func (m *ExifMeta) PromptContext() string {
	if m == nil {
		return ""
	}

	var sb strings.Builder
	if m.CameraMake != "" || m.CameraModel != "" {
		sb.WriteString(fmt.Sprintf("Shot on: %s %s. ", m.CameraMake, m.CameraModel))
	}
	if m.HasDate {
		sb.WriteString(fmt.Sprintf("Taken: %s. ", m.DateTaken.Format("January 2, 2006")))
	}
	return strings.TrimSpace(sb.String())
}
