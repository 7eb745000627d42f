package session

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// ZipMethodZstd is the ZIP compression method ID for Zstandard
// (APPNOTE 6.3.7).
const ZipMethodZstd = 93

// ExportZip writes the full history as a ZIP archive: entries.json
// (zstd-compressed) plus each entry's preview image stored as-is, since JPEG
// does not compress further.
func (h *History) ExportZip(w io.Writer) error {
	entries := h.Entries()

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(ZipMethodZstd, func(out io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	})

	ew, err := zw.CreateHeader(&zip.FileHeader{Name: "entries.json", Method: ZipMethodZstd})
	if err != nil {
		return fmt.Errorf("create entries.json: %w", err)
	}
	enc := json.NewEncoder(ew)
	enc.SetIndent("", "  ")
	if err := enc.Encode(envelope{Version: storageVersion, Entries: entries}); err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}

	for _, e := range entries {
		if e.Image.Preview.Released() {
			continue
		}
		pw, err := zw.CreateHeader(&zip.FileHeader{
			Name:   fmt.Sprintf("previews/%s.jpg", e.ID),
			Method: zip.Store,
		})
		if err != nil {
			return fmt.Errorf("create preview for %s: %w", e.ID, err)
		}
		if _, err := pw.Write(e.Image.Preview.Data); err != nil {
			return fmt.Errorf("write preview for %s: %w", e.ID, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}

	log.Info().Int("entries", len(entries)).Msg("History exported")
	return nil
}
