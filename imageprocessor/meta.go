package imageprocessor

import (
	"fmt"
	"strings"

	"github.com/barasher/go-exiftool"

	"gdiloader/logging"
)

// ImageMeta holds the fields the fast verification path needs.
type ImageMeta struct {
	Width  int
	Height int
	Format string
}

// MetaExtractor wraps a long-lived exiftool session so dimensions can be
// read for many files without decoding any of them.
type MetaExtractor struct {
	et *exiftool.Exiftool
}

// NewMetaExtractor starts an exiftool session. Callers must Close it.
func NewMetaExtractor() (*MetaExtractor, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("cannot start exiftool: %v", err)
	}
	return &MetaExtractor{et: et}, nil
}

// Close shuts the exiftool session down.
func (m *MetaExtractor) Close() {
	if m.et != nil {
		m.et.Close()
		m.et = nil
	}
}

// Extract reads image dimensions and format from file metadata.
func (m *MetaExtractor) Extract(path string) (*ImageMeta, error) {
	infos := m.et.ExtractMetadata(path)
	if len(infos) == 0 {
		return nil, newImageLoadError("no metadata extracted", path)
	}

	info := infos[0]
	if info.Err != nil {
		logging.LogError("Metadata extraction failed for %s: %v", path, info.Err)
		return nil, newImageLoadError(fmt.Sprintf("metadata extraction failed: %v", info.Err), path)
	}

	meta := &ImageMeta{}
	if w, err := info.GetInt("ImageWidth"); err == nil {
		meta.Width = int(w)
	}
	if h, err := info.GetInt("ImageHeight"); err == nil {
		meta.Height = int(h)
	}
	if f, err := info.GetString("FileType"); err == nil {
		meta.Format = strings.ToLower(f)
	}

	if meta.Width == 0 || meta.Height == 0 {
		return nil, newImageLoadError("metadata carries no image dimensions", path)
	}
	return meta, nil
}
