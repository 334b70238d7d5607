package epubnav

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"
)

// maxDecompressSize is the maximum allowed decompressed size for a single ZIP entry.
const maxDecompressSize int64 = 256 * 1024 * 1024

// zipIndex looks ZIP entries up by exact name, then case-insensitively.
// The first entry wins when names collide.
type zipIndex struct {
	exact map[string]*zip.File
	lower map[string]*zip.File
}

func newZipIndex(zr *zip.Reader) zipIndex {
	idx := zipIndex{
		exact: make(map[string]*zip.File, len(zr.File)),
		lower: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		if _, exists := idx.exact[f.Name]; !exists {
			idx.exact[f.Name] = f
		}
		lower := strings.ToLower(f.Name)
		if _, exists := idx.lower[lower]; !exists {
			idx.lower[lower] = f
		}
	}
	return idx
}

func (idx zipIndex) find(name string) *zip.File {
	if f, ok := idx.exact[name]; ok {
		return f
	}
	return idx.lower[strings.ToLower(name)]
}

// stripBOM removes a leading UTF-8 BOM from data, if present.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// readZipFile reads a ZIP entry, refusing unsafe paths and entries that
// decompress beyond limit.
func readZipFile(f *zip.File, limit int64) ([]byte, error) {
	if !isSafePath(f.Name) {
		return nil, fmt.Errorf("epubnav: unsafe zip entry path: %s", f.Name)
	}
	if f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("epubnav: zip entry %s too large: %d bytes (max %d)", f.Name, f.UncompressedSize64, limit)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("epubnav: open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	// Declared sizes can be forged; read one byte past the limit to notice.
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("epubnav: read zip entry %s: %w", f.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("epubnav: zip entry %s decompressed size exceeds limit (%d bytes)", f.Name, limit)
	}
	return stripBOM(data), nil
}
