package epubnav

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

const validContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// buildTestEPubBytes creates an in-memory ePub (ZIP) archive from files
// (path → content). The mimetype entry, if present, is written first and the
// rest in sorted order so archives are deterministic.
func buildTestEPubBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	names := make([]string, 0, len(files))
	for name := range files {
		if name != "mimetype" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := files["mimetype"]; ok {
		names = append([]string{"mimetype"}, names...)
	}

	for _, name := range names {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("buildTestEPubBytes: create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, files[name]); err != nil {
			t.Fatalf("buildTestEPubBytes: write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildTestEPubBytes: close writer: %v", err)
	}
	return buf.Bytes()
}

// buildTestEPub opens the archive built from files with NewReader.
func buildTestEPub(t *testing.T, files map[string]string) *Book {
	t.Helper()
	data := buildTestEPubBytes(t, files)
	book, err := NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	return book
}

// buildTestEPubFile writes the archive to a temporary file and returns its path.
func buildTestEPubFile(t *testing.T, files map[string]string) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), "test.epub")
	if err := os.WriteFile(fp, buildTestEPubBytes(t, files), 0644); err != nil {
		t.Fatalf("buildTestEPubFile: write file: %v", err)
	}
	return fp
}

// threeSectionContainer is the canonical fixture: spine s0,s1,s2 mapped 1:1
// to hrefs, TOC entries only for s0 and s2.
func threeSectionContainer() *Container {
	return NewContainer(
		[]ManifestItem{
			{ID: "s0", Href: "OEBPS/s0.xhtml", MediaType: "application/xhtml+xml"},
			{ID: "s1", Href: "OEBPS/s1.xhtml", MediaType: "application/xhtml+xml"},
			{ID: "s2", Href: "OEBPS/s2.xhtml", MediaType: "application/xhtml+xml"},
		},
		[]SpineItem{{IDRef: "s0", Linear: true}, {IDRef: "s1", Linear: true}, {IDRef: "s2", Linear: true}},
		[]TOCPoint{
			{ID: "toc-s0", Label: "Opening", Content: "OEBPS/s0.xhtml"},
			{ID: "toc-s2", Label: "Closing", Content: "OEBPS/s2.xhtml#top"},
		},
	)
}

// loadRecorder collects hrefs passed to a LoadFunc.
type loadRecorder struct {
	hrefs []string
	err   error
}

func (l *loadRecorder) load(href string) error {
	l.hrefs = append(l.hrefs, href)
	return l.err
}

func ncxDocument(navPoints string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>` + navPoints + `</navMap>
</ncx>`
}
