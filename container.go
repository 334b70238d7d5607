package epubnav

import (
	"archive/zip"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// containerPath is the well-known location of container.xml in an ePub archive.
const containerPath = "META-INF/container.xml"

// opfMediaType identifies the package document among rootfile entries.
const opfMediaType = "application/oebps-package+xml"

// locatePackage finds the OPF path: the rootfile of container.xml with the
// package media type, else its first non-empty rootfile, else the first
// ".opf" entry of the archive.
func locatePackage(zr *zip.Reader, idx zipIndex) (string, error) {
	f := idx.find(containerPath)
	if f == nil {
		for _, zf := range zr.File {
			if strings.HasSuffix(strings.ToLower(zf.Name), ".opf") {
				return zf.Name, nil
			}
		}
		return "", fmt.Errorf("epubnav: no OPF file found in archive: %w", ErrInvalidEPub)
	}

	data, err := readZipFile(f, maxDecompressSize)
	if err != nil {
		return "", fmt.Errorf("epubnav: read container.xml: %w", err)
	}
	doc := newXMLDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return "", fmt.Errorf("epubnav: parse container.xml: %w", err)
	}

	var fallback string
	for _, rf := range doc.FindElements("//rootfiles/rootfile") {
		fullPath := strings.TrimSpace(rf.SelectAttrValue("full-path", ""))
		if fullPath == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rf.SelectAttrValue("media-type", "")), opfMediaType) {
			return fullPath, nil
		}
		if fallback == "" {
			fallback = fullPath
		}
	}
	if fallback == "" {
		return "", fmt.Errorf("epubnav: container.xml has no usable rootfile: %w", ErrInvalidEPub)
	}
	return fallback, nil
}

// htmlEntities are the HTML named character references most often found in
// hand-made NCX labels, which XML parsers reject otherwise.
var htmlEntities = map[string]string{
	"nbsp":   "\u00a0",
	"ndash":  "\u2013",
	"mdash":  "\u2014",
	"hellip": "\u2026",
	"lsquo":  "\u2018",
	"rsquo":  "\u2019",
	"ldquo":  "\u201c",
	"rdquo":  "\u201d",
	"laquo":  "\u00ab",
	"raquo":  "\u00bb",
	"copy":   "\u00a9",
}

// newXMLDocument returns an etree document tolerant of legacy encodings,
// HTML entities and the sloppy markup common in real-world package files.
func newXMLDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Entity:        htmlEntities,
		Permissive:    true,
	}
	return doc
}
