package epubnav

import (
	"fmt"
	"strings"
)

// packageDocument is the part of the OPF file the navigation core needs.
type packageDocument struct {
	version  string
	manifest []ManifestItem
	spine    []SpineItem
	ncxID    string // spine toc attribute (ePub 2)
}

// parseOPF parses the package document at opfPath. Manifest hrefs are
// resolved against the OPF location so they match TOC hrefs.
func parseOPF(data []byte, opfPath string) (*packageDocument, error) {
	doc := newXMLDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("epubnav: parse OPF: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "package" {
		return nil, fmt.Errorf("epubnav: OPF has no package element: %w", ErrInvalidEPub)
	}

	pkg := &packageDocument{version: root.SelectAttrValue("version", "2.0")}

	if manifest := root.SelectElement("manifest"); manifest != nil {
		for _, el := range manifest.SelectElements("item") {
			href := el.SelectAttrValue("href", "")
			if resolved := resolveRelativePath(opfPath, href); resolved != "" {
				href = resolved
			}
			pkg.manifest = append(pkg.manifest, ManifestItem{
				ID:         el.SelectAttrValue("id", ""),
				Href:       href,
				MediaType:  el.SelectAttrValue("media-type", ""),
				Properties: el.SelectAttrValue("properties", ""),
			})
		}
	}

	if spine := root.SelectElement("spine"); spine != nil {
		pkg.ncxID = spine.SelectAttrValue("toc", "")
		for _, el := range spine.SelectElements("itemref") {
			pkg.spine = append(pkg.spine, SpineItem{
				IDRef:  el.SelectAttrValue("idref", ""),
				Linear: el.SelectAttrValue("linear", "") != "no",
			})
		}
	}

	return pkg, nil
}

// navItem returns the ePub 3 navigation document, the first manifest item
// carrying the "nav" property.
func (pkg *packageDocument) navItem() (ManifestItem, bool) {
	for _, item := range pkg.manifest {
		for _, prop := range strings.Fields(item.Properties) {
			if prop == "nav" {
				return item, true
			}
		}
	}
	return ManifestItem{}, false
}

// ncxItem returns the NCX referenced by the spine, falling back to the first
// manifest item with the NCX media type.
func (pkg *packageDocument) ncxItem() (ManifestItem, bool) {
	var fallback *ManifestItem
	for i, item := range pkg.manifest {
		if pkg.ncxID != "" && item.ID == pkg.ncxID {
			return item, true
		}
		if fallback == nil && item.MediaType == "application/x-dtbncx+xml" {
			fallback = &pkg.manifest[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return ManifestItem{}, false
}
