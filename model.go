package epubnav

import "fmt"

// Container is the read-only lookup surface over a document's manifest,
// spine and table of contents. It is built once and never mutated, so it
// may be shared freely between goroutines.
type Container struct {
	manifest     []ManifestItem
	manifestByID map[string]int
	spine        []SpineItem
	toc          TOCPoint // synthetic root, never exposed
	tocFlat      []*TOCPoint
	tocByID      map[string]*TOCPoint
	warnings     []string
}

// NewContainer builds a Container from already parsed structures.
// Manifest order is preserved and is the tie-break order for href lookups.
// Integrity problems (duplicate ids, spine idrefs without a manifest item)
// do not fail construction; they are reported by Warnings.
func NewContainer(manifest []ManifestItem, spine []SpineItem, toc []TOCPoint) *Container {
	c := &Container{
		manifest:     make([]ManifestItem, 0, len(manifest)),
		manifestByID: make(map[string]int, len(manifest)),
		spine:        append([]SpineItem(nil), spine...),
		toc:          TOCPoint{Children: copyTOCPoints(toc)},
	}

	for _, item := range manifest {
		if _, dup := c.manifestByID[item.ID]; dup {
			c.warnings = append(c.warnings, fmt.Sprintf("duplicate manifest id %q ignored", item.ID))
			continue
		}
		c.manifestByID[item.ID] = len(c.manifest)
		c.manifest = append(c.manifest, item)
	}

	for i, si := range c.spine {
		if _, ok := c.manifestByID[si.IDRef]; !ok {
			c.warnings = append(c.warnings, fmt.Sprintf("spine[%d] references missing manifest item %q", i, si.IDRef))
		}
	}

	flattenTOCPoints(&c.tocFlat, c.toc.Children)
	c.tocByID = make(map[string]*TOCPoint, len(c.tocFlat))
	for _, p := range c.tocFlat {
		if _, dup := c.tocByID[p.ID]; dup {
			c.warnings = append(c.warnings, fmt.Sprintf("duplicate TOC id %q", p.ID))
			continue
		}
		c.tocByID[p.ID] = p
	}

	return c
}

// ManifestItem returns the manifest item with the given id.
func (c *Container) ManifestItem(id string) (ManifestItem, bool) {
	idx, ok := c.manifestByID[id]
	if !ok {
		return ManifestItem{}, false
	}
	return c.manifest[idx], true
}

// ManifestItemByHref returns the first manifest item, in manifest order,
// whose anchor-stripped href equals the anchor-stripped href argument.
func (c *Container) ManifestItemByHref(href string) (ManifestItem, bool) {
	href = StripAnchor(href)
	for _, item := range c.manifest {
		if StripAnchor(item.Href) == href {
			return item, true
		}
	}
	return ManifestItem{}, false
}

// ManifestItems returns the manifest in document order.
func (c *Container) ManifestItems() []ManifestItem {
	return append([]ManifestItem(nil), c.manifest...)
}

// SpineIndex returns the spine position referencing idref. With duplicate
// idrefs, match selects the first or last occurrence.
func (c *Container) SpineIndex(idref string, match SpineMatch) (int, bool) {
	if match == LastMatch {
		for i := len(c.spine) - 1; i >= 0; i-- {
			if c.spine[i].IDRef == idref {
				return i, true
			}
		}
		return -1, false
	}
	for i, si := range c.spine {
		if si.IDRef == idref {
			return i, true
		}
	}
	return -1, false
}

// SpineLen returns the number of spine entries.
func (c *Container) SpineLen() int {
	return len(c.spine)
}

// SpineItem returns the spine entry at index i.
func (c *Container) SpineItem(i int) (SpineItem, bool) {
	if i < 0 || i >= len(c.spine) {
		return SpineItem{}, false
	}
	return c.spine[i], true
}

// SpineHref returns the anchor-free href of the manifest item referenced by
// spine entry i. It reports false when i is out of range or the spine entry
// references a missing manifest item.
func (c *Container) SpineHref(i int) (string, bool) {
	si, ok := c.SpineItem(i)
	if !ok {
		return "", false
	}
	item, ok := c.ManifestItem(si.IDRef)
	if !ok {
		return "", false
	}
	return StripAnchor(item.Href), true
}

// TOC returns a copy of the table of contents tree.
func (c *Container) TOC() []TOCPoint {
	return copyTOCPoints(c.toc.Children)
}

// HasTOC reports whether the document has at least one TOC point.
func (c *Container) HasTOC() bool {
	return len(c.tocFlat) > 0
}

// AllTOCPoints returns the TOC flattened in pre-order. The order is stable
// for the lifetime of the Container. Children of the returned points are
// copies; modifying them does not affect the Container.
func (c *Container) AllTOCPoints() []TOCPoint {
	out := make([]TOCPoint, len(c.tocFlat))
	for i, p := range c.tocFlat {
		out[i] = *p
		out[i].Children = copyTOCPoints(p.Children)
	}
	return out
}

// TOCPoint returns the TOC point with the given id.
func (c *Container) TOCPoint(id string) (TOCPoint, bool) {
	p, ok := c.tocByID[id]
	if !ok {
		return TOCPoint{}, false
	}
	out := *p
	out.Children = copyTOCPoints(p.Children)
	return out, true
}

// Warnings returns integrity problems found while building the Container.
func (c *Container) Warnings() []string {
	return append([]string(nil), c.warnings...)
}

// flattenTOCPoints appends pointers to every point of the tree, pre-order.
func flattenTOCPoints(flat *[]*TOCPoint, points []TOCPoint) {
	for i := range points {
		*flat = append(*flat, &points[i])
		if len(points[i].Children) > 0 {
			flattenTOCPoints(flat, points[i].Children)
		}
	}
}

func copyTOCPoints(in []TOCPoint) []TOCPoint {
	if in == nil {
		return nil
	}
	out := make([]TOCPoint, len(in))
	for i := range in {
		out[i] = in[i]
		out[i].Children = copyTOCPoints(in[i].Children)
	}
	return out
}
