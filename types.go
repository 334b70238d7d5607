package epubnav

// ManifestItem represents an entry in the OPF <manifest> element.
type ManifestItem struct {
	// ID is the unique identifier of this manifest item.
	ID string

	// Href is the content path relative to the container root
	// (already resolved against the OPF directory by the loader).
	Href string

	// MediaType is the MIME type of the resource.
	MediaType string

	// Properties contains space-separated property values (ePub 3, e.g., "nav").
	Properties string
}

// SpineItem represents an <itemref> in the OPF <spine> element.
// The same IDRef may appear more than once; lookups are positional.
type SpineItem struct {
	// IDRef is the manifest item ID referenced by this spine entry.
	IDRef string

	// Linear indicates whether this item is part of the linear reading order.
	Linear bool
}

// TOCPoint is a single navigation point of the table of contents.
// The TOC is a plain ownership tree: a point exclusively owns its children
// and carries no reference back to its parent.
type TOCPoint struct {
	// ID is the unique identifier of the point (NCX navPoint id, nav <li> id,
	// or a generated "navpoint-N" when the source has none).
	ID string

	// Label is the display text of the entry.
	Label string

	// Content is the referenced href, possibly anchor-qualified
	// (e.g., "OEBPS/chapter01.xhtml#section2"). Empty for heading-only entries.
	Content string

	// Children contains nested points in document order.
	Children []TOCPoint
}

// SpineMatch selects which spine position wins when an idref occurs
// more than once in the spine.
type SpineMatch int

const (
	// FirstMatch selects the lowest spine index referencing the idref.
	FirstMatch SpineMatch = iota
	// LastMatch selects the highest spine index referencing the idref.
	LastMatch
)

// Resolution describes a section chosen by the Resolver.
type Resolution struct {
	// SpineIndex is the spine position of the section.
	SpineIndex int

	// Href is the anchor-free content path of the section.
	Href string

	// TOCID is the id of the owning TOC point: the nearest point at or
	// before SpineIndex. Empty when no such point exists.
	TOCID string
}
