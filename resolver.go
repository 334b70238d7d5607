package epubnav

import (
	"fmt"

	"go.uber.org/zap"
)

// LoadFunc instructs the rendering surface to load the section at href.
// A non-nil error means the load was rejected.
type LoadFunc func(href string) error

// Resolver answers "which section comes next" questions over a Container.
// It bridges the TOC, which need not list every spine item, and the spine,
// which is the authoritative reading order.
type Resolver struct {
	c   *Container
	log *zap.Logger
}

// NewResolver returns a Resolver over c. A nil log disables logging.
func NewResolver(c *Container, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{c: c, log: log}
}

// Container returns the container the resolver works on.
func (r *Resolver) Container() *Container {
	return r.c
}

// ResolveAdjacentSection finds the spine item offset positions away from the
// section displayed at currentHref, loads it through load and returns its
// owning TOC entry.
//
// The current position is the last spine occurrence of the current manifest
// item. Moving outside the spine returns ErrNoAdjacentSection without calling
// load; offset 0 reloads the current section. When the target has no owning
// TOC entry the section is still loaded: the returned Resolution is complete
// except for TOCID and the error is ErrNoOwningEntry.
func (r *Resolver) ResolveAdjacentSection(currentHref string, offset int, load LoadFunc) (Resolution, error) {
	current, ok := r.c.ManifestItemByHref(currentHref)
	if !ok {
		r.log.Debug("Current section not in manifest", zap.String("href", currentHref))
		return Resolution{}, fmt.Errorf("%w: %s", ErrHrefNotFound, StripAnchor(currentHref))
	}

	index, ok := r.c.SpineIndex(current.ID, LastMatch)
	if !ok {
		r.log.Debug("Current section not in spine", zap.String("id", current.ID))
		return Resolution{}, fmt.Errorf("%w: %s", ErrNotInSpine, current.ID)
	}

	target := index + offset
	if target < 0 || target >= r.c.SpineLen() {
		r.log.Debug("No adjacent section", zap.Int("index", index), zap.Int("offset", offset))
		return Resolution{}, ErrNoAdjacentSection
	}

	href, ok := r.c.SpineHref(target)
	if !ok {
		si, _ := r.c.SpineItem(target)
		r.log.Warn("Spine references missing manifest item", zap.Int("index", target), zap.String("idref", si.IDRef))
		return Resolution{}, fmt.Errorf("%w: spine[%d] = %q", ErrCorruptSpine, target, si.IDRef)
	}

	if load == nil {
		return Resolution{}, fmt.Errorf("%w: no load function", ErrLoadRejected)
	}
	if err := load(href); err != nil {
		r.log.Debug("Section load rejected", zap.String("href", href), zap.Error(err))
		return Resolution{}, fmt.Errorf("%w: %s: %w", ErrLoadRejected, href, err)
	}

	res := Resolution{SpineIndex: target, Href: href}
	tocID, ok := r.owningTOCID(target)
	if !ok {
		r.log.Debug("Section has no owning TOC entry", zap.String("href", href))
		return res, ErrNoOwningEntry
	}
	res.TOCID = tocID
	return res, nil
}

// OwningTOCPoint returns the nearest TOC point at or before spine position
// spineIndex.
func (r *Resolver) OwningTOCPoint(spineIndex int) (TOCPoint, bool) {
	id, ok := r.owningTOCID(spineIndex)
	if !ok {
		return TOCPoint{}, false
	}
	return r.c.TOCPoint(id)
}

// SectionForTOCEntry resolves TOC point id to the first spine position of
// the section it references. Entries without content resolve through their
// first descendant that has one.
func (r *Resolver) SectionForTOCEntry(id string) (Resolution, error) {
	p, ok := r.c.tocByID[id]
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %s", ErrTOCNotFound, id)
	}

	content := firstContent(p)
	if content == "" {
		return Resolution{}, fmt.Errorf("%w: %s has no content", ErrTOCNotFound, id)
	}

	item, ok := r.c.ManifestItemByHref(content)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %s", ErrHrefNotFound, StripAnchor(content))
	}
	index, ok := r.c.SpineIndex(item.ID, FirstMatch)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %s", ErrNotInSpine, item.ID)
	}
	return Resolution{SpineIndex: index, Href: StripAnchor(item.Href), TOCID: id}, nil
}

// sectionRef is one spine entry whose manifest item resolves, together with
// the TOC point that lists it directly (if any).
type sectionRef struct {
	spineIndex int
	manifestID string
	href       string
	tocID      string
}

// owningTOCID scans backward, inclusive, from spine position target for the
// nearest section listed in the TOC. When several points reference the same
// file, the first one in pre-order owns it.
func (r *Resolver) owningTOCID(target int) (string, bool) {
	tocByHref := make(map[string]string, len(r.c.tocFlat))
	for _, p := range r.c.tocFlat {
		if p.Content == "" {
			continue
		}
		href := StripAnchor(p.Content)
		if _, exists := tocByHref[href]; !exists {
			tocByHref[href] = p.ID
		}
	}

	refs := make([]sectionRef, 0, r.c.SpineLen())
	pos := -1
	for i, si := range r.c.spine {
		item, ok := r.c.ManifestItem(si.IDRef)
		if !ok {
			continue
		}
		href := StripAnchor(item.Href)
		if i == target {
			pos = len(refs)
		}
		refs = append(refs, sectionRef{
			spineIndex: i,
			manifestID: item.ID,
			href:       href,
			tocID:      tocByHref[href],
		})
	}

	for j := pos; j >= 0; j-- {
		if refs[j].tocID != "" {
			r.log.Debug("Owning TOC entry found",
				zap.Int("target", target),
				zap.Int("owner", refs[j].spineIndex),
				zap.String("manifest", refs[j].manifestID),
				zap.String("toc", refs[j].tocID))
			return refs[j].tocID, true
		}
	}
	return "", false
}

func firstContent(p *TOCPoint) string {
	if p.Content != "" {
		return p.Content
	}
	for i := range p.Children {
		if c := firstContent(&p.Children[i]); c != "" {
			return c
		}
	}
	return ""
}
