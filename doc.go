// Package epubnav resolves reading-order navigation for ePub documents.
//
// A document is described by a [Container]: the manifest (id → href), the
// spine (the linear reading order of manifest ids) and an optional table of
// contents tree of [TOCPoint]. The TOC need not list every spine item, so
// "next section" and "which chapter am I in" questions are answered by the
// [Resolver], which walks the spine and labels each section with its
// owning TOC entry: the nearest entry at or before it.
//
// # Opening an ePub
//
// [Open] and [NewReader] parse the archive and build the Container:
//
//	book, err := epubnav.Open("book.epub")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer book.Close()
//
//	r := epubnav.NewResolver(book.Container(), logger)
//
// A Container may also be assembled directly with [NewContainer] when the
// manifest, spine and TOC come from elsewhere.
//
// # Moving between sections
//
// [Resolver.ResolveAdjacentSection] takes the href of the displayed section
// and a signed offset, loads the adjacent spine item through a [LoadFunc]
// and returns its owning TOC entry:
//
//	res, err := r.ResolveAdjacentSection(current, +1, surface.Load)
//	switch {
//	case errors.Is(err, epubnav.ErrNoAdjacentSection):
//	    // end of book
//	case errors.Is(err, epubnav.ErrNoOwningEntry):
//	    // loaded, but nothing in the TOC precedes it
//	}
//
// # Hrefs
//
// Manifest and TOC hrefs are container-root relative. They are compared
// after [StripAnchor] removes any fragment.
//
// # Error Handling
//
// Lookup problems ([ErrHrefNotFound], [ErrNotInSpine], [ErrTOCNotFound],
// [ErrCorruptSpine]) and the spine boundary ([ErrNoAdjacentSection]) are
// sentinel errors; none of them is fatal. Integrity issues found while
// building a Container are available from [Container.Warnings].
package epubnav
