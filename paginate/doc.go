// Package paginate drives a column-based rendering surface through page
// turns, absolute position jumps and text rescaling while keeping the
// reader at the same relative position inside a section.
//
// An Engine owns the NavigationState of one open document. Every command
// is a round trip to a Surface; when a reply lands before the start or
// past the end of a section, the engine asks its epubnav.Resolver for the
// adjacent section, loads it and queues a jump to its last or first page.
// The queued position is replayed when the host reports the load finished:
//
//	eng := paginate.New(epubnav.NewResolver(book.Container(), log), surface, 1, log)
//	if _, err := eng.Open(ctx, "OEBPS/chapter1.xhtml"); err != nil {
//		return err
//	}
//	// ... surface finishes loading ...
//	if err := eng.LoadFinished(ctx); err != nil {
//		return err
//	}
//	res, err := eng.TurnPage(ctx, 1, true)
package paginate
