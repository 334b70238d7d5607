package epubnav_test

import (
	"errors"
	"fmt"
	"log"

	"github.com/simp-lee/epubnav"
)

func ExampleResolver_ResolveAdjacentSection() {
	c := epubnav.NewContainer(
		[]epubnav.ManifestItem{
			{ID: "intro", Href: "OEBPS/intro.xhtml"},
			{ID: "ch1", Href: "OEBPS/ch1.xhtml"},
			{ID: "notes", Href: "OEBPS/notes.xhtml"},
		},
		[]epubnav.SpineItem{{IDRef: "intro", Linear: true}, {IDRef: "ch1", Linear: true}, {IDRef: "notes", Linear: true}},
		[]epubnav.TOCPoint{
			{ID: "p-intro", Label: "Introduction", Content: "OEBPS/intro.xhtml"},
			{ID: "p-ch1", Label: "Chapter 1", Content: "OEBPS/ch1.xhtml#start"},
		},
	)
	nav := epubnav.NewResolver(c, nil)
	load := func(href string) error { return nil }

	href := "OEBPS/intro.xhtml#top"
	for {
		res, err := nav.ResolveAdjacentSection(href, 1, load)
		if errors.Is(err, epubnav.ErrNoAdjacentSection) {
			break
		}
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.SpineIndex, res.Href, res.TOCID)
		href = res.Href
	}
	// Output:
	// 1 OEBPS/ch1.xhtml p-ch1
	// 2 OEBPS/notes.xhtml p-ch1
}

func ExampleStripAnchor() {
	fmt.Println(epubnav.StripAnchor("OEBPS/ch1.xhtml#sec2"))
	fmt.Println(epubnav.StripAnchor("OEBPS/ch1.xhtml"))
	// Output:
	// OEBPS/ch1.xhtml
	// OEBPS/ch1.xhtml
}
