package epubnav

import (
	"strings"
	"testing"
)

func TestStripAnchor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a/b.xhtml#frag", "a/b.xhtml"},
		{"a/b.xhtml", "a/b.xhtml"},
		{"a/b.xhtml#", "a/b.xhtml"},
		{"#only", ""},
		{"a/b.xhtml#x#y", "a/b.xhtml"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripAnchor(tt.in); got != tt.want {
			t.Errorf("StripAnchor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if StripAnchor("a/b.xhtml#frag") != StripAnchor("a/b.xhtml") {
		t.Error("anchored and bare hrefs must normalize to the same value")
	}
}

func TestResolveRelativePath(t *testing.T) {
	tests := []struct {
		base string
		href string
		want string
	}{
		{"OEBPS/toc.ncx", "chapter1.xhtml", "OEBPS/chapter1.xhtml"},
		{"OEBPS/toc.ncx", "text/ch1.xhtml#s1", "OEBPS/text/ch1.xhtml#s1"},
		{"OEBPS/nav/nav.xhtml", "../text/ch1.xhtml", "OEBPS/text/ch1.xhtml"},
		{"OEBPS/toc.ncx", "chapter%201.xhtml", "OEBPS/chapter 1.xhtml"},
		{"OEBPS/ch1.xhtml", "#note", "OEBPS/ch1.xhtml#note"},
		{"content.opf", "ch1.xhtml", "ch1.xhtml"},
		{"OEBPS/toc.ncx", "../../etc/passwd", ""},
		{"OEBPS/toc.ncx", "/abs.xhtml", ""},
		{"OEBPS/toc.ncx", "", ""},
	}
	for _, tt := range tests {
		if got := resolveRelativePath(tt.base, tt.href); got != tt.want {
			t.Errorf("resolveRelativePath(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
		}
	}
}

func TestContainer_ManifestLookups(t *testing.T) {
	c := NewContainer(
		[]ManifestItem{
			{ID: "a", Href: "OEBPS/a.xhtml"},
			{ID: "b", Href: "OEBPS/shared.xhtml#one"},
			{ID: "c", Href: "OEBPS/shared.xhtml"},
		},
		nil, nil,
	)

	if item, ok := c.ManifestItem("a"); !ok || item.Href != "OEBPS/a.xhtml" {
		t.Errorf("ManifestItem(a) = %+v, %v", item, ok)
	}
	if _, ok := c.ManifestItem("missing"); ok {
		t.Error("ManifestItem(missing) reported ok")
	}

	// Ties resolve to the first item in manifest order.
	item, ok := c.ManifestItemByHref("OEBPS/shared.xhtml#two")
	if !ok {
		t.Fatal("ManifestItemByHref(shared) not found")
	}
	if item.ID != "b" {
		t.Errorf("ManifestItemByHref(shared).ID = %q, want %q", item.ID, "b")
	}
}

func TestContainer_SpineIndexDuplicates(t *testing.T) {
	c := NewContainer(
		[]ManifestItem{{ID: "x", Href: "x.xhtml"}, {ID: "y", Href: "y.xhtml"}},
		[]SpineItem{{IDRef: "x"}, {IDRef: "y"}, {IDRef: "x"}, {IDRef: "y"}},
		nil,
	)

	tests := []struct {
		idref string
		match SpineMatch
		want  int
	}{
		{"x", FirstMatch, 0},
		{"x", LastMatch, 2},
		{"y", FirstMatch, 1},
		{"y", LastMatch, 3},
	}
	for _, tt := range tests {
		got, ok := c.SpineIndex(tt.idref, tt.match)
		if !ok || got != tt.want {
			t.Errorf("SpineIndex(%q, %d) = %d, %v; want %d", tt.idref, tt.match, got, ok, tt.want)
		}
	}
	if idx, ok := c.SpineIndex("z", LastMatch); ok || idx != -1 {
		t.Errorf("SpineIndex(z) = %d, %v; want -1, false", idx, ok)
	}
}

func TestContainer_AllTOCPointsPreOrder(t *testing.T) {
	c := NewContainer(nil, nil, []TOCPoint{
		{ID: "p1", Children: []TOCPoint{
			{ID: "c1", Children: []TOCPoint{{ID: "c1.1"}}},
			{ID: "c2"},
		}},
		{ID: "p2"},
	})

	var ids []string
	for _, p := range c.AllTOCPoints() {
		ids = append(ids, p.ID)
	}
	if got, want := strings.Join(ids, ","), "p1,c1,c1.1,c2,p2"; got != want {
		t.Errorf("AllTOCPoints order = %s, want %s", got, want)
	}

	p, ok := c.TOCPoint("c1")
	if !ok || len(p.Children) != 1 {
		t.Fatalf("TOCPoint(c1) = %+v, %v", p, ok)
	}
	p.Children[0].ID = "mutated"
	if again, _ := c.TOCPoint("c1.1"); again.ID != "c1.1" {
		t.Error("mutating a returned point changed the container")
	}
	if !c.HasTOC() {
		t.Error("HasTOC() = false, want true")
	}
}

func TestContainer_Warnings(t *testing.T) {
	c := NewContainer(
		[]ManifestItem{{ID: "a", Href: "a.xhtml"}, {ID: "a", Href: "other.xhtml"}},
		[]SpineItem{{IDRef: "a"}, {IDRef: "ghost"}},
		nil,
	)

	if item, _ := c.ManifestItem("a"); item.Href != "a.xhtml" {
		t.Errorf("duplicate id kept %q, want first item", item.Href)
	}
	if len(c.ManifestItems()) != 1 {
		t.Errorf("ManifestItems() length = %d, want 1", len(c.ManifestItems()))
	}
	if _, ok := c.SpineHref(1); ok {
		t.Error("SpineHref(1) reported ok for missing manifest item")
	}

	warnings := strings.Join(c.Warnings(), "\n")
	for _, want := range []string{`duplicate manifest id "a"`, `spine[1] references missing manifest item "ghost"`} {
		if !strings.Contains(warnings, want) {
			t.Errorf("Warnings() missing %q in:\n%s", want, warnings)
		}
	}
}
