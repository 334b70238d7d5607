package epubnav

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
)

// parseNCX parses NCX (ePub 2) data into TOC points. Hrefs are resolved
// relative to ncxPath so they are comparable with manifest hrefs.
func parseNCX(data []byte, ncxPath string) ([]TOCPoint, error) {
	doc := newXMLDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("epubnav: parse NCX: %w", err)
	}
	navMap := doc.FindElement("//navMap")
	if navMap == nil {
		return nil, nil
	}
	return convertNavPoints(navMap.SelectElements("navPoint"), ncxPath), nil
}

func convertNavPoints(elements []*etree.Element, ncxPath string) []TOCPoint {
	if len(elements) == 0 {
		return nil
	}
	points := make([]TOCPoint, 0, len(elements))
	for _, el := range elements {
		p := TOCPoint{ID: strings.TrimSpace(el.SelectAttrValue("id", ""))}
		if text := el.FindElement("navLabel/text"); text != nil {
			p.Label = strings.TrimSpace(text.Text())
		}
		if content := el.SelectElement("content"); content != nil {
			p.Content = resolveRelativePath(ncxPath, content.SelectAttrValue("src", ""))
		}
		p.Children = convertNavPoints(el.SelectElements("navPoint"), ncxPath)
		points = append(points, p)
	}
	return points
}

// parseNavDocument parses the toc <nav> of an ePub 3 navigation document.
// navPath is the archive path of the document, used to resolve hrefs.
func parseNavDocument(data []byte, navPath string) ([]TOCPoint, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("epubnav: parse nav document: %w", err)
	}

	nav := findElement(doc, func(n *html.Node) bool {
		return n.Data == "nav" && hasEpubType(n, "toc")
	})
	if nav == nil {
		return nil, nil
	}
	ol := findElement(nav, func(n *html.Node) bool { return n.Data == "ol" })
	if ol == nil {
		return nil, nil
	}
	return parseNavOL(ol, navPath), nil
}

func parseNavOL(ol *html.Node, navPath string) []TOCPoint {
	var points []TOCPoint
	for c := ol.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "li" {
			points = append(points, parseNavLI(c, navPath))
		}
	}
	return points
}

// parseNavLI reads the first <a> (or a <span> heading) and a nested <ol>.
// The point id is taken from the <li>, then from the <a>.
func parseNavLI(li *html.Node, navPath string) TOCPoint {
	p := TOCPoint{ID: attr(li, "id")}
	anchorSeen := false
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "a":
			if anchorSeen {
				continue
			}
			anchorSeen = true
			p.Content = resolveRelativePath(navPath, attr(c, "href"))
			p.Label = strings.TrimSpace(textContent(c))
			if p.ID == "" {
				p.ID = attr(c, "id")
			}
		case "span":
			if p.Label == "" {
				p.Label = strings.TrimSpace(textContent(c))
			}
		case "ol":
			p.Children = parseNavOL(c, navPath)
		}
	}
	return p
}

// assignTOCIDs gives every point a unique id. Points with a missing or
// already used id get "navpoint-N", N being the 1-based pre-order position.
func assignTOCIDs(points []TOCPoint) {
	seen := make(map[string]bool)
	n := 0
	var walk func([]TOCPoint)
	walk = func(points []TOCPoint) {
		for i := range points {
			n++
			if id := points[i].ID; id == "" || seen[id] {
				points[i].ID = fmt.Sprintf("navpoint-%d", n)
			}
			seen[points[i].ID] = true
			walk(points[i].Children)
		}
	}
	walk(points)
}

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func hasEpubType(n *html.Node, typeName string) bool {
	for _, t := range strings.Fields(attr(n, "epub:type")) {
		if t == typeName {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
