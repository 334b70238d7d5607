// Package sim is a simulated column surface. It lays section text out into
// fixed-size pages without rendering anything, which is enough to drive a
// paginate.Engine from the command line or from tests.
package sim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/unicode/norm"

	"github.com/simp-lee/epubnav/paginate"
)

// ErrNotLoaded indicates a command issued before any section was loaded.
var ErrNotLoaded = errors.New("sim: no section loaded")

// Source reads section content. *epubnav.Book satisfies it.
type Source interface {
	ReadFile(name string) ([]byte, error)
}

// Options describes the simulated viewport.
type Options struct {
	// PageWidth and PageHeight are the column size in pixels.
	PageWidth  float64
	PageHeight float64

	// CharsPerPage is the amount of text fitting one page at scale 1.
	CharsPerPage int
}

// DefaultOptions returns a 600x800 viewport holding 1500 characters a page.
func DefaultOptions() Options {
	return Options{PageWidth: 600, PageHeight: 800, CharsPerPage: 1500}
}

// Surface implements paginate.Surface over a Source.
type Surface struct {
	src  Source
	opts Options
	log  *zap.Logger

	mu    sync.Mutex
	href  string
	chars int
	scale float64
	page  int
	pages int
}

var _ paginate.Surface = (*Surface)(nil)

// New returns a Surface reading sections from src. Zero option fields take
// their DefaultOptions values.
func New(src Source, opts Options, log *zap.Logger) *Surface {
	def := DefaultOptions()
	if opts.PageWidth <= 0 {
		opts.PageWidth = def.PageWidth
	}
	if opts.PageHeight <= 0 {
		opts.PageHeight = def.PageHeight
	}
	if opts.CharsPerPage <= 0 {
		opts.CharsPerPage = def.CharsPerPage
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Surface{src: src, opts: opts, log: log, scale: 1}
}

// Load measures the section at href and shows its first page.
func (s *Surface) Load(ctx context.Context, href string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := s.src.ReadFile(href)
	if err != nil {
		return fmt.Errorf("sim: loading %s: %w", href, err)
	}
	r, err := charset.NewReader(bytes.NewReader(data), "application/xhtml+xml")
	if err != nil {
		return fmt.Errorf("sim: decoding %s: %w", href, err)
	}
	chars, err := Measure(r)
	if err != nil {
		return fmt.Errorf("sim: measuring %s: %w", href, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.href, s.chars, s.page = href, chars, 0
	s.reflow()
	s.log.Debug("Section laid out", zap.String("href", href), zap.Int("chars", chars), zap.Int("pages", s.pages))
	return nil
}

// MovePage turns one page or, for direction 0, stays on the current one.
// Moving outside the section leaves the page unchanged and reports a
// position below 0 or above 1.
func (s *Surface) MovePage(ctx context.Context, direction int, _ bool) (paginate.Reply, error) {
	if err := ctx.Err(); err != nil {
		return paginate.Reply{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.href == "" {
		return paginate.Reply{}, ErrNotLoaded
	}

	next := s.page + direction
	if next < 0 || next >= s.pages {
		return s.reply(s.fraction(next)), nil
	}
	s.page = next
	return s.reply(s.fraction(s.page)), nil
}

// Position reports the current position or jumps to the page nearest
// amount.
func (s *Surface) Position(ctx context.Context, amount *float64) (paginate.Reply, error) {
	if err := ctx.Err(); err != nil {
		return paginate.Reply{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.href == "" {
		return paginate.Reply{}, ErrNotLoaded
	}
	if amount != nil {
		a := math.Max(0, math.Min(1, *amount))
		s.page = int(math.Round(a * float64(s.pages-1)))
	}
	return s.reply(s.fraction(s.page)), nil
}

// ScaleText changes the text scale and re-lays out the section. The page
// index is kept, so the relative position drifts until it is restored.
func (s *Surface) ScaleText(ctx context.Context, amount float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "", fmt.Errorf("sim: invalid scale %v", amount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scale = amount
	s.reflow()
	return fmt.Sprintf("%d%%", int(math.Round(amount*100))), nil
}

// Page returns the current page and the page count of the loaded section.
func (s *Surface) Page() (page, pages int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page, s.pages
}

func (s *Surface) reflow() {
	s.pages = int(math.Ceil(float64(s.chars) * s.scale / float64(s.opts.CharsPerPage)))
	if s.pages < 1 {
		s.pages = 1
	}
	if s.page >= s.pages {
		s.page = s.pages - 1
	}
}

// fraction maps a page index, possibly outside the section, to a position.
func (s *Surface) fraction(page int) float64 {
	if s.pages == 1 {
		switch {
		case page < 0:
			return -1
		case page > 0:
			return 2
		}
		return 0
	}
	return float64(page) / float64(s.pages-1)
}

func (s *Surface) reply(pos float64) paginate.Reply {
	return paginate.Reply{
		Pos:    pos,
		X:      float64(s.page) * s.opts.PageWidth,
		Y:      0,
		Width:  float64(s.pages) * s.opts.PageWidth,
		Height: s.opts.PageHeight,
	}
}

// Measure returns the number of visible characters in an XHTML document,
// counted after NFC normalization. Runs of white space count as one
// character; head, script and style content is skipped.
func Measure(r io.Reader) (int, error) {
	var (
		n     int
		space = true
	)
	err := walkText(r, func(text []byte, blockEnd bool) {
		if blockEnd {
			space = true
			return
		}
		for _, r := range norm.NFC.String(string(text)) {
			if unicode.IsSpace(r) {
				if !space {
					n++
					space = true
				}
				continue
			}
			n++
			space = false
		}
	})
	return n, err
}

// Text returns the visible text of an XHTML document with white space
// collapsed, for previews.
func Text(r io.Reader) (string, error) {
	var b strings.Builder
	err := walkText(r, func(text []byte, blockEnd bool) {
		if blockEnd {
			b.WriteByte(' ')
			return
		}
		b.Write(text)
	})
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(b.String()), " "), nil
}

// walkText calls fn for every visible text token and, with blockEnd set,
// at the end of every block element.
func walkText(r io.Reader, fn func(text []byte, blockEnd bool)) error {
	z := html.NewTokenizer(r)
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return err
			}
			return nil
		case html.StartTagToken:
			name, _ := z.TagName()
			if hidden(atom.Lookup(name)) {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case hidden(a):
				if skip > 0 {
					skip--
				}
			case block(a):
				fn(nil, true)
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.Br {
				fn(nil, true)
			}
		case html.TextToken:
			if skip == 0 {
				fn(z.Text(), false)
			}
		}
	}
}

func hidden(a atom.Atom) bool {
	return a == atom.Head || a == atom.Script || a == atom.Style
}

func block(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Li, atom.Blockquote, atom.Section, atom.Tr,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}
