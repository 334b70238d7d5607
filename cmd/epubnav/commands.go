package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/simp-lee/epubnav"
	"github.com/simp-lee/epubnav/gesture"
	"github.com/simp-lee/epubnav/paginate"
	"github.com/simp-lee/epubnav/state"
	"github.com/simp-lee/epubnav/surface/script"
	"github.com/simp-lee/epubnav/surface/sim"
)

// openBook opens the book named by the first command argument and logs
// its parse warnings.
func openBook(cmd *cli.Command, log *zap.Logger) (*epubnav.Book, error) {
	if cmd.Args().Len() == 0 {
		return nil, errors.New("no BOOK specified")
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many books", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}
	path := cmd.Args().First()
	book, err := epubnav.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open '%s': %w", path, err)
	}
	for _, w := range book.Warnings() {
		log.Warn("Book problem", zap.String("book", path), zap.String("details", w))
	}
	log.Debug("Book opened", zap.String("book", path), zap.String("version", book.Version()),
		zap.Int("spine", book.Container().SpineLen()), zap.Int("toc", len(book.Container().AllTOCPoints())))
	return book, nil
}

// firstSection returns the href of the first spine item that resolves to
// a manifest item.
func firstSection(c *epubnav.Container) (string, error) {
	for i := range c.SpineLen() {
		if href, ok := c.SpineHref(i); ok {
			return href, nil
		}
	}
	return "", fmt.Errorf("%w: no readable spine item", epubnav.ErrCorruptSpine)
}

func runTOC(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	book, err := openBook(cmd, env.Logger())
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, book.Close()) }()

	out := cmd.Root().Writer
	c := book.Container()
	if !c.HasTOC() {
		fmt.Fprintln(out, "no table of contents")
	}
	printTOC(out, c.TOC(), 0)

	fmt.Fprintln(out)
	nav := epubnav.NewResolver(c, env.Logger().Named("resolver"))
	for i := range c.SpineLen() {
		si, _ := c.SpineItem(i)
		href, ok := c.SpineHref(i)
		if !ok {
			fmt.Fprintf(out, "%3d  %-40s  (missing manifest item)\n", i, si.IDRef)
			continue
		}
		owner := "-"
		if p, ok := nav.OwningTOCPoint(i); ok {
			owner = p.ID
		}
		linear := ""
		if !si.Linear {
			linear = " (non-linear)"
		}
		fmt.Fprintf(out, "%3d  %-40s  %s%s\n", i, href, owner, linear)
	}
	return nil
}

func printTOC(w io.Writer, points []epubnav.TOCPoint, depth int) {
	for _, p := range points {
		fmt.Fprintf(w, "%s%s [%s] %s\n", strings.Repeat("  ", depth), p.Label, p.ID, p.Content)
		printTOC(w, p.Children, depth+1)
	}
}

func runWalk(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	log := env.Logger()

	offset := int(cmd.Int("offset"))
	if offset == 0 {
		return errors.New("offset must not be zero")
	}

	book, err := openBook(cmd, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, book.Close()) }()

	c := book.Container()
	current := cmd.String("from")
	if current == "" {
		if current, err = firstSection(c); err != nil {
			return err
		}
	}

	nav := epubnav.NewResolver(c, log.Named("resolver"))
	load := func(href string) error {
		_, err := book.ReadFile(href)
		return err
	}
	out := cmd.Root().Writer

	step := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := nav.ResolveAdjacentSection(current, step, load)
		switch {
		case errors.Is(err, epubnav.ErrNoAdjacentSection):
			return nil
		case errors.Is(err, epubnav.ErrNoOwningEntry):
			res.TOCID = "-"
		case err != nil:
			return err
		}
		label := ""
		if p, ok := c.TOCPoint(res.TOCID); ok {
			label = p.Label
		}
		fmt.Fprintf(out, "%3d  %-40s  %-12s  %s\n", res.SpineIndex, res.Href, res.TOCID, label)
		current, step = res.Href, offset
	}
}

func runRead(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	log := env.Logger()

	book, err := openBook(cmd, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, book.Close()) }()

	c := book.Container()
	start := cmd.String("from")
	if start == "" {
		if start, err = firstSection(c); err != nil {
			return err
		}
	}

	surface := sim.New(book, env.Cfg.Reader.Surface(), log.Named("surface"))
	r := &reader{
		eng:     paginate.New(epubnav.NewResolver(c, log.Named("resolver")), surface, env.Cfg.Reader.Scale, log.Named("engine")),
		surface: surface,
		c:       c,
		smooth:  env.Cfg.Reader.Smooth,
		out:     cmd.Root().Writer,
		log:     log,
	}

	if _, err := r.eng.Open(ctx, start); err != nil && !errors.Is(err, epubnav.ErrNoOwningEntry) {
		return err
	}
	if err := r.settle(ctx); err != nil {
		return err
	}
	if id := cmd.String("toc"); id != "" {
		if _, err := r.eng.GoToTOCEntry(ctx, id); err != nil {
			return err
		}
		if err := r.settle(ctx); err != nil {
			return err
		}
	}
	if cmd.IsSet("scale") {
		applied, err := r.eng.Rescale(ctx, cmd.Float("scale"))
		if err != nil {
			return err
		}
		log.Info("Text rescaled", zap.Float64("scale", applied))
	}
	r.print()

	if name := cmd.String("events"); name != "" {
		return r.replay(ctx, name, gesture.New(env.Cfg.Gesture.Disambiguator(), nil, log.Named("gesture")))
	}

	pages := int(cmd.Int("pages"))
	dir := 1
	if pages < 0 {
		dir, pages = -1, -pages
	}
	for range pages {
		done, err := r.turn(ctx, dir)
		if err != nil || done {
			return err
		}
	}
	return nil
}

// reader drives an engine on the simulated surface and prints where it is.
type reader struct {
	eng     *paginate.Engine
	surface *sim.Surface
	c       *epubnav.Container
	smooth  bool
	out     io.Writer
	log     *zap.Logger
}

// settle completes a pending section load. The simulated surface loads
// synchronously, so the completion hook can run right away.
func (r *reader) settle(ctx context.Context) error {
	if r.eng.Snapshot().Phase != paginate.Loading {
		return nil
	}
	return r.eng.LoadFinished(ctx)
}

// turn turns one page and reports whether the start or the end of the
// book was reached.
func (r *reader) turn(ctx context.Context, dir int) (bool, error) {
	res, err := r.eng.TurnPage(ctx, dir, r.smooth)
	if err != nil {
		return false, err
	}
	if res.AtBoundary {
		if dir < 0 {
			fmt.Fprintln(r.out, "-- start of book --")
		} else {
			fmt.Fprintln(r.out, "-- end of book --")
		}
		return true, nil
	}
	if err := r.settle(ctx); err != nil {
		return false, err
	}
	r.print()
	return false, nil
}

func (r *reader) replay(ctx context.Context, name string, d *gesture.Disambiguator) (err error) {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("unable to open events file '%s': %w", name, err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		data := sc.Bytes()
		if len(strings.TrimSpace(string(data))) == 0 {
			continue
		}
		ev, err := script.DecodeEvent(data)
		if err != nil {
			r.log.Warn("Bad touch event skipped", zap.Int("line", line), zap.Error(err))
			continue
		}
		tap, ok := d.Handle(ev)
		if !ok {
			continue
		}
		dir := d.Config().Direction(tap.Region)
		r.log.Debug("Tap", zap.Float64("region", tap.Region), zap.Int("direction", dir))
		if dir == 0 {
			continue
		}
		if done, err := r.turn(ctx, dir); err != nil || done {
			return err
		}
	}
	return sc.Err()
}

func (r *reader) print() {
	st := r.eng.Snapshot()
	page, pages := r.surface.Page()
	label := ""
	if p, ok := r.c.TOCPoint(st.CurrentTOCID); ok {
		label = p.Label
	}
	fmt.Fprintf(r.out, "%-40s  page %3d/%-3d  %5.1f%%  %s\n",
		st.CurrentHref, page+1, pages, float64(st.SectionProgress)*100, label)
}
