package paginate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/simp-lee/epubnav"
)

// Result is the outcome of a pagination command.
type Result struct {
	// Reply is the surface reply the state was updated from.
	Reply Reply

	// Queued is set when a position jump was stored for replay because the
	// section is still loading. Reply is zero in that case.
	Queued bool

	// Moved is -1 or 1 when the command ran past the section bounds and the
	// adjacent section is now loading.
	Moved int

	// Href and TOCID describe the section loaded when Moved is non-zero.
	Href  string
	TOCID string

	// AtBoundary is set when the command ran past the bounds of the first
	// or last section; the position was snapped back instead.
	AtBoundary bool
}

// Engine drives a rendering surface for one open document at a time and
// owns its NavigationState.
//
// Engine methods may be called from several goroutines but only one
// surface command runs at a time: user commands issued while another is in
// flight fail with ErrBusy, while LoadFinished is deferred until the
// running command returns.
type Engine struct {
	nav     *epubnav.Resolver
	surface Surface
	log     *zap.Logger

	inflight chan struct{}

	mu         sync.Mutex
	state      NavigationState
	scale      float64
	completion *loadCompletion
}

// loadCompletion is a LoadFinished call received while the in-flight slot
// was taken.
type loadCompletion struct {
	ctx     context.Context
	session uuid.UUID
}

// New returns an Engine navigating the resolver's container on surface.
// scale is the initial text scale ratio; values <= 0 mean 1.
func New(nav *epubnav.Resolver, surface Surface, scale float64, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = 1
	}
	return &Engine{
		nav:      nav,
		surface:  surface,
		log:      log,
		inflight: make(chan struct{}, 1),
		state:    NavigationState{Phase: Idle, Scale: scale},
		scale:    scale,
	}
}

// Snapshot returns a copy of the current navigation state.
func (e *Engine) Snapshot() NavigationState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// Open starts a new session at the section containing href. Any previous
// document is closed first; replies still outstanding for it are discarded.
// The engine is Loading until the host calls LoadFinished.
func (e *Engine) Open(ctx context.Context, href string) (epubnav.Resolution, error) {
	e.Close()
	if err := e.acquireWait(ctx); err != nil {
		return epubnav.Resolution{}, err
	}
	defer e.release()

	e.mu.Lock()
	session := uuid.New()
	e.state.Session = session
	e.mu.Unlock()

	e.log.Debug("Opening document", zap.String("href", href), zap.Stringer("session", session))
	res, err := e.nav.ResolveAdjacentSection(href, 0, e.loader(ctx, session, nil))
	if err != nil && !errors.Is(err, epubnav.ErrNoOwningEntry) {
		return res, err
	}
	return res, e.settle(session, res.TOCID)
}

// Close discards the current document. Outstanding replies for it will be
// dropped with ErrStaleReply. The text scale is kept for the next document.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != Idle {
		e.log.Debug("Closing document", zap.Stringer("session", e.state.Session))
	}
	e.state = NavigationState{Phase: Idle, Scale: e.scale}
	e.completion = nil
}

// TurnPage moves one page back (-1) or forward (1), or snaps to the nearest
// page boundary (0). When the reply lands before the section start or past
// its end, the adjacent section is loaded and the engine queues a jump to
// its last (1.0) or first (0.0) page. Turning pages is rejected while a
// section is loading.
func (e *Engine) TurnPage(ctx context.Context, direction int, smooth bool) (Result, error) {
	if direction < -1 || direction > 1 {
		return Result{}, fmt.Errorf("paginate: invalid page direction %d", direction)
	}
	if err := e.acquire(); err != nil {
		return Result{}, err
	}
	defer e.release()

	session, href, err := e.ready()
	if err != nil {
		return Result{}, err
	}

	reply, err := e.surface.MovePage(ctx, direction, smooth)
	if err != nil {
		return Result{}, &SurfaceError{Op: "movePage", Err: err}
	}
	res := Result{Reply: reply}

	var (
		offset int
		target float64
	)
	switch {
	case direction != 0 && reply.Pos < 0:
		offset, target = -1, 1
	case direction != 0 && reply.Pos > 1:
		offset, target = 1, 0
	default:
		return res, e.apply(session, "movePage", reply)
	}

	// Out of bounds replies are not stored: either the adjacent section
	// replaces the state or the boundary snap supplies the position.
	if err := validateReply(reply); err != nil {
		return Result{}, &SurfaceError{Op: "movePage", Err: err}
	}

	e.log.Debug("Page turn left the section", zap.String("href", href), zap.Float64("pos", reply.Pos), zap.Int("offset", offset))
	section, err := e.nav.ResolveAdjacentSection(href, offset, e.loader(ctx, session, &target))
	switch {
	case errors.Is(err, epubnav.ErrNoAdjacentSection):
		res.AtBoundary = true
		snap, err := e.surface.MovePage(ctx, 0, false)
		if err != nil {
			return res, &SurfaceError{Op: "movePage", Err: err}
		}
		if err := e.apply(session, "movePage", snap); err != nil {
			return res, err
		}
		res.Reply = snap
		return res, nil
	case err != nil && !errors.Is(err, epubnav.ErrNoOwningEntry):
		return res, err
	}

	res.Moved, res.Href, res.TOCID = offset, section.Href, section.TOCID
	return res, e.settle(session, section.TOCID)
}

// GotoPosition jumps to fraction of the current section and snaps to the
// nearest page. While a section is loading the fraction is stored instead
// and replayed by LoadFinished.
func (e *Engine) GotoPosition(ctx context.Context, fraction float64) (Result, error) {
	if math.IsNaN(fraction) || fraction < 0 || fraction > 1 {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidPosition, fraction)
	}
	if err := e.acquire(); err != nil {
		return Result{}, err
	}
	defer e.release()

	e.mu.Lock()
	switch e.state.Phase {
	case Idle:
		e.mu.Unlock()
		return Result{}, ErrNoDocument
	case Loading:
		e.state.PendingTargetPosition = &fraction
		e.mu.Unlock()
		e.log.Debug("Position queued until load finishes", zap.Float64("fraction", fraction))
		return Result{Queued: true}, nil
	}
	session := e.state.Session
	e.mu.Unlock()

	reply, err := e.gotoPosition(ctx, session, fraction)
	if err != nil {
		return Result{}, err
	}
	return Result{Reply: reply}, nil
}

// Rescale applies a new text scale while keeping the reader at the same
// relative position: the position is queried, the scale applied and the
// queried position restored after reflow. The applied ratio reported by the
// surface becomes the new scale; on any failure the previous one is kept.
func (e *Engine) Rescale(ctx context.Context, factor float64) (float64, error) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidScale, factor)
	}
	if err := e.acquire(); err != nil {
		return 0, err
	}
	defer e.release()

	session, _, err := e.ready()
	if err != nil {
		return 0, err
	}

	before, err := e.surface.Position(ctx, nil)
	if err != nil {
		return 0, &SurfaceError{Op: "position", Err: err}
	}
	if err := validateReply(before); err != nil {
		return 0, &SurfaceError{Op: "position", Err: err}
	}

	applied, err := e.surface.ScaleText(ctx, factor)
	if err != nil {
		return 0, &SurfaceError{Op: "scaleText", Err: err}
	}

	restore := clamp01(before.Pos)
	after, err := e.surface.Position(ctx, &restore)
	if err != nil {
		return 0, &SurfaceError{Op: "position", Err: err}
	}
	if err := validateReply(after); err != nil {
		return 0, &SurfaceError{Op: "position", Err: err}
	}

	ratio, err := ParsePercent(applied)
	if err != nil {
		e.log.Warn("Unable to parse applied text scale", zap.String("reply", applied), zap.Error(err))
		return 0, &SurfaceError{Op: "scaleText", Err: err}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Session != session {
		return 0, ErrStaleReply
	}
	e.state.apply(after)
	e.state.Scale = ratio
	e.scale = ratio
	e.log.Debug("Text rescaled", zap.Float64("requested", factor), zap.Float64("applied", ratio), zap.Float64("pos", restore))
	return ratio, nil
}

// LoadFinished is the load-completion hook. The host calls it once per
// section load. The engine becomes Ready, re-applies the current scale and
// replays the pending target position, if any. The pending position is
// cleared whether or not the replay succeeds.
//
// The host may call LoadFinished from inside Surface.Load or while another
// command is in flight. The completion is then recorded and LoadFinished
// returns nil at once; the replay runs when the running command returns and
// its failures are logged.
func (e *Engine) LoadFinished(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.state.Phase == Idle {
		e.mu.Unlock()
		return ErrNoDocument
	}
	session := e.state.Session
	select {
	case e.inflight <- struct{}{}:
	default:
		e.completion = &loadCompletion{ctx: context.WithoutCancel(ctx), session: session}
		e.mu.Unlock()
		e.log.Debug("Load completion deferred until running command returns")
		return nil
	}
	e.mu.Unlock()
	defer e.release()

	return e.finishLoad(ctx, session)
}

// finishLoad makes the section loaded under session Ready and replays scale
// and pending position.
func (e *Engine) finishLoad(ctx context.Context, session uuid.UUID) error {
	e.mu.Lock()
	switch {
	case e.state.Phase == Idle:
		e.mu.Unlock()
		return ErrNoDocument
	case e.state.Session != session:
		e.mu.Unlock()
		return ErrStaleReply
	}
	e.state.Phase = Ready
	scale := e.state.Scale
	pending := e.state.PendingTargetPosition
	e.state.PendingTargetPosition = nil
	href := e.state.CurrentHref
	e.mu.Unlock()

	e.log.Debug("Section loaded", zap.String("href", href), zap.Float64("scale", scale))

	var errs error
	if _, err := e.surface.ScaleText(ctx, scale); err != nil {
		errs = multierr.Append(errs, &SurfaceError{Op: "scaleText", Err: err})
	}
	if pending != nil {
		if _, err := e.gotoPosition(ctx, session, *pending); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// GoToTOCEntry loads the section referenced by TOC entry id.
func (e *Engine) GoToTOCEntry(ctx context.Context, id string) (epubnav.Resolution, error) {
	if err := e.acquire(); err != nil {
		return epubnav.Resolution{}, err
	}
	defer e.release()

	session, _, err := e.ready()
	if err != nil {
		return epubnav.Resolution{}, err
	}
	res, err := e.nav.SectionForTOCEntry(id)
	if err != nil {
		return res, err
	}
	if err := e.loader(ctx, session, nil)(res.Href); err != nil {
		return res, err
	}
	return res, e.settle(session, res.TOCID)
}

// NextSection loads the section following the current one.
func (e *Engine) NextSection(ctx context.Context) (epubnav.Resolution, error) {
	return e.moveSection(ctx, 1)
}

// PrevSection loads the section preceding the current one.
func (e *Engine) PrevSection(ctx context.Context) (epubnav.Resolution, error) {
	return e.moveSection(ctx, -1)
}

func (e *Engine) moveSection(ctx context.Context, offset int) (epubnav.Resolution, error) {
	if err := e.acquire(); err != nil {
		return epubnav.Resolution{}, err
	}
	defer e.release()

	session, href, err := e.ready()
	if err != nil {
		return epubnav.Resolution{}, err
	}
	res, err := e.nav.ResolveAdjacentSection(href, offset, e.loader(ctx, session, nil))
	if err != nil && !errors.Is(err, epubnav.ErrNoOwningEntry) {
		return res, err
	}
	return res, e.settle(session, res.TOCID)
}

// loader returns the LoadFunc handed to the resolver. The state switches to
// Loading, with pending as the target position, before the surface is asked
// to load, so a completion signalled from inside Load is recorded against
// the new section; a rejected load restores the previous state.
func (e *Engine) loader(ctx context.Context, session uuid.UUID, pending *float64) epubnav.LoadFunc {
	return func(href string) error {
		e.mu.Lock()
		if e.state.Session != session {
			e.mu.Unlock()
			return ErrStaleReply
		}
		prev := e.state.clone()
		e.state.Phase = Loading
		e.state.CurrentHref = href
		e.state.CurrentTOCID = ""
		e.state.SectionProgress = 0
		e.state.PendingTargetPosition = pending
		e.mu.Unlock()

		if err := e.surface.Load(ctx, href); err != nil {
			e.mu.Lock()
			if e.state.Session == session {
				e.state = prev
				e.completion = nil
			}
			e.mu.Unlock()
			return &SurfaceError{Op: "load", Err: err}
		}
		e.log.Debug("Section load issued", zap.String("href", href))
		return nil
	}
}

// settle records the owning TOC entry of a section that was just loaded.
func (e *Engine) settle(session uuid.UUID, tocID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Session != session {
		return ErrStaleReply
	}
	e.state.CurrentTOCID = tocID
	return nil
}

func (e *Engine) gotoPosition(ctx context.Context, session uuid.UUID, fraction float64) (Reply, error) {
	reply, err := e.surface.Position(ctx, &fraction)
	if err != nil {
		return Reply{}, &SurfaceError{Op: "position", Err: err}
	}
	if err := e.apply(session, "position", reply); err != nil {
		return Reply{}, err
	}
	return reply, nil
}

// apply validates reply and stores it if session is still current.
func (e *Engine) apply(session uuid.UUID, op string, reply Reply) error {
	if err := validateReply(reply); err != nil {
		return &SurfaceError{Op: op, Err: err}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Session != session {
		e.log.Debug("Discarding stale reply", zap.String("op", op))
		return ErrStaleReply
	}
	e.state.apply(reply)
	return nil
}

// ready returns the session and current href, failing unless the engine is
// Ready.
func (e *Engine) ready() (uuid.UUID, string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state.Phase {
	case Idle:
		return uuid.Nil, "", ErrNoDocument
	case Loading:
		return uuid.Nil, "", ErrNotReady
	}
	return e.state.Session, e.state.CurrentHref, nil
}

func (e *Engine) acquire() error {
	select {
	case e.inflight <- struct{}{}:
		return nil
	default:
		return ErrBusy
	}
}

func (e *Engine) acquireWait(ctx context.Context) error {
	select {
	case e.inflight <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release frees the in-flight slot, first running a load completion that
// arrived while the slot was held.
func (e *Engine) release() {
	for {
		e.mu.Lock()
		done := e.completion
		e.completion = nil
		if done == nil {
			<-e.inflight
			e.mu.Unlock()
			return
		}
		e.mu.Unlock()
		if err := e.finishLoad(done.ctx, done.session); err != nil {
			e.log.Warn("Deferred load completion failed", zap.Error(err))
		}
	}
}

// apply stores the width and position of a surface reply. A past-end
// position resets progress to 0; the next section supplies the real value.
func (s *NavigationState) apply(r Reply) {
	s.SectionWidth = r.Width
	if r.Pos > 1 {
		s.SectionProgress = 0
		return
	}
	s.SectionProgress = Progress(r.Pos)
}

func validateReply(r Reply) error {
	for _, v := range []float64{r.Pos, r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value in %+v", ErrUnparseableReply, r)
		}
	}
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("%w: negative extent in %+v", ErrUnparseableReply, r)
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
