// Package gesture turns raw touch events from a rendering surface into
// page-turn taps.
//
// A tap is a touch-start followed by a touch-end at the same page X within
// a short window. Horizontal drags, text selections and slow presses are
// not taps. Touch events for one surface arrive in order, so a
// Disambiguator is not safe for concurrent use and needs no locking.
package gesture

import (
	"time"

	"go.uber.org/zap"
)

// DefaultWindow is the longest press still recognised as a tap.
const DefaultWindow = 200 * time.Millisecond

// Config controls tap recognition and tap-region classification.
type Config struct {
	// Window is the maximum time between touch-start and touch-end.
	Window time.Duration

	// Taps with a region below PreviousRegion turn back, taps above
	// NextRegion turn forward.
	PreviousRegion float64
	NextRegion     float64
}

// DefaultConfig returns a 200ms window with the outer thirds of the
// viewport turning pages.
func DefaultConfig() Config {
	return Config{Window: DefaultWindow, PreviousRegion: 0.3, NextRegion: 0.7}
}

// Direction maps a tap region to a page-turn direction: -1 for the
// previous page, 1 for the next one, 0 when the tap should not turn.
func (c Config) Direction(region float64) int {
	switch {
	case region < c.PreviousRegion:
		return -1
	case region > c.NextRegion:
		return 1
	default:
		return 0
	}
}

// Tap is a recognised page-turn tap.
type Tap struct {
	// Region is the viewport-relative horizontal tap location: 0 at the
	// left edge, 1 at the right.
	Region float64
}

// Disambiguator correlates touch-start and touch-end pairs.
type Disambiguator struct {
	cfg Config
	now func() time.Time
	log *zap.Logger

	started     bool
	startTime   time.Time
	startPageX  float64
	startClient float64
}

// New returns a Disambiguator. A zero cfg.Window means DefaultWindow, a nil
// now means time.Now and a nil log disables logging.
func New(cfg Config, now func() time.Time, log *zap.Logger) *Disambiguator {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Disambiguator{cfg: cfg, now: now, log: log}
}

// Config returns the configuration in use.
func (d *Disambiguator) Config() Config {
	return d.cfg
}

// TouchStart records the start of a gesture.
func (d *Disambiguator) TouchStart(pageX, clientX, clientWidth float64) {
	d.started = true
	d.startTime = d.now()
	d.startPageX = pageX
	d.startClient = clientX
}

// TouchEnd finishes the gesture started by the last TouchStart and reports
// whether it was a tap. Recorded state is reset whatever the outcome.
func (d *Disambiguator) TouchEnd(pageX, clientWidth, clientX float64, selectionCount int) (Tap, bool) {
	defer d.Cancel()

	if !d.started {
		return Tap{}, false
	}
	if selectionCount > 0 {
		d.log.Debug("Touch ignored, text selected", zap.Int("selections", selectionCount))
		return Tap{}, false
	}
	if elapsed := d.now().Sub(d.startTime); elapsed >= d.cfg.Window {
		d.log.Debug("Touch too long for a tap", zap.Duration("elapsed", elapsed))
		return Tap{}, false
	}
	if pageX != d.startPageX {
		d.log.Debug("Touch moved, not a tap", zap.Float64("from", d.startPageX), zap.Float64("to", pageX))
		return Tap{}, false
	}
	if clientWidth <= 0 {
		d.log.Warn("Tap without viewport width ignored", zap.Float64("width", clientWidth))
		return Tap{}, false
	}
	return Tap{Region: d.startClient / clientWidth}, true
}

// Cancel drops the gesture in progress.
func (d *Disambiguator) Cancel() {
	d.started = false
	d.startTime = time.Time{}
	d.startPageX = 0
	d.startClient = 0
}
