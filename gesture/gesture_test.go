package gesture

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDisambiguator() (*Disambiguator, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(DefaultConfig(), clock.now, zap.NewNop()), clock
}

func TestTouchEnd(t *testing.T) {
	tests := []struct {
		name       string
		endX       float64
		selections int
		elapsed    time.Duration
		wantTap    bool
	}{
		{"quick tap", 10, 0, 150 * time.Millisecond, true},
		{"instant tap", 10, 0, 0, true},
		{"drag", 50, 0, 150 * time.Millisecond, false},
		{"selection", 10, 1, 150 * time.Millisecond, false},
		{"selection instant", 10, 1, 0, false},
		{"window elapsed", 10, 0, 200 * time.Millisecond, false},
		{"long press", 10, 0, time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, clock := newTestDisambiguator()
			d.TouchStart(10, 300, 400)
			clock.advance(tt.elapsed)
			tap, ok := d.TouchEnd(tt.endX, 400, 300, tt.selections)
			if ok != tt.wantTap {
				t.Fatalf("TouchEnd() tap = %v, want %v", ok, tt.wantTap)
			}
			if ok && tap.Region != 0.75 {
				t.Errorf("Region = %v, want 0.75", tap.Region)
			}
		})
	}
}

func TestTouchEnd_ResetsState(t *testing.T) {
	d, clock := newTestDisambiguator()

	d.TouchStart(10, 40, 400)
	clock.advance(50 * time.Millisecond)
	if _, ok := d.TouchEnd(50, 400, 200, 0); ok {
		t.Fatal("drag reported as tap")
	}

	// A second end without a new start must not reuse the old gesture.
	if _, ok := d.TouchEnd(10, 400, 40, 0); ok {
		t.Error("touch-end without touch-start reported as tap")
	}
}

func TestTouchEnd_ZeroWidth(t *testing.T) {
	d, _ := newTestDisambiguator()
	d.TouchStart(10, 40, 0)
	if _, ok := d.TouchEnd(10, 0, 40, 0); ok {
		t.Error("tap reported for zero viewport width")
	}
}

func TestCancel(t *testing.T) {
	for _, kind := range []string{KindTouchCancel, KindTouchLeave} {
		t.Run(kind, func(t *testing.T) {
			d, clock := newTestDisambiguator()
			d.Handle(Event{Kind: KindTouchStart, PageX: 10, ClientX: 10, ClientWidth: 400})
			clock.advance(10 * time.Millisecond)
			if _, ok := d.Handle(Event{Kind: kind}); ok {
				t.Fatalf("%s reported a tap", kind)
			}
			if _, ok := d.Handle(Event{Kind: KindTouchEnd, PageX: 10, ClientX: 10, ClientWidth: 400}); ok {
				t.Errorf("tap reported after %s", kind)
			}
		})
	}
}

func TestHandle(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	clock := &fakeClock{t: time.Unix(0, 0)}
	d := New(Config{PreviousRegion: 0.3, NextRegion: 0.7}, clock.now, zap.New(core))

	if d.Config().Window != DefaultWindow {
		t.Errorf("Window = %v, want default %v", d.Config().Window, DefaultWindow)
	}

	d.Handle(Event{Kind: KindTouchStart, PageX: 10, ClientX: 20, ClientWidth: 400})
	clock.advance(100 * time.Millisecond)
	if _, ok := d.Handle(Event{Kind: KindClick, PageX: 10}); ok {
		t.Error("click reported a tap")
	}
	if _, ok := d.Handle(Event{Kind: "pointerdown"}); ok {
		t.Error("unknown kind reported a tap")
	}
	tap, ok := d.Handle(Event{Kind: KindTouchEnd, PageX: 10, ClientX: 20, ClientWidth: 400})
	if !ok {
		t.Fatal("tap not reported")
	}
	if tap.Region != 0.05 {
		t.Errorf("Region = %v, want 0.05", tap.Region)
	}
	if dir := d.Config().Direction(tap.Region); dir != -1 {
		t.Errorf("Direction(%v) = %d, want -1", tap.Region, dir)
	}

	if got := logs.FilterMessage("Unknown touch event ignored").Len(); got != 1 {
		t.Errorf("unknown kind warnings = %d, want 1", got)
	}
	if got := logs.Len(); got != 1 {
		t.Errorf("warnings = %d, want 1", got)
	}
}

func TestDirection(t *testing.T) {
	c := DefaultConfig()
	tests := []struct {
		region float64
		want   int
	}{
		{0, -1},
		{0.29, -1},
		{0.3, 0},
		{0.5, 0},
		{0.7, 0},
		{0.71, 1},
		{1, 1},
	}
	for _, tt := range tests {
		if got := c.Direction(tt.region); got != tt.want {
			t.Errorf("Direction(%v) = %d, want %d", tt.region, got, tt.want)
		}
	}
}
