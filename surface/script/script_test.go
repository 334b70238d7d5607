package script

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/simp-lee/epubnav/gesture"
	"github.com/simp-lee/epubnav/paginate"
)

type recordingHost struct {
	scripts  []string
	hrefs    []string
	replies  map[string]string
	evalErr  error
	navigate error
}

func (h *recordingHost) Navigate(_ context.Context, href string) error {
	h.hrefs = append(h.hrefs, href)
	return h.navigate
}

func (h *recordingHost) Evaluate(_ context.Context, src string) (string, error) {
	h.scripts = append(h.scripts, src)
	if h.evalErr != nil {
		return "", h.evalErr
	}
	return h.replies[src], nil
}

const sampleReply = `{"pos":0.5,"x":1200,"y":0,"width":3000,"height":800}`

func TestScripts(t *testing.T) {
	half := 0.5
	one := 1.0
	tests := []struct {
		got, want string
	}{
		{MovePage(1, true), "movePage(1,true)"},
		{MovePage(-1, false), "movePage(-1,false)"},
		{MovePage(0, false), "movePage(0,false)"},
		{Position(nil), "position()"},
		{Position(&half), "position(0.5)"},
		{Position(&one), "position(1)"},
		{ScaleText(1.5), "scaleText(1.5)"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("script = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestSurface_Commands(t *testing.T) {
	host := &recordingHost{replies: map[string]string{
		"movePage(1,true)": sampleReply,
		"position()":       sampleReply,
		"position(0.25)":   sampleReply,
		"scaleText(1.5)":   `"150%"`,
	}}
	s := New(host, zap.NewNop())
	ctx := context.Background()

	reply, err := s.MovePage(ctx, 1, true)
	if err != nil {
		t.Fatalf("MovePage() error = %v", err)
	}
	want := paginate.Reply{Pos: 0.5, X: 1200, Width: 3000, Height: 800}
	if reply != want {
		t.Errorf("MovePage() = %+v, want %+v", reply, want)
	}

	if _, err := s.Position(ctx, nil); err != nil {
		t.Errorf("Position(nil) error = %v", err)
	}
	quarter := 0.25
	if _, err := s.Position(ctx, &quarter); err != nil {
		t.Errorf("Position(0.25) error = %v", err)
	}

	applied, err := s.ScaleText(ctx, 1.5)
	if err != nil {
		t.Fatalf("ScaleText() error = %v", err)
	}
	if applied != "150%" {
		t.Errorf("ScaleText() = %q, want 150%%", applied)
	}
	if ratio, err := paginate.ParsePercent(applied); err != nil || ratio != 1.5 {
		t.Errorf("ParsePercent(%q) = %v, %v", applied, ratio, err)
	}

	if err := s.Load(ctx, "OEBPS/ch1.xhtml"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(host.hrefs) != 1 || host.hrefs[0] != "OEBPS/ch1.xhtml" {
		t.Errorf("navigated = %v", host.hrefs)
	}
	if len(host.scripts) != 4 {
		t.Errorf("scripts = %v, want 4", host.scripts)
	}
}

func TestSurface_InvalidArguments(t *testing.T) {
	host := &recordingHost{}
	s := New(host, nil)
	ctx := context.Background()

	if _, err := s.MovePage(ctx, 3, false); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("MovePage(3) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := s.ScaleText(ctx, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ScaleText(0) error = %v, want ErrInvalidArgument", err)
	}
	if err := s.Load(ctx, ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Load(\"\") error = %v, want ErrInvalidArgument", err)
	}
	if len(host.scripts) != 0 {
		t.Errorf("scripts evaluated for invalid arguments: %v", host.scripts)
	}
}

func TestSurface_HostFailure(t *testing.T) {
	boom := errors.New("web view gone")
	s := New(&recordingHost{evalErr: boom}, nil)
	if _, err := s.MovePage(context.Background(), 1, false); !errors.Is(err, boom) {
		t.Errorf("MovePage() error = %v, want host error", err)
	}
}

func TestDecodeReply(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"complete", sampleReply, false},
		{"past end", `{"pos":1.1,"x":0,"y":0,"width":10,"height":10}`, false},
		{"missing field", `{"pos":0.5,"x":0,"y":0,"width":10}`, true},
		{"not json", `undefined`, true},
		{"string pos", `{"pos":"half","x":0,"y":0,"width":10,"height":10}`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeReply(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeReply() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, paginate.ErrUnparseableReply) {
				t.Errorf("error = %v, want ErrUnparseableReply", err)
			}
		})
	}
}

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"kind":"touchend","pageX":10,"clientX":40,"clientWidth":400,"selectionCount":0}`))
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	if ev.Kind != gesture.KindTouchEnd || ev.PageX != 10 || ev.ClientWidth != 400 {
		t.Errorf("DecodeEvent() = %+v", ev)
	}

	if _, err := DecodeEvent([]byte(`{"pageX":1}`)); err == nil {
		t.Error("DecodeEvent() without kind returned nil error")
	}
	if _, err := DecodeEvent([]byte(`{`)); err == nil {
		t.Error("DecodeEvent() with broken JSON returned nil error")
	}
}
