// Package script adapts a scriptable rendering host, such as an embedded
// web view, to paginate.Surface.
//
// Every surface command becomes one script evaluated by the host:
//
//	movePage(1,true)
//	position()
//	position(0.5)
//	scaleText(1.5)
//
// movePage and position answer with a JSON object
// {"pos":..,"x":..,"y":..,"width":..,"height":..}; scaleText answers with
// the applied size as a percentage string.
package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/simp-lee/epubnav/gesture"
	"github.com/simp-lee/epubnav/paginate"
)

// ErrInvalidArgument indicates a command argument the host cannot receive.
var ErrInvalidArgument = errors.New("script: invalid argument")

// Host evaluates scripts in the page displayed by a rendering host.
type Host interface {
	// Navigate starts loading href. The host reports completion separately,
	// usually by calling paginate.Engine.LoadFinished.
	Navigate(ctx context.Context, href string) error
	// Evaluate runs src in the displayed page and returns its result as a
	// string.
	Evaluate(ctx context.Context, src string) (string, error)
}

// Surface implements paginate.Surface on top of a Host.
type Surface struct {
	host Host
	log  *zap.Logger
}

var _ paginate.Surface = (*Surface)(nil)

// New returns a Surface evaluating commands on host.
func New(host Host, log *zap.Logger) *Surface {
	if log == nil {
		log = zap.NewNop()
	}
	return &Surface{host: host, log: log}
}

// Load asks the host to display href.
func (s *Surface) Load(ctx context.Context, href string) error {
	if href == "" {
		return fmt.Errorf("%w: empty href", ErrInvalidArgument)
	}
	return s.host.Navigate(ctx, href)
}

// MovePage evaluates movePage(direction,smooth).
func (s *Surface) MovePage(ctx context.Context, direction int, smooth bool) (paginate.Reply, error) {
	if direction < -1 || direction > 1 {
		return paginate.Reply{}, fmt.Errorf("%w: direction %d", ErrInvalidArgument, direction)
	}
	return s.call(ctx, MovePage(direction, smooth))
}

// Position evaluates position() when amount is nil, position(amount)
// otherwise.
func (s *Surface) Position(ctx context.Context, amount *float64) (paginate.Reply, error) {
	if amount == nil {
		return s.call(ctx, Position(nil))
	}
	if !finite(*amount) {
		return paginate.Reply{}, fmt.Errorf("%w: position %v", ErrInvalidArgument, *amount)
	}
	return s.call(ctx, Position(amount))
}

// ScaleText evaluates scaleText(amount) and returns the raw percentage
// reply, surrounding JSON string quotes removed.
func (s *Surface) ScaleText(ctx context.Context, amount float64) (string, error) {
	if !finite(amount) || amount <= 0 {
		return "", fmt.Errorf("%w: scale %v", ErrInvalidArgument, amount)
	}
	src := ScaleText(amount)
	out, err := s.host.Evaluate(ctx, src)
	if err != nil {
		return "", err
	}
	s.log.Debug("Script evaluated", zap.String("script", src), zap.String("reply", out))
	out = strings.TrimSpace(out)
	if unquoted, err := strconv.Unquote(out); err == nil {
		out = unquoted
	}
	return out, nil
}

func (s *Surface) call(ctx context.Context, src string) (paginate.Reply, error) {
	out, err := s.host.Evaluate(ctx, src)
	if err != nil {
		return paginate.Reply{}, err
	}
	s.log.Debug("Script evaluated", zap.String("script", src), zap.String("reply", out))
	return DecodeReply(out)
}

// MovePage renders the page-turn command.
func MovePage(direction int, smooth bool) string {
	return "movePage(" + strconv.Itoa(direction) + "," + strconv.FormatBool(smooth) + ")"
}

// Position renders the position query (amount nil) or jump command.
func Position(amount *float64) string {
	if amount == nil {
		return "position()"
	}
	return "position(" + formatNumber(*amount) + ")"
}

// ScaleText renders the rescale command.
func ScaleText(amount float64) string {
	return "scaleText(" + formatNumber(amount) + ")"
}

// DecodeReply parses the JSON reply of movePage and position.
// All five fields are required.
func DecodeReply(s string) (paginate.Reply, error) {
	var raw struct {
		Pos    *float64 `json:"pos"`
		X      *float64 `json:"x"`
		Y      *float64 `json:"y"`
		Width  *float64 `json:"width"`
		Height *float64 `json:"height"`
	}
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return paginate.Reply{}, fmt.Errorf("%w: %w", paginate.ErrUnparseableReply, err)
	}
	if raw.Pos == nil || raw.X == nil || raw.Y == nil || raw.Width == nil || raw.Height == nil {
		return paginate.Reply{}, fmt.Errorf("%w: incomplete reply %q", paginate.ErrUnparseableReply, s)
	}
	return paginate.Reply{Pos: *raw.Pos, X: *raw.X, Y: *raw.Y, Width: *raw.Width, Height: *raw.Height}, nil
}

// DecodeEvent parses a touch event posted by the host page.
func DecodeEvent(data []byte) (gesture.Event, error) {
	var ev gesture.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return gesture.Event{}, fmt.Errorf("script: decoding touch event: %w", err)
	}
	if ev.Kind == "" {
		return gesture.Event{}, fmt.Errorf("script: touch event without kind: %s", data)
	}
	return ev, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
