package paginate

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Reply is the structured answer of the position-changing surface commands.
type Reply struct {
	// Pos is the section-relative position: below 0 before the section
	// start, within [0, 1] inside the section, above 1 past its end.
	Pos    float64 `json:"pos"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Surface is the column-based rendering surface the engine drives. Every
// method is one request/response round trip and must honor ctx.
//
// Load completion is not part of the interface: the host reports it by
// calling Engine.LoadFinished exactly once per Load, either later or from
// inside Load itself.
type Surface interface {
	// Load starts loading the section at href.
	Load(ctx context.Context, href string) error
	// MovePage turns one page (direction -1 or 1) or snaps to the nearest
	// page boundary (direction 0).
	MovePage(ctx context.Context, direction int, smooth bool) (Reply, error)
	// Position queries the current position when amount is nil, otherwise
	// jumps to amount and snaps to the nearest page boundary.
	Position(ctx context.Context, amount *float64) (Reply, error)
	// ScaleText applies the font scale ratio and returns the applied size
	// as a percentage string such as "150%".
	ScaleText(ctx context.Context, amount float64) (string, error)
}

// ParsePercent converts a percentage reply such as "150%" to a ratio (1.5),
// rounded to whole percents.
func ParsePercent(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasSuffix(trimmed, "%") {
		return 0, fmt.Errorf("%w: %q is not a percentage", ErrUnparseableReply, s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(trimmed, "%")), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("%w: %q is not a percentage", ErrUnparseableReply, s)
	}
	return math.Round(v) / 100, nil
}
