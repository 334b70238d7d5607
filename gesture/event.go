package gesture

import "go.uber.org/zap"

// Event kinds emitted by the rendering surface.
const (
	KindClick       = "click"
	KindTouchStart  = "touchstart"
	KindTouchCancel = "touchcancel"
	KindTouchLeave  = "touchleave"
	KindTouchEnd    = "touchend"
)

// Event is one touch event as reported by the surface.
type Event struct {
	Kind           string  `json:"kind"`
	PageX          float64 `json:"pageX"`
	PageY          float64 `json:"pageY"`
	ClientX        float64 `json:"clientX"`
	ClientY        float64 `json:"clientY"`
	ScreenX        float64 `json:"screenX"`
	ScreenY        float64 `json:"screenY"`
	ClientWidth    float64 `json:"clientWidth"`
	ClientHeight   float64 `json:"clientHeight"`
	SelectionCount int     `json:"selectionCount"`
}

// Handle dispatches ev by kind and reports a tap when ev completes one.
// Clicks are ignored: browsers synthesise them after touchend and acting
// on both would turn two pages. Unknown kinds are logged and ignored.
func (d *Disambiguator) Handle(ev Event) (Tap, bool) {
	switch ev.Kind {
	case KindTouchStart:
		d.TouchStart(ev.PageX, ev.ClientX, ev.ClientWidth)
	case KindTouchEnd:
		return d.TouchEnd(ev.PageX, ev.ClientWidth, ev.ClientX, ev.SelectionCount)
	case KindTouchCancel, KindTouchLeave:
		d.Cancel()
	case KindClick:
	default:
		d.log.Warn("Unknown touch event ignored", zap.String("kind", ev.Kind))
	}
	return Tap{}, false
}
