package paginate

import "github.com/google/uuid"

// Phase is the load phase of an open document.
type Phase int

const (
	// Idle means no document is open.
	Idle Phase = iota
	// Loading means a section load was issued and has not finished.
	Loading
	// Ready means the displayed section accepts pagination commands.
	Ready
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Progress is the reading position inside the current section: 0 at the
// first page, 1 at the last. Negative values mean the reader moved before
// the section start; values above 1 mean past its end.
type Progress float64

// BeforeStart reports whether p is the before-start sentinel.
func (p Progress) BeforeStart() bool { return p < 0 }

// PastEnd reports whether p is the past-end sentinel.
func (p Progress) PastEnd() bool { return p > 1 }

// NavigationState is the mutable reading state of one open document.
// The Engine is its only writer; observers receive copies via Snapshot.
type NavigationState struct {
	// Session identifies the open document. Replies obtained under a
	// different session are discarded.
	Session uuid.UUID

	Phase Phase

	// CurrentHref is the anchor-free href of the displayed section.
	CurrentHref string

	// CurrentTOCID is the owning TOC entry of the displayed section, if known.
	CurrentTOCID string

	SectionProgress Progress

	// SectionWidth is the total scroll width of the section in pixels.
	SectionWidth float64

	// PendingTargetPosition is replayed by LoadFinished once the section
	// being loaded is ready. At most one value is held; the last write wins.
	PendingTargetPosition *float64

	// Scale is the text scale ratio (1 = 100%).
	Scale float64
}

// clone returns a deep copy safe to hand to observers.
func (s *NavigationState) clone() NavigationState {
	out := *s
	if s.PendingTargetPosition != nil {
		v := *s.PendingTargetPosition
		out.PendingTargetPosition = &v
	}
	return out
}
