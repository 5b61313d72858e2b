// Package gesture decodes raw touch streams into key taps, directional
// swipe shortcuts, and glide-typing key sequences.
//
// The decoder owns no UI and no key layout. It consumes a key-geometry
// oracle supplied by the caller for the active layout, plus a serial
// stream of pointer down/move/up/cancel events, and emits decoded
// outcomes through a Listener. All processing is synchronous on the
// caller's thread; long-press and key-repeat timers run through an
// injected scheduler so tests drive them deterministically.
package gesture

import (
	"time"

	"glidecore/internal/layout"
)

// Direction is a coarse cardinal swipe token, used for spacebar cursor
// moves and delete-swipe shortcuts.
type Direction int

const (
	DirectionUp Direction = iota
	DirectionDown
	DirectionLeft
	DirectionRight
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	default:
		return "direction(?)"
	}
}

// Sample is one raw touch sample in layout coordinates.
type Sample struct {
	X    float64
	Y    float64
	Time time.Time
}

// PathPoint is one point of a gesture path normalized into
// [0,1]x[0,1] keyboard space.
type PathPoint struct {
	X float64
	Y float64
}

// Oracle resolves layout geometry for the decoder. *layout.Geometry
// satisfies it; the caller supplies a fresh oracle per layout and calls
// Reset on the decoder when the layout changes.
type Oracle interface {
	// KeyAt returns the key under the point, or nil for gaps.
	KeyAt(x, y float64) *layout.DynamicKey
	// Normalize maps layout coordinates into [0,1]x[0,1].
	Normalize(x, y float64) (nx, ny float64)
}

// LongPressRequest asks the caller to open the alternative-character
// selection UI for a key.
type LongPressRequest struct {
	Key *layout.DynamicKey
	// Options holds the key's long-press alternatives, with the number
	// hint appended last when present.
	Options []string
	// InstantSelect mirrors the instant-first-option-select setting so
	// the UI can commit the first option without waiting for a drag.
	InstantSelect bool
}

// Listener receives decoded outcomes. Callbacks arrive on the thread
// that feeds the decoder (or, for long-press and key-repeat, on the
// scheduler's callback context).
type Listener interface {
	// OnTap reports a single resolved key press.
	OnTap(keyCode int)
	// OnKeyDown reports an immediate press dispatch for a rollover
	// (secondary) pointer.
	OnKeyDown(key *layout.DynamicKey)
	// OnKeyUp reports the matching release, using the key tracked at
	// down time rather than a fresh hit test.
	OnKeyUp(key *layout.DynamicKey)
	// OnDirectionalGesture reports a coarse cardinal swipe.
	OnDirectionalGesture(dir Direction)
	// OnGlideSequence reports a swiped word as deduplicated key codes
	// and the normalized touch path.
	OnGlideSequence(keyCodes []int, path []PathPoint)
	// OnSwipeStarted fires once when a session crosses the swipe start
	// threshold; OnSwipeEnded pairs with it when the session resolves
	// or is canceled.
	OnSwipeStarted()
	OnSwipeEnded()
	// OnLongPress asks for the long-press selection UI.
	OnLongPress(req LongPressRequest)
}
