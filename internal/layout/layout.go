// Package layout models keyboard key geometry.
//
// A layout is an externally supplied set of key rectangles with labels,
// codes and roles. The gesture decoder only ever queries it through a
// Geometry built for the currently active layout; swapping layouts means
// building a new Geometry, there is no process-wide cache.
package layout

import (
	"fmt"
)

// KeyRole is the closed set of semantic key types. The zero value is a
// regular character key.
type KeyRole int

const (
	RoleRegular KeyRole = iota
	RoleSpace
	RoleEnter
	RoleShift
	RoleBackspace
	RoleSymbols
	RoleEmoji
	RoleMic
	RoleGlobe
	RoleVoice
)

var roleNames = map[KeyRole]string{
	RoleRegular:   "regular",
	RoleSpace:     "space",
	RoleEnter:     "enter",
	RoleShift:     "shift",
	RoleBackspace: "backspace",
	RoleSymbols:   "symbols",
	RoleEmoji:     "emoji",
	RoleMic:       "mic",
	RoleGlobe:     "globe",
	RoleVoice:     "voice",
}

func (r KeyRole) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("keyrole(%d)", int(r))
}

// ParseKeyRole converts a layout file role tag to a KeyRole. An empty
// tag means a regular key.
func ParseKeyRole(tag string) (KeyRole, error) {
	if tag == "" {
		return RoleRegular, nil
	}
	for role, name := range roleNames {
		if name == tag {
			return role, nil
		}
	}
	return RoleRegular, fmt.Errorf("layout: unknown key role %q", tag)
}

// SwipeEligible reports whether a touch starting on a key of this role
// may begin glide tracking. Control keys always behave as taps or
// repeats, never as glide origin points.
func (r KeyRole) SwipeEligible() bool {
	return r == RoleRegular
}

// ShortcutGestureOrigin reports whether directional swipe shortcuts
// (spacebar cursor moves, delete swipes) may start on this role.
func (r KeyRole) ShortcutGestureOrigin() bool {
	return r == RoleSpace || r == RoleBackspace
}

// DynamicKey is one key rectangle of the active layout. The decoder
// treats it as read-only geometry owned by the caller.
type DynamicKey struct {
	X      float64
	Y      float64
	Width  float64
	Height float64

	Label string
	// Code is the emitted key code. Codes <= 0 mark control/meta keys
	// and are excluded from glide sequences.
	Code int
	Role KeyRole

	// LongPressOptions are alternative characters (accents, symbols)
	// offered on long press.
	LongPressOptions []string
	// NumberHint is the digit or symbol hinted in the key corner,
	// selectable by long press.
	NumberHint string
}

// Contains reports whether the point lies inside the key rectangle.
// The left/top edges are inclusive, right/bottom exclusive, so adjacent
// keys never both claim a boundary point.
func (k *DynamicKey) Contains(x, y float64) bool {
	return x >= k.X && x < k.X+k.Width && y >= k.Y && y < k.Y+k.Height
}

// HasLongPressOptions reports whether a long press on this key should
// open the alternative selection popup.
func (k *DynamicKey) HasLongPressOptions() bool {
	return len(k.LongPressOptions) > 0 || k.NumberHint != ""
}

// CenterX returns the horizontal center of the key.
func (k *DynamicKey) CenterX() float64 { return k.X + k.Width/2 }

// CenterY returns the vertical center of the key.
func (k *DynamicKey) CenterY() float64 { return k.Y + k.Height/2 }

// Geometry answers point-to-key queries for one keyboard layout. Its
// lifetime is tied to the active layout: a layout swap builds a new
// Geometry and resets the decoder.
type Geometry struct {
	name   string
	width  float64
	height float64
	keys   []DynamicKey
}

// NewGeometry builds a geometry over the given keys. Width and height
// are the keyboard's bounding box in the same units as the key rects.
func NewGeometry(name string, width, height float64, keys []DynamicKey) (*Geometry, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("layout %q: non-positive bounds %gx%g", name, width, height)
	}
	g := &Geometry{
		name:   name,
		width:  width,
		height: height,
		keys:   make([]DynamicKey, len(keys)),
	}
	copy(g.keys, keys)
	return g, nil
}

// Name returns the layout name.
func (g *Geometry) Name() string { return g.name }

// Bounds returns the keyboard bounding box.
func (g *Geometry) Bounds() (width, height float64) { return g.width, g.height }

// KeyAt returns the key under the point, or nil when the point falls in
// a gap or outside the keyboard. Callers must treat the result as
// read-only; it stays valid for the lifetime of the Geometry.
func (g *Geometry) KeyAt(x, y float64) *DynamicKey {
	for i := range g.keys {
		if g.keys[i].Contains(x, y) {
			return &g.keys[i]
		}
	}
	return nil
}

// Normalize maps a point into [0,1]x[0,1] keyboard space, clamping
// points that drift outside the bounds mid-gesture.
func (g *Geometry) Normalize(x, y float64) (nx, ny float64) {
	nx = clamp01(x / g.width)
	ny = clamp01(y / g.height)
	return nx, ny
}

// Keys returns the layout's keys.
func (g *Geometry) Keys() []DynamicKey { return g.keys }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
