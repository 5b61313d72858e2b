package gesture

import (
	"math"
	"time"

	"glidecore/internal/clock"
	"glidecore/internal/layout"
)

// sessionState tracks the primary pointer's lifecycle within one touch
// session (first down with no other pointers active, to last up).
type sessionState int

const (
	stateIdle sessionState = iota
	stateTracking
	stateClassifying
)

// pointerState is the per-pointer bookkeeping between down and up.
// There is at most one per active pointer id; it is created on down and
// destroyed on up or cancel.
type pointerState struct {
	id       int
	downKey  *layout.DynamicKey
	downX    float64
	downY    float64
	downTime time.Time

	// swipeEligible is fixed at down time from the down key's role.
	swipeEligible bool

	longPressTimer clock.Timer
	longPressFired bool

	repeatTimer clock.Timer
	repeatFired bool
}

func (ps *pointerState) cancelTimers() {
	if ps.longPressTimer != nil {
		ps.longPressTimer.Cancel()
		ps.longPressTimer = nil
	}
	if ps.repeatTimer != nil {
		ps.repeatTimer.Cancel()
		ps.repeatTimer = nil
	}
}

// Decoder converts touch event streams into taps, directional gestures
// and glide key sequences. It is not safe for concurrent use; events
// must arrive serially, matching a UI thread's event loop.
type Decoder struct {
	cfg      Config
	geo      Oracle
	listener Listener
	sched    clock.Scheduler

	pointers map[int]*pointerState

	// Session state, owned by the primary pointer.
	primary int // pointer id, or -1
	state   sessionState
	samples []Sample

	trail      []PathPoint
	trailTimer clock.Timer
}

// NewDecoder creates a decoder for one keyboard layout. Call Reset (or
// build a new decoder) when the layout changes.
func NewDecoder(cfg Config, geo Oracle, listener Listener, sched clock.Scheduler) *Decoder {
	return &Decoder{
		cfg:      cfg.normalized(),
		geo:      geo,
		listener: listener,
		sched:    sched,
		pointers: make(map[int]*pointerState),
		primary:  -1,
	}
}

// Trail returns the current normalized path points, for trail display.
// The slice is reused across sessions; callers must not retain it.
func (d *Decoder) Trail() []PathPoint { return d.trail }

// OnDown handles a pointer-down event.
func (d *Decoder) OnDown(pointerID int, x, y float64, t time.Time) {
	// A re-press on the same pointer id in extremely quick succession
	// replaces the old state; only that pointer's timers are canceled.
	if old, ok := d.pointers[pointerID]; ok {
		old.cancelTimers()
		delete(d.pointers, pointerID)
	}

	key := d.geo.KeyAt(x, y)
	ps := &pointerState{
		id:       pointerID,
		downKey:  key,
		downX:    x,
		downY:    y,
		downTime: t,
	}
	if key != nil {
		ps.swipeEligible = d.cfg.SwipeEnabled && key.Role.SwipeEligible()
	}

	secondary := len(d.pointers) > 0
	d.pointers[pointerID] = ps

	if !secondary {
		d.primary = pointerID
		d.state = stateTracking
		d.samples = append(d.samples[:0], Sample{X: x, Y: y, Time: t})
		d.clearTrailNow()
	} else if key != nil {
		// Rollover: a second finger resolves its key immediately so
		// fast typing across adjacent keys is never delayed by the
		// first finger still being down.
		d.listener.OnKeyDown(key)
	}

	d.armLongPress(ps)
	d.armRepeat(ps)
}

// OnMove handles a pointer-move event.
func (d *Decoder) OnMove(pointerID int, x, y float64, t time.Time) {
	ps, ok := d.pointers[pointerID]
	if !ok || pointerID != d.primary {
		// Secondary pointers are taps; their drift is ignored.
		return
	}

	switch d.state {
	case stateTracking:
		d.samples = append(d.samples, Sample{X: x, Y: y, Time: t})
		// Displacement below the start threshold is jitter from a fast
		// tap and must not begin a gesture.
		if dist(ps.downX, ps.downY, x, y) < d.cfg.startThreshold() {
			return
		}
		if !d.mayTrackSwipe(ps) {
			return
		}
		d.state = stateClassifying
		ps.cancelTimers() // movement defeats long press and key repeat
		d.listener.OnSwipeStarted()
		d.appendTrail()

	case stateClassifying:
		d.samples = append(d.samples, Sample{X: x, Y: y, Time: t})
		nx, ny := d.geo.Normalize(x, y)
		d.trail = append(d.trail, PathPoint{X: nx, Y: ny})
	}
}

// OnUp handles a pointer-up event.
func (d *Decoder) OnUp(pointerID int, x, y float64, t time.Time) {
	ps, ok := d.pointers[pointerID]
	if !ok {
		return
	}
	ps.cancelTimers()
	delete(d.pointers, pointerID)

	if pointerID != d.primary {
		// Rollover release: use the key tracked at down time, not a
		// hit test at the lift position, which may have drifted.
		if ps.downKey != nil {
			d.listener.OnKeyUp(ps.downKey)
		}
		d.clearSessionIfEmpty()
		return
	}

	switch d.state {
	case stateClassifying:
		d.samples = append(d.samples, Sample{X: x, Y: y, Time: t})
		d.resolve(ps, t)
	case stateTracking:
		d.tapFallback(ps)
	}

	d.endSession()
	d.clearSessionIfEmpty()
}

// OnCancel handles a platform cancel event. Cancellation is immediate
// and total: every pointer's state and timers are discarded and no
// outcome is emitted, not even the tap fallback.
func (d *Decoder) OnCancel(pointerID int, x, y float64, t time.Time) {
	d.Reset()
}

// Reset discards all in-flight pointer state. Callers must invoke it on
// layout swaps, which invalidate tracked keys mid-gesture.
func (d *Decoder) Reset() {
	for _, ps := range d.pointers {
		ps.cancelTimers()
	}
	clear(d.pointers)
	if d.state == stateClassifying {
		d.listener.OnSwipeEnded()
	}
	d.primary = -1
	d.state = stateIdle
	d.samples = d.samples[:0]
	d.clearTrailNow()
}

// mayTrackSwipe reports whether the primary pointer may leave Tracking.
// Glide-eligible keys and shortcut origins (space, backspace) may;
// other control keys stay taps or repeats no matter the movement.
func (d *Decoder) mayTrackSwipe(ps *pointerState) bool {
	if !d.cfg.SwipeEnabled || ps.longPressFired {
		return false
	}
	if ps.swipeEligible {
		return true
	}
	return ps.downKey != nil && ps.downKey.Role.ShortcutGestureOrigin()
}

// resolve classifies a completed Classifying session into glide,
// directional, or the mandatory tap fallback.
func (d *Decoder) resolve(ps *pointerState, t time.Time) {
	duration := t.Sub(ps.downTime)

	if len(d.samples) >= 2 && duration >= d.cfg.MinSwipeTime {
		pathLen := pathLength(d.samples)
		velocity := 0.0
		if secs := duration.Seconds(); secs > 0 {
			velocity = pathLen / secs
		}

		if d.cfg.GlideTypingEnabled && ps.swipeEligible {
			codes, distinct := d.resolveSequence()
			if distinct >= 2 && (pathLen >= d.cfg.distanceThreshold() || velocity >= d.cfg.VelocityThreshold) {
				path := make([]PathPoint, len(d.samples))
				for i, s := range d.samples {
					nx, ny := d.geo.Normalize(s.X, s.Y)
					path[i] = PathPoint{X: nx, Y: ny}
				}
				d.listener.OnGlideSequence(codes, path)
				return
			}
		}

		if dir, ok := d.dominantDirection(); ok {
			d.listener.OnDirectionalGesture(dir)
			return
		}
	}

	// A failed classification degrades to a tap on the original key;
	// dropping it would lose fast taps.
	d.tapFallback(ps)
}

// tapFallback emits the down key as a plain tap. Nothing is emitted
// when the touch landed in a gap, when the long-press popup took over,
// or when key repeat already fired.
func (d *Decoder) tapFallback(ps *pointerState) {
	if ps.downKey == nil || ps.longPressFired || ps.repeatFired {
		return
	}
	d.listener.OnTap(ps.downKey.Code)
}

// resolveSequence maps the recorded path through the oracle into key
// codes: geometry misses are skipped, non-positive (control) codes are
// excluded, and adjacent duplicates are suppressed.
func (d *Decoder) resolveSequence() (codes []int, distinct int) {
	seen := make(map[int]struct{})
	last := 0
	for _, s := range d.samples {
		key := d.geo.KeyAt(s.X, s.Y)
		if key == nil || key.Code <= 0 {
			continue
		}
		seen[key.Code] = struct{}{}
		if key.Code == last {
			continue
		}
		codes = append(codes, key.Code)
		last = key.Code
	}
	return codes, len(seen)
}

// dominantDirection classifies first-to-last displacement as a cardinal
// direction when it clears the distance threshold on its larger axis.
func (d *Decoder) dominantDirection() (Direction, bool) {
	if len(d.samples) < 2 {
		return 0, false
	}
	first, last := d.samples[0], d.samples[len(d.samples)-1]
	dx := last.X - first.X
	dy := last.Y - first.Y

	if math.Abs(dx) >= math.Abs(dy) {
		if math.Abs(dx) < d.cfg.distanceThreshold() {
			return 0, false
		}
		if dx > 0 {
			return DirectionRight, true
		}
		return DirectionLeft, true
	}
	if math.Abs(dy) < d.cfg.distanceThreshold() {
		return 0, false
	}
	if dy > 0 {
		return DirectionDown, true
	}
	return DirectionUp, true
}

// endSession returns the primary slot to Idle, keeping the trail around
// for its fade delay when trail display is on.
func (d *Decoder) endSession() {
	if d.state == stateClassifying {
		d.listener.OnSwipeEnded()
	}
	d.state = stateIdle
	d.primary = -1
	d.samples = d.samples[:0]

	if len(d.trail) == 0 {
		return
	}
	if !d.cfg.TrailEnabled {
		d.clearTrailNow()
		return
	}
	d.trailTimer = d.sched.AfterFunc(d.cfg.TrailFade, func() {
		d.trail = d.trail[:0]
		d.trailTimer = nil
	})
}

func (d *Decoder) clearSessionIfEmpty() {
	if len(d.pointers) == 0 && d.primary == -1 {
		d.state = stateIdle
	}
}

func (d *Decoder) clearTrailNow() {
	if d.trailTimer != nil {
		d.trailTimer.Cancel()
		d.trailTimer = nil
	}
	d.trail = d.trail[:0]
}

// appendTrail seeds the trail with the whole path recorded so far, so
// the displayed trail starts at the finger-down point rather than at
// the threshold crossing.
func (d *Decoder) appendTrail() {
	for _, s := range d.samples {
		nx, ny := d.geo.Normalize(s.X, s.Y)
		d.trail = append(d.trail, PathPoint{X: nx, Y: ny})
	}
}

// armLongPress starts the long-press timer for keys that offer
// alternatives. The timer is per pointer; it never touches timers
// belonging to other fingers.
func (d *Decoder) armLongPress(ps *pointerState) {
	if ps.downKey == nil || !ps.downKey.HasLongPressOptions() {
		return
	}
	key := ps.downKey
	ps.longPressTimer = d.sched.AfterFunc(d.cfg.LongPressDelay, func() {
		// Firing only happens while the pointer is still down and has
		// not started a swipe; lifting or swiping cancels the timer.
		ps.longPressFired = true
		ps.longPressTimer = nil

		options := make([]string, 0, len(key.LongPressOptions)+1)
		options = append(options, key.LongPressOptions...)
		if key.NumberHint != "" {
			options = append(options, key.NumberHint)
		}
		d.listener.OnLongPress(LongPressRequest{
			Key:           key,
			Options:       options,
			InstantSelect: d.cfg.InstantFirstOptionSelect,
		})
	})
}

// armRepeat starts delete auto-repeat: after an initial delay the
// backspace taps itself on a fixed interval until the pointer lifts.
func (d *Decoder) armRepeat(ps *pointerState) {
	if ps.downKey == nil || ps.downKey.Role != layout.RoleBackspace {
		return
	}
	code := ps.downKey.Code
	var tick func()
	tick = func() {
		ps.repeatFired = true
		d.listener.OnTap(code)
		ps.repeatTimer = d.sched.AfterFunc(d.cfg.RepeatInterval, tick)
	}
	ps.repeatTimer = d.sched.AfterFunc(d.cfg.RepeatDelay, tick)
}

// pathLength sums segment lengths over the recorded samples.
func pathLength(samples []Sample) float64 {
	total := 0.0
	for i := 1; i < len(samples); i++ {
		total += dist(samples[i-1].X, samples[i-1].Y, samples[i].X, samples[i].Y)
	}
	return total
}

func dist(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}
