package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glidecore/internal/clock"
	"glidecore/internal/layout"
)

var epoch = time.Unix(1700000000, 0)

// recorder captures every listener callback in order.
type recorder struct {
	taps       []int
	keyDowns   []string
	keyUps     []string
	directions []Direction
	glides     [][]int
	glidePaths [][]PathPoint
	longPress  []LongPressRequest
	started    int
	ended      int
}

func (r *recorder) OnTap(code int)            { r.taps = append(r.taps, code) }
func (r *recorder) OnKeyDown(k *layout.DynamicKey) { r.keyDowns = append(r.keyDowns, k.Label) }
func (r *recorder) OnKeyUp(k *layout.DynamicKey)   { r.keyUps = append(r.keyUps, k.Label) }
func (r *recorder) OnDirectionalGesture(d Direction) {
	r.directions = append(r.directions, d)
}
func (r *recorder) OnGlideSequence(codes []int, path []PathPoint) {
	r.glides = append(r.glides, codes)
	r.glidePaths = append(r.glidePaths, path)
}
func (r *recorder) OnSwipeStarted()               { r.started++ }
func (r *recorder) OnSwipeEnded()                 { r.ended++ }
func (r *recorder) OnLongPress(q LongPressRequest) { r.longPress = append(r.longPress, q) }

func (r *recorder) silent() bool {
	return len(r.taps) == 0 && len(r.directions) == 0 && len(r.glides) == 0
}

// testLayout is a 4x1 letter row over a control row:
//
//	a(97) b(98) c(99) d(100)   each 100x100
//	shift(-1) space(-32) backspace(-5)
//
// Control keys carry non-positive codes, keeping them out of glide
// sequences.
func testLayout(t *testing.T) *layout.Geometry {
	t.Helper()
	g, err := layout.NewGeometry("test", 400, 200, []layout.DynamicKey{
		{X: 0, Y: 0, Width: 100, Height: 100, Label: "a", Code: 97, LongPressOptions: []string{"à", "á"}, NumberHint: "1"},
		{X: 100, Y: 0, Width: 100, Height: 100, Label: "b", Code: 98},
		{X: 200, Y: 0, Width: 100, Height: 100, Label: "c", Code: 99},
		{X: 300, Y: 0, Width: 100, Height: 100, Label: "d", Code: 100},
		{X: 0, Y: 100, Width: 100, Height: 100, Label: "shift", Code: -1, Role: layout.RoleShift},
		{X: 100, Y: 100, Width: 200, Height: 100, Label: "space", Code: -32, Role: layout.RoleSpace},
		{X: 300, Y: 100, Width: 100, Height: 100, Label: "backspace", Code: -5, Role: layout.RoleBackspace},
	})
	require.NoError(t, err)
	return g
}

type fixture struct {
	d   *Decoder
	r   *recorder
	m   *clock.Manual
	now time.Time
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{r: &recorder{}, m: clock.NewManual(epoch), now: epoch}
	f.d = NewDecoder(cfg, testLayout(t), f.r, f.m)
	return f
}

// step advances both the fixture clock and the scheduler.
func (f *fixture) step(d time.Duration) {
	f.now = f.now.Add(d)
	f.m.Advance(d)
}

func (f *fixture) down(id int, x, y float64) { f.d.OnDown(id, x, y, f.now) }
func (f *fixture) move(id int, x, y float64) { f.d.OnMove(id, x, y, f.now) }
func (f *fixture) up(id int, x, y float64)   { f.d.OnUp(id, x, y, f.now) }

// glide drags pointer 0 through the given points with even time steps.
func (f *fixture) glide(total time.Duration, points ...[2]float64) {
	f.down(0, points[0][0], points[0][1])
	step := total / time.Duration(len(points)-1)
	for _, p := range points[1:] {
		f.step(step)
		f.move(0, p[0], p[1])
	}
	f.up(0, points[len(points)-1][0], points[len(points)-1][1])
}

func TestDecoder_SingleSampleTap(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	// Down and up at the same point, well under 100ms: always a tap.
	f.down(0, 150, 50)
	f.step(20 * time.Millisecond)
	f.up(0, 150, 50)

	assert.Equal(t, []int{98}, f.r.taps)
	assert.Empty(t, f.r.glides)
	assert.Empty(t, f.r.directions)
}

func TestDecoder_JitterUnderStartThresholdStaysTap(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	f.down(0, 150, 50)
	f.step(10 * time.Millisecond)
	f.move(0, 160, 55) // 11px of travel, below the 45px start threshold
	f.step(10 * time.Millisecond)
	f.move(0, 145, 48)
	f.step(10 * time.Millisecond)
	f.up(0, 145, 48)

	assert.Equal(t, []int{98}, f.r.taps)
	assert.Zero(t, f.r.started, "jitter must not begin a gesture")
}

func TestDecoder_TapInGapEmitsNothing(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.down(0, 450, 50) // outside the keyboard
	f.step(20 * time.Millisecond)
	f.up(0, 450, 50)
	assert.True(t, f.r.silent())
}

func TestDecoder_GlideSequence(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	// a -> b -> c across 300px in 300ms.
	f.glide(300*time.Millisecond,
		[2]float64{50, 50}, [2]float64{150, 50}, [2]float64{250, 50})

	require.Len(t, f.r.glides, 1)
	assert.Equal(t, []int{97, 98, 99}, f.r.glides[0])
	assert.Empty(t, f.r.taps, "glide must not also tap")
	assert.Equal(t, 1, f.r.started)
	assert.Equal(t, 1, f.r.ended)

	// Path is normalized into the unit square.
	path := f.r.glidePaths[0]
	require.NotEmpty(t, path)
	for _, p := range path {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.LessOrEqual(t, p.X, 1.0)
		assert.GreaterOrEqual(t, p.Y, 0.0)
		assert.LessOrEqual(t, p.Y, 1.0)
	}
	assert.InDelta(t, 0.125, path[0].X, 1e-9)
	assert.InDelta(t, 0.625, path[len(path)-1].X, 1e-9)
}

func TestDecoder_GlideDedupsAdjacentKeys(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	// Finger lingers inside 'b' across several samples mid-glide.
	f.glide(400*time.Millisecond,
		[2]float64{50, 50},
		[2]float64{150, 50}, [2]float64{160, 55}, [2]float64{170, 45}, [2]float64{180, 50},
		[2]float64{250, 50})

	require.Len(t, f.r.glides, 1)
	assert.Equal(t, []int{97, 98, 99}, f.r.glides[0])
}

func TestDecoder_GlideSkipsGapsAndControlKeys(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	// Drag from 'a' down through shift (code -1) and across the space
	// row back up to 'd'. Misses and non-positive codes contribute
	// nothing but do not abort the session.
	f.glide(500*time.Millisecond,
		[2]float64{50, 50}, [2]float64{50, 150}, [2]float64{250, 150},
		[2]float64{350, 50})

	require.Len(t, f.r.glides, 1)
	assert.Equal(t, []int{97, 100}, f.r.glides[0])
}

func TestDecoder_GlideRequiresTwoDistinctKeys(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	// 80px of wiggle inside 'b' only: never a glide. Falls back to a
	// directional-or-tap outcome; displacement is 60px rightward, so
	// this resolves as a directional gesture from a letter key.
	f.glide(200*time.Millisecond,
		[2]float64{110, 50}, [2]float64{190, 50}, [2]float64{170, 50})

	assert.Empty(t, f.r.glides)
}

func TestDecoder_FastShortSessionFallsBackToTap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSwipeTime = 100 * time.Millisecond
	f := newFixture(t, cfg)

	// Crosses the start threshold but finishes in 40ms: too fast to be
	// a deliberate swipe, degrades to a tap on the down key.
	f.down(0, 50, 50)
	f.step(40 * time.Millisecond)
	f.move(0, 150, 50)
	f.up(0, 150, 50)

	assert.Equal(t, []int{97}, f.r.taps)
	assert.Empty(t, f.r.glides)
	assert.Empty(t, f.r.directions)
	assert.Equal(t, 1, f.r.started)
	assert.Equal(t, 1, f.r.ended, "swipe end still pairs with start")
}

func TestDecoder_SwipeDisabledNeverClassifies(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SwipeEnabled = false
	f := newFixture(t, cfg)

	f.glide(300*time.Millisecond,
		[2]float64{50, 50}, [2]float64{150, 50}, [2]float64{250, 50})

	assert.Equal(t, []int{97}, f.r.taps)
	assert.Zero(t, f.r.started)
}

func TestDecoder_GlideDisabledStillAllowsDirectional(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GlideTypingEnabled = false
	f := newFixture(t, cfg)

	f.glide(300*time.Millisecond,
		[2]float64{50, 50}, [2]float64{150, 50}, [2]float64{250, 50})

	assert.Empty(t, f.r.glides)
	assert.Equal(t, []Direction{DirectionRight}, f.r.directions)
}

func TestDecoder_SpacebarDirectionalGesture(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	// Horizontal swipe along the spacebar: cursor-move shortcut, never
	// a glide (space is not swipe-eligible).
	f.glide(200*time.Millisecond,
		[2]float64{150, 150}, [2]float64{200, 150}, [2]float64{280, 150})

	assert.Equal(t, []Direction{DirectionRight}, f.r.directions)
	assert.Empty(t, f.r.glides)
	assert.Empty(t, f.r.taps)
}

func TestDecoder_DirectionalDominantAxis(t *testing.T) {
	tests := []struct {
		name string
		from [2]float64
		to   [2]float64
		want Direction
	}{
		{"left", [2]float64{280, 150}, [2]float64{150, 140}, DirectionLeft},
		{"right", [2]float64{150, 150}, [2]float64{280, 160}, DirectionRight},
		{"up", [2]float64{200, 190}, [2]float64{210, 110}, DirectionUp},
		{"down", [2]float64{200, 110}, [2]float64{190, 190}, DirectionDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, DefaultConfig())
			f.glide(200*time.Millisecond, tt.from, tt.to)
			assert.Equal(t, []Direction{tt.want}, f.r.directions)
		})
	}
}

func TestDecoder_ShiftKeyNeverGestures(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	// Big movement starting on shift: excluded keys are taps, period.
	f.glide(300*time.Millisecond,
		[2]float64{50, 150}, [2]float64{50, 50})

	assert.Equal(t, []int{-1}, f.r.taps)
	assert.Empty(t, f.r.directions)
	assert.Zero(t, f.r.started)
}

func TestDecoder_CancelSuppressesEverything(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	f.down(0, 50, 50)
	f.step(60 * time.Millisecond)
	f.move(0, 150, 50)
	f.step(60 * time.Millisecond)
	f.d.OnCancel(0, 150, 50, f.now)

	assert.True(t, f.r.silent(), "cancel must not fall back to tap")
	assert.Equal(t, f.r.started, f.r.ended, "swipe start/end stay paired")

	// The decoder is reusable immediately after a cancel.
	f.down(0, 150, 50)
	f.step(20 * time.Millisecond)
	f.up(0, 150, 50)
	assert.Equal(t, []int{98}, f.r.taps)
}

func TestDecoder_ResetActsAsImplicitCancel(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	f.down(0, 50, 50)
	f.step(60 * time.Millisecond)
	f.move(0, 150, 50)
	f.d.Reset() // layout swap mid-gesture

	f.step(time.Second)
	assert.True(t, f.r.silent())
	assert.Zero(t, f.m.PendingCount(), "no timers survive a reset")
}

func TestDecoder_RolloverTyping(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	// Finger A holds 'b' while finger B presses 'c'.
	f.down(0, 150, 50)
	f.step(30 * time.Millisecond)
	f.down(1, 250, 50)
	f.step(30 * time.Millisecond)

	assert.Equal(t, []string{"c"}, f.r.keyDowns, "secondary down dispatches immediately")

	// B lifts over 'd' territory: release still uses the tracked key.
	f.up(1, 350, 50)
	assert.Equal(t, []string{"c"}, f.r.keyUps)

	f.step(20 * time.Millisecond)
	f.up(0, 150, 50)
	assert.Equal(t, []int{98}, f.r.taps, "primary resolves as its own tap")
}

func TestDecoder_RolloverLongPressIndependence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LongPressDelay = 200 * time.Millisecond
	f := newFixture(t, cfg)

	// Both pointers land on 'a' territory... only one key offers
	// options in this layout, so use two separate downs on 'a' and 'b'
	// where only 'a' arms a timer; then verify lifting 'b' leaves the
	// 'a' timer running.
	f.down(0, 50, 50) // 'a', arms long press
	f.step(50 * time.Millisecond)
	f.down(1, 150, 50) // 'b', rollover
	f.step(50 * time.Millisecond)
	f.up(1, 150, 50) // lifting 'b' must not cancel 'a''s timer

	f.step(150 * time.Millisecond) // 250ms after 'a' went down
	require.Len(t, f.r.longPress, 1, "long press fires despite other pointer lifting")
	assert.Equal(t, "a", f.r.longPress[0].Key.Label)
	assert.Equal(t, []string{"à", "á", "1"}, f.r.longPress[0].Options)

	// Lifting 'a' after the popup opened must not also tap.
	f.up(0, 50, 50)
	assert.Empty(t, f.r.taps)
}

func TestDecoder_LongPressCanceledByLift(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	f.down(0, 50, 50)
	f.step(100 * time.Millisecond)
	f.up(0, 50, 50)

	f.step(time.Second)
	assert.Empty(t, f.r.longPress, "lift before the delay cancels the timer")
	assert.Equal(t, []int{97}, f.r.taps)
}

func TestDecoder_LongPressCanceledBySwipeStart(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	f.down(0, 50, 50)
	f.step(100 * time.Millisecond)
	f.move(0, 150, 50) // crosses the start threshold at 100ms
	f.step(time.Second)

	assert.Empty(t, f.r.longPress)
}

func TestDecoder_LongPressDelayClamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LongPressDelay = 10 * time.Millisecond // below the 150ms floor
	f := newFixture(t, cfg)

	f.down(0, 50, 50)
	f.step(100 * time.Millisecond)
	assert.Empty(t, f.r.longPress, "10ms must clamp up to 150ms")
	f.step(100 * time.Millisecond)
	assert.Len(t, f.r.longPress, 1)
}

func TestDecoder_SamePointerRepressCancelsOnlyItsTimer(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	// Extremely quick re-press of the same finger on 'a': the first
	// down's timer must die, the second must fire on its own schedule.
	f.down(0, 50, 50)
	f.step(100 * time.Millisecond)
	f.down(0, 50, 50) // re-press, no up event seen
	f.step(150 * time.Millisecond)

	// 250ms after the first down, 150ms after the second: only the
	// second timer (at 200ms remaining 50ms away) is still pending.
	assert.Empty(t, f.r.longPress)
	f.step(50 * time.Millisecond)
	assert.Len(t, f.r.longPress, 1)
}

func TestDecoder_DeleteRepeat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RepeatDelay = 300 * time.Millisecond
	cfg.RepeatInterval = 80 * time.Millisecond
	f := newFixture(t, cfg)

	f.down(0, 350, 150) // backspace
	f.step(299 * time.Millisecond)
	assert.Empty(t, f.r.taps, "nothing before the initial delay")

	f.step(time.Millisecond) // 300ms: first repeat
	assert.Equal(t, []int{-5}, f.r.taps)

	f.step(160 * time.Millisecond) // two more intervals
	assert.Equal(t, []int{-5, -5, -5}, f.r.taps)

	f.up(0, 350, 150)
	f.step(time.Second)
	assert.Len(t, f.r.taps, 3, "repeat stops on lift, and the lift does not tap again")
}

func TestDecoder_DeleteQuickTapDeletesOnce(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	f.down(0, 350, 150)
	f.step(50 * time.Millisecond)
	f.up(0, 350, 150)

	f.step(time.Second)
	assert.Equal(t, []int{-5}, f.r.taps)
}

func TestDecoder_TrailFade(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrailEnabled = true
	cfg.TrailFade = 250 * time.Millisecond
	f := newFixture(t, cfg)

	f.glide(300*time.Millisecond,
		[2]float64{50, 50}, [2]float64{150, 50}, [2]float64{250, 50})

	assert.NotEmpty(t, f.d.Trail(), "trail lingers for the fade delay")
	f.step(250 * time.Millisecond)
	assert.Empty(t, f.d.Trail())
}

func TestDecoder_TrailClearedImmediatelyWhenDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrailEnabled = false
	f := newFixture(t, cfg)

	f.glide(300*time.Millisecond,
		[2]float64{50, 50}, [2]float64{150, 50}, [2]float64{250, 50})

	assert.Empty(t, f.d.Trail())
}

func TestDecoder_VelocityClassifiesShortFastGlide(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DistanceThresholdPx = 500 // force the distance test to fail
	cfg.VelocityThreshold = 300
	f := newFixture(t, cfg)

	// ~150px in 150ms = ~1000 px/s, over the velocity threshold.
	f.glide(150*time.Millisecond,
		[2]float64{50, 50}, [2]float64{125, 50}, [2]float64{199, 50})

	require.Len(t, f.r.glides, 1)
	assert.Equal(t, []int{97, 98}, f.r.glides[0])
}

func TestDecoder_DensityScaleRaisesThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DensityScale = 3.0 // start threshold becomes 135px
	f := newFixture(t, cfg)

	f.down(0, 50, 50)
	f.step(60 * time.Millisecond)
	f.move(0, 150, 50) // 100px, under the scaled threshold
	f.step(60 * time.Millisecond)
	f.up(0, 150, 50)

	assert.Zero(t, f.r.started)
	assert.Equal(t, []int{97}, f.r.taps)
}
