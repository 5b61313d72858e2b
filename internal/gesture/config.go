package gesture

import "time"

// Default threshold values, in density-independent pixels at scale 1.0.
const (
	DefaultStartThresholdPx    = 45.0
	DefaultDistanceThresholdPx = 45.0
	DefaultVelocityThreshold   = 600.0 // px/s
	DefaultMinSwipeTime        = 100 * time.Millisecond
	DefaultLongPressDelay      = 200 * time.Millisecond
	DefaultTrailFade           = 250 * time.Millisecond
	DefaultRepeatDelay         = 300 * time.Millisecond
	DefaultRepeatInterval      = 80 * time.Millisecond

	// MinLongPressDelay and MaxLongPressDelay bound the configurable
	// long-press delay.
	MinLongPressDelay = 150 * time.Millisecond
	MaxLongPressDelay = 600 * time.Millisecond
)

// Config holds the decoder's thresholds and feature switches. Pixel
// thresholds are scaled by DensityScale so one config works across
// screen densities.
type Config struct {
	// SwipeEnabled gates all gesture tracking. With it off every touch
	// is a plain tap or repeat.
	SwipeEnabled bool
	// GlideTypingEnabled gates glide (swiped word) classification.
	// Directional shortcuts still work with it off.
	GlideTypingEnabled bool

	// DensityScale converts density-independent thresholds to physical
	// pixels (1.0 = mdpi-equivalent).
	DensityScale float64

	// StartThresholdPx is the displacement from the down point that
	// begins gesture tracking. Movement below it is tap jitter.
	StartThresholdPx float64
	// DistanceThresholdPx is the minimum path length (glide) or
	// dominant-axis displacement (directional) to classify a swipe.
	DistanceThresholdPx float64
	// VelocityThreshold is the average path velocity in px/s that
	// classifies a glide even below the distance threshold.
	VelocityThreshold float64
	// MinSwipeTime is the minimum session duration for any swipe
	// classification; faster sessions degrade to taps.
	MinSwipeTime time.Duration

	// TrailEnabled keeps the normalized path around after a gesture
	// resolves, clearing it after TrailFade instead of immediately.
	TrailEnabled bool
	TrailFade    time.Duration

	// LongPressDelay arms the alternative-character popup. Clamped to
	// [MinLongPressDelay, MaxLongPressDelay].
	LongPressDelay time.Duration
	// InstantFirstOptionSelect is forwarded with long-press requests.
	InstantFirstOptionSelect bool

	// RepeatDelay and RepeatInterval drive delete key auto-repeat.
	RepeatDelay    time.Duration
	RepeatInterval time.Duration
}

// DefaultConfig returns the decoder defaults with all features on.
func DefaultConfig() Config {
	return Config{
		SwipeEnabled:        true,
		GlideTypingEnabled:  true,
		DensityScale:        1.0,
		StartThresholdPx:    DefaultStartThresholdPx,
		DistanceThresholdPx: DefaultDistanceThresholdPx,
		VelocityThreshold:   DefaultVelocityThreshold,
		MinSwipeTime:        DefaultMinSwipeTime,
		TrailEnabled:        true,
		TrailFade:           DefaultTrailFade,
		LongPressDelay:      DefaultLongPressDelay,
		RepeatDelay:         DefaultRepeatDelay,
		RepeatInterval:      DefaultRepeatInterval,
	}
}

// normalized fills zero values with defaults and clamps the long-press
// delay into its permitted range.
func (c Config) normalized() Config {
	if c.DensityScale <= 0 {
		c.DensityScale = 1.0
	}
	if c.StartThresholdPx <= 0 {
		c.StartThresholdPx = DefaultStartThresholdPx
	}
	if c.DistanceThresholdPx <= 0 {
		c.DistanceThresholdPx = DefaultDistanceThresholdPx
	}
	if c.VelocityThreshold <= 0 {
		c.VelocityThreshold = DefaultVelocityThreshold
	}
	if c.MinSwipeTime <= 0 {
		c.MinSwipeTime = DefaultMinSwipeTime
	}
	if c.TrailFade <= 0 {
		c.TrailFade = DefaultTrailFade
	}
	if c.LongPressDelay < MinLongPressDelay {
		c.LongPressDelay = MinLongPressDelay
	}
	if c.LongPressDelay > MaxLongPressDelay {
		c.LongPressDelay = MaxLongPressDelay
	}
	if c.RepeatDelay <= 0 {
		c.RepeatDelay = DefaultRepeatDelay
	}
	if c.RepeatInterval <= 0 {
		c.RepeatInterval = DefaultRepeatInterval
	}
	return c
}

// startThreshold returns the density-scaled swipe start threshold.
func (c Config) startThreshold() float64 {
	return c.StartThresholdPx * c.DensityScale
}

// distanceThreshold returns the density-scaled classification distance.
func (c Config) distanceThreshold() float64 {
	return c.DistanceThresholdPx * c.DensityScale
}
