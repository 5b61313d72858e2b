// Package config handles configuration loading and validation for the
// keyboard core.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"glidecore/internal/gesture"
)

// Config holds the complete core configuration.
type Config struct {
	// Gesture configuration for the touch decoder.
	Gesture GestureConfig `toml:"gesture"`

	// Dictionary configuration for the trie compile pipeline.
	Dictionary DictionaryConfig `toml:"dictionary"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging"`
}

// GestureConfig holds the decoder thresholds and feature switches.
type GestureConfig struct {
	// SwipeEnabled gates all gesture tracking.
	SwipeEnabled bool `toml:"swipe_enabled"`

	// GlideTypingEnabled gates swiped-word classification.
	GlideTypingEnabled bool `toml:"glide_typing_enabled"`

	// DensityScale converts density-independent thresholds to
	// physical pixels.
	DensityScale float64 `toml:"density_scale"`

	// StartThresholdPx is the movement that begins gesture tracking.
	StartThresholdPx float64 `toml:"start_threshold_px"`

	// DistanceThresholdPx is the minimum swipe distance.
	DistanceThresholdPx float64 `toml:"distance_threshold_px"`

	// VelocityThreshold is the glide velocity threshold in px/s.
	VelocityThreshold float64 `toml:"velocity_threshold_px_per_sec"`

	// MinSwipeTimeMs is the minimum swipe duration in milliseconds.
	MinSwipeTimeMs int `toml:"min_swipe_time_ms"`

	// TrailEnabled keeps the gesture trail visible after a glide.
	TrailEnabled bool `toml:"trail_enabled"`

	// TrailFadeMs is the trail fade delay in milliseconds.
	TrailFadeMs int `toml:"trail_fade_ms"`

	// LongPressDelayMs is the long-press popup delay, 150-600 ms.
	LongPressDelayMs int `toml:"long_press_delay_ms"`

	// InstantFirstOptionSelect commits the first long-press option
	// without a drag.
	InstantFirstOptionSelect bool `toml:"instant_first_option_select"`

	// DeleteRepeatDelayMs is the delay before delete auto-repeat.
	DeleteRepeatDelayMs int `toml:"delete_repeat_delay_ms"`

	// DeleteRepeatIntervalMs is the delete auto-repeat interval.
	DeleteRepeatIntervalMs int `toml:"delete_repeat_interval_ms"`
}

// DictionaryConfig holds the dictionary pipeline paths.
type DictionaryConfig struct {
	// AssetDir holds the <lang>_words.txt word list assets.
	AssetDir string `toml:"asset_dir"`

	// OutputDir receives the compiled <lang>.bin dictionaries.
	OutputDir string `toml:"output_dir"`

	// DBPath is the SQLite word store location.
	DBPath string `toml:"db_path"`

	// MaxWords caps how many words one asset file contributes.
	MaxWords int `toml:"max_words"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `toml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format"`

	// Output is "stderr", "stdout" or a file path.
	Output string `toml:"output"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Gesture: GestureConfig{
			SwipeEnabled:           true,
			GlideTypingEnabled:     true,
			DensityScale:           1.0,
			StartThresholdPx:       gesture.DefaultStartThresholdPx,
			DistanceThresholdPx:    gesture.DefaultDistanceThresholdPx,
			VelocityThreshold:      gesture.DefaultVelocityThreshold,
			MinSwipeTimeMs:         100,
			TrailEnabled:           true,
			TrailFadeMs:            250,
			LongPressDelayMs:       200,
			DeleteRepeatDelayMs:    300,
			DeleteRepeatIntervalMs: 80,
		},
		Dictionary: DictionaryConfig{
			AssetDir:  "assets/dictionaries",
			OutputDir: "assets/dictionaries",
			DBPath:    filepath.Join(defaultDataDir(), "words.db"),
			MaxWords:  50000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// defaultDataDir places the word store under the user config dir,
// falling back to the working directory when none is resolvable.
func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "glidecore")
	}
	return "."
}

// Load reads a TOML config file over the defaults and validates the
// result. Unknown keys are an error so typos do not silently fall back
// to defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: unknown key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidationError reports one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid field in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks field ranges. It returns ValidationErrors listing
// every problem rather than stopping at the first.
func (c *Config) Validate() error {
	var errs ValidationErrors

	check := func(ok bool, field, msg string) {
		if !ok {
			errs = append(errs, ValidationError{Field: field, Message: msg})
		}
	}

	g := &c.Gesture
	check(g.DensityScale > 0, "gesture.density_scale", "must be positive")
	check(g.StartThresholdPx > 0, "gesture.start_threshold_px", "must be positive")
	check(g.DistanceThresholdPx > 0, "gesture.distance_threshold_px", "must be positive")
	check(g.VelocityThreshold > 0, "gesture.velocity_threshold_px_per_sec", "must be positive")
	check(g.MinSwipeTimeMs > 0, "gesture.min_swipe_time_ms", "must be positive")
	check(g.TrailFadeMs >= 0, "gesture.trail_fade_ms", "must not be negative")
	check(g.LongPressDelayMs >= 150 && g.LongPressDelayMs <= 600,
		"gesture.long_press_delay_ms", "must be between 150 and 600")
	check(g.DeleteRepeatDelayMs > 0, "gesture.delete_repeat_delay_ms", "must be positive")
	check(g.DeleteRepeatIntervalMs > 0, "gesture.delete_repeat_interval_ms", "must be positive")

	d := &c.Dictionary
	check(d.AssetDir != "", "dictionary.asset_dir", "is required")
	check(d.OutputDir != "", "dictionary.output_dir", "is required")
	check(d.MaxWords > 0, "dictionary.max_words", "must be positive")

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{Field: "logging.level", Message: "must be debug, info, warn or error"})
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{Field: "logging.format", Message: "must be text or json"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DecoderConfig converts the file form into the decoder's config.
func (c *Config) DecoderConfig() gesture.Config {
	g := c.Gesture
	return gesture.Config{
		SwipeEnabled:             g.SwipeEnabled,
		GlideTypingEnabled:       g.GlideTypingEnabled,
		DensityScale:             g.DensityScale,
		StartThresholdPx:         g.StartThresholdPx,
		DistanceThresholdPx:      g.DistanceThresholdPx,
		VelocityThreshold:        g.VelocityThreshold,
		MinSwipeTime:             time.Duration(g.MinSwipeTimeMs) * time.Millisecond,
		TrailEnabled:             g.TrailEnabled,
		TrailFade:                time.Duration(g.TrailFadeMs) * time.Millisecond,
		LongPressDelay:           time.Duration(g.LongPressDelayMs) * time.Millisecond,
		InstantFirstOptionSelect: g.InstantFirstOptionSelect,
		RepeatDelay:              time.Duration(g.DeleteRepeatDelayMs) * time.Millisecond,
		RepeatInterval:           time.Duration(g.DeleteRepeatIntervalMs) * time.Millisecond,
	}
}
