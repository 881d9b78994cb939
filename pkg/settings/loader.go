package settings

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/racing-lottery-go/log"
)

// Issue describes a key that could not be applied and fell back to its default
type Issue struct {
	Key    string
	Reason string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Key, i.Reason)
}

type keyDef struct {
	key   string
	apply func(s *Settings, v any) error
}

var keyDefs = []keyDef{
	floatKey(KeyCrashChance, func(s *Settings) *float64 { return &s.CrashChance }, probability),
	msKey(KeyCrashCooldown, func(s *Settings) *time.Duration { return &s.CrashCooldown }),
	floatKey(KeyBoostChance, func(s *Settings) *float64 { return &s.BoostChance }, probability),
	floatKey(KeyBoostMultiplier,
		func(s *Settings) *float64 { return &s.BoostMultiplier }, positive),
	msKey(KeyBoostDuration, func(s *Settings) *time.Duration { return &s.BoostDuration }),
	floatKey(KeyDurationMultiplier,
		func(s *Settings) *float64 { return &s.DurationMultiplier }, positive),
	floatKey(KeyHazardChance, func(s *Settings) *float64 { return &s.HazardChance }, probability),
	floatKey(KeyPickupChance, func(s *Settings) *float64 { return &s.PickupChance }, probability),
	floatKey(KeyItemSpawnDistance,
		func(s *Settings) *float64 { return &s.ItemSpawnDistance }, positive),
	floatKey(KeyItemSize, func(s *Settings) *float64 { return &s.ItemSize }, positive),
	msKey(KeyPickupBoostDuration,
		func(s *Settings) *time.Duration { return &s.PickupBoostDuration }),
	intKey(KeyMaxItems, func(s *Settings) *int { return &s.MaxItems }),
	floatKey(KeyCatchupFarGap, func(s *Settings) *float64 { return &s.CatchupFarGap }, fraction),
	floatKey(KeyCatchupNearGap,
		func(s *Settings) *float64 { return &s.CatchupNearGap }, fraction),
	msKey(KeyCountdown, func(s *Settings) *time.Duration { return &s.Countdown }),
	intKey(KeyFPS, func(s *Settings) *int { return &s.FPS }),
	intKey(KeyMaxContestants, func(s *Settings) *int { return &s.MaxContestants }),
	floatKey(KeyCourseLength, func(s *Settings) *float64 { return &s.CourseLength }, positive),
	floatKey(KeyCourseRamp, func(s *Settings) *float64 { return &s.CourseRamp }, nonNegative),
	floatKey(KeyCourseWidth, func(s *Settings) *float64 { return &s.CourseWidth }, nonNegative),
	floatKey(KeyCourseStep, func(s *Settings) *float64 { return &s.CourseStep }, positive),
}

// Load reads the settings file at path. Files ending in .yml or .yaml are read
// as YAML, everything else as JSON.
// A missing or malformed file yields the defaults; invalid keys are reported
// as warnings and fall back to their default value.
func Load(path string) Settings {
	if path == "" {
		return Default()
	}
	s, err := LoadFile(path)
	if err != nil {
		log.Default().Named("settings").Warn("could not load settings, using defaults",
			log.String("file", path), log.ErrorField(err))
		return Default()
	}
	return s
}

// LoadFile is Load for callers which need to know whether the file could be used.
// Invalid keys are still reported as warnings only.
func LoadFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), err
	}
	parse := Parse
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		parse = ParseYAML
	}
	s, issues, err := parse(string(data))
	if err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}
	l := log.Default().Named("settings")
	for _, i := range issues {
		l.Warn("invalid settings value, using default",
			log.String("key", i.Key), log.String("reason", i.Reason))
	}
	return s, nil
}

// Parse applies the keys found in the JSON object jsonData on top of the defaults.
// An error is only returned if jsonData is not a JSON object at all.
func Parse(jsonData string) (Settings, []Issue, error) {
	obj, err := oj.ParseString(jsonData)
	if err != nil {
		return Default(), nil, err
	}
	return apply(obj)
}

// ParseYAML is Parse for a YAML mapping
func ParseYAML(yamlData string) (Settings, []Issue, error) {
	var obj any
	if err := yaml.Unmarshal([]byte(yamlData), &obj); err != nil {
		return Default(), nil, err
	}
	return apply(obj)
}

func apply(obj any) (Settings, []Issue, error) {
	if _, ok := obj.(map[string]any); !ok {
		return Default(), nil, fmt.Errorf("settings: expected object, got %T", obj)
	}
	s := Default()
	issues := make([]Issue, 0)
	for _, def := range keyDefs {
		v := jp.C(def.key).First(obj)
		if v == nil {
			continue
		}
		if err := def.apply(&s, v); err != nil {
			issues = append(issues, Issue{Key: def.key, Reason: err.Error()})
		}
	}
	if s.CatchupNearGap > s.CatchupFarGap {
		d := Default()
		issues = append(issues, Issue{
			Key:    KeyCatchupNearGap,
			Reason: fmt.Sprintf("must not exceed %s", KeyCatchupFarGap),
		})
		s.CatchupNearGap, s.CatchupFarGap = d.CatchupNearGap, d.CatchupFarGap
	}
	return s, issues, nil
}

// ToMap returns the settings in file representation
func (s Settings) ToMap() map[string]any {
	return map[string]any{
		KeyCrashChance:         s.CrashChance,
		KeyCrashCooldown:       s.CrashCooldown.Milliseconds(),
		KeyBoostChance:         s.BoostChance,
		KeyBoostMultiplier:     s.BoostMultiplier,
		KeyBoostDuration:       s.BoostDuration.Milliseconds(),
		KeyDurationMultiplier:  s.DurationMultiplier,
		KeyHazardChance:        s.HazardChance,
		KeyPickupChance:        s.PickupChance,
		KeyItemSpawnDistance:   s.ItemSpawnDistance,
		KeyItemSize:            s.ItemSize,
		KeyPickupBoostDuration: s.PickupBoostDuration.Milliseconds(),
		KeyMaxItems:            s.MaxItems,
		KeyCatchupFarGap:       s.CatchupFarGap,
		KeyCatchupNearGap:      s.CatchupNearGap,
		KeyCountdown:           s.Countdown.Milliseconds(),
		KeyFPS:                 s.FPS,
		KeyMaxContestants:      s.MaxContestants,
		KeyCourseLength:        s.CourseLength,
		KeyCourseRamp:          s.CourseRamp,
		KeyCourseWidth:         s.CourseWidth,
		KeyCourseStep:          s.CourseStep,
	}
}

func toFloat(v any) (float64, error) {
	var f float64
	switch val := v.(type) {
	case int64:
		f = float64(val)
	case float64:
		f = val
	case int:
		f = float64(val)
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return f, nil
}

func probability(f float64) error {
	if f < 0 || f > 1 {
		return fmt.Errorf("%v not in [0,1]", f)
	}
	return nil
}

func fraction(f float64) error {
	if f <= 0 || f > 1 {
		return fmt.Errorf("%v not in (0,1]", f)
	}
	return nil
}

func positive(f float64) error {
	if f <= 0 {
		return fmt.Errorf("%v must be > 0", f)
	}
	return nil
}

func nonNegative(f float64) error {
	if f < 0 {
		return fmt.Errorf("%v must be >= 0", f)
	}
	return nil
}

//nolint:whitespace // can't make both editor and linter happy
func floatKey(
	key string, field func(*Settings) *float64, check func(float64) error,
) keyDef {
	return keyDef{key: key, apply: func(s *Settings, v any) error {
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		if err := check(f); err != nil {
			return err
		}
		*field(s) = f
		return nil
	}}
}

// msKey reads a duration given in milliseconds
func msKey(key string, field func(*Settings) *time.Duration) keyDef {
	return keyDef{key: key, apply: func(s *Settings, v any) error {
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		if err := nonNegative(f); err != nil {
			return err
		}
		*field(s) = time.Duration(f * float64(time.Millisecond))
		return nil
	}}
}

func intKey(key string, field func(*Settings) *int) keyDef {
	return keyDef{key: key, apply: func(s *Settings, v any) error {
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		if f != math.Trunc(f) || f < 1 {
			return fmt.Errorf("%v must be a positive integer", f)
		}
		*field(s) = int(f)
		return nil
	}}
}
