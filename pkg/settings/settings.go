// Package settings holds the tunables of a race.
//
// A Settings value is created once per race and passed down explicitly to the
// director, the entrants and the interaction layer. It is never modified afterwards.
package settings

import (
	"time"
)

// keys of the flat settings file
const (
	KeyCrashChance         = "car_crash_chance"
	KeyCrashCooldown       = "car_crash_cooldown"
	KeyBoostChance         = "car_boost_chance"
	KeyBoostMultiplier     = "car_boost_multiplier"
	KeyBoostDuration       = "car_boost_duration"
	KeyDurationMultiplier  = "race_duration_multiplier"
	KeyHazardChance        = "hazard_chance"
	KeyPickupChance        = "pickup_chance"
	KeyItemSpawnDistance   = "item_spawn_distance"
	KeyItemSize            = "item_size"
	KeyPickupBoostDuration = "pickup_boost_duration"
	KeyMaxItems            = "max_items"
	KeyCatchupFarGap       = "catchup_far_gap"
	KeyCatchupNearGap      = "catchup_near_gap"
	KeyCountdown           = "countdown"
	KeyFPS                 = "fps"
	KeyMaxContestants      = "max_contestants"
	KeyCourseLength        = "course_length"
	KeyCourseRamp          = "course_ramp"
	KeyCourseWidth         = "course_width"
	KeyCourseStep          = "course_step"
)

type Settings struct {
	CrashChance         float64       // per tick probability of a spontaneous crash
	CrashCooldown       time.Duration // time an entrant stays crashed
	BoostChance         float64       // per tick probability of a spontaneous boost
	BoostMultiplier     float64       // speed multiplier while boosted
	BoostDuration       time.Duration // duration of a spontaneous boost
	DurationMultiplier  float64       // >1 makes races take longer
	HazardChance        float64       // per tick probability an entrant requests a hazard
	PickupChance        float64       // per tick probability an entrant requests a pickup
	ItemSpawnDistance   float64       // world units ahead of the requesting entrant
	ItemSize            float64       // hitbox half size in world units
	PickupBoostDuration time.Duration // boost granted by a pickup
	MaxItems            int           // max active hazards/pickups on the course
	CatchupFarGap       float64       // progress gap for the strong catch-up boost
	CatchupNearGap      float64       // progress gap for the mild catch-up boost
	Countdown           time.Duration // countdown before the race starts
	FPS                 int           // simulation ticks per second
	MaxContestants      int           // cap for the contestant list
	CourseLength        float64       // nominal course length in world units
	CourseRamp          float64       // straight launch segment in world units
	CourseWidth         float64       // drivable width shared by all lanes
	CourseStep          float64       // waypoint spacing in world units
}

// Default returns the documented defaults for every key
func Default() Settings {
	return Settings{
		CrashChance:         0.003,
		CrashCooldown:       2000 * time.Millisecond,
		BoostChance:         0.001,
		BoostMultiplier:     2.5,
		BoostDuration:       1500 * time.Millisecond,
		DurationMultiplier:  1.0,
		HazardChance:        0.0015,
		PickupChance:        0.002,
		ItemSpawnDistance:   800,
		ItemSize:            20,
		PickupBoostDuration: 1500 * time.Millisecond,
		MaxItems:            64,
		CatchupFarGap:       0.15,
		CatchupNearGap:      0.05,
		Countdown:           3000 * time.Millisecond,
		FPS:                 60,
		MaxContestants:      30,
		CourseLength:        15000,
		CourseRamp:          1500,
		CourseWidth:         300,
		CourseStep:          50,
	}
}

// Ticks converts a duration into simulation ticks (truncated)
func (s Settings) Ticks(d time.Duration) int {
	return int(d.Seconds() * float64(s.fps()))
}

func (s Settings) CrashCooldownTicks() int {
	return s.Ticks(s.CrashCooldown)
}

func (s Settings) BoostDurationTicks() int {
	return s.Ticks(s.BoostDuration)
}

func (s Settings) PickupBoostTicks() int {
	return s.Ticks(s.PickupBoostDuration)
}

// TickInterval is the nominal real time between two ticks
func (s Settings) TickInterval() time.Duration {
	return time.Second / time.Duration(s.fps())
}

func (s Settings) fps() int {
	if s.FPS <= 0 {
		return 60
	}
	return s.FPS
}
