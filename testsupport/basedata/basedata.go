// Package basedata provides fixtures shared by package tests.
package basedata

import "github.com/mpapenbr/racing-lottery-go/pkg/settings"

const SampleSeed int64 = 4711

func SampleContestants() []string {
	return []string{"Anna", "Bob", "Chris", "Dana", "Emil", "Frida"}
}

// QuickSettings returns the defaults without countdown and with a short course
// so a race finishes after a few hundred ticks.
func QuickSettings() settings.Settings {
	s := settings.Default()
	s.Countdown = 0
	s.DurationMultiplier = 0.25
	return s
}

// CalmSettings disables every random event.
func CalmSettings() settings.Settings {
	s := QuickSettings()
	s.CrashChance = 0
	s.BoostChance = 0
	s.HazardChance = 0
	s.PickupChance = 0
	return s
}
