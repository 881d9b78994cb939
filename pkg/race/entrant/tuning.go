package entrant

import (
	"github.com/mpapenbr/racing-lottery-go/pkg/settings"
)

const (
	MinBaseSpeed          = 0.0005 // progress per tick
	MaxBaseSpeed          = 0.0008
	MinDurationMultiplier = 0.1
	SmoothingFactor       = 0.08 // speed += (target - speed) * SmoothingFactor
	CrashDecay            = 0.9  // speed factor per tick while crashed
	RecoveryTicks         = 60   // timer after leaving CRASHED
	SuperBoostMultiplier  = 3.0
	StumbleMultiplier     = 0.3
	LeaderFactor          = 0.65
	PodiumFactor          = 0.85
	PodiumRanks           = 3
	FarCatchupFactor      = 3.0
	NearCatchupFactor     = 1.5
	MinJitter             = 0.8
	MaxJitter             = 1.2
)

// Tuning holds the per race values an entrant needs, already converted to ticks
type Tuning struct {
	CrashChance        float64
	CrashCooldownTicks int
	BoostChance        float64
	BoostMultiplier    float64
	BoostTicks         int
	PickupBoostTicks   int
	HazardChance       float64
	PickupChance       float64
	FarGap             float64
	NearGap            float64
	DurationMultiplier float64
}

func NewTuning(s settings.Settings) Tuning {
	return Tuning{
		CrashChance:        s.CrashChance,
		CrashCooldownTicks: s.CrashCooldownTicks(),
		BoostChance:        s.BoostChance,
		BoostMultiplier:    s.BoostMultiplier,
		BoostTicks:         s.BoostDurationTicks(),
		PickupBoostTicks:   s.PickupBoostTicks(),
		HazardChance:       s.HazardChance,
		PickupChance:       s.PickupChance,
		FarGap:             s.CatchupFarGap,
		NearGap:            s.CatchupNearGap,
		DurationMultiplier: s.DurationMultiplier,
	}
}

func (t Tuning) stateMultiplier(s State) float64 {
	if s == Boost {
		return t.BoostMultiplier
	}
	return stateTable[s].multiplier
}

// RubberBand returns the speed factor for an entrant at rank (0 = leader)
// trailing the leader by gap progress.
func (t Tuning) RubberBand(rank int, gap float64) float64 {
	switch {
	case rank == 0:
		return LeaderFactor
	case rank < PodiumRanks:
		return PodiumFactor
	case gap > t.FarGap:
		return FarCatchupFactor
	case gap > t.NearGap:
		return NearCatchupFactor
	default:
		return 1.0
	}
}
