package entrant

// State is the behavioral state of an entrant
type State int

const (
	Normal State = iota
	Boost
	SuperBoost
	Stumble
	Crashed
)

type stateDef struct {
	name       string
	multiplier float64 // applied to the base speed, 0 means: taken from Tuning
	boosted    bool
	crashable  bool // the random crash trigger may fire in this state
}

var stateTable = map[State]stateDef{
	Normal:     {name: "NORMAL", multiplier: 1.0, crashable: true},
	Boost:      {name: "BOOST", multiplier: 0, boosted: true},
	SuperBoost: {name: "SUPER_BOOST", multiplier: SuperBoostMultiplier, boosted: true},
	Stumble:    {name: "STUMBLE", multiplier: StumbleMultiplier, crashable: true},
	Crashed:    {name: "CRASHED"},
}

func (s State) String() string {
	if def, ok := stateTable[s]; ok {
		return def.name
	}
	return "UNKNOWN"
}

func (s State) Valid() bool {
	_, ok := stateTable[s]
	return ok
}

// Boosted reports whether s is BOOST or SUPER_BOOST
func (s State) Boosted() bool {
	return stateTable[s].boosted
}

func (s State) crashable() bool {
	return stateTable[s].crashable
}

// reroll is one row of the table used when a state timer expires.
// Rows are checked in order, the first row with u < below wins.
type reroll struct {
	below    float64
	state    State
	minTicks int
	maxTicks int
}

var rerollTable = []reroll{
	{below: 0.25, state: Boost, minTicks: 20, maxTicks: 60},
	{below: 0.35, state: Stumble, minTicks: 20, maxTicks: 60},
	{below: 0.38, state: SuperBoost, minTicks: 40, maxTicks: 80},
	{below: 1.0, state: Normal, minTicks: 30, maxTicks: 90},
}

func pickReroll(u float64) reroll {
	for _, r := range rerollTable {
		if u < r.below {
			return r
		}
	}
	return rerollTable[len(rerollTable)-1]
}

// Cause tells why a state was entered
type Cause int

const (
	CauseNone Cause = iota
	CauseTimer
	CauseCrashTrigger
	CauseBoostTrigger
	CauseRecovered
	CauseHazard
	CausePickup
	CauseReset
)

func (c Cause) String() string {
	switch c {
	case CauseTimer:
		return "timer"
	case CauseCrashTrigger:
		return "crash-trigger"
	case CauseBoostTrigger:
		return "boost-trigger"
	case CauseRecovered:
		return "recovered"
	case CauseHazard:
		return "hazard"
	case CausePickup:
		return "pickup"
	case CauseReset:
		return "reset"
	default:
		return "none"
	}
}
