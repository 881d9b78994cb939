// Package event defines the notifications a race emits while it progresses.
package event

import (
	"time"
)

// Type represents the kind of race event
type Type int

const (
	// CountdownStarted is emitted by Start once the countdown begins
	CountdownStarted Type = iota
	// RaceStarted is emitted when the countdown has elapsed
	RaceStarted
	// EntrantFinished carries the finish rank and race time of one entrant
	EntrantFinished
	// RaceFinished is emitted once, after the last entrant finished
	RaceFinished
	EntrantCrashed
	EntrantBoosted
	ItemSpawned
	ItemConsumed
	// RaceReset is emitted by Reset, every previous state is discarded
	RaceReset
)

func (t Type) String() string {
	switch t {
	case CountdownStarted:
		return "countdown-start"
	case RaceStarted:
		return "race-start"
	case EntrantFinished:
		return "entrant-finished"
	case RaceFinished:
		return "race-finished"
	case EntrantCrashed:
		return "entrant-crashed"
	case EntrantBoosted:
		return "entrant-boosted"
	case ItemSpawned:
		return "item-spawned"
	case ItemConsumed:
		return "item-consumed"
	case RaceReset:
		return "race-reset"
	default:
		return "unknown"
	}
}

// Event is a single notification. Events are values and never modified after creation.
type Event struct {
	Type   Type
	RaceID string
	Tick   int
	Time   time.Duration // race time (zero before the start)

	Entrant string // empty for race wide events
	Lane    int
	Rank    int    // finish rank for EntrantFinished
	Cause   string // e.g. "hazard" or "boost-trigger"

	ItemID   int
	ItemKind string
	X, Y     float64
}

// ToMap returns the flat representation used for JSON payloads.
// Fields not relevant for the event type are omitted.
func (e Event) ToMap() map[string]any {
	ret := map[string]any{
		"type":   e.Type.String(),
		"raceId": e.RaceID,
		"tick":   e.Tick,
		"timeMs": e.Time.Milliseconds(),
	}
	if e.Entrant != "" {
		ret["entrant"] = e.Entrant
		ret["lane"] = e.Lane
	}
	switch e.Type {
	case EntrantFinished:
		ret["rank"] = e.Rank
	case EntrantCrashed, EntrantBoosted:
		ret["cause"] = e.Cause
	case ItemSpawned, ItemConsumed:
		ret["itemId"] = e.ItemID
		ret["itemKind"] = e.ItemKind
		ret["x"] = e.X
		ret["y"] = e.Y
	default:
	}
	return ret
}

// Filter returns the events of the given types
func Filter(events []Event, types ...Type) []Event {
	ret := []Event{}
	for _, e := range events {
		for _, t := range types {
			if e.Type == t {
				ret = append(ret, e)
				break
			}
		}
	}
	return ret
}
