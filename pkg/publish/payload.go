// Package publish contains the wire format shared by the event transports.
package publish

import (
	"github.com/ohler55/ojg/oj"
	"github.com/samber/lo"

	"github.com/mpapenbr/racing-lottery-go/pkg/race/director"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/entrant"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/event"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/interaction"
)

var jsonOpts = &oj.Options{Sort: true}

// EventJSON encodes a race event as JSON object
func EventJSON(ev event.Event) []byte {
	return []byte(oj.JSON(ev.ToMap(), jsonOpts))
}

// SnapshotJSON encodes a snapshot as JSON object
func SnapshotJSON(snap director.Snapshot) []byte {
	return []byte(oj.JSON(SnapshotMap(snap), jsonOpts))
}

func SnapshotMap(snap director.Snapshot) map[string]any {
	return map[string]any{
		"type":        "snapshot",
		"raceId":      snap.RaceID,
		"state":       snap.State.String(),
		"tick":        snap.Tick,
		"raceTimeMs":  snap.RaceTime.Milliseconds(),
		"countdownMs": snap.Countdown.Milliseconds(),
		"winner":      snap.Winner,
		"entrants": lo.Map(snap.Entrants, func(e entrant.Entrant, _ int) any {
			return map[string]any{
				"name":         e.Name,
				"lane":         e.Lane,
				"progress":     e.Progress,
				"speed":        e.Speed,
				"state":        e.State.String(),
				"finished":     e.Finished,
				"finishRank":   e.FinishRank,
				"finishTimeMs": e.FinishTime.Milliseconds(),
				"x":            e.X,
				"y":            e.Y,
				"heading":      e.Heading,
			}
		}),
		"items": lo.Map(snap.Items, func(item interaction.Item, _ int) any {
			return map[string]any{
				"id":       item.ID,
				"kind":     item.Kind.String(),
				"progress": item.Progress,
				"x":        item.Pos.X(),
				"y":        item.Pos.Y(),
			}
		}),
	}
}

// Encode merges events and snapshots into one stream of JSON messages.
// The returned channel is closed once both inputs are closed.
// Either input may be nil.
func Encode(events <-chan event.Event, snapshots <-chan director.Snapshot) <-chan []byte {
	out := make(chan []byte)
	go func() {
		defer close(out)
		for events != nil || snapshots != nil {
			select {
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				out <- EventJSON(ev)
			case snap, ok := <-snapshots:
				if !ok {
					snapshots = nil
					continue
				}
				out <- SnapshotJSON(snap)
			}
		}
	}()
	return out
}
