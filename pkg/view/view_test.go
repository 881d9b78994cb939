package view

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racing-lottery-go/pkg/race/director"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/entrant"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/interaction"
)

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	screen.SetSize(80, 24)
	return screen
}

func TestDraw_PreRace(t *testing.T) {
	screen := newScreen(t)
	New(screen).Draw(director.Snapshot{State: director.PreRace})
	assert.Equal(t, "RACING LOTTERY  PRE_RACE", Text(screen, 0))
	assert.Contains(t, Text(screen, 2), "press SPACE")
	assert.Contains(t, Text(screen, 23), "r: reset")
}

func TestDraw_Countdown(t *testing.T) {
	screen := newScreen(t)
	New(screen, WithTitle("TEST")).Draw(director.Snapshot{
		State:     director.Countdown,
		Countdown: 2100 * time.Millisecond,
	})
	assert.Equal(t, "TEST  COUNTDOWN 3", Text(screen, 0))
}

func TestDraw_Racing(t *testing.T) {
	screen := newScreen(t)
	snap := director.Snapshot{
		State: director.Racing,
		Tick:  120,
		Standings: []director.Standing{
			{Pos: 1, Name: "Anna", Lane: 1, Progress: 0.5, State: entrant.Boost},
			{Pos: 2, Name: "A very long contestant name", Lane: 0, Progress: 0.25, State: entrant.Crashed},
		},
		Items: []interaction.Item{
			{Kind: interaction.Hazard, Lane: 0, Progress: 0.9, Pos: mgl64.Vec2{}},
		},
	}
	New(screen).Draw(snap)

	row := Text(screen, 2)
	assert.True(t, strings.HasPrefix(row, " 1. Anna"), row)
	assert.Contains(t, row, ">")
	assert.Contains(t, row, " 50% BOOST")

	row = Text(screen, 3)
	assert.Contains(t, row, "A very long c~")
	assert.Contains(t, row, "x", "hazard shown on the lane's bar")
	assert.Contains(t, row, "CRASHED")
}

func TestDraw_Finished(t *testing.T) {
	screen := newScreen(t)
	New(screen).Draw(director.Snapshot{
		State:  director.Finished,
		Winner: "Anna",
		Standings: []director.Standing{
			{Pos: 1, Name: "Anna", Progress: 1, Finished: true, FinishRank: 1, FinishTime: 31 * time.Second},
		},
	})
	assert.Contains(t, Text(screen, 2), "#1 31s")
	assert.Equal(t, "WINNER: Anna", Text(screen, 22))
}

func TestCell(t *testing.T) {
	assert.Equal(t, 0, cell(0, 10))
	assert.Equal(t, 9, cell(1, 10))
	assert.Equal(t, 9, cell(1.5, 10))
	assert.Equal(t, 0, cell(-1, 10))
	assert.Equal(t, 5, cell(0.5, 10))
}

func TestActionFor(t *testing.T) {
	tests := []struct {
		ev   *tcell.EventKey
		want Action
	}{
		{tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), ActionStart},
		{tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), ActionStart},
		{tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone), ActionReset},
		{tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), ActionQuit},
		{tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), ActionQuit},
		{tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone), ActionNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ActionFor(tt.ev), tt.ev.Name())
	}
}
