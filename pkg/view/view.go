// Package view renders a race snapshot to a terminal screen.
package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/samber/lo"

	"github.com/mpapenbr/racing-lottery-go/pkg/race/director"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/entrant"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/interaction"
)

const (
	nameWidth  = 14
	minBar     = 10
	hazardRune = 'x'
	pickupRune = '+'
	racerRune  = '>'
	trackRune  = '.'
	doneRune   = '='
)

var (
	styleDefault = tcell.StyleDefault
	styleTitle   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleHelp    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleHazard  = tcell.StyleDefault.Foreground(tcell.ColorRed)
	stylePickup  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
)

var stateStyles = map[entrant.State]tcell.Style{
	entrant.Normal:     tcell.StyleDefault.Foreground(tcell.ColorWhite),
	entrant.Boost:      tcell.StyleDefault.Foreground(tcell.ColorAqua),
	entrant.SuperBoost: tcell.StyleDefault.Foreground(tcell.ColorFuchsia).Bold(true),
	entrant.Stumble:    tcell.StyleDefault.Foreground(tcell.ColorOlive),
	entrant.Crashed:    tcell.StyleDefault.Foreground(tcell.ColorRed).Reverse(true),
}

type View struct {
	screen tcell.Screen
	title  string
}

type Option func(*View)

func WithTitle(title string) Option {
	return func(v *View) {
		v.title = title
	}
}

func New(screen tcell.Screen, opts ...Option) *View {
	ret := &View{screen: screen, title: "RACING LOTTERY"}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Draw renders the complete snapshot and shows it
func (v *View) Draw(snap director.Snapshot) {
	v.screen.Clear()
	w, h := v.screen.Size()
	v.text(0, 0, styleTitle, v.title)
	v.text(len(v.title)+2, 0, styleDefault, status(snap))

	switch snap.State {
	case director.PreRace:
		v.text(0, 2, styleDefault, "press SPACE to start the race")
	default:
		v.drawStandings(snap, w, h)
	}
	if snap.State == director.Finished && snap.Winner != "" {
		v.text(0, h-2, styleTitle, fmt.Sprintf("WINNER: %s", snap.Winner))
	}
	v.text(0, h-1, styleHelp, "space/enter: start  r: reset  q/esc: quit")
	v.screen.Show()
}

func status(snap director.Snapshot) string {
	switch snap.State {
	case director.Countdown:
		secs := int((snap.Countdown + time.Second - 1) / time.Second)
		return fmt.Sprintf("%s %d", snap.State, secs)
	case director.Racing, director.Finished:
		return fmt.Sprintf("%s  tick %d  %s", snap.State, snap.Tick,
			snap.RaceTime.Truncate(100*time.Millisecond))
	default:
		return snap.State.String()
	}
}

func (v *View) drawStandings(snap director.Snapshot, w, h int) {
	barWidth := max(minBar, w-nameWidth-22)
	itemsByLane := lo.GroupBy(snap.Items, func(item interaction.Item) int { return item.Lane })
	maxRows := h - 4
	for i, s := range snap.Standings {
		if i >= maxRows {
			break
		}
		y := 2 + i
		x := v.text(0, y, styleDefault, fmt.Sprintf("%2d. %-*s ", s.Pos, nameWidth, truncate(s.Name, nameWidth)))
		x = v.bar(x, y, barWidth, s, itemsByLane[s.Lane])
		info := fmt.Sprintf(" %3.0f%% ", s.Progress*100)
		x = v.text(x, y, styleDefault, info)
		if s.Finished {
			v.text(x, y, styleTitle, fmt.Sprintf("#%d %s", s.FinishRank, s.FinishTime.Truncate(10*time.Millisecond)))
		} else {
			v.text(x, y, stateStyles[s.State], s.State.String())
		}
	}
}

func (v *View) bar(x, y, width int, s director.Standing, items []interaction.Item) int {
	pos := cell(s.Progress, width)
	for i := range width {
		r := trackRune
		if i < pos {
			r = doneRune
		}
		v.screen.SetContent(x+i, y, r, nil, styleHelp)
	}
	for _, item := range items {
		r, style := hazardRune, styleHazard
		if item.Kind == interaction.Pickup {
			r, style = pickupRune, stylePickup
		}
		v.screen.SetContent(x+cell(item.Progress, width), y, r, nil, style)
	}
	v.screen.SetContent(x+pos, y, racerRune, nil, stateStyles[s.State])
	return x + width
}

// cell maps progress to a column of a bar with width columns
func cell(progress float64, width int) int {
	return min(width-1, max(0, int(progress*float64(width-1)+0.5)))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}

func (v *View) text(x, y int, style tcell.Style, s string) int {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}

// Text returns the content of row y, trailing blanks removed
func Text(screen tcell.Screen, y int) string {
	w, _ := screen.Size()
	var sb strings.Builder
	for x := range w {
		r, _, _, _ := screen.GetContent(x, y)
		if r == 0 {
			r = ' '
		}
		sb.WriteRune(r)
	}
	return strings.TrimRight(sb.String(), " ")
}
