package stats

import (
	"bytes"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/mpapenbr/racing-lottery-go/pkg/stats"
)

func TestPrintSummary(t *testing.T) {
	sum := &stats.Summary{
		Races:             4,
		Wins:              map[string]int{"Anna": 1, "Bob": 3},
		MeanTick:          1500,
		LeaderMultiplier:  0.65,
		TrailerMultiplier: 3,
		Duration:          2 * time.Second,
	}
	buf := bytes.Buffer{}
	PrintSummary(&buf, sum)
	out := buf.String()
	assert.Assert(t, is.Contains(out, "4 races in 2s, mean 1500.0 ticks per race"))
	assert.Assert(t, is.Contains(out, "Bob                          3   75.0%\nAnna"))
	assert.Assert(t, is.Contains(out, "mean leader multiplier:  0.650"))
	assert.Assert(t, is.Contains(out, "mean trailer multiplier: 3.000"))
}
