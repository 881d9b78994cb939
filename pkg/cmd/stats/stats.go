package stats

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/racing-lottery-go/log"
	"github.com/mpapenbr/racing-lottery-go/pkg/cmd/common"
	"github.com/mpapenbr/racing-lottery-go/pkg/config"
	"github.com/mpapenbr/racing-lottery-go/pkg/stats"
)

func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "simulates many races and prints the win distribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&config.Races, "races", 100,
		"number of races to simulate")
	return cmd
}

func runStats(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := common.SetupLogger(os.Stderr); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	shutdown := common.SetupTelemetry(ctx)
	defer shutdown()

	s := common.LoadSettings()
	names := common.LoadContestants(s)
	_, seed := common.RandomSource()
	log.Info("Simulating races",
		log.Int("races", config.Races),
		log.Int("contestants", len(names)),
		log.Int64("seed", seed))
	b := stats.NewBatch(
		stats.WithRaces(config.Races),
		stats.WithSeed(seed),
		stats.WithSettings(s),
		stats.WithShuffle(config.Shuffle),
		stats.WithLogger(log.Default().Named("stats").With(log.Int64("seed", seed))),
	)
	sum, err := b.Run(ctx, names)
	if err != nil {
		return err
	}
	PrintSummary(out, sum)
	return nil
}

// PrintSummary writes the win share table and the catch-up averages
func PrintSummary(w io.Writer, sum *stats.Summary) {
	fmt.Fprintf(w, "%d races in %s, mean %.1f ticks per race\n",
		sum.Races, sum.Duration.Round(1e6), sum.MeanTick)
	for _, e := range sum.WinShare() {
		share := 0.0
		if sum.Races > 0 {
			share = 100 * float64(e.Value) / float64(sum.Races)
		}
		fmt.Fprintf(w, "%-24s %5d %6.1f%%\n", e.Key, e.Value, share)
	}
	fmt.Fprintf(w, "mean leader multiplier:  %.3f\n", sum.LeaderMultiplier)
	fmt.Fprintf(w, "mean trailer multiplier: %.3f\n", sum.TrailerMultiplier)
}
