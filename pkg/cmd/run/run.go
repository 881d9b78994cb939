package run

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/racing-lottery-go/log"
	"github.com/mpapenbr/racing-lottery-go/pkg/cmd/common"
	"github.com/mpapenbr/racing-lottery-go/pkg/config"
	"github.com/mpapenbr/racing-lottery-go/pkg/publish"
	"github.com/mpapenbr/racing-lottery-go/pkg/publish/natspub"
	"github.com/mpapenbr/racing-lottery-go/pkg/publish/wsstream"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/director"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/event"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/runner"
	"github.com/mpapenbr/racing-lottery-go/pkg/utils/broadcast"
)

func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "runs a single race and prints the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRace(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().Float64Var(&config.Speed, "speed", 1,
		"Playback speed (0 means: go as fast as possible)")
	cmd.Flags().StringVar(&config.NatsURL, "nats-url", "",
		"publish race events to this NATS server (e.g. nats://localhost:4222)")
	cmd.Flags().StringVar(&config.NatsSubject, "nats-subject", "rly.race",
		"subject prefix for published race events")
	cmd.Flags().StringVar(&config.WsAddr, "ws-addr", "",
		"stream race events via websocket on this address (e.g. :8080)")
	cmd.Flags().DurationVar(&linger, "linger", 0,
		"keep the websocket stream open for this duration after the race")
	return cmd
}

var linger time.Duration

//nolint:funlen // by design
func runRace(ctx context.Context, out io.Writer) error {
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

	if err := common.WaitForRequiredServices(ctx); err != nil {
		return err
	}
	cfg := config.Resolve()
	s := common.LoadSettings()
	names := common.LoadContestants(s)
	src, seed := common.RandomSource()
	log.Info("Preparing race",
		log.Int("contestants", len(names)),
		log.Int64("seed", seed),
		log.Float64("speed", cfg.Speed),
		log.Bool("shuffle", cfg.Shuffle),
		log.Bool("strict", cfg.Strict))

	d := director.New(
		director.WithSettings(s),
		director.WithSource(src),
		director.WithStrict(cfg.Strict),
		director.WithShuffle(cfg.Shuffle),
	)

	events := make(chan event.Event)
	snapshots := make(chan director.Snapshot)
	eventBcst := broadcast.New("events", events,
		broadcast.WithTelemetry[event.Event](),
		broadcast.WithBufferSize[event.Event](4096))
	snapBcst := broadcast.New("snapshots", snapshots,
		broadcast.WithTelemetry[director.Snapshot]())

	wg := sync.WaitGroup{}
	if config.NatsURL != "" {
		conn, err := natspub.Connect(config.NatsURL)
		if err != nil {
			return err
		}
		defer conn.Close()
		pub := natspub.New(conn, natspub.WithPrefix(config.NatsSubject))
		evSub, snapSub := eventBcst.Subscribe(), snapBcst.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			pub.Forward(ctx, evSub, snapSub)
		}()
	}
	wsCtx, wsCancel := context.WithCancel(ctx)
	defer wsCancel()
	if config.WsAddr != "" {
		wsBcst := broadcast.New("ws", publish.Encode(eventBcst.Subscribe(), snapBcst.Subscribe()),
			broadcast.WithTelemetry[[]byte](),
			broadcast.WithBufferSize[[]byte](4096))
		defer wsBcst.Close()
		go func() {
			if err := wsstream.Serve(wsCtx, config.WsAddr, wsstream.New(wsBcst)); err != nil {
				log.Error("websocket stream stopped", log.ErrorField(err))
			}
		}()
	}
	fps := max(s.FPS, 1)
	r := runner.New(d,
		runner.WithSpeed(cfg.Speed),
		runner.WithEvents(events),
		runner.WithSnapshots(snapshots, max(fps/10, 1)))
	res, err := r.Run(ctx, names)
	close(events)
	close(snapshots)
	wg.Wait()
	if err != nil {
		return err
	}
	PrintResult(out, res, seed)

	if config.WsAddr != "" && linger > 0 {
		log.Info("Keeping websocket stream open", log.Duration("linger", linger))
		select {
		case <-ctx.Done():
		case <-time.After(linger):
		}
	}
	return nil
}

var medals = map[int]string{1: "🥇", 2: "🥈", 3: "🥉"}

// PrintResult writes the final ranking
func PrintResult(w io.Writer, res *runner.Result, seed int64) {
	fmt.Fprintf(w, "Race %s (seed %d) finished after %d ticks (%s)\n",
		res.RaceID, seed, res.Ticks, res.RaceTime.Truncate(10*time.Millisecond))
	for _, s := range res.Standings {
		medal, ok := medals[s.FinishRank]
		if !ok {
			medal = "  "
		}
		fmt.Fprintf(w, "%s %3d. %-24s %10s\n",
			medal, s.FinishRank, s.Name, s.FinishTime.Truncate(10*time.Millisecond))
	}
	fmt.Fprintf(w, "Winner: %s\n", res.Winner)
}
