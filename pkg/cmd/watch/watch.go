package watch

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/racing-lottery-go/log"
	"github.com/mpapenbr/racing-lottery-go/pkg/cmd/common"
	"github.com/mpapenbr/racing-lottery-go/pkg/config"
	"github.com/mpapenbr/racing-lottery-go/pkg/settings"
	"github.com/mpapenbr/racing-lottery-go/pkg/view"
	"github.com/mpapenbr/racing-lottery-go/pkg/view/sound"
)

func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "shows races in the terminal",
		Long: `Shows the race in the terminal.
Keys: space/enter starts a race, r resets, q/esc quits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchRaces(cmd.Context())
		},
	}
	cmd.Flags().Float64Var(&config.Speed, "speed", 1,
		"Playback speed")
	cmd.Flags().StringVar(&config.LogFile, "log-file", "",
		"write log output to this file (default: discard)")
	cmd.Flags().BoolVar(&config.Sound, "sound", false,
		"play sound cues on race events")
	cmd.Flags().BoolVar(&config.WatchSettings, "watch-settings", false,
		"reload the settings file when it changes (applies to the next race)")
	return cmd
}

//nolint:funlen // by design
func watchRaces(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logFile, err := common.OpenLogFile(config.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()
	if _, err = common.SetupLogger(logFile); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	shutdown := common.SetupTelemetry(ctx)
	defer shutdown()

	current := common.LoadSettings
	if config.WatchSettings && config.SettingsFile != "" {
		w := settings.NewWatcher(config.SettingsFile,
			settings.WithOnChange(func(s settings.Settings) {
				log.Info("settings changed, applying to next race",
					log.Int("fps", s.FPS))
			}))
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Warn("settings watcher stopped", log.ErrorField(err))
			}
		}()
		current = w.Current
	}
	s := current()
	names := common.LoadContestants(s)
	src, seed := common.RandomSource()
	log.Info("watching races",
		log.Int64("seed", seed),
		log.Int("contestants", len(names)),
		log.Bool("shuffle", config.Shuffle),
		log.Bool("strict", config.Strict))

	opts := []sessionOption{withStrict(config.Strict), withShuffle(config.Shuffle)}
	if config.Sound {
		player, err := sound.NewPlayer()
		if err != nil {
			log.Warn("sound disabled", log.ErrorField(err))
		} else {
			defer player.Close()
			opts = append(opts, withEventHandler(player.Play))
		}
	}
	sess := newSession(names, current, src, opts...)

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err = screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	return loop(ctx, screen, sess, max(config.Speed, 0.1))
}

func loop(ctx context.Context, screen tcell.Screen, sess *session, speed float64) error {
	v := view.New(screen)
	keys := make(chan view.Action)
	go func() {
		for {
			switch ev := screen.PollEvent().(type) {
			case nil:
				return
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				select {
				case keys <- view.ActionFor(ev):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	interval := func() time.Duration {
		return time.Duration(float64(sess.director.Settings().TickInterval()) / speed)
	}
	ticker := time.NewTicker(interval())
	defer ticker.Stop()
	for {
		v.Draw(sess.director.Snapshot())
		select {
		case <-ctx.Done():
			return nil
		case a := <-keys:
			if !sess.handle(a) {
				return nil
			}
			ticker.Reset(interval())
		case <-ticker.C:
			sess.step()
		}
	}
}
