// Package common contains the setup shared by the subcommands.
package common

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/mpapenbr/racing-lottery-go/log"
	"github.com/mpapenbr/racing-lottery-go/pkg/config"
	"github.com/mpapenbr/racing-lottery-go/pkg/contestants"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/random"
	"github.com/mpapenbr/racing-lottery-go/pkg/settings"
	"github.com/mpapenbr/racing-lottery-go/pkg/utils"
)

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger creates the logger according to the log flags and makes it the default
func SetupLogger(w io.Writer) (*log.Logger, error) {
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(
			w,
			ParseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		logger = log.DevLogger(
			w,
			ParseLogLevel(config.LogLevel, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
	if config.LogFilter != "" {
		filtered, err := logger.WithFilter(config.LogFilter)
		if err != nil {
			return nil, fmt.Errorf("invalid log filter: %w", err)
		}
		logger = filtered
	}
	log.ResetDefault(logger)
	return logger, nil
}

// SetupTelemetry starts exporters and runtime metrics if enabled.
// The returned function must be called on shutdown.
func SetupTelemetry(ctx context.Context) func() {
	if !config.EnableTelemetry {
		return func() {}
	}
	log.Info("Enabling telemetry", log.String("endpoint", config.TelemetryEndpoint))
	telemetry, err := config.SetupTelemetry(ctx)
	if err != nil {
		log.Warn("Could not setup telemetry", log.ErrorField(err))
		return func() {}
	}
	if err := otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		log.Warn("Could not start runtime metrics", log.ErrorField(err))
	}
	return telemetry.Shutdown
}

// LoadSettings reads the settings file, missing or invalid values use defaults
func LoadSettings() settings.Settings {
	return settings.Load(config.SettingsFile)
}

// LoadContestants reads the contestants file, falling back to synthetic names
func LoadContestants(s settings.Settings) []string {
	return contestants.Load(config.ContestantsFile, s.MaxContestants)
}

// RandomSource creates the race source from the seed flag (0 means: time based)
func RandomSource() (src random.Source, seed int64) {
	if config.Seed != 0 {
		return random.New(config.Seed), config.Seed
	}
	return random.NewTimeSeeded()
}

// WaitForRequiredServices blocks until configured external services accept connections
func WaitForRequiredServices(ctx context.Context) error {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}
	addrs := []string{}
	if config.NatsURL != "" {
		addr, err := utils.HostPort(config.NatsURL)
		if err != nil {
			return fmt.Errorf("invalid nats url: %w", err)
		}
		addrs = append(addrs, addr)
	}
	wg := sync.WaitGroup{}
	errs := make(chan error, len(addrs))
	for _, addr := range addrs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := utils.WaitForTCP(ctx, addr, timeout); err != nil {
				errs <- err
			}
		}()
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		return fmt.Errorf("required services not ready: %w", err)
	}
	log.Debug("Required services are available")
	return nil
}

// OpenLogFile returns the writer for loggers of interactive commands
func OpenLogFile(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{io.Discard}, nil
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
