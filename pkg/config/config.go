package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	ContestantsFile   string  // path to the contestants csv file
	SettingsFile      string  // path to the race settings json file
	Seed              int64   // seed for the race random source (0 means: time based)
	Speed             float64 // playback speed factor (0 means: go as fast as possible)
	Shuffle           bool    // shuffle lane assignment
	Strict            bool    // panic on engine invariant violations
	NatsURL           string  // if set, race events are published to this NATS server
	NatsSubject       string  // subject prefix for published events
	WsAddr            string  // if set, race events are streamed via websocket on this addr
	WaitForServices   string  // duration to wait for other services to be ready
	LogLevel          string  // sets the log level (zap log level values)
	LogFormat         string  // text vs json
	LogFilter         string  // zapfilter rules
	LogFile           string  // log destination for the terminal view (default: discard)
	Sound             bool    // play sound cues in the terminal view
	WatchSettings     bool    // reload the settings file when it changes
	Races             int     // number of races for batch statistics
	EnableTelemetry   bool    // enable telemetry
	TelemetryEndpoint string  // endpoint for telemetry ("stdout" writes to console)
)

// Config holds the configuration values which are used by the application
type Config struct {
	Seed    int64
	Speed   float64
	Shuffle bool
	Strict  bool
}

// Resolve collects the values of the CLI into a Config
func Resolve() Config {
	return Config{
		Seed:    Seed,
		Speed:   Speed,
		Shuffle: Shuffle,
		Strict:  Strict,
	}
}
