//nolint:lll,funlen // readability
package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		modify     func(s *Settings)
		issuesKeys []string
	}{
		{
			name:   "empty object yields defaults",
			json:   `{}`,
			modify: func(s *Settings) {},
		},
		{
			name: "values from file",
			json: `{"car_crash_chance": 0.01, "car_crash_cooldown": 1000, "car_boost_multiplier": 1.8, "fps": 30, "course_length": 5000}`,
			modify: func(s *Settings) {
				s.CrashChance = 0.01
				s.CrashCooldown = time.Second
				s.BoostMultiplier = 1.8
				s.FPS = 30
				s.CourseLength = 5000
			},
		},
		{
			name:       "invalid values fall back per key",
			json:       `{"car_crash_chance": 2, "car_boost_chance": "often", "fps": 12.5, "car_boost_duration": 500}`,
			modify:     func(s *Settings) { s.BoostDuration = 500 * time.Millisecond },
			issuesKeys: []string{KeyCrashChance, KeyBoostChance, KeyFPS},
		},
		{
			name:   "null is treated as absent",
			json:   `{"car_crash_chance": null}`,
			modify: func(s *Settings) {},
		},
		{
			name:       "near gap above far gap",
			json:       `{"catchup_far_gap": 0.04, "catchup_near_gap": 0.1}`,
			modify:     func(s *Settings) {},
			issuesKeys: []string{KeyCatchupNearGap},
		},
		{
			name:   "unknown keys are ignored",
			json:   `{"car_color": "red", "hazard_chance": 0}`,
			modify: func(s *Settings) { s.HazardChance = 0 },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, issues, err := Parse(tt.json)
			require.NoError(t, err)
			want := Default()
			tt.modify(&want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
			keys := make([]string, 0)
			for _, i := range issues {
				keys = append(keys, i.Key)
			}
			assert.ElementsMatch(t, tt.issuesKeys, keys)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, _, err := Parse(`{"car_crash_chance": `)
	assert.Error(t, err)
	_, _, err = Parse(`[1,2,3]`)
	assert.Error(t, err)
}

func TestLoad_YAML(t *testing.T) {
	f := filepath.Join(t.TempDir(), "settings.yml")
	require.NoError(t, os.WriteFile(f, []byte("car_crash_chance: 0.01\ncountdown: 500\nfps: 30\nmax_items: abc\n"), 0o600))
	s := Load(f)
	assert.InDelta(t, 0.01, s.CrashChance, 1e-12)
	assert.Equal(t, 500*time.Millisecond, s.Countdown)
	assert.Equal(t, 30, s.FPS)
	assert.Equal(t, Default().MaxItems, s.MaxItems)
}

func TestParseYAML_NotAMapping(t *testing.T) {
	_, _, err := ParseYAML("- a\n- b\n")
	assert.Error(t, err)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	assert.Equal(t, Default(), Load(filepath.Join(t.TempDir(), "missing.json")))
	assert.Equal(t, Default(), Load(""))
}

func TestLoad_MalformedFileUsesDefaults(t *testing.T) {
	f := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(f, []byte("not json"), 0o600))
	assert.Equal(t, Default(), Load(f))
}

func TestSettings_Ticks(t *testing.T) {
	s := Default()
	assert.Equal(t, 120, s.CrashCooldownTicks())
	assert.Equal(t, 90, s.BoostDurationTicks())
	assert.Equal(t, 90, s.PickupBoostTicks())
	assert.Equal(t, time.Second/60, s.TickInterval())

	s.FPS = 0
	assert.Equal(t, 60, s.Ticks(time.Second))
}

func TestSettings_ToMap(t *testing.T) {
	s := Default()
	s.CrashChance = 0.5
	s.Countdown = 1500 * time.Millisecond
	data := s.ToMap()
	assert.Len(t, data, len(keyDefs))
	assert.Equal(t, int64(1500), data[KeyCountdown])
	assert.Equal(t, 0.5, data[KeyCrashChance])
}

func TestWatcher_Reload(t *testing.T) {
	f := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(f, []byte(`{"car_crash_chance": 0.01}`), 0o600))

	changed := make(chan Settings, 4)
	w := NewWatcher(f, WithOnChange(func(s Settings) {
		select {
		case changed <- s:
		default:
		}
	}))
	assert.InDelta(t, 0.01, w.Current().CrashChance, 1e-12)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher a moment to register the file
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(f, []byte(`{"car_crash_chance": 0.02}`), 0o600))

	assert.Eventually(t, func() bool {
		return w.Current().CrashChance == 0.02
	}, 5*time.Second, 20*time.Millisecond)
	assert.NotEmpty(t, changed)
	cancel()
	assert.NoError(t, <-done)
}

func TestLoadFile_ReportsErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)

	f := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(f, []byte(`{"car_crash_chance": `), 0o600))
	_, err = LoadFile(f)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(f, []byte(`{"car_crash_chance": 0.3}`), 0o600))
	s, err := LoadFile(f)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, s.CrashChance, 1e-12)
}

func TestWatcher_KeepsSettingsOnMalformedWrite(t *testing.T) {
	f := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(f, []byte(`{"car_crash_chance": 0.01}`), 0o600))

	changed := make(chan Settings, 8)
	w := NewWatcher(f,
		WithDebounce(20*time.Millisecond),
		WithOnChange(func(s Settings) { changed <- s }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	// a truncated file as seen while an editor is still writing
	require.NoError(t, os.WriteFile(f, []byte(`{"car_crash_chance": `), 0o600))
	time.Sleep(300 * time.Millisecond)
	assert.InDelta(t, 0.01, w.Current().CrashChance, 1e-12)
	assert.Empty(t, changed)

	require.NoError(t, os.WriteFile(f, []byte(`{"car_crash_chance": 0.05}`), 0o600))
	assert.Eventually(t, func() bool {
		return w.Current().CrashChance == 0.05
	}, 5*time.Second, 20*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
	close(changed)
	for s := range changed {
		assert.InDelta(t, 0.05, s.CrashChance, 1e-12)
	}
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	f := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(f, []byte(`{"car_crash_chance": 0.01}`), 0o600))

	changed := make(chan Settings, 16)
	w := NewWatcher(f,
		WithDebounce(300*time.Millisecond),
		WithOnChange(func(s Settings) { changed <- s }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(f, []byte(`{"car_crash_chance": `), 0o600))
	require.NoError(t, os.WriteFile(f, []byte(`{"car_crash_chance": 0.04}`), 0o600))

	assert.Eventually(t, func() bool {
		return w.Current().CrashChance == 0.04
	}, 5*time.Second, 20*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
	close(changed)
	got := []float64{}
	for s := range changed {
		got = append(got, s.CrashChance)
	}
	assert.Equal(t, []float64{0.04}, got)
}
