// Package contestants provides the names taking part in a race.
package contestants

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/mpapenbr/racing-lottery-go/log"
)

// FallbackCount is the number of synthetic names used when no contestants are available
const FallbackCount = 20

var ErrNoContestants = errors.New("no contestants found")

// Load reads contestants from the csv file at path.
// If the file is unavailable or contains no names the synthetic fallback list is
// returned. The result is capped to maxEntries (maxEntries <= 0 means: no cap).
func Load(path string, maxEntries int) []string {
	l := log.Default().Named("contestants")
	names, err := ReadFile(path)
	if err != nil {
		l.Warn("using fallback contestants",
			log.String("file", path), log.ErrorField(err))
		names = Fallback(FallbackCount)
	}
	capped := Cap(names, maxEntries)
	if len(capped) < len(names) {
		l.Info("contestant list capped",
			log.Int("found", len(names)), log.Int("max", maxEntries))
	}
	return capped
}

func ReadFile(path string) ([]string, error) {
	if path == "" {
		return nil, ErrNoContestants
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read parses csv data. The first row is a header and skipped,
// the first column of each remaining row holds the name.
func Read(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read contestants: %w", err)
	}
	if len(records) > 0 {
		records = records[1:]
	}
	names := lo.Compact(lo.Map(records, func(row []string, _ int) string {
		if len(row) == 0 {
			return ""
		}
		return strings.TrimSpace(row[0])
	}))
	if len(names) == 0 {
		return nil, ErrNoContestants
	}
	return names, nil
}

// Fallback returns n synthetic names "Racer 1" .. "Racer n"
func Fallback(n int) []string {
	return lo.Times(n, func(i int) string {
		return fmt.Sprintf("Racer %d", i+1)
	})
}

func Cap(names []string, maxEntries int) []string {
	if maxEntries <= 0 || len(names) <= maxEntries {
		return names
	}
	return names[:maxEntries]
}
