package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"market-movers-alerts/internal/dedup"
)

// DayLayout is the day-bucket key format, ISO dates in the reference timezone.
const DayLayout = "2006-01-02"

// Store persists dedup watermarks as a single JSON file. Loading never fails
// the caller: a missing, unreadable, or malformed file degrades to an empty
// state. Writes are atomic overwrites and are the one unrecoverable failure,
// since losing watermarks risks duplicate alerts.
type Store struct {
	path   string
	logger zerolog.Logger
}

// NewStore builds a file-backed state store.
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.With().Str("component", "state_store").Logger(),
	}
}

// Load reads the persisted state, returning an empty map on any failure.
func (s *Store) Load() dedup.State {
	st := make(dedup.State)
	if s.path == "" {
		return st
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("state file unreadable; starting empty")
		}
		return st
	}

	if err := json.Unmarshal(raw, &st); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("state file corrupt; starting empty")
		return make(dedup.State)
	}
	return st
}

// Prune drops day buckets more than retentionDays before today. A bucket
// dated exactly retentionDays ago is kept. Keys that do not parse as dates
// are left alone. No-op when retentionDays <= 0. Returns the number of
// buckets removed.
func (s *Store) Prune(st dedup.State, today time.Time, retentionDays int) int {
	if retentionDays <= 0 {
		return 0
	}

	cutoff, err := time.Parse(DayLayout, today.Format(DayLayout))
	if err != nil {
		return 0
	}
	horizon := time.Duration(retentionDays) * 24 * time.Hour

	removed := 0
	for key := range st {
		day, err := time.Parse(DayLayout, key)
		if err != nil {
			continue
		}
		if cutoff.Sub(day) > horizon {
			delete(st, key)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Int("retention_days", retentionDays).Msg("pruned stale day buckets")
	}
	return removed
}

// Save writes the state file atomically, creating the parent directory if
// needed.
func (s *Store) Save(st dedup.State) error {
	if s.path == "" {
		return nil
	}

	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
