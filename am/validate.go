package am

import (
	"github.com/teranos/structix/assemble"
	"github.com/teranos/structix/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Sniff window: 0 = default, negative = invalid
	if c.Formats.SniffBytes < 0 {
		return errors.Newf("formats.sniff_bytes must be >= 0, got %d", c.Formats.SniffBytes)
	}
	if c.Formats.BondTolerance < 0 || c.Formats.BondTolerance > 3 {
		return errors.Newf("formats.bond_tolerance must be between 0 and 3, got %f", c.Formats.BondTolerance)
	}

	if _, err := assemble.ParseIndices(c.Read.Indices); err != nil {
		return errors.Wrap(err, "read.indices")
	}
	if _, err := assemble.ParseSubsequent(c.Read.Subsequent); err != nil {
		return errors.Wrap(err, "read.subsequent")
	}

	if c.Catalog.RetentionDays < 0 {
		return errors.Newf("catalog.retention_days must be >= 0, got %d", c.Catalog.RetentionDays)
	}

	if c.Workspace.FetchTimeoutSec < 0 {
		return errors.Newf("workspace.fetch_timeout_sec must be >= 0, got %d", c.Workspace.FetchTimeoutSec)
	}

	if c.Watch.DebounceMS < 0 {
		return errors.Newf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS)
	}
	if c.Watch.MaxPerMinute < 0 {
		return errors.Newf("watch.max_per_minute must be >= 0, got %d", c.Watch.MaxPerMinute)
	}

	return nil
}
