// Copyright (C) 2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package sstable

const (
	// DefaultChunkLength is the compression and CRC chunk size.
	DefaultChunkLength = 64 * 1024

	// DefaultSummaryInterval samples every Nth primary index entry
	// into the summary component.
	DefaultSummaryInterval = 128

	// BloomFilterDisabled as a false-positive chance leaves the filter
	// component out entirely.
	BloomFilterDisabled = 1.0
)

// TableConfig carries the table-level settings that determine which
// components a table has and how they are written.
type TableConfig struct {
	// PartitionerName identifies the partitioner that defined the sort
	// order of the appended keys. Recorded in the stats component.
	PartitionerName string

	// BloomFilterFPChance is the target false-positive chance; any
	// value below 1.0 adds a filter component.
	BloomFilterFPChance float64

	// CompressionEnabled switches the data component to chunked zstd.
	CompressionEnabled bool

	// ChunkLength is the uncompressed chunk size for compression and
	// for CRC coverage. Zero uses DefaultChunkLength.
	ChunkLength int

	// SummaryInterval is the index sampling interval for the summary
	// component. Zero uses DefaultSummaryInterval.
	SummaryInterval int
}

// Validate checks that the configuration is usable.
func (c *TableConfig) Validate() error {
	if c.PartitionerName == "" {
		return &ConfigError{Field: "PartitionerName", Message: "cannot be empty"}
	}
	if c.BloomFilterFPChance <= 0 || c.BloomFilterFPChance > 1 {
		return &ConfigError{Field: "BloomFilterFPChance", Message: "must be in (0, 1]"}
	}
	if c.ChunkLength < 0 {
		return &ConfigError{Field: "ChunkLength", Message: "cannot be negative"}
	}
	if c.SummaryInterval < 0 {
		return &ConfigError{Field: "SummaryInterval", Message: "cannot be negative"}
	}
	return nil
}

// EffectiveChunkLength returns the chunk length, defaulted.
func (c TableConfig) EffectiveChunkLength() int {
	if c.ChunkLength > 0 {
		return c.ChunkLength
	}
	return DefaultChunkLength
}

// EffectiveSummaryInterval returns the summary interval, defaulted.
func (c TableConfig) EffectiveSummaryInterval() int {
	if c.SummaryInterval > 0 {
		return c.SummaryInterval
	}
	return DefaultSummaryInterval
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "sstable config: " + e.Field + " " + e.Message
}
