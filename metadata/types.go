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

// Package metadata accumulates per-table statistics during the append
// phase and produces the immutable metadata components written into the
// stats file of a finished table.
package metadata

// Type tags one metadata component inside the stats file.
type Type int

const (
	// TypeValidation identifies the partitioner and bloom filter
	// parameters the table was built with.
	TypeValidation Type = iota
	// TypeCompaction carries the partition-key cardinality estimator
	// used to size compaction outputs.
	TypeCompaction
	// TypeStats is the main statistics snapshot.
	TypeStats
	// TypeHeader is the serialization header describing column layout.
	TypeHeader
)

func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "Validation"
	case TypeCompaction:
		return "Compaction"
	case TypeStats:
		return "Stats"
	case TypeHeader:
		return "Header"
	default:
		return "Unknown"
	}
}

// Component is one finalized metadata entry.
type Component interface {
	Type() Type
}

// ValidationMetadata records how keys were ordered and filtered.
type ValidationMetadata struct {
	PartitionerName     string  `cbor:"partitionerName"`
	BloomFilterFPChance float64 `cbor:"bloomFilterFPChance"`
}

func (ValidationMetadata) Type() Type { return TypeValidation }

// CompactionMetadata holds a serialized HyperLogLog sketch of the
// partition keys written to the table.
type CompactionMetadata struct {
	CardinalityEstimator []byte `cbor:"cardinalityEstimator"`
}

func (CompactionMetadata) Type() Type { return TypeCompaction }

// StatsMetadata is the immutable statistics snapshot for one table.
type StatsMetadata struct {
	MinTimestamp         int64 `cbor:"minTimestamp"`
	MaxTimestamp         int64 `cbor:"maxTimestamp"`
	MinLocalDeletionTime int32 `cbor:"minLocalDeletionTime"`
	MaxLocalDeletionTime int32 `cbor:"maxLocalDeletionTime"`

	PartitionCount int64 `cbor:"partitionCount"`
	RowCount       int64 `cbor:"rowCount"`
	CellCount      int64 `cbor:"cellCount"`
	TombstoneCount int64 `cbor:"tombstoneCount"`

	// EstimatedPartitionCount is the HLL cardinality estimate; it can
	// differ from PartitionCount once tables are merged.
	EstimatedPartitionCount int64 `cbor:"estimatedPartitionCount"`

	TotalDataLength  int64   `cbor:"totalDataLength"`
	CompressionRatio float64 `cbor:"compressionRatio"`
	RepairedAt       int64   `cbor:"repairedAt"`

	// DDSketch-encoded distributions.
	EstimatedPartitionSize     []byte `cbor:"estimatedPartitionSize"`
	EstimatedCellsPerPartition []byte `cbor:"estimatedCellsPerPartition"`
}

func (StatsMetadata) Type() Type { return TypeStats }

// SerializationHeader describes the column layout rows were encoded
// with. It is stored so readers can decode without the schema source.
type SerializationHeader struct {
	KeyType         string            `cbor:"keyType"`
	ClusteringTypes []string          `cbor:"clusteringTypes"`
	Columns         map[string]string `cbor:"columns"`
}

func (SerializationHeader) Type() Type { return TypeHeader }
