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

package metadata

import (
	"fmt"
	"math"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/axiomhq/hyperloglog"
)

// NoCompressionRatio marks a table written without compression.
const NoCompressionRatio = -1.0

// sketchRelativeAccuracy is the DDSketch relative accuracy for the size
// and cell-count distributions.
const sketchRelativeAccuracy = 0.01

// PartitionObservation summarizes one non-empty appended partition.
type PartitionObservation struct {
	Key  []byte
	Size int64 // bytes written to the data component

	Rows       int64
	Cells      int64
	Tombstones int64

	MinTimestamp int64
	MaxTimestamp int64

	MinLocalDeletionTime int32
	MaxLocalDeletionTime int32
}

// Collector accumulates running statistics while partitions are
// appended. Aggregation is commutative and associative, so observation
// order does not affect the result. A Collector is owned by a single
// writer and is not safe for concurrent use.
type Collector struct {
	minTimestamp int64
	maxTimestamp int64
	minLocalDel  int32
	maxLocalDel  int32

	partitionCount int64
	rowCount       int64
	cellCount      int64
	tombstoneCount int64
	dataLength     int64

	cardinality       *hyperloglog.Sketch
	partitionSize     *ddsketch.DDSketch
	cellsPerPartition *ddsketch.DDSketch

	compressionRatio float64
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	sizes, err := ddsketch.NewDefaultDDSketch(sketchRelativeAccuracy)
	if err != nil {
		// Static accuracy, cannot fail.
		panic(fmt.Sprintf("metadata: create size sketch: %v", err))
	}
	cells, err := ddsketch.NewDefaultDDSketch(sketchRelativeAccuracy)
	if err != nil {
		panic(fmt.Sprintf("metadata: create cell sketch: %v", err))
	}
	return &Collector{
		minTimestamp:      math.MaxInt64,
		maxTimestamp:      math.MinInt64,
		minLocalDel:       math.MaxInt32,
		maxLocalDel:       math.MinInt32,
		cardinality:       hyperloglog.New14(),
		partitionSize:     sizes,
		cellsPerPartition: cells,
		compressionRatio:  NoCompressionRatio,
	}
}

// Observe folds one partition into the running aggregates. Call once
// per non-empty appended partition.
func (c *Collector) Observe(o PartitionObservation) {
	c.partitionCount++
	c.rowCount += o.Rows
	c.cellCount += o.Cells
	c.tombstoneCount += o.Tombstones
	c.dataLength += o.Size

	if o.MinTimestamp < c.minTimestamp {
		c.minTimestamp = o.MinTimestamp
	}
	if o.MaxTimestamp > c.maxTimestamp {
		c.maxTimestamp = o.MaxTimestamp
	}
	if o.MinLocalDeletionTime < c.minLocalDel {
		c.minLocalDel = o.MinLocalDeletionTime
	}
	if o.MaxLocalDeletionTime > c.maxLocalDel {
		c.maxLocalDel = o.MaxLocalDeletionTime
	}

	c.cardinality.Insert(o.Key)
	// Values are non-negative, Add cannot fail.
	_ = c.partitionSize.Add(float64(o.Size))
	_ = c.cellsPerPartition.Add(float64(o.Cells))
}

// UpdateCompressionRatio records the physical/logical ratio measured
// after the data component was flushed.
func (c *Collector) UpdateCompressionRatio(logical, onDisk int64) {
	if logical <= 0 {
		return
	}
	c.compressionRatio = float64(onDisk) / float64(logical)
}

// PartitionCount returns the number of partitions observed so far.
func (c *Collector) PartitionCount() int64 { return c.partitionCount }

// Finalize produces the metadata component map from the current
// aggregate state. It is a pure read: calling it repeatedly without an
// intervening Observe yields identical snapshots.
func (c *Collector) Finalize(partitionerName string, bloomFPChance float64, repairedAt int64, header *SerializationHeader) (map[Type]Component, error) {
	hll, err := c.cardinality.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("metadata: marshal cardinality estimator: %w", err)
	}

	var sizeSketch, cellSketch []byte
	c.partitionSize.Encode(&sizeSketch, false)
	c.cellsPerPartition.Encode(&cellSketch, false)

	stats := StatsMetadata{
		MinTimestamp:               c.minTimestamp,
		MaxTimestamp:               c.maxTimestamp,
		MinLocalDeletionTime:       c.minLocalDel,
		MaxLocalDeletionTime:       c.maxLocalDel,
		PartitionCount:             c.partitionCount,
		RowCount:                   c.rowCount,
		CellCount:                  c.cellCount,
		TombstoneCount:             c.tombstoneCount,
		EstimatedPartitionCount:    int64(c.cardinality.Estimate()),
		TotalDataLength:            c.dataLength,
		CompressionRatio:           c.compressionRatio,
		RepairedAt:                 repairedAt,
		EstimatedPartitionSize:     sizeSketch,
		EstimatedCellsPerPartition: cellSketch,
	}
	if c.partitionCount == 0 {
		stats.MinTimestamp, stats.MaxTimestamp = 0, 0
		stats.MinLocalDeletionTime, stats.MaxLocalDeletionTime = 0, 0
	}

	components := map[Type]Component{
		TypeValidation: ValidationMetadata{
			PartitionerName:     partitionerName,
			BloomFilterFPChance: bloomFPChance,
		},
		TypeCompaction: CompactionMetadata{CardinalityEstimator: hll},
		TypeStats:      stats,
	}
	if header != nil {
		components[TypeHeader] = *header
	}
	return components, nil
}
