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

package big

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/cardinalhq/sstable"
	"github.com/cardinalhq/sstable/metadata"
)

// liveLocalDeletionTime is recorded for live cells in the local
// deletion time bounds, so the minimum reflects the earliest tombstone
// expiry in the partition.
const liveLocalDeletionTime int32 = math.MaxInt32

// partitionEncoder serializes partitions into the data component's
// byte layout and gathers the per-partition statistics observation as
// it goes. Layout, all little-endian:
//
//	partition: u16 key len, key, deletion, u32 row count, rows
//	row:       u16 clustering len, clustering, deletion, u32 cell count, cells
//	cell:      u16 name len, name, u32 value len, value, i64 timestamp, i32 local deletion time
//	deletion:  i64 marked-for-delete-at, i32 local deletion time
type partitionEncoder struct {
	buf bytes.Buffer
	obs metadata.PartitionObservation
}

func (e *partitionEncoder) reset() {
	e.buf.Reset()
	e.obs = metadata.PartitionObservation{
		MinTimestamp:         math.MaxInt64,
		MaxTimestamp:         math.MinInt64,
		MinLocalDeletionTime: math.MaxInt32,
		MaxLocalDeletionTime: math.MinInt32,
	}
}

// encode serializes p and returns the bytes (valid until the next
// encode) and the statistics observation, with Size and Key filled in.
func (e *partitionEncoder) encode(p *sstable.Partition) ([]byte, metadata.PartitionObservation) {
	e.reset()

	e.putBytes16(p.Key)
	e.putDeletion(p.Deletion)
	e.putUint32(uint32(len(p.Rows)))
	for i := range p.Rows {
		row := &p.Rows[i]
		e.obs.Rows++
		e.putBytes16(row.Clustering)
		e.putDeletion(row.Deletion)
		e.putUint32(uint32(len(row.Cells)))
		for _, cell := range row.Cells {
			e.putCell(cell)
		}
	}

	e.normalize()
	e.obs.Key = p.Key
	e.obs.Size = int64(e.buf.Len())
	return e.buf.Bytes(), e.obs
}

func (e *partitionEncoder) putCell(c sstable.Cell) {
	e.putBytes16(c.Name)
	e.putBytes32(c.Value)
	e.putInt64(c.Timestamp)
	e.putInt32(c.LocalDeletionTime)

	e.obs.Cells++
	e.observeTimestamp(c.Timestamp)
	if c.IsTombstone() {
		e.obs.Tombstones++
		e.observeLocalDeletion(c.LocalDeletionTime)
	} else {
		e.observeLocalDeletion(liveLocalDeletionTime)
	}
}

func (e *partitionEncoder) putDeletion(d sstable.DeletionTime) {
	e.putInt64(d.MarkedForDeleteAt)
	e.putInt32(d.LocalDeletionTime)
	if !d.IsLive() {
		e.obs.Tombstones++
		e.observeTimestamp(d.MarkedForDeleteAt)
		e.observeLocalDeletion(d.LocalDeletionTime)
	}
}

func (e *partitionEncoder) observeTimestamp(ts int64) {
	if ts < e.obs.MinTimestamp {
		e.obs.MinTimestamp = ts
	}
	if ts > e.obs.MaxTimestamp {
		e.obs.MaxTimestamp = ts
	}
}

func (e *partitionEncoder) observeLocalDeletion(ldt int32) {
	if ldt < e.obs.MinLocalDeletionTime {
		e.obs.MinLocalDeletionTime = ldt
	}
	if ldt > e.obs.MaxLocalDeletionTime {
		e.obs.MaxLocalDeletionTime = ldt
	}
}

// normalize collapses the bounds when nothing was observed so empty
// extremes never leak into the table statistics.
func (e *partitionEncoder) normalize() {
	if e.obs.MaxTimestamp < e.obs.MinTimestamp {
		e.obs.MinTimestamp, e.obs.MaxTimestamp = 0, 0
	}
	if e.obs.MaxLocalDeletionTime < e.obs.MinLocalDeletionTime {
		e.obs.MinLocalDeletionTime = liveLocalDeletionTime
		e.obs.MaxLocalDeletionTime = liveLocalDeletionTime
	}
}

func (e *partitionEncoder) putBytes16(b []byte) {
	e.putUint16(uint16(len(b)))
	e.buf.Write(b)
}

func (e *partitionEncoder) putBytes32(b []byte) {
	e.putUint32(uint32(len(b)))
	e.buf.Write(b)
}

func (e *partitionEncoder) putUint16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	e.buf.Write(tmp[:])
}

func (e *partitionEncoder) putUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	e.buf.Write(tmp[:])
}

func (e *partitionEncoder) putInt64(v int64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	e.buf.Write(tmp[:])
}

func (e *partitionEncoder) putInt32(v int32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	e.buf.Write(tmp[:])
}
