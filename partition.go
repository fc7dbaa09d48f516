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

// DeletionTime marks a partition or row tombstone. The zero value is
// live (no tombstone).
type DeletionTime struct {
	// MarkedForDeleteAt is the write timestamp of the tombstone.
	MarkedForDeleteAt int64
	// LocalDeletionTime is the local server time (unix seconds) the
	// tombstone was created, used for expiry.
	LocalDeletionTime int32
}

// IsLive reports whether no tombstone is present.
func (d DeletionTime) IsLive() bool {
	return d.MarkedForDeleteAt == 0 && d.LocalDeletionTime == 0
}

// Cell is a single named value inside a row. A cell with a non-zero
// LocalDeletionTime is a cell tombstone.
type Cell struct {
	Name              []byte
	Value             []byte
	Timestamp         int64
	LocalDeletionTime int32
}

// IsTombstone reports whether the cell is a deletion marker.
func (c Cell) IsTombstone() bool {
	return c.LocalDeletionTime != 0
}

// Row is one clustered row of a partition. Rows within a partition must
// be supplied in ascending clustering order.
type Row struct {
	Clustering []byte
	Deletion   DeletionTime
	Cells      []Cell
}

// Partition is the unit of sorted input supplied to a writer: one
// partition key with its rows, already filtered and ordered by the
// caller.
type Partition struct {
	Key      []byte
	Deletion DeletionTime
	Rows     []Row
}

// IsEmpty reports whether appending this partition would write nothing:
// no rows survive filtering and no partition-level tombstone exists.
func (p *Partition) IsEmpty() bool {
	return len(p.Rows) == 0 && p.Deletion.IsLive()
}
