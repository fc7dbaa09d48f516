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

import (
	"fmt"
	"os"
	"sync"

	"github.com/cardinalhq/sstable/bloom"
	"github.com/cardinalhq/sstable/metadata"
)

// Reader is the read-only handle to a finished, committed table. It
// exposes the identity, the immutable statistics snapshot, and the
// component file locations; the actual read path lives elsewhere.
type Reader struct {
	desc       Descriptor
	components []Component
	stats      metadata.StatsMetadata
	maxDataAge int64

	filterOnce sync.Once
	filter     *bloom.Filter
	filterErr  error
}

// NewReader is used by format packages once their commit succeeded.
func NewReader(desc Descriptor, components []Component, stats metadata.StatsMetadata, maxDataAge int64) *Reader {
	cs := make([]Component, len(components))
	copy(cs, components)
	return &Reader{
		desc:       desc,
		components: cs,
		stats:      stats,
		maxDataAge: maxDataAge,
	}
}

// Descriptor returns the table identity.
func (r *Reader) Descriptor() Descriptor { return r.desc }

// Components returns the table's component set.
func (r *Reader) Components() []Component {
	cs := make([]Component, len(r.components))
	copy(cs, r.components)
	return cs
}

// HasComponent reports whether c belongs to the table.
func (r *Reader) HasComponent(c Component) bool {
	for _, have := range r.components {
		if have == c {
			return true
		}
	}
	return false
}

// Stats returns the immutable statistics snapshot.
func (r *Reader) Stats() metadata.StatsMetadata { return r.stats }

// MaxDataAge returns the max-data-age recorded at finish time.
func (r *Reader) MaxDataAge() int64 { return r.maxDataAge }

// Path returns the on-disk location of a component file.
func (r *Reader) Path(c Component) string { return r.desc.FileFor(c) }

// Filter loads the table's bloom filter, caching it on first use. It
// returns (nil, nil) for tables written without one.
func (r *Reader) Filter() (*bloom.Filter, error) {
	if !r.HasComponent(Filter) {
		return nil, nil
	}
	r.filterOnce.Do(func() {
		raw, err := os.ReadFile(r.Path(Filter))
		if err != nil {
			r.filterErr = fmt.Errorf("read filter component: %w", err)
			return
		}
		r.filter, r.filterErr = bloom.UnmarshalBinary(raw)
	})
	return r.filter, r.filterErr
}
