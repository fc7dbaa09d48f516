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
	"context"
	"fmt"
	"sync"

	"github.com/cardinalhq/sstable/metadata"
	"github.com/cardinalhq/sstable/txn"
)

// RowIndexEntry locates one appended partition in the data component.
type RowIndexEntry struct {
	// Position is the partition's offset in the uncompressed data
	// stream.
	Position int64
}

// FlushObserver is notified at writer lifecycle points. Complete is
// invoked exactly once per writer after the terminal transition,
// whether the writer committed or aborted.
type FlushObserver interface {
	Complete()
}

// WriterOptions configures finalization behavior. It is supplied at
// construction; there are no post-construction setters, so no ordering
// hazard exists between configuration and Finish.
type WriterOptions struct {
	// OpenResult makes a successful Finish return a read-only handle
	// to the finished table.
	OpenResult bool

	// RepairedAt overrides the factory-supplied repaired-at timestamp
	// when positive.
	RepairedAt int64

	// MaxDataAge is recorded on the resulting table handle.
	MaxDataAge int64

	// Observers are attached before the first append.
	Observers []FlushObserver
}

// Writer builds one table. Appends must arrive in ascending partition
// key order; a write fault is fatal to the writer and the caller is
// expected to Abort. The writer owns its component files exclusively
// until Commit, when ownership passes to the returned Reader.
type Writer interface {
	txn.Transactional

	// Descriptor returns the identity of the table being written.
	Descriptor() Descriptor

	// Components returns the component set fixed at construction.
	Components() []Component

	// Append writes one partition. It returns nil (and writes nothing)
	// when the partition is empty after filtering. Supplying partitions
	// out of sort order returns ErrOutOfOrder before anything is
	// written.
	Append(p Partition) (*RowIndexEntry, error)

	// FilePointer is the current logical (uncompressed) data offset.
	FilePointer() int64

	// OnDiskFilePointer is the current physical data offset.
	OnDiskFilePointer() int64

	// Mark records a restart point in the underlying storage. Called
	// before irreversible actions tied to a checkpoint.
	Mark() error

	// Finish drives prepare and commit, returning the read-only handle
	// when WriterOptions.OpenResult was set. On a prepare failure the
	// writer is aborted and the accumulated error returned.
	Finish(ctx context.Context) (*Reader, error)
}

// WriterFactory opens writers for one format version. keyCount is a
// sizing estimate for the filter and summary, not an exact-count
// contract. The opened writer registers itself with lt (when non-nil)
// so a coordinated multi-writer abort can reach it.
type WriterFactory interface {
	Open(ctx context.Context,
		desc Descriptor,
		keyCount int64,
		repairedAt int64,
		cfg TableConfig,
		collector *metadata.Collector,
		header *metadata.SerializationHeader,
		lt *txn.LifecycleTransaction,
		opts WriterOptions) (Writer, error)
}

var (
	factoriesMu sync.RWMutex
	factories   = map[Version]WriterFactory{}
)

// Register makes a factory available for a format version. Format
// packages call it from init.
func Register(v Version, f WriterFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if _, dup := factories[v]; dup {
		panic(fmt.Sprintf("sstable: duplicate writer factory for version %q", v))
	}
	factories[v] = f
}

// Open creates a writer for desc using the factory registered for its
// format version.
func Open(ctx context.Context,
	desc Descriptor,
	keyCount int64,
	repairedAt int64,
	cfg TableConfig,
	collector *metadata.Collector,
	header *metadata.SerializationHeader,
	lt *txn.LifecycleTransaction,
	opts WriterOptions) (Writer, error) {

	factoriesMu.RLock()
	f := factories[desc.Version]
	factoriesMu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, desc.Version)
	}
	return f.Open(ctx, desc, keyCount, repairedAt, cfg, collector, header, lt, opts)
}
