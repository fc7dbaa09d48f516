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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/sstable"
	"github.com/cardinalhq/sstable/bloom"
	"github.com/cardinalhq/sstable/checksum"
	"github.com/cardinalhq/sstable/compress"
	"github.com/cardinalhq/sstable/metadata"
	"github.com/cardinalhq/sstable/txn"
)

// writer is the big-format sstable.Writer. It owns its component files
// exclusively from the first append until commit; the lifecycle state
// machine decides which operations are legal when.
type writer struct {
	desc       sstable.Descriptor
	cfg        sstable.TableConfig
	opts       sstable.WriterOptions
	components []sstable.Component

	collector  *metadata.Collector
	header     *metadata.SerializationHeader
	keyCount   int64
	repairedAt int64

	lifecycle *txn.Lifecycle
	log       *slog.Logger
	attrs     otelmetric.MeasurementOption

	// Data path, nil until the first append opens the files.
	opened   bool
	dataFile *os.File
	dataBuf  *bufio.Writer    // uncompressed path
	comp     *compress.Writer // compressed path
	crc      *checksum.ChunkedCRC
	digest   *checksum.Digest
	logical  int64 // uncompressed path position

	index   *indexWriter
	idxFile *os.File
	filter  *bloom.Filter
	enc     partitionEncoder

	lastKey []byte

	tmpFiles      []string
	publishFailed bool

	stats  metadata.StatsMetadata
	reader *sstable.Reader
}

var _ sstable.Writer = (*writer)(nil)

func (w *writer) Descriptor() sstable.Descriptor { return w.desc }

func (w *writer) Components() []sstable.Component {
	cs := make([]sstable.Component, len(w.components))
	copy(cs, w.components)
	return cs
}

// Append writes one partition in sort order. Empty partitions produce
// no index entry and touch nothing on disk.
func (w *writer) Append(p sstable.Partition) (*sstable.RowIndexEntry, error) {
	if err := w.lifecycle.Begin(); err != nil {
		return nil, err
	}
	if len(p.Key) == 0 {
		return nil, fmt.Errorf("%w: empty partition key", sstable.ErrOutOfOrder)
	}
	if w.lastKey != nil && bytes.Compare(p.Key, w.lastKey) <= 0 {
		return nil, fmt.Errorf("%w: key %x not after %x", sstable.ErrOutOfOrder, p.Key, w.lastKey)
	}
	w.lastKey = append(w.lastKey[:0], p.Key...)

	if p.IsEmpty() {
		return nil, nil
	}

	if err := w.ensureOpen(); err != nil {
		return nil, err
	}

	data, obs := w.enc.encode(&p)
	position := w.FilePointer()

	if err := w.writeData(data); err != nil {
		return nil, fmt.Errorf("append to %s: %w", w.desc, err)
	}
	if err := w.index.append(p.Key, position); err != nil {
		return nil, fmt.Errorf("append to %s: %w", w.desc, err)
	}
	if w.filter != nil {
		w.filter.Add(p.Key)
	}
	w.collector.Observe(obs)

	ctx := context.Background()
	partitionsAppendedCounter.Add(ctx, 1, w.attrs)
	bytesWrittenCounter.Add(ctx, obs.Size, w.attrs)

	return &sstable.RowIndexEntry{Position: position}, nil
}

// FilePointer returns the logical data offset.
func (w *writer) FilePointer() int64 {
	if w.comp != nil {
		return w.comp.FilePointer()
	}
	return w.logical
}

// OnDiskFilePointer returns the physical data offset.
func (w *writer) OnDiskFilePointer() int64 {
	if w.comp != nil {
		return w.comp.OnDiskPointer()
	}
	return w.logical
}

// Mark records a restart point before irreversible actions. The big
// format rolls back by deleting whole temporary files, so there is no
// position to capture; the hook exists for collaborators that keep
// their own checkpoint state.
func (w *writer) Mark() error { return nil }

// Finish drives prepare then commit. A prepare failure aborts the
// writer and returns the accumulated error.
func (w *writer) Finish(ctx context.Context) (*sstable.Reader, error) {
	if err := w.lifecycle.PrepareToCommit(); err != nil {
		return nil, w.lifecycle.Abort(err)
	}
	if err := w.lifecycle.Commit(nil); err != nil {
		return nil, err
	}
	return w.reader, nil
}

func (w *writer) PrepareToCommit() error      { return w.lifecycle.PrepareToCommit() }
func (w *writer) Commit(accum error) error    { return w.lifecycle.Commit(accum) }
func (w *writer) Abort(accum error) error     { return w.lifecycle.Abort(accum) }
func (w *writer) Close() error                { return w.lifecycle.Close() }

// ensureOpen lazily creates the data and index files so a writer that
// is closed without ever appending leaves nothing behind.
func (w *writer) ensureOpen() error {
	if w.opened {
		return nil
	}

	digest, err := checksum.NewDigest(sstable.LatestVersion.ChecksumType())
	if err != nil {
		return err
	}

	dataFile, err := w.createTmp(sstable.Data)
	if err != nil {
		return err
	}
	idxFile, err := w.createTmp(sstable.PrimaryIndex)
	if err != nil {
		w.removeTmp(dataFile)
		return err
	}

	w.dataFile = dataFile
	w.idxFile = idxFile
	w.digest = digest
	if w.cfg.CompressionEnabled {
		// The digest covers the bytes as stored on disk.
		w.comp = compress.NewWriter(io.MultiWriter(dataFile, digest), w.cfg.EffectiveChunkLength())
	} else {
		w.dataBuf = bufio.NewWriter(dataFile)
		w.crc = checksum.NewChunkedCRC(w.cfg.EffectiveChunkLength())
	}
	w.index = newIndexWriter(idxFile, w.cfg.EffectiveSummaryInterval())
	if w.cfg.BloomFilterFPChance < sstable.BloomFilterDisabled {
		w.filter = bloom.New(w.keyCount, w.cfg.BloomFilterFPChance)
	}
	w.opened = true
	return nil
}

func (w *writer) writeData(p []byte) error {
	if w.comp != nil {
		_, err := w.comp.Write(p)
		return err
	}
	if _, err := w.dataBuf.Write(p); err != nil {
		return err
	}
	_, _ = w.digest.Write(p)
	_, _ = w.crc.Write(p)
	w.logical += int64(len(p))
	return nil
}

func (w *writer) createTmp(c sstable.Component) (*os.File, error) {
	path := w.desc.TmpFileFor(c)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w.tmpFiles = append(w.tmpFiles, path)
	return f, nil
}

func (w *writer) removeTmp(f *os.File) {
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	for i, p := range w.tmpFiles {
		if p == name {
			w.tmpFiles = append(w.tmpFiles[:i], w.tmpFiles[i+1:]...)
			break
		}
	}
}

// writeComponent writes one prepare-phase component to its temporary
// path and syncs it.
func (w *writer) writeComponent(c sstable.Component, write func(io.Writer) error) error {
	f, err := w.createTmp(c)
	if err != nil {
		return err
	}
	buf := bufio.NewWriter(f)
	if err := write(buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", c, err)
	}
	if err := buf.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush %s: %w", c, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", c, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", c, err)
	}
	return nil
}

func (w *writer) hasComponent(c sstable.Component) bool {
	for _, have := range w.components {
		if have == c {
			return true
		}
	}
	return false
}

func (w *writer) closeFiles() error {
	var accum error
	if w.dataFile != nil {
		accum = txn.Accumulate(accum, w.dataFile.Close())
		w.dataFile = nil
	}
	if w.idxFile != nil {
		accum = txn.Accumulate(accum, w.idxFile.Close())
		w.idxFile = nil
	}
	return accum
}
