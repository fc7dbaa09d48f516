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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cardinalhq/sstable"
	"github.com/cardinalhq/sstable/compress"
	"github.com/cardinalhq/sstable/metadata"
	"github.com/cardinalhq/sstable/txn"
)

// doPrepare finalizes every component at its temporary path. All work
// here is reversible: until commit renames the files into place, an
// abort simply deletes them.
func (w *writer) doPrepare() error {
	// A table with zero appended partitions still commits a complete,
	// empty component set.
	if err := w.ensureOpen(); err != nil {
		return err
	}

	if w.comp != nil {
		if err := w.comp.Flush(); err != nil {
			return fmt.Errorf("flush data: %w", err)
		}
	} else {
		if err := w.dataBuf.Flush(); err != nil {
			return fmt.Errorf("flush data: %w", err)
		}
	}
	if err := w.dataFile.Sync(); err != nil {
		return fmt.Errorf("sync data: %w", err)
	}
	if w.comp != nil {
		w.collector.UpdateCompressionRatio(w.comp.FilePointer(), w.comp.OnDiskPointer())
	}

	if err := w.index.finish(); err != nil {
		return err
	}

	finalized, err := w.collector.Finalize(w.cfg.PartitionerName, w.cfg.BloomFilterFPChance, w.repairedAt, w.header)
	if err != nil {
		return err
	}
	stats, ok := finalized[metadata.TypeStats].(metadata.StatsMetadata)
	if !ok {
		return fmt.Errorf("finalize %s: missing stats component", w.desc)
	}
	w.stats = stats

	if err := w.writeComponent(sstable.Stats, func(out io.Writer) error {
		return metadata.Write(out, finalized)
	}); err != nil {
		return err
	}

	if err := w.writeComponent(sstable.Summary, w.index.writeSummary); err != nil {
		return err
	}

	if w.filter != nil {
		if err := w.writeComponent(sstable.Filter, func(out io.Writer) error {
			raw, err := w.filter.MarshalBinary()
			if err != nil {
				return err
			}
			_, err = out.Write(raw)
			return err
		}); err != nil {
			return err
		}
	}

	if w.comp != nil {
		if err := w.writeComponent(sstable.CompressionInfo, func(out io.Writer) error {
			return compress.WriteInfo(out, w.comp.Info())
		}); err != nil {
			return err
		}
	} else {
		if err := w.writeComponent(sstable.CRC, func(out io.Writer) error {
			return w.crc.Finish(out)
		}); err != nil {
			return err
		}
	}

	digestComponent := sstable.DigestFor(w.digest.Type())
	if err := w.writeComponent(digestComponent, func(out io.Writer) error {
		_, err := io.WriteString(out, w.digest.String()+"\n")
		return err
	}); err != nil {
		return err
	}

	// The TOC is written last and renamed last: its presence at the
	// final path is what marks the table as published.
	if err := w.writeComponent(sstable.TOC, func(out io.Writer) error {
		for _, c := range w.components {
			if _, err := io.WriteString(out, filepath.Base(w.desc.FileFor(c))+"\n"); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if w.opts.OpenResult {
		w.reader = sstable.NewReader(w.desc, w.components, w.stats, w.opts.MaxDataAge)
	}
	return nil
}

// doCommit renames every component from its temporary path to its final
// one, TOC last. If any of this writer's renames failed its TOC stays
// unpublished so readers never see a partial table. accum may carry
// failures from other transaction participants; those must not block a
// healthy writer's publish, only its own faults do.
func (w *writer) doCommit(accum error) error {
	closeErr := w.closeFiles()
	accum = txn.Accumulate(accum, closeErr)
	publishFailed := closeErr != nil

	ordered := make([]sstable.Component, 0, len(w.components))
	for _, c := range w.components {
		if c.Kind != sstable.KindTOC {
			ordered = append(ordered, c)
		}
	}
	ordered = append(ordered, sstable.TOC)

	for _, c := range ordered {
		if c.Kind == sstable.KindTOC && publishFailed {
			break
		}
		tmp := w.desc.TmpFileFor(c)
		final := w.desc.FileFor(c)
		if err := os.Rename(tmp, final); err != nil {
			publishFailed = true
			accum = txn.Accumulate(accum, fmt.Errorf("publish %s: %w", c, err))
		}
	}
	w.publishFailed = publishFailed

	if dir, err := os.Open(w.desc.Dir); err == nil {
		_ = dir.Sync()
		_ = dir.Close()
	}
	return accum
}

// doAbort removes every temporary file this writer created. Missing
// files are fine: a failed prepare may have stopped partway.
func (w *writer) doAbort(accum error) error {
	accum = txn.Accumulate(accum, w.closeFiles())
	for _, path := range w.tmpFiles {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			accum = txn.Accumulate(accum, fmt.Errorf("remove %s: %w", path, err))
		}
	}
	return accum
}

// onTerminal fires observers and counters exactly once per writer.
func (w *writer) onTerminal(committed bool) {
	for _, obs := range w.opts.Observers {
		obs.Complete()
	}
	ctx := context.Background()
	switch {
	case committed && !w.publishFailed:
		tablesCommittedCounter.Add(ctx, 1, w.attrs)
		w.log.Info("sstable committed",
			"table", w.desc.String(),
			"partitions", w.stats.PartitionCount,
			"dataLength", w.stats.TotalDataLength)
	case committed:
		w.log.Error("sstable publish failed, table withheld", "table", w.desc.String())
	default:
		tablesAbortedCounter.Add(ctx, 1, w.attrs)
		w.log.Info("sstable build aborted", "table", w.desc.String())
	}
}
