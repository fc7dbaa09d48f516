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

// Package big implements the "big" sstable format family: one data
// component with an accompanying primary index, summary, filter,
// statistics, checksum, and table-of-contents files, published
// atomically by the two-phase writer lifecycle.
package big

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/sstable"
	"github.com/cardinalhq/sstable/internal/logctx"
	"github.com/cardinalhq/sstable/metadata"
	"github.com/cardinalhq/sstable/txn"
)

// Factory opens big-format writers for one format version.
type Factory struct {
	version sstable.Version
}

var _ sstable.WriterFactory = Factory{}

func init() {
	sstable.Register(sstable.VersionBA, Factory{version: sstable.VersionBA})
	sstable.Register(sstable.VersionBB, Factory{version: sstable.VersionBB})
}

// Open validates the descriptor and configuration and returns a writer
// in the fresh state. No files are created until the first append. When
// lt is non-nil the writer is tracked for coordinated commit or abort.
func (f Factory) Open(ctx context.Context,
	desc sstable.Descriptor,
	keyCount int64,
	repairedAt int64,
	cfg sstable.TableConfig,
	collector *metadata.Collector,
	header *metadata.SerializationHeader,
	lt *txn.LifecycleTransaction,
	opts sstable.WriterOptions) (sstable.Writer, error) {

	if desc.Version != f.version {
		return nil, fmt.Errorf("sstable: factory for %q opened with version %q", f.version, desc.Version)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if keyCount < 0 {
		return nil, fmt.Errorf("sstable: negative key count estimate %d", keyCount)
	}
	if collector == nil {
		collector = metadata.NewCollector()
	}
	if opts.RepairedAt > 0 {
		repairedAt = opts.RepairedAt
	}

	w := &writer{
		desc:       desc,
		cfg:        cfg,
		opts:       opts,
		components: sstable.ComponentsFor(cfg, desc.Version),
		collector:  collector,
		header:     header,
		keyCount:   keyCount,
		repairedAt: repairedAt,
		log:        logctx.FromContext(ctx),
		attrs: otelmetric.WithAttributes(
			attribute.String("keyspace", desc.Keyspace),
			attribute.String("table", desc.Table),
		),
	}
	w.lifecycle = txn.NewLifecycle(txn.Hooks{
		Prepare:  w.doPrepare,
		Commit:   w.doCommit,
		Abort:    w.doAbort,
		Close:    w.closeFiles,
		Terminal: w.onTerminal,
	})

	if lt != nil {
		if err := lt.Track(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}
