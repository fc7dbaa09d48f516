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
	"fmt"

	"go.opentelemetry.io/otel"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var (
	partitionsAppendedCounter otelmetric.Int64Counter
	bytesWrittenCounter       otelmetric.Int64Counter
	tablesCommittedCounter    otelmetric.Int64Counter
	tablesAbortedCounter      otelmetric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/sstable/big")

	var err error
	partitionsAppendedCounter, err = meter.Int64Counter(
		"sstable.writer.partitions.appended",
		otelmetric.WithDescription("Number of non-empty partitions appended"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create partitions.appended counter: %w", err))
	}

	bytesWrittenCounter, err = meter.Int64Counter(
		"sstable.writer.bytes.written",
		otelmetric.WithDescription("Logical bytes written to data components"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create bytes.written counter: %w", err))
	}

	tablesCommittedCounter, err = meter.Int64Counter(
		"sstable.writer.tables.committed",
		otelmetric.WithDescription("Number of tables committed"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create tables.committed counter: %w", err))
	}

	tablesAbortedCounter, err = meter.Int64Counter(
		"sstable.writer.tables.aborted",
		otelmetric.WithDescription("Number of table builds aborted"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create tables.aborted counter: %w", err))
	}
}
