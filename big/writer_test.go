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
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/sstable"
	"github.com/cardinalhq/sstable/checksum"
	"github.com/cardinalhq/sstable/compress"
	"github.com/cardinalhq/sstable/metadata"
	"github.com/cardinalhq/sstable/txn"
)

func testDescriptor(t *testing.T) sstable.Descriptor {
	t.Helper()
	return sstable.Descriptor{
		Dir:        t.TempDir(),
		Keyspace:   "ks1",
		Table:      "events",
		TableID:    uuid.New(),
		Generation: 1,
		Version:    sstable.VersionBB,
	}
}

func testConfig() sstable.TableConfig {
	return sstable.TableConfig{
		PartitionerName:     "ByteOrderedPartitioner",
		BloomFilterFPChance: 0.01,
		ChunkLength:         256,
		SummaryInterval:     2,
	}
}

func testPartition(key string, ts int64) sstable.Partition {
	return sstable.Partition{
		Key: []byte(key),
		Rows: []sstable.Row{
			{
				Clustering: []byte("c1"),
				Cells: []sstable.Cell{
					{Name: []byte("value"), Value: []byte("payload-" + key), Timestamp: ts},
				},
			},
		},
	}
}

func openWriter(t *testing.T, desc sstable.Descriptor, cfg sstable.TableConfig, opts sstable.WriterOptions) sstable.Writer {
	t.Helper()
	w, err := sstable.Open(context.Background(), desc, 100, 0, cfg, nil, nil, nil, opts)
	require.NoError(t, err)
	return w
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestWriterCommitPublishesComponents(t *testing.T) {
	desc := testDescriptor(t)
	w := openWriter(t, desc, testConfig(), sstable.WriterOptions{OpenResult: true})

	_, err := w.Append(testPartition("apple", 1000))
	require.NoError(t, err)
	// An empty partition is skipped but still advances the order check.
	entry, err := w.Append(sstable.Partition{Key: []byte("banana")})
	require.NoError(t, err)
	assert.Nil(t, entry)
	_, err = w.Append(testPartition("cherry", 2000))
	require.NoError(t, err)

	reader, err := w.Finish(context.Background())
	require.NoError(t, err)
	require.NotNil(t, reader)
	require.NoError(t, w.Close())

	// Uncompressed table with a filter: CRC yes, CompressionInfo no.
	assert.True(t, reader.HasComponent(sstable.Filter))
	assert.True(t, reader.HasComponent(sstable.CRC))
	assert.False(t, reader.HasComponent(sstable.CompressionInfo))

	// The directory holds exactly the fixed component set, nothing else.
	names := dirEntries(t, desc.Dir)
	assert.Len(t, names, len(reader.Components()))
	for _, c := range reader.Components() {
		assert.Contains(t, names, filepath.Base(desc.FileFor(c)))
	}

	// Two index entries, not three: the empty partition wrote nothing.
	sf, err := os.Open(desc.FileFor(sstable.Summary))
	require.NoError(t, err)
	defer func() { _ = sf.Close() }()
	summary, err := ReadSummary(sf)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Count)

	stats := reader.Stats()
	assert.Equal(t, int64(2), stats.PartitionCount)
	assert.Equal(t, int64(2), stats.RowCount)
	assert.Equal(t, int64(1000), stats.MinTimestamp)
	assert.Equal(t, int64(2000), stats.MaxTimestamp)
	assert.InDelta(t, metadata.NoCompressionRatio, stats.CompressionRatio, 1e-9)

	// The committed filter holds the appended keys; the skipped empty
	// partition was never added.
	filter, err := reader.Filter()
	require.NoError(t, err)
	require.NotNil(t, filter)
	assert.True(t, filter.MayContain([]byte("apple")))
	assert.True(t, filter.MayContain([]byte("cherry")))
}

func TestWriterTOCListsEveryComponentAndIsWrittenLast(t *testing.T) {
	desc := testDescriptor(t)
	w := openWriter(t, desc, testConfig(), sstable.WriterOptions{})

	_, err := w.Append(testPartition("k1", 1))
	require.NoError(t, err)
	_, err = w.Finish(context.Background())
	require.NoError(t, err)

	raw, err := os.ReadFile(desc.FileFor(sstable.TOC))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Len(t, lines, len(w.Components()))
	for _, c := range w.Components() {
		assert.Contains(t, lines, filepath.Base(desc.FileFor(c)))
	}
}

func TestWriterRejectsOutOfOrderKeys(t *testing.T) {
	desc := testDescriptor(t)
	w := openWriter(t, desc, testConfig(), sstable.WriterOptions{})
	defer func() { _ = w.Close() }()

	_, err := w.Append(testPartition("mango", 1))
	require.NoError(t, err)
	before := w.FilePointer()

	_, err = w.Append(testPartition("mango", 2))
	assert.ErrorIs(t, err, sstable.ErrOutOfOrder)
	_, err = w.Append(testPartition("apple", 3))
	assert.ErrorIs(t, err, sstable.ErrOutOfOrder)
	_, err = w.Append(sstable.Partition{})
	assert.ErrorIs(t, err, sstable.ErrOutOfOrder)

	// Nothing was written by the rejected appends.
	assert.Equal(t, before, w.FilePointer())

	_, err = w.Append(testPartition("papaya", 4))
	assert.NoError(t, err)
}

func TestWriterCloseWithoutAppendLeavesNoFiles(t *testing.T) {
	desc := testDescriptor(t)
	w := openWriter(t, desc, testConfig(), sstable.WriterOptions{})

	require.NoError(t, w.Close())
	assert.Empty(t, dirEntries(t, desc.Dir))
}

func TestWriterAbortRemovesPartialFiles(t *testing.T) {
	desc := testDescriptor(t)
	w := openWriter(t, desc, testConfig(), sstable.WriterOptions{})

	_, err := w.Append(testPartition("k1", 1))
	require.NoError(t, err)
	assert.NotEmpty(t, dirEntries(t, desc.Dir))

	require.NoError(t, w.Abort(nil))
	assert.Empty(t, dirEntries(t, desc.Dir))

	// Abort is idempotent and append is now rejected.
	require.NoError(t, w.Abort(nil))
	_, err = w.Append(testPartition("k2", 2))
	assert.ErrorIs(t, err, txn.ErrProtocol)
}

func TestWriterCompressedTable(t *testing.T) {
	desc := testDescriptor(t)
	cfg := testConfig()
	cfg.CompressionEnabled = true
	w := openWriter(t, desc, cfg, sstable.WriterOptions{OpenResult: true})

	var want []byte
	var enc partitionEncoder
	keys := []string{"k01", "k02", "k03", "k04", "k05"}
	for _, k := range keys {
		p := testPartition(k, 100)
		data, _ := enc.encode(&p)
		want = append(want, data...)
		_, err := w.Append(p)
		require.NoError(t, err)
	}

	reader, err := w.Finish(context.Background())
	require.NoError(t, err)

	assert.True(t, reader.HasComponent(sstable.CompressionInfo))
	assert.False(t, reader.HasComponent(sstable.CRC))
	assert.Less(t, reader.Stats().CompressionRatio, 1.0)
	assert.Greater(t, reader.Stats().CompressionRatio, 0.0)

	infoFile, err := os.Open(desc.FileFor(sstable.CompressionInfo))
	require.NoError(t, err)
	defer func() { _ = infoFile.Close() }()
	info, err := compress.ReadInfo(infoFile)
	require.NoError(t, err)
	assert.Equal(t, int64(len(want)), info.DataLength)

	dataFile, err := os.Open(desc.FileFor(sstable.Data))
	require.NoError(t, err)
	defer func() { _ = dataFile.Close() }()
	got, err := compress.ReadAll(dataFile, info)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriterDigestCoversOnDiskBytes(t *testing.T) {
	desc := testDescriptor(t)
	w := openWriter(t, desc, testConfig(), sstable.WriterOptions{})

	_, err := w.Append(testPartition("k1", 1))
	require.NoError(t, err)
	_, err = w.Finish(context.Background())
	require.NoError(t, err)

	digestComponent := sstable.DigestFor(checksum.XXHash64)
	raw, err := os.ReadFile(desc.FileFor(digestComponent))
	require.NoError(t, err)
	recorded, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	require.NoError(t, err)

	data, err := os.ReadFile(desc.FileFor(sstable.Data))
	require.NoError(t, err)
	d, err := checksum.NewDigest(checksum.XXHash64)
	require.NoError(t, err)
	_, _ = d.Write(data)
	assert.Equal(t, d.Sum64(), recorded)
}

func TestWriterSummarySamplesIndex(t *testing.T) {
	desc := testDescriptor(t)
	w := openWriter(t, desc, testConfig(), sstable.WriterOptions{}) // interval 2

	keys := []string{"k1", "k2", "k3", "k4", "k5"}
	for i, k := range keys {
		_, err := w.Append(testPartition(k, int64(i)))
		require.NoError(t, err)
	}
	_, err := w.Finish(context.Background())
	require.NoError(t, err)

	f, err := os.Open(desc.FileFor(sstable.Summary))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	summary, err := ReadSummary(f)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Interval)
	assert.Equal(t, int64(5), summary.Count)
	require.Len(t, summary.Entries, 3)
	assert.Equal(t, []byte("k1"), summary.Entries[0].Key)
	assert.Equal(t, []byte("k3"), summary.Entries[1].Key)
	assert.Equal(t, []byte("k5"), summary.Entries[2].Key)
	assert.Equal(t, int64(0), summary.Entries[0].IndexOffset)
	assert.Greater(t, summary.Entries[1].IndexOffset, int64(0))
}

func TestWriterAppendPositionsAreMonotonic(t *testing.T) {
	desc := testDescriptor(t)
	w := openWriter(t, desc, testConfig(), sstable.WriterOptions{})
	defer func() { _ = w.Close() }()

	e1, err := w.Append(testPartition("a", 1))
	require.NoError(t, err)
	e2, err := w.Append(testPartition("b", 2))
	require.NoError(t, err)

	assert.Equal(t, int64(0), e1.Position)
	assert.Greater(t, e2.Position, e1.Position)
	assert.Equal(t, w.FilePointer(), w.OnDiskFilePointer())
}

func TestWriterMarkLeavesPositionsUnchanged(t *testing.T) {
	desc := testDescriptor(t)
	w := openWriter(t, desc, testConfig(), sstable.WriterOptions{})
	defer func() { _ = w.Close() }()

	_, err := w.Append(testPartition("a", 1))
	require.NoError(t, err)

	before := w.FilePointer()
	require.NoError(t, w.Mark())
	assert.Equal(t, before, w.FilePointer())
	assert.Equal(t, w.OnDiskFilePointer(), w.FilePointer())
}

func TestWriterAppendAfterFinishRejected(t *testing.T) {
	desc := testDescriptor(t)
	w := openWriter(t, desc, testConfig(), sstable.WriterOptions{})

	_, err := w.Append(testPartition("a", 1))
	require.NoError(t, err)
	_, err = w.Finish(context.Background())
	require.NoError(t, err)

	_, err = w.Append(testPartition("b", 2))
	assert.ErrorIs(t, err, txn.ErrProtocol)

	// Commit already happened inside Finish.
	assert.ErrorIs(t, w.Commit(nil), txn.ErrProtocol)
}

func TestWriterEmptyTableCommits(t *testing.T) {
	desc := testDescriptor(t)
	w := openWriter(t, desc, testConfig(), sstable.WriterOptions{OpenResult: true})

	reader, err := w.Finish(context.Background())
	require.NoError(t, err)
	require.NotNil(t, reader)

	assert.Equal(t, int64(0), reader.Stats().PartitionCount)
	for _, c := range reader.Components() {
		_, err := os.Stat(desc.FileFor(c))
		assert.NoError(t, err, "component %s missing", c)
	}
}

func TestWriterStatsDisabledFilter(t *testing.T) {
	desc := testDescriptor(t)
	cfg := testConfig()
	cfg.BloomFilterFPChance = sstable.BloomFilterDisabled
	w := openWriter(t, desc, cfg, sstable.WriterOptions{OpenResult: true})

	_, err := w.Append(testPartition("a", 1))
	require.NoError(t, err)
	reader, err := w.Finish(context.Background())
	require.NoError(t, err)

	assert.False(t, reader.HasComponent(sstable.Filter))
	_, err = os.Stat(desc.FileFor(sstable.Filter))
	assert.True(t, os.IsNotExist(err))

	filter, err := reader.Filter()
	require.NoError(t, err)
	assert.Nil(t, filter)
}

type countingObserver struct {
	completions int
}

func (o *countingObserver) Complete() { o.completions++ }

func TestWriterNotifiesObserversExactlyOnce(t *testing.T) {
	t.Run("commit", func(t *testing.T) {
		desc := testDescriptor(t)
		obs := &countingObserver{}
		w := openWriter(t, desc, testConfig(), sstable.WriterOptions{
			Observers: []sstable.FlushObserver{obs},
		})
		_, err := w.Append(testPartition("a", 1))
		require.NoError(t, err)
		_, err = w.Finish(context.Background())
		require.NoError(t, err)
		require.NoError(t, w.Close())
		assert.Equal(t, 1, obs.completions)
	})

	t.Run("abort", func(t *testing.T) {
		desc := testDescriptor(t)
		obs := &countingObserver{}
		w := openWriter(t, desc, testConfig(), sstable.WriterOptions{
			Observers: []sstable.FlushObserver{obs},
		})
		_, err := w.Append(testPartition("a", 1))
		require.NoError(t, err)
		require.NoError(t, w.Abort(nil))
		require.NoError(t, w.Close())
		assert.Equal(t, 1, obs.completions)
	})
}

func TestWriterRepairedAtOverride(t *testing.T) {
	desc := testDescriptor(t)
	w, err := sstable.Open(context.Background(), desc, 10, 111, testConfig(), nil, nil, nil,
		sstable.WriterOptions{OpenResult: true, RepairedAt: 999})
	require.NoError(t, err)

	_, err = w.Append(testPartition("a", 1))
	require.NoError(t, err)
	reader, err := w.Finish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(999), reader.Stats().RepairedAt)
}

func TestWriterStatsComponentDecodes(t *testing.T) {
	desc := testDescriptor(t)
	w := openWriter(t, desc, testConfig(), sstable.WriterOptions{OpenResult: true})

	_, err := w.Append(testPartition("a", 1))
	require.NoError(t, err)
	reader, err := w.Finish(context.Background())
	require.NoError(t, err)

	f, err := os.Open(desc.FileFor(sstable.Stats))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	components, err := metadata.Read(f)
	require.NoError(t, err)
	stats, ok := components[metadata.TypeStats].(metadata.StatsMetadata)
	require.True(t, ok)
	assert.Equal(t, reader.Stats(), stats)

	validation, ok := components[metadata.TypeValidation].(metadata.ValidationMetadata)
	require.True(t, ok)
	assert.Equal(t, "ByteOrderedPartitioner", validation.PartitionerName)
}

func TestTransactionCommitsAllWriters(t *testing.T) {
	lt := txn.NewLifecycleTransaction()
	descA := testDescriptor(t)
	descB := testDescriptor(t)

	wa, err := sstable.Open(context.Background(), descA, 10, 0, testConfig(), nil, nil, lt, sstable.WriterOptions{})
	require.NoError(t, err)
	wb, err := sstable.Open(context.Background(), descB, 10, 0, testConfig(), nil, nil, lt, sstable.WriterOptions{})
	require.NoError(t, err)

	_, err = wa.Append(testPartition("a", 1))
	require.NoError(t, err)
	_, err = wb.Append(testPartition("b", 2))
	require.NoError(t, err)

	require.NoError(t, lt.Commit(context.Background()))

	_, err = os.Stat(descA.FileFor(sstable.TOC))
	assert.NoError(t, err)
	_, err = os.Stat(descB.FileFor(sstable.TOC))
	assert.NoError(t, err)
}

func TestTransactionAbortRollsBackAllWriters(t *testing.T) {
	lt := txn.NewLifecycleTransaction()
	descA := testDescriptor(t)
	descB := testDescriptor(t)

	wa, err := sstable.Open(context.Background(), descA, 10, 0, testConfig(), nil, nil, lt, sstable.WriterOptions{})
	require.NoError(t, err)
	wb, err := sstable.Open(context.Background(), descB, 10, 0, testConfig(), nil, nil, lt, sstable.WriterOptions{})
	require.NoError(t, err)

	_, err = wa.Append(testPartition("a", 1))
	require.NoError(t, err)
	_, err = wb.Append(testPartition("b", 2))
	require.NoError(t, err)

	require.NoError(t, lt.Abort(context.Background()))
	assert.Empty(t, dirEntries(t, descA.Dir))
	assert.Empty(t, dirEntries(t, descB.Dir))
}

func TestTransactionCommitContinuesPastFailedWriter(t *testing.T) {
	lt := txn.NewLifecycleTransaction()
	descA := testDescriptor(t)
	descB := testDescriptor(t)

	wa, err := sstable.Open(context.Background(), descA, 10, 0, testConfig(), nil, nil, lt, sstable.WriterOptions{})
	require.NoError(t, err)
	wb, err := sstable.Open(context.Background(), descB, 10, 0, testConfig(), nil, nil, lt, sstable.WriterOptions{})
	require.NoError(t, err)

	_, err = wa.Append(testPartition("a", 1))
	require.NoError(t, err)
	_, err = wb.Append(testPartition("b", 2))
	require.NoError(t, err)

	// Occupy the first writer's final data path with a directory so its
	// publish rename fails after both writers prepared.
	require.NoError(t, os.Mkdir(descA.FileFor(sstable.Data), 0o755))

	err = lt.Commit(context.Background())
	require.Error(t, err)

	// The failed writer withheld its TOC, so it is not discoverable.
	_, err = os.Stat(descA.FileFor(sstable.TOC))
	assert.True(t, os.IsNotExist(err))

	// The first writer's failure arrives in the second writer's commit
	// as accumulated error, but must not block its publish: the healthy
	// writer's full component set lands at the final paths, TOC included.
	for _, c := range wb.Components() {
		_, err := os.Stat(descB.FileFor(c))
		assert.NoError(t, err, "component %s missing", c)
	}
}

func TestTransactionPrepareFailureRollsBackAllWriters(t *testing.T) {
	lt := txn.NewLifecycleTransaction()
	descA := testDescriptor(t)
	descB := testDescriptor(t)

	wa, err := sstable.Open(context.Background(), descA, 10, 0, testConfig(), nil, nil, lt, sstable.WriterOptions{})
	require.NoError(t, err)
	wb, err := sstable.Open(context.Background(), descB, 10, 0, testConfig(), nil, nil, lt, sstable.WriterOptions{})
	require.NoError(t, err)

	_, err = wa.Append(testPartition("a", 1))
	require.NoError(t, err)
	_, err = wb.Append(testPartition("b", 2))
	require.NoError(t, err)

	// Occupy the second writer's temporary stats path so its prepare
	// fails partway through.
	blocker := descB.TmpFileFor(sstable.Stats)
	require.NoError(t, os.WriteFile(blocker, []byte("in the way"), 0o644))

	err = lt.Commit(context.Background())
	require.Error(t, err)
	assert.Equal(t, txn.StateAborted, lt.State())

	// The first writer's partial files were rolled back too, and no
	// table was published anywhere.
	assert.Empty(t, dirEntries(t, descA.Dir))
	_, err = os.Stat(descA.FileFor(sstable.TOC))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(descB.FileFor(sstable.TOC))
	assert.True(t, os.IsNotExist(err))
}

func TestFactoryValidatesInput(t *testing.T) {
	cfg := testConfig()

	desc := testDescriptor(t)
	desc.Keyspace = "has-dash"
	_, err := sstable.Open(context.Background(), desc, 10, 0, cfg, nil, nil, nil, sstable.WriterOptions{})
	assert.Error(t, err)

	desc = testDescriptor(t)
	bad := cfg
	bad.PartitionerName = ""
	_, err = sstable.Open(context.Background(), desc, 10, 0, bad, nil, nil, nil, sstable.WriterOptions{})
	assert.Error(t, err)

	desc = testDescriptor(t)
	_, err = sstable.Open(context.Background(), desc, -1, 0, cfg, nil, nil, nil, sstable.WriterOptions{})
	assert.Error(t, err)

	desc = testDescriptor(t)
	desc.Version = sstable.Version("zz")
	_, err = sstable.Open(context.Background(), desc, 10, 0, cfg, nil, nil, nil, sstable.WriterOptions{})
	assert.ErrorIs(t, err, sstable.ErrUnknownFormat)
}

func TestVersionBADigestStillLatestAlgorithm(t *testing.T) {
	desc := testDescriptor(t)
	desc.Version = sstable.VersionBA
	w := openWriter(t, desc, testConfig(), sstable.WriterOptions{})

	_, err := w.Append(testPartition("a", 1))
	require.NoError(t, err)
	_, err = w.Finish(context.Background())
	require.NoError(t, err)

	// Digest algorithm tracks the newest format, not the table's own
	// version.
	_, err = os.Stat(desc.FileFor(sstable.DigestFor(checksum.XXHash64)))
	assert.NoError(t, err)
	_, err = os.Stat(desc.FileFor(sstable.DigestFor(checksum.CRC32)))
	assert.True(t, os.IsNotExist(err))
}
