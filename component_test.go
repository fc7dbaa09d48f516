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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardinalhq/sstable/checksum"
)

func TestComponentsForCompressionExclusivity(t *testing.T) {
	cfg := TableConfig{PartitionerName: "p", BloomFilterFPChance: 0.01}

	uncompressed := ComponentsFor(cfg, VersionBB)
	assert.Contains(t, uncompressed, CRC)
	assert.NotContains(t, uncompressed, CompressionInfo)

	cfg.CompressionEnabled = true
	compressed := ComponentsFor(cfg, VersionBB)
	assert.Contains(t, compressed, CompressionInfo)
	assert.NotContains(t, compressed, CRC)
}

func TestComponentsForFilterPresence(t *testing.T) {
	cfg := TableConfig{PartitionerName: "p", BloomFilterFPChance: 0.01}
	assert.Contains(t, ComponentsFor(cfg, VersionBB), Filter)

	cfg.BloomFilterFPChance = BloomFilterDisabled
	assert.NotContains(t, ComponentsFor(cfg, VersionBB), Filter)
}

func TestComponentsForDigestFollowsLatestVersion(t *testing.T) {
	cfg := TableConfig{PartitionerName: "p", BloomFilterFPChance: 1.0}

	// Even tables written at an older version carry the newest digest
	// algorithm.
	for _, v := range []Version{VersionBA, VersionBB} {
		components := ComponentsFor(cfg, v)
		assert.Contains(t, components, DigestFor(checksum.XXHash64), "version %s", v)
		assert.NotContains(t, components, DigestFor(checksum.CRC32), "version %s", v)
	}
}

func TestComponentsForAlwaysIncludesFixedSet(t *testing.T) {
	cfg := TableConfig{PartitionerName: "p", BloomFilterFPChance: 1.0}
	components := ComponentsFor(cfg, VersionBB)
	for _, c := range []Component{Data, PrimaryIndex, Stats, Summary, TOC} {
		assert.Contains(t, components, c)
	}
}

func TestComponentSuffixes(t *testing.T) {
	assert.Equal(t, "Data.db", Data.Suffix())
	assert.Equal(t, "Index.db", PrimaryIndex.Suffix())
	assert.Equal(t, "Statistics.db", Stats.Suffix())
	assert.Equal(t, "Summary.db", Summary.Suffix())
	assert.Equal(t, "TOC.txt", TOC.Suffix())
	assert.Equal(t, "Filter.db", Filter.Suffix())
	assert.Equal(t, "CompressionInfo.db", CompressionInfo.Suffix())
	assert.Equal(t, "CRC.db", CRC.Suffix())
	assert.Equal(t, "Digest.crc32", DigestFor(checksum.CRC32).Suffix())
	assert.Equal(t, "Digest.xxhash64", DigestFor(checksum.XXHash64).Suffix())
}
