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

import "github.com/cardinalhq/sstable/checksum"

// Kind enumerates the physical file kinds a table can be made of.
type Kind int

const (
	KindData Kind = iota
	KindPrimaryIndex
	KindStats
	KindSummary
	KindTOC
	KindFilter
	KindCompressionInfo
	KindCRC
	KindDigest
)

// Component identifies one physical file of a table. Digest components
// additionally carry the checksum algorithm, which appears in the file
// suffix.
type Component struct {
	Kind     Kind
	Checksum checksum.Type // set only for KindDigest
}

// The fixed components.
var (
	Data            = Component{Kind: KindData}
	PrimaryIndex    = Component{Kind: KindPrimaryIndex}
	Stats           = Component{Kind: KindStats}
	Summary         = Component{Kind: KindSummary}
	TOC             = Component{Kind: KindTOC}
	Filter          = Component{Kind: KindFilter}
	CompressionInfo = Component{Kind: KindCompressionInfo}
	CRC             = Component{Kind: KindCRC}
)

// DigestFor returns the digest component for a checksum algorithm.
func DigestFor(t checksum.Type) Component {
	return Component{Kind: KindDigest, Checksum: t}
}

// Suffix returns the file-name suffix for this component.
func (c Component) Suffix() string {
	switch c.Kind {
	case KindData:
		return "Data.db"
	case KindPrimaryIndex:
		return "Index.db"
	case KindStats:
		return "Statistics.db"
	case KindSummary:
		return "Summary.db"
	case KindTOC:
		return "TOC.txt"
	case KindFilter:
		return "Filter.db"
	case KindCompressionInfo:
		return "CompressionInfo.db"
	case KindCRC:
		return "CRC.db"
	case KindDigest:
		return "Digest." + string(c.Checksum)
	default:
		return "Unknown.db"
	}
}

func (c Component) String() string {
	return c.Suffix()
}

// ComponentsFor computes the component set a table built with cfg under
// format version v must consist of. It is a pure function of its
// inputs, evaluated once at writer construction; the result never
// changes afterwards, so anything conditionally needed later has to be
// decided here.
//
// The digest algorithm follows LatestVersion rather than v: digests are
// consumed by the running binary's verification path, which always
// speaks the current default.
func ComponentsFor(cfg TableConfig, v Version) []Component {
	components := []Component{
		Data,
		PrimaryIndex,
		Stats,
		Summary,
		TOC,
		DigestFor(LatestVersion.ChecksumType()),
	}
	if cfg.BloomFilterFPChance < 1.0 {
		components = append(components, Filter)
	}
	// CompressionInfo and CRC are mutually exclusive: compressed chunks
	// carry their own crc32s.
	if cfg.CompressionEnabled {
		components = append(components, CompressionInfo)
	} else {
		components = append(components, CRC)
	}
	return components
}
