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

// Version identifies an on-disk format revision. It appears in every
// component file name, so values must be stable.
type Version string

const (
	// VersionBA is the first big-format release. Digests were crc32.
	VersionBA Version = "ba"
	// VersionBB switched digests to xxhash64.
	VersionBB Version = "bb"
)

// LatestVersion is the default for newly written tables.
const LatestVersion = VersionBB

// Supported reports whether v is a known format version.
func (v Version) Supported() bool {
	return v == VersionBA || v == VersionBB
}

// ChecksumType returns the digest algorithm this version introduced.
func (v Version) ChecksumType() checksum.Type {
	if v == VersionBA {
		return checksum.CRC32
	}
	return checksum.XXHash64
}
