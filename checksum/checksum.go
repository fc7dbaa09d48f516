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

// Package checksum provides the whole-file digests and per-chunk CRC
// streams that accompany a table's data component.
package checksum

import (
	"fmt"
	"hash"
	"hash/crc32"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Type identifies a checksum algorithm. It is recorded in the digest
// component's file suffix, so values must be stable.
type Type string

const (
	CRC32    Type = "crc32"
	XXHash64 Type = "xxhash64"
)

// Valid reports whether t names a known algorithm.
func (t Type) Valid() bool {
	return t == CRC32 || t == XXHash64
}

func (t Type) String() string {
	return string(t)
}

// Digest accumulates a checksum over everything written to it.
type Digest struct {
	typ Type
	h32 hash.Hash32
	h64 *xxhash.Digest
}

// NewDigest returns a Digest for the given algorithm.
func NewDigest(t Type) (*Digest, error) {
	switch t {
	case CRC32:
		return &Digest{typ: t, h32: crc32.NewIEEE()}, nil
	case XXHash64:
		return &Digest{typ: t, h64: xxhash.New()}, nil
	default:
		return nil, fmt.Errorf("checksum: unknown type %q", t)
	}
}

// Write implements io.Writer. It never returns an error.
func (d *Digest) Write(p []byte) (int, error) {
	if d.h32 != nil {
		return d.h32.Write(p)
	}
	return d.h64.Write(p)
}

// Sum64 returns the current checksum value.
func (d *Digest) Sum64() uint64 {
	if d.h32 != nil {
		return uint64(d.h32.Sum32())
	}
	return d.h64.Sum64()
}

// Type returns the algorithm this digest computes.
func (d *Digest) Type() Type {
	return d.typ
}

// String renders the checksum as a decimal string, the form stored in
// the digest component file.
func (d *Digest) String() string {
	return strconv.FormatUint(d.Sum64(), 10)
}
