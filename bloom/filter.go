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

// Package bloom implements the partition-key bloom filter written as a
// table's filter component. False positives are possible, false
// negatives are not.
package bloom

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/cespare/xxhash/v2"
)

// hash2Salt perturbs the second hash so the two xxhash values used for
// double hashing are independent.
var hash2Salt = []byte{0xff}

// Filter is a fixed-size bloom filter over partition keys.
type Filter struct {
	words []uint64
	nbits uint64
	k     int
}

const (
	// maxBits caps the filter at 1 Gibit so a bad key-count estimate
	// cannot exhaust memory.
	maxBits = 1 << 30
	maxK    = 30
)

// New sizes a filter for the expected number of keys and target false
// positive chance using the standard optimal m/k formulas.
func New(expectedKeys int64, fpChance float64) *Filter {
	if expectedKeys < 1 {
		expectedKeys = 1
	}
	if fpChance <= 0 || fpChance >= 1 {
		fpChance = 0.01
	}

	// m = -(n * ln p) / (ln 2)^2, k = (m / n) * ln 2
	nbits := uint64(math.Ceil(-float64(expectedKeys) * math.Log(fpChance) / (math.Ln2 * math.Ln2)))
	if nbits < 64 {
		nbits = 64
	}
	if nbits > maxBits {
		nbits = maxBits
	}
	k := int(math.Round(float64(nbits) / float64(expectedKeys) * math.Ln2))
	if k < 1 {
		k = 1
	}
	if k > maxK {
		k = maxK
	}

	return &Filter{
		words: make([]uint64, (nbits+63)/64),
		nbits: nbits,
		k:     k,
	}
}

// Add records a key in the filter.
func (f *Filter) Add(key []byte) {
	h1, h2 := hashPair(key)
	for i := 0; i < f.k; i++ {
		bit := (h1 + uint64(i)*h2) % f.nbits
		f.words[bit/64] |= 1 << (bit % 64)
	}
}

// MayContain reports whether key might have been added. A false result
// is definitive.
func (f *Filter) MayContain(key []byte) bool {
	h1, h2 := hashPair(key)
	for i := 0; i < f.k; i++ {
		bit := (h1 + uint64(i)*h2) % f.nbits
		if f.words[bit/64]&(1<<(bit%64)) == 0 {
			return false
		}
	}
	return true
}

// BitCount returns the filter size in bits.
func (f *Filter) BitCount() uint64 { return f.nbits }

// HashCount returns the number of hash functions.
func (f *Filter) HashCount() int { return f.k }

// hashPair derives two hashes for double hashing:
// index(i) = h1 + i*h2 mod nbits.
func hashPair(key []byte) (uint64, uint64) {
	h1 := xxhash.Sum64(key)

	d := xxhash.New()
	_, _ = d.Write(key)
	_, _ = d.Write(hash2Salt)
	h2 := d.Sum64()
	// h2 must be odd so the probe sequence covers the table.
	h2 |= 1
	return h1, h2
}

// MarshalBinary serializes the filter: nbits and k followed by the
// packed bit words, little-endian.
func (f *Filter) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 12+8*len(f.words))
	binary.LittleEndian.PutUint64(buf[0:8], f.nbits)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(f.k))
	for i, w := range f.words {
		binary.LittleEndian.PutUint64(buf[12+8*i:], w)
	}
	return buf, nil
}

// UnmarshalBinary reconstructs a filter serialized by MarshalBinary.
func UnmarshalBinary(data []byte) (*Filter, error) {
	if len(data) < 12 {
		return nil, errors.New("bloom: filter data truncated")
	}
	nbits := binary.LittleEndian.Uint64(data[0:8])
	k := int(binary.LittleEndian.Uint32(data[8:12]))
	// Bound-check before sizing the word slice: a corrupt header must
	// not drive the allocation.
	if nbits == 0 || nbits > maxBits || k < 1 || k > maxK {
		return nil, errors.New("bloom: invalid filter parameters")
	}
	words := make([]uint64, (nbits+63)/64)
	if len(data) < 12+8*len(words) {
		return nil, errors.New("bloom: filter data truncated")
	}
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(data[12+8*i:])
	}
	return &Filter{words: words, nbits: nbits, k: k}, nil
}
