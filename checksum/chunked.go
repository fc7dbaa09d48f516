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

package checksum

import (
	"encoding/binary"
	"hash"
	"hash/crc32"
	"io"
)

// ChunkedCRC computes a crc32 for every fixed-length chunk of a byte
// stream. Uncompressed tables write the resulting list as their CRC
// component so readers can verify the data file chunk by chunk.
type ChunkedCRC struct {
	chunkLength int
	crcs        []uint32
	cur         hash.Hash32
	curLen      int
}

// NewChunkedCRC returns a ChunkedCRC that rolls over every chunkLength
// bytes.
func NewChunkedCRC(chunkLength int) *ChunkedCRC {
	return &ChunkedCRC{
		chunkLength: chunkLength,
		cur:         crc32.NewIEEE(),
	}
}

// Write implements io.Writer. It never returns an error.
func (c *ChunkedCRC) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		n := c.chunkLength - c.curLen
		if n > len(p) {
			n = len(p)
		}
		_, _ = c.cur.Write(p[:n])
		c.curLen += n
		p = p[n:]
		if c.curLen == c.chunkLength {
			c.roll()
		}
	}
	return total, nil
}

func (c *ChunkedCRC) roll() {
	c.crcs = append(c.crcs, c.cur.Sum32())
	c.cur.Reset()
	c.curLen = 0
}

// ChunkCount returns the number of completed chunks so far.
func (c *ChunkedCRC) ChunkCount() int {
	return len(c.crcs)
}

// Finish flushes any partial trailing chunk and writes the CRC stream:
// chunk length, chunk count, then one crc32 per chunk, all little-endian
// uint32.
func (c *ChunkedCRC) Finish(w io.Writer) error {
	if c.curLen > 0 {
		c.roll()
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(c.chunkLength)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(c.crcs))); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, c.crcs)
}

// ReadCRCs decodes a CRC component stream written by Finish.
func ReadCRCs(r io.Reader) (chunkLength int, crcs []uint32, err error) {
	var cl, count uint32
	if err = binary.Read(r, binary.LittleEndian, &cl); err != nil {
		return 0, nil, err
	}
	if err = binary.Read(r, binary.LittleEndian, &count); err != nil {
		return 0, nil, err
	}
	crcs = make([]uint32, count)
	if err = binary.Read(r, binary.LittleEndian, crcs); err != nil {
		return 0, nil, err
	}
	return int(cl), crcs, nil
}
