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

package compress

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// Writer compresses a byte stream into fixed-length chunks. Each chunk
// is written as a little-endian uint32 compressed length, the
// compressed bytes, and a crc32 of the compressed bytes. The logical
// (uncompressed) and physical (on-disk) positions are tracked
// separately so callers can expose both file pointers.
type Writer struct {
	dst         io.Writer
	chunkLength int

	buf     []byte // pending uncompressed bytes, < chunkLength
	scratch []byte

	offsets  []int64
	logical  int64
	physical int64
}

// NewWriter returns a chunked compressing writer with the given
// uncompressed chunk length.
func NewWriter(dst io.Writer, chunkLength int) *Writer {
	return &Writer{
		dst:         dst,
		chunkLength: chunkLength,
		buf:         make([]byte, 0, chunkLength),
		scratch:     make([]byte, 0, Bound(chunkLength)),
	}
}

// Write implements io.Writer, flushing a compressed chunk every time a
// full chunkLength of input accumulates.
func (w *Writer) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		n := w.chunkLength - len(w.buf)
		if n > len(p) {
			n = len(p)
		}
		w.buf = append(w.buf, p[:n]...)
		p = p[n:]
		if len(w.buf) == w.chunkLength {
			if err := w.flushChunk(); err != nil {
				return total - len(p), err
			}
		}
	}
	w.logical += int64(total)
	return total, nil
}

func (w *Writer) flushChunk() error {
	compressed := Encode(w.scratch, w.buf)
	w.offsets = append(w.offsets, w.physical)

	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(compressed)))
	if _, err := w.dst.Write(hdr[:]); err != nil {
		return fmt.Errorf("write chunk header: %w", err)
	}
	if _, err := w.dst.Write(compressed); err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}
	var crc [4]byte
	binary.LittleEndian.PutUint32(crc[:], crc32.ChecksumIEEE(compressed))
	if _, err := w.dst.Write(crc[:]); err != nil {
		return fmt.Errorf("write chunk crc: %w", err)
	}

	w.physical += int64(8 + len(compressed))
	w.buf = w.buf[:0]
	return nil
}

// Flush compresses and writes any pending partial chunk.
func (w *Writer) Flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	return w.flushChunk()
}

// FilePointer returns the logical (uncompressed) position.
func (w *Writer) FilePointer() int64 { return w.logical }

// OnDiskPointer returns the physical (compressed) position.
func (w *Writer) OnDiskPointer() int64 { return w.physical }

// Info returns the chunk layout accumulated so far. Call after Flush.
func (w *Writer) Info() Info {
	offsets := make([]int64, len(w.offsets))
	copy(offsets, w.offsets)
	return Info{
		Algorithm:    Algorithm,
		ChunkLength:  w.chunkLength,
		DataLength:   w.logical,
		ChunkOffsets: offsets,
	}
}

// ReadAll decompresses an entire chunked data file described by info.
// Chunk CRCs are verified.
func ReadAll(r io.ReaderAt, info Info) ([]byte, error) {
	out := make([]byte, 0, info.DataLength)
	chunk := make([]byte, 0, info.ChunkLength)
	for i, off := range info.ChunkOffsets {
		var hdr [4]byte
		if _, err := r.ReadAt(hdr[:], off); err != nil {
			return nil, fmt.Errorf("read chunk %d header: %w", i, err)
		}
		clen := binary.LittleEndian.Uint32(hdr[:])
		compressed := make([]byte, clen)
		if _, err := r.ReadAt(compressed, off+4); err != nil {
			return nil, fmt.Errorf("read chunk %d: %w", i, err)
		}
		var crcBuf [4]byte
		if _, err := r.ReadAt(crcBuf[:], off+4+int64(clen)); err != nil {
			return nil, fmt.Errorf("read chunk %d crc: %w", i, err)
		}
		if got := crc32.ChecksumIEEE(compressed); got != binary.LittleEndian.Uint32(crcBuf[:]) {
			return nil, fmt.Errorf("chunk %d crc mismatch", i)
		}
		var err error
		chunk, err = Decode(chunk, compressed)
		if err != nil {
			return nil, fmt.Errorf("decompress chunk %d: %w", i, err)
		}
		out = append(out, chunk...)
	}
	if int64(len(out)) != info.DataLength {
		return nil, fmt.Errorf("decompressed %d bytes, expected %d", len(out), info.DataLength)
	}
	return out, nil
}
