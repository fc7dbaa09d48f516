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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/fxamacker/cbor/v2"
)

// indexWriter appends primary index entries (u16 key length, key, u64
// data position, little-endian) and samples every interval-th key into
// the in-memory summary.
type indexWriter struct {
	f        *os.File
	w        *bufio.Writer
	offset   int64
	count    int64
	interval int
	summary  []SummaryEntry
}

// SummaryEntry locates one sampled key in the primary index.
type SummaryEntry struct {
	Key         []byte `cbor:"key"`
	IndexOffset int64  `cbor:"indexOffset"`
}

// Summary is the decoded summary component: every interval-th index
// entry, enough to seek the primary index without scanning it.
type Summary struct {
	Interval int            `cbor:"interval"`
	Count    int64          `cbor:"count"`
	Entries  []SummaryEntry `cbor:"entries"`
}

// ReadSummary decodes a summary component.
func ReadSummary(r io.Reader) (Summary, error) {
	var s Summary
	if err := cbor.NewDecoder(r).Decode(&s); err != nil {
		return Summary{}, fmt.Errorf("decode summary: %w", err)
	}
	return s, nil
}

func newIndexWriter(f *os.File, interval int) *indexWriter {
	return &indexWriter{
		f:        f,
		w:        bufio.NewWriter(f),
		interval: interval,
	}
}

func (iw *indexWriter) append(key []byte, position int64) error {
	if iw.count%int64(iw.interval) == 0 {
		iw.summary = append(iw.summary, SummaryEntry{
			Key:         slices.Clone(key),
			IndexOffset: iw.offset,
		})
	}

	var hdr [2]byte
	binary.LittleEndian.PutUint16(hdr[:], uint16(len(key)))
	if _, err := iw.w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write index entry: %w", err)
	}
	if _, err := iw.w.Write(key); err != nil {
		return fmt.Errorf("write index entry: %w", err)
	}
	var pos [8]byte
	binary.LittleEndian.PutUint64(pos[:], uint64(position))
	if _, err := iw.w.Write(pos[:]); err != nil {
		return fmt.Errorf("write index entry: %w", err)
	}

	iw.offset += int64(2 + len(key) + 8)
	iw.count++
	return nil
}

// finish flushes and syncs the index file. The file stays open until
// the writer closes.
func (iw *indexWriter) finish() error {
	if err := iw.w.Flush(); err != nil {
		return fmt.Errorf("flush index: %w", err)
	}
	if err := iw.f.Sync(); err != nil {
		return fmt.Errorf("sync index: %w", err)
	}
	return nil
}

// writeSummary encodes the sampled summary to w.
func (iw *indexWriter) writeSummary(w io.Writer) error {
	return cbor.NewEncoder(w).Encode(Summary{
		Interval: iw.interval,
		Count:    iw.count,
		Entries:  iw.summary,
	})
}
