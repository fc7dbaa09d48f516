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
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Info describes the chunk layout of a compressed data component. It is
// written verbatim as the table's compression-info component and is
// required to address into the data file.
type Info struct {
	Algorithm    string  `cbor:"algorithm"`
	ChunkLength  int     `cbor:"chunkLength"`
	DataLength   int64   `cbor:"dataLength"` // uncompressed bytes
	ChunkOffsets []int64 `cbor:"chunkOffsets"`
}

// WriteInfo encodes info to w.
func WriteInfo(w io.Writer, info Info) error {
	return cbor.NewEncoder(w).Encode(info)
}

// ReadInfo decodes an Info written by WriteInfo.
func ReadInfo(r io.Reader) (Info, error) {
	var info Info
	err := cbor.NewDecoder(r).Decode(&info)
	return info, err
}
