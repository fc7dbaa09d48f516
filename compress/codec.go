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

// Package compress provides the chunked zstd compression used for a
// table's data component and the compression-info component describing
// the chunk layout.
package compress

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Algorithm is the name recorded in compression-info components.
const Algorithm = "zstd"

// Encoders keep ~MB-scale history buffers, so they are pooled instead
// of constructed per chunk.
var encoderPool = sync.Pool{
	New: func() any {
		enc, _ := zstd.NewWriter(nil, zstd.WithZeroFrames(true))
		return enc
	},
}

var (
	decoder     *zstd.Decoder
	decoderOnce sync.Once
)

func getDecoder() *zstd.Decoder {
	decoderOnce.Do(func() {
		decoder, _ = zstd.NewReader(nil)
	})
	return decoder
}

// Encode compresses src into dst[:0] and returns the result.
func Encode(dst, src []byte) []byte {
	enc := encoderPool.Get().(*zstd.Encoder)
	out := enc.EncodeAll(src, dst[:0])
	encoderPool.Put(enc)
	return out
}

// Decode decompresses src into dst[:0] and returns the result.
func Decode(dst, src []byte) ([]byte, error) {
	return getDecoder().DecodeAll(src, dst[:0])
}

// Bound returns the maximum compressed size for n input bytes.
// From zstd.h, ZSTD_COMPRESSBOUND.
func Bound(n int) int {
	extra := ((128 << 10) - n) >> 11
	if n >= (128 << 10) {
		extra = 0
	}
	return n + (n >> 8) + extra
}
