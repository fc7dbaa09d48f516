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

package metadata

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// envelope is the on-disk shape of the stats component: one optional
// slot per metadata type.
type envelope struct {
	Validation *ValidationMetadata  `cbor:"validation,omitempty"`
	Compaction *CompactionMetadata  `cbor:"compaction,omitempty"`
	Stats      *StatsMetadata       `cbor:"stats,omitempty"`
	Header     *SerializationHeader `cbor:"header,omitempty"`
}

// Write encodes a finalized metadata component map to w.
func Write(w io.Writer, components map[Type]Component) error {
	var env envelope
	for t, c := range components {
		switch t {
		case TypeValidation:
			v, ok := c.(ValidationMetadata)
			if !ok {
				return fmt.Errorf("metadata: unexpected component %T for %s", c, t)
			}
			env.Validation = &v
		case TypeCompaction:
			v, ok := c.(CompactionMetadata)
			if !ok {
				return fmt.Errorf("metadata: unexpected component %T for %s", c, t)
			}
			env.Compaction = &v
		case TypeStats:
			v, ok := c.(StatsMetadata)
			if !ok {
				return fmt.Errorf("metadata: unexpected component %T for %s", c, t)
			}
			env.Stats = &v
		case TypeHeader:
			v, ok := c.(SerializationHeader)
			if !ok {
				return fmt.Errorf("metadata: unexpected component %T for %s", c, t)
			}
			env.Header = &v
		default:
			return fmt.Errorf("metadata: unknown component type %d", t)
		}
	}
	return cbor.NewEncoder(w).Encode(env)
}

// Read decodes a metadata component map written by Write.
func Read(r io.Reader) (map[Type]Component, error) {
	var env envelope
	if err := cbor.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("metadata: decode stats component: %w", err)
	}
	components := make(map[Type]Component, 4)
	if env.Validation != nil {
		components[TypeValidation] = *env.Validation
	}
	if env.Compaction != nil {
		components[TypeCompaction] = *env.Compaction
	}
	if env.Stats != nil {
		components[TypeStats] = *env.Stats
	}
	if env.Header != nil {
		components[TypeHeader] = *env.Header
	}
	return components, nil
}
