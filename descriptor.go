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

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Descriptor is the immutable identity of one table instance. The same
// keyspace/table pair produces many instances over time, distinguished
// by generation; the format version fixes the on-disk encoding.
type Descriptor struct {
	Dir        string
	Keyspace   string
	Table      string
	TableID    uuid.UUID
	Generation int64
	Version    Version
}

// Validate checks that the descriptor can produce unambiguous file
// names.
func (d Descriptor) Validate() error {
	if d.Dir == "" {
		return fmt.Errorf("sstable: descriptor has no directory")
	}
	if d.Keyspace == "" || d.Table == "" {
		return fmt.Errorf("sstable: descriptor needs keyspace and table names")
	}
	if strings.ContainsAny(d.Keyspace, "-/") || strings.ContainsAny(d.Table, "-/") {
		return fmt.Errorf("sstable: keyspace and table names must not contain '-' or '/'")
	}
	if d.Generation < 0 {
		return fmt.Errorf("sstable: negative generation %d", d.Generation)
	}
	if !d.Version.Supported() {
		return fmt.Errorf("sstable: unsupported format version %q", d.Version)
	}
	return nil
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s.%s-%d-%s", d.Keyspace, d.Table, d.Generation, d.Version)
}

func (d Descriptor) baseName() string {
	return fmt.Sprintf("%s-%s-%s-%d", d.Keyspace, d.Table, d.Version, d.Generation)
}

// FileFor returns the final path of a component file.
func (d Descriptor) FileFor(c Component) string {
	return filepath.Join(d.Dir, d.baseName()+"-"+c.Suffix())
}

// TmpFileFor returns the temporary path a component is written to
// before commit renames it into place.
func (d Descriptor) TmpFileFor(c Component) string {
	return filepath.Join(d.Dir, d.baseName()+"-tmp-"+c.Suffix())
}
