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
	"errors"

	"github.com/cardinalhq/sstable/txn"
)

// Common errors returned by writers.
var (
	// ErrOutOfOrder reports a partition supplied out of sort order. It
	// is a precondition violation, not a recoverable condition.
	ErrOutOfOrder = errors.New("sstable: partition appended out of sort order")

	// ErrProtocol reports lifecycle misuse such as committing twice or
	// appending after finish.
	ErrProtocol = txn.ErrProtocol

	// ErrUnknownFormat reports a descriptor whose format version has
	// no registered writer factory.
	ErrUnknownFormat = errors.New("sstable: unsupported format version")
)
