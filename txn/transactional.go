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

// Package txn implements the two-phase commit lifecycle shared by all
// table writers, and the transaction that coordinates several writers
// into one atomic multi-table operation.
//
// Terminal operations thread an accumulated error through instead of
// failing fast: a coordinator cleaning up many writers keeps going when
// one of them fails and reports every failure it met along the way.
package txn

import (
	"errors"

	"github.com/hashicorp/go-multierror"
)

// ErrProtocol reports misuse of the lifecycle (commit called twice,
// append after finish, and the like). It is distinct from I/O faults:
// it indicates a bug in the caller, not a recoverable condition.
var ErrProtocol = errors.New("txn: protocol violation")

// Transactional is the two-phase finalization contract. PrepareToCommit
// performs all reversible work; Commit performs the single irreversible
// publish step; Abort rolls back; Close releases resources and is
// always safe.
type Transactional interface {
	// PrepareToCommit performs every reversible finalization step. On
	// success the only legal next steps are Commit, Abort, or Close.
	PrepareToCommit() error

	// Commit performs the irreversible publish step. Failures are
	// merged into accum and returned; a second call is a protocol
	// violation.
	Commit(accum error) error

	// Abort rolls back everything written so far. It is idempotent,
	// and a no-op after a fully successful Commit. Rollback failures
	// are merged into accum, never swallowed.
	Abort(accum error) error

	// Close releases resources. Without a prior terminal transition it
	// is an implicit abort. Safe to call repeatedly.
	Close() error
}

// Accumulate merges err into accum, preserving both. A nil err returns
// accum unchanged; a nil accum returns err. The merge is associative,
// so failures collected across several writers flatten into one chain.
func Accumulate(accum, err error) error {
	if err == nil {
		return accum
	}
	if accum == nil {
		return err
	}
	return multierror.Append(accum, err)
}
