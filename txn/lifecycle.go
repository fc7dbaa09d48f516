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

package txn

import (
	"fmt"
	"sync"
)

// State is the lifecycle position of a writer.
type State int

const (
	StateFresh State = iota
	StateInProgress
	StatePreparing
	StateReadyToCommit
	StateCommitted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "FRESH"
	case StateInProgress:
		return "IN_PROGRESS"
	case StatePreparing:
		return "PREPARING"
	case StateReadyToCommit:
		return "READY_TO_COMMIT"
	case StateCommitted:
		return "COMMITTED"
	case StateAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether s is a final outcome.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateAborted
}

// Hooks are the format-specific callbacks a Lifecycle drives. All are
// optional except Prepare.
type Hooks struct {
	// Prepare performs the reversible finalization work.
	Prepare func() error

	// Commit performs the irreversible publish step, merging any
	// failure into the accumulated error.
	Commit func(accum error) error

	// Abort deletes partial state, merging rollback failures into the
	// accumulated error.
	Abort func(accum error) error

	// Close releases file handles. Called at most once.
	Close func() error

	// Terminal is invoked exactly once when the lifecycle reaches
	// COMMITTED or ABORTED, whichever comes first.
	Terminal func(committed bool)
}

// Lifecycle enforces the writer state machine:
//
//	FRESH -> IN_PROGRESS -> PREPARING -> READY_TO_COMMIT -> COMMITTED
//	any non-terminal state -> ABORTED
//	any state -> closed (idempotent)
//
// Transitions are monotonic. COMMITTED and ABORTED are mutually
// exclusive terminal outcomes. Format-specific writers compose a
// Lifecycle and supply Hooks rather than reimplementing the machine.
type Lifecycle struct {
	mu       sync.Mutex
	state    State
	closed   bool
	notified bool
	hooks    Hooks
}

// NewLifecycle returns a Lifecycle in StateFresh.
func NewLifecycle(hooks Hooks) *Lifecycle {
	return &Lifecycle{hooks: hooks}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Closed reports whether Close has completed.
func (l *Lifecycle) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Begin gates an append: it moves FRESH to IN_PROGRESS and rejects any
// later state.
func (l *Lifecycle) Begin() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("%w: append on closed writer", ErrProtocol)
	}
	switch l.state {
	case StateFresh:
		l.state = StateInProgress
		return nil
	case StateInProgress:
		return nil
	default:
		return fmt.Errorf("%w: append in state %s", ErrProtocol, l.state)
	}
}

// PrepareToCommit runs the reversible finalization work. On success the
// state becomes READY_TO_COMMIT; on failure it stays PREPARING and the
// caller must Abort or Close.
func (l *Lifecycle) PrepareToCommit() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("%w: prepare on closed writer", ErrProtocol)
	}
	if l.state != StateFresh && l.state != StateInProgress {
		return fmt.Errorf("%w: prepare in state %s", ErrProtocol, l.state)
	}
	l.state = StatePreparing
	if l.hooks.Prepare != nil {
		if err := l.hooks.Prepare(); err != nil {
			return err
		}
	}
	l.state = StateReadyToCommit
	return nil
}

// Commit performs the irreversible publish step. It is callable at most
// once; repeated or premature calls merge a protocol error into accum.
func (l *Lifecycle) Commit(accum error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateCommitted {
		return Accumulate(accum, fmt.Errorf("%w: commit called twice", ErrProtocol))
	}
	if l.state != StateReadyToCommit {
		return Accumulate(accum, fmt.Errorf("%w: commit in state %s", ErrProtocol, l.state))
	}
	if l.hooks.Commit != nil {
		accum = l.hooks.Commit(accum)
	}
	l.state = StateCommitted
	l.notifyTerminal(true)
	return accum
}

// Abort rolls back. Idempotent; a no-op after Commit. Rollback failures
// are merged into accum.
func (l *Lifecycle) Abort(accum error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.abortLocked(accum)
}

func (l *Lifecycle) abortLocked(accum error) error {
	if l.state.Terminal() {
		return accum
	}
	if l.hooks.Abort != nil {
		accum = l.hooks.Abort(accum)
	}
	l.state = StateAborted
	l.notifyTerminal(false)
	return accum
}

// Close releases resources, aborting first if no terminal transition
// happened. Calling it again has no effect.
func (l *Lifecycle) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var accum error
	if !l.state.Terminal() {
		accum = l.abortLocked(nil)
	}
	if !l.closed {
		l.closed = true
		if l.hooks.Close != nil {
			accum = Accumulate(accum, l.hooks.Close())
		}
	}
	return accum
}

func (l *Lifecycle) notifyTerminal(committed bool) {
	if l.notified {
		return
	}
	l.notified = true
	if l.hooks.Terminal != nil {
		l.hooks.Terminal(committed)
	}
}
