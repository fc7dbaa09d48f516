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
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cardinalhq/sstable/internal/logctx"
)

// LifecycleTransaction coordinates several Transactional participants
// (typically one writer per output table of a compaction) into a single
// all-or-nothing operation: PrepareToCommit runs on every participant
// before Commit runs on any, and a failure anywhere aborts everyone.
type LifecycleTransaction struct {
	mu    sync.Mutex
	id    uuid.UUID
	parts []Transactional
	state State
}

// NewLifecycleTransaction returns an empty transaction.
func NewLifecycleTransaction() *LifecycleTransaction {
	return &LifecycleTransaction{id: uuid.New()}
}

// ID identifies the transaction in logs.
func (t *LifecycleTransaction) ID() uuid.UUID { return t.id }

// State returns the transaction's lifecycle state.
func (t *LifecycleTransaction) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Track registers a participant so a group abort can reach it. Writers
// opened with this transaction register themselves.
func (t *LifecycleTransaction) Track(p Transactional) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Terminal() {
		return fmt.Errorf("%w: track in state %s", ErrProtocol, t.state)
	}
	t.parts = append(t.parts, p)
	t.state = StateInProgress
	return nil
}

// Commit drives the group two-phase commit. Every participant prepares
// first; if any preparation fails, all participants are aborted and the
// accumulated failures returned. Only when every prepare succeeded does
// any participant commit.
func (t *LifecycleTransaction) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ll := logctx.FromContext(ctx).With("txn", t.id.String())

	if t.state.Terminal() {
		return fmt.Errorf("%w: commit in state %s", ErrProtocol, t.state)
	}

	for i, p := range t.parts {
		if err := p.PrepareToCommit(); err != nil {
			ll.Error("prepare failed, aborting transaction",
				"participant", i, "error", err)
			return t.abortLocked(fmt.Errorf("prepare participant %d: %w", i, err))
		}
	}

	var accum error
	for _, p := range t.parts {
		accum = p.Commit(accum)
	}
	t.state = StateCommitted
	if accum != nil {
		ll.Error("commit completed with errors", "error", accum)
	} else {
		ll.Debug("transaction committed", "participants", len(t.parts))
	}
	return accum
}

// Abort rolls back every participant, accumulating all failures so a
// broken participant does not stop cleanup of the rest. Idempotent.
func (t *LifecycleTransaction) Abort(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateAborted {
		return nil
	}
	if t.state == StateCommitted {
		return fmt.Errorf("%w: abort after commit", ErrProtocol)
	}
	err := t.abortLocked(nil)
	if err != nil {
		logctx.FromContext(ctx).Error("transaction abort left errors",
			"txn", t.id.String(), "error", err)
	}
	return err
}

func (t *LifecycleTransaction) abortLocked(accum error) error {
	for _, p := range t.parts {
		accum = p.Abort(accum)
	}
	t.state = StateAborted
	return accum
}

// Close closes every participant. Participants that never reached a
// terminal state treat this as an implicit abort.
func (t *LifecycleTransaction) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var accum error
	for _, p := range t.parts {
		accum = Accumulate(accum, p.Close())
	}
	if !t.state.Terminal() {
		t.state = StateAborted
	}
	return accum
}
