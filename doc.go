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

// Package sstable is the write path of an immutable, multi-file
// on-disk sorted-table format. A table is built once, sequentially,
// from sorted partitions, and becomes durable and discoverable only
// after a two-phase commit: all components are written under temporary
// names during prepare, then renamed into place on commit with the
// table-of-contents file published last.
//
// Writers are opened through a per-format-version factory registered by
// a format package (see package big), and can be grouped under a
// txn.LifecycleTransaction so a multi-table operation commits all of
// its outputs or none of them.
package sstable
