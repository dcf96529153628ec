// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

// Package backup implements the wizard client's durable local backup store.
//
// The store snapshots the whole wizard state so that work survives reloads
// and offline periods. It is a resilience measure, not the primary save
// path: write failures are logged by callers and never surfaced to the
// user. Snapshots are kept under two keys, a generic "latest" key for
// "resume my last session" and a per-record key for "resume this specific
// record", and recovery ignores snapshots older than a freshness ceiling
// so that stale abandoned sessions are not resurrected.
package backup

import (
	"context"

	"github.com/staylio/villa-onboard/models"
)

//go:generate mockgen -source=store.go -destination=../mock/backup_store_mock.go -package=mock

// Store is the durable key/value persistence abstraction behind the wizard's
// crash/offline recovery. The sole production implementation sits on
// BadgerDB ([NewBadgerStore]); tests use the same implementation in
// in-memory mode.
type Store interface {
	// Save writes snapshot under the generic latest key and, when the
	// snapshot carries a record id, under the record-specific key too.
	Save(ctx context.Context, snapshot models.BackupSnapshot) error

	// Recover returns the freshest applicable snapshot: the record-specific
	// one when recordID is non-empty and present, otherwise the latest
	// generic one. The second return value is false when no snapshot
	// qualifies (none stored, unknown format tag, or older than the
	// freshness ceiling).
	Recover(ctx context.Context, recordID string) (models.BackupSnapshot, bool, error)

	// Clear removes the latest key and, when recordID is non-empty, the
	// record-specific key. Called after a successful terminal submission or
	// when the user declines a recovery offer.
	Clear(ctx context.Context, recordID string) error

	// Sweep best-effort deletes snapshots older than the sweep age and
	// returns how many were removed.
	Sweep(ctx context.Context) (int, error)

	// Close releases the underlying database.
	Close() error
}
