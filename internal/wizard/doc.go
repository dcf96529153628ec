// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

// Package wizard implements the client-side synchronization core of the
// onboarding wizard: incremental autosave of step data against a versioned
// backend, with batching, rate limiting, optimistic-concurrency conflict
// handling, and a durable local backup fallback.
//
// The central type is [Session], which owns all mutable sync state for one
// editing session: per-step data and dirty flags, the version ledger, the
// blocked-step set, the single-flight flush flag, and the autosave timers.
// UI code interacts with the session through [Session.SetStepData] and the
// [Notifier] callbacks only; it never touches the ledger or the blocked set
// directly.
//
// The autosave protocol, per flush:
//
//  1. The scheduler picks up to the batch limit of dirty, unblocked steps.
//  2. Each step is saved independently and concurrently, carrying its
//     last-known server version.
//  3. Outcomes are applied as one atomic step once all attempts resolve:
//     accepted steps adopt the returned version and become clean,
//     validation-rejected steps are blocked until edited again, conflicted
//     steps are queued for reconciliation, transient failures stay dirty
//     for the next cycle.
//  4. Conflicts trigger a whole-record re-fetch that replaces local
//     versions and data; a local backup snapshot is then written
//     best-effort.
package wizard
