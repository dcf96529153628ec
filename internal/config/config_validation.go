// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

package config

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// The structured config is shared by the server, client, and audit
// binaries, each of which needs a different subset of fields, so
// cross-field requirements are enforced by the per-binary views
// ([GetClientConfig], the server bootstrap) rather than here.
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.DB.Driver != "" &&
		cfg.Storage.DB.Driver != "pgx" && cfg.Storage.DB.Driver != "sqlite3" {
		return ErrInvalidStorageConfigs
	}

	return nil
}

// validate normalises and checks the client view. Zero-valued sync and
// backup settings fall back to the reference defaults; a missing adapter
// address is a hard error because the client cannot operate without a
// server endpoint.
func (cfg *ClientConfig) validate() error {
	if cfg.Adapter.HTTPAddress == "" {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Sync.Debounce <= 0 {
		cfg.Sync.Debounce = DefaultDebounce
	}
	if cfg.Sync.RateFloor <= 0 {
		cfg.Sync.RateFloor = DefaultRateFloor
	}
	if cfg.Sync.Periodic <= 0 {
		cfg.Sync.Periodic = DefaultPeriodic
	}
	if cfg.Sync.BatchLimit <= 0 {
		cfg.Sync.BatchLimit = DefaultBatchLimit
	}
	if cfg.Sync.LoadRetryBudget <= 0 {
		cfg.Sync.LoadRetryBudget = DefaultLoadRetryBudget
	}
	if cfg.Backup.Freshness <= 0 {
		cfg.Backup.Freshness = DefaultFreshness
	}
	if cfg.Backup.SweepAge <= 0 {
		cfg.Backup.SweepAge = DefaultSweepAge
	}

	return nil
}
