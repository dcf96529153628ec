package config

import (
	"fmt"
	"time"
)

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// HTTPAddress is the onboarding server endpoint used by the client.
	HTTPAddress string
	// RequestTimeout is the default timeout for outbound client requests.
	RequestTimeout time.Duration
	// Token is the bearer token presented on authenticated requests.
	Token string
}

// ClientSync holds the autosave scheduler settings for one editing session.
type ClientSync struct {
	// Debounce is how long after the last edit a flush is scheduled.
	Debounce time.Duration
	// RateFloor is the minimum spacing between two flush starts.
	RateFloor time.Duration
	// Periodic is the forward-progress timer interval.
	Periodic time.Duration
	// BatchLimit caps the number of steps per flush.
	BatchLimit int
	// LoadRetryBudget is the number of initial-load attempts before the
	// client reports a critical failure.
	LoadRetryBudget int
}

// ClientBackup holds local backup store settings.
type ClientBackup struct {
	// Dir is the BadgerDB directory; empty selects an in-memory store.
	Dir string
	// Freshness is the maximum snapshot age still offered for recovery.
	Freshness time.Duration
	// SweepAge is the age past which the sweep deletes snapshots.
	SweepAge time.Duration
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// Adapter contains client transport addresses and timeouts.
	Adapter ClientAdapter
	// Sync contains autosave scheduler settings.
	Sync ClientSync
	// Backup contains local backup store settings.
	Backup ClientBackup
}

// GetClientConfig builds and validates a client-specific config view from the
// merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps only the fields
// relevant to the client runtime, and validates the resulting [ClientConfig].
// Zero-valued sync and backup settings are replaced with the reference
// defaults.
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := &ClientConfig{
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
			Token:          cfg.Adapter.Token,
		},
		Sync: ClientSync{
			Debounce:        cfg.Sync.Debounce,
			RateFloor:       cfg.Sync.RateFloor,
			Periodic:        cfg.Sync.Periodic,
			BatchLimit:      cfg.Sync.BatchLimit,
			LoadRetryBudget: cfg.Sync.LoadRetryBudget,
		},
		Backup: ClientBackup{
			Dir:       cfg.Backup.Dir,
			Freshness: cfg.Backup.Freshness,
			SweepAge:  cfg.Backup.SweepAge,
		},
	}

	return clientCfg, clientCfg.validate()
}

// DefaultClientSync returns the reference autosave settings used when no
// explicit configuration is provided.
func DefaultClientSync() ClientSync {
	return ClientSync{
		Debounce:        DefaultDebounce,
		RateFloor:       DefaultRateFloor,
		Periodic:        DefaultPeriodic,
		BatchLimit:      DefaultBatchLimit,
		LoadRetryBudget: DefaultLoadRetryBudget,
	}
}
