package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/staylio/villa-onboard/internal/config"
	"github.com/staylio/villa-onboard/internal/logger"
	"github.com/staylio/villa-onboard/models"
)

const (
	keyPrefix = "backup:"
	latestKey = keyPrefix + "latest"
)

func recordKey(recordID string) string {
	return keyPrefix + "record:" + recordID
}

type badgerStore struct {
	db        *badger.DB
	freshness time.Duration
	sweepAge  time.Duration

	// now is swappable in tests to probe the freshness boundary.
	now func() time.Time

	logger *logger.Logger
}

// NewBadgerStore opens (or creates) the BadgerDB database configured in cfg
// and returns a [Store] over it. An empty cfg.Dir selects Badger's in-memory
// mode, used by tests. Badger's own logging is routed to the Nop logger; the
// store logs through log instead.
func NewBadgerStore(cfg config.ClientBackup, log *logger.Logger) (Store, error) {
	opts := badger.DefaultOptions(cfg.Dir)
	opts = opts.WithLogger(nil)
	if cfg.Dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open backup store: %w", err)
	}

	freshness := cfg.Freshness
	if freshness <= 0 {
		freshness = config.DefaultFreshness
	}
	sweepAge := cfg.SweepAge
	if sweepAge <= 0 {
		sweepAge = config.DefaultSweepAge
	}

	return &badgerStore{
		db:        db,
		freshness: freshness,
		sweepAge:  sweepAge,
		now:       time.Now,
		logger:    log,
	}, nil
}

// Save implements [Store]. The snapshot's format tag and timestamp are
// stamped here so callers only fill in the wizard state.
func (s *badgerStore) Save(ctx context.Context, snapshot models.BackupSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot.Format = models.SnapshotFormatVersion
	if snapshot.SavedAt.IsZero() {
		snapshot.SavedAt = s.now()
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode backup snapshot: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(latestKey), payload); err != nil {
			return err
		}
		if snapshot.RecordID != "" {
			return txn.Set([]byte(recordKey(snapshot.RecordID)), payload)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write backup snapshot: %w", err)
	}

	return nil
}

// Recover implements [Store].
func (s *badgerStore) Recover(ctx context.Context, recordID string) (models.BackupSnapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.BackupSnapshot{}, false, err
	}

	keys := make([]string, 0, 2)
	if recordID != "" {
		keys = append(keys, recordKey(recordID))
	}
	keys = append(keys, latestKey)

	for _, key := range keys {
		snapshot, ok, err := s.get(key)
		if err != nil {
			return models.BackupSnapshot{}, false, err
		}
		if !ok {
			continue
		}

		if snapshot.Format != models.SnapshotFormatVersion {
			s.logger.Warn().
				Str("key", key).
				Str("format", snapshot.Format).
				Msg("ignoring backup snapshot with unknown format tag")
			continue
		}
		if s.now().Sub(snapshot.SavedAt) > s.freshness {
			s.logger.Debug().
				Str("key", key).
				Time("saved_at", snapshot.SavedAt).
				Msg("ignoring stale backup snapshot")
			continue
		}

		return snapshot, true, nil
	}

	return models.BackupSnapshot{}, false, nil
}

func (s *badgerStore) get(key string) (models.BackupSnapshot, bool, error) {
	var snapshot models.BackupSnapshot
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &snapshot); err != nil {
				// a corrupt snapshot is treated as absent, not fatal
				s.logger.Warn().Err(err).Str("key", key).Msg("corrupt backup snapshot")
				return nil
			}
			found = true
			return nil
		})
	})
	if err != nil {
		return models.BackupSnapshot{}, false, fmt.Errorf("read backup snapshot %s: %w", key, err)
	}

	return snapshot, found, nil
}

// Clear implements [Store].
func (s *badgerStore) Clear(ctx context.Context, recordID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(latestKey)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if recordID != "" {
			if err := txn.Delete([]byte(recordKey(recordID))); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear backup snapshots: %w", err)
	}

	return nil
}

// Sweep implements [Store]. Corrupt or unreadable entries are deleted along
// with expired ones; the sweep exists to keep the store from accumulating
// garbage, not to preserve it.
func (s *badgerStore) Sweep(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var expired []string

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))

			err := item.Value(func(val []byte) error {
				var snapshot models.BackupSnapshot
				if err := json.Unmarshal(val, &snapshot); err != nil {
					expired = append(expired, key)
					return nil
				}
				if s.now().Sub(snapshot.SavedAt) > s.sweepAge {
					expired = append(expired, key)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan backup snapshots: %w", err)
	}

	for _, key := range expired {
		err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete([]byte(key))
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to sweep backup snapshot")
		}
	}

	s.logger.Debug().Int("swept", len(expired)).Msg("backup sweep finished")
	return len(expired), nil
}

// Close implements [Store].
func (s *badgerStore) Close() error {
	return s.db.Close()
}

// Fingerprint builds a loose identifier of the client installation for
// inclusion in snapshots, e.g. "hostname/linux".
func Fingerprint(hostname, goos string) string {
	hostname = strings.TrimSpace(hostname)
	if hostname == "" {
		hostname = "unknown"
	}
	return hostname + "/" + goos
}
