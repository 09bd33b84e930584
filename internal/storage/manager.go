package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Manager provides a unified interface for storage operations
type Manager struct {
	db     *BoltDB
	mu     sync.RWMutex
	logger *zap.SugaredLogger
}

// NewManager creates a new storage manager
func NewManager(dataDir string, logger *zap.SugaredLogger) (*Manager, error) {
	db, err := NewBoltDB(dataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create bolt database: %w", err)
	}

	return &Manager{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the storage manager
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		err := m.db.Close()
		m.db = nil
		return err
	}
	return nil
}

// Ping reports whether the database is open and readable
func (m *Manager) Ping() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.db == nil || m.db.db == nil {
		return fmt.Errorf("database is closed")
	}
	return m.db.db.View(func(*bbolt.Tx) error { return nil })
}

// Backup writes a consistent copy of the database to destPath
func (m *Manager) Backup(destPath string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.db == nil {
		return fmt.Errorf("database is closed")
	}
	return m.db.Backup(destPath)
}

// User operations

// UpsertUser stores the user, keeping the original creation time and only
// rewriting when name or email changed. It returns the stored record.
func (m *Manager) UpsertUser(id, name, email string) (*UserRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out *UserRecord
	err := m.db.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(UsersBucket))
		now := time.Now().UTC()

		record := &UserRecord{ID: id, Created: now}
		if data := bucket.Get([]byte(id)); data != nil {
			if err := record.UnmarshalBinary(data); err != nil {
				return err
			}
			if record.Name == name && record.Email == email {
				out = record
				return nil
			}
		}
		record.Name = name
		record.Email = email
		record.Updated = now

		data, err := record.MarshalBinary()
		if err != nil {
			return err
		}
		out = record
		return bucket.Put([]byte(id), data)
	})
	return out, err
}

// GetUser retrieves a user by identity provider subject
func (m *Manager) GetUser(id string) (*UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var record *UserRecord
	err := m.db.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(UsersBucket)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		record = &UserRecord{}
		return record.UnmarshalBinary(data)
	})
	return record, err
}

// Subscription operations

// SaveSubscription creates or replaces a subscription and points its owner
// at it. Records without a user ID are stored but not indexed.
func (m *Manager) SaveSubscription(record *SubscriptionRecord) error {
	if record.ID == "" {
		return fmt.Errorf("subscription ID cannot be empty")
	}
	record.Updated = time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.db.db.Update(func(tx *bbolt.Tx) error {
		data, err := record.MarshalBinary()
		if err != nil {
			return err
		}
		if err := tx.Bucket([]byte(SubscriptionsBucket)).Put([]byte(record.ID), data); err != nil {
			return err
		}
		if record.UserID == "" {
			return nil
		}
		return tx.Bucket([]byte(SubscriptionOwnerBucket)).Put([]byte(record.UserID), []byte(record.ID))
	})
}

// GetSubscription retrieves a subscription by billing provider ID
func (m *Manager) GetSubscription(id string) (*SubscriptionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var record *SubscriptionRecord
	err := m.db.db.View(func(tx *bbolt.Tx) error {
		var err error
		record, err = getSubscription(tx, id)
		return err
	})
	return record, err
}

// GetSubscriptionByUser returns the most recently saved subscription of a user
func (m *Manager) GetSubscriptionByUser(userID string) (*SubscriptionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var record *SubscriptionRecord
	err := m.db.db.View(func(tx *bbolt.Tx) error {
		subID := tx.Bucket([]byte(SubscriptionOwnerBucket)).Get([]byte(userID))
		if subID == nil {
			return fmt.Errorf("subscription for user %s: %w", userID, ErrNotFound)
		}
		var err error
		record, err = getSubscription(tx, string(subID))
		return err
	})
	return record, err
}

// FindSubscriptionByCustomer scans for the subscription of a billing customer
func (m *Manager) FindSubscriptionByCustomer(customerID string) (*SubscriptionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *SubscriptionRecord
	err := m.db.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(SubscriptionsBucket)).ForEach(func(k, v []byte) error {
			record := &SubscriptionRecord{}
			if err := record.UnmarshalBinary(v); err != nil {
				m.logger.Warnw("Failed to unmarshal subscription record", "key", string(k), "error", err)
				return nil
			}
			if record.CustomerID == customerID && (found == nil || record.Updated.After(found.Updated)) {
				found = record
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("subscription for customer %s: %w", customerID, ErrNotFound)
	}
	return found, nil
}

// HasActiveSubscription reports whether the user's subscription is active.
// A user without any subscription is simply inactive.
func (m *Manager) HasActiveSubscription(userID string) (bool, error) {
	sub, err := m.GetSubscriptionByUser(userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return sub.IsActive(), nil
}

func getSubscription(tx *bbolt.Tx, id string) (*SubscriptionRecord, error) {
	data := tx.Bucket([]byte(SubscriptionsBucket)).Get([]byte(id))
	if data == nil {
		return nil, fmt.Errorf("subscription %s: %w", id, ErrNotFound)
	}
	record := &SubscriptionRecord{}
	if err := record.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return record, nil
}

// Email event operations

// eventKey orders events by receive time.
// Key format: {timestamp_ns}_{ulid}
func eventKey(timestamp time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%020d_%s", timestamp.UnixNano(), id))
}

// SaveEmailEvent appends an email event, assigning ID and receive time when unset
func (m *Manager) SaveEmailEvent(record *EmailEventRecord) error {
	if record.ID == "" {
		record.ID = ulid.Make().String()
	}
	if record.Received.IsZero() {
		record.Received = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.db.db.Update(func(tx *bbolt.Tx) error {
		data, err := record.MarshalBinary()
		if err != nil {
			return fmt.Errorf("failed to marshal email event: %w", err)
		}
		return tx.Bucket([]byte(EmailEventsBucket)).Put(eventKey(record.Received, record.ID), data)
	})
}

// ListEmailEvents returns up to limit events, newest first. A non-positive
// limit returns every event.
func (m *Manager) ListEmailEvents(limit int) ([]*EmailEventRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []*EmailEventRecord
	err := m.db.db.View(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket([]byte(EmailEventsBucket)).Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			if limit > 0 && len(records) >= limit {
				break
			}
			record := &EmailEventRecord{}
			if err := record.UnmarshalBinary(v); err != nil {
				m.logger.Warnw("Failed to unmarshal email event",
					"key", string(k),
					"error", err)
				continue
			}
			records = append(records, record)
		}
		return nil
	})
	return records, err
}

// PruneEmailEvents deletes events received before now minus maxAge and
// returns the number deleted.
func (m *Manager) PruneEmailEvents(maxAge time.Duration) (int, error) {
	cutoffKey := string(eventKey(time.Now().UTC().Add(-maxAge), ""))

	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int
	err := m.db.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(EmailEventsBucket))

		var keysToDelete [][]byte
		cursor := bucket.Cursor()
		for k, _ := cursor.First(); k != nil && string(k) < cutoffKey; k, _ = cursor.Next() {
			keysToDelete = append(keysToDelete, append([]byte{}, k...))
		}
		for _, key := range keysToDelete {
			if err := bucket.Delete(key); err != nil {
				return fmt.Errorf("failed to delete old email event: %w", err)
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return deleted, err
	}

	if deleted > 0 {
		m.logger.Infow("Pruned old email events",
			"deleted", deleted,
			"max_age", maxAge.String())
	}
	return deleted, nil
}
