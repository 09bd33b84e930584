package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	bolterrors "go.etcd.io/bbolt/errors"
	"go.uber.org/zap"
)

// DatabaseFile is the bbolt file name inside the data directory
const DatabaseFile = "kaizen.db"

// ErrSchemaTooNew means the file was written by a newer release
var ErrSchemaTooNew = errors.New("database schema is newer than this build supports")

// lockTimeout bounds the wait for another process to release the file lock
var lockTimeout = 10 * time.Second

var buckets = []string{
	UsersBucket,
	SubscriptionsBucket,
	SubscriptionOwnerBucket,
	EmailEventsBucket,
	MetaBucket,
}

// BoltDB owns the bbolt handle and its schema
type BoltDB struct {
	db     *bbolt.DB
	logger *zap.SugaredLogger
}

// NewBoltDB opens (creating if needed) the database under dataDir. A lock
// held by another process is reported as bolterrors.ErrTimeout, never broken.
func NewBoltDB(dataDir string, logger *zap.SugaredLogger) (*BoltDB, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, DatabaseFile)

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: lockTimeout})
	if errors.Is(err, bolterrors.ErrTimeout) {
		return nil, fmt.Errorf("database %s is locked by another process: %w", dbPath, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dbPath, err)
	}

	b := &BoltDB{db: db, logger: logger}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debugw("Database opened", "path", dbPath)
	return b, nil
}

// Close closes the database
func (b *BoltDB) Close() error {
	return b.db.Close()
}

// Path returns the database file path
func (b *BoltDB) Path() string {
	return b.db.Path()
}

// migrate creates missing buckets and stamps the schema version. Files
// stamped by a newer build are refused.
func (b *BoltDB) migrate() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket([]byte(MetaBucket))
		stored := decodeVersion(meta.Get([]byte(SchemaVersionKey)))
		switch {
		case stored > CurrentSchemaVersion:
			return fmt.Errorf("%w: found %d, want %d", ErrSchemaTooNew, stored, CurrentSchemaVersion)
		case stored == CurrentSchemaVersion:
			return nil
		}

		if stored != 0 {
			b.logger.Infow("Upgrading database schema", "from", stored, "to", CurrentSchemaVersion)
		}
		return meta.Put([]byte(SchemaVersionKey), encodeVersion(CurrentSchemaVersion))
	})
}

// GetSchemaVersion returns the stamped schema version
func (b *BoltDB) GetSchemaVersion() (uint64, error) {
	var version uint64
	err := b.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket([]byte(MetaBucket))
		if meta == nil {
			return fmt.Errorf("meta bucket not found")
		}
		version = decodeVersion(meta.Get([]byte(SchemaVersionKey)))
		return nil
	})
	return version, err
}

// Backup copies the database inside a read transaction, so writers are not
// blocked and the copy is consistent.
func (b *BoltDB) Backup(destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0700); err != nil {
		return err
	}
	return b.db.View(func(tx *bbolt.Tx) error {
		return tx.CopyFile(destPath, 0600)
	})
}

func encodeVersion(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

func decodeVersion(buf []byte) uint64 {
	if len(buf) != 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(buf)
}
