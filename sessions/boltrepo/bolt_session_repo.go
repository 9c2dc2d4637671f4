package boltrepo

import (
	"os"
	"path/filepath"
	"time"

	"github.com/jrsteele09/go-board-client/internal/errors"
	"github.com/jrsteele09/go-board-client/sessions"
	bolt "go.etcd.io/bbolt"
)

var (
	bktAuth = []byte("auth")
	keyAuth = []byte("auth")
)

var _ sessions.Repo = (*Repo)(nil)

// Repo persists the session slot in a bolt file so it survives restarts.
type Repo struct {
	db *bolt.DB
}

// Open opens (creating if needed) the bolt file at path.
func Open(path string) (*Repo, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, errors.Wrapf(err, "[boltrepo Open] creating %s", dir)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "[boltrepo Open] opening %s", path)
	}
	return &Repo{db: db}, nil
}

// Close closes the storage
func (r *Repo) Close() error {
	return r.db.Close()
}

func (r *Repo) Get() ([]byte, error) {
	var data []byte
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktAuth)
		if b == nil {
			return errors.ErrNotFound
		}
		v := b.Get(keyAuth)
		if v == nil {
			return errors.ErrNotFound
		}
		// v is only valid inside the transaction
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}

func (r *Repo) Put(data []byte) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktAuth)
		if err != nil {
			return err
		}
		return b.Put(keyAuth, data)
	})
}

func (r *Repo) Delete() error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktAuth)
		if b == nil {
			return nil
		}
		return b.Delete(keyAuth)
	})
}
