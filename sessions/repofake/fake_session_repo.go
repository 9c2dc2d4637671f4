package sessionrepofake

import (
	"sync"

	"github.com/jrsteele09/go-board-client/internal/errors"
	"github.com/jrsteele09/go-board-client/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo keeps the slot in memory. Tests can pre-seed it with raw
// bytes and make writes or deletes fail.
type FakeSessionRepo struct {
	data      []byte
	present   bool
	PutErr    error
	DeleteErr error
	lock      sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{}
}

// NewFakeSessionRepoWith returns a repo whose slot already holds data.
func NewFakeSessionRepoWith(data []byte) *FakeSessionRepo {
	return &FakeSessionRepo{data: append([]byte(nil), data...), present: true}
}

func (r *FakeSessionRepo) Get() ([]byte, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if !r.present {
		return nil, errors.ErrNotFound
	}
	return append([]byte(nil), r.data...), nil
}

func (r *FakeSessionRepo) Put(data []byte) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.PutErr != nil {
		return r.PutErr
	}
	r.data = append([]byte(nil), data...)
	r.present = true
	return nil
}

func (r *FakeSessionRepo) Delete() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	r.data = nil
	r.present = false
	return nil
}

// Present reports whether the slot currently holds anything.
func (r *FakeSessionRepo) Present() bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.present
}
