package sealedrepo

import (
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/jrsteele09/go-board-client/internal/errors"
	"github.com/jrsteele09/go-board-client/sessions"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

var _ sessions.Repo = (*Repo)(nil)

// Repo encrypts the slot of an inner Repo with secretbox. The stored value is
// nonce || sealed box.
type Repo struct {
	inner sessions.Repo
	key   [keySize]byte
}

// New wraps inner using key, which must be exactly 32 bytes.
func New(inner sessions.Repo, key []byte) (*Repo, error) {
	if len(key) != keySize {
		return nil, errors.Wrapf(errors.ErrBadRequest, "[sealedrepo New] key must be %d bytes, got %d", keySize, len(key))
	}
	r := &Repo{inner: inner}
	copy(r.key[:], key)
	return r, nil
}

// NewFromHex is New with a hex encoded key.
func NewFromHex(inner sessions.Repo, hexKey string) (*Repo, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, errors.Wrapf(err, "[sealedrepo NewFromHex] decoding key")
	}
	return New(inner, key)
}

// Get opens the stored box. A value that cannot be opened is reported as
// errors.ErrMalformedSession.
func (r *Repo) Get() ([]byte, error) {
	sealed, err := r.inner.Get()
	if err != nil {
		return nil, err
	}
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, errors.ErrMalformedSession
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	opened, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &r.key)
	if !ok {
		return nil, errors.ErrMalformedSession
	}
	return opened, nil
}

func (r *Repo) Put(data []byte) error {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return errors.Wrapf(err, "[sealedrepo Put] generating nonce")
	}
	return r.inner.Put(secretbox.Seal(nonce[:], data, &nonce, &r.key))
}

func (r *Repo) Delete() error {
	return r.inner.Delete()
}
