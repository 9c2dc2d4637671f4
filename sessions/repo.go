package sessions

// Repo is the durable single slot the token pair is persisted to. It
// survives process restarts.
type Repo interface {
	// Get returns the raw slot contents, or errors.ErrNotFound when empty
	Get() ([]byte, error)

	// Put replaces the slot contents
	Put(data []byte) error

	// Delete empties the slot. Deleting an empty slot is not an error
	Delete() error
}
