package config

const (
	sessionPathVar = "SESSION_PATH"
	sessionKeyVar  = "SESSION_KEY"
)

type Storage struct {
	file *FileValues
}

var _ StorageConfig = Storage{}

// GetSessionPath is the bolt file holding the persisted token pair.
func (s Storage) GetSessionPath() string {
	return GetEnv(sessionPathVar, s.file.str(func(f *FileValues) string { return f.SessionPath }, "./data/session.db"))
}

// GetSessionKey is an optional hex encoded 32 byte key. When set the
// persisted session is sealed with it.
func (s Storage) GetSessionKey() string {
	return GetEnv(sessionKeyVar, s.file.str(func(f *FileValues) string { return f.SessionKey }, ""))
}
