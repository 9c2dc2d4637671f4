package config

import "time"

type Config interface {
	EnvConfig
	ClientConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type ClientConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
	GetRefreshTimeout() time.Duration
	GetPageSize() int
}

type StorageConfig interface {
	GetSessionPath() string
	GetSessionKey() string
}

type mainConfig struct {
	EnvVars
	Client
	Storage
}

// New returns a configuration backed by environment variables and defaults only.
func New() Config {
	return mainConfig{}
}

// Load returns a configuration that overlays the YAML file at path on top of
// the defaults. Environment variables still win over file values.
func Load(path string) (Config, error) {
	fv, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return mainConfig{
		EnvVars: EnvVars{file: fv},
		Client:  Client{file: fv},
		Storage: Storage{file: fv},
	}, nil
}
