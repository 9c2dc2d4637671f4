package config

import (
	"io/fs"
	"os"
	"time"

	"github.com/jrsteele09/go-board-client/internal/errors"
	"gopkg.in/yaml.v3"
)

// FileValues is the optional YAML overlay. Zero values fall through to the
// built in defaults.
type FileValues struct {
	AppName        string        `yaml:"app_name"`
	Env            string        `yaml:"env"`
	LogLevel       string        `yaml:"log_level"`
	APIBaseURL     string        `yaml:"api_base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout"`
	PageSize       int           `yaml:"page_size"`
	SessionPath    string        `yaml:"session_path"`
	SessionKey     string        `yaml:"session_key"`
}

// LoadFile reads the YAML file at path. An empty path or a missing file is not
// an error and yields nil; a file that exists but cannot be read or parsed is.
func LoadFile(path string) (*FileValues, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "[config LoadFile] reading %s", path)
	}

	fv := &FileValues{}
	if err := yaml.Unmarshal(data, fv); err != nil {
		return nil, errors.Wrapf(err, "[config LoadFile] parsing %s", path)
	}
	return fv, nil
}

func (f *FileValues) str(get func(*FileValues) string, def string) string {
	if f == nil {
		return def
	}
	if v := get(f); v != "" {
		return v
	}
	return def
}

func (f *FileValues) duration(get func(*FileValues) time.Duration, def time.Duration) time.Duration {
	if f == nil {
		return def
	}
	if v := get(f); v != 0 {
		return v
	}
	return def
}
