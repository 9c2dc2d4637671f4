package config

import (
	"os"
	"strconv"
	"time"
)

const (
	appNameVar  = "APP_NAME"
	envVar      = "ENV"
	logLevelVar = "LOG_LEVEL"
)

type EnvVars struct {
	file *FileValues
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return GetEnv(appNameVar, e.file.str(func(f *FileValues) string { return f.AppName }, "Board Client"))
}

func (e EnvVars) GetEnv() string {
	return GetEnv(envVar, e.file.str(func(f *FileValues) string { return f.Env }, "DEV"))
}

func (e EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, e.file.str(func(f *FileValues) string { return f.LogLevel }, "info"))
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvDuration parses envVar with time.ParseDuration, falling back to
// defaultValue when it is unset or invalid.
func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func GetEnvInt(envVar string, defaultValue int) int {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}
