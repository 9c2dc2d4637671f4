package config

import (
	"strings"
	"time"
)

const (
	apiBaseURLVar     = "API_BASE_URL"
	requestTimeoutVar = "REQUEST_TIMEOUT"
	refreshTimeoutVar = "REFRESH_TIMEOUT"
	pageSizeVar       = "PAGE_SIZE"
)

type Client struct {
	file *FileValues
}

var _ ClientConfig = Client{}

// GetAPIBaseURL returns the API root every request path is appended to,
// without a trailing slash (e.g. "https://boards.example.com/api").
func (c Client) GetAPIBaseURL() string {
	url := GetEnv(apiBaseURLVar, c.file.str(func(f *FileValues) string { return f.APIBaseURL }, "http://localhost:8080/api"))
	return strings.TrimRight(url, "/")
}

func (c Client) GetRequestTimeout() time.Duration {
	return GetEnvDuration(requestTimeoutVar, c.file.duration(func(f *FileValues) time.Duration { return f.RequestTimeout }, 30*time.Second))
}

// GetRefreshTimeout bounds a single refresh exchange. Zero means wait forever.
func (c Client) GetRefreshTimeout() time.Duration {
	return GetEnvDuration(refreshTimeoutVar, c.file.duration(func(f *FileValues) time.Duration { return f.RefreshTimeout }, 0))
}

func (c Client) GetPageSize() int {
	def := 10
	if c.file != nil && c.file.PageSize > 0 {
		def = c.file.PageSize
	}
	return GetEnvInt(pageSizeVar, def)
}
