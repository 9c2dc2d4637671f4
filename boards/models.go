package boards

import "io"

// ListItem is one row of GET /boards.
type ListItem struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	CreatedAt string `json:"createdAt"`
}

// Detail is the body of GET /boards/{id}.
type Detail struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	BoardCategory string  `json:"boardCategory"`
	ImageURL      *string `json:"imageUrl"` // nil when the post has no image
	CreatedAt     string  `json:"createdAt"`
}

// Request is the JSON "request" part of create and update.
type Request struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// Categories maps a category key to its display label.
type Categories map[string]string

// Label returns the display label for key, or key itself when unknown.
func (c Categories) Label(key string) string {
	if label, ok := c[key]; ok && label != "" {
		return label
	}
	return key
}

// Page is the paged list envelope. Page numbers are zero based.
type Page[T any] struct {
	Content          []T   `json:"content"`
	TotalPages       int   `json:"totalPages"`
	TotalElements    int64 `json:"totalElements"`
	Number           int   `json:"number"`
	Size             int   `json:"size"`
	NumberOfElements int   `json:"numberOfElements"`
	First            bool  `json:"first"`
	Last             bool  `json:"last"`
	Empty            bool  `json:"empty"`
}

// Attachment is an optional image sent as the "file" part.
type Attachment struct {
	Name        string
	ContentType string // defaults to application/octet-stream
	Reader      io.Reader
}
