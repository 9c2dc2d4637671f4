package fakeapi

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-board-client/internal/errors"
)

type boardBody struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

type listItem struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	CreatedAt string `json:"createdAt"`
}

// SeedBoards stores n boards titled "board <i>" in category FREE.
func (s *Server) SeedBoards(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		id := s.nextBoardID
		s.nextBoardID++
		s.boards[id] = &board{
			ID:        id,
			Title:     "board " + strconv.FormatInt(id, 10),
			Content:   "content " + strconv.FormatInt(id, 10),
			Category:  "FREE",
			CreatedAt: time.Date(2024, 1, 1, 0, 0, int(id), 0, time.UTC).Format(time.RFC3339),
		}
	}
}

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 {
		size = 10
	}
	if page < 0 {
		page = 0
	}

	s.mu.Lock()
	all := make([]*board, 0, len(s.boards))
	for _, b := range s.boards {
		all = append(all, b)
	}
	s.mu.Unlock()

	// newest first
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	content := make([]listItem, 0, size)
	for i := page * size; i < len(all) && i < (page+1)*size; i++ {
		content = append(content, listItem{ID: all[i].ID, Title: all[i].Title, Category: all[i].Category, CreatedAt: all[i].CreatedAt})
	}
	totalPages := (len(all) + size - 1) / size

	writeJSON(w, http.StatusOK, map[string]any{
		"content":          content,
		"totalPages":       totalPages,
		"totalElements":    len(all),
		"number":           page,
		"size":             size,
		"numberOfElements": len(content),
		"first":            page == 0,
		"last":             page >= totalPages-1,
		"empty":            len(content) == 0,
		"pageable":         map[string]any{"pageNumber": page, "pageSize": size, "offset": page * size, "paged": true, "unpaged": false},
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Categories)
}

func (s *Server) boardFromPath(w http.ResponseWriter, r *http.Request) (*board, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	s.mu.Lock()
	b, ok := s.boards[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "board not found")
		return nil, false
	}
	return b, true
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	b, ok := s.boardFromPath(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	copied := *b
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, copied)
}

// Part describes one part of the last multipart board request.
type Part struct {
	Name        string
	FileName    string
	ContentType string
}

// readMultipart reads the "request" JSON part and the optional "file" part,
// recording every part's headers. The JSON part may arrive either as a plain
// field or as a file.
func (s *Server) readMultipart(r *http.Request) (boardBody, *string, error) {
	var body boardBody
	mr, err := r.MultipartReader()
	if err != nil {
		return body, nil, err
	}

	var parts []Part
	var imageURL *string
	gotRequest := false
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return body, nil, err
		}
		parts = append(parts, Part{Name: part.FormName(), FileName: part.FileName(), ContentType: part.Header.Get("Content-Type")})

		switch part.FormName() {
		case "request":
			if err := json.NewDecoder(part).Decode(&body); err != nil {
				return body, nil, err
			}
			gotRequest = true
		case "file":
			if _, err := io.Copy(io.Discard, part); err != nil {
				return body, nil, err
			}
			url := "/media/" + uuid.NewString() + "-" + part.FileName()
			imageURL = &url
		}
	}

	s.mu.Lock()
	s.lastParts = parts
	s.mu.Unlock()

	if !gotRequest {
		return body, nil, errors.New("missing request part")
	}
	return body, imageURL, nil
}

// LastParts returns the parts of the most recent create or update request.
func (s *Server) LastParts() []Part {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Part(nil), s.lastParts...)
}

func (s *Server) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	body, imageURL, err := s.readMultipart(r)
	if err != nil || body.Title == "" || body.Category == "" {
		writeError(w, http.StatusBadRequest, "invalid board request")
		return
	}

	s.mu.Lock()
	id := s.nextBoardID
	s.nextBoardID++
	s.boards[id] = &board{
		ID:        id,
		Title:     body.Title,
		Content:   body.Content,
		Category:  body.Category,
		ImageURL:  imageURL,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (s *Server) handleUpdateBoard(w http.ResponseWriter, r *http.Request) {
	b, ok := s.boardFromPath(w, r)
	if !ok {
		return
	}
	body, imageURL, err := s.readMultipart(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid board request")
		return
	}

	s.mu.Lock()
	b.Title = body.Title
	b.Content = body.Content
	b.Category = body.Category
	if imageURL != nil {
		b.ImageURL = imageURL
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	b, ok := s.boardFromPath(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.boards, b.ID)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}
