package boards

import "sync"

const DefaultPageSize = 10

// State is the application store for board data. It is not part of the auth
// core; it only needs to be safe to share between goroutines.
type State struct {
	mu            sync.RWMutex
	boards        []ListItem
	current       *Detail
	categories    Categories
	page          int
	totalPages    int
	totalElements int64
	pageSize      int
	loading       bool
}

func NewState(pageSize int) *State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &State{categories: Categories{}, pageSize: pageSize}
}

// Snapshot is a read-only copy of State.
type Snapshot struct {
	Boards        []ListItem
	Current       *Detail
	Categories    Categories
	Page          int
	TotalPages    int
	TotalElements int64
	PageSize      int
	Loading       bool
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make(Categories, len(s.categories))
	for k, v := range s.categories {
		categories[k] = v
	}
	return Snapshot{
		Boards:        append([]ListItem(nil), s.boards...),
		Current:       s.current,
		Categories:    categories,
		Page:          s.page,
		TotalPages:    s.totalPages,
		TotalElements: s.totalElements,
		PageSize:      s.pageSize,
		Loading:       s.loading,
	}
}

func (s *State) SetBoards(boards []ListItem, totalPages int, totalElements int64, page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards = boards
	s.totalPages = totalPages
	s.totalElements = totalElements
	s.page = page
}

func (s *State) SetCurrentBoard(board *Detail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = board
}

func (s *State) SetCategories(categories Categories) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = categories
}

func (s *State) SetPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = page
}

func (s *State) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

func (s *State) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

func (s *State) PageSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pageSize
}

func (s *State) HasCategories() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.categories) > 0
}

// CategoryLabel returns the display label for key, or key when unknown.
func (s *State) CategoryLabel(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories.Label(key)
}

// Reset drops everything fetched so far, keeping the page size.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards = nil
	s.current = nil
	s.categories = Categories{}
	s.page = 0
	s.totalPages = 0
	s.totalElements = 0
	s.loading = false
}
