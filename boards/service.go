package boards

import (
	"context"
)

// Service fetches board data and pushes it into State.
type Service struct {
	client *Client
	state  *State
}

func NewService(client *Client, state *State) *Service {
	return &Service{client: client, state: state}
}

func (s *Service) State() *State {
	return s.state
}

func (s *Service) Client() *Client {
	return s.client
}

// LoadPage fetches page and stores it. The page index stored is the one the
// server reports.
func (s *Service) LoadPage(ctx context.Context, page int) error {
	s.state.SetLoading(true)
	defer s.state.SetLoading(false)

	p, err := s.client.List(ctx, page, s.state.PageSize())
	if err != nil {
		return err
	}
	s.state.SetBoards(p.Content, p.TotalPages, p.TotalElements, p.Number)
	return nil
}

// Open fetches one board and makes it the current board.
func (s *Service) Open(ctx context.Context, id int64) (*Detail, error) {
	s.state.SetLoading(true)
	defer s.state.SetLoading(false)

	d, err := s.client.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.state.SetCurrentBoard(d)
	return d, nil
}

// LoadCategories fetches categories unless they are already loaded.
func (s *Service) LoadCategories(ctx context.Context) (Categories, error) {
	if s.state.HasCategories() {
		return s.state.Snapshot().Categories, nil
	}
	c, err := s.client.Categories(ctx)
	if err != nil {
		return nil, err
	}
	s.state.SetCategories(c)
	return c, nil
}

// Save creates a board when id is zero and updates board id otherwise. It
// returns the id of the saved board.
func (s *Service) Save(ctx context.Context, id int64, r Request, file *Attachment) (int64, error) {
	if id == 0 {
		return s.client.Create(ctx, r, file)
	}
	return id, s.client.Update(ctx, id, r, file)
}

// Remove deletes a board and clears it if it was the current one.
func (s *Service) Remove(ctx context.Context, id int64) error {
	if err := s.client.Delete(ctx, id); err != nil {
		return err
	}
	if cur := s.state.Snapshot().Current; cur != nil && cur.ID == id {
		s.state.SetCurrentBoard(nil)
	}
	return nil
}
