package boards_test

import (
	"sync"
	"testing"

	"github.com/jrsteele09/go-board-client/boards"
	"github.com/stretchr/testify/require"
)

func TestStateDefaults(t *testing.T) {
	s := boards.NewState(0)
	snap := s.Snapshot()
	require.Equal(t, boards.DefaultPageSize, snap.PageSize)
	require.Empty(t, snap.Boards)
	require.Nil(t, snap.Current)
	require.False(t, s.HasCategories())

	require.Equal(t, 20, boards.NewState(20).PageSize())
}

func TestStateReset(t *testing.T) {
	s := boards.NewState(5)
	s.SetBoards([]boards.ListItem{{ID: 1}}, 3, 11, 2)
	s.SetCurrentBoard(&boards.Detail{ID: 1})
	s.SetCategories(boards.Categories{"FREE": "자유"})
	s.SetLoading(true)

	s.Reset()

	snap := s.Snapshot()
	require.Empty(t, snap.Boards)
	require.Nil(t, snap.Current)
	require.Empty(t, snap.Categories)
	require.Zero(t, snap.Page)
	require.Zero(t, snap.TotalPages)
	require.Zero(t, snap.TotalElements)
	require.False(t, snap.Loading)
	require.Equal(t, 5, snap.PageSize)
}

func TestCategoryLabel(t *testing.T) {
	s := boards.NewState(0)
	require.Equal(t, "FREE", s.CategoryLabel("FREE"))

	s.SetCategories(boards.Categories{"FREE": "자유", "EMPTY": ""})
	require.Equal(t, "자유", s.CategoryLabel("FREE"))
	require.Equal(t, "EMPTY", s.CategoryLabel("EMPTY"))
}

func TestSnapshotIsACopy(t *testing.T) {
	s := boards.NewState(0)
	s.SetBoards([]boards.ListItem{{ID: 1, Title: "a"}}, 1, 1, 0)
	s.SetCategories(boards.Categories{"FREE": "자유"})

	snap := s.Snapshot()
	snap.Boards[0].Title = "changed"
	snap.Categories["FREE"] = "changed"

	again := s.Snapshot()
	require.Equal(t, "a", again.Boards[0].Title)
	require.Equal(t, "자유", again.Categories["FREE"])
}

func TestStateConcurrentAccess(t *testing.T) {
	s := boards.NewState(0)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.SetPage(i)
			s.SetLoading(i%2 == 0)
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
			_ = s.CategoryLabel("FREE")
		}()
	}
	wg.Wait()
}
