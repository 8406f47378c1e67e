package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/vpl/internal/core"
)

func TestNextSequence_Concurrent(t *testing.T) {
	s := New()
	ctx := context.Background()

	const n = 50
	seen := make(chan int64, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.NextSequence(ctx)
			assert.NoError(t, err)
			seen <- v
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for v := range seen {
		assert.False(t, unique[v], "sequence %d handed out twice", v)
		unique[v] = true
	}
	assert.Len(t, unique, n)
	for i := int64(1); i <= n; i++ {
		assert.True(t, unique[i], "missing %d", i)
	}
}

func TestInsert_RejectsDuplicates(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, &core.Player{ID: 1, PublicID: "VPL-001"}))

	err := s.Insert(ctx, &core.Player{ID: 1, PublicID: "VPL-999"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")

	err = s.Insert(ctx, &core.Player{ID: 2, PublicID: "VPL-001"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")

	players, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, players, 1)
}

func TestList_OrderedByID(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, id := range []int64{3, 1, 2} {
		require.NoError(t, s.Insert(ctx, &core.Player{ID: id, PublicID: core.FormatPublicID(id)}))
	}

	players, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, players, 3)
	for i, p := range players {
		assert.Equal(t, int64(i+1), p.ID)
		assert.False(t, p.CreatedAt.IsZero())
	}

	next, err := s.NextSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), next, "sequence continues after explicitly inserted ids")
}

func TestList_ReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, &core.Player{ID: 1, PublicID: "VPL-001", FullName: "A"}))

	players, err := s.List(ctx)
	require.NoError(t, err)
	players[0].FullName = "changed"

	again, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", again[0].FullName)
}

func TestCancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.NextSequence(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Insert(ctx, &core.Player{ID: 1}), context.Canceled)
	_, err = s.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
