package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/query-service/internal/domain"
)

func newQuery(studentID, title string) *domain.Query {
	return &domain.Query{
		StudentID:   studentID,
		Title:       title,
		Description: "details",
		Category:    domain.CategoryGeneral,
		Status:      domain.QueryStatusPending,
		Priority:    domain.QueryPriorityNormal,
		RepliesRead: true,
	}
}

func TestMemoryCreateValidates(t *testing.T) {
	repo := NewMemoryQueryRepository()
	ctx := context.Background()

	for _, q := range []*domain.Query{
		{Title: "t", Description: "d"},
		{StudentID: "s", Description: "d"},
		{StudentID: "s", Title: "t", Description: "   "},
	} {
		_, err := repo.Create(ctx, q)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	}
}

func TestMemoryListOrdering(t *testing.T) {
	repo := NewMemoryQueryRepository()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	for i, student := range []string{"s1", "s2", "s1"} {
		q := newQuery(student, fmt.Sprintf("q%d", i))
		q.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		_, err := repo.Create(ctx, q)
		require.NoError(t, err)
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"q2", "q1", "q0"}, []string{all[0].Title, all[1].Title, all[2].Title})

	mine, err := repo.ListByStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "q2", mine[0].Title)
	assert.Equal(t, "q0", mine[1].Title)
}

func TestMemoryNotFound(t *testing.T) {
	repo := NewMemoryQueryRepository()
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.SetFavorite(ctx, "missing", true)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "missing"), ErrNotFound)
}

func TestMemoryGuardBlocksWrite(t *testing.T) {
	repo := NewMemoryQueryRepository()
	ctx := context.Background()
	id, err := repo.Create(ctx, newQuery("s1", "t"))
	require.NoError(t, err)

	blocked := errors.New("blocked")
	_, err = repo.AppendReply(ctx, id, ReplyMutation{
		Reply: domain.Reply{Message: "hello", Author: "Admin", IsAdmin: true},
		Guard: func(*domain.Query) error { return blocked },
	})
	require.ErrorIs(t, err, blocked)

	q, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, q.Replies)
	assert.True(t, q.RepliesRead)
}

func TestMemoryAppendReplyAppliesTransition(t *testing.T) {
	repo := NewMemoryQueryRepository()
	ctx := context.Background()
	id, err := repo.Create(ctx, newQuery("s1", "t"))
	require.NoError(t, err)

	q, err := repo.AppendReply(ctx, id, ReplyMutation{
		Reply:       domain.Reply{Message: "on it", Author: "Admin", IsAdmin: true},
		RepliesRead: false,
		Transition: func(current domain.QueryStatus) domain.QueryStatus {
			return domain.AdvanceOnReply(current, true)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusInProgress, q.Status)
	assert.False(t, q.RepliesRead)
	require.Len(t, q.Replies, 1)
	assert.Equal(t, 1, q.Replies[0].Seq)
}

func TestMemoryConcurrentAppendsKeepEveryReply(t *testing.T) {
	repo := NewMemoryQueryRepository()
	ctx := context.Background()
	id, err := repo.Create(ctx, newQuery("s1", "t"))
	require.NoError(t, err)

	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := repo.AppendReply(ctx, id, ReplyMutation{
				Reply: domain.Reply{Message: fmt.Sprintf("m%d", i), Author: "Admin", IsAdmin: true},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	q, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, q.Replies, writers)
	seen := make(map[string]bool, writers)
	for i, r := range q.Replies {
		assert.Equal(t, i+1, r.Seq)
		seen[r.Message] = true
	}
	assert.Len(t, seen, writers)
}

func TestMemoryReturnsCopies(t *testing.T) {
	repo := NewMemoryQueryRepository()
	ctx := context.Background()
	id, err := repo.Create(ctx, newQuery("s1", "t"))
	require.NoError(t, err)

	q, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	q.Title = "mutated"
	q.Replies = append(q.Replies, domain.Reply{Message: "injected"})

	again, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "t", again.Title)
	assert.Empty(t, again.Replies)
}
