package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/query-service/internal/domain"
)

// MemoryQueryRepository keeps queries in process. It backs local runs
// without POSTGRES_DSN and the service tests.
type MemoryQueryRepository struct {
	mu    sync.RWMutex
	store map[string]*domain.Query
	now   func() time.Time
}

// NewMemoryQueryRepository returns an empty store.
func NewMemoryQueryRepository() *MemoryQueryRepository {
	return &MemoryQueryRepository{store: make(map[string]*domain.Query), now: time.Now}
}

func (r *MemoryQueryRepository) Create(ctx context.Context, q *domain.Query) (string, error) {
	if err := validateNew(q); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	now := r.now()
	stored := q.Clone()
	stored.ID = uuid.NewString()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	if stored.Replies == nil {
		stored.Replies = []domain.Reply{}
	}

	r.mu.Lock()
	r.store[stored.ID] = stored
	r.mu.Unlock()

	q.ID = stored.ID
	q.CreatedAt = stored.CreatedAt
	q.UpdatedAt = stored.UpdatedAt
	q.Replies = []domain.Reply{}
	return stored.ID, nil
}

func (r *MemoryQueryRepository) GetByID(ctx context.Context, id string) (*domain.Query, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return q.Clone(), nil
}

func (r *MemoryQueryRepository) ListAll(ctx context.Context) ([]domain.Query, error) {
	return r.list(func(*domain.Query) bool { return true }), nil
}

func (r *MemoryQueryRepository) ListByStudent(ctx context.Context, studentID string) ([]domain.Query, error) {
	return r.list(func(q *domain.Query) bool { return q.StudentID == studentID }), nil
}

func (r *MemoryQueryRepository) list(keep func(*domain.Query) bool) []domain.Query {
	r.mu.RLock()
	out := make([]domain.Query, 0, len(r.store))
	for _, q := range r.store {
		if keep(q) {
			out = append(out, *q.Clone())
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *MemoryQueryRepository) AppendReply(ctx context.Context, id string, m ReplyMutation) (*domain.Query, error) {
	return r.mutate(ctx, id, m.Guard, func(q *domain.Query) {
		applyReply(q, m)
	})
}

func (r *MemoryQueryRepository) SetStatus(ctx context.Context, id string, status domain.QueryStatus, guard Guard) (*domain.Query, error) {
	return r.mutate(ctx, id, guard, func(q *domain.Query) {
		q.Status = status
	})
}

func (r *MemoryQueryRepository) SetFavorite(ctx context.Context, id string, favorite bool) (*domain.Query, error) {
	return r.mutate(ctx, id, nil, func(q *domain.Query) {
		q.Favorite = favorite
	})
}

func (r *MemoryQueryRepository) SetRepliesRead(ctx context.Context, id string, read bool) (*domain.Query, error) {
	return r.mutate(ctx, id, nil, func(q *domain.Query) {
		q.RepliesRead = read
	})
}

func (r *MemoryQueryRepository) SetPriority(ctx context.Context, id string, priority domain.QueryPriority) (*domain.Query, error) {
	return r.mutate(ctx, id, nil, func(q *domain.Query) {
		q.Priority = priority
	})
}

func (r *MemoryQueryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[id]; !ok {
		return ErrNotFound
	}
	delete(r.store, id)
	return nil
}

// mutate runs guard and apply on a private copy under the write lock and
// swaps it in only when both succeed.
func (r *MemoryQueryRepository) mutate(ctx context.Context, id string, guard Guard, apply func(*domain.Query)) (*domain.Query, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	if guard != nil {
		if err := guard(current.Clone()); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	next := current.Clone()
	apply(next)
	next.UpdatedAt = r.now()
	r.store[id] = next
	return next.Clone(), nil
}
