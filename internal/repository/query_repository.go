package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/query-service/internal/domain"
)

// ErrNotFound is returned when no query exists for the requested id.
var ErrNotFound = errors.New("query not found")

// ValidationError reports a required field missing at persistence time.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// Guard inspects the current, locked state of a query before a write and
// aborts the write by returning an error.
type Guard func(current *domain.Query) error

// ReplyMutation is applied as one unit: the guard, the appended reply, the
// read flag and the status transition land together or not at all.
type ReplyMutation struct {
	Reply       domain.Reply
	RepliesRead bool
	Guard       Guard
	// Transition maps the status held before the append to the status after it.
	Transition func(current domain.QueryStatus) domain.QueryStatus
}

// QueryRepository persists query aggregates with their embedded replies.
type QueryRepository interface {
	Create(ctx context.Context, q *domain.Query) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Query, error)
	ListAll(ctx context.Context) ([]domain.Query, error)
	ListByStudent(ctx context.Context, studentID string) ([]domain.Query, error)
	AppendReply(ctx context.Context, id string, m ReplyMutation) (*domain.Query, error)
	SetStatus(ctx context.Context, id string, status domain.QueryStatus, guard Guard) (*domain.Query, error)
	SetFavorite(ctx context.Context, id string, favorite bool) (*domain.Query, error)
	SetRepliesRead(ctx context.Context, id string, read bool) (*domain.Query, error)
	SetPriority(ctx context.Context, id string, priority domain.QueryPriority) (*domain.Query, error)
	Delete(ctx context.Context, id string) error
}

// DB is the subset of pgxpool.Pool the repositories need.
type DB interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func validateNew(q *domain.Query) error {
	switch {
	case strings.TrimSpace(q.StudentID) == "":
		return &ValidationError{Field: "studentId"}
	case strings.TrimSpace(q.Title) == "":
		return &ValidationError{Field: "title"}
	case strings.TrimSpace(q.Description) == "":
		return &ValidationError{Field: "description"}
	}
	return nil
}

func applyReply(q *domain.Query, m ReplyMutation) {
	m.Reply.Seq = len(q.Replies) + 1
	q.Replies = append(q.Replies, m.Reply)
	q.RepliesRead = m.RepliesRead
	if m.Transition != nil {
		q.Status = m.Transition(q.Status)
	}
}
