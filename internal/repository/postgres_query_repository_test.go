package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/query-service/internal/domain"
)

const testQueryID = "6f1c2a2e-3b7d-4c11-9d6e-2b9f0f6a7c11"

var queryColumnNames = []string{
	"id", "student_id", "student_name", "branch", "reg_no", "admission_year",
	"title", "description", "category", "status", "priority", "favorite", "replies_read",
	"created_at", "updated_at",
}

func queryRows(status string, repliesRead bool, at time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(queryColumnNames).AddRow(
		testQueryID, "stu-1", "Asha", "CSE", "REG-1", "2022",
		"Visa question", "Need help", "General", status, "normal", false, repliesRead,
		at, at,
	)
}

func replyRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"seq", "message", "author", "is_admin", "created_at"})
}

func TestPostgresCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewQueryRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO queries")).
		WithArgs("stu-1", "Asha", "CSE", "REG-1", "2022", "Visa question", "Need help",
			"General", "pending", "normal", false, true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(testQueryID, now, now))

	q := &domain.Query{
		StudentID:     "stu-1",
		StudentName:   "Asha",
		Branch:        "CSE",
		RegNo:         "REG-1",
		AdmissionYear: "2022",
		Title:         "Visa question",
		Description:   "Need help",
		Category:      domain.CategoryGeneral,
		Status:        domain.QueryStatusPending,
		Priority:      domain.QueryPriorityNormal,
		RepliesRead:   true,
	}
	id, err := repo.Create(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, testQueryID, id)
	assert.Equal(t, now, q.CreatedAt)
	assert.NotNil(t, q.Replies)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateRejectsMissingTitle(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewQueryRepository(mock).Create(context.Background(), &domain.Query{StudentID: "s", Description: "d"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewQueryRepository(mock)

	_, err = repo.GetByID(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta("FROM queries WHERE id=$1")).
		WithArgs(testQueryID).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByID(context.Background(), testQueryID)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppendReplyRunsInOneTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewQueryRepository(mock)
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	replyAt := created.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM queries WHERE id=$1 FOR UPDATE")).
		WithArgs(testQueryID).
		WillReturnRows(queryRows("pending", true, created))
	mock.ExpectQuery(regexp.QuoteMeta("FROM query_replies WHERE query_id=$1")).
		WithArgs(testQueryID).
		WillReturnRows(replyRows())
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE queries SET reply_seq=reply_seq+1")).
		WithArgs(testQueryID, false, "in-progress").
		WillReturnRows(pgxmock.NewRows([]string{"reply_seq"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO query_replies")).
		WithArgs(testQueryID, 1, "We'll look into it", "Admin", true, replyAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM queries WHERE id=$1")).
		WithArgs(testQueryID).
		WillReturnRows(queryRows("in-progress", false, created))
	mock.ExpectQuery(regexp.QuoteMeta("FROM query_replies WHERE query_id=$1")).
		WithArgs(testQueryID).
		WillReturnRows(replyRows().AddRow(1, "We'll look into it", "Admin", true, replyAt))
	mock.ExpectCommit()

	q, err := repo.AppendReply(context.Background(), testQueryID, ReplyMutation{
		Reply:       domain.Reply{Message: "We'll look into it", Author: "Admin", IsAdmin: true, Timestamp: replyAt},
		RepliesRead: false,
		Guard:       func(*domain.Query) error { return nil },
		Transition: func(current domain.QueryStatus) domain.QueryStatus {
			return domain.AdvanceOnReply(current, true)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusInProgress, q.Status)
	assert.False(t, q.RepliesRead)
	require.Len(t, q.Replies, 1)
	assert.Equal(t, 1, q.Replies[0].Seq)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppendReplyGuardRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewQueryRepository(mock)
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	closed := errors.New("closed")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM queries WHERE id=$1 FOR UPDATE")).
		WithArgs(testQueryID).
		WillReturnRows(queryRows("resolved", true, created))
	mock.ExpectQuery(regexp.QuoteMeta("FROM query_replies WHERE query_id=$1")).
		WithArgs(testQueryID).
		WillReturnRows(replyRows())
	mock.ExpectRollback()

	_, err = repo.AppendReply(context.Background(), testQueryID, ReplyMutation{
		Reply: domain.Reply{Message: "late", Author: "Admin", IsAdmin: true},
		Guard: func(q *domain.Query) error {
			if q.Status == domain.QueryStatusResolved {
				return closed
			}
			return nil
		},
	})
	require.ErrorIs(t, err, closed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM queries WHERE id=$1")).
		WithArgs(testQueryID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = NewQueryRepository(mock).Delete(context.Background(), testQueryID)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentDirectoryLookup(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	dir := NewStudentDirectory(mock)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id=$1")).
		WithArgs("stu-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "branch", "reg_no", "admission_year"}).
			AddRow("stu-1", "Asha", "CSE", "REG-1", "2022"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id=$1")).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	p, err := dir.GetByID(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "CSE", p.Branch)

	_, err = dir.GetByID(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrStudentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
