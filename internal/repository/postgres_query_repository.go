package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/query-service/internal/domain"
)

const queryColumns = `id::text, student_id, student_name, branch, reg_no, admission_year,
               title, description, category, status, priority, favorite, replies_read,
               created_at, updated_at`

type queryRepository struct {
	db DB
}

// NewQueryRepository returns a Postgres-backed implementation. Replies live
// in query_replies keyed by (query_id, seq); seq comes from queries.reply_seq
// bumped under the parent row lock so appends are totally ordered.
func NewQueryRepository(db DB) QueryRepository {
	return &queryRepository{db: db}
}

func (r *queryRepository) Create(ctx context.Context, q *domain.Query) (string, error) {
	if err := validateNew(q); err != nil {
		return "", err
	}
	const query = `
        INSERT INTO queries (student_id, student_name, branch, reg_no, admission_year, title, description,
                             category, status, priority, favorite, replies_read)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id::text, created_at, updated_at`
	if err := r.db.QueryRow(ctx, query,
		q.StudentID,
		q.StudentName,
		q.Branch,
		q.RegNo,
		q.AdmissionYear,
		q.Title,
		q.Description,
		string(q.Category),
		string(q.Status),
		string(q.Priority),
		q.Favorite,
		q.RepliesRead,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return "", fmt.Errorf("insert query: %w", err)
	}
	q.Replies = []domain.Reply{}
	return q.ID, nil
}

func (r *queryRepository) GetByID(ctx context.Context, id string) (*domain.Query, error) {
	if !isUUID(id) {
		return nil, ErrNotFound
	}
	q, err := fetchQuery(ctx, r.db, `SELECT `+queryColumns+` FROM queries WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	if err := loadThread(ctx, r.db, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (r *queryRepository) ListAll(ctx context.Context) ([]domain.Query, error) {
	return r.list(ctx, `SELECT `+queryColumns+` FROM queries ORDER BY created_at DESC, id DESC`)
}

func (r *queryRepository) ListByStudent(ctx context.Context, studentID string) ([]domain.Query, error) {
	return r.list(ctx, `SELECT `+queryColumns+` FROM queries WHERE student_id=$1 ORDER BY created_at DESC, id DESC`, studentID)
}

func (r *queryRepository) list(ctx context.Context, query string, args ...any) ([]domain.Query, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	result, err := scanQueries(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}
	if err := loadThreads(ctx, r.db, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *queryRepository) AppendReply(ctx context.Context, id string, m ReplyMutation) (*domain.Query, error) {
	return r.mutate(ctx, id, m.Guard, func(tx pgx.Tx, q *domain.Query) error {
		status := q.Status
		if m.Transition != nil {
			status = m.Transition(q.Status)
		}
		var seq int
		const bump = `
        UPDATE queries SET reply_seq=reply_seq+1, replies_read=$2, status=$3, updated_at=NOW()
        WHERE id=$1
        RETURNING reply_seq`
		if err := tx.QueryRow(ctx, bump, id, m.RepliesRead, string(status)).Scan(&seq); err != nil {
			return fmt.Errorf("bump reply seq: %w", err)
		}
		const insert = `
        INSERT INTO query_replies (query_id, seq, message, author, is_admin, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
		if _, err := tx.Exec(ctx, insert, id, seq, m.Reply.Message, m.Reply.Author, m.Reply.IsAdmin, m.Reply.Timestamp); err != nil {
			return fmt.Errorf("insert reply: %w", err)
		}
		return nil
	})
}

func (r *queryRepository) SetStatus(ctx context.Context, id string, status domain.QueryStatus, guard Guard) (*domain.Query, error) {
	return r.updateColumn(ctx, id, guard, `UPDATE queries SET status=$2, updated_at=NOW() WHERE id=$1`, string(status))
}

func (r *queryRepository) SetFavorite(ctx context.Context, id string, favorite bool) (*domain.Query, error) {
	return r.updateColumn(ctx, id, nil, `UPDATE queries SET favorite=$2, updated_at=NOW() WHERE id=$1`, favorite)
}

func (r *queryRepository) SetRepliesRead(ctx context.Context, id string, read bool) (*domain.Query, error) {
	return r.updateColumn(ctx, id, nil, `UPDATE queries SET replies_read=$2, updated_at=NOW() WHERE id=$1`, read)
}

func (r *queryRepository) SetPriority(ctx context.Context, id string, priority domain.QueryPriority) (*domain.Query, error) {
	return r.updateColumn(ctx, id, nil, `UPDATE queries SET priority=$2, updated_at=NOW() WHERE id=$1`, string(priority))
}

func (r *queryRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM queries WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete query: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *queryRepository) updateColumn(ctx context.Context, id string, guard Guard, stmt string, value any) (*domain.Query, error) {
	return r.mutate(ctx, id, guard, func(tx pgx.Tx, _ *domain.Query) error {
		if _, err := tx.Exec(ctx, stmt, id, value); err != nil {
			return fmt.Errorf("update query: %w", err)
		}
		return nil
	})
}

// mutate locks the row, evaluates the guard against it, applies the write
// and reloads the aggregate inside one transaction.
func (r *queryRepository) mutate(ctx context.Context, id string, guard Guard, write func(pgx.Tx, *domain.Query) error) (result *domain.Query, err error) {
	if !isUUID(id) {
		return nil, ErrNotFound
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	current, err := fetchQuery(ctx, tx, `SELECT `+queryColumns+` FROM queries WHERE id=$1 FOR UPDATE`, id)
	if err != nil {
		return nil, err
	}
	if guard != nil {
		if err = loadThread(ctx, tx, current); err != nil {
			return nil, err
		}
		if err = guard(current); err != nil {
			return nil, err
		}
	}
	if err = write(tx, current); err != nil {
		return nil, err
	}

	updated, err := fetchQuery(ctx, tx, `SELECT `+queryColumns+` FROM queries WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	if err = loadThread(ctx, tx, updated); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return updated, nil
}

func fetchQuery(ctx context.Context, db querier, query string, id string) (*domain.Query, error) {
	q, err := scanQuery(db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch query: %w", err)
	}
	return q, nil
}

func scanQuery(row pgx.Row) (*domain.Query, error) {
	var (
		q                          domain.Query
		category, status, priority string
	)
	if err := row.Scan(
		&q.ID,
		&q.StudentID,
		&q.StudentName,
		&q.Branch,
		&q.RegNo,
		&q.AdmissionYear,
		&q.Title,
		&q.Description,
		&category,
		&status,
		&priority,
		&q.Favorite,
		&q.RepliesRead,
		&q.CreatedAt,
		&q.UpdatedAt,
	); err != nil {
		return nil, err
	}
	q.Category = domain.QueryCategory(category)
	q.Status = domain.QueryStatus(status)
	q.Priority = domain.QueryPriority(priority)
	q.Replies = []domain.Reply{}
	return &q, nil
}

func scanQueries(rows pgx.Rows) ([]domain.Query, error) {
	defer rows.Close()
	result := []domain.Query{}
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *q)
	}
	return result, rows.Err()
}

func loadThread(ctx context.Context, db querier, q *domain.Query) error {
	const query = `
        SELECT seq, message, author, is_admin, created_at
        FROM query_replies WHERE query_id=$1 ORDER BY seq ASC`
	rows, err := db.Query(ctx, query, q.ID)
	if err != nil {
		return fmt.Errorf("load replies: %w", err)
	}
	defer rows.Close()

	replies := []domain.Reply{}
	for rows.Next() {
		var reply domain.Reply
		if err := rows.Scan(&reply.Seq, &reply.Message, &reply.Author, &reply.IsAdmin, &reply.Timestamp); err != nil {
			return err
		}
		replies = append(replies, reply)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	q.Replies = replies
	return nil
}

func loadThreads(ctx context.Context, db querier, queries []domain.Query) error {
	ids := make([]string, len(queries))
	index := make(map[string]int, len(queries))
	for i := range queries {
		ids[i] = queries[i].ID
		index[queries[i].ID] = i
	}
	const query = `
        SELECT query_id::text, seq, message, author, is_admin, created_at
        FROM query_replies WHERE query_id = ANY($1::uuid[]) ORDER BY query_id, seq ASC`
	rows, err := db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("load replies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			queryID string
			reply   domain.Reply
		)
		if err := rows.Scan(&queryID, &reply.Seq, &reply.Message, &reply.Author, &reply.IsAdmin, &reply.Timestamp); err != nil {
			return err
		}
		if i, ok := index[queryID]; ok {
			queries[i].Replies = append(queries[i].Replies, reply)
		}
	}
	return rows.Err()
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
