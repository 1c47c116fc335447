package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/query-service/internal/domain"
	"github.com/spec-kit/query-service/internal/events"
	"github.com/spec-kit/query-service/internal/policy"
	"github.com/spec-kit/query-service/internal/repository"
	apperrors "github.com/spec-kit/query-service/pkg/util/errorutil"
)

// QueryService coordinates query workflows. It is the only place where the
// policy, the status state machine and the store meet.
type QueryService struct {
	queries    repository.QueryRepository
	students   repository.StudentDirectory
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// QueryDependencies bundles collaborators for the query service.
type QueryDependencies struct {
	QueryRepo  repository.QueryRepository
	Students   repository.StudentDirectory
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// CreateQueryInput describes the create payload.
type CreateQueryInput struct {
	Title       string
	Description string
	Category    string
}

// NewQueryService constructs the service.
func NewQueryService(deps QueryDependencies) *QueryService {
	s := &QueryService{
		queries:    deps.QueryRepo,
		students:   deps.Students,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CreateTicket files a new query for the calling student.
func (s *QueryService) CreateTicket(ctx context.Context, p domain.Principal, input CreateQueryInput) (*domain.Query, error) {
	if !policy.CanCreate(p) {
		return nil, apperrors.NewForbidden("only students can raise queries")
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}
	category := domain.CategoryGeneral
	if c := strings.TrimSpace(input.Category); c != "" {
		category = domain.QueryCategory(c)
		if !category.Valid() {
			return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": c})
		}
	}

	profile := s.snapshot(ctx, p)
	q := &domain.Query{
		StudentID:     p.ID,
		StudentName:   profile.Name,
		Branch:        profile.Branch,
		RegNo:         profile.RegNo,
		AdmissionYear: profile.AdmissionYear,
		Title:         title,
		Description:   description,
		Category:      category,
		Status:        domain.QueryStatusPending,
		Priority:      domain.QueryPriorityNormal,
		Favorite:      false,
		RepliesRead:   true,
		Replies:       []domain.Reply{},
	}
	if _, err := s.queries.Create(ctx, q); err != nil {
		return nil, s.mapRepoError(err, "")
	}

	s.publishEvent(ctx, p, q, events.EventQueryCreated, events.QueryCreatedPayload{
		Title:    q.Title,
		Category: q.Category,
	})
	return q, nil
}

// ListForAdmin returns every query, newest first.
func (s *QueryService) ListForAdmin(ctx context.Context, p domain.Principal) ([]domain.Query, error) {
	if !policy.CanListAll(p) {
		return nil, apperrors.NewForbidden("admin role required")
	}
	queries, err := s.queries.ListAll(ctx)
	if err != nil {
		return nil, s.mapRepoError(err, "")
	}
	return queries, nil
}

// ListForStudent returns the caller's own queries, newest first.
func (s *QueryService) ListForStudent(ctx context.Context, p domain.Principal) ([]domain.Query, error) {
	if p.ID == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	queries, err := s.queries.ListByStudent(ctx, p.ID)
	if err != nil {
		return nil, s.mapRepoError(err, "")
	}
	return queries, nil
}

// GetTicket returns one query. When the owning student opens the thread the
// admin replies count as seen.
func (s *QueryService) GetTicket(ctx context.Context, p domain.Principal, id string) (*domain.Query, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(p, q) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if policy.IsOwner(p, q) && !q.RepliesRead {
		return s.markRead(ctx, id)
	}
	return q, nil
}

// MarkRead records that the owning student has seen the latest admin activity.
func (s *QueryService) MarkRead(ctx context.Context, p domain.Principal, id string) (*domain.Query, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanMarkRead(p, q) {
		return nil, apperrors.NewForbidden("only the owning student can mark replies read")
	}
	if q.RepliesRead {
		return q, nil
	}
	return s.markRead(ctx, id)
}

func (s *QueryService) markRead(ctx context.Context, id string) (*domain.Query, error) {
	updated, err := s.queries.SetRepliesRead(ctx, id, true)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}
	return updated, nil
}

// Reply appends a message to the thread. The append, the read flag and any
// automatic status change are committed as one update.
func (s *QueryService) Reply(ctx context.Context, p domain.Principal, id, message string) (*domain.Query, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := replyAllowed(p, q); err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message is required", nil)
	}

	byAdmin := p.IsAdmin()
	previous := q.Status
	mutation := repository.ReplyMutation{
		Reply: domain.Reply{
			Message:   message,
			Author:    replyAuthor(p, q),
			IsAdmin:   byAdmin,
			Timestamp: s.now(),
		},
		// Admin activity is unread for the student; the student's own reply
		// implies they have seen the thread.
		RepliesRead: !byAdmin,
		Guard: func(current *domain.Query) error {
			previous = current.Status
			return replyAllowed(p, current)
		},
		Transition: func(current domain.QueryStatus) domain.QueryStatus {
			return domain.AdvanceOnReply(current, byAdmin)
		},
	}

	updated, err := s.queries.AppendReply(ctx, id, mutation)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}

	if n := len(updated.Replies); n > 0 {
		last := updated.Replies[n-1]
		s.publishEvent(ctx, p, updated, events.EventQueryReplied, events.QueryRepliedPayload{
			Seq:            last.Seq,
			Author:         last.Author,
			IsAdmin:        last.IsAdmin,
			MessagePreview: stringPreview(last.Message, 120),
		})
	}
	if updated.Status != previous {
		s.publishEvent(ctx, p, updated, events.EventQueryStatusChanged, events.QueryStatusChangedPayload{
			OldStatus: previous,
			NewStatus: updated.Status,
			Automatic: true,
		})
	}
	return updated, nil
}

// SetStatus moves a query through the state machine on behalf of p.
func (s *QueryService) SetStatus(ctx context.Context, p domain.Principal, id string, status string) (*domain.Query, error) {
	next := domain.QueryStatus(strings.TrimSpace(status))
	if !next.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{
			"status":  status,
			"allowed": []domain.QueryStatus{domain.QueryStatusPending, domain.QueryStatusInProgress, domain.QueryStatusResolved},
		})
	}
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := statusChangeAllowed(p, q, next); err != nil {
		return nil, err
	}

	previous := q.Status
	updated, err := s.queries.SetStatus(ctx, id, next, func(current *domain.Query) error {
		previous = current.Status
		return statusChangeAllowed(p, current, next)
	})
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}
	if previous != updated.Status {
		s.publishEvent(ctx, p, updated, events.EventQueryStatusChanged, events.QueryStatusChangedPayload{
			OldStatus: previous,
			NewStatus: updated.Status,
		})
	}
	return updated, nil
}

// SetPriority lets an admin re-grade a query.
func (s *QueryService) SetPriority(ctx context.Context, p domain.Principal, id string, priority string) (*domain.Query, error) {
	next := domain.QueryPriority(strings.TrimSpace(priority))
	if !next.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanSetPriority(p, q) {
		return nil, apperrors.NewForbidden("admin role required")
	}
	updated, err := s.queries.SetPriority(ctx, id, next)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}
	if q.Priority != updated.Priority {
		s.publishEvent(ctx, p, updated, events.EventQueryPriorityChanged, events.QueryPriorityChangedPayload{
			OldPriority: q.Priority,
			NewPriority: updated.Priority,
		})
	}
	return updated, nil
}

// ToggleFavorite flips the owner's favorite flag.
func (s *QueryService) ToggleFavorite(ctx context.Context, p domain.Principal, id string) (*domain.Query, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanToggleFavorite(p, q) {
		return nil, apperrors.NewForbidden("only the owning student can favorite a query")
	}
	updated, err := s.queries.SetFavorite(ctx, id, !q.Favorite)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}
	s.publishEvent(ctx, p, updated, events.EventQueryFavoriteToggled, events.QueryFavoriteToggledPayload{
		Favorite: updated.Favorite,
	})
	return updated, nil
}

// Delete removes a query and its thread.
func (s *QueryService) Delete(ctx context.Context, p domain.Principal, id string) error {
	q, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanDelete(p, q) {
		return apperrors.NewForbidden("access denied")
	}
	if err := s.queries.Delete(ctx, id); err != nil {
		return s.mapRepoError(err, id)
	}
	s.publishEvent(ctx, p, q, events.EventQueryDeleted, nil)
	return nil
}

func (s *QueryService) load(ctx context.Context, id string) (*domain.Query, error) {
	q, err := s.queries.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}
	return q, nil
}

// snapshot resolves the display fields copied onto a new query. Directory
// trouble only degrades the snapshot.
func (s *QueryService) snapshot(ctx context.Context, p domain.Principal) domain.StudentProfile {
	profile := domain.StudentProfile{ID: p.ID, Name: p.DisplayName}
	if s.students == nil {
		return profile
	}
	found, err := s.students.GetByID(ctx, p.ID)
	switch {
	case err == nil:
		if found.Name != "" {
			profile.Name = found.Name
		}
		profile.Branch = found.Branch
		profile.RegNo = found.RegNo
		profile.AdmissionYear = found.AdmissionYear
	case errors.Is(err, repository.ErrStudentNotFound):
	default:
		s.logger.Warn("student directory lookup failed", zap.String("student_id", p.ID), zap.Error(err))
	}
	return profile
}

func (s *QueryService) mapRepoError(err error, id string) error {
	var (
		verr      *repository.ValidationError
		domainErr *apperrors.DomainError
	)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("query", map[string]any{"query_id": id})
	case errors.As(err, &verr):
		return apperrors.NewValidationError(verr.Error(), map[string]any{"field": verr.Field})
	case errors.As(err, &domainErr):
		return domainErr
	default:
		return apperrors.NewStoreError(err)
	}
}

func (s *QueryService) publishEvent(ctx context.Context, p domain.Principal, q *domain.Query, eventType events.EventType, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		QueryID:   q.ID,
		StudentID: q.StudentID,
		Actor:     events.Actor{ID: p.ID, Role: p.Role},
		Timestamp: s.now(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed",
			zap.String("event_type", string(eventType)),
			zap.String("query_id", q.ID),
			zap.Error(err))
	}
}

func replyAllowed(p domain.Principal, q *domain.Query) error {
	if !policy.CanView(p, q) {
		return apperrors.NewForbidden("access denied")
	}
	if !policy.CanReply(p, q) {
		return apperrors.NewForbidden("query is resolved; replies are closed")
	}
	return nil
}

func statusChangeAllowed(p domain.Principal, q *domain.Query, next domain.QueryStatus) error {
	if !policy.CanSetStatus(p, q, next) {
		return apperrors.NewForbidden("status change not permitted")
	}
	if !domain.CanTransition(q.Status, next) {
		return apperrors.NewForbidden("resolved queries cannot be reopened")
	}
	return nil
}

// replyAuthor picks the display name stored on a reply.
func replyAuthor(p domain.Principal, q *domain.Query) string {
	switch {
	case p.IsAdmin():
		return "Admin"
	case strings.TrimSpace(p.DisplayName) != "":
		return p.DisplayName
	default:
		return q.StudentName
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
