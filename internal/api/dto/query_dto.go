package dto

import (
	"time"

	"github.com/spec-kit/query-service/internal/domain"
)

// CreateQueryRequest payload.
type CreateQueryRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// ReplyRequest payload.
type ReplyRequest struct {
	Message string `json:"message"`
}

// StatusRequest payload.
type StatusRequest struct {
	Status string `json:"status"`
}

// PriorityRequest payload.
type PriorityRequest struct {
	Priority string `json:"priority"`
}

// QueryResponse is the wire form of a query and its thread.
type QueryResponse struct {
	ID            string               `json:"id"`
	StudentID     string               `json:"studentId"`
	StudentName   string               `json:"studentName"`
	Branch        string               `json:"branch"`
	RegNo         string               `json:"regNo"`
	AdmissionYear string               `json:"admissionYear"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Category      domain.QueryCategory `json:"category"`
	Status        domain.QueryStatus   `json:"status"`
	Priority      domain.QueryPriority `json:"priority"`
	Favorite      bool                 `json:"favorite"`
	RepliesRead   bool                 `json:"repliesRead"`
	Replies       []ReplyResponse      `json:"replies"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// ReplyResponse represents one thread message.
type ReplyResponse struct {
	Seq       int       `json:"seq"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	IsAdmin   bool      `json:"isAdmin"`
	Timestamp time.Time `json:"timestamp"`
}

// DeleteResponse acknowledges a delete.
type DeleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// NewQueryResponse maps a domain query.
func NewQueryResponse(q *domain.Query) QueryResponse {
	replies := make([]ReplyResponse, 0, len(q.Replies))
	for _, r := range q.Replies {
		replies = append(replies, ReplyResponse{
			Seq:       r.Seq,
			Message:   r.Message,
			Author:    r.Author,
			IsAdmin:   r.IsAdmin,
			Timestamp: r.Timestamp,
		})
	}
	return QueryResponse{
		ID:            q.ID,
		StudentID:     q.StudentID,
		StudentName:   q.StudentName,
		Branch:        q.Branch,
		RegNo:         q.RegNo,
		AdmissionYear: q.AdmissionYear,
		Title:         q.Title,
		Description:   q.Description,
		Category:      q.Category,
		Status:        q.Status,
		Priority:      q.Priority,
		Favorite:      q.Favorite,
		RepliesRead:   q.RepliesRead,
		Replies:       replies,
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
	}
}

// NewQueryListResponse maps a list, keeping order.
func NewQueryListResponse(queries []domain.Query) []QueryResponse {
	out := make([]QueryResponse, 0, len(queries))
	for i := range queries {
		out = append(out, NewQueryResponse(&queries[i]))
	}
	return out
}
