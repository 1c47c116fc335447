package events

import (
	"time"

	"github.com/spec-kit/query-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventQueryCreated         EventType = "query_created"
	EventQueryReplied         EventType = "query_replied"
	EventQueryStatusChanged   EventType = "query_status_changed"
	EventQueryPriorityChanged EventType = "query_priority_changed"
	EventQueryFavoriteToggled EventType = "query_favorite_toggled"
	EventQueryDeleted         EventType = "query_deleted"
)

// AllEventTypes lists every type the service emits.
var AllEventTypes = []EventType{
	EventQueryCreated,
	EventQueryReplied,
	EventQueryStatusChanged,
	EventQueryPriorityChanged,
	EventQueryFavoriteToggled,
	EventQueryDeleted,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	QueryID   string      `json:"query_id"`
	StudentID string      `json:"student_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// QueryCreatedPayload payload.
type QueryCreatedPayload struct {
	Title    string               `json:"title"`
	Category domain.QueryCategory `json:"category"`
}

// QueryRepliedPayload payload.
type QueryRepliedPayload struct {
	Seq            int    `json:"seq"`
	Author         string `json:"author"`
	IsAdmin        bool   `json:"is_admin"`
	MessagePreview string `json:"message_preview"`
}

// QueryStatusChangedPayload payload.
type QueryStatusChangedPayload struct {
	OldStatus domain.QueryStatus `json:"old_status"`
	NewStatus domain.QueryStatus `json:"new_status"`
	Automatic bool               `json:"automatic,omitempty"`
}

// QueryPriorityChangedPayload payload.
type QueryPriorityChangedPayload struct {
	OldPriority domain.QueryPriority `json:"old_priority"`
	NewPriority domain.QueryPriority `json:"new_priority"`
}

// QueryFavoriteToggledPayload payload.
type QueryFavoriteToggledPayload struct {
	Favorite bool `json:"favorite"`
}
