package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/query-service/internal/domain"
)

func TestDispatcherRunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	failure := errors.New("handler failed")

	d.Subscribe(EventQueryCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return failure
	})
	d.Subscribe(EventQueryCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventQueryDeleted, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventQueryCreated})
	require.ErrorIs(t, err, failure)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestStreamPublisherXAdd(t *testing.T) {
	client, mock := redismock.NewClientMock()
	publisher := NewStreamPublisher(client, "queries.events", 1000)
	at := time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)

	mock.ExpectXAdd(&redis.XAddArgs{
		Stream: "queries.events",
		MaxLen: 1000,
		Approx: true,
		Values: []any{
			"id", "evt-1",
			"type", "query_status_changed",
			"query_id", "q-1",
			"student_id", "stu-1",
			"actor_id", "adm-1",
			"actor_role", "admin",
			"at", "2024-05-02T08:30:00Z",
			"payload", `{"old_status":"pending","new_status":"in-progress","automatic":true}`,
		},
	}).SetVal("1714638600000-0")

	err := publisher.Publish(context.Background(), Event{
		ID:        "evt-1",
		Type:      EventQueryStatusChanged,
		QueryID:   "q-1",
		StudentID: "stu-1",
		Actor:     Actor{ID: "adm-1", Role: domain.RoleAdmin},
		Timestamp: at,
		Payload: QueryStatusChangedPayload{
			OldStatus: domain.QueryStatusPending,
			NewStatus: domain.QueryStatusInProgress,
			Automatic: true,
		},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStreamPublisherSurfacesRedisErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	publisher := NewStreamPublisher(client, "queries.events", 0)

	mock.ExpectXAdd(&redis.XAddArgs{
		Stream: "queries.events",
		Values: []any{
			"id", "evt-2",
			"type", "query_deleted",
			"query_id", "q-9",
			"student_id", "stu-1",
			"actor_id", "stu-1",
			"actor_role", "student",
			"at", "2024-05-02T08:30:00Z",
			"payload", "null",
		},
	}).SetErr(errors.New("READONLY"))

	err := publisher.Publish(context.Background(), Event{
		ID:        "evt-2",
		Type:      EventQueryDeleted,
		QueryID:   "q-9",
		StudentID: "stu-1",
		Actor:     Actor{ID: "stu-1", Role: domain.RoleStudent},
		Timestamp: time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "READONLY")
}
