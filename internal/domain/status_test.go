package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvanceOnReply(t *testing.T) {
	assert.Equal(t, QueryStatusInProgress, AdvanceOnReply(QueryStatusPending, true))
	assert.Equal(t, QueryStatusPending, AdvanceOnReply(QueryStatusPending, false))
	assert.Equal(t, QueryStatusInProgress, AdvanceOnReply(QueryStatusInProgress, true))
	assert.Equal(t, QueryStatusResolved, AdvanceOnReply(QueryStatusResolved, true))
}

func TestCanTransition(t *testing.T) {
	all := []QueryStatus{QueryStatusPending, QueryStatusInProgress, QueryStatusResolved}
	for _, from := range []QueryStatus{QueryStatusPending, QueryStatusInProgress} {
		for _, to := range all {
			assert.True(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.True(t, CanTransition(QueryStatusResolved, QueryStatusResolved))
	assert.False(t, CanTransition(QueryStatusResolved, QueryStatusPending))
	assert.False(t, CanTransition(QueryStatusResolved, QueryStatusInProgress))
	assert.False(t, CanTransition(QueryStatusPending, QueryStatus("closed")))
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, CategoryJobOffers.Valid())
	assert.False(t, QueryCategory("Sports").Valid())
	assert.True(t, QueryPriorityUrgent.Valid())
	assert.False(t, QueryPriority("medium").Valid())
}

func TestCloneDoesNotShareReplies(t *testing.T) {
	q := &Query{ID: "q", Replies: []Reply{{Seq: 1, Message: "hi"}}}
	c := q.Clone()
	c.Replies[0].Message = "changed"
	c.Replies = append(c.Replies, Reply{Seq: 2})

	assert.Equal(t, "hi", q.Replies[0].Message)
	assert.Len(t, q.Replies, 1)
}
