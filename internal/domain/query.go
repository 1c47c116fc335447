package domain

import "time"

// QueryStatus enumerates lifecycle states for student queries.
type QueryStatus string

const (
	QueryStatusPending    QueryStatus = "pending"
	QueryStatusInProgress QueryStatus = "in-progress"
	QueryStatusResolved   QueryStatus = "resolved"
)

// Valid reports whether s is a known status.
func (s QueryStatus) Valid() bool {
	switch s {
	case QueryStatusPending, QueryStatusInProgress, QueryStatusResolved:
		return true
	}
	return false
}

// QueryPriority is informational only; no policy depends on it.
type QueryPriority string

const (
	QueryPriorityLow    QueryPriority = "low"
	QueryPriorityNormal QueryPriority = "normal"
	QueryPriorityHigh   QueryPriority = "high"
	QueryPriorityUrgent QueryPriority = "urgent"
)

// Valid reports whether p is a known priority.
func (p QueryPriority) Valid() bool {
	switch p {
	case QueryPriorityLow, QueryPriorityNormal, QueryPriorityHigh, QueryPriorityUrgent:
		return true
	}
	return false
}

// QueryCategory groups queries by topic.
type QueryCategory string

const (
	CategoryGeneral              QueryCategory = "General"
	CategoryInterviewPreparation QueryCategory = "Interview Preparation"
	CategoryDocuments            QueryCategory = "Documents"
	CategoryInterviewProcess     QueryCategory = "Interview Process"
	CategoryJobOffers            QueryCategory = "Job Offers"
	CategoryTechnical            QueryCategory = "Technical"
)

// Valid reports whether c is a known category.
func (c QueryCategory) Valid() bool {
	switch c {
	case CategoryGeneral, CategoryInterviewPreparation, CategoryDocuments,
		CategoryInterviewProcess, CategoryJobOffers, CategoryTechnical:
		return true
	}
	return false
}

// Query is the aggregate for a student-raised support request. Replies are
// embedded and append-only.
type Query struct {
	ID            string
	StudentID     string
	StudentName   string
	Branch        string
	RegNo         string
	AdmissionYear string
	Title         string
	Description   string
	Category      QueryCategory
	Status        QueryStatus
	Priority      QueryPriority
	Favorite      bool
	RepliesRead   bool
	Replies       []Reply
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Reply is a single message in a query thread.
type Reply struct {
	Seq       int
	Message   string
	Author    string
	IsAdmin   bool
	Timestamp time.Time
}

// Clone returns a deep copy so callers cannot alias the reply slice.
func (q *Query) Clone() *Query {
	if q == nil {
		return nil
	}
	out := *q
	if q.Replies != nil {
		out.Replies = make([]Reply, len(q.Replies))
		copy(out.Replies, q.Replies)
	}
	return &out
}
