// Package policy holds the side-effect free permission checks that gate every
// query operation. Each function answers for a single principal and query.
package policy

import "github.com/spec-kit/query-service/internal/domain"

// IsOwner reports whether the principal is the student who filed the query.
func IsOwner(p domain.Principal, q *domain.Query) bool {
	return q != nil && p.ID != "" && p.ID == q.StudentID
}

// CanView allows admins and the owning student.
func CanView(p domain.Principal, q *domain.Query) bool {
	return p.IsAdmin() || IsOwner(p, q)
}

// CanReply is CanView restricted to threads that are not resolved.
func CanReply(p domain.Principal, q *domain.Query) bool {
	return CanView(p, q) && domain.AcceptsReplies(q.Status)
}

// CanSetStatus lets admins pick any status; the owner may only resolve.
func CanSetStatus(p domain.Principal, q *domain.Query, next domain.QueryStatus) bool {
	if p.IsAdmin() {
		return true
	}
	return IsOwner(p, q) && next == domain.QueryStatusResolved
}

// CanToggleFavorite is owner only.
func CanToggleFavorite(p domain.Principal, q *domain.Query) bool {
	return IsOwner(p, q)
}

// CanDelete allows admins and the owning student.
func CanDelete(p domain.Principal, q *domain.Query) bool {
	return p.IsAdmin() || IsOwner(p, q)
}

// CanListAll is admin only.
func CanListAll(p domain.Principal) bool {
	return p.IsAdmin()
}

// CanCreate requires a student principal.
func CanCreate(p domain.Principal) bool {
	return p.IsStudent() && p.ID != ""
}

// CanSetPriority is admin only.
func CanSetPriority(p domain.Principal, _ *domain.Query) bool {
	return p.IsAdmin()
}

// CanMarkRead is owner only; the read flag tracks the student's view.
func CanMarkRead(p domain.Principal, q *domain.Query) bool {
	return IsOwner(p, q)
}
