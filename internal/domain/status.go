package domain

// AdvanceOnReply returns the status a query moves to once a reply is appended.
// The first admin reply on a pending query starts work on it; nothing else
// changes status implicitly.
func AdvanceOnReply(current QueryStatus, byAdmin bool) QueryStatus {
	if byAdmin && current == QueryStatusPending {
		return QueryStatusInProgress
	}
	return current
}

// CanTransition reports whether the state machine allows moving from one
// status to another. Resolved is terminal; re-resolving is a no-op.
func CanTransition(from, to QueryStatus) bool {
	if !to.Valid() {
		return false
	}
	if from == QueryStatusResolved {
		return to == QueryStatusResolved
	}
	return true
}

// AcceptsReplies reports whether the thread is still open.
func AcceptsReplies(status QueryStatus) bool {
	return status != QueryStatusResolved
}
