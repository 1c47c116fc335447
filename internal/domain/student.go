package domain

// StudentProfile is the read-only directory view of a student used to
// snapshot display fields onto a query at creation time.
type StudentProfile struct {
	ID            string
	Name          string
	Branch        string
	RegNo         string
	AdmissionYear string
}
