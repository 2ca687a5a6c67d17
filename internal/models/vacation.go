package models

import "time"

// VacationStatus enumerates vacation request states.
type VacationStatus string

const (
	VacationPending  VacationStatus = "pending"
	VacationApproved VacationStatus = "approved"
	VacationRejected VacationStatus = "rejected"
)

// Vacation is an approved leave period making a teacher unavailable for
// its whole duration. Owned by the HR subsystem; read-only here.
type Vacation struct {
	ID        string         `db:"id" json:"id"`
	TeacherID string         `db:"teacher_id" json:"teacher_id"`
	StartDate string         `db:"start_date" json:"start_date"`
	EndDate   string         `db:"end_date" json:"end_date"`
	Status    VacationStatus `db:"status" json:"status"`
	Type      string         `db:"type" json:"type"`
	DeletedAt *time.Time     `db:"deleted_at" json:"-"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// Covers reports whether the inclusive date range contains the given
// "YYYY-MM-DD" date.
func (v Vacation) Covers(date string) bool {
	return v.StartDate <= date && date <= v.EndDate
}
