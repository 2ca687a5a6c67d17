package models

import "time"

// OccurrenceStatus enumerates lesson occurrence states.
type OccurrenceStatus string

const (
	OccurrenceRegular    OccurrenceStatus = "REGULAR"
	OccurrenceSubstitute OccurrenceStatus = "SUBSTITUTE"
	OccurrenceCancelled  OccurrenceStatus = "CANCELLED"
)

// LessonOccurrence is a single scheduled lesson instance. The scheduling
// subsystem owns these rows; this service only mutates the substitution
// fields (substitute_id, substitute_reason, status REGULAR<->SUBSTITUTE).
type LessonOccurrence struct {
	ID               string           `db:"id" json:"id"`
	TeacherID        string           `db:"teacher_id" json:"teacher_id"`
	SubstituteID     *string          `db:"substitute_id" json:"substitute_id,omitempty"`
	GroupID          string           `db:"group_id" json:"group_id"`
	SubjectPlanID    string           `db:"subject_plan_id" json:"subject_plan_id"`
	ClassroomID      string           `db:"classroom_id" json:"classroom_id"`
	Date             string           `db:"date" json:"date"`
	StartTime        string           `db:"start_time" json:"start_time"`
	EndTime          string           `db:"end_time" json:"end_time"`
	Status           OccurrenceStatus `db:"status" json:"status"`
	SubstituteReason *string          `db:"substitute_reason" json:"substitute_reason,omitempty"`
	DeletedAt        *time.Time       `db:"deleted_at" json:"-"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// Window returns the occurrence's time window.
func (o LessonOccurrence) Window() TimeRange {
	return TimeRange{Start: o.StartTime, End: o.EndTime}
}

// OccurrenceCommitment is a lesson a teacher is bound to on a given day,
// either as owner or as substitute, with display names joined in for
// conflict reporting.
type OccurrenceCommitment struct {
	ID           string  `db:"id" json:"id"`
	TeacherID    string  `db:"teacher_id" json:"teacher_id"`
	SubstituteID *string `db:"substitute_id" json:"substitute_id,omitempty"`
	Date         string  `db:"date" json:"date"`
	StartTime    string  `db:"start_time" json:"start_time"`
	EndTime      string  `db:"end_time" json:"end_time"`
	SubjectName  string  `db:"subject_name" json:"subject_name"`
	GroupName    string  `db:"group_name" json:"group_name"`
}

// Window returns the commitment's time window.
func (c OccurrenceCommitment) Window() TimeRange {
	return TimeRange{Start: c.StartTime, End: c.EndTime}
}

// OccurrenceDetail is a lesson occurrence enriched with display data for
// direct UI rendering.
type OccurrenceDetail struct {
	LessonOccurrence
	TeacherName    string  `db:"teacher_name" json:"teacher_name"`
	SubstituteName *string `db:"substitute_name" json:"substitute_name,omitempty"`
	GroupName      string  `db:"group_name" json:"group_name"`
	SubjectName    string  `db:"subject_name" json:"subject_name"`
	ClassroomName  string  `db:"classroom_name" json:"classroom_name"`
}
