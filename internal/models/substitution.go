package models

// ReasonNotSpecified buckets substitutions recorded without a reason.
const ReasonNotSpecified = "not specified"

// Availability is the verdict for a teacher over a date/time window.
type Availability struct {
	IsAvailable bool                  `json:"is_available"`
	Reason      string                `json:"reason,omitempty"`
	Conflict    *OccurrenceCommitment `json:"conflict,omitempty"`
}

// SubstitutionFilter narrows substitution history queries. All fields are
// optional. InvolvedTeacherID matches rows where the teacher appears as
// either the original owner or the substitute.
type SubstitutionFilter struct {
	TeacherID         string
	SubstituteID      string
	InvolvedTeacherID string
	DateFrom          string
	DateTo            string
}

// SubstitutionRecord is one historical substitution with display names.
type SubstitutionRecord struct {
	OccurrenceID     string  `db:"occurrence_id" json:"occurrence_id"`
	Date             string  `db:"date" json:"date"`
	StartTime        string  `db:"start_time" json:"start_time"`
	EndTime          string  `db:"end_time" json:"end_time"`
	TeacherID        string  `db:"teacher_id" json:"teacher_id"`
	TeacherName      string  `db:"teacher_name" json:"teacher_name"`
	SubstituteID     string  `db:"substitute_id" json:"substitute_id"`
	SubstituteName   string  `db:"substitute_name" json:"substitute_name"`
	SubjectName      string  `db:"subject_name" json:"subject_name"`
	GroupName        string  `db:"group_name" json:"group_name"`
	SubstituteReason *string `db:"substitute_reason" json:"substitute_reason,omitempty"`
}

// SubstitutionStats aggregates substitution history.
type SubstitutionStats struct {
	TotalSubstitutions int            `json:"total_substitutions"`
	ByTeacher          map[string]int `json:"by_teacher"`
	BySubstitute       map[string]int `json:"by_substitute"`
	ByReason           map[string]int `json:"by_reason"`
}
