package models

import "time"

// Teacher is a roster entry. Owned by the HR subsystem; read-only here.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherWithAvailability annotates a teacher with an availability verdict.
type TeacherWithAvailability struct {
	Teacher
	Availability Availability `json:"availability"`
}
