package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// VacationRepository reads approved leave periods. Vacations are owned by
// the HR subsystem; this service never writes them.
type VacationRepository struct {
	db *sqlx.DB
}

// NewVacationRepository creates a new vacation repository.
func NewVacationRepository(db *sqlx.DB) *VacationRepository {
	return &VacationRepository{db: db}
}

// FindApprovedVacation returns the approved vacation covering the date for
// the teacher, or nil when none exists.
func (r *VacationRepository) FindApprovedVacation(ctx context.Context, teacherID, date string) (*models.Vacation, error) {
	return findApprovedVacation(ctx, r.db, teacherID, date)
}

func findApprovedVacation(ctx context.Context, q sqlx.QueryerContext, teacherID, date string) (*models.Vacation, error) {
	const query = `SELECT id, teacher_id, start_date, end_date, status, type, deleted_at, created_at
FROM vacations
WHERE teacher_id = $1
	AND status = 'approved'
	AND deleted_at IS NULL
	AND start_date <= $2 AND end_date >= $2
ORDER BY end_date DESC
LIMIT 1`

	var vacation models.Vacation
	if err := sqlx.GetContext(ctx, q, &vacation, query, teacherID, date); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find approved vacation: %w", err)
	}
	return &vacation, nil
}
