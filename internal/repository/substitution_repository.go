package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// Sentinel errors surfaced by the transactional mutation path.
var (
	// ErrAlreadySubstituted is returned when an occurrence already has a substitute.
	ErrAlreadySubstituted = errors.New("occurrence already has a substitute")
	// ErrNoSubstitute is returned when removal is requested but no substitute is set.
	ErrNoSubstitute = errors.New("occurrence has no substitute")
)

// AvailabilityViolation is returned when the in-transaction re-validation
// finds the substitute no longer free. Conflicts are sorted by start time
// then id.
type AvailabilityViolation struct {
	Conflicts []models.OccurrenceCommitment
	Vacation  *models.Vacation
}

// Error implements the error interface.
func (e *AvailabilityViolation) Error() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Conflicts) > 0 {
		return "substitute has a conflicting lesson"
	}
	return "substitute is on approved vacation"
}

const occurrenceColumns = `id, teacher_id, substitute_id, group_id, subject_plan_id, classroom_id, date, start_time, end_time, status, substitute_reason, deleted_at, created_at, updated_at`

const occurrenceDetailColumns = `
	lo.id, lo.teacher_id, lo.substitute_id, lo.group_id, lo.subject_plan_id, lo.classroom_id,
	lo.date, lo.start_time, lo.end_time, lo.status, lo.substitute_reason, lo.deleted_at, lo.created_at, lo.updated_at,
	t.full_name AS teacher_name,
	s.full_name AS substitute_name,
	g.name AS group_name,
	sp.name AS subject_name,
	c.name AS classroom_name`

// SubstitutionRepository provides persistence for the substitution engine.
// It reads lesson occurrences and mutates only their substitution fields.
type SubstitutionRepository struct {
	db *sqlx.DB
}

// NewSubstitutionRepository creates a new substitution repository.
func NewSubstitutionRepository(db *sqlx.DB) *SubstitutionRepository {
	return &SubstitutionRepository{db: db}
}

// FindOccurrenceByID loads a non-deleted occurrence by id.
func (r *SubstitutionRepository) FindOccurrenceByID(ctx context.Context, id string) (*models.LessonOccurrence, error) {
	query := fmt.Sprintf(`SELECT %s FROM lesson_occurrences WHERE id = $1 AND deleted_at IS NULL`, occurrenceColumns)
	var occ models.LessonOccurrence
	if err := r.db.GetContext(ctx, &occ, query, id); err != nil {
		return nil, err
	}
	return &occ, nil
}

// FindOccurrenceDetail loads an occurrence enriched with display names.
func (r *SubstitutionRepository) FindOccurrenceDetail(ctx context.Context, id string) (*models.OccurrenceDetail, error) {
	query := fmt.Sprintf(`SELECT %s
FROM lesson_occurrences lo
JOIN teachers t ON t.id = lo.teacher_id
LEFT JOIN teachers s ON s.id = lo.substitute_id
JOIN study_groups g ON g.id = lo.group_id
JOIN subject_plans sp ON sp.id = lo.subject_plan_id
JOIN classrooms c ON c.id = lo.classroom_id
WHERE lo.id = $1 AND lo.deleted_at IS NULL`, occurrenceDetailColumns)

	var detail models.OccurrenceDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindDayCommitments returns the non-deleted, non-cancelled occurrences on
// a date where the teacher appears as owner or substitute.
func (r *SubstitutionRepository) FindDayCommitments(ctx context.Context, teacherID, date string) ([]models.OccurrenceCommitment, error) {
	return findDayCommitments(ctx, r.db, teacherID, date)
}

func findDayCommitments(ctx context.Context, q sqlx.QueryerContext, teacherID, date string) ([]models.OccurrenceCommitment, error) {
	const query = `SELECT lo.id, lo.teacher_id, lo.substitute_id, lo.date, lo.start_time, lo.end_time,
	sp.name AS subject_name, g.name AS group_name
FROM lesson_occurrences lo
JOIN subject_plans sp ON sp.id = lo.subject_plan_id
JOIN study_groups g ON g.id = lo.group_id
WHERE lo.date = $1
	AND lo.deleted_at IS NULL
	AND lo.status <> 'CANCELLED'
	AND (lo.teacher_id = $2 OR lo.substitute_id = $2)
ORDER BY lo.start_time ASC, lo.id ASC`

	var commitments []models.OccurrenceCommitment
	if err := sqlx.SelectContext(ctx, q, &commitments, query, date, teacherID); err != nil {
		return nil, fmt.Errorf("find day commitments: %w", err)
	}
	return commitments, nil
}

// AssignSubstitute sets the substitution fields on one occurrence inside a
// single transaction. It takes an advisory lock on the substitute teacher
// and a row lock on the occurrence, then re-validates both preconditions
// against the locked snapshot before writing. Violations come back as
// ErrAlreadySubstituted or *AvailabilityViolation.
func (r *SubstitutionRepository) AssignSubstitute(ctx context.Context, occurrenceID, substituteID, reason string) (occ *models.LessonOccurrence, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin assign substitute: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Serializes concurrent assigns of the same substitute into different
	// occurrences; released on commit/rollback.
	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, substituteID); err != nil {
		return nil, fmt.Errorf("lock substitute teacher: %w", err)
	}

	occ, err = lockOccurrence(ctx, tx, occurrenceID)
	if err != nil {
		return nil, err
	}
	if occ.SubstituteID != nil {
		err = ErrAlreadySubstituted
		return nil, err
	}

	var commitments []models.OccurrenceCommitment
	commitments, err = findDayCommitments(ctx, tx, substituteID, occ.Date)
	if err != nil {
		return nil, err
	}
	window := occ.Window()
	var conflicts []models.OccurrenceCommitment
	for _, c := range commitments {
		if c.ID == occ.ID {
			continue
		}
		if window.Overlaps(c.Window()) {
			conflicts = append(conflicts, c)
		}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].StartTime != conflicts[j].StartTime {
			return conflicts[i].StartTime < conflicts[j].StartTime
		}
		return conflicts[i].ID < conflicts[j].ID
	})

	var vacation *models.Vacation
	vacation, err = findApprovedVacation(ctx, tx, substituteID, occ.Date)
	if err != nil {
		return nil, err
	}

	if len(conflicts) > 0 || vacation != nil {
		err = &AvailabilityViolation{Conflicts: conflicts, Vacation: vacation}
		return nil, err
	}

	now := time.Now().UTC()
	const update = `UPDATE lesson_occurrences
SET substitute_id = $2, substitute_reason = $3, status = 'SUBSTITUTE', updated_at = $4
WHERE id = $1`
	if _, err = tx.ExecContext(ctx, update, occ.ID, substituteID, reason, now); err != nil {
		return nil, fmt.Errorf("assign substitute: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit assign substitute: %w", err)
	}

	occ.SubstituteID = &substituteID
	occ.SubstituteReason = &reason
	occ.Status = models.OccurrenceSubstitute
	occ.UpdatedAt = now
	return occ, nil
}

// RemoveSubstitute clears the substitution fields on one occurrence inside
// a single transaction. Returns ErrNoSubstitute when nothing is set.
func (r *SubstitutionRepository) RemoveSubstitute(ctx context.Context, occurrenceID string) (occ *models.LessonOccurrence, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin remove substitute: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	occ, err = lockOccurrence(ctx, tx, occurrenceID)
	if err != nil {
		return nil, err
	}
	if occ.SubstituteID == nil {
		err = ErrNoSubstitute
		return nil, err
	}

	now := time.Now().UTC()
	const update = `UPDATE lesson_occurrences
SET substitute_id = NULL, substitute_reason = NULL, status = 'REGULAR', updated_at = $2
WHERE id = $1`
	if _, err = tx.ExecContext(ctx, update, occ.ID, now); err != nil {
		return nil, fmt.Errorf("remove substitute: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit remove substitute: %w", err)
	}

	occ.SubstituteID = nil
	occ.SubstituteReason = nil
	occ.Status = models.OccurrenceRegular
	occ.UpdatedAt = now
	return occ, nil
}

func lockOccurrence(ctx context.Context, tx *sqlx.Tx, id string) (*models.LessonOccurrence, error) {
	query := fmt.Sprintf(`SELECT %s FROM lesson_occurrences WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, occurrenceColumns)
	var occ models.LessonOccurrence
	if err := tx.GetContext(ctx, &occ, query, id); err != nil {
		return nil, err
	}
	return &occ, nil
}

// ListSubstitutions returns substitution history rows ordered by date
// descending, then start time ascending.
func (r *SubstitutionRepository) ListSubstitutions(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionRecord, error) {
	base := `FROM lesson_occurrences lo
JOIN teachers t ON t.id = lo.teacher_id
JOIN teachers s ON s.id = lo.substitute_id
JOIN subject_plans sp ON sp.id = lo.subject_plan_id
JOIN study_groups g ON g.id = lo.group_id
WHERE lo.deleted_at IS NULL AND lo.substitute_id IS NOT NULL`

	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("lo.teacher_id = $%d", len(args)))
	}
	if filter.SubstituteID != "" {
		args = append(args, filter.SubstituteID)
		conditions = append(conditions, fmt.Sprintf("lo.substitute_id = $%d", len(args)))
	}
	if filter.InvolvedTeacherID != "" {
		args = append(args, filter.InvolvedTeacherID)
		conditions = append(conditions, fmt.Sprintf("(lo.teacher_id = $%d OR lo.substitute_id = $%d)", len(args), len(args)))
	}
	if filter.DateFrom != "" {
		args = append(args, filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("lo.date >= $%d", len(args)))
	}
	if filter.DateTo != "" {
		args = append(args, filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("lo.date <= $%d", len(args)))
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT lo.id AS occurrence_id, lo.date, lo.start_time, lo.end_time,
	lo.teacher_id, t.full_name AS teacher_name,
	lo.substitute_id, s.full_name AS substitute_name,
	sp.name AS subject_name, g.name AS group_name,
	lo.substitute_reason
%s
ORDER BY lo.date DESC, lo.start_time ASC`, base)

	var records []models.SubstitutionRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list substitutions: %w", err)
	}
	return records, nil
}
