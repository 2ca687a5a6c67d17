package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var occurrenceRowColumns = []string{
	"id", "teacher_id", "substitute_id", "group_id", "subject_plan_id", "classroom_id",
	"date", "start_time", "end_time", "status", "substitute_reason", "deleted_at", "created_at", "updated_at",
}

func occurrenceRow(id string, substituteID interface{}) *sqlmock.Rows {
	return sqlmock.NewRows(occurrenceRowColumns).
		AddRow(id, "t1", substituteID, "g1", "sp1", "c1",
			"2026-03-02", "08:00", "09:00", "REGULAR", nil, nil, time.Now(), time.Now())
}

func TestFindOccurrenceByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectQuery("SELECT .+ FROM lesson_occurrences WHERE id = \\$1 AND deleted_at IS NULL").
		WithArgs("o1").
		WillReturnRows(occurrenceRow("o1", nil))

	occ, err := repo.FindOccurrenceByID(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", occ.ID)
	assert.Nil(t, occ.SubstituteID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindDayCommitments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "substitute_id", "date", "start_time", "end_time", "subject_name", "group_name"}).
		AddRow("o1", "t1", nil, "2026-03-02", "08:00", "09:00", "Mathematics", "10A").
		AddRow("o2", "t9", "t1", "2026-03-02", "10:00", "11:00", "Physics", "11B")
	mock.ExpectQuery("FROM lesson_occurrences lo").
		WithArgs("2026-03-02", "t1").
		WillReturnRows(rows)

	commitments, err := repo.FindDayCommitments(context.Background(), "t1", "2026-03-02")
	require.NoError(t, err)
	require.Len(t, commitments, 2)
	assert.Equal(t, "Mathematics", commitments[0].SubjectName)
	require.NotNil(t, commitments[1].SubstituteID)
	assert.Equal(t, "t1", *commitments[1].SubstituteID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignSubstitute(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtextextended($1, 0))")).
		WithArgs("t2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .+ FROM lesson_occurrences WHERE id = \\$1 AND deleted_at IS NULL FOR UPDATE").
		WithArgs("o1").
		WillReturnRows(occurrenceRow("o1", nil))
	mock.ExpectQuery("FROM lesson_occurrences lo").
		WithArgs("2026-03-02", "t2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "substitute_id", "date", "start_time", "end_time", "subject_name", "group_name"}))
	mock.ExpectQuery("FROM vacations").
		WithArgs("t2", "2026-03-02").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("UPDATE lesson_occurrences").
		WithArgs("o1", "t2", "sick leave", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	occ, err := repo.AssignSubstitute(context.Background(), "o1", "t2", "sick leave")
	require.NoError(t, err)
	require.NotNil(t, occ.SubstituteID)
	assert.Equal(t, "t2", *occ.SubstituteID)
	assert.Equal(t, models.OccurrenceSubstitute, occ.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignSubstituteAlreadySubstituted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtextextended($1, 0))")).
		WithArgs("t2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .+ FROM lesson_occurrences WHERE id = \\$1 AND deleted_at IS NULL FOR UPDATE").
		WithArgs("o1").
		WillReturnRows(occurrenceRow("o1", "t9"))
	mock.ExpectRollback()

	_, err := repo.AssignSubstitute(context.Background(), "o1", "t2", "sick leave")
	assert.ErrorIs(t, err, ErrAlreadySubstituted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignSubstituteConflictDetectedInTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtextextended($1, 0))")).
		WithArgs("t2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .+ FROM lesson_occurrences WHERE id = \\$1 AND deleted_at IS NULL FOR UPDATE").
		WithArgs("o1").
		WillReturnRows(occurrenceRow("o1", nil))
	conflicting := sqlmock.NewRows([]string{"id", "teacher_id", "substitute_id", "date", "start_time", "end_time", "subject_name", "group_name"}).
		AddRow("o7", "t2", nil, "2026-03-02", "08:30", "09:30", "Physics", "11B")
	mock.ExpectQuery("FROM lesson_occurrences lo").
		WithArgs("2026-03-02", "t2").
		WillReturnRows(conflicting)
	mock.ExpectQuery("FROM vacations").
		WithArgs("t2", "2026-03-02").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.AssignSubstitute(context.Background(), "o1", "t2", "sick leave")
	var violation *AvailabilityViolation
	require.True(t, errors.As(err, &violation))
	require.Len(t, violation.Conflicts, 1)
	assert.Equal(t, "o7", violation.Conflicts[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveSubstitute(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM lesson_occurrences WHERE id = \\$1 AND deleted_at IS NULL FOR UPDATE").
		WithArgs("o1").
		WillReturnRows(occurrenceRow("o1", "t2"))
	mock.ExpectExec("UPDATE lesson_occurrences").
		WithArgs("o1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	occ, err := repo.RemoveSubstitute(context.Background(), "o1")
	require.NoError(t, err)
	assert.Nil(t, occ.SubstituteID)
	assert.Equal(t, models.OccurrenceRegular, occ.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveSubstituteNothingToRemove(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM lesson_occurrences WHERE id = \\$1 AND deleted_at IS NULL FOR UPDATE").
		WithArgs("o1").
		WillReturnRows(occurrenceRow("o1", nil))
	mock.ExpectRollback()

	_, err := repo.RemoveSubstitute(context.Background(), "o1")
	assert.ErrorIs(t, err, ErrNoSubstitute)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSubstitutionsFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	rows := sqlmock.NewRows([]string{
		"occurrence_id", "date", "start_time", "end_time",
		"teacher_id", "teacher_name", "substitute_id", "substitute_name",
		"subject_name", "group_name", "substitute_reason",
	}).AddRow("o1", "2026-03-02", "08:00", "09:00", "t1", "Alpha", "t2", "Beta", "Mathematics", "10A", "flu")

	mock.ExpectQuery("lo\\.teacher_id = \\$1 AND lo\\.date >= \\$2 AND lo\\.date <= \\$3").
		WithArgs("t1", "2026-03-01", "2026-03-31").
		WillReturnRows(rows)

	records, err := repo.ListSubstitutions(context.Background(), models.SubstitutionFilter{
		TeacherID: "t1",
		DateFrom:  "2026-03-01",
		DateTo:    "2026-03-31",
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Beta", records[0].SubstituteName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSubstitutionsInvolvedTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("(lo.teacher_id = $1 OR lo.substitute_id = $1)")).
		WithArgs("t2").
		WillReturnRows(sqlmock.NewRows([]string{
			"occurrence_id", "date", "start_time", "end_time",
			"teacher_id", "teacher_name", "substitute_id", "substitute_name",
			"subject_name", "group_name", "substitute_reason",
		}))

	_, err := repo.ListSubstitutions(context.Background(), models.SubstitutionFilter{InvolvedTeacherID: "t2"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
