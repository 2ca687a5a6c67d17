package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

func TestFindApprovedVacation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVacationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "start_date", "end_date", "status", "type", "deleted_at", "created_at"}).
		AddRow("v1", "t1", "2026-03-01", "2026-03-10", "approved", "annual", nil, time.Now())
	mock.ExpectQuery("FROM vacations").
		WithArgs("t1", "2026-03-02").
		WillReturnRows(rows)

	vacation, err := repo.FindApprovedVacation(context.Background(), "t1", "2026-03-02")
	require.NoError(t, err)
	require.NotNil(t, vacation)
	assert.Equal(t, models.VacationApproved, vacation.Status)
	assert.True(t, vacation.Covers("2026-03-02"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindApprovedVacationNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVacationRepository(db)

	mock.ExpectQuery("FROM vacations").
		WithArgs("t1", "2026-03-02").
		WillReturnError(sql.ErrNoRows)

	vacation, err := repo.FindApprovedVacation(context.Background(), "t1", "2026-03-02")
	require.NoError(t, err)
	assert.Nil(t, vacation)
	assert.NoError(t, mock.ExpectationsWereMet())
}
