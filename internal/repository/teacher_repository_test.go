package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teacherRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "full_name", "email", "active", "created_at", "updated_at"})
}

func TestTeacherFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, email, active, created_at, updated_at FROM teachers WHERE id = $1")).
		WithArgs("t1").
		WillReturnRows(teacherRows().AddRow("t1", "Alpha", "alpha@example.com", true, time.Now(), time.Now()))

	teacher, err := repo.FindByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", teacher.FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherListActiveExcludes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE active = TRUE AND id <> $1 ORDER BY full_name ASC")).
		WithArgs("t9").
		WillReturnRows(teacherRows().
			AddRow("t1", "Alpha", "alpha@example.com", true, time.Now(), time.Now()).
			AddRow("t2", "Beta", "beta@example.com", true, time.Now(), time.Now()))

	teachers, err := repo.ListActive(context.Background(), "t9")
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, "Alpha", teachers[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
