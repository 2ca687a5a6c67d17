package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/repository"
	"github.com/noah-isme/sma-substitution-api/internal/service"
	"github.com/noah-isme/sma-substitution-api/pkg/response"
)

// engineStore backs the real services in handler tests with in-memory
// data, so requests run through validation and orchestration unchanged.
type engineStore struct {
	occurrences map[string]*models.LessonOccurrence
	teachers    map[string]models.Teacher
	vacations   map[string]*models.Vacation
	records     []models.SubstitutionRecord
}

func (s *engineStore) FindOccurrenceByID(ctx context.Context, id string) (*models.LessonOccurrence, error) {
	occ, ok := s.occurrences[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *occ
	return &copied, nil
}

func (s *engineStore) FindOccurrenceDetail(ctx context.Context, id string) (*models.OccurrenceDetail, error) {
	occ, ok := s.occurrences[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.OccurrenceDetail{LessonOccurrence: *occ}, nil
}

func (s *engineStore) FindDayCommitments(ctx context.Context, teacherID, date string) ([]models.OccurrenceCommitment, error) {
	var out []models.OccurrenceCommitment
	for _, occ := range s.occurrences {
		if occ.Date != date {
			continue
		}
		substituted := occ.SubstituteID != nil && *occ.SubstituteID == teacherID
		if occ.TeacherID != teacherID && !substituted {
			continue
		}
		out = append(out, models.OccurrenceCommitment{
			ID:          occ.ID,
			TeacherID:   occ.TeacherID,
			Date:        occ.Date,
			StartTime:   occ.StartTime,
			EndTime:     occ.EndTime,
			SubjectName: "Mathematics",
			GroupName:   "10A",
		})
	}
	return out, nil
}

func (s *engineStore) FindApprovedVacation(ctx context.Context, teacherID, date string) (*models.Vacation, error) {
	v := s.vacations[teacherID]
	if v == nil || !v.Covers(date) {
		return nil, nil
	}
	return v, nil
}

func (s *engineStore) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, ok := s.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &teacher, nil
}

func (s *engineStore) ListActive(ctx context.Context, excludeID string) ([]models.Teacher, error) {
	var out []models.Teacher
	for _, teacher := range s.teachers {
		if teacher.ID != excludeID {
			out = append(out, teacher)
		}
	}
	return out, nil
}

func (s *engineStore) AssignSubstitute(ctx context.Context, occurrenceID, substituteID, reason string) (*models.LessonOccurrence, error) {
	occ, ok := s.occurrences[occurrenceID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if occ.SubstituteID != nil {
		return nil, repository.ErrAlreadySubstituted
	}
	occ.SubstituteID = &substituteID
	occ.SubstituteReason = &reason
	occ.Status = models.OccurrenceSubstitute
	copied := *occ
	return &copied, nil
}

func (s *engineStore) RemoveSubstitute(ctx context.Context, occurrenceID string) (*models.LessonOccurrence, error) {
	occ, ok := s.occurrences[occurrenceID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if occ.SubstituteID == nil {
		return nil, repository.ErrNoSubstitute
	}
	occ.SubstituteID = nil
	occ.SubstituteReason = nil
	occ.Status = models.OccurrenceRegular
	copied := *occ
	return &copied, nil
}

func (s *engineStore) ListSubstitutions(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionRecord, error) {
	return s.records, nil
}

func newTestHandler(store *engineStore) *SubstitutionHandler {
	availability := service.NewAvailabilityService(store, store, store, nil, nil)
	substitutions := service.NewSubstitutionService(store, store, availability, nil, nil, nil)
	exports := service.NewExportService(substitutions, nil, nil, nil)
	return NewSubstitutionHandler(substitutions, availability, exports)
}

func fixtureStore() *engineStore {
	return &engineStore{
		occurrences: map[string]*models.LessonOccurrence{
			"o1": {
				ID:        "o1",
				TeacherID: "t1",
				Date:      "2026-03-02",
				StartTime: "08:00",
				EndTime:   "09:00",
				Status:    models.OccurrenceRegular,
			},
		},
		teachers: map[string]models.Teacher{
			"t1": {ID: "t1", FullName: "Alpha", Active: true},
			"t2": {ID: "t2", FullName: "Beta", Active: true},
		},
		vacations: map[string]*models.Vacation{},
	}
}

func TestSubstitutionHandlerAssign(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestHandler(fixtureStore())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"occurrence_id":"o1","substitute_teacher_id":"t2","reason":"sick leave"}`
	req, _ := http.NewRequest(http.MethodPost, "/substitutions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Assign(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotNil(t, envelope.Data)
}

func TestSubstitutionHandlerAssignInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestHandler(fixtureStore())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/substitutions", bytes.NewBufferString(`{"occurrence_id":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Assign(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubstitutionHandlerAssignUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := fixtureStore()
	store.vacations["t2"] = &models.Vacation{
		ID: "v1", TeacherID: "t2",
		StartDate: "2026-03-01", EndDate: "2026-03-10",
		Status: models.VacationApproved, Type: "annual",
	}
	handler := newTestHandler(store)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"occurrence_id":"o1","substitute_teacher_id":"t2","reason":"sick leave"}`
	req, _ := http.NewRequest(http.MethodPost, "/substitutions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Assign(c)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSubstitutionHandlerRemoveConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestHandler(fixtureStore())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/substitutions/o1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "occurrenceId", Value: "o1"}}

	handler.Remove(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubstitutionHandlerCheckAvailability(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestHandler(fixtureStore())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/substitutions/check-availability/t1?date=2026-03-02&startTime=08:30&endTime=09:30", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "teacherId", Value: "t1"}}

	handler.CheckAvailability(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.Availability `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.IsAvailable)
	assert.Contains(t, envelope.Data.Reason, "already teaching")
}

func TestSubstitutionHandlerStatsMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := fixtureStore()
	reason := "flu"
	store.records = []models.SubstitutionRecord{{
		OccurrenceID: "o9", TeacherName: "Alpha", SubstituteName: "Beta", SubstituteReason: &reason,
	}}
	handler := newTestHandler(store)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/substitutions/stats", nil)
	c.Request = req

	handler.Stats(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.SubstitutionStats `json:"data"`
		Meta map[string]interface{}   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.TotalSubstitutions)
	assert.Equal(t, false, envelope.Meta["cache_hit"])
}

func TestSubstitutionHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestHandler(fixtureStore())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/substitutions/export?format=csv", nil)
	c.Request = req

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "substitutions_")
}
