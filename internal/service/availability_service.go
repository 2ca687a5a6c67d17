package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

type commitmentRepository interface {
	FindDayCommitments(ctx context.Context, teacherID, date string) ([]models.OccurrenceCommitment, error)
}

type vacationRepository interface {
	FindApprovedVacation(ctx context.Context, teacherID, date string) (*models.Vacation, error)
}

type rosterRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ListActive(ctx context.Context, excludeID string) ([]models.Teacher, error)
}

// CheckAvailabilityRequest carries a single teacher availability probe.
type CheckAvailabilityRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

// FindAvailableTeachersRequest asks for every teacher free in a window.
type FindAvailableTeachersRequest struct {
	Date             string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime        string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime          string `json:"end_time" validate:"required,datetime=15:04"`
	ExcludeTeacherID string `json:"exclude_teacher_id"`
}

// AvailabilityService decides whether teachers are free in a given window,
// weighing existing commitments (owned or substituted) and approved leave.
type AvailabilityService struct {
	commitments commitmentRepository
	vacations   vacationRepository
	teachers    rosterRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(commitments commitmentRepository, vacations vacationRepository, teachers rosterRepository, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		commitments: commitments,
		vacations:   vacations,
		teachers:    teachers,
		validator:   validate,
		logger:      logger,
	}
}

// Check returns the availability verdict for one teacher and window.
// Read-only; the verdict reflects committed state at query time.
func (s *AvailabilityService) Check(ctx context.Context, req CheckAvailabilityRequest) (*models.Availability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}
	window := models.TimeRange{Start: req.StartTime, End: req.EndTime}
	if !window.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}

	commitments, err := s.commitments.FindDayCommitments(ctx, req.TeacherID, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day commitments")
	}

	var conflicts []models.OccurrenceCommitment
	for _, c := range commitments {
		if window.Overlaps(c.Window()) {
			conflicts = append(conflicts, c)
		}
	}
	// Deterministic reporting: earliest conflict wins, id breaks ties.
	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].StartTime != conflicts[j].StartTime {
			return conflicts[i].StartTime < conflicts[j].StartTime
		}
		return conflicts[i].ID < conflicts[j].ID
	})
	if len(conflicts) > 0 {
		first := conflicts[0]
		return &models.Availability{
			IsAvailable: false,
			Reason:      conflictReason(req.TeacherID, first),
			Conflict:    &first,
		}, nil
	}

	vacation, err := s.vacations.FindApprovedVacation(ctx, req.TeacherID, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vacations")
	}
	if vacation != nil {
		return &models.Availability{IsAvailable: false, Reason: vacationReason(vacation)}, nil
	}

	return &models.Availability{IsAvailable: true}, nil
}

// FindAvailableTeachers scans the active roster and returns every teacher
// free in the window, each annotated with the positive verdict. Linear in
// roster size, which is fine for single-institution faculties; a
// high-teacher-count deployment would batch-prefetch the day's
// occurrences and vacations once instead.
func (s *AvailabilityService) FindAvailableTeachers(ctx context.Context, req FindAvailableTeachersRequest) ([]models.TeacherWithAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}
	window := models.TimeRange{Start: req.StartTime, End: req.EndTime}
	if !window.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}

	roster, err := s.teachers.ListActive(ctx, req.ExcludeTeacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}

	available := make([]models.TeacherWithAvailability, 0, len(roster))
	for _, teacher := range roster {
		verdict, err := s.Check(ctx, CheckAvailabilityRequest{
			TeacherID: teacher.ID,
			Date:      req.Date,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		})
		if err != nil {
			return nil, err
		}
		if verdict.IsAvailable {
			available = append(available, models.TeacherWithAvailability{Teacher: teacher, Availability: *verdict})
		}
	}
	return available, nil
}

func conflictReason(teacherID string, c models.OccurrenceCommitment) string {
	verb := "teaching"
	if c.SubstituteID != nil && *c.SubstituteID == teacherID {
		verb = "substituting"
	}
	return fmt.Sprintf("already %s %s with %s from %s to %s", verb, c.SubjectName, c.GroupName, c.StartTime, c.EndTime)
}

func vacationReason(v *models.Vacation) string {
	return fmt.Sprintf("on approved %s vacation until %s", v.Type, v.EndDate)
}
