package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/repository"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

const statsCachePrefix = "substitutions:stats:"

type substitutionRepository interface {
	FindOccurrenceByID(ctx context.Context, id string) (*models.LessonOccurrence, error)
	FindOccurrenceDetail(ctx context.Context, id string) (*models.OccurrenceDetail, error)
	AssignSubstitute(ctx context.Context, occurrenceID, substituteID, reason string) (*models.LessonOccurrence, error)
	RemoveSubstitute(ctx context.Context, occurrenceID string) (*models.LessonOccurrence, error)
	ListSubstitutions(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionRecord, error)
}

type availabilityChecker interface {
	Check(ctx context.Context, req CheckAvailabilityRequest) (*models.Availability, error)
}

// AssignSubstituteRequest is the payload for assigning a substitute.
type AssignSubstituteRequest struct {
	OccurrenceID        string `json:"occurrence_id" validate:"required"`
	SubstituteTeacherID string `json:"substitute_teacher_id" validate:"required"`
	Reason              string `json:"reason" validate:"required,max=500"`
}

// ListSubstitutionsRequest filters the substitution history.
type ListSubstitutionsRequest struct {
	TeacherID    string `json:"teacher_id"`
	SubstituteID string `json:"substitute_id"`
	DateFrom     string `json:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo       string `json:"date_to" validate:"omitempty,datetime=2006-01-02"`
}

// SubstitutionService orchestrates assigning and removing substitutes on
// lesson occurrences and reports on substitution history.
type SubstitutionService struct {
	repo      substitutionRepository
	teachers  rosterRepository
	checker   availabilityChecker
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubstitutionService constructs a SubstitutionService.
func NewSubstitutionService(repo substitutionRepository, teachers rosterRepository, checker availabilityChecker, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SubstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubstitutionService{
		repo:      repo,
		teachers:  teachers,
		checker:   checker,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// Assign places a substitute on one occurrence. Preconditions are checked
// in order and each violation fails immediately: the occurrence must
// exist, must not already be substituted, the substitute must exist and
// must be free for the occurrence's window. The write itself re-validates
// inside a row-locked transaction, so two concurrent assigns cannot both
// pass the check.
func (s *SubstitutionService) Assign(ctx context.Context, req AssignSubstituteRequest) (*models.OccurrenceDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid substitution payload")
	}

	occ, err := s.repo.FindOccurrenceByID(ctx, req.OccurrenceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson occurrence not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occurrence")
	}
	if occ.SubstituteID != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "occurrence already has a substitute")
	}

	if _, err := s.teachers.FindByID(ctx, req.SubstituteTeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "substitute teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitute teacher")
	}

	// The occurrence still belongs to the original teacher at this point,
	// so the check cannot collide with the occurrence being filled.
	verdict, err := s.checker.Check(ctx, CheckAvailabilityRequest{
		TeacherID: req.SubstituteTeacherID,
		Date:      occ.Date,
		StartTime: occ.StartTime,
		EndTime:   occ.EndTime,
	})
	if err != nil {
		return nil, err
	}
	if !verdict.IsAvailable {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, verdict.Reason)
	}

	if _, err := s.repo.AssignSubstitute(ctx, req.OccurrenceID, req.SubstituteTeacherID, req.Reason); err != nil {
		return nil, s.mapAssignError(err, req.SubstituteTeacherID)
	}

	s.invalidateStats(ctx)
	s.logger.Info("substitute assigned",
		zap.String("occurrence_id", req.OccurrenceID),
		zap.String("substitute_id", req.SubstituteTeacherID),
	)

	return s.detail(ctx, req.OccurrenceID)
}

// Remove clears the substitute from one occurrence, restoring its
// pre-assignment state exactly.
func (s *SubstitutionService) Remove(ctx context.Context, occurrenceID string) (*models.OccurrenceDetail, error) {
	occ, err := s.repo.FindOccurrenceByID(ctx, occurrenceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson occurrence not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occurrence")
	}
	if occ.SubstituteID == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "no substitute to remove")
	}

	if _, err := s.repo.RemoveSubstitute(ctx, occurrenceID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson occurrence not found")
		case errors.Is(err, repository.ErrNoSubstitute):
			return nil, appErrors.Clone(appErrors.ErrConflict, "no substitute to remove")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove substitute")
		}
	}

	s.invalidateStats(ctx)
	s.logger.Info("substitute removed", zap.String("occurrence_id", occurrenceID))

	return s.detail(ctx, occurrenceID)
}

// List returns the substitution history ordered by date descending, then
// start time ascending.
func (s *SubstitutionService) List(ctx context.Context, req ListSubstitutionsRequest) ([]models.SubstitutionRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid history filter")
	}
	records, err := s.repo.ListSubstitutions(ctx, models.SubstitutionFilter{
		TeacherID:    req.TeacherID,
		SubstituteID: req.SubstituteID,
		DateFrom:     req.DateFrom,
		DateTo:       req.DateTo,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list substitutions")
	}
	return records, nil
}

// Stats aggregates substitution history by original teacher, substitute,
// and reason. When filterTeacherID is set, only rows where that teacher
// appears as owner or substitute are counted. The second return value
// reports whether the result came from cache.
func (s *SubstitutionService) Stats(ctx context.Context, filterTeacherID string) (*models.SubstitutionStats, bool, error) {
	cacheKey := statsCacheKey(filterTeacherID)
	if s.cache.Enabled() {
		var cached models.SubstitutionStats
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, true, nil
		}
	}

	records, err := s.repo.ListSubstitutions(ctx, models.SubstitutionFilter{InvolvedTeacherID: filterTeacherID})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitution history")
	}

	stats := &models.SubstitutionStats{
		TotalSubstitutions: len(records),
		ByTeacher:          make(map[string]int),
		BySubstitute:       make(map[string]int),
		ByReason:           make(map[string]int),
	}
	for _, rec := range records {
		stats.ByTeacher[rec.TeacherName]++
		stats.BySubstitute[rec.SubstituteName]++
		reason := models.ReasonNotSpecified
		if rec.SubstituteReason != nil && *rec.SubstituteReason != "" {
			reason = *rec.SubstituteReason
		}
		stats.ByReason[reason]++
	}

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, stats, 0)
	}
	return stats, false, nil
}

func (s *SubstitutionService) mapAssignError(err error, substituteID string) error {
	var violation *repository.AvailabilityViolation
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "lesson occurrence not found")
	case errors.Is(err, repository.ErrAlreadySubstituted):
		return appErrors.Clone(appErrors.ErrConflict, "occurrence already has a substitute")
	case errors.As(err, &violation):
		if len(violation.Conflicts) > 0 {
			return appErrors.Clone(appErrors.ErrUnavailable, conflictReason(substituteID, violation.Conflicts[0]))
		}
		return appErrors.Clone(appErrors.ErrUnavailable, vacationReason(violation.Vacation))
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign substitute")
	}
}

func (s *SubstitutionService) detail(ctx context.Context, occurrenceID string) (*models.OccurrenceDetail, error) {
	detail, err := s.repo.FindOccurrenceDetail(ctx, occurrenceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occurrence detail")
	}
	return detail, nil
}

func (s *SubstitutionService) invalidateStats(ctx context.Context) {
	if s.cache.Enabled() {
		_ = s.cache.Invalidate(ctx, statsCachePrefix+"*")
	}
}

func statsCacheKey(filterTeacherID string) string {
	if filterTeacherID == "" {
		return statsCachePrefix + "all"
	}
	return fmt.Sprintf("%s%s", statsCachePrefix, filterTeacherID)
}
