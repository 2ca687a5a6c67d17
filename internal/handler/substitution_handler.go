package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-substitution-api/internal/middleware"
	"github.com/noah-isme/sma-substitution-api/internal/service"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
	"github.com/noah-isme/sma-substitution-api/pkg/response"
)

// SubstitutionHandler wires the substitution engine to HTTP routes.
type SubstitutionHandler struct {
	substitutions *service.SubstitutionService
	availability  *service.AvailabilityService
	exports       *service.ExportService
}

// NewSubstitutionHandler constructs a new SubstitutionHandler.
func NewSubstitutionHandler(substitutions *service.SubstitutionService, availability *service.AvailabilityService, exports *service.ExportService) *SubstitutionHandler {
	return &SubstitutionHandler{
		substitutions: substitutions,
		availability:  availability,
		exports:       exports,
	}
}

// Assign godoc
// @Summary Assign a substitute to a lesson occurrence
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param payload body service.AssignSubstituteRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /substitutions [post]
func (h *SubstitutionHandler) Assign(c *gin.Context) {
	var req service.AssignSubstituteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid substitution payload"))
		return
	}
	detail, err := h.substitutions.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Remove godoc
// @Summary Remove the substitute from a lesson occurrence
// @Tags Substitutions
// @Produce json
// @Param occurrenceId path string true "Occurrence ID"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{occurrenceId} [delete]
func (h *SubstitutionHandler) Remove(c *gin.Context) {
	detail, err := h.substitutions.Remove(c.Request.Context(), c.Param("occurrenceId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// AvailableTeachers godoc
// @Summary List teachers free in a window
// @Tags Substitutions
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param startTime query string true "Start time (HH:MM)"
// @Param endTime query string true "End time (HH:MM)"
// @Param excludeTeacherId query string false "Teacher to exclude"
// @Success 200 {object} response.Envelope
// @Router /substitutions/available-teachers [get]
func (h *SubstitutionHandler) AvailableTeachers(c *gin.Context) {
	req := service.FindAvailableTeachersRequest{
		Date:             strings.TrimSpace(c.Query("date")),
		StartTime:        strings.TrimSpace(c.Query("startTime")),
		EndTime:          strings.TrimSpace(c.Query("endTime")),
		ExcludeTeacherID: strings.TrimSpace(c.Query("excludeTeacherId")),
	}
	teachers, err := h.availability.FindAvailableTeachers(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// CheckAvailability godoc
// @Summary Check one teacher's availability in a window
// @Tags Substitutions
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param startTime query string true "Start time (HH:MM)"
// @Param endTime query string true "End time (HH:MM)"
// @Success 200 {object} response.Envelope
// @Router /substitutions/check-availability/{teacherId} [get]
func (h *SubstitutionHandler) CheckAvailability(c *gin.Context) {
	req := service.CheckAvailabilityRequest{
		TeacherID: c.Param("teacherId"),
		Date:      strings.TrimSpace(c.Query("date")),
		StartTime: strings.TrimSpace(c.Query("startTime")),
		EndTime:   strings.TrimSpace(c.Query("endTime")),
	}
	verdict, err := h.availability.Check(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, verdict, nil)
}

// List godoc
// @Summary List substitution history
// @Tags Substitutions
// @Produce json
// @Param teacherId query string false "Original teacher"
// @Param substituteId query string false "Substitute teacher"
// @Param startDate query string false "From date (YYYY-MM-DD)"
// @Param endDate query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /substitutions [get]
func (h *SubstitutionHandler) List(c *gin.Context) {
	records, err := h.substitutions.List(c.Request.Context(), historyFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Stats godoc
// @Summary Aggregate substitution statistics
// @Tags Substitutions
// @Produce json
// @Param teacherId query string false "Restrict to a teacher (as owner or substitute)"
// @Success 200 {object} response.Envelope
// @Router /substitutions/stats [get]
func (h *SubstitutionHandler) Stats(c *gin.Context) {
	stats, cached, err := h.substitutions.Stats(c.Request.Context(), strings.TrimSpace(c.Query("teacherId")))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export substitution history
// @Tags Substitutions
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "Export format (csv or pdf)"
// @Param teacherId query string false "Original teacher"
// @Param substituteId query string false "Substitute teacher"
// @Param startDate query string false "From date (YYYY-MM-DD)"
// @Param endDate query string false "To date (YYYY-MM-DD)"
// @Success 200
// @Router /substitutions/export [get]
func (h *SubstitutionHandler) Export(c *gin.Context) {
	format := service.ExportFormat(strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv"))))
	result, err := h.exports.Export(c.Request.Context(), format, historyFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

func historyFilterFromQuery(c *gin.Context) service.ListSubstitutionsRequest {
	return service.ListSubstitutionsRequest{
		TeacherID:    strings.TrimSpace(c.Query("teacherId")),
		SubstituteID: strings.TrimSpace(c.Query("substituteId")),
		DateFrom:     strings.TrimSpace(c.Query("startDate")),
		DateTo:       strings.TrimSpace(c.Query("endDate")),
	}
}
