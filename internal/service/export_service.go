package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/pkg/export"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

// ExportFormat enumerates supported history export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult carries a rendered export ready for download.
type ExportResult struct {
	Payload     []byte
	ContentType string
	Filename    string
}

type historyLister interface {
	List(ctx context.Context, req ListSubstitutionsRequest) ([]models.SubstitutionRecord, error)
}

// ExportService renders substitution history for download.
type ExportService struct {
	history historyLister
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(history historyLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{history: history, csv: csv, pdf: pdf, logger: logger}
}

var exportHeaders = []string{"Date", "Start", "End", "Teacher", "Substitute", "Subject", "Group", "Reason"}

// Export renders the filtered substitution history in the requested format.
func (s *ExportService) Export(ctx context.Context, format ExportFormat, filter ListSubstitutionsRequest) (*ExportResult, error) {
	records, err := s.history.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(records))}
	for _, rec := range records {
		reason := models.ReasonNotSpecified
		if rec.SubstituteReason != nil && *rec.SubstituteReason != "" {
			reason = *rec.SubstituteReason
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":       rec.Date,
			"Start":      rec.StartTime,
			"End":        rec.EndTime,
			"Teacher":    rec.TeacherName,
			"Substitute": rec.SubstituteName,
			"Subject":    rec.SubjectName,
			"Group":      rec.GroupName,
			"Reason":     reason,
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{
			Payload:     payload,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("substitutions_%s.csv", stamp),
		}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, "Substitution History")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{
			Payload:     payload,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("substitutions_%s.pdf", stamp),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
