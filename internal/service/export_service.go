package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/univ-dsi/accessplan-api/internal/models"
	"github.com/univ-dsi/accessplan-api/internal/temporal"
	appErrors "github.com/univ-dsi/accessplan-api/pkg/errors"
	"github.com/univ-dsi/accessplan-api/pkg/export"
)

type exportBeneficiaryRepository interface {
	List(ctx context.Context, filter models.BeneficiaryFilter) ([]models.BeneficiaryPeriodDetail, int, error)
	ListGrants(ctx context.Context, periodID string) ([]models.AccommodationGrant, error)
}

type exportAccommodationRepository interface {
	ListTypes(ctx context.Context) ([]models.AccommodationType, error)
}

// ExportFormat selects the rendered output format.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes with their content type and filename.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders beneficiary reporting extracts. Selection of what
// falls inside the reporting window follows the same overlap rules the rest
// of the domain uses.
type ExportService struct {
	beneficiaries exportBeneficiaryRepository
	accommodation exportAccommodationRepository
	csv           *export.CSVExporter
	pdf           *export.PDFExporter
	logger        *zap.Logger
	maxRows       int
}

// NewExportService constructs an ExportService instance.
func NewExportService(beneficiaries exportBeneficiaryRepository, accommodation exportAccommodationRepository, logger *zap.Logger, maxRows int) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRows <= 0 {
		maxRows = 5000
	}
	return &ExportService{
		beneficiaries: beneficiaries,
		accommodation: accommodation,
		csv:           export.NewCSVExporter(),
		pdf:           export.NewPDFExporter(),
		logger:        logger,
		maxRows:       maxRows,
	}
}

// BeneficiaryPeriods exports the periods overlapping the reporting window.
func (s *ExportService) BeneficiaryPeriods(ctx context.Context, from time.Time, to *time.Time, requireSupport bool, format ExportFormat) (*ExportResult, error) {
	ref, err := temporal.New(from, to)
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	details, _, err := s.beneficiaries.List(ctx, models.BeneficiaryFilter{PageSize: s.maxRows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}

	periods := make([]models.BeneficiaryPeriod, 0, len(details))
	byID := make(map[string]models.BeneficiaryPeriodDetail, len(details))
	for _, d := range details {
		periods = append(periods, d.BeneficiaryPeriod)
		byID[d.ID] = d
	}
	selected := temporal.SelectPeriods(periods, ref, requireSupport)

	headers := []string{"Student", "Profile", "Manager", "Start", "End", "Support"}
	rows := make([]map[string]string, 0, len(selected))
	for _, p := range selected {
		d := byID[p.ID]
		manager := ""
		if d.ManagerName != nil {
			manager = *d.ManagerName
		}
		rows = append(rows, map[string]string{
			"Student": d.StudentName,
			"Profile": d.ProfileLabel,
			"Manager": manager,
			"Start":   formatDate(p.StartDate),
			"End":     formatDatePtr(p.EndDate),
			"Support": fmt.Sprintf("%t", p.WithSupport),
		})
	}

	return s.render(export.Dataset{Headers: headers, Rows: rows}, "beneficiary-periods", "Beneficiary periods", format)
}

// PeriodGrants exports the grants of one period overlapping [from, to).
func (s *ExportService) PeriodGrants(ctx context.Context, periodID string, from, to time.Time, format ExportFormat) (*ExportResult, error) {
	grants, err := s.beneficiaries.ListGrants(ctx, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grants")
	}
	types, err := s.accommodation.ListTypes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list types")
	}
	labels := make(map[string]string, len(types))
	for _, t := range types {
		labels[t.ID] = t.Label
	}

	headers := []string{"Type", "Start", "End", "S1", "S2", "Comment"}
	var rows []map[string]string
	for g := range temporal.SelectGrants(grants, from, to) {
		rows = append(rows, map[string]string{
			"Type":    labels[g.TypeID],
			"Start":   formatDate(g.StartDate),
			"End":     formatDatePtr(g.EndDate),
			"S1":      fmt.Sprintf("%t", g.Semester1),
			"S2":      fmt.Sprintf("%t", g.Semester2),
			"Comment": g.Comment,
		})
	}

	return s.render(export.Dataset{Headers: headers, Rows: rows}, "period-grants", "Accommodation grants", format)
}

func (s *ExportService) render(data export.Dataset, name, title string, format ExportFormat) (*ExportResult, error) {
	switch format {
	case ExportFormatCSV, "":
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{Content: content, ContentType: "text/csv", Filename: name + ".csv"}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{Content: content, ContentType: "application/pdf", Filename: name + ".pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}
