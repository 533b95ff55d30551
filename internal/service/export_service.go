package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/westfield-hs/scheduler-api/internal/models"
	appErrors "github.com/westfield-hs/scheduler-api/pkg/errors"
	"github.com/westfield-hs/scheduler-api/pkg/export"
)

// ExportService renders roster and schedule documents for download.
type ExportService struct {
	roster    *RosterService
	schedules *ScheduleService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
	enabled   bool
}

// NewExportService constructs an ExportService.
func NewExportService(roster *RosterService, schedules *ScheduleService, logger *zap.Logger, enabled bool) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		roster:    roster,
		schedules: schedules,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
		enabled:   enabled,
	}
}

// Enabled indicates whether export endpoints are active.
func (s *ExportService) Enabled() bool { return s != nil && s.enabled }

// RosterCSV renders the filtered roster as CSV.
func (s *ExportService) RosterCSV(ctx context.Context, filter models.RosterFilter) ([]byte, string, error) {
	if !s.Enabled() {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	entries, err := s.roster.List(ctx, filter)
	if err != nil {
		return nil, "", err
	}

	headers := []string{"Student ID", "Student Name", "Grade", "Academic Courses", "Top Elective", "Scheduled", "Reviewed", "Pending Approvals", "Rejected Approvals", "Special Instructions"}
	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, map[string]string{
			"Student ID":           entry.StudentID,
			"Student Name":         entry.StudentName,
			"Grade":                entry.GradeLevel,
			"Academic Courses":     strings.Join(entry.AcademicCourses, "; "),
			"Top Elective":         entry.TopElective,
			"Scheduled":            strconv.FormatBool(entry.Scheduled),
			"Reviewed":             strconv.FormatBool(entry.Reviewed),
			"Pending Approvals":    strconv.Itoa(entry.PendingApprovals),
			"Rejected Approvals":   strconv.Itoa(entry.RejectedApprovals),
			"Special Instructions": entry.SpecialInstructions,
		})
	}

	payload, err := s.csv.Render(export.Dataset{Headers: headers, Rows: rows})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster csv")
	}
	filename := fmt.Sprintf("roster-%s.csv", time.Now().UTC().Format("20060102-150405"))
	return payload, filename, nil
}

// SchedulePDF renders one student's schedule card as PDF.
func (s *ExportService) SchedulePDF(ctx context.Context, studentID string) ([]byte, string, error) {
	if !s.Enabled() {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	detail, err := s.schedules.GetSchedule(ctx, studentID)
	if err != nil {
		return nil, "", err
	}

	academic := make([]string, 0, len(detail.Items.Academic))
	for _, item := range detail.Items.Academic {
		academic = append(academic, scheduleCardLine(item))
	}
	elective := make([]string, 0, len(detail.Items.Elective))
	for _, item := range detail.Items.Elective {
		elective = append(elective, scheduleCardLine(item))
	}

	card := export.Card{
		Title:    detail.Schedule.StudentName,
		Subtitle: fmt.Sprintf("Grade %s - Course Schedule", detail.Schedule.GradeLevel),
		Sections: []export.CardSection{
			{Title: "Academic Courses", Lines: academic},
			{Title: "Elective Choices (in priority order)", Lines: elective},
		},
		Footer: detail.Schedule.SpecialInstructions,
	}

	payload, err := s.pdf.RenderCard(card)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule pdf")
	}
	filename := fmt.Sprintf("schedule-%s.pdf", studentID)
	return payload, filename, nil
}

func scheduleCardLine(item models.ScheduleItem) string {
	if item.RequiresApproval {
		return fmt.Sprintf("%s [%s]", item.Display, item.ApprovalStatus)
	}
	return item.Display
}
