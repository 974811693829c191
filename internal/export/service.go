package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/jobapply/internal/entity"
	"github.com/joseph-ayodele/jobapply/internal/repository"
)

const (
	sheet         = "Applications"
	dateLayout    = "02.01.2006"
	defaultResult = "pending"
)

// Service produces XLSX bytes of a user's application history, one row per
// application in the layout of an unemployment-office (RAV) proof of effort.
type Service struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

func NewService(repos *repository.Repositories, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repos: repos, logger: logger}
}

// ExportApplicationsXLSX returns the workbook for userID. The window applies
// to the application's creation date.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all applications.
func (s *Service) ExportApplicationsXLSX(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	if _, err := s.repos.Users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	apps, err := s.repos.Applications.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	apps = within(apps, from, to)
	sort.SliceStable(apps, func(i, j int) bool { return apps[i].CreatedAt.Before(apps[j].CreatedAt) })

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{
		"No.",
		"Company",
		"Job Title",
		"Job Offer URL",
		"Applied",
		"Applied Date",
		"Result",
		"Match Score",
		"Generated Documents",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, style)
	}

	for i, a := range apps {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		score, err := s.repos.Matching.GetScore(ctx, a.ID)
		if err != nil && !repository.IsNotFound(err) {
			return nil, fmt.Errorf("query score: %w", err)
		}
		docs, err := s.repos.GeneratedDocuments.ListByApplication(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("query documents: %w", err)
		}

		write(1, i+1)
		write(2, a.Company)
		write(3, a.JobTitle)
		write(4, deref(a.JobOfferURL))
		write(5, yesNo(a.Applied))
		if a.AppliedAt != nil {
			write(6, a.AppliedAt.Format(dateLayout))
		}
		result := strings.TrimSpace(deref(a.Result))
		if result == "" {
			result = defaultResult
		}
		write(7, result)
		if score != nil {
			write(8, score.OverallScore)
		}
		write(9, docTypes(docs))
	}

	_ = f.SetColWidth(sheet, "A", "A", 6)
	_ = f.SetColWidth(sheet, "B", "C", 28)
	_ = f.SetColWidth(sheet, "D", "D", 48)
	_ = f.SetColWidth(sheet, "E", "H", 14)
	_ = f.SetColWidth(sheet, "I", "I", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"user_id", userID.String(),
		"rows", len(apps),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func within(apps []*entity.Application, from, to *time.Time) []*entity.Application {
	if from == nil && to == nil {
		return apps
	}
	var lo, hi time.Time
	if from != nil {
		lo = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	}
	if to != nil {
		hi = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	} else {
		today := time.Now().UTC()
		hi = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	}
	out := make([]*entity.Application, 0, len(apps))
	for _, a := range apps {
		c := a.CreatedAt.UTC()
		if c.Before(lo) || !c.Before(hi) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func docTypes(docs []*entity.GeneratedDocument) string {
	seen := map[string]bool{}
	var out []string
	for _, d := range docs {
		if !seen[d.DocType] {
			seen[d.DocType] = true
			out = append(out, d.DocType)
		}
	}
	return strings.Join(out, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
