package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/repositories"
)

type exportService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// AttendanceSheet renders one class-month as a spreadsheet: one row per
// enrolled student, one column per day that has at least one mark, and a
// trailing summary block. Cells hold P, L or A.
func (s *exportService) AttendanceSheet(ctx context.Context, classID uint, month string, actorID uint) (*ExportResult, error) {
	s.logger.Info("Exporting attendance sheet", "class_id", classID, "month", month, "actor_id", actorID)

	class, err := s.repo.Class().GetByIDWithStudents(ctx, s.db, classID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to get class: %w", err)
	}

	if class.TeacherID != actorID {
		role, err := userRole(ctx, s.repo, s.db, actorID)
		if err != nil {
			return nil, err
		}
		if role != models.RoleAdmin {
			return nil, NewPermissionError(actorID, classID, "class", "export", "not the owning teacher")
		}
	}

	from, to, err := parseMonthRange(month)
	if err != nil {
		return nil, NewBusinessRuleError("month_format", err.Error())
	}

	records, err := s.repo.Attendance().List(ctx, s.db, repositories.AttendanceFilters{
		ClassID:  &classID,
		DateFrom: &from,
		DateTo:   &to,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance: %w", err)
	}

	content, err := renderAttendanceSheet(class, month, records)
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("attendance_%s_%s.xlsx", sanitizeFileName(class.Name), month)

	s.logger.Info("Attendance sheet exported",
		"class_id", classID,
		"rows", len(class.Students),
		"records", len(records))

	return &ExportResult{FileName: fileName, Content: content}, nil
}

func renderAttendanceSheet(class *models.Class, month string, records []*models.AttendanceRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Attendance"
	f.SetSheetName(f.GetSheetName(0), sheet)

	// Marks by (student, day-of-month), plus the sorted set of marked days.
	type key struct {
		student uint
		day     int
	}
	marks := make(map[key]models.AttendanceStatus)
	daySet := make(map[int]struct{})
	for _, record := range records {
		day := record.Date.Day()
		marks[key{record.StudentID, day}] = record.Status
		daySet[day] = struct{}{}
	}
	days := make([]int, 0, len(daySet))
	for d := 1; d <= 31; d++ {
		if _, ok := daySet[d]; ok {
			days = append(days, d)
		}
	}

	// Header
	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s (%s) - %s", class.Name, class.Subject, month))
	f.SetCellValue(sheet, "A2", "Student")
	for i, day := range days {
		cell, err := excelize.CoordinatesToCellName(i+2, 2)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		f.SetCellValue(sheet, cell, day)
	}
	summaryCol := len(days) + 2
	for i, title := range []string{"Present", "Late", "Absent", "%"} {
		cell, err := excelize.CoordinatesToCellName(summaryCol+i, 2)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		f.SetCellValue(sheet, cell, title)
	}

	letters := map[models.AttendanceStatus]string{
		models.AttendancePresent: "P",
		models.AttendanceLate:    "L",
		models.AttendanceAbsent:  "A",
	}

	for row, student := range class.Students {
		r := row + 3
		f.SetCellValue(sheet, fmt.Sprintf("A%d", r), student.Username)

		var studentRecords []*models.AttendanceRecord
		for i, day := range days {
			status, ok := marks[key{student.ID, day}]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+2, r)
			if err != nil {
				return nil, fmt.Errorf("failed to build mark cell: %w", err)
			}
			f.SetCellValue(sheet, cell, letters[status])
			studentRecords = append(studentRecords, &models.AttendanceRecord{Status: status})
		}

		summary := Summarize(studentRecords)
		values := []int{summary.Present, summary.Late, summary.Absent, summary.Percentage}
		for i, value := range values {
			cell, err := excelize.CoordinatesToCellName(summaryCol+i, r)
			if err != nil {
				return nil, fmt.Errorf("failed to build summary cell: %w", err)
			}
			f.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render spreadsheet: %w", err)
	}

	return buf.Bytes(), nil
}

func sanitizeFileName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}
