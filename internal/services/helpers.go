package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/repositories"
)

const dateLayout = "2006-01-02"
const monthLayout = "2006-01"

// parseDate parses a YYYY-MM-DD day in UTC.
func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}

// parseMonthRange resolves YYYY-MM to the inclusive [first, last] day pair.
func parseMonthRange(month string) (time.Time, time.Time, error) {
	from, err := time.Parse(monthLayout, month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	to := from.AddDate(0, 1, -1)
	return from, to, nil
}

// currentSchoolDay maps today's weekday onto the timetable's day names.
// Returns false on weekends.
func currentSchoolDay(now time.Time) (models.Weekday, bool) {
	day := models.Weekday(now.Weekday().String())
	return day, models.DayOrder(day) >= 0
}

// userRole loads the role of an active user.
func userRole(ctx context.Context, repo repositories.Repository, db *gorm.DB, userID uint) (models.UserRole, error) {
	user, err := repo.User().GetByID(ctx, db, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to resolve user role: %w", err)
	}
	return user.Role, nil
}

// Summarize derives the attendance summary from a record list. Only present
// marks count toward the percentage; it is rounded to the nearest integer and
// is zero when there are no records at all.
func Summarize(records []*models.AttendanceRecord) models.AttendanceSummary {
	summary := models.AttendanceSummary{Total: len(records)}

	for _, record := range records {
		switch record.Status {
		case models.AttendancePresent:
			summary.Present++
		case models.AttendanceLate:
			summary.Late++
		case models.AttendanceAbsent:
			summary.Absent++
		}
	}

	if summary.Total > 0 {
		summary.Percentage = int(float64(summary.Present)/float64(summary.Total)*100 + 0.5)
	}

	return summary
}
