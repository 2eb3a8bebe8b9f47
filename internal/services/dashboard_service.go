package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/repositories"
)

const recentActivityLimit = 5

type dashboardService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewDashboardService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) DashboardService {
	return &dashboardService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

func (s *dashboardService) TeacherDashboard(ctx context.Context, teacherID uint) (*TeacherDashboardResponse, error) {
	response := &TeacherDashboardResponse{}

	var err error
	if response.StudentCount, err = s.repo.Dashboard().CountStudents(ctx, s.db); err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}

	if response.ClassCount, err = s.repo.Dashboard().CountClassesByTeacher(ctx, s.db, teacherID); err != nil {
		return nil, fmt.Errorf("failed to count classes: %w", err)
	}

	if response.PendingLeaves, err = s.repo.Leave().CountByStatus(ctx, s.db, models.LeavePending); err != nil {
		return nil, fmt.Errorf("failed to count pending leaves: %w", err)
	}

	if day, ok := currentSchoolDay(time.Now()); ok {
		if response.SlotsToday, err = s.repo.Dashboard().CountSlotsByTeacherAndDay(ctx, s.db, teacherID, day); err != nil {
			return nil, fmt.Errorf("failed to count today's slots: %w", err)
		}
	}

	marks, err := s.repo.Dashboard().GetRecentAttendance(ctx, s.db, &teacherID, recentActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent attendance: %w", err)
	}
	response.RecentMarks = marks

	leaves, err := s.repo.Dashboard().GetRecentLeaves(ctx, s.db, nil, recentActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent leaves: %w", err)
	}

	response.RecentActivity = buildActivityFeed(marks, leaves)

	return response, nil
}

func (s *dashboardService) StudentDashboard(ctx context.Context, studentID uint) (*StudentDashboardResponse, error) {
	response := &StudentDashboardResponse{}

	var err error
	if response.ClassCount, err = s.repo.Dashboard().CountClassesByStudent(ctx, s.db, studentID); err != nil {
		return nil, fmt.Errorf("failed to count classes: %w", err)
	}

	if day, ok := currentSchoolDay(time.Now()); ok {
		if response.SlotsToday, err = s.repo.Dashboard().CountSlotsByStudentAndDay(ctx, s.db, studentID, day); err != nil {
			return nil, fmt.Errorf("failed to count today's slots: %w", err)
		}
	}

	// Attendance percentage for the current month.
	month := time.Now().Format(monthLayout)
	from, to, err := parseMonthRange(month)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.Attendance().GetByStudentAndRange(ctx, s.db, studentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get month attendance: %w", err)
	}
	response.Attendance = Summarize(records)

	leaves, err := s.repo.Dashboard().GetRecentLeaves(ctx, s.db, &studentID, recentActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent leaves: %w", err)
	}
	response.RecentLeaves = leaves

	response.RecentActivity = buildActivityFeed(nil, leaves)

	return response, nil
}

// buildActivityFeed merges attendance marks and leave updates into a single
// reverse-chronological feed.
func buildActivityFeed(marks []*models.AttendanceRecord, leaves []*models.LeaveRequest) []DashboardActivity {
	feed := make([]DashboardActivity, 0, len(marks)+len(leaves))

	for _, mark := range marks {
		feed = append(feed, DashboardActivity{
			Kind: "attendance",
			Detail: fmt.Sprintf("student %d marked %s on %s",
				mark.StudentID, mark.Status, mark.Date.Format(dateLayout)),
			OccurredAt: mark.UpdatedAt,
		})
	}

	for _, leave := range leaves {
		detail := fmt.Sprintf("leave request %d is %s", leave.ID, leave.Status)
		at := leave.CreatedAt
		if leave.ReviewedAt != nil {
			at = *leave.ReviewedAt
		}
		feed = append(feed, DashboardActivity{
			Kind:       "leave",
			Detail:     detail,
			OccurredAt: at,
		})
	}

	// Newest first.
	sort.Slice(feed, func(i, j int) bool {
		return feed[i].OccurredAt.After(feed[j].OccurredAt)
	})

	if len(feed) > recentActivityLimit {
		feed = feed[:recentActivityLimit]
	}

	return feed
}
