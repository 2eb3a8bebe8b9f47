package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/druk-edu/school-admin-service/internal/events"
	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/validator"
)

func newAttendanceFixture(t *testing.T) (*mockRepository, *events.RecordingPublisher, AttendanceService) {
	t.Helper()

	classRepo := newStubClassRepo(&models.Class{ID: 1, Name: "7A", TeacherID: 10})
	classRepo.enroll(1, 50)

	repo := &mockRepository{
		user: newStubUserRepo(
			&models.User{ID: 10, Username: "teacher", Role: models.RoleTeacher},
			&models.User{ID: 50, Username: "student", Role: models.RoleStudent},
		),
		class:      classRepo,
		timetable:  newStubTimetableRepo(),
		attendance: newStubAttendanceRepo(),
	}

	publisher := events.NewRecordingPublisher()
	service := NewAttendanceService(repo, nil, testLogger(), validator.New(), publisher)
	return repo, publisher, service
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestAttendanceService_Mark_Upsert(t *testing.T) {
	_, _, service := newAttendanceFixture(t)
	ctx := context.Background()

	first, err := service.Mark(ctx, &MarkAttendanceRequest{
		StudentID: 50, Date: "2025-03-03", ClassID: 1, Status: strPtr("present"),
	}, 10)
	if err != nil {
		t.Fatalf("Mark() error: %v", err)
	}
	if first.Status != models.AttendancePresent {
		t.Errorf("status = %q, want present", first.Status)
	}

	// Re-marking the same (student, date, class) overwrites in place.
	second, err := service.Mark(ctx, &MarkAttendanceRequest{
		StudentID: 50, Date: "2025-03-03", ClassID: 1, Status: strPtr("late"),
	}, 10)
	if err != nil {
		t.Fatalf("Mark() second call error: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert created a new row: id %d -> %d", first.ID, second.ID)
	}
	if second.Status != models.AttendanceLate {
		t.Errorf("status after re-mark = %q, want late", second.Status)
	}
}

func TestAttendanceService_Mark_Rejections(t *testing.T) {
	_, _, service := newAttendanceFixture(t)
	ctx := context.Background()

	t.Run("unenrolled student", func(t *testing.T) {
		_, err := service.Mark(ctx, &MarkAttendanceRequest{
			StudentID: 77, Date: "2025-03-03", ClassID: 1, Status: strPtr("present"),
		}, 10)
		if !errors.Is(err, ErrStudentNotEnrolled) {
			t.Fatalf("Mark() error = %v, want ErrStudentNotEnrolled", err)
		}
	})

	t.Run("foreign class", func(t *testing.T) {
		_, err := service.Mark(ctx, &MarkAttendanceRequest{
			StudentID: 50, Date: "2025-03-03", ClassID: 1, Status: strPtr("present"),
		}, 50)
		var permission *PermissionError
		if !errors.As(err, &permission) {
			t.Fatalf("Mark() error = %v, want PermissionError", err)
		}
	})

	t.Run("unknown class", func(t *testing.T) {
		_, err := service.Mark(ctx, &MarkAttendanceRequest{
			StudentID: 50, Date: "2025-03-03", ClassID: 9, Status: strPtr("present"),
		}, 10)
		if !errors.Is(err, ErrClassNotFound) {
			t.Fatalf("Mark() error = %v, want ErrClassNotFound", err)
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := service.Mark(ctx, &MarkAttendanceRequest{
			StudentID: 50, Date: "2025-03-03", ClassID: 1, Status: strPtr("sleeping"),
		}, 10)
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("Mark() error = %v, want ValidationErrors", err)
		}
	})
}

func TestAttendanceService_Mark_ThresholdEvent(t *testing.T) {
	_, publisher, service := newAttendanceFixture(t)
	ctx := context.Background()

	// Three absences and one present mark: 25%, well below the threshold.
	days := []string{"2025-03-03", "2025-03-04", "2025-03-05"}
	for _, day := range days {
		if _, err := service.Mark(ctx, &MarkAttendanceRequest{
			StudentID: 50, Date: day, ClassID: 1, Status: strPtr("absent"),
		}, 10); err != nil {
			t.Fatalf("Mark(%s) error: %v", day, err)
		}
	}
	if _, err := service.Mark(ctx, &MarkAttendanceRequest{
		StudentID: 50, Date: "2025-03-06", ClassID: 1, Status: strPtr("present"),
	}, 10); err != nil {
		t.Fatalf("Mark() error: %v", err)
	}

	published := publisher.Events()
	if len(published) == 0 {
		t.Fatal("no threshold event published")
	}

	last := published[len(published)-1]
	if last.Topic != events.TopicAttendanceBelowThreshold {
		t.Fatalf("topic = %q, want %q", last.Topic, events.TopicAttendanceBelowThreshold)
	}

	var event events.AttendanceBelowThresholdEvent
	if err := json.Unmarshal(last.Payload, &event); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	if event.StudentID != 50 {
		t.Errorf("event student = %d, want 50", event.StudentID)
	}
	if event.Percentage != 25 {
		t.Errorf("event percentage = %v, want 25", event.Percentage)
	}
}

func TestAttendanceService_Mark_NoEventAboveThreshold(t *testing.T) {
	_, publisher, service := newAttendanceFixture(t)
	ctx := context.Background()

	if _, err := service.Mark(ctx, &MarkAttendanceRequest{
		StudentID: 50, Date: "2025-03-03", ClassID: 1, Status: strPtr("present"),
	}, 10); err != nil {
		t.Fatalf("Mark() error: %v", err)
	}

	if got := publisher.Events(); len(got) != 0 {
		t.Errorf("published %d events for a healthy month, want 0", len(got))
	}
}

func TestResolveStatus(t *testing.T) {
	tests := []struct {
		name string
		req  *MarkAttendanceRequest
		want models.AttendanceStatus
	}{
		{"explicit present", &MarkAttendanceRequest{Status: strPtr("present")}, models.AttendancePresent},
		{"explicit late", &MarkAttendanceRequest{Status: strPtr("late")}, models.AttendanceLate},
		{"explicit absent", &MarkAttendanceRequest{Status: strPtr("absent")}, models.AttendanceAbsent},
		{"legacy present true", &MarkAttendanceRequest{Present: boolPtr(true)}, models.AttendancePresent},
		{"legacy present false", &MarkAttendanceRequest{Present: boolPtr(false)}, models.AttendanceAbsent},
		{"nothing set defaults to absent", &MarkAttendanceRequest{}, models.AttendanceAbsent},
		{"status wins over flag", &MarkAttendanceRequest{Status: strPtr("late"), Present: boolPtr(false)}, models.AttendanceLate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveStatus(tt.req); got != tt.want {
				t.Errorf("resolveStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	mk := func(statuses ...models.AttendanceStatus) []*models.AttendanceRecord {
		records := make([]*models.AttendanceRecord, len(statuses))
		for i, status := range statuses {
			records[i] = &models.AttendanceRecord{Status: status}
		}
		return records
	}

	tests := []struct {
		name           string
		records        []*models.AttendanceRecord
		wantPercentage int
	}{
		{"empty ledger is zero", nil, 0},
		{"all present", mk(models.AttendancePresent, models.AttendancePresent), 100},
		{"late does not count as present", mk(models.AttendanceLate, models.AttendanceAbsent), 0},
		{"late dilutes the percentage", mk(models.AttendancePresent, models.AttendanceLate, models.AttendanceAbsent, models.AttendanceAbsent), 25},
		{"rounds to nearest", mk(models.AttendancePresent, models.AttendancePresent, models.AttendanceAbsent), 67},
		{"rounds down below half", mk(models.AttendancePresent, models.AttendanceAbsent, models.AttendanceAbsent), 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := Summarize(tt.records)
			if summary.Percentage != tt.wantPercentage {
				t.Errorf("percentage = %d, want %d", summary.Percentage, tt.wantPercentage)
			}
			if summary.Total != len(tt.records) {
				t.Errorf("total = %d, want %d", summary.Total, len(tt.records))
			}
		})
	}
}
