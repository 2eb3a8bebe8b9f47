package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTimetableService_Create_Conflicts(t *testing.T) {
	const teacherID = 10
	const otherTeacherID = 11

	existing := &models.TimetableSlot{
		ID:        1,
		Subject:   "Mathematics",
		Day:       models.DayMonday,
		StartTime: "09:00",
		EndTime:   "10:00",
		Room:      "101",
		TeacherID: otherTeacherID,
		ClassID:   2,
	}

	// The requesting teacher already teaches 11:00-12:00 in another room.
	teacherBusy := &models.TimetableSlot{
		ID:        2,
		Subject:   "Physics",
		Day:       models.DayMonday,
		StartTime: "11:00",
		EndTime:   "12:00",
		Room:      "202",
		TeacherID: teacherID,
		ClassID:   1,
	}

	tests := []struct {
		name         string
		req          *CreateSlotRequest
		wantConflict string // "" means the booking should succeed
	}{
		{
			name: "overlap start rejected",
			req: &CreateSlotRequest{
				Subject: "Biology", Day: "Monday",
				StartTime: "09:30", EndTime: "10:30",
				Room: "101", ClassID: 1,
			},
			wantConflict: "room",
		},
		{
			name: "containment rejected",
			req: &CreateSlotRequest{
				Subject: "Biology", Day: "Monday",
				StartTime: "08:00", EndTime: "11:00",
				Room: "101", ClassID: 1,
			},
			wantConflict: "room",
		},
		{
			name: "identical interval rejected",
			req: &CreateSlotRequest{
				Subject: "Biology", Day: "Monday",
				StartTime: "09:00", EndTime: "10:00",
				Room: "101", ClassID: 1,
			},
			wantConflict: "room",
		},
		{
			name: "boundary adjacency allowed",
			req: &CreateSlotRequest{
				Subject: "Biology", Day: "Monday",
				StartTime: "10:00", EndTime: "11:00",
				Room: "101", ClassID: 1,
			},
		},
		{
			name: "same time different room allowed",
			req: &CreateSlotRequest{
				Subject: "Biology", Day: "Monday",
				StartTime: "09:00", EndTime: "10:00",
				Room: "303", ClassID: 1,
			},
		},
		{
			name: "same time different day allowed",
			req: &CreateSlotRequest{
				Subject: "Biology", Day: "Tuesday",
				StartTime: "09:00", EndTime: "10:00",
				Room: "101", ClassID: 1,
			},
		},
		{
			name: "teacher double booked in another room rejected",
			req: &CreateSlotRequest{
				Subject: "Biology", Day: "Monday",
				StartTime: "11:30", EndTime: "12:30",
				Room: "303", ClassID: 1,
			},
			wantConflict: "teacher",
		},
		{
			name: "room conflict reported before teacher conflict",
			req: &CreateSlotRequest{
				Subject: "Biology", Day: "Monday",
				StartTime: "09:00", EndTime: "12:00",
				Room: "101", ClassID: 1,
			},
			wantConflict: "room",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{
				class:     newStubClassRepo(&models.Class{ID: 1, Name: "7A", TeacherID: teacherID}),
				timetable: newStubTimetableRepo(existing, teacherBusy),
			}
			service := NewTimetableService(repo, nil, testLogger(), validator.New())

			slot, err := service.Create(context.Background(), tt.req, teacherID)

			if tt.wantConflict == "" {
				if err != nil {
					t.Fatalf("Create() unexpected error: %v", err)
				}
				if slot.ID == 0 {
					t.Error("Create() did not assign an id")
				}
				if !slot.CanDelete {
					t.Error("Create() owner should be able to delete")
				}
				return
			}

			var conflict *ConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("Create() error = %v, want ConflictError", err)
			}
			if conflict.Kind != tt.wantConflict {
				t.Errorf("conflict kind = %q, want %q", conflict.Kind, tt.wantConflict)
			}
		})
	}
}

func TestTimetableService_Create_Permissions(t *testing.T) {
	repo := &mockRepository{
		class:     newStubClassRepo(&models.Class{ID: 1, Name: "7A", TeacherID: 10}),
		timetable: newStubTimetableRepo(),
	}
	service := NewTimetableService(repo, nil, testLogger(), validator.New())

	req := &CreateSlotRequest{
		Subject: "Biology", Day: "Monday",
		StartTime: "09:00", EndTime: "10:00",
		Room: "101", ClassID: 1,
	}

	t.Run("foreign class rejected", func(t *testing.T) {
		_, err := service.Create(context.Background(), req, 99)
		var permission *PermissionError
		if !errors.As(err, &permission) {
			t.Fatalf("Create() error = %v, want PermissionError", err)
		}
	})

	t.Run("missing class rejected", func(t *testing.T) {
		bad := *req
		bad.ClassID = 42
		_, err := service.Create(context.Background(), &bad, 10)
		if !errors.Is(err, ErrClassNotFound) {
			t.Fatalf("Create() error = %v, want ErrClassNotFound", err)
		}
	})
}

func TestTimetableService_Create_Validation(t *testing.T) {
	repo := &mockRepository{
		class:     newStubClassRepo(&models.Class{ID: 1, TeacherID: 10}),
		timetable: newStubTimetableRepo(),
	}
	service := NewTimetableService(repo, nil, testLogger(), validator.New())

	tests := []struct {
		name string
		req  *CreateSlotRequest
	}{
		{
			name: "end before start",
			req: &CreateSlotRequest{
				Subject: "Biology", Day: "Monday",
				StartTime: "10:00", EndTime: "09:00",
				Room: "101", ClassID: 1,
			},
		},
		{
			name: "zero length interval",
			req: &CreateSlotRequest{
				Subject: "Biology", Day: "Monday",
				StartTime: "10:00", EndTime: "10:00",
				Room: "101", ClassID: 1,
			},
		},
		{
			name: "weekend day",
			req: &CreateSlotRequest{
				Subject: "Biology", Day: "Saturday",
				StartTime: "09:00", EndTime: "10:00",
				Room: "101", ClassID: 1,
			},
		},
		{
			name: "malformed time",
			req: &CreateSlotRequest{
				Subject: "Biology", Day: "Monday",
				StartTime: "9:00", EndTime: "10:00",
				Room: "101", ClassID: 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), tt.req, 10)
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Create() error = %v, want ValidationErrors", err)
			}
		})
	}
}

func TestTimetableService_ListForStudent(t *testing.T) {
	class := &models.Class{ID: 1, Name: "7A", TeacherID: 10}
	otherClass := &models.Class{ID: 2, Name: "8B", TeacherID: 10}

	classRepo := newStubClassRepo(class, otherClass)
	classRepo.enroll(1, 50)

	repo := &mockRepository{
		class: classRepo,
		timetable: newStubTimetableRepo(
			&models.TimetableSlot{ID: 1, Day: models.DayMonday, StartTime: "09:00", EndTime: "10:00", Room: "101", TeacherID: 10, ClassID: 1},
			&models.TimetableSlot{ID: 2, Day: models.DayMonday, StartTime: "10:00", EndTime: "11:00", Room: "101", TeacherID: 10, ClassID: 2},
		),
	}
	service := NewTimetableService(repo, nil, testLogger(), validator.New())

	resp, err := service.ListForStudent(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListForStudent() error: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("ListForStudent() total = %d, want 1", resp.Total)
	}
	if resp.Slots[0].ClassID != 1 {
		t.Errorf("ListForStudent() returned slot for class %d, want 1", resp.Slots[0].ClassID)
	}
	if resp.Slots[0].CanDelete {
		t.Error("students must not be able to delete slots")
	}
}
