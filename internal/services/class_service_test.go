package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/repositories"
	"github.com/druk-edu/school-admin-service/internal/validator"
)

type classFixture struct {
	repo       *mockRepository
	users      *stubUserRepo
	classes    *stubClassRepo
	timetable  *stubTimetableRepo
	attendance *stubAttendanceRepo
	service    ClassService
}

func newClassFixture() *classFixture {
	users := newStubUserRepo(
		&models.User{ID: 10, Username: "teacher", Role: models.RoleTeacher},
		&models.User{ID: 11, Username: "other", Role: models.RoleTeacher},
		&models.User{ID: 50, Username: "student", Role: models.RoleStudent},
		&models.User{ID: 99, Username: "admin", Role: models.RoleAdmin},
	)
	classes := newStubClassRepo(
		&models.Class{ID: 1, Name: "Math 7A", Subject: "Mathematics", TeacherID: 10},
	)
	classes.enroll(1, 50)
	timetable := newStubTimetableRepo(
		&models.TimetableSlot{ID: 1, ClassID: 1, TeacherID: 10, Day: models.DayMonday, StartTime: "09:00", EndTime: "10:00", Room: "101"},
	)
	attendance := newStubAttendanceRepo()
	attendance.Upsert(context.Background(), nil, &models.AttendanceRecord{
		StudentID: 50,
		ClassID:   1,
		Date:      time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		Status:    models.AttendancePresent,
	})

	repo := &mockRepository{
		user:       users,
		class:      classes,
		timetable:  timetable,
		attendance: attendance,
	}

	return &classFixture{
		repo:       repo,
		users:      users,
		classes:    classes,
		timetable:  timetable,
		attendance: attendance,
		service:    NewClassService(repo, nil, testLogger(), validator.New()),
	}
}

func TestClassService_Delete_Cascades(t *testing.T) {
	f := newClassFixture()
	ctx := context.Background()

	if err := f.service.Delete(ctx, 1, 10); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, ok := f.classes.classes[1]; ok {
		t.Error("class row still present")
	}
	if n := len(f.timetable.slots); n != 0 {
		t.Errorf("slot count after delete = %d, want 0", n)
	}
	if n := len(f.attendance.records); n != 0 {
		t.Errorf("attendance count after delete = %d, want 0", n)
	}
}

func TestClassService_Delete_Permissions(t *testing.T) {
	f := newClassFixture()
	ctx := context.Background()

	t.Run("foreign teacher refused", func(t *testing.T) {
		err := f.service.Delete(ctx, 1, 11)
		var perr *PermissionError
		if !errors.As(err, &perr) {
			t.Fatalf("error = %v, want PermissionError", err)
		}
		if _, ok := f.classes.classes[1]; !ok {
			t.Error("class deleted despite refused permission")
		}
	})

	t.Run("admin allowed", func(t *testing.T) {
		if err := f.service.Delete(ctx, 1, 99); err != nil {
			t.Fatalf("Delete as admin: %v", err)
		}
	})

	t.Run("unknown class", func(t *testing.T) {
		if err := f.service.Delete(ctx, 404, 10); !errors.Is(err, ErrClassNotFound) {
			t.Errorf("error = %v, want ErrClassNotFound", err)
		}
	})
}

func TestClassService_AddStudent(t *testing.T) {
	ctx := context.Background()

	t.Run("enrolls a student", func(t *testing.T) {
		f := newClassFixture()
		f.users.users[51] = &models.User{ID: 51, Username: "newkid", Role: models.RoleStudent}

		if err := f.service.AddStudent(ctx, 1, 51, 10); err != nil {
			t.Fatalf("AddStudent: %v", err)
		}
		if !f.classes.enrolled[1][51] {
			t.Error("student not enrolled")
		}
	})

	t.Run("rejects non-students", func(t *testing.T) {
		f := newClassFixture()
		if err := f.service.AddStudent(ctx, 1, 11, 10); !errors.Is(err, ErrNotAStudent) {
			t.Errorf("error = %v, want ErrNotAStudent", err)
		}
	})

	t.Run("rejects double enrollment", func(t *testing.T) {
		f := newClassFixture()
		if err := f.service.AddStudent(ctx, 1, 50, 10); !errors.Is(err, ErrStudentAlreadyEnrolled) {
			t.Errorf("error = %v, want ErrStudentAlreadyEnrolled", err)
		}
	})

	t.Run("rejects foreign teacher", func(t *testing.T) {
		f := newClassFixture()
		err := f.service.AddStudent(ctx, 1, 50, 11)
		var perr *PermissionError
		if !errors.As(err, &perr) {
			t.Errorf("error = %v, want PermissionError", err)
		}
	})
}

func TestClassService_RemoveStudent(t *testing.T) {
	ctx := context.Background()

	t.Run("removes an enrolled student", func(t *testing.T) {
		f := newClassFixture()
		if err := f.service.RemoveStudent(ctx, 1, 50, 10); err != nil {
			t.Fatalf("RemoveStudent: %v", err)
		}
		if f.classes.enrolled[1][50] {
			t.Error("student still enrolled")
		}
	})

	t.Run("rejects students not on the roster", func(t *testing.T) {
		f := newClassFixture()
		if err := f.service.RemoveStudent(ctx, 1, 51, 10); !errors.Is(err, ErrStudentNotEnrolled) {
			t.Errorf("error = %v, want ErrStudentNotEnrolled", err)
		}
	})
}

func TestClassService_List(t *testing.T) {
	ctx := context.Background()
	f := newClassFixture()
	f.classes.classes[2] = &models.Class{ID: 2, Name: "History 7B", Subject: "History", TeacherID: 11}

	t.Run("teacher sees own classes", func(t *testing.T) {
		resp, err := f.service.List(ctx, 10)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if resp.Total != 1 || resp.Classes[0].ID != 1 {
			t.Errorf("teacher list = %+v, want only class 1", resp)
		}
		if !resp.Classes[0].CanEdit {
			t.Error("teacher cannot edit own class")
		}
	})

	t.Run("student sees enrolled classes", func(t *testing.T) {
		resp, err := f.service.List(ctx, 50)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if resp.Total != 1 || resp.Classes[0].ID != 1 {
			t.Errorf("student list = %+v, want only class 1", resp)
		}
		if resp.Classes[0].CanEdit {
			t.Error("student can edit a class")
		}
	})
}

var _ repositories.Repository = (*mockRepository)(nil)
