package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"gorm.io/datatypes"

	"github.com/druk-edu/school-admin-service/internal/events"
	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/validator"
)

func newLeaveFixture(t *testing.T, leaves ...*models.LeaveRequest) (*mockRepository, *events.RecordingPublisher, LeaveService) {
	t.Helper()

	classRepo := newStubClassRepo(
		&models.Class{ID: 1, Name: "7A", TeacherID: 10},
		&models.Class{ID: 2, Name: "8B", TeacherID: 10},
	)
	classRepo.enroll(1, 50)
	classRepo.enroll(2, 50)

	repo := &mockRepository{
		user: newStubUserRepo(
			&models.User{ID: 10, Username: "teacher", Role: models.RoleTeacher},
			&models.User{ID: 50, Username: "student", Role: models.RoleStudent},
		),
		class: classRepo,
		leave: newStubLeaveRepo(leaves...),
	}

	publisher := events.NewRecordingPublisher()
	service := NewLeaveService(repo, nil, testLogger(), validator.New(), publisher)
	return repo, publisher, service
}

func TestLeaveService_Apply(t *testing.T) {
	_, _, service := newLeaveFixture(t)
	ctx := context.Background()

	resp, err := service.Apply(ctx, &ApplyLeaveRequest{
		Type:      "sick",
		StartDate: "2025-03-10",
		EndDate:   "2025-03-12",
		Reason:    "flu",
		ClassIDs:  []uint{1, 2},
	}, 50)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	if resp.Status != models.LeavePending {
		t.Errorf("status = %q, want pending", resp.Status)
	}
	if resp.ID == 0 {
		t.Error("Apply() did not assign an id")
	}
	if len(resp.Classes) != 2 {
		t.Errorf("attached %d classes, want 2", len(resp.Classes))
	}
}

func TestLeaveService_Apply_Rejections(t *testing.T) {
	_, _, service := newLeaveFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     *ApplyLeaveRequest
		wantErr error
	}{
		{
			name: "unknown class",
			req: &ApplyLeaveRequest{
				Type: "sick", StartDate: "2025-03-10", EndDate: "2025-03-12",
				Reason: "flu", ClassIDs: []uint{1, 99},
			},
			wantErr: ErrClassNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Apply(ctx, tt.req, 50)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Apply() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("end before start", func(t *testing.T) {
		_, err := service.Apply(ctx, &ApplyLeaveRequest{
			Type: "sick", StartDate: "2025-03-12", EndDate: "2025-03-10",
			Reason: "flu", ClassIDs: []uint{1},
		}, 50)
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("Apply() error = %v, want ValidationErrors", err)
		}
	})

	t.Run("unknown leave type", func(t *testing.T) {
		_, err := service.Apply(ctx, &ApplyLeaveRequest{
			Type: "vacation", StartDate: "2025-03-10", EndDate: "2025-03-12",
			Reason: "trip", ClassIDs: []uint{1},
		}, 50)
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("Apply() error = %v, want ValidationErrors", err)
		}
	})

	t.Run("not enrolled in named class", func(t *testing.T) {
		_, err := service.Apply(ctx, &ApplyLeaveRequest{
			Type: "sick", StartDate: "2025-03-10", EndDate: "2025-03-12",
			Reason: "flu", ClassIDs: []uint{1},
		}, 60)
		if !errors.Is(err, ErrStudentNotEnrolled) {
			t.Fatalf("Apply() error = %v, want ErrStudentNotEnrolled", err)
		}
	})
}

func TestLeaveService_Decide(t *testing.T) {
	pending := &models.LeaveRequest{
		ID:        1,
		StudentID: 50,
		Type:      models.LeaveSick,
		Status:    models.LeavePending,
		ClassIDs:  datatypes.NewJSONSlice([]uint{1}),
	}

	_, publisher, service := newLeaveFixture(t, pending)
	ctx := context.Background()

	comment := "get well soon"
	resp, err := service.Decide(ctx, 1, &LeaveDecisionRequest{
		Status:  "approved",
		Comment: &comment,
	}, 10)
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}

	if resp.Status != models.LeaveApproved {
		t.Errorf("status = %q, want approved", resp.Status)
	}
	if resp.ReviewedByID == nil || *resp.ReviewedByID != 10 {
		t.Error("reviewer not recorded")
	}
	if resp.ReviewedAt == nil {
		t.Error("review time not recorded")
	}

	published := publisher.Events()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	if published[0].Topic != events.TopicLeaveStatusChanged {
		t.Errorf("topic = %q, want %q", published[0].Topic, events.TopicLeaveStatusChanged)
	}

	var event events.LeaveStatusChangedEvent
	if err := json.Unmarshal(published[0].Payload, &event); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	if event.Status != "approved" || event.Comment != comment {
		t.Errorf("event = %+v, want approved with comment", event)
	}
}

func TestLeaveService_Decide_OneShot(t *testing.T) {
	decided := &models.LeaveRequest{
		ID:        1,
		StudentID: 50,
		Type:      models.LeaveSick,
		Status:    models.LeaveApproved,
		ClassIDs:  datatypes.NewJSONSlice([]uint{1}),
	}

	_, publisher, service := newLeaveFixture(t, decided)

	_, err := service.Decide(context.Background(), 1, &LeaveDecisionRequest{Status: "rejected"}, 10)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Decide() on settled request error = %v, want ValidationErrors", err)
	}
	if len(publisher.Events()) != 0 {
		t.Error("settled request must not publish an event")
	}
}

func TestLeaveService_Decide_Permissions(t *testing.T) {
	pending := &models.LeaveRequest{
		ID:        1,
		StudentID: 50,
		Status:    models.LeavePending,
		ClassIDs:  datatypes.NewJSONSlice([]uint{1}),
	}

	_, _, service := newLeaveFixture(t, pending)
	ctx := context.Background()

	t.Run("student cannot decide", func(t *testing.T) {
		_, err := service.Decide(ctx, 1, &LeaveDecisionRequest{Status: "approved"}, 50)
		var permission *PermissionError
		if !errors.As(err, &permission) {
			t.Fatalf("Decide() error = %v, want PermissionError", err)
		}
	})

	t.Run("unknown request", func(t *testing.T) {
		_, err := service.Decide(ctx, 42, &LeaveDecisionRequest{Status: "approved"}, 10)
		if !errors.Is(err, ErrLeaveNotFound) {
			t.Fatalf("Decide() error = %v, want ErrLeaveNotFound", err)
		}
	})
}
