package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/druk-edu/school-admin-service/internal/events"
	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/repositories"
	"github.com/druk-edu/school-admin-service/internal/validator"
)

type leaveService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.Publisher
}

func NewLeaveService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.Publisher) LeaveService {
	return &leaveService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

func (s *leaveService) Apply(ctx context.Context, req *ApplyLeaveRequest, studentID uint) (*LeaveResponse, error) {
	s.logger.Info("Applying for leave",
		"student_id", studentID,
		"type", req.Type,
		"start", req.StartDate,
		"end", req.EndDate)

	if errs := s.validator.GetBusinessValidator().ValidateLeaveApply(req); len(errs) > 0 {
		return nil, errs
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, NewBusinessRuleError("date_format", err.Error())
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return nil, NewBusinessRuleError("date_format", err.Error())
	}

	// Every referenced class must exist and have the student enrolled.
	classes, err := s.repo.Class().GetByIDs(ctx, s.db, req.ClassIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get classes: %w", err)
	}
	if len(classes) != len(dedupe(req.ClassIDs)) {
		return nil, ErrClassNotFound
	}
	for _, class := range classes {
		enrolled, err := s.repo.Class().HasStudent(ctx, s.db, class.ID, studentID)
		if err != nil {
			return nil, fmt.Errorf("failed to check enrollment: %w", err)
		}
		if !enrolled {
			return nil, ErrStudentNotEnrolled
		}
	}

	leave := &models.LeaveRequest{
		StudentID: studentID,
		Type:      models.LeaveType(req.Type),
		StartDate: startDate,
		EndDate:   endDate,
		Reason:    req.Reason,
		Status:    models.LeavePending,
		ClassIDs:  datatypes.NewJSONSlice(req.ClassIDs),
	}

	if err := s.repo.Leave().Create(ctx, s.db, leave); err != nil {
		return nil, fmt.Errorf("failed to create leave request: %w", err)
	}

	s.logger.Info("Leave request created", "leave_id", leave.ID, "student_id", studentID)

	leave.Classes = derefClasses(classes)

	return &LeaveResponse{LeaveRequest: leave}, nil
}

func (s *leaveService) GetByStudent(ctx context.Context, studentID uint) (*LeaveListResponse, error) {
	leaves, err := s.repo.Leave().GetByStudent(ctx, s.db, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get leave requests: %w", err)
	}

	if err := s.populateClasses(ctx, leaves); err != nil {
		return nil, err
	}

	response := &LeaveListResponse{
		Leaves: make([]*LeaveResponse, len(leaves)),
		Total:  len(leaves),
	}
	for i, leave := range leaves {
		response.Leaves[i] = &LeaveResponse{LeaveRequest: leave}
	}

	return response, nil
}

// List is the review queue: teachers see every student's requests, not just
// requests against their own classes.
func (s *leaveService) List(ctx context.Context, filters repositories.LeaveFilters, actorID uint) (*LeaveListResponse, error) {
	role, err := userRole(ctx, s.repo, s.db, actorID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleTeacher && role != models.RoleAdmin {
		return nil, NewPermissionError(actorID, 0, "leave", "list", "teacher role required")
	}

	leaves, err := s.repo.Leave().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}

	if err := s.populateClasses(ctx, leaves); err != nil {
		return nil, err
	}

	response := &LeaveListResponse{
		Leaves: make([]*LeaveResponse, len(leaves)),
		Total:  len(leaves),
	}
	for i, leave := range leaves {
		response.Leaves[i] = &LeaveResponse{
			LeaveRequest: leave,
			CanDecide:    leave.Status == models.LeavePending,
		}
	}

	return response, nil
}

// Decide settles a pending request. The status moves exactly once; a request
// that is already approved or rejected cannot be touched again.
func (s *leaveService) Decide(ctx context.Context, leaveID uint, req *LeaveDecisionRequest, reviewerID uint) (*LeaveResponse, error) {
	s.logger.Info("Deciding leave request",
		"leave_id", leaveID,
		"reviewer_id", reviewerID,
		"status", req.Status)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	role, err := userRole(ctx, s.repo, s.db, reviewerID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleTeacher && role != models.RoleAdmin {
		return nil, NewPermissionError(reviewerID, leaveID, "leave", "decide", "teacher role required")
	}

	next := models.LeaveStatus(req.Status)

	var leave *models.LeaveRequest
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		leave, err = txRepo.Leave().GetByID(ctx, nil, leaveID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrLeaveNotFound
			}
			return fmt.Errorf("failed to get leave request: %w", err)
		}

		if errs := s.validator.GetBusinessValidator().ValidateLeaveTransition(leave.Status, next); len(errs) > 0 {
			return errs
		}

		now := time.Now()
		leave.Status = next
		leave.TeacherComment = req.Comment
		leave.ReviewedByID = &reviewerID
		leave.ReviewedAt = &now

		if err := txRepo.Leave().Update(ctx, nil, leave); err != nil {
			return fmt.Errorf("failed to update leave request: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Leave request decided", "leave_id", leaveID, "status", next)

	s.publishDecision(ctx, leave, reviewerID)

	return &LeaveResponse{LeaveRequest: leave}, nil
}

func (s *leaveService) publishDecision(ctx context.Context, leave *models.LeaveRequest, reviewerID uint) {
	event := events.LeaveStatusChangedEvent{
		LeaveID:    leave.ID,
		StudentID:  leave.StudentID,
		Status:     string(leave.Status),
		ReviewedBy: reviewerID,
		OccurredAt: time.Now(),
	}
	if leave.TeacherComment != nil {
		event.Comment = *leave.TeacherComment
	}

	if err := s.publisher.Publish(ctx, events.TopicLeaveStatusChanged, event); err != nil {
		s.logger.Warn("Failed to publish leave decision event", "leave_id", leave.ID, "error", err)
	}
}

// populateClasses resolves each request's ClassIDs into class rows. Classes
// deleted since the request was filed are simply omitted.
func (s *leaveService) populateClasses(ctx context.Context, leaves []*models.LeaveRequest) error {
	ids := make(map[uint]struct{})
	for _, leave := range leaves {
		for _, id := range leave.ClassIDs {
			ids[id] = struct{}{}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	all := make([]uint, 0, len(ids))
	for id := range ids {
		all = append(all, id)
	}

	classes, err := s.repo.Class().GetByIDs(ctx, s.db, all)
	if err != nil {
		return fmt.Errorf("failed to resolve leave classes: %w", err)
	}

	byID := make(map[uint]*models.Class, len(classes))
	for _, class := range classes {
		byID[class.ID] = class
	}

	for _, leave := range leaves {
		for _, id := range leave.ClassIDs {
			if class, ok := byID[id]; ok {
				leave.Classes = append(leave.Classes, *class)
			}
		}
	}

	return nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func derefClasses(classes []*models.Class) []models.Class {
	out := make([]models.Class, len(classes))
	for i, class := range classes {
		out[i] = *class
	}
	return out
}
