package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/repositories"
	"github.com/druk-edu/school-admin-service/internal/validator"
)

type classService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewClassService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) ClassService {
	return &classService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *classService) Create(ctx context.Context, req *CreateClassRequest, teacherID uint) (*ClassResponse, error) {
	s.logger.Info("Creating class", "teacher_id", teacherID, "name", req.Name)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	role, err := userRole(ctx, s.repo, s.db, teacherID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleTeacher && role != models.RoleAdmin {
		return nil, NewPermissionError(teacherID, 0, "class", "create", "teacher role required")
	}

	class := &models.Class{
		Name:      req.Name,
		Subject:   req.Subject,
		TeacherID: teacherID,
	}

	if err := s.repo.Class().Create(ctx, s.db, class); err != nil {
		return nil, fmt.Errorf("failed to create class: %w", err)
	}

	s.logger.Info("Class created", "class_id", class.ID)

	return &ClassResponse{Class: class, CanEdit: true}, nil
}

func (s *classService) GetByID(ctx context.Context, id uint, actorID uint) (*ClassResponse, error) {
	class, err := s.repo.Class().GetByIDWithStudents(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to get class: %w", err)
	}

	role, err := userRole(ctx, s.repo, s.db, actorID)
	if err != nil {
		return nil, err
	}

	canEdit := role == models.RoleAdmin || class.TeacherID == actorID

	// Students may only see classes they are enrolled in.
	if role == models.RoleStudent {
		enrolled, err := s.repo.Class().HasStudent(ctx, s.db, id, actorID)
		if err != nil {
			return nil, fmt.Errorf("failed to check enrollment: %w", err)
		}
		if !enrolled {
			return nil, NewPermissionError(actorID, id, "class", "read", "not enrolled")
		}
	}

	class.StudentCount = len(class.Students)

	return &ClassResponse{Class: class, CanEdit: canEdit}, nil
}

func (s *classService) List(ctx context.Context, actorID uint) (*ClassListResponse, error) {
	role, err := userRole(ctx, s.repo, s.db, actorID)
	if err != nil {
		return nil, err
	}

	var classes []*models.Class
	switch role {
	case models.RoleTeacher:
		classes, err = s.repo.Class().GetByTeacher(ctx, s.db, actorID)
	case models.RoleStudent:
		classes, err = s.repo.Class().GetByStudent(ctx, s.db, actorID)
	case models.RoleAdmin:
		classes, err = s.repo.Class().List(ctx, s.db)
	default:
		return &ClassListResponse{Classes: []*ClassResponse{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}

	response := &ClassListResponse{
		Classes: make([]*ClassResponse, len(classes)),
		Total:   len(classes),
	}
	for i, class := range classes {
		response.Classes[i] = &ClassResponse{
			Class:   class,
			CanEdit: role == models.RoleAdmin || class.TeacherID == actorID,
		}
	}

	return response, nil
}

// Delete removes a class and everything hanging off it: attendance records
// first, then timetable slots, then the class row with its roster join rows.
// One transaction, so a failure partway leaves nothing half-deleted.
func (s *classService) Delete(ctx context.Context, id uint, actorID uint) error {
	s.logger.Info("Deleting class", "class_id", id, "actor_id", actorID)

	if err := s.requireOwnership(ctx, id, actorID, "delete"); err != nil {
		return err
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Attendance().DeleteByClass(ctx, nil, id); err != nil {
			return fmt.Errorf("failed to delete class attendance: %w", err)
		}

		if err := txRepo.Timetable().DeleteByClass(ctx, nil, id); err != nil {
			return fmt.Errorf("failed to delete class slots: %w", err)
		}

		if err := txRepo.Class().Delete(ctx, nil, id); err != nil {
			return fmt.Errorf("failed to delete class: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Class deleted", "class_id", id)
	return nil
}

func (s *classService) GetRoster(ctx context.Context, classID uint, actorID uint) ([]models.PublicUser, error) {
	if err := s.requireOwnership(ctx, classID, actorID, "read_roster"); err != nil {
		return nil, err
	}

	class, err := s.repo.Class().GetByIDWithStudents(ctx, s.db, classID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to get class roster: %w", err)
	}

	roster := make([]models.PublicUser, len(class.Students))
	for i, student := range class.Students {
		roster[i] = student.Public()
	}

	return roster, nil
}

func (s *classService) AddStudent(ctx context.Context, classID, studentID uint, actorID uint) error {
	s.logger.Info("Adding student to class", "class_id", classID, "student_id", studentID, "actor_id", actorID)

	if err := s.requireOwnership(ctx, classID, actorID, "add_student"); err != nil {
		return err
	}

	isStudent, err := s.repo.User().HasRole(ctx, s.db, studentID, models.RoleStudent)
	if err != nil {
		return fmt.Errorf("failed to check student role: %w", err)
	}
	if !isStudent {
		return ErrNotAStudent
	}

	enrolled, err := s.repo.Class().HasStudent(ctx, s.db, classID, studentID)
	if err != nil {
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	if enrolled {
		return ErrStudentAlreadyEnrolled
	}

	if err := s.repo.Class().AddStudent(ctx, s.db, classID, studentID); err != nil {
		return fmt.Errorf("failed to add student: %w", err)
	}

	s.logger.Info("Student added to class", "class_id", classID, "student_id", studentID)
	return nil
}

func (s *classService) RemoveStudent(ctx context.Context, classID, studentID uint, actorID uint) error {
	s.logger.Info("Removing student from class", "class_id", classID, "student_id", studentID, "actor_id", actorID)

	if err := s.requireOwnership(ctx, classID, actorID, "remove_student"); err != nil {
		return err
	}

	enrolled, err := s.repo.Class().HasStudent(ctx, s.db, classID, studentID)
	if err != nil {
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return ErrStudentNotEnrolled
	}

	if err := s.repo.Class().RemoveStudent(ctx, s.db, classID, studentID); err != nil {
		return fmt.Errorf("failed to remove student: %w", err)
	}

	s.logger.Info("Student removed from class", "class_id", classID, "student_id", studentID)
	return nil
}

// requireOwnership verifies the class exists and the actor is its teacher
// (or an admin).
func (s *classService) requireOwnership(ctx context.Context, classID, actorID uint, action string) error {
	class, err := s.repo.Class().GetByID(ctx, s.db, classID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrClassNotFound
		}
		return fmt.Errorf("failed to get class: %w", err)
	}

	if class.TeacherID == actorID {
		return nil
	}

	role, err := userRole(ctx, s.repo, s.db, actorID)
	if err != nil {
		return err
	}
	if role == models.RoleAdmin {
		return nil
	}

	return NewPermissionError(actorID, classID, "class", action, "not the owning teacher")
}
