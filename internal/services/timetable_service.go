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

type timetableService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewTimetableService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) TimetableService {
	return &timetableService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// Create books a weekly slot. The room check runs before the teacher check,
// so when both would clash the caller sees the room conflict. Both checks and
// the insert share one transaction; the unique index on (day, room,
// start_time) backstops racing creations that pass the checks concurrently.
func (s *timetableService) Create(ctx context.Context, req *CreateSlotRequest, teacherID uint) (*SlotResponse, error) {
	s.logger.Info("Creating timetable slot",
		"teacher_id", teacherID,
		"day", req.Day,
		"room", req.Room,
		"start", req.StartTime)

	if errs := s.validator.GetBusinessValidator().ValidateSlotCreate(req); len(errs) > 0 {
		return nil, errs
	}

	class, err := s.repo.Class().GetByID(ctx, s.db, req.ClassID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to get class: %w", err)
	}
	if class.TeacherID != teacherID {
		return nil, NewPermissionError(teacherID, req.ClassID, "class", "schedule", "not the owning teacher")
	}

	day := models.Weekday(req.Day)
	slot := &models.TimetableSlot{
		Subject:   req.Subject,
		Day:       day,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Room:      req.Room,
		TeacherID: teacherID,
		ClassID:   req.ClassID,
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		roomSlots, err := txRepo.Timetable().GetByDayAndRoom(ctx, nil, day, req.Room)
		if err != nil {
			return fmt.Errorf("failed to load room bookings: %w", err)
		}
		for _, existing := range roomSlots {
			if slot.OverlapsSlot(existing) {
				return &ConflictError{
					Kind:      "room",
					Day:       string(existing.Day),
					Room:      existing.Room,
					StartTime: existing.StartTime,
					EndTime:   existing.EndTime,
					SlotID:    existing.ID,
				}
			}
		}

		teacherSlots, err := txRepo.Timetable().GetByDayAndTeacher(ctx, nil, day, teacherID)
		if err != nil {
			return fmt.Errorf("failed to load teacher bookings: %w", err)
		}
		for _, existing := range teacherSlots {
			if slot.OverlapsSlot(existing) {
				return &ConflictError{
					Kind:      "teacher",
					Day:       string(existing.Day),
					Room:      existing.Room,
					StartTime: existing.StartTime,
					EndTime:   existing.EndTime,
					SlotID:    existing.ID,
				}
			}
		}

		if err := txRepo.Timetable().Create(ctx, nil, slot); err != nil {
			if repositories.IsDuplicateError(err) {
				// Two creations raced past the checks; the index caught
				// the second one.
				return &ConflictError{
					Kind:      "room",
					Day:       req.Day,
					Room:      req.Room,
					StartTime: req.StartTime,
					EndTime:   req.EndTime,
				}
			}
			return fmt.Errorf("failed to create slot: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Timetable slot created", "slot_id", slot.ID)

	return &SlotResponse{TimetableSlot: slot, CanDelete: true}, nil
}

func (s *timetableService) Delete(ctx context.Context, slotID uint, actorID uint) error {
	s.logger.Info("Deleting timetable slot", "slot_id", slotID, "actor_id", actorID)

	slot, err := s.repo.Timetable().GetByID(ctx, s.db, slotID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSlotNotFound
		}
		return fmt.Errorf("failed to get slot: %w", err)
	}

	if slot.TeacherID != actorID {
		role, err := userRole(ctx, s.repo, s.db, actorID)
		if err != nil {
			return err
		}
		if role != models.RoleAdmin {
			return NewPermissionError(actorID, slotID, "slot", "delete", "not the owning teacher")
		}
	}

	if err := s.repo.Timetable().Delete(ctx, s.db, slotID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSlotNotFound
		}
		return fmt.Errorf("failed to delete slot: %w", err)
	}

	s.logger.Info("Timetable slot deleted", "slot_id", slotID)
	return nil
}

func (s *timetableService) List(ctx context.Context, actorID uint) (*TimetableResponse, error) {
	role, err := userRole(ctx, s.repo, s.db, actorID)
	if err != nil {
		return nil, err
	}

	filters := repositories.TimetableFilters{}
	if role == models.RoleTeacher {
		filters.TeacherID = &actorID
	}

	slots, err := s.repo.Timetable().ListWithDetails(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}

	return s.buildTimetableResponse(slots, actorID, role), nil
}

func (s *timetableService) ListForStudent(ctx context.Context, studentID uint) (*TimetableResponse, error) {
	classes, err := s.repo.Class().GetByStudent(ctx, s.db, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrolled classes: %w", err)
	}

	enrolled := make(map[uint]struct{}, len(classes))
	for _, class := range classes {
		enrolled[class.ID] = struct{}{}
	}

	slots, err := s.repo.Timetable().ListWithDetails(ctx, s.db, repositories.TimetableFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}

	visible := make([]*models.TimetableSlot, 0, len(slots))
	for _, slot := range slots {
		if _, ok := enrolled[slot.ClassID]; ok {
			visible = append(visible, slot)
		}
	}

	return s.buildTimetableResponse(visible, studentID, models.RoleStudent), nil
}

func (s *timetableService) buildTimetableResponse(slots []*models.TimetableSlot, actorID uint, role models.UserRole) *TimetableResponse {
	response := &TimetableResponse{
		Slots: make([]*SlotResponse, len(slots)),
		Total: len(slots),
	}
	for i, slot := range slots {
		response.Slots[i] = &SlotResponse{
			TimetableSlot: slot,
			CanDelete:     role == models.RoleAdmin || slot.TeacherID == actorID,
		}
	}
	return response
}
