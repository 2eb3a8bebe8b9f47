package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/repositories"
	"github.com/druk-edu/school-admin-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *userService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	return s.GetByID(ctx, userID)
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, req *ProfileUpdateRequest) (*models.User, error) {
	s.logger.Info("Updating profile", "user_id", userID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	var user *models.User
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		user, err = txRepo.User().GetByID(ctx, nil, userID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to get user: %w", err)
		}

		if req.Email != nil && *req.Email != user.Email {
			taken, err := txRepo.User().ExistsByEmail(ctx, nil, *req.Email)
			if err != nil {
				return fmt.Errorf("failed to check email: %w", err)
			}
			if taken {
				return ErrDuplicateEmail
			}
			user.Email = *req.Email
		}

		if req.ProfileEmoji != nil {
			user.ProfileEmoji = *req.ProfileEmoji
		}

		if req.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			user.PasswordHash = string(hash)
		}

		if err := txRepo.User().Update(ctx, nil, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Profile updated", "user_id", userID)
	return user, nil
}

func (s *userService) ListStudents(ctx context.Context, filters repositories.UserFilters) (*UserListResponse, error) {
	studentRole := models.RoleStudent
	filters.Role = &studentRole

	users, total, err := s.repo.User().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	return publicList(users, total), nil
}

func (s *userService) List(ctx context.Context, filters repositories.UserFilters, actorID uint) (*UserListResponse, error) {
	role, err := userRole(ctx, s.repo, s.db, actorID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin {
		return nil, NewPermissionError(actorID, 0, "user", "list", "admin role required")
	}

	users, total, err := s.repo.User().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return publicList(users, total), nil
}

func (s *userService) Deactivate(ctx context.Context, id uint, actorID uint) error {
	s.logger.Info("Deactivating user", "user_id", id, "actor_id", actorID)

	role, err := userRole(ctx, s.repo, s.db, actorID)
	if err != nil {
		return err
	}
	if role != models.RoleAdmin {
		return NewPermissionError(actorID, id, "user", "deactivate", "admin role required")
	}

	if err := s.repo.User().Deactivate(ctx, s.db, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	s.logger.Info("User deactivated", "user_id", id)
	return nil
}

func publicList(users []*models.User, total int64) *UserListResponse {
	response := &UserListResponse{
		Users: make([]models.PublicUser, len(users)),
		Total: total,
	}
	for i, user := range users {
		response.Users[i] = user.Public()
	}
	return response
}
