package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/druk-edu/school-admin-service/internal/auth"
	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/repositories"
	"github.com/druk-edu/school-admin-service/internal/validator"
)

type authService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	tokens    *auth.TokenManager
}

func NewAuthService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, tokens *auth.TokenManager) AuthService {
	return &authService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		tokens:    tokens,
	}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	s.logger.Info("Registering user", "username", req.Username)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	role := models.RoleStudent
	if req.Role != "" {
		role = models.UserRole(req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user *models.User
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		taken, err := txRepo.User().ExistsByUsername(ctx, nil, req.Username)
		if err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if taken {
			return ErrDuplicateUsername
		}

		taken, err = txRepo.User().ExistsByEmail(ctx, nil, req.Email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return ErrDuplicateEmail
		}

		user = &models.User{
			Username:     req.Username,
			Email:        req.Email,
			Role:         role,
			PasswordHash: string(hash),
			ProfileEmoji: req.ProfileEmoji,
			Active:       true,
		}

		if err := txRepo.User().Create(ctx, nil, user); err != nil {
			// Race backstop: the unique indexes catch what the exists
			// checks missed.
			if repositories.IsDuplicateError(err) {
				return ErrDuplicateUsername
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", user.Role)

	return &AuthResponse{Token: token, User: user.Public()}, nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	user, err := s.repo.User().GetByUsername(ctx, s.db, req.Username)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Indistinguishable from a bad password on purpose.
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.repo.User().Update(ctx, s.db, user); err != nil {
		// A failed login-time update should not block the login itself.
		s.logger.Warn("Failed to record last login", "user_id", user.ID, "error", err)
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID)

	return &AuthResponse{Token: token, User: user.Public()}, nil
}
