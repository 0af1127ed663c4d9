package service

import (
	"context"
	"errors"

	userserrors "rentio/internal/users/errors"
	"rentio/internal/users/repository"
	"rentio/pkg/auth"
	"rentio/pkg/config"
	apperrors "rentio/pkg/errors"
	"rentio/pkg/model"
	"rentio/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

type UserService interface {
	Register(ctx context.Context, input *model.UserRegister) (*model.User, error)
	Login(ctx context.Context, input *model.UserLogin) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, id string, updates *model.UserUpdate) (*model.User, error)
}

type userService struct {
	repo     repository.UserRepository
	validate *validator.Validate
	cfg      *config.Config
}

func NewUserService(repo repository.UserRepository, cfg *config.Config) UserService {
	return &userService{
		repo:     repo,
		validate: validator.New(),
		cfg:      cfg,
	}
}

func (s *userService) Register(ctx context.Context, input *model.UserRegister) (*model.User, error) {
	input.FirstName = sanitizer.TrimAndNormalize(input.FirstName)
	input.LastName = sanitizer.TrimAndNormalize(input.LastName)

	if err := s.validate.Struct(input); err != nil {
		s.cfg.Log.Warn("User registration validation failed", "error", err)
		return nil, apperrors.Validation("Invalid registration input", map[string]any{"error": err.Error()})
	}

	role, err := model.ParseRole(input.Role)
	if err != nil {
		return nil, apperrors.InvalidInput("Role must be tenant or landlord")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	user := &model.User{
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("Email is already registered")
		}
		s.cfg.Log.Error("Failed to create user", "error", err)
		return nil, apperrors.Internal("Failed to create user", err)
	}

	s.cfg.Log.Info("User registered successfully", "id", user.ID, "role", user.Role)
	return user, nil
}

func (s *userService) Login(ctx context.Context, input *model.UserLogin) (*model.User, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.Validation("Invalid login input", map[string]any{"error": err.Error()})
	}

	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			// Same response for unknown email and bad password.
			return nil, apperrors.Unauthorized("Invalid email or password")
		}
		s.cfg.Log.Error("Failed to look up user for login", "error", err)
		return nil, apperrors.Internal("Failed to log in", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, input.Password); err != nil {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}

	s.cfg.Log.Info("User logged in", "id", user.ID)
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", id)
		}
		if errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid user ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	return user, nil
}

func (s *userService) Update(ctx context.Context, id string, updates *model.UserUpdate) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	if err := s.validate.Struct(updates); err != nil {
		s.cfg.Log.Warn("User update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if updates.FirstName != nil {
		user.FirstName = sanitizer.TrimAndNormalize(*updates.FirstName)
	}
	if updates.LastName != nil {
		user.LastName = sanitizer.TrimAndNormalize(*updates.LastName)
	}
	if updates.Password != nil {
		hash, err := auth.HashPassword(*updates.Password)
		if err != nil {
			return nil, apperrors.Internal("Failed to hash password", err)
		}
		user.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, id, user); err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", id)
		}
		s.cfg.Log.Error("Failed to update user", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update user", err)
	}

	s.cfg.Log.Info("User updated successfully", "id", id)
	return user, nil
}
