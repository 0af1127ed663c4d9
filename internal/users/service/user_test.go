package service

import (
	"context"
	"testing"

	userserrors "rentio/internal/users/errors"
	"rentio/pkg/auth"
	"rentio/pkg/config"
	apperrors "rentio/pkg/errors"
	"rentio/pkg/logger"
	"rentio/pkg/model"
)

// Mock repository for testing
type mockUserRepository struct {
	createFunc      func(ctx context.Context, user *model.User) error
	findByIDFunc    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFunc func(ctx context.Context, email string) (*model.User, error)
	updateFunc      func(ctx context.Context, id string, user *model.User) error
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	user.ID = "64b000000000000000000002"
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, userserrors.ErrNotFound
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, userserrors.ErrNotFound
}

func (m *mockUserRepository) Update(ctx context.Context, id string, user *model.User) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, user)
	}
	return nil
}

func newTestService(repo *mockUserRepository) UserService {
	cfg := &config.Config{
		Log: logger.New(logger.Config{Level: logger.ERROR, Format: logger.JSON, Service: "test"}),
	}
	return NewUserService(repo, cfg)
}

func validRegistration() *model.UserRegister {
	return &model.UserRegister{
		Email:     "tenant@example.com",
		Password:  "correct-horse",
		FirstName: "Dana",
		LastName:  "Rivera",
		Role:      "tenant",
	}
}

func TestRegister(t *testing.T) {
	service := newTestService(&mockUserRepository{})

	user, err := service.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.Role != model.RoleTenant {
		t.Errorf("expected role tenant, got %s", user.Role)
	}
	if user.PasswordHash == "" || user.PasswordHash == "correct-horse" {
		t.Error("password must be stored hashed")
	}
	if err := auth.CheckPassword(user.PasswordHash, "correct-horse"); err != nil {
		t.Errorf("hash should verify against the original password: %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(r *model.UserRegister)
		wantCode string
	}{
		{"bad email", func(r *model.UserRegister) { r.Email = "not-an-email" }, apperrors.CodeValidation},
		{"short password", func(r *model.UserRegister) { r.Password = "short" }, apperrors.CodeValidation},
		{"missing first name", func(r *model.UserRegister) { r.FirstName = "" }, apperrors.CodeValidation},
		{"unknown role", func(r *model.UserRegister) { r.Role = "admin" }, apperrors.CodeValidation},
	}

	service := newTestService(&mockUserRepository{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validRegistration()
			tt.mutate(input)

			_, err := service.Register(context.Background(), input)
			appErr, ok := err.(*apperrors.AppError)
			if !ok || appErr.Code != tt.wantCode {
				t.Errorf("expected code %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := &mockUserRepository{
		createFunc: func(ctx context.Context, user *model.User) error {
			return userserrors.ErrDuplicateEmail
		},
	}
	service := newTestService(repo)

	_, err := service.Register(context.Background(), validRegistration())
	appErr, ok := err.(*apperrors.AppError)
	if !ok || appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := &model.User{
		ID:           "64b000000000000000000002",
		Email:        "tenant@example.com",
		PasswordHash: hash,
		Role:         model.RoleTenant,
	}
	repo := &mockUserRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			if email == stored.Email {
				return stored, nil
			}
			return nil, userserrors.ErrNotFound
		},
	}
	service := newTestService(repo)

	user, err := service.Login(context.Background(), &model.UserLogin{
		Email:    "tenant@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != stored.ID {
		t.Errorf("unexpected user: %+v", user)
	}

	// Unknown email and wrong password produce the same error.
	_, badEmailErr := service.Login(context.Background(), &model.UserLogin{
		Email:    "nobody@example.com",
		Password: "correct-horse",
	})
	_, badPassErr := service.Login(context.Background(), &model.UserLogin{
		Email:    "tenant@example.com",
		Password: "wrong",
	})

	for name, err := range map[string]error{"unknown email": badEmailErr, "wrong password": badPassErr} {
		appErr, ok := err.(*apperrors.AppError)
		if !ok || appErr.Code != apperrors.CodeUnauthorized {
			t.Errorf("%s: expected unauthorized, got %v", name, err)
		}
	}
	if badEmailErr.Error() != badPassErr.Error() {
		t.Error("login failures must be indistinguishable")
	}
}

func TestUpdate_RehashesPassword(t *testing.T) {
	hash, _ := auth.HashPassword("old-password")
	repo := &mockUserRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{
				ID:           id,
				Email:        "tenant@example.com",
				PasswordHash: hash,
				FirstName:    "Dana",
				LastName:     "Rivera",
				Role:         model.RoleTenant,
			}, nil
		},
	}
	service := newTestService(repo)

	newPassword := "new-password-1"
	user, err := service.Update(context.Background(), "64b000000000000000000002", &model.UserUpdate{
		Password: &newPassword,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, newPassword); err != nil {
		t.Errorf("new password should verify: %v", err)
	}
	if err := auth.CheckPassword(user.PasswordHash, "old-password"); err == nil {
		t.Error("old password must no longer verify")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	service := newTestService(&mockUserRepository{})

	_, err := service.GetByID(context.Background(), "64b000000000000000000002")
	appErr, ok := err.(*apperrors.AppError)
	if !ok || appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}
