package user

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"

	"passvault/internal/crypto"
)

type Servicer interface {
	Register(ctx context.Context, username, password string) (int, error)
	Authenticate(ctx context.Context, username, password string) (User, error)
	MasterSalt(ctx context.Context, userID int) ([]byte, error)
	SaltFor(ctx context.Context, username string) ([]byte, error)
	Username(ctx context.Context, userID int) (string, error)
}

type Service struct {
	repo      Repository
	validator Validator
	log       *slog.Logger
}

func NewService(repo Repository, validator Validator, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		log:       log.With("component", "user_service"),
	}
}

// Register stores a bcrypt hash of the login password and mints the user's
// one and only master salt.
func (s *Service) Register(ctx context.Context, username, password string) (int, error) {
	if err := s.validator.ValidateRegister(username, password); err != nil {
		s.log.Debug("validation failed", "username", username, "error", err)
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	salt, err := crypto.NewMasterSalt()
	if err != nil {
		return 0, fmt.Errorf("generate master salt: %w", err)
	}

	id, err := s.repo.Create(ctx, username, string(hash), salt)
	if err != nil {
		return 0, err
	}

	s.log.Info("user registered", "user_id", id, "username", username)
	return id, nil
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	if err := s.validator.ValidateUsername(username); err != nil {
		return User{}, ErrInvalidAuth
	}

	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return User{}, ErrInvalidAuth
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidAuth
	}

	if len(u.MasterSalt) != crypto.SaltSize {
		s.log.Error("user has no usable master salt", "user_id", u.ID)
		return User{}, ErrMissingMasterSalt
	}

	return u, nil
}

// MasterSalt returns the salt for an already-authenticated principal.
func (s *Service) MasterSalt(ctx context.Context, userID int) ([]byte, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrNotFound
	}
	if len(u.MasterSalt) != crypto.SaltSize {
		s.log.Error("user has no usable master salt", "user_id", userID)
		return nil, ErrMissingMasterSalt
	}
	return u.MasterSalt, nil
}

// SaltFor looks a user up by name. Used by the sharing flow to confirm the
// receiver exists; the salt itself never leaves the server.
func (s *Service) SaltFor(ctx context.Context, username string) ([]byte, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, ErrNotFound
	}
	if len(u.MasterSalt) != crypto.SaltSize {
		s.log.Error("user has no usable master salt", "username", username)
		return nil, ErrMissingMasterSalt
	}
	return u.MasterSalt, nil
}

// Username resolves an id back to its login name.
func (s *Service) Username(ctx context.Context, userID int) (string, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return "", ErrNotFound
	}
	return u.Username, nil
}
