package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/joshua-takyi/gatherly/internal/helpers"
	"github.com/joshua-takyi/gatherly/internal/models"
	"github.com/supabase-community/gotrue-go/types"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password is not strong enough")
)

type UserService struct {
	authProvider models.AuthProvider
	profilesRepo models.ProfilesRepo
	logger       *slog.Logger
}

func NewUserService(authProvider models.AuthProvider, profilesRepo models.ProfilesRepo, logger *slog.Logger) *UserService {
	return &UserService{
		authProvider: authProvider,
		profilesRepo: profilesRepo,
		logger:       logger,
	}
}

// Signup registers the user with the identity provider and then creates the
// matching profile row.
func (us *UserService) Signup(ctx context.Context, req *models.SignupRequest) (*models.Profile, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	if err := models.Validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if !helpers.IsPasswordStrong(req.Password) {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidInput, ErrWeakPassword)
	}

	authID, err := us.authProvider.Signup(ctx, req.Email, req.Password, map[string]interface{}{
		"username": req.Username,
	})
	if err != nil {
		return nil, err
	}

	profile, err := us.profilesRepo.CreateProfile(ctx, &models.Profile{
		AuthID:   authID,
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		us.logger.Warn("Identity created without profile", "auth_id", authID, "error", err)
		return nil, err
	}

	us.logger.Info("User signed up", "user_id", profile.ID)
	return profile, nil
}

func (us *UserService) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: invalid email format", models.ErrInvalidInput)
	}
	if err := models.Validate.Var(password, "required"); err != nil {
		return nil, fmt.Errorf("%w: password is required", models.ErrInvalidInput)
	}

	response, err := us.authProvider.AuthenticateUser(ctx, strings.ToLower(email), password)
	if err != nil {
		us.logger.Debug("Authentication failed", "error", err)
		return nil, ErrInvalidCredentials
	}
	return response, nil
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	if refreshToken == "" {
		return nil, ErrInvalidCredentials
	}
	response, err := us.authProvider.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return response, nil
}

func (us *UserService) GetProfile(ctx context.Context, id int64) (*models.Profile, error) {
	return us.profilesRepo.GetProfileByID(ctx, id)
}

func (us *UserService) GetProfileByAuthID(ctx context.Context, authID uuid.UUID) (*models.Profile, error) {
	return us.profilesRepo.GetProfileByAuthID(ctx, authID)
}
