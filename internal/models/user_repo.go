package models

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/supabase-community/gotrue-go/types"
)

// AuthProvider is the external identity service.
type AuthProvider interface {
	Signup(ctx context.Context, email, password string, metadata map[string]interface{}) (uuid.UUID, error)
	AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
}

func (su *SupabaseRepo) Signup(ctx context.Context, email, password string, metadata map[string]interface{}) (uuid.UUID, error) {
	res, err := su.supabaseClient.Auth.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data:     metadata,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to sign up: %w", err)
	}

	// autoconfirm returns the user inside the session
	id := res.User.ID
	if id == uuid.Nil {
		id = res.Session.User.ID
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("identity provider returned no user id")
	}
	return id, nil
}

func (su *SupabaseRepo) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate user: %w", err)
	}
	return resp, nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return resp, nil
}

const selectProfileSQL = `SELECT id, auth_id, username, email, bio, interests, created_at FROM profiles`

func scanProfile(row pgx.Row) (*Profile, error) {
	p := &Profile{}
	if err := row.Scan(&p.ID, &p.AuthID, &p.Username, &p.Email, &p.Bio, &p.Interests, &p.CreatedAt); err != nil {
		return nil, pgError(err)
	}
	return p, nil
}

func (pg *PostgresRepo) CreateProfile(ctx context.Context, profile *Profile) (*Profile, error) {
	p, err := scanProfile(pg.pool.QueryRow(ctx, `
		INSERT INTO profiles (auth_id, username, email, bio, interests)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, auth_id, username, email, bio, interests, created_at`,
		profile.AuthID, profile.Username, profile.Email, profile.Bio, profile.Interests,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return p, nil
}

func (pg *PostgresRepo) GetProfileByID(ctx context.Context, id int64) (*Profile, error) {
	p, err := scanProfile(pg.pool.QueryRow(ctx, selectProfileSQL+` WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %d: %w", id, err)
	}
	return p, nil
}

func (pg *PostgresRepo) GetProfileByAuthID(ctx context.Context, authID uuid.UUID) (*Profile, error) {
	p, err := scanProfile(pg.pool.QueryRow(ctx, selectProfileSQL+` WHERE auth_id = $1`, authID))
	if err != nil {
		return nil, fmt.Errorf("failed to get profile for %s: %w", authID, err)
	}
	return p, nil
}
