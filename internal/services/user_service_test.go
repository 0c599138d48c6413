package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joshua-takyi/gatherly/internal/models"
	"github.com/joshua-takyi/gatherly/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signupRequest() *models.SignupRequest {
	return &models.SignupRequest{
		Username:  "ada",
		Email:     " Ada@Example.com ",
		Password:  "Str0ng!Pass",
		Password2: "Str0ng!Pass",
	}
}

func TestSignup_CreatesProfile(t *testing.T) {
	store := testutil.NewStore()
	auth := testutil.NewFakeAuth()
	svc := NewUserService(auth, store, discardLogger())
	ctx := context.Background()

	profile, err := svc.Signup(ctx, signupRequest())
	require.NoError(t, err)
	assert.Equal(t, "ada", profile.Username)
	assert.Equal(t, "ada@example.com", profile.Email)

	byAuth, err := svc.GetProfileByAuthID(ctx, profile.AuthID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, byAuth.ID)

	tokens, err := svc.AuthenticateUser(ctx, "ada@example.com", "Str0ng!Pass")
	require.NoError(t, err)
	assert.Equal(t, profile.AuthID, tokens.User.ID)

	refreshed, err := svc.RefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, tokens.AccessToken, refreshed.AccessToken)
}

func TestSignup_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *models.SignupRequest)
	}{
		{"bad email", func(r *models.SignupRequest) { r.Email = "nope" }},
		{"short username", func(r *models.SignupRequest) { r.Username = "ab" }},
		{"mismatched passwords", func(r *models.SignupRequest) { r.Password2 = "Other!Pass1" }},
		{"weak password", func(r *models.SignupRequest) { r.Password, r.Password2 = "weakpassword", "weakpassword" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewUserService(testutil.NewFakeAuth(), testutil.NewStore(), discardLogger())
			req := signupRequest()
			tt.mutate(req)
			_, err := svc.Signup(context.Background(), req)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}
}

func TestSignup_DuplicateUsername(t *testing.T) {
	store := testutil.NewStore()
	store.SeedProfile("ada")
	svc := NewUserService(testutil.NewFakeAuth(), store, discardLogger())

	_, err := svc.Signup(context.Background(), signupRequest())
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestSignup_ProviderError(t *testing.T) {
	auth := testutil.NewFakeAuth()
	auth.SignupErr = errors.New("provider down")
	svc := NewUserService(auth, testutil.NewStore(), discardLogger())

	_, err := svc.Signup(context.Background(), signupRequest())
	assert.EqualError(t, err, "provider down")
}

func TestAuthenticateUser_InvalidCredentials(t *testing.T) {
	svc := NewUserService(testutil.NewFakeAuth(), testutil.NewStore(), discardLogger())
	ctx := context.Background()

	_, err := svc.AuthenticateUser(ctx, "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.AuthenticateUser(ctx, "not-an-email", "whatever")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.RefreshToken(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEventViewService(t *testing.T) {
	store := testutil.NewStore()
	views := testutil.NewViewStore()
	svc := NewEventViewService(views, store, discardLogger())
	now := time.Date(2030, 6, 5, 15, 0, 0, 0, time.UTC)
	views.Now = func() time.Time { return now }
	svc.now = views.Now
	ctx := context.Background()

	host := store.SeedProfile("host")
	other := store.SeedProfile("other")
	event := store.SeedEvent(host.ID, nil)

	svc.TrackView(ctx, event, nil, "s1", "test")
	svc.TrackView(ctx, event, nil, "s1", "test")
	svc.TrackView(ctx, event, &other.ID, "s2", "test")
	svc.TrackView(ctx, event, nil, "", "test")
	assert.Equal(t, 2, views.Count())

	stats, err := svc.GetEventViewStats(ctx, event.ID, host.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalViews)
	assert.Equal(t, int64(2), stats.UniqueViews)
	assert.Equal(t, int64(2), stats.ViewsToday)

	_, err = svc.GetEventViewStats(ctx, event.ID, other.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	// same session, next clock hour
	views.Now = func() time.Time { return now.Add(time.Hour) }
	svc.TrackView(ctx, event, nil, "s1", "test")
	assert.Equal(t, 3, views.Count())

	disabled := NewEventViewService(nil, store, discardLogger())
	disabled.TrackView(ctx, event, nil, "s3", "test")
	_, err = disabled.GetEventViewStats(ctx, event.ID, host.ID)
	assert.ErrorIs(t, err, ErrAnalyticsUnavailable)
}
