package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signToken(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func userClaims(sub string, exp time.Time) *CustomClaims {
	return &CustomClaims{
		Role:  "authenticated",
		Email: "ada@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestValidateToken_HS256(t *testing.T) {
	v := NewTokenValidator("https://example.supabase.co", testSecret)
	sub := "5b0f0c55-1a43-4a55-9a8a-3c1f3f6d8c7e"

	claims, err := v.ValidateToken(signToken(t, testSecret, userClaims(sub, time.Now().Add(time.Hour))))
	require.NoError(t, err)
	assert.Equal(t, sub, claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestValidateToken_Rejects(t *testing.T) {
	v := NewTokenValidator("https://example.supabase.co", testSecret)
	sub := "5b0f0c55-1a43-4a55-9a8a-3c1f3f6d8c7e"

	none := jwt.NewWithClaims(jwt.SigningMethodNone, userClaims(sub, time.Now().Add(time.Hour)))
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"expired", signToken(t, testSecret, userClaims(sub, time.Now().Add(-time.Minute)))},
		{"wrong secret", signToken(t, "another-secret-entirely-another-secret", userClaims(sub, time.Now().Add(time.Hour)))},
		{"missing subject", signToken(t, testSecret, userClaims("", time.Now().Add(time.Hour)))},
		{"alg none", unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewTokenValidator_JWKSURL(t *testing.T) {
	v := NewTokenValidator("https://example.supabase.co/", "")
	assert.Equal(t, "https://example.supabase.co/auth/v1/.well-known/jwks.json", v.jwksURL)
}

func TestIsPasswordStrong(t *testing.T) {
	assert.True(t, IsPasswordStrong("Str0ng!Pass"))
	assert.False(t, IsPasswordStrong("Sh0r!"))
	assert.False(t, IsPasswordStrong("alllowercase1!"))
	assert.False(t, IsPasswordStrong("NoDigits!!"))
	assert.False(t, IsPasswordStrong("NoSpecial123"))
}

func TestViewerID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, ViewerID(c))

	c.Set(ContextUserKey, &EnhancedClaims{ProfileID: 42})
	id := ViewerID(c)
	require.NotNil(t, id)
	assert.Equal(t, int64(42), *id)

	claims, ok := ClaimsFromContext(c)
	require.True(t, ok)
	assert.Equal(t, int64(42), claims.ProfileID)
}
