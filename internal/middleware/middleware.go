package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/gatherly/internal/helpers"
	"github.com/joshua-takyi/gatherly/internal/models"
	"github.com/joshua-takyi/gatherly/internal/services"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	SessionCookie      = "session_id"

	refreshTokenMaxAge = 3600 * 24 * 30
	sessionMaxAge      = 3600 * 24 * 365
)

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// SessionID gives every browser a stable anonymous session cookie. View
// analytics dedupe on it.
func SessionID(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookie)
		if err != nil || sessionID == "" {
			sessionID = uuid.New().String()
			c.SetCookie(SessionCookie, sessionID, sessionMaxAge, "/", "", secure, true)
		}
		c.Set(SessionCookie, sessionID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		requestID, _ := c.Get("request_id")

		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if viewer := helpers.ViewerID(c); viewer != nil {
			attrs = append(attrs, "user_id", *viewer)
		}
		logger.Info("HTTP Request", attrs...)
	}
}

// ErrorHandler logs errors attached with c.Error and answers 500 if the
// handler has not written a response yet.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		requestID, _ := c.Get("request_id")

		logger.Error("Request error",
			"request_id", requestID,
			"error", err.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		if !c.Writer.Written() {
			resp := models.ErrorResponse("Internal server error")
			resp.Code = "internal_error"
			c.JSON(http.StatusInternalServerError, resp)
		}
	}
}

// TokenValidator verifies an access token and returns its claims.
type TokenValidator interface {
	ValidateToken(token string) (*helpers.CustomClaims, error)
}

// Authenticator resolves request credentials into profile-backed claims.
type Authenticator struct {
	validator     TokenValidator
	userService   *services.UserService
	logger        *slog.Logger
	secureCookies bool
}

func NewAuthenticator(validator TokenValidator, userService *services.UserService, logger *slog.Logger, secureCookies bool) *Authenticator {
	return &Authenticator{
		validator:     validator,
		userService:   userService,
		logger:        logger,
		secureCookies: secureCookies,
	}
}

var (
	errNoToken        = errors.New("no access token provided")
	errRefreshFailed  = errors.New("token expired and refresh failed")
	errProfileMissing = errors.New("no profile for this account")
)

// AuthMiddleware rejects requests without a valid token and profile.
func (a *Authenticator) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.authenticate(c)
		if err != nil {
			resp := models.ErrorResponse(err.Error())
			resp.Message = "Unauthorized access"
			resp.Code = "unauthorized"
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp)
			return
		}
		c.Set(helpers.ContextUserKey, claims)
		c.Next()
	}
}

// OptionalAuth sets the caller when credentials are valid and otherwise
// lets the request through anonymously.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.authenticate(c)
		if err == nil {
			c.Set(helpers.ContextUserKey, claims)
		} else if !errors.Is(err, errNoToken) {
			a.logger.Debug("Ignoring invalid credentials", "error", err)
		}
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context) (*helpers.EnhancedClaims, error) {
	token := bearerToken(c)
	if token == "" {
		token, _ = c.Cookie(AccessTokenCookie)
	}
	refreshToken, _ := c.Cookie(RefreshTokenCookie)
	if token == "" && refreshToken == "" {
		return nil, errNoToken
	}

	claims, err := a.validator.ValidateToken(token)
	if err != nil {
		if refreshToken == "" {
			return nil, err
		}
		claims, err = a.refresh(c, refreshToken)
		if err != nil {
			return nil, err
		}
	}

	authID, err := uuid.Parse(claims.Subject)
	if err != nil {
		a.logger.Error("Invalid user ID in token", "subject", claims.Subject, "error", err)
		return nil, helpers.ErrInvalidToken
	}

	profile, err := a.userService.GetProfileByAuthID(c.Request.Context(), authID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, errProfileMissing
		}
		a.logger.Error("Profile lookup failed", "auth_id", authID, "error", err)
		return nil, err
	}

	return &helpers.EnhancedClaims{
		CustomClaims: claims,
		ProfileID:    profile.ID,
		Username:     profile.Username,
		Email:        profile.Email,
	}, nil
}

// refresh trades the refresh cookie for new tokens and rewrites both
// cookies.
func (a *Authenticator) refresh(c *gin.Context, refreshToken string) (*helpers.CustomClaims, error) {
	tokenRes, err := a.userService.RefreshToken(c.Request.Context(), refreshToken)
	if err != nil || tokenRes.AccessToken == "" {
		a.logger.Info("Token refresh failed", "error", err)
		return nil, errRefreshFailed
	}

	claims, err := a.validator.ValidateToken(tokenRes.AccessToken)
	if err != nil {
		return nil, errRefreshFailed
	}

	SetAuthCookies(c, tokenRes.AccessToken, tokenRes.RefreshToken, tokenRes.ExpiresIn, a.secureCookies)
	a.logger.Info("Token refreshed successfully",
		"auth_id", tokenRes.User.ID,
		"expires_in", tokenRes.ExpiresIn,
	)
	return claims, nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func SetAuthCookies(c *gin.Context, accessToken, refreshToken string, expiresIn int, secure bool) {
	c.SetCookie(AccessTokenCookie, accessToken, expiresIn, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, refreshToken, refreshTokenMaxAge, "/", "", secure, true)
}

func ClearAuthCookies(c *gin.Context, secure bool) {
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", secure, true)
}
