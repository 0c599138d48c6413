package helpers

import "github.com/gin-gonic/gin"

// ContextUserKey is where the auth middleware stores *EnhancedClaims.
const ContextUserKey = "user"

// EnhancedClaims joins the verified token with the caller's profile row.
type EnhancedClaims struct {
	*CustomClaims
	ProfileID int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
}

// ClaimsFromContext returns the authenticated caller, if any.
func ClaimsFromContext(c *gin.Context) (*EnhancedClaims, bool) {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*EnhancedClaims)
	return claims, ok && claims != nil
}

// ViewerID is the caller's profile id, or nil for anonymous requests.
func ViewerID(c *gin.Context) *int64 {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return nil
	}
	id := claims.ProfileID
	return &id
}
