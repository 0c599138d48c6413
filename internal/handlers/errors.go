package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/gatherly/internal/models"
	"github.com/joshua-takyi/gatherly/internal/services"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// An empty message means err.Error() is shown to the client.
var errorMappings = []errorMapping{
	{models.ErrNotFound, http.StatusNotFound, "not_found", "Not found."},
	{models.ErrForbidden, http.StatusForbidden, "forbidden", "You do not have permission to perform this action."},
	{models.ErrCapacityExceeded, http.StatusBadRequest, "capacity_exceeded", "Event is full."},
	{models.ErrAlreadyJoined, http.StatusBadRequest, "already_joined", "Already joined."},
	{models.ErrAlreadyLeft, http.StatusBadRequest, "already_left", "Already left."},
	{models.ErrNotAParticipant, http.StatusBadRequest, "not_a_participant", "Not a participant."},
	{models.ErrInvalidInput, http.StatusBadRequest, "invalid_input", ""},
	{models.ErrConflict, http.StatusConflict, "conflict", "Resource already exists."},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password."},
	{services.ErrAnalyticsUnavailable, http.StatusServiceUnavailable, "analytics_unavailable", "View analytics are not configured."},
}

// respondError writes the client-facing form of err. Unmapped errors are
// attached to the context for ErrorHandler to log and surface as a bare 500.
func respondError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			msg := m.message
			if msg == "" {
				msg = err.Error()
			}
			resp := models.ErrorResponse(msg)
			resp.Code = m.code
			c.AbortWithStatusJSON(m.status, resp)
			return
		}
	}

	_ = c.Error(err)
	requestID, _ := c.Get("request_id")
	resp := models.ErrorResponse("Internal server error")
	resp.Code = "internal_error"
	if id, ok := requestID.(string); ok {
		resp.Message = "request " + id
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
}

func badRequest(c *gin.Context, msg string) {
	resp := models.ErrorResponse(msg)
	resp.Code = "invalid_input"
	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}

func unauthorized(c *gin.Context) {
	resp := models.ErrorResponse("Authentication credentials were not provided.")
	resp.Code = "unauthorized"
	c.AbortWithStatusJSON(http.StatusUnauthorized, resp)
}

// pathID parses the :id parameter. Anything but a positive integer is
// treated as a missing resource.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, models.ErrNotFound)
		return 0, false
	}
	return id, true
}
