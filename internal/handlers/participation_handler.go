package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/gatherly/internal/helpers"
	"github.com/joshua-takyi/gatherly/internal/models"
	"github.com/joshua-takyi/gatherly/internal/services"
)

type participationResponse struct {
	ParticipationID int64                      `json:"participation_id"`
	Status          models.ParticipationStatus `json:"status"`
}

func JoinEvent(ps *services.ParticipationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := helpers.ClaimsFromContext(c)
		if !ok {
			unauthorized(c)
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		p, err := ps.Join(c.Request.Context(), id, claims.ProfileID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(participationResponse{
			ParticipationID: p.ID,
			Status:          p.Status,
		}, "Joined event"))
	}
}

func LeaveEvent(ps *services.ParticipationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := helpers.ClaimsFromContext(c)
		if !ok {
			unauthorized(c)
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		p, err := ps.Leave(c.Request.Context(), id, claims.ProfileID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(participationResponse{
			ParticipationID: p.ID,
			Status:          p.Status,
		}, "Left event"))
	}
}
