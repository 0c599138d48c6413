package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/gatherly/internal/geo"
	"github.com/joshua-takyi/gatherly/internal/helpers"
	"github.com/joshua-takyi/gatherly/internal/middleware"
	"github.com/joshua-takyi/gatherly/internal/models"
	"github.com/joshua-takyi/gatherly/internal/services"
)

// ListEvents handles GET /events. lat, lng and radius narrow the list only
// when all three parse; otherwise they are ignored.
func ListEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := geo.ParseQuery(c.Query("lat"), c.Query("lng"), c.Query("radius"))
		if err != nil {
			q = nil
		}

		events, err := es.ListEvents(c.Request.Context(), helpers.ViewerID(c), q)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(events, len(events)))
	}
}

func GetEvent(es *services.EventService, vs *services.EventViewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		viewer := helpers.ViewerID(c)
		detail, err := es.GetEventDetail(c.Request.Context(), id, viewer)
		if err != nil {
			respondError(c, err)
			return
		}

		vs.TrackView(c.Request.Context(), detail.Event, viewer, c.GetString(middleware.SessionCookie), c.Request.UserAgent())
		c.JSON(http.StatusOK, models.SuccessResponse(detail, ""))
	}
}

func CreateEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := helpers.ClaimsFromContext(c)
		if !ok {
			unauthorized(c)
			return
		}

		var in models.EventInput
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, err.Error())
			return
		}

		event, err := es.CreateEvent(c.Request.Context(), claims.ProfileID, &in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(event, "Event created successfully"))
	}
}

// UpdateEvent serves PUT (partial false) and PATCH (partial true).
func UpdateEvent(es *services.EventService, partial bool) gin.HandlerFunc {
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

		var in models.EventInput
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, err.Error())
			return
		}

		event, err := es.UpdateEvent(c.Request.Context(), id, claims.ProfileID, &in, partial)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(event, "Event updated successfully"))
	}
}

func DeleteEvent(es *services.EventService) gin.HandlerFunc {
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

		if err := es.DeleteEvent(c.Request.Context(), id, claims.ProfileID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func GetEventViewStats(vs *services.EventViewService) gin.HandlerFunc {
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

		stats, err := vs.GetEventViewStats(c.Request.Context(), id, claims.ProfileID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(stats, ""))
	}
}
