package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/gatherly/internal/models"
	"github.com/joshua-takyi/gatherly/internal/services"
)

func ListCategories(cs *services.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := cs.ListCategories(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(categories, len(categories)))
	}
}
