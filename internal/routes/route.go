package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/gatherly/internal/container"
	"github.com/joshua-takyi/gatherly/internal/handlers"
	"github.com/joshua-takyi/gatherly/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	cfg := container.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())
	r.Use(middleware.SessionID(cfg.IsProduction()))

	auth := container.Authenticator
	secure := cfg.IsProduction()
	limit := middleware.RateLimit(cfg.ParticipationRateLimit, cfg.ParticipationRateBurst)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "OK",
				"service": "gatherly-api",
			})
		})

		v1.POST("/signup", handlers.Signup(container.UserService))
		v1.POST("/login", handlers.Login(container.UserService, secure))
		v1.POST("/logout", handlers.Logout(secure))
		v1.GET("/categories", handlers.ListCategories(container.CategoryService))
	}

	public := v1.Group("/")
	public.Use(auth.OptionalAuth())
	{
		public.GET("/events", handlers.ListEvents(container.EventService))
		public.GET("/events/:id", handlers.GetEvent(container.EventService, container.EventViewService))
	}

	protected := v1.Group("/")
	protected.Use(auth.AuthMiddleware())
	{
		protected.GET("/profile", handlers.GetProfile(container.UserService))

		protected.POST("/events", handlers.CreateEvent(container.EventService))
		protected.PUT("/events/:id", handlers.UpdateEvent(container.EventService, false))
		protected.PATCH("/events/:id", handlers.UpdateEvent(container.EventService, true))
		protected.DELETE("/events/:id", handlers.DeleteEvent(container.EventService))
		protected.GET("/events/:id/views", handlers.GetEventViewStats(container.EventViewService))

		protected.POST("/events/:id/join", limit, handlers.JoinEvent(container.ParticipationService))
		protected.POST("/events/:id/leave", limit, handlers.LeaveEvent(container.ParticipationService))
	}

	return r
}
