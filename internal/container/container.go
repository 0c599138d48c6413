package container

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joshua-takyi/gatherly/internal/config"
	"github.com/joshua-takyi/gatherly/internal/middleware"
	"github.com/joshua-takyi/gatherly/internal/models"
	"github.com/joshua-takyi/gatherly/internal/services"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// Repos are the storage backends the services are built on.
type Repos struct {
	Auth           models.AuthProvider
	Profiles       models.ProfilesRepo
	Events         models.EventsRepo
	Categories     models.CategoriesRepo
	Participations models.ParticipationRepo
	// Views may be nil, which disables view analytics.
	Views models.EventViewsRepo
}

// ProductionRepos wires Postgres, Supabase and, when connected, MongoDB.
func ProductionRepos(pool *pgxpool.Pool, supabaseClient *supabase.Client, mongoClient *mongo.Client) Repos {
	pg := models.PostgresNewRepo(pool)
	repos := Repos{
		Auth:           models.SupabaseNewRepo(supabaseClient),
		Profiles:       pg,
		Events:         pg,
		Categories:     pg,
		Participations: pg,
	}
	if mongoClient != nil {
		repos.Views = models.MongodbNewRepo(mongoClient)
	}
	return repos
}

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	Authenticator        *middleware.Authenticator
	UserService          *services.UserService
	EventService         *services.EventService
	ParticipationService *services.ParticipationService
	CategoryService      *services.CategoryService
	EventViewService     *services.EventViewService
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, logger *slog.Logger, validator middleware.TokenValidator, repos Repos) *Container {
	userService := services.NewUserService(repos.Auth, repos.Profiles, logger)

	return &Container{
		Config:               cfg,
		Logger:               logger,
		Authenticator:        middleware.NewAuthenticator(validator, userService, logger, cfg.IsProduction()),
		UserService:          userService,
		EventService:         services.NewEventService(repos.Events, repos.Categories, logger),
		ParticipationService: services.NewParticipationService(repos.Participations, logger),
		CategoryService:      services.NewCategoryService(repos.Categories, logger),
		EventViewService:     services.NewEventViewService(repos.Views, repos.Events, logger),
	}
}
