package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joshua-takyi/gatherly/internal/config"
	"github.com/joshua-takyi/gatherly/internal/connect"
	"github.com/joshua-takyi/gatherly/internal/container"
	"github.com/joshua-takyi/gatherly/internal/helpers"
	"github.com/joshua-takyi/gatherly/internal/models"
	"github.com/joshua-takyi/gatherly/internal/routes"
	"github.com/joshua-takyi/gatherly/internal/services"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gatherly",
	Short: "Gatherly event discovery and participation API",
	Long: `Gatherly serves the event discovery and participation HTTP API.

Commands:
  serve            - Run the HTTP server (applies pending migrations first)
  migrate          - Apply pending database migrations and exit
  seed-categories  - Insert the default event categories`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context())
	},
}

var seedCategoriesCmd = &cobra.Command{
	Use:   "seed-categories",
	Short: "Insert the default event categories",
	Long: `Insert the default event categories. Categories that already exist
are left untouched, so the command is safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeedCategories(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCategoriesCmd)
}

func runServe(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg)
	logger.Info("Starting Gatherly API server", "environment", cfg.Environment)

	pool, err := connect.PostgresConnect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("Connected to Postgres successfully")

	if err := connect.Migrate(pool); err != nil {
		return err
	}

	supaClient, err := connect.InitSupabase(cfg)
	if err != nil {
		return err
	}
	logger.Info("Connected to Supabase successfully")

	mongoClient, err := connect.MongoDBConnect(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := connect.MongoDBDisconnect(mongoClient); err != nil {
			logger.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()

	repos := container.ProductionRepos(pool, supaClient, mongoClient)
	if repos.Views != nil {
		if err := repos.Views.EnsureIndexes(ctx); err != nil {
			return err
		}
		logger.Info("Connected to MongoDB successfully")
	} else {
		logger.Warn("MONGODB_URI not set, view analytics disabled")
	}

	validator := helpers.NewTokenValidator(cfg.SupabaseURL, cfg.SupabaseJWTSecret)
	defer validator.Close()

	appContainer := container.NewContainer(cfg, logger, validator, repos)
	router := routes.SetupRoutes(appContainer)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}

	logger.Info("Server is shutting down...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
	return nil
}

func runMigrate(ctx context.Context) error {
	cfg, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := setupLogger(cfg)

	pool, err := connect.PostgresConnect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := connect.Migrate(pool); err != nil {
		return err
	}
	logger.Info("Migrations applied")
	return nil
}

func runSeedCategories(ctx context.Context) error {
	cfg, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := setupLogger(cfg)

	pool, err := connect.PostgresConnect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	categories := services.NewCategoryService(models.PostgresNewRepo(pool), logger)
	created, err := categories.SeedCategories(ctx)
	if err != nil {
		return err
	}
	logger.Info("Categories seeded", "created", created)
	return nil
}
