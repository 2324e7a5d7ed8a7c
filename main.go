package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/scrumdeck/scrumdeck-engine/pkg/auth"
	"github.com/scrumdeck/scrumdeck-engine/pkg/config"
	"github.com/scrumdeck/scrumdeck-engine/pkg/database"
	"github.com/scrumdeck/scrumdeck-engine/pkg/handlers"
	"github.com/scrumdeck/scrumdeck-engine/pkg/logging"
	"github.com/scrumdeck/scrumdeck-engine/pkg/middleware"
	"github.com/scrumdeck/scrumdeck-engine/pkg/repositories"
	"github.com/scrumdeck/scrumdeck-engine/pkg/retry"
	"github.com/scrumdeck/scrumdeck-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("bind_addr", cfg.BindAddr),
		zap.String("port", cfg.Port),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", cfg.Database.Database),
		zap.String("database_host", cfg.Database.Host))

	ctx := context.Background()

	connStr := cfg.Database.ConnectionString()
	logger.Info("Connecting to database",
		zap.String("url", logging.SanitizeConnectionString(connStr)))

	// Migrations run over database/sql; the pool below is pgx-native.
	migrationDB, err := sql.Open("pgx", connStr)
	if err != nil {
		logger.Fatal("Failed to open migration connection",
			zap.String("error", logging.SanitizeError(err)))
	}
	err = retry.Do(ctx, retry.DefaultConfig(), func() error {
		return database.RunMigrations(migrationDB, cfg.MigrationsPath, logger)
	})
	if err != nil {
		logger.Fatal("Failed to run migrations",
			zap.String("error", logging.SanitizeError(err)))
	}
	if err := migrationDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	// The database may still be coming up when the engine starts; retry
	// transient connection failures before giving up.
	db, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*database.DB, error) {
		return database.NewConnection(ctx, &database.Config{
			URL:            connStr,
			MaxConnections: cfg.Database.MaxConnections,
		})
	})
	if err != nil {
		logger.Fatal("Failed to connect to database",
			zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()

	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)

	projectRepo := repositories.NewProjectRepository()
	membershipRepo := repositories.NewMembershipRepository()
	sprintRepo := repositories.NewSprintRepository()
	taskRepo := repositories.NewTaskRepository()
	tagRepo := repositories.NewTagRepository()
	userRepo := repositories.NewUserRepository()

	accessService := services.NewAccessService(db, db, membershipRepo, projectRepo, logger)
	projectService := services.NewProjectService(db, db, projectRepo, membershipRepo, sprintRepo, taskRepo, tagRepo, logger)
	sprintService := services.NewSprintService(db, db, sprintRepo, taskRepo, projectRepo, logger)
	boardService := services.NewBoardService(db, db, sprintRepo, taskRepo, logger)
	taskService := services.NewTaskService(db, db, taskRepo, tagRepo, membershipRepo, logger)
	tagService := services.NewTagService(db, db, tagRepo, logger)
	userService := services.NewUserService(db, db, userRepo, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewProjectsHandler(projectService, accessService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewSprintsHandler(sprintService, boardService, accessService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewTasksHandler(taskService, accessService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewTagsHandler(tagService, accessService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewUsersHandler(userService, logger).RegisterRoutes(mux, authMiddleware)

	handler := middleware.RequestLogger(logger)(mux)

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	logger.Info("Starting scrumdeck-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// newLogger builds a production logger everywhere except local, where a
// development config keeps output human-readable.
func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
