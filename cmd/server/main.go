package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atelierhq/backend/internal/api"
	"github.com/atelierhq/backend/internal/app"
	"github.com/atelierhq/backend/internal/app/maintenance"
	iauth "github.com/atelierhq/backend/internal/auth"
	"github.com/atelierhq/backend/internal/database"
	"github.com/atelierhq/backend/internal/services"
	"github.com/atelierhq/backend/internal/storage"
	"github.com/atelierhq/backend/pkg/crypto"
	"github.com/atelierhq/backend/pkg/logger"
	"github.com/atelierhq/backend/pkg/mail"
)

const defaultShutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("atelier-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	hasher := cfg.Auth.Hasher()

	if err := seedRootUser(db, cfg, hasher, log); err != nil {
		return err
	}

	store, err := iauth.NewGormCredentialStore(db)
	if err != nil {
		return fmt.Errorf("initialise credential store: %w", err)
	}

	accessJWT, err := iauth.NewJWTService(cfg.Auth.AccessJWTConfig())
	if err != nil {
		return fmt.Errorf("initialise access token codec: %w", err)
	}
	refreshJWT, err := iauth.NewJWTService(cfg.Auth.RefreshJWTConfig())
	if err != nil {
		return fmt.Errorf("initialise refresh token codec: %w", err)
	}

	refreshStore, err := iauth.NewRefreshTokenStore(store, refreshJWT, cfg.Auth.RefreshStoreConfig())
	if err != nil {
		return fmt.Errorf("initialise refresh token store: %w", err)
	}

	sessionSvc, err := iauth.NewSessionService(store, hasher, accessJWT, refreshStore, iauth.SessionConfig{})
	if err != nil {
		return fmt.Errorf("initialise session service: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return fmt.Errorf("initialise mailer: %w", err)
	}

	lifecycleSvc, err := iauth.NewLifecycleService(store, hasher, mailer, cfg.Auth.LifecycleConfig(cfg.Server.BaseURL))
	if err != nil {
		return fmt.Errorf("initialise lifecycle service: %w", err)
	}

	projectSvc, err := services.NewProjectService(db)
	if err != nil {
		return fmt.Errorf("initialise project service: %w", err)
	}
	categorySvc, err := services.NewCategoryService(db)
	if err != nil {
		return fmt.Errorf("initialise category service: %w", err)
	}
	quoteSvc, err := services.NewQuoteService(db, mailer, cfg.Email.SMTP.Notify)
	if err != nil {
		return fmt.Errorf("initialise quote service: %w", err)
	}
	userSvc, err := services.NewUserService(db, hasher, lifecycleSvc)
	if err != nil {
		return fmt.Errorf("initialise user service: %w", err)
	}

	uploadSvc, err := storage.OpenUploadService(ctx, storage.Config{
		BucketURL:     cfg.Storage.BucketURL,
		MaxUploadSize: cfg.Storage.MaxUploadSize,
	})
	if err != nil {
		return fmt.Errorf("open upload bucket: %w", err)
	}
	defer func() {
		if err := uploadSvc.Close(); err != nil {
			log.Warn("close upload bucket failed", zap.Error(err))
		}
	}()

	if cfg.Maintenance.Enabled {
		cleaner := maintenance.NewCleaner(db, maintenance.WithTokenSchedule(cfg.Maintenance.Schedule))
		if err := cleaner.Start(); err != nil {
			return fmt.Errorf("start maintenance jobs: %w", err)
		}
		defer func() {
			stopCtx := cleaner.Stop()
			if err := cleaner.RunOnce(stopCtx); err != nil {
				log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
			}
		}()
	}

	router, err := api.NewRouter(db, accessJWT, cfg, api.Services{
		Store:      store,
		Sessions:   sessionSvc,
		Lifecycle:  lifecycleSvc,
		Projects:   projectSvc,
		Categories: categorySvc,
		Quotes:     quoteSvc,
		Users:      userSvc,
		Uploads:    uploadSvc,
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseSettings()

	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

// seedRootUser creates the configured administrator account on first start.
func seedRootUser(db *gorm.DB, cfg *app.Config, hasher *crypto.Hasher, log *zap.Logger) error {
	email := strings.TrimSpace(cfg.Auth.Root.Email)
	password := cfg.Auth.Root.Password
	if email == "" || password == "" {
		return nil
	}

	hashed, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	created, err := database.EnsureRootUser(db, email, hashed)
	if err != nil {
		return fmt.Errorf("ensure root user: %w", err)
	}
	if created {
		log.Info("root user created", zap.String("email", email))
	}
	return nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("fetch underlying database handle failed", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("close database failed", zap.Error(err))
	}
}
