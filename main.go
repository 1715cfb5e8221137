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

	"pcbuilds/internal/catalog"
	"pcbuilds/internal/config"
	"pcbuilds/internal/database"
	"pcbuilds/internal/handlers"
	"pcbuilds/internal/i18n"
	"pcbuilds/internal/logger"
	authmw "pcbuilds/internal/middleware"
	"pcbuilds/internal/repository"
	"pcbuilds/internal/scanner"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.UsesDevSecret() {
		log.Warn("JWT_SECRET not set, using the development secret")
	}
	if err := i18n.Load(); err != nil {
		log.Fatal("failed to load translations", "error", err)
	}
	log.Info("translations loaded", "en", i18n.KeyCount(i18n.LangEN), "it", i18n.KeyCount(i18n.LangIT))

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to open database", "error", err)
	}
	defer db.Close()
	log.Info("database ready", "dialect", db.Dialect())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settingsRepo := repository.NewSettingsRepository(db)
	userRepo := repository.NewUserRepository(db)
	svc := catalog.NewService(db, log.With("component", "import"))

	var sc *scanner.Scanner
	if cfg.ImportDir != "" {
		sc = scanner.New(cfg.ImportDir, svc, settingsRepo, log)
	}

	r := newRouter(ctx, cfg, db, log, svc, sc, settingsRepo, userRepo)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", "addr", srv.Addr, "import_dir", cfg.ImportDir)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if sc != nil {
		g.Go(func() error {
			return scanner.RunScheduler(gctx, sc, settingsRepo, cfg.ImportInterval, log.With("component", "scheduler"))
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newRouter(ctx context.Context, cfg *config.Config, db *database.DB, log *logger.Logger,
	svc *catalog.Service, sc *scanner.Scanner, settingsRepo *repository.SettingsRepository,
	userRepo *repository.UserRepository) http.Handler {

	pageHandler := handlers.NewPageHandler()
	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	langHandler := handlers.NewLangHandler()
	buildHandler := handlers.NewBuildHandler(db, log)
	partHandler := handlers.NewPartHandler(db, log)
	categoryHandler := handlers.NewCategoryHandler(db)
	importHandler := handlers.NewImportHandler(svc, sc, settingsRepo, cfg.MaxUploadMB, log)
	scanHandler := handlers.NewScanHandler(ctx, sc)
	settingsHandler := handlers.NewSettingsHandler(settingsRepo)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(i18n.Middleware)

	// Public routes (no auth)
	r.Get("/healthz", pageHandler.Health)
	r.Get("/login", authHandler.LoginPage)
	r.Post("/login", authHandler.Login)
	r.Get("/setup", authHandler.SetupPage)
	r.Post("/setup", authHandler.Setup)
	r.Get("/lang", langHandler.SetLang)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(cfg.JWTSecret))

		r.Post("/logout", authHandler.Logout)

		// Pages
		r.Get("/", pageHandler.Home)
		r.Get("/builds", buildHandler.List)
		r.Get("/builds/{id}", buildHandler.Detail)
		r.Get("/parts", partHandler.Page)
		r.Get("/categories", categoryHandler.Page)
		r.Get("/import", importHandler.Page)
		r.Post("/import", importHandler.Upload)

		// API - Builds
		r.Post("/api/builds", buildHandler.Create)
		r.Delete("/api/builds/{id}", buildHandler.Delete)
		r.Put("/api/builds/{id}/status", buildHandler.SetStatus)
		r.Put("/api/builds/{id}/parts", buildHandler.SetPart)
		r.Delete("/api/builds/{id}/parts/{partId}", buildHandler.RemovePart)

		// API - Parts
		r.Post("/api/parts", partHandler.Create)
		r.Put("/api/parts/{id}/price", partHandler.UpdatePrice)
		r.Delete("/api/parts/{id}", partHandler.Delete)

		// API - Categories
		r.Post("/api/categories", categoryHandler.Create)
		r.Delete("/api/categories/{id}", categoryHandler.Delete)

		// API - Import folder
		r.Post("/api/import/scan", scanHandler.StartScan)
		r.Get("/api/import/scan/status", scanHandler.Status)
		r.Put("/api/settings", settingsHandler.Save)
	})

	return r
}
