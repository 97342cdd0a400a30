package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/recordhub/backend/internal/config"
	"github.com/zhouzirui/recordhub/backend/internal/handler"
	"github.com/zhouzirui/recordhub/backend/internal/logging"
	"github.com/zhouzirui/recordhub/backend/internal/model/application"
	"github.com/zhouzirui/recordhub/backend/internal/model/contact"
	"github.com/zhouzirui/recordhub/backend/internal/model/note"
	"github.com/zhouzirui/recordhub/backend/internal/model/shop"
	"github.com/zhouzirui/recordhub/backend/internal/model/student"
	"github.com/zhouzirui/recordhub/backend/internal/service/cart"
	"github.com/zhouzirui/recordhub/backend/internal/service/events"
	"github.com/zhouzirui/recordhub/backend/internal/service/records"
	"github.com/zhouzirui/recordhub/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if envErr != nil {
		logger.Debug().Err(envErr).Msg("no .env file loaded, continuing with system environment variables only")
	}

	var db *sql.DB
	if cfg.Storage.UsesSQLite() {
		db, err = store.OpenSQLite(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.Storage.SQLitePath).Msg("failed to open sqlite database")
		}
		defer db.Close()
		logger.Info().Str("path", cfg.Storage.SQLitePath).Msg("sqlite database ready")
	}

	hub := events.NewHub(logger)
	defer hub.Close()

	svcs, err := buildServices(ctx, cfg.Storage, db, hub, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open record stores")
	}

	router := handler.NewRouter(svcs, logger)

	startServer(ctx, cfg.Server, router, logger)
}

// buildServices opens one store per collection and wraps it in a record service.
func buildServices(ctx context.Context, cfg config.StorageConfig, db *sql.DB, hub *events.Hub, logger zerolog.Logger) (handler.Services, error) {
	var svcs handler.Services

	students, err := openService[student.Student](ctx, cfg, db, hub, logger, "students", "Student", cfg.Students, store.NewSequence())
	if err != nil {
		return svcs, err
	}
	applications, err := openService[application.Application](ctx, cfg, db, hub, logger, "applications", "Application", cfg.Applications, store.NewSequence())
	if err != nil {
		return svcs, err
	}
	notes, err := openService[note.Note](ctx, cfg, db, hub, logger, "notes", "Note", cfg.Notes, store.UUIDs{})
	if err != nil {
		return svcs, err
	}
	contacts, err := openService[contact.Contact](ctx, cfg, db, hub, logger, "contacts", "Contact", cfg.Contacts, store.NewSequence())
	if err != nil {
		return svcs, err
	}
	lines, err := openService[shop.CartItem](ctx, cfg, db, hub, logger, "cart", "Cart item", cfg.Cart, store.NewSequence())
	if err != nil {
		return svcs, err
	}

	catalog, err := cart.LoadCatalog(cfg.ProductsFile, logger)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.ProductsFile).Msg("could not load product catalog, continuing with an empty catalog")
	}
	logger.Info().Int("products", catalog.Len()).Msg("product catalog loaded")

	return handler.Services{
		Students:     students,
		Applications: applications,
		Notes:        notes,
		Contacts:     contacts,
		Cart:         cart.NewService(catalog, lines, logger),
		Events:       hub,
	}, nil
}

func openService[T records.Entity[T]](
	ctx context.Context,
	cfg config.StorageConfig,
	db *sql.DB,
	hub *events.Hub,
	logger zerolog.Logger,
	collection, noun string,
	kind store.Kind,
	ids store.IDGenerator,
) (*records.Service[T], error) {
	st, err := store.Open[T](ctx, store.Options{
		Kind:       kind,
		Collection: collection,
		Path:       cfg.PathFor(collection, kind),
		DB:         db,
		IDs:        ids,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return records.NewService(collection, noun, st,
		records.WithEvents[T](hub),
		records.WithLogger[T](logger),
	), nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger zerolog.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info().Str("addr", addr).Msg("recordhub backend listening")
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
