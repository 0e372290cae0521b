package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/gelson35/GestaoSaude-backend/internal/config"
	"github.com/gelson35/GestaoSaude-backend/internal/domain/identity"
	"github.com/gelson35/GestaoSaude-backend/internal/domain/incident"
	"github.com/gelson35/GestaoSaude-backend/internal/domain/patient"
	"github.com/gelson35/GestaoSaude-backend/internal/domain/report"
	"github.com/gelson35/GestaoSaude-backend/internal/domain/shift"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/auth"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/blobstore"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/db"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/events"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/middleware"
)

// routeRegistrar is implemented by every domain handler.
type routeRegistrar interface {
	RegisterRoutes(api *echo.Group)
}

// app holds the fully wired dependencies of the HTTP server.
type app struct {
	logger   zerolog.Logger
	cors     []string
	tokens   *auth.TokenIssuer
	revoked  auth.RevocationStore
	identity *identity.Service
	pinger   db.Pinger
	media    *blobstore.Handler
	handlers []routeRegistrar
}

// newRouter builds the echo instance with middleware and routes.
func newRouter(a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.cors,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}))
	e.Use(auth.Authenticate(auth.Config{
		Tokens:  a.tokens,
		Revoked: a.revoked,
		Loader:  a.identity,
		Skipper: auth.Skipper,
	}))
	e.Use(middleware.Audit(a.logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if a.pinger != nil {
		e.GET("/health/db", db.HealthHandler(a.pinger))
	}

	identity.NewHandler(a.identity).RegisterPublic(e)

	api := e.Group("/api/v1")
	for _, h := range a.handlers {
		h.RegisterRoutes(api)
	}
	if a.media != nil {
		a.media.RegisterRoutes(api, auth.RequireAuthenticated(), auth.ClinicalSafe())
	}
	return e
}

func newRevocationStore(ctx context.Context, cfg *config.Config) (auth.RevocationStore, func(), error) {
	if cfg.RedisURL == "" {
		s := auth.NewMemoryRevocationStore()
		return s, s.Close, nil
	}
	client, err := auth.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return auth.NewRedisRevocationStore(client), func() { _ = client.Close() }, nil
}

func newMediaStore(ctx context.Context, cfg *config.Config) (blobstore.Store, error) {
	if cfg.MediaBackend == "s3" {
		return blobstore.NewS3Store(ctx, cfg.MediaBucket)
	}
	return blobstore.NewMemoryStore(), nil
}

func newPublisher(ctx context.Context, cfg *config.Config) (events.Publisher, error) {
	switch cfg.EventsBackend {
	case "kafka":
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case "sqs":
		return events.NewSQSPublisher(ctx, cfg.SQSQueueName)
	default:
		return events.NopPublisher{}, nil
	}
}

func runServer() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := newLogger(cfg)

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	revoked, closeRevoked, err := newRevocationStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRevoked()

	mediaStore, err := newMediaStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing media store: %w", err)
	}

	publisher, err := newPublisher(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing event publisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing event publisher")
		}
	}()

	tx := db.NewTransactor(pool)
	tokens := auth.NewTokenIssuer([]byte(cfg.AuthSigningKey), cfg.AuthIssuer, cfg.AuthTokenTTL)

	shiftSvc := shift.NewService(shift.NewTeamRepoPG(pool), shift.NewItemRepoPG(pool), shift.NewChecklistRepoPG(pool), tx)
	patientSvc := patient.NewService(patient.NewRepoPG(pool), patient.NewDetailRepoPG(pool), tx)
	incidentSvc := incident.NewService(
		incident.NewIncidentRepoPG(pool),
		incident.NewLocationRepoPG(pool),
		incident.NewMaterialRepoPG(pool),
		incident.NewSupportRepoPG(pool),
		patientSvc,
		tx,
		publisher,
		logger.With().Str("component", "incident").Logger(),
	)
	reportSvc := report.NewService(report.NewRepoPG(pool), report.NewStatsPG(pool), time.Local)
	identitySvc := identity.NewService(identity.NewUserRepoPG(pool), identity.NewGroupRepoPG(pool), tokens, revoked, tx,
		logger.With().Str("component", "identity").Logger())

	e := newRouter(&app{
		logger:   logger,
		cors:     cfg.CORSOrigins,
		tokens:   tokens,
		revoked:  revoked,
		identity: identitySvc,
		pinger:   pool,
		media:    blobstore.NewHandler(mediaStore, cfg.MediaPublicBaseURL),
		handlers: []routeRegistrar{
			shift.NewHandler(shiftSvc),
			patient.NewHandler(patientSvc),
			incident.NewHandler(incidentSvc),
			report.NewHandler(reportSvc),
			identity.NewHandler(identitySvc),
		},
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
