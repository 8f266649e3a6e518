// Package main starts the fitevents HTTP API.
//
// @title Fit Events API
// @version 1.0
// @description Event invitations and participation.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"fitevents/config"
	_ "fitevents/docs"
	"fitevents/internal/adapters/auth"
	"fitevents/internal/adapters/email"
	deliveryhttp "fitevents/internal/delivery/http"
	"fitevents/internal/delivery/http/controllers"
	"fitevents/internal/delivery/http/middleware"
	"fitevents/internal/repository/postgres"
	"fitevents/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := config.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.DBMaxOpen)
	db.SetMaxIdleConns(cfg.DBMaxOpen)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	handler, err := newHandler(cfg, db, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newHandler wires repositories, services and controllers into the HTTP handler.
func newHandler(cfg *config.Config, db *sql.DB, logger *slog.Logger) (http.Handler, error) {
	eventRepo := postgres.NewEventRepository(db)
	invitationRepo := postgres.NewEventInvitationRepository(db)
	participantRepo := postgres.NewEventParticipantRepository(db)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.InsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return nil, err
	}
	emailService := services.NewEmailService(mailer, renderer, logger)

	authority := services.NewRoleAuthority(participantRepo)
	ledger := services.NewParticipationLedger(participantRepo)
	registry := services.NewInvitationRegistry(eventRepo, invitationRepo, authority, emailService,
		cfg.InvitationLinkBase, cfg.RequestTimeout, logger)
	coordinator := services.NewJoinCoordinator(eventRepo, invitationRepo, postgres.NewJoinTxRunner(db), ledger, logger)
	participantService := services.NewParticipantService(eventRepo, participantRepo, ledger, authority, cfg.RequestTimeout, logger)
	eventService := services.NewEventService(eventRepo, authority, cfg.RequestTimeout)

	tokens := auth.NewJWT(cfg.JWTSecret)
	mux := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		Event:       controllers.NewEventController(logger, eventService),
		Invitation:  controllers.NewInvitationController(logger, registry),
		Participant: controllers.NewParticipantController(logger, participantService),
		Join:        controllers.NewJoinController(logger, coordinator),
		Health:      controllers.NewHealthController(logger, db),
	}, middleware.RequireAuth(tokens, logger))

	return middleware.CORS(cfg.CORSOrigins, middleware.LoggingMiddleware(logger, mux)), nil
}
