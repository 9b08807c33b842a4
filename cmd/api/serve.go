package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xavierca1/dental-funnel/internal/config"
	"github.com/xavierca1/dental-funnel/internal/infra/http/handlers"
	"github.com/xavierca1/dental-funnel/internal/infra/http/middleware"
	"github.com/xavierca1/dental-funnel/internal/infra/integration/whatsapp"
	"github.com/xavierca1/dental-funnel/internal/infra/queue"
	"github.com/xavierca1/dental-funnel/internal/infra/worker"
	"github.com/xavierca1/dental-funnel/internal/usecase"
)

const version = "1.0.0"

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, queue consumers and schedulers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.RabbitMQURL == "" {
		return errors.New("RABBITMQ_URL is required to serve")
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Stores
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.prepare(ctx); err != nil {
		return err
	}

	// 2. Queue
	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		return err
	}
	defer rabbitMQ.Close()
	producer := queue.NewProducer(rabbitMQ.Ch)

	// 3. Use cases
	loc := cfg.Location()
	engine := usecase.NewCohortEngine(st.patients, st.statusLog, loc, cfg.ClassifyWorkers, logger)
	rollupUC := usecase.NewRollupUseCase(st.patients, loc)
	reportUC := usecase.NewReportUseCase(st.reports, rollupUC, producer, logger)
	patientUC := usecase.NewPatientUseCase(st.patients, st.statusLog, loc, logger)
	sweepUC := usecase.NewActionSweepUseCase(engine, producer, usecase.NewMemoryLedger(), loc, logger)

	// 4. Consumers and schedulers
	var notifier queue.ActionNotifier = logNotifier{logger: logger}
	if cfg.WhatsAppAccessToken != "" && cfg.WhatsAppRecipient != "" {
		notifier = whatsapp.NewClient(whatsapp.Config{
			AccessToken: cfg.WhatsAppAccessToken,
			PhoneID:     cfg.WhatsAppPhoneID,
			Template:    cfg.WhatsAppTemplate,
			Recipient:   cfg.WhatsAppRecipient,
		}, logger)
	}

	consumer := queue.NewWorker(rabbitMQ.Ch, notifier, reportUC, logger)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error().Err(err).Msg("queue worker exited")
		}
	}()

	go worker.NewActionSweepWorker(sweepUC, cfg.ActionSweepInterval, logger).Start(ctx)

	scheduler, err := worker.NewReportScheduler(reportUC, newMailer(cfg), cfg.ReportRecipients, cfg.DailyReportAt, loc, logger).Start(ctx)
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	// 5. HTTP
	router := handlers.NewRouter(handlers.RouterConfig{
		Health:   handlers.NewHealthHandler(st.patients, st.sql, rabbitMQ, version),
		Cohorts:  handlers.NewCohortHandler(engine, logger),
		Rollups:  handlers.NewRollupHandler(rollupUC, logger),
		Patients: handlers.NewPatientHandler(patientUC, logger),
		Reports:  handlers.NewReportHandler(reportUC, logger),
		Auth: middleware.AuthConfig{
			SigningKey: []byte(cfg.JWTSecret),
			Issuer:     cfg.JWTIssuer,
			DevMode:    cfg.IsDev(),
		},
		CORSOrigins: cfg.CORSOrigins,
		WriteLimit:  cfg.WriteLimit,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("timezone", loc.String()).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
