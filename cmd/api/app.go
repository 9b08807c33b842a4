package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/xavierca1/dental-funnel/internal/config"
	"github.com/xavierca1/dental-funnel/internal/entity"
	"github.com/xavierca1/dental-funnel/internal/infra/database"
	"github.com/xavierca1/dental-funnel/internal/infra/mail"
	"github.com/xavierca1/dental-funnel/internal/usecase"
)

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

// stores holds the open connections shared by every command.
type stores struct {
	mongo *mongo.Database
	sql   *sql.DB

	patients  *database.MongoPatientRepository
	legacy    *database.MongoLegacyPatientRepository
	statusLog *database.StatusChangeRepository
	reports   *database.ReportRepository
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	mdb, err := database.NewMongoDatabase(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDBConnection(cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		_ = mdb.Client().Disconnect(ctx)
		return nil, err
	}

	s := &stores{
		mongo:     mdb,
		sql:       db,
		patients:  database.NewMongoPatientRepository(mdb, cfg.PatientCollection, cfg.Location(), logger),
		legacy:    database.NewMongoLegacyPatientRepository(mdb, cfg.LegacyPatientCollection),
		statusLog: database.NewStatusChangeRepository(db),
		reports:   database.NewReportRepository(db),
	}
	return s, nil
}

// prepare creates the Postgres tables and Mongo indexes when missing.
func (s *stores) prepare(ctx context.Context) error {
	if err := database.EnsureSchema(ctx, s.sql); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	if err := database.EnsurePatientIndexes(ctx, s.patients.Coll); err != nil {
		return fmt.Errorf("failed to ensure patient indexes: %w", err)
	}
	return nil
}

func (s *stores) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.mongo.Client().Disconnect(ctx)
	_ = s.sql.Close()
}

func newMailer(cfg *config.Config) usecase.ReportMailer {
	if !cfg.MailEnabled() {
		return nil
	}
	return mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom)
}

// logNotifier stands in for the messaging adapter when it is not configured.
type logNotifier struct {
	logger zerolog.Logger
}

func (n logNotifier) NotifyAction(ctx context.Context, a entity.ActionNotification) error {
	n.logger.Info().
		Str("patient_id", a.PatientID).
		Str("reason", string(a.Reason)).
		Str("phase", string(a.Phase)).
		Str("due_date", a.DueDate.String()).
		Msg("action notification")
	return nil
}
