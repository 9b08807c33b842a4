package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/xavierca1/dental-funnel/internal/entity"
	"github.com/xavierca1/dental-funnel/internal/usecase"
)

type ReportGenerator interface {
	Generate(ctx context.Context, input usecase.GenerateReportInput) (*entity.ReportSnapshot, bool, error)
}

// ReportScheduler snapshots yesterday's daily rollup every day and the
// previous month's rollup on the first of each month.
type ReportScheduler struct {
	Reports    ReportGenerator
	Mailer     usecase.ReportMailer
	Recipients []string
	At         string
	Loc        *time.Location
	Now        func() time.Time
	Logger     zerolog.Logger
}

func NewReportScheduler(reports ReportGenerator, mailer usecase.ReportMailer, recipients []string, at string, loc *time.Location, logger zerolog.Logger) *ReportScheduler {
	if at == "" {
		at = "07:00"
	}
	return &ReportScheduler{
		Reports:    reports,
		Mailer:     mailer,
		Recipients: recipients,
		At:         at,
		Loc:        loc,
		Now:        time.Now,
		Logger:     logger,
	}
}

func (s *ReportScheduler) Start(ctx context.Context) (*gocron.Scheduler, error) {
	scheduler := gocron.NewScheduler(s.Loc)

	if _, err := scheduler.Every(1).Day().At(s.At).Do(func() {
		if _, err := s.RunDaily(ctx); err != nil {
			s.Logger.Error().Err(err).Msg("daily report snapshot failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule daily report: %w", err)
	}

	if _, err := scheduler.Every(1).Month(1).At(s.At).Do(func() {
		if _, err := s.RunMonthly(ctx); err != nil {
			s.Logger.Error().Err(err).Msg("monthly report snapshot failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule monthly report: %w", err)
	}

	scheduler.StartAsync()
	s.Logger.Info().Str("at", s.At).Str("timezone", s.Loc.String()).Msg("report scheduler started")

	return scheduler, nil
}

// RunDaily snapshots yesterday and mails the digest when it was newly created.
func (s *ReportScheduler) RunDaily(ctx context.Context) (*entity.ReportSnapshot, error) {
	yesterday := entity.DateOf(s.Now(), s.Loc).AddDays(-1)
	return s.run(ctx, entity.PeriodDaily, yesterday.String())
}

func (s *ReportScheduler) RunMonthly(ctx context.Context) (*entity.ReportSnapshot, error) {
	previous, err := entity.PreviousMonth(entity.DateOf(s.Now(), s.Loc).Month())
	if err != nil {
		return nil, err
	}
	return s.run(ctx, entity.PeriodMonthly, previous)
}

func (s *ReportScheduler) run(ctx context.Context, kind entity.PeriodKind, period string) (*entity.ReportSnapshot, error) {
	report, created, err := s.Reports.Generate(ctx, usecase.GenerateReportInput{
		Kind:   string(kind),
		Period: period,
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info().
		Str("kind", string(kind)).
		Str("period", period).
		Str("report_id", report.ID).
		Bool("created", created).
		Msg("report snapshot generated")

	if !created || s.Mailer == nil || len(s.Recipients) == 0 {
		return report, nil
	}
	if err := s.Mailer.SendReportDigest(s.Recipients, report); err != nil {
		// the snapshot stands even when the digest cannot be delivered
		s.Logger.Error().Err(err).Str("report_id", report.ID).Msg("failed to send report digest")
	}
	return report, nil
}
