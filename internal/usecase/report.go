package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

type RollupComputer interface {
	Compute(ctx context.Context, period entity.Period) (*entity.Rollup, error)
}

// ReportUseCase manages persisted rollup snapshots. A snapshot's figures only
// change through Refresh.
type ReportUseCase struct {
	Reports entity.ReportRepository
	Rollups RollupComputer
	Queue   ReportRefreshPublisher
	Now     func() time.Time
	Logger  zerolog.Logger
}

func NewReportUseCase(reports entity.ReportRepository, rollups RollupComputer, queue ReportRefreshPublisher, logger zerolog.Logger) *ReportUseCase {
	return &ReportUseCase{
		Reports: reports,
		Rollups: rollups,
		Queue:   queue,
		Now:     time.Now,
		Logger:  logger,
	}
}

func parseKind(kind string) (entity.PeriodKind, error) {
	switch entity.PeriodKind(kind) {
	case entity.PeriodDaily, entity.PeriodMonthly:
		return entity.PeriodKind(kind), nil
	}
	return "", &DomainError{Code: CodeValidation, Message: "kind must be daily or monthly"}
}

// Generate returns the snapshot of a period, computing and storing it the
// first time. The boolean reports whether a new snapshot was created.
func (uc *ReportUseCase) Generate(ctx context.Context, input GenerateReportInput) (*entity.ReportSnapshot, bool, error) {
	kind, err := parseKind(input.Kind)
	if err != nil {
		return nil, false, err
	}
	period, err := entity.ParsePeriod(kind, input.Period)
	if err != nil {
		return nil, false, domainFromEntity(entity.ErrInvalidPeriod)
	}

	existing, err := uc.Reports.FindByPeriod(ctx, kind, period.Key)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, entity.ErrReportNotFound) {
		return nil, false, storeError("failed to look up report", err)
	}

	rollup, err := uc.Rollups.Compute(ctx, period)
	if err != nil {
		return nil, false, err
	}

	now := uc.Now()
	report := &entity.ReportSnapshot{
		ID:          uuid.New().String(),
		Kind:        kind,
		PeriodKey:   period.Key,
		Status:      entity.ReportDraft,
		Rollup:      *rollup,
		Feedback:    []entity.Feedback{},
		GeneratedAt: now,
		UpdatedAt:   now,
	}
	if err := uc.Reports.Create(ctx, report); err != nil {
		if errors.Is(err, entity.ErrReportExists) {
			// lost a race with another generator
			existing, findErr := uc.Reports.FindByPeriod(ctx, kind, period.Key)
			if findErr != nil {
				return nil, false, domainFromEntity(findErr)
			}
			return existing, false, nil
		}
		return nil, false, storeError("failed to save report", err)
	}

	uc.Logger.Info().Str("report_id", report.ID).Str("kind", string(kind)).Str("period", period.Key).Msg("report generated")
	return report, true, nil
}

func (uc *ReportUseCase) Get(ctx context.Context, id string) (*entity.ReportSnapshot, error) {
	report, err := uc.Reports.FindByID(ctx, id)
	if err != nil {
		return nil, domainFromEntity(err)
	}
	return report, nil
}

func (uc *ReportUseCase) List(ctx context.Context, kind string, limit int) ([]*entity.ReportSnapshot, error) {
	var k entity.PeriodKind
	if kind != "" {
		parsed, err := parseKind(kind)
		if err != nil {
			return nil, err
		}
		k = parsed
	}
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	reports, err := uc.Reports.List(ctx, k, limit)
	if err != nil {
		return nil, storeError("failed to list reports", err)
	}
	return reports, nil
}

func (uc *ReportUseCase) UpdateCommentary(ctx context.Context, id string, input UpdateCommentaryInput) (*entity.ReportSnapshot, error) {
	report, err := uc.Reports.FindByID(ctx, id)
	if err != nil {
		return nil, domainFromEntity(err)
	}

	status := report.Status
	if input.Status != "" {
		status = entity.ReportStatus(input.Status)
		if !status.Valid() {
			return nil, &DomainError{Code: CodeValidation, Message: "status must be draft, submitted or approved"}
		}
	}

	if err := uc.Reports.UpdateCommentary(ctx, id, input.ManagerComment, status); err != nil {
		return nil, domainFromEntity(err)
	}
	report.ManagerComment = input.ManagerComment
	report.Status = status
	report.UpdatedAt = uc.Now()
	return report, nil
}

func (uc *ReportUseCase) AddFeedback(ctx context.Context, reportID string, input AddFeedbackInput) (*entity.Feedback, error) {
	var errs []ValidationError
	if strings.TrimSpace(input.Author) == "" {
		errs = append(errs, ValidationError{"author", "is required"})
	}
	if strings.TrimSpace(input.Content) == "" {
		errs = append(errs, ValidationError{"content", "is required"})
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	f := entity.Feedback{
		ID:        uuid.New().String(),
		Author:    strings.TrimSpace(input.Author),
		Content:   input.Content,
		CreatedAt: uc.Now(),
	}
	if err := uc.Reports.AppendFeedback(ctx, reportID, f); err != nil {
		return nil, domainFromEntity(err)
	}
	return &f, nil
}

// Refresh recomputes the snapshot's rollup. Commentary and feedback are kept.
func (uc *ReportUseCase) Refresh(ctx context.Context, id string) (*entity.ReportSnapshot, error) {
	report, err := uc.Reports.FindByID(ctx, id)
	if err != nil {
		return nil, domainFromEntity(err)
	}
	period, err := entity.ParsePeriod(report.Kind, report.PeriodKey)
	if err != nil {
		return nil, domainFromEntity(err)
	}

	rollup, err := uc.Rollups.Compute(ctx, period)
	if err != nil {
		return nil, err
	}
	now := uc.Now()
	if err := uc.Reports.UpdateRollup(ctx, id, *rollup, now); err != nil {
		return nil, domainFromEntity(err)
	}

	report.Rollup = *rollup
	report.RefreshedAt = &now
	report.UpdatedAt = now
	uc.Logger.Info().Str("report_id", id).Msg("report refreshed")
	return report, nil
}

// RequestRefresh queues a refresh for the report worker.
func (uc *ReportUseCase) RequestRefresh(ctx context.Context, id, requestedBy string) error {
	if _, err := uc.Reports.FindByID(ctx, id); err != nil {
		return domainFromEntity(err)
	}
	err := uc.Queue.PublishReportRefresh(ctx, entity.ReportRefreshRequest{ReportID: id, RequestedBy: requestedBy})
	if err != nil {
		return &TechnicalError{Code: CodeQueue, Message: "failed to queue report refresh: " + err.Error(), Err: err}
	}
	return nil
}

// RefreshReport satisfies the queue consumer.
func (uc *ReportUseCase) RefreshReport(ctx context.Context, req entity.ReportRefreshRequest) error {
	_, err := uc.Refresh(ctx, req.ReportID)
	return err
}
