package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/dental-funnel/internal/entity"
	"github.com/xavierca1/dental-funnel/internal/pipeline"
)

// MockPatientRepository
type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) patients(args mock.Arguments) ([]*entity.Patient, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Patient), args.Error(1)
}

func (m *MockPatientRepository) FindActive(ctx context.Context) ([]*entity.Patient, error) {
	return m.patients(m.Called(ctx))
}

func (m *MockPatientRepository) FindAll(ctx context.Context) ([]*entity.Patient, error) {
	return m.patients(m.Called(ctx))
}

func (m *MockPatientRepository) FindByCallInRange(ctx context.Context, from, to entity.Date) ([]*entity.Patient, error) {
	return m.patients(m.Called(ctx, from, to))
}

func (m *MockPatientRepository) FindByID(ctx context.Context, id string) (*entity.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Patient), args.Error(1)
}

func (m *MockPatientRepository) FindByPhone(ctx context.Context, phone string) (*entity.Patient, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Patient), args.Error(1)
}

func (m *MockPatientRepository) Save(ctx context.Context, p *entity.Patient) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPatientRepository) UpsertByPhone(ctx context.Context, p *entity.Patient) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPatientRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockStatusLog
type MockStatusLog struct {
	mock.Mock
}

func (m *MockStatusLog) Append(ctx context.Context, c *entity.StatusChange) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockStatusLog) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStatusLog) ListByPatient(ctx context.Context, patientID string) ([]entity.StatusChange, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.StatusChange), args.Error(1)
}

func (m *MockStatusLog) ListSince(ctx context.Context, since time.Time) (map[string][]entity.StatusChange, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]entity.StatusChange), args.Error(1)
}

// MockReportRepository
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Create(ctx context.Context, r *entity.ReportSnapshot) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReportRepository) FindByID(ctx context.Context, id string) (*entity.ReportSnapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReportSnapshot), args.Error(1)
}

func (m *MockReportRepository) FindByPeriod(ctx context.Context, kind entity.PeriodKind, key string) (*entity.ReportSnapshot, error) {
	args := m.Called(ctx, kind, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReportSnapshot), args.Error(1)
}

func (m *MockReportRepository) List(ctx context.Context, kind entity.PeriodKind, limit int) ([]*entity.ReportSnapshot, error) {
	args := m.Called(ctx, kind, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.ReportSnapshot), args.Error(1)
}

func (m *MockReportRepository) UpdateCommentary(ctx context.Context, id, comment string, status entity.ReportStatus) error {
	args := m.Called(ctx, id, comment, status)
	return args.Error(0)
}

func (m *MockReportRepository) UpdateRollup(ctx context.Context, id string, rollup entity.Rollup, refreshedAt time.Time) error {
	args := m.Called(ctx, id, rollup, refreshedAt)
	return args.Error(0)
}

func (m *MockReportRepository) AppendFeedback(ctx context.Context, reportID string, f entity.Feedback) error {
	args := m.Called(ctx, reportID, f)
	return args.Error(0)
}

// MockRollupComputer
type MockRollupComputer struct {
	mock.Mock
}

func (m *MockRollupComputer) Compute(ctx context.Context, period entity.Period) (*entity.Rollup, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Rollup), args.Error(1)
}

// MockQueueProducer
type MockQueueProducer struct {
	mock.Mock
}

func (m *MockQueueProducer) PublishAction(ctx context.Context, n entity.ActionNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockQueueProducer) PublishReportRefresh(ctx context.Context, req entity.ReportRefreshRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockLegacySource
type MockLegacySource struct {
	mock.Mock
}

func (m *MockLegacySource) FindAllLegacy(ctx context.Context) ([]entity.LegacyPatient, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LegacyPatient), args.Error(1)
}

// MockCohortMembers
type MockCohortMembers struct {
	mock.Mock
}

func (m *MockCohortMembers) Members(ctx context.Context, asOf pipeline.AsOf, cohorts ...pipeline.Cohort) (map[pipeline.Cohort][]*entity.Patient, error) {
	args := m.Called(ctx, asOf, cohorts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[pipeline.Cohort][]*entity.Patient), args.Error(1)
}
