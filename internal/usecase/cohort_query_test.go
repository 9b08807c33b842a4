package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/dental-funnel/internal/entity"
	"github.com/xavierca1/dental-funnel/internal/pipeline"
)

var kst = time.FixedZone("KST", 9*60*60)

func fixedNow() time.Time {
	return time.Date(2024, 3, 15, 10, 0, 0, 0, kst)
}

func day(d entity.Date, hour int) time.Time {
	return d.Midnight(kst).Add(time.Duration(hour) * time.Hour)
}

func newEngine(patients *MockPatientRepository, log *MockStatusLog) *CohortEngine {
	e := NewCohortEngine(patients, log, kst, 4, zerolog.Nop())
	e.Now = fixedNow
	return e
}

func patientWith(id string, status entity.ConsultStatus, callbacks ...entity.CallbackEntry) *entity.Patient {
	return &entity.Patient{
		ID:              id,
		Name:            "Patient " + id,
		Phone:           "010-0000-" + id,
		Status:          status,
		CallbackHistory: callbacks,
		CallInDate:      "2024-03-01",
		CreatedAt:       day("2024-03-01", 9),
		LastModifiedAt:  day("2024-03-01", 9),
	}
}

func pendingCallback(id string, date entity.Date) entity.CallbackEntry {
	return entity.CallbackEntry{
		ID:            id,
		ScheduledDate: date,
		Status:        entity.CallbackScheduled,
		CreatedAt:     day("2024-03-05", 11),
	}
}

func TestQueryOverdueConsultationScenario(t *testing.T) {
	patients := new(MockPatientRepository)
	overdue := patientWith("1001", entity.StatusCallbackNeeded, pendingCallback("cb-1", "2024-03-14"))
	nameless := patientWith("1002", entity.StatusCallbackNeeded, pendingCallback("cb-2", "2024-03-14"))
	nameless.Name = ""
	patients.On("FindActive", mock.Anything).Return([]*entity.Patient{overdue, nameless}, nil)

	engine := newEngine(patients, new(MockStatusLog))

	result, err := engine.Query(context.Background(), "overdue-consultation", "")
	require.NoError(t, err)
	assert.Equal(t, ModeLive, result.Mode)
	assert.Equal(t, entity.Date("2024-03-15"), result.Date)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "1001", result.Patients[0].ID)

	today, err := engine.Query(context.Background(), "today-scheduled-consultation", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, 0, today.Total)
}

func TestQueryVisitWithoutStatusScenario(t *testing.T) {
	patients := new(MockPatientRepository)
	p := patientWith("2001", entity.StatusReserved)
	p.VisitConfirmed = true
	p.VisitDate = "2024-03-10"
	patients.On("FindActive", mock.Anything).Return([]*entity.Patient{p}, nil)

	engine := newEngine(patients, new(MockStatusLog))

	for _, name := range []string{"no-status-visit", "callback-unregistered-visit"} {
		result, err := engine.Query(context.Background(), name, "")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Total, name)
	}
}

func TestQueryUnknownCohort(t *testing.T) {
	engine := newEngine(new(MockPatientRepository), new(MockStatusLog))

	_, err := engine.Query(context.Background(), "vip-lounge", "")

	var de *DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, CodeUnknownCohort, de.Code)
}

func TestQueryInvalidDate(t *testing.T) {
	engine := newEngine(new(MockPatientRepository), new(MockStatusLog))

	_, err := engine.Query(context.Background(), "absent", "15/03")

	assert.True(t, IsDomainError(err))
}

func TestQueryStoreFailureAbortsWholeQuery(t *testing.T) {
	patients := new(MockPatientRepository)
	patients.On("FindActive", mock.Anything).Return(nil, errors.New("connection refused"))

	engine := newEngine(patients, new(MockStatusLog))

	result, err := engine.Query(context.Background(), "absent", "")
	assert.Nil(t, result)
	assert.True(t, IsTechnicalError(err))
}

func TestQueryClosedLoadsTerminalPatients(t *testing.T) {
	patients := new(MockPatientRepository)
	closed := patientWith("3001", entity.StatusClosed)
	closed.IsCompleted = true
	active := patientWith("3002", entity.StatusAbsent)
	patients.On("FindAll", mock.Anything).Return([]*entity.Patient{closed, active}, nil)

	engine := newEngine(patients, new(MockStatusLog))

	result, err := engine.Query(context.Background(), "closed", "")
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "3001", result.Patients[0].ID)
	patients.AssertNotCalled(t, "FindActive", mock.Anything)
}

func TestQueryPastDateReconstructsFromLog(t *testing.T) {
	patients := new(MockPatientRepository)
	statusLog := new(MockStatusLog)

	completedAt := day("2024-03-12", 14)
	cb := pendingCallback("cb-1", "2024-03-09")
	cb.Status = entity.CallbackCompleted
	cb.CompletedAt = &completedAt

	p := patientWith("4001", entity.StatusReserved, cb)
	p.StatusLogged = true
	p.LastModifiedAt = completedAt

	later := patientWith("4002", entity.StatusCallbackNeeded, pendingCallback("cb-9", "2024-03-09"))
	later.CreatedAt = day("2024-03-12", 9)
	later.CallInDate = "2024-03-12"

	patients.On("FindAll", mock.Anything).Return([]*entity.Patient{p, later}, nil)
	statusLog.On("ListSince", mock.Anything, day("2024-03-10", 0)).Return(map[string][]entity.StatusChange{
		"4001": {{ID: "c1", PatientID: "4001", Field: entity.FieldStatus, From: "callback_needed", To: "reserved", ChangedAt: completedAt}},
	}, nil)

	engine := newEngine(patients, statusLog)

	result, err := engine.Query(context.Background(), "overdue-consultation", "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, ModeHistorical, result.Mode)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "4001", result.Patients[0].ID)
	assert.Equal(t, entity.StatusCallbackNeeded, result.Patients[0].Status)
	assert.Equal(t, pipeline.SourceLog, result.Patients[0].Source)

	assert.Equal(t, entity.StatusReserved, p.Status, "stored record is never modified")
}

func TestMembersGroupsByCohort(t *testing.T) {
	patients := new(MockPatientRepository)
	overdue := patientWith("5001", entity.StatusCallbackNeeded, pendingCallback("cb-1", "2024-03-01"))
	dueToday := patientWith("5002", entity.StatusCallbackNeeded, pendingCallback("cb-2", "2024-03-15"))
	patients.On("FindActive", mock.Anything).Return([]*entity.Patient{overdue, dueToday}, nil)

	engine := newEngine(patients, new(MockStatusLog))

	members, err := engine.Members(context.Background(), pipeline.NewAsOf(fixedNow(), kst), pipeline.CohortOverdue, pipeline.CohortTodayScheduled)
	require.NoError(t, err)
	require.Len(t, members[pipeline.CohortOverdue], 1)
	require.Len(t, members[pipeline.CohortTodayScheduled], 1)
	assert.Equal(t, "5001", members[pipeline.CohortOverdue][0].ID)
	assert.Equal(t, "5002", members[pipeline.CohortTodayScheduled][0].ID)
}
