package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/dental-funnel/internal/entity"
	"github.com/xavierca1/dental-funnel/internal/pipeline"
)

func TestActionSweepPublishesOncePerDay(t *testing.T) {
	cohorts := new(MockCohortMembers)
	publisher := new(MockQueueProducer)

	overdue := patientWith("9001", entity.StatusCallbackNeeded, pendingCallback("cb-1", "2024-03-12"))
	reminder := patientWith("9002", entity.StatusReserved)
	reminder.VisitConfirmed = true
	reminder.PostVisitStatus = entity.PostVisitTreatmentAgreed

	cohorts.On("Members", mock.Anything, mock.Anything, mock.Anything).Return(map[pipeline.Cohort][]*entity.Patient{
		pipeline.CohortOverdue:                    {overdue},
		pipeline.CohortReminderRegistrationNeeded: {reminder},
	}, nil)
	publisher.On("PublishAction", mock.Anything, mock.MatchedBy(func(n entity.ActionNotification) bool {
		return n.PatientID == "9001" && n.Reason == entity.ReasonOverdue && n.DueDate == "2024-03-12"
	})).Return(nil).Once()
	publisher.On("PublishAction", mock.Anything, mock.MatchedBy(func(n entity.ActionNotification) bool {
		return n.PatientID == "9002" && n.Reason == entity.ReasonReminderNeeded && n.Phase == entity.PhaseVisit
	})).Return(nil).Once()

	uc := NewActionSweepUseCase(cohorts, publisher, NewMemoryLedger(), kst, zerolog.Nop())
	uc.Now = fixedNow

	result, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Published[entity.ReasonOverdue])
	assert.Equal(t, 1, result.Published[entity.ReasonReminderNeeded])

	again, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again.Published)
	publisher.AssertNumberOfCalls(t, "PublishAction", 2)
}

func TestActionSweepRetriesFailedPublishes(t *testing.T) {
	cohorts := new(MockCohortMembers)
	publisher := new(MockQueueProducer)
	overdue := patientWith("9003", entity.StatusCallbackNeeded, pendingCallback("cb-1", "2024-03-12"))
	cohorts.On("Members", mock.Anything, mock.Anything, mock.Anything).Return(map[pipeline.Cohort][]*entity.Patient{
		pipeline.CohortOverdue: {overdue},
	}, nil)
	publisher.On("PublishAction", mock.Anything, mock.Anything).Return(errors.New("channel closed")).Once()
	publisher.On("PublishAction", mock.Anything, mock.Anything).Return(nil).Once()

	uc := NewActionSweepUseCase(cohorts, publisher, NewMemoryLedger(), kst, zerolog.Nop())
	uc.Now = fixedNow

	first, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Failed)

	second, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, second.Published[entity.ReasonOverdue])
}

func TestActionSweepPropagatesStoreFailure(t *testing.T) {
	cohorts := new(MockCohortMembers)
	cohorts.On("Members", mock.Anything, mock.Anything, mock.Anything).Return(nil, storeError("failed to load patients", errors.New("timeout")))

	uc := NewActionSweepUseCase(cohorts, new(MockQueueProducer), NewMemoryLedger(), kst, zerolog.Nop())
	uc.Now = fixedNow

	_, err := uc.Execute(context.Background())
	assert.True(t, IsTechnicalError(err))
}

func TestMemoryLedgerForgetsPreviousDays(t *testing.T) {
	ledger := NewMemoryLedger()
	ledger.Mark("2024-03-14|p1|overdue")
	assert.True(t, ledger.Seen("2024-03-14|p1|overdue"))

	ledger.Mark("2024-03-15|p1|overdue")
	assert.False(t, ledger.Seen("2024-03-14|p1|overdue"))
	assert.True(t, ledger.Seen("2024-03-15|p1|overdue"))
}
