package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func TestNewPatientStartsLogged(t *testing.T) {
	p := NewPatient("Lee Jiwoo", "010-2222-3333", "2024-03-15", now)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, StatusNew, p.Status)
	assert.Equal(t, StageConsulting, p.Stage)
	assert.True(t, p.StatusLogged)
	assert.Equal(t, Date("2024-03-15"), p.CallInDate)
}

func TestChangeStatusRecordsTransition(t *testing.T) {
	p := NewPatient("Lee Jiwoo", "010-2222-3333", "2024-03-15", now)

	changes, err := p.ChangeStatus(StatusReserved, "counselor-1", now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, changes, 1)

	assert.Equal(t, FieldStatus, changes[0].Field)
	assert.Equal(t, "new", changes[0].From)
	assert.Equal(t, "reserved", changes[0].To)
	assert.Equal(t, StageReserved, p.Stage)
	assert.Equal(t, now.Add(time.Hour), p.LastModifiedAt)

	_, err = p.ChangeStatus(StatusNew, "counselor-1", now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPostVisitStatusRequiresVisit(t *testing.T) {
	p := NewPatient("Lee Jiwoo", "010-2222-3333", "2024-03-15", now)

	_, err := p.ChangePostVisitStatus(PostVisitTreatmentAgreed, "", now)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = p.ConfirmVisit("2024-03-15", "", now)
	require.NoError(t, err)

	_, err = p.ChangeStatus(StatusAbsent, "", now)
	assert.ErrorIs(t, err, ErrInvalidTransition, "consultation status is frozen during the visit phase")

	_, err = p.ChangePostVisitStatus(PostVisitTreatmentStarted, "", now)
	require.NoError(t, err)
	assert.Equal(t, Date("2024-03-15"), p.TreatmentStartDate)
	assert.Equal(t, StageTreatment, p.Stage)
}

func TestCloseAndReopenRestorePreviousState(t *testing.T) {
	p := NewPatient("Lee Jiwoo", "010-2222-3333", "2024-03-15", now)
	_, err := p.ChangeStatus(StatusAbsent, "", now)
	require.NoError(t, err)

	changes, err := p.Close("manager", now)
	require.NoError(t, err)
	assert.Len(t, changes, 2)
	assert.True(t, p.IsTerminal())
	assert.Equal(t, StatusAbsent, p.PreviousStatus)

	_, err = p.ChangeStatus(StatusPotential, "", now)
	assert.ErrorIs(t, err, ErrPatientClosed)

	_, err = p.Reopen("manager", now)
	require.NoError(t, err)
	assert.False(t, p.IsTerminal())
	assert.Equal(t, StatusAbsent, p.Status)
	assert.Nil(t, p.CompletedAt)

	_, err = p.Reopen("manager", now)
	assert.ErrorIs(t, err, ErrPatientNotClosed)
}

func TestCloseInVisitPhase(t *testing.T) {
	p := NewPatient("Lee Jiwoo", "010-2222-3333", "2024-03-15", now)
	_, _ = p.ConfirmVisit("2024-03-15", "", now)
	_, _ = p.ChangePostVisitStatus(PostVisitTreatmentAgreed, "", now)

	_, err := p.Close("", now)
	require.NoError(t, err)
	assert.Equal(t, PostVisitClosed, p.PostVisitStatus)
	assert.Equal(t, StageClosed, p.Stage)
	assert.True(t, CanTransition(string(PostVisitClosed), string(PostVisitTreatmentStarted), PhaseVisit))

	_, err = p.ChangePostVisitStatus(PostVisitTreatmentStarted, "", now)
	assert.ErrorIs(t, err, ErrPatientClosed)

	_, err = p.Reopen("", now)
	require.NoError(t, err)
	assert.Equal(t, PostVisitTreatmentAgreed, p.PostVisitStatus)
}

func TestOnlyOnePendingCallbackPerPhase(t *testing.T) {
	p := NewPatient("Lee Jiwoo", "010-2222-3333", "2024-03-15", now)

	first, err := p.AddCallback("2024-03-16", "10:00", "", now)
	require.NoError(t, err)
	assert.False(t, first.IsVisitManagementCallback)
	assert.Equal(t, Date("2024-03-16"), p.NextCallbackDate)

	_, err = p.AddCallback("2024-03-17", "", "", now)
	assert.ErrorIs(t, err, ErrCallbackPending)

	_, err = p.ConfirmVisit("2024-03-16", "", now)
	require.NoError(t, err)
	visitEntry, err := p.AddCallback("2024-03-20", "", "", now)
	require.NoError(t, err, "the visit phase has its own pending slot")
	assert.True(t, visitEntry.IsVisitManagementCallback)

	require.NoError(t, p.CompleteCallback(first.ID, "reached", now))
	assert.ErrorIs(t, p.CompleteCallback(first.ID, "", now), ErrCallbackSettled)
	assert.ErrorIs(t, p.CancelCallback("missing", "", now), ErrCallbackNotFound)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "01012345678", NormalizePhone("010-1234-5678"))
	assert.Equal(t, "01012345678", NormalizePhone("+82 10 1234 5678"))
	assert.Equal(t, "0215771234", NormalizePhone("(02) 1577-1234"))
}
