package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

func at(day entity.Date, hour int) time.Time {
	return day.Midnight(seoul).Add(time.Duration(hour) * time.Hour)
}

func TestReconstructUnchangedSinceTargetUsesCurrentState(t *testing.T) {
	p := consultationPatient(entity.StatusCallbackNeeded, scheduled("2024-03-09", false))
	p.LastModifiedAt = at("2024-03-02", 9)

	snap := Reconstruct(p, AtMidnight("2024-03-10", seoul), nil)

	require.True(t, snap.Exists)
	assert.Equal(t, SourceCurrent, snap.Source)
	assert.Equal(t, entity.StatusCallbackNeeded, snap.Patient.Status)
	assert.Contains(t, snap.Cohorts, CohortOverdueConsultation)
}

func TestReconstructHeuristicRewindsReservation(t *testing.T) {
	cb := scheduled("2024-03-09", false)
	done := at("2024-03-10", 15)
	cb.Status = entity.CallbackCompleted
	cb.CompletedAt = &done

	p := consultationPatient(entity.StatusReserved, cb)
	p.ReservationDate = "2024-03-20"
	p.LastModifiedAt = at("2024-03-10", 15)

	snap := Reconstruct(p, AtMidnight("2024-03-10", seoul), nil)

	assert.Equal(t, SourceHeuristic, snap.Source)
	assert.Equal(t, entity.StatusCallbackNeeded, snap.Patient.Status)
	assert.Equal(t, entity.CallbackScheduled, snap.Patient.CallbackHistory[0].Status)
	assert.Contains(t, snap.Cohorts, CohortOverdueConsultation)

	assert.Equal(t, entity.StatusReserved, p.Status, "stored record must not change")
	assert.Equal(t, entity.CallbackCompleted, p.CallbackHistory[0].Status)
}

func TestReconstructHeuristicRewindsTreatmentStarted(t *testing.T) {
	p := visitPatient(entity.PostVisitTreatmentStarted)
	p.LastModifiedAt = at("2024-03-10", 11)

	snap := Reconstruct(p, AtMidnight("2024-03-10", seoul), nil)

	assert.Equal(t, entity.PostVisitNone, snap.Patient.PostVisitStatus)
	assert.Contains(t, snap.Cohorts, CohortNoStatusVisit)
}

func TestReconstructHeuristicRewindsVisitConfirmedOnTarget(t *testing.T) {
	p := visitPatient(entity.PostVisitNone)
	p.VisitDate = "2024-03-10"
	p.LastModifiedAt = at("2024-03-10", 16)

	snap := Reconstruct(p, AtMidnight("2024-03-10", seoul), nil)

	assert.False(t, snap.Patient.VisitConfirmed)
	assert.Equal(t, entity.StatusReserved, snap.Patient.Status)
	assert.Equal(t, entity.PhaseConsultation, snap.Classification.Phase)
}

func TestReconstructHeuristicReopensRecordClosedOnTarget(t *testing.T) {
	p := consultationPatient(entity.StatusClosed)
	p.PreviousStatus = entity.StatusAbsent
	closedAt := at("2024-03-10", 18)
	p.IsCompleted = true
	p.CompletedAt = &closedAt
	p.LastModifiedAt = closedAt

	snap := Reconstruct(p, AtMidnight("2024-03-10", seoul), nil)

	assert.False(t, snap.Patient.IsTerminal())
	assert.Equal(t, entity.StatusAbsent, snap.Patient.Status)
	assert.Contains(t, snap.Cohorts, CohortAbsent)
	assert.NotContains(t, snap.Cohorts, CohortClosed)
}

func TestReconstructKeepsRecordsClosedBeforeTarget(t *testing.T) {
	p := consultationPatient(entity.StatusClosed)
	closedAt := at("2024-03-05", 18)
	p.IsCompleted = true
	p.CompletedAt = &closedAt
	p.LastModifiedAt = at("2024-03-11", 9)

	snap := Reconstruct(p, AtMidnight("2024-03-10", seoul), nil)

	assert.Equal(t, []Cohort{CohortClosed}, snap.Cohorts)
}

func TestReconstructDropsCallbacksCreatedAfterMidnight(t *testing.T) {
	late := scheduled("2024-03-12", false)
	late.CreatedAt = at("2024-03-10", 10)
	p := consultationPatient(entity.StatusAbsent, late)
	p.NextCallbackDate = "2024-03-12"
	p.LastModifiedAt = at("2024-03-01", 10)

	snap := Reconstruct(p, AtMidnight("2024-03-10", seoul), nil)

	assert.Empty(t, snap.Patient.CallbackHistory)
	assert.Empty(t, snap.Patient.NextCallbackDate)
	assert.True(t, snap.Classification.Unregistered)
}

func TestReconstructPatientCreatedOnTargetDidNotExist(t *testing.T) {
	p := consultationPatient(entity.StatusNew)
	p.CreatedAt = at("2024-03-10", 9)

	snap := Reconstruct(p, AtMidnight("2024-03-10", seoul), nil)

	assert.False(t, snap.Exists)
	assert.Empty(t, snap.Cohorts)
}

func TestReconstructFromLogIsExact(t *testing.T) {
	p := consultationPatient(entity.StatusReserved, scheduled("2024-03-09", false))
	p.StatusLogged = true
	p.LastModifiedAt = at("2024-03-11", 9)

	changes := []entity.StatusChange{
		{PatientID: "p-1", Field: entity.FieldStatus, From: "potential", To: "absent", ChangedAt: at("2024-03-10", 9)},
		{PatientID: "p-1", Field: entity.FieldStatus, From: "absent", To: "reserved", ChangedAt: at("2024-03-11", 9)},
		{PatientID: "p-1", Field: entity.FieldStatus, From: "new", To: "potential", ChangedAt: at("2024-03-02", 9)},
		{PatientID: "other", Field: entity.FieldStatus, From: "vip", To: "closed", ChangedAt: at("2024-03-10", 9)},
	}

	snap := Reconstruct(p, AtMidnight("2024-03-10", seoul), changes)

	assert.Equal(t, SourceLog, snap.Source)
	assert.Equal(t, entity.StatusPotential, snap.Patient.Status)

	snap = Reconstruct(p, AtMidnight("2024-03-11", seoul), changes)
	assert.Equal(t, entity.StatusAbsent, snap.Patient.Status)

	snap = Reconstruct(p, AtMidnight("2024-03-12", seoul), changes)
	assert.Equal(t, SourceCurrent, snap.Source)
	assert.Equal(t, entity.StatusReserved, snap.Patient.Status)
}

func TestReconstructFromLogRewindsPhaseAndClosure(t *testing.T) {
	p := visitPatient(entity.PostVisitClosed)
	p.StatusLogged = true
	closedAt := at("2024-03-10", 17)
	p.IsCompleted = true
	p.CompletedAt = &closedAt

	changes := []entity.StatusChange{
		{PatientID: "p-1", Field: entity.FieldVisitConfirmed, From: "false", To: "true", ChangedAt: at("2024-03-10", 10)},
		{PatientID: "p-1", Field: entity.FieldPostVisitStatus, From: "", To: "closed", ChangedAt: closedAt},
		{PatientID: "p-1", Field: entity.FieldCompleted, From: "false", To: "true", ChangedAt: closedAt},
	}

	snap := Reconstruct(p, AtMidnight("2024-03-10", seoul), changes)

	assert.False(t, snap.Patient.VisitConfirmed)
	assert.False(t, snap.Patient.IsTerminal())
	assert.Equal(t, entity.StatusReserved, snap.Patient.Status)
}
