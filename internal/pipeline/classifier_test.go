package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

var seoul = time.FixedZone("KST", 9*60*60)

const today entity.Date = "2024-03-15"

func consultationPatient(status entity.ConsultStatus, callbacks ...entity.CallbackEntry) *entity.Patient {
	return &entity.Patient{
		ID:              "p-1",
		Name:            "Kim Minji",
		Phone:           "010-1234-5678",
		Status:          status,
		CallbackHistory: callbacks,
		CallInDate:      "2024-03-01",
		CreatedAt:       time.Date(2024, 3, 1, 10, 0, 0, 0, seoul),
		LastModifiedAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, seoul),
	}
}

func visitPatient(status entity.PostVisitStatus, callbacks ...entity.CallbackEntry) *entity.Patient {
	p := consultationPatient(entity.StatusReserved, callbacks...)
	p.VisitConfirmed = true
	p.VisitDate = "2024-03-05"
	p.PostVisitStatus = status
	return p
}

func scheduled(date entity.Date, visit bool) entity.CallbackEntry {
	return entity.CallbackEntry{
		ID:                        "cb-" + string(date),
		ScheduledDate:             date,
		Status:                    entity.CallbackScheduled,
		IsVisitManagementCallback: visit,
		CreatedAt:                 time.Date(2024, 3, 2, 9, 0, 0, 0, seoul),
	}
}

func TestClassifyScheduledTodayIsDueTodayNeverOverdue(t *testing.T) {
	for _, tm := range []string{"", "00:00", "09:30", "23:59"} {
		cb := scheduled(today, false)
		cb.ScheduledTime = tm
		p := consultationPatient(entity.StatusCallbackNeeded, cb)

		cls := Classify(p, today)

		assert.True(t, cls.DueToday, "time %q", tm)
		assert.False(t, cls.Overdue, "time %q", tm)
	}
}

func TestClassifyOverdueConsultation(t *testing.T) {
	p := consultationPatient(entity.StatusCallbackNeeded, scheduled(today.AddDays(-1), false))

	cls := Classify(p, today)

	assert.True(t, cls.Applicable)
	assert.Equal(t, entity.PhaseConsultation, cls.Phase)
	assert.True(t, cls.Overdue)
	assert.False(t, cls.DueToday)
	assert.False(t, cls.Unregistered)
}

func TestClassifyOverdueRequiresActiveStatus(t *testing.T) {
	p := consultationPatient(entity.StatusPotential, scheduled(today.AddDays(-3), false))

	cls := Classify(p, today)

	assert.False(t, cls.Overdue)
	assert.False(t, cls.Unregistered, "a pending entry exists")
}

func TestClassifyIgnoresSettledEntries(t *testing.T) {
	done := scheduled(today.AddDays(-2), false)
	done.Status = entity.CallbackCompleted
	cancelled := scheduled(today.AddDays(-1), false)
	cancelled.Status = entity.CallbackCancelled
	p := consultationPatient(entity.StatusCallbackNeeded, done, cancelled)

	cls := Classify(p, today)

	assert.False(t, cls.Overdue)
	assert.False(t, cls.DueToday)
}

func TestClassifyDueTodayFromNextCallbackDate(t *testing.T) {
	p := consultationPatient(entity.StatusCallbackNeeded)
	p.NextCallbackDate = today

	assert.True(t, Classify(p, today).DueToday)

	p.CallbackHistory = []entity.CallbackEntry{scheduled(today.AddDays(2), false)}
	assert.False(t, Classify(p, today).DueToday, "a scheduled entry takes precedence over the next-date field")
}

func TestClassifyUnregisteredConsultation(t *testing.T) {
	tests := []struct {
		name   string
		status entity.ConsultStatus
		setup  func(*entity.Patient)
		want   bool
	}{
		{name: "absent without callback", status: entity.StatusAbsent, want: true},
		{name: "potential without callback", status: entity.StatusPotential, want: true},
		{name: "reservation passed without visit", status: entity.StatusReserved, setup: func(p *entity.Patient) {
			p.ReservationDate = today.AddDays(-1)
		}, want: true},
		{name: "reservation today", status: entity.StatusReserved, setup: func(p *entity.Patient) {
			p.ReservationDate = today
		}, want: false},
		{name: "absent with pending callback", status: entity.StatusAbsent, setup: func(p *entity.Patient) {
			p.CallbackHistory = []entity.CallbackEntry{scheduled(today.AddDays(1), false)}
		}, want: false},
		{name: "new patient", status: entity.StatusNew, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := consultationPatient(tt.status)
			if tt.setup != nil {
				tt.setup(p)
			}
			assert.Equal(t, tt.want, Classify(p, today).Unregistered)
		})
	}
}

func TestClassifyVisitPhaseOnlyLooksAtVisitManagementEntries(t *testing.T) {
	carried := scheduled(today.AddDays(-5), false)
	p := visitPatient(entity.PostVisitNone, carried)

	cls := Classify(p, today)

	assert.Equal(t, entity.PhaseVisit, cls.Phase)
	assert.True(t, cls.Unregistered, "consultation entry must not satisfy the visit phase")

	p.CallbackHistory = append(p.CallbackHistory, scheduled(today.AddDays(1), true))
	assert.False(t, Classify(p, today).Unregistered)
}

func TestClassifyOverdueVisit(t *testing.T) {
	p := visitPatient(entity.PostVisitCallbackNeededAgain,
		scheduled(today.AddDays(-1), true),
		scheduled(today.AddDays(-10), false),
	)

	cls := Classify(p, today)

	assert.True(t, cls.Overdue)
	assert.False(t, cls.DueToday)
}

func TestClassifyReminderNeeded(t *testing.T) {
	p := visitPatient(entity.PostVisitTreatmentAgreed)
	p.TreatmentStartDate = today.AddDays(-1)
	assert.True(t, Classify(p, today).ReminderNeeded)

	p.TreatmentStartDate = today
	assert.False(t, Classify(p, today).ReminderNeeded, "start date must be strictly before")

	p.TreatmentStartDate = ""
	assert.False(t, Classify(p, today).ReminderNeeded, "missing start date is not a member")

	p.TreatmentStartDate = today.AddDays(-4)
	reminder := scheduled(today.AddDays(1), true)
	reminder.Notes = entity.ReminderMarker + " call about first appointment"
	reminder.Status = entity.CallbackCompleted
	p.CallbackHistory = []entity.CallbackEntry{reminder}
	assert.False(t, Classify(p, today).ReminderNeeded)
}

func TestClassifyTerminalShortCircuits(t *testing.T) {
	p := consultationPatient(entity.StatusCallbackNeeded, scheduled(today.AddDays(-1), false))
	p.IsCompleted = true

	cls := Classify(p, today)

	assert.False(t, cls.Applicable)
	assert.Equal(t, entity.PhaseClosed, cls.Phase)
	assert.False(t, cls.Overdue || cls.DueToday || cls.Unregistered || cls.ReminderNeeded)
}
