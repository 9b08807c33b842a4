// Package pipeline holds the pure evaluation rules of the consultation
// pipeline: callback classification, point-in-time reconstruction, cohort
// membership and rollups. Nothing here performs I/O.
package pipeline

import "github.com/xavierca1/dental-funnel/internal/entity"

// Classification is the callback work state of one patient on one date.
// Applicable is false for terminal patients, whose flags are all false.
type Classification struct {
	Applicable         bool         `json:"applicable"`
	Phase              entity.Phase `json:"phase"`
	Overdue            bool         `json:"overdue"`
	DueToday           bool         `json:"dueToday"`
	Unregistered       bool         `json:"unregistered"`
	ReminderNeeded     bool         `json:"reminderNeeded"`
	ReservedNotVisited bool         `json:"reservedNotVisited"`
}

// Classify compares calendar dates only; the time of day of a callback
// never moves it between overdue and due-today.
func Classify(p *entity.Patient, asOf entity.Date) Classification {
	if p.IsTerminal() {
		return Classification{Phase: entity.PhaseClosed}
	}

	cls := Classification{Applicable: true, Phase: p.CurrentPhase()}
	if cls.Phase == entity.PhaseConsultation {
		cls.ReservedNotVisited = ReservedNotVisited(p, asOf)
		gate := p.Status == entity.StatusCallbackNeeded
		cls.Overdue, cls.DueToday = dueState(p, entity.PhaseConsultation, gate, asOf)

		shouldHaveCallback := p.Status == entity.StatusAbsent ||
			p.Status == entity.StatusPotential ||
			cls.ReservedNotVisited
		cls.Unregistered = shouldHaveCallback && !hasPending(p.CallbackHistory)
		return cls
	}

	gate := p.PostVisitStatus == entity.PostVisitCallbackNeededAgain
	cls.Overdue, cls.DueToday = dueState(p, entity.PhaseVisit, gate, asOf)
	cls.Unregistered = p.PostVisitStatus == entity.PostVisitNone && !hasPending(p.CallbacksFor(entity.PhaseVisit))
	cls.ReminderNeeded = ReminderNeeded(p, asOf)
	return cls
}

// ReservedNotVisited reports a reservation whose date has passed without a
// confirmed visit.
func ReservedNotVisited(p *entity.Patient, asOf entity.Date) bool {
	return p.Status == entity.StatusReserved &&
		!p.VisitConfirmed &&
		p.ReservationDate.Before(asOf)
}

func ReminderNeeded(p *entity.Patient, asOf entity.Date) bool {
	if !p.VisitConfirmed || p.PostVisitStatus != entity.PostVisitTreatmentAgreed {
		return false
	}
	if !p.TreatmentStartDate.Before(asOf) {
		return false
	}
	for _, c := range p.CallbackHistory {
		if c.IsReminder() {
			return false
		}
	}
	return true
}

func dueState(p *entity.Patient, phase entity.Phase, gate bool, asOf entity.Date) (overdue, dueToday bool) {
	if !gate {
		return false, false
	}

	pending := 0
	for _, c := range p.CallbacksFor(phase) {
		if !c.IsPending() || c.ScheduledDate.IsZero() {
			continue
		}
		pending++
		switch {
		case c.ScheduledDate.Before(asOf):
			overdue = true
		case c.ScheduledDate == asOf:
			dueToday = true
		}
	}
	if pending == 0 && p.NextCallbackDate == asOf {
		dueToday = true
	}
	return overdue, dueToday
}

func hasPending(entries []entity.CallbackEntry) bool {
	for _, c := range entries {
		if c.IsPending() {
			return true
		}
	}
	return false
}
