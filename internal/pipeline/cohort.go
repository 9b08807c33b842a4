package pipeline

import (
	"time"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

type Cohort string

const (
	CohortOverdue                     Cohort = "overdue"
	CohortOverdueConsultation         Cohort = "overdue-consultation"
	CohortOverdueVisit                Cohort = "overdue-visit"
	CohortTodayScheduled              Cohort = "today-scheduled"
	CohortTodayScheduledConsultation  Cohort = "today-scheduled-consultation"
	CohortTodayScheduledVisit         Cohort = "today-scheduled-visit"
	CohortUnregistered                Cohort = "callback-unregistered"
	CohortUnregisteredConsultation    Cohort = "callback-unregistered-consultation"
	CohortUnregisteredVisit           Cohort = "callback-unregistered-visit"
	CohortReminderRegistrationNeeded  Cohort = "reminder-registration-needed"
	CohortReminderScheduled           Cohort = "reminder-scheduled"
	CohortCallbackNeeded              Cohort = "callback-needed"
	CohortAbsent                      Cohort = "absent"
	CohortNoStatusVisit               Cohort = "no-status-visit"
	CohortTreatmentConsentNotStarted  Cohort = "treatment-consent-not-started"
	CohortNeedsCallbackVisit          Cohort = "needs-callback-visit"
	CohortNewPatients                 Cohort = "new-patients"
	CohortClosed                      Cohort = "closed"
)

// Cohorts lists every queryable cohort in display order. The generic
// overdue, today-scheduled and callback-unregistered cohorts overlap their
// split forms on purpose.
var Cohorts = []Cohort{
	CohortOverdue,
	CohortOverdueConsultation,
	CohortOverdueVisit,
	CohortTodayScheduled,
	CohortTodayScheduledConsultation,
	CohortTodayScheduledVisit,
	CohortUnregistered,
	CohortUnregisteredConsultation,
	CohortUnregisteredVisit,
	CohortReminderRegistrationNeeded,
	CohortReminderScheduled,
	CohortCallbackNeeded,
	CohortAbsent,
	CohortNoStatusVisit,
	CohortTreatmentConsentNotStarted,
	CohortNeedsCallbackVisit,
	CohortNewPatients,
	CohortClosed,
}

// StatisticCohorts are the cohorts reported by the daily processing statistic.
var StatisticCohorts = []Cohort{
	CohortOverdueConsultation,
	CohortOverdueVisit,
	CohortTodayScheduledConsultation,
	CohortTodayScheduledVisit,
	CohortUnregisteredConsultation,
	CohortUnregisteredVisit,
	CohortAbsent,
	CohortReminderRegistrationNeeded,
}

func ParseCohort(s string) (Cohort, bool) {
	for _, c := range Cohorts {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// NeedsTerminal reports whether evaluating c requires closed records.
func (c Cohort) NeedsTerminal() bool { return c == CohortClosed }

type memberView struct {
	p    *entity.Patient
	cls  Classification
	asOf entity.Date
}

func (v memberView) consultation() bool { return v.cls.Phase == entity.PhaseConsultation }
func (v memberView) visit() bool        { return v.cls.Phase == entity.PhaseVisit }

var predicates = map[Cohort]func(memberView) bool{
	CohortOverdue:                    func(v memberView) bool { return v.cls.Overdue },
	CohortOverdueConsultation:        func(v memberView) bool { return v.cls.Overdue && v.consultation() },
	CohortOverdueVisit:               func(v memberView) bool { return v.cls.Overdue && v.visit() },
	CohortTodayScheduled:             func(v memberView) bool { return v.cls.DueToday },
	CohortTodayScheduledConsultation: func(v memberView) bool { return v.cls.DueToday && v.consultation() },
	CohortTodayScheduledVisit:        func(v memberView) bool { return v.cls.DueToday && v.visit() },
	CohortUnregistered:               func(v memberView) bool { return v.cls.Unregistered },
	CohortUnregisteredConsultation:   func(v memberView) bool { return v.cls.Unregistered && v.consultation() },
	CohortUnregisteredVisit:          func(v memberView) bool { return v.cls.Unregistered && v.visit() },
	CohortReminderRegistrationNeeded: func(v memberView) bool { return v.cls.ReminderNeeded },
	CohortReminderScheduled: func(v memberView) bool {
		if !v.visit() || v.p.PostVisitStatus != entity.PostVisitTreatmentAgreed {
			return false
		}
		for _, c := range v.p.CallbackHistory {
			if c.IsPending() && c.IsReminder() {
				return true
			}
		}
		return false
	},
	CohortCallbackNeeded: func(v memberView) bool {
		return v.consultation() && v.p.Status == entity.StatusCallbackNeeded
	},
	CohortAbsent: func(v memberView) bool {
		return v.consultation() && v.p.Status == entity.StatusAbsent
	},
	CohortNoStatusVisit: func(v memberView) bool {
		return v.visit() && v.p.PostVisitStatus == entity.PostVisitNone
	},
	CohortTreatmentConsentNotStarted: func(v memberView) bool {
		return v.visit() &&
			v.p.PostVisitStatus == entity.PostVisitTreatmentAgreed &&
			!v.p.TreatmentStartDate.After(v.asOf)
	},
	CohortNeedsCallbackVisit: func(v memberView) bool {
		return v.visit() && v.p.PostVisitStatus == entity.PostVisitCallbackNeededAgain
	},
	CohortNewPatients: func(v memberView) bool {
		return v.p.CallInDate.Month() == v.asOf.Month() && !v.p.CallInDate.After(v.asOf)
	},
}

// Member reports whether p belongs to c on asOf given its classification.
// Terminal patients belong to the closed cohort and nothing else.
func (c Cohort) Member(p *entity.Patient, cls Classification, asOf entity.Date) bool {
	if p.IsTerminal() {
		return c == CohortClosed
	}
	pred, ok := predicates[c]
	if !ok {
		return false
	}
	return pred(memberView{p: p, cls: cls, asOf: asOf})
}

func Memberships(p *entity.Patient, cls Classification, asOf entity.Date) []Cohort {
	var out []Cohort
	for _, c := range Cohorts {
		if c.Member(p, cls, asOf) {
			out = append(out, c)
		}
	}
	return out
}

type processedRule int

const (
	ruleNever processedRule = iota
	ruleCallback
	ruleRegistration
	ruleReminder
)

var processedRules = map[Cohort]processedRule{
	CohortOverdue:                    ruleCallback,
	CohortOverdueConsultation:        ruleCallback,
	CohortOverdueVisit:               ruleCallback,
	CohortTodayScheduled:             ruleCallback,
	CohortTodayScheduledConsultation: ruleCallback,
	CohortTodayScheduledVisit:        ruleCallback,
	CohortCallbackNeeded:             ruleCallback,
	CohortAbsent:                     ruleCallback,
	CohortNeedsCallbackVisit:         ruleCallback,
	CohortUnregistered:               ruleRegistration,
	CohortUnregisteredConsultation:   ruleRegistration,
	CohortUnregisteredVisit:          ruleRegistration,
	CohortNoStatusVisit:              ruleRegistration,
	CohortReminderRegistrationNeeded: ruleReminder,
	CohortReminderScheduled:          ruleReminder,
	CohortTreatmentConsentNotStarted: ruleReminder,
}

// Processed reports whether a cohort member was worked on during day.
// start is the record at the beginning of the day, end the record at its
// close (or the current record for today).
func Processed(c Cohort, start, end *entity.Patient, day entity.Date, loc *time.Location) bool {
	switch processedRules[c] {
	case ruleCallback:
		return completedCallbackOn(end, day, loc) || statusAdvanced(start, end)
	case ruleRegistration:
		return createdCallbackOn(end, day, loc, false) || completedCallbackOn(end, day, loc) || statusAdvanced(start, end)
	case ruleReminder:
		return createdCallbackOn(end, day, loc, true) ||
			(start.PostVisitStatus != entity.PostVisitTreatmentStarted && end.PostVisitStatus == entity.PostVisitTreatmentStarted)
	}
	return false
}

func completedCallbackOn(p *entity.Patient, day entity.Date, loc *time.Location) bool {
	for _, c := range p.CallbackHistory {
		if c.Status == entity.CallbackCompleted && c.CompletedAt != nil && entity.DateOf(*c.CompletedAt, loc) == day {
			return true
		}
	}
	return false
}

func createdCallbackOn(p *entity.Patient, day entity.Date, loc *time.Location, reminderOnly bool) bool {
	for _, c := range p.CallbackHistory {
		if reminderOnly && !c.IsReminder() {
			continue
		}
		if !c.CreatedAt.IsZero() && entity.DateOf(c.CreatedAt, loc) == day {
			return true
		}
	}
	return false
}

func statusAdvanced(start, end *entity.Patient) bool {
	return start.Status != end.Status ||
		start.PostVisitStatus != end.PostVisitStatus ||
		start.VisitConfirmed != end.VisitConfirmed ||
		start.IsTerminal() != end.IsTerminal()
}
