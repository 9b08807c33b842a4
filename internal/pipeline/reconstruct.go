package pipeline

import (
	"strconv"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

type Source string

const (
	SourceCurrent   Source = "current"
	SourceLog       Source = "log"
	SourceHeuristic Source = "heuristic"
)

// Snapshot is a patient as it stood at midnight of a target date.
type Snapshot struct {
	Patient        *entity.Patient
	Exists         bool
	Source         Source
	Classification Classification
	Cohorts        []Cohort
}

// previous values assumed for a status that changed on or after the target
// date when no transition log exists for the record; pending confirmation
// by the clinic
var (
	previousConsultStatus = map[entity.ConsultStatus]entity.ConsultStatus{
		entity.StatusReserved:   entity.StatusCallbackNeeded,
		entity.StatusReReserved: entity.StatusReserved,
	}
	previousPostVisitStatus = map[entity.PostVisitStatus]entity.PostVisitStatus{
		entity.PostVisitTreatmentStarted:    entity.PostVisitNone,
		entity.PostVisitTreatmentAgreed:     entity.PostVisitNone,
		entity.PostVisitCallbackNeededAgain: entity.PostVisitNone,
	}
)

// Reconstruct infers the state of p at midnight of target.Date. Records with
// a transition log are rewound exactly using changes (which may include
// other patients' entries or none at all); older records fall back to a
// one-step guess driven by lastModifiedAt.
func Reconstruct(p *entity.Patient, target AsOf, changes []entity.StatusChange) Snapshot {
	midnight := target.Midnight()

	if !p.CreatedAt.IsZero() && !p.CreatedAt.Before(midnight) {
		return Snapshot{Patient: p, Source: SourceCurrent}
	}
	if p.CreatedAt.IsZero() && !p.CallInDate.IsZero() && !p.CallInDate.Before(target.Date) {
		return Snapshot{Patient: p, Source: SourceCurrent}
	}

	cp := p.Clone()
	rewindCallbacks(cp, target)

	source := SourceCurrent
	switch {
	case p.StatusLogged:
		if rewindFromLog(cp, target, changes) {
			source = SourceLog
		}
	case !p.LastModifiedAt.IsZero() && !target.DateOf(p.LastModifiedAt).Before(target.Date):
		rewindHeuristic(cp, target)
		source = SourceHeuristic
	}
	cp.Stage = entity.StageOf(cp)

	cls := Classify(cp, target.Date)
	return Snapshot{
		Patient:        cp,
		Exists:         true,
		Source:         source,
		Classification: cls,
		Cohorts:        Memberships(cp, cls, target.Date),
	}
}

// Evaluate classifies the current record without rewinding it.
func Evaluate(p *entity.Patient, asOf AsOf) Snapshot {
	cls := Classify(p, asOf.Date)
	return Snapshot{
		Patient:        p,
		Exists:         true,
		Source:         SourceCurrent,
		Classification: cls,
		Cohorts:        Memberships(p, cls, asOf.Date),
	}
}

func rewindCallbacks(p *entity.Patient, target AsOf) {
	midnight := target.Midnight()
	kept := p.CallbackHistory[:0]
	dropped := map[entity.Date]bool{}
	for _, c := range p.CallbackHistory {
		if !c.CreatedAt.IsZero() && !c.CreatedAt.Before(midnight) {
			dropped[c.ScheduledDate] = true
			continue
		}
		if c.CompletedAt != nil && !c.CompletedAt.Before(midnight) {
			c.Status = entity.CallbackScheduled
			c.CompletedAt = nil
		}
		kept = append(kept, c)
	}
	p.CallbackHistory = kept
	if dropped[p.NextCallbackDate] {
		p.NextCallbackDate = ""
	}
}

func rewindFromLog(p *entity.Patient, target AsOf, changes []entity.StatusChange) bool {
	midnight := target.Midnight()
	relevant := make([]entity.StatusChange, 0, len(changes))
	for _, c := range changes {
		if c.PatientID == p.ID && !c.ChangedAt.Before(midnight) {
			relevant = append(relevant, c)
		}
	}
	if len(relevant) == 0 {
		return false
	}
	entity.SortChanges(relevant)

	seen := map[entity.ChangeField]bool{}
	for _, c := range relevant {
		if seen[c.Field] {
			continue
		}
		seen[c.Field] = true

		switch c.Field {
		case entity.FieldStatus:
			p.Status = entity.ConsultStatus(c.From)
		case entity.FieldPostVisitStatus:
			p.PostVisitStatus = entity.PostVisitStatus(c.From)
		case entity.FieldVisitConfirmed:
			confirmed, _ := strconv.ParseBool(c.From)
			p.VisitConfirmed = confirmed
			if !confirmed {
				p.VisitDate = ""
				p.PostVisitStatus = entity.PostVisitNone
			}
		case entity.FieldCompleted:
			completed, _ := strconv.ParseBool(c.From)
			p.IsCompleted = completed
			if !completed {
				p.CompletedAt = nil
			}
		}
	}
	return true
}

func rewindHeuristic(p *entity.Patient, target AsOf) {
	midnight := target.Midnight()

	if p.IsTerminal() {
		if p.CompletedAt != nil && p.CompletedAt.Before(midnight) {
			return
		}
		if p.Status == entity.StatusClosed {
			p.Status = p.PreviousStatus
			if _, ok := entity.ParseConsultStatus(string(p.Status)); !ok || p.Status == entity.StatusClosed || p.Status == "" {
				p.Status = entity.StatusCallbackNeeded
			}
		}
		if p.PostVisitStatus == entity.PostVisitClosed {
			p.PostVisitStatus = p.PreviousPostVisitStatus
			if p.PostVisitStatus == entity.PostVisitClosed {
				p.PostVisitStatus = entity.PostVisitNone
			}
		}
		p.IsCompleted = false
		p.CompletedAt = nil
		return
	}

	if p.VisitConfirmed {
		if p.PostVisitStatus != entity.PostVisitNone {
			if prev, ok := previousPostVisitStatus[p.PostVisitStatus]; ok {
				p.PostVisitStatus = prev
			}
			return
		}
		if !p.VisitDate.IsZero() && !p.VisitDate.Before(target.Date) {
			p.VisitConfirmed = false
			p.VisitDate = ""
			if p.Status != entity.StatusReserved && p.Status != entity.StatusReReserved {
				p.Status = entity.StatusReserved
			}
		}
		return
	}

	if prev, ok := previousConsultStatus[p.Status]; ok {
		p.Status = prev
	}
}
