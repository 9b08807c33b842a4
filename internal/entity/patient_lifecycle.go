package entity

import (
	"time"

	"github.com/google/uuid"
)

func NewPatient(name, phone string, callInDate Date, now time.Time) *Patient {
	p := &Patient{
		ID:              uuid.New().String(),
		Name:            name,
		Phone:           phone,
		Status:          StatusNew,
		CallbackHistory: []CallbackEntry{},
		CallInDate:      callInDate,
		StatusLogged:    true,
		CreatedAt:       now,
		LastModifiedAt:  now,
	}
	p.Stage = StageOf(p)
	return p
}

func (p *Patient) touch(now time.Time) {
	p.LastModifiedAt = now
	p.Stage = StageOf(p)
}

// ChangeStatus moves the consultation-phase status.
func (p *Patient) ChangeStatus(to ConsultStatus, actor string, now time.Time) ([]StatusChange, error) {
	if to == StatusClosed {
		return p.Close(actor, now)
	}
	if p.IsTerminal() {
		return nil, ErrPatientClosed
	}
	if p.VisitConfirmed || !CanTransition(string(p.Status), string(to), PhaseConsultation) {
		return nil, ErrInvalidTransition
	}

	change := newChange(p.ID, FieldStatus, string(p.Status), string(to), actor, now)
	p.Status = to
	p.touch(now)
	return []StatusChange{change}, nil
}

func (p *Patient) ChangePostVisitStatus(to PostVisitStatus, actor string, now time.Time) ([]StatusChange, error) {
	if to == PostVisitClosed {
		return p.Close(actor, now)
	}
	if p.IsTerminal() {
		return nil, ErrPatientClosed
	}
	if !p.VisitConfirmed || !CanTransition(string(p.PostVisitStatus), string(to), PhaseVisit) {
		return nil, ErrInvalidTransition
	}

	change := newChange(p.ID, FieldPostVisitStatus, string(p.PostVisitStatus), string(to), actor, now)
	p.PostVisitStatus = to
	if to == PostVisitTreatmentStarted && p.TreatmentStartDate.IsZero() {
		p.TreatmentStartDate = DateOf(now, now.Location())
	}
	p.touch(now)
	return []StatusChange{change}, nil
}

// ConfirmVisit switches the patient into the visit phase.
func (p *Patient) ConfirmVisit(visitDate Date, actor string, now time.Time) ([]StatusChange, error) {
	if p.IsTerminal() {
		return nil, ErrPatientClosed
	}
	if p.VisitConfirmed {
		return nil, ErrInvalidTransition
	}

	change := newChange(p.ID, FieldVisitConfirmed, boolString(false), boolString(true), actor, now)
	p.VisitConfirmed = true
	p.VisitDate = visitDate
	p.PostVisitStatus = PostVisitNone
	p.touch(now)
	return []StatusChange{change}, nil
}

// CancelVisitConfirmation returns a visit-phase patient with no post-visit
// decision to the consultation phase.
func (p *Patient) CancelVisitConfirmation(actor string, now time.Time) ([]StatusChange, error) {
	if p.IsTerminal() {
		return nil, ErrPatientClosed
	}
	if !p.VisitConfirmed || p.PostVisitStatus != PostVisitNone {
		return nil, ErrInvalidTransition
	}

	change := newChange(p.ID, FieldVisitConfirmed, boolString(true), boolString(false), actor, now)
	p.VisitConfirmed = false
	p.VisitDate = ""
	p.touch(now)
	return []StatusChange{change}, nil
}

// Close marks the record terminal, remembering the active state for reopen.
func (p *Patient) Close(actor string, now time.Time) ([]StatusChange, error) {
	if p.IsTerminal() {
		return nil, ErrPatientClosed
	}

	var changes []StatusChange
	if p.VisitConfirmed {
		changes = append(changes, newChange(p.ID, FieldPostVisitStatus, string(p.PostVisitStatus), string(PostVisitClosed), actor, now))
		p.PreviousPostVisitStatus = p.PostVisitStatus
		p.PostVisitStatus = PostVisitClosed
	} else {
		changes = append(changes, newChange(p.ID, FieldStatus, string(p.Status), string(StatusClosed), actor, now))
		p.PreviousStatus = p.Status
		p.Status = StatusClosed
	}
	changes = append(changes, newChange(p.ID, FieldCompleted, boolString(false), boolString(true), actor, now))

	completedAt := now
	p.IsCompleted = true
	p.CompletedAt = &completedAt
	p.touch(now)
	return changes, nil
}

// Reopen restores the active state recorded when the patient was closed.
func (p *Patient) Reopen(actor string, now time.Time) ([]StatusChange, error) {
	if !p.IsTerminal() {
		return nil, ErrPatientNotClosed
	}

	var changes []StatusChange
	if p.PostVisitStatus == PostVisitClosed {
		to := p.PreviousPostVisitStatus
		if to == PostVisitClosed {
			to = PostVisitNone
		}
		changes = append(changes, newChange(p.ID, FieldPostVisitStatus, string(PostVisitClosed), string(to), actor, now))
		p.PostVisitStatus = to
		p.PreviousPostVisitStatus = ""
	}
	if p.Status == StatusClosed {
		to := p.PreviousStatus
		if !isActiveConsultStatus(to) {
			to = StatusCallbackNeeded
		}
		changes = append(changes, newChange(p.ID, FieldStatus, string(StatusClosed), string(to), actor, now))
		p.Status = to
		p.PreviousStatus = ""
	}
	if p.IsCompleted {
		changes = append(changes, newChange(p.ID, FieldCompleted, boolString(true), boolString(false), actor, now))
		p.IsCompleted = false
		p.CompletedAt = nil
	}
	p.touch(now)
	return changes, nil
}

// AddCallback appends a scheduled entry for the patient's current phase.
// Only one scheduled entry per phase may exist at a time.
func (p *Patient) AddCallback(date Date, timeOfDay, notes string, now time.Time) (*CallbackEntry, error) {
	if p.IsTerminal() {
		return nil, ErrPatientClosed
	}
	phase := p.CurrentPhase()
	if p.PendingCallback(phase) != nil {
		return nil, ErrCallbackPending
	}

	entry := CallbackEntry{
		ID:                        uuid.New().String(),
		ScheduledDate:             date,
		ScheduledTime:             timeOfDay,
		Status:                    CallbackScheduled,
		IsVisitManagementCallback: phase == PhaseVisit,
		CreatedAt:                 now,
		Notes:                     notes,
	}
	p.CallbackHistory = append(p.CallbackHistory, entry)
	p.NextCallbackDate = date
	p.touch(now)
	return &p.CallbackHistory[len(p.CallbackHistory)-1], nil
}

func (p *Patient) CompleteCallback(id, notes string, now time.Time) error {
	return p.settleCallback(id, CallbackCompleted, notes, now)
}

func (p *Patient) CancelCallback(id, notes string, now time.Time) error {
	return p.settleCallback(id, CallbackCancelled, notes, now)
}

func (p *Patient) settleCallback(id string, to CallbackStatus, notes string, now time.Time) error {
	c := p.findCallback(id)
	if c == nil {
		return ErrCallbackNotFound
	}
	if !c.IsPending() {
		return ErrCallbackSettled
	}

	settledAt := now
	c.Status = to
	c.CompletedAt = &settledAt
	if notes != "" {
		if c.Notes != "" {
			c.Notes += "\n"
		}
		c.Notes += notes
	}
	if c.ScheduledDate == p.NextCallbackDate {
		p.NextCallbackDate = ""
	}
	p.touch(now)
	return nil
}

// ResetPostVisitStatus clears the post-visit decision while keeping the
// patient in the visit phase.
func (p *Patient) ResetPostVisitStatus(actor string, now time.Time) ([]StatusChange, error) {
	if p.IsTerminal() {
		return nil, ErrPatientClosed
	}
	if !p.VisitConfirmed || p.PostVisitStatus == PostVisitNone {
		return nil, ErrInvalidTransition
	}

	change := newChange(p.ID, FieldPostVisitStatus, string(p.PostVisitStatus), string(PostVisitNone), actor, now)
	p.PostVisitStatus = PostVisitNone
	p.touch(now)
	return []StatusChange{change}, nil
}
