package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

// PatientUseCase applies lifecycle mutations. Each mutation saves the record
// and appends its status changes as one compensating transaction.
type PatientUseCase struct {
	Patients  entity.PatientRepository
	StatusLog entity.StatusChangeRepository
	Loc       *time.Location
	Now       func() time.Time
	Logger    zerolog.Logger
}

func NewPatientUseCase(patients entity.PatientRepository, statusLog entity.StatusChangeRepository, loc *time.Location, logger zerolog.Logger) *PatientUseCase {
	return &PatientUseCase{
		Patients:  patients,
		StatusLog: statusLog,
		Loc:       loc,
		Now:       time.Now,
		Logger:    logger,
	}
}

func (uc *PatientUseCase) now() time.Time {
	return uc.Now().In(uc.Loc)
}

func (uc *PatientUseCase) Create(ctx context.Context, input CreatePatientInput) (*entity.Patient, error) {
	if errs := ValidateCreatePatientInput(input); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	existing, err := uc.Patients.FindByPhone(ctx, input.Phone)
	if err == nil && existing != nil {
		return nil, &DomainError{Code: CodeConflict, Message: "a patient with this phone already exists: " + existing.ID}
	}
	if err != nil && !errors.Is(err, entity.ErrPatientNotFound) {
		return nil, storeError("failed to check phone", err)
	}

	now := uc.now()
	callIn := entity.DateOf(now, uc.Loc)
	if input.CallInDate != "" {
		callIn, _ = entity.ParseDate(input.CallInDate)
	}

	p := entity.NewPatient(strings.TrimSpace(input.Name), strings.TrimSpace(input.Phone), callIn, now)
	p.Age = input.Age
	p.Region = strings.TrimSpace(input.Region)
	p.ReferralSource = strings.TrimSpace(input.ReferralSource)
	if input.EstimatedAmount > 0 || input.TreatmentPlan != "" {
		p.Consultation = &entity.ConsultationInfo{
			EstimatedAmount: input.EstimatedAmount,
			TreatmentPlan:   input.TreatmentPlan,
			ConsultedAt:     callIn,
		}
	}

	if err := uc.Patients.Save(ctx, p); err != nil {
		return nil, storeError("failed to save patient", err)
	}
	uc.Logger.Info().Str("patient_id", p.ID).Str("call_in_date", p.CallInDate.String()).Msg("patient created")
	return p, nil
}

func (uc *PatientUseCase) Get(ctx context.Context, id string) (*entity.Patient, error) {
	p, err := uc.Patients.FindByID(ctx, id)
	if err != nil {
		return nil, domainFromEntity(err)
	}
	return p, nil
}

// History returns the patient's recorded status changes, oldest first.
func (uc *PatientUseCase) History(ctx context.Context, id string) ([]entity.StatusChange, error) {
	if _, err := uc.Get(ctx, id); err != nil {
		return nil, err
	}
	changes, err := uc.StatusLog.ListByPatient(ctx, id)
	if err != nil {
		return nil, storeError("failed to load status changes", err)
	}
	entity.SortChanges(changes)
	return changes, nil
}

type mutation func(p *entity.Patient, now time.Time) ([]entity.StatusChange, error)

func (uc *PatientUseCase) mutate(ctx context.Context, id, action string, fn mutation) (*entity.Patient, error) {
	p, err := uc.Patients.FindByID(ctx, id)
	if err != nil {
		return nil, domainFromEntity(err)
	}
	original := p.Clone()

	changes, err := fn(p, uc.now())
	if err != nil {
		return nil, domainFromEntity(err)
	}
	if len(changes) > 0 {
		p.StatusLogged = true
	}

	tx := NewTransaction(uc.Logger)
	tx.AddStep("save_patient",
		func(ctx context.Context) error { return uc.Patients.Save(ctx, p) },
		func(ctx context.Context) error { return uc.Patients.Save(ctx, original) },
	)
	for i := range changes {
		c := &changes[i]
		tx.AddStep("append_status_change",
			func(ctx context.Context) error { return uc.StatusLog.Append(ctx, c) },
			func(ctx context.Context) error { return uc.StatusLog.Delete(ctx, c.ID) },
		)
	}
	if err := tx.Execute(ctx); err != nil {
		uc.Logger.Error().Err(err).Str("patient_id", id).Str("action", action).Msg("patient mutation failed")
		return nil, storeError("failed to save patient", err)
	}

	uc.Logger.Info().Str("patient_id", id).Str("action", action).Int("changes", len(changes)).Msg("patient updated")
	return p, nil
}

// ChangeStatus moves the consultation status, the post-visit status, or
// resets the post-visit status, depending on which field is set.
func (uc *PatientUseCase) ChangeStatus(ctx context.Context, id string, input ChangeStatusInput) (*entity.Patient, error) {
	switch {
	case input.Reset:
		return uc.mutate(ctx, id, "reset_post_visit_status", func(p *entity.Patient, now time.Time) ([]entity.StatusChange, error) {
			return p.ResetPostVisitStatus(input.Actor, now)
		})
	case input.PostVisitStatus != "":
		to, ok := entity.ParsePostVisitStatus(input.PostVisitStatus)
		if !ok || to == entity.PostVisitNone {
			return nil, &DomainError{Code: CodeValidation, Message: "unknown post-visit status: " + input.PostVisitStatus}
		}
		return uc.mutate(ctx, id, "change_post_visit_status", func(p *entity.Patient, now time.Time) ([]entity.StatusChange, error) {
			return p.ChangePostVisitStatus(to, input.Actor, now)
		})
	case input.Status != "":
		to, ok := entity.ParseConsultStatus(input.Status)
		if !ok {
			return nil, &DomainError{Code: CodeValidation, Message: "unknown status: " + input.Status}
		}
		return uc.mutate(ctx, id, "change_status", func(p *entity.Patient, now time.Time) ([]entity.StatusChange, error) {
			return p.ChangeStatus(to, input.Actor, now)
		})
	}
	return nil, &DomainError{Code: CodeValidation, Message: "status or post_visit_status is required"}
}

// AddCallback schedules a callback in the patient's current phase. Reminder
// callbacks carry the reminder marker in their notes.
func (uc *PatientUseCase) AddCallback(ctx context.Context, id string, input AddCallbackInput) (*entity.CallbackEntry, error) {
	if errs := ValidateAddCallbackInput(input); len(errs) > 0 {
		return nil, validationFailed(errs)
	}
	date, _ := entity.ParseDate(input.ScheduledDate)
	notes := strings.TrimSpace(input.Notes)
	if input.Reminder {
		notes = strings.TrimSpace(entity.ReminderMarker + " " + notes)
	}

	var entry entity.CallbackEntry
	_, err := uc.mutate(ctx, id, "add_callback", func(p *entity.Patient, now time.Time) ([]entity.StatusChange, error) {
		if input.Reminder && (!p.VisitConfirmed || p.PostVisitStatus != entity.PostVisitTreatmentAgreed) {
			return nil, entity.ErrInvalidTransition
		}
		e, err := p.AddCallback(date, input.ScheduledTime, notes, now)
		if err != nil {
			return nil, err
		}
		entry = *e
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (uc *PatientUseCase) CompleteCallback(ctx context.Context, id, callbackID string, input SettleCallbackInput) (*entity.Patient, error) {
	return uc.mutate(ctx, id, "complete_callback", func(p *entity.Patient, now time.Time) ([]entity.StatusChange, error) {
		return nil, p.CompleteCallback(callbackID, strings.TrimSpace(input.Notes), now)
	})
}

func (uc *PatientUseCase) CancelCallback(ctx context.Context, id, callbackID string, input SettleCallbackInput) (*entity.Patient, error) {
	return uc.mutate(ctx, id, "cancel_callback", func(p *entity.Patient, now time.Time) ([]entity.StatusChange, error) {
		return nil, p.CancelCallback(callbackID, strings.TrimSpace(input.Notes), now)
	})
}

func (uc *PatientUseCase) ConfirmVisit(ctx context.Context, id string, input ConfirmVisitInput) (*entity.Patient, error) {
	var visitDate entity.Date
	if input.VisitDate != "" {
		d, err := entity.ParseDate(input.VisitDate)
		if err != nil {
			return nil, validationFailed([]ValidationError{{"visitDate", "must be a valid date (YYYY-MM-DD)"}})
		}
		visitDate = d
	}
	return uc.mutate(ctx, id, "confirm_visit", func(p *entity.Patient, now time.Time) ([]entity.StatusChange, error) {
		d := visitDate
		if d.IsZero() {
			d = entity.DateOf(now, uc.Loc)
		}
		return p.ConfirmVisit(d, input.Actor, now)
	})
}

func (uc *PatientUseCase) CancelVisitConfirmation(ctx context.Context, id, actor string) (*entity.Patient, error) {
	return uc.mutate(ctx, id, "cancel_visit_confirmation", func(p *entity.Patient, now time.Time) ([]entity.StatusChange, error) {
		return p.CancelVisitConfirmation(actor, now)
	})
}

func (uc *PatientUseCase) Close(ctx context.Context, id, actor string) (*entity.Patient, error) {
	return uc.mutate(ctx, id, "close", func(p *entity.Patient, now time.Time) ([]entity.StatusChange, error) {
		return p.Close(actor, now)
	})
}

func (uc *PatientUseCase) Reopen(ctx context.Context, id, actor string) (*entity.Patient, error) {
	return uc.mutate(ctx, id, "reopen", func(p *entity.Patient, now time.Time) ([]entity.StatusChange, error) {
		return p.Reopen(actor, now)
	})
}
