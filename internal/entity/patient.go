package entity

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrPatientNotFound   = errors.New("patient not found")
	ErrDuplicatePhone    = errors.New("a patient with this phone already exists")
	ErrCallbackNotFound  = errors.New("callback not found")
	ErrCallbackPending   = errors.New("a scheduled callback already exists for this phase")
	ErrCallbackSettled   = errors.New("callback is no longer scheduled")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrPatientClosed     = errors.New("patient is closed")
	ErrPatientNotClosed  = errors.New("patient is not closed")
)

type ConsultStatus string

const (
	StatusNew            ConsultStatus = "new"
	StatusCallbackNeeded ConsultStatus = "callback_needed"
	StatusAbsent         ConsultStatus = "absent"
	StatusPotential      ConsultStatus = "potential"
	StatusReserved       ConsultStatus = "reserved"
	StatusReReserved     ConsultStatus = "re_reserved"
	StatusVIP            ConsultStatus = "vip"
	StatusClosed         ConsultStatus = "closed"
)

type PostVisitStatus string

const (
	PostVisitNone                PostVisitStatus = ""
	PostVisitTreatmentAgreed     PostVisitStatus = "treatment_agreed"
	PostVisitTreatmentStarted    PostVisitStatus = "treatment_started"
	PostVisitCallbackNeededAgain PostVisitStatus = "callback_needed_again"
	PostVisitClosed              PostVisitStatus = "closed"
)

type CallbackStatus string

const (
	CallbackScheduled CallbackStatus = "scheduled"
	CallbackCompleted CallbackStatus = "completed"
	CallbackCancelled CallbackStatus = "cancelled"
)

// ReminderMarker tags a visit-management callback issued as a treatment reminder.
const ReminderMarker = "[reminder]"

type CallbackEntry struct {
	ID                        string         `bson:"id" json:"id"`
	ScheduledDate             Date           `bson:"scheduledDate" json:"scheduledDate"`
	ScheduledTime             string         `bson:"scheduledTime,omitempty" json:"scheduledTime,omitempty"`
	Status                    CallbackStatus `bson:"status" json:"status"`
	IsVisitManagementCallback bool           `bson:"isVisitManagementCallback" json:"isVisitManagementCallback"`
	CreatedAt                 time.Time      `bson:"createdAt" json:"createdAt"`
	CompletedAt               *time.Time     `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	Notes                     string         `bson:"notes,omitempty" json:"notes,omitempty"`
}

func (c CallbackEntry) IsPending() bool { return c.Status == CallbackScheduled }

func (c CallbackEntry) IsReminder() bool { return strings.Contains(c.Notes, ReminderMarker) }

func (c CallbackEntry) Phase() Phase {
	if c.IsVisitManagementCallback {
		return PhaseVisit
	}
	return PhaseConsultation
}

type Estimate struct {
	RegularPrice  float64 `bson:"regularPrice" json:"regularPrice"`
	DiscountPrice float64 `bson:"discountPrice" json:"discountPrice"`
}

type PostVisitConsultation struct {
	Estimate         Estimate `bson:"estimate" json:"estimate"`
	TreatmentContent string   `bson:"treatmentContent,omitempty" json:"treatmentContent,omitempty"`
	Notes            string   `bson:"notes,omitempty" json:"notes,omitempty"`
}

// ConsultationInfo is the estimate recorded during the phone consultation.
type ConsultationInfo struct {
	EstimatedAmount float64 `bson:"estimatedAmount" json:"estimatedAmount"`
	TreatmentPlan   string  `bson:"treatmentPlan,omitempty" json:"treatmentPlan,omitempty"`
	ConsultedAt     Date    `bson:"consultedAt,omitempty" json:"consultedAt,omitempty"`
}

type Patient struct {
	ID             string `bson:"_id" json:"id"`
	Name           string `bson:"name" json:"name"`
	Phone          string `bson:"phone" json:"phone"`
	Age            int    `bson:"age,omitempty" json:"age,omitempty"`
	Region         string `bson:"region,omitempty" json:"region,omitempty"`
	ReferralSource string `bson:"referralSource,omitempty" json:"referralSource,omitempty"`

	Status           ConsultStatus   `bson:"status" json:"status"`
	PreviousStatus   ConsultStatus   `bson:"previousStatus,omitempty" json:"previousStatus,omitempty"`
	CallbackHistory  []CallbackEntry `bson:"callbackHistory" json:"callbackHistory"`
	NextCallbackDate Date            `bson:"nextCallbackDate,omitempty" json:"nextCallbackDate,omitempty"`
	ReservationDate  Date            `bson:"reservationDate,omitempty" json:"reservationDate,omitempty"`
	ReservationTime  string          `bson:"reservationTime,omitempty" json:"reservationTime,omitempty"`

	Consultation *ConsultationInfo `bson:"consultation,omitempty" json:"consultation,omitempty"`

	VisitConfirmed          bool                   `bson:"visitConfirmed" json:"visitConfirmed"`
	VisitDate               Date                   `bson:"visitDate,omitempty" json:"visitDate,omitempty"`
	PostVisitStatus         PostVisitStatus        `bson:"postVisitStatus,omitempty" json:"postVisitStatus,omitempty"`
	PreviousPostVisitStatus PostVisitStatus        `bson:"previousPostVisitStatus,omitempty" json:"previousPostVisitStatus,omitempty"`
	PostVisitConsultation   *PostVisitConsultation `bson:"postVisitConsultation,omitempty" json:"postVisitConsultation,omitempty"`
	TreatmentStartDate      Date                   `bson:"treatmentStartDate,omitempty" json:"treatmentStartDate,omitempty"`
	TreatmentCost           float64                `bson:"treatmentCost,omitempty" json:"treatmentCost,omitempty"`

	Stage          CanonicalState `bson:"stage,omitempty" json:"stage,omitempty"`
	IsCompleted    bool           `bson:"isCompleted" json:"isCompleted"`
	CompletedAt    *time.Time     `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	StatusLogged   bool           `bson:"statusLogged" json:"-"`
	CallInDate     Date           `bson:"callInDate" json:"callInDate"`
	CreatedAt      time.Time      `bson:"createdAt" json:"createdAt"`
	LastModifiedAt time.Time      `bson:"lastModifiedAt" json:"lastModifiedAt"`
}

// IsTerminal reports whether the patient left the pipeline for good.
func (p *Patient) IsTerminal() bool {
	return p.IsCompleted || p.Status == StatusClosed || p.PostVisitStatus == PostVisitClosed
}

// HasIdentity reports whether the fields every cohort relies on are present.
func (p *Patient) HasIdentity() bool {
	return strings.TrimSpace(p.Name) != "" && strings.TrimSpace(p.Phone) != ""
}

func (p *Patient) CurrentPhase() Phase {
	if p.VisitConfirmed {
		return PhaseVisit
	}
	return PhaseConsultation
}

// CallbacksFor returns the callback entries that belong to phase.
func (p *Patient) CallbacksFor(phase Phase) []CallbackEntry {
	out := make([]CallbackEntry, 0, len(p.CallbackHistory))
	for _, c := range p.CallbackHistory {
		if c.Phase() == phase {
			out = append(out, c)
		}
	}
	return out
}

func (p *Patient) PendingCallback(phase Phase) *CallbackEntry {
	for i := range p.CallbackHistory {
		c := &p.CallbackHistory[i]
		if c.IsPending() && c.Phase() == phase {
			return c
		}
	}
	return nil
}

func (p *Patient) findCallback(id string) *CallbackEntry {
	for i := range p.CallbackHistory {
		if p.CallbackHistory[i].ID == id {
			return &p.CallbackHistory[i]
		}
	}
	return nil
}

// Clone returns a deep copy so reconstruction never mutates stored records.
func (p *Patient) Clone() *Patient {
	cp := *p
	cp.CallbackHistory = make([]CallbackEntry, len(p.CallbackHistory))
	for i, c := range p.CallbackHistory {
		if c.CompletedAt != nil {
			t := *c.CompletedAt
			c.CompletedAt = &t
		}
		cp.CallbackHistory[i] = c
	}
	if p.Consultation != nil {
		c := *p.Consultation
		cp.Consultation = &c
	}
	if p.PostVisitConsultation != nil {
		pv := *p.PostVisitConsultation
		cp.PostVisitConsultation = &pv
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

var nonDigits = regexp.MustCompile(`\D`)

// NormalizePhone strips formatting so numbers compare as de-duplication keys.
func NormalizePhone(phone string) string {
	digits := nonDigits.ReplaceAllString(phone, "")
	if strings.HasPrefix(digits, "82") && len(digits) >= 11 {
		digits = "0" + digits[2:]
	}
	return digits
}

type PatientRepository interface {
	FindActive(ctx context.Context) ([]*Patient, error)
	FindAll(ctx context.Context) ([]*Patient, error)
	FindByCallInRange(ctx context.Context, from, to Date) ([]*Patient, error)
	FindByID(ctx context.Context, id string) (*Patient, error)
	FindByPhone(ctx context.Context, phone string) (*Patient, error)
	Save(ctx context.Context, p *Patient) error
	UpsertByPhone(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id string) error
}
