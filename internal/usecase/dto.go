package usecase

import (
	"github.com/xavierca1/dental-funnel/internal/entity"
	"github.com/xavierca1/dental-funnel/internal/pipeline"
)

type CreatePatientInput struct {
	Name            string  `json:"name"`
	Phone           string  `json:"phone"`
	Age             int     `json:"age"`
	Region          string  `json:"region"`
	ReferralSource  string  `json:"referral_source"`
	CallInDate      string  `json:"call_in_date"`
	EstimatedAmount float64 `json:"estimated_amount"`
	TreatmentPlan   string  `json:"treatment_plan"`
	Actor           string  `json:"-"`
}

// ChangeStatusInput carries either a consultation status or a post-visit
// status. An empty post-visit status together with Reset clears it.
type ChangeStatusInput struct {
	Status          string `json:"status"`
	PostVisitStatus string `json:"post_visit_status"`
	Reset           bool   `json:"reset"`
	Actor           string `json:"-"`
}

type AddCallbackInput struct {
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
	Notes         string `json:"notes"`
	Reminder      bool   `json:"reminder"`
}

type SettleCallbackInput struct {
	Notes string `json:"notes"`
}

type ConfirmVisitInput struct {
	VisitDate string `json:"visit_date"`
	Actor     string `json:"-"`
}

type PatientSummary struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	Phone            string                 `json:"phone"`
	Status           entity.ConsultStatus   `json:"status"`
	PostVisitStatus  entity.PostVisitStatus `json:"post_visit_status,omitempty"`
	Stage            entity.CanonicalState  `json:"stage"`
	Phase            entity.Phase           `json:"phase"`
	VisitConfirmed   bool                   `json:"visit_confirmed"`
	NextCallbackDate entity.Date            `json:"next_callback_date,omitempty"`
	CallInDate       entity.Date            `json:"call_in_date"`
	Region           string                 `json:"region"`
	Channel          string                 `json:"channel"`
	Amount           float64                `json:"amount"`
	Source           pipeline.Source        `json:"source,omitempty"`
}

func summarize(p *entity.Patient, source pipeline.Source) PatientSummary {
	return PatientSummary{
		ID:               p.ID,
		Name:             p.Name,
		Phone:            p.Phone,
		Status:           p.Status,
		PostVisitStatus:  p.PostVisitStatus,
		Stage:            entity.StageOf(p),
		Phase:            entity.NextPhase(p),
		VisitConfirmed:   p.VisitConfirmed,
		NextCallbackDate: p.NextCallbackDate,
		CallInDate:       p.CallInDate,
		Region:           entity.RegionOf(p),
		Channel:          entity.ChannelOf(p),
		Amount:           entity.ResolveAmount(p),
		Source:           source,
	}
}

type Mode string

const (
	ModeLive       Mode = "live"
	ModeHistorical Mode = "historical"
)

type CohortResult struct {
	Cohort   pipeline.Cohort  `json:"cohort"`
	Date     entity.Date      `json:"date"`
	Mode     Mode             `json:"mode"`
	Total    int              `json:"total"`
	Skipped  int              `json:"skipped"`
	Patients []PatientSummary `json:"patients"`
}

type CohortStatistic struct {
	Cohort         pipeline.Cohort `json:"cohort"`
	Total          int             `json:"total"`
	Processed      int             `json:"processed"`
	ProcessingRate int             `json:"processing_rate"`
}

type DailyStatisticsOutput struct {
	Date      entity.Date           `json:"date"`
	Cohorts   []CohortStatistic     `json:"cohorts"`
	Estimates entity.DailyEstimates `json:"estimates"`
	Skipped   int                   `json:"skipped"`
}

type BucketOutput struct {
	Period   entity.Period        `json:"period"`
	Bucket   entity.RevenueBucket `json:"bucket"`
	Amount   float64              `json:"amount"`
	Patients []PatientSummary     `json:"patients"`
}

type GenerateReportInput struct {
	Kind   string `json:"kind"`
	Period string `json:"period"`
}

type UpdateCommentaryInput struct {
	ManagerComment string `json:"manager_comment"`
	Status         string `json:"status"`
}

type AddFeedbackInput struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

type MigrationError struct {
	LegacyID string `json:"legacy_id"`
	Phone    string `json:"phone,omitempty"`
	Reason   string `json:"reason"`
}

type MigrationResult struct {
	DryRun       bool                          `json:"dry_run"`
	Total        int                           `json:"total"`
	Migrated     int                           `json:"migrated"`
	Skipped      int                           `json:"skipped"`
	Duplicates   int                           `json:"duplicates"`
	Failed       int                           `json:"failed"`
	Fallbacks    int                           `json:"fallbacks"`
	StatusCounts map[entity.CanonicalState]int `json:"status_counts"`
	Errors       []MigrationError              `json:"errors,omitempty"`
}
