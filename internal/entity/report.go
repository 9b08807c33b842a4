package entity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrReportExists   = errors.New("report already exists for this period")
	ErrInvalidPeriod  = errors.New("invalid report period")
)

type ReportStatus string

const (
	ReportDraft     ReportStatus = "draft"
	ReportSubmitted ReportStatus = "submitted"
	ReportApproved  ReportStatus = "approved"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportDraft, ReportSubmitted, ReportApproved:
		return true
	}
	return false
}

type Feedback struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReportSnapshot is a persisted rollup. It is only recomputed on an
// explicit refresh; commentary and feedback survive refreshes.
type ReportSnapshot struct {
	ID             string       `json:"id"`
	Kind           PeriodKind   `json:"kind"`
	PeriodKey      string       `json:"periodKey"`
	Status         ReportStatus `json:"status"`
	Rollup         Rollup       `json:"rollup"`
	ManagerComment string       `json:"managerComment"`
	Feedback       []Feedback   `json:"feedback"`
	GeneratedAt    time.Time    `json:"generatedAt"`
	RefreshedAt    *time.Time   `json:"refreshedAt,omitempty"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

type ReportRepository interface {
	Create(ctx context.Context, r *ReportSnapshot) error
	FindByID(ctx context.Context, id string) (*ReportSnapshot, error)
	FindByPeriod(ctx context.Context, kind PeriodKind, key string) (*ReportSnapshot, error)
	List(ctx context.Context, kind PeriodKind, limit int) ([]*ReportSnapshot, error)
	UpdateCommentary(ctx context.Context, id, comment string, status ReportStatus) error
	UpdateRollup(ctx context.Context, id string, rollup Rollup, refreshedAt time.Time) error
	AppendFeedback(ctx context.Context, reportID string, f Feedback) error
}
