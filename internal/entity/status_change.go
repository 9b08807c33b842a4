package entity

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type ChangeField string

const (
	FieldStatus          ChangeField = "status"
	FieldPostVisitStatus ChangeField = "post_visit_status"
	FieldVisitConfirmed  ChangeField = "visit_confirmed"
	FieldCompleted       ChangeField = "completed"
)

// StatusChange is one append-only transition record.
type StatusChange struct {
	ID        string      `json:"id"`
	PatientID string      `json:"patientId"`
	Field     ChangeField `json:"field"`
	From      string      `json:"from"`
	To        string      `json:"to"`
	ChangedAt time.Time   `json:"changedAt"`
	ChangedBy string      `json:"changedBy,omitempty"`
}

func newChange(patientID string, field ChangeField, from, to, actor string, at time.Time) StatusChange {
	return StatusChange{
		ID:        uuid.New().String(),
		PatientID: patientID,
		Field:     field,
		From:      from,
		To:        to,
		ChangedAt: at,
		ChangedBy: actor,
	}
}

func boolString(b bool) string { return strconv.FormatBool(b) }

// SortChanges orders a patient's changes oldest first.
func SortChanges(changes []StatusChange) {
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].ChangedAt.Before(changes[j].ChangedAt)
	})
}

type StatusChangeRepository interface {
	Append(ctx context.Context, c *StatusChange) error
	Delete(ctx context.Context, id string) error
	ListByPatient(ctx context.Context, patientID string) ([]StatusChange, error)
	// ListSince returns every change at or after since, grouped by patient.
	ListSince(ctx context.Context, since time.Time) (map[string][]StatusChange, error)
}
