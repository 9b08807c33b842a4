package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

type StatusChangeRepository struct {
	DB *sql.DB
}

func NewStatusChangeRepository(db *sql.DB) *StatusChangeRepository {
	return &StatusChangeRepository{DB: db}
}

func (r *StatusChangeRepository) Append(ctx context.Context, c *entity.StatusChange) error {
	query := `
		INSERT INTO status_changes (id, patient_id, field, from_value, to_value, changed_at, changed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.DB.ExecContext(ctx, query,
		c.ID,
		c.PatientID,
		string(c.Field),
		c.From,
		c.To,
		c.ChangedAt,
		c.ChangedBy,
	)
	if err != nil {
		return fmt.Errorf("append status change: %w", err)
	}
	return nil
}

func (r *StatusChangeRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM status_changes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete status change: %w", err)
	}
	return nil
}

func (r *StatusChangeRepository) ListByPatient(ctx context.Context, patientID string) ([]entity.StatusChange, error) {
	query := `
		SELECT id, patient_id, field, from_value, to_value, changed_at, changed_by
		FROM status_changes
		WHERE patient_id = $1
		ORDER BY changed_at
	`
	rows, err := r.DB.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("list status changes: %w", err)
	}
	defer rows.Close()

	var changes []entity.StatusChange
	for rows.Next() {
		c, err := scanChange(rows)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

func (r *StatusChangeRepository) ListSince(ctx context.Context, since time.Time) (map[string][]entity.StatusChange, error) {
	query := `
		SELECT id, patient_id, field, from_value, to_value, changed_at, changed_by
		FROM status_changes
		WHERE changed_at >= $1
		ORDER BY patient_id, changed_at
	`
	rows, err := r.DB.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("list status changes since %s: %w", since.Format(time.RFC3339), err)
	}
	defer rows.Close()

	out := make(map[string][]entity.StatusChange)
	for rows.Next() {
		c, err := scanChange(rows)
		if err != nil {
			return nil, err
		}
		out[c.PatientID] = append(out[c.PatientID], c)
	}
	return out, rows.Err()
}

func scanChange(rows *sql.Rows) (entity.StatusChange, error) {
	var (
		c     entity.StatusChange
		field string
	)
	if err := rows.Scan(&c.ID, &c.PatientID, &field, &c.From, &c.To, &c.ChangedAt, &c.ChangedBy); err != nil {
		return c, fmt.Errorf("scan status change: %w", err)
	}
	c.Field = entity.ChangeField(field)
	return c, nil
}
