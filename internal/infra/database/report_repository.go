package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

type ReportRepository struct {
	DB *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{DB: db}
}

const reportColumns = `id, kind, period_key, status, rollup, manager_comment, feedback, generated_at, refreshed_at, updated_at`

func (r *ReportRepository) Create(ctx context.Context, rep *entity.ReportSnapshot) error {
	rollup, err := json.Marshal(rep.Rollup)
	if err != nil {
		return fmt.Errorf("encode rollup: %w", err)
	}
	feedback := rep.Feedback
	if feedback == nil {
		feedback = []entity.Feedback{}
	}
	fb, err := json.Marshal(feedback)
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}

	query := `
		INSERT INTO report_snapshots (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.DB.ExecContext(ctx, query,
		rep.ID,
		string(rep.Kind),
		rep.PeriodKey,
		string(rep.Status),
		rollup,
		rep.ManagerComment,
		fb,
		rep.GeneratedAt,
		rep.RefreshedAt,
		rep.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return entity.ErrReportExists
		}
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*entity.ReportSnapshot, error) {
	var (
		rep       entity.ReportSnapshot
		kind      string
		status    string
		rollup    []byte
		feedback  []byte
		refreshed sql.NullTime
	)
	err := row.Scan(&rep.ID, &kind, &rep.PeriodKey, &status, &rollup, &rep.ManagerComment, &feedback, &rep.GeneratedAt, &refreshed, &rep.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rep.Kind = entity.PeriodKind(kind)
	rep.Status = entity.ReportStatus(status)
	if err := json.Unmarshal(rollup, &rep.Rollup); err != nil {
		return nil, fmt.Errorf("decode rollup: %w", err)
	}
	if err := json.Unmarshal(feedback, &rep.Feedback); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}
	if refreshed.Valid {
		t := refreshed.Time
		rep.RefreshedAt = &t
	}
	return &rep, nil
}

func (r *ReportRepository) findOne(ctx context.Context, where string, args ...any) (*entity.ReportSnapshot, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM report_snapshots WHERE `+where, args...)
	rep, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrReportNotFound
		}
		return nil, fmt.Errorf("find report: %w", err)
	}
	return rep, nil
}

func (r *ReportRepository) FindByID(ctx context.Context, id string) (*entity.ReportSnapshot, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *ReportRepository) FindByPeriod(ctx context.Context, kind entity.PeriodKind, key string) (*entity.ReportSnapshot, error) {
	return r.findOne(ctx, `kind = $1 AND period_key = $2`, string(kind), key)
}

// List returns the newest snapshots first. An empty kind lists every kind.
func (r *ReportRepository) List(ctx context.Context, kind entity.PeriodKind, limit int) ([]*entity.ReportSnapshot, error) {
	kinds := []string{string(entity.PeriodDaily), string(entity.PeriodMonthly)}
	if kind != "" {
		kinds = []string{string(kind)}
	}

	query := `SELECT ` + reportColumns + ` FROM report_snapshots WHERE kind = ANY($1) ORDER BY period_key DESC, kind LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(kinds), limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := []*entity.ReportSnapshot{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

func (r *ReportRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	if n == 0 {
		return entity.ErrReportNotFound
	}
	return nil
}

func (r *ReportRepository) UpdateCommentary(ctx context.Context, id, comment string, status entity.ReportStatus) error {
	return r.exec(ctx,
		`UPDATE report_snapshots SET manager_comment = $2, status = $3, updated_at = NOW() WHERE id = $1`,
		id, comment, string(status))
}

func (r *ReportRepository) UpdateRollup(ctx context.Context, id string, rollup entity.Rollup, refreshedAt time.Time) error {
	data, err := json.Marshal(rollup)
	if err != nil {
		return fmt.Errorf("encode rollup: %w", err)
	}
	return r.exec(ctx,
		`UPDATE report_snapshots SET rollup = $2, refreshed_at = $3, updated_at = $3 WHERE id = $1`,
		id, data, refreshedAt)
}

// AppendFeedback adds one entry to the JSONB thread without rewriting it.
func (r *ReportRepository) AppendFeedback(ctx context.Context, reportID string, f entity.Feedback) error {
	data, err := json.Marshal([]entity.Feedback{f})
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}
	return r.exec(ctx,
		`UPDATE report_snapshots SET feedback = feedback || $2::jsonb, updated_at = $3 WHERE id = $1`,
		reportID, data, f.CreatedAt)
}
