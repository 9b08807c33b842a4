package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/dental-funnel/internal/entity"
	"github.com/xavierca1/dental-funnel/internal/pipeline"
)

// CohortEngine loads the patient population once per request and evaluates
// every record against a single as-of instant.
type CohortEngine struct {
	Patients  entity.PatientRepository
	StatusLog entity.StatusChangeRepository
	Loc       *time.Location
	Workers   int
	Now       func() time.Time
	Logger    zerolog.Logger
}

func NewCohortEngine(patients entity.PatientRepository, statusLog entity.StatusChangeRepository, loc *time.Location, workers int, logger zerolog.Logger) *CohortEngine {
	if workers <= 0 {
		workers = 8
	}
	return &CohortEngine{
		Patients:  patients,
		StatusLog: statusLog,
		Loc:       loc,
		Workers:   workers,
		Now:       time.Now,
		Logger:    logger,
	}
}

// Evaluation is the population as it stood at AsOf.
type Evaluation struct {
	AsOf      pipeline.AsOf
	Mode      Mode
	Snapshots []pipeline.Snapshot
	Skipped   int
}

// ResolveAsOf turns an optional YYYY-MM-DD date into the request's as-of
// instant. An empty date means now.
func (e *CohortEngine) ResolveAsOf(date string) (pipeline.AsOf, error) {
	now := pipeline.NewAsOf(e.Now(), e.Loc)
	if date == "" {
		return now, nil
	}
	d, err := entity.ParseDate(date)
	if err != nil || d.IsZero() {
		return pipeline.AsOf{}, &DomainError{Code: CodeValidation, Message: "invalid date: " + date}
	}
	if d == now.Date {
		return now, nil
	}
	if d.Before(now.Date) {
		return pipeline.AtMidnight(d, e.Loc), nil
	}
	return pipeline.AsOf{Instant: now.Instant, Date: d, Loc: e.Loc}, nil
}

func (e *CohortEngine) today() entity.Date {
	return entity.DateOf(e.Now(), e.Loc)
}

func (e *CohortEngine) modeFor(asOf pipeline.AsOf) Mode {
	if asOf.Date.Before(e.today()) {
		return ModeHistorical
	}
	return ModeLive
}

// Evaluate classifies the population at asOf. Past dates are reconstructed
// from the status-change log; today and later use current records. A failed
// bulk read aborts the evaluation.
func (e *CohortEngine) Evaluate(ctx context.Context, asOf pipeline.AsOf, includeTerminal bool) (*Evaluation, error) {
	mode := e.modeFor(asOf)

	var (
		patients []*entity.Patient
		changes  map[string][]entity.StatusChange
		err      error
	)
	if mode == ModeHistorical || includeTerminal {
		patients, err = e.Patients.FindAll(ctx)
	} else {
		patients, err = e.Patients.FindActive(ctx)
	}
	if err != nil {
		return nil, storeError("failed to load patients", err)
	}
	if mode == ModeHistorical {
		changes, err = e.StatusLog.ListSince(ctx, asOf.Midnight())
		if err != nil {
			return nil, storeError("failed to load status changes", err)
		}
	}

	snapshots := make([]pipeline.Snapshot, len(patients))
	skipped := make([]bool, len(patients))

	err = e.fanOut(ctx, len(patients), func(i int) {
		p := patients[i]
		if !p.HasIdentity() {
			skipped[i] = true
			return
		}
		if mode == ModeHistorical {
			snapshots[i] = pipeline.Reconstruct(p, asOf, changes[p.ID])
			return
		}
		snapshots[i] = pipeline.Evaluate(p, asOf)
	})
	if err != nil {
		return nil, err
	}

	ev := &Evaluation{AsOf: asOf, Mode: mode, Snapshots: make([]pipeline.Snapshot, 0, len(patients))}
	for i, s := range snapshots {
		if skipped[i] {
			ev.Skipped++
			continue
		}
		if s.Exists {
			ev.Snapshots = append(ev.Snapshots, s)
		}
	}
	if ev.Skipped > 0 {
		e.Logger.Warn().Int("skipped", ev.Skipped).Str("date", asOf.Date.String()).Msg("patients without name or phone excluded")
	}
	return ev, nil
}

// fanOut runs fn for every index with at most Workers goroutines. Each call
// writes only to its own index.
func (e *CohortEngine) fanOut(ctx context.Context, n int, fn func(i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	return g.Wait()
}

// Query returns the members of a named cohort at date.
func (e *CohortEngine) Query(ctx context.Context, name, date string) (*CohortResult, error) {
	cohort, ok := pipeline.ParseCohort(name)
	if !ok {
		return nil, &DomainError{Code: CodeUnknownCohort, Message: "unknown cohort: " + name}
	}
	asOf, err := e.ResolveAsOf(date)
	if err != nil {
		return nil, err
	}

	ev, err := e.Evaluate(ctx, asOf, cohort.NeedsTerminal())
	if err != nil {
		return nil, err
	}

	out := &CohortResult{
		Cohort:   cohort,
		Date:     asOf.Date,
		Mode:     ev.Mode,
		Skipped:  ev.Skipped,
		Patients: []PatientSummary{},
	}
	for _, s := range ev.Snapshots {
		if cohort.Member(s.Patient, s.Classification, asOf.Date) {
			out.Patients = append(out.Patients, summarize(s.Patient, s.Source))
		}
	}
	out.Total = len(out.Patients)
	return out, nil
}

// Members returns the current records of a cohort at asOf; used by the
// action sweep and exports.
func (e *CohortEngine) Members(ctx context.Context, asOf pipeline.AsOf, cohorts ...pipeline.Cohort) (map[pipeline.Cohort][]*entity.Patient, error) {
	includeTerminal := false
	for _, c := range cohorts {
		includeTerminal = includeTerminal || c.NeedsTerminal()
	}
	ev, err := e.Evaluate(ctx, asOf, includeTerminal)
	if err != nil {
		return nil, err
	}

	out := make(map[pipeline.Cohort][]*entity.Patient, len(cohorts))
	for _, s := range ev.Snapshots {
		for _, c := range cohorts {
			if c.Member(s.Patient, s.Classification, asOf.Date) {
				out[c] = append(out[c], s.Patient)
			}
		}
	}
	return out, nil
}
