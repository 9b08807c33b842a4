package usecase

import (
	"context"

	"github.com/xavierca1/dental-funnel/internal/entity"
	"github.com/xavierca1/dental-funnel/internal/pipeline"
)

// DailyStatistics reports, per cohort, how many patients were members at the
// start of date and how many of them were worked on during the day.
func (e *CohortEngine) DailyStatistics(ctx context.Context, date string) (*DailyStatisticsOutput, error) {
	asOf, err := e.ResolveAsOf(date)
	if err != nil {
		return nil, err
	}
	day := asOf.Date
	today := e.today()
	if day.After(today) {
		return nil, &DomainError{Code: CodeValidation, Message: "statistics are not available for future dates"}
	}

	patients, err := e.Patients.FindAll(ctx)
	if err != nil {
		return nil, storeError("failed to load patients", err)
	}
	start := pipeline.AtMidnight(day, e.Loc)
	changes, err := e.StatusLog.ListSince(ctx, start.Midnight())
	if err != nil {
		return nil, storeError("failed to load status changes", err)
	}
	end := pipeline.AtMidnight(day.AddDays(1), e.Loc)

	type dayView struct {
		skip       bool
		startState pipeline.Snapshot
		endRecord  *entity.Patient
	}
	views := make([]dayView, len(patients))

	err = e.fanOut(ctx, len(patients), func(i int) {
		p := patients[i]
		if !p.HasIdentity() {
			views[i].skip = true
			return
		}
		views[i].startState = pipeline.Reconstruct(p, start, changes[p.ID])
		if day == today {
			views[i].endRecord = p
		} else {
			views[i].endRecord = pipeline.Reconstruct(p, end, changes[p.ID]).Patient
		}
	})
	if err != nil {
		return nil, err
	}

	out := &DailyStatisticsOutput{Date: day, Cohorts: make([]CohortStatistic, 0, len(pipeline.StatisticCohorts))}
	totals := map[pipeline.Cohort]*CohortStatistic{}
	for _, c := range pipeline.StatisticCohorts {
		out.Cohorts = append(out.Cohorts, CohortStatistic{Cohort: c})
	}
	for i := range out.Cohorts {
		totals[out.Cohorts[i].Cohort] = &out.Cohorts[i]
	}

	for _, v := range views {
		if v.skip {
			out.Skipped++
			continue
		}
		if !v.startState.Exists {
			continue
		}
		for _, c := range pipeline.StatisticCohorts {
			if !c.Member(v.startState.Patient, v.startState.Classification, day) {
				continue
			}
			stat := totals[c]
			stat.Total++
			if pipeline.Processed(c, v.startState.Patient, v.endRecord, day, e.Loc) {
				stat.Processed++
			}
		}
	}
	for i := range out.Cohorts {
		out.Cohorts[i].ProcessingRate = pipeline.ProcessingRate(out.Cohorts[i].Processed, out.Cohorts[i].Total)
	}

	out.Estimates = pipeline.DailyEstimates(patients, day)
	return out, nil
}
