package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/dental-funnel/internal/entity"
	"github.com/xavierca1/dental-funnel/internal/pipeline"
)

type RollupUseCase struct {
	Patients entity.PatientRepository
	Loc      *time.Location
	Now      func() time.Time
}

func NewRollupUseCase(patients entity.PatientRepository, loc *time.Location) *RollupUseCase {
	return &RollupUseCase{Patients: patients, Loc: loc, Now: time.Now}
}

func (uc *RollupUseCase) today() entity.Date {
	return entity.DateOf(uc.Now(), uc.Loc)
}

func (uc *RollupUseCase) Daily(ctx context.Context, date string) (*entity.Rollup, error) {
	period, err := entity.ParsePeriod(entity.PeriodDaily, date)
	if err != nil {
		return nil, domainFromEntity(err)
	}
	return uc.Compute(ctx, period)
}

func (uc *RollupUseCase) Monthly(ctx context.Context, yearMonth string) (*entity.Rollup, error) {
	period, err := entity.ParsePeriod(entity.PeriodMonthly, yearMonth)
	if err != nil {
		return nil, domainFromEntity(entity.ErrInvalidPeriod)
	}
	return uc.Compute(ctx, period)
}

// Compute builds the rollup of period from current records. Monthly rollups
// also carry the change against the previous month.
func (uc *RollupUseCase) Compute(ctx context.Context, period entity.Period) (*entity.Rollup, error) {
	asOf := uc.today()

	if period.Kind == entity.PeriodDaily {
		// the estimate summary looks at visits and treatment starts on the day
		// regardless of when the patient first called
		patients, err := uc.Patients.FindAll(ctx)
		if err != nil {
			return nil, storeError("failed to load patients", err)
		}
		r := pipeline.Calculate(patients, period, asOf)
		return &r, nil
	}

	patients, err := uc.Patients.FindByCallInRange(ctx, period.Start, period.End)
	if err != nil {
		return nil, storeError("failed to load patients", err)
	}
	r := pipeline.Calculate(patients, period, asOf)

	prevKey, err := entity.PreviousMonth(period.Key)
	if err != nil {
		return nil, domainFromEntity(entity.ErrInvalidPeriod)
	}
	prevPeriod, _ := entity.MonthlyPeriod(prevKey)
	prevPatients, err := uc.Patients.FindByCallInRange(ctx, prevPeriod.Start, prevPeriod.End)
	if err != nil {
		return nil, storeError("failed to load previous month", err)
	}
	prev := pipeline.Calculate(prevPatients, prevPeriod, asOf)
	changes := pipeline.Compare(r, prev)
	r.Changes = &changes
	return &r, nil
}

// Bucket lists the month's inquiries that fall in one revenue bucket.
func (uc *RollupUseCase) Bucket(ctx context.Context, yearMonth, bucket string) (*BucketOutput, error) {
	period, err := entity.ParsePeriod(entity.PeriodMonthly, yearMonth)
	if err != nil {
		return nil, domainFromEntity(entity.ErrInvalidPeriod)
	}
	b := entity.RevenueBucket(bucket)
	switch b {
	case entity.BucketAchieved, entity.BucketPotential, entity.BucketLost:
	default:
		return nil, &DomainError{Code: CodeValidation, Message: "unknown revenue bucket: " + bucket}
	}

	patients, err := uc.Patients.FindByCallInRange(ctx, period.Start, period.End)
	if err != nil {
		return nil, storeError("failed to load patients", err)
	}

	out := &BucketOutput{Period: period, Bucket: b, Patients: []PatientSummary{}}
	for _, p := range pipeline.BucketMembers(patients, period, uc.today(), b) {
		s := summarize(p, pipeline.SourceCurrent)
		out.Amount += s.Amount
		out.Patients = append(out.Patients, s)
	}
	return out, nil
}
