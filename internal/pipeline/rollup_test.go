package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

func withEstimate(p *entity.Patient, discount, regular float64) *entity.Patient {
	p.PostVisitConsultation = &entity.PostVisitConsultation{
		Estimate: entity.Estimate{DiscountPrice: discount, RegularPrice: regular},
	}
	return p
}

func marchPeriod(t *testing.T) entity.Period {
	period, err := entity.MonthlyPeriod("2024-03")
	require.NoError(t, err)
	return period
}

func TestTreatmentStartedCountsAsAchieved(t *testing.T) {
	p := withEstimate(visitPatient(entity.PostVisitTreatmentStarted), 65, 0)

	r := Calculate([]*entity.Patient{p}, marchPeriod(t), today)

	assert.Equal(t, 65.0, r.Revenue.Achieved.Amount)
	assert.Equal(t, 1, r.Revenue.Achieved.Count)
	assert.Equal(t, 1, r.Revenue.Achieved.Visit.Count)
	assert.Zero(t, r.Revenue.Potential.Amount)
	assert.Zero(t, r.Revenue.Lost.Amount)
}

func TestClosedAfterTreatmentStartStaysAchieved(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, seoul)
	p := entity.NewPatient("Kim Minji", "010-1234-5678", "2024-03-04", now)

	_, err := p.ConfirmVisit("2024-03-06", "counselor", now.Add(48*time.Hour))
	require.NoError(t, err)
	_, err = p.ChangePostVisitStatus(entity.PostVisitTreatmentStarted, "counselor", now.Add(49*time.Hour))
	require.NoError(t, err)
	withEstimate(p, 65, 0)
	_, err = p.Close("counselor", now.Add(240*time.Hour))
	require.NoError(t, err)
	require.Equal(t, entity.PostVisitClosed, p.PostVisitStatus)

	assert.Equal(t, entity.BucketAchieved, RevenueBucketOf(p, today))

	r := Calculate([]*entity.Patient{p}, marchPeriod(t), today)
	assert.Equal(t, 65.0, r.Revenue.Achieved.Amount)
	assert.Zero(t, r.Revenue.Lost.Amount)
	assert.Equal(t, 1, r.Counts.TreatmentsStarted)
	assert.Equal(t, 1, r.Counts.Closed)
	assert.Equal(t, 100.0, r.Rates.Treatment)

	est := DailyEstimates([]*entity.Patient{p}, "2024-03-06")
	assert.Equal(t, 1, est.Treatment.Count)
	assert.Equal(t, 65.0, est.Treatment.Amount)
}

func TestRevenueBuckets(t *testing.T) {
	potential := consultationPatient(entity.StatusCallbackNeeded)
	potential.Consultation = &entity.ConsultationInfo{EstimatedAmount: 100}

	absent := consultationPatient(entity.StatusAbsent)
	absent.TreatmentCost = 40

	noShow := consultationPatient(entity.StatusReserved)
	noShow.ReservationDate = today.AddDays(-2)
	noShow.Consultation = &entity.ConsultationInfo{EstimatedAmount: 30}

	closedVisit := withEstimate(visitPatient(entity.PostVisitClosed), 0, 200)

	startedThenClosed := withEstimate(visitPatient(entity.PostVisitTreatmentStarted), 80, 90)
	startedThenClosed.IsCompleted = true

	r := Calculate([]*entity.Patient{potential, absent, noShow, closedVisit, startedThenClosed}, marchPeriod(t), today)

	assert.Equal(t, 100.0, r.Revenue.Potential.Amount)
	assert.Equal(t, 100.0, r.Revenue.Potential.Consultation.Amount)
	assert.Equal(t, 270.0, r.Revenue.Lost.Amount)
	assert.Equal(t, 70.0, r.Revenue.Lost.Consultation.Amount)
	assert.Equal(t, 200.0, r.Revenue.Lost.Visit.Amount)
	assert.Equal(t, 80.0, r.Revenue.Achieved.Amount)
	assert.Equal(t, 450.0, r.Revenue.Total)
}

func TestRatesShareTotalInquiriesDenominator(t *testing.T) {
	var patients []*entity.Patient
	for i := 0; i < 3; i++ {
		patients = append(patients, consultationPatient(entity.StatusCallbackNeeded))
	}
	reserved := consultationPatient(entity.StatusReserved)
	reserved.ReservationDate = today.AddDays(3)
	patients = append(patients, reserved)
	patients = append(patients, visitPatient(entity.PostVisitTreatmentAgreed))
	patients = append(patients, visitPatient(entity.PostVisitTreatmentStarted))

	outside := consultationPatient(entity.StatusReserved)
	outside.CallInDate = "2024-02-27"
	patients = append(patients, outside)

	r := Calculate(patients, marchPeriod(t), today)

	require.Equal(t, 6, r.TotalInquiries)
	assert.Equal(t, Percent(r.Counts.Reservations, r.TotalInquiries), r.Rates.Reservation)
	assert.Equal(t, Percent(r.Counts.Visits, r.TotalInquiries), r.Rates.Visit)
	assert.Equal(t, Percent(r.Counts.TreatmentsStarted, r.TotalInquiries), r.Rates.Treatment)
	assert.Equal(t, 50.0, r.Rates.Reservation)
	assert.Equal(t, 33.3, r.Rates.Visit)
	assert.Equal(t, 16.7, r.Rates.Treatment)
}

func TestCalculateSkipsMissingIdentity(t *testing.T) {
	anonymous := consultationPatient(entity.StatusCallbackNeeded)
	anonymous.Phone = " "

	r := Calculate([]*entity.Patient{anonymous, consultationPatient(entity.StatusNew)}, marchPeriod(t), today)

	assert.Equal(t, 1, r.TotalInquiries)
	assert.Equal(t, 1, r.Skipped)
}

func TestRegionAndChannelBreakdownKeepUnknownBucket(t *testing.T) {
	seoulLandline := consultationPatient(entity.StatusNew)
	seoulLandline.Phone = "02-555-1234"
	seoulLandline.ReferralSource = "youtube"

	mobile := consultationPatient(entity.StatusNew)

	recorded := consultationPatient(entity.StatusNew)
	recorded.Region = "Busan"
	recorded.ReferralSource = "youtube"

	r := Calculate([]*entity.Patient{seoulLandline, mobile, recorded}, marchPeriod(t), today)

	assert.ElementsMatch(t, []entity.Breakdown{
		{Key: "Seoul", Count: 1, Percentage: 33.3},
		{Key: "Busan", Count: 1, Percentage: 33.3},
		{Key: entity.UnknownBucket, Count: 1, Percentage: 33.3},
	}, r.Regions)
	assert.Equal(t, []entity.Breakdown{
		{Key: "youtube", Count: 2, Percentage: 66.7},
		{Key: entity.UnknownBucket, Count: 1, Percentage: 33.3},
	}, r.Channels)
}

func TestDailyRollupIncludesEstimates(t *testing.T) {
	visited := withEstimate(visitPatient(entity.PostVisitNone), 324, 360)
	visited.VisitDate = today

	started := withEstimate(visitPatient(entity.PostVisitTreatmentStarted), 0, 500)
	started.TreatmentStartDate = today

	r := Calculate([]*entity.Patient{visited, started}, entity.DailyPeriod(today), today)

	require.NotNil(t, r.Estimates)
	assert.Equal(t, entity.AmountCount{Count: 1, Amount: 324}, r.Estimates.Visit)
	assert.Equal(t, entity.AmountCount{Count: 1, Amount: 500}, r.Estimates.Treatment)
	assert.Zero(t, r.TotalInquiries)
}

func TestCompare(t *testing.T) {
	cur := entity.Rollup{TotalInquiries: 12, Rates: entity.Rates{Reservation: 40, Visit: 20}}
	prev := entity.Rollup{TotalInquiries: 10, Rates: entity.Rates{Reservation: 45.5, Visit: 20}}

	c := Compare(cur, prev)

	assert.Equal(t, entity.Change{Value: 2, Direction: entity.ChangeIncrease}, c.TotalInquiries)
	assert.Equal(t, entity.Change{Value: 5.5, Direction: entity.ChangeDecrease}, c.ReservationRate)
	assert.Equal(t, entity.ChangeUnchanged, c.VisitRate.Direction)
}

func TestProcessingRate(t *testing.T) {
	assert.Equal(t, 0, ProcessingRate(0, 0))
	assert.Equal(t, 67, ProcessingRate(2, 3))
	assert.Equal(t, 100, ProcessingRate(4, 4))
}
