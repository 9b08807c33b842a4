package pipeline

import (
	"math"
	"sort"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

// Calculate aggregates the inquiries of period. Patients outside the period
// are ignored except for the daily estimate summary, which looks at every
// visit and treatment start on the day. All rates share TotalInquiries as
// their denominator.
func Calculate(patients []*entity.Patient, period entity.Period, asOf entity.Date) entity.Rollup {
	r := entity.Rollup{Period: period, AsOf: asOf}

	regions := map[string]int{}
	channels := map[string]int{}
	ageSum, ageCount := 0, 0

	for _, p := range patients {
		if !p.CallInDate.Within(period.Start, period.End) {
			continue
		}
		if !p.HasIdentity() {
			r.Skipped++
			continue
		}
		r.TotalInquiries++

		if everReserved(p) {
			r.Counts.Reservations++
		}
		if p.VisitConfirmed {
			r.Counts.Visits++
		}
		if p.VisitConfirmed && treatmentStarted(p) {
			r.Counts.TreatmentsStarted++
		}
		if !p.IsTerminal() && !p.VisitConfirmed && p.Status == entity.StatusAbsent {
			r.Counts.Absent++
		}
		if p.IsTerminal() {
			r.Counts.Closed++
		}
		if p.Age > 0 {
			ageSum += p.Age
			ageCount++
		}

		addToBucket(&r.Revenue, p, asOf)
		regions[entity.RegionOf(p)]++
		channels[entity.ChannelOf(p)]++
	}

	if ageCount > 0 {
		r.Counts.AverageAge = round1(float64(ageSum) / float64(ageCount))
	}
	r.Rates = entity.Rates{
		Reservation: Percent(r.Counts.Reservations, r.TotalInquiries),
		Visit:       Percent(r.Counts.Visits, r.TotalInquiries),
		Treatment:   Percent(r.Counts.TreatmentsStarted, r.TotalInquiries),
	}
	r.Revenue.Total = r.Revenue.Achieved.Amount + r.Revenue.Potential.Amount + r.Revenue.Lost.Amount
	r.Regions = breakdown(regions, r.TotalInquiries)
	r.Channels = breakdown(channels, r.TotalInquiries)

	if period.Kind == entity.PeriodDaily {
		est := DailyEstimates(patients, period.Start)
		r.Estimates = &est
	}
	return r
}

// RevenueBucketOf places a patient in exactly one revenue bucket. A started
// treatment is achieved even if the record was closed afterwards.
func RevenueBucketOf(p *entity.Patient, asOf entity.Date) entity.RevenueBucket {
	switch {
	case p.VisitConfirmed && treatmentStarted(p):
		return entity.BucketAchieved
	case p.IsTerminal():
		return entity.BucketLost
	case !p.VisitConfirmed && p.Status == entity.StatusAbsent:
		return entity.BucketLost
	case ReservedNotVisited(p, asOf):
		return entity.BucketLost
	default:
		return entity.BucketPotential
	}
}

// treatmentStarted also holds for a record closed after its treatment began;
// Close keeps the started status in PreviousPostVisitStatus.
func treatmentStarted(p *entity.Patient) bool {
	switch p.PostVisitStatus {
	case entity.PostVisitTreatmentStarted:
		return true
	case entity.PostVisitClosed:
		return p.PreviousPostVisitStatus == entity.PostVisitTreatmentStarted
	}
	return false
}

// BucketMembers returns the period's inquiries that fall in bucket.
func BucketMembers(patients []*entity.Patient, period entity.Period, asOf entity.Date, bucket entity.RevenueBucket) []*entity.Patient {
	var out []*entity.Patient
	for _, p := range patients {
		if !p.CallInDate.Within(period.Start, period.End) || !p.HasIdentity() {
			continue
		}
		if RevenueBucketOf(p, asOf) == bucket {
			out = append(out, p)
		}
	}
	return out
}

func DailyEstimates(patients []*entity.Patient, day entity.Date) entity.DailyEstimates {
	var est entity.DailyEstimates
	for _, p := range patients {
		if !p.HasIdentity() {
			continue
		}
		amount := entity.ResolveAmount(p)

		consulted := p.CallInDate
		if p.Consultation != nil && !p.Consultation.ConsultedAt.IsZero() {
			consulted = p.Consultation.ConsultedAt
		}
		if p.Consultation != nil && consulted == day {
			est.Consultation.Count++
			est.Consultation.Amount += amount
		}
		if p.VisitConfirmed && p.VisitDate == day {
			est.Visit.Count++
			est.Visit.Amount += amount
		}
		if treatmentStarted(p) && p.TreatmentStartDate == day {
			est.Treatment.Count++
			est.Treatment.Amount += amount
		}
	}
	return est
}

// Compare reports month-over-month movement of the headline figures.
func Compare(current, previous entity.Rollup) entity.Changes {
	return entity.Changes{
		TotalInquiries:  change(float64(current.TotalInquiries), float64(previous.TotalInquiries)),
		ReservationRate: change(current.Rates.Reservation, previous.Rates.Reservation),
		VisitRate:       change(current.Rates.Visit, previous.Rates.Visit),
		TreatmentRate:   change(current.Rates.Treatment, previous.Rates.Treatment),
		AchievedRevenue: change(current.Revenue.Achieved.Amount, previous.Revenue.Achieved.Amount),
	}
}

// Percent returns n/total as a percentage rounded to one decimal, 0 when
// total is 0.
func Percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(n) / float64(total) * 100)
}

// ProcessingRate is the whole-number percentage used by the daily statistic.
func ProcessingRate(processed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(processed) / float64(total) * 100))
}

func everReserved(p *entity.Patient) bool {
	return p.VisitConfirmed ||
		!p.ReservationDate.IsZero() ||
		p.Status == entity.StatusReserved ||
		p.Status == entity.StatusReReserved
}

func addToBucket(rev *entity.Revenue, p *entity.Patient, asOf entity.Date) {
	var b *entity.BucketTotals
	switch RevenueBucketOf(p, asOf) {
	case entity.BucketAchieved:
		b = &rev.Achieved
	case entity.BucketLost:
		b = &rev.Lost
	default:
		b = &rev.Potential
	}

	amount := entity.ResolveAmount(p)
	b.Count++
	b.Amount += amount
	if p.VisitConfirmed {
		b.Visit.Count++
		b.Visit.Amount += amount
	} else {
		b.Consultation.Count++
		b.Consultation.Amount += amount
	}
}

func breakdown(counts map[string]int, total int) []entity.Breakdown {
	out := make([]entity.Breakdown, 0, len(counts))
	for k, n := range counts {
		out = append(out, entity.Breakdown{Key: k, Count: n, Percentage: Percent(n, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func change(current, previous float64) entity.Change {
	diff := round1(current - previous)
	switch {
	case diff > 0:
		return entity.Change{Value: diff, Direction: entity.ChangeIncrease}
	case diff < 0:
		return entity.Change{Value: -diff, Direction: entity.ChangeDecrease}
	default:
		return entity.Change{Direction: entity.ChangeUnchanged}
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
