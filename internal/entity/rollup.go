package entity

type PeriodKind string

const (
	PeriodDaily   PeriodKind = "daily"
	PeriodMonthly PeriodKind = "monthly"
)

type Period struct {
	Kind  PeriodKind `json:"kind"`
	Key   string     `json:"key"`
	Start Date       `json:"start"`
	End   Date       `json:"end"`
}

func DailyPeriod(d Date) Period {
	return Period{Kind: PeriodDaily, Key: d.String(), Start: d, End: d}
}

func MonthlyPeriod(yearMonth string) (Period, error) {
	start, end, err := MonthBounds(yearMonth)
	if err != nil {
		return Period{}, err
	}
	return Period{Kind: PeriodMonthly, Key: yearMonth, Start: start, End: end}, nil
}

// ParsePeriod builds a period from a kind and its key (YYYY-MM-DD or YYYY-MM).
func ParsePeriod(kind PeriodKind, key string) (Period, error) {
	if kind == PeriodMonthly {
		return MonthlyPeriod(key)
	}
	d, err := ParseDate(key)
	if err != nil || d.IsZero() {
		return Period{}, ErrInvalidPeriod
	}
	return DailyPeriod(d), nil
}

type RevenueBucket string

const (
	BucketAchieved  RevenueBucket = "achieved"
	BucketPotential RevenueBucket = "potential"
	BucketLost      RevenueBucket = "lost"
)

type Counts struct {
	Reservations      int     `json:"reservations"`
	Visits            int     `json:"visits"`
	TreatmentsStarted int     `json:"treatmentsStarted"`
	Absent            int     `json:"absent"`
	Closed            int     `json:"closed"`
	AverageAge        float64 `json:"averageAge"`
}

// Rates are percentages of TotalInquiries, rounded to one decimal.
type Rates struct {
	Reservation float64 `json:"reservation"`
	Visit       float64 `json:"visit"`
	Treatment   float64 `json:"treatment"`
}

type AmountCount struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

type BucketTotals struct {
	AmountCount
	Consultation AmountCount `json:"consultation"`
	Visit        AmountCount `json:"visit"`
}

type Revenue struct {
	Achieved  BucketTotals `json:"achieved"`
	Potential BucketTotals `json:"potential"`
	Lost      BucketTotals `json:"lost"`
	Total     float64      `json:"total"`
}

type Breakdown struct {
	Key        string  `json:"key"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type DailyEstimates struct {
	Consultation AmountCount `json:"consultation"`
	Visit        AmountCount `json:"visit"`
	Treatment    AmountCount `json:"treatment"`
}

type ChangeDirection string

const (
	ChangeIncrease  ChangeDirection = "increase"
	ChangeDecrease  ChangeDirection = "decrease"
	ChangeUnchanged ChangeDirection = "unchanged"
)

type Change struct {
	Value     float64         `json:"value"`
	Direction ChangeDirection `json:"direction"`
}

type Changes struct {
	TotalInquiries  Change `json:"totalInquiries"`
	ReservationRate Change `json:"reservationRate"`
	VisitRate       Change `json:"visitRate"`
	TreatmentRate   Change `json:"treatmentRate"`
	AchievedRevenue Change `json:"achievedRevenue"`
}

type Rollup struct {
	Period         Period          `json:"period"`
	AsOf           Date            `json:"asOf"`
	TotalInquiries int             `json:"totalInquiries"`
	Counts         Counts          `json:"counts"`
	Rates          Rates           `json:"rates"`
	Revenue        Revenue         `json:"revenue"`
	Regions        []Breakdown     `json:"regions"`
	Channels       []Breakdown     `json:"channels"`
	Estimates      *DailyEstimates `json:"estimates,omitempty"`
	Changes        *Changes        `json:"changes,omitempty"`
	Skipped        int             `json:"skipped"`
}
