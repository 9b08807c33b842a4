package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/xavierca1/dental-funnel/internal/entity"
	"github.com/xavierca1/dental-funnel/internal/pipeline"
)

type CohortMembers interface {
	Members(ctx context.Context, asOf pipeline.AsOf, cohorts ...pipeline.Cohort) (map[pipeline.Cohort][]*entity.Patient, error)
}

var sweepReasons = []struct {
	cohort pipeline.Cohort
	reason entity.ActionReason
}{
	{pipeline.CohortOverdue, entity.ReasonOverdue},
	{pipeline.CohortTodayScheduled, entity.ReasonDueToday},
	{pipeline.CohortReminderRegistrationNeeded, entity.ReasonReminderNeeded},
}

// ActionSweepUseCase publishes one notification per patient and reason per
// day for the cohorts that need a counselor today.
type ActionSweepUseCase struct {
	Cohorts   CohortMembers
	Publisher ActionPublisher
	Ledger    ActionLedger
	Loc       *time.Location
	Now       func() time.Time
	Logger    zerolog.Logger
}

func NewActionSweepUseCase(cohorts CohortMembers, publisher ActionPublisher, ledger ActionLedger, loc *time.Location, logger zerolog.Logger) *ActionSweepUseCase {
	return &ActionSweepUseCase{
		Cohorts:   cohorts,
		Publisher: publisher,
		Ledger:    ledger,
		Loc:       loc,
		Now:       time.Now,
		Logger:    logger,
	}
}

type SweepResult struct {
	Published map[entity.ActionReason]int
	Failed    int
}

func (uc *ActionSweepUseCase) Execute(ctx context.Context) (*SweepResult, error) {
	asOf := pipeline.NewAsOf(uc.Now(), uc.Loc)

	cohorts := make([]pipeline.Cohort, 0, len(sweepReasons))
	for _, r := range sweepReasons {
		cohorts = append(cohorts, r.cohort)
	}
	members, err := uc.Cohorts.Members(ctx, asOf, cohorts...)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Published: map[entity.ActionReason]int{}}
	for _, r := range sweepReasons {
		for _, p := range members[r.cohort] {
			n := entity.ActionNotification{
				PatientID: p.ID,
				Name:      p.Name,
				Phone:     p.Phone,
				Reason:    r.reason,
				Phase:     entity.NextPhase(p),
				Date:      asOf.Date,
				DueDate:   dueDate(p),
			}
			key := n.DedupKey()
			if uc.Ledger.Seen(key) {
				continue
			}
			if err := uc.Publisher.PublishAction(ctx, n); err != nil {
				result.Failed++
				uc.Logger.Error().Err(err).Str("patient_id", p.ID).Str("reason", string(r.reason)).Msg("failed to publish action")
				continue
			}
			uc.Ledger.Mark(key)
			result.Published[r.reason]++
		}
	}
	return result, nil
}

func dueDate(p *entity.Patient) entity.Date {
	if c := p.PendingCallback(p.CurrentPhase()); c != nil {
		return c.ScheduledDate
	}
	return p.NextCallbackDate
}

// MemoryLedger keeps the keys of the current day only.
type MemoryLedger struct {
	mu   sync.Mutex
	day  string
	keys map[string]struct{}
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{keys: make(map[string]struct{})}
}

func (l *MemoryLedger) Seen(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.keys[key]
	return ok
}

func (l *MemoryLedger) Mark(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	day, _, _ := strings.Cut(key, "|")
	if day != l.day {
		l.day = day
		l.keys = make(map[string]struct{})
	}
	l.keys[key] = struct{}{}
}
