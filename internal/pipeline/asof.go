package pipeline

import (
	"time"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

// AsOf is the single reference instant threaded through one evaluation so
// that every cohort in a response agrees on "today".
type AsOf struct {
	Instant time.Time
	Date    entity.Date
	Loc     *time.Location
}

func NewAsOf(t time.Time, loc *time.Location) AsOf {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return AsOf{Instant: t, Date: entity.DateOf(t, loc), Loc: loc}
}

// AtMidnight pins the reference to the first instant of d.
func AtMidnight(d entity.Date, loc *time.Location) AsOf {
	if loc == nil {
		loc = time.UTC
	}
	return AsOf{Instant: d.Midnight(loc), Date: d, Loc: loc}
}

func (a AsOf) Midnight() time.Time { return a.Date.Midnight(a.Loc) }

func (a AsOf) DateOf(t time.Time) entity.Date { return entity.DateOf(t, a.Loc) }
