package services

import (
	"fmt"
	"time"

	"referral-rewards-system/models"
)

// Window is a period's boundaries in the rewards timezone. End is the last
// second that belongs to the window (23:59:59), matching the stored winner date.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Until is the exclusive upper bound used when aggregating referrals, so the
// final second's fractions are not lost.
func (w Window) Until() time.Time {
	return w.End.Add(time.Second)
}

// PeriodCalculator computes day and week windows in a fixed timezone.
type PeriodCalculator struct {
	Location *time.Location
}

func NewPeriodCalculator(loc *time.Location) *PeriodCalculator {
	if loc == nil {
		loc = time.UTC
	}
	return &PeriodCalculator{Location: loc}
}

// Window returns the period containing ref. Days run midnight to 23:59:59;
// weeks run Sunday midnight to Saturday 23:59:59.
func (p *PeriodCalculator) Window(period models.PeriodType, ref time.Time) (Window, error) {
	switch period {
	case models.PeriodDaily:
		return p.Day(ref), nil
	case models.PeriodWeekly:
		return p.Week(ref), nil
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
	}
}

// Day returns the calendar day containing ref.
func (p *PeriodCalculator) Day(ref time.Time) Window {
	start := p.midnight(ref)
	// AddDate keeps DST days at 23h/25h instead of drifting off midnight.
	return Window{Start: start, End: start.AddDate(0, 0, 1).Add(-time.Second)}
}

// Week returns the Sunday-started week containing ref.
func (p *PeriodCalculator) Week(ref time.Time) Window {
	day := p.midnight(ref)
	start := day.AddDate(0, 0, -int(day.Weekday()))
	return Window{Start: start, End: start.AddDate(0, 0, 7).Add(-time.Second)}
}

func (p *PeriodCalculator) midnight(ref time.Time) time.Time {
	local := ref.In(p.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.Location)
}
