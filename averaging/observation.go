// Package averaging computes the rate of an overnight averaged observation: the
// accrual weighted average of daily overnight rates over a period, mixing published
// fixings with projected rates and applying a rate cut-off at the end of the period.
package averaging

import (
	"time"

	"github.com/meenmo/onavg/errs"
	"github.com/meenmo/onavg/market"
)

// Observation is an overnight averaged rate observed over fixing dates in
// [StartDate, EndDate). The last RateCutoffDays-1 fixings reuse the rate fixed
// RateCutoffDays business days before EndDate.
type Observation struct {
	Index          market.OvernightIndex
	StartDate      time.Time
	EndDate        time.Time
	RateCutoffDays int
}

// NewObservation validates the period and cut-off count.
func NewObservation(index market.OvernightIndex, start, end time.Time, cutoffDays int) (Observation, error) {
	obs := Observation{Index: index, StartDate: start, EndDate: end, RateCutoffDays: cutoffDays}
	if _, err := obs.checkedFixingDates(); err != nil {
		return Observation{}, err
	}
	return obs, nil
}

// FixingDates lists the index fixing dates in [StartDate, EndDate).
func (o Observation) FixingDates() []time.Time {
	return o.Index.FixingDates(o.StartDate, o.EndDate)
}

func (o Observation) invalid(reason string) error {
	return &errs.InvalidObservationPeriodError{
		Start:  o.StartDate,
		End:    o.EndDate,
		Cutoff: o.RateCutoffDays,
		Reason: reason,
	}
}

func (o Observation) checkedFixingDates() ([]time.Time, error) {
	if err := o.Index.Validate(); err != nil {
		return nil, err
	}
	if !o.StartDate.Before(o.EndDate) {
		return nil, o.invalid("start date must be before end date")
	}
	if o.RateCutoffDays < 0 {
		return nil, o.invalid("negative cut-off days")
	}
	dates := o.FixingDates()
	if len(dates) == 0 {
		return nil, o.invalid("no fixing dates in period")
	}
	if o.RateCutoffDays >= len(dates) {
		return nil, o.invalid("cut-off days must be fewer than the fixing dates")
	}
	return dates, nil
}
