package market

import (
	"fmt"
	"time"

	"github.com/meenmo/onavg/calendar"
	"github.com/meenmo/onavg/utils"
)

// Currency is an ISO 4217 code.
type Currency string

const (
	USD Currency = "USD"
	GBP Currency = "GBP"
	EUR Currency = "EUR"
)

// DayCount enum.
type DayCount string

const (
	Act360  DayCount = "ACT/360"
	Act365F DayCount = "ACT/365F"
)

// OvernightIndex describes a published overnight benchmark and its date arithmetic.
//
// PublicationOffset is the number of business days between a fixing date and the
// day the fixing is published (Fed Fund is published T+1, SONIA on the fixing day).
// EffectiveOffset is the number of business days between the fixing date and the
// start of the overnight deposit.
type OvernightIndex struct {
	Name              string
	Currency          Currency
	Calendar          calendar.CalendarID
	DayCount          DayCount
	PublicationOffset int
	EffectiveOffset   int
}

// Preset overnight indices.
var (
	USDFedFund = OvernightIndex{
		Name:              "USD-FED-FUND",
		Currency:          USD,
		Calendar:          calendar.USD,
		DayCount:          Act360,
		PublicationOffset: 1,
	}

	USDSOFR = OvernightIndex{
		Name:              "USD-SOFR",
		Currency:          USD,
		Calendar:          calendar.USD,
		DayCount:          Act360,
		PublicationOffset: 1,
	}

	GBPSONIA = OvernightIndex{
		Name:     "GBP-SONIA",
		Currency: GBP,
		Calendar: calendar.GBP,
		DayCount: Act365F,
	}

	EURESTR = OvernightIndex{
		Name:              "EUR-ESTR",
		Currency:          EUR,
		Calendar:          calendar.TARGET,
		DayCount:          Act360,
		PublicationOffset: 1,
	}
)

var presets = map[string]OvernightIndex{
	USDFedFund.Name: USDFedFund,
	USDSOFR.Name:    USDSOFR,
	GBPSONIA.Name:   GBPSONIA,
	EURESTR.Name:    EURESTR,
}

// IndexByName returns the preset index with the given name.
func IndexByName(name string) (OvernightIndex, bool) {
	idx, ok := presets[name]
	return idx, ok
}

// Validate rejects indices whose day count or calendar the date arithmetic does not
// implement.
func (i OvernightIndex) Validate() error {
	if i.Name == "" {
		return fmt.Errorf("overnight index: empty name")
	}
	if err := utils.CheckDayCount(string(i.DayCount)); err != nil {
		return fmt.Errorf("overnight index %s: %w", i.Name, err)
	}
	if !calendar.IsKnown(i.Calendar) {
		return fmt.Errorf("overnight index %s: unknown calendar %q", i.Name, i.Calendar)
	}
	if i.PublicationOffset < 0 || i.EffectiveOffset < 0 {
		return fmt.Errorf("overnight index %s: negative offset", i.Name)
	}
	return nil
}

// EffectiveFromFixing returns the start date of the deposit fixed on fixingDate.
func (i OvernightIndex) EffectiveFromFixing(fixingDate time.Time) time.Time {
	return calendar.AddBusinessDays(i.Calendar, fixingDate, i.EffectiveOffset)
}

// MaturityFromEffective returns the end date of the one-business-day deposit.
func (i OvernightIndex) MaturityFromEffective(effectiveDate time.Time) time.Time {
	return calendar.Next(i.Calendar, effectiveDate)
}

// MaturityFromFixing returns the end date of the deposit fixed on fixingDate.
func (i OvernightIndex) MaturityFromFixing(fixingDate time.Time) time.Time {
	return i.MaturityFromEffective(i.EffectiveFromFixing(fixingDate))
}

// PublicationFromFixing returns the date on which the fixing for fixingDate is published.
func (i OvernightIndex) PublicationFromFixing(fixingDate time.Time) time.Time {
	return calendar.AddBusinessDays(i.Calendar, fixingDate, i.PublicationOffset)
}

// YearFraction applies the index day count.
func (i OvernightIndex) YearFraction(start, end time.Time) float64 {
	return utils.YearFraction(start, end, string(i.DayCount))
}

// FixingDates lists the index fixing dates in [start, end).
func (i OvernightIndex) FixingDates(start, end time.Time) []time.Time {
	return calendar.BusinessDays(i.Calendar, start, end)
}

// AccrualFactor is the day-count fraction of the deposit fixed on fixingDate.
func (i OvernightIndex) AccrualFactor(fixingDate time.Time) float64 {
	effective := i.EffectiveFromFixing(fixingDate)
	return i.YearFraction(effective, i.MaturityFromEffective(effective))
}
