package curve

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meenmo/onavg/calendar"
	"github.com/meenmo/onavg/market"
	"github.com/meenmo/onavg/utils"
)

// Options controls the bootstrap solver.
type Options struct {
	Tolerance           float64
	MaxIterations       int
	MinDiscountFactor   float64
	DerivativeThreshold float64
}

// DefaultOptions returns the solver settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		Tolerance:           1e-12,
		MaxIterations:       50,
		MinDiscountFactor:   1e-9,
		DerivativeThreshold: 1e-15,
	}
}

// OISConvention describes the fixed leg of the OIS quotes used for calibration.
type OISConvention struct {
	Calendar       calendar.CalendarID
	FixedDayCount  string
	PaymentDelay   int
	CouponInterval int // months
}

// OISConventionFor returns the market convention for OIS on the given index.
func OISConventionFor(index market.OvernightIndex) OISConvention {
	conv := OISConvention{
		Calendar:       index.Calendar,
		FixedDayCount:  string(index.DayCount),
		CouponInterval: 12,
	}
	switch index.Calendar {
	case calendar.USD:
		// SOFR and Fed Fund OIS pay T+2.
		conv.PaymentDelay = 2
	case calendar.TARGET:
		// ESTR OIS fixed legs accrue 30/360 and pay T+1.
		conv.FixedDayCount = "30/360"
		conv.PaymentDelay = 1
	}
	return conv
}

type oisCoupon struct {
	PaymentDate time.Time
	Accrual     float64
}

// instrument is a calibrated OIS: par rate q solves q * sum(alpha * DF(pay)) = 1 - DF(maturity).
type instrument struct {
	Tenor    string
	Quote    float64 // decimal
	Maturity time.Time
	Coupons  []oisCoupon
	Pillar   time.Time
}

// buildOISCoupons rolls annual coupon dates backward from the unadjusted maturity so
// every coupon aligns with the swap end date.
func buildOISCoupons(settlement, unadjustedMaturity time.Time, conv OISConvention) []oisCoupon {
	months := conv.CouponInterval
	if months <= 0 {
		months = 12
	}

	unadjustedDates := []time.Time{}
	current := unadjustedMaturity
	for current.After(settlement) {
		unadjustedDates = append([]time.Time{current}, unadjustedDates...)
		current = utils.AddMonth(current, -months)
	}
	unadjustedDates = append([]time.Time{settlement}, unadjustedDates...)

	coupons := make([]oisCoupon, 0, len(unadjustedDates)-1)
	for i := 0; i < len(unadjustedDates)-1; i++ {
		accrualStart := calendar.Adjust(conv.Calendar, unadjustedDates[i])
		accrualEnd := calendar.Adjust(conv.Calendar, unadjustedDates[i+1])
		payDate := calendar.AddBusinessDays(conv.Calendar, accrualEnd, conv.PaymentDelay)
		coupons = append(coupons, oisCoupon{
			PaymentDate: payDate,
			Accrual:     utils.YearFraction(accrualStart, accrualEnd, conv.FixedDayCount),
		})
	}
	return coupons
}

func newInstrument(settlement time.Time, tenor string, quotePercent float64, conv OISConvention) (instrument, error) {
	unadjusted, err := addTenor(settlement, tenor)
	if err != nil {
		return instrument{}, err
	}
	inst := instrument{
		Tenor:    tenor,
		Quote:    quotePercent / 100.0,
		Maturity: calendar.Adjust(conv.Calendar, unadjusted),
		Coupons:  buildOISCoupons(settlement, unadjusted, conv),
	}
	// The pillar sits on the last date the instrument depends on, so later pillars
	// never move its repricing.
	inst.Pillar = inst.Maturity
	for _, cpn := range inst.Coupons {
		if cpn.PaymentDate.After(inst.Pillar) {
			inst.Pillar = cpn.PaymentDate
		}
	}
	return inst, nil
}

// parRate returns the par rate of inst on curve c.
func (c *Curve) parRate(inst instrument) float64 {
	annuity := 0.0
	for _, cpn := range inst.Coupons {
		annuity += cpn.Accrual * c.DF(cpn.PaymentDate)
	}
	return (1 - c.DF(inst.Maturity)) / annuity
}

// parRateSensitivity returns d(parRate)/dz for each curve parameter.
func (c *Curve) parRateSensitivity(inst instrument) []float64 {
	n := len(c.zeros)
	annuity := 0.0
	dAnnuity := make([]float64, n)
	for _, cpn := range inst.Coupons {
		df := c.DF(cpn.PaymentDate)
		annuity += cpn.Accrual * df
		for i, s := range c.LogDFSensitivity(cpn.PaymentDate) {
			dAnnuity[i] += cpn.Accrual * df * s
		}
	}
	dfMat := c.DF(inst.Maturity)
	dMat := c.LogDFSensitivity(inst.Maturity)

	out := make([]float64, n)
	for i := range out {
		dNum := -dfMat * dMat[i]
		out[i] = (dNum*annuity - (1-dfMat)*dAnnuity[i]) / (annuity * annuity)
	}
	return out
}

// Bootstrap calibrates a curve to OIS par quotes (tenor -> percent). Pillars are solved
// one at a time with Newton-Raphson on the pillar discount factor, then the
// calibration Jacobian is attached.
func Bootstrap(name string, ccy market.Currency, settlement time.Time, quotes map[string]float64, conv OISConvention, opts Options) (*Curve, error) {
	if len(quotes) == 0 {
		return nil, fmt.Errorf("bootstrap %s: no quotes", name)
	}
	if err := utils.CheckDayCount(conv.FixedDayCount); err != nil {
		return nil, fmt.Errorf("bootstrap %s: %w", name, err)
	}
	if !calendar.IsKnown(conv.Calendar) {
		return nil, fmt.Errorf("bootstrap %s: unknown calendar %q", name, conv.Calendar)
	}

	instruments := make([]instrument, 0, len(quotes))
	for tenor, q := range quotes {
		inst, err := newInstrument(settlement, tenor, q, conv)
		if err != nil {
			return nil, fmt.Errorf("bootstrap %s: %w", name, err)
		}
		instruments = append(instruments, inst)
	}
	sort.Slice(instruments, func(i, j int) bool {
		return instruments[i].Pillar.Before(instruments[j].Pillar)
	})
	for i := 1; i < len(instruments); i++ {
		if !instruments[i].Pillar.After(instruments[i-1].Pillar) {
			return nil, fmt.Errorf("bootstrap %s: tenors %s and %s share pillar %s", name,
				instruments[i-1].Tenor, instruments[i].Tenor, instruments[i].Pillar.Format(utils.DateLayout))
		}
	}

	b := bootstrapper{settlement: settlement, opts: opts}
	for _, inst := range instruments {
		df, err := b.solve(inst)
		if err != nil {
			return nil, fmt.Errorf("bootstrap %s: tenor %s: %w", name, inst.Tenor, err)
		}
		b.add(inst.Pillar, df)
	}

	pillars := make([]time.Time, len(instruments))
	zeros := make([]float64, len(instruments))
	for i, inst := range instruments {
		pillars[i] = inst.Pillar
		zeros[i] = -math.Log(b.dfs[i+1]) / b.times[i+1]
	}
	c, err := FromZeroRates(name, ccy, settlement, pillars, zeros)
	if err != nil {
		return nil, err
	}
	c.instruments = instruments

	info, err := c.calibrationJacobian()
	if err != nil {
		return nil, fmt.Errorf("bootstrap %s: %w", name, err)
	}
	return c.WithCalibrationInfo(info), nil
}

// bootstrapper holds the pillars solved so far, anchored at DF(settlement) = 1.
type bootstrapper struct {
	settlement time.Time
	opts       Options
	times      []float64
	dfs        []float64
}

func (b *bootstrapper) add(pillar time.Time, df float64) {
	if len(b.times) == 0 {
		b.times = []float64{0}
		b.dfs = []float64{1}
	}
	b.times = append(b.times, utils.YearFraction(b.settlement, pillar, curveDayCount))
	b.dfs = append(b.dfs, df)
}

func (b *bootstrapper) knownDF(t float64) float64 {
	if len(b.times) < 2 {
		return 1.0
	}
	j, lambda := findSegment(b.times, t)
	return math.Exp((1-lambda)*math.Log(b.dfs[j]) + lambda*math.Log(b.dfs[j+1]))
}

// unknownDF interpolates DF at t between the last solved pillar and the pillar being
// solved, whose DF is x. It returns DF(t) and dDF(t)/dx.
func (b *bootstrapper) unknownDF(t, tStart, dfStart, tEnd, x float64) (float64, float64) {
	if tEnd == tStart {
		return dfStart, 0
	}
	ratio := (t - tStart) / (tEnd - tStart)
	if x <= b.opts.MinDiscountFactor {
		x = b.opts.MinDiscountFactor
	}
	dfT := math.Pow(dfStart, 1.0-ratio) * math.Pow(x, ratio)
	return dfT, ratio * dfT / x
}

// solve finds DF(pillar) such that 1 = q * sum(alpha * DF(pay)) + DF(maturity).
func (b *bootstrapper) solve(inst instrument) (float64, error) {
	tPrev, dfPrev := 0.0, 1.0
	if n := len(b.times); n > 0 {
		tPrev, dfPrev = b.times[n-1], b.dfs[n-1]
	}
	tEnd := utils.YearFraction(b.settlement, inst.Pillar, curveDayCount)

	dfAt := func(d time.Time, x float64) (float64, float64) {
		t := utils.YearFraction(b.settlement, d, curveDayCount)
		if t <= tPrev {
			return b.knownDF(t), 0
		}
		return b.unknownDF(t, tPrev, dfPrev, tEnd, x)
	}

	guess := dfPrev
	for iter := 0; iter < b.opts.MaxIterations; iter++ {
		pvFixed, derivative := 0.0, 0.0
		for _, cpn := range inst.Coupons {
			d, dPrime := dfAt(cpn.PaymentDate, guess)
			pvFixed += d * cpn.Accrual * inst.Quote
			derivative += dPrime * cpn.Accrual * inst.Quote
		}
		dMat, dMatPrime := dfAt(inst.Maturity, guess)

		fVal := pvFixed + dMat - 1.0
		fPrime := derivative + dMatPrime
		if math.Abs(fVal) < b.opts.Tolerance {
			return guess, nil
		}
		if math.Abs(fPrime) < b.opts.DerivativeThreshold {
			return 0, fmt.Errorf("flat derivative at iteration %d", iter)
		}
		guess -= fVal / fPrime
		if guess <= b.opts.MinDiscountFactor {
			guess = b.opts.MinDiscountFactor
		}
	}
	return 0, fmt.Errorf("no convergence after %d iterations", b.opts.MaxIterations)
}
