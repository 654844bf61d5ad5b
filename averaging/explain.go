package averaging

import (
	"time"

	"go.uber.org/zap"

	"github.com/meenmo/onavg/utils"
)

// ExplainObservation describes the rate used for one fixing date.
type ExplainObservation struct {
	FixingDate     time.Time
	RateFixingDate time.Time
	AccrualFactor  float64
	Rate           float64
	Published      bool
}

// ExplainSink receives the breakdown of a rate computation.
type ExplainSink interface {
	CombinedRate(rate float64)
	Observation(o ExplainObservation)
}

type nopSink struct{}

func (nopSink) CombinedRate(float64)           {}
func (nopSink) Observation(ExplainObservation) {}

// orNop lets callers pass a nil sink.
func orNop(sink ExplainSink) ExplainSink {
	if sink == nil {
		return nopSink{}
	}
	return sink
}

// ExplainMap collects explain output in memory.
type ExplainMap struct {
	combined     *float64
	observations []ExplainObservation
}

var _ ExplainSink = (*ExplainMap)(nil)

// NewExplainMap returns an empty collector.
func NewExplainMap() *ExplainMap {
	return &ExplainMap{}
}

// CombinedRate records the final rate.
func (m *ExplainMap) CombinedRate(rate float64) {
	m.combined = &rate
}

// Observation records a per-date rate.
func (m *ExplainMap) Observation(o ExplainObservation) {
	m.observations = append(m.observations, o)
}

// Combined returns the recorded rate, if any.
func (m *ExplainMap) Combined() (float64, bool) {
	if m.combined == nil {
		return 0, false
	}
	return *m.combined, true
}

// Observations returns the recorded per-date rates.
func (m *ExplainMap) Observations() []ExplainObservation {
	return append([]ExplainObservation(nil), m.observations...)
}

// LoggingSink writes explain output as debug entries.
type LoggingSink struct {
	log *zap.Logger
}

var _ ExplainSink = LoggingSink{}

// NewLoggingSink wraps log. A nil logger discards the output.
func NewLoggingSink(log *zap.Logger) LoggingSink {
	if log == nil {
		log = zap.NewNop()
	}
	return LoggingSink{log: log.Named("explain")}
}

func (s LoggingSink) CombinedRate(rate float64) {
	s.log.Debug("combined rate", zap.Float64("rate", rate))
}

func (s LoggingSink) Observation(o ExplainObservation) {
	s.log.Debug("observation",
		zap.String("fixing_date", o.FixingDate.Format(utils.DateLayout)),
		zap.String("rate_fixing_date", o.RateFixingDate.Format(utils.DateLayout)),
		zap.Float64("accrual_factor", o.AccrualFactor),
		zap.Float64("rate", o.Rate),
		zap.Bool("published", o.Published),
	)
}

type teeSink []ExplainSink

// Tee returns a sink that forwards every entry to each of sinks.
func Tee(sinks ...ExplainSink) ExplainSink {
	return teeSink(append([]ExplainSink(nil), sinks...))
}

func (t teeSink) CombinedRate(rate float64) {
	for _, s := range t {
		s.CombinedRate(rate)
	}
}

func (t teeSink) Observation(o ExplainObservation) {
	for _, s := range t {
		s.Observation(o)
	}
}
