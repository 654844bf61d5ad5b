// Package errs defines the typed failures raised by the rate and risk computations.
//
// Each error carries the identifier that caused it (a date, a curve name or a
// dimension). Use errors.As to inspect the details and errors.Is against the
// package sentinels to match a failure kind.
package errs

import (
	"fmt"
	"time"
)

// Kind classifies a failure.
type Kind string

const (
	KindMissingMarketData          Kind = "MISSING_MARKET_DATA"
	KindInvalidObservationPeriod   Kind = "INVALID_OBSERVATION_PERIOD"
	KindCalibrationMetadataMissing Kind = "CALIBRATION_METADATA_MISSING"
	KindDimensionMismatch          Kind = "DIMENSION_MISMATCH"
)

// kindError is the sentinel type matched by errors.Is.
type kindError struct {
	kind Kind
}

func (e *kindError) Error() string { return string(e.kind) }

// Sentinels for errors.Is.
var (
	ErrMissingMarketData          error = &kindError{KindMissingMarketData}
	ErrInvalidObservationPeriod   error = &kindError{KindInvalidObservationPeriod}
	ErrCalibrationMetadataMissing error = &kindError{KindCalibrationMetadataMissing}
	ErrDimensionMismatch          error = &kindError{KindDimensionMismatch}
)

func matches(target error, kind Kind) bool {
	k, ok := target.(*kindError)
	return ok && k.kind == kind
}

// MissingMarketDataError reports a published fixing required by the computation
// that is absent from the fixing series.
type MissingMarketDataError struct {
	Index string
	Date  time.Time
}

func (e *MissingMarketDataError) Error() string {
	return fmt.Sprintf("[%s] no fixing for index %s on %s", KindMissingMarketData, e.Index, e.Date.Format("2006-01-02"))
}

func (e *MissingMarketDataError) Is(target error) bool { return matches(target, KindMissingMarketData) }

// InvalidObservationPeriodError reports malformed period bounds or cut-off count.
type InvalidObservationPeriodError struct {
	Start  time.Time
	End    time.Time
	Cutoff int
	Reason string
}

func (e *InvalidObservationPeriodError) Error() string {
	return fmt.Sprintf("[%s] period %s to %s, cutoff %d: %s", KindInvalidObservationPeriod,
		e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"), e.Cutoff, e.Reason)
}

func (e *InvalidObservationPeriodError) Is(target error) bool {
	return matches(target, KindInvalidObservationPeriod)
}

// CalibrationMetadataMissingError reports a curve that cannot be found or has no
// Jacobian calibration information.
type CalibrationMetadataMissingError struct {
	Curve  string
	Reason string
}

func (e *CalibrationMetadataMissingError) Error() string {
	return fmt.Sprintf("[%s] curve %s: %s", KindCalibrationMetadataMissing, e.Curve, e.Reason)
}

func (e *CalibrationMetadataMissingError) Is(target error) bool {
	return matches(target, KindCalibrationMetadataMissing)
}

// DimensionMismatchError reports vectors or matrices whose sizes disagree.
type DimensionMismatchError struct {
	Curve string
	Got   int
	Want  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("[%s] curve %s: got %d values, want %d", KindDimensionMismatch, e.Curve, e.Got, e.Want)
}

func (e *DimensionMismatchError) Is(target error) bool { return matches(target, KindDimensionMismatch) }
