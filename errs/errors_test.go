package errs_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/onavg/errs"
)

func TestMissingMarketData_IsAndAs(t *testing.T) {
	t.Parallel()

	date := time.Date(2015, 1, 9, 0, 0, 0, 0, time.UTC)
	err := fmt.Errorf("Rate: %w", &errs.MissingMarketDataError{Index: "USD-FED-FUND", Date: date})

	assert.True(t, errors.Is(err, errs.ErrMissingMarketData))
	assert.False(t, errors.Is(err, errs.ErrDimensionMismatch))

	var target *errs.MissingMarketDataError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, date, target.Date)
	assert.Contains(t, err.Error(), "2015-01-09")
}

func TestDimensionMismatch_Message(t *testing.T) {
	t.Parallel()

	err := &errs.DimensionMismatchError{Curve: "USD-OIS", Got: 3, Want: 4}
	assert.Equal(t, "[DIMENSION_MISMATCH] curve USD-OIS: got 3 values, want 4", err.Error())
	assert.ErrorIs(t, err, errs.ErrDimensionMismatch)
}

func TestCalibrationMetadataMissing_Is(t *testing.T) {
	t.Parallel()

	err := &errs.CalibrationMetadataMissingError{Curve: "GBP-OIS", Reason: "curve not found"}
	assert.ErrorIs(t, err, errs.ErrCalibrationMetadataMissing)
	assert.NotErrorIs(t, err, errs.ErrInvalidObservationPeriod)
}
