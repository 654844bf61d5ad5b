package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioPath = "testdata/fedfund.yaml"

func runCmd(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("ONAVG_DATABASE_DSN", "")
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Rate(t *testing.T) {
	code, stdout, _ := runCmd(t, "", "rate", "-s", scenarioPath)
	require.Equal(t, 0, code, stdout)

	var out RateOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "USD-FED-FUND", out.Index)
	assert.Equal(t, "approx", out.Method)
	assert.Equal(t, 2, out.CutoffDays)
	assert.Greater(t, out.RatePct, 0.05)
	assert.Less(t, out.RatePct, 0.25)
	assert.Empty(t, out.Observations)
}

func TestRun_RateForwardExplain(t *testing.T) {
	code, stdout, _ := runCmd(t, "", "rate", "-s", scenarioPath, "--method", "forward", "--explain")
	require.Equal(t, 0, code, stdout)

	var out RateOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "forward", out.Method)

	// USD business days from 2015-01-08 to 2015-02-06, skipping MLK day.
	require.Len(t, out.Observations, 21)
	assert.True(t, out.Observations[0].Published)
	assert.InDelta(t, 0.12, out.Observations[0].RatePct, 1e-12)
	assert.True(t, out.Observations[1].Published)
	assert.False(t, out.Observations[2].Published)

	last := out.Observations[20]
	assert.Equal(t, "2015-02-06", last.FixingDate)
	assert.Equal(t, "2015-02-05", last.RateFixingDate)
}

func TestRun_RateFromStdin(t *testing.T) {
	data, err := os.ReadFile(scenarioPath)
	require.NoError(t, err)

	code, fromStdin, _ := runCmd(t, string(data), "rate")
	require.Equal(t, 0, code, fromStdin)
	_, fromFile, _ := runCmd(t, "", "rate", "--scenario", scenarioPath)
	assert.JSONEq(t, fromFile, fromStdin)
}

func TestRun_Risk(t *testing.T) {
	code, stdout, _ := runCmd(t, "", "risk", "-s", scenarioPath)
	require.Equal(t, 0, code, stdout)

	var out RiskOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "USD-FEDFUND-OIS", out.Curve)
	assert.NotEmpty(t, out.Points)
	require.Len(t, out.Parameters, 6)
	require.Len(t, out.Quotes, 6)
	assert.Equal(t, "1W", out.Quotes[0].Label)
	assert.Equal(t, "2Y", out.Quotes[5].Label)

	// The observation ends inside the 1M quote; quotes beyond 3M carry no risk.
	total := 0.0
	for _, q := range out.Quotes {
		total += q.Value
		assert.InDelta(t, q.Value*1e-4, q.ValueBP, 1e-15)
	}
	assert.Greater(t, total, 0.0)
	assert.InDelta(t, total, out.QuoteTotal, 1e-12)

	// the curve reprices its quotes
	assert.InDelta(t, 0.115, out.Quotes[0].RatePct, 1e-8)
	assert.InDelta(t, 0.480, out.Quotes[5].RatePct, 1e-8)
	for _, p := range out.Parameters {
		assert.Greater(t, p.RatePct, 0.0, p.Label)
	}
	for _, q := range out.Quotes[3:] {
		assert.InDelta(t, 0.0, q.Value, 1e-8, q.Label)
	}

	_, rateOut, _ := runCmd(t, "", "rate", "-s", scenarioPath)
	var rate RateOutput
	require.NoError(t, json.Unmarshal([]byte(rateOut), &rate))
	assert.InDelta(t, rate.RatePct, out.RatePct, 1e-12)
}

func TestRun_Errors(t *testing.T) {
	t.Run("unknown index", func(t *testing.T) {
		code, stdout, _ := runCmd(t, "index: USD-LIBOR\n", "rate")
		assert.Equal(t, 1, code)
		assert.Contains(t, stdout, `"error":"unknown index`)
	})

	t.Run("missing fixings without database", func(t *testing.T) {
		data, err := os.ReadFile(scenarioPath)
		require.NoError(t, err)
		trimmed := strings.Split(string(data), "fixings:")[0] + "curve:" + strings.Split(string(data), "curve:")[1]

		code, stdout, _ := runCmd(t, trimmed, "rate")
		assert.Equal(t, 1, code)
		assert.Contains(t, stdout, "USD-FED-FUND")
		assert.Contains(t, stdout, "2015-01-08")
	})

	t.Run("unknown method", func(t *testing.T) {
		code, stdout, _ := runCmd(t, "", "rate", "-s", scenarioPath, "-m", "linear")
		assert.Equal(t, 1, code)
		assert.Contains(t, stdout, "unknown method")
	})

	t.Run("unknown flag", func(t *testing.T) {
		code, _, stderr := runCmd(t, "", "rate", "--bogus")
		assert.Equal(t, 2, code)
		assert.Contains(t, stderr, "unknown flag")
	})

	t.Run("missing config file", func(t *testing.T) {
		code, _, stderr := runCmd(t, "", "rate", "-c", "testdata/missing.yaml", "-s", scenarioPath)
		assert.Equal(t, 2, code)
		assert.Contains(t, stderr, "reading config")
	})
}
