package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meenmo/onavg/curve"
	"github.com/meenmo/onavg/marketquote"
	"github.com/meenmo/onavg/sensitivity"
	"github.com/meenmo/onavg/utils"
)

// RiskOutput is the JSON result of the risk command.
//
// Sensitivities are per unit (decimal) rate; the *_bp fields scale them to 1bp.
type RiskOutput struct {
	Index      string        `json:"index"`
	Method     string        `json:"method"`
	Curve      string        `json:"curve"`
	RatePct    float64       `json:"rate"`
	Points     []PointOutput `json:"point_sensitivities"`
	Parameters []NodeOutput  `json:"parameter_sensitivities"`
	Quotes     []NodeOutput  `json:"quote_sensitivities"`

	// QuoteTotal is the sensitivity to a parallel shift of all quotes.
	QuoteTotal float64 `json:"quote_sensitivity_total"`
}

type PointOutput struct {
	Index string  `json:"index"`
	Start string  `json:"start"`
	End   string  `json:"end"`
	Value float64 `json:"value"`
}

// NodeOutput is a sensitivity to one curve pillar or one market quote. RatePct is the
// pillar zero rate or the repriced par rate of the quote.
type NodeOutput struct {
	Label   string  `json:"label"`
	RatePct float64 `json:"rate"`
	Value   float64 `json:"value"`
	ValueBP float64 `json:"value_bp"`
}

func newRiskCmd(a *app) *cobra.Command {
	var flags commonFlags
	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Compute rate sensitivities to overnight rates, curve pillars and OIS quotes",
		Example: `  onavg risk -s scenario.yaml
  onavg risk --method forward < scenario.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.prepare(cmd.Context(), flags)
			if err != nil {
				return a.writeError(err)
			}
			out, err := p.risk()
			if err != nil {
				return a.writeError(err)
			}
			return a.writeOutput(out)
		},
	}
	flags.register(cmd)
	return cmd
}

func (p *prepared) risk() (*RiskOutput, error) {
	in := p.inputs
	obs := in.Observation

	rate, err := p.computation.Rate(obs, in.AccrualStart, in.AccrualEnd, in.Rates)
	if err != nil {
		return nil, err
	}
	points, err := p.computation.RateSensitivity(obs, in.AccrualStart, in.AccrualEnd, in.Rates)
	if err != nil {
		return nil, err
	}
	params, err := in.Rates.ParameterSensitivity(points)
	if err != nil {
		return nil, err
	}
	quotes, err := marketquote.DefaultCalculator.Sensitivity(params, curve.NewSet(in.Curve))
	if err != nil {
		return nil, err
	}

	out := &RiskOutput{
		Index:   in.Index.Name,
		Method:  p.method,
		Curve:   in.Curve.Name(),
		RatePct: rate * 100.0,
		Points:  []PointOutput{},
	}
	for _, ps := range points.Items() {
		out.Points = append(out.Points, PointOutput{
			Index: ps.Index,
			Start: ps.Start.Format(utils.DateLayout),
			End:   ps.End.Format(utils.DateLayout),
			Value: ps.Value,
		})
	}

	pillars := in.Curve.Pillars()
	labels := make([]string, len(pillars))
	zeros := make([]float64, len(pillars))
	for i, pillar := range pillars {
		labels[i] = pillar.Format(utils.DateLayout)
		zeros[i] = in.Curve.ZeroRateAt(pillar)
	}
	if out.Parameters, err = nodes(params, in.Curve, labels, zeros); err != nil {
		return nil, err
	}

	tenors := in.Curve.QuoteTenors()
	parRates := in.Curve.ParRates()
	pars := make([]float64, len(tenors))
	for i, tenor := range tenors {
		pars[i] = parRates[tenor] * 100.0
	}
	if out.Quotes, err = nodes(quotes, in.Curve, tenors, pars); err != nil {
		return nil, err
	}
	if found, ok := quotes.Find(in.Curve.Name(), in.Curve.Currency()); ok {
		out.QuoteTotal = found.Total()
	}
	return out, nil
}

// nodes labels the sensitivity of c. A curve the rate does not depend on gives zeros.
func nodes(s sensitivity.CurveParameterSensitivities, c *curve.Curve, labels []string, ratesPct []float64) ([]NodeOutput, error) {
	values := make([]float64, len(labels))
	if found, ok := s.Find(c.Name(), c.Currency()); ok {
		if len(found.Values) != len(labels) {
			return nil, fmt.Errorf("curve %s: %d sensitivities for %d nodes", c.Name(), len(found.Values), len(labels))
		}
		copy(values, found.Values)
	}
	out := make([]NodeOutput, len(labels))
	for i, label := range labels {
		out[i] = NodeOutput{Label: label, RatePct: ratesPct[i], Value: values[i], ValueBP: values[i] * 1e-4}
	}
	return out, nil
}
