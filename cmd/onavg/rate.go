package main

import (
	"github.com/spf13/cobra"

	"github.com/meenmo/onavg/averaging"
	"github.com/meenmo/onavg/utils"
)

// RateOutput is the JSON result of the rate command.
//
// Rates are in percent.
type RateOutput struct {
	Index         string              `json:"index"`
	Method        string              `json:"method"`
	ValuationDate string              `json:"valuation_date"`
	StartDate     string              `json:"start_date"`
	EndDate       string              `json:"end_date"`
	CutoffDays    int                 `json:"cutoff_days"`
	RatePct       float64             `json:"rate"`
	Observations  []ObservationOutput `json:"observations,omitempty"`
}

type ObservationOutput struct {
	FixingDate     string  `json:"fixing_date"`
	RateFixingDate string  `json:"rate_fixing_date"`
	AccrualFactor  float64 `json:"accrual_factor"`
	RatePct        float64 `json:"rate"`
	Published      bool    `json:"published"`
}

func newRateCmd(a *app) *cobra.Command {
	var (
		flags   commonFlags
		explain bool
	)
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Compute the averaged overnight rate",
		Example: `  onavg rate -s scenario.yaml
  onavg rate --method forward --explain < scenario.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.prepare(cmd.Context(), flags)
			if err != nil {
				return a.writeError(err)
			}
			out, err := p.rate(a, explain)
			if err != nil {
				return a.writeError(err)
			}
			return a.writeOutput(out)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVarP(&explain, "explain", "e", false, "include the per-date rates")
	return cmd
}

func (p *prepared) rate(a *app, explain bool) (*RateOutput, error) {
	in := p.inputs
	obs := in.Observation

	collected := averaging.NewExplainMap()
	sink := averaging.Tee(collected, averaging.NewLoggingSink(a.log))
	rate, err := p.computation.ExplainRate(obs, in.AccrualStart, in.AccrualEnd, in.Rates, sink)
	if err != nil {
		return nil, err
	}

	out := &RateOutput{
		Index:         in.Index.Name,
		Method:        p.method,
		ValuationDate: in.Valuation.Format(utils.DateLayout),
		StartDate:     obs.StartDate.Format(utils.DateLayout),
		EndDate:       obs.EndDate.Format(utils.DateLayout),
		CutoffDays:    obs.RateCutoffDays,
		RatePct:       rate * 100.0,
	}
	if explain {
		for _, o := range collected.Observations() {
			out.Observations = append(out.Observations, ObservationOutput{
				FixingDate:     o.FixingDate.Format(utils.DateLayout),
				RateFixingDate: o.RateFixingDate.Format(utils.DateLayout),
				AccrualFactor:  o.AccrualFactor,
				RatePct:        o.Rate * 100.0,
				Published:      o.Published,
			})
		}
	}
	return out, nil
}
