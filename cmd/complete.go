package cmd

import (
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of the application.
func Completion() *complete.Command {
	taxFlags := func(extra map[string]complete.Predictor) map[string]complete.Predictor {
		flags := map[string]complete.Predictor{
			"year":          predict.Something,
			"currency-only": predict.Nothing,
			"unknown":       predict.Set{"none", "stock", "fund"},
			"assign":        predict.Set{"derivative", "underlying"},
			"stock":         predict.Something,
			"fund":          predict.Something,
			"lookback":      predict.Something,
			"exemption":     predict.Something,
			"loss-cap":      predict.Something,
			"parallel":      predict.Nothing,
		}
		for k, v := range extra {
			flags[k] = v
		}
		return flags
	}
	return &complete.Command{
		Sub: map[string]*complete.Command{
			"report": {Flags: taxFlags(map[string]complete.Predictor{
				"json": predict.Nothing,
				"save": predict.Files("*.json"),
			})},
			"events": {Flags: taxFlags(map[string]complete.Predictor{
				"jsonl": predict.Nothing,
			})},
			"rates": {Flags: map[string]complete.Predictor{
				"source":   predict.Set{"bundesbank", "frankfurter"},
				"currency": predict.Set{"USD", "GBP", "CHF", "JPY"},
				"from":     predict.Something,
				"to":       predict.Something,
				"o":        predict.Files("*.jsonl"),
			}},
			"topic": {Args: predict.Set{"readme", "transactions", "rates", "rules", "*"}},
		},
		Flags: map[string]complete.Predictor{
			"transactions": predict.Files("*.jsonl"),
			"rates":        predict.Files("*.jsonl"),
			"carryforward": predict.Files("*.json"),
			"plain":        predict.Nothing,
			"v":            predict.Nothing,
		},
	}
}
