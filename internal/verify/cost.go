package verify

import (
	"errors"
	"fmt"
	"math"

	"github.com/ppiankov/aidmatch/internal/model"
	"github.com/ppiankov/aidmatch/internal/score"
)

// costDeviationPenalty converts percentage deviation into lost confidence
const costDeviationPenalty = 0.5

func (e *Engine) verifyCost(subject model.Subject, vctx Context) (outcome, error) {
	c := subject.Cost
	var out outcome

	averages := vctx.RegionalAverages
	if averages == nil {
		averages = e.fraud.RegionalAverages
	}

	result, err := e.detector.CheckCostOutlier(c.Amount, c.Category, averages)
	if errors.Is(err, model.ErrUnknownCategory) && e.fraud.DefaultAverage > 0 {
		result, err = e.detector.CheckCostOutlier(c.Amount, c.Category, map[string]float64{c.Category: e.fraud.DefaultAverage})
	}
	if err != nil {
		return out, fmt.Errorf("cost outlier check: %w", err)
	}

	out.confidence = score.Bound(100 - math.Abs(result.DeviationPct)*costDeviationPenalty)
	out.signals = append(out.signals, model.Signal{
		Check:       "cost_outlier",
		Score:       out.confidence,
		Passed:      !result.IsOutlier,
		Description: fmt.Sprintf("Cost deviates %+.1f%% from the regional average", result.DeviationPct),
		Data: map[string]interface{}{
			"amount":           c.Amount,
			"category":         c.Category,
			"regional_average": result.RegionalAverage,
			"deviation_pct":    result.DeviationPct,
			"formula":          "100 - |deviation_pct| * 0.5",
		},
	})

	if result.IsOutlier {
		out.alert(model.AlertCostOutlier, result.Severity,
			fmt.Sprintf("%s cost deviates %+.1f%% from the regional average", c.Category, result.DeviationPct),
			fmt.Sprintf("amount %.2f", c.Amount),
			fmt.Sprintf("regional average %.2f", result.RegionalAverage),
			fmt.Sprintf("deviation %+.1f%%", result.DeviationPct))
	}

	return out, nil
}
