package verify

import (
	"fmt"
	"strings"

	"github.com/ppiankov/aidmatch/internal/model"
	"github.com/ppiankov/aidmatch/internal/score"
)

// verifyCrisis corroborates a crisis claim. The baseline verdict is
// verified; an implausible population only adds an advisory alert.
func (e *Engine) verifyCrisis(subject model.Subject) outcome {
	c := subject.Crisis
	var out outcome

	tiers := map[model.AuthorityTier]int{}
	seen := make(map[string]bool, len(c.Sources))
	bonus := 0
	for _, src := range c.Sources {
		key := strings.ToLower(strings.TrimSpace(src))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		tier := e.classifier.Classify(src)
		tiers[tier]++
		switch tier {
		case model.TierPrimary:
			bonus += e.config.PrimarySourceBonus
		case model.TierSecondary:
			bonus += e.config.SecondarySourceBonus
		default:
			bonus += e.config.TertiarySourceBonus
		}
	}

	out.confidence = score.Clamp(e.config.CrisisBaseConfidence+bonus, score.Min, score.Max)
	out.signals = append(out.signals, model.Signal{
		Check:       "corroboration",
		Score:       out.confidence,
		Passed:      true,
		Description: fmt.Sprintf("%d corroborating sources (%d primary, %d secondary, %d tertiary)", len(seen), tiers[model.TierPrimary], tiers[model.TierSecondary], tiers[model.TierTertiary]),
		Data: map[string]interface{}{
			"base":      e.config.CrisisBaseConfidence,
			"bonus":     bonus,
			"primary":   tiers[model.TierPrimary],
			"secondary": tiers[model.TierSecondary],
			"tertiary":  tiers[model.TierTertiary],
			"formula":   "min(base + primary*p + secondary*s + tertiary*t, 100)",
		},
	})

	anomaly := e.detector.CheckPopulationAnomaly(c.AffectedPopulation, e.config.PopulationThreshold)
	if anomaly.IsAnomalous {
		out.alert(model.AlertRiskFactor, model.SeverityLow,
			fmt.Sprintf("Affected population %d exceeds the plausibility threshold %d", anomaly.Population, anomaly.Threshold),
			fmt.Sprintf("population %d", anomaly.Population),
			fmt.Sprintf("threshold %d", anomaly.Threshold),
			fmt.Sprintf("ratio %.1fx", anomaly.Ratio))
	}

	return out
}
