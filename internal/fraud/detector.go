// Package fraud implements the cross-record checks: duplicate identities,
// cost outliers and implausible crisis populations. Checks hold no state
// and are safe to call concurrently.
package fraud

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/ppiankov/aidmatch/internal/model"
	"github.com/ppiankov/aidmatch/internal/score"
)

// Detector runs cross-record fraud checks under a fixed policy
type Detector struct {
	config model.FraudConfig
}

// NewDetector creates a detector. A nil config uses the defaults.
func NewDetector(config *model.FraudConfig) *Detector {
	if config == nil {
		config = &model.DefaultConfig().Fraud
	}
	return &Detector{config: *config}
}

// CheckDuplicateIdentity compares fullName against every registry record
// sharing idNumber. The registry is expected not to contain the subject.
func (d *Detector) CheckDuplicateIdentity(idNumber, fullName string, registry []model.IdentityRecord) model.DuplicateCheckResult {
	return d.CheckDuplicateIdentityFor("", idNumber, fullName, registry)
}

// CheckDuplicateIdentityFor is CheckDuplicateIdentity for a registry that may
// contain the subject itself under selfKey; that record is skipped.
func (d *Detector) CheckDuplicateIdentityFor(selfKey, idNumber, fullName string, registry []model.IdentityRecord) model.DuplicateCheckResult {
	result := model.DuplicateCheckResult{RelatedRecords: []model.RelatedRecord{}}

	id := normalizeIDNumber(idNumber)
	if id == "" {
		return result
	}
	tokens := nameTokens(fullName)

	for _, rec := range registry {
		if selfKey != "" && rec.Key == selfKey {
			continue
		}
		if normalizeIDNumber(rec.IDNumber) != id {
			continue
		}

		related := model.RelatedRecord{
			IdentityKey: rec.Key,
			Similarity:  NameSimilarity(tokens, nameTokens(rec.FullName)),
		}
		if related.Similarity >= d.config.SimilarityThreshold {
			result.RelatedRecords = append(result.RelatedRecords, related)
		} else {
			result.Conflicts = append(result.Conflicts, related)
		}
	}

	sortRelated(result.RelatedRecords)
	sortRelated(result.Conflicts)
	result.IsDuplicate = len(result.RelatedRecords) >= 1

	return result
}

// CheckCostOutlier compares cost with the regional average for category.
// It fails with model.ErrUnknownCategory when no positive average exists.
func (d *Detector) CheckCostOutlier(cost float64, category string, regionalAverages map[string]float64) (model.CostOutlierResult, error) {
	avg, ok := lookupAverage(regionalAverages, category)
	if !ok || avg <= 0 {
		return model.CostOutlierResult{}, model.UnknownCategory(category)
	}

	deviation := score.DeviationPct(cost, avg)
	magnitude := math.Abs(deviation)

	result := model.CostOutlierResult{
		IsOutlier:       magnitude > d.config.OutlierPct,
		DeviationPct:    deviation,
		RegionalAverage: avg,
		Severity:        model.SeverityLow,
	}

	switch {
	case magnitude > d.config.HighSeverityPct:
		result.Severity = model.SeverityHigh
	case result.IsOutlier:
		result.Severity = model.SeverityMedium
	}

	return result, nil
}

// CheckPopulationAnomaly flags populations above threshold
func (d *Detector) CheckPopulationAnomaly(population, threshold int) model.PopulationAnomalyResult {
	result := model.PopulationAnomalyResult{
		Population: population,
		Threshold:  threshold,
	}
	if threshold <= 0 {
		return result
	}
	result.Ratio = float64(population) / float64(threshold)
	result.IsAnomalous = population > threshold
	return result
}

// NameSimilarity is the Sørensen-Dice overlap of two token sets, in [0,1]
func NameSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}
	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[t] = true
	}

	shared := 0
	for t := range setA {
		if setB[t] {
			shared++
		}
	}

	return 2 * float64(shared) / float64(len(setA)+len(setB))
}

var folder = cases.Fold()

// nameTokens case-folds a name, drops punctuation and collapses whitespace
func nameTokens(name string) []string {
	name = folder.String(norm.NFKC.String(name))
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, name)
	return strings.Fields(cleaned)
}

// normalizeIDNumber strips separators so "1990-123 456" equals "1990123456"
func normalizeIDNumber(id string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return -1
	}, id)
}

func lookupAverage(averages map[string]float64, category string) (float64, bool) {
	if avg, ok := averages[category]; ok {
		return avg, true
	}
	// viper lower-cases map keys loaded from config files
	avg, ok := averages[strings.ToLower(strings.TrimSpace(category))]
	return avg, ok
}

func sortRelated(records []model.RelatedRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Similarity != records[j].Similarity {
			return records[i].Similarity > records[j].Similarity
		}
		return records[i].IdentityKey < records[j].IdentityKey
	})
}
