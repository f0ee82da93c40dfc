// Package match ranks aid providers against a beneficiary or crisis need.
// Suggestion lists are recomputed on every call and never cached here.
package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/aidmatch/internal/model"
	"github.com/ppiankov/aidmatch/internal/score"
)

// Matcher scores providers under a fixed ranking policy
type Matcher struct {
	config    model.MatchingConfig
	groups    index // category -> taxonomy groups
	divisions index // district -> divisions
}

type set map[string]bool

type index map[string]set

func (ix index) add(key, member string) {
	if ix[key] == nil {
		ix[key] = make(set)
	}
	ix[key][member] = true
}

// shares reports whether a and b have a member in common
func (a set) shares(b set) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}

// NewMatcher creates a matcher. A nil config uses the defaults.
func NewMatcher(config *model.MatchingConfig) *Matcher {
	if config == nil {
		config = &model.DefaultConfig().Matching
	}

	// A category listed in several groups belongs to all of them, and the
	// same for districts, so the tables never depend on map order.
	m := &Matcher{
		config:    *config,
		groups:    make(index),
		divisions: make(index),
	}
	for group, categories := range config.CategoryGroups {
		g := normalize(group)
		for _, c := range categories {
			m.groups.add(normalize(c), g)
		}
	}
	for division, districts := range config.Divisions {
		d := normalize(division)
		m.divisions.add(d, d)
		for _, district := range districts {
			m.divisions.add(normalize(district), d)
		}
	}

	return m
}

// Suggest returns providers ranked for req, best first. Providers listed in
// req.NegativePreferences never appear. An empty category fails with
// model.ErrInvalidRequest; no remaining providers yields an empty list.
func (m *Matcher) Suggest(req model.MatchRequest, providers []model.Provider) ([]model.ProviderSuggestion, error) {
	if strings.TrimSpace(req.Category) == "" {
		return nil, model.InvalidRequest("category", "need category is required")
	}

	excluded := toSet(req.NegativePreferences)
	preferred := toSet(req.PositivePreferences)

	suggestions := make([]model.ProviderSuggestion, 0, len(providers))
	for _, p := range providers {
		if excluded[p.ID] {
			continue
		}
		suggestions = append(suggestions, m.score(req, p, preferred[p.ID]))
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		if a.Factors.TrustScore != b.Factors.TrustScore {
			return a.Factors.TrustScore > b.Factors.TrustScore
		}
		return a.ProviderID < b.ProviderID
	})

	return suggestions, nil
}

func (m *Matcher) score(req model.MatchRequest, p model.Provider, preferred bool) model.ProviderSuggestion {
	factors := model.FactorScores{
		SpecializationMatch: m.specializationMatch(req.Category, p.Specializations),
		GeographicProximity: m.geographicProximity(req.Region, p.ServiceRegions),
		TrustScore:          score.Clamp(p.TrustScore, score.Min, score.Max),
		CapacityAvailable:   capacityAvailable(p.CapacityRatio),
	}

	w := m.config.Weights
	matchScore := score.Bound(score.WeightedSum(
		score.Part{Name: "specialization", Value: float64(factors.SpecializationMatch), Weight: w.Specialization},
		score.Part{Name: "geography", Value: float64(factors.GeographicProximity), Weight: w.Geography},
		score.Part{Name: "trust", Value: float64(factors.TrustScore), Weight: w.Trust},
		score.Part{Name: "capacity", Value: float64(factors.CapacityAvailable), Weight: w.Capacity},
	))
	if preferred {
		matchScore = score.Clamp(matchScore+m.config.PreferenceBonus, score.Min, score.Max)
	}

	return model.ProviderSuggestion{
		ProviderID:   p.ID,
		MatchScore:   matchScore,
		MatchReasons: m.reasons(req, p, factors, preferred),
		Factors:      factors,
		QualityLabel: score.Label(matchScore),
	}
}

// specializationMatch is 100 for a direct match, the sibling score when a
// specialization shares the need's taxonomy group, else 0
func (m *Matcher) specializationMatch(category string, specializations []string) int {
	need := normalize(category)
	best := 0
	for _, s := range specializations {
		spec := normalize(s)
		if spec == need {
			return score.Max
		}
		if m.groups[need].shares(m.groups[spec]) {
			best = m.config.SiblingScore
		}
	}
	return best
}

// geographicProximity is 100 when the provider serves the region, then
// falls through the division bands. Regions missing from the division
// table score 0.
func (m *Matcher) geographicProximity(region string, serviceRegions []string) int {
	want := normalize(region)
	if want == "" {
		return 0
	}

	best := 0
	wantDivisions := m.divisions[want]
	known := len(wantDivisions) > 0
	for _, r := range serviceRegions {
		served := normalize(r)
		if served == want {
			return score.Max
		}
		if !known {
			continue
		}
		servedDivisions, ok := m.divisions[served]
		if !ok {
			continue
		}
		band := m.config.OtherDivisionScore
		if wantDivisions.shares(servedDivisions) {
			band = m.config.SameDivisionScore
		}
		if band > best {
			best = band
		}
	}
	return best
}

func capacityAvailable(ratio float64) int {
	return score.Bound(ratio * 100)
}

func (m *Matcher) reasons(req model.MatchRequest, p model.Provider, f model.FactorScores, preferred bool) []string {
	threshold := m.config.ReasonThreshold
	reasons := []string{}

	if f.SpecializationMatch >= threshold {
		reasons = append(reasons, fmt.Sprintf("Specializes in %s", strings.TrimSpace(req.Category)))
	}
	if f.GeographicProximity >= threshold {
		if f.GeographicProximity == score.Max {
			reasons = append(reasons, "Operates in your region")
		} else {
			reasons = append(reasons, "Operates in your division")
		}
	}
	if f.TrustScore >= threshold {
		reasons = append(reasons, "High trust score")
	}
	if f.CapacityAvailable >= threshold {
		reasons = append(reasons, "Has capacity")
	}
	if preferred {
		reasons = append(reasons, "Preferred organization")
	}
	if (req.Urgency == model.UrgencyHigh || req.Urgency == model.UrgencyCritical) &&
		p.ResponseTimeHours > 0 && p.ResponseTimeHours <= m.config.FastResponseHours {
		reasons = append(reasons, fmt.Sprintf("Responds within %d hours", p.ResponseTimeHours))
	}

	return reasons
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
