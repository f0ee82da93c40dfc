package match

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/aidmatch/internal/model"
)

func TestSuggest_SpecializationDominatesTrust(t *testing.T) {
	m := NewMatcher(nil)

	req := model.MatchRequest{Category: "medical", Region: "Dhaka"}
	providers := []model.Provider{
		{ID: "A", Specializations: []string{"medical"}, ServiceRegions: []string{"Dhaka"}, TrustScore: 90, CapacityRatio: 0.8},
		{ID: "B", Specializations: []string{"education"}, ServiceRegions: []string{"Dhaka"}, TrustScore: 95, CapacityRatio: 0.9},
	}

	got, err := m.Suggest(req, providers)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "A", got[0].ProviderID)
	assert.Equal(t, 94, got[0].MatchScore)
	assert.Equal(t, model.FactorScores{SpecializationMatch: 100, GeographicProximity: 100, TrustScore: 90, CapacityAvailable: 80}, got[0].Factors)
	assert.Equal(t, model.QualityExcellent, got[0].QualityLabel)
	assert.Equal(t, []string{"Specializes in medical", "Operates in your region", "High trust score", "Has capacity"}, got[0].MatchReasons)

	assert.Equal(t, "B", got[1].ProviderID)
	assert.Equal(t, 62, got[1].MatchScore)
	assert.Equal(t, 0, got[1].Factors.SpecializationMatch)
	assert.Equal(t, model.QualityGood, got[1].QualityLabel)
	assert.Equal(t, []string{"Operates in your region", "High trust score", "Has capacity"}, got[1].MatchReasons)
}

func TestSuggest_NegativePreferenceAlwaysExcluded(t *testing.T) {
	m := NewMatcher(nil)
	rng := rand.New(rand.NewSource(99))

	for i := 0; i < 200; i++ {
		providers := randomProviders(rng, 8)
		banned := providers[rng.Intn(len(providers))].ID

		req := model.MatchRequest{
			Category:            "medical",
			Region:              "Sylhet",
			NegativePreferences: []string{banned},
			PositivePreferences: []string{banned}, // negative wins
		}

		got, err := m.Suggest(req, providers)
		require.NoError(t, err)
		assert.Len(t, got, len(providers)-1)
		for _, s := range got {
			assert.NotEqual(t, banned, s.ProviderID)
		}
	}
}

func TestSuggest_SortedAndReproducible(t *testing.T) {
	m := NewMatcher(nil)
	rng := rand.New(rand.NewSource(3))
	providers := randomProviders(rng, 40)
	req := model.MatchRequest{Category: "food", Region: "Gazipur"}

	first, err := m.Suggest(req, providers)
	require.NoError(t, err)

	assert.True(t, isNonIncreasing(first))

	// Input order must not matter
	shuffled := append([]model.Provider(nil), providers...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	for i := 0; i < 5; i++ {
		again, err := m.Suggest(req, shuffled)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSuggest_TieBreaks(t *testing.T) {
	m := NewMatcher(nil)
	req := model.MatchRequest{Category: "shelter", Region: "Khulna"}

	providers := []model.Provider{
		{ID: "low-trust", Specializations: []string{"shelter"}, ServiceRegions: []string{"Khulna"}, TrustScore: 70, CapacityRatio: 0.6},
		{ID: "zeta", Specializations: []string{"shelter"}, ServiceRegions: []string{"Khulna"}, TrustScore: 80, CapacityRatio: 0.4},
		{ID: "alpha", Specializations: []string{"shelter"}, ServiceRegions: []string{"Khulna"}, TrustScore: 80, CapacityRatio: 0.4},
	}

	got, err := m.Suggest(req, providers)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for _, s := range got {
		assert.Equal(t, 85, s.MatchScore)
	}
	assert.Equal(t, []string{"alpha", "zeta", "low-trust"}, ids(got))
}

func TestSuggest_PositivePreferenceBonusCapped(t *testing.T) {
	m := NewMatcher(nil)

	providers := []model.Provider{
		{ID: "top", Specializations: []string{"medical"}, ServiceRegions: []string{"Dhaka"}, TrustScore: 98, CapacityRatio: 1},
		{ID: "mid", Specializations: []string{"education"}, ServiceRegions: []string{"Dhaka"}, TrustScore: 60, CapacityRatio: 0.4},
	}
	req := model.MatchRequest{Category: "medical", Region: "Dhaka", PositivePreferences: []string{"top", "mid"}}

	got, err := m.Suggest(req, providers)
	require.NoError(t, err)

	assert.Equal(t, 100, got[0].MatchScore)
	// 0 + 20 + 18 + 6 = 44, +10
	assert.Equal(t, 54, got[1].MatchScore)
	assert.Contains(t, got[1].MatchReasons, "Preferred organization")
	assert.Equal(t, model.QualityFair, got[1].QualityLabel)
}

func TestSuggest_TaxonomyAndDistanceBands(t *testing.T) {
	m := NewMatcher(nil)
	req := model.MatchRequest{Category: "medical", Region: "Gazipur"}

	providers := []model.Provider{
		{ID: "sibling-same-division", Specializations: []string{"water-sanitation"}, ServiceRegions: []string{"Narayanganj"}, TrustScore: 50},
		{ID: "unrelated-other-division", Specializations: []string{"education"}, ServiceRegions: []string{"Rangpur"}, TrustScore: 50},
		{ID: "unknown-region", Specializations: []string{"MEDICAL"}, ServiceRegions: []string{"Atlantis"}, TrustScore: 50},
		{ID: "multi-region", Specializations: []string{"medical"}, ServiceRegions: []string{"Rangpur", "Dhaka"}, TrustScore: 50},
	}

	got, err := m.Suggest(req, providers)
	require.NoError(t, err)

	byID := map[string]model.ProviderSuggestion{}
	for _, s := range got {
		byID[s.ProviderID] = s
	}

	assert.Equal(t, 50, byID["sibling-same-division"].Factors.SpecializationMatch)
	assert.Equal(t, 70, byID["sibling-same-division"].Factors.GeographicProximity)
	assert.Contains(t, byID["sibling-same-division"].MatchReasons, "Operates in your division")

	assert.Equal(t, 0, byID["unrelated-other-division"].Factors.SpecializationMatch)
	assert.Equal(t, 30, byID["unrelated-other-division"].Factors.GeographicProximity)

	assert.Equal(t, 100, byID["unknown-region"].Factors.SpecializationMatch)
	assert.Equal(t, 0, byID["unknown-region"].Factors.GeographicProximity)

	assert.Equal(t, 70, byID["multi-region"].Factors.GeographicProximity, "best band wins")
}

func TestSuggest_OverlappingTablesAreOrderIndependent(t *testing.T) {
	cfg := model.DefaultConfig().Matching
	cfg.CategoryGroups = map[string][]string{
		"health":    {"medical"},
		"emergency": {"medical"},
		"care":      {"medical"},
		"relief":    {"medical", "food"},
		"clinical":  {"medical"},
	}
	cfg.Divisions = map[string][]string{
		"north":   {"border-town"},
		"south":   {"border-town", "harbour"},
		"east":    {"border-town"},
		"west":    {"border-town"},
		"central": {"border-town"},
	}

	req := model.MatchRequest{Category: "medical", Region: "border-town"}
	providers := []model.Provider{
		{ID: "sibling", Specializations: []string{"food"}, ServiceRegions: []string{"harbour"}, TrustScore: 60},
	}

	// Fresh matchers rebuild the tables from map iteration each time
	for i := 0; i < 50; i++ {
		got, err := NewMatcher(&cfg).Suggest(req, providers)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 50, got[0].Factors.SpecializationMatch, "run %d", i)
		assert.Equal(t, 70, got[0].Factors.GeographicProximity, "run %d", i)
	}
}

func TestSuggest_UrgencyReason(t *testing.T) {
	m := NewMatcher(nil)
	providers := []model.Provider{
		{ID: "fast", Specializations: []string{"food"}, ServiceRegions: []string{"Bhola"}, TrustScore: 60, ResponseTimeHours: 6},
		{ID: "slow", Specializations: []string{"food"}, ServiceRegions: []string{"Bhola"}, TrustScore: 60, ResponseTimeHours: 72},
	}

	got, err := m.Suggest(model.MatchRequest{Category: "food", Region: "Bhola", Urgency: model.UrgencyCritical}, providers)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Contains(t, got[0].MatchReasons, "Responds within 6 hours")
	assert.NotContains(t, got[1].MatchReasons, "Responds within 72 hours")

	got, err = m.Suggest(model.MatchRequest{Category: "food", Region: "Bhola", Urgency: model.UrgencyLow}, providers)
	require.NoError(t, err)
	assert.NotContains(t, got[0].MatchReasons, "Responds within 6 hours")
}

func TestSuggest_CustomWeights(t *testing.T) {
	cfg := model.DefaultConfig().Matching
	cfg.Weights = model.Weights{Trust: 1}
	m := NewMatcher(&cfg)

	got, err := m.Suggest(model.MatchRequest{Category: "medical", Region: "Dhaka"}, []model.Provider{
		{ID: "A", Specializations: []string{"medical"}, ServiceRegions: []string{"Dhaka"}, TrustScore: 90, CapacityRatio: 0.8},
		{ID: "B", Specializations: []string{"education"}, ServiceRegions: []string{"Dhaka"}, TrustScore: 95, CapacityRatio: 0.9},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, ids(got))
	assert.Equal(t, 95, got[0].MatchScore)
}

func TestSuggest_EmptyAndInvalid(t *testing.T) {
	m := NewMatcher(nil)

	got, err := m.Suggest(model.MatchRequest{Category: "food", NegativePreferences: []string{"only"}}, []model.Provider{{ID: "only"}})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = m.Suggest(model.MatchRequest{Category: "food"}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = m.Suggest(model.MatchRequest{Category: "  "}, []model.Provider{{ID: "x"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidRequest))
}

func TestSuggest_FactorBounds(t *testing.T) {
	m := NewMatcher(nil)
	got, err := m.Suggest(model.MatchRequest{Category: "food", Region: "Dhaka"}, []model.Provider{
		{ID: "over", TrustScore: 140, CapacityRatio: 3.2},
		{ID: "under", TrustScore: -20, CapacityRatio: -1},
	})
	require.NoError(t, err)

	for _, s := range got {
		for _, v := range []int{s.Factors.SpecializationMatch, s.Factors.GeographicProximity, s.Factors.TrustScore, s.Factors.CapacityAvailable, s.MatchScore} {
			assert.GreaterOrEqual(t, v, 0)
			assert.LessOrEqual(t, v, 100)
		}
	}
}

func TestSuggest_CapacityCappedForHugeRatios(t *testing.T) {
	m := NewMatcher(nil)
	got, err := m.Suggest(model.MatchRequest{Category: "food"}, []model.Provider{
		{ID: "huge", CapacityRatio: 1e17},
		{ID: "inf", CapacityRatio: math.Inf(1)},
		{ID: "neg", CapacityRatio: -1e17},
	})
	require.NoError(t, err)

	byID := map[string]int{}
	for _, s := range got {
		byID[s.ProviderID] = s.Factors.CapacityAvailable
	}
	assert.Equal(t, 100, byID["huge"])
	assert.Equal(t, 100, byID["inf"])
	assert.Equal(t, 0, byID["neg"])
}

func randomProviders(rng *rand.Rand, n int) []model.Provider {
	categories := []string{"medical", "food", "shelter", "education", "clothing", "water-sanitation"}
	regions := []string{"Dhaka", "Gazipur", "Sylhet", "Sunamganj", "Khulna", "Rangpur", "Bhola"}

	providers := make([]model.Provider, n)
	for i := range providers {
		providers[i] = model.Provider{
			ID:              fmt.Sprintf("prov-%02d", i),
			Specializations: []string{categories[rng.Intn(len(categories))]},
			ServiceRegions:  []string{regions[rng.Intn(len(regions))]},
			TrustScore:      rng.Intn(101),
			CapacityRatio:   rng.Float64(),
		}
	}
	return providers
}

func isNonIncreasing(s []model.ProviderSuggestion) bool {
	for i := 1; i < len(s); i++ {
		if s[i].MatchScore > s[i-1].MatchScore {
			return false
		}
	}
	return true
}

func ids(s []model.ProviderSuggestion) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.ProviderID
	}
	return out
}
