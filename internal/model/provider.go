package model

// Provider is an aid organization as seen by the matching engine.
// Trust score and capacity are maintained outside the engine.
type Provider struct {
	ID                string   `json:"id" yaml:"id"`
	Name              string   `json:"name,omitempty" yaml:"name,omitempty"`
	Specializations   []string `json:"specializations" yaml:"specializations"`
	ServiceRegions    []string `json:"service_regions" yaml:"service_regions"`
	TrustScore        int      `json:"trust_score" yaml:"trust_score"`       // 0..100
	CapacityRatio     float64  `json:"capacity_ratio" yaml:"capacity_ratio"` // 0..1 of capacity still available
	YearsActive       int      `json:"years_active,omitempty" yaml:"years_active,omitempty"`
	ResponseTimeHours int      `json:"response_time_hours,omitempty" yaml:"response_time_hours,omitempty"`
	Badges            []string `json:"badges,omitempty" yaml:"badges,omitempty"`
}

// Urgency of a beneficiary or crisis need
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// MatchRequest describes the need providers are ranked against
type MatchRequest struct {
	BeneficiaryID       string   `json:"beneficiary_id,omitempty" yaml:"beneficiary_id,omitempty"`
	Category            string   `json:"category" yaml:"category"`
	Region              string   `json:"region" yaml:"region"`
	Urgency             Urgency  `json:"urgency,omitempty" yaml:"urgency,omitempty"`
	RequestedAmount     float64  `json:"requested_amount,omitempty" yaml:"requested_amount,omitempty"`
	PositivePreferences []string `json:"positive_preferences,omitempty" yaml:"positive_preferences,omitempty"`
	NegativePreferences []string `json:"negative_preferences,omitempty" yaml:"negative_preferences,omitempty"` // Always excluded
}

// FactorScores is the per-factor breakdown of a match score, each 0..100
type FactorScores struct {
	SpecializationMatch int `json:"specialization_match"`
	GeographicProximity int `json:"geographic_proximity"`
	TrustScore          int `json:"trust_score"`
	CapacityAvailable   int `json:"capacity_available"`
}

// QualityLabel is a presentation band for a match score
type QualityLabel string

const (
	QualityExcellent QualityLabel = "excellent"
	QualityVeryGood  QualityLabel = "very good"
	QualityGood      QualityLabel = "good"
	QualityFair      QualityLabel = "fair"
)

// ProviderSuggestion is one ranked entry of a suggestion list.
// Suggestion lists are recomputed per request and never persisted.
type ProviderSuggestion struct {
	ProviderID   string       `json:"provider_id"`
	MatchScore   int          `json:"match_score"`
	MatchReasons []string     `json:"match_reasons"`
	Factors      FactorScores `json:"factors"`
	QualityLabel QualityLabel `json:"quality_label"`
}
