package model

import "time"

// VerificationStatus is the verdict of a verification run
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending" // Needs human review
	StatusVerified VerificationStatus = "verified"
	StatusRejected VerificationStatus = "rejected"
)

// RiskLevel summarizes how risky a verified subject looks
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Severity ranks fraud alerts
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities so they can be compared
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// AlertType classifies fraud alerts
type AlertType string

const (
	AlertPoorImageQuality       AlertType = "poor-image-quality"
	AlertMissingSecurityFeature AlertType = "missing-security-feature"
	AlertDuplicateIdentity      AlertType = "duplicate-identity"
	AlertIdentityNumberReuse    AlertType = "identity-number-reuse"
	AlertDeepfakeDetected       AlertType = "deepfake-detected"
	AlertLocationMismatch       AlertType = "location-mismatch"
	AlertCostOutlier            AlertType = "cost-outlier"
	AlertRiskFactor             AlertType = "risk-factor"
)

// FraudAlert is a named, severity-ranked flag attached to a result
type FraudAlert struct {
	Type        AlertType `json:"type"`
	Severity    Severity  `json:"severity"`
	Description string    `json:"description"`
	Evidence    []string  `json:"evidence,omitempty"`
}

// Signal is a transparent record of one scoring rule that ran.
// Signals explain a confidence score; they never change it.
type Signal struct {
	Check       string                 `json:"check"`
	Score       int                    `json:"score"`
	Passed      bool                   `json:"passed"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// VerificationResult is the verdict for a single subject. It is replaced,
// not merged, when the subject is verified again.
type VerificationResult struct {
	ID              string             `json:"id,omitempty"`
	Kind            SubjectKind        `json:"kind"`
	EntityID        string             `json:"entity_id,omitempty"`
	Status          VerificationStatus `json:"status"`
	ConfidenceScore int                `json:"confidence_score"`
	RiskLevel       RiskLevel          `json:"risk_level"`
	Alerts          []FraudAlert       `json:"alerts"`
	Signals         []Signal           `json:"signals,omitempty"`
	ReviewNotes     string             `json:"review_notes"`
	EvaluatedAt     time.Time          `json:"evaluated_at,omitempty"`
}

// AlertList returns a copy of the attached alerts
func (r VerificationResult) AlertList() []FraudAlert {
	out := make([]FraudAlert, len(r.Alerts))
	for i, a := range r.Alerts {
		out[i] = a
		out[i].Evidence = append([]string(nil), a.Evidence...)
	}
	return out
}

// HasCritical reports whether any attached alert is critical
func (r VerificationResult) HasCritical() bool {
	for _, a := range r.Alerts {
		if a.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// MaxSeverity returns the highest alert severity, or "" when there are none
func (r VerificationResult) MaxSeverity() Severity {
	var top Severity
	for _, a := range r.Alerts {
		if a.Severity.Rank() > top.Rank() {
			top = a.Severity
		}
	}
	return top
}

// DuplicateCheckResult is the outcome of a cross-record identity check
type DuplicateCheckResult struct {
	IsDuplicate    bool            `json:"is_duplicate"`
	RelatedRecords []RelatedRecord `json:"related_records"`
	// Conflicts share the identity number but not the name
	Conflicts []RelatedRecord `json:"conflicts,omitempty"`
}

// RelatedRecord is a registry entry that resembles the checked identity
type RelatedRecord struct {
	IdentityKey string  `json:"identity_key"`
	Similarity  float64 `json:"similarity"`
}

// CostOutlierResult is the outcome of comparing a cost to its regional average
type CostOutlierResult struct {
	IsOutlier       bool     `json:"is_outlier"`
	DeviationPct    float64  `json:"deviation_pct"`
	RegionalAverage float64  `json:"regional_average"`
	Severity        Severity `json:"severity"`
}

// PopulationAnomalyResult flags implausibly large affected populations
type PopulationAnomalyResult struct {
	IsAnomalous bool    `json:"is_anomalous"`
	Population  int     `json:"population"`
	Threshold   int     `json:"threshold"`
	Ratio       float64 `json:"ratio"` // population / threshold
}
