// Package verify evaluates one submitted piece of evidence and returns a
// verdict with its fraud alerts. The engine is deterministic: every
// confidence value comes from a named rule in this package.
package verify

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/aidmatch/internal/fraud"
	"github.com/ppiankov/aidmatch/internal/model"
)

// Context carries the read-only snapshots a verification may consult.
// Callers pass immutable copies; the engine never writes to them.
type Context struct {
	Registry         []model.IdentityRecord // Identity registry for duplicate checks (optional)
	RegionalAverages map[string]float64     // Overrides the configured averages when non-nil
	Now              time.Time              // Stamped on the result as EvaluatedAt
}

// Engine verifies subjects under a fixed policy
type Engine struct {
	config     model.VerificationConfig
	fraud      model.FraudConfig
	detector   *fraud.Detector
	classifier *AuthorityClassifier
}

// NewEngine creates a verification engine. A nil config uses the defaults.
func NewEngine(cfg *model.Config) *Engine {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	return &Engine{
		config:     cfg.Verification,
		fraud:      cfg.Fraud,
		detector:   fraud.NewDetector(&cfg.Fraud),
		classifier: NewAuthorityClassifier(&cfg.Authority),
	}
}

// Detector exposes the detector the engine delegates cross-record checks to
func (e *Engine) Detector() *fraud.Detector {
	return e.detector
}

// outcome is what a kind-specific check hands back before the verdict
type outcome struct {
	confidence int
	alerts     []model.FraudAlert
	signals    []model.Signal
}

func (o *outcome) alert(t model.AlertType, sev model.Severity, description string, evidence ...string) {
	o.alerts = append(o.alerts, model.FraudAlert{
		Type:        t,
		Severity:    sev,
		Description: description,
		Evidence:    evidence,
	})
}

// Verify evaluates subject and returns its verdict. It fails with
// model.ErrInvalidSubject for malformed subjects and, for cost line items
// without a configured average, model.ErrUnknownCategory.
func (e *Engine) Verify(subject model.Subject, vctx Context) (model.VerificationResult, error) {
	if err := validateSubject(subject); err != nil {
		return model.VerificationResult{}, err
	}

	var (
		out outcome
		err error
	)

	switch subject.Kind {
	case model.SubjectIdentityDocument:
		out = e.verifyIdentity(subject, vctx)
	case model.SubjectDistributionEvidence:
		out = e.verifyDistribution(subject)
	case model.SubjectCostLineItem:
		out, err = e.verifyCost(subject, vctx)
	case model.SubjectCrisisClaim:
		out = e.verifyCrisis(subject)
	}
	if err != nil {
		return model.VerificationResult{}, err
	}

	return e.finalize(subject, out, vctx.Now), nil
}

// Verdict applies the status invariant: critical alerts or low confidence
// reject, high confidence verifies, anything else waits for review.
func Verdict(confidence int, alerts []model.FraudAlert, verifiedThreshold, rejectThreshold int) model.VerificationStatus {
	for _, a := range alerts {
		if a.Severity == model.SeverityCritical {
			return model.StatusRejected
		}
	}
	switch {
	case confidence < rejectThreshold:
		return model.StatusRejected
	case confidence >= verifiedThreshold:
		return model.StatusVerified
	default:
		return model.StatusPending
	}
}

func (e *Engine) finalize(subject model.Subject, out outcome, now time.Time) model.VerificationResult {
	if out.alerts == nil {
		out.alerts = []model.FraudAlert{}
	}

	result := model.VerificationResult{
		Kind:            subject.Kind,
		EntityID:        subject.EntityID,
		ConfidenceScore: out.confidence,
		Alerts:          out.alerts,
		Signals:         out.signals,
		EvaluatedAt:     now,
	}
	result.Status = Verdict(out.confidence, out.alerts, e.config.VerifiedThreshold, e.config.RejectThreshold)
	result.RiskLevel = riskLevel(result)
	result.ReviewNotes = e.reviewNotes(result)

	return result
}

func riskLevel(r model.VerificationResult) model.RiskLevel {
	top := r.MaxSeverity().Rank()
	switch {
	case r.Status == model.StatusRejected || top >= model.SeverityHigh.Rank():
		return model.RiskHigh
	case r.Status == model.StatusPending || top > 0:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

func (e *Engine) reviewNotes(r model.VerificationResult) string {
	var b strings.Builder

	switch r.Status {
	case model.StatusVerified:
		fmt.Fprintf(&b, "Verified at confidence %d/100.", r.ConfidenceScore)
	case model.StatusPending:
		fmt.Fprintf(&b, "Confidence %d/100 is between the rejection (%d) and verification (%d) thresholds; route to manual review.",
			r.ConfidenceScore, e.config.RejectThreshold, e.config.VerifiedThreshold)
	case model.StatusRejected:
		if r.HasCritical() {
			fmt.Fprintf(&b, "Rejected on a critical alert at confidence %d/100.", r.ConfidenceScore)
		} else {
			fmt.Fprintf(&b, "Rejected: confidence %d/100 is below the rejection threshold (%d).", r.ConfidenceScore, e.config.RejectThreshold)
		}
	}

	if len(r.Alerts) > 0 {
		names := make([]string, len(r.Alerts))
		for i, a := range r.Alerts {
			names[i] = fmt.Sprintf("%s (%s)", a.Type, a.Severity)
		}
		fmt.Fprintf(&b, " Alerts: %s.", strings.Join(names, ", "))
	}

	return b.String()
}

func validateSubject(s model.Subject) error {
	if !s.Kind.Valid() {
		return model.InvalidSubject("kind", fmt.Sprintf("unrecognized subject kind %q", s.Kind))
	}

	switch s.Kind {
	case model.SubjectIdentityDocument:
		if s.Identity == nil {
			return model.InvalidSubject("identity", "identity payload is required")
		}
		if strings.TrimSpace(s.EvidenceRef) == "" {
			return model.InvalidSubject("evidence_ref", "document image reference is required")
		}
	case model.SubjectDistributionEvidence:
		if s.Distribution == nil {
			return model.InvalidSubject("distribution", "distribution payload is required")
		}
		if strings.TrimSpace(s.EvidenceRef) == "" {
			return model.InvalidSubject("evidence_ref", "distribution photo reference is required")
		}
	case model.SubjectCostLineItem:
		if s.Cost == nil {
			return model.InvalidSubject("cost", "cost payload is required")
		}
		if strings.TrimSpace(s.Cost.Category) == "" {
			return model.InvalidSubject("cost.category", "category is required")
		}
		if s.Cost.Amount < 0 {
			return model.InvalidSubject("cost.amount", "amount must not be negative")
		}
		if strings.TrimSpace(s.EvidenceRef) == "" {
			return model.InvalidSubject("evidence_ref", "invoice or receipt reference is required")
		}
	case model.SubjectCrisisClaim:
		if s.Crisis == nil {
			return model.InvalidSubject("crisis", "crisis payload is required")
		}
		if strings.TrimSpace(s.EvidenceRef) == "" {
			return model.InvalidSubject("evidence_ref", "crisis claim text reference is required")
		}
		if s.Crisis.AffectedPopulation < 0 {
			return model.InvalidSubject("crisis.affected_population", "population must not be negative")
		}
	}

	return nil
}
