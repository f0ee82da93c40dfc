// Package pipeline wires the engines to the ambient services: snapshots,
// the optional reviewer, metrics and logging. The CLI and the HTTP API both
// go through it.
package pipeline

import (
	"context"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/aidmatch/internal/llm"
	"github.com/ppiankov/aidmatch/internal/match"
	"github.com/ppiankov/aidmatch/internal/metrics"
	"github.com/ppiankov/aidmatch/internal/model"
	"github.com/ppiankov/aidmatch/internal/snapshot"
	"github.com/ppiankov/aidmatch/internal/status"
	"github.com/ppiankov/aidmatch/internal/verify"
)

// Pipeline runs every exposed operation
type Pipeline struct {
	engine   *verify.Engine
	matcher  *match.Matcher
	reviewer *llm.Reviewer // nil when drafting is disabled
	metrics  *metrics.Metrics
	renderer *Renderer
	logger   *logrus.Logger
	config   *model.Config

	snap  atomic.Pointer[snapshot.Snapshot]
	now   func() time.Time
	newID func() string
}

// NewPipeline creates a pipeline. m and logger may be nil.
func NewPipeline(cfg *model.Config, logger *logrus.Logger, m *metrics.Metrics) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var reviewer *llm.Reviewer
	if cfg.LLM.Provider != "" {
		r, err := llm.NewReviewer(llm.ConfigFromModel(cfg.LLM), logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize LLM provider, reviewer notes stay templated")
		} else {
			reviewer = r
		}
	}

	p := &Pipeline{
		engine:   verify.NewEngine(cfg),
		matcher:  match.NewMatcher(&cfg.Matching),
		reviewer: reviewer,
		metrics:  m,
		renderer: NewRenderer(cfg.Output.IncludeFooter),
		logger:   logger,
		config:   cfg,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	p.snap.Store(&snapshot.Snapshot{})
	return p
}

// SetSnapshot swaps the provider list and identity registry used when a
// call does not bring its own
func (p *Pipeline) SetSnapshot(s *snapshot.Snapshot) {
	if s == nil {
		s = &snapshot.Snapshot{}
	}
	p.snap.Store(s)
	p.logger.WithFields(logrus.Fields{
		"providers":        len(s.Providers),
		"registry_records": len(s.Registry),
	}).Info("Snapshot loaded")
}

// Snapshot returns the current snapshot
func (p *Pipeline) Snapshot() *snapshot.Snapshot {
	return p.snap.Load()
}

// Renderer returns the output renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// ReviewerName returns the reviewer provider, or "" when disabled
func (p *Pipeline) ReviewerName() string {
	return p.reviewer.ProviderName()
}

// ReviewerAvailable reports whether the reviewer provider answers within
// ctx. It is false when drafting is disabled.
func (p *Pipeline) ReviewerAvailable(ctx context.Context) bool {
	return p.reviewer.Available(ctx)
}

// Verify verifies one subject against the current registry snapshot and
// stamps the result with an id and evaluation time
func (p *Pipeline) Verify(ctx context.Context, subject model.Subject) (model.VerificationResult, error) {
	start := time.Now()
	log := p.logger.WithFields(logrus.Fields{
		"kind":      subject.Kind,
		"entity_id": subject.EntityID,
	})

	result, err := p.engine.Verify(subject, verify.Context{
		Registry: p.snap.Load().Registry,
		Now:      p.now(),
	})
	if err != nil {
		log.WithError(err).Debug("Verification refused input")
		return model.VerificationResult{}, err
	}
	result.ID = p.newID()

	if p.reviewer != nil {
		var outcome llm.Outcome
		result, outcome = p.reviewer.Annotate(ctx, result, evidenceRefs(subject))
		p.metrics.IncrementReviewNotes(string(outcome))
	}

	p.metrics.IncrementVerdict(string(result.Kind), string(result.Status))
	for _, a := range result.Alerts {
		p.metrics.IncrementAlert(string(a.Type), string(a.Severity))
	}
	p.metrics.ObserveVerifyLatency(string(result.Kind), time.Since(start))

	log.WithFields(logrus.Fields{
		"result_id":  result.ID,
		"status":     result.Status,
		"confidence": result.ConfidenceScore,
		"alerts":     len(result.Alerts),
	}).Debug("Verified subject")

	return result, nil
}

// CheckDuplicateIdentity checks an identity against registry, or against
// the snapshot registry when registry is nil. selfKey names the subject's
// own registry record, which never counts as a duplicate; "" skips nothing.
func (p *Pipeline) CheckDuplicateIdentity(selfKey, idNumber, fullName string, registry []model.IdentityRecord) model.DuplicateCheckResult {
	if registry == nil {
		registry = p.snap.Load().Registry
	}
	return p.engine.Detector().CheckDuplicateIdentityFor(selfKey, idNumber, fullName, registry)
}

// CheckCostOutlier compares cost with averages, or with the configured
// averages when averages is nil
func (p *Pipeline) CheckCostOutlier(cost float64, category string, averages map[string]float64) (model.CostOutlierResult, error) {
	if averages == nil {
		averages = p.config.Fraud.RegionalAverages
	}
	return p.engine.Detector().CheckCostOutlier(cost, category, averages)
}

// Suggest ranks providers for req. A nil provider list uses the snapshot.
func (p *Pipeline) Suggest(ctx context.Context, req model.MatchRequest, providers []model.Provider) ([]model.ProviderSuggestion, error) {
	if providers == nil {
		providers = p.snap.Load().Providers
	}

	suggestions, err := p.matcher.Suggest(req, providers)
	if err != nil {
		return nil, err
	}
	p.metrics.ObserveSuggestions(len(suggestions))

	p.logger.WithFields(logrus.Fields{
		"category":    req.Category,
		"region":      req.Region,
		"candidates":  len(providers),
		"suggestions": len(suggestions),
	}).Debug("Ranked providers")

	return suggestions, nil
}

// ProjectStatus returns the beneficiary-facing status view
func (p *Pipeline) ProjectStatus(fields model.StatusFields) model.StatusProjection {
	projection := status.ProjectStatus(fields)
	if projection.Progress == 0 {
		p.logger.WithFields(logrus.Fields{
			"beneficiary_id": fields.BeneficiaryID,
			"status":         fields.Status,
		}).Warn("Unknown application status")
	}
	return projection
}

// evidenceRefs lists the URLs a reviewer draft may cite
func evidenceRefs(s model.Subject) []string {
	var refs []string
	if isURL(s.EvidenceRef) {
		refs = append(refs, s.EvidenceRef)
	}
	if s.Crisis != nil {
		for _, src := range s.Crisis.Sources {
			if isURL(src) {
				refs = append(refs, src)
			}
		}
	}
	return refs
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
