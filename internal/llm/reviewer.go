package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/ppiankov/aidmatch/internal/model"
)

// Outcome says how reviewer notes were produced
type Outcome string

const (
	OutcomeDrafted  Outcome = "drafted"
	OutcomeFallback Outcome = "fallback" // drafting failed, templated notes kept
	OutcomeSkipped  Outcome = "skipped"  // disabled or result not pending
)

// Reviewer drafts notes for pending verification results. It only ever
// touches ReviewNotes; status, confidence and alerts are left alone.
type Reviewer struct {
	provider Provider
	config   Config
	breaker  *gobreaker.CircuitBreaker
	logger   *logrus.Logger
}

// NewReviewer creates a reviewer. A disabled provider yields a reviewer that
// always skips.
func NewReviewer(config Config, logger *logrus.Logger) (*Reviewer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	return newReviewer(provider, config, logger), nil
}

func newReviewer(provider Provider, config Config, logger *logrus.Logger) *Reviewer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	r := &Reviewer{
		provider: provider,
		config:   config,
		logger:   logger,
	}
	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-reviewer",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
	return r
}

// IsEnabled reports whether a provider is configured
func (r *Reviewer) IsEnabled() bool {
	return r != nil && r.provider != nil
}

// ProviderName returns the configured provider name, or "" when disabled
func (r *Reviewer) ProviderName() string {
	if !r.IsEnabled() {
		return ""
	}
	return r.provider.Name()
}

// Available reports whether the configured provider answers. A disabled
// reviewer is never available.
func (r *Reviewer) Available(ctx context.Context) bool {
	return r.IsEnabled() && r.provider.IsAvailable(ctx)
}

// Annotate returns result with drafted reviewer notes when the result is
// pending and drafting succeeds. On any failure the templated notes stay.
func (r *Reviewer) Annotate(ctx context.Context, result model.VerificationResult, evidenceRefs []string) (model.VerificationResult, Outcome) {
	if !r.IsEnabled() || result.Status != model.StatusPending {
		return result, OutcomeSkipped
	}

	// Providers get their own copy of the alerts
	draft := result
	draft.Alerts = result.AlertList()

	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.provider.Draft(ctx, DraftRequest{
			Result:       draft,
			EvidenceRefs: evidenceRefs,
			Model:        r.config.Model,
			MaxTokens:    r.config.MaxTokens,
		})
	})
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"provider": r.provider.Name(),
			"kind":     result.Kind,
		}).Warn("Reviewer notes drafting failed, keeping templated notes")
		return result, OutcomeFallback
	}

	resp := out.(*DraftResponse)
	if strings.TrimSpace(resp.Notes) == "" {
		return result, OutcomeFallback
	}

	result.ReviewNotes = result.ReviewNotes + "\n\nReviewer draft (" + r.provider.Name() + "): " + resp.Notes
	r.logger.WithFields(logrus.Fields{
		"provider": r.provider.Name(),
		"model":    resp.Model,
		"tokens":   resp.TokensUsed,
	}).Debug("Drafted reviewer notes")

	return result, OutcomeDrafted
}
