package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/aidmatch/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Draft writes reviewer notes for a verification result
	Draft(ctx context.Context, req DraftRequest) (*DraftResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// DraftRequest contains the input for reviewer-notes drafting
type DraftRequest struct {
	// Result is the verification result the notes are written for
	Result model.VerificationResult

	// EvidenceRefs is the allowlist of URLs the model may cite
	EvidenceRefs []string

	// Prompt overrides the default prompt when set
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// DraftResponse contains the drafted notes
type DraftResponse struct {
	Notes      string
	CitedURLs  []string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictEvidence rejects drafts citing URLs outside the allowlist
	StrictEvidence bool

	// MaxTokens for response generation
	MaxTokens int

	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns the reviewer defaults
func DefaultConfig() Config {
	return Config{
		Provider:       "", // Disabled by default
		Timeout:        20,
		StrictEvidence: true,
		MaxTokens:      400,
	}
}

// BuildPrompt constructs the default reviewer-notes prompt
func BuildPrompt(result model.VerificationResult, evidenceRefs []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are drafting notes for a human reviewer who must decide on a %s submission that automated checks could not settle.

RULES:
1. You may ONLY cite URLs from this list:
%s

2. Do not decide the case. Never write that the submission is genuine or fraudulent.
3. Point the reviewer at what to check by hand, based only on the alerts and signals below.
4. Keep it to 3 short sentences.

Result:
- Status: %s
- Confidence: %d/100
- Risk level: %s
`, result.Kind, joinURLs(evidenceRefs), result.Status, result.ConfidenceScore, result.RiskLevel)

	if len(result.Alerts) == 0 {
		b.WriteString("\nAlerts: none\n")
	} else {
		b.WriteString("\nAlerts:\n")
		for _, a := range result.Alerts {
			fmt.Fprintf(&b, "- %s (%s): %s\n", a.Type, a.Severity, a.Description)
		}
	}

	// Top 3 signals
	if len(result.Signals) > 0 {
		b.WriteString("\nSignals:\n")
		for i, s := range result.Signals {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "- %s: %s\n", s.Check, s.Description)
		}
	}

	return b.String()
}

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(No evidence URLs available)"
	}
	var b strings.Builder
	for i, u := range urls {
		if i >= 10 {
			fmt.Fprintf(&b, "\n... and %d more URLs", len(urls)-10)
			break
		}
		fmt.Fprintf(&b, "\n- %s", u)
	}
	return b.String()
}
