package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/aidmatch/internal/model"
)

const footer = "\n---\n_Generated by aidmatch. Scores are rule-based estimates; pending and rejected cases need a human decision._\n"

// Renderer writes results as JSON, Markdown or a terse terminal summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes v as indented JSON
func (r *Renderer) RenderJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteJSONFile writes v as indented JSON to path
func (r *Renderer) WriteJSONFile(path string, v interface{}) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	return r.RenderJSON(f, v)
}

// RenderVerificationMarkdown writes a verification result as Markdown
func (r *Renderer) RenderVerificationMarkdown(w io.Writer, res model.VerificationResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Verification: %s\n\n", res.Kind)
	if res.EntityID != "" {
		fmt.Fprintf(&b, "- **Entity:** %s\n", res.EntityID)
	}
	if res.ID != "" {
		fmt.Fprintf(&b, "- **Result ID:** %s\n", res.ID)
	}
	fmt.Fprintf(&b, "- **Status:** %s\n", res.Status)
	fmt.Fprintf(&b, "- **Confidence:** %d/100\n", res.ConfidenceScore)
	fmt.Fprintf(&b, "- **Risk level:** %s\n", res.RiskLevel)
	if !res.EvaluatedAt.IsZero() {
		fmt.Fprintf(&b, "- **Evaluated:** %s\n", res.EvaluatedAt.Format("2006-01-02 15:04:05 MST"))
	}

	b.WriteString("\n## Alerts\n\n")
	if len(res.Alerts) == 0 {
		b.WriteString("None.\n")
	} else {
		b.WriteString("| Type | Severity | Description |\n|---|---|---|\n")
		for _, a := range res.Alerts {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", a.Type, a.Severity, escapeCell(a.Description))
		}
	}

	if len(res.Signals) > 0 {
		b.WriteString("\n## Signals\n\n")
		for _, s := range res.Signals {
			mark := "✓"
			if !s.Passed {
				mark = "✗"
			}
			fmt.Fprintf(&b, "- %s **%s** (%d): %s\n", mark, s.Check, s.Score, s.Description)
		}
	}

	fmt.Fprintf(&b, "\n## Review notes\n\n%s\n", res.ReviewNotes)
	r.writeFooter(&b)

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderSuggestionsMarkdown writes a ranked provider list as Markdown
func (r *Renderer) RenderSuggestionsMarkdown(w io.Writer, req model.MatchRequest, suggestions []model.ProviderSuggestion) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Provider suggestions: %s", req.Category)
	if req.Region != "" {
		fmt.Fprintf(&b, " in %s", req.Region)
	}
	b.WriteString("\n\n")

	if len(suggestions) == 0 {
		b.WriteString("No providers available.\n")
	} else {
		b.WriteString("| # | Provider | Score | Quality | Spec | Geo | Trust | Capacity | Reasons |\n")
		b.WriteString("|---|---|---|---|---|---|---|---|---|\n")
		for i, s := range suggestions {
			f := s.Factors
			fmt.Fprintf(&b, "| %d | %s | %d | %s | %d | %d | %d | %d | %s |\n",
				i+1, s.ProviderID, s.MatchScore, s.QualityLabel,
				f.SpecializationMatch, f.GeographicProximity, f.TrustScore, f.CapacityAvailable,
				escapeCell(strings.Join(s.MatchReasons, "; ")))
		}
	}
	r.writeFooter(&b)

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderStatusMarkdown writes a status projection as Markdown
func (r *Renderer) RenderStatusMarkdown(w io.Writer, p model.StatusProjection) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Application status: %s (%d%%)\n\n", p.Label, p.Progress)
	for _, stage := range p.Timeline {
		box := "[ ]"
		if stage.Completed {
			box = "[x]"
		}
		fmt.Fprintf(&b, "- %s %s", box, stage.Name)
		if stage.Date != nil {
			fmt.Fprintf(&b, " (%s)", stage.Date.Format("2006-01-02"))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n**Next:** %s\n", p.NextAction)
	if p.CanRateProvider {
		b.WriteString("\nYou can now rate your provider.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderSummary writes a one-line verdict for terminals
func (r *Renderer) RenderSummary(w io.Writer, res model.VerificationResult) {
	icon := "●"
	switch res.Status {
	case model.StatusVerified:
		icon = "✓"
	case model.StatusRejected:
		icon = "✗"
	}

	fmt.Fprintf(w, "%s %-22s %-9s confidence %3d/100  risk %-6s", icon, res.Kind, res.Status, res.ConfidenceScore, res.RiskLevel)
	if res.EntityID != "" {
		fmt.Fprintf(w, "  %s", res.EntityID)
	}
	if len(res.Alerts) > 0 {
		names := make([]string, len(res.Alerts))
		for i, a := range res.Alerts {
			names[i] = string(a.Type)
		}
		fmt.Fprintf(w, "  [%s]", strings.Join(names, ", "))
	}
	fmt.Fprintln(w)
}

func (r *Renderer) writeFooter(b *strings.Builder) {
	if r.includeFooter {
		b.WriteString(footer)
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
