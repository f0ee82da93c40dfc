package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/aidmatch/internal/model"
)

func pendingResult() model.VerificationResult {
	return model.VerificationResult{
		Kind:            model.SubjectCostLineItem,
		Status:          model.StatusPending,
		ConfidenceScore: 75,
		RiskLevel:       model.RiskMedium,
		Alerts: []model.FraudAlert{
			{Type: model.AlertCostOutlier, Severity: model.SeverityMedium, Description: "Cost deviates 50.0% from regional average"},
		},
		ReviewNotes: "Confidence 75/100 is between thresholds; route to manual review.",
	}
}

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if len(req.Messages) != 2 || !strings.Contains(req.Messages[1].Content, "cost-outlier") {
			t.Errorf("Expected prompt to mention the alert, got %+v", req.Messages)
		}

		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:     "chatcmpl-123",
			Object: "chat.completion",
			Model:  "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Index:        0,
					Message:      openai.ChatCompletionMessage{Role: "assistant", Content: content},
					FinishReason: "stop",
				},
			},
			Usage: openai.Usage{TotalTokens: 80},
		})
	}))
}

func TestOpenAIProvider_Draft_Success(t *testing.T) {
	server := chatServer(t, "Compare the invoice with https://example.org/invoice-17.")
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		Model:          "gpt-4o-mini",
		Timeout:        5,
		StrictEvidence: true,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Draft(context.Background(), DraftRequest{
		Result:       pendingResult(),
		EvidenceRefs: []string{"https://example.org/invoice-17"},
	})
	if err != nil {
		t.Fatalf("Draft failed: %v", err)
	}

	if resp.Notes != "Compare the invoice with https://example.org/invoice-17." {
		t.Errorf("Unexpected notes: %s", resp.Notes)
	}
	if len(resp.CitedURLs) != 1 || resp.CitedURLs[0] != "https://example.org/invoice-17" {
		t.Errorf("Unexpected cited URLs: %v", resp.CitedURLs)
	}
	if resp.TokensUsed != 80 {
		t.Errorf("Expected 80 tokens, got %d", resp.TokensUsed)
	}
}

func TestOpenAIProvider_Draft_CitationLeak(t *testing.T) {
	server := chatServer(t, "See https://elsewhere.example.com/story for context.")
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5, StrictEvidence: true})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Draft(context.Background(), DraftRequest{Result: pendingResult()})
	if !errors.Is(err, ErrCitationLeak) {
		t.Fatalf("Expected citation leak error, got %v", err)
	}
}

func TestOpenAIProvider_Draft_APIError(t *testing.T) {
	for _, code := range []int{http.StatusInternalServerError, http.StatusTooManyRequests} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"error": {"message": "nope", "type": "server_error"}}`))
		}))

		provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
		if err != nil {
			t.Fatalf("Failed to create provider: %v", err)
		}

		if _, err := provider.Draft(context.Background(), DraftRequest{Result: pendingResult()}); err == nil {
			t.Errorf("Expected error for status %d, got nil", code)
		}
		server.Close()
	}
}

func TestOpenAIProvider_Draft_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{malformed json`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Draft(context.Background(), DraftRequest{Result: pendingResult()}); err == nil {
		t.Fatal("Expected error for malformed JSON, got nil")
	}
}

func TestOpenAIProvider_Draft_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	// The caller's deadline is shorter than the configured timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := provider.Draft(ctx, DraftRequest{Result: pendingResult()}); err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
}

func TestOpenAIProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"data": [{"id": "gpt-4o-mini"}]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}

	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be false on error")
	}
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Error("Expected error for missing API key")
	}
}

func TestProxyFunc(t *testing.T) {
	proxy := proxyFunc("http://plain-proxy:3128", "http://tls-proxy:3128")

	req, _ := http.NewRequest(http.MethodGet, "https://api.openai.com/v1/models", nil)
	u, err := proxy(req)
	if err != nil || u.Host != "tls-proxy:3128" {
		t.Errorf("Expected https proxy, got %v (%v)", u, err)
	}

	req, _ = http.NewRequest(http.MethodGet, "http://localhost:11434/v1/models", nil)
	u, err = proxy(req)
	if err != nil || u.Host != "plain-proxy:3128" {
		t.Errorf("Expected http proxy, got %v (%v)", u, err)
	}
}

func TestBuildPrompt(t *testing.T) {
	result := pendingResult()
	result.Signals = []model.Signal{
		{Check: "cost_deviation", Description: "50.0% above average"},
	}

	prompt := BuildPrompt(result, []string{"https://example.org/a"})

	for _, want := range []string{"cost_line_item", "Confidence: 75/100", "cost-outlier (medium)", "cost_deviation", "- https://example.org/a", "Never write"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}

	if !strings.Contains(BuildPrompt(model.VerificationResult{}, nil), "No evidence URLs available") {
		t.Error("Expected placeholder when there are no evidence URLs")
	}
}
