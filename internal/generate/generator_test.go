package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"waas-apply/internal/config"
	"waas-apply/internal/domain"
)

var testProfile = config.Profile{
	Name:              "Ada Example",
	ExperienceSummary: "Two internships shipping Go services.",
	Skills:            []string{"Go", "Python", "PostgreSQL", "Kubernetes"},
	ResumeHighlights:  []string{"Cut p99 latency 40%"},
	Interests:         "Developer tools",
}

var testPosting = domain.Posting{
	ID:    "Ab12Cd",
	Title: "Backend Engineer",
	URL:   "https://www.workatastartup.com/jobs/Ab12Cd",
	Company: domain.Company{
		Name:        "Acme Robotics",
		YCBatch:     "W24",
		Description: "Warehouse robots that work.",
	},
	Description:  "Own the control plane.",
	Requirements: "Go, distributed systems.",
}

// apiServer scripts the Messages API: each call pops the next reply.
func apiServer(t *testing.T, replies []string) (*httptest.Server, *[]messagesRequest) {
	t.Helper()
	var requests []messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") == "" {
			t.Error("request missing x-api-key header")
		}
		if r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("anthropic-version = %q", r.Header.Get("anthropic-version"))
		}
		var req messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		requests = append(requests, req)

		i := len(requests) - 1
		if i >= len(replies) {
			i = len(replies) - 1
		}
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": replies[i]}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newTestGenerator(t *testing.T, srv *httptest.Server, minWords int) *Generator {
	t.Helper()
	client, err := NewClient("test-key", "claude-sonnet-4-20250514", 400)
	if err != nil {
		t.Fatal(err)
	}
	client.apiURL = srv.URL
	return NewGenerator(client, config.Message{MinWords: minWords, Style: "warm but concise"})
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestGenerateReturnsDraft(t *testing.T) {
	reply := words(60)
	srv, requests := apiServer(t, []string{reply})
	g := newTestGenerator(t, srv, 40)

	draft, err := g.Generate(context.Background(), testProfile, testPosting)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if draft.PostingID != "Ab12Cd" {
		t.Errorf("PostingID = %q", draft.PostingID)
	}
	if draft.Text != reply {
		t.Errorf("Text = %q", draft.Text)
	}
	if draft.WordCount != 60 {
		t.Errorf("WordCount = %d, want 60", draft.WordCount)
	}

	if len(*requests) != 1 {
		t.Fatalf("api called %d times, want 1", len(*requests))
	}
	req := (*requests)[0]
	if req.Model != "claude-sonnet-4-20250514" || req.MaxTokens != 400 {
		t.Errorf("model=%q maxTokens=%d", req.Model, req.MaxTokens)
	}
	if !strings.Contains(req.System, "50-150 words") {
		t.Error("system prompt missing the length rule")
	}
	prompt := req.Messages[0].Content
	for _, want := range []string{
		"COMPANY: Acme Robotics (W24)",
		"ROLE: Backend Engineer",
		"Two internships shipping Go services.",
		"MY SKILLS: Go, Python, PostgreSQL, Kubernetes",
		"TONE GUIDANCE: warm but concise",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateRegeneratesOnceWhenShort(t *testing.T) {
	srv, requests := apiServer(t, []string{words(10), words(50)})
	g := newTestGenerator(t, srv, 40)

	draft, err := g.Generate(context.Background(), testProfile, testPosting)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if draft.WordCount != 50 {
		t.Errorf("WordCount = %d, want the regenerated draft", draft.WordCount)
	}
	if len(*requests) != 2 {
		t.Fatalf("api called %d times, want 2", len(*requests))
	}
	if !strings.Contains((*requests)[1].Messages[0].Content, "too short") {
		t.Error("regeneration prompt missing the length complaint")
	}
}

func TestGenerateFailsOnPersistentlyShortOutput(t *testing.T) {
	srv, requests := apiServer(t, []string{"too short", "still too short"})
	g := newTestGenerator(t, srv, 40)

	_, err := g.Generate(context.Background(), testProfile, testPosting)
	if err == nil {
		t.Fatal("a draft under the word floor after regeneration must be an error")
	}
	if len(*requests) != 2 {
		t.Errorf("api called %d times, want exactly 2 (one regenerate)", len(*requests))
	}
}

func TestGenerateFailsOnEmptyOutput(t *testing.T) {
	srv, _ := apiServer(t, []string{"", ""})
	g := newTestGenerator(t, srv, 40)

	if _, err := g.Generate(context.Background(), testProfile, testPosting); err == nil {
		t.Fatal("empty output must be an error")
	}
}

func TestCompleteReportsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"type": "rate_limit_error", "message": "slow down"},
		})
	}))
	defer srv.Close()

	client, err := NewClient("test-key", "m", 100)
	if err != nil {
		t.Fatal(err)
	}
	client.apiURL = srv.URL

	_, err = client.Complete(context.Background(), "sys", "prompt")
	if err == nil {
		t.Fatal("non-200 must be an error")
	}
	for _, want := range []string{"429", "rate_limit_error", "slow down"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient("", "model", 100); err == nil {
		t.Error("empty api key accepted")
	}
	if _, err := NewClient("key", " ", 100); err == nil {
		t.Error("empty model accepted")
	}
}

func TestFallbackMessage(t *testing.T) {
	msg := FallbackMessage(testProfile, testPosting)
	for _, want := range []string{"Ada Example", "Acme Robotics", "Backend Engineer", "[EDIT THIS"} {
		if !strings.Contains(msg, want) {
			t.Errorf("fallback missing %q: %s", want, msg)
		}
	}
	// Only the first three skills make it in.
	if strings.Contains(msg, "Kubernetes") {
		t.Errorf("fallback should cap at three skills: %s", msg)
	}
}

func TestBuildPromptOmitsEmptyFields(t *testing.T) {
	p := domain.Posting{ID: "x", Title: "Engineer", Company: domain.Company{Name: "Acme"}}
	prompt := buildPrompt(config.Profile{
		ExperienceSummary: "summary", Skills: []string{"Go"},
	}, p, "")

	for _, absent := range []string{"WHAT THEY DO", "REQUIREMENTS", "CULTURE", "LOCATION", "TONE GUIDANCE", "(W"} {
		if strings.Contains(prompt, absent) {
			t.Errorf("prompt contains %q for an empty field", absent)
		}
	}
	if !strings.Contains(prompt, "COMPANY: Acme\n") {
		t.Errorf("company line wrong:\n%s", prompt)
	}
}
