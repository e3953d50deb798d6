package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleYAML = `
profile:
  name: "Ada Example"
  experience_summary: "Two internships shipping Go services."
  skills: [Go, Python, " Go ", ""]
filters:
  job_type: internship
  roles: [engineering]
  allowed_locations: ["San Francisco", "san francisco", "Remote"]
message:
  style: "warm"
settings:
  max_applications_per_session: 10
selectors:
  job_row: "a[href*='/jobs/']"
  apply_button: "button.apply"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Profile.Name != "Ada Example" {
		t.Errorf("Name = %q", cfg.Profile.Name)
	}
	if cfg.Filters.JobType != "internship" {
		t.Errorf("JobType = %q", cfg.Filters.JobType)
	}
	if cfg.Settings.MaxApplications != 10 {
		t.Errorf("MaxApplications = %d", cfg.Settings.MaxApplications)
	}
	if cfg.Selectors["apply_button"] != "button.apply" {
		t.Errorf("Selectors = %v", cfg.Selectors)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "profile: [not a map")); err == nil {
		t.Fatal("malformed yaml accepted")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestNormalizeFillsDefaultsAndTrimsLists(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	out, res := NormalizeAndValidate(cfg)
	if !res.OK() {
		t.Fatalf("validation errors: %v", res.Errors)
	}

	// Duplicates and blanks are collapsed, first spelling wins.
	if got := strings.Join(out.Profile.Skills, ","); got != "Go,Python" {
		t.Errorf("Skills = %q", got)
	}
	if got := strings.Join(out.Filters.AllowedLocations, ","); got != "San Francisco,Remote" {
		t.Errorf("AllowedLocations = %q", got)
	}

	if out.Settings.DelayMinSeconds != 8 || out.Settings.DelayMaxSeconds != 20 {
		t.Errorf("delay defaults = %v/%v", out.Settings.DelayMinSeconds, out.Settings.DelayMaxSeconds)
	}
	if out.Settings.Retry.MaxAttempts != 3 {
		t.Errorf("retry attempts default = %d", out.Settings.Retry.MaxAttempts)
	}
	if out.Message.MinWords != 40 {
		t.Errorf("min words default = %d", out.Message.MinWords)
	}
	if out.Message.Model == "" {
		t.Error("model default missing")
	}
	// Explicit values survive.
	if out.Settings.MaxApplications != 10 {
		t.Errorf("MaxApplications = %d, want the configured 10", out.Settings.MaxApplications)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	_, res := NormalizeAndValidate(Config{})
	if res.OK() {
		t.Fatal("empty config passed validation")
	}

	wantSubstrings := []string{
		"profile.name",
		"profile.experience_summary",
		"profile.skills",
		"selectors table is empty",
	}
	joined := strings.Join(res.Errors, "\n")
	for _, want := range wantSubstrings {
		if !strings.Contains(joined, want) {
			t.Errorf("errors missing %q:\n%s", want, joined)
		}
	}
}

func TestValidateDelayRange(t *testing.T) {
	var cfg Config
	cfg.Settings.DelayMinSeconds = 20
	cfg.Settings.DelayMaxSeconds = 5
	_, res := NormalizeAndValidate(cfg)

	found := false
	for _, e := range res.Errors {
		if strings.Contains(e, "delay range") {
			found = true
		}
	}
	if !found {
		t.Errorf("inverted delay range not flagged: %v", res.Errors)
	}
}

func TestValidateWarnsOnAggressivePacing(t *testing.T) {
	cfg, _ := Load(writeConfig(t, sampleYAML))
	cfg.Settings.DelayMinSeconds = 1
	cfg.Settings.DelayMaxSeconds = 2
	_, res := NormalizeAndValidate(cfg)

	if !res.OK() {
		t.Fatalf("a low delay is a warning, not an error: %v", res.Errors)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "delay_min_seconds") {
			found = true
		}
	}
	if !found {
		t.Errorf("low delay not warned about: %v", res.Warnings)
	}
}

func TestEnsureUserConfig(t *testing.T) {
	dataDir := t.TempDir()
	example := filepath.Join(t.TempDir(), "config.example.yml")
	if err := os.WriteFile(example, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := EnsureUserConfig(dataDir, example)
	if err != nil {
		t.Fatalf("EnsureUserConfig: %v", err)
	}
	if path != filepath.Join(dataDir, "config.yml") {
		t.Errorf("path = %q", path)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != sampleYAML {
		t.Errorf("bootstrap copy mismatch (err=%v)", err)
	}

	// Second call must not clobber operator edits.
	if err := os.WriteFile(path, []byte("edited: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := EnsureUserConfig(dataDir, example); err != nil {
		t.Fatal(err)
	}
	b, _ = os.ReadFile(path)
	if string(b) != "edited: true\n" {
		t.Error("EnsureUserConfig overwrote an existing config")
	}
}
