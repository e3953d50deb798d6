package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string
	Warnings []string
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate fills defaults, trims list fields, and collects
// everything wrong with the config in one pass so the operator gets the full
// picture instead of fix-one-rerun cycles.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Profile.Skills = trimList(out.Profile.Skills)
	out.Profile.ResumeHighlights = trimList(out.Profile.ResumeHighlights)
	out.Filters.RoleCategories = trimList(out.Filters.RoleCategories)
	out.Filters.Industries = trimList(out.Filters.Industries)
	out.Filters.AllowedLocations = trimList(out.Filters.AllowedLocations)

	// ---- Defaults ----

	if out.Settings.DataDir == "" {
		out.Settings.DataDir = "data"
	}
	if out.Settings.MaxApplications == 0 {
		out.Settings.MaxApplications = 25
	}
	if out.Settings.DelayMinSeconds == 0 {
		out.Settings.DelayMinSeconds = 8
	}
	if out.Settings.DelayMaxSeconds == 0 {
		out.Settings.DelayMaxSeconds = 20
	}
	if out.Settings.MaxListingJobs == 0 {
		out.Settings.MaxListingJobs = 100
	}
	if out.Settings.Browser.UserDataDir == "" {
		out.Settings.Browser.UserDataDir = "browser_data"
	}
	if out.Settings.Nav.RequestsPerSec == 0 {
		out.Settings.Nav.RequestsPerSec = 0.5
	}
	if out.Settings.Nav.Burst == 0 {
		out.Settings.Nav.Burst = 1
	}
	if out.Settings.Retry.MaxAttempts == 0 {
		out.Settings.Retry.MaxAttempts = 3
	}
	if out.Settings.Retry.BaseDelaySeconds == 0 {
		out.Settings.Retry.BaseDelaySeconds = 2
	}
	if out.Message.Model == "" {
		out.Message.Model = "claude-sonnet-4-20250514"
	}
	if out.Message.MaxTokens == 0 {
		out.Message.MaxTokens = 400
	}
	if out.Message.MinWords == 0 {
		out.Message.MinWords = 40
	}

	// ---- Validation rules ----

	if strings.TrimSpace(out.Profile.Name) == "" {
		res.addErr("profile.name is required")
	}
	if strings.TrimSpace(out.Profile.ExperienceSummary) == "" {
		res.addErr("profile.experience_summary is required")
	}
	if len(out.Profile.Skills) == 0 {
		res.addErr("profile.skills must list at least one skill")
	}
	if strings.TrimSpace(out.Profile.Education) == "" {
		res.addWarn("profile.education is empty; generated messages will skip it")
	}

	if out.Settings.MaxApplications < 1 {
		res.addErr("settings.max_applications_per_session must be > 0")
	}
	if out.Settings.DelayMinSeconds < 0 || out.Settings.DelayMaxSeconds < out.Settings.DelayMinSeconds {
		res.addErr("settings delay range is invalid: min=%.1f max=%.1f",
			out.Settings.DelayMinSeconds, out.Settings.DelayMaxSeconds)
	}
	if out.Settings.DelayMinSeconds < 3 {
		res.addWarn("settings.delay_min_seconds is very low (%.1f); the board may rate-limit you.",
			out.Settings.DelayMinSeconds)
	}
	if out.Settings.Retry.MaxAttempts < 1 {
		res.addErr("settings.retry.max_attempts must be > 0")
	}
	if out.Message.MinWords < 10 {
		res.addWarn("message.min_words is very low (%d); short drafts read as spam.", out.Message.MinWords)
	}

	if len(out.Selectors) == 0 {
		res.addErr("selectors table is empty; the engine cannot locate anything on the page")
	}

	return out, res
}
