package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is the static applicant configuration, loaded once per run and
// read-only afterwards.
type Profile struct {
	Name              string   `yaml:"name"`
	Education         string   `yaml:"education"`
	ExperienceSummary string   `yaml:"experience_summary"`
	Skills            []string `yaml:"skills"`
	Interests         string   `yaml:"interests"`
	LocationPref      string   `yaml:"location_preference"`
	ResumeHighlights  []string `yaml:"resume_highlights"`
	PersonalityNotes  string   `yaml:"personality_notes"`
	LinkedIn          string   `yaml:"linkedin"`
	Availability      string   `yaml:"availability"`
}

// Filters map onto the board's query parameters (see scan.BuildJobsURL).
type Filters struct {
	JobType          string   `yaml:"job_type"`         // fulltime/internship/contract/any
	RoleCategories   []string `yaml:"roles"`            // engineering, design, ...
	Remote           string   `yaml:"remote"`           // any/only/onsite
	Location         string   `yaml:"location"`         // free-text query
	CompanySize      string   `yaml:"company_size"`     // any or a size tag
	Industries       []string `yaml:"industries"`
	VisaNotRequired  string   `yaml:"visa_not_required"` // any/true
	SortBy           string   `yaml:"sort_by"`           // most_active/newest
	AllowedLocations []string `yaml:"allowed_locations"`
}

type Message struct {
	Style         string `yaml:"style"` // tone guidance passed to the generator
	Model         string `yaml:"model"`
	MaxTokens     int    `yaml:"max_tokens"`
	MinWords      int    `yaml:"min_words"`
	AllowFallback bool   `yaml:"allow_fallback"` // offer the template draft when the API is down
}

type Config struct {
	Profile Profile `yaml:"profile"`
	Filters Filters `yaml:"filters"`
	Message Message `yaml:"message"`

	Settings struct {
		DataDir         string  `yaml:"data_dir"`
		MaxApplications int     `yaml:"max_applications_per_session"`
		DelayMinSeconds float64 `yaml:"delay_min_seconds"`
		DelayMaxSeconds float64 `yaml:"delay_max_seconds"`
		MaxListingJobs  int     `yaml:"max_listing_jobs"`

		Browser struct {
			Headless    bool   `yaml:"headless"`
			UserDataDir string `yaml:"user_data_dir"`
		} `yaml:"browser"`

		Nav struct {
			RequestsPerSec float64 `yaml:"requests_per_sec"`
			Burst          int     `yaml:"burst"`
		} `yaml:"nav"`

		Retry struct {
			MaxAttempts      int     `yaml:"max_attempts"`
			BaseDelaySeconds float64 `yaml:"base_delay_seconds"`
		} `yaml:"retry"`
	} `yaml:"settings"`

	// Selectors is the DOM-location table: role name -> CSS locator. The
	// orchestration core never branches on locator content, only on role.
	Selectors map[string]string `yaml:"selectors"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
