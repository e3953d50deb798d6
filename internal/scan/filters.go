package scan

import (
	"strings"

	"waas-apply/internal/config"
)

const companiesURL = "https://www.workatastartup.com/companies"

// The board uses repeated params for multi-select (role=eng&role=design), so
// the query string is assembled by hand instead of url.Values.Encode.

var roleCategoryMap = map[string]string{
	"engineering": "eng",
	"design":      "design",
	"product":     "product",
	"science":     "science",
	"sales":       "sales",
	"marketing":   "marketing",
	"support":     "support",
	"operations":  "operations",
	"recruiting":  "recruiting",
	"finance":     "finance",
	"legal":       "legal",
	"all":         "any",
	"any":         "any",
}

var jobTypeMap = map[string]string{
	"fulltime":   "fulltime",
	"full-time":  "fulltime",
	"intern":     "internship",
	"internship": "internship",
	"contract":   "contract",
}

var sortMap = map[string]string{
	"most_active":  "most_active",
	"newest":       "created_desc",
	"created_desc": "created_desc",
}

// BuildJobsURL turns the configured search filters into the board's
// companies-page URL. Filtering happens through URL params, never by driving
// the sidebar widgets.
func BuildJobsURL(f config.Filters) string {
	var parts []string
	add := func(p string) { parts = append(parts, p) }

	add("layout=list-compact")
	add("tab=any")

	if jt, ok := jobTypeMap[strings.ToLower(f.JobType)]; ok {
		add("jobType=" + jt)
	}

	for _, cat := range f.RoleCategories {
		mapped, ok := roleCategoryMap[strings.ToLower(cat)]
		if !ok {
			continue
		}
		add("role=" + mapped)
		if mapped == "any" {
			break // "all" collapses to a single role=any
		}
	}

	if f.Remote != "" && f.Remote != "any" {
		add("remote=" + f.Remote)
	}
	if f.Location != "" {
		add("query=" + strings.ReplaceAll(f.Location, " ", "+"))
	}
	if f.CompanySize != "" && f.CompanySize != "any" {
		add("companySize=" + f.CompanySize)
	}
	if len(f.Industries) > 0 {
		add("industry=" + strings.Join(f.Industries, ","))
	} else {
		add("industry=any")
	}
	if f.VisaNotRequired != "" && f.VisaNotRequired != "any" {
		add("usVisaNotRequired=" + f.VisaNotRequired)
	} else {
		add("usVisaNotRequired=any")
	}

	sortVal, ok := sortMap[strings.ToLower(f.SortBy)]
	if !ok {
		sortVal = "most_active"
	}
	add("sortBy=" + sortVal)

	// board defaults
	add("demographic=any")
	add("hasEquity=any")
	add("hasSalary=any")
	add("interviewProcess=any")

	return companiesURL + "?" + strings.Join(parts, "&")
}
