package domain

type Company struct {
	Name        string
	Description string
	YCBatch     string // e.g. "W24"
	Industry    string
	Size        string // headcount tag as shown on the page, e.g. "11-50"
	Website     string
}

// Posting is one job listing scraped from the board. Identity is ID, which is
// stable across runs; everything else is whatever the detail page had at
// fetch time.
type Posting struct {
	ID           string
	Title        string
	Company      Company
	URL          string
	Description  string
	Requirements string
	Location     string
	JobType      string
	SalaryRange  string
	CultureNotes string
}

// Stub is the lightweight listing-page view of a posting, enough to decide
// whether to fetch the full detail page.
type Stub struct {
	ID          string
	Title       string
	CompanyName string
	Blurb       string
	URL         string
}
