package scan

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"waas-apply/internal/browser"
	"waas-apply/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Extractor fetches a posting's detail page through the shared session and
// parses it into a full Posting.
type Extractor struct {
	sess browser.Session
}

func NewExtractor(sess browser.Session) *Extractor {
	return &Extractor{sess: sess}
}

func (e *Extractor) Fetch(ctx context.Context, stub domain.Stub) (domain.Posting, error) {
	log.Printf("[scan] fetching detail: %s", stub.URL)
	if err := e.sess.Navigate(ctx, stub.URL); err != nil {
		return domain.Posting{}, fmt.Errorf("navigate detail page: %w", err)
	}
	raw, err := e.sess.HTML(ctx)
	if err != nil {
		return domain.Posting{}, fmt.Errorf("read detail page: %w", err)
	}
	p, err := ParseDetail(raw, stub.URL)
	if err != nil {
		return domain.Posting{}, err
	}
	// The listing stub sometimes has better data than the detail page.
	if p.Title == "" || p.Title == "Unknown Role" {
		if stub.Title != "" {
			p.Title = stub.Title
		}
	}
	if p.Company.Name == "" || p.Company.Name == "Unknown" {
		if stub.CompanyName != "" {
			p.Company.Name = stub.CompanyName
		}
	}
	if p.Company.Description == "" {
		p.Company.Description = stub.Blurb
	}
	return p, nil
}

var (
	ycBatchRe     = regexp.MustCompile(`\(([WS]\d{2})\)`)
	breadcrumbRe  = regexp.MustCompile(`Companies\s*/\s*(.+?)(?:\s*\(|\s*/|\s*\n)`)
	nameByBatchRe = regexp.MustCompile(`([A-Z][A-Za-z0-9 ]+)\s*\([WS]\d{2}\)`)
	titleSlugRe   = regexp.MustCompile(`/jobs/[A-Za-z0-9]+-(.+)$`)
	sizeRe        = regexp.MustCompile(`(?i)(\d+\s*[-–]\s*\d+|\d+\+?)\s*(?:people|employees)`)
	salaryRe      = regexp.MustCompile(`\$\s?\d[\dKk,.]*(?:\s*[-–]\s*\$?\s?\d[\dKk,.]*)?`)
)

// Headers that are section labels, never job titles.
var sectionHeaderSet = map[string]bool{
	"about": true, "about us": true, "about you": true,
	"about the company": true, "about the role": true,
	"the role": true, "description": true, "overview": true,
	"requirements": true, "qualifications": true, "apply": true,
	"benefits": true, "culture": true, "values": true,
	"what you'll do": true, "what we're looking for": true,
	"responsibilities": true, "who we are": true, "who you are": true,
	"what you bring": true, "interview process": true,
	"other jobs": true, "similar jobs": true, "our stack": true,
	"tech stack": true, "perks": true, "compensation": true,
}

// ParseDetail turns a detail-page snapshot into a Posting. Every field is
// best-effort: selector drift degrades to empty fields, never to an error,
// so the only parse error here is unreadable markup.
func ParseDetail(rawHTML, url string) (domain.Posting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return domain.Posting{}, fmt.Errorf("parse detail html: %w", err)
	}

	text := textWithBreaks(doc)

	// --- Company name, strongest strategy first ---
	var companyName string
	if m := companySlugRe.FindStringSubmatch(url); m != nil {
		companyName = slugToName(m[1])
	}
	if companyName == "" {
		if m := breadcrumbRe.FindStringSubmatch(text); m != nil {
			companyName = strings.TrimSpace(m[1])
		}
	}
	if companyName == "" {
		if m := nameByBatchRe.FindStringSubmatch(text); m != nil {
			companyName = strings.TrimSpace(m[1])
		}
	}
	if companyName == "" {
		h1 := cleanText(doc.Find("h1").First().Text())
		if h1 != "" && !sectionHeaderSet[strings.ToLower(h1)] {
			companyName = h1
		}
	}

	// --- Job title: first heading that is neither company nor section label ---
	var title string
	doc.Find("h1, h2").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		t := cleanText(h.Text())
		if t == "" || t == companyName || len(t) > 100 {
			return true
		}
		if sectionHeaderSet[strings.ToLower(t)] {
			return true
		}
		title = t
		return false
	})
	if title == "" {
		if m := titleSlugRe.FindStringSubmatch(url); m != nil {
			title = slugToName(m[1])
		}
	}

	companyDesc := extractSection(text,
		"About", "About the company", "About us", "Who we are", "What we do")
	description := extractSection(text,
		"About the role", "What you'll do", "The role", "Role description",
		"Job description", "Description", "Responsibilities")
	requirements := extractSection(text,
		"Requirements", "Qualifications", "What we're looking for",
		"You should have", "What you bring", "Skills", "Minimum qualifications")
	culture := extractSection(text,
		"Culture", "Values", "Who you are", "Ideal candidate",
		"What we offer", "Benefits", "Perks")

	company := domain.Company{
		Name:        orUnknown(companyName, "Unknown"),
		Description: companyDesc,
		YCBatch:     firstMatch(ycBatchRe, text),
		Size:        firstMatch(sizeRe, text),
	}

	return domain.Posting{
		ID:           ExtractJobID(url),
		Title:        orUnknown(title, "Unknown Role"),
		Company:      company,
		URL:          url,
		Description:  description,
		Requirements: requirements,
		Location:     extractLocation(text),
		SalaryRange:  salaryRe.FindString(text),
		CultureNotes: culture,
	}, nil
}

// sectionBoundary terminates a section at the next header-looking line.
var sectionBoundary = `(?:About|Requirements|Qualifications|Culture|Values|Benefits|Perks|What you|The role|Who you|Skills|Responsibilities|Apply|Already)\b`

func extractSection(text string, headers ...string) string {
	for _, header := range headers {
		re, err := regexp.Compile(
			`(?is)(?:^|\n)\s*` + regexp.QuoteMeta(header) + `\s*:?\s*\n([\s\S]*?)(?:\n\s*` + sectionBoundary + `|\z)`)
		if err != nil {
			continue
		}
		if m := re.FindStringSubmatch(text); m != nil {
			s := strings.TrimSpace(m[1])
			if len(s) > 10 {
				if len(s) > 1000 {
					s = s[:1000]
				}
				return s
			}
		}
	}
	return ""
}

// Location chips on the page mix in tags like "assistance" or "equity"; only
// accept text that actually names a place.
var locationKeywords = []string{
	"remote", "san francisco", "new york", "nyc", "los angeles", "austin",
	"seattle", "boston", "chicago", "denver", "miami", "india", "london",
	"berlin", "toronto", "paris", "bangalore", "bengaluru", "bay area",
	"palo alto", "mountain view", "sunnyvale", "menlo park", "redwood city",
	"washington", "portland", "atlanta", "dallas", "houston", "philadelphia",
	"san jose", "san diego", "united states", "usa", "canada", "uk",
	", ca", ", ny", ", tx", ", wa",
}

func extractLocation(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > 60 {
			continue
		}
		lower := strings.ToLower(line)
		for _, kw := range locationKeywords {
			if strings.Contains(lower, kw) {
				return line
			}
		}
	}
	return ""
}

func firstMatch(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func orUnknown(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// textWithBreaks renders the document as text with newlines after block
// elements, so section extraction can work on line boundaries. goquery's
// Text() glues block siblings together, which destroys header detection.
func textWithBreaks(doc *goquery.Document) string {
	blocks := map[string]bool{
		"p": true, "div": true, "li": true, "br": true, "section": true,
		"tr": true, "ul": true, "ol": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blocks[n.Data] {
			b.WriteString("\n")
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return b.String()
}
