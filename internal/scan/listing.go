package scan

import (
	"regexp"
	"strings"

	"waas-apply/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

var (
	jobIDRe       = regexp.MustCompile(`/jobs/([A-Za-z0-9]+)`)
	companySlugRe = regexp.MustCompile(`/companies/([^/]+)`)
)

// ParseListing extracts posting stubs from a snapshot of the companies page.
// Each job link sits inside a company card; the company name comes from the
// nearest /companies/ link walking up the tree, with the URL slug as a
// fallback when the card layout drifts.
func ParseListing(html string) ([]domain.Stub, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var out []domain.Stub
	seen := map[string]bool{}

	doc.Find("a[href*='/jobs/']").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || !strings.Contains(href, "/jobs/") {
			return
		}

		id := ExtractJobID(href)
		if id == "" || seen[id] {
			return
		}
		seen[id] = true

		title := cleanText(a.Text())

		name, blurb := companyContext(a)
		if name == "" {
			if m := companySlugRe.FindStringSubmatch(href); m != nil {
				name = slugToName(m[1])
			}
		}

		url := href
		if !strings.HasPrefix(url, "http") {
			url = "https://www.workatastartup.com" + url
		}

		out = append(out, domain.Stub{
			ID:          id,
			Title:       title,
			CompanyName: name,
			Blurb:       blurb,
			URL:         url,
		})
	})

	return out, nil
}

// companyContext walks up from a job link looking for the company name link
// and a short blurb paragraph within the same card.
func companyContext(a *goquery.Selection) (name, blurb string) {
	node := a
	for i := 0; i < 15; i++ {
		node = node.Parent()
		if node.Length() == 0 {
			break
		}

		if name == "" {
			link := node.Find("a[href*='/companies/']").First()
			if link.Length() > 0 {
				t := cleanText(link.Text())
				if t != "" && len(t) < 80 {
					name = t
				}
				if name == "" {
					if href, ok := link.Attr("href"); ok {
						if m := companySlugRe.FindStringSubmatch(href); m != nil {
							name = slugToName(m[1])
						}
					}
				}
			}
		}

		if blurb == "" {
			node.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
				t := cleanText(p.Text())
				if len(t) > 15 && len(t) < 200 && strings.Contains(t, " ") && !looksLikeJobMeta(t) {
					blurb = t
					return false
				}
				return true
			})
		}

		if name != "" && blurb != "" {
			break
		}
	}
	return name, blurb
}

var jobMetaRe = regexp.MustCompile(`(?i)^(fulltime|parttime|intern|remote|contract)`)

func looksLikeJobMeta(t string) bool { return jobMetaRe.MatchString(t) }

func ExtractJobID(href string) string {
	m := jobIDRe.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[1]
}

func slugToName(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var wsRe = regexp.MustCompile(`\s+`)

func cleanText(s string) string {
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}
