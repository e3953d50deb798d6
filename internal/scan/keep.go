package scan

import (
	"strings"

	"waas-apply/internal/config"
	"waas-apply/internal/domain"
)

// KeepPosting applies the configured location allowlist after detail
// extraction. The board's URL filters are coarse; this catches listings that
// slip through. An empty allowlist keeps everything.
func KeepPosting(f config.Filters, p domain.Posting) (keep bool, reason string) {
	if len(f.AllowedLocations) == 0 {
		return true, ""
	}

	loc := strings.ToLower(strings.TrimSpace(p.Location))
	title := strings.ToLower(p.Title)
	desc := strings.ToLower(p.Description)

	// any mention of remote is remote-ish
	isRemote := strings.Contains(loc, "remote") || strings.Contains(title, "remote") ||
		strings.Contains(desc, "remote")
	if isRemote && f.Remote != "onsite" {
		return true, ""
	}

	for _, a := range f.AllowedLocations {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if strings.Contains(loc, a) || strings.Contains(title, a) {
			return true, ""
		}
	}
	return false, "location_not_allowed"
}
