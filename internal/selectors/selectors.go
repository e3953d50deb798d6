// Package selectors holds the DOM-location table for the board's frontend.
// Locators are configuration data (role -> CSS), loaded at startup and
// injected into the scanner/extractor/submitter; core logic only ever asks
// for a role. Run with -check-selectors after the site ships a redesign.
package selectors

import (
	"errors"
	"fmt"
	"sort"
)

// Role names used by the engine. A locator may group alternatives with
// commas, plain CSS grouping.
const (
	RoleJobRow         = "job_row"
	RoleLoadMore       = "load_more"
	RoleShowMore       = "show_more"
	RoleCompanyLink    = "company_link"
	RoleApplyButton    = "apply_button"
	RoleModal          = "modal"
	RoleModalTextarea  = "modal_textarea"
	RoleSendButton     = "send_button"
	RoleCloseButton    = "close_button"
	RoleLoggedIn       = "logged_in"
	RoleAlreadyApplied = "already_applied"
	RoleCaptcha        = "captcha"
)

var required = []string{
	RoleJobRow,
	RoleApplyButton,
	RoleModal,
	RoleModalTextarea,
	RoleSendButton,
	RoleLoggedIn,
	RoleAlreadyApplied,
}

var ErrNotFound = errors.New("selector role not configured")

type Table map[string]string

// FromConfig validates that every role the apply flow depends on has a
// locator. Optional roles (load_more, captcha, ...) may be absent.
func FromConfig(m map[string]string) (Table, error) {
	t := Table{}
	for role, css := range m {
		if css != "" {
			t[role] = css
		}
	}
	var missing []string
	for _, role := range required {
		if _, ok := t[role]; !ok {
			missing = append(missing, role)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("selectors config missing required roles: %v", missing)
	}
	return t, nil
}

func (t Table) Find(role string) (string, error) {
	css, ok := t[role]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, role)
	}
	return css, nil
}

// Roles returns every configured role, sorted, for the verification pass.
func (t Table) Roles() []string {
	out := make([]string, 0, len(t))
	for role := range t {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}
