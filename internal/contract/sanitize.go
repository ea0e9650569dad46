package contract

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	previewPolicyOnce sync.Once
	previewPolicy     *bluemonday.Policy
)

// previewSanitizer allows the formatting markup contract bodies use and
// strips scripts, event handlers and embedded objects.
func previewSanitizer() *bluemonday.Policy {
	previewPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("style").OnElements("p", "span", "div", "td", "th")
		policy.AllowStyles("text-align", "font-weight", "font-style", "text-decoration").Globally()
		previewPolicy = policy
	})
	return previewPolicy
}
