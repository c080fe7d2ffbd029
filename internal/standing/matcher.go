// Package standing implements the standing-approval rule matcher
// described in spec.md §4.5.
//
// Grounded on haasonsaas-nexus's internal/agent/approval.go
// matchesPattern, narrowed from its exact/prefix/suffix/wildcard/
// "mcp:*" support down to the spec's exact-or-trailing-"*"-prefix
// semantics only.
package standing

import "strings"

// Rule is one row of the standing-approval rule table (spec.md §3).
type Rule struct {
	Item        string
	ReasonMatch string
	Note        string
}

// Matcher evaluates (item, reason) pairs against a configured rule
// table, first match wins, in configuration order.
type Matcher struct {
	rules []Rule
}

// New returns a Matcher over rules, preserving their configured order.
func New(rules []Rule) *Matcher {
	return &Matcher{rules: rules}
}

// Match returns the first rule whose item matches item exactly and
// whose reasonMatch matches reason, or ok=false if none match. An
// empty reason never matches any rule.
func (m *Matcher) Match(item, reason string) (rule Rule, ok bool) {
	if reason == "" {
		return Rule{}, false
	}

	for _, r := range m.rules {
		if r.Item != item {
			continue
		}
		if matchesReason(r.ReasonMatch, reason) {
			return r, true
		}
	}
	return Rule{}, false
}

// matchesReason implements spec.md §3's pattern semantics: exact
// match, or a prefix match when pattern ends with a single trailing
// "*" (the asterisk is not otherwise special).
func matchesReason(pattern, reason string) bool {
	if strings.HasSuffix(pattern, "*") {
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(reason, prefix)
	}
	return pattern == reason
}
