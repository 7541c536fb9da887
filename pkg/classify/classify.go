// Package classify assigns provider labels to DNS and certificate
// records by matching them against static ordered suffix tables. A flat
// rule list replaces any per-provider type hierarchy: iteration order is
// the dispatch mechanism.
package classify

import "strings"

// Fallback labels for candidates no rule matches.
const (
	LabelSelfHosted = "self-hosted"
	LabelUnknown    = "unknown"
)

// Rule maps a hostname suffix to a provider label.
type Rule struct {
	Suffix string `yaml:"suffix"`
	Label  string `yaml:"label"`
}

// Table is an ordered rule list. Order is significant: the FIRST rule
// whose suffix matches wins, even when a later rule matches a longer
// suffix. The shipped tables are sorted by suffix, and that sort order
// is part of their observable behavior; do not re-rank at match time.
type Table []Rule

// Classify assigns a label to candidate. The candidate is lowercased
// and stripped of a trailing root dot before matching. When no rule
// matches, a candidate inside apex's namespace is labeled self-hosted
// and anything else unknown.
func (t Table) Classify(candidate, apex string) string {
	candidate = Normalize(candidate)
	for _, rule := range t {
		if strings.HasSuffix(candidate, rule.Suffix) {
			return rule.Label
		}
	}
	apex = Normalize(apex)
	if apex != "" && (candidate == apex || strings.HasSuffix(candidate, "."+apex)) {
		return LabelSelfHosted
	}
	return LabelUnknown
}

// Normalize lowercases s and trims the DNS root dot.
func Normalize(s string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
}

// Set is a label set for boolean membership checks.
type Set map[string]struct{}

// NewSet builds a Set from labels.
func NewSet(labels ...string) Set {
	s := make(Set, len(labels))
	for _, l := range labels {
		s[l] = struct{}{}
	}
	return s
}

// Contains reports whether label is in the set.
func (s Set) Contains(label string) bool {
	_, ok := s[label]
	return ok
}

// DNComponent is one attribute of an X.509 distinguished name, in
// certificate order.
type DNComponent struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CommonNames collects every CN value from a distinguished name,
// lowercased. The key comparison is case-insensitive.
func CommonNames(dn []DNComponent) []string {
	var names []string
	for _, c := range dn {
		if strings.EqualFold(c.Key, "CN") {
			names = append(names, strings.ToLower(c.Value))
		}
	}
	return names
}
