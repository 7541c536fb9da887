package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadTable reads a rule table from a YAML file:
//
//	- suffix: .example-filter.com
//	  label: examplevendor
//	- suffix: .example-mail.net
//	  label: examplehoster
//
// File order is preserved and becomes match precedence.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rule table %s: %w", path, err)
	}

	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("rule table %s: %w", path, err)
	}

	for i, rule := range t {
		if rule.Suffix == "" || rule.Label == "" {
			return nil, fmt.Errorf("rule table %s: entry %d missing suffix or label", path, i)
		}
		t[i].Suffix = Normalize(rule.Suffix)
	}
	return t, nil
}
