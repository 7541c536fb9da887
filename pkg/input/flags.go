package input

import "strings"

// StringSliceFlag accumulates repeated flag values, splitting each on
// commas, so "-n 1.1.1.1 -n 9.9.9.9" and "-n 1.1.1.1,9.9.9.9" produce
// the same list. Implements flag.Value.
type StringSliceFlag []string

func (s *StringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

// Set appends the comma-separated elements of value. Empty elements
// (trailing commas, doubled commas) are dropped.
func (s *StringSliceFlag) Set(value string) error {
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*s = append(*s, v)
		}
	}
	return nil
}
