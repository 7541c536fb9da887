package target

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// ParsePortSpec parses a comma-separated list of ports and inclusive
// ranges: "25", "443,8443", "8000-8010,9443". Order is preserved and
// duplicates are dropped.
func ParsePortSpec(spec string) ([]int, error) {
	var ports []int
	seen := make(map[int]struct{})

	add := func(p int) {
		if _, dup := seen[p]; !dup {
			seen[p] = struct{}{}
			ports = append(ports, p)
		}
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("port spec %q: empty element", spec)
		}
		lo, hi, found := strings.Cut(part, "-")
		start, err := parsePort(lo)
		if err != nil {
			return nil, fmt.Errorf("port spec %q: %w", spec, err)
		}
		end := start
		if found {
			end, err = parsePort(hi)
			if err != nil {
				return nil, fmt.Errorf("port spec %q: %w", spec, err)
			}
			if end < start {
				return nil, fmt.Errorf("port spec %q: descending range %s", spec, part)
			}
		}
		for p := start; p <= end; p++ {
			add(p)
		}
	}
	return ports, nil
}

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	if p < 1 || p > 65535 {
		return 0, fmt.Errorf("port %d out of range", p)
	}
	return p, nil
}

// SplitHostPort splits a raw target into its host portion and trailing
// port specifier. The split happens only when the trailing segment is a
// valid port spec, so "mail.example.com", "::1", and "10.0.0.0/24" pass
// through untouched while "example.com:443,8443" splits. IPv6 literals
// must be bracketed to carry a port spec.
func SplitHostPort(raw string) (host, spec string) {
	if strings.HasPrefix(raw, "[") {
		end := strings.Index(raw, "]")
		if end < 0 {
			return raw, ""
		}
		host = raw[1:end]
		rest := raw[end+1:]
		if strings.HasPrefix(rest, ":") {
			if _, err := ParsePortSpec(rest[1:]); err == nil {
				return host, rest[1:]
			}
		}
		return host, ""
	}

	idx := strings.LastIndex(raw, ":")
	if idx < 0 {
		return raw, ""
	}
	if strings.Contains(raw[:idx], ":") {
		// Unbracketed IPv6 literal
		return raw, ""
	}
	if _, err := ParsePortSpec(raw[idx+1:]); err == nil {
		return raw[:idx], raw[idx+1:]
	}
	return raw, ""
}

// NormalizeDomain canonicalizes a domain or email target: the local
// part of an email is stripped (everything before the last "@"), the
// rest is lowercased, the DNS root dot trimmed, and IDN labels encoded
// to punycode.
func NormalizeDomain(raw string) (string, error) {
	d := raw
	if at := strings.LastIndex(d, "@"); at >= 0 {
		d = d[at+1:]
	}
	d = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(d)), ".")
	if d == "" {
		return "", fmt.Errorf("target %q: empty domain", raw)
	}
	ascii, err := idna.Lookup.ToASCII(d)
	if err != nil {
		return "", fmt.Errorf("target %q: %w", raw, err)
	}
	return ascii, nil
}
