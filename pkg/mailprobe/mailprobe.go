// Package mailprobe identifies who handles a domain's mail. It queries
// the requested facets (MX targets, SPF, DMARC) and classifies each
// MX target against the mail-hoster table.
package mailprobe

import (
	"context"
	"errors"
	"strings"

	"github.com/hostscope/hostscope/pkg/classify"
	"github.com/hostscope/hostscope/pkg/resolve"
)

// Resolver is the DNS surface the prober needs. Implemented by
// resolve.Resolver.
type Resolver interface {
	MX(ctx context.Context, domain string) ([]string, error)
	TXT(ctx context.Context, domain string) ([]string, error)
}

// Facets selects what to probe. Zero value probes nothing; callers
// validate at least one facet is on.
type Facets struct {
	MX    bool
	SPF   bool
	DMARC bool
}

// Any reports whether at least one facet is enabled.
func (f Facets) Any() bool {
	return f.MX || f.SPF || f.DMARC
}

// Result holds the mail facets of one domain.
type Result struct {
	// Hosters groups the raw MX target hostnames by their
	// classification label. Empty (not nil) when the domain
	// publishes no MX records.
	Hosters map[string][]string `json:"hosters,omitempty"`

	// SPF is the raw SPF policy, nil when the domain publishes none.
	SPF *string `json:"spf,omitempty"`

	// DMARC is the raw DMARC policy, nil when the domain publishes
	// none.
	DMARC *string `json:"dmarc,omitempty"`
}

// Prober probes mail facets for domains.
type Prober struct {
	Resolver Resolver
	Table    classify.Table
	Facets   Facets
}

// Probe collects the configured facets for domain. A domain without MX
// records is a valid result (empty Hosters); a failed lookup is an
// error. Absent SPF/DMARC policies are nil values, never errors.
func (p *Prober) Probe(ctx context.Context, domain string) (*Result, error) {
	result := &Result{}

	if p.Facets.MX {
		hosts, err := p.Resolver.MX(ctx, domain)
		if err != nil && !errors.Is(err, resolve.ErrNoAnswer) {
			return nil, err
		}
		result.Hosters = make(map[string][]string, len(hosts))
		for _, host := range hosts {
			label := p.Table.Classify(host, domain)
			result.Hosters[label] = append(result.Hosters[label], classify.Normalize(host))
		}
	}

	if p.Facets.SPF {
		txt, err := lookupPolicy(ctx, p.Resolver, domain, "v=spf1")
		if err != nil {
			return nil, err
		}
		result.SPF = txt
	}

	if p.Facets.DMARC {
		txt, err := lookupPolicy(ctx, p.Resolver, "_dmarc."+domain, "v=dmarc1")
		if err != nil {
			return nil, err
		}
		result.DMARC = txt
	}

	return result, nil
}

// lookupPolicy returns the first TXT record at name whose leading tag
// matches prefix (case-insensitive), or nil when no such record exists.
// ErrNoAnswer and NXDOMAIN both mean "no policy published": _dmarc
// subdomains usually do not exist at all on domains without DMARC.
func lookupPolicy(ctx context.Context, r Resolver, name, prefix string) (*string, error) {
	records, err := r.TXT(ctx, name)
	if err != nil {
		if errors.Is(err, resolve.ErrNoAnswer) || errors.Is(err, resolve.ErrResolution) {
			return nil, nil
		}
		return nil, err
	}
	for _, txt := range records {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(txt)), prefix) {
			record := txt
			return &record, nil
		}
	}
	return nil, nil
}
