package resolve

import "errors"

// Sentinel errors for DNS failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrResolution indicates the lookup itself failed: NXDOMAIN,
	// SERVFAIL, network error, or every nameserver timed out.
	ErrResolution = errors.New("resolve: lookup failed")

	// ErrNoAnswer indicates the name exists but holds no records of
	// the requested type. Probes decide per facet whether this is a
	// failure (MX) or an absence signal (SPF/DMARC).
	ErrNoAnswer = errors.New("resolve: no answer")
)
