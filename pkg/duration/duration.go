// Package duration provides canonical time constants for the entire codebase.
//
// DO NOT use hardcoded time.Duration values like `5 * time.Second` anywhere.
// Reference the appropriate constant from this package instead.
package duration

import "time"

const (
	// DNSQuery bounds a single DNS exchange against one nameserver (5s)
	DNSQuery = 5 * time.Second

	// TLSDial bounds the TCP connect for a certificate grab (10s)
	TLSDial = 10 * time.Second

	// TLSHandshake bounds the TLS handshake once connected (10s)
	TLSHandshake = 10 * time.Second

	// ProbeDefault is the per-unit probe budget when the caller does
	// not configure one (15s)
	ProbeDefault = 15 * time.Second
)
