// Package defaults provides canonical default values for the entire codebase.
//
// DO NOT use hardcoded values like `Concurrency: 10` anywhere.
// Reference the appropriate constant from this package instead.
package defaults

// Version is the current hostscope version
const Version = "1.2.0"

const (
	// ConcurrencyMail is the worker ceiling for DNS-only probing (20)
	ConcurrencyMail = 20

	// ConcurrencyCert is the worker ceiling for host:port probing (50)
	ConcurrencyCert = 50

	// ConcurrencyMax caps user-supplied -t values (512)
	ConcurrencyMax = 512
)

const (
	// PortHTTPS is the default port set for certificate grabbing
	PortHTTPS = 443

	// PortDNS is the port DNS queries are sent to when the nameserver
	// flag carries no explicit port
	PortDNS = 53
)

// ChannelBuffer is the buffer size for the expansion and completion
// streams. Small on purpose: a huge CIDR must not be materialized in
// channel buffers.
const ChannelBuffer = 64
