// Package target turns raw user-supplied targets (domains, email
// addresses, IP literals, and CIDR blocks, each with an optional port
// specifier) into a stream of concrete probe units. Expansion is lazy:
// a /8 block flows through the pipeline without ever being materialized.
package target

import (
	"net"
	"net/netip"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Unit is one concrete thing to probe: a host, an optional port, and
// the raw target it was derived from.
type Unit struct {
	Host   string `json:"host"`
	Port   int    `json:"port,omitempty"` // 0 = no port (DNS-only probing)
	Parent string `json:"parent,omitempty"`
}

// Display returns the identity used in output: "host", "host:port", or
// "[v6host]:port".
func (u Unit) Display() string {
	if u.Port == 0 {
		return u.Host
	}
	return net.JoinHostPort(u.Host, strconv.Itoa(u.Port))
}

// Item is one element of the expansion stream: either a unit to probe
// or the failure that prevented a raw target from expanding. Failures
// travel down the same channel so the reporter sees them in stream
// order instead of the run aborting.
type Item struct {
	Unit Unit
	Err  error // non-nil: expansion of Unit.Parent failed
}

// ParentIndex records which raw targets produced a resolved host.
// Many-to-many: overlapping inputs can resolve to one host, and one
// CIDR block produces many hosts. Writes happen on the expansion
// goroutine before the corresponding unit is emitted, so readers on the
// probe side never observe a missing entry for a host they were handed.
type ParentIndex struct {
	mu sync.RWMutex
	m  map[string]map[string]struct{}
}

// NewParentIndex returns an empty index.
func NewParentIndex() *ParentIndex {
	return &ParentIndex{m: make(map[string]map[string]struct{})}
}

// Add records parent as an origin of host.
func (ix *ParentIndex) Add(host, parent string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	set, ok := ix.m[host]
	if !ok {
		set = make(map[string]struct{})
		ix.m[host] = set
	}
	set[parent] = struct{}{}
}

// Parents returns every recorded origin of host, sorted.
func (ix *ParentIndex) Parents(host string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	parents := make([]string, 0, len(ix.m[host]))
	for p := range ix.m[host] {
		parents = append(parents, p)
	}
	sort.Strings(parents)
	return parents
}

// NameParents returns the origins of host that are plain names: not
// CIDR blocks and not IP literals. These are the candidates for
// protocol-level host identification such as TLS SNI.
func (ix *ParentIndex) NameParents(host string) []string {
	var names []string
	for _, p := range ix.Parents(host) {
		if strings.Contains(p, "/") {
			continue
		}
		bare, _ := SplitHostPort(p)
		if _, err := netip.ParseAddr(bare); err == nil {
			continue
		}
		names = append(names, p)
	}
	return names
}
