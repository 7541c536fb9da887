package target

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/hostscope/hostscope/pkg/defaults"
)

// Mode selects how raw targets expand.
type Mode int

const (
	// ModeDNSOnly keeps targets as domains: email local parts are
	// stripped, nothing is resolved, no ports are attached.
	ModeDNSOnly Mode = iota

	// ModeHostPort expands targets to (address, port) pairs: CIDR
	// blocks are enumerated, domains resolved to A/AAAA records.
	ModeHostPort
)

// AddressResolver resolves a domain to its addresses. Implemented by
// resolve.Resolver; a stub suffices in tests.
type AddressResolver interface {
	Addresses(ctx context.Context, domain string) ([]netip.Addr, error)
}

// Expander expands raw targets into a probe unit stream.
type Expander struct {
	Mode         Mode
	DefaultPorts []int           // Used when a raw target carries no port spec
	Resolver     AddressResolver // Required for ModeHostPort domain targets
	Index        *ParentIndex    // Required for ModeHostPort
}

// Expand streams the expansion of raws. The channel is closed when all
// raw targets have been processed or ctx is cancelled. Failures flow
// down the channel as Items with Err set; one bad target never aborts
// the rest. Duplicate raw targets are expanded again, not deduplicated.
func (e *Expander) Expand(ctx context.Context, raws []string) <-chan Item {
	out := make(chan Item, defaults.ChannelBuffer)
	go func() {
		defer close(out)
		for _, raw := range raws {
			if !e.expand(ctx, raw, out) {
				return
			}
		}
	}()
	return out
}

// expand handles one raw target. Returns false when ctx was cancelled.
func (e *Expander) expand(ctx context.Context, raw string, out chan<- Item) bool {
	if e.Mode == ModeDNSOnly {
		domain, err := NormalizeDomain(raw)
		if err != nil {
			return emit(ctx, out, Item{Unit: Unit{Parent: raw}, Err: err})
		}
		return emit(ctx, out, Item{Unit: Unit{Host: domain, Parent: raw}})
	}

	host, spec := SplitHostPort(raw)
	ports := e.DefaultPorts
	if spec != "" {
		parsed, err := ParsePortSpec(spec)
		if err != nil {
			return emit(ctx, out, Item{Unit: Unit{Parent: raw}, Err: err})
		}
		ports = parsed
	}

	if prefix, err := netip.ParsePrefix(host); err == nil {
		return e.expandPrefix(ctx, raw, prefix, ports, out)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		canonical := addr.Unmap().String()
		if canonical != raw {
			e.Index.Add(canonical, raw)
		}
		return e.emitPorts(ctx, out, canonical, raw, ports)
	}

	domain, err := NormalizeDomain(host)
	if err != nil {
		return emit(ctx, out, Item{Unit: Unit{Parent: raw}, Err: err})
	}
	addrs, err := e.Resolver.Addresses(ctx, domain)
	if err != nil {
		return emit(ctx, out, Item{Unit: Unit{Parent: raw}, Err: fmt.Errorf("expanding %s: %w", raw, err)})
	}
	for _, addr := range addrs {
		ip := addr.Unmap().String()
		// Index entry must exist before the unit is handed to a worker
		e.Index.Add(ip, domain)
		if !e.emitPorts(ctx, out, ip, domain, ports) {
			return false
		}
	}
	return true
}

// expandPrefix enumerates every address in the block, lazily.
func (e *Expander) expandPrefix(ctx context.Context, raw string, prefix netip.Prefix, ports []int, out chan<- Item) bool {
	prefix = prefix.Masked()
	for addr := prefix.Addr(); prefix.Contains(addr); addr = addr.Next() {
		if ctx.Err() != nil {
			return false
		}
		ip := addr.Unmap().String()
		e.Index.Add(ip, raw)
		if !e.emitPorts(ctx, out, ip, raw, ports) {
			return false
		}
	}
	return true
}

func (e *Expander) emitPorts(ctx context.Context, out chan<- Item, host, parent string, ports []int) bool {
	if len(ports) == 0 {
		return emit(ctx, out, Item{Unit: Unit{Host: host, Parent: parent}})
	}
	for _, port := range ports {
		if !emit(ctx, out, Item{Unit: Unit{Host: host, Port: port, Parent: parent}}) {
			return false
		}
	}
	return true
}

func emit(ctx context.Context, out chan<- Item, item Item) bool {
	select {
	case out <- item:
		return true
	case <-ctx.Done():
		return false
	}
}
