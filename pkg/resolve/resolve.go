// Package resolve is the DNS collaborator for both probes. Every query
// goes through an explicitly constructed Resolver carrying its own
// nameserver list, transport, and timeout, never through a mutated
// process-global resolver.
package resolve

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/hostscope/hostscope/pkg/defaults"
	"github.com/hostscope/hostscope/pkg/duration"
)

// resolvConf is consulted when Config.UseSystem is set.
const resolvConf = "/etc/resolv.conf"

// Config selects nameservers and transport for a Resolver.
type Config struct {
	Nameservers []string      // "ip" or "ip:port"; tried in order
	UseSystem   bool          // Append the system nameservers
	TCP         bool          // Force TCP instead of UDP with TCP fallback
	Timeout     time.Duration // Per-exchange timeout
}

// Resolver answers A/AAAA, MX, and TXT queries against a fixed
// nameserver list. Safe for concurrent use.
type Resolver struct {
	servers  []string
	udp      *dns.Client
	tcp      *dns.Client
	forceTCP bool
}

// New builds a Resolver from cfg. With neither explicit nameservers nor
// UseSystem, the system configuration is used.
func New(cfg Config) (*Resolver, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = duration.DNSQuery
	}

	var servers []string
	for _, ns := range cfg.Nameservers {
		servers = append(servers, withDefaultPort(ns))
	}

	if cfg.UseSystem || len(servers) == 0 {
		cc, err := dns.ClientConfigFromFile(resolvConf)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrResolution, resolvConf, err)
		}
		for _, ns := range cc.Servers {
			servers = append(servers, net.JoinHostPort(ns, cc.Port))
		}
	}

	if len(servers) == 0 {
		return nil, fmt.Errorf("%w: no nameservers configured", ErrResolution)
	}

	return &Resolver{
		servers:  servers,
		udp:      &dns.Client{Net: "udp", Timeout: timeout},
		tcp:      &dns.Client{Net: "tcp", Timeout: timeout},
		forceTCP: cfg.TCP,
	}, nil
}

// Servers returns the nameserver list the resolver queries, in order.
func (r *Resolver) Servers() []string {
	return append([]string(nil), r.servers...)
}

// Addresses resolves domain to its A and AAAA records.
func (r *Resolver) Addresses(ctx context.Context, domain string) ([]netip.Addr, error) {
	var addrs []netip.Addr

	aAnswers, aErr := r.query(ctx, domain, dns.TypeA)
	for _, rr := range aAnswers {
		if a, ok := rr.(*dns.A); ok {
			if ip, ok := netip.AddrFromSlice(a.A.To4()); ok {
				addrs = append(addrs, ip)
			}
		}
	}

	aaaaAnswers, aaaaErr := r.query(ctx, domain, dns.TypeAAAA)
	for _, rr := range aaaaAnswers {
		if aaaa, ok := rr.(*dns.AAAA); ok {
			if ip, ok := netip.AddrFromSlice(aaaa.AAAA); ok {
				addrs = append(addrs, ip)
			}
		}
	}

	if len(addrs) == 0 {
		if aErr != nil {
			return nil, aErr
		}
		if aaaaErr != nil {
			return nil, aaaaErr
		}
		return nil, fmt.Errorf("%w: %s has no addresses", ErrNoAnswer, domain)
	}
	return addrs, nil
}

// MX resolves the mail-exchanger target hostnames for domain, ordered
// by preference.
func (r *Resolver) MX(ctx context.Context, domain string) ([]string, error) {
	answers, err := r.query(ctx, domain, dns.TypeMX)
	if err != nil {
		return nil, err
	}

	records := make([]*dns.MX, 0, len(answers))
	for _, rr := range answers {
		if mx, ok := rr.(*dns.MX); ok {
			records = append(records, mx)
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s has no MX records", ErrNoAnswer, domain)
	}

	for i := 1; i < len(records); i++ {
		for j := i; j > 0 && records[j].Preference < records[j-1].Preference; j-- {
			records[j], records[j-1] = records[j-1], records[j]
		}
	}

	hosts := make([]string, 0, len(records))
	for _, mx := range records {
		hosts = append(hosts, strings.TrimSuffix(mx.Mx, "."))
	}
	return hosts, nil
}

// TXT resolves the TXT strings for domain. Multi-string records are
// concatenated per RFC 7208 §3.3.
func (r *Resolver) TXT(ctx context.Context, domain string) ([]string, error) {
	answers, err := r.query(ctx, domain, dns.TypeTXT)
	if err != nil {
		return nil, err
	}

	var texts []string
	for _, rr := range answers {
		if txt, ok := rr.(*dns.TXT); ok {
			texts = append(texts, strings.Join(txt.Txt, ""))
		}
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: %s has no TXT records", ErrNoAnswer, domain)
	}
	return texts, nil
}

// query runs one lookup against the nameserver list, trying each server
// in order until one produces a usable response. UDP responses with the
// truncated bit set are retried over TCP against the same server.
func (r *Resolver) query(ctx context.Context, domain string, qtype uint16) ([]dns.RR, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		client := r.udp
		if r.forceTCP {
			client = r.tcp
		}

		in, _, err := client.ExchangeContext(ctx, msg, server)
		if err == nil && in.Truncated && !r.forceTCP {
			in, _, err = r.tcp.ExchangeContext(ctx, msg, server)
		}
		if err != nil {
			lastErr = fmt.Errorf("%w: %s @%s: %v", ErrResolution, domain, server, err)
			continue
		}

		switch in.Rcode {
		case dns.RcodeSuccess:
			if len(in.Answer) == 0 {
				return nil, fmt.Errorf("%w: %s (%s)", ErrNoAnswer, domain, dns.TypeToString[qtype])
			}
			return in.Answer, nil
		case dns.RcodeNameError:
			return nil, fmt.Errorf("%w: %s: NXDOMAIN", ErrResolution, domain)
		default:
			lastErr = fmt.Errorf("%w: %s @%s: %s", ErrResolution, domain, server, dns.RcodeToString[in.Rcode])
		}
	}
	return nil, lastErr
}

// withDefaultPort appends :53 to a bare nameserver address. Bracketed
// and bare IPv6 literals are handled.
func withDefaultPort(ns string) string {
	if _, _, err := net.SplitHostPort(ns); err == nil {
		return ns
	}
	if ip, err := netip.ParseAddr(ns); err == nil {
		return net.JoinHostPort(ip.String(), strconv.Itoa(defaults.PortDNS))
	}
	return net.JoinHostPort(strings.Trim(ns, "[]"), strconv.Itoa(defaults.PortDNS))
}
