// Package certprobe grabs the peer certificate from a host:port and
// reduces it to fingerprints and distinguished-name components. The
// handshake deliberately skips chain verification: the point is to see
// what the server presents, broken chains included.
package certprobe

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"fmt"
	"net"
	"time"

	"github.com/hostscope/hostscope/pkg/classify"
	"github.com/hostscope/hostscope/pkg/duration"
	"github.com/hostscope/hostscope/pkg/target"
)

// Result holds what certgrab reports about one endpoint.
type Result struct {
	MD5        string                 `json:"md5"`
	SHA1       string                 `json:"sha1"`
	SHA256     string                 `json:"sha256"`
	Subject    []classify.DNComponent `json:"subject"`
	Issuer     []classify.DNComponent `json:"issuer"`
	DNSNames   []string               `json:"dns_names,omitempty"`
	NotBefore  time.Time              `json:"not_before"`
	NotAfter   time.Time              `json:"not_after"`
	ServerName string                 `json:"server_name,omitempty"` // SNI sent, empty when disabled
}

// CommonNames returns the lowercased subject CNs.
func (r *Result) CommonNames() []string {
	return classify.CommonNames(r.Subject)
}

// Prober performs TLS handshakes and extracts peer certificates.
type Prober struct {
	DialTimeout time.Duration
	Timeout     time.Duration // Handshake deadline once connected
}

// NewProber returns a Prober with the canonical timeouts.
func NewProber() *Prober {
	return &Prober{
		DialTimeout: duration.TLSDial,
		Timeout:     duration.TLSHandshake,
	}
}

// Probe connects to unit and returns its peer certificate digest.
// serverName is the SNI value; empty disables SNI.
func (p *Prober) Probe(ctx context.Context, unit target.Unit, serverName string) (*Result, error) {
	dialer := &net.Dialer{Timeout: p.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", unit.Display())
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", unit.Display(), err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(p.Timeout))
	}

	tlsConn := tls.Client(conn, &tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: true, // Reporting tool, not a validator
		MinVersion:         tls.VersionTLS10,
	})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake %s: %w", unit.Display(), err)
	}
	defer tlsConn.Close()

	state := tlsConn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, fmt.Errorf("handshake %s: no peer certificate", unit.Display())
	}
	return fromCertificate(state.PeerCertificates[0], serverName), nil
}

func fromCertificate(cert *x509.Certificate, serverName string) *Result {
	md5sum := md5.Sum(cert.Raw)
	sha1sum := sha1.Sum(cert.Raw)
	sha256sum := sha256.Sum256(cert.Raw)

	return &Result{
		MD5:        hex.EncodeToString(md5sum[:]),
		SHA1:       hex.EncodeToString(sha1sum[:]),
		SHA256:     hex.EncodeToString(sha256sum[:]),
		Subject:    dnComponents(cert.Subject),
		Issuer:     dnComponents(cert.Issuer),
		DNSNames:   append([]string(nil), cert.DNSNames...),
		NotBefore:  cert.NotBefore,
		NotAfter:   cert.NotAfter,
		ServerName: serverName,
	}
}

// Attribute type OIDs that occur in subject/issuer RDNs, mapped to
// their conventional short names.
var attributeNames = map[string]string{
	"2.5.4.3":                    "CN",
	"2.5.4.5":                    "SERIALNUMBER",
	"2.5.4.6":                    "C",
	"2.5.4.7":                    "L",
	"2.5.4.8":                    "ST",
	"2.5.4.9":                    "STREET",
	"2.5.4.10":                   "O",
	"2.5.4.11":                   "OU",
	"2.5.4.17":                   "POSTALCODE",
	"1.2.840.113549.1.9.1":       "emailAddress",
	"0.9.2342.19200300.100.1.25": "DC",
}

// dnComponents flattens a distinguished name into ordered key/value
// pairs, preserving the order the certificate encodes.
func dnComponents(name pkix.Name) []classify.DNComponent {
	var components []classify.DNComponent
	for _, atv := range name.Names {
		components = append(components, classify.DNComponent{
			Key:   attributeName(atv.Type),
			Value: fmt.Sprint(atv.Value),
		})
	}
	return components
}

func attributeName(oid asn1.ObjectIdentifier) string {
	if short, ok := attributeNames[oid.String()]; ok {
		return short
	}
	return oid.String()
}
