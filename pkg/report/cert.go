package report

import (
	"fmt"
	"strings"

	"github.com/hostscope/hostscope/pkg/certprobe"
	"github.com/hostscope/hostscope/pkg/classify"
	"github.com/hostscope/hostscope/pkg/target"
	"github.com/hostscope/hostscope/pkg/ui"
)

// CertResult renders one grabbed certificate. parents annotates which
// raw targets produced the host; label is the provider classification
// of the subject CN (empty = no CN to classify); showCNs additionally
// lists subject common names and SANs.
func (r *Reporter) CertResult(unit target.Unit, res *certprobe.Result, parents []string, label string, showCNs bool) {
	r.successes++

	if r.opts.JSON {
		r.enc.Encode(certRecord{
			baseRecord: r.base("cert", unit.Display()),
			Parents:    parents,
			Label:      label,
			Result:     res,
		})
		return
	}

	display := unit.Display()
	if len(parents) > 0 {
		display += " " + r.style(ui.MutedStyle, "("+strings.Join(parents, ", ")+")")
	}
	if label != "" {
		vendor := r.opts.Highlight && r.opts.Security.Contains(label)
		display += " " + r.style(ui.ClassStyle(label, vendor), "["+label+"]")
	}
	fmt.Fprintf(r.out, "%s\n", r.style(ui.TargetStyle, display))

	fmt.Fprintf(r.out, "  subject: %s\n", renderDN(res.Subject))
	fmt.Fprintf(r.out, "  issuer:  %s\n", renderDN(res.Issuer))

	if showCNs {
		names := res.CommonNames()
		for _, san := range res.DNSNames {
			names = append(names, strings.ToLower(san))
		}
		if len(names) > 0 {
			fmt.Fprintf(r.out, "  names:   %s\n", r.style(ui.LabelStyle, strings.Join(dedupe(names), ", ")))
		}
	}

	fmt.Fprintf(r.out, "  md5:     %s\n", r.style(ui.MutedStyle, res.MD5))
	fmt.Fprintf(r.out, "  sha1:    %s\n", r.style(ui.MutedStyle, res.SHA1))
	fmt.Fprintf(r.out, "  sha256:  %s\n", r.style(ui.MutedStyle, res.SHA256))

	if r.opts.Verbose {
		fmt.Fprintf(r.out, "  valid:   %s to %s\n",
			res.NotBefore.Format("2006-01-02"), res.NotAfter.Format("2006-01-02"))
		if res.ServerName != "" {
			fmt.Fprintf(r.out, "  sni:     %s\n", res.ServerName)
		}
	}
}

// renderDN joins DN components as key=value pairs in certificate order.
func renderDN(dn []classify.DNComponent) string {
	parts := make([]string, 0, len(dn))
	for _, c := range dn {
		parts = append(parts, c.Key+"="+c.Value)
	}
	return strings.Join(parts, ", ")
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, dup := seen[v]; !dup {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

type certRecord struct {
	baseRecord
	Parents []string          `json:"parents,omitempty"`
	Label   string            `json:"label,omitempty"`
	Result  *certprobe.Result `json:"cert"`
}
