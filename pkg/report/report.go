// Package report folds the completion stream into rendered output and
// running totals. One reporter instance serves a whole run; methods are
// called from the single consumer loop draining the executor.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hostscope/hostscope/pkg/classify"
	"github.com/hostscope/hostscope/pkg/jsonutil"
	"github.com/hostscope/hostscope/pkg/mailprobe"
	"github.com/hostscope/hostscope/pkg/ui"
)

// Options configures a Reporter.
type Options struct {
	Out            io.Writer // Default os.Stdout
	TeePath        string    // Copy of all rendered output, "" = none
	Color          bool
	Quiet          bool
	Verbose        bool
	Debug          bool
	IgnoreFailures bool // Count failures but render nothing for them
	Highlight      bool // Mark security-vendor labels
	ListHosts      bool // List raw MX hostnames next to each label
	JSON           bool // JSONL records instead of styled text
	Security       classify.Set
}

// Reporter renders per-unit outcomes and keeps the run totals.
type Reporter struct {
	opts      Options
	out       io.Writer
	tee       *os.File
	enc       *jsonutil.Encoder
	runID     string
	successes int
	failures  int
}

// New builds a Reporter, opening the tee file when configured.
func New(opts Options) (*Reporter, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Security == nil {
		opts.Security = classify.SecurityVendors()
	}

	r := &Reporter{opts: opts, out: opts.Out, runID: uuid.NewString()}
	if opts.TeePath != "" {
		f, err := os.Create(opts.TeePath)
		if err != nil {
			return nil, fmt.Errorf("output file: %w", err)
		}
		r.tee = f
		r.out = io.MultiWriter(opts.Out, f)
	}
	if opts.JSON {
		r.enc = jsonutil.NewEncoder(r.out)
	}
	return r, nil
}

// RunID returns the UUID tagging this run's records.
func (r *Reporter) RunID() string { return r.runID }

// Close flushes and closes the tee file, if any.
func (r *Reporter) Close() error {
	if r.tee != nil {
		return r.tee.Close()
	}
	return nil
}

// Successes returns the number of successfully probed units so far.
func (r *Reporter) Successes() int { return r.successes }

// Failures returns the number of failed units so far.
func (r *Reporter) Failures() int { return r.failures }

// Failure records a failed unit. Rendering honors IgnoreFailures; the
// count is kept either way.
func (r *Reporter) Failure(display string, err error) {
	r.failures++
	if r.opts.IgnoreFailures {
		return
	}
	if r.opts.JSON {
		r.enc.Encode(failureRecord{
			baseRecord: r.base("failure", display),
			Error:      err.Error(),
		})
		return
	}
	fmt.Fprintf(r.out, "%s %s\n",
		r.style(ui.ErrorStyle, display+":"),
		r.style(ui.MutedStyle, err.Error()))
}

// MailResult renders one domain's mail facets as a single line: the
// hoster labels (with their MX targets in ListHosts mode) followed by
// SPF/DMARC presence markers.
func (r *Reporter) MailResult(domain string, res *mailprobe.Result) {
	r.successes++

	if r.opts.JSON {
		r.enc.Encode(mailRecord{
			baseRecord: r.base("mail", domain),
			Hosters:    res.Hosters,
			SPF:        res.SPF,
			DMARC:      res.DMARC,
		})
		return
	}

	var parts []string
	labels := make([]string, 0, len(res.Hosters))
	for label := range res.Hosters {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		vendor := r.opts.Highlight && r.opts.Security.Contains(label)
		rendered := r.style(ui.ClassStyle(label, vendor), label)
		if r.opts.ListHosts {
			rendered += " " + r.style(ui.MutedStyle, "("+strings.Join(res.Hosters[label], ", ")+")")
		}
		parts = append(parts, rendered)
	}
	if res.Hosters != nil && len(labels) == 0 {
		parts = append(parts, r.style(ui.MutedStyle, "no MX records"))
	}

	if res.SPF != nil || res.DMARC != nil || r.opts.Verbose {
		parts = append(parts, r.policyMarker("spf", res.SPF), r.policyMarker("dmarc", res.DMARC))
	}

	fmt.Fprintf(r.out, "%s %s\n", r.style(ui.TargetStyle, domain+":"), strings.Join(parts, " "))

	if r.opts.Verbose {
		if res.SPF != nil {
			fmt.Fprintf(r.out, "  %s\n", r.style(ui.MutedStyle, *res.SPF))
		}
		if res.DMARC != nil {
			fmt.Fprintf(r.out, "  %s\n", r.style(ui.MutedStyle, *res.DMARC))
		}
	}
}

// Debugf renders a run diagnostic (resolver configuration, timeouts).
// No-op unless debug mode is on; in JSON mode the diagnostic becomes a
// record like any other so the stream stays parseable.
func (r *Reporter) Debugf(format string, args ...any) {
	if !r.opts.Debug {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if r.opts.JSON {
		r.enc.Encode(debugRecord{
			baseRecord: r.base("debug", ""),
			Message:    msg,
		})
		return
	}
	fmt.Fprintf(r.out, "%s\n", r.style(ui.MutedStyle, "debug: "+msg))
}

// policyMarker renders "spf:yes" / "spf:no" presence markers.
func (r *Reporter) policyMarker(name string, policy *string) string {
	if policy != nil {
		return r.style(ui.SummaryStyle, name+":yes")
	}
	return r.style(ui.ErrorStyle, name+":no")
}

// Summary prints the final totals. A run where nothing succeeded gets a
// distinct diagnostic on stderr; the exit code is unchanged by design.
func (r *Reporter) Summary() {
	if r.opts.JSON {
		r.enc.Encode(summaryRecord{
			baseRecord: r.base("summary", ""),
			Successes:  r.successes,
			Failures:   r.failures,
		})
	} else if !r.opts.Quiet {
		fmt.Fprintf(r.out, "\n%s\n", r.style(ui.SummaryStyle,
			fmt.Sprintf("%d identified, %d failed", r.successes, r.failures)))
	}
	if r.successes == 0 {
		fmt.Fprintln(os.Stderr, "no targets could be probed successfully")
	}
}

func (r *Reporter) style(s interface{ Render(...string) string }, text string) string {
	if !r.opts.Color {
		return text
	}
	return s.Render(text)
}

type baseRecord struct {
	RunID  string    `json:"run_id"`
	Time   time.Time `json:"time"`
	Kind   string    `json:"kind"`
	Target string    `json:"target,omitempty"`
}

func (r *Reporter) base(kind, targetID string) baseRecord {
	return baseRecord{RunID: r.runID, Time: time.Now().UTC(), Kind: kind, Target: targetID}
}

type failureRecord struct {
	baseRecord
	Error string `json:"error"`
}

type debugRecord struct {
	baseRecord
	Message string `json:"message"`
}

type mailRecord struct {
	baseRecord
	Hosters map[string][]string `json:"hosters,omitempty"`
	SPF     *string             `json:"spf,omitempty"`
	DMARC   *string             `json:"dmarc,omitempty"`
}

type summaryRecord struct {
	baseRecord
	Successes int `json:"successes"`
	Failures  int `json:"failures"`
}
