// Command certgrab connects to host:port targets (domains, IP
// literals, or CIDR blocks with optional port specifiers), grabs the
// peer TLS certificate, and reports fingerprints, subject and issuer
// details, with provider classification of the subject name.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hostscope/hostscope/pkg/certprobe"
	"github.com/hostscope/hostscope/pkg/classify"
	"github.com/hostscope/hostscope/pkg/defaults"
	"github.com/hostscope/hostscope/pkg/duration"
	"github.com/hostscope/hostscope/pkg/executor"
	"github.com/hostscope/hostscope/pkg/input"
	"github.com/hostscope/hostscope/pkg/report"
	"github.com/hostscope/hostscope/pkg/resolve"
	"github.com/hostscope/hostscope/pkg/target"
	"github.com/hostscope/hostscope/pkg/ui"
)

type config struct {
	files       input.StringSliceFlag
	nameservers input.StringSliceFlag
	systemNS    bool
	tcp         bool
	threads     int
	output      string
	quiet       bool
	verbose     bool
	debug       bool
	rateLimit   float64
	jsonOut     bool
	noColor     bool
	rules       string
	cnames      bool
	noSNI       bool
	sni         string
	realtime    bool
	timeout     time.Duration
	noFailures  bool
}

func parseFlags() *config {
	cfg := &config{}

	flag.Var(&cfg.files, "f", "File with targets, newline-delimited (repeatable)")
	flag.Var(&cfg.files, "file", "File with targets (alias)")
	flag.IntVar(&cfg.threads, "t", defaults.ConcurrencyCert, "Maximum concurrent probes")
	flag.IntVar(&cfg.threads, "max-threads", defaults.ConcurrencyCert, "Maximum concurrent probes (alias)")
	flag.Var(&cfg.nameservers, "n", "Nameserver to query (repeatable)")
	flag.Var(&cfg.nameservers, "nameserver", "Nameserver to query (alias)")
	flag.BoolVar(&cfg.systemNS, "system-nameservers", false, "Also use the system nameservers")
	flag.BoolVar(&cfg.tcp, "T", false, "Force DNS over TCP")
	flag.BoolVar(&cfg.tcp, "tcp", false, "Force DNS over TCP (alias)")
	flag.StringVar(&cfg.output, "o", "", "Tee output to file")
	flag.StringVar(&cfg.output, "output", "", "Tee output to file (alias)")
	flag.BoolVar(&cfg.quiet, "q", false, "Suppress banner and summary")
	flag.BoolVar(&cfg.quiet, "quiet", false, "Suppress banner and summary (alias)")
	flag.BoolVar(&cfg.verbose, "v", false, "Verbose output (validity window, SNI)")
	flag.BoolVar(&cfg.verbose, "verbose", false, "Verbose output (alias)")
	flag.BoolVar(&cfg.debug, "D", false, "Debug output")
	flag.BoolVar(&cfg.debug, "debug", false, "Debug output (alias)")
	flag.Float64Var(&cfg.rateLimit, "rate-limit", 0, "Probes per second, 0 = unlimited")
	flag.BoolVar(&cfg.jsonOut, "json", false, "JSONL output")
	flag.BoolVar(&cfg.noColor, "no-color", false, "Disable colored output")
	flag.StringVar(&cfg.rules, "rules", "", "YAML provider classification table override")
	flag.BoolVar(&cfg.cnames, "c", false, "List certificate common names and SANs")
	flag.BoolVar(&cfg.cnames, "cnames", false, "List common names (alias)")
	flag.BoolVar(&cfg.noSNI, "no-sni", false, "Handshake without SNI")
	flag.StringVar(&cfg.sni, "s", "", "Fixed SNI server name for every probe")
	flag.StringVar(&cfg.sni, "sni", "", "Fixed SNI server name (alias)")
	flag.BoolVar(&cfg.realtime, "realtime", false, "Render results as probes finish instead of sorted at the end")
	flag.DurationVar(&cfg.timeout, "timeout", duration.ProbeDefault, "Per-unit probe timeout")
	flag.BoolVar(&cfg.noFailures, "ignore-failures", false, "Do not render per-target failures")

	flag.Parse()
	return cfg
}

func usageError(msg string) {
	fmt.Fprintln(os.Stderr, "certgrab:", msg)
	os.Exit(defaults.ExitUserError)
}

func main() {
	cfg := parseFlags()

	if cfg.noSNI && cfg.sni != "" {
		usageError("--no-sni and -s/--sni are mutually exclusive")
	}
	if cfg.threads < 1 || cfg.threads > defaults.ConcurrencyMax {
		usageError(fmt.Sprintf("-t must be between 1 and %d", defaults.ConcurrencyMax))
	}

	source := &input.TargetSource{Args: flag.Args(), Files: cfg.files}
	if len(source.Args) == 0 && len(source.Files) == 0 && ui.StdinPiped() {
		source.Stdin = os.Stdin
	}
	targets, err := source.Targets()
	if err != nil {
		usageError(err.Error())
	}
	if len(targets) == 0 {
		usageError("no targets given")
	}

	resolver, err := resolve.New(resolve.Config{
		Nameservers: cfg.nameservers,
		UseSystem:   cfg.systemNS,
		TCP:         cfg.tcp,
	})
	if err != nil {
		usageError(err.Error())
	}

	table := classify.CertProviders()
	if cfg.rules != "" {
		table, err = classify.LoadTable(cfg.rules)
		if err != nil {
			usageError(err.Error())
		}
	}

	color := ui.ColorTerminal() && !cfg.noColor && !cfg.jsonOut
	reporter, err := report.New(report.Options{
		TeePath:        cfg.output,
		Color:          color,
		Quiet:          cfg.quiet,
		Verbose:        cfg.verbose,
		Debug:          cfg.debug,
		IgnoreFailures: cfg.noFailures,
		Highlight:      true,
		JSON:           cfg.jsonOut,
	})
	if err != nil {
		usageError(err.Error())
	}
	defer reporter.Close()

	if !cfg.quiet && !cfg.jsonOut {
		ui.PrintBanner(os.Stderr, "certgrab")
	}

	reporter.Debugf("nameservers: %s", strings.Join(resolver.Servers(), ", "))
	reporter.Debugf("concurrency: %d, timeout: %s", cfg.threads, cfg.timeout)

	ctx := context.Background()
	index := target.NewParentIndex()
	prober := certprobe.NewProber()

	serverName := func(unit target.Unit) string {
		if cfg.noSNI {
			return ""
		}
		if cfg.sni != "" {
			return cfg.sni
		}
		if names := index.NameParents(unit.Host); len(names) > 0 {
			return names[0]
		}
		return ""
	}

	probe := func(ctx context.Context, unit target.Unit) (*certprobe.Result, error) {
		ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
		return prober.Probe(ctx, unit, serverName(unit))
	}

	expander := &target.Expander{
		Mode:         target.ModeHostPort,
		DefaultPorts: []int{defaults.PortHTTPS},
		Resolver:     resolver,
		Index:        index,
	}
	units := expander.Expand(ctx, targets)

	opts := executor.Options{Concurrency: cfg.threads}
	if cfg.rateLimit > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.rateLimit), 1)
	}

	completions := executor.Run(ctx, units, probe, opts)

	render := func(c executor.Completion[*certprobe.Result]) {
		if c.Err != nil {
			display := c.Unit.Display()
			if c.Unit.Host == "" {
				display = c.Unit.Parent
			}
			reporter.Failure(display, c.Err)
			return
		}
		label := subjectLabel(table, c.Result)
		reporter.CertResult(c.Unit, c.Result, index.Parents(c.Unit.Host), label, cfg.cnames)
	}

	if cfg.realtime {
		for c := range completions {
			render(c)
		}
	} else {
		var buffered []executor.Completion[*certprobe.Result]
		for c := range completions {
			buffered = append(buffered, c)
		}
		sort.SliceStable(buffered, func(i, j int) bool {
			return buffered[i].Unit.Display() < buffered[j].Unit.Display()
		})
		for _, c := range buffered {
			render(c)
		}
	}

	reporter.Summary()
	os.Exit(defaults.ExitSuccess)
}

// subjectLabel classifies the first subject CN against the provider
// table. The SNI name serves as the domain under investigation, so a
// certificate issued for the probed domain itself comes back
// self-hosted. No subject CN means no label.
func subjectLabel(table classify.Table, res *certprobe.Result) string {
	cns := res.CommonNames()
	if len(cns) == 0 {
		return ""
	}
	return table.Classify(cns[0], res.ServerName)
}
