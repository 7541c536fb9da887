// Command mailhoster identifies the mail hosting provider of domains
// and email addresses by classifying their MX targets, optionally
// checking SPF and DMARC policy presence.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/time/rate"

	"github.com/hostscope/hostscope/pkg/classify"
	"github.com/hostscope/hostscope/pkg/defaults"
	"github.com/hostscope/hostscope/pkg/duration"
	"github.com/hostscope/hostscope/pkg/executor"
	"github.com/hostscope/hostscope/pkg/input"
	"github.com/hostscope/hostscope/pkg/mailprobe"
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
	noHighlight bool
	rules       string
	noMX        bool
	spf         bool
	dmarc       bool
	list        bool
	noFailures  bool
}

func parseFlags() *config {
	cfg := &config{}

	flag.Var(&cfg.files, "f", "File with targets, newline-delimited (repeatable)")
	flag.Var(&cfg.files, "file", "File with targets (alias)")
	flag.IntVar(&cfg.threads, "t", defaults.ConcurrencyMail, "Maximum concurrent probes")
	flag.IntVar(&cfg.threads, "max-threads", defaults.ConcurrencyMail, "Maximum concurrent probes (alias)")
	flag.Var(&cfg.nameservers, "n", "Nameserver to query (repeatable)")
	flag.Var(&cfg.nameservers, "nameserver", "Nameserver to query (alias)")
	flag.BoolVar(&cfg.systemNS, "system-nameservers", false, "Also use the system nameservers")
	flag.BoolVar(&cfg.tcp, "T", false, "Force DNS over TCP")
	flag.BoolVar(&cfg.tcp, "tcp", false, "Force DNS over TCP (alias)")
	flag.StringVar(&cfg.output, "o", "", "Tee output to file")
	flag.StringVar(&cfg.output, "output", "", "Tee output to file (alias)")
	flag.BoolVar(&cfg.quiet, "q", false, "Suppress banner and summary")
	flag.BoolVar(&cfg.quiet, "quiet", false, "Suppress banner and summary (alias)")
	flag.BoolVar(&cfg.verbose, "v", false, "Verbose output (raw policies)")
	flag.BoolVar(&cfg.verbose, "verbose", false, "Verbose output (alias)")
	flag.BoolVar(&cfg.debug, "D", false, "Debug output")
	flag.BoolVar(&cfg.debug, "debug", false, "Debug output (alias)")
	flag.Float64Var(&cfg.rateLimit, "rate-limit", 0, "Probes per second, 0 = unlimited")
	flag.BoolVar(&cfg.jsonOut, "json", false, "JSONL output")
	flag.BoolVar(&cfg.noColor, "no-color", false, "Disable colored output")
	flag.BoolVar(&cfg.noHighlight, "no-highlight", false, "Do not highlight security vendors")
	flag.StringVar(&cfg.rules, "rules", "", "YAML classification table override")
	flag.BoolVar(&cfg.noMX, "no-mx", false, "Skip MX classification")
	flag.BoolVar(&cfg.spf, "s", false, "Check SPF policy presence")
	flag.BoolVar(&cfg.spf, "spf", false, "Check SPF policy presence (alias)")
	flag.BoolVar(&cfg.dmarc, "d", false, "Check DMARC policy presence")
	flag.BoolVar(&cfg.dmarc, "dmarc", false, "Check DMARC policy presence (alias)")
	flag.BoolVar(&cfg.list, "l", false, "List raw MX targets per label")
	flag.BoolVar(&cfg.list, "list", false, "List raw MX targets (alias)")
	flag.BoolVar(&cfg.noFailures, "ignore-failures", false, "Do not render per-target failures")

	flag.Parse()
	return cfg
}

func usageError(msg string) {
	fmt.Fprintln(os.Stderr, "mailhoster:", msg)
	os.Exit(defaults.ExitUserError)
}

func main() {
	cfg := parseFlags()

	facets := mailprobe.Facets{MX: !cfg.noMX, SPF: cfg.spf, DMARC: cfg.dmarc}
	if !facets.Any() {
		usageError("nothing to probe: --no-mx given without -s/--spf or -d/--dmarc")
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

	table := classify.MailHosters()
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
		Highlight:      !cfg.noHighlight,
		ListHosts:      cfg.list,
		JSON:           cfg.jsonOut,
	})
	if err != nil {
		usageError(err.Error())
	}
	defer reporter.Close()

	if !cfg.quiet && !cfg.jsonOut {
		ui.PrintBanner(os.Stderr, "mailhoster")
	}

	reporter.Debugf("nameservers: %s", strings.Join(resolver.Servers(), ", "))
	reporter.Debugf("concurrency: %d, rules: %d", cfg.threads, len(table))

	ctx := context.Background()

	prober := &mailprobe.Prober{Resolver: resolver, Table: table, Facets: facets}
	probe := func(ctx context.Context, unit target.Unit) (*mailprobe.Result, error) {
		ctx, cancel := context.WithTimeout(ctx, duration.ProbeDefault)
		defer cancel()
		return prober.Probe(ctx, unit.Host)
	}

	expander := &target.Expander{Mode: target.ModeDNSOnly}
	units := expander.Expand(ctx, targets)

	opts := executor.Options{Concurrency: cfg.threads}
	if cfg.rateLimit > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.rateLimit), 1)
	}

	for c := range executor.Run(ctx, units, probe, opts) {
		if c.Err != nil {
			display := c.Unit.Host
			if display == "" {
				display = c.Unit.Parent
			}
			reporter.Failure(display, c.Err)
			continue
		}
		reporter.MailResult(c.Unit.Host, c.Result)
	}

	reporter.Summary()
	os.Exit(defaults.ExitSuccess)
}
