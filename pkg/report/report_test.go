package report

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostscope/hostscope/pkg/certprobe"
	"github.com/hostscope/hostscope/pkg/classify"
	"github.com/hostscope/hostscope/pkg/jsonutil"
	"github.com/hostscope/hostscope/pkg/mailprobe"
	"github.com/hostscope/hostscope/pkg/target"
)

func newBufferReporter(t *testing.T, opts Options) (*Reporter, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	opts.Out = buf
	r, err := New(opts)
	require.NoError(t, err)
	return r, buf
}

func strptr(s string) *string { return &s }

func TestMailResult_Rendering(t *testing.T) {
	r, buf := newBufferReporter(t, Options{ListHosts: true})

	r.MailResult("example.com", &mailprobe.Result{
		Hosters: map[string][]string{
			"google":      {"aspmx.l.google.com"},
			"proofpoint":  {"mxa-1.pphosted.com", "mxb-1.pphosted.com"},
			"self-hosted": {"mx1.example.com"},
		},
		SPF: strptr("v=spf1 -all"),
	})

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "example.com:"), "line starts with the domain: %q", line)
	assert.Contains(t, line, "google (aspmx.l.google.com)")
	assert.Contains(t, line, "proofpoint (mxa-1.pphosted.com, mxb-1.pphosted.com)")
	assert.Contains(t, line, "spf:yes")
	assert.Contains(t, line, "dmarc:no")
	assert.Less(t, strings.Index(line, "google"), strings.Index(line, "proofpoint"),
		"labels render in sorted order")
	assert.Equal(t, 1, r.Successes())
}

func TestMailResult_NoMX(t *testing.T) {
	r, buf := newBufferReporter(t, Options{})

	r.MailResult("nomail.example", &mailprobe.Result{Hosters: map[string][]string{}})
	assert.Contains(t, buf.String(), "no MX records")
	assert.Equal(t, 1, r.Successes(), "a domain without MX still counts as probed")
}

func TestMailResult_VerbosePolicies(t *testing.T) {
	r, buf := newBufferReporter(t, Options{Verbose: true})

	r.MailResult("example.com", &mailprobe.Result{
		SPF:   strptr("v=spf1 include:_spf.example.net ~all"),
		DMARC: strptr("v=DMARC1; p=none"),
	})

	out := buf.String()
	assert.Contains(t, out, "v=spf1 include:_spf.example.net ~all")
	assert.Contains(t, out, "v=DMARC1; p=none")
}

func TestFailure_CountsAndRenders(t *testing.T) {
	r, buf := newBufferReporter(t, Options{})
	r.Failure("bad.example", errors.New("no such host"))

	assert.Equal(t, 1, r.Failures())
	assert.Contains(t, buf.String(), "bad.example:")
	assert.Contains(t, buf.String(), "no such host")
}

func TestFailure_IgnoreSuppressesRendering(t *testing.T) {
	r, buf := newBufferReporter(t, Options{IgnoreFailures: true})
	r.Failure("bad.example", errors.New("no such host"))

	assert.Equal(t, 1, r.Failures(), "the count is kept even when rendering is off")
	assert.Empty(t, buf.String())
}

func TestSummary(t *testing.T) {
	r, buf := newBufferReporter(t, Options{})
	r.MailResult("a.example", &mailprobe.Result{})
	r.Failure("b.example", errors.New("timeout"))
	r.Summary()

	assert.Contains(t, buf.String(), "1 identified, 1 failed")
}

func TestSummary_Quiet(t *testing.T) {
	r, buf := newBufferReporter(t, Options{Quiet: true})
	r.MailResult("a.example", &mailprobe.Result{})
	r.Summary()

	assert.NotContains(t, buf.String(), "identified")
}

func TestCertResult_Rendering(t *testing.T) {
	r, buf := newBufferReporter(t, Options{Verbose: true})

	res := &certprobe.Result{
		MD5:    "0011",
		SHA1:   "2233",
		SHA256: "4455",
		Subject: []classify.DNComponent{
			{Key: "C", Value: "US"},
			{Key: "CN", Value: "sni.cloudflaressl.com"},
		},
		Issuer: []classify.DNComponent{
			{Key: "O", Value: "Cloudflare, Inc."},
			{Key: "CN", Value: "Cloudflare Inc ECC CA-3"},
		},
		DNSNames:   []string{"example.com", "*.example.com"},
		NotBefore:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		ServerName: "example.com",
	}
	unit := target.Unit{Host: "192.0.2.1", Port: 443}
	r.CertResult(unit, res, []string{"example.com"}, "cloudflare", true)

	out := buf.String()
	assert.Contains(t, out, "192.0.2.1:443 (example.com) [cloudflare]")
	assert.Contains(t, out, "subject: C=US, CN=sni.cloudflaressl.com")
	assert.Contains(t, out, "issuer:  O=Cloudflare, Inc., CN=Cloudflare Inc ECC CA-3")
	assert.Contains(t, out, "names:   sni.cloudflaressl.com, example.com, *.example.com")
	assert.Contains(t, out, "md5:     0011")
	assert.Contains(t, out, "sha256:  4455")
	assert.Contains(t, out, "valid:   2026-01-01 to 2026-04-01")
	assert.Contains(t, out, "sni:     example.com")
	assert.Equal(t, 1, r.Successes())
}

func TestCertResult_MinimalLine(t *testing.T) {
	r, buf := newBufferReporter(t, Options{})

	res := &certprobe.Result{
		Subject: []classify.DNComponent{{Key: "CN", Value: "host.example"}},
		Issuer:  []classify.DNComponent{{Key: "CN", Value: "R3"}},
	}
	r.CertResult(target.Unit{Host: "host.example", Port: 8443}, res, nil, "", false)

	out := buf.String()
	assert.Contains(t, out, "host.example:8443\n")
	assert.NotContains(t, out, "names:", "CN listing is off by default")
	assert.NotContains(t, out, "valid:", "validity window is verbose-only")
	assert.NotContains(t, out, "[", "no provider label when there is nothing to classify")
}

// JSON mode emits one self-describing record per event, all tagged with
// the run's UUID, each line independently parseable.
func TestJSONRecords(t *testing.T) {
	r, buf := newBufferReporter(t, Options{JSON: true})

	r.MailResult("example.com", &mailprobe.Result{
		Hosters: map[string][]string{"google": {"aspmx.l.google.com"}},
		SPF:     strptr("v=spf1 -all"),
	})
	r.Failure("bad.example", errors.New("refused"))
	r.Summary()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var mail struct {
		RunID   string              `json:"run_id"`
		Kind    string              `json:"kind"`
		Target  string              `json:"target"`
		Hosters map[string][]string `json:"hosters"`
		SPF     *string             `json:"spf"`
	}
	require.NoError(t, jsonutil.Unmarshal([]byte(lines[0]), &mail))
	assert.Equal(t, r.RunID(), mail.RunID)
	assert.Equal(t, "mail", mail.Kind)
	assert.Equal(t, "example.com", mail.Target)
	assert.Equal(t, []string{"aspmx.l.google.com"}, mail.Hosters["google"])
	require.NotNil(t, mail.SPF)

	var failure struct {
		RunID string `json:"run_id"`
		Kind  string `json:"kind"`
		Error string `json:"error"`
	}
	require.NoError(t, jsonutil.Unmarshal([]byte(lines[1]), &failure))
	assert.Equal(t, "failure", failure.Kind)
	assert.Equal(t, "refused", failure.Error)
	assert.Equal(t, mail.RunID, failure.RunID, "all records of a run share its id")

	var summary struct {
		Kind      string `json:"kind"`
		Successes int    `json:"successes"`
		Failures  int    `json:"failures"`
	}
	require.NoError(t, jsonutil.Unmarshal([]byte(lines[2]), &summary))
	assert.Equal(t, "summary", summary.Kind)
	assert.Equal(t, 1, summary.Successes)
	assert.Equal(t, 1, summary.Failures)
}

func TestDebugf(t *testing.T) {
	r, buf := newBufferReporter(t, Options{})
	r.Debugf("nameservers: %s", "9.9.9.9:53")
	assert.Empty(t, buf.String(), "silent unless debug mode is on")

	r, buf = newBufferReporter(t, Options{Debug: true})
	r.Debugf("nameservers: %s", "9.9.9.9:53")
	assert.Equal(t, "debug: nameservers: 9.9.9.9:53\n", buf.String())
}

func TestDebugf_JSONRecord(t *testing.T) {
	r, buf := newBufferReporter(t, Options{Debug: true, JSON: true})
	r.Debugf("concurrency: %d", 50)

	var rec struct {
		RunID   string `json:"run_id"`
		Kind    string `json:"kind"`
		Message string `json:"message"`
	}
	require.NoError(t, jsonutil.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "debug", rec.Kind)
	assert.Equal(t, "concurrency: 50", rec.Message)
	assert.Equal(t, r.RunID(), rec.RunID)
}

func TestTeeFile(t *testing.T) {
	path := t.TempDir() + "/out.txt"
	r, buf := newBufferReporter(t, Options{TeePath: path})

	r.MailResult("example.com", &mailprobe.Result{})
	require.NoError(t, r.Close())

	copied, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(copied))
}
