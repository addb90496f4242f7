package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExec answers commands from a table keyed by "name arg1 arg2 ...".
// before runs ahead of the lookup so tests can write report files.
type fakeExec struct {
	outputs map[string]string
	errs    map[string]error
	before  func(name string, args []string)
	calls   []string
}

func (f *fakeExec) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, key)
	if f.before != nil {
		f.before(name, args)
	}
	if err := f.errs[key]; err != nil {
		return []byte(f.outputs[key]), err
	}
	return []byte(f.outputs[key]), nil
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return b
}

func TestParseLighthouseJSONCurrent(t *testing.T) {
	res, err := ParseLighthouseJSON(readFixture(t, "lighthouse-current.json"))
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/", res.URL)

	var ids []string
	for _, c := range res.Categories {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"performance", "accessibility", "bestpractices", "seo", "pwa"}, ids)
	assert.InDelta(t, 93, res.Categories[0].Score, 0.001)
	assert.Equal(t, "Best Practices", res.Categories[2].Name)
	assert.Zero(t, res.Categories[4].Score, "null score reads as zero")

	require.Len(t, res.Metrics, 2)
	assert.Equal(t, "First Contentful Paint", res.Metrics[0].Title)
	assert.Equal(t, "1.2 s", res.Metrics[0].DisplayValue)
	assert.Equal(t, "numeric", res.Metrics[0].ScoringMode)
	assert.InDelta(t, 98, res.Metrics[0].Score, 0.001)
	assert.Equal(t, "interactive", res.Metrics[1].ID)

	assert.Equal(t, "2 vulnerabilities detected", res.VulnSummary)
	require.Len(t, res.Vulns, 1)
	assert.Equal(t, VulnerableLibrary{
		Library:         "jQuery@1.8.1",
		VulnCount:       2,
		HighestSeverity: "Medium",
		URL:             "https://snyk.io/vuln/npm:jquery?lh=1.8.1",
	}, res.Vulns[0])
}

func TestParseLighthouseJSONLegacy(t *testing.T) {
	res, err := ParseLighthouseJSON(readFixture(t, "lighthouse-legacy.json"))
	require.NoError(t, err)

	assert.Equal(t, "https://legacy.example.com/", res.URL)
	require.Len(t, res.Categories, 3)
	assert.Equal(t, "pwa", res.Categories[0].ID, "legacy keeps report order")
	assert.Equal(t, "bestpractices", res.Categories[2].ID)
	assert.InDelta(t, 45.45, res.Categories[0].Score, 0.001)

	assert.Equal(t, "3 vulnerabilities detected", res.VulnSummary)
	require.Len(t, res.Vulns, 1)
	assert.Equal(t, "jQuery@2.1.1", res.Vulns[0].Library)
	assert.Equal(t, "High", res.Vulns[0].HighestSeverity)
	assert.Empty(t, res.Metrics)
}

func TestParseLighthouseJSONErrors(t *testing.T) {
	_, err := ParseLighthouseJSON([]byte("not json"))
	assert.Error(t, err)

	_, err = ParseLighthouseJSON([]byte(`{"audits":{}}`))
	assert.ErrorContains(t, err, "no categories")
}

func TestLegacyPassed(t *testing.T) {
	assert.True(t, legacyPassed([]byte("true")))
	assert.False(t, legacyPassed([]byte("false")))
	assert.True(t, legacyPassed([]byte("100")))
	assert.False(t, legacyPassed([]byte("50")))
	assert.True(t, legacyPassed([]byte(`"weird"`)))
}

func TestNormalizeCategoryID(t *testing.T) {
	assert.Equal(t, "bestpractices", NormalizeCategoryID("best-practices"))
	assert.Equal(t, "seo", NormalizeCategoryID("SEO"))
}

func TestExtractReportJSON(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "lighthouse-legacy.report.html"))
	require.NoError(t, err)
	defer f.Close()

	raw, err := ExtractReportJSON(f)
	require.NoError(t, err)
	res, err := ParseLighthouseJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://legacy.example.com/", res.URL)

	_, err = ExtractReportJSON(strings.NewReader("<html><script>var x = 1;</script></html>"))
	assert.ErrorIs(t, err, ErrNoReportJSON)
}

func TestReportJSONTrailingStatements(t *testing.T) {
	js, ok := reportJSON(`window.__LIGHTHOUSE_JSON__ = {"a":1};window.__LIGHTHOUSE_EXTRA__ = 1;`)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, js)

	_, ok = reportJSON("console.log(1)")
	assert.False(t, ok)
}

func TestReadLighthouseReportFallsBackToHTML(t *testing.T) {
	res, err := ReadLighthouseReport(
		filepath.Join(t.TempDir(), "missing.report.json"),
		filepath.Join("testdata", "lighthouse-legacy.report.html"),
	)
	require.NoError(t, err)
	assert.Len(t, res.Categories, 3)

	_, err = ReadLighthouseReport(filepath.Join(t.TempDir(), "missing.json"), "")
	assert.Error(t, err)
}

func TestLighthouseRun(t *testing.T) {
	dir := t.TempDir()
	report := readFixture(t, "lighthouse-current.json")
	exec := &fakeExec{
		before: func(name string, args []string) {
			for _, a := range args {
				if base, ok := strings.CutPrefix(a, "--output-path="); ok {
					require.NoError(t, os.WriteFile(base+".report.json", report, 0o644))
					require.NoError(t, os.WriteFile(base+".report.html", []byte("<html></html>"), 0o644))
				}
			}
		},
	}
	lh := &Lighthouse{
		Exec:      exec,
		OutputDir: dir,
		Now:       func() time.Time { return time.Unix(1700000000, 0) },
	}

	res, err := lh.Run(context.Background(), "https://example.com")
	require.NoError(t, err)

	require.Len(t, exec.calls, 1)
	assert.Equal(t,
		"lighthouse https://example.com --chrome-flags=--headless --output=json --output=html --output-path="+
			filepath.Join(dir, "report-1700000000")+" --quiet",
		exec.calls[0])
	assert.Equal(t, filepath.Join(dir, "report-1700000000.report.html"), res.HTMLReport)
	assert.Len(t, res.Categories, 5)
}

func TestLighthouseRunFailure(t *testing.T) {
	lh := &Lighthouse{Exec: failingExec{out: "Runtime error encountered: no chrome"}, OutputDir: t.TempDir(), Verbose: true}
	_, err := lh.Run(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no chrome")

	exec := &fakeExec{errs: map[string]error{}}
	lh = &Lighthouse{Exec: exec, OutputDir: t.TempDir()}
	_, err = lh.Run(context.Background(), "https://example.com")
	assert.Error(t, err, "no report written")
}

type failingExec struct{ out string }

func (f failingExec) Run(context.Context, string, ...string) ([]byte, error) {
	return []byte(f.out), errors.New("exit status 1")
}

func TestParseObservatoryRules(t *testing.T) {
	rules, err := ParseObservatoryRules(readFixture(t, "observatory.json.txt"))
	require.NoError(t, err)
	require.Len(t, rules, 3)

	assert.Equal(t, "content-security-policy", rules[0].Slug)
	assert.False(t, rules[0].Pass)
	assert.Equal(t, -25, rules[0].ScoreModifier)
	assert.Equal(t, "Content Security Policy (CSP) header not implemented", rules[0].Description)
	assert.Equal(t, "subresource-integrity", rules[1].Slug)
	assert.Equal(t, "x-frame-options", rules[2].Slug, "output order is kept")
	assert.Equal(t, 5, rules[2].ScoreModifier)
}

func TestParseObservatoryRulesErrors(t *testing.T) {
	_, err := ParseObservatoryRules([]byte("observatory [ERROR] Site could not be reached\n"))
	assert.ErrorContains(t, err, "Site could not be reached")

	_, err = ParseObservatoryRules([]byte("[1, 2]"))
	assert.ErrorContains(t, err, "expected object")

	_, err = ParseObservatoryRules([]byte(""))
	assert.Error(t, err)
}

func TestParseObservatorySummary(t *testing.T) {
	score, grade, err := ParseObservatorySummary(readFixture(t, "observatory.report.txt"))
	require.NoError(t, err)
	assert.Equal(t, 45, score)
	assert.Equal(t, "D", grade)

	_, _, err = ParseObservatorySummary([]byte("Grade: A\n"))
	assert.Error(t, err)

	_, _, err = ParseObservatorySummary([]byte("Score: lots\nGrade: A\n"))
	assert.Error(t, err)
}

func TestObservatoryRun(t *testing.T) {
	exec := &fakeExec{outputs: map[string]string{
		"observatory example.com --format=json":   string(readFixture(t, "observatory.json.txt")),
		"observatory example.com --format=report": string(readFixture(t, "observatory.report.txt")),
	}}
	obs := &Observatory{Exec: exec}

	res, err := obs.Run(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, "example.com", res.Host)
	assert.Equal(t, 45, res.Score)
	assert.Equal(t, "D", res.Grade)
	assert.Len(t, res.Rules, 3)
	assert.Len(t, exec.calls, 2)
}

func TestObservatoryRunFailure(t *testing.T) {
	obs := &Observatory{Exec: failingExec{out: "getaddrinfo ENOTFOUND"}}
	_, err := obs.Run(context.Background(), "nowhere.invalid")
	assert.ErrorContains(t, err, "ENOTFOUND")
}

func TestTrimToolNoise(t *testing.T) {
	out := trimToolNoise([]byte("observatory [WARN] a\n{}\n  observatory [WARN] b\n"), observatoryWarn)
	assert.Equal(t, "{}", out)
}

func TestRuleClass(t *testing.T) {
	assert.Equal(t, "good", Rule{Pass: true, ScoreModifier: -5}.Class())
	assert.Equal(t, "poor", Rule{ScoreModifier: -20}.Class())
	assert.Equal(t, "ok", Rule{}.Class())
}
