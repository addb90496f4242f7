package display

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wyseguys/site-audit/ratings"
	"github.com/wyseguys/site-audit/scanner"
)

func newTestPrinter() (*Printer, *bytes.Buffer) {
	SetNoColor(true)
	var buf bytes.Buffer
	return &Printer{Out: &buf, Thresholds: ratings.Default}, &buf
}

func TestPrinterLighthouse(t *testing.T) {
	p, buf := newTestPrinter()
	p.Lighthouse(&scanner.LighthouseResult{
		HTMLReport: "/tmp/report-1.report.html",
		Categories: []scanner.Category{
			{ID: "performance", Name: "Performance", Score: 93.00000000000001},
			{ID: "seo", Name: "SEO", Score: 70},
			{ID: "pwa", Name: "Progressive Web App", Score: 45.45},
		},
		VulnSummary: "2 vulnerabilities detected",
		Vulns: []scanner.VulnerableLibrary{
			{Library: "jQuery@1.8.1", VulnCount: 2, HighestSeverity: "Medium"},
		},
		Metrics: []scanner.PerfMetric{
			{Title: "First Contentful Paint", DisplayValue: "1.2 s", Score: 98, ScoringMode: "numeric"},
			{Title: "Screenshot thumbnails", ScoringMode: "informative"},
		},
	})
	out := buf.String()

	assert.Contains(t, out, "Performance:")
	assert.Contains(t, out, "93")
	assert.Contains(t, out, "- SEO needs improvement")
	assert.Contains(t, out, "- Progressive Web App is poor")
	assert.NotContains(t, out, "Performance passes")
	assert.Contains(t, out, "/tmp/report-1.report.html")
	assert.Contains(t, out, "2 vulnerabilities detected")
	assert.Contains(t, out, "jQuery@1.8.1")
	assert.Contains(t, out, "Medium")
	assert.Contains(t, out, "98  First Contentful Paint")
	assert.Contains(t, out, "-   Screenshot thumbnails")
	assert.NotContains(t, out, "\x1b[")
}

func TestPrinterLighthouseAllGood(t *testing.T) {
	p, buf := newTestPrinter()
	p.Lighthouse(&scanner.LighthouseResult{
		Categories: []scanner.Category{{ID: "seo", Name: "SEO", Score: 100}},
	})
	assert.NotContains(t, buf.String(), "Notes")
	assert.NotContains(t, buf.String(), "Vulnerable libraries")
}

func TestPrinterObservatory(t *testing.T) {
	p, buf := newTestPrinter()
	p.Observatory(&scanner.ObservatoryResult{
		Score: 45,
		Grade: "D",
		Rules: []scanner.Rule{
			{Slug: "x-xss-protection", ScoreModifier: -10, Description: "header not implemented"},
			{Slug: "subresource-integrity", Pass: true},
		},
	})
	out := buf.String()

	assert.Contains(t, out, "Score: 45")
	assert.Contains(t, out, "Grade: D")
	assert.Contains(t, out, "✘ X-XSS-Protection")
	assert.Contains(t, out, "✔ Subresource integrity")
	assert.Contains(t, out, "header not implemented")
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "abcdef", padRight("abcdef", 4))
	assert.Equal(t, "✔ ", padRight("✔", 2))
}

func TestGradeStyleAndSetNoColor(t *testing.T) {
	SetNoColor(true)
	assert.True(t, IsNoColor())
	assert.Equal(t, "A+", GradeStyle("A+").Render("A+"))
	assert.Equal(t, "High", SeverityStyle("High").Render("High"))
}
