package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Category is one lighthouse report category, scored 0-100.
type Category struct {
	ID    string // normalized: lower case, no hyphens ("bestpractices")
	Name  string
	Score float64
}

// VulnerableLibrary is a front-end library flagged by the
// no-vulnerable-libraries audit.
type VulnerableLibrary struct {
	Library         string // "jquery@1.8.1"
	VulnCount       int
	HighestSeverity string
	URL             string
}

// PerfMetric is one of the performance category's metric audits.
type PerfMetric struct {
	ID           string
	Title        string
	DisplayValue string
	Score        float64 // 0-100
	ScoringMode  string  // "numeric", "binary", "informative", ...
}

// LighthouseResult is everything the report needs from one lighthouse run.
type LighthouseResult struct {
	URL         string
	HTMLReport  string // path of lighthouse's own HTML report, if kept
	Categories  []Category
	VulnSummary string // e.g. "2 vulnerabilities detected"
	Vulns       []VulnerableLibrary
	Metrics     []PerfMetric
}

// Lighthouse runs the lighthouse CLI.
type Lighthouse struct {
	Exec        Executor
	OutputDir   string // where lighthouse writes its reports
	ChromeFlags string
	Verbose     bool
	Now         func() time.Time
}

// Run audits url and parses the JSON report lighthouse writes next to its
// HTML report.
func (l *Lighthouse) Run(ctx context.Context, url string) (*LighthouseResult, error) {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	dir := l.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lighthouse output dir: %w", err)
	}
	base := filepath.Join(dir, fmt.Sprintf("report-%d", now().Unix()))

	flags := l.ChromeFlags
	if flags == "" {
		flags = "--headless"
	}
	args := []string{
		url,
		"--chrome-flags=" + flags,
		"--output=json",
		"--output=html",
		"--output-path=" + base,
	}
	if !l.Verbose {
		args = append(args, "--quiet")
	}

	out, err := l.Exec.Run(ctx, "lighthouse", args...)
	if err != nil {
		return nil, fmt.Errorf("%w\n%s", err, strings.TrimSpace(string(out)))
	}

	htmlPath := base + ".report.html"
	res, err := ReadLighthouseReport(base+".report.json", htmlPath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(htmlPath); err == nil {
		res.HTMLReport = htmlPath
	}
	return res, nil
}

// ReadLighthouseReport parses the JSON report at jsonPath, or, when that file
// does not exist, the JSON embedded in the HTML report at htmlPath.
func ReadLighthouseReport(jsonPath, htmlPath string) (*LighthouseResult, error) {
	b, err := os.ReadFile(jsonPath)
	if err == nil {
		return ParseLighthouseJSON(b)
	}
	if !errors.Is(err, fs.ErrNotExist) || htmlPath == "" {
		return nil, fmt.Errorf("read lighthouse report: %w", err)
	}

	f, err := os.Open(htmlPath)
	if err != nil {
		return nil, fmt.Errorf("read lighthouse report: %w", err)
	}
	defer f.Close()

	raw, err := ExtractReportJSON(f)
	if err != nil {
		return nil, err
	}
	return ParseLighthouseJSON(raw)
}

// lighthouse JSON, current schema (v3+): categories keyed by id, scores 0-1.
type lhReport struct {
	FinalURL         string                `json:"finalUrl"`
	RequestedURL     string                `json:"requestedUrl"`
	Categories       map[string]lhCategory `json:"categories"`
	Audits           map[string]lhAudit    `json:"audits"`
	ReportCategories []legacyCategory      `json:"reportCategories"`
	URL              string                `json:"url"`
}

type lhCategory struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Score     *float64 `json:"score"`
	AuditRefs []struct {
		ID    string `json:"id"`
		Group string `json:"group"`
	} `json:"auditRefs"`
}

type lhAudit struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Score            *float64 `json:"score"`
	ScoreDisplayMode string   `json:"scoreDisplayMode"`
	DisplayValue     string   `json:"displayValue"`
	Details          struct {
		Items []struct {
			DetectedLib struct {
				Text string `json:"text"`
				URL  string `json:"url"`
			} `json:"detectedLib"`
			VulnCount       int    `json:"vulnCount"`
			HighestSeverity string `json:"highestSeverity"`
		} `json:"items"`
	} `json:"details"`
}

// lighthouse 2.x: reportCategories array, scores 0-100.
type legacyCategory struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Audits []struct {
		ID     string `json:"id"`
		Result struct {
			Score        json.RawMessage `json:"score"`
			DisplayValue string          `json:"displayValue"`
			ExtendedInfo struct {
				Vulnerabilities []struct {
					Name            string `json:"name"`
					Version         string `json:"version"`
					VulnCount       int    `json:"vulnCount"`
					HighestSeverity string `json:"highestSeverity"`
					PkgLink         string `json:"pkgLink"`
				} `json:"vulnerabilities"`
			} `json:"extendedInfo"`
		} `json:"result"`
	} `json:"audits"`
}

const vulnerableLibrariesAudit = "no-vulnerable-libraries"

// categoryOrder is the order lighthouse's own report shows categories in.
var categoryOrder = map[string]int{
	"performance":   0,
	"accessibility": 1,
	"bestpractices": 2,
	"seo":           3,
	"pwa":           4,
}

// ParseLighthouseJSON reads either lighthouse report schema.
func ParseLighthouseJSON(b []byte) (*LighthouseResult, error) {
	var rep lhReport
	if err := json.Unmarshal(b, &rep); err != nil {
		return nil, fmt.Errorf("parse lighthouse report: %w", err)
	}
	switch {
	case len(rep.Categories) > 0:
		return parseCurrent(&rep), nil
	case len(rep.ReportCategories) > 0:
		return parseLegacy(&rep), nil
	}
	return nil, fmt.Errorf("parse lighthouse report: no categories found")
}

func parseCurrent(rep *lhReport) *LighthouseResult {
	res := &LighthouseResult{URL: rep.FinalURL}
	if res.URL == "" {
		res.URL = rep.RequestedURL
	}

	for key, c := range rep.Categories {
		id := c.ID
		if id == "" {
			id = key
		}
		var score float64
		if c.Score != nil {
			score = *c.Score * 100
		}
		res.Categories = append(res.Categories, Category{ID: NormalizeCategoryID(id), Name: c.Title, Score: score})
	}
	sortCategories(res.Categories)

	if perf, ok := rep.Categories["performance"]; ok {
		for _, ref := range perf.AuditRefs {
			if ref.Group != "metrics" {
				continue
			}
			a, ok := rep.Audits[ref.ID]
			if !ok {
				continue
			}
			m := PerfMetric{ID: ref.ID, Title: a.Title, DisplayValue: a.DisplayValue, ScoringMode: a.ScoreDisplayMode}
			if a.Score != nil {
				m.Score = *a.Score * 100
			}
			res.Metrics = append(res.Metrics, m)
		}
	}

	if a, ok := rep.Audits[vulnerableLibrariesAudit]; ok && a.Score != nil && *a.Score < 1 {
		res.VulnSummary = a.DisplayValue
		for _, it := range a.Details.Items {
			res.Vulns = append(res.Vulns, VulnerableLibrary{
				Library:         it.DetectedLib.Text,
				VulnCount:       it.VulnCount,
				HighestSeverity: it.HighestSeverity,
				URL:             it.DetectedLib.URL,
			})
		}
	}
	return res
}

func parseLegacy(rep *lhReport) *LighthouseResult {
	res := &LighthouseResult{URL: rep.URL}
	for _, c := range rep.ReportCategories {
		res.Categories = append(res.Categories, Category{ID: NormalizeCategoryID(c.ID), Name: c.Name, Score: c.Score})
		for _, a := range c.Audits {
			if a.ID != vulnerableLibrariesAudit || legacyPassed(a.Result.Score) {
				continue
			}
			res.VulnSummary = a.Result.DisplayValue
			for _, v := range a.Result.ExtendedInfo.Vulnerabilities {
				res.Vulns = append(res.Vulns, VulnerableLibrary{
					Library:         v.Name + "@" + v.Version,
					VulnCount:       v.VulnCount,
					HighestSeverity: v.HighestSeverity,
					URL:             v.PkgLink,
				})
			}
		}
	}
	return res
}

// legacyPassed reads an audit score that was a bool or a 0-100 number.
func legacyPassed(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f >= 100
	}
	return true
}

// NormalizeCategoryID maps "best-practices" to "bestpractices".
func NormalizeCategoryID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}

func sortCategories(cats []Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		oi, iok := categoryOrder[cats[i].ID]
		oj, jok := categoryOrder[cats[j].ID]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		}
		return cats[i].ID < cats[j].ID
	})
}
