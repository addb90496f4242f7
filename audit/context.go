package audit

import (
	"github.com/wyseguys/site-audit/ratings"
	"github.com/wyseguys/site-audit/report"
	"github.com/wyseguys/site-audit/scanner"
	"github.com/wyseguys/site-audit/storage"
)

// reportCategories are the lighthouse categories every lighthouse template
// shows, whether or not the installed lighthouse still reports them.
var reportCategories = []string{"performance", "accessibility", "bestpractices", "seo", "pwa"}

// BuildContext fills a template context from scan results. Either result may
// be nil.
func BuildContext(url string, lh *scanner.LighthouseResult, obs *scanner.ObservatoryResult, t ratings.Thresholds) *report.Context {
	c := report.NewContext()
	c.AddData("url", url)

	if lh != nil {
		addLighthouse(c, lh, t)
	}
	if obs != nil {
		addObservatory(c, obs)
	}
	return c
}

func addLighthouse(c *report.Context, lh *scanner.LighthouseResult, t ratings.Thresholds) {
	c.AddData("pathtolighthousereport", lh.HTMLReport)

	seen := map[string]bool{}
	metrics := []report.Record{}
	for _, cat := range lh.Categories {
		class := t.Classify(cat.Score)
		c.AddData(cat.ID, report.Score{Score: ratings.Round(cat.Score), Class: class})
		seen[cat.ID] = true
		if class != ratings.Good {
			metrics = append(metrics, report.Record{
				"name":  cat.Name,
				"grade": ratings.Grade(class),
				"class": class,
				"slug":  cat.ID,
			})
		}
	}
	for _, id := range reportCategories {
		if !seen[id] {
			c.SetScore(id, "score", "-")
			c.SetScore(id, "class", "")
		}
	}
	c.AddData("metrics", metrics)

	vulns := []report.Record{}
	for _, v := range lh.Vulns {
		vulns = append(vulns, report.Record{
			"libraryVersion":  v.Library,
			"vulnCount":       v.VulnCount,
			"highestSeverity": v.HighestSeverity,
			"url":             v.URL,
		})
	}
	total := lh.VulnSummary
	if total == "" {
		total = "No known vulnerable libraries detected"
	}
	c.AddData("vulns", map[string]any{"total": total, "vulns": vulns})

	perf := []report.Record{}
	for _, m := range lh.Metrics {
		class := ""
		if m.ScoringMode == "numeric" {
			class = t.Classify(m.Score)
		}
		perf = append(perf, report.Record{
			"score":       ratings.Round(m.Score),
			"time":        m.DisplayValue,
			"metric":      m.Title,
			"class":       class,
			"scoringMode": m.ScoringMode,
		})
	}
	c.AddData("perfitems", perf)
}

func addObservatory(c *report.Context, obs *scanner.ObservatoryResult) {
	c.AddData("score", obs.Score)
	c.AddData("grade", obs.Grade)

	rules := []report.Record{}
	for _, r := range obs.Rules {
		rules = append(rules, report.Record{
			"slug":     r.Slug,
			"desc":     r.Description,
			"score":    r.ScoreModifier,
			"isPassed": r.Pass,
			"class":    r.Class(),
		})
	}
	c.AddData("rules", rules)
}

// scoreRows flattens lighthouse categories for storage.
func scoreRows(lh *scanner.LighthouseResult, t ratings.Thresholds) []storage.CategoryScore {
	if lh == nil {
		return nil
	}
	rows := make([]storage.CategoryScore, 0, len(lh.Categories))
	for _, cat := range lh.Categories {
		rows = append(rows, storage.CategoryScore{
			Category: cat.ID,
			Score:    ratings.Round(cat.Score),
			Class:    t.Classify(cat.Score),
		})
	}
	return rows
}

func ruleRows(obs *scanner.ObservatoryResult) []storage.RuleResult {
	if obs == nil {
		return nil
	}
	rows := make([]storage.RuleResult, 0, len(obs.Rules))
	for _, r := range obs.Rules {
		rows = append(rows, storage.RuleResult{
			Slug:          r.Slug,
			Pass:          r.Pass,
			ScoreModifier: r.ScoreModifier,
			Description:   r.Description,
		})
	}
	return rows
}
