package display

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/wyseguys/site-audit/ratings"
	"github.com/wyseguys/site-audit/report"
	"github.com/wyseguys/site-audit/scanner"
)

// Printer writes audit results as styled text.
type Printer struct {
	Out        io.Writer
	Thresholds ratings.Thresholds
}

// New returns a Printer writing to stdout.
func New(t ratings.Thresholds) *Printer {
	return &Printer{Out: os.Stdout, Thresholds: t.WithDefaults()}
}

func (p *Printer) printf(format string, a ...any) {
	fmt.Fprintf(p.Out, format, a...)
}

// Title prints the audit banner for url.
func (p *Printer) Title(url string, kind report.Kind) {
	p.printf("\n%s %s\n", TitleStyle.Render("site-audit "+string(kind)), URLStyle.Render(url))
}

// Section prints a section heading.
func (p *Printer) Section(name string) {
	p.printf("%s\n", SectionStyle.Render(name))
}

// Lighthouse prints category scores, notes for categories that are not good,
// vulnerable libraries and the performance metrics.
func (p *Printer) Lighthouse(res *scanner.LighthouseResult) {
	p.Section("Lighthouse")

	width := 0
	for _, c := range res.Categories {
		width = max(width, len(c.Name))
	}

	var notes []string
	for _, c := range res.Categories {
		class := p.Thresholds.Classify(c.Score)
		score := ClassStyle(class).Render(strconv.Itoa(ratings.Round(c.Score)))
		p.printf("  %s %s\n", LabelStyle.Render(padRight(c.Name+":", width+1)), score)
		if class != ratings.Good {
			notes = append(notes, fmt.Sprintf("%s %s", c.Name, ratings.Grade(class)))
		}
	}

	if len(notes) > 0 {
		p.Section("Notes")
		for _, n := range notes {
			p.printf("  - %s\n", n)
		}
		if res.HTMLReport != "" {
			p.printf("  %s %s\n", MutedStyle.Render("Full report:"), res.HTMLReport)
		}
	}

	if len(res.Vulns) > 0 {
		p.Section("Vulnerable libraries")
		if res.VulnSummary != "" {
			p.printf("  %s\n", res.VulnSummary)
		}
		libW := len("Library")
		for _, v := range res.Vulns {
			libW = max(libW, len(v.Library))
		}
		p.printf("  %s %s %s\n",
			LabelStyle.Render(padRight("Library", libW)),
			LabelStyle.Render(padRight("Vulns", 5)),
			LabelStyle.Render("Severity"))
		for _, v := range res.Vulns {
			p.printf("  %s %s %s\n",
				padRight(v.Library, libW),
				padRight(strconv.Itoa(v.VulnCount), 5),
				SeverityStyle(v.HighestSeverity).Render(v.HighestSeverity))
		}
	}

	if len(res.Metrics) > 0 {
		p.Section("Performance metrics")
		titleW := 0
		for _, m := range res.Metrics {
			titleW = max(titleW, len(m.Title))
		}
		for _, m := range res.Metrics {
			score := "-"
			class := ""
			if m.ScoringMode == "numeric" {
				class = p.Thresholds.Classify(m.Score)
				score = strconv.Itoa(ratings.Round(m.Score))
			}
			p.printf("  %s %s %s\n",
				ClassStyle(class).Render(padRight(score, 3)),
				padRight(m.Title, titleW),
				MutedStyle.Render(m.DisplayValue))
		}
	}
}

// Observatory prints the overall grade and one line per rule.
func (p *Printer) Observatory(res *scanner.ObservatoryResult) {
	p.Section("Observatory")
	p.printf("  %s %s  %s %s\n",
		LabelStyle.Render("Score:"), GradeStyle(res.Grade).Render(strconv.Itoa(res.Score)),
		LabelStyle.Render("Grade:"), GradeStyle(res.Grade).Render(res.Grade))

	nameW := 0
	for _, r := range res.Rules {
		nameW = max(nameW, len(report.FormatRuleName(r.Slug)))
	}
	for _, r := range res.Rules {
		mark := ClassStyle(ratings.Poor).Render("✘")
		if r.Pass {
			mark = ClassStyle(ratings.Good).Render("✔")
		}
		p.printf("  %s %s %s %s\n",
			mark,
			padRight(report.FormatRuleName(r.Slug), nameW),
			ClassStyle(r.Class()).Render(padRight(strconv.Itoa(r.ScoreModifier), 4)),
			MutedStyle.Render(r.Description))
	}
}

// Saved reports where a file was written.
func (p *Printer) Saved(what, path string) {
	p.printf("\n%s %s\n", LabelStyle.Render(what+" saved to"), path)
}

// Warn prints a highlighted warning line.
func (p *Printer) Warn(msg string) {
	p.printf("%s %s\n", ClassStyle(ratings.OK).Render("!"), msg)
}
