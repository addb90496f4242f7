package scanner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/wyseguys/site-audit/ratings"
)

const (
	observatoryWarn  = "observatory [WARN]"
	observatoryError = "observatory [ERROR]"
)

// Rule is one Mozilla Observatory test result.
type Rule struct {
	Slug          string // "x-xss-protection"
	Pass          bool
	ScoreModifier int
	Description   string
	Result        string // e.g. "x-xss-protection-not-implemented"
}

// Class rates the rule: passed rules are good, rules that cost points are poor.
func (r Rule) Class() string {
	switch {
	case r.Pass:
		return ratings.Good
	case r.ScoreModifier < 0:
		return ratings.Poor
	}
	return ratings.OK
}

// ObservatoryResult is the overall grade and per-rule results for one host.
type ObservatoryResult struct {
	Host  string
	Score int
	Grade string
	Rules []Rule
}

// Observatory runs the observatory CLI (npm package observatory-cli).
type Observatory struct {
	Exec Executor
}

// Run scans host. The JSON format carries the rules but not the overall
// score, so the report format is requested as well.
func (o *Observatory) Run(ctx context.Context, host string) (*ObservatoryResult, error) {
	out, err := o.Exec.Run(ctx, "observatory", host, "--format=json")
	if err != nil {
		return nil, fmt.Errorf("%w\n%s", err, strings.TrimSpace(string(out)))
	}
	rules, err := ParseObservatoryRules(out)
	if err != nil {
		return nil, err
	}

	out, err = o.Exec.Run(ctx, "observatory", host, "--format=report")
	if err != nil {
		return nil, fmt.Errorf("%w\n%s", err, strings.TrimSpace(string(out)))
	}
	score, grade, err := ParseObservatorySummary(out)
	if err != nil {
		return nil, err
	}

	return &ObservatoryResult{Host: host, Score: score, Grade: grade, Rules: rules}, nil
}

type obsRule struct {
	Name             string `json:"name"`
	Pass             bool   `json:"pass"`
	Result           string `json:"result"`
	ScoreDescription string `json:"score_description"`
	ScoreModifier    int    `json:"score_modifier"`
}

// ParseObservatoryRules decodes --format=json output, keeping the order the
// tool printed the rules in.
func ParseObservatoryRules(out []byte) ([]Rule, error) {
	if err := observatoryErr(out); err != nil {
		return nil, err
	}
	clean := trimToolNoise(out, observatoryWarn)

	dec := json.NewDecoder(strings.NewReader(clean))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse observatory rules: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("parse observatory rules: expected object, got %v", tok)
	}

	var rules []Rule
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse observatory rules: %w", err)
		}
		key, _ := keyTok.(string)

		var r obsRule
		if err := dec.Decode(&r); err != nil {
			return nil, fmt.Errorf("parse observatory rule %q: %w", key, err)
		}
		slug := r.Name
		if slug == "" {
			slug = key
		}
		rules = append(rules, Rule{
			Slug:          slug,
			Pass:          r.Pass,
			ScoreModifier: r.ScoreModifier,
			Description:   r.ScoreDescription,
			Result:        r.Result,
		})
	}
	return rules, nil
}

// ParseObservatorySummary finds the "Score:" and "Grade:" lines of
// --format=report output.
func ParseObservatorySummary(out []byte) (int, string, error) {
	if err := observatoryErr(out); err != nil {
		return 0, "", err
	}
	var (
		score             int
		grade             string
		haveScore, haveGr bool
	)
	sc := bufio.NewScanner(strings.NewReader(string(out)))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if v, ok := strings.CutPrefix(line, "Score:"); ok && !haveScore {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return 0, "", fmt.Errorf("parse observatory score %q: %w", v, err)
			}
			score, haveScore = n, true
		}
		if v, ok := strings.CutPrefix(line, "Grade:"); ok && !haveGr {
			grade, haveGr = strings.TrimSpace(v), true
		}
	}
	if err := sc.Err(); err != nil {
		return 0, "", err
	}
	if !haveScore || !haveGr {
		return 0, "", fmt.Errorf("observatory output has no score/grade")
	}
	return score, grade, nil
}

// observatoryErr turns "observatory [ERROR] ..." output into an error.
func observatoryErr(out []byte) error {
	for _, line := range strings.Split(string(out), "\n") {
		if msg, ok := strings.CutPrefix(strings.TrimSpace(line), observatoryError); ok {
			return fmt.Errorf("observatory: %s", strings.TrimSpace(msg))
		}
	}
	return nil
}
