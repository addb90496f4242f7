package scanner

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// lighthouse's HTML report carries the full JSON result in a script tag:
//
//	<script>window.__LIGHTHOUSE_JSON__ = {...};</script>
const lighthouseJSONPrefix = "window.__LIGHTHOUSE_JSON__ = "

// ErrNoReportJSON is returned when an HTML report has no embedded result.
var ErrNoReportJSON = errors.New("no lighthouse JSON found in HTML report")

// ExtractReportJSON scans an HTML lighthouse report and returns the JSON
// assigned to window.__LIGHTHOUSE_JSON__.
func ExtractReportJSON(r io.Reader) ([]byte, error) {
	tokenizer := html.NewTokenizer(r)
	inScript := false

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			if tokenizer.Err() == io.EOF {
				return nil, ErrNoReportJSON
			}
			return nil, fmt.Errorf("parse HTML report: %w", tokenizer.Err())

		case html.StartTagToken:
			t := tokenizer.Token()
			inScript = t.DataAtom == atom.Script

		case html.EndTagToken:
			inScript = false

		case html.TextToken:
			if !inScript {
				continue
			}
			if js, ok := reportJSON(string(tokenizer.Text())); ok {
				return []byte(js), nil
			}
		}
	}
}

// reportJSON strips the assignment and trailing semicolon from a script body.
func reportJSON(script string) (string, bool) {
	_, after, ok := strings.Cut(script, lighthouseJSONPrefix)
	if !ok {
		return "", false
	}
	after = strings.TrimSpace(after)
	after = strings.TrimSuffix(after, ";")
	// later lighthouse versions append more statements after the object
	if i := strings.Index(after, ";window."); i >= 0 {
		after = after[:i]
	}
	return strings.TrimSpace(after), true
}
