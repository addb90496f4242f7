package report

import (
	"fmt"
	"strings"
)

// FieldFunc renders one item placeholder from the whole item, for fields
// whose display value is not the raw record value.
type FieldFunc func(item Record) (string, error)

// Section describes how a section.* token expands.
type Section struct {
	Token     string // e.g. "section.notes"
	Wrapper   string // fragment holding the single list placeholder
	Item      string // fragment rendered once per list item
	ListKey   string // context path of the sequence, e.g. "vulns.vulns"
	ListToken string // placeholder in Wrapper replaced by the joined items

	// ItemPrefix is the namespace of item placeholders: "metric.name" reads
	// field "name" of the current item.
	ItemPrefix string
	ItemFields []string

	// Passthrough are outer-context paths usable inside the item fragment.
	Passthrough []string

	// WrapperValues maps extra wrapper placeholders to outer-context paths.
	WrapperValues map[string]string

	// Fields overrides the default lookup for specific item fields.
	Fields map[string]FieldFunc
}

func (s *Section) itemTokens() []string {
	toks := make([]string, 0, len(s.ItemFields)+len(s.Passthrough))
	for _, f := range s.ItemFields {
		toks = append(toks, s.ItemPrefix+"."+f)
	}
	return append(toks, s.Passthrough...)
}

func (s *Section) wrapperTokens() []string {
	toks := []string{s.ListToken}
	for t := range s.WrapperValues {
		toks = append(toks, t)
	}
	return toks
}

var sections = map[string]*Section{
	"section.notes": {
		Token:       "section.notes",
		Wrapper:     "blocks/notes.html",
		Item:        "blocks/note.html",
		ListKey:     "metrics",
		ListToken:   "notes",
		ItemPrefix:  "metric",
		ItemFields:  []string{"name", "grade", "class", "slug"},
		Passthrough: []string{"pathtolighthousereport"},
	},
	"section.vulns": {
		Token:         "section.vulns",
		Wrapper:       "blocks/vulns.html",
		Item:          "blocks/vuln.html",
		ListKey:       "vulns.vulns",
		ListToken:     "vuln",
		ItemPrefix:    "vuln",
		ItemFields:    []string{"libraryVersion", "vulnCount", "highestSeverity", "url"},
		WrapperValues: map[string]string{"vuln.counts": "vulns.total"},
	},
	"section.performance": {
		Token:      "section.performance",
		Wrapper:    "blocks/performance.html",
		Item:       "blocks/perf-item.html",
		ListKey:    "perfitems",
		ListToken:  "perfItem",
		ItemPrefix: "perf",
		ItemFields: []string{"score", "time", "metric", "class"},
		Fields: map[string]FieldFunc{
			"score": func(item Record) (string, error) {
				if item["scoringMode"] != "numeric" {
					return "-", nil
				}
				return fieldString(item, "score")
			},
		},
	},
	"section.obsRule": {
		Token:      "section.obsRule",
		Wrapper:    "blocks/obsRules.html",
		Item:       "blocks/obsRule.html",
		ListKey:    "rules",
		ListToken:  "rules",
		ItemPrefix: "rule",
		ItemFields: []string{"score", "slug", "desc", "class", "isPassed"},
		Fields: map[string]FieldFunc{
			"slug": func(item Record) (string, error) {
				s, err := fieldString(item, "slug")
				if err != nil {
					return "", err
				}
				return FormatRuleName(s), nil
			},
			"isPassed": func(item Record) (string, error) {
				if passed, _ := item["isPassed"].(bool); passed {
					return "✔", nil
				}
				return "✘", nil
			},
		},
	},
}

// SectionFor returns the registered section for token.
func SectionFor(token string) (*Section, bool) {
	s, ok := sections[token]
	return s, ok
}

func isSectionToken(token string) bool {
	return strings.HasPrefix(token, "section.")
}

func fieldString(item Record, field string) (string, error) {
	v, ok := item[field]
	if !ok {
		return "", fmt.Errorf("item has no field %q", field)
	}
	return scalarString(v)
}
