package report

import (
	"fmt"
	"sort"
)

// Kind names a report type. Each kind has its own placeholder vocabulary and
// its own outer template (templates/<kind>.html).
type Kind string

const (
	KindLighthouse  Kind = "lighthouse"
	KindObservatory Kind = "observatory"
	KindAll         Kind = "all"
)

// vocabulary is either a static token list or a union derived from other kinds.
type vocabulary interface {
	tokens(resolve func(Kind) ([]string, error)) ([]string, error)
}

// Static is a vocabulary declared as a literal token list.
type Static []string

func (s Static) tokens(func(Kind) ([]string, error)) ([]string, error) {
	return dedupe(s), nil
}

// Derived is the union of other kinds' vocabularies, duplicates removed,
// first occurrence kept.
type Derived []Kind

func (d Derived) tokens(resolve func(Kind) ([]string, error)) ([]string, error) {
	var all []string
	for _, k := range d {
		toks, err := resolve(k)
		if err != nil {
			return nil, err
		}
		all = append(all, toks...)
	}
	return dedupe(all), nil
}

var vocabularies = map[Kind]vocabulary{
	KindLighthouse: Static{
		"url",
		"pathtolighthousereport",
		"scores.pwa.score",
		"scores.pwa.class",
		"scores.performance.score",
		"scores.performance.class",
		"scores.accessibility.score",
		"scores.accessibility.class",
		"scores.bestpractices.score",
		"scores.bestpractices.class",
		"scores.seo.score",
		"scores.seo.class",
		"section.notes",
		"section.vulns",
		"section.performance",
	},
	KindObservatory: Static{
		"url",
		"score",
		"grade",
		"host",
		"section.obsRule",
	},
	KindAll: Derived{KindLighthouse, KindObservatory},
}

// VocabularyFor returns the placeholder tokens valid in templates of kind,
// in declaration order. The returned slice is a fresh copy.
func VocabularyFor(kind Kind) ([]string, error) {
	return vocabularyFor(kind, nil)
}

func vocabularyFor(kind Kind, seen map[Kind]bool) ([]string, error) {
	v, ok := vocabularies[kind]
	if !ok {
		return nil, newRenderError(kind, "", ErrUnknownReportKind)
	}
	if seen == nil {
		seen = map[Kind]bool{}
	}
	if seen[kind] {
		return nil, fmt.Errorf("vocabulary %q derives from itself", kind)
	}
	seen[kind] = true
	defer delete(seen, kind)

	return v.tokens(func(k Kind) ([]string, error) {
		return vocabularyFor(k, seen)
	})
}

// Kinds lists the declared report kinds, sorted by name.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(vocabularies))
	for k := range vocabularies {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ParseKind maps a command line value onto a declared kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := vocabularies[k]; !ok {
		return "", newRenderError(k, "", ErrUnknownReportKind)
	}
	return k, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
