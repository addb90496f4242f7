package report

import (
	"fmt"
	"strings"
)

// Record is one item of a repeated section (a metric, a vulnerable library,
// an observatory rule).
type Record map[string]any

// Score is a lighthouse category result as stored under scores.<category>.
type Score struct {
	Score int
	Class string
}

// lighthouseCategories are the AddData keys merged into scores.<key>.
var lighthouseCategories = map[string]bool{
	"pwa":           true,
	"performance":   true,
	"accessibility": true,
	"bestpractices": true,
	"seo":           true,
}

// Context holds the data a template is rendered against. It is filled by the
// audit runner one value at a time and then handed to Render. Render does not
// modify it.
type Context struct {
	root map[string]any
}

// NewContext returns an empty context with an empty scores mapping.
func NewContext() *Context {
	return &Context{root: map[string]any{"scores": map[string]any{}}}
}

// ContextFromMap builds a context from decoded JSON (or any nested map).
// Slices of objects become []Record.
func ContextFromMap(m map[string]any) *Context {
	c := NewContext()
	for k, v := range m {
		c.Set(k, normalize(v))
	}
	return c
}

// AddData stores data under key. Lighthouse category keys holding a Score are
// merged into scores.<key> so categories can arrive in any order.
func (c *Context) AddData(key string, data any) {
	key = strings.ToLower(key)
	if lighthouseCategories[key] {
		if s, ok := data.(Score); ok {
			c.SetScore(key, "score", s.Score)
			c.SetScore(key, "class", s.Class)
			return
		}
	}
	c.Set(key, data)
}

// SetScore sets one attribute of scores.<name> without touching its siblings.
func (c *Context) SetScore(name, attr string, v any) {
	c.Set("scores."+name+"."+attr, v)
}

// Set stores v at a dotted path, creating intermediate mappings. A map value
// is merged into an existing mapping at the same path rather than replacing it.
func (c *Context) Set(path string, v any) {
	parts := strings.Split(path, ".")
	node := c.root
	for _, p := range parts[:len(parts)-1] {
		next, ok := node[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[p] = next
		}
		node = next
	}
	leaf := parts[len(parts)-1]
	if src, ok := v.(map[string]any); ok {
		if dst, ok := node[leaf].(map[string]any); ok {
			for k, sv := range src {
				dst[k] = sv
			}
			return
		}
	}
	node[leaf] = v
}

// Lookup walks a dotted path.
func (c *Context) Lookup(path string) (any, bool) {
	var cur any = c.root
	for _, p := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Score returns scores[name][attr].
func (c *Context) Score(name, attr string) (any, bool) {
	scores, ok := c.root["scores"].(map[string]any)
	if !ok {
		return nil, false
	}
	entry, ok := scores[name].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := entry[attr]
	return v, ok
}

// List returns the sequence stored at path. The second result is false when
// nothing is stored there; a stored empty sequence returns (nil/empty, true).
func (c *Context) List(path string) ([]Record, bool, error) {
	v, ok := c.Lookup(path)
	if !ok {
		return nil, false, nil
	}
	switch l := v.(type) {
	case []Record:
		return l, true, nil
	case []map[string]any:
		out := make([]Record, len(l))
		for i, m := range l {
			out[i] = Record(m)
		}
		return out, true, nil
	case []any:
		out := make([]Record, 0, len(l))
		for i, item := range l {
			switch m := item.(type) {
			case Record:
				out = append(out, m)
			case map[string]any:
				out = append(out, Record(m))
			default:
				return nil, true, fmt.Errorf("%s[%d] is %T, not a record", path, i, item)
			}
		}
		return out, true, nil
	case nil:
		return nil, true, nil
	}
	return nil, true, fmt.Errorf("%s is %T, not a list", path, v)
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, sv := range t {
			out[k] = normalize(sv)
		}
		return out
	case []any:
		if len(t) == 0 {
			return []Record{}
		}
		recs := make([]Record, 0, len(t))
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return t
			}
			recs = append(recs, Record(m))
		}
		return recs
	}
	return v
}
