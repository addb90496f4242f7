// Package report fills HTML report templates with audit results.
//
// Templates contain {{dotted.path}} placeholders. Each report kind declares
// the placeholders its template may use; "all" is the union of the others.
// A placeholder outside the kind's vocabulary is an error, as is a
// placeholder whose value the Context does not hold.
//
// Placeholders named section.* expand into repeated blocks: the section's
// item fragment is rendered once per element of a list in the Context, and
// the joined result is spliced into the section's wrapper fragment:
//
//	section.notes        metrics      blocks/notes.html + blocks/note.html
//	section.vulns        vulns.vulns  blocks/vulns.html + blocks/vuln.html
//	section.performance  perfitems    blocks/performance.html + blocks/perf-item.html
//	section.obsRule      rules        blocks/obsRules.html + blocks/obsRule.html
//
// Rendering is one left-to-right pass over the outer template. Spliced
// section output is never scanned again, so data containing "{{...}}" is
// emitted as text. Scalar values are HTML-escaped.
package report
