package report

import (
	"fmt"
	"strings"
)

// Engine renders report templates. It holds no per-render state and may be
// reused for any number of renders.
type Engine struct {
	loader Loader
}

// NewEngine returns an engine reading templates and fragments from loader.
// A nil loader means the embedded templates.
func NewEngine(loader Loader) *Engine {
	if loader == nil {
		loader = NewLoader("")
	}
	return &Engine{loader: loader}
}

// RenderKind renders the stock template for kind (templates/<kind>.html).
func (e *Engine) RenderKind(kind Kind, ctx *Context) (string, error) {
	if _, err := VocabularyFor(kind); err != nil {
		return "", err
	}
	name := "templates/" + string(kind) + ".html"
	src, err := e.loader.Load(name)
	if err != nil {
		return "", newRenderError(kind, name, fmt.Errorf("%w: %v", ErrFragmentLoad, err))
	}
	return e.Render(kind, ctx, src)
}

// Render substitutes every placeholder of src in one pass. Section output is
// spliced in as-is and is not scanned again.
func (e *Engine) Render(kind Kind, ctx *Context, src string) (string, error) {
	tokens, err := VocabularyFor(kind)
	if err != nil {
		return "", err
	}
	out, err := CompileMatcher(tokens).Replace(src, func(token string) (string, error) {
		return e.Resolve(token, ctx)
	})
	if err != nil {
		return "", withKind(kind, err)
	}
	return out, nil
}

// Resolve returns the replacement text for one outer-template token.
func (e *Engine) Resolve(token string, ctx *Context) (string, error) {
	switch {
	case isSectionToken(token):
		return e.ExpandSection(token, ctx)
	case token == "host":
		return resolveHost(ctx)
	case strings.HasPrefix(token, "scores."):
		return resolveScore(token, ctx)
	}
	return lookupScalar(ctx, token)
}

// ExpandSection renders a section.* token: one item fragment per element of
// the section's list, joined in list order and spliced into the wrapper.
func (e *Engine) ExpandSection(token string, ctx *Context) (string, error) {
	sec, ok := SectionFor(token)
	if !ok {
		return "", newRenderError("", token, ErrUnknownToken)
	}
	items, found, err := ctx.List(sec.ListKey)
	if !found {
		return "", newRenderError("", token, fmt.Errorf("%w: %s", ErrMissingSectionData, sec.ListKey))
	}
	if err != nil {
		return "", newRenderError("", token, fmt.Errorf("%w: %v", ErrMissingSectionData, err))
	}

	wrapper, err := e.fragment(sec.Wrapper)
	if err != nil {
		return "", err
	}
	itemSrc, err := e.fragment(sec.Item)
	if err != nil {
		return "", err
	}

	itemMatcher := CompileMatcher(sec.itemTokens())
	var joined strings.Builder
	for _, item := range items {
		rendered, err := itemMatcher.Replace(itemSrc, func(t string) (string, error) {
			return resolveItem(sec, item, ctx, t)
		})
		if err != nil {
			return "", err
		}
		joined.WriteString(rendered)
	}

	return CompileMatcher(sec.wrapperTokens()).Replace(wrapper, func(t string) (string, error) {
		if t == sec.ListToken {
			return joined.String(), nil
		}
		return lookupScalar(ctx, sec.WrapperValues[t])
	})
}

func (e *Engine) fragment(name string) (string, error) {
	s, err := e.loader.Load(name)
	if err != nil {
		return "", newRenderError("", name, fmt.Errorf("%w: %v", ErrFragmentLoad, err))
	}
	return s, nil
}

func resolveItem(sec *Section, item Record, ctx *Context, token string) (string, error) {
	field, ok := strings.CutPrefix(token, sec.ItemPrefix+".")
	if !ok {
		// passthrough from the outer context
		return lookupScalar(ctx, token)
	}
	if fn, ok := sec.Fields[field]; ok {
		s, err := fn(item)
		if err != nil {
			return "", newRenderError("", token, fmt.Errorf("%w: %v", ErrMissingContextValue, err))
		}
		return escape(s), nil
	}
	v, ok := item[field]
	if !ok {
		return "", newRenderError("", token, ErrMissingContextValue)
	}
	s, err := scalarString(v)
	if err != nil {
		return "", newRenderError("", token, fmt.Errorf("%w: %v", ErrMissingContextValue, err))
	}
	return escape(s), nil
}

func lookupScalar(ctx *Context, path string) (string, error) {
	v, ok := ctx.Lookup(path)
	if !ok {
		return "", newRenderError("", path, ErrMissingContextValue)
	}
	s, err := scalarString(v)
	if err != nil {
		return "", newRenderError("", path, fmt.Errorf("%w: %v", ErrMissingContextValue, err))
	}
	return escape(s), nil
}

func resolveScore(token string, ctx *Context) (string, error) {
	name, attr, ok := strings.Cut(strings.TrimPrefix(token, "scores."), ".")
	if !ok {
		return lookupScalar(ctx, token)
	}
	v, ok := ctx.Score(name, attr)
	if !ok {
		return "", newRenderError("", token, ErrMissingContextValue)
	}
	s, err := scalarString(v)
	if err != nil {
		return "", newRenderError("", token, fmt.Errorf("%w: %v", ErrMissingContextValue, err))
	}
	return escape(s), nil
}

func resolveHost(ctx *Context) (string, error) {
	v, ok := ctx.Lookup("url")
	if !ok {
		return "", newRenderError("", "host", fmt.Errorf("%w: url", ErrMissingContextValue))
	}
	raw, err := scalarString(v)
	if err != nil {
		return "", newRenderError("", "host", fmt.Errorf("%w: %v", ErrMissingContextValue, err))
	}
	host, err := HostOf(raw)
	if err != nil {
		return "", newRenderError("", "host", fmt.Errorf("%w: %v", ErrMissingContextValue, err))
	}
	return escape(host), nil
}
