package report

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

//go:embed templates
var embedded embed.FS

// Loader returns fragment and template sources by slash-separated name,
// e.g. "templates/lighthouse.html" or "blocks/note.html".
type Loader interface {
	Load(name string) (string, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(name string) (string, error)

func (f LoaderFunc) Load(name string) (string, error) { return f(name) }

// EmbeddedLoader serves the templates compiled into the binary.
type EmbeddedLoader struct{}

func (EmbeddedLoader) Load(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	b, err := embedded.ReadFile(path.Join("templates", name))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DirLoader reads templates from a directory on disk laid out like the
// embedded set.
type DirLoader struct {
	Dir string
}

func (d DirLoader) Load(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	b, err := os.ReadFile(filepath.Join(d.Dir, filepath.FromSlash(name)))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FallbackLoader tries each loader in order and returns the first hit. Only a
// not-found error moves on to the next loader.
type FallbackLoader []Loader

func (f FallbackLoader) Load(name string) (string, error) {
	var lastErr error = fs.ErrNotExist
	for _, l := range f {
		s, err := l.Load(name)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

// NewLoader returns the default loader: templates from dir (if set) override
// the embedded ones, and every source is read at most once.
func NewLoader(dir string) Loader {
	var l Loader = EmbeddedLoader{}
	if dir != "" {
		l = FallbackLoader{DirLoader{Dir: dir}, EmbeddedLoader{}}
	}
	return NewCachedLoader(l)
}

// CachedLoader memoizes another loader. Failures are not cached.
type CachedLoader struct {
	next  Loader
	mu    sync.Mutex
	cache map[string]string
}

func NewCachedLoader(next Loader) *CachedLoader {
	return &CachedLoader{next: next, cache: map[string]string{}}
}

func (c *CachedLoader) Load(name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.cache[name]; ok {
		return s, nil
	}
	s, err := c.next.Load(name)
	if err != nil {
		return "", err
	}
	c.cache[name] = s
	return s, nil
}

func checkName(name string) error {
	if name == "" || path.IsAbs(name) || strings.Contains(name, "\\") {
		return fmt.Errorf("invalid template name %q", name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return fmt.Errorf("invalid template name %q", name)
		}
	}
	return nil
}
