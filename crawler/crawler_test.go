package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyseguys/site-audit/config"
	"github.com/wyseguys/site-audit/logger"
	"github.com/wyseguys/site-audit/target"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	pages := map[string]string{
		"/": `<a href="/about">About</a>
			<a href="/about#team">Team</a>
			<a href="https://elsewhere.example/">Out</a>
			<a href="mailto:x@example.com">Mail</a>
			<a href="/brochure.pdf">PDF</a>
			<a href="/blog/">Blog</a>`,
		"/about":            `<a href="/">Home</a><a href="/contact">Contact</a>`,
		"/blog/":            `<base href="/blog/posts/"><a href="first">First</a>`,
		"/contact":          `<p>no links</p>`,
		"/blog/posts/first": `<a href="/deep">Deep</a>`,
		"/deep":             `<p>bottom</p>`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body>"+body+"</body></html>")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newCrawler(depth int) *Crawler {
	return New(&config.Config{HTTPTimeout: 5, Concurrency: 2, MaxDepth: depth}, logger.Discard())
}

func TestDiscoverBreadthFirst(t *testing.T) {
	srv := newSite(t)

	got, err := newCrawler(1).Discover(context.Background(), srv.URL+"/", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{
		srv.URL + "/",
		srv.URL + "/about",
		srv.URL + "/blog/",
	}, got, "depth 1 only follows links on the start page")

	got, err = newCrawler(2).Discover(context.Background(), srv.URL+"/", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{
		srv.URL + "/",
		srv.URL + "/about",
		srv.URL + "/blog/",
		srv.URL + "/contact",
		srv.URL + "/blog/posts/first",
	}, got, "/deep is three links from the start page")

	got, err = newCrawler(3).Discover(context.Background(), srv.URL+"/", 10)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/deep", got[len(got)-1])
	assert.Len(t, got, 6)

	got, err = newCrawler(0).Discover(context.Background(), srv.URL+"/", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/"}, got)
}

func TestDiscoverLimit(t *testing.T) {
	srv := newSite(t)

	got, err := newCrawler(5).Discover(context.Background(), srv.URL+"/", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/", srv.URL + "/about"}, got)

	got, err = newCrawler(5).Discover(context.Background(), srv.URL+"/", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/"}, got)
}

type denyPath string

func (d denyPath) Allowed(_ context.Context, t *target.Target) (bool, error) {
	return !strings.HasPrefix(t.URL.Path, string(d)), nil
}

func TestDiscoverRespectsRobots(t *testing.T) {
	srv := newSite(t)
	c := newCrawler(1)
	c.Robots = denyPath("/blog")

	got, err := c.Discover(context.Background(), srv.URL+"/", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/", srv.URL + "/about"}, got)
}

func TestDiscoverSkipsBrokenPages(t *testing.T) {
	srv := newSite(t)
	got, err := newCrawler(1).Discover(context.Background(), srv.URL+"/missing", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/missing"}, got)
}

func TestExtractLinks(t *testing.T) {
	links, err := extractLinks("https://example.com/a/b", strings.NewReader(
		`<a href="c">rel</a><a href="/d">abs</a><a href="">empty</a><a name="x">no href</a><img src="/e.png">`))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a/c", "https://example.com/d"}, links)
}

func TestDiscoverFetchesRobotsOnce(t *testing.T) {
	var robotsHits atomic.Int32
	var links strings.Builder
	for i := range 30 {
		fmt.Fprintf(&links, `<a href="/p%d">one</a><a href="/p%d">two</a>`, i, i)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			fmt.Fprint(w, "User-agent: *\nDisallow: /p1\n")
			return
		}
		w.Header().Set("Content-Type", "text/html")
		if r.URL.Path == "/" {
			fmt.Fprint(w, links.String())
			return
		}
		fmt.Fprint(w, "<p>leaf</p>")
	}))
	defer srv.Close()

	c := newCrawler(2)
	c.Robots = target.NewRobotsChecker("site-audit", 5*time.Second)

	got, err := c.Discover(context.Background(), srv.URL+"/", 100)
	require.NoError(t, err)
	// /p1 and /p10 to /p19 are disallowed.
	assert.Len(t, got, 20)
	assert.NotContains(t, got, srv.URL+"/p1")
	assert.Contains(t, got, srv.URL+"/p29")
	assert.EqualValues(t, 1, robotsHits.Load())
}
