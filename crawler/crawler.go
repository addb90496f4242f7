// Package crawler discovers pages of a site so several of them can be audited
// in one run.
package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/time/rate"

	"github.com/wyseguys/site-audit/config"
	"github.com/wyseguys/site-audit/logger"
	"github.com/wyseguys/site-audit/target"
)

// maxPageBytes caps how much of a page is read for links.
const maxPageBytes = 5 << 20

// skipExt are link targets that are never HTML pages.
var skipExt = map[string]bool{
	".pdf": true, ".zip": true, ".gz": true, ".jpg": true, ".jpeg": true,
	".png": true, ".gif": true, ".svg": true, ".webp": true, ".ico": true,
	".css": true, ".js": true, ".json": true, ".xml": true, ".mp4": true,
	".mp3": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
}

// Robots is the subset of target.RobotsChecker the crawler needs.
type Robots interface {
	Allowed(ctx context.Context, t *target.Target) (bool, error)
}

type Crawler struct {
	client      *http.Client
	log         *logger.Logger
	userAgent   string
	concurrency int
	maxDepth    int
	limiter     *rate.Limiter

	// Robots, when set, filters discovered pages.
	Robots Robots
}

func New(cfg *config.Config, log *logger.Logger) *Crawler {
	every := rate.Inf
	if cfg.RateMs > 0 {
		every = rate.Every(time.Duration(cfg.RateMs) * time.Millisecond)
	}
	return &Crawler{
		client: &http.Client{
			Timeout: time.Duration(cfg.HTTPTimeout) * time.Second,
		},
		log:         log,
		userAgent:   cfg.UserAgent,
		concurrency: max(cfg.Concurrency, 1),
		maxDepth:    cfg.MaxDepth,
		limiter:     rate.NewLimiter(every, 1),
	}
}

// page is the outcome of fetching one URL.
type page struct {
	links []string
	err   error
}

// Discover returns start followed by up to limit-1 further pages on the same
// host, breadth first, at most maxDepth links away from start. Pages are
// fetched level by level, concurrency at a time, and returned in the order
// their links were found.
func (c *Crawler) Discover(ctx context.Context, start string, limit int) ([]string, error) {
	base, err := url.Parse(start)
	if err != nil {
		return nil, err
	}
	if limit <= 1 {
		return []string{start}, nil
	}
	c.log.Info("Discovering pages from", start)

	seen := map[string]bool{normalize(base): true}
	found := []string{start}
	frontier := []string{start}

	// frontier holds the pages depth links away from start.
	for depth := 0; depth < c.maxDepth && len(frontier) > 0 && len(found) < limit; depth++ {
		pages := c.fetchAll(ctx, frontier)
		if err := ctx.Err(); err != nil {
			return found, err
		}

		var next []string
		for i, p := range pages {
			if p.err != nil {
				c.log.Error("Error fetching", frontier[i], ":", p.err)
				continue
			}
			for _, link := range p.links {
				if len(found) >= limit {
					break
				}
				u, ok := candidate(base, link)
				if !ok {
					continue
				}
				key := normalize(u)
				if seen[key] {
					continue
				}
				seen[key] = true
				if !c.allowed(ctx, u) {
					continue
				}
				found = append(found, u.String())
				next = append(next, u.String())
			}
		}
		frontier = next
	}

	c.log.Debug("Discovered", len(found), "pages")
	return found, nil
}

// fetchAll fetches urls with at most c.concurrency requests in flight, started
// no faster than the configured rate, and returns results in input order.
func (c *Crawler) fetchAll(ctx context.Context, urls []string) []page {
	pages := make([]page, len(urls))
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup

	for i, u := range urls {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, u string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := c.limiter.Wait(ctx); err != nil {
				pages[i] = page{err: err}
				return
			}
			links, err := c.fetchLinks(ctx, u)
			pages[i] = page{links: links, err: err}
		}(i, u)
	}
	wg.Wait()
	return pages
}

func (c *Crawler) fetchLinks(ctx context.Context, rawURL string) ([]string, error) {
	c.log.Debug("Fetching", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		return nil, nil
	}
	return extractLinks(rawURL, io.LimitReader(resp.Body, maxPageBytes))
}

// candidate resolves link and reports whether it is an auditable page of the
// start host.
func candidate(base *url.URL, link string) (*url.URL, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	if !strings.EqualFold(u.Hostname(), base.Hostname()) {
		return nil, false
	}
	if skipExt[strings.ToLower(path.Ext(u.Path))] {
		return nil, false
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u, true
}

// allowed checks u against robots.txt when the crawler has a Robots.
func (c *Crawler) allowed(ctx context.Context, u *url.URL) bool {
	if c.Robots == nil {
		return true
	}
	t, err := target.Parse(u.String())
	if err != nil {
		return false
	}
	ok, err := c.Robots.Allowed(ctx, t)
	if err != nil {
		c.log.Error("Checking robots.txt for", u.String(), ":", err)
		return false
	}
	if !ok {
		c.log.Debug("Skipping", u.String(), "(robots.txt)")
	}
	return ok
}

// normalize is the key two URLs share when they are the same page.
func normalize(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	key := strings.ToLower(u.Host) + p
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key
}

// extractLinks parses HTML and returns all href values found on <a> tags.
func extractLinks(baseURL string, r io.Reader) ([]string, error) {
	var links []string
	tokenizer := html.NewTokenizer(r)

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			if tokenizer.Err() == io.EOF {
				return links, nil
			}
			return links, tokenizer.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			t := tokenizer.Token()
			if t.DataAtom == atom.Base {
				for _, attr := range t.Attr {
					if attr.Key == "href" {
						if b, err := base.Parse(strings.TrimSpace(attr.Val)); err == nil {
							base = b
						}
					}
				}
			}
			if t.DataAtom != atom.A {
				continue
			}
			for _, attr := range t.Attr {
				if attr.Key != "href" {
					continue
				}
				href := strings.TrimSpace(attr.Val)
				if href == "" {
					continue
				}
				if parsed, err := base.Parse(href); err == nil {
					links = append(links, parsed.String())
				}
			}
		}
	}
}
