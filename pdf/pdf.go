// Package pdf turns rendered HTML reports into PDF files with headless Chrome.
package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Renderer writes html to outPath as a PDF.
type Renderer interface {
	Render(ctx context.Context, html, outPath string) error
}

// ChromeRenderer prints HTML through a headless Chrome instance.
type ChromeRenderer struct {
	ExecPath  string // empty: let chromedp find Chrome
	NoSandbox bool
	Timeout   time.Duration
}

// Render loads html into a blank page and prints it with backgrounds on.
func (r ChromeRenderer) Render(ctx context.Context, html, outPath string) error {
	if outPath == "" {
		return fmt.Errorf("pdf: no output path")
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
	)
	if r.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if r.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var buf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return fmt.Errorf("print pdf: %w", err)
	}
	return WriteFile(outPath, buf)
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// HTMLPath is where the HTML a PDF was printed from is kept.
func HTMLPath(pdfPath string) string {
	return pdfPath[:len(pdfPath)-len(filepath.Ext(pdfPath))] + ".html"
}
