package export

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ErrPDFDependencyMissing means no headless browser is available.
var ErrPDFDependencyMissing = errors.New("pdf renderer unavailable")

var browserNames = []string{"chromium", "chromium-browser", "google-chrome", "google-chrome-stable"}

// Renderer turns an HTML page into PDF bytes.
type Renderer interface {
	PDF(ctx context.Context, html string) ([]byte, error)
}

// ChromeRenderer prints pages with headless Chrome.
type ChromeRenderer struct {
	// ExecPath pins the browser binary; empty searches PATH.
	ExecPath string
	Timeout  time.Duration
}

func (r ChromeRenderer) browser() (string, error) {
	if r.ExecPath != "" {
		path, err := exec.LookPath(r.ExecPath)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrPDFDependencyMissing, r.ExecPath)
		}
		return path, nil
	}
	for _, name := range browserNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: chromium not installed", ErrPDFDependencyMissing)
}

// PDF prints html on an A4 page.
func (r ChromeRenderer) PDF(ctx context.Context, html string) ([]byte, error) {
	path, err := r.browser()
	if err != nil {
		return nil, err
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(path),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var out []byte
	err = chromedp.Run(taskCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			out, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome pdf generation failed: %w", err)
	}
	return out, nil
}
