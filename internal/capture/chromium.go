package capture

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Default viewport for the week grid page. Wide enough that seven day
// columns stay readable in the captured image.
const (
	DefaultWidth      = 1280
	DefaultHeight     = 960
	DefaultTimeoutSec = 30
)

// Options defines parameters for a Chromium-based snapshot of the week grid.
type Options struct {
	// BaseURL of the running server, e.g. "http://127.0.0.1:8080".
	BaseURL string

	// Anchor selects the week to capture as a YYYY-MM-DD date. Empty means
	// the page's default (the current week).
	Anchor string

	// OutputPath is where the PNG will be written, e.g.
	// "/var/lib/coursegrid/preview.png". Parent directories are created as
	// needed.
	OutputPath string

	// Username and Password are sent as an Authorization header when the
	// server has HTTP Basic Auth enabled.
	Username string
	Password string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation. If zero, DefaultTimeoutSec
	// is used.
	Timeout time.Duration
}

func (o *Options) pageURL() (string, error) {
	u, err := url.Parse(o.BaseURL)
	if err != nil {
		return "", fmt.Errorf("capture: invalid base URL %q: %w", o.BaseURL, err)
	}
	if o.Anchor != "" {
		q := u.Query()
		q.Set("anchor", o.Anchor)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// WeekPNG renders the week grid in headless Chromium and returns the PNG
// bytes. The page signals rendering completion by setting data-ready="true"
// on the grid root once the /api/week response has been laid out; WeekPNG
// waits for that attribute before taking the screenshot.
func WeekPNG(parentCtx context.Context, opts Options) ([]byte, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("capture: BaseURL is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}

	target, err := opts.pageURL()
	if err != nil {
		return nil, err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
	}
	if opts.Username != "" && opts.Password != "" {
		cred := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password))
		tasks = append(tasks,
			network.Enable(),
			network.SetExtraHTTPHeaders(network.Headers{"Authorization": "Basic " + cred}),
		)
	}
	tasks = append(tasks,
		chromedp.Navigate(target),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(500*time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	)

	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("capture: chromedp run failed: %w", err)
	}
	return png, nil
}

// WeekPNGToFile captures the week grid and writes the PNG to opts.OutputPath.
func WeekPNGToFile(parentCtx context.Context, opts Options) error {
	if opts.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}

	png, err := WeekPNG(parentCtx, opts)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(opts.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("capture: failed to create output dir: %w", err)
		}
	}
	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	return nil
}
