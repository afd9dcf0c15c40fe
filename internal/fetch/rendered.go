package fetch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const (
	renderTimeout = 25 * time.Second
	// renderIdleWait is how long the network must stay quiet before the
	// rendered DOM is considered settled.
	renderIdleWait = 600 * time.Millisecond
)

// Renderer drives a shared headless browser allocator. One Renderer
// serves many Render calls; each call gets its own browser context.
type Renderer struct {
	allocator context.Context
	cancel    context.CancelFunc
	logger    *log.Logger
}

// NewRenderer prepares a headless allocator. Close releases it.
func NewRenderer(logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.Default()
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-extensions", true),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Renderer{allocator: allocCtx, cancel: cancel, logger: logger}
}

func (r *Renderer) Close() {
	if r.cancel != nil {
		r.cancel()
	}
}

// Render loads target in the browser, waits for the network to go idle
// and returns the rendered markup with the final location.
func (r *Renderer) Render(ctx context.Context, target, userAgent string) (string, string, error) {
	if strings.TrimSpace(target) == "" {
		return "", "", fmt.Errorf("render: empty target url")
	}

	taskCtx, cancelBrowser := chromedp.NewContext(r.allocator)
	defer cancelBrowser()

	// Bind to the caller's context so its cancellation reaches the browser.
	if ctx != nil {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithCancel(taskCtx)
		go func() {
			select {
			case <-ctx.Done():
				cancel()
			case <-taskCtx.Done():
			}
		}()
		defer cancel()
	}
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, renderTimeout)
	defer cancelTimeout()

	var mu sync.Mutex
	activeRequests := 0
	lastActivity := time.Now()
	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			mu.Lock()
			activeRequests++
			lastActivity = time.Now()
			mu.Unlock()
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			mu.Lock()
			if activeRequests > 0 {
				activeRequests--
			}
			lastActivity = time.Now()
			mu.Unlock()
		}
	})

	actions := []chromedp.Action{network.Enable()}
	if userAgent != "" {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetUserAgentOverride(userAgent).Do(ctx)
		}))
	}

	var finalURL, htmlText string
	actions = append(actions,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			ticker := time.NewTicker(50 * time.Millisecond)
			defer ticker.Stop()
			for {
				mu.Lock()
				active := activeRequests
				quiet := time.Since(lastActivity)
				mu.Unlock()
				if active == 0 && quiet >= renderIdleWait {
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
				}
			}
		}),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &htmlText, chromedp.ByQuery),
	)

	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return "", "", fmt.Errorf("render %s: %w", target, err)
	}
	if finalURL == "" {
		finalURL = target
	}
	r.logger.Debug("rendered page", "url", finalURL, "bytes", len(htmlText))
	return htmlText, finalURL, nil
}
