package fetcher

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"gumtree-monitor/internal/config"
	"gumtree-monitor/internal/observability"
)

// RodFetcher renders the page in headless Chromium. It follows the same
// contract as Fetcher and is used when rod.enabled is set.
type RodFetcher struct {
	browser *rod.Browser
	cfg     *config.Config
	logger  *observability.Logger
}

func NewRodFetcher(cfg *config.Config, logger *observability.Logger) (*RodFetcher, error) {
	l := launcher.New().Headless(cfg.Rod.Headless)
	if cfg.Rod.ChromePath != "" {
		l = l.Bin(cfg.Rod.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	logger.Info("Browser fetcher ready", "headless", cfg.Rod.Headless)

	return &RodFetcher{
		browser: browser,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

func (r *RodFetcher) Fetch(ctx context.Context, urlStr string) (*FetchResponse, error) {
	r.logger.Info("Requesting page via browser", "url", urlStr)

	// Close goes through the handle without the deadline so a timed-out tab
	// still gets closed.
	tab, err := r.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: open page: %w", urlStr, err)
	}
	defer func() {
		if err := tab.Close(); err != nil {
			r.logger.Warn("Failed to close browser page", "error", err.Error())
		}
	}()

	page := tab.Timeout(r.cfg.GetTotalTimeout())
	defer page.CancelTimeout()

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.cfg.HTTP.UserAgent}); err != nil {
		return nil, fmt.Errorf("fetch %s: set user agent: %w", urlStr, err)
	}

	if len(r.cfg.HTTP.Headers) > 0 {
		dict := make([]string, 0, len(r.cfg.HTTP.Headers)*2)
		for k, v := range r.cfg.HTTP.Headers {
			dict = append(dict, k, v)
		}
		cleanup, err := page.SetExtraHeaders(dict)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: set headers: %w", urlStr, err)
		}
		defer cleanup()
	}

	var docResp proto.NetworkResponseReceived
	waitResp := page.WaitEvent(&docResp)

	if err := page.Navigate(urlStr); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", urlStr, err)
	}
	waitResp()

	status := 0
	if docResp.Response != nil {
		status = docResp.Response.Status
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("fetch %s: %w", urlStr, &StatusError{Code: status, URL: urlStr})
	}

	loading := page.Timeout(r.cfg.GetRodWaitLoadTimeout())
	err = loading.WaitLoad()
	loading.CancelTimeout()
	if err != nil {
		return nil, fmt.Errorf("fetch %s: wait load: %w", urlStr, err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read html: %w", urlStr, err)
	}

	r.logger.Info("Page rendered", "status", status, "bytes", len(html))

	return &FetchResponse{
		StatusCode: status,
		Body:       []byte(html),
		URL:        urlStr,
		Headers:    http.Header{},
	}, nil
}

func (r *RodFetcher) Close() error {
	return r.browser.Close()
}
