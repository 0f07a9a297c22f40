package fetcher

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RenderDecision explains whether a page needs the rendering fallback.
type RenderDecision struct {
	Needed bool
	Reason string
}

var (
	frameworkRootMarkers = []string{`id="__next"`, `id="root"`, `id="app"`}
	enableJSPattern      = regexp.MustCompile(`(?i)(enable\s+javascript|javascript\s+is\s+(required|disabled))`)
	commercePattern      = regexp.MustCompile(`(?i)(add\s+to\s+cart|buy\s+now|price)`)
	productTypePattern   = regexp.MustCompile(`"@type"\s*:\s*"Product"`)
	whitespacePattern    = regexp.MustCompile(`\s+`)
)

// NeedsRendering applies a fixed heuristic ladder to raw HTML; the first
// matching rule wins.
func NeedsRendering(html string) RenderDecision {
	if len(html) < 500 {
		return RenderDecision{Needed: true, Reason: "body under 500 chars"}
	}

	text := VisibleText(html)
	if len(text) < 200 {
		for _, marker := range frameworkRootMarkers {
			if strings.Contains(html, marker) {
				return RenderDecision{Needed: true, Reason: "empty JS-framework shell"}
			}
		}
	}

	if enableJSPattern.MatchString(html) {
		return RenderDecision{Needed: true, Reason: "javascript-required warning"}
	}

	if commercePattern.MatchString(html) && !productTypePattern.MatchString(html) && len(html) < 5000 {
		return RenderDecision{Needed: true, Reason: "commerce page without product markup"}
	}

	return RenderDecision{}
}

// VisibleText strips scripts, styles, and markup and returns the collapsed
// text content of the document.
func VisibleText(html string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
	if err != nil {
		return strings.TrimSpace(html)
	}
	doc.Find("script,style,noscript").Remove()
	text := doc.Text()
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// SmartResult is the outcome of a smart fetch, recording whether the render
// fallback was consumed (a cost-tracking signal for persistence).
type SmartResult struct {
	Page         *Page
	UsedRenderer bool
	RenderReason string
}

// SmartClient escalates from a plain fetch to the rendering fallback only
// when the static HTML is unusable.
type SmartClient struct {
	client   *Client
	renderer Renderer
	logger   *slog.Logger
}

// NewSmartClient builds a smart fetcher; renderer may be nil.
func NewSmartClient(client *Client, renderer Renderer, logger *slog.Logger) *SmartClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &SmartClient{client: client, renderer: renderer, logger: logger}
}

// Client returns the plain HTTP fetch client.
func (s *SmartClient) Client() *Client {
	return s.client
}

// Fetch tries a plain fetch first and escalates to the renderer when the
// fetch fails outright or the heuristic says the page needs JavaScript.
// When no renderer is configured the plain result (or error) stands.
func (s *SmartClient) Fetch(ctx context.Context, target *url.URL) (*SmartResult, error) {
	page, err := s.client.Fetch(ctx, target)
	if err != nil {
		if s.renderer == nil {
			return nil, err
		}
		s.logger.Warn("plain fetch failed, escalating to renderer", "url", target.String(), "error", err)
		rendered, rerr := s.renderer.Render(ctx, target)
		if rerr != nil {
			// Return the original fetch error; it is the more diagnostic one.
			return nil, err
		}
		return &SmartResult{Page: rendered, UsedRenderer: true, RenderReason: "plain fetch failed"}, nil
	}

	decision := NeedsRendering(page.HTML())
	if !decision.Needed || s.renderer == nil {
		return &SmartResult{Page: page}, nil
	}

	s.logger.Debug("escalating to renderer", "url", target.String(), "reason", decision.Reason)
	rendered, rerr := s.renderer.Render(ctx, target)
	if rerr != nil {
		s.logger.Warn("renderer failed, keeping static HTML", "url", target.String(), "error", rerr)
		return &SmartResult{Page: page, RenderReason: decision.Reason}, nil
	}
	return &SmartResult{Page: rendered, UsedRenderer: true, RenderReason: decision.Reason}, nil
}
