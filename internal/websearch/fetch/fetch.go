// Package fetch implements websearch.Fetcher with the original_then_fallback
// strategy (§4.4): try a direct HTTP GET and HTML text extraction first,
// grounded on go-research's tools.FetchTool (extractText/cleanWhitespace
// over golang.org/x/net/html), and fall back to a configurable reader
// service for pages that classify as likely blocked.
package fetch

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/websearch"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; MaestroResearchBot/1.0)"

const maxExtractedChars = 20000

// HTMLExtractor fetches a URL directly and strips it down to readable
// text. It is the "original" half of original_then_fallback.
type HTMLExtractor struct {
	httpClient *http.Client
	userAgent  string
}

// New builds an HTMLExtractor. A nil httpClient uses a 30s-timeout default.
func New(httpClient *http.Client) *HTMLExtractor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTMLExtractor{httpClient: httpClient, userAgent: defaultUserAgent}
}

var _ websearch.Fetcher = (*HTMLExtractor)(nil)

func (e *HTMLExtractor) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", maestro.NewError(maestro.ErrTransientLLM, "build fetch request", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", maestro.NewError(maestro.ErrTransientLLM, "fetch request failed", err)
	}
	defer resp.Body.Close()

	if likelyBlocked(resp.StatusCode) {
		return "", maestro.NewError(maestro.ErrTransientLLM, "fetch likely blocked", nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", maestro.NewError(maestro.ErrTransientLLM, "read fetch body", err)
	}

	text := extractText(string(body))
	if text == "" {
		return "", maestro.NewError(maestro.ErrTransientLLM, "fetch produced no extractable text", nil)
	}
	if len(text) > maxExtractedChars {
		text = text[:maxExtractedChars]
	}
	return text, nil
}

func likelyBlocked(status int) bool {
	return status >= http.StatusBadRequest
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func extractText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		tagRe := regexp.MustCompile(`<[^>]*>`)
		return cleanWhitespace(tagRe.ReplaceAllString(htmlContent, ""))
	}

	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
			text.WriteString(" ")
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	return cleanWhitespace(text.String())
}

func cleanWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// ReaderServiceFetcher falls back to a configurable JS-capable reader
// service (e.g. a self-hosted headless-browser-backed endpoint) for pages
// HTMLExtractor classified as likely blocked.
type ReaderServiceFetcher struct {
	httpClient *http.Client
	baseURL    string
}

// NewReaderService builds a ReaderServiceFetcher. baseURL is prefixed
// directly onto the target URL (the convention readers like r.jina.ai use:
// GET {baseURL}{targetURL}).
func NewReaderService(httpClient *http.Client, baseURL string) *ReaderServiceFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 45 * time.Second}
	}
	return &ReaderServiceFetcher{httpClient: httpClient, baseURL: baseURL}
}

var _ websearch.Fetcher = (*ReaderServiceFetcher)(nil)

func (r *ReaderServiceFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+rawURL, nil)
	if err != nil {
		return "", maestro.NewError(maestro.ErrTransientLLM, "build reader-service request", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", maestro.NewError(maestro.ErrTransientLLM, "reader-service request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", maestro.NewError(maestro.ErrTransientLLM, "reader-service rejected fetch", nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", maestro.NewError(maestro.ErrTransientLLM, "read reader-service body", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// Fallback implements websearch.Fetcher as original_then_fallback: try
// Primary, and on any error from it (which HTMLExtractor returns only for
// likely-blocked/transient conditions), try Secondary.
type Fallback struct {
	Primary   websearch.Fetcher
	Secondary websearch.Fetcher
}

var _ websearch.Fetcher = (*Fallback)(nil)

func (f *Fallback) Fetch(ctx context.Context, rawURL string) (string, error) {
	text, err := f.Primary.Fetch(ctx, rawURL)
	if err == nil {
		return text, nil
	}
	if f.Secondary == nil {
		return "", err
	}
	return f.Secondary.Fetch(ctx, rawURL)
}
