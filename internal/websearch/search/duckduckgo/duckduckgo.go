// Package duckduckgo implements websearch.Searcher against DuckDuckGo's
// no-JS HTML results page, fleshing out the teacher's
// ai/providers/tools/duckduckgo.DuckDuckGo stub (a chat.CallableTool whose
// Call panicked with "implement me") into a real scraper, following
// go-research's tools.SearchTool for the HTTP client shape (a bounded
// timeout, a descriptive User-Agent, status-code error wrapping).
package duckduckgo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/websearch"
)

const endpoint = "https://html.duckduckgo.com/html/"

const defaultUserAgent = "Mozilla/5.0 (compatible; MaestroResearchBot/1.0)"

// Searcher implements websearch.Searcher against DuckDuckGo's HTML
// endpoint, which unlike the JSON API requires no subscription token.
type Searcher struct {
	httpClient *http.Client
	userAgent  string
	endpoint   string
}

// New builds a Searcher. A nil httpClient uses a 15s-timeout default.
func New(httpClient *http.Client) *Searcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Searcher{httpClient: httpClient, userAgent: defaultUserAgent, endpoint: endpoint}
}

var _ websearch.Searcher = (*Searcher)(nil)

func (s *Searcher) Search(ctx context.Context, query string, count int) ([]websearch.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, maestro.NewError(maestro.ErrTransientLLM, "build duckduckgo request", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, maestro.NewError(maestro.ErrTransientLLM, "duckduckgo request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, maestro.NewError(maestro.ErrTransientLLM, fmt.Sprintf("duckduckgo status %d: %s", resp.StatusCode, truncate(string(body), 200)), nil)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, maestro.NewError(maestro.ErrProviderContract, "parse duckduckgo response", err)
	}

	results := parseResults(doc)
	if count > 0 && len(results) > count {
		results = results[:count]
	}
	return results, nil
}

// parseResults walks the parsed HTML tree looking for DuckDuckGo's
// result__a (title+link) and result__snippet anchors, pairing them in
// document order.
func parseResults(doc *html.Node) []websearch.SearchResult {
	var results []websearch.SearchResult
	var pending websearch.SearchResult
	var haveTitle bool

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			class := attr(n, "class")
			switch {
			case strings.Contains(class, "result__a"):
				if haveTitle && pending.URL != "" {
					results = append(results, pending)
				}
				pending = websearch.SearchResult{Title: textOf(n), URL: resolveRedirect(attr(n, "href"))}
				haveTitle = true
			case strings.Contains(class, "result__snippet"):
				pending.Snippet = textOf(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if haveTitle && pending.URL != "" {
		results = append(results, pending)
	}
	return results
}

// resolveRedirect unwraps DuckDuckGo's "/l/?uddg=<encoded-url>" redirect
// links into the real destination URL.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if encoded := u.Query().Get("uddg"); encoded != "" {
		if decoded, err := url.QueryUnescape(encoded); err == nil {
			return decoded
		}
	}
	return href
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
