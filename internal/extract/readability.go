package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/wookiisky/think-bot/internal/errors"
	"github.com/wookiisky/think-bot/internal/logger"
)

// fetchTimeout bounds a single page fetch.
const fetchTimeout = 30 * time.Second

// maxPageBytes caps how much HTML is read from a page.
const maxPageBytes = 5 << 20 // 5MB

// minContentLength is the readability success threshold: shorter results
// are treated as an extraction failure so the retry policy can fall back.
const minContentLength = 80

// ReadabilityExtractor fetches the page and extracts its main text content
// locally, preferring article/main containers and dropping chrome elements.
type ReadabilityExtractor struct {
	Client *http.Client
}

func NewReadabilityExtractor() *ReadabilityExtractor {
	return &ReadabilityExtractor{Client: &http.Client{Timeout: fetchTimeout}}
}

func (e *ReadabilityExtractor) Name() string { return MethodReadability }

func (e *ReadabilityExtractor) Extract(ctx context.Context, pageURL string) (string, error) {
	if isRestrictedURL(pageURL) {
		return "", errors.PageRestricted(pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", errors.ExtractFailed(MethodReadability, pageURL, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; thinkbot)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", errors.ExtractFailed(MethodReadability, pageURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return "", errors.PageRestricted(pageURL)
	case resp.StatusCode != http.StatusOK:
		return "", errors.ExtractFailed(MethodReadability, pageURL,
			fmt.Errorf("status %d", resp.StatusCode))
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", errors.ExtractFailed(MethodReadability, pageURL, err)
	}

	content := extractReadable(doc)
	if len(content) < minContentLength {
		logger.Debug("Extract: Readability produced %d chars for %s, treating as failure", len(content), pageURL)
		return "", errors.ExtractFailed(MethodReadability, pageURL,
			fmt.Errorf("no readable content found"))
	}
	return content, nil
}

// Title returns the page title from parsed HTML, empty when absent.
func Title(doc *html.Node) string {
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

// skippedElements never contribute readable content.
var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"nav": true, "header": true, "footer": true, "aside": true,
	"form": true, "iframe": true, "svg": true, "button": true,
}

// extractReadable extracts the main text of a parsed page. It prefers an
// <article> or <main> container; failing that it takes the whole <body>.
func extractReadable(doc *html.Node) string {
	root := findContainer(doc, "article")
	if root == nil {
		root = findContainer(doc, "main")
	}
	if root == nil {
		root = findContainer(doc, "body")
	}
	if root == nil {
		root = doc
	}

	var sb strings.Builder
	if title := Title(doc); title != "" {
		sb.WriteString("# " + title + "\n\n")
	}
	renderText(root, &sb)

	// Collapse runs of blank lines left behind by dropped elements.
	lines := strings.Split(sb.String(), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func findContainer(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findContainer(c, name); found != nil {
			return found
		}
	}
	return nil
}

// blockElements get a blank line after their content.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "blockquote": true, "pre": true, "table": true, "tr": true,
	"ul": true, "ol": true, "br": true,
}

func renderText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
		return
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
		// Headings carry their level through as markdown.
		if len(n.Data) == 2 && n.Data[0] == 'h' && n.Data[1] >= '1' && n.Data[1] <= '6' {
			sb.WriteString("\n" + strings.Repeat("#", int(n.Data[1]-'0')) + " ")
		}
		if n.Data == "li" {
			sb.WriteString("- ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(c, sb)
	}
	if n.Type == html.ElementNode && blockElements[n.Data] {
		sb.WriteString("\n")
	}
}
