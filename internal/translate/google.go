package translate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/ironsheep/porto-guide/internal/httputil"
)

// ErrNoResult is returned when the translation page has no result element.
var ErrNoResult = errors.New("translation result not found in response")

// maxChars is the longest text the mobile page accepts in one request.
const maxChars = 5000

// Google translates through the Google Translate mobile web page.
type Google struct {
	baseURL string
	client  *http.Client
}

// NewGoogle creates a translator. An empty baseURL uses
// https://translate.google.com.
func NewGoogle(baseURL string, timeout time.Duration) *Google {
	if baseURL == "" {
		baseURL = "https://translate.google.com"
	}
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Google{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Translate translates text from source ("auto" to detect) to target.
func (g *Google) Translate(ctx context.Context, text, source, target string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	if len([]rune(text)) > maxChars {
		return "", fmt.Errorf("text of %d characters exceeds the %d character limit", len([]rune(text)), maxChars)
	}
	if source == "" {
		source = "auto"
	}
	if source == target {
		return text, nil
	}

	params := url.Values{}
	params.Set("sl", source)
	params.Set("tl", target)
	params.Set("q", text)

	var out string
	err := httputil.Retry(ctx, 3, 500*time.Millisecond, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/m?"+params.Encode(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 10) porto-guide")

		body, err := httputil.Do(g.client, req)
		if err != nil {
			return err
		}
		out, err = parseResult(body)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("translate to %s: %w", target, err)
	}
	return out, nil
}

// parseResult extracts the text of the first div with class
// "result-container".
func parseResult(body []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse translation page: %w", err)
	}

	node := findByClass(doc, "div", "result-container")
	if node == nil {
		return "", ErrNoResult
	}

	var sb strings.Builder
	collectText(node, &sb)
	return strings.TrimSpace(sb.String()), nil
}

func findByClass(n *html.Node, tag, class string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		for _, a := range n.Attr {
			if a.Key == "class" && hasClass(a.Val, class) {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, tag, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(attr, class string) bool {
	for _, c := range strings.Fields(attr) {
		if c == class {
			return true
		}
	}
	return false
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

var _ Translator = (*Google)(nil)
