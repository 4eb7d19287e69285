package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText returns the visible text of a posting description.
// Collectors hand over descriptions either as plain text or as the board's HTML
// fragment; both come back as a single whitespace-collapsed string.
func PlainText(description string) string {
	if !strings.ContainsAny(description, "<&") {
		return collapseSpace(description)
	}

	doc, err := html.Parse(strings.NewReader(description))
	if err != nil {
		return collapseSpace(description)
	}

	return collapseSpace(extractVisibleText(doc))
}

// extractVisibleText extracts text nodes from HTML, skipping scripts/styles
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
