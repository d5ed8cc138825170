package outbreak

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var whitespace = regexp.MustCompile(`[\s\p{Zs}]+`)

// Fallbacks for optional feed fields.
const (
	NoSummary   = "No summary provided"
	UnknownDate = "Unknown"
)

// maxSummaryRunes keeps tool results small enough for the model context.
const maxSummaryRunes = 600

// CleanSummary reduces a feed overview to its visible text: markup,
// comments, scripts and styles are dropped, entities decoded, whitespace
// squeezed and long text truncated.  Empty input yields NoSummary.
func CleanSummary(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return NoSummary
	}
	var sb strings.Builder
	visibleText(doc, &sb)

	text := strings.TrimSpace(whitespace.ReplaceAllString(sb.String(), " "))
	if text == "" {
		return NoSummary
	}
	runes := []rune(text)
	if len(runes) > maxSummaryRunes {
		return strings.TrimSpace(string(runes[:maxSummaryRunes])) + "..."
	}
	return text
}

// blockElements end a run of text; inline elements join their neighbours.
var blockElements = map[string]bool{
	"p": true, "br": true, "div": true, "li": true, "ul": true, "ol": true,
	"tr": true, "td": true, "th": true, "table": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

func visibleText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template", "iframe", "svg":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visibleText(c, sb)
	}
	if n.Type == html.ElementNode && blockElements[n.Data] {
		sb.WriteString(" ")
	}
}

// CleanDate returns the publication date unchanged, or UnknownDate.
func CleanDate(raw string) string {
	if d := strings.TrimSpace(raw); d != "" {
		return d
	}
	return UnknownDate
}

// ItemURL substitutes the path-escaped item identifier into the {id}
// placeholder of tmpl.  An entry without identifier gets no link.
func ItemURL(tmpl, id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	return strings.ReplaceAll(tmpl, "{id}", url.PathEscape(id))
}
