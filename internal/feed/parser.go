package feed

import (
	"bytes"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Parse turns a raw RSS document into its canonical form. The channel must
// carry a title and a description. Items lacking a title or link are skipped
// so a single malformed entry cannot poison an otherwise healthy feed.
// Deterministic, no side effects.
func Parse(document []byte) (ParsedFeed, error) {
	root, err := xmlquery.Parse(bytes.NewReader(document))
	if err != nil {
		return ParsedFeed{}, &ParseError{Reason: "malformed document: " + err.Error()}
	}
	channel := xmlquery.FindOne(root, "//channel")
	if channel == nil {
		return ParsedFeed{}, &ParseError{Reason: "document has no channel element"}
	}
	title := childText(channel, "title")
	if title == "" {
		return ParsedFeed{}, &ParseError{Reason: "channel is missing a title"}
	}
	description := childText(channel, "description")
	if description == "" {
		return ParsedFeed{}, &ParseError{Reason: "channel is missing a description"}
	}

	parsed := ParsedFeed{Title: title, Description: description}
	for _, node := range xmlquery.Find(channel, "item") {
		item := ParsedItem{
			Title:       childText(node, "title"),
			Link:        childText(node, "link"),
			Description: childText(node, "description"),
		}
		if item.Title == "" || item.Link == "" {
			continue
		}
		parsed.Items = append(parsed.Items, item)
	}
	return parsed, nil
}

func childText(node *xmlquery.Node, name string) string {
	child := xmlquery.FindOne(node, name)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.InnerText())
}
