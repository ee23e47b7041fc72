package feed

// Source is a tracked remote feed endpoint contributing items. Title and
// Description are the channel header values captured on first successful
// fetch; later refreshes never rewrite them.
type Source struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ParsedItem is a single entry extracted from a feed document, before it has
// been admitted into the aggregate stream.
type ParsedItem struct {
	Title       string
	Link        string
	Description string
}

// ParsedFeed is the canonical in-memory form of one fetched document.
type ParsedFeed struct {
	Title       string
	Description string
	Items       []ParsedItem
}

// Item is an entry admitted into the aggregate stream. ID is assigned once,
// at first appearance, and is never reused for a different title. Read is
// owned by the mark-as-read collaborator and must survive merges untouched.
type Item struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Read        bool   `json:"read"`
}
