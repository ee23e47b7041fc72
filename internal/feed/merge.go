package feed

import (
	"fmt"
	"strings"
)

// DedupKey is the identity under which items are deduplicated: the
// lowercase-trimmed title. Two sources publishing an item with the same
// title contribute one entry to the stream.
func DedupKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Merge folds incoming parsed items into the existing stream. Items whose
// dedup key is already present are discarded without touching the existing
// entry (first-seen wins, including link and description). Survivors get a
// fresh engine id, start unread, and are prepended in their incoming order;
// existing items keep their order and their read flags bit for bit. Merging
// the same batch twice is a no-op the second time.
func Merge(existing []Item, incoming []ParsedItem, ids IDGenerator) ([]Item, error) {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, item := range existing {
		seen[DedupKey(item.Title)] = struct{}{}
	}

	survivors := make([]Item, 0, len(incoming))
	for _, in := range incoming {
		key := DedupKey(in.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		id, err := ids.NewID()
		if err != nil {
			return nil, fmt.Errorf("assign item id: %w", err)
		}
		survivors = append(survivors, Item{
			ID:          id,
			Title:       in.Title,
			Link:        in.Link,
			Description: in.Description,
		})
	}
	if len(survivors) == 0 {
		return existing, nil
	}
	merged := make([]Item, 0, len(survivors)+len(existing))
	merged = append(merged, survivors...)
	merged = append(merged, existing...)
	return merged, nil
}
