// Package state owns the aggregate collections of the engine: tracked
// sources in insertion order and the merged item stream, most recently
// discovered first. All mutations funnel through the methods below; each one
// is a single atomic step under the store lock and emits the matching domain
// event, so observers never see a partially applied update.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mellyssy/feedwatch/internal/events"
	"github.com/mellyssy/feedwatch/internal/feed"
)

// ErrItemNotFound is returned by MarkRead for an unknown item id.
var ErrItemNotFound = errors.New("item not found")

// RefreshResult is one source's successful contribution to a refresh cycle.
type RefreshResult struct {
	URL   string
	Items []feed.ParsedItem
}

// Store is the in-memory aggregate state.
type Store struct {
	mu      sync.RWMutex
	sources []feed.Source
	items   []feed.Item

	ids   feed.IDGenerator
	clock feed.Clock
	hub   events.Emitter
}

// New constructs an empty Store.
func New(ids feed.IDGenerator, clock feed.Clock, hub events.Emitter) *Store {
	return &Store{ids: ids, clock: clock, hub: hub}
}

// CommitSource is the submission-commit step: it appends a new Source for
// url unless one is already tracked (first-seen title and description are
// kept in that case) and merges the parsed items into the stream. It returns
// the source and the number of newly admitted items. Any failure leaves the
// store untouched, so all ids are resolved before either collection mutates.
func (s *Store) CommitSource(url string, parsed feed.ParsedFeed) (feed.Source, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, tracked := s.lookupSource(url)
	if !tracked {
		id, err := s.ids.NewID()
		if err != nil {
			return feed.Source{}, 0, fmt.Errorf("assign source id: %w", err)
		}
		src = feed.Source{
			ID:          id,
			URL:         url,
			Title:       parsed.Title,
			Description: parsed.Description,
		}
	}

	merged, err := feed.Merge(s.items, parsed.Items, s.ids)
	if err != nil {
		return feed.Source{}, 0, err
	}
	admitted := len(merged) - len(s.items)
	s.items = merged

	if !tracked {
		s.sources = append(s.sources, src)
		s.hub.Emit(events.Event{
			Type:        events.TypeSourceAdded,
			TS:          s.clock.Now(),
			SourceURL:   url,
			SourceTitle: parsed.Title,
		})
	}
	if admitted > 0 {
		s.hub.Emit(events.Event{
			Type:      events.TypeItemsMerged,
			TS:        s.clock.Now(),
			SourceURL: url,
			Count:     admitted,
		})
	}
	return src, admitted, nil
}

// ApplyRefresh folds all successful batches of one refresh cycle into the
// stream as a single atomic update, in the given (stable source) order. It
// returns the number of newly admitted items.
func (s *Store) ApplyRefresh(results []RefreshResult) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.items)
	for _, res := range results {
		merged, err := feed.Merge(s.items, res.Items, s.ids)
		if err != nil {
			return 0, err
		}
		s.items = merged
	}
	admitted := len(s.items) - before
	if admitted > 0 {
		s.hub.Emit(events.Event{
			Type:  events.TypeItemsMerged,
			TS:    s.clock.Now(),
			Count: admitted,
			Note:  "refresh",
		})
	}
	return admitted, nil
}

// MarkRead flips the read flag of one item. It is the only mutation owned by
// the mark-as-read collaborator; the engine itself never sets read.
func (s *Store) MarkRead(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID != itemID {
			continue
		}
		if !s.items[i].Read {
			s.items[i].Read = true
			s.hub.Emit(events.Event{
				Type:   events.TypeItemRead,
				TS:     s.clock.Now(),
				ItemID: itemID,
			})
		}
		return nil
	}
	return fmt.Errorf("mark read %q: %w", itemID, ErrItemNotFound)
}

// Sources returns the tracked sources in insertion order.
func (s *Store) Sources() []feed.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]feed.Source(nil), s.sources...)
}

// Items returns the item stream, most recently discovered first.
func (s *Store) Items() []feed.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]feed.Item(nil), s.items...)
}

// TrackedURLs returns the set of source URLs for duplicate detection.
func (s *Store) TrackedURLs() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := make(map[string]struct{}, len(s.sources))
	for _, src := range s.sources {
		set[src.URL] = struct{}{}
	}
	return set
}

// UnreadCount reports how many items are still unread.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, item := range s.items {
		if !item.Read {
			n++
		}
	}
	return n
}

func (s *Store) lookupSource(url string) (feed.Source, bool) {
	for _, src := range s.sources {
		if src.URL == url {
			return src, true
		}
	}
	return feed.Source{}, false
}
