package state

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mellyssy/feedwatch/internal/events"
	"github.com/mellyssy/feedwatch/internal/feed"
)

type seqIDs struct {
	mu   sync.Mutex
	next int
}

func (g *seqIDs) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("id-%d", g.next), nil
}

// failingIDs succeeds allow times, then fails every call.
type failingIDs struct {
	mu    sync.Mutex
	allow int
	next  int
}

func (g *failingIDs) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.allow <= 0 {
		return "", fmt.Errorf("id source exhausted")
	}
	g.allow--
	g.next++
	return fmt.Sprintf("id-%d", g.next), nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type recordingEmitter struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingEmitter) Emit(evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingEmitter) byType(typ events.Type) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, evt := range r.events {
		if evt.Type == typ {
			out = append(out, evt)
		}
	}
	return out
}

func newTestStore() (*Store, *recordingEmitter) {
	emitter := &recordingEmitter{}
	store := New(&seqIDs{}, fixedClock{now: time.Unix(100, 0).UTC()}, emitter)
	return store, emitter
}

func exampleParsed() feed.ParsedFeed {
	return feed.ParsedFeed{
		Title:       "Example",
		Description: "Example feed",
		Items: []feed.ParsedItem{
			{Title: "A", Link: "https://example.com/a"},
			{Title: "B", Link: "https://example.com/b"},
		},
	}
}

func TestCommitSource_AddsSourceAndItems(t *testing.T) {
	t.Parallel()

	store, emitter := newTestStore()
	src, admitted, err := store.CommitSource("https://example.com/feed.rss", exampleParsed())
	require.NoError(t, err)
	require.Equal(t, 2, admitted)
	require.Equal(t, "Example", src.Title)
	require.NotEmpty(t, src.ID)

	require.Len(t, store.Sources(), 1)
	items := store.Items()
	require.Len(t, items, 2)
	require.Equal(t, "A", items[0].Title)
	require.False(t, items[0].Read)

	require.Len(t, emitter.byType(events.TypeSourceAdded), 1)
	require.Len(t, emitter.byType(events.TypeItemsMerged), 1)
}

func TestCommitSource_KeepsFirstSeenSourceMetadata(t *testing.T) {
	t.Parallel()

	store, emitter := newTestStore()
	_, _, err := store.CommitSource("https://example.com/feed.rss", exampleParsed())
	require.NoError(t, err)

	changed := exampleParsed()
	changed.Title = "Renamed upstream"
	changed.Items = append(changed.Items, feed.ParsedItem{Title: "C", Link: "https://example.com/c"})
	src, admitted, err := store.CommitSource("https://example.com/feed.rss", changed)
	require.NoError(t, err)

	require.Equal(t, 1, admitted)
	require.Equal(t, "Example", src.Title)
	require.Len(t, store.Sources(), 1)
	require.Len(t, emitter.byType(events.TypeSourceAdded), 1)
}

func TestCommitSource_IDFailureLeavesStoreUntouched(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"source id fails": 0,
		"item id fails":   1, // source id succeeds, first item id does not
	}
	for name, allow := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			emitter := &recordingEmitter{}
			store := New(&failingIDs{allow: allow}, fixedClock{now: time.Unix(100, 0).UTC()}, emitter)

			_, _, err := store.CommitSource("https://example.com/feed.rss", exampleParsed())
			require.Error(t, err)
			require.Empty(t, store.Sources())
			require.Empty(t, store.Items())
			require.Empty(t, emitter.byType(events.TypeSourceAdded))
			require.Empty(t, emitter.byType(events.TypeItemsMerged))
		})
	}
}

func TestApplyRefresh_SingleAtomicUpdateInSourceOrder(t *testing.T) {
	t.Parallel()

	store, emitter := newTestStore()
	_, _, err := store.CommitSource("https://example.com/feed.rss", exampleParsed())
	require.NoError(t, err)

	admitted, err := store.ApplyRefresh([]RefreshResult{
		{URL: "https://example.com/feed.rss", Items: []feed.ParsedItem{
			{Title: "A", Link: "https://example.com/a"}, // already present
			{Title: "C", Link: "https://example.com/c"},
		}},
		{URL: "https://other.example.com/feed.rss", Items: []feed.ParsedItem{
			{Title: "D", Link: "https://other.example.com/d"},
		}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, admitted)

	items := store.Items()
	require.Equal(t, []string{"D", "C", "A", "B"}, []string{
		items[0].Title, items[1].Title, items[2].Title, items[3].Title,
	})

	// One ITEMS_MERGED for the submission commit, one for the whole cycle.
	require.Len(t, emitter.byType(events.TypeItemsMerged), 2)
}

func TestApplyRefresh_NoNewItemsEmitsNothing(t *testing.T) {
	t.Parallel()

	store, emitter := newTestStore()
	_, _, err := store.CommitSource("https://example.com/feed.rss", exampleParsed())
	require.NoError(t, err)

	admitted, err := store.ApplyRefresh([]RefreshResult{
		{URL: "https://example.com/feed.rss", Items: exampleParsed().Items},
	})
	require.NoError(t, err)
	require.Equal(t, 0, admitted)
	require.Len(t, emitter.byType(events.TypeItemsMerged), 1)
}

func TestMarkRead(t *testing.T) {
	t.Parallel()

	store, emitter := newTestStore()
	_, _, err := store.CommitSource("https://example.com/feed.rss", exampleParsed())
	require.NoError(t, err)
	itemID := store.Items()[0].ID

	require.NoError(t, store.MarkRead(itemID))
	require.True(t, store.Items()[0].Read)
	require.Equal(t, 1, store.UnreadCount())
	require.Len(t, emitter.byType(events.TypeItemRead), 1)

	// Marking twice is a no-op and emits no second event.
	require.NoError(t, store.MarkRead(itemID))
	require.Len(t, emitter.byType(events.TypeItemRead), 1)

	err = store.MarkRead("missing")
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestMarkRead_SurvivesRefresh(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore()
	_, _, err := store.CommitSource("https://example.com/feed.rss", exampleParsed())
	require.NoError(t, err)
	itemID := store.Items()[1].ID // "B"
	require.NoError(t, store.MarkRead(itemID))

	_, err = store.ApplyRefresh([]RefreshResult{
		{URL: "https://example.com/feed.rss", Items: []feed.ParsedItem{
			{Title: "B", Link: "https://example.com/b"},
			{Title: "C", Link: "https://example.com/c"},
		}},
	})
	require.NoError(t, err)

	for _, item := range store.Items() {
		if item.ID == itemID {
			require.True(t, item.Read)
			return
		}
	}
	t.Fatalf("item %s vanished after refresh", itemID)
}

func TestTrackedURLs(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore()
	_, _, err := store.CommitSource("https://example.com/feed.rss", exampleParsed())
	require.NoError(t, err)

	set := store.TrackedURLs()
	require.Contains(t, set, "https://example.com/feed.rss")
	require.Len(t, set, 1)
}
