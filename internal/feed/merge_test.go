package feed

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// seqIDs hands out deterministic identifiers for merge tests.
type seqIDs struct {
	next int
}

func (g *seqIDs) NewID() (string, error) {
	g.next++
	return fmt.Sprintf("id-%d", g.next), nil
}

type failingIDs struct{}

func (failingIDs) NewID() (string, error) {
	return "", fmt.Errorf("entropy exhausted")
}

func TestMerge_EmptyIncomingIsIdentity(t *testing.T) {
	t.Parallel()

	existing := []Item{
		{ID: "id-1", Title: "A", Read: true},
		{ID: "id-2", Title: "B"},
	}
	merged, err := Merge(existing, nil, &seqIDs{})
	require.NoError(t, err)
	require.Equal(t, existing, merged)
}

func TestMerge_PrependsSurvivorsMostRecentFirst(t *testing.T) {
	t.Parallel()

	existing := []Item{{ID: "id-1", Title: "old"}}
	incoming := []ParsedItem{
		{Title: "newest", Link: "https://example.com/1"},
		{Title: "newer", Link: "https://example.com/2"},
	}
	merged, err := Merge(existing, incoming, &seqIDs{next: 1})
	require.NoError(t, err)
	require.Len(t, merged, 3)
	require.Equal(t, "newest", merged[0].Title)
	require.Equal(t, "newer", merged[1].Title)
	require.Equal(t, "old", merged[2].Title)
	require.False(t, merged[0].Read)
	require.NotEqual(t, merged[0].ID, merged[1].ID)
}

func TestMerge_Idempotent(t *testing.T) {
	t.Parallel()

	incoming := []ParsedItem{
		{Title: "A", Link: "https://example.com/a"},
		{Title: "B", Link: "https://example.com/b"},
	}
	ids := &seqIDs{}
	once, err := Merge(nil, incoming, ids)
	require.NoError(t, err)
	twice, err := Merge(once, incoming, ids)
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestMerge_PreservesReadFlagsAndFirstSeenFields(t *testing.T) {
	t.Parallel()

	existing := []Item{{
		ID:          "id-1",
		Title:       "A",
		Link:        "https://example.com/original",
		Description: "original",
		Read:        true,
	}}
	// The same title arriving again, even with different link/description,
	// must not touch the existing entry.
	incoming := []ParsedItem{
		{Title: "a", Link: "https://mirror.example.com/a", Description: "mirror copy"},
		{Title: "C", Link: "https://example.com/c"},
	}
	merged, err := Merge(existing, incoming, &seqIDs{next: 1})
	require.NoError(t, err)
	require.Len(t, merged, 2)
	require.Equal(t, "C", merged[0].Title)
	require.Equal(t, existing[0], merged[1])
	require.True(t, merged[1].Read)
}

func TestMerge_DedupWithinBatch(t *testing.T) {
	t.Parallel()

	incoming := []ParsedItem{
		{Title: "A", Link: "https://example.com/a"},
		{Title: " a ", Link: "https://example.com/a-again"},
	}
	merged, err := Merge(nil, incoming, &seqIDs{})
	require.NoError(t, err)
	require.Len(t, merged, 1)
	require.Equal(t, "A", merged[0].Title)
}

func TestMerge_IDGeneratorFailureSurfaces(t *testing.T) {
	t.Parallel()

	_, err := Merge(nil, []ParsedItem{{Title: "A", Link: "https://example.com/a"}}, failingIDs{})
	require.Error(t, err)
}

func TestDedupKey_TrimsAndLowers(t *testing.T) {
	t.Parallel()

	require.Equal(t, "hello world", DedupKey("  Hello World "))
}
