// Package events defines the domain events emitted by the aggregation engine
// and the hub that fans them out to observer sinks. Every mutation of the
// aggregate state or the submission lifecycle is observable through exactly
// one of the event types below; presentation layers subscribe to a sink and
// match on Type instead of watching state paths.
package events

import (
	"errors"
	"fmt"
	"time"
)

// Type tags a domain event.
type Type string

// Supported event types.
const (
	TypeSourceAdded         Type = "SOURCE_ADDED"
	TypeItemsMerged         Type = "ITEMS_MERGED"
	TypeItemRead            Type = "ITEM_READ"
	TypePhaseChanged        Type = "PHASE_CHANGED"
	TypeRefreshStarted      Type = "REFRESH_STARTED"
	TypeRefreshCompleted    Type = "REFRESH_COMPLETED"
	TypeSourceRefreshFailed Type = "SOURCE_REFRESH_FAILED"
)

// Event captures one observable transition of the engine.
type Event struct {
	// Type denotes which transition occurred.
	Type Type `json:"type"`
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time `json:"ts"`
	// SourceURL scopes source-level events to one tracked feed.
	SourceURL string `json:"source_url,omitempty"`
	// SourceTitle carries the channel title for SOURCE_ADDED.
	SourceTitle string `json:"source_title,omitempty"`
	// ItemID identifies the item for ITEM_READ.
	ItemID string `json:"item_id,omitempty"`
	// Count carries the number of merged items or polled sources.
	Count int `json:"count,omitempty"`
	// Phase carries the new lifecycle phase for PHASE_CHANGED.
	Phase string `json:"phase,omitempty"`
	// Note lets emitters attach low-volume context (e.g. error text).
	Note string `json:"note,omitempty"`
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Type {
	case TypeSourceAdded, TypeSourceRefreshFailed:
		if e.SourceURL == "" {
			return fmt.Errorf("%s requires a source url", e.Type)
		}
	case TypeItemRead:
		if e.ItemID == "" {
			return errors.New("ITEM_READ requires an item id")
		}
	case TypePhaseChanged:
		if e.Phase == "" {
			return errors.New("PHASE_CHANGED requires a phase")
		}
	case TypeItemsMerged, TypeRefreshStarted, TypeRefreshCompleted:
		if e.Count < 0 {
			return fmt.Errorf("%s requires a non-negative count", e.Type)
		}
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}
