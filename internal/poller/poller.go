// Package poller orchestrates feed refreshes: the submission-time fetch of a
// single source and the periodic fan-out refresh of every tracked source.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mellyssy/feedwatch/internal/events"
	"github.com/mellyssy/feedwatch/internal/feed"
	"github.com/mellyssy/feedwatch/internal/state"
)

// DefaultInterval is the fixed delay between refresh cycles.
const DefaultInterval = 5 * time.Second

// Poller drives fetch/parse/merge for tracked sources.
type Poller struct {
	fetcher  feed.Fetcher
	store    *state.Store
	hub      events.Emitter
	clock    feed.Clock
	logger   *zap.Logger
	interval time.Duration
}

// New constructs a Poller. A non-positive interval falls back to
// DefaultInterval.
func New(
	fetcher feed.Fetcher,
	store *state.Store,
	hub events.Emitter,
	clock feed.Clock,
	logger *zap.Logger,
	interval time.Duration,
) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		fetcher:  fetcher,
		store:    store,
		hub:      hub,
		clock:    clock,
		logger:   logger,
		interval: interval,
	}
}

// FetchOne runs the submission-commit pipeline for a single source URL:
// fetch, parse, commit. Failures are classified as *feed.TransportError or
// *feed.ParseError and leave the aggregate state untouched.
func (p *Poller) FetchOne(ctx context.Context, url string) error {
	body, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return &feed.TransportError{URL: url, Err: err}
	}
	parsed, err := feed.Parse(body)
	if err != nil {
		return err
	}
	src, admitted, err := p.store.CommitSource(url, parsed)
	if err != nil {
		return fmt.Errorf("commit source: %w", err)
	}
	p.logger.Info("source committed",
		zap.String("url", url),
		zap.String("source_id", src.ID),
		zap.Int("items", admitted),
	)
	return nil
}

// outcome is one source's settled result within a refresh cycle.
type outcome struct {
	url   string
	items []feed.ParsedItem
	err   error
}

// RefreshAll re-fetches every tracked source concurrently and waits for all
// of them to settle. One source failing never prevents sibling results from
// merging and never aborts the cycle; failures are logged and emitted as
// events. All successful batches are applied in stable source order as a
// single state update.
func (p *Poller) RefreshAll(ctx context.Context) {
	sources := p.store.Sources()
	if len(sources) == 0 {
		return
	}
	p.hub.Emit(events.Event{
		Type:  events.TypeRefreshStarted,
		TS:    p.clock.Now(),
		Count: len(sources),
	})

	outcomes := make([]outcome, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src feed.Source) {
			defer wg.Done()
			outcomes[i] = p.refreshSource(ctx, src)
		}(i, src)
	}
	wg.Wait()

	results := make([]state.RefreshResult, 0, len(sources))
	for _, o := range outcomes {
		if o.err != nil {
			p.logger.Warn("source refresh failed", zap.String("url", o.url), zap.Error(o.err))
			p.hub.Emit(events.Event{
				Type:      events.TypeSourceRefreshFailed,
				TS:        p.clock.Now(),
				SourceURL: o.url,
				Note:      o.err.Error(),
			})
			continue
		}
		results = append(results, state.RefreshResult{URL: o.url, Items: o.items})
	}

	admitted, err := p.store.ApplyRefresh(results)
	if err != nil {
		p.logger.Error("refresh apply failed", zap.Error(err))
		return
	}
	p.hub.Emit(events.Event{
		Type:  events.TypeRefreshCompleted,
		TS:    p.clock.Now(),
		Count: admitted,
		Note:  fmt.Sprintf("%d/%d sources ok", len(results), len(sources)),
	})
	if admitted > 0 {
		p.logger.Info("refresh cycle merged items", zap.Int("items", admitted))
	}
}

func (p *Poller) refreshSource(ctx context.Context, src feed.Source) outcome {
	body, err := p.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return outcome{url: src.URL, err: &feed.TransportError{URL: src.URL, Err: err}}
	}
	parsed, err := feed.Parse(body)
	if err != nil {
		return outcome{url: src.URL, err: err}
	}
	return outcome{url: src.URL, items: parsed.Items}
}

// Run loops refresh cycles for the lifetime of ctx: cycle, then re-arm a
// fixed delay regardless of the cycle's outcome. There is no backoff.
func (p *Poller) Run(ctx context.Context) {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()
	for {
		p.RefreshAll(ctx)
		timer.Reset(p.interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}
