package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gumtree-monitor/internal/config"
	"gumtree-monitor/internal/fetcher"
	"gumtree-monitor/internal/observability"
	"gumtree-monitor/internal/scraper"
	"gumtree-monitor/internal/storage"
)

type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.FetchResponse, error)
}

type ListingExtractor interface {
	Extract(html string) ([]scraper.Listing, error)
}

type Notifier interface {
	Notify(ctx context.Context, listing scraper.Listing) bool
}

type Orchestrator struct {
	cfg       *config.Config
	logger    *observability.Logger
	fetcher   PageFetcher
	extractor ListingExtractor
	notifier  Notifier
	store     storage.SeenStore
	scheduler Scheduler

	seen  storage.SeenSet
	sleep func(ctx context.Context, d time.Duration) error
}

func NewOrchestrator(
	cfg *config.Config,
	logger *observability.Logger,
	f PageFetcher,
	e ListingExtractor,
	n Notifier,
	store storage.SeenStore,
	sched Scheduler,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		logger:    logger,
		fetcher:   f,
		extractor: e,
		notifier:  n,
		store:     store,
		scheduler: sched,
		sleep:     sleepContext,
	}
}

type CycleStats struct {
	CycleID     string
	Found       int
	New         int
	Sent        int
	FetchFailed bool
	SaveFailed  bool
}

// Run repeats cycles until ctx is cancelled. With a nil scheduler it runs a
// single cycle and returns nil.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.ensureLoaded(ctx)
	o.logger.Info("Monitor started",
		"search_url", o.cfg.Search.URL,
		"chat_id", o.cfg.Telegram.ChatID,
		"seen", len(o.seen),
	)

	for {
		if err := ctx.Err(); err != nil {
			o.logger.Info("Monitor stopped", "reason", err.Error())
			return err
		}

		o.RunCycle(ctx)

		if o.scheduler == nil {
			return nil
		}

		delay := o.scheduler.Next(time.Now())
		o.logger.Info("Check finished, sleeping", "next_check_in", delay.String())

		if err := o.sleep(ctx, delay); err != nil {
			o.logger.Info("Monitor stopped", "reason", err.Error())
			return err
		}
	}
}

// RunCycle fetches the search page once, notifies about unseen listings and
// persists the seen-set if anything new turned up. It does not sleep.
func (o *Orchestrator) RunCycle(ctx context.Context) CycleStats {
	o.ensureLoaded(ctx)

	stats := CycleStats{CycleID: uuid.NewString()}
	logger := o.logger.With("cycle_id", stats.CycleID)
	logger.Info("Starting check")

	listings := o.collect(ctx, logger, &stats)
	stats.Found = len(listings)
	if len(listings) == 0 {
		logger.Warn("No listings received in this check")
		return stats
	}

	// Отмечаем как увиденные до отправки: повторной отправки не будет
	var fresh []scraper.Listing
	for _, l := range listings {
		if o.seen.Has(l.ID) {
			continue
		}
		logger.Info("New listing found", "title", l.Title, "listing", l.ID)
		o.seen.Add(l.ID)
		fresh = append(fresh, l)
	}
	stats.New = len(fresh)

	if len(fresh) == 0 {
		logger.Info("No new listings in this check")
		return stats
	}

	logger.Info("Sending notifications", "count", len(fresh))
	stats.Sent = o.notifyAll(ctx, logger, fresh)

	if stats.Sent == len(fresh) {
		logger.Info("All new notifications sent", "count", stats.Sent)
	} else {
		logger.Warn("Some notifications failed", "sent", stats.Sent, "total", len(fresh))
	}

	if err := o.store.Save(context.WithoutCancel(ctx), o.seen); err != nil {
		stats.SaveFailed = true
		logger.Error("Failed to save seen set", "error", err.Error())
	}

	return stats
}

func (o *Orchestrator) collect(ctx context.Context, logger *observability.Logger, stats *CycleStats) []scraper.Listing {
	resp, err := o.fetcher.Fetch(ctx, o.cfg.Search.URL)
	if err != nil {
		stats.FetchFailed = true
		logger.Error("Fetch failed", "url", o.cfg.Search.URL, "error", err.Error())
		return nil
	}

	listings, err := o.extractor.Extract(string(resp.Body))
	if err != nil {
		logger.Error("Parse listing failed", "error", err.Error())
		return nil
	}
	return listings
}

func (o *Orchestrator) notifyAll(ctx context.Context, logger *observability.Logger, listings []scraper.Listing) int {
	sent := 0
	for i, l := range listings {
		if i > 0 {
			if err := o.sleep(ctx, o.cfg.GetTelegramPause()); err != nil {
				logger.Warn("Notification batch interrupted",
					"sent", sent,
					"remaining", len(listings)-i,
					"reason", err.Error(),
				)
				break
			}
		}
		if o.notifier.Notify(ctx, l) {
			sent++
		}
	}
	return sent
}

func (o *Orchestrator) ensureLoaded(ctx context.Context) {
	if o.seen != nil {
		return
	}
	o.seen = o.store.Load(ctx)
	o.logger.Info("Seen listings loaded", "count", len(o.seen))
}

// Seen exposes the in-memory seen-set.
func (o *Orchestrator) Seen() storage.SeenSet {
	return o.seen
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
