package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"service-hub/internal/config"
	"service-hub/internal/domain"
	"service-hub/internal/metrics"

	"go.uber.org/zap"
)

// BackfillSummary reports the outcome of one backfill run.
type BackfillSummary struct {
	Kind          domain.EntityKind
	Processed     int
	Updated       int
	Skipped       int
	QuotaExceeded bool
}

// BackfillService embeds entities that were stored without vectors.
type BackfillService interface {
	Run(ctx context.Context, kind domain.EntityKind) (*BackfillSummary, error)
}

type backfillItem struct {
	id   string
	text domain.EmbeddableText
}

type backfillService struct {
	services domain.ServiceRepository
	requests domain.ServiceRequestRepository
	store    EmbeddingStore
	cfg      config.BackfillConfig
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewBackfillService creates a new BackfillService.
func NewBackfillService(
	services domain.ServiceRepository,
	requests domain.ServiceRequestRepository,
	store EmbeddingStore,
	cfg config.BackfillConfig,
	logger *zap.Logger,
) BackfillService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &backfillService{
		services: services,
		requests: requests,
		store:    store,
		cfg:      cfg,
		logger:   logger,
		sleep:    sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run embeds every entity of kind lacking a combined vector, one provider call
// sequence at a time with cfg.Delay between items. A daily quota error ends
// the run without an error; the remaining items stay unembedded.
func (s *backfillService) Run(ctx context.Context, kind domain.EntityKind) (*BackfillSummary, error) {
	summary := &BackfillSummary{Kind: kind}
	logger := s.logger.With(zap.String("kind", string(kind)))
	logger.Info("Starting embedding backfill", zap.Int("batch_size", s.cfg.BatchSize))

	afterID := ""
	first := true
	for {
		batch, err := s.list(ctx, kind, afterID)
		if err != nil {
			return summary, fmt.Errorf("list %s missing embeddings: %w", kind, err)
		}
		if len(batch) == 0 {
			break
		}

		for _, item := range batch {
			afterID = item.id
			if !first {
				if err := s.sleep(ctx, s.cfg.Delay); err != nil {
					return summary, err
				}
			}
			first = false

			summary.Processed++
			err := s.embed(ctx, kind, item)
			switch {
			case err == nil:
				summary.Updated++
				metrics.BackfillItemsTotal.WithLabelValues(string(kind), "updated").Inc()
			case errors.Is(err, domain.ErrDailyQuotaExceeded):
				summary.QuotaExceeded = true
				metrics.BackfillItemsTotal.WithLabelValues(string(kind), "quota_exceeded").Inc()
				logger.Warn("Daily embedding quota exceeded, stopping backfill",
					zap.String("entity_id", item.id),
					zap.Int("updated", summary.Updated),
				)
				return summary, nil
			case ctx.Err() != nil:
				return summary, ctx.Err()
			default:
				summary.Skipped++
				metrics.BackfillItemsTotal.WithLabelValues(string(kind), "skipped").Inc()
				logger.Warn("Failed to embed entity, skipping",
					zap.String("entity_id", item.id),
					zap.Error(err),
				)
			}
		}
	}

	logger.Info("Embedding backfill finished",
		zap.Int("processed", summary.Processed),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

// embed refreshes one entity, sleeping and retrying on transient rate limits.
func (s *backfillService) embed(ctx context.Context, kind domain.EntityKind, item backfillItem) error {
	for attempt := 0; ; attempt++ {
		_, err := s.store.Refresh(ctx, kind, item.id, item.text)
		if err == nil || !errors.Is(err, domain.ErrRateLimitExceeded) || errors.Is(err, domain.ErrDailyQuotaExceeded) {
			return err
		}
		if attempt >= s.cfg.MaxRetries {
			return err
		}
		s.logger.Info("Rate limited, retrying after delay",
			zap.String("entity_id", item.id),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", s.cfg.RateLimitRetryDelay),
		)
		if err := s.sleep(ctx, s.cfg.RateLimitRetryDelay); err != nil {
			return err
		}
	}
}

func (s *backfillService) list(ctx context.Context, kind domain.EntityKind, afterID string) ([]backfillItem, error) {
	switch kind {
	case domain.EntityKindService:
		services, err := s.services.ListServicesMissingEmbeddings(ctx, afterID, s.cfg.BatchSize)
		if err != nil {
			return nil, err
		}
		items := make([]backfillItem, 0, len(services))
		for _, svc := range services {
			items = append(items, backfillItem{id: svc.ID, text: svc.Text()})
		}
		return items, nil
	case domain.EntityKindServiceRequest:
		requests, err := s.requests.ListRequestsMissingEmbeddings(ctx, afterID, s.cfg.BatchSize)
		if err != nil {
			return nil, err
		}
		items := make([]backfillItem, 0, len(requests))
		for _, req := range requests {
			items = append(items, backfillItem{id: req.ID, text: req.Text()})
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}
