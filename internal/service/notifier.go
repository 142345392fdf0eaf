package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"service-hub/internal/domain"
	"service-hub/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultFanOutTimeout  = 2 * time.Minute
	defaultPublishTimeout = 5 * time.Second
)

// FanOutResult summarizes one notification run.
type FanOutResult struct {
	RequestID  string
	Candidates int
	Qualified  int
	Sent       int
	Skipped    int
	Failed     int
}

// Notifier notifies the providers of high-confidence matches for a request.
type Notifier interface {
	NotifyMatchingProviders(ctx context.Context, requestID string) (FanOutResult, error)
}

type notifier struct {
	matcher        RequestMatcher
	providers      domain.ProviderDirectory
	publisher      domain.NotificationPublisher
	publishTimeout time.Duration
	logger         *zap.Logger
	now            func() time.Time
}

// NewNotifier creates a new Notifier.
func NewNotifier(
	matcher RequestMatcher,
	providers domain.ProviderDirectory,
	publisher domain.NotificationPublisher,
	publishTimeout time.Duration,
	logger *zap.Logger,
) Notifier {
	if publishTimeout <= 0 {
		publishTimeout = defaultPublishTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &notifier{
		matcher:        matcher,
		providers:      providers,
		publisher:      publisher,
		publishTimeout: publishTimeout,
		logger:         logger,
		now:            time.Now,
	}
}

// NotifyMatchingProviders ranks the top FanOutTopN active services for the
// request and publishes one intent per match above HighConfidenceThreshold,
// in rank order. A matching error aborts the run. A recipient without contact
// details is skipped. A publish error is logged and the run continues.
func (n *notifier) NotifyMatchingProviders(ctx context.Context, requestID string) (FanOutResult, error) {
	result := FanOutResult{RequestID: requestID}

	req, page, err := n.matcher.MatchRequest(ctx, requestID, domain.FanOutTopN)
	if err != nil {
		metrics.FanOutRunsTotal.WithLabelValues("aborted").Inc()
		return result, fmt.Errorf("match request %s: %w", requestID, err)
	}

	notifySet := domain.HighConfidenceMatches(page.Matches)
	result.Candidates = len(page.Matches)
	result.Qualified = len(notifySet)

	for _, match := range notifySet {
		logger := n.logger.With(
			zap.String("request_id", requestID),
			zap.String("service_id", match.Service.ID),
			zap.String("provider_id", match.Service.ProviderID),
		)

		provider, err := n.providers.GetProviderByID(ctx, match.Service.ProviderID)
		if err != nil {
			logger.Warn("Failed to resolve provider, skipping", zap.Error(err))
			result.Skipped++
			metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
			continue
		}
		if !provider.HasContact() {
			logger.Debug("Provider has no contact on file, skipping")
			result.Skipped++
			metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
			continue
		}

		intent := n.buildIntent(req, match, provider)
		if err := n.dispatch(ctx, intent); err != nil {
			logger.Error("Failed to dispatch notification", zap.String("intent_id", intent.ID), zap.Error(err))
			result.Failed++
			metrics.NotificationsTotal.WithLabelValues("failed").Inc()
			continue
		}
		result.Sent++
		metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	}

	metrics.FanOutRunsTotal.WithLabelValues("completed").Inc()
	return result, nil
}

func (n *notifier) buildIntent(req *domain.ServiceRequest, match domain.ServiceMatch, provider *domain.Provider) *domain.NotificationIntent {
	return &domain.NotificationIntent{
		ID:              uuid.NewString(),
		RequestID:       req.ID,
		ServiceID:       match.Service.ID,
		ProviderID:      provider.ID,
		ProviderName:    provider.Name,
		ProviderEmail:   provider.Email,
		ProviderPhone:   provider.Phone,
		MatchPercentage: match.Percentage(),
		RequestTitle:    req.Title,
		RequestSummary:  summarize(req.Description, requestSummaryLength),
		ServiceTitle:    match.Service.Title,
		CreatedAt:       n.now().UTC(),
	}
}

// dispatch publishes one intent, converting a panic in the transport into an error.
func (n *notifier) dispatch(ctx context.Context, intent *domain.NotificationIntent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", domain.ErrNotificationDispatchFailed, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, n.publishTimeout)
	defer cancel()
	return n.publisher.Publish(ctx, intent)
}

// FanOutTrigger starts a notification run without waiting for it.
type FanOutTrigger interface {
	Trigger(ctx context.Context, requestID string)
}

// FanOutDispatcher runs fan-outs on goroutines detached from the caller's
// cancellation. Errors and panics are logged and never returned.
type FanOutDispatcher struct {
	notifier Notifier
	timeout  time.Duration
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewFanOutDispatcher creates a new FanOutDispatcher.
func NewFanOutDispatcher(notifier Notifier, timeout time.Duration, logger *zap.Logger) *FanOutDispatcher {
	if timeout <= 0 {
		timeout = defaultFanOutTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FanOutDispatcher{notifier: notifier, timeout: timeout, logger: logger}
}

// Trigger spawns the fan-out for requestID. ctx contributes values only; its
// cancellation does not stop the run.
func (d *FanOutDispatcher) Trigger(ctx context.Context, requestID string) {
	detached := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				metrics.FanOutRunsTotal.WithLabelValues("panicked").Inc()
				d.logger.Error("Fan-out panicked",
					zap.String("request_id", requestID),
					zap.Any("panic", r),
				)
			}
		}()

		runCtx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()

		start := time.Now()
		result, err := d.notifier.NotifyMatchingProviders(runCtx, requestID)
		if err != nil {
			d.logger.Error("Fan-out aborted",
				zap.String("request_id", requestID),
				zap.Error(err),
			)
			return
		}
		d.logger.Info("Fan-out completed",
			zap.String("request_id", requestID),
			zap.Int("candidates", result.Candidates),
			zap.Int("qualified", result.Qualified),
			zap.Int("sent", result.Sent),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
			zap.Duration("duration", time.Since(start)),
		)
	}()
}

// Wait blocks until every triggered fan-out has finished or ctx is done.
func (d *FanOutDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
