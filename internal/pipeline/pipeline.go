package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/gear-smarts-service/internal/domain"
	"github.com/couchcryptid/gear-smarts-service/internal/observability"
)

// BatchExtractor reads up to batchSize raw messages from the training topic.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error)
}

// Transformer applies a raw training message and describes the result. An
// error wrapping domain.ErrClassifierOperation comes with a recorded event.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawMessage) (domain.TrainingEvent, error)
}

// BatchLoader publishes training events.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.TrainingEvent) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second

	// maxApplyAttempts bounds retries of a message that failed for reasons
	// other than bad input or the classifier, such as persistence.
	maxApplyAttempts = 3
)

// Pipeline orchestrates the consume-train-publish loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil if the pipeline has applied at least one message,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not applied any training messages yet")
	}
	return nil
}

// Run executes the batch training loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one consume-train-publish cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	loaded, ok := p.transformAndLoad(ctx, rawBatch, backoff)
	if !ok {
		return false
	}

	if loaded > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// transformAndLoad trains on each message in the batch, publishes an event
// for every observation that reached a dictionary, and commits offsets.
// Returns the number of published events and false if the pipeline should stop.
func (p *Pipeline) transformAndLoad(ctx context.Context, rawBatch []domain.RawMessage, backoff *time.Duration) (int, bool) {
	outBatch := make([]domain.TrainingEvent, 0, len(rawBatch))
	appliedRaws := make([]domain.RawMessage, 0, len(rawBatch))

	for _, raw := range rawBatch {
		event, ok := p.apply(ctx, raw)
		if ctx.Err() != nil {
			return 0, false
		}
		if !ok {
			p.commitOffset(ctx, raw)
			continue
		}
		outBatch = append(outBatch, event)
		appliedRaws = append(appliedRaws, raw)
	}

	if len(outBatch) == 0 {
		return 0, true
	}

	if err := p.loader.LoadBatch(ctx, outBatch); err != nil {
		p.logger.Error("publish training events failed", "error", err, "batch_size", len(outBatch))
		return 0, p.backoffOrStop(ctx, backoff)
	}

	p.metrics.MessagesProduced.Add(float64(len(outBatch)))

	for _, raw := range appliedRaws {
		p.commitOffset(ctx, raw)
	}

	return len(outBatch), true
}

// apply trains one message and reports whether it produced an event. Bad
// input is dropped at once. A classifier failure still yields a recorded
// event because the dictionary kept the observation. Anything else left the
// namespace untouched and is retried with backoff up to maxApplyAttempts.
func (p *Pipeline) apply(ctx context.Context, raw domain.RawMessage) (domain.TrainingEvent, bool) {
	delay := initialBackoff
	for attempt := 1; ; attempt++ {
		event, err := p.transformer.Transform(ctx, raw)
		switch {
		case err == nil:
			return event, true
		case errors.Is(err, domain.ErrClassifierOperation):
			p.metrics.TrainingErrors.WithLabelValues("classifier").Inc()
			p.logger.Warn("classifier retrain failed, publishing recorded observation",
				"error", err,
				"namespace", event.Namespace,
				"offset", raw.Offset,
			)
			return event, true
		case errors.Is(err, domain.ErrBadArguments):
			p.metrics.TrainingErrors.WithLabelValues("bad_input").Inc()
			p.logger.Warn("invalid training message, skipping",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			return domain.TrainingEvent{}, false
		case ctx.Err() != nil:
			return domain.TrainingEvent{}, false
		case attempt >= maxApplyAttempts:
			p.metrics.TrainingErrors.WithLabelValues("exhausted").Inc()
			p.logger.Error("training failed after retries, skipping message",
				"error", err,
				"attempts", attempt,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			return domain.TrainingEvent{}, false
		}

		p.logger.Warn("training failed, retrying", "error", err, "attempt", attempt, "offset", raw.Offset)
		if !sleepWithContext(ctx, delay) {
			return domain.TrainingEvent{}, false
		}
		delay = nextBackoff(delay, maxBackoff)
	}
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawMessage) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
