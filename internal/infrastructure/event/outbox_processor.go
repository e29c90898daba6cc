package event

import (
	"context"
	"sync"
	"time"

	"github.com/fincore/customer/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OutboxProcessorConfig holds configuration for the outbox processor
type OutboxProcessorConfig struct {
	// BatchSize is the maximum number of entries claimed per poll
	BatchSize int
	// PollInterval is how often the outbox table is polled
	PollInterval time.Duration
	// CleanupEnabled turns on periodic deletion of sent entries
	CleanupEnabled bool
	// CleanupRetention is how long sent entries are kept before deletion
	CleanupRetention time.Duration
	// CleanupInterval is how often the cleanup runs
	CleanupInterval time.Duration
}

// DefaultOutboxProcessorConfig returns sensible defaults
func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     5 * time.Second,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// OutboxProcessor polls the outbox table and delivers stored events to the
// event bus. Delivery is at-least-once: an entry is only marked sent after
// every subscriber has been invoked, so handlers must tolerate duplicates.
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	serializer *EventSerializer
	publisher  shared.EventPublisher
	config     OutboxProcessorConfig
	logger     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOutboxProcessor creates a new outbox processor
func NewOutboxProcessor(
	repo shared.OutboxRepository,
	serializer *EventSerializer,
	publisher shared.EventPublisher,
	config OutboxProcessorConfig,
	logger *zap.Logger,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultOutboxProcessorConfig().BatchSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultOutboxProcessorConfig().PollInterval
	}
	return &OutboxProcessor{
		repo:       repo,
		serializer: serializer,
		publisher:  publisher,
		config:     config,
		logger:     logger,
	}
}

// Start begins polling in background goroutines
func (p *OutboxProcessor) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.processLoop(ctx)

	if p.config.CleanupEnabled {
		p.wg.Add(1)
		go p.cleanupLoop(ctx)
	}

	p.logger.Info("outbox processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval))
}

// Stop stops the processor and waits for in-flight work to finish
func (p *OutboxProcessor) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info("outbox processor stopped")
}

func (p *OutboxProcessor) processLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error("outbox batch processing failed", zap.Error(err))
			}
		}
	}
}

func (p *OutboxProcessor) cleanupLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-p.config.CleanupRetention)
			deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				p.logger.Error("outbox cleanup failed", zap.Error(err))
				continue
			}
			if deleted > 0 {
				p.logger.Info("outbox cleanup removed sent entries", zap.Int64("deleted", deleted))
			}
		}
	}
}

// ProcessBatch claims and delivers a single batch of outbox entries
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) error {
	pending, err := p.repo.FindPending(ctx, p.config.BatchSize)
	if err != nil {
		return err
	}

	remaining := p.config.BatchSize - len(pending)
	var retryable []*shared.OutboxEntry
	if remaining > 0 {
		retryable, err = p.repo.FindRetryable(ctx, time.Now(), remaining)
		if err != nil {
			return err
		}
	}

	candidates := append(pending, retryable...)
	if len(candidates) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(candidates))
	for i, e := range candidates {
		ids[i] = e.ID
	}

	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		return err
	}

	for _, entry := range claimed {
		p.processEntry(ctx, entry)
	}
	return nil
}

func (p *OutboxProcessor) processEntry(ctx context.Context, entry *shared.OutboxEntry) {
	event, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err != nil {
		p.failEntry(ctx, entry, err)
		return
	}

	if err := p.publisher.Publish(ctx, event); err != nil {
		p.failEntry(ctx, entry, err)
		return
	}

	entry.MarkSent()
	if err := p.repo.Update(ctx, entry); err != nil {
		p.logger.Error("failed to mark outbox entry sent",
			zap.String("entry_id", entry.ID.String()),
			zap.Error(err))
	}
}

func (p *OutboxProcessor) failEntry(ctx context.Context, entry *shared.OutboxEntry, cause error) {
	entry.MarkFailed(cause.Error())

	if entry.IsDead() {
		p.logger.Error("outbox entry moved to dead letter",
			zap.String("entry_id", entry.ID.String()),
			zap.String("event_type", entry.EventType),
			zap.Int("retry_count", entry.RetryCount),
			zap.Error(cause))
	} else {
		p.logger.Warn("outbox entry delivery failed, will retry",
			zap.String("entry_id", entry.ID.String()),
			zap.String("event_type", entry.EventType),
			zap.Int("retry_count", entry.RetryCount),
			zap.Error(cause))
	}

	if err := p.repo.Update(ctx, entry); err != nil {
		p.logger.Error("failed to update failed outbox entry",
			zap.String("entry_id", entry.ID.String()),
			zap.Error(err))
	}
}
