package processor

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"nexlyon/server/config"
	"nexlyon/server/internal/models"
	"nexlyon/server/internal/queue"
)

// Transactor is the part of *gorm.DB the processor needs.
type Transactor interface {
	Transaction(fc func(*gorm.DB) error, opts ...*sql.TxOptions) error
}

// BatchProcessor appends analysis batches to the archive table.
type BatchProcessor struct {
	db     Transactor
	logger *logrus.Logger
	config *config.Config
	queue  *queue.AnalysisQueue
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db Transactor, queue *queue.AnalysisQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &BatchProcessor{
		db:     db,
		queue:  queue,
		config: config,
		logger: logger,
	}
}

// Start subscribes to the queue and begins processing batches.
func (p *BatchProcessor) Start() {
	p.queue.Subscribe(p.processBatch)
	p.queue.Start()
}

// Stop closes the queue and waits for the pending batches to be written.
func (p *BatchProcessor) Stop() {
	if err := p.queue.Close(); err != nil {
		p.logger.WithError(err).Error("Failed to close archive queue")
	}
}

// Archive hands a batch to the archive worker and waits for the write
// result. The batch is written inline when the worker is not running or its
// queue is full.
func (p *BatchProcessor) Archive(records []models.AnalysisRecord) error {
	if len(records) == 0 {
		return nil
	}
	if !p.queue.IsStarted() && !p.queue.IsClosed() {
		return p.processBatch(records)
	}

	done, err := p.queue.Submit(records)
	if errors.Is(err, queue.ErrQueueFull) {
		p.logger.WithField("batch_size", len(records)).Warn("Archive queue full, writing inline")
		return p.processBatch(records)
	}
	if err != nil {
		return err
	}
	return <-done
}

// processBatch writes a single batch in one transaction, retrying on failure.
func (p *BatchProcessor) processBatch(batch []models.AnalysisRecord) error {
	attempts := p.config.Archive.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			p.logger.Infof("Retrying archive batch, attempt %d of %d", attempt, attempts)
			time.Sleep(p.config.Archive.RetryDelay)
		}

		err = p.db.Transaction(func(tx *gorm.DB) error {
			rows := make([]models.AnalysisRecord, len(batch))
			copy(rows, batch)
			if err := tx.CreateInBatches(&rows, 100).Error; err != nil {
				return fmt.Errorf("failed to insert analyses batch: %w", err)
			}
			return nil
		})

		if err == nil {
			p.logger.Infof("Archived batch of %d analyses", len(batch))
			return nil
		}

		p.logger.Errorf("Archive batch failed: %v", err)
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", attempts, err)
}
