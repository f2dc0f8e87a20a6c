package queue

import (
	"errors"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"nexlyon/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Handler consumes one batch of analysis records.
type Handler func([]models.AnalysisRecord) error

type job struct {
	batch []models.AnalysisRecord
	done  chan error
}

// AnalysisQueue is an in-memory queue of analysis batches waiting to be
// archived.
type AnalysisQueue struct {
	items    chan job
	maxSize  int
	closed   bool
	started  bool
	mu       sync.RWMutex
	wg       sync.WaitGroup
	logger   *logrus.Logger
	handlers []Handler
}

// NewAnalysisQueue creates a new queue with the specified buffer size
func NewAnalysisQueue(bufferSize int, logger *logrus.Logger) *AnalysisQueue {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if bufferSize < 1 {
		bufferSize = 1
	}

	return &AnalysisQueue{
		items:   make(chan job, bufferSize),
		maxSize: bufferSize,
		logger:  logger,
	}
}

// Push adds a batch to the queue without blocking.
func (q *AnalysisQueue) Push(batch []models.AnalysisRecord) error {
	_, err := q.Submit(batch)
	return err
}

// Submit adds a batch without blocking and returns a channel that receives
// the combined handler result once the batch has been processed.
func (q *AnalysisQueue) Submit(batch []models.AnalysisRecord) (<-chan error, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return nil, ErrQueueClosed
	}

	j := job{batch: batch, done: make(chan error, 1)}
	select {
	case q.items <- j:
		q.logger.WithField("batch_size", len(batch)).Debug("Pushed batch to queue")
		return j.done, nil
	default:
		return nil, ErrQueueFull
	}
}

// Subscribe adds a handler function that will be called for each batch
func (q *AnalysisQueue) Subscribe(handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins processing items in the queue. Calling it again is a no-op.
func (q *AnalysisQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true
	q.wg.Add(1)
	go q.process()
}

func (q *AnalysisQueue) process() {
	defer q.wg.Done()
	for j := range q.items {
		q.processJob(j)
	}
}

func (q *AnalysisQueue) processJob(j job) {
	j.done <- q.processBatch(j.batch)
}

// processBatch sends the batch to all subscribed handlers
func (q *AnalysisQueue) processBatch(batch []models.AnalysisRecord) error {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(batch); err != nil {
			q.logger.WithError(err).Error("Handler failed to process batch")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close rejects new batches and waits until the queued ones are handled.
func (q *AnalysisQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.items)
	started := q.started
	q.mu.Unlock()

	if !started {
		for j := range q.items {
			q.processJob(j)
		}
	}
	q.wg.Wait()
	return nil
}

// Len returns the current number of batches in the queue
func (q *AnalysisQueue) Len() int {
	return len(q.items)
}

// IsStarted reports whether a worker is consuming the queue.
func (q *AnalysisQueue) IsStarted() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.started
}

// IsClosed returns whether the queue has been closed
func (q *AnalysisQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
