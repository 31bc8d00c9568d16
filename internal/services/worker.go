package services

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrQueueFull         = errors.New("review queue is full")
	ErrDispatcherStopped = errors.New("dispatcher is stopped")
)

// Dispatcher hands review jobs to the reviewer outside the request path.
type Dispatcher interface {
	Start(ctx context.Context) error
	Stop()
	Enqueue(ctx context.Context, docID uuid.UUID) error
}

type worker struct {
	reviewer    ReviewerService
	jobQueue    chan uuid.UUID
	concurrency int
	wg          sync.WaitGroup
	stopChan    chan struct{}
	stopOnce    sync.Once
}

func NewWorker(reviewer ReviewerService, concurrency, queueSize int) Dispatcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	return &worker{
		reviewer:    reviewer,
		jobQueue:    make(chan uuid.UUID, queueSize),
		concurrency: concurrency,
		stopChan:    make(chan struct{}),
	}
}

// Start implements Dispatcher.
func (w *worker) Start(ctx context.Context) error {
	log.Printf("🚀 Starting worker with %d concurrent workers\n", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	log.Println("✅ Worker started successfully")
	return nil
}

// Stop implements Dispatcher. Jobs already running finish; queued jobs are dropped
// and their documents stay uploaded.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		log.Println("🛑 Stopping worker...")
		close(w.stopChan)
		w.wg.Wait()
		log.Println("✅ Worker stopped")
	})
}

// Enqueue implements Dispatcher. It never blocks on a full queue.
func (w *worker) Enqueue(ctx context.Context, docID uuid.UUID) error {
	select {
	case <-w.stopChan:
		log.Printf("⚠️  Worker stopped, cannot enqueue job %s\n", docID)
		return ErrDispatcherStopped
	default:
	}

	select {
	case w.jobQueue <- docID:
		log.Printf("📥 Job %s enqueued\n", docID)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		log.Printf("⚠️  Queue full, cannot enqueue job %s\n", docID)
		return ErrQueueFull
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			log.Printf("👷 Worker #%d stopped\n", workerID)
			return
		case <-ctx.Done():
			log.Printf("👷 Worker #%d stopped: %v\n", workerID, ctx.Err())
			return
		case docID := <-w.jobQueue:
			log.Printf("👷 Worker #%d processing job %s\n", workerID, docID)
			if _, err := w.reviewer.ReviewDocument(ctx, docID); err != nil {
				log.Printf("❌ Worker #%d failed to process job %s: %v\n", workerID, docID, err)
			} else {
				log.Printf("✅ Worker #%d completed job %s\n", workerID, docID)
			}
		}
	}
}
