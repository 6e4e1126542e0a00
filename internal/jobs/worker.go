package jobs

import (
	"context"
	"log"
	"time"
)

// Rescanner re-runs book ingestion so files added to the books directory
// while the bot is running get picked up.
type Rescanner interface {
	Rescan(ctx context.Context) error
}

// Worker represents a background rescan worker
type Worker struct {
	rescanner    Rescanner
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

// NewWorker creates a new Worker instance
func NewWorker(rescanner Rescanner, pollInterval time.Duration) *Worker {
	return &Worker{
		rescanner:    rescanner,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start begins the worker's polling loop
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("rescan worker started with poll interval: %v", w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Println("rescan worker stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Println("rescan worker stopped: stop signal received")
			return
		case <-ticker.C:
			if err := w.rescanner.Rescan(ctx); err != nil {
				log.Printf("rescan failed: %v", err)
			}
		}
	}
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Println("rescan worker shutdown complete")
}
