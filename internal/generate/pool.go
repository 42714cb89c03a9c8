package generate

import (
	"context"
	"errors"

	"tagsmith/internal/logging"
)

// ErrQueueFull is returned by Enqueue when the backlog is at capacity.
var ErrQueueFull = errors.New("generation queue is full")

// ErrNotRunning is returned by Enqueue before Start or after Stop.
var ErrNotRunning = errors.New("orchestrator is not running")

const queueDepthPerWorker = 16

// Start launches the worker pool. Workers drain the queue until Stop closes
// it or ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return
	}

	workers := o.cfg.Workflow.Workers
	if workers < 1 {
		workers = 1
	}
	o.queue = make(chan request, workers*queueDepthPerWorker)
	o.started = true

	for i := 0; i < workers; i++ {
		o.wg.Add(1)
		go o.worker(ctx)
	}
	o.logger.Info("generation workers started", logging.Int("workers", workers))
}

// Stop closes the queue and waits for in-flight generations to finish.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.started {
		o.mu.Unlock()
		return
	}
	o.started = false
	queue := o.queue
	o.queue = nil
	o.mu.Unlock()

	close(queue)
	o.wg.Wait()
	o.logger.Info("generation workers stopped")
}

// Enqueue queues one image for background generation without blocking.
func (o *Orchestrator) Enqueue(imageID int64, force bool) error {
	o.mu.Lock()
	queue := o.queue
	running := o.started
	o.mu.Unlock()

	if !running {
		return ErrNotRunning
	}
	select {
	case queue <- request{imageID: imageID, force: force}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (o *Orchestrator) worker(ctx context.Context) {
	defer o.wg.Done()

	o.mu.Lock()
	queue := o.queue
	o.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-queue:
			if !ok {
				return
			}
			// Generate records failures itself; workers keep draining.
			if _, err := o.Generate(ctx, req.imageID, req.force); err != nil {
				o.logger.Warn("queued generation failed",
					logging.Int64(logging.FieldImageID, req.imageID),
					logging.Error(err),
				)
			}
		}
	}
}
