package notify

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

// Task is a single queued side-effect send.
type Task func(ctx context.Context) error

// Dispatcher runs notification sends on a small worker pool so the webhook
// handler never waits on SMTP or the SMS provider. Saturation drops the task
// rather than applying back-pressure; notifications are best-effort.
type Dispatcher struct {
	wg   sync.WaitGroup
	jobs chan Task
	quit chan struct{}
	n    int
	log  *zerolog.Logger
}

func NewDispatcher(workers int, logger *zerolog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Dispatcher{
		jobs: make(chan Task, workers*4),
		quit: make(chan struct{}),
		n:    workers,
		log:  logger,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.n; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-d.quit:
					return
				case task := <-d.jobs:
					if task == nil {
						continue
					}
					if err := task(ctx); err != nil {
						d.log.Warn().Int("worker", id).Err(err).Msg("notification task failed")
					}
				}
			}
		}(i)
	}
}

func (d *Dispatcher) Stop() {
	close(d.quit)
	d.wg.Wait()
}

func (d *Dispatcher) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case d.jobs <- task:
		return nil
	default:
		return errors.New("notification queue full")
	}
}
