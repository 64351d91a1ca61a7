package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/userhub/user-management/internal/api/metrics"
	"github.com/userhub/user-management/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher delivers outbound email asynchronously through a fixed set of
// workers, sharded by recipient so messages to the same address keep their
// order. Delivery failures are logged, never surfaced to the enqueuer.
type Dispatcher struct {
	workers []chan ports.EmailJob
	sender  ports.EmailSender
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sender ports.EmailSender, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.EmailJob, numWorkers),
		sender:  sender,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.EmailJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a job to the worker responsible for its recipient. The call
// is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(job ports.EmailJob) {
	d.workers[d.shardIndex(job.Recipient)] <- job
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.EmailJob) {
	workerID := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			metrics.EmailQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))
			if err := d.sender.Send(ctx, job); err != nil {
				metrics.EmailsSentTotal.WithLabelValues(job.Template, "failed").Inc()
				d.log.Error().Err(err).
					Str("template", job.Template).
					Str("recipient", job.Recipient).
					Int("worker", id).
					Msg("email delivery failed")
				continue
			}
			metrics.EmailsSentTotal.WithLabelValues(job.Template, "sent").Inc()
			d.log.Debug().
				Str("template", job.Template).
				Str("recipient", job.Recipient).
				Msg("email delivered")
		}
	}
}
