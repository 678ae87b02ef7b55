package orchestrator

import (
	"sync"

	"github.com/piyushdatta/senseboard-server/internal/config"
)

// roomQueue is one room's strict-FIFO job queue (spec §4.2): capped at
// config.QueueCapPerRoom, with tick-job coalescing and oldest-drop
// overflow. A job whose caller waits on its Done channel is never merged
// into another job, so every waiting caller gets a reply.
type roomQueue struct {
	mu      sync.Mutex
	pending []Job
}

// enqueue appends job, first trying to merge a plain tick job with no
// Done channel into the first mergeable pending tick job, then dropping
// the oldest pending job if the cap is exceeded. Returns the job that
// was dropped for overflow, if any.
func (q *roomQueue) enqueue(job Job) (dropped *Job) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if job.Reason == ReasonTick && !job.Regenerate && job.Done == nil {
		for i := range q.pending {
			if mergeable(q.pending[i], job) {
				mergeInto(&q.pending[i], job)
				return nil
			}
		}
	}

	q.pending = append(q.pending, job)
	if len(q.pending) > config.QueueCapPerRoom {
		old := q.pending[0]
		q.pending = q.pending[1:]
		return &old
	}
	return nil
}

// dequeue pops the oldest job, or reports empty.
func (q *roomQueue) dequeue() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return Job{}, false
	}
	job := q.pending[0]
	q.pending = q.pending[1:]
	return job, true
}

func (q *roomQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
