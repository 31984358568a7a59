// Package scheduler implements the bounded-concurrency work-pool that
// runs per-SCC/per-community discovery jobs, with round-robin fairness
// across tenants and cooperative cancellation (spec §4.8).
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is one unit of discovery work: a single SCC or community
// enumeration pass for one tenant.
type Job struct {
	ID       string
	TenantID string
	Deadline time.Time
	Cancel   <-chan struct{}
	Run      func(ctx context.Context)
}

// Pool is a fixed-size worker pool fed by per-tenant queues, dispatched
// round-robin so one tenant's large SCC cannot starve another (spec
// §4.8). Grounded on the teacher's websocket Hub broadcast-loop and
// mempool Poller's ctx-cancellable Run loop, generalized from a single
// channel consumer to N concurrent workers pulling from shared
// per-tenant queues.
type Pool struct {
	mu       sync.Mutex
	queues   map[string][]Job // tenantID -> pending jobs, FIFO within a tenant
	order    []string         // round-robin cursor over tenant ids with pending work
	notify   chan struct{}
	workers  int
	wg       sync.WaitGroup
	shutdown chan struct{}
	once     sync.Once
}

// New returns a pool with `workers` goroutines. Per spec §4.8 the
// documented default is the host's hardware thread count, clamped to
// [2,16]; callers decide that default, New just accepts the final count.
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		queues:   make(map[string][]Job),
		notify:   make(chan struct{}, workers*2),
		workers:  workers,
		shutdown: make(chan struct{}),
	}
}

// Start launches the worker goroutines. Safe to call once.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.workerLoop(i)
	}
}

// Submit enqueues a job for its tenant. If Job.ID is empty, one is
// generated.
func (p *Pool) Submit(j Job) {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}

	p.mu.Lock()
	if _, ok := p.queues[j.TenantID]; !ok {
		p.order = append(p.order, j.TenantID)
	}
	p.queues[j.TenantID] = append(p.queues[j.TenantID], j)
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// next pops the next job using round-robin fairness across tenants with
// pending work.
func (p *Pool) next() (Job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.order) > 0 {
		tenantID := p.order[0]
		p.order = p.order[1:]

		q := p.queues[tenantID]
		if len(q) == 0 {
			delete(p.queues, tenantID)
			continue
		}

		j := q[0]
		p.queues[tenantID] = q[1:]
		if len(p.queues[tenantID]) > 0 {
			p.order = append(p.order, tenantID)
		} else {
			delete(p.queues, tenantID)
		}
		return j, true
	}
	return Job{}, false
}

func (p *Pool) workerLoop(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.shutdown:
			return
		case <-p.notify:
			for {
				job, ok := p.next()
				if !ok {
					break
				}
				p.runJob(job)
			}
		}
	}
}

func (p *Pool) runJob(j Job) {
	ctx := context.Background()
	if !j.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, j.Deadline)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[scheduler] job %s (tenant=%s) panicked: %v", j.ID, j.TenantID, r)
		}
	}()
	j.Run(ctx)
}

// Shutdown stops accepting new dispatch and waits for in-flight jobs to
// complete (spec §5: "pause ... lets in-flight ones complete"). Already
// queued-but-undispatched jobs are abandoned.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.shutdown)
	})
	p.wg.Wait()
}

// PendingCount returns the number of queued (not yet dispatched) jobs
// across all tenants, for status reporting.
func (p *Pool) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, q := range p.queues {
		total += len(q)
	}
	return total
}
