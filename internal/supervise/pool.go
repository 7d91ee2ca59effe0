package supervise

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/san-kum/skypilot/internal/vehicle"
)

// WorkerStatus is a monitoring view of one worker.
type WorkerStatus struct {
	ID        string           `json:"id"`
	Instance  vehicle.Instance `json:"instance"`
	StartedAt time.Time        `json:"started_at"`
	Restarts  int              `json:"restarts"`
	Failed    bool             `json:"failed"`
}

type worker struct {
	id        xid.ID
	inst      vehicle.Instance
	startedAt time.Time

	mu       sync.Mutex
	restarts int
	failed   bool
}

func (w *worker) status() WorkerStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WorkerStatus{
		ID:        w.id.String(),
		Instance:  w.inst,
		StartedAt: w.startedAt,
		Restarts:  w.restarts,
		Failed:    w.failed,
	}
}

// pool owns the monitored worker goroutines, one per instance address.
// Workers are never removed: a permanently failed worker stays in the map so
// rediscovery cannot hot-loop it back to life.
type pool struct {
	mu      sync.Mutex
	workers map[string]*worker
	wg      sync.WaitGroup
}

func newPool() *pool {
	return &pool{workers: make(map[string]*worker)}
}

// start launches a monitored worker for inst. The caller guarantees inst is
// not already present (the poll registry dedups); a duplicate start is
// ignored here as a second line of defense.
func (p *pool) start(ctx context.Context, inst vehicle.Instance, spawn WorkerFunc, cfg Config, log *slog.Logger) {
	p.mu.Lock()
	if _, ok := p.workers[inst.Addr]; ok {
		p.mu.Unlock()
		return
	}
	w := &worker{id: xid.New(), inst: inst, startedAt: time.Now()}
	p.workers[inst.Addr] = w
	p.wg.Add(1)
	p.mu.Unlock()

	wlog := log.With("worker", w.id.String(), "instance", inst.Addr)
	go p.monitor(ctx, w, spawn, cfg, wlog)
}

// monitor runs the worker, restarting it with capped exponential backoff
// until the context ends or the restart limit is reached. Each restart runs
// the worker from scratch; integral history is lost by design.
func (p *pool) monitor(ctx context.Context, w *worker, spawn WorkerFunc, cfg Config, log *slog.Logger) {
	defer p.wg.Done()

	bo := newBackoff(cfg.BackoffMin, cfg.BackoffMax)
	for {
		started := time.Now()
		err := runOnce(ctx, spawn, w.inst)
		if ctx.Err() != nil {
			return
		}

		w.mu.Lock()
		w.restarts++
		restarts := w.restarts
		if cfg.MaxRestarts > 0 && restarts > cfg.MaxRestarts {
			w.failed = true
			w.mu.Unlock()
			log.Error("worker exceeded restart limit, giving up", "restarts", restarts-1, "error", err)
			return
		}
		w.mu.Unlock()

		wait := bo.delay(time.Since(started))
		log.Warn("worker exited, restarting", "restarts", restarts, "backoff", wait, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// runOnce isolates a single worker run, converting panics into errors so a
// crashing instance cannot take the process down with it.
func runOnce(ctx context.Context, spawn WorkerFunc, inst vehicle.Instance) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	return spawn(ctx, inst)
}

// addrs returns the addresses of all workers, failed ones included, for
// registry rebuilds.
func (p *pool) addrs() map[string]struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]struct{}, len(p.workers))
	for addr := range p.workers {
		out[addr] = struct{}{}
	}
	return out
}

func (p *pool) statuses() []WorkerStatus {
	p.mu.Lock()
	workers := make([]*worker, 0, len(p.workers))
	for _, w := range p.workers {
		workers = append(workers, w)
	}
	p.mu.Unlock()

	out := make([]WorkerStatus, 0, len(workers))
	for _, w := range workers {
		out = append(out, w.status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instance.Addr < out[j].Instance.Addr })
	return out
}

// wait blocks until every worker goroutine has returned.
func (p *pool) wait() { p.wg.Wait() }
