// Package supervise keeps exactly one live, auto-restarting control-loop
// worker per discovered master instance. The discovery poller and the worker
// pool form one fault domain: a restarted poller rebuilds its registry from
// the pool's actual live set, so the two views of "which workers exist" can
// never diverge.
package supervise

import (
	"context"
	"log/slog"
	"time"

	"github.com/san-kum/skypilot/internal/vehicle"
)

const (
	DefaultPollInterval = time.Second
	DefaultBackoffMin   = 250 * time.Millisecond
	DefaultBackoffMax   = 5 * time.Second
)

// Config tunes discovery polling and the worker restart policy.
type Config struct {
	PollInterval time.Duration

	// MaxRestarts caps per-worker restarts; zero means unlimited.
	MaxRestarts int

	BackoffMin time.Duration
	BackoffMax time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.BackoffMin <= 0 {
		c.BackoffMin = DefaultBackoffMin
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = DefaultBackoffMax
	}
	if c.BackoffMax < c.BackoffMin {
		c.BackoffMax = c.BackoffMin
	}
	return c
}

// WorkerFunc runs one instance's control loop until its context is canceled
// or the loop fails. The supervisor restarts it from scratch on failure.
type WorkerFunc func(ctx context.Context, inst vehicle.Instance) error

// Supervisor polls discovery and owns the worker pool.
type Supervisor struct {
	cfg   Config
	disc  vehicle.Discovery
	spawn WorkerFunc
	log   *slog.Logger
	pool  *pool
}

func New(disc vehicle.Discovery, spawn WorkerFunc, cfg Config, log *slog.Logger) *Supervisor {
	return &Supervisor{
		cfg:   cfg.withDefaults(),
		disc:  disc,
		spawn: spawn,
		log:   log,
		pool:  newPool(),
	}
}

// Run polls until ctx is canceled. A poll-loop failure (discovery error) is
// logged and the loop restarted after a backoff; workers keep running across
// poller restarts. Run returns after all workers have drained.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.pool.wait()

	bo := newBackoff(s.cfg.BackoffMin, s.cfg.BackoffMax)
	for {
		started := time.Now()
		err := s.poll(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		wait := bo.delay(time.Since(started))
		s.log.Error("discovery poll loop failed, restarting", "error", err, "backoff", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// poll runs poll cycles at the configured interval until one fails. The
// registry is rebuilt from the pool's live set on entry, so a fresh poll loop
// does not double-start workers that survived the previous one.
func (s *Supervisor) poll(ctx context.Context) error {
	registry := s.pool.addrs()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := s.pollOnce(ctx, registry); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// pollOnce lists instances and starts a worker for each master not yet in
// the registry. The check-then-insert is race-free because only this poll
// loop mutates the registry.
func (s *Supervisor) pollOnce(ctx context.Context, registry map[string]struct{}) error {
	instances, err := s.disc.ListInstances(ctx)
	if err != nil {
		return err
	}

	for _, inst := range instances {
		if inst.Role != vehicle.RoleMaster {
			continue
		}
		if _, ok := registry[inst.Addr]; ok {
			continue
		}
		registry[inst.Addr] = struct{}{}
		s.pool.start(ctx, inst, s.spawn, s.cfg, s.log)
		s.log.Info("master instance discovered", "instance", inst.Addr, "host_kind", inst.HostKind)
	}
	return nil
}

// Snapshot reports the pool's workers for monitoring.
func (s *Supervisor) Snapshot() []WorkerStatus {
	return s.pool.statuses()
}
