package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/nandanugg/zone-tracker/module/core/domain"
)

const DefaultRetryDelay = 500 * time.Millisecond

var (
	ErrCycleInFlight   = errors.New("update cycle already in flight")
	ErrSchedulerClosed = errors.New("scheduler closed")
)

type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseFiltering
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseFiltering:
		return "filtering"
	case PhaseActive:
		return "active"
	}
	return "invalid"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

type hostRuntime interface {
	Config() (*domain.TrackerConfig, bool)
	UserAgent() string
	Zones(ctx context.Context) ([]domain.Zone, error)
}

type stateReporter interface {
	Report(ctx context.Context, cfg *domain.TrackerConfig, zones []domain.Zone) (*domain.StateUpdate, error)
}

type SchedulerOption func(*Scheduler)

func WithClock(c Clock) SchedulerOption {
	return func(s *Scheduler) { s.clock = c }
}

func WithRetryDelay(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.retryDelay = d
		}
	}
}

// WithFailureHandler receives errors from cycles started by the retry or
// rescan timers, which have no caller to return them to.
func WithFailureHandler(f func(error)) SchedulerOption {
	return func(s *Scheduler) { s.onFailure = f }
}

type Status struct {
	Phase          Phase               `json:"phase"`
	Armed          bool                `json:"armed"`
	RetryPending   bool                `json:"retry_pending"`
	InFlight       bool                `json:"in_flight"`
	LastUpdate     *domain.StateUpdate `json:"last_update"`
	LastReportedAt *time.Time          `json:"last_reported_at"`
	Stale          bool                `json:"stale"`
}

// Scheduler decides when a capture/resolve/report cycle runs.
//
// A trigger while the runtime is not ready (no config, or zones unreadable)
// schedules a single retry; later triggers replace it rather than stacking.
// Once ready, a positive scan interval arms one rescan timer for the life of
// the scheduler. A configured user-agent filter that does not match skips the
// cycle silently. At most one cycle captures at a time.
type Scheduler struct {
	runtime    hostRuntime
	reporter   stateReporter
	clock      Clock
	retryDelay time.Duration
	onFailure  func(error)

	mu         sync.Mutex
	phase      Phase
	retry      Timer
	retryGen   uint64
	rescan     Timer
	inFlight   bool
	closed     bool
	lastUpdate *domain.StateUpdate
	lastAt     time.Time
}

func NewScheduler(rt hostRuntime, reporter stateReporter, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		runtime:    rt,
		reporter:   reporter,
		clock:      realClock{},
		retryDelay: DefaultRetryDelay,
		onFailure: func(err error) {
			log.Printf("update cycle failed: %v", err)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Trigger runs one cycle. It returns a nil update and nil error when the
// cycle was deferred or filtered out.
func (s *Scheduler) Trigger(ctx context.Context) (*domain.StateUpdate, error) {
	cfg, ready := s.runtime.Config()
	var zones []domain.Zone
	if ready {
		var err error
		zones, err = s.runtime.Zones(ctx)
		if err != nil {
			log.Printf("zones not available, retrying in %s: %v", s.retryDelay, err)
			ready = false
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSchedulerClosed
	}

	if !ready {
		s.phase = PhaseUninitialized
		s.scheduleRetryLocked()
		s.mu.Unlock()
		return nil, nil
	}

	s.stopRetryLocked()
	s.armLocked(cfg.ScanInterval)
	s.phase = PhaseFiltering

	if cfg.UserAgentFilter != "" && !strings.Contains(s.runtime.UserAgent(), cfg.UserAgentFilter) {
		s.mu.Unlock()
		return nil, nil
	}

	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrCycleInFlight
	}
	s.inFlight = true
	s.phase = PhaseActive
	s.mu.Unlock()

	update, err := s.reporter.Report(ctx, cfg, zones)

	s.mu.Lock()
	s.inFlight = false
	if err == nil {
		s.lastUpdate = update
		s.lastAt = s.clock.Now()
	}
	s.mu.Unlock()

	return update, err
}

// Arm starts the periodic rescan. Calling it again while armed does nothing.
func (s *Scheduler) Arm(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.armLocked(interval)
}

func (s *Scheduler) Status() Status {
	var interval time.Duration
	if cfg, ok := s.runtime.Config(); ok {
		interval = cfg.ScanInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Phase:        s.phase,
		Armed:        s.rescan != nil,
		RetryPending: s.retry != nil,
		InFlight:     s.inFlight,
		LastUpdate:   s.lastUpdate,
		Stale:        IsTimeForUpdate(s.clock.Now(), s.lastAt, interval),
	}
	if !s.lastAt.IsZero() {
		at := s.lastAt
		st.LastReportedAt = &at
	}
	return st
}

// Close stops the retry and rescan timers. Later triggers fail with
// ErrSchedulerClosed.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopRetryLocked()
	if s.rescan != nil {
		s.rescan.Stop()
		s.rescan = nil
	}
}

func (s *Scheduler) scheduleRetryLocked() {
	s.stopRetryLocked()
	gen := s.retryGen
	s.retry = s.clock.AfterFunc(s.retryDelay, func() {
		s.mu.Lock()
		if s.retryGen != gen {
			s.mu.Unlock()
			return
		}
		s.retry = nil
		s.mu.Unlock()
		s.runTimed()
	})
}

func (s *Scheduler) stopRetryLocked() {
	s.retryGen++
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
}

func (s *Scheduler) armLocked(interval time.Duration) {
	if interval <= 0 || s.rescan != nil {
		return
	}
	s.rescan = s.clock.Every(interval, s.runTimed)
}

func (s *Scheduler) runTimed() {
	_, err := s.Trigger(context.Background())
	switch {
	case err == nil:
	case errors.Is(err, ErrCycleInFlight):
		log.Printf("skipping timed update: %v", err)
	case errors.Is(err, ErrSchedulerClosed):
	default:
		s.onFailure(err)
	}
}

// IsTimeForUpdate reports whether interval has elapsed since lastReported.
// A zero lastReported is always due.
func IsTimeForUpdate(now, lastReported time.Time, interval time.Duration) bool {
	if lastReported.IsZero() {
		return true
	}
	return !now.Before(lastReported.Add(interval))
}
