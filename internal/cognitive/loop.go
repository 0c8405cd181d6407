// Package cognitive implements the background cognitive loop: a fixed-
// period goroutine that spreads and decays activation, relaxes the mode
// parameter back toward diffuse over time, and — depending on which regime
// that leaves the system in — either wanders associatively or dispatches
// pending actions. The ticker-plus-listener shape follows the same pattern
// as a simulated-world clock, adapted from simulated world time to
// cognitive simulation time.
package cognitive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nidhogg/cogkernel/internal/action"
	"github.com/nidhogg/cogkernel/internal/activation"
	"github.com/nidhogg/cogkernel/internal/graph"
	"go.uber.org/zap"
)

const (
	// DefaultInterval is the tick period between relaxation steps.
	DefaultInterval = 1 * time.Second
	// modeRelaxation is how far the mode parameter drifts back toward
	// diffuse (0) on every tick absent any new input nudging it focused.
	modeRelaxation = 0.02
	// actionDispatchThreshold is the mode level at or above which the
	// tick dispatches pending actions instead of drifting.
	actionDispatchThreshold = 0.4
)

// StatusRecord summarizes the outcome of a single tick, published for any
// observer (CLI, HTTP status endpoint, status bus) to consume.
type StatusRecord struct {
	Tick             int
	Mode             float64
	TopNodeID        string
	TopActivation    float64
	ActiveCount      int
	DriftDescription string
	ActionsFired     int
}

// String renders a one-line heartbeat, in the spirit of a REPL status line:
// tick number, mode, the currently dominant node, and whatever happened
// (drift or action dispatch) this tick.
func (s StatusRecord) String() string {
	activity := s.DriftDescription
	if s.ActionsFired > 0 {
		activity = fmt.Sprintf("fired %d action(s)", s.ActionsFired)
	}
	if activity == "" {
		activity = "idle"
	}
	top := s.TopNodeID
	if top == "" {
		top = "-"
	}
	return fmt.Sprintf("tick=%d mode=%.2f top=%s(%.2f) active=%d %s",
		s.Tick, s.Mode, top, s.TopActivation, s.ActiveCount, activity)
}

// Loop drives the tick sequence under a caller-supplied lock shared with
// whatever else serializes graph/activation access (the kernel's coarse
// lock). Loop itself holds no graph/activation invariants beyond what a
// single tick needs, so it stays safe to construct before the rest of the
// kernel is wired up.
type Loop struct {
	graph    *graph.Graph
	am       *activation.Manager
	executor *action.Executor
	locker   sync.Locker
	interval time.Duration

	statuses chan StatusRecord
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	tickNum  int

	logger *zap.Logger
}

// New creates a Loop. A zero interval defaults to DefaultInterval. queueSize
// bounds the status channel; once full, the oldest unread status is
// dropped to make room rather than blocking the tick goroutine.
func New(g *graph.Graph, am *activation.Manager, executor *action.Executor, locker sync.Locker, interval time.Duration, queueSize int, logger *zap.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if queueSize <= 0 {
		queueSize = 32
	}
	return &Loop{
		graph:    g,
		am:       am,
		executor: executor,
		locker:   locker,
		interval: interval,
		statuses: make(chan StatusRecord, queueSize),
		logger:   logger,
	}
}

// Statuses returns the channel of published tick statuses.
func (l *Loop) Statuses() <-chan StatusRecord { return l.statuses }

// Start begins ticking in a background goroutine.
func (l *Loop) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.wg.Add(1)
	go l.run(ctx)
	if l.logger != nil {
		l.logger.Info("cognitive loop started", zap.Duration("interval", l.interval))
	}
}

// Stop halts the tick loop and waits for the goroutine to exit.
func (l *Loop) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()
	if l.logger != nil {
		l.logger.Info("cognitive loop stopped")
	}
}

func (l *Loop) run(ctx context.Context) {
	defer l.wg.Done()
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := l.tick(ctx)
			l.publish(status)
		}
	}
}

// tick runs exactly one relaxation step: spread, decay, relax the mode
// toward diffuse, then either drift (diffuse regime) or dispatch pending
// actions (focused regime).
func (l *Loop) tick(ctx context.Context) StatusRecord {
	l.locker.Lock()
	defer l.locker.Unlock()

	l.tickNum++

	l.am.Spread()
	l.am.Decay()
	l.am.SetMode(-modeRelaxation)

	status := StatusRecord{
		Tick:          l.tickNum,
		Mode:          l.am.Mode(),
		TopNodeID:     l.am.GetTop(),
		TopActivation: l.am.GetActivation(l.am.GetTop()),
		ActiveCount:   l.am.ActiveCount(),
	}

	if l.am.Mode() < actionDispatchThreshold {
		status.DriftDescription = l.am.Drift()
	} else {
		results := l.executor.RunEligible(ctx, l.graph, l.am, status.TopNodeID, "")
		status.ActionsFired = len(results)
	}

	return status
}

// publish pushes status, dropping the oldest queued status to make room if
// the channel is full, so a slow or absent consumer never stalls ticking.
func (l *Loop) publish(status StatusRecord) {
	for {
		select {
		case l.statuses <- status:
			return
		default:
			select {
			case <-l.statuses:
			default:
			}
		}
	}
}
