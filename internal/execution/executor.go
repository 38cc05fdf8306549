package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/piwi3910/overmind/internal/action"
	"github.com/piwi3910/overmind/internal/model"
)

var (
	// ErrNoPlan is returned when there is nothing to execute.
	ErrNoPlan = errors.New("no plan to execute")
	// ErrRunning is returned when a control needs an idle executor.
	ErrRunning = errors.New("plan execution already running")
)

// Options configure an Executor.
type Options struct {
	Opcode       string
	AddrOf       func(wtype string) uint32
	TickInterval time.Duration
	// Speed scales plan time against wall time; 2 runs twice as fast.
	Speed float64
}

// OptionsFromConfig derives executor options from the console config.
func OptionsFromConfig(cfg model.AppConfig) Options {
	return Options{
		Opcode:       cfg.Opcode,
		AddrOf:       cfg.AddrOf,
		TickInterval: cfg.TickInterval,
		Speed:        1,
	}
}

// Executor sends the sequences of a plan to their workers. Start dispatches
// every sequence once its T0 has elapsed; Step and Skip walk the
// time-ordered sequences by hand.
type Executor struct {
	plan   *action.Plan
	bridge Bridge
	opts   Options

	mu          sync.Mutex
	numComplete int
	err         error
	manager     bt.Manager
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewExecutor creates an executor for plan. Zero options fall back to defaults.
func NewExecutor(plan *action.Plan, bridge Bridge, opts Options) *Executor {
	if opts.AddrOf == nil {
		opts.AddrOf = func(string) uint32 { return model.BroadcastAddr }
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 10 * time.Millisecond
	}
	if opts.Speed <= 0 {
		opts.Speed = 1
	}
	return &Executor{plan: plan, bridge: bridge, opts: opts}
}

// Start begins timed execution and returns immediately. Each worker runs its
// own ticker so that different workers dispatch concurrently while one
// worker's sequences stay in order.
func (e *Executor) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.plan == nil || e.plan.NumSeqs() == 0 {
		return ErrNoPlan
	}
	if e.runningLocked() {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	manager := bt.NewManager()
	start := time.Now()
	var tickers []bt.Ticker
	for _, w := range e.plan.Workers() {
		ticker := bt.NewTickerStopOnFailure(ctx, e.opts.TickInterval, e.workerNode(w, start))
		if err := manager.Add(ticker); err != nil {
			cancel()
			manager.Stop()
			return fmt.Errorf("failed to start worker %s: %w", w, err)
		}
		tickers = append(tickers, ticker)
	}

	e.numComplete = 0
	e.err = nil
	e.manager = manager
	e.cancel = cancel
	e.done = make(chan struct{})
	go func(done chan struct{}) {
		for _, t := range tickers {
			<-t.Done()
		}
		cancel()
		close(done)
	}(e.done)

	slog.Info("plan execution started", "workers", len(tickers), "seqs", e.plan.NumSeqs(), "total_sec", e.plan.TotalTime())
	return nil
}

// workerNode builds a memorized sequence with one dispatch leaf per ActionSeq,
// closed by a failing leaf that stops the ticker once everything was sent.
func (e *Executor) workerNode(worker string, start time.Time) bt.Node {
	seqs := append([]action.ActionSeq(nil), e.plan.Seqs[worker]...)
	sort.SliceStable(seqs, func(i, j int) bool { return seqs[i].T0 < seqs[j].T0 })

	leaves := make([]bt.Node, 0, len(seqs)+1)
	for _, s := range seqs {
		leaves = append(leaves, bt.New(e.dispatchTick(action.WorkerSeq{Worker: worker, Seq: s}, start)))
	}
	leaves = append(leaves, bt.New(func([]bt.Node) (bt.Status, error) {
		return bt.Failure, nil
	}))
	return bt.New(bt.Memorize(bt.Sequence), leaves...)
}

func (e *Executor) dispatchTick(ws action.WorkerSeq, start time.Time) bt.Tick {
	return func([]bt.Node) (bt.Status, error) {
		if time.Since(start).Seconds()*e.opts.Speed < ws.Seq.T0 {
			return bt.Running, nil
		}
		if err := e.send(ws); err != nil {
			e.mu.Lock()
			if e.err == nil {
				e.err = err
			}
			cancel := e.cancel
			e.mu.Unlock()
			if cancel != nil {
				cancel()
			}
			return bt.Failure, err
		}
		e.mu.Lock()
		e.numComplete++
		e.mu.Unlock()
		return bt.Success, nil
	}
}

func (e *Executor) send(ws action.WorkerSeq) error {
	addr := e.opts.AddrOf(ws.Worker)
	slog.Info("dispatch",
		"worker", ws.Worker,
		"addr", fmt.Sprintf("%08X", addr),
		"t0", ws.Seq.T0,
		"label", ws.Seq.Label)
	if err := e.bridge.SendCommand(e.opts.Opcode+ws.Seq.FullDesc(), addr); err != nil {
		return fmt.Errorf("failed to send %s seq at t=%.2f: %w", ws.Worker, ws.Seq.T0, err)
	}
	return nil
}

// Wait blocks until timed execution finished or was stopped and returns the
// first dispatch error.
func (e *Executor) Wait() error {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Stop aborts all pending dispatches and resets the progress counter.
// Commands already sent are not recalled.
func (e *Executor) Stop() {
	e.mu.Lock()
	manager, cancel, done := e.manager, e.cancel, e.done
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if manager != nil {
		manager.Stop()
	}
	if done != nil {
		<-done
	}

	e.mu.Lock()
	e.numComplete = 0
	e.mu.Unlock()
	slog.Info("plan execution stopped")
}

// Step sends the next sequence in time order right away. It reports false
// once every sequence has been handled.
func (e *Executor) Step() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.plan == nil {
		return false, ErrNoPlan
	}
	if e.runningLocked() {
		return false, ErrRunning
	}
	seqs := e.plan.SeqTimeOrdered()
	if e.numComplete >= len(seqs) {
		return false, nil
	}
	if err := e.send(seqs[e.numComplete]); err != nil {
		return false, err
	}
	e.numComplete++
	return true, nil
}

// Skip marks the next sequence as handled without sending it.
func (e *Executor) Skip() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.plan == nil || e.runningLocked() || e.numComplete >= e.plan.NumSeqs() {
		return false
	}
	e.numComplete++
	return true
}

// NumComplete returns how many sequences were sent or skipped.
func (e *Executor) NumComplete() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.numComplete
}

// Running reports whether timed execution is in progress.
func (e *Executor) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runningLocked()
}

func (e *Executor) runningLocked() bool {
	if e.done == nil {
		return false
	}
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}
