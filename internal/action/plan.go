package action

import (
	"sort"
	"strings"
)

// ActionSeq is a sequence of actions that must be sent to a worker as one
// command. Partial sequences can desynchronize the worker's state machine;
// the most common pattern is [start, stop].
type ActionSeq struct {
	Actions []Action
	T0      float64
	T1      float64
	Label   string
}

// NewSeq creates a sequence starting at t0. T1 follows from the action durations.
func NewSeq(actions []Action, t0 float64, label string) ActionSeq {
	s := ActionSeq{Actions: actions, T0: t0, Label: label}
	s.T1 = t0 + s.DurationSec()
	return s
}

// DurationSec returns the sum of the action durations.
func (s ActionSeq) DurationSec() float64 {
	total := 0.0
	for _, a := range s.Actions {
		total += a.DurationSec()
	}
	return total
}

// FullDesc returns the wire form: tokens joined by commas, without opcode.
func (s ActionSeq) FullDesc() string {
	toks := make([]string, len(s.Actions))
	for i, a := range s.Actions {
		toks[i] = a.Token()
	}
	return strings.Join(toks, ",")
}

// WorkerSeq is an ActionSeq tagged with the worker type it is meant for.
type WorkerSeq struct {
	Worker string
	Seq    ActionSeq
}

// Plan maps a worker type to its time-ordered, non-overlapping sequences.
type Plan struct {
	Seqs map[string][]ActionSeq
}

// NewPlan returns an empty plan.
func NewPlan() *Plan {
	return &Plan{Seqs: make(map[string][]ActionSeq)}
}

// Add appends seq to the worker's list.
func (p *Plan) Add(worker string, seq ActionSeq) {
	p.Seqs[worker] = append(p.Seqs[worker], seq)
}

// Workers returns the worker types present in the plan, sorted.
func (p *Plan) Workers() []string {
	ws := make([]string, 0, len(p.Seqs))
	for w := range p.Seqs {
		ws = append(ws, w)
	}
	sort.Strings(ws)
	return ws
}

// SeqTimeOrdered flattens the plan into one list sorted by start time.
// Ties between workers keep worker-name then per-worker order.
func (p *Plan) SeqTimeOrdered() []WorkerSeq {
	var out []WorkerSeq
	for _, w := range p.Workers() {
		for _, s := range p.Seqs[w] {
			out = append(out, WorkerSeq{Worker: w, Seq: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Seq.T0 < out[j].Seq.T0
	})
	return out
}

// TotalTime returns the latest end time of any sequence.
func (p *Plan) TotalTime() float64 {
	total := 0.0
	for _, seqs := range p.Seqs {
		for _, s := range seqs {
			if s.T1 > total {
				total = s.T1
			}
		}
	}
	return total
}

// TotalTxCommandSize returns the summed length of every serialized sequence.
// Radio payloads are small, so operators watch this number.
func (p *Plan) TotalTxCommandSize() int {
	n := 0
	for _, seqs := range p.Seqs {
		for _, s := range seqs {
			n += len(s.FullDesc())
		}
	}
	return n
}

// NumSeqs returns the number of sequences over all workers.
func (p *Plan) NumSeqs() int {
	n := 0
	for _, seqs := range p.Seqs {
		n += len(seqs)
	}
	return n
}

// Overlaps reports the first worker whose sequences overlap in time, if any.
func (p *Plan) Overlaps() (string, bool) {
	for _, w := range p.Workers() {
		seqs := append([]ActionSeq(nil), p.Seqs[w]...)
		sort.SliceStable(seqs, func(i, j int) bool { return seqs[i].T0 < seqs[j].T0 })
		for i := 1; i < len(seqs); i++ {
			if seqs[i-1].T1 > seqs[i].T0+timeEps {
				return w, true
			}
		}
	}
	return "", false
}

const timeEps = 1e-9
