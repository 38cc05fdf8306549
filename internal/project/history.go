package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/piwi3910/overmind/internal/model"
	"github.com/piwi3910/overmind/internal/planner"
)

// HistoryEntry is one command sequence an operator sent to a worker type.
// Curated entries carry a memo that the planner looks them up by.
type HistoryEntry struct {
	WType string `json:"wtype"`
	Seq   string `json:"seq"`
	Memo  string `json:"memo"`
	Used  int    `json:"used"`
}

// HistoryFile is the on-disk layout of the command history.
type HistoryFile struct {
	History []HistoryEntry      `json:"history"`
	Workers []model.WorkerEntry `json:"workers"`
}

// CommandHistory is the file-backed command history store. Every mutation is
// written back to its file.
type CommandHistory struct {
	mu   sync.Mutex
	path string
	data HistoryFile
}

var _ planner.MacroSource = (*CommandHistory)(nil)

// LoadHistory reads the history at path. A missing file yields an empty store
// that will be created on the first mutation.
func LoadHistory(path string) (*CommandHistory, error) {
	h := &CommandHistory{path: path, data: HistoryFile{History: []HistoryEntry{}, Workers: []model.WorkerEntry{}}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return nil, fmt.Errorf("failed to read command history: %w", err)
	}
	if err := json.Unmarshal(data, &h.data); err != nil {
		return nil, fmt.Errorf("failed to parse command history %s: %w", path, err)
	}
	if h.data.History == nil {
		h.data.History = []HistoryEntry{}
	}
	sort.SliceStable(h.data.History, func(i, j int) bool {
		return h.data.History[i].Used > h.data.History[j].Used
	})
	return h, nil
}

// LoadOrSeedHistory loads the history at path and adds every macro of seed
// whose memo the store lacks. The file is written only when something was added.
func LoadOrSeedHistory(path string, seed planner.MacroTable) (*CommandHistory, error) {
	h, err := LoadHistory(path)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	wtypes := make([]string, 0, len(seed))
	for w := range seed {
		wtypes = append(wtypes, w)
	}
	sort.Strings(wtypes)

	added := false
	for _, w := range wtypes {
		memos := make([]string, 0, len(seed[w]))
		for memo := range seed[w] {
			memos = append(memos, memo)
		}
		sort.Strings(memos)
		for _, memo := range memos {
			if _, ok := h.byMemoLocked(w, memo); ok {
				continue
			}
			h.data.History = append(h.data.History, HistoryEntry{WType: w, Seq: seed[w][memo], Memo: memo})
			added = true
		}
	}
	if !added {
		return h, nil
	}
	return h, h.syncLocked()
}

// Path returns the backing file path.
func (h *CommandHistory) Path() string {
	return h.path
}

// Data returns a copy of the stored history.
func (h *CommandHistory) Data() HistoryFile {
	h.mu.Lock()
	defer h.mu.Unlock()
	return HistoryFile{
		History: append([]HistoryEntry(nil), h.data.History...),
		Workers: append([]model.WorkerEntry(nil), h.data.Workers...),
	}
}

// GetFor returns the entries of one worker type, most used first.
func (h *CommandHistory) GetFor(wtype string) []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []HistoryEntry
	for _, e := range h.data.History {
		if e.WType == wtype {
			out = append(out, e)
		}
	}
	return out
}

// GetByMemo implements planner.MacroSource.
func (h *CommandHistory) GetByMemo(wtype, memo string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.byMemoLocked(wtype, memo)
}

func (h *CommandHistory) byMemoLocked(wtype, memo string) (string, bool) {
	for _, e := range h.data.History {
		if e.WType == wtype && e.Memo == memo {
			return e.Seq, true
		}
	}
	return "", false
}

// SetMemo names an existing sequence, adding it when unknown. A memo is unique
// per worker type: any other sequence holding it loses it.
func (h *CommandHistory) SetMemo(wtype, seq, memo string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if memo != "" {
		h.clearMemoLocked(wtype, seq, memo)
	}
	for i, e := range h.data.History {
		if e.WType == wtype && e.Seq == seq {
			h.data.History[i].Memo = memo
			return h.syncLocked()
		}
	}
	h.data.History = append(h.data.History, HistoryEntry{WType: wtype, Seq: seq, Memo: memo})
	return h.syncLocked()
}

func (h *CommandHistory) clearMemoLocked(wtype, keep, memo string) {
	for i, e := range h.data.History {
		if e.WType == wtype && e.Memo == memo && e.Seq != keep {
			h.data.History[i].Memo = ""
		}
	}
}

// Merge folds imported entries into the store and writes it once. An entry
// with a memo takes the memo away from any other sequence of its worker type.
// Use counts never decrease. It returns how many entries were added or changed.
func (h *CommandHistory) Merge(entries []HistoryEntry) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	changed := 0
	for _, in := range entries {
		if in.Memo != "" {
			h.clearMemoLocked(in.WType, in.Seq, in.Memo)
		}
		found := false
		for i, e := range h.data.History {
			if e.WType != in.WType || e.Seq != in.Seq {
				continue
			}
			found = true
			updated := e
			if in.Memo != "" {
				updated.Memo = in.Memo
			}
			if in.Used > updated.Used {
				updated.Used = in.Used
			}
			if updated != e {
				h.data.History[i] = updated
				changed++
			}
			break
		}
		if !found {
			h.data.History = append(h.data.History, in)
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	return changed, h.syncLocked()
}

// NotifyUsed counts one use of seq, adding it when unknown.
func (h *CommandHistory) NotifyUsed(wtype, seq string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, e := range h.data.History {
		if e.WType == wtype && e.Seq == seq {
			h.data.History[i].Used++
			return h.syncLocked()
		}
	}
	h.data.History = append(h.data.History, HistoryEntry{WType: wtype, Seq: seq, Used: 1})
	return h.syncLocked()
}

// ThumbDown removes seq from the history.
func (h *CommandHistory) ThumbDown(wtype, seq string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	kept := h.data.History[:0]
	for _, e := range h.data.History {
		if !(e.WType == wtype && e.Seq == seq) {
			kept = append(kept, e)
		}
	}
	h.data.History = kept
	return h.syncLocked()
}

// Sort moves the entries of wtype to the front, most used first.
func (h *CommandHistory) Sort(wtype string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var these, others []HistoryEntry
	for _, e := range h.data.History {
		if e.WType == wtype {
			these = append(these, e)
		} else {
			others = append(others, e)
		}
	}
	sort.SliceStable(these, func(i, j int) bool { return these[i].Used > these[j].Used })
	h.data.History = append(these, others...)
}

// LookupAddr returns the address recorded for a worker type.
func (h *CommandHistory) LookupAddr(wtype string) (uint32, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, w := range h.data.Workers {
		if w.WType == wtype {
			return w.Addr, true
		}
	}
	return 0, false
}

// AddrResolver returns an address lookup that prefers the workers recorded in
// the history and falls back to cfg, then to BroadcastAddr.
func (h *CommandHistory) AddrResolver(cfg model.AppConfig) func(wtype string) uint32 {
	return func(wtype string) uint32 {
		if addr, ok := h.LookupAddr(wtype); ok {
			return addr
		}
		return cfg.AddrOf(wtype)
	}
}

func (h *CommandHistory) syncLocked() error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	data, err := json.MarshalIndent(h.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal command history: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write command history: %w", err)
	}
	return nil
}
