package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/overmind/internal/model"
	"github.com/piwi3910/overmind/internal/planner"
)

const sampleHistory = `{
  "history": [
    {"wtype": "TB", "seq": "300b80,300a40", "memo": "Grip", "used": 2},
    {"wtype": "FDW-RS", "seq": "700t80,100t0", "memo": "Fwd35", "used": 1},
    {"wtype": "TB", "seq": "250b-20", "memo": "", "used": 9}
  ],
  "workers": [
    {"wtype": "TB", "addr": 16},
    {"wtype": "FDW-RS", "addr": 32}
  ]
}`

func writeHistory(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "actions.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(sampleHistory), 0644))
	return path
}

func TestLoadHistory(t *testing.T) {
	h, err := LoadHistory(writeHistory(t))
	require.NoError(t, err)

	tb := h.GetFor("TB")
	require.Len(t, tb, 2)
	// Most used first.
	assert.Equal(t, "250b-20", tb[0].Seq)

	seq, ok := h.GetByMemo("TB", "Grip")
	assert.True(t, ok)
	assert.Equal(t, "300b80,300a40", seq)
	_, ok = h.GetByMemo("FDW-RS", "Grip")
	assert.False(t, ok)

	addr, ok := h.LookupAddr("TB")
	assert.True(t, ok)
	assert.Equal(t, uint32(16), addr)
	_, ok = h.LookupAddr("RS")
	assert.False(t, ok)
}

func TestAddrResolver(t *testing.T) {
	h, err := LoadHistory(writeHistory(t))
	require.NoError(t, err)
	cfg := model.DefaultAppConfig()
	cfg.Workers = []model.WorkerEntry{{WType: "TB", Addr: 0x8100000A}, {WType: "RR", Addr: 0x44}}

	addrOf := h.AddrResolver(cfg)
	assert.Equal(t, uint32(16), addrOf("TB"))
	assert.Equal(t, uint32(32), addrOf("FDW-RS"))
	assert.Equal(t, uint32(0x44), addrOf("RR"))
	assert.Equal(t, model.BroadcastAddr, addrOf("RH"))
}

func TestLoadHistoryMissingAndInvalid(t *testing.T) {
	h, err := LoadHistory(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Empty(t, h.GetFor("TB"))

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err = LoadHistory(path)
	assert.Error(t, err)
}

func TestNotifyUsedAndThumbDown(t *testing.T) {
	path := writeHistory(t)
	h, err := LoadHistory(path)
	require.NoError(t, err)

	require.NoError(t, h.NotifyUsed("TB", "300b80,300a40"))
	require.NoError(t, h.NotifyUsed("TB", "100a5"))
	require.NoError(t, h.ThumbDown("TB", "250b-20"))

	reloaded, err := LoadHistory(path)
	require.NoError(t, err)
	tb := reloaded.GetFor("TB")
	require.Len(t, tb, 2)
	assert.Equal(t, HistoryEntry{WType: "TB", Seq: "300b80,300a40", Memo: "Grip", Used: 3}, tb[0])
	assert.Equal(t, HistoryEntry{WType: "TB", Seq: "100a5", Used: 1}, tb[1])
}

func TestSortMovesWorkerTypeToFront(t *testing.T) {
	h, err := LoadHistory(writeHistory(t))
	require.NoError(t, err)

	h.Sort("FDW-RS")
	data := h.Data()
	assert.Equal(t, "FDW-RS", data.History[0].WType)
	assert.Equal(t, "250b-20", data.History[1].Seq)
}

func TestSetMemo(t *testing.T) {
	path := writeHistory(t)
	h, err := LoadHistory(path)
	require.NoError(t, err)

	require.NoError(t, h.SetMemo("TB", "250b-20", "Nudge"))
	require.NoError(t, h.SetMemo("FDW-RS", "1200t80,100t0", planner.MemoFwd60))

	reloaded, err := LoadHistory(path)
	require.NoError(t, err)
	seq, ok := reloaded.GetByMemo("TB", "Nudge")
	assert.True(t, ok)
	assert.Equal(t, "250b-20", seq)
	seq, ok = reloaded.GetByMemo("FDW-RS", planner.MemoFwd60)
	assert.True(t, ok)
	assert.Equal(t, "1200t80,100t0", seq)
}

func TestSetMemoMovesMemo(t *testing.T) {
	path := writeHistory(t)
	h, err := LoadHistory(path)
	require.NoError(t, err)

	require.NoError(t, h.SetMemo("TB", "250b-20", "Grip"))

	reloaded, err := LoadHistory(path)
	require.NoError(t, err)
	seq, ok := reloaded.GetByMemo("TB", "Grip")
	assert.True(t, ok)
	assert.Equal(t, "250b-20", seq)
	holders := 0
	for _, e := range reloaded.GetFor("TB") {
		if e.Memo == "Grip" {
			holders++
		}
	}
	assert.Equal(t, 1, holders)

	// Other worker types keep their memos.
	require.NoError(t, h.SetMemo("FDW-RS", "900t80,100t0", "Grip"))
	seq, ok = h.GetByMemo("TB", "Grip")
	assert.True(t, ok)
	assert.Equal(t, "250b-20", seq)
}

func TestLoadOrSeedHistory(t *testing.T) {
	path := writeHistory(t)
	h, err := LoadOrSeedHistory(path, planner.DefaultMacros())
	require.NoError(t, err)

	// Curated entries win over the seed.
	seq, _ := h.GetByMemo("TB", planner.MemoGrip)
	assert.Equal(t, "300b80,300a40", seq)
	for wtype, memos := range planner.RequiredMacros {
		for _, memo := range memos {
			_, ok := h.GetByMemo(wtype, memo)
			assert.True(t, ok, "%s %s", wtype, memo)
		}
	}

	fresh := filepath.Join(t.TempDir(), "actions.json")
	_, err = LoadOrSeedHistory(fresh, planner.DefaultMacros())
	require.NoError(t, err)
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestMerge(t *testing.T) {
	path := writeHistory(t)
	h, err := LoadHistory(path)
	require.NoError(t, err)

	n, err := h.Merge([]HistoryEntry{
		// Recalibrated Grip takes the memo from the old sequence.
		{WType: "TB", Seq: "350b80,300a40", Memo: "Grip"},
		// Known sequence gains a memo, lower use count is ignored.
		{WType: "TB", Seq: "250b-20", Memo: "Nudge", Used: 3},
		// Unchanged entry.
		{WType: "FDW-RS", Seq: "700t80,100t0", Memo: "Fwd35", Used: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	reloaded, err := LoadHistory(path)
	require.NoError(t, err)
	seq, ok := reloaded.GetByMemo("TB", "Grip")
	require.True(t, ok)
	assert.Equal(t, "350b80,300a40", seq)
	seq, ok = reloaded.GetByMemo("TB", "Nudge")
	require.True(t, ok)
	assert.Equal(t, "250b-20", seq)
	assert.Len(t, reloaded.GetFor("TB"), 3)
	for _, e := range reloaded.GetFor("TB") {
		if e.Seq == "250b-20" {
			assert.Equal(t, 9, e.Used)
		}
	}

	n, err = h.Merge([]HistoryEntry{{WType: "TB", Seq: "250b-20", Memo: "Nudge"}})
	require.NoError(t, err)
	assert.Zero(t, n)
}
