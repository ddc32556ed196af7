package replay

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestRecordAndQueryRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	l.RecordAction("u1", 10, "move_to", map[string]any{"node": "alpha"}, "")
	l.RecordAction("u1", 25, "retreat_to", map[string]any{"node": "rally"}, "trig-1")
	l.RecordAction("u2", 12, "take_cover", nil, "trig-2")

	// Writes are asynchronous; Close drains the channel.
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.ActionsFor("u1")
	if err != nil {
		t.Fatalf("ActionsFor failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries for u1, got %d", len(got))
	}
	if got[0].Action != "move_to" || got[0].Tick != 10 {
		t.Errorf("first entry wrong: %+v", got[0])
	}
	if got[1].TriggerID != "trig-1" {
		t.Errorf("trigger id lost: %+v", got[1])
	}
	if node, _ := got[0].Params["node"].(string); node != "alpha" {
		t.Errorf("params lost in roundtrip: %+v", got[0].Params)
	}
}

func TestRecordAfterCloseIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Must not panic on the closed channel.
	l.RecordAction("u1", 1, "move_to", nil, "")
	time.Sleep(10 * time.Millisecond)
}

func TestConcurrentRecordDuringClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	// Recorders race the shutdown; none of them may hit the closed channel.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tick := uint64(0); tick < 200; tick++ {
				l.RecordAction("u1", tick, "move_to", nil, "")
			}
		}()
	}

	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	wg.Wait()
}
