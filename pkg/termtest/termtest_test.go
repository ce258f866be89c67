package termtest

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type pingMsg struct{ n int }

func emit(n int) tea.Cmd {
	return func() tea.Msg { return pingMsg{n} }
}

func TestCollectFlattensBatchAndSequence(t *testing.T) {
	cmd := tea.Batch(emit(1), tea.Sequence(emit(2), emit(3)), nil, func() tea.Msg { return nil })
	msgs := Collect(cmd)
	if len(msgs) != 3 {
		t.Fatalf("Collect() = %v, want 3 messages", msgs)
	}
	for i, m := range msgs {
		if m.(pingMsg).n != i+1 {
			t.Errorf("msg %d = %v", i, m)
		}
	}
	if Count[pingMsg](msgs) != 3 {
		t.Error("Count mismatch")
	}
	if p, ok := Find[pingMsg](msgs); !ok || p.n != 1 {
		t.Errorf("Find = %v, %v", p, ok)
	}
}

func TestCollectNil(t *testing.T) {
	if Collect(nil) != nil {
		t.Error("Collect(nil) should be nil")
	}
}

func TestCaptureSnapshotStripsANSI(t *testing.T) {
	s := CaptureSnapshot("styled", func(w, h int) string {
		return "\x1b[1mbold\x1b[0m   \nplain"
	}, 10, 2)
	if s.Lines()[0] != "bold" {
		t.Errorf("Lines()[0] = %q, want bold", s.Lines()[0])
	}
	if !s.Contains("plain") {
		t.Error("Contains(plain) = false")
	}
	if s.MaxWidth() != 7 {
		t.Errorf("MaxWidth() = %d, want 7", s.MaxWidth())
	}
}

func TestCompareSnapshots(t *testing.T) {
	a := Snapshot{Content: "one\ntwo"}
	if d := CompareSnapshots(a, a); d != nil {
		t.Errorf("identical snapshots differ: %v", d)
	}
	b := Snapshot{Content: "one\nTWO\nthree"}
	d := CompareSnapshots(a, b)
	if len(d) != 2 || d[0].Line != 2 || d[1].Expected != "" || d[1].Actual != "three" {
		t.Errorf("CompareSnapshots() = %+v", d)
	}
}
