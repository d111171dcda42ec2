package transfer

import "testing"

func TestProgressValue(t *testing.T) {
	p := NewProgress(100)
	if v := p.Value(); v != 0 {
		t.Fatalf("expected 0, got %f", v)
	}

	p.IncreaseDone(25)
	if v := p.Value(); v != 0.25 {
		t.Fatalf("expected 0.25, got %f", v)
	}

	p.IncreaseDone(75)
	if v := p.Value(); v != 1.0 {
		t.Fatalf("expected 1.0, got %f", v)
	}
}

func TestProgressDecreaseClampsAtZero(t *testing.T) {
	p := NewProgress(100)
	p.IncreaseDone(10)
	p.DecreaseDone(50)

	done, _ := p.Snapshot()
	if done != 0 {
		t.Fatalf("expected done clamped to 0, got %d", done)
	}
}

func TestProgressZeroTotal(t *testing.T) {
	p := NewProgress(0)
	if v := p.Value(); v != 0 {
		t.Fatalf("expected 0 for zero total, got %f", v)
	}
}

func TestProgressResetPreservesTotal(t *testing.T) {
	p := NewProgress(100)
	p.IncreaseDone(50)
	p.Reset()

	done, total := p.Snapshot()
	if done != 0 {
		t.Fatalf("expected done reset to 0, got %d", done)
	}
	if total != 100 {
		t.Fatalf("expected total unchanged at 100, got %d", total)
	}
}
