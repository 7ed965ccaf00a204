package input

import (
	"testing"
	"time"
)

// TestLineDebouncer_HoldsUntilStable verifies that a level change is not
// reported until it has been seen for the required consecutive samples.
func TestLineDebouncer_HoldsUntilStable(t *testing.T) {
	d := NewLineDebouncer(false, 3)

	if got := d.Sample(true); got != false {
		t.Errorf("after 1 high sample: expected stable low, got high")
	}
	if got := d.Sample(true); got != false {
		t.Errorf("after 2 high samples: expected stable low, got high")
	}
	if got := d.Sample(true); got != true {
		t.Errorf("after 3 high samples: expected stable high, got low")
	}
}

// TestLineDebouncer_GlitchResetsRun verifies that a single opposite sample in
// the middle of a run restarts the stability count.
func TestLineDebouncer_GlitchResetsRun(t *testing.T) {
	d := NewLineDebouncer(false, 3)

	d.Sample(true)
	d.Sample(true)
	d.Sample(false) // glitch back
	if got := d.Sample(true); got != false {
		t.Errorf("run restarted: expected stable low after 1 high sample, got high")
	}
	d.Sample(true)
	if got := d.Sample(true); got != true {
		t.Errorf("expected stable high after 3 fresh consecutive samples")
	}
}

// TestButtonDebouncer_EmitsAfterWindow verifies the press edge fires only once
// the raw level has been stable for the full window.
func TestButtonDebouncer_EmitsAfterWindow(t *testing.T) {
	t0 := time.Unix(0, 0)
	d := NewButtonDebouncer(false, 50*time.Millisecond, t0)

	// Raw change observed at t0+10ms.
	if edge := d.Observe(true, t0.Add(10*time.Millisecond)); edge != NoEdge {
		t.Errorf("edge before window elapsed: got %v", edge)
	}
	// Still inside the window.
	if edge := d.Observe(true, t0.Add(40*time.Millisecond)); edge != NoEdge {
		t.Errorf("edge at 30ms of stability: got %v", edge)
	}
	// 50ms after the raw change.
	if edge := d.Observe(true, t0.Add(60*time.Millisecond)); edge != Pressed {
		t.Errorf("expected Pressed at 50ms of stability, got %v", edge)
	}
	// No repeat while held.
	if edge := d.Observe(true, t0.Add(200*time.Millisecond)); edge != NoEdge {
		t.Errorf("expected no repeated edge while held, got %v", edge)
	}
}

// TestButtonDebouncer_FlickerRestartsWindow verifies sub-window flicker is
// absorbed: every raw change restarts the stability clock and never surfaces.
func TestButtonDebouncer_FlickerRestartsWindow(t *testing.T) {
	t0 := time.Unix(0, 0)
	d := NewButtonDebouncer(false, 50*time.Millisecond, t0)

	// Bounce for 40ms: alternating levels every 10ms.
	now := t0
	level := true
	for i := 0; i < 4; i++ {
		now = now.Add(10 * time.Millisecond)
		if edge := d.Observe(level, now); edge != NoEdge {
			t.Fatalf("flicker produced edge %v at %v", edge, now.Sub(t0))
		}
		level = !level
	}

	// Settle pressed; last change was at the final flip.
	settle := now
	if edge := d.Observe(true, settle.Add(10*time.Millisecond)); edge != NoEdge {
		t.Errorf("edge before post-flicker window elapsed")
	}
	if edge := d.Observe(true, settle.Add(70*time.Millisecond)); edge != Pressed {
		t.Errorf("expected Pressed after levels settled, got %v", edge)
	}
}

// TestButtonDebouncer_ReleaseEdge verifies the release edge is reported
// symmetrically.
func TestButtonDebouncer_ReleaseEdge(t *testing.T) {
	t0 := time.Unix(0, 0)
	d := NewButtonDebouncer(false, 50*time.Millisecond, t0)

	d.Observe(true, t0.Add(10*time.Millisecond))
	if edge := d.Observe(true, t0.Add(70*time.Millisecond)); edge != Pressed {
		t.Fatalf("setup: expected Pressed, got %v", edge)
	}

	d.Observe(false, t0.Add(100*time.Millisecond))
	if edge := d.Observe(false, t0.Add(160*time.Millisecond)); edge != Released {
		t.Errorf("expected Released after stable low, got %v", edge)
	}
}
