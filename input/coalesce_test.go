package input

import "testing"

// tick pushes one Rotate per detent and drains.
func tick(t *testing.T, c *Coalescer, q *Queue, delta int) TickResult {
	t.Helper()
	step := 1
	if delta < 0 {
		step = -1
	}
	for i := 0; i != delta; i += step {
		q.Push(Rotate{Delta: step})
	}
	return c.DrainAndResolve()
}

// TestCoalescer_BurstResolvesInOneTick verifies a queued burst becomes a
// single multi-item movement instead of trickling out over later ticks.
func TestCoalescer_BurstResolvesInOneTick(t *testing.T) {
	q := NewQueue(64, 32)
	c := NewCoalescer(q, CoalescerConfig{DetentsPerItem: 2})

	res := tick(t, c, q, 7)
	if res.RawDelta != 7 {
		t.Fatalf("raw delta: expected 7, got %d", res.RawDelta)
	}
	if res.Movement != 3 {
		t.Errorf("movement: expected 3, got %d", res.Movement)
	}
	if c.Pending() != 1 {
		t.Errorf("pending: expected 1, got %d", c.Pending())
	}

	// Nothing queued: no residual movement, remainder carried.
	res = c.DrainAndResolve()
	if res.Movement != 0 || c.Pending() != 1 {
		t.Errorf("idle tick: movement=%d pending=%d, expected 0/1", res.Movement, c.Pending())
	}
}

// TestCoalescer_RemainderCarriesAcrossTicks verifies single detents on
// consecutive ticks alternate between no movement and one item.
func TestCoalescer_RemainderCarriesAcrossTicks(t *testing.T) {
	q := NewQueue(64, 32)
	c := NewCoalescer(q, CoalescerConfig{DetentsPerItem: 2})

	if res := tick(t, c, q, 1); res.Movement != 0 {
		t.Errorf("first detent: expected no movement, got %d", res.Movement)
	}
	if res := tick(t, c, q, 1); res.Movement != 1 {
		t.Errorf("second detent: expected movement 1, got %d", res.Movement)
	}
	if res := tick(t, c, q, 1); res.Movement != 0 {
		t.Errorf("third detent: expected no movement, got %d", res.Movement)
	}
}

// TestCoalescer_Conservation verifies that over any tick sequence the total
// movement times the detent threshold plus the carried remainder equals the
// sum of the accepted raw deltas.
func TestCoalescer_Conservation(t *testing.T) {
	q := NewQueue(64, 32)
	c := NewCoalescer(q, CoalescerConfig{DetentsPerItem: 2})

	deltas := []int{3, 1, -2, 5, 0, -1, 4, -3, 2, 1}
	accepted, moved := 0, 0
	for _, d := range deltas {
		res := tick(t, c, q, d)
		if !res.Discarded {
			accepted += res.RawDelta
		}
		moved += res.Movement
	}

	if got := moved*2 + c.Pending(); got != accepted {
		t.Errorf("conservation: movement*2+pending=%d, accepted deltas=%d", got, accepted)
	}
}

// TestCoalescer_OpposingDeltaDiscarded verifies a lone reversal against an
// established directional run is dropped entirely, including its remainder,
// while deliberate sustained reversal still re-establishes the new
// direction.
func TestCoalescer_OpposingDeltaDiscarded(t *testing.T) {
	q := NewQueue(64, 32)
	c := NewCoalescer(q, CoalescerConfig{MomentumThreshold: 3, DetentsPerItem: 2})

	for i := 0; i < 3; i++ {
		tick(t, c, q, 1)
	}
	pendingBefore := c.Pending()

	res := tick(t, c, q, -1)
	if !res.Discarded {
		t.Fatalf("opposing delta not discarded")
	}
	if res.Movement != 0 {
		t.Errorf("discarded delta produced movement %d", res.Movement)
	}
	if c.Pending() != pendingBefore {
		t.Errorf("discarded delta changed pending: %d -> %d", pendingBefore, c.Pending())
	}

	// Discarded detents still decay the run, so held reverse motion takes
	// over within a few detents instead of being filtered forever.
	discards := 0
	moved := 0
	for i := 0; i < 10; i++ {
		res := tick(t, c, q, -1)
		if res.Discarded {
			discards++
		}
		moved += res.Movement
	}
	if discards != 0 {
		t.Errorf("sustained reversal still filtered: %d of 10 ticks discarded", discards)
	}
	if moved >= 0 {
		t.Errorf("sustained reversal produced no reverse movement: net %d", moved)
	}
}

// TestCoalescer_SameDirectionNeverDiscarded verifies deltas matching the run
// direction always count.
func TestCoalescer_SameDirectionNeverDiscarded(t *testing.T) {
	q := NewQueue(64, 32)
	c := NewCoalescer(q, CoalescerConfig{MomentumThreshold: 3, DetentsPerItem: 2})

	total := 0
	for i := 0; i < 8; i++ {
		res := tick(t, c, q, 1)
		if res.Discarded {
			t.Fatalf("tick %d: same-direction delta discarded", i)
		}
		total += res.Movement
	}
	if total != 4 {
		t.Errorf("expected 4 items over 8 detents, got %d", total)
	}
}

// TestCoalescer_IsolatedReversalPasses verifies a direction change without an
// established run is honored, not filtered.
func TestCoalescer_IsolatedReversalPasses(t *testing.T) {
	q := NewQueue(64, 32)
	c := NewCoalescer(q, CoalescerConfig{MomentumThreshold: 3, DetentsPerItem: 1})

	tick(t, c, q, 1)
	res := tick(t, c, q, -1)
	if res.Discarded {
		t.Fatalf("reversal discarded below momentum threshold")
	}
	if res.Movement != -1 {
		t.Errorf("expected movement -1, got %d", res.Movement)
	}
}

// TestCoalescer_ButtonEdgesCounted verifies button events drain alongside
// rotation in the same tick.
func TestCoalescer_ButtonEdgesCounted(t *testing.T) {
	q := NewQueue(64, 32)
	c := NewCoalescer(q, CoalescerConfig{DetentsPerItem: 2})

	q.Push(Rotate{Delta: 1})
	q.Push(ButtonDown{})
	q.Push(Rotate{Delta: 1})
	q.Push(ButtonUp{})
	q.Push(ButtonDown{})

	res := c.DrainAndResolve()
	if res.Presses != 2 || res.Releases != 1 {
		t.Errorf("expected 2 presses / 1 release, got %d/%d", res.Presses, res.Releases)
	}
	if res.Movement != 1 {
		t.Errorf("expected movement 1, got %d", res.Movement)
	}
}

// TestMomentumWindow_SumOverLookback verifies only the most recent lookback
// entries contribute.
func TestMomentumWindow_SumOverLookback(t *testing.T) {
	w := NewMomentumWindow(5, 3)
	for _, d := range []int{10, 10, 1, 2, 3} {
		w.Push(d)
	}
	if got := w.Sum(); got != 6 {
		t.Errorf("expected sum 6 over last 3 entries, got %d", got)
	}

	w.Push(-4)
	if got := w.Sum(); got != 1 {
		t.Errorf("after eviction: expected sum 1, got %d", got)
	}
}
