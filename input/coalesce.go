package input

// RotationCoalescer turns a burst of queued detents into a single net item
// movement, once per UI tick.
//
// Draining the whole queue before acting (instead of one event per tick) is
// what keeps the display from lagging: when the user stops turning there is
// nothing left queued to catch up on. The detents-per-item threshold with a
// carried remainder preserves partial rotation across ticks, and the momentum
// window rejects bounce-induced reversals without capping legitimate speed.

// MomentumWindow is a fixed-capacity ring of the most recent per-tick raw
// deltas, with a sum over the most recent lookback entries.
type MomentumWindow struct {
	buf      []int
	size     int
	lookback int
	next     int
	count    int
}

// NewMomentumWindow creates a window of the given capacity summing the most
// recent lookback entries.
func NewMomentumWindow(size, lookback int) *MomentumWindow {
	if size < 1 {
		size = 1
	}
	if lookback < 1 || lookback > size {
		lookback = size
	}
	return &MomentumWindow{
		buf:      make([]int, size),
		size:     size,
		lookback: lookback,
	}
}

// Push appends a delta, evicting the oldest entry when full.
func (w *MomentumWindow) Push(delta int) {
	w.buf[w.next] = delta
	w.next = (w.next + 1) % w.size
	if w.count < w.size {
		w.count++
	}
}

// Sum returns the sum of the most recent lookback entries.
func (w *MomentumWindow) Sum() int {
	n := w.lookback
	if n > w.count {
		n = w.count
	}
	sum := 0
	for i := 1; i <= n; i++ {
		sum += w.buf[(w.next-i+w.size)%w.size]
	}
	return sum
}

// CoalescerConfig carries the empirically tuned filter constants. They are
// hardware-dependent; treat the defaults as a starting point.
type CoalescerConfig struct {
	// WindowSize is the momentum ring capacity.
	WindowSize int

	// Lookback is how many recent entries feed the momentum sum.
	Lookback int

	// MomentumThreshold is the minimum |momentum sum| that establishes a
	// directional run. A tick whose raw delta opposes an established run is
	// discarded as bounce.
	MomentumThreshold int

	// DetentsPerItem is how many encoder detents move the cursor one item.
	DetentsPerItem int
}

func (c *CoalescerConfig) fillDefaults() {
	if c.WindowSize <= 0 {
		c.WindowSize = 10
	}
	if c.Lookback <= 0 {
		c.Lookback = 5
	}
	if c.MomentumThreshold <= 0 {
		c.MomentumThreshold = 3
	}
	if c.DetentsPerItem <= 0 {
		c.DetentsPerItem = 2
	}
}

// TickResult is what one drain produced.
type TickResult struct {
	// Movement is the net number of items to move; may exceed 1 in magnitude
	// on a fast sweep.
	Movement int

	// Presses and Releases count debounced button edges seen this tick.
	Presses  int
	Releases int

	// RawDelta is the summed detent delta before momentum filtering.
	RawDelta int

	// Discarded reports that RawDelta was rejected as opposing an
	// established directional run.
	Discarded bool
}

// Coalescer drains a queue once per UI tick. Single-consumer: only the UI
// loop calls DrainAndResolve.
type Coalescer struct {
	queue   *Queue
	cfg     CoalescerConfig
	window  *MomentumWindow
	pending int
}

// NewCoalescer wraps a queue with the given filter configuration.
func NewCoalescer(q *Queue, cfg CoalescerConfig) *Coalescer {
	cfg.fillDefaults()
	return &Coalescer{
		queue:  q,
		cfg:    cfg,
		window: NewMomentumWindow(cfg.WindowSize, cfg.Lookback),
	}
}

// Pending returns the carried sub-item remainder.
func (c *Coalescer) Pending() int { return c.pending }

// DrainAndResolve empties the queue, applies momentum filtering and the
// detent threshold, and returns the net movement plus button edges.
func (c *Coalescer) DrainAndResolve() TickResult {
	var res TickResult

	for _, ev := range c.queue.Drain() {
		switch ev := ev.(type) {
		case Rotate:
			res.RawDelta += ev.Delta
		case ButtonDown:
			res.Presses++
		case ButtonUp:
			res.Releases++
		}
	}

	delta := res.RawDelta
	if delta != 0 {
		// The bounce decision is made against the sum before this delta is
		// pushed: a lone delta against an established strong run does not
		// move the cursor. The raw delta still enters the window, so
		// sustained reverse motion decays the run and takes over after a
		// few detents instead of being filtered forever.
		momentum := c.window.Sum()
		c.window.Push(delta)
		if abs(momentum) >= c.cfg.MomentumThreshold && sign(delta) == -sign(momentum) {
			res.Discarded = true
			delta = 0
		}
	}

	c.pending += delta
	res.Movement = c.pending / c.cfg.DetentsPerItem
	c.pending %= c.cfg.DetentsPerItem

	return res
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
