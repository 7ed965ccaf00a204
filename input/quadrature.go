package input

// Quadrature full-step decoder.
//
// The two encoder outputs form a 2-bit code that cycles through the Gray
// sequence 00 -> 01 -> 11 -> 10 -> 00 for clockwise rotation. stepTable is
// indexed by (previous<<2 | current) and holds the signed contribution of
// that transition: +1 for a forward-adjacent transition, -1 for a
// backward-adjacent one, 0 for the no-change transition and for every
// non-adjacent transition. Contact bounce that skips a Gray state therefore
// never registers in either direction.
var stepTable = [16]int{
	//       cur: 00  01  10  11
	/* prev 00 */ 0, +1, -1, 0,
	/* prev 01 */ -1, 0, 0, +1,
	/* prev 10 */ +1, 0, 0, -1,
	/* prev 11 */ 0, -1, +1, 0,
}

// subStepsPerDetent is the number of Gray-code transitions in one full cycle,
// which is nominally one mechanical detent.
const subStepsPerDetent = 4

// QuadratureDecoder tracks the 2-bit AB state of a rotary encoder and an
// accumulated sub-step counter, emitting one signed detent per completed
// Gray cycle.
//
// The decoder expects already-stabilized levels: feed it through a
// LineDebouncer when sampling bouncy contacts.
type QuadratureDecoder struct {
	state uint8
	accum int
}

// NewQuadratureDecoder seeds the decoder with the current line levels so the
// first real transition does not produce a spurious step.
func NewQuadratureDecoder(a, b bool) *QuadratureDecoder {
	return &QuadratureDecoder{state: abCode(a, b)}
}

// Step consumes one sample of the A and B levels and returns the detent
// delta: -1, 0 or +1. Partial cycles are carried in the sub-step accumulator,
// so reversing mid-cycle unwinds cleanly without emitting anything.
func (d *QuadratureDecoder) Step(a, b bool) int {
	code := abCode(a, b)
	d.accum += stepTable[d.state<<2|code]
	d.state = code

	switch {
	case d.accum >= subStepsPerDetent:
		d.accum -= subStepsPerDetent
		return 1
	case d.accum <= -subStepsPerDetent:
		d.accum += subStepsPerDetent
		return -1
	}
	return 0
}

func abCode(a, b bool) uint8 {
	var code uint8
	if a {
		code |= 2
	}
	if b {
		code |= 1
	}
	return code
}
