package conv

import (
	"github.com/wippyai/typeconv/bitvec"
	"github.com/wippyai/typeconv/dtype"
)

// intElem converts one integer. The destination receives the source value
// when it fits; otherwise the handler is consulted and the default is
// saturation to the destination's minimum or maximum.
func (p *Path) intElem(c *call, i int, s, sb, d []byte) (bool, error) {
	src, dst := p.src, p.dst
	sp, so := src.Precision, src.Offset
	dp, do := dst.Precision, dst.Offset

	var ev Event
	switch {
	case src.Sign == dtype.SignNone && dst.Sign == dtype.SignNone:
		if first := bitvec.Find(sb, so, sp, bitvec.MSB, true); first >= dp {
			ev = RangeHigh
		} else {
			copyValue(d, do, dp, sb, so, min(sp, dp))
		}

	case src.Sign == dtype.SignNone:
		if first := bitvec.Find(sb, so, sp, bitvec.MSB, true); first+1 >= dp {
			ev = RangeHigh
		} else {
			copyValue(d, do, dp, sb, so, min(sp, dp-1))
		}

	case dst.Sign == dtype.SignNone:
		switch {
		case bitvec.Bit(sb, so+sp-1):
			ev = RangeLow
		case bitvec.Find(sb, so, sp-1, bitvec.MSB, true) >= dp:
			ev = RangeHigh
		default:
			copyValue(d, do, dp, sb, so, min(sp-1, dp))
		}

	case bitvec.Bit(sb, so+sp-1):
		// Negative fits when every bit from the destination sign position
		// up is set.
		if first := bitvec.Find(sb, so, sp-1, bitvec.MSB, false); first+1 >= dp {
			ev = RangeLow
		} else {
			k := min(sp-1, dp-1)
			bitvec.Copy(d, do, sb, so, k)
			bitvec.Fill(d, do+k, dp-k, true)
		}

	default:
		if first := bitvec.Find(sb, so, sp-1, bitvec.MSB, true); first+1 >= dp {
			ev = RangeHigh
		} else {
			copyValue(d, do, dp, sb, so, min(sp-1, dp-1))
		}
	}

	if ev == 0 {
		return false, nil
	}
	act, err := c.raise(p, ev, i, s, d)
	if err != nil || act == Handled {
		return act == Handled, err
	}
	saturate(d, dst, ev)
	return false, nil
}

// bitfieldElem copies the low bits of a bitfield, truncating when the
// destination is narrower.
func (p *Path) bitfieldElem(c *call, i int, s, sb, d []byte) (bool, error) {
	src, dst := p.src, p.dst
	sp, so := src.Precision, src.Offset
	dp, do := dst.Precision, dst.Offset

	if sp > dp && bitvec.Find(sb, so+dp, sp-dp, bitvec.LSB, true) >= 0 {
		act, err := c.raise(p, RangeHigh, i, s, d)
		if err != nil || act == Handled {
			return act == Handled, err
		}
		clear(d)
	}
	copyValue(d, do, dp, sb, so, min(sp, dp))
	return false, nil
}

// copyValue copies k bits into the destination's significant range and
// clears the remaining significant bits.
func copyValue(d []byte, do, dp int, s []byte, so, k int) {
	bitvec.Copy(d, do, s, so, k)
	bitvec.Fill(d, do+k, dp-k, false)
}

// saturate writes the destination's extreme value for a range event.
func saturate(d []byte, t *dtype.Datatype, ev Event) {
	do, dp := t.Offset, t.Precision
	signed := t.Sign == dtype.SignTwos
	switch {
	case ev == RangeHigh && signed:
		bitvec.Fill(d, do, dp-1, true)
		bitvec.Fill(d, do+dp-1, 1, false)
	case ev == RangeHigh:
		bitvec.Fill(d, do, dp, true)
	case signed:
		bitvec.Fill(d, do, dp-1, false)
		bitvec.Fill(d, do+dp-1, 1, true)
	default:
		bitvec.Fill(d, do, dp, false)
	}
}
