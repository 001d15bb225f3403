package conv

import (
	"github.com/wippyai/typeconv/bitvec"
	"github.com/wippyai/typeconv/dtype"
)

// intFloatElem converts an integer to a float. The magnitude is staged in
// p.ibuf, normalized against the destination mantissa and rounded half up
// on the first dropped bit.
func (p *Path) intFloatElem(c *call, i int, s, sb, d []byte) (bool, error) {
	src, df := p.src, p.dst.Float
	sp, dm := src.Precision, df.MantSize

	buf := p.ibuf
	clear(buf)
	w := 8 * len(buf)
	bitvec.Copy(buf, 0, sb, src.Offset, sp)

	if bitvec.Find(buf, 0, sp, bitvec.LSB, true) < 0 {
		return false, nil
	}

	sign := false
	if src.Sign == dtype.SignTwos && bitvec.Bit(buf, sp-1) {
		sign = true
		// The most negative value is its own magnitude.
		if bitvec.Find(buf, 0, sp-1, bitvec.LSB, true) >= 0 {
			bitvec.Decrement(buf, 0, sp)
			bitvec.Negate(buf, 0, sp)
		}
	}
	bitvec.SetBit(d, df.SignPos, sign)

	first := bitvec.Find(buf, 0, sp, bitvec.MSB, true)
	expo := int64(first) + int64(df.ExpBias)
	nbits := first + 1
	if df.Norm == dtype.NormImplied {
		bitvec.SetBit(buf, first, false)
		nbits = first
	}

	if nbits > dm {
		drop := nbits - dm
		if bitvec.Find(buf, 0, drop, bitvec.LSB, true) >= 0 {
			act, err := c.raise(p, Precision, i, s, d)
			if err != nil || act == Handled {
				return act == Handled, err
			}
		}
		round := bitvec.Bit(buf, drop-1)
		bitvec.Shift(buf, -drop, 0, w)
		if round {
			bitvec.Increment(buf, 0, w)
			if bitvec.Bit(buf, dm) {
				if df.Norm == dtype.NormImplied {
					bitvec.SetBit(buf, dm, false)
				} else {
					bitvec.Shift(buf, -1, 0, w)
				}
				expo++
			}
		}
	} else {
		bitvec.Shift(buf, dm-nbits, 0, w)
	}

	if expo >= int64(1)<<df.ExpSize-1 {
		act, err := c.raise(p, RangeHigh, i, s, d)
		if err != nil || act == Handled {
			return act == Handled, err
		}
		writeInf(d, df)
		return false, nil
	}

	bitvec.Set(d, df.ExpPos, df.ExpSize, uint64(expo))
	bitvec.Copy(d, df.MantPos, buf, 0, dm)
	return false, nil
}

// floatIntElem converts a float to an integer, truncating toward zero. The
// magnitude is materialized in p.ibuf only when it fits the destination.
func (p *Path) floatIntElem(c *call, i int, s, sb, d []byte) (bool, error) {
	sf, dst := p.src.Float, p.dst
	dp, do := dst.Precision, dst.Offset
	signed := dst.Sign == dtype.SignTwos
	sign := bitvec.Bit(sb, sf.SignPos)

	switch classifyFloat(sb, sf) {
	case floatZero:
		return false, nil

	case floatInf:
		ev := PosInf
		if sign {
			ev = NegInf
		}
		act, err := c.raise(p, ev, i, s, d)
		if err != nil || act == Handled {
			return act == Handled, err
		}
		switch {
		case !sign:
			saturate(d, dst, RangeHigh)
		case signed:
			saturate(d, dst, RangeLow)
		}
		return false, nil

	case floatNaN:
		act, err := c.raise(p, NaN, i, s, d)
		return act == Handled, err
	}

	ms := sf.MantSize
	buf := p.ibuf
	clear(buf)
	w := 8 * len(buf)

	field := bitvec.Get(sb, sf.ExpPos, sf.ExpSize)
	expo := int64(field)
	if field == 0 || sf.Norm == dtype.NormNone {
		expo -= int64(sf.ExpBias - 1)
	} else {
		expo -= int64(sf.ExpBias)
	}
	bitvec.Copy(buf, 0, sb, sf.MantPos, ms)
	if field != 0 && sf.Norm == dtype.NormImplied {
		bitvec.SetBit(buf, ms, true)
	}

	top := bitvec.Find(buf, 0, ms+1, bitvec.MSB, true)
	if top < 0 {
		return false, nil
	}

	// The value is buf * 2^shift; first is the position of its leading one.
	shift := expo - int64(ms)
	first := int64(top) + shift
	truncated := shift < 0 && bitvec.Find(buf, 0, int(min(-shift, int64(ms+1))), bitvec.LSB, true) >= 0

	var ev Event
	switch {
	case sign && !signed:
		if first >= 0 {
			ev = RangeLow
		}
	case !sign && !signed:
		if first >= int64(dp) {
			ev = RangeHigh
		}
	case sign:
		if first > int64(dp-1) || (first == int64(dp-1) && intBelow(buf, top, shift)) {
			ev = RangeLow
		}
	default:
		if first >= int64(dp-1) {
			ev = RangeHigh
		}
	}

	if ev != 0 {
		act, err := c.raise(p, ev, i, s, d)
		if err != nil || act == Handled {
			return act == Handled, err
		}
		saturate(d, dst, ev)
		return false, nil
	}

	if first < int64(w-1) {
		bitvec.Shift(buf, int(shift), 0, w)
	}

	if truncated {
		act, err := c.raise(p, Truncate, i, s, d)
		if err != nil || act == Handled {
			return act == Handled, err
		}
	}

	if sign && signed {
		bitvec.Decrement(buf, 0, w)
		bitvec.Negate(buf, 0, w)
	}
	bitvec.Copy(d, do, buf, 0, dp)
	return false, nil
}

// intBelow reports whether the integer part of buf * 2^shift has a set bit
// below its leading one at top.
func intBelow(buf []byte, top int, shift int64) bool {
	lo := 0
	if shift < 0 {
		lo = int(min(-shift, int64(top)))
	}
	return bitvec.Find(buf, lo, top-lo, bitvec.LSB, true) >= 0
}
