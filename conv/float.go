package conv

import (
	"github.com/wippyai/typeconv/bitvec"
	"github.com/wippyai/typeconv/dtype"
)

// floatClass is the structural classification of a float value.
type floatClass uint8

const (
	floatFinite floatClass = iota
	floatZero
	floatInf
	floatNaN
)

// classifyFloat inspects the exponent and mantissa fields of a
// little-endian float value.
func classifyFloat(b []byte, f dtype.FloatFields) floatClass {
	mantZero := bitvec.Find(b, f.MantPos, f.MantSize, bitvec.LSB, true) < 0
	expZero := bitvec.Find(b, f.ExpPos, f.ExpSize, bitvec.LSB, true) < 0
	expOnes := bitvec.Find(b, f.ExpPos, f.ExpSize, bitvec.LSB, false) < 0

	switch {
	case expZero && mantZero:
		return floatZero
	case !expOnes:
		return floatFinite
	case mantZero:
		return floatInf
	case f.Norm == dtype.NormNone &&
		bitvec.Find(b, f.MantPos, f.MantSize-1, bitvec.LSB, true) < 0:
		// Without an implied bit infinity stores the leading one.
		return floatInf
	default:
		return floatNaN
	}
}

// writeInf stores infinity with the sign already present in d.
func writeInf(d []byte, f dtype.FloatFields) {
	bitvec.Fill(d, f.ExpPos, f.ExpSize, true)
	bitvec.Fill(d, f.MantPos, f.MantSize, false)
	if f.Norm == dtype.NormNone {
		bitvec.SetBit(d, f.MantPos+f.MantSize-1, true)
	}
}

// floatElem converts one float between arbitrary layouts without host
// floating-point arithmetic. Narrowed mantissas round half up on the first
// dropped bit.
func (p *Path) floatElem(c *call, i int, s, sb, d []byte) (bool, error) {
	sf, df := p.src.Float, p.dst.Float
	sign := bitvec.Bit(sb, sf.SignPos)
	bitvec.SetBit(d, df.SignPos, sign)

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
		writeInf(d, df)
		return false, nil

	case floatNaN:
		act, err := c.raise(p, NaN, i, s, d)
		if err != nil || act == Handled {
			return act == Handled, err
		}
		bitvec.Fill(d, df.ExpPos, df.ExpSize, true)
		bitvec.Fill(d, df.MantPos, df.MantSize, true)
		return false, nil
	}

	// Unbias the source exponent. msize counts the fraction bits below the
	// leading one, which lie at mpos.
	expo := int64(bitvec.Get(sb, sf.ExpPos, sf.ExpSize))
	mpos, msize := sf.MantPos, sf.MantSize
	if expo == 0 || sf.Norm == dtype.NormNone {
		bitno := bitvec.Find(sb, sf.MantPos, sf.MantSize, bitvec.MSB, true)
		switch {
		case bitno < 0:
			return false, nil
		case bitno == 0:
			msize = 1
			bitvec.SetBit(sb, mpos, false)
		default:
			msize = bitno
		}
		expo -= int64(sf.ExpBias-1) + int64(sf.MantSize-bitno)
	} else {
		expo -= int64(sf.ExpBias)
	}

	// mrsh is the right shift of the leading one relative to the implied
	// position of the destination.
	dm := df.MantSize
	expoMax := int64(1)<<df.ExpSize - 1
	base := 0
	if df.Norm == dtype.NormNone {
		base = 1
	}
	mrsh := base
	denorm := false

	expo += int64(df.ExpBias)
	switch {
	case expo < -int64(dm):
		return false, nil
	case expo <= 0:
		mrsh += int(1 - expo)
		expo = 0
		denorm = true
	case expo >= expoMax:
		return p.floatOverflow(c, i, s, d, df)
	}

	if msize > 0 && mrsh <= dm && mrsh+msize > dm {
		cut := mrsh + msize - dm
		kept := mpos + cut
		if bitvec.Bit(sb, kept-1) &&
			(bitvec.Find(sb, kept, msize-cut, bitvec.LSB, false) >= 0 || expo < expoMax-1 || denorm) {
			if bitvec.Increment(sb, kept-1, 1+msize-cut) {
				if !denorm {
					expo++
				} else {
					mrsh--
					if mrsh == base {
						expo = 1
					}
				}
			}
		}
	}

	switch {
	case mrsh > dm+1:
		bitvec.Fill(d, df.MantPos, dm, false)
	case mrsh == dm+1, mrsh == dm:
		// The leading one, or the round-up of a half unit, lands on the
		// lowest mantissa bit.
		bitvec.Fill(d, df.MantPos, dm, false)
		bitvec.SetBit(d, df.MantPos, true)
	default:
		if mrsh > 0 {
			bitvec.SetBit(d, df.MantPos+dm-mrsh, true)
		}
		if mrsh+msize >= dm {
			bitvec.Copy(d, df.MantPos, sb, mpos+msize+mrsh-dm, dm-mrsh)
		} else {
			bitvec.Copy(d, df.MantPos+dm-(mrsh+msize), sb, mpos, msize)
		}
	}

	if expo >= expoMax {
		return p.floatOverflow(c, i, s, d, df)
	}
	bitvec.Set(d, df.ExpPos, df.ExpSize, uint64(expo))
	return false, nil
}

// floatOverflow raises a range-high event and defaults to infinity.
func (p *Path) floatOverflow(c *call, i int, s, d []byte, df dtype.FloatFields) (bool, error) {
	act, err := c.raise(p, RangeHigh, i, s, d)
	if err != nil || act == Handled {
		return act == Handled, err
	}
	writeInf(d, df)
	return false, nil
}
