// Package bitvec provides arbitrary-bit-offset operations over byte buffers.
//
// Bits are numbered least-significant first within a little-endian byte
// sequence: bit i lives in buf[i/8] at position i%8. Every operation takes a
// bit offset and a bit count describing a range inside the buffer. Ranges
// outside the buffer are a caller error and panic like any slice index.
//
// These are the only primitives the conversion kernels use to touch memory
// below the byte level.
package bitvec

import "unsafe"

// Direction selects the end of a range a search starts from.
type Direction uint8

const (
	// LSB searches from the least significant bit upward.
	LSB Direction = iota
	// MSB searches from the most significant bit downward.
	MSB
)

func (d Direction) String() string {
	if d == MSB {
		return "msb"
	}
	return "lsb"
}

// Get returns n bits (n <= 64) starting at bit off, packed LSB-first.
func Get(buf []byte, off, n int) uint64 {
	if n == 0 {
		return 0
	}
	if n > 64 {
		panic("bitvec: Get of more than 64 bits")
	}

	byteIdx := off / 8
	bitIdx := off & 7

	// Start
	val := uint64(buf[byteIdx]) >> bitIdx
	got := 8 - bitIdx
	if n <= got {
		return val & mask(n)
	}
	byteIdx++

	// Whole bytes
	for ; got+8 <= n; got += 8 {
		val |= uint64(buf[byteIdx]) << got
		byteIdx++
	}

	// Remainder
	if rem := n - got; rem > 0 {
		val |= (uint64(buf[byteIdx]) & mask(rem)) << got
	}
	return val
}

// Set stores the low n bits (n <= 64) of v starting at bit off.
func Set(buf []byte, off, n int, v uint64) {
	if n == 0 {
		return
	}
	if n > 64 {
		panic("bitvec: Set of more than 64 bits")
	}

	byteIdx := off / 8
	bitIdx := off & 7

	// Start
	if bitIdx != 0 {
		cnt := min(8-bitIdx, n)
		m := byte(mask(cnt) << bitIdx)
		buf[byteIdx] = (buf[byteIdx] &^ m) | (byte(v<<bitIdx) & m)
		n -= cnt
		v >>= cnt
		byteIdx++
	}

	// Whole bytes
	for n >= 8 {
		buf[byteIdx] = byte(v)
		v >>= 8
		n -= 8
		byteIdx++
	}

	// Remainder
	if n > 0 {
		m := byte(mask(n))
		buf[byteIdx] = (buf[byteIdx] &^ m) | (byte(v) & m)
	}
}

// Fill sets every bit of the range to value.
func Fill(buf []byte, off, n int, value bool) {
	var b byte
	if value {
		b = 0xff
	}

	// Leading partial byte
	for n > 0 && off&7 != 0 {
		SetBit(buf, off, value)
		off++
		n--
	}

	// Whole bytes
	for n >= 8 {
		buf[off/8] = b
		off += 8
		n -= 8
	}

	// Trailing partial byte
	for n > 0 {
		SetBit(buf, off, value)
		off++
		n--
	}
}

// Find returns the position, relative to off, of the first bit equal to value
// when scanning the range in the given direction, or -1 if there is none.
func Find(buf []byte, off, n int, dir Direction, value bool) int {
	var skip byte
	if !value {
		skip = 0xff
	}

	switch dir {
	case LSB:
		for i := 0; i < n; {
			pos := off + i
			if pos&7 == 0 && n-i >= 8 && buf[pos/8] == skip {
				i += 8
				continue
			}
			if Bit(buf, pos) == value {
				return i
			}
			i++
		}
	case MSB:
		for i := n - 1; i >= 0; {
			pos := off + i
			if pos&7 == 7 && i >= 7 && buf[pos/8] == skip {
				i -= 8
				continue
			}
			if Bit(buf, pos) == value {
				return i
			}
			i--
		}
	}
	return -1
}

// Copy copies n bits from src starting at soff to dst starting at doff.
// The ranges may overlap when dst and src share a backing array.
func Copy(dst []byte, doff int, src []byte, soff int, n int) {
	if n <= 0 {
		return
	}

	// Walk downward when the destination lies above an overlapping source so
	// every chunk is read before a later write can reach it.
	if overlaps(dst, doff, src, soff, n) && bitAddr(dst, doff) > bitAddr(src, soff) {
		for rem := n; rem > 0; {
			cnt := min(rem, 64)
			rem -= cnt
			Set(dst, doff+rem, cnt, Get(src, soff+rem, cnt))
		}
		return
	}

	for done := 0; done < n; {
		cnt := min(n-done, 64)
		Set(dst, doff+done, cnt, Get(src, soff+done, cnt))
		done += cnt
	}
}

// Shift moves the bits of the range toward the most significant end when
// shift is positive and toward the least significant end when negative.
// Vacated bits are cleared; bits shifted past either end are lost.
func Shift(buf []byte, shift int, off, n int) {
	if shift == 0 || n == 0 {
		return
	}

	if shift >= n || -shift >= n {
		Fill(buf, off, n, false)
		return
	}

	if shift > 0 {
		Copy(buf, off+shift, buf, off, n-shift)
		Fill(buf, off, shift, false)
		return
	}

	s := -shift
	Copy(buf, off, buf, off+s, n-s)
	Fill(buf, off+n-s, s, false)
}

// Increment adds one to the range treated as an unsigned integer and reports
// whether the addition carried out of the most significant bit.
func Increment(buf []byte, off, n int) bool {
	idx := Find(buf, off, n, LSB, false)
	if idx < 0 {
		Fill(buf, off, n, false)
		return true
	}
	Fill(buf, off, idx, false)
	SetBit(buf, off+idx, true)
	return false
}

// Decrement subtracts one from the range treated as an unsigned integer and
// reports whether the subtraction borrowed past the most significant bit.
func Decrement(buf []byte, off, n int) bool {
	idx := Find(buf, off, n, LSB, true)
	if idx < 0 {
		Fill(buf, off, n, true)
		return true
	}
	Fill(buf, off, idx, true)
	SetBit(buf, off+idx, false)
	return false
}

// Negate inverts every bit of the range (one's complement). A two's
// complement negation is Decrement followed by Negate.
func Negate(buf []byte, off, n int) {
	for n > 0 && off&7 != 0 {
		SetBit(buf, off, !Bit(buf, off))
		off++
		n--
	}
	for n >= 8 {
		buf[off/8] = ^buf[off/8]
		off += 8
		n -= 8
	}
	for n > 0 {
		SetBit(buf, off, !Bit(buf, off))
		off++
		n--
	}
}

func mask(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}

// Bit reports whether bit pos is set.
func Bit(buf []byte, pos int) bool {
	return buf[pos/8]&(1<<(pos&7)) != 0
}

// SetBit sets or clears bit pos.
func SetBit(buf []byte, pos int, value bool) {
	if value {
		buf[pos/8] |= 1 << (pos & 7)
	} else {
		buf[pos/8] &^= 1 << (pos & 7)
	}
}

// bitAddr returns an absolute bit address so ranges in different slices of
// the same array can be ordered.
func bitAddr(buf []byte, off int) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(buf)))*8 + uintptr(off)
}

func overlaps(dst []byte, doff int, src []byte, soff int, n int) bool {
	if len(dst) == 0 || len(src) == 0 {
		return false
	}
	d, s := bitAddr(dst, doff), bitAddr(src, soff)
	return d < s+uintptr(n) && s < d+uintptr(n)
}
