package conv

import (
	"encoding/binary"

	"github.com/wippyai/typeconv/bitvec"
	"github.com/wippyai/typeconv/dtype"
)

// traversal returns the visiting order for an in-place conversion of n
// elements and how many elements have a destination overlapping their own
// source. Those are always the lowest-indexed elements.
//
// Shrinking elements are visited front to back: destination i ends at
// (i+1)*ds, never past source i+1. Growing elements are visited back to
// front: destination i starts at i*ds, never before the end of source i-1.
// Element i overlaps itself while i*|ss-ds| < min(ss, ds).
func traversal(n, stride, ss, ds int) (forward bool, olap int) {
	switch {
	case stride != 0 || ss == ds:
		return true, n
	case ss > ds:
		return true, min(n, ceilDiv(ds, ss-ds))
	default:
		return false, min(n, ceilDiv(ss, ds-ss))
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// walk calls fn for each of n elements of buf in overlap-safe order. When
// tmp is non-nil, elements whose destination overlaps their own source get
// tmp as destination and are copied into place afterwards. With a nil tmp,
// fn must read its source completely before writing the destination.
func walk(n int, buf []byte, stride, ss, ds int, tmp []byte, fn func(i int, s, d []byte) error) error {
	forward, olap := traversal(n, stride, ss, ds)
	sStep, dStep := ss, ds
	if stride != 0 {
		sStep, dStep = stride, stride
	}

	for k := 0; k < n; k++ {
		i := k
		if !forward {
			i = n - 1 - k
		}
		s := buf[i*sStep : i*sStep+ss]
		d := buf[i*dStep : i*dStep+ds]

		if tmp == nil || i >= olap {
			if err := fn(i, s, d); err != nil {
				return err
			}
			continue
		}

		t := tmp[:ds]
		if err := fn(i, s, t); err != nil {
			return err
		}
		copy(d, t)
	}
	return nil
}

// atomicFunc converts one element. s is the untouched source element, sb
// its little-endian copy (which the kernel may modify) and d the cleared
// destination in little-endian orientation. It reports whether a handler
// took over the element.
type atomicFunc func(c *call, i int, s, sb, d []byte) (bool, error)

// atomic drives a bit-level kernel: it normalizes byte order, fills padding
// and restores the destination byte order unless a handler took over.
func (p *Path) atomic(c *call, n int, buf []byte, stride int, fn atomicFunc) error {
	src, dst := p.src, p.dst
	return walk(n, buf, stride, src.Size, dst.Size, p.tmp, func(i int, s, d []byte) error {
		sb := p.sbuf
		copy(sb, s)
		dtype.FromOrder(sb, src.Order)
		clear(d)

		handled, err := fn(c, i, s, sb, d)
		if err != nil || handled {
			return err
		}
		pad(d, dst)
		dtype.ToOrder(d, dst.Order)
		return nil
	})
}

// pad fills the bits outside the significant range of t.
func pad(d []byte, t *dtype.Datatype) {
	if t.Offset > 0 {
		bitvec.Fill(d, 0, t.Offset, t.LSBPad == dtype.PadOne)
	}
	if end := t.Offset + t.Precision; end < 8*t.Size {
		bitvec.Fill(d, end, 8*t.Size-end, t.MSBPad == dtype.PadOne)
	}
}

// swap reverses the byte order of n same-size elements.
func (p *Path) swap(n int, buf []byte, stride int) {
	size := p.src.Size
	if stride == 0 {
		stride = size
	}

	le, be := binary.LittleEndian, binary.BigEndian
	switch size {
	case 2:
		for i := 0; i < n; i++ {
			b := buf[i*stride:]
			b[0], b[1] = b[1], b[0]
		}
	case 4:
		for i := 0; i < n; i++ {
			b := buf[i*stride:]
			be.PutUint32(b, le.Uint32(b))
		}
	case 8:
		for i := 0; i < n; i++ {
			b := buf[i*stride:]
			be.PutUint64(b, le.Uint64(b))
		}
	case 16:
		for i := 0; i < n; i++ {
			b := buf[i*stride:]
			lo, hi := le.Uint64(b), le.Uint64(b[8:])
			be.PutUint64(b, hi)
			be.PutUint64(b[8:], lo)
		}
	default:
		for i := 0; i < n; i++ {
			b := buf[i*stride : i*stride+size]
			for x, y := 0, size-1; x < y; x, y = x+1, y-1 {
				b[x], b[y] = b[y], b[x]
			}
		}
	}
}
