package conv

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/wippyai/typeconv/errors"
)

// enumState maps source members to destination members by name. Source
// values are located either through a dense table indexed by value or by
// binary search over the sorted values.
type enumState struct {
	src2dst []int

	table []int
	lo    int64

	sorted []int
}

// denseRatio is the largest value span per member for which the lookup
// table is built.
const denseRatio = 1.2

func (p *Path) initEnum() error {
	src, dst := p.src, p.dst
	st := &enumState{src2dst: make([]int, src.EnumLen())}

	for i, name := range src.Enum.Names {
		j := dst.EnumIndex(name)
		if j < 0 {
			return errors.Unsupported(src.String(), dst.String(),
				"enum member %q has no destination counterpart", name)
		}
		st.src2dst[i] = j
	}

	n := len(src.Enum.Values)
	switch src.Size {
	case 1, 2, 4:
		if n == 0 || p.eng.noEnumTable {
			break
		}
		lo, hi := nativeInt(src.Enum.Values[0]), nativeInt(src.Enum.Values[0])
		for _, v := range src.Enum.Values[1:] {
			x := nativeInt(v)
			lo, hi = min(lo, x), max(hi, x)
		}
		span := hi - lo + 1
		if n >= 2 && float64(span)/float64(n) >= denseRatio {
			break
		}
		st.lo = lo
		st.table = make([]int, span)
		for k := range st.table {
			st.table[k] = -1
		}
		for i, v := range src.Enum.Values {
			st.table[nativeInt(v)-lo] = i
		}
	}

	if st.table == nil {
		st.sorted = make([]int, n)
		for i := range st.sorted {
			st.sorted[i] = i
		}
		vals := src.Enum.Values
		sort.Slice(st.sorted, func(a, b int) bool {
			return bytes.Compare(vals[st.sorted[a]], vals[st.sorted[b]]) < 0
		})
	}

	p.enum = st
	return nil
}

// lookup returns the source member index holding value v, or -1.
func (st *enumState) lookup(vals [][]byte, v []byte) int {
	if st.table != nil {
		k := nativeInt(v) - st.lo
		if k < 0 || k >= int64(len(st.table)) {
			return -1
		}
		return st.table[k]
	}
	k := sort.Search(len(st.sorted), func(k int) bool {
		return bytes.Compare(vals[st.sorted[k]], v) >= 0
	})
	if k < len(st.sorted) && bytes.Equal(vals[st.sorted[k]], v) {
		return st.sorted[k]
	}
	return -1
}

// convEnum replaces each source value with the destination value of the
// same-named member. Values naming no member raise range-high and default
// to all ones.
func (p *Path) convEnum(c *call, n int, buf []byte, stride int) error {
	st := p.enum
	svals, dvals := p.src.Enum.Values, p.dst.Enum.Values

	return walk(n, buf, stride, p.src.Size, p.dst.Size, nil, func(i int, s, d []byte) error {
		idx := st.lookup(svals, s)
		if idx >= 0 {
			copy(d, dvals[st.src2dst[idx]])
			return nil
		}

		act, err := c.raise(p, RangeHigh, i, s, d)
		if err != nil || act == Handled {
			return err
		}
		for k := range d {
			d[k] = 0xff
		}
		return nil
	})
}

// nativeInt reads a 1, 2 or 4 byte value as a host-order signed integer.
func nativeInt(b []byte) int64 {
	switch len(b) {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(binary.NativeEndian.Uint16(b)))
	default:
		return int64(int32(binary.NativeEndian.Uint32(b)))
	}
}
