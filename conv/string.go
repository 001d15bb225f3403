package conv

import (
	"bytes"

	"github.com/wippyai/typeconv/dtype"
)

// convString re-pads fixed-length strings. Characters beyond the
// destination size are dropped and a null-terminated destination always
// ends in NUL.
func (p *Path) convString(n int, buf []byte, stride int) error {
	src, dst := p.src, p.dst
	ss, ds := src.Size, dst.Size

	return walk(n, buf, stride, ss, ds, p.tmp, func(_ int, s, d []byte) error {
		var k int
		switch src.StrPad {
		case dtype.StrSpacePad:
			k = len(bytes.TrimRight(s, " "))
		default:
			k = bytes.IndexByte(s, 0)
			if k < 0 {
				k = ss
			}
		}
		k = min(k, ds)
		if dst.StrPad == dtype.StrNullTerm && k == ds {
			k = ds - 1
		}

		copy(d, s[:k])
		fill := byte(0)
		if dst.StrPad == dtype.StrSpacePad {
			fill = ' '
		}
		for j := k; j < ds; j++ {
			d[j] = fill
		}
		return nil
	})
}
