package conv

import (
	"github.com/wippyai/typeconv/errors"
)

// arrayState converts each array as a run of base elements.
type arrayState struct {
	sub   *Path
	nelem int
	conv  []byte
	zero  []byte
}

func (p *Path) initArray() error {
	sub, err := p.eng.resolve(p.src.Base, p.dst.Base)
	if err != nil {
		return errors.WithPath(err, "[]")
	}
	p.array = &arrayState{sub: sub, nelem: p.src.Nelem()}
	p.noop = sub.noop
	p.bkg = sub.bkg
	return nil
}

// convArray stages each array through a scratch buffer large enough for
// either layout and runs the base path over its elements. The background
// element is passed down only when the base path uses one.
func (p *Path) convArray(c *call, n int, buf []byte, stride int, bkg []byte, bkgStride int) error {
	st := p.array
	ss, ds := p.src.Size, p.dst.Size
	if bkgStride == 0 {
		bkgStride = ds
	}

	w, err := c.grow(st.conv, max(ss, ds))
	if err != nil {
		return err
	}
	st.conv = w
	if st.sub.bkg && bkg == nil {
		z, err := c.grow(st.zero, ds)
		if err != nil {
			return err
		}
		st.zero = z
	}

	return walk(n, buf, stride, ss, ds, nil, func(i int, s, d []byte) error {
		var eb []byte
		if st.sub.bkg {
			if bkg != nil {
				eb = bkg[i*bkgStride : i*bkgStride+ds]
			} else {
				eb = st.zero
				clear(eb)
			}
		}

		copy(st.conv, s)
		err := c.within(i, func() error {
			return st.sub.run(c, st.nelem, st.conv, 0, eb, 0)
		})
		if err != nil {
			return errors.WithPath(err, "[]")
		}
		copy(d, st.conv[:ds])
		return nil
	})
}
