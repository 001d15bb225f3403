package conv

import (
	"sort"

	"go.uber.org/multierr"

	"github.com/wippyai/typeconv/errors"
)

// compoundState holds the member mapping of a compound path. Members are
// matched by name; each matched pair owns a private sub-path.
type compoundState struct {
	src2dst []int
	subs    []*Path
	order   []int

	// subset marks descriptors sharing a gapless prefix of identical
	// members; elements then reduce to a copy of copySize bytes.
	subset   bool
	copySize int

	memb []byte
	work []byte
}

func (p *Path) initCompound() error {
	src, dst := p.src, p.dst
	st := &compoundState{
		src2dst: make([]int, len(src.Members)),
		subs:    make([]*Path, len(src.Members)),
		order:   make([]int, len(src.Members)),
	}

	msize := 0
	for i, sm := range src.Members {
		st.order[i] = i
		j := dst.MemberIndex(sm.Name)
		st.src2dst[i] = j
		if j < 0 {
			continue
		}
		dm := dst.Members[j]
		sub, err := p.eng.resolve(sm.Type, dm.Type)
		if err != nil {
			err = errors.WithPath(err, sm.Name)
			for _, s := range st.subs {
				if s != nil {
					err = multierr.Append(err, s.Free())
				}
			}
			return err
		}
		st.subs[i] = sub
		msize = max(msize, sm.Type.Size, dm.Type.Size)
	}
	sort.SliceStable(st.order, func(a, b int) bool {
		return src.Members[st.order[a]].Offset < src.Members[st.order[b]].Offset
	})

	st.memb = make([]byte, msize)
	if !p.eng.noSubset {
		st.subset, st.copySize = p.prefixSubset(st)
	}

	p.compound = st
	p.bkg = true
	return nil
}

// prefixSubset reports whether the member lists differ in length and the
// shorter one is a gapless prefix of the longer with identical offsets and
// unconverted types. It returns the prefix size in bytes.
func (p *Path) prefixSubset(st *compoundState) (bool, int) {
	src, dst := p.src, p.dst
	if len(src.Members) == len(dst.Members) {
		return false, 0
	}

	dorder := make([]int, len(dst.Members))
	for i := range dorder {
		dorder[i] = i
	}
	sort.SliceStable(dorder, func(a, b int) bool {
		return dst.Members[dorder[a]].Offset < dst.Members[dorder[b]].Offset
	})

	end := 0
	for k := 0; k < min(len(src.Members), len(dst.Members)); k++ {
		si, di := st.order[k], dorder[k]
		sm, dm := src.Members[si], dst.Members[di]
		if sm.Name != dm.Name || sm.Offset != dm.Offset || sm.Offset != end {
			return false, 0
		}
		if sub := st.subs[si]; sub == nil || !sub.noop {
			return false, 0
		}
		end = sm.End()
	}
	return true, end
}

// convCompound converts compound elements member by member. Destination
// bytes not produced by a source member come from the background element,
// or are zero without a background buffer. The background buffer is used
// as scratch and is overwritten.
func (p *Path) convCompound(c *call, n int, buf []byte, stride int, bkg []byte, bkgStride int) error {
	st := p.compound
	ds := p.dst.Size
	if bkgStride == 0 {
		bkgStride = ds
	}
	if bkg == nil {
		w, err := c.grow(st.work, ds)
		if err != nil {
			return err
		}
		st.work = w
	}

	return walk(n, buf, stride, p.src.Size, ds, nil, func(i int, s, d []byte) error {
		var b []byte
		if bkg != nil {
			b = bkg[i*bkgStride : i*bkgStride+ds]
		} else {
			b = st.work
			clear(b)
		}

		if st.subset {
			copy(b[:st.copySize], s)
		} else if err := c.within(i, func() error { return p.compoundElem(c, st, s, b) }); err != nil {
			return err
		}
		copy(d, b)
		return nil
	})
}

// compoundElem assembles one destination element in b. The first pass
// converts members that do not grow in place and packs the results toward
// the start of s. The second pass walks back, converting growing members
// through st.memb and placing every member at its destination offset in b.
func (p *Path) compoundElem(c *call, st *compoundState, s, b []byte) error {
	src, dst := p.src, p.dst

	off := 0
	for _, si := range st.order {
		di := st.src2dst[si]
		if di < 0 {
			continue
		}
		sm, dm := src.Members[si], dst.Members[di]
		if dm.Type.Size <= sm.Type.Size {
			region := s[sm.Offset:sm.End()]
			if err := st.subs[si].run(c, 1, region, 0, b[dm.Offset:dm.End()], 0); err != nil {
				return errors.WithPath(err, sm.Name)
			}
			copy(s[off:], region[:dm.Type.Size])
			off += dm.Type.Size
		} else {
			copy(s[off:], s[sm.Offset:sm.End()])
			off += sm.Type.Size
		}
	}

	for k := len(st.order) - 1; k >= 0; k-- {
		si := st.order[k]
		di := st.src2dst[si]
		if di < 0 {
			continue
		}
		sm, dm := src.Members[si], dst.Members[di]
		target := b[dm.Offset:dm.End()]
		if dm.Type.Size <= sm.Type.Size {
			off -= dm.Type.Size
			copy(target, s[off:off+dm.Type.Size])
			continue
		}

		off -= sm.Type.Size
		m := st.memb[:dm.Type.Size]
		copy(m, s[off:off+sm.Type.Size])
		if err := st.subs[si].run(c, 1, m, 0, target, 0); err != nil {
			return errors.WithPath(err, sm.Name)
		}
		copy(target, m)
	}
	return nil
}
