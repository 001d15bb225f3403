package conv

import (
	"go.uber.org/multierr"

	"github.com/wippyai/typeconv/dtype"
	"github.com/wippyai/typeconv/errors"
)

// vlenState converts variable-length sequences through their stores.
type vlenState struct {
	sub *Path

	// nested is set when destination elements hold sequences of their own;
	// storage of background elements beyond the new length is reclaimed.
	nested bool
	// direct is set when sequences can be written from the source store
	// without staging.
	direct bool

	conv []byte
	tmp  []byte
}

func (p *Path) initVLen() error {
	src, dst := p.src, p.dst
	sub, err := p.eng.resolve(src.Base, dst.Base)
	if err != nil {
		return errors.WithPath(err, "[]")
	}
	st := &vlenState{
		sub:    sub,
		nested: hasVLen(dst.Base),
	}
	st.direct = sub.noop && src.Store.ID() == dst.Store.ID()
	p.vlen = st
	p.bkg = st.nested || sub.bkg
	return nil
}

// convVLen converts each sequence. A null source becomes a null
// destination; otherwise the sequence is read, converted as a run of base
// elements and written through the destination store.
func (p *Path) convVLen(c *call, n int, buf []byte, stride int, bkg []byte, bkgStride int) error {
	st := p.vlen
	src, dst := p.src, p.dst
	sstore, dstore := src.Store, dst.Store
	sbs, dbs := src.Base.Size, dst.Base.Size
	ds := dst.Size
	if bkgStride == 0 {
		bkgStride = ds
	}

	return walk(n, buf, stride, src.Size, ds, nil, func(i int, s, d []byte) error {
		var b []byte
		if bkg != nil {
			b = bkg[i*bkgStride : i*bkgStride+ds]
		}

		null, err := sstore.IsNull(s)
		if err != nil {
			return errors.Store("is-null", err)
		}
		if null {
			if err := dstore.SetNull(d, b); err != nil {
				return errors.Store("set-null", err)
			}
			return nil
		}

		cnt, err := sstore.Len(s)
		if err != nil {
			return errors.Store("length", err)
		}

		if st.direct {
			if seq, ok := sstore.Direct(s); ok {
				if err := dstore.Write(d, b, seq[:cnt*dbs], cnt, dbs); err != nil {
					return errors.Store("write", err)
				}
				return nil
			}
		}

		conv, err := c.grow(st.conv, cnt*max(sbs, dbs))
		if err != nil {
			return err
		}
		st.conv = conv
		if err := sstore.Read(s, conv[:cnt*sbs]); err != nil {
			return errors.Store("read", err)
		}

		// The background sequence supplies the previous destination
		// elements and must be read before the slot is rewritten.
		bgLen := 0
		if !st.sub.noop {
			var seqBkg []byte
			if b != nil && (st.nested || st.sub.bkg) {
				bnull, err := dstore.IsNull(b)
				if err != nil {
					return errors.Store("is-null", err)
				}
				if !bnull {
					if bgLen, err = dstore.Len(b); err != nil {
						return errors.Store("length", err)
					}
					tmp, err := c.grow(st.tmp, max(bgLen, cnt)*dbs)
					if err != nil {
						return err
					}
					st.tmp = tmp
					clear(tmp)
					if err := dstore.Read(b, tmp[:bgLen*dbs]); err != nil {
						return errors.Store("read", err)
					}
					seqBkg = tmp[:cnt*dbs]
				}
			}
			if seqBkg == nil && st.sub.bkg {
				tmp, err := c.grow(st.tmp, cnt*dbs)
				if err != nil {
					return err
				}
				st.tmp = tmp
				clear(tmp)
				seqBkg = tmp
			}
			err := c.within(i, func() error {
				return st.sub.run(c, cnt, conv, 0, seqBkg, 0)
			})
			if err != nil {
				return errors.WithPath(err, "[]")
			}
		}

		if err := dstore.Write(d, b, conv[:cnt*dbs], cnt, dbs); err != nil {
			return errors.Store("write", err)
		}

		if st.nested && bgLen > cnt {
			for j := cnt; j < bgLen; j++ {
				if err := reclaim(dst.Base, st.tmp[j*dbs:(j+1)*dbs]); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// reclaim releases the store entries referenced by an element of type t.
func reclaim(t *dtype.Datatype, elem []byte) error {
	switch t.Class {
	case dtype.ClassVLen:
		null, err := t.Store.IsNull(elem)
		if err != nil {
			return errors.Store("is-null", err)
		}
		if null {
			return nil
		}
		if hasVLen(t.Base) {
			cnt, err := t.Store.Len(elem)
			if err != nil {
				return errors.Store("length", err)
			}
			bs := t.Base.Size
			seq := make([]byte, cnt*bs)
			if err := t.Store.Read(elem, seq); err != nil {
				return errors.Store("read", err)
			}
			var errs error
			for j := 0; j < cnt; j++ {
				errs = multierr.Append(errs, reclaim(t.Base, seq[j*bs:(j+1)*bs]))
			}
			if errs != nil {
				return errs
			}
		}
		if err := t.Store.Delete(elem); err != nil {
			return errors.Store("delete", err)
		}
		return nil

	case dtype.ClassCompound:
		var errs error
		for _, m := range t.Members {
			errs = multierr.Append(errs, reclaim(m.Type, elem[m.Offset:m.End()]))
		}
		return errs

	case dtype.ClassArray:
		var errs error
		bs := t.Base.Size
		for j := 0; j < t.Nelem(); j++ {
			errs = multierr.Append(errs, reclaim(t.Base, elem[j*bs:(j+1)*bs]))
		}
		return errs
	}
	return nil
}

// hasVLen reports whether values of t reference store entries.
func hasVLen(t *dtype.Datatype) bool {
	switch t.Class {
	case dtype.ClassVLen:
		return true
	case dtype.ClassCompound:
		for _, m := range t.Members {
			if hasVLen(m.Type) {
				return true
			}
		}
	case dtype.ClassArray:
		return hasVLen(t.Base)
	}
	return false
}
