package conv

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/typeconv/dtype"
	"github.com/wippyai/typeconv/errors"
)

// PathKind is the closed set of conversion strategies.
type PathKind uint8

const (
	KindIdentity PathKind = iota
	KindByteSwap
	KindInteger
	KindFloat
	KindIntFloat
	KindFloatInt
	KindBitfield
	KindString
	KindEnum
	KindCompound
	KindArray
	KindVLen
)

var kindNames = [...]string{
	KindIdentity: "identity",
	KindByteSwap: "byteswap",
	KindInteger:  "integer",
	KindFloat:    "float",
	KindIntFloat: "intfloat",
	KindFloatInt: "floatint",
	KindBitfield: "bitfield",
	KindString:   "string",
	KindEnum:     "enum",
	KindCompound: "compound",
	KindArray:    "array",
	KindVLen:     "vlen",
}

func (k PathKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Path is a resolved conversion between two descriptors together with its
// private state.
type Path struct {
	eng *Engine
	src *dtype.Datatype
	dst *dtype.Datatype

	enum     *enumState
	compound *compoundState
	array    *arrayState
	vlen     *vlenState

	// Atomic kernel scratch: the source element in little-endian
	// orientation, the overlap temporary and the magnitude buffer.
	sbuf []byte
	tmp  []byte
	ibuf []byte

	srcFP, dstFP [32]byte

	kind   PathKind
	noop   bool
	bkg    bool
	freed  bool
	cached bool
	recalc bool
}

// Kind returns the path's strategy.
func (p *Path) Kind() PathKind { return p.kind }

// Src returns the source descriptor.
func (p *Path) Src() *dtype.Datatype { return p.src }

// Dst returns the destination descriptor.
func (p *Path) Dst() *dtype.Datatype { return p.dst }

// IsNoop reports whether Convert never changes the buffer.
func (p *Path) IsNoop() bool { return p.noop }

// NeedsBackground reports whether destination bytes not produced from the
// source are taken from the background buffer.
func (p *Path) NeedsBackground() bool { return p.bkg }

func (p *Path) init() error {
	switch p.kind {
	case KindIdentity:
		p.noop = true
	case KindByteSwap:
	case KindString:
		p.tmp = make([]byte, p.dst.Size)
	case KindInteger, KindBitfield, KindFloat:
		p.sbuf = make([]byte, p.src.Size)
		p.tmp = make([]byte, p.dst.Size)
	case KindIntFloat:
		p.sbuf = make([]byte, p.src.Size)
		p.tmp = make([]byte, p.dst.Size)
		p.ibuf = make([]byte, (max(p.src.Precision, p.dst.Float.MantSize)+8)/8+1)
	case KindFloatInt:
		p.sbuf = make([]byte, p.src.Size)
		p.tmp = make([]byte, p.dst.Size)
		p.ibuf = make([]byte, (max(p.src.Float.MantSize+1, p.dst.Precision)+8)/8+1)
	case KindEnum:
		return p.initEnum()
	case KindCompound:
		return p.initCompound()
	case KindArray:
		return p.initArray()
	case KindVLen:
		return p.initVLen()
	default:
		panic(fmt.Sprintf("conv: unhandled path kind %s", p.kind))
	}
	return nil
}

// rebuild discards private state and resolves the path again for the
// descriptors' current contents.
func (p *Path) rebuild(sfp, dfp [32]byte) error {
	relErr := p.release()

	kind, err := classify(p.src, p.dst)
	if err == nil {
		p.kind, p.noop, p.bkg = kind, false, false
		err = p.init()
	}
	if err != nil {
		p.freed = true
		p.drop()
		return multierr.Append(err, relErr)
	}

	p.srcFP, p.dstFP = sfp, dfp
	p.recalc = false
	p.eng.log.Debug("conversion path rebuilt",
		zap.Stringer("src", p.src),
		zap.Stringer("dst", p.dst),
		zap.Stringer("kind", p.kind))
	return relErr
}

// Free releases the path's private state, including its sub-paths. A path
// can be freed once.
func (p *Path) Free() error {
	if p.freed {
		return errors.Freed(errors.PhaseFree, p.src.String(), p.dst.String())
	}
	p.freed = true
	err := p.release()
	p.drop()
	p.eng.log.Debug("conversion path freed",
		zap.Stringer("src", p.src),
		zap.Stringer("dst", p.dst),
		zap.Stringer("kind", p.kind))
	return err
}

func (p *Path) drop() {
	if p.cached {
		delete(p.eng.paths, pairKey{src: p.src, dst: p.dst})
		p.cached = false
	}
}

func (p *Path) release() error {
	var err error
	if st := p.compound; st != nil {
		for _, sub := range st.subs {
			if sub != nil {
				err = multierr.Append(err, sub.Free())
			}
		}
	}
	if st := p.array; st != nil {
		err = multierr.Append(err, st.sub.Free())
	}
	if st := p.vlen; st != nil {
		err = multierr.Append(err, st.sub.Free())
	}
	p.enum, p.compound, p.array, p.vlen = nil, nil, nil, nil
	p.sbuf, p.tmp, p.ibuf = nil, nil, nil
	return err
}

// Convert converts n elements in place. Source element i starts at
// i*stride and so does destination element i; a zero stride packs source
// elements at the source size and destination elements at the destination
// size. bkg, when non-nil, holds n destination elements at bkgStride (zero
// meaning the destination size) supplying bytes the source does not.
func (p *Path) Convert(n int, buf []byte, stride int, bkg []byte, bkgStride int) error {
	if p.freed {
		return errors.Freed(errors.PhaseConvert, p.src.String(), p.dst.String())
	}
	if n < 0 {
		return errors.InvalidInput(errors.PhaseConvert, "negative element count %d", n)
	}
	if n == 0 {
		return nil
	}

	w := max(p.src.Size, p.dst.Size)
	need := n * w
	if stride != 0 {
		if stride < w {
			return errors.InvalidInput(errors.PhaseConvert,
				"stride %d is smaller than element size %d", stride, w)
		}
		need = (n-1)*stride + w
	}
	if len(buf) < need {
		return errors.OutOfBounds(errors.PhaseConvert, "buffer", need, len(buf))
	}
	if err := p.checkBackground(n, bkg, bkgStride); err != nil {
		return err
	}

	return p.run(p.eng.newCall(), n, buf, stride, bkg, bkgStride)
}

// ConvertInto converts n elements from src into dst, leaving src
// untouched. Elements are staged through a scratch buffer in chunks bounded
// by the engine's scratch limit. On failure, chunks completed before the
// failing one have been written to dst.
func (p *Path) ConvertInto(n int, src []byte, srcStride int, dst []byte, dstStride int, bkg []byte, bkgStride int) error {
	if p.freed {
		return errors.Freed(errors.PhaseConvert, p.src.String(), p.dst.String())
	}
	if n < 0 {
		return errors.InvalidInput(errors.PhaseConvert, "negative element count %d", n)
	}
	if n == 0 {
		return nil
	}

	ss, ds := p.src.Size, p.dst.Size
	if srcStride == 0 {
		srcStride = ss
	}
	if dstStride == 0 {
		dstStride = ds
	}
	if srcStride < ss || dstStride < ds {
		return errors.InvalidInput(errors.PhaseConvert,
			"strides %d/%d are smaller than element sizes %d/%d", srcStride, dstStride, ss, ds)
	}
	if need := (n-1)*srcStride + ss; len(src) < need {
		return errors.OutOfBounds(errors.PhaseConvert, "source buffer", need, len(src))
	}
	if need := (n-1)*dstStride + ds; len(dst) < need {
		return errors.OutOfBounds(errors.PhaseConvert, "destination buffer", need, len(dst))
	}
	if err := p.checkBackground(n, bkg, bkgStride); err != nil {
		return err
	}
	if bkgStride == 0 {
		bkgStride = ds
	}

	c := p.eng.newCall()
	w := max(ss, ds)
	chunk := min(n, defaultChunk)
	if c.limit > 0 {
		chunk = min(n, c.limit/w)
		if chunk == 0 {
			return errors.AllocationFailed(errors.PhaseConvert, w, c.limit)
		}
	}
	work, err := c.grow(nil, chunk*w)
	if err != nil {
		return err
	}

	for start := 0; start < n; start += chunk {
		k := min(chunk, n-start)
		for j := 0; j < k; j++ {
			o := (start + j) * srcStride
			copy(work[j*ss:(j+1)*ss], src[o:o+ss])
		}
		var b []byte
		if bkg != nil {
			b = bkg[start*bkgStride:]
		}
		c.base = start
		if err := p.run(c, k, work, 0, b, bkgStride); err != nil {
			return err
		}
		for j := 0; j < k; j++ {
			o := (start + j) * dstStride
			copy(dst[o:o+ds], work[j*ds:(j+1)*ds])
		}
	}
	return nil
}

func (p *Path) checkBackground(n int, bkg []byte, bkgStride int) error {
	if bkg == nil {
		return nil
	}
	ds := p.dst.Size
	if bkgStride == 0 {
		bkgStride = ds
	}
	if bkgStride < ds {
		return errors.InvalidInput(errors.PhaseConvert,
			"background stride %d is smaller than element size %d", bkgStride, ds)
	}
	if need := (n-1)*bkgStride + ds; len(bkg) < need {
		return errors.OutOfBounds(errors.PhaseConvert, "background buffer", need, len(bkg))
	}
	return nil
}

// run dispatches to the kernel for the path kind. Sub-paths are invoked
// through run directly with arguments already validated by their parent.
func (p *Path) run(c *call, n int, buf []byte, stride int, bkg []byte, bkgStride int) error {
	switch p.kind {
	case KindIdentity:
		return nil
	case KindByteSwap:
		p.swap(n, buf, stride)
		return nil
	case KindInteger:
		return p.atomic(c, n, buf, stride, p.intElem)
	case KindBitfield:
		return p.atomic(c, n, buf, stride, p.bitfieldElem)
	case KindFloat:
		return p.atomic(c, n, buf, stride, p.floatElem)
	case KindIntFloat:
		return p.atomic(c, n, buf, stride, p.intFloatElem)
	case KindFloatInt:
		return p.atomic(c, n, buf, stride, p.floatIntElem)
	case KindString:
		return p.convString(n, buf, stride)
	case KindEnum:
		return p.convEnum(c, n, buf, stride)
	case KindCompound:
		return p.convCompound(c, n, buf, stride, bkg, bkgStride)
	case KindArray:
		return p.convArray(c, n, buf, stride, bkg, bkgStride)
	case KindVLen:
		return p.convVLen(c, n, buf, stride, bkg, bkgStride)
	default:
		panic(fmt.Sprintf("conv: unhandled path kind %s", p.kind))
	}
}
