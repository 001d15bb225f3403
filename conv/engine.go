package conv

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/typeconv/dtype"
	"github.com/wippyai/typeconv/errors"
)

// defaultChunk bounds ConvertInto staging when no scratch limit is set.
const defaultChunk = 4096

// Engine resolves and caches conversion paths. Paths returned by Init live
// until they are freed or the engine is closed.
type Engine struct {
	handler Handler
	log     *zap.Logger
	paths   map[pairKey]*Path
	failed  map[pairKey]failure
	limit   int

	// Test hooks forcing the general algorithms.
	noEnumTable bool
	noSubset    bool
}

type pairKey struct {
	src, dst *dtype.Datatype
}

// failure caches a capability error for a descriptor pair as it was when
// the error was produced.
type failure struct {
	err          error
	srcFP, dstFP [32]byte
}

// New creates an engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:    Logger(),
		paths:  make(map[pairKey]*Path),
		failed: make(map[pairKey]failure),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init resolves the path from src to dst. Repeated calls with the same
// descriptors return the same path; if either descriptor changed since the
// path was built its private state is rebuilt first.
func (e *Engine) Init(src, dst *dtype.Datatype) (*Path, error) {
	if src == nil || dst == nil {
		return nil, errors.InvalidInput(errors.PhaseInit, "nil datatype")
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if err := dst.Validate(); err != nil {
		return nil, err
	}

	key := pairKey{src: src, dst: dst}
	sfp, dfp := src.Fingerprint(), dst.Fingerprint()

	if p, ok := e.paths[key]; ok {
		if p.srcFP == sfp && p.dstFP == dfp {
			return p, nil
		}
		p.recalc = true
		if err := p.rebuild(sfp, dfp); err != nil {
			e.failed[key] = failure{err: err, srcFP: sfp, dstFP: dfp}
			return nil, err
		}
		return p, nil
	}

	if f, ok := e.failed[key]; ok && f.srcFP == sfp && f.dstFP == dfp {
		return nil, f.err
	}

	p, err := e.resolve(src, dst)
	if err != nil {
		e.log.Debug("conversion unsupported",
			zap.Stringer("src", src),
			zap.Stringer("dst", dst),
			zap.Error(err))
		e.failed[key] = failure{err: err, srcFP: sfp, dstFP: dfp}
		return nil, err
	}
	delete(e.failed, key)

	p.srcFP, p.dstFP = sfp, dfp
	p.cached = true
	e.paths[key] = p

	e.log.Debug("conversion path initialized",
		zap.Stringer("src", src),
		zap.Stringer("dst", dst),
		zap.Stringer("kind", p.kind),
		zap.Bool("noop", p.noop))
	return p, nil
}

// Close frees every cached path.
func (e *Engine) Close() error {
	var err error
	for _, p := range e.paths {
		err = multierr.Append(err, p.Free())
	}
	clear(e.failed)
	return err
}

// Len returns the number of live cached paths.
func (e *Engine) Len() int {
	return len(e.paths)
}

func (e *Engine) newCall() *call {
	return &call{handler: e.handler, log: e.log, limit: e.limit}
}

// resolve builds an uncached path. Composite paths use it for their
// private sub-paths.
func (e *Engine) resolve(src, dst *dtype.Datatype) (*Path, error) {
	kind, err := classify(src, dst)
	if err != nil {
		return nil, err
	}
	p := &Path{eng: e, src: src, dst: dst, kind: kind}
	if err := p.init(); err != nil {
		return nil, err
	}
	return p, nil
}

// classify picks the path kind for a descriptor pair.
func classify(src, dst *dtype.Datatype) (PathKind, error) {
	if sameLayout(src, dst) {
		return KindIdentity, nil
	}

	if src.Class != dst.Class {
		switch {
		case src.Class == dtype.ClassInteger && dst.Class == dtype.ClassFloat:
			return KindIntFloat, nil
		case src.Class == dtype.ClassFloat && dst.Class == dtype.ClassInteger:
			return KindFloatInt, nil
		}
		return 0, errors.Unsupported(src.String(), dst.String(),
			"no conversion from %s to %s", src.Class, dst.Class)
	}

	switch src.Class {
	case dtype.ClassInteger:
		if swappable(src, dst) {
			return KindByteSwap, nil
		}
		return KindInteger, nil
	case dtype.ClassBitfield:
		if swappable(src, dst) {
			return KindByteSwap, nil
		}
		return KindBitfield, nil
	case dtype.ClassFloat:
		if swappable(src, dst) {
			return KindByteSwap, nil
		}
		return KindFloat, nil
	case dtype.ClassString:
		if src.Charset != dst.Charset {
			return 0, errors.Unsupported(src.String(), dst.String(),
				"character set conversion from %s to %s", src.Charset, dst.Charset)
		}
		return KindString, nil
	case dtype.ClassEnum:
		return KindEnum, nil
	case dtype.ClassCompound:
		return KindCompound, nil
	case dtype.ClassArray:
		if len(src.Dims) != len(dst.Dims) {
			return 0, errors.Unsupported(src.String(), dst.String(),
				"array rank %d differs from %d", len(src.Dims), len(dst.Dims))
		}
		for i := range src.Dims {
			if src.Dims[i] != dst.Dims[i] {
				return 0, errors.Unsupported(src.String(), dst.String(),
					"array extent %d differs from %d on axis %d", src.Dims[i], dst.Dims[i], i)
			}
		}
		return KindArray, nil
	case dtype.ClassVLen:
		if src.VLString != dst.VLString {
			return 0, errors.Unsupported(src.String(), dst.String(),
				"variable-length string and sequence are not interchangeable")
		}
		if src.VLString && src.Charset != dst.Charset {
			return 0, errors.Unsupported(src.String(), dst.String(),
				"character set conversion from %s to %s", src.Charset, dst.Charset)
		}
		return KindVLen, nil
	}
	return 0, errors.Unsupported(src.String(), dst.String(), "unknown class %s", src.Class)
}

// sameLayout reports whether converting src to dst cannot change any byte.
// Byte order is irrelevant for single-byte atomic types.
func sameLayout(src, dst *dtype.Datatype) bool {
	if dtype.Equal(src, dst) {
		return true
	}
	if !src.IsAtomic() || !dst.IsAtomic() || src.Size != 1 || dst.Size != 1 {
		return false
	}
	a, b := *src, *dst
	a.Order, b.Order = dtype.OrderLE, dtype.OrderLE
	return dtype.Equal(&a, &b)
}

// swappable reports whether src and dst differ only in little versus big
// endian byte order.
func swappable(src, dst *dtype.Datatype) bool {
	if src.Size != dst.Size {
		return false
	}
	ordered := func(o dtype.Order) bool { return o == dtype.OrderLE || o == dtype.OrderBE }
	if !ordered(src.Order) || !ordered(dst.Order) || src.Order == dst.Order {
		return false
	}
	a := *src
	a.Order = dst.Order
	return dtype.Equal(&a, dst)
}
