package conv

import (
	"go.uber.org/zap"

	"github.com/wippyai/typeconv/dtype"
	"github.com/wippyai/typeconv/errors"
)

// Event identifies a per-element numeric exception.
type Event uint8

const (
	RangeLow Event = iota + 1
	RangeHigh
	NaN
	PosInf
	NegInf
	// Truncate reports a float to integer conversion that dropped set
	// fraction bits.
	Truncate
	// Precision reports an integer to float conversion that dropped set
	// low-order bits.
	Precision
)

var eventNames = [...]string{
	RangeLow:  "range-low",
	RangeHigh: "range-high",
	NaN:       "nan",
	PosInf:    "+inf",
	NegInf:    "-inf",
	Truncate:  "truncate",
	Precision: "precision",
}

func (e Event) String() string {
	if int(e) < len(eventNames) && eventNames[e] != "" {
		return eventNames[e]
	}
	return "none"
}

// Action is a handler's verdict on an exception.
type Action uint8

const (
	// Unhandled applies the kernel's default for the event.
	Unhandled Action = iota
	// Handled keeps the destination element as the handler wrote it.
	Handled
	// Abort fails the conversion call.
	Abort
)

func (a Action) String() string {
	switch a {
	case Handled:
		return "handled"
	case Abort:
		return "abort"
	default:
		return "unhandled"
	}
}

// Exception describes one numeric event. SrcBytes is a copy of the source
// element in the source's declared byte order. DstBytes is the destination
// element; a handler returning Handled must leave it in the destination's
// declared byte order.
type Exception struct {
	Src      *dtype.Datatype
	Dst      *dtype.Datatype
	SrcBytes []byte
	DstBytes []byte
	Index    int
	Event    Event
}

// Handler decides how a numeric exception is resolved.
type Handler func(*Exception) Action

// call carries per-Convert settings down through nested paths.
type call struct {
	handler Handler
	log     *zap.Logger
	limit   int

	// base is the call-level number of local element 0. While pinned,
	// every event reports base: a sub-path is converting parts of that
	// one element.
	base   int
	pinned bool
}

// elem maps a local element number to its number within the call.
func (c *call) elem(i int) int {
	if c.pinned {
		return c.base
	}
	return c.base + i
}

// within runs fn with events attributed to local element i.
func (c *call) within(i int, fn func() error) error {
	base, pinned := c.base, c.pinned
	c.base, c.pinned = c.elem(i), true
	err := fn()
	c.base, c.pinned = base, pinned
	return err
}

// raise consults the handler for an event on local element i. s is the
// untouched source element and d the destination element.
func (c *call) raise(p *Path, ev Event, i int, s, d []byte) (Action, error) {
	if c.handler == nil {
		return Unhandled, nil
	}
	i = c.elem(i)

	src := append([]byte(nil), s...)
	act := c.handler(&Exception{
		Event:    ev,
		Src:      p.src,
		Dst:      p.dst,
		SrcBytes: src,
		DstBytes: d,
		Index:    i,
	})

	c.log.Debug("conversion exception",
		zap.Stringer("event", ev),
		zap.Stringer("action", act),
		zap.Int("element", i),
		zap.Stringer("src", p.src),
		zap.Stringer("dst", p.dst))

	if act == Abort {
		return act, errors.Aborted(p.src.String(), p.dst.String(), ev.String(), i)
	}
	return act, nil
}

// grow returns buf resized to need bytes, growing geometrically within the
// scratch limit.
func (c *call) grow(buf []byte, need int) ([]byte, error) {
	if need <= cap(buf) {
		return buf[:need], nil
	}
	if c.limit > 0 && need > c.limit {
		return nil, errors.AllocationFailed(errors.PhaseConvert, need, c.limit)
	}
	n := max(need, 2*cap(buf))
	if c.limit > 0 {
		n = min(n, c.limit)
	}
	return make([]byte, need, n), nil
}
