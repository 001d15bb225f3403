package vlstore

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// ErrOutOfMemory is returned when the memory cannot grow to fit a block.
var ErrOutOfMemory = errors.New("vlstore: out of memory")

// Growable is a memory whose size can be extended in pages.
type Growable interface {
	Size() uint32
	Grow(delta uint32) (uint32, bool)
}

// FirstFit is a first-fit allocator over a Growable memory. Freed blocks
// are kept sorted by offset and merged with their neighbours; the bump
// pointer retreats when the highest block is freed.
type FirstFit struct {
	mem  Growable
	log  *zap.Logger
	free []span
	top  uint32
}

type span struct {
	off, size uint32
}

// reserved keeps offset 0 out of circulation so it can mean null.
const reserved = 8

// NewFirstFit creates an allocator owning all of mem above the reserved
// prefix.
func NewFirstFit(mem Growable, log *zap.Logger) *FirstFit {
	if log == nil {
		log = zap.NewNop()
	}
	return &FirstFit{mem: mem, log: log, top: reserved}
}

// Alloc returns the offset of a block of at least size bytes aligned to
// align, a power of two.
func (a *FirstFit) Alloc(size, align uint32) (uint32, error) {
	if align == 0 || align&(align-1) != 0 {
		return 0, fmt.Errorf("vlstore: alignment %d is not a power of two", align)
	}
	size = roundUp(max(size, 1), align)

	for i, s := range a.free {
		start := roundUp(s.off, align)
		end := uint64(s.off) + uint64(s.size)
		if uint64(start)+uint64(size) > end {
			continue
		}
		var rest []span
		if start > s.off {
			rest = append(rest, span{off: s.off, size: start - s.off})
		}
		if tail := uint32(end) - (start + size); tail > 0 {
			rest = append(rest, span{off: start + size, size: tail})
		}
		a.free = append(a.free[:i], append(rest, a.free[i+1:]...)...)
		return start, nil
	}

	start := roundUp(a.top, align)
	end := uint64(start) + uint64(size)
	if end > uint64(a.mem.Size()) {
		pages := uint32((end - uint64(a.mem.Size()) + PageSize - 1) / PageSize)
		prev, ok := a.mem.Grow(pages)
		if !ok {
			return 0, fmt.Errorf("%w: cannot grow by %d pages for %d bytes", ErrOutOfMemory, pages, size)
		}
		a.log.Debug("heap memory grown",
			zap.Uint32("from_pages", prev),
			zap.Uint32("to_pages", prev+pages))
	}
	if start > a.top {
		a.insert(span{off: a.top, size: start - a.top})
	}
	a.top = uint32(end)
	return start, nil
}

// Free returns a block obtained from Alloc with the same size and align.
func (a *FirstFit) Free(ptr, size, align uint32) {
	if ptr < reserved {
		return
	}
	if align == 0 {
		align = 1
	}
	a.insert(span{off: ptr, size: roundUp(max(size, 1), align)})

	if n := len(a.free); n > 0 {
		if last := a.free[n-1]; last.off+last.size == a.top {
			a.top = last.off
			a.free = a.free[:n-1]
		}
	}
}

// InUse returns the number of bytes below the bump pointer not on the free
// list.
func (a *FirstFit) InUse() uint32 {
	used := a.top - reserved
	for _, s := range a.free {
		used -= s.size
	}
	return used
}

func (a *FirstFit) insert(s span) {
	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].off > s.off })
	a.free = append(a.free, span{})
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = s

	if i+1 < len(a.free) && s.off+s.size == a.free[i+1].off {
		a.free[i].size += a.free[i+1].size
		a.free = append(a.free[:i+1], a.free[i+2:]...)
	}
	if i > 0 && a.free[i-1].off+a.free[i-1].size == a.free[i].off {
		a.free[i-1].size += a.free[i].size
		a.free = append(a.free[:i], a.free[i+1:]...)
	}
}

func roundUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}
