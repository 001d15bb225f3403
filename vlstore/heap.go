package vlstore

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/typeconv"
)

// heapAlign is the alignment of every sequence block.
const heapAlign = 8

// Heap keeps sequences in a linear memory. A slot holds the element count
// and the block offset; offset 0 is the null sequence.
type Heap struct {
	id     string
	mem    typeconv.Memory
	alloc  typeconv.Allocator
	log    *zap.Logger
	blocks map[uint32]block
	closer func(context.Context) error
	mu     sync.Mutex
}

type block struct {
	cap, len uint32
}

// HeapOption configures OpenHeap.
type HeapOption func(*heapConfig)

type heapConfig struct {
	log      *zap.Logger
	maxPages uint32
}

// WithLogger sets the heap logger.
func WithLogger(l *zap.Logger) HeapOption {
	return func(c *heapConfig) {
		c.log = l
	}
}

// WithMaxPages bounds the linear memory in 64 KiB pages.
func WithMaxPages(pages uint32) HeapOption {
	return func(c *heapConfig) {
		c.maxPages = pages
	}
}

// NewHeap creates a heap store over caller-provided memory and allocator.
func NewHeap(id string, mem typeconv.Memory, alloc typeconv.Allocator, log *zap.Logger) *Heap {
	if log == nil {
		log = zap.NewNop()
	}
	return &Heap{
		id:     id,
		mem:    mem,
		alloc:  alloc,
		log:    log,
		blocks: make(map[uint32]block),
	}
}

// OpenHeap creates a heap store in a fresh WASM linear memory with a
// first-fit allocator. Close releases the memory.
func OpenHeap(ctx context.Context, id string, opts ...HeapOption) (*Heap, error) {
	cfg := heapConfig{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	mem, err := NewLinearMemory(ctx, cfg.maxPages)
	if err != nil {
		return nil, err
	}
	h := NewHeap(id, mem, NewFirstFit(mem, cfg.log), cfg.log)
	h.closer = mem.Close
	return h, nil
}

// ID returns the store identity.
func (h *Heap) ID() string { return h.id }

// SlotSize returns the slot size in bytes.
func (h *Heap) SlotSize() int { return SlotSize }

// IsNull reports whether slot holds the null sequence.
func (h *Heap) IsNull(slot []byte) (bool, error) {
	_, ptr, err := decodeSlot(slot)
	if err != nil {
		return false, err
	}
	return ptr == 0, nil
}

// Len returns the element count recorded in slot.
func (h *Heap) Len(slot []byte) (int, error) {
	n, _, err := decodeSlot(slot)
	return int(n), err
}

// Read copies the sequence bytes referenced by slot into out.
func (h *Heap) Read(slot []byte, out []byte) error {
	data, err := h.view(slot)
	if err != nil {
		return err
	}
	if len(out) < len(data) {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, len(data), len(out))
	}
	copy(out, data)
	return nil
}

// Direct returns a view of the sequence bytes in memory. The view is valid
// until the block is rewritten, freed or the memory grows.
func (h *Heap) Direct(slot []byte) ([]byte, bool) {
	data, err := h.view(slot)
	return data, err == nil
}

func (h *Heap) view(slot []byte) ([]byte, error) {
	_, ptr, err := decodeSlot(slot)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	b, ok := h.blocks[ptr]
	h.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: block %#x", ErrInvalidHandle, ptr)
	}
	return h.mem.Read(ptr, b.len)
}

// Write stores n elements of baseSize bytes. The block referenced by bkg
// is reused when large enough and freed otherwise.
func (h *Heap) Write(slot, bkg, seq []byte, n, baseSize int) error {
	if len(slot) < SlotSize {
		return ErrShortSlot
	}
	size := uint32(n * baseSize)
	if len(seq) < int(size) {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, size, len(seq))
	}

	var old uint32
	if len(bkg) >= SlotSize {
		_, old, _ = decodeSlot(bkg)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if b, ok := h.blocks[old]; ok && b.cap >= size {
		if err := h.mem.Write(old, seq[:size]); err != nil {
			return err
		}
		h.blocks[old] = block{cap: b.cap, len: size}
		encodeSlot(slot, uint32(n), old)
		return nil
	}

	ptr, err := h.alloc.Alloc(max(size, 1), heapAlign)
	if err != nil {
		return err
	}
	if err := h.mem.Write(ptr, seq[:size]); err != nil {
		h.alloc.Free(ptr, max(size, 1), heapAlign)
		return err
	}
	h.blocks[ptr] = block{cap: max(size, 1), len: size}
	encodeSlot(slot, uint32(n), ptr)
	h.release(old)
	return nil
}

// SetNull stores the null sequence in slot, freeing the block referenced
// by bkg.
func (h *Heap) SetNull(slot, bkg []byte) error {
	if len(slot) < SlotSize {
		return ErrShortSlot
	}
	var old uint32
	if len(bkg) >= SlotSize {
		_, old, _ = decodeSlot(bkg)
	}
	encodeSlot(slot, 0, 0)

	h.mu.Lock()
	h.release(old)
	h.mu.Unlock()
	return nil
}

// Delete frees the block referenced by slot.
func (h *Heap) Delete(slot []byte) error {
	_, ptr, err := decodeSlot(slot)
	if err != nil {
		return err
	}
	if ptr == 0 {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.blocks[ptr]; !ok {
		return fmt.Errorf("%w: block %#x", ErrInvalidHandle, ptr)
	}
	h.release(ptr)
	return nil
}

// Count returns the number of live blocks.
func (h *Heap) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.blocks)
}

// Close releases the memory if the heap owns it.
func (h *Heap) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.blocks = make(map[uint32]block)
	if h.closer == nil {
		return nil
	}
	closer := h.closer
	h.closer = nil
	return closer(ctx)
}

func (h *Heap) release(ptr uint32) {
	b, ok := h.blocks[ptr]
	if !ok {
		return
	}
	delete(h.blocks, ptr)
	h.alloc.Free(ptr, b.cap, heapAlign)
}
