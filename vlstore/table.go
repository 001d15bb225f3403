package vlstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrClosed        = errors.New("vlstore: store closed")
	ErrInvalidHandle = errors.New("vlstore: invalid handle")
	ErrShortSlot     = errors.New("vlstore: slot too short")
	ErrShortBuffer   = errors.New("vlstore: output buffer too short")
)

// SlotSize is the slot size of both stores: a little-endian u32 element
// count followed by a u32 reference. A zero reference is the null sequence.
const SlotSize = 8

// Table is an in-process sequence store. Sequences live in a handle table
// with handle reuse after Delete.
type Table struct {
	id       string
	entries  []entry
	freeList []uint32
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	data  []byte
	valid bool
}

// NewTable creates an empty table store. Stores with the same id are
// treated as sharing storage.
func NewTable(id string) *Table {
	return &Table{
		id:       id,
		entries:  make([]entry, 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// ID returns the store identity.
func (t *Table) ID() string { return t.id }

// SlotSize returns the slot size in bytes.
func (t *Table) SlotSize() int { return SlotSize }

// IsNull reports whether slot holds the null sequence.
func (t *Table) IsNull(slot []byte) (bool, error) {
	_, h, err := decodeSlot(slot)
	if err != nil {
		return false, err
	}
	return h == 0, nil
}

// Len returns the element count recorded in slot.
func (t *Table) Len(slot []byte) (int, error) {
	n, _, err := decodeSlot(slot)
	return int(n), err
}

// Read copies the sequence bytes referenced by slot into out.
func (t *Table) Read(slot []byte, out []byte) error {
	_, h, err := decodeSlot(slot)
	if err != nil {
		return err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	e, err := t.lookup(h)
	if err != nil {
		return err
	}
	if len(out) < len(e.data) {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, len(e.data), len(out))
	}
	copy(out, e.data)
	return nil
}

// Direct returns the stored bytes of slot without copying. The view is
// valid until the entry is rewritten or deleted.
func (t *Table) Direct(slot []byte) ([]byte, bool) {
	_, h, err := decodeSlot(slot)
	if err != nil {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	e, err := t.lookup(h)
	if err != nil {
		return nil, false
	}
	return e.data, true
}

// Write stores n elements of baseSize bytes and records them in slot. When
// bkg references a live entry, that entry is overwritten instead of
// allocating a new handle.
func (t *Table) Write(slot, bkg, seq []byte, n, baseSize int) error {
	if len(slot) < SlotSize {
		return ErrShortSlot
	}
	size := n * baseSize
	if len(seq) < size {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, size, len(seq))
	}

	var reuse uint32
	if len(bkg) >= SlotSize {
		_, reuse, _ = decodeSlot(bkg)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}

	if reuse != 0 {
		if e, err := t.lookup(reuse); err == nil {
			if cap(e.data) >= size {
				// seq may alias the entry when converting in place.
				e.data = e.data[:size]
				copy(e.data, seq[:size])
			} else {
				e.data = append([]byte(nil), seq[:size]...)
			}
			encodeSlot(slot, uint32(n), reuse)
			return nil
		}
	}

	h := t.create(append([]byte(nil), seq[:size]...))
	encodeSlot(slot, uint32(n), h)
	return nil
}

// SetNull stores the null sequence in slot, releasing the entry referenced
// by bkg.
func (t *Table) SetNull(slot, bkg []byte) error {
	if len(slot) < SlotSize {
		return ErrShortSlot
	}
	var old uint32
	if len(bkg) >= SlotSize {
		_, old, _ = decodeSlot(bkg)
	}
	encodeSlot(slot, 0, 0)
	if old == 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.drop(old)
	return nil
}

// Delete releases the entry referenced by slot.
func (t *Table) Delete(slot []byte) error {
	_, h, err := decodeSlot(slot)
	if err != nil {
		return err
	}
	if h == 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.lookup(h); err != nil {
		return err
	}
	t.drop(h)
	return nil
}

// Count returns the number of live entries.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries) - len(t.freeList)
}

// Close releases all entries. Further writes fail.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	t.entries = nil
	t.freeList = nil
	return nil
}

func (t *Table) create(data []byte) uint32 {
	e := entry{data: data, valid: true}

	if len(t.freeList) > 0 {
		h := t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		t.entries[h-1] = e
		return h
	}

	t.entries = append(t.entries, e)
	return uint32(len(t.entries))
}

func (t *Table) lookup(h uint32) (*entry, error) {
	if h == 0 || int(h) > len(t.entries) || !t.entries[h-1].valid {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHandle, h)
	}
	return &t.entries[h-1], nil
}

func (t *Table) drop(h uint32) {
	if h == 0 || int(h) > len(t.entries) || !t.entries[h-1].valid {
		return
	}
	t.entries[h-1] = entry{}
	t.freeList = append(t.freeList, h)
}

func decodeSlot(slot []byte) (n, ref uint32, err error) {
	if len(slot) < SlotSize {
		return 0, 0, ErrShortSlot
	}
	return binary.LittleEndian.Uint32(slot), binary.LittleEndian.Uint32(slot[4:]), nil
}

func encodeSlot(slot []byte, n, ref uint32) {
	binary.LittleEndian.PutUint32(slot, n)
	binary.LittleEndian.PutUint32(slot[4:], ref)
}
