package dtype

// VLStore is the backing store of a variable-length type. A slot is the
// fixed-size region a VLen value occupies inside an element; its contents
// are meaningful only to the store that wrote it.
//
// The engine reads a source sequence completely before writing the
// destination slot of the same element.
type VLStore interface {
	// ID identifies the store. Stores with equal IDs share storage, which
	// lets unconverted sequences be addressed directly.
	ID() string

	// SlotSize is the size in bytes of one slot.
	SlotSize() int

	IsNull(slot []byte) (bool, error)

	// Len returns the number of base elements in the sequence.
	Len(slot []byte) (int, error)

	// Read copies the sequence bytes into out, which holds Len*base size bytes.
	Read(slot []byte, out []byte) error

	// Direct returns a read-only view of the sequence bytes when the store
	// can provide one without copying.
	Direct(slot []byte) ([]byte, bool)

	// Write stores n elements of baseSize bytes from seq and records the
	// reference in slot. bkg is the previous content of the destination slot
	// or nil; stores may reuse the storage it references.
	Write(slot, bkg, seq []byte, n, baseSize int) error

	// SetNull marks slot as the null sequence.
	SetNull(slot, bkg []byte) error

	// Delete releases the storage referenced by slot.
	Delete(slot []byte) error
}
