// Package vlstore provides backing stores for variable-length datatypes.
//
// Both stores use an 8-byte slot: a little-endian u32 element count followed
// by a u32 reference, where a zero reference is the null sequence.
//
// Table keeps each sequence in a Go slice behind a reusable handle:
//
//	store := vlstore.NewTable("mem")
//	seq := dtype.NewVLen(dtype.NativeInt32, store)
//
// Heap keeps sequences in WASM linear memory managed by a first-fit
// allocator, so the bytes a conversion writes can be handed to a guest
// module directly:
//
//	heap, err := vlstore.OpenHeap(ctx, "guest", vlstore.WithMaxPages(256))
//	if err != nil {
//	    return err
//	}
//	defer heap.Close(ctx)
//
// NewHeap accepts any typeconv.Memory and typeconv.Allocator pair for
// memories owned elsewhere.
//
// Writes reuse the storage referenced by the background slot when one is
// given, and SetNull releases it.
package vlstore
