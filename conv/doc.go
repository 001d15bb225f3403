// Package conv converts buffers of elements between two dtype descriptors.
//
// A conversion runs through an explicit three-phase lifecycle:
//
//	p, err := eng.Init(src, dst)          // INIT: resolve and build private state
//	err = p.Convert(n, buf, 0, bkg, 0)    // CONV: any number of times
//	err = p.Free()                        // FREE: exactly once
//
// Init selects one of a closed set of path kinds:
//
//	Kind      Used for
//	--------  ------------------------------------------------------------
//	identity  bit-identical layouts; Convert leaves the buffer untouched
//	byteswap  atomic types differing only in LE/BE order
//	integer   integer to integer with saturation
//	bitfield  bitfield to bitfield with truncation
//	float     float to float, including VAX order
//	intfloat  integer to float with round-half-even
//	floatint  float to integer, fraction truncated
//	string    fixed-length strings of the same character set
//	enum      enumerations matched by member name
//	compound  structs matched by member name, two-pass in place
//	array     fixed arrays of equal shape
//	vlen      variable-length sequences through a dtype.VLStore
//
// Composite kinds resolve a private sub-path per member or element type and
// release it when they are freed.
//
// # In-place conversion
//
// Convert rewrites buf from n source elements into n destination elements.
// When the element sizes differ and stride is zero the elements are packed,
// so the destination of one element can overlap the source of another.
// Elements are visited front to back when the destination is smaller and
// back to front when it is larger; the few elements whose destination
// overlaps their own source are staged through a one-element temporary.
//
// # Exceptions
//
// Numeric kernels report range, special-value and precision events to the
// engine's Handler. Without a handler, or when it returns Unhandled, the
// kernel applies its default: saturation for integers, infinity for float
// overflow, truncation for fractions. Handled leaves the destination element
// exactly as the handler wrote it. Abort fails the call; elements already
// converted stay converted.
//
// # Concurrency
//
// Paths carry mutable scratch state and must not be used from multiple
// goroutines at once. An Engine is likewise single-threaded.
package conv
