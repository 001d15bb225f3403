// Package dtype defines the structural descriptors the conversion engine
// operates on.
//
// A Datatype describes a byte layout purely as data: nothing in the engine
// knows what an "int" or a "float" is beyond the fields recorded here.
//
// # Classes
//
//	Class     Facets used
//	--------  -------------------------------------------------------
//	Integer   Size, Order, Precision, Offset, LSBPad, MSBPad, Sign
//	Bitfield  Size, Order, Precision, Offset, LSBPad, MSBPad
//	Float     Size, Order, Precision, Offset, pads, Float
//	String    Size, Charset, StrPad
//	Enum      Base (an Integer), Enum (names and raw values)
//	Compound  Size, Members (name, byte offset, member type)
//	Array     Dims, Base
//	VLen      Base, Store, VLString, Charset
//
// Bit positions inside atomic types (Offset, float field positions) count
// from the least significant bit of the value once it is in little-endian
// order. Big-endian and VAX values are brought into that orientation by the
// engine before any field is read.
//
// # Usage
//
//	be32 := dtype.Int(4, false, dtype.OrderBE)
//	le16 := dtype.Int(2, false, dtype.OrderLE)
//
//	pt := dtype.NewCompound(12)
//	_ = pt.Insert("x", 0, dtype.NativeFloat32)
//	_ = pt.Insert("y", 4, dtype.NativeFloat32)
//	_ = pt.Insert("id", 8, dtype.NativeUint32)
//
// Descriptors are plain values. The engine never mutates them; callers that
// mutate a descriptor after resolving a path must resolve it again so the
// path can rebuild its private state.
package dtype
