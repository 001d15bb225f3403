// Package witdesc derives conversion descriptors from WIT types.
//
// Descriptors follow the Canonical ABI memory layout of the Component
// Model, so values lowered by a component can be converted in place
// with the conv engine and compared field by field against host layouts.
//
// # Type Mapping
//
//	WIT type          Descriptor
//	--------          ----------
//	bool, u8..u64     unsigned integer, little endian
//	s8..s64           two's complement integer, little endian
//	f32, f64          IEEE float, little endian
//	char              u32 scalar value
//	string            UTF-8 variable-length string
//	list<T>           variable-length sequence of T
//	record            compound, fields at aligned offsets
//	tuple             compound with members "0", "1", ...
//	enum              enum over the discriminant integer
//	flags             bitfield of the flag storage size
//
// Variants, options, results, resources and async types have no
// descriptor and are rejected with an unsupported error.
//
// # Usage
//
//	b := witdesc.NewBuilder(store)
//	d, err := b.Build(witType)
//
// Strings and lists reference their contents through the given store;
// its slot size replaces the (pointer, length) pair of the ABI.
package witdesc
