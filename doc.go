// Package typeconv converts arrays of binary values between structurally
// described layouts, in place.
//
// A conversion is described by two datatypes. Atomic types carry their byte
// order, bit offset, precision, sign and float field layout as data, so the
// same kernels serve native integers, IEEE floats, VAX floats and any odd
// bit-packed layout a file format may use. Composite types (compounds,
// arrays, enumerations and variable-length sequences) are converted by
// delegating to sub-paths over their members or elements.
//
// # Architecture Overview
//
//	typeconv/          Root package with the Memory and Allocator interfaces
//	├── bitvec/        Bit-range primitives over byte slices
//	├── dtype/         Datatype descriptors, validation, equality, fingerprints
//	├── conv/          Conversion engine: path resolution, kernels, exceptions
//	├── vlstore/       Backing stores for variable-length sequences
//	├── witdesc/       Datatypes derived from WIT types (canonical ABI layout)
//	├── errors/        Structured error types
//	└── cmd/typeconv/  Command line converter and interactive explorer
//
// # Quick Start
//
//	eng := conv.New()
//	defer eng.Close()
//
//	p, err := eng.Init(dtype.Int(4, false, dtype.OrderBE), dtype.Int(2, false, dtype.OrderLE))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// buf holds n big-endian uint32 values; afterwards it holds n
//	// little-endian uint16 values, saturated where they did not fit.
//	err = p.Convert(n, buf, 0, nil, 0)
//
// # Exceptions
//
// Overflow, infinities, NaN and lost precision are reported per element to
// an optional handler installed with conv.WithHandler. Without one, or when
// the handler returns conv.Unhandled, every kernel applies a fixed default:
// integers saturate, floats overflow to infinity and enum values naming no
// member become all ones.
//
// # Thread Safety
//
// An Engine and its paths are not safe for concurrent use. Paths own scratch
// buffers reused across Convert calls; use one engine per goroutine.
//
// # Memory Model
//
// The heap backing store keeps sequences in WASM linear memory, which can
// only grow. Freed blocks are reused by later sequences but the memory itself
// is returned only when the store is closed.
package typeconv
