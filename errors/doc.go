// Package errors provides structured error types for the typeconv module.
//
// Errors are categorized by Phase (where in the INIT/CONV/FREE lifecycle the
// error occurred) and Kind (error category). The Error type carries the
// member path, the source and destination descriptor names, and a cause chain.
//
// The conversion engine reports four families of failure:
//
//	Kind           Phase     Meaning
//	──────────────────────────────────────────────────────────────
//	unsupported    init      descriptor pair cannot be converted
//	allocation     convert   scratch buffer would exceed the limit
//	abort          convert   exception handler aborted the call
//	store          store     variable-length backing store failed
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseInit, errors.KindUnsupported).
//		Path("point", "x").
//		Types("string(ascii)", "string(utf8)").
//		Detail("cannot convert between character sets").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Unsupported(src.String(), dst.String(), "array rank %d != %d", 2, 3)
//	err := errors.OutOfBounds(errors.PhaseConvert, "buffer", 64, 32)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
