package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in the conversion lifecycle the error occurred
type Phase string

const (
	PhaseDescribe Phase = "describe" // descriptor construction and validation
	PhaseInit     Phase = "init"     // path resolution and private state setup
	PhaseConvert  Phase = "convert"  // element conversion
	PhaseFree     Phase = "free"     // private state release
	PhaseStore    Phase = "store"    // variable-length backing store
)

// Kind categorizes the error
type Kind string

const (
	KindUnsupported  Kind = "unsupported"
	KindAllocation   Kind = "allocation"
	KindAbort        Kind = "abort"
	KindStore        Kind = "store"
	KindInvalidInput Kind = "invalid_input"
	KindOutOfBounds  Kind = "out_of_bounds"
	KindNotFound     Kind = "not_found"
	KindInvalidEnum  Kind = "invalid_enum"
	KindFreed        Kind = "freed"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	SrcType string
	DstType string
	Detail  string
	Path    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.SrcType != "" || e.DstType != "" {
		b.WriteString(": ")
		switch {
		case e.SrcType != "" && e.DstType != "":
			b.WriteString(e.SrcType)
			b.WriteString(" -> ")
			b.WriteString(e.DstType)
		case e.SrcType != "":
			b.WriteString("source ")
			b.WriteString(e.SrcType)
		default:
			b.WriteString("destination ")
			b.WriteString(e.DstType)
		}
	}

	if e.Detail != "" {
		if e.SrcType != "" || e.DstType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the member path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Types sets the source and destination descriptor names
func (b *Builder) Types(src, dst string) *Builder {
	b.err.SrcType = src
	b.err.DstType = dst
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Unsupported creates a capability error: the descriptor pair cannot be converted
func Unsupported(src, dst string, detail string, args ...any) *Error {
	return New(PhaseInit, KindUnsupported).Types(src, dst).Detail(detail, args...).Build()
}

// AllocationFailed creates a resource error for scratch growth beyond the limit
func AllocationFailed(phase Phase, size, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("scratch buffer of %d bytes exceeds limit of %d bytes", size, limit),
		Value:  size,
	}
}

// Aborted creates the error returned when an exception handler aborts a conversion
func Aborted(src, dst string, event string, element int) *Error {
	return &Error{
		Phase:   PhaseConvert,
		Kind:    KindAbort,
		SrcType: src,
		DstType: dst,
		Detail:  fmt.Sprintf("conversion aborted by handler on %s at element %d", event, element),
		Value:   element,
	}
}

// Store wraps a backing-store failure
func Store(op string, cause error) *Error {
	return &Error{
		Phase:  PhaseStore,
		Kind:   KindStore,
		Detail: op,
		Cause:  cause,
	}
}

// OutOfBounds creates an out of bounds error for undersized caller buffers
func OutOfBounds(phase Phase, what string, need, have int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("%s needs %d bytes, have %d", what, need, have),
		Value:  need,
	}
}

// InvalidEnum creates an invalid enum definition error
func InvalidEnum(phase Phase, name string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidEnum,
		Detail: fmt.Sprintf("%s: %s", name, detail),
		Value:  name,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string, args ...any) *Error {
	return New(phase, KindInvalidInput).Detail(detail, args...).Build()
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Freed creates the error returned for use of a released path
func Freed(phase Phase, src, dst string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindFreed,
		SrcType: src,
		DstType: dst,
		Detail:  "conversion path already freed",
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// WithPath prefixes the member path of a structured error.
// Errors of other types are returned unchanged.
func WithPath(err error, elem string) error {
	var e *Error
	if !stderrors.As(err, &e) {
		return err
	}
	cp := *e
	cp.Path = append([]string{elem}, e.Path...)
	return &cp
}

func hasKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// IsCapability reports whether err is an unsupported-conversion error
func IsCapability(err error) bool { return hasKind(err, KindUnsupported) }

// IsResource reports whether err is a scratch allocation failure
func IsResource(err error) bool { return hasKind(err, KindAllocation) }

// IsAbort reports whether err was raised by a handler abort
func IsAbort(err error) bool { return hasKind(err, KindAbort) }

// IsStore reports whether err is a backing-store failure
func IsStore(err error) bool { return hasKind(err, KindStore) }
