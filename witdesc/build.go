package witdesc

import (
	"fmt"
	"strconv"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/typeconv/dtype"
	"github.com/wippyai/typeconv/errors"
)

// slotAlign is the alignment of the (pointer, length) pair a store slot
// stands in for.
const slotAlign = 4

// Builder maps WIT types to descriptors. Named type definitions are built
// once and shared.
type Builder struct {
	store dtype.VLStore
	cache map[*wit.TypeDef]entry
}

type entry struct {
	typ   *dtype.Datatype
	align int
}

// NewBuilder creates a builder whose strings and lists live in store.
func NewBuilder(store dtype.VLStore) *Builder {
	return &Builder{
		store: store,
		cache: make(map[*wit.TypeDef]entry),
	}
}

// Build returns the descriptor of t.
func Build(t wit.Type, store dtype.VLStore) (*dtype.Datatype, error) {
	return NewBuilder(store).Build(t)
}

// Build returns the descriptor of t.
func (b *Builder) Build(t wit.Type) (*dtype.Datatype, error) {
	d, _, err := b.build(t)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (b *Builder) build(t wit.Type) (*dtype.Datatype, int, error) {
	le := dtype.OrderLE
	switch typ := t.(type) {
	case wit.Bool, wit.U8:
		return dtype.Int(1, false, le), 1, nil
	case wit.S8:
		return dtype.Int(1, true, le), 1, nil
	case wit.U16:
		return dtype.Int(2, false, le), 2, nil
	case wit.S16:
		return dtype.Int(2, true, le), 2, nil
	case wit.U32, wit.Char:
		return dtype.Int(4, false, le), 4, nil
	case wit.S32:
		return dtype.Int(4, true, le), 4, nil
	case wit.U64:
		return dtype.Int(8, false, le), 8, nil
	case wit.S64:
		return dtype.Int(8, true, le), 8, nil
	case wit.F32:
		return dtype.IEEEFloat32(le), 4, nil
	case wit.F64:
		return dtype.IEEEFloat64(le), 8, nil
	case wit.String:
		if b.store == nil {
			return nil, 0, noStore("string")
		}
		return dtype.NewVLString(dtype.CharsetUTF8, b.store), slotAlign, nil
	case *wit.TypeDef:
		return b.buildTypeDef(typ)
	default:
		return nil, 0, unsupported(t)
	}
}

func (b *Builder) buildTypeDef(t *wit.TypeDef) (*dtype.Datatype, int, error) {
	if e, ok := b.cache[t]; ok {
		return e.typ, e.align, nil
	}

	var (
		d     *dtype.Datatype
		align int
		err   error
	)
	switch kind := t.Kind.(type) {
	case *wit.Record:
		names := make([]string, len(kind.Fields))
		types := make([]wit.Type, len(kind.Fields))
		for i, f := range kind.Fields {
			names[i], types[i] = f.Name, f.Type
		}
		d, align, err = b.buildCompound(names, types)
	case *wit.Tuple:
		names := make([]string, len(kind.Types))
		for i := range names {
			names[i] = strconv.Itoa(i)
		}
		d, align, err = b.buildCompound(names, kind.Types)
	case *wit.Enum:
		d, align, err = buildEnum(kind)
	case *wit.Flags:
		d, align, err = buildFlags(kind)
	case *wit.List:
		d, align, err = b.buildList(kind)
	case wit.Type:
		d, align, err = b.build(kind)
	default:
		err = unsupported(t)
	}
	if err != nil {
		return nil, 0, err
	}

	b.cache[t] = entry{typ: d, align: align}
	return d, align, nil
}

// buildCompound lays members out sequentially, each at the next offset
// aligned to its own alignment; the size is rounded up to the largest one.
func (b *Builder) buildCompound(names []string, types []wit.Type) (*dtype.Datatype, int, error) {
	if len(types) == 0 {
		return nil, 0, errors.InvalidInput(errors.PhaseDescribe, "empty record or tuple")
	}

	members := make([]*dtype.Datatype, len(types))
	offsets := make([]int, len(types))
	maxAlign, off := 1, 0
	for i, ft := range types {
		m, align, err := b.build(ft)
		if err != nil {
			return nil, 0, errors.WithPath(err, names[i])
		}
		off = alignTo(off, align)
		members[i], offsets[i] = m, off
		maxAlign = max(maxAlign, align)
		off += m.Size
	}

	d := dtype.NewCompound(alignTo(off, maxAlign))
	for i, m := range members {
		if err := d.Insert(names[i], offsets[i], m); err != nil {
			return nil, 0, err
		}
	}
	return d, maxAlign, nil
}

func (b *Builder) buildList(l *wit.List) (*dtype.Datatype, int, error) {
	if b.store == nil {
		return nil, 0, noStore("list")
	}
	base, _, err := b.build(l.Type)
	if err != nil {
		return nil, 0, errors.WithPath(err, "[]")
	}
	return dtype.NewVLen(base, b.store), slotAlign, nil
}

// buildEnum numbers cases from zero in declaration order.
func buildEnum(e *wit.Enum) (*dtype.Datatype, int, error) {
	if len(e.Cases) == 0 {
		return nil, 0, errors.InvalidInput(errors.PhaseDescribe, "enum without cases")
	}
	size := discriminantSize(len(e.Cases))
	d := dtype.NewEnum(dtype.Int(size, false, dtype.OrderLE))
	for i, c := range e.Cases {
		if err := d.EnumInsert(c.Name, int64(i)); err != nil {
			return nil, 0, err
		}
	}
	return d, size, nil
}

func buildFlags(f *wit.Flags) (*dtype.Datatype, int, error) {
	n := len(f.Flags)
	switch {
	case n == 0:
		return nil, 0, errors.InvalidInput(errors.PhaseDescribe, "flags without members")
	case n <= 8:
		return dtype.Bitfield(1, dtype.OrderLE), 1, nil
	case n <= 16:
		return dtype.Bitfield(2, dtype.OrderLE), 2, nil
	case n <= 32:
		return dtype.Bitfield(4, dtype.OrderLE), 4, nil
	case n <= 64:
		return dtype.Bitfield(8, dtype.OrderLE), 8, nil
	}
	// Consecutive little-endian u32 words form one little-endian bitfield.
	return dtype.Bitfield((n+31)/32*4, dtype.OrderLE), 4, nil
}

// discriminantSize returns the byte width of a discriminant for n cases.
func discriminantSize(n int) int {
	switch {
	case n <= 1<<8:
		return 1
	case n <= 1<<16:
		return 2
	default:
		return 4
	}
}

func alignTo(off, align int) int {
	if align <= 1 {
		return off
	}
	return (off + align - 1) / align * align
}

func unsupported(t any) error {
	return errors.New(errors.PhaseDescribe, errors.KindUnsupported).
		Detail("no descriptor for WIT type %s", typeName(t)).
		Build()
}

func noStore(what string) error {
	return errors.InvalidInput(errors.PhaseDescribe, "%s needs a variable-length store", what)
}

func typeName(t any) string {
	if td, ok := t.(*wit.TypeDef); ok {
		t = td.Kind
	}
	return fmt.Sprintf("%T", t)
}
