package dtype

import (
	"github.com/wippyai/typeconv/errors"
)

// Int returns a two's complement or unsigned integer using every bit of size.
func Int(size int, signed bool, order Order) *Datatype {
	d := &Datatype{
		Class:     ClassInteger,
		Size:      size,
		Order:     order,
		Precision: 8 * size,
	}
	if signed {
		d.Sign = SignTwos
	}
	return d
}

// Bitfield returns a bitfield using every bit of size.
func Bitfield(size int, order Order) *Datatype {
	return &Datatype{
		Class:     ClassBitfield,
		Size:      size,
		Order:     order,
		Precision: 8 * size,
	}
}

// Float returns a float of the given size with explicit field positions.
func Float(size int, order Order, f FloatFields) *Datatype {
	return &Datatype{
		Class:     ClassFloat,
		Size:      size,
		Order:     order,
		Precision: 8 * size,
		Float:     f,
	}
}

// IEEEFloat32 returns an IEEE 754 binary32 in the given byte order.
func IEEEFloat32(order Order) *Datatype {
	return Float(4, order, FloatFields{
		SignPos: 31, ExpPos: 23, ExpSize: 8, ExpBias: 127,
		MantPos: 0, MantSize: 23, Norm: NormImplied,
	})
}

// IEEEFloat64 returns an IEEE 754 binary64 in the given byte order.
func IEEEFloat64(order Order) *Datatype {
	return Float(8, order, FloatFields{
		SignPos: 63, ExpPos: 52, ExpSize: 11, ExpBias: 1023,
		MantPos: 0, MantSize: 52, Norm: NormImplied,
	})
}

// VAXFloat32 returns a VAX F-floating value.
func VAXFloat32() *Datatype {
	return Float(4, OrderVAX, FloatFields{
		SignPos: 31, ExpPos: 23, ExpSize: 8, ExpBias: 129,
		MantPos: 0, MantSize: 23, Norm: NormImplied,
	})
}

// VAXFloat64 returns a VAX G-floating value.
func VAXFloat64() *Datatype {
	return Float(8, OrderVAX, FloatFields{
		SignPos: 63, ExpPos: 52, ExpSize: 11, ExpBias: 1025,
		MantPos: 0, MantSize: 52, Norm: NormImplied,
	})
}

// FixedString returns a fixed-length string of size bytes.
func FixedString(size int, cset Charset, pad StrPad) *Datatype {
	return &Datatype{
		Class:     ClassString,
		Size:      size,
		Order:     OrderNone,
		Precision: 8 * size,
		Charset:   cset,
		StrPad:    pad,
	}
}

// NewEnum returns an empty enumeration over an integer base type.
func NewEnum(base *Datatype) *Datatype {
	d := &Datatype{
		Class: ClassEnum,
		Base:  base,
		Enum:  &EnumInfo{},
	}
	if base != nil {
		d.Size = base.Size
		d.Order = base.Order
	}
	return d
}

// EnumInsert adds a member whose value is v encoded in the base layout.
func (d *Datatype) EnumInsert(name string, v int64) error {
	if d.Class != ClassEnum || d.Base == nil {
		return errors.InvalidInput(errors.PhaseDescribe, "EnumInsert on %s", d.Class)
	}
	raw := make([]byte, d.Base.Size)
	EncodeInt(raw, d.Base, v)
	return d.EnumInsertBytes(name, raw)
}

// EnumInsertBytes adds a member with a raw value in the base layout.
func (d *Datatype) EnumInsertBytes(name string, value []byte) error {
	if d.Class != ClassEnum || d.Base == nil {
		return errors.InvalidInput(errors.PhaseDescribe, "EnumInsert on %s", d.Class)
	}
	if len(value) != d.Base.Size {
		return errors.InvalidEnum(errors.PhaseDescribe, name,
			"value size does not match base type")
	}
	if d.EnumIndex(name) >= 0 {
		return errors.InvalidEnum(errors.PhaseDescribe, name, "duplicate name")
	}
	for _, v := range d.Enum.Values {
		if string(v) == string(value) {
			return errors.InvalidEnum(errors.PhaseDescribe, name, "duplicate value")
		}
	}
	d.Enum.Names = append(d.Enum.Names, name)
	d.Enum.Values = append(d.Enum.Values, append([]byte(nil), value...))
	return nil
}

// NewCompound returns an empty compound of size bytes.
func NewCompound(size int) *Datatype {
	return &Datatype{
		Class: ClassCompound,
		Size:  size,
		Order: OrderNone,
	}
}

// Insert adds a compound member at a byte offset.
func (d *Datatype) Insert(name string, offset int, member *Datatype) error {
	if d.Class != ClassCompound {
		return errors.InvalidInput(errors.PhaseDescribe, "Insert on %s", d.Class)
	}
	if member == nil {
		return errors.InvalidInput(errors.PhaseDescribe, "member %q has no type", name)
	}
	if d.MemberIndex(name) >= 0 {
		return errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
			Path(name).
			Detail("duplicate member name").
			Build()
	}
	if offset < 0 || offset+member.Size > d.Size {
		return errors.OutOfBounds(errors.PhaseDescribe, "member "+name, offset+member.Size, d.Size)
	}
	for _, m := range d.Members {
		if offset < m.End() && m.Offset < offset+member.Size {
			return errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
				Path(name).
				Detail("overlaps member %q", m.Name).
				Build()
		}
	}
	d.Members = append(d.Members, Member{Name: name, Offset: offset, Type: member})
	return nil
}

// NewArray returns a fixed array of base with the given extents.
func NewArray(base *Datatype, dims ...int) *Datatype {
	d := &Datatype{
		Class: ClassArray,
		Base:  base,
		Dims:  append([]int(nil), dims...),
		Order: OrderNone,
	}
	if base != nil {
		d.Size = base.Size * d.Nelem()
	}
	return d
}

// NewVLen returns a variable-length sequence of base held in store.
func NewVLen(base *Datatype, store VLStore) *Datatype {
	d := &Datatype{
		Class: ClassVLen,
		Base:  base,
		Store: store,
		Order: OrderNone,
	}
	if store != nil {
		d.Size = store.SlotSize()
	}
	return d
}

// NewVLString returns a variable-length string held in store.
func NewVLString(cset Charset, store VLStore) *Datatype {
	d := NewVLen(FixedString(1, cset, StrNullPad), store)
	d.VLString = true
	d.Charset = cset
	return d
}

// EncodeInt writes v into buf using the integer layout of t. Bits above the
// precision are filled according to the pad policy.
func EncodeInt(buf []byte, t *Datatype, v int64) {
	clear(buf[:t.Size])
	u := uint64(v)
	for i := 0; i < t.Precision && i < 64; i++ {
		if u&(1<<i) != 0 {
			bit := t.Offset + i
			buf[bit/8] |= 1 << (bit % 8)
		}
	}
	if v < 0 && t.Precision > 64 {
		for i := 64; i < t.Precision; i++ {
			bit := t.Offset + i
			buf[bit/8] |= 1 << (bit % 8)
		}
	}
	fillPad(buf, t)
	ToOrder(buf[:t.Size], t.Order)
}

// DecodeInt reads an integer of layout t from buf, sign-extending when the
// type is signed. Precisions above 64 bits are truncated.
func DecodeInt(buf []byte, t *Datatype) int64 {
	le := append([]byte(nil), buf[:t.Size]...)
	FromOrder(le, t.Order)
	var u uint64
	n := min(t.Precision, 64)
	for i := 0; i < n; i++ {
		bit := t.Offset + i
		if le[bit/8]&(1<<(bit%8)) != 0 {
			u |= 1 << i
		}
	}
	if t.Sign == SignTwos && n < 64 && u&(1<<(n-1)) != 0 {
		u |= ^uint64(0) << n
	}
	return int64(u)
}

func fillPad(buf []byte, t *Datatype) {
	if t.LSBPad == PadOne {
		for i := 0; i < t.Offset; i++ {
			buf[i/8] |= 1 << (i % 8)
		}
	}
	if t.MSBPad == PadOne {
		for i := t.Offset + t.Precision; i < 8*t.Size; i++ {
			buf[i/8] |= 1 << (i % 8)
		}
	}
}

// FromOrder brings a value stored in order o into little-endian orientation
// in place.
func FromOrder(buf []byte, o Order) {
	switch o {
	case OrderBE:
		reverse(buf)
	case OrderVAX:
		swapWords(buf)
	}
}

// ToOrder is the inverse of FromOrder.
func ToOrder(buf []byte, o Order) {
	// Both transforms are involutions.
	FromOrder(buf, o)
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// swapWords reverses the order of the 16-bit words of b while keeping the
// bytes inside each word.
func swapWords(b []byte) {
	n := len(b) &^ 1
	for i, j := 0, n-2; i < j; i, j = i+2, j-2 {
		b[i], b[j] = b[j], b[i]
		b[i+1], b[j+1] = b[j+1], b[i+1]
	}
}
