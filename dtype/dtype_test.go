package dtype

import (
	"bytes"
	"testing"

	"github.com/wippyai/typeconv/errors"
)

type fakeStore struct{ id string }

func (s fakeStore) ID() string                         { return s.id }
func (fakeStore) SlotSize() int                        { return 8 }
func (fakeStore) IsNull([]byte) (bool, error)          { return true, nil }
func (fakeStore) Len([]byte) (int, error)              { return 0, nil }
func (fakeStore) Read([]byte, []byte) error            { return nil }
func (fakeStore) Direct([]byte) ([]byte, bool)         { return nil, false }
func (fakeStore) Write(_, _, _ []byte, _, _ int) error { return nil }
func (fakeStore) SetNull(_, _ []byte) error            { return nil }
func (fakeStore) Delete([]byte) error                  { return nil }

func TestClassString(t *testing.T) {
	tests := []struct {
		want  string
		class Class
	}{
		{"integer", ClassInteger},
		{"float", ClassFloat},
		{"string", ClassString},
		{"bitfield", ClassBitfield},
		{"enum", ClassEnum},
		{"compound", ClassCompound},
		{"array", ClassArray},
		{"vlen", ClassVLen},
		{"unknown", Class(200)},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := tc.class.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDatatypeString(t *testing.T) {
	e := NewEnum(Int(1, false, OrderLE))
	_ = e.EnumInsert("red", 0)
	_ = e.EnumInsert("blue", 2)

	c := NewCompound(8)
	_ = c.Insert("a", 0, Int(4, false, OrderLE))
	_ = c.Insert("b", 4, Int(2, true, OrderBE))

	tests := []struct {
		dt   *Datatype
		want string
	}{
		{Int(4, false, OrderBE), "u32be"},
		{Int(1, true, OrderLE), "i8"},
		{Bitfield(2, OrderLE), "b16le"},
		{IEEEFloat64(OrderLE), "f64le"},
		{VAXFloat32(), "vaxf32"},
		{FixedString(16, CharsetASCII, StrSpacePad), "string[16,ascii,spacepad]"},
		{e, "enum<u8>{red=0,blue=2}"},
		{c, "compound{a:u32le@0,b:i16be@4}"},
		{NewArray(Int(2, false, OrderLE), 2, 3), "array[2x3]<u16le>"},
		{NewVLString(CharsetUTF8, fakeStore{"s"}), "vlstring[utf8]"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := tc.dt.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEncodeDecodeInt(t *testing.T) {
	tests := []struct {
		name string
		dt   *Datatype
		v    int64
		raw  []byte
	}{
		{"u16le", Int(2, false, OrderLE), 0x1234, []byte{0x34, 0x12}},
		{"u16be", Int(2, false, OrderBE), 0x1234, []byte{0x12, 0x34}},
		{"i32be_neg", Int(4, true, OrderBE), -2, []byte{0xff, 0xff, 0xff, 0xfe}},
		{"i8", Int(1, true, OrderLE), -128, []byte{0x80}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := make([]byte, tc.dt.Size)
			EncodeInt(buf, tc.dt, tc.v)
			if !bytes.Equal(buf, tc.raw) {
				t.Fatalf("EncodeInt = % x, want % x", buf, tc.raw)
			}
			if got := DecodeInt(buf, tc.dt); got != tc.v {
				t.Fatalf("DecodeInt = %d, want %d", got, tc.v)
			}
		})
	}
}

func TestEncodeIntWithOffset(t *testing.T) {
	dt := Int(2, true, OrderLE)
	dt.Offset = 4
	dt.Precision = 8
	dt.LSBPad = PadOne

	buf := make([]byte, 2)
	EncodeInt(buf, dt, -1)
	if want := []byte{0xff, 0x0f}; !bytes.Equal(buf, want) {
		t.Fatalf("EncodeInt = % x, want % x", buf, want)
	}
	if got := DecodeInt(buf, dt); got != -1 {
		t.Fatalf("DecodeInt = %d, want -1", got)
	}
}

func TestFromOrderVAX(t *testing.T) {
	buf := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	FromOrder(buf, OrderVAX)
	if want := []byte{6, 7, 4, 5, 2, 3, 0, 1}; !bytes.Equal(buf, want) {
		t.Fatalf("FromOrder(VAX) = %v, want %v", buf, want)
	}
	ToOrder(buf, OrderVAX)
	if want := []byte{0, 1, 2, 3, 4, 5, 6, 7}; !bytes.Equal(buf, want) {
		t.Fatalf("ToOrder(VAX) = %v, want %v", buf, want)
	}
}

func TestValidate(t *testing.T) {
	badPrec := Int(2, false, OrderLE)
	badPrec.Precision = 17

	badFloat := IEEEFloat32(OrderLE)
	badFloat.Float.ExpPos = 20

	vaxInt := Int(4, false, OrderVAX)

	badArray := NewArray(Int(1, false, OrderLE), 3)
	badArray.Size = 2

	tests := []struct {
		name string
		dt   *Datatype
		kind errors.Kind
	}{
		{"precision_beyond_size", badPrec, errors.KindOutOfBounds},
		{"float_fields_overlap", badFloat, errors.KindInvalidInput},
		{"vax_integer", vaxInt, errors.KindInvalidInput},
		{"array_size", badArray, errors.KindInvalidInput},
		{"zero_dim", NewArray(Int(1, false, OrderLE), 0), errors.KindInvalidInput},
		{"vlen_without_store", NewVLen(Int(1, false, OrderLE), nil), errors.KindInvalidInput},
		{"enum_float_base", NewEnum(IEEEFloat32(OrderLE)), errors.KindInvalidEnum},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.dt.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			e, ok := err.(*errors.Error)
			if !ok {
				t.Fatalf("expected *errors.Error, got %T", err)
			}
			if e.Kind != tc.kind {
				t.Errorf("Kind = %s, want %s", e.Kind, tc.kind)
			}
			if e.Phase != errors.PhaseDescribe {
				t.Errorf("Phase = %s, want %s", e.Phase, errors.PhaseDescribe)
			}
		})
	}

	valid := []*Datatype{
		NativeInt8, NativeUint64, NativeFloat32, NativeFloat64,
		VAXFloat32(), VAXFloat64(), Bitfield(3, OrderBE),
		FixedString(4, CharsetUTF8, StrNullTerm),
		NewArray(NativeInt16, 4, 4),
		NewVLString(CharsetASCII, fakeStore{"s"}),
	}
	for _, dt := range valid {
		if err := dt.Validate(); err != nil {
			t.Errorf("%s: unexpected error: %v", dt, err)
		}
	}
}

func TestCompoundInsert(t *testing.T) {
	c := NewCompound(8)
	if err := c.Insert("a", 0, Int(4, false, OrderLE)); err != nil {
		t.Fatalf("Insert a: %v", err)
	}
	if err := c.Insert("a", 4, Int(4, false, OrderLE)); err == nil {
		t.Error("expected duplicate name error")
	}
	if err := c.Insert("b", 2, Int(4, false, OrderLE)); err == nil {
		t.Error("expected overlap error")
	}
	if err := c.Insert("c", 6, Int(4, false, OrderLE)); err == nil {
		t.Error("expected out of bounds error")
	}
	if err := c.Insert("d", 4, Int(4, false, OrderLE)); err != nil {
		t.Fatalf("Insert d: %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := c.MemberIndex("d"); got != 1 {
		t.Errorf("MemberIndex(d) = %d, want 1", got)
	}
}

func TestEnumInsert(t *testing.T) {
	e := NewEnum(Int(2, true, OrderBE))
	if err := e.EnumInsert("a", -1); err != nil {
		t.Fatalf("EnumInsert: %v", err)
	}
	if err := e.EnumInsert("b", -1); err == nil {
		t.Error("expected duplicate value error")
	}
	if err := e.EnumInsert("a", 5); err == nil {
		t.Error("expected duplicate name error")
	}
	if !bytes.Equal(e.Enum.Values[0], []byte{0xff, 0xff}) {
		t.Errorf("value = % x", e.Enum.Values[0])
	}
	if err := e.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestEqualAndFingerprint(t *testing.T) {
	mk := func() *Datatype {
		c := NewCompound(8)
		_ = c.Insert("a", 0, Int(4, false, OrderLE))
		_ = c.Insert("b", 4, IEEEFloat32(OrderBE))
		return c
	}
	a, b := mk(), mk()
	if !Equal(a, b) {
		t.Fatal("structurally equal compounds should be Equal")
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("structurally equal compounds should share a fingerprint")
	}

	b.Members[1].Offset = 4
	b.Members[1].Type = IEEEFloat32(OrderLE)
	if Equal(a, b) {
		t.Fatal("member byte order change should break equality")
	}
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("member byte order change should change the fingerprint")
	}

	if Equal(NewVLen(NativeUint8, fakeStore{"x"}), NewVLen(NativeUint8, fakeStore{"y"})) {
		t.Fatal("vlen types over different stores must differ")
	}
	if Equal(a, nil) {
		t.Fatal("nil is never equal to a descriptor")
	}
}

func TestClone(t *testing.T) {
	e := NewEnum(Int(1, false, OrderLE))
	_ = e.EnumInsert("x", 1)
	c := NewCompound(4)
	_ = c.Insert("e", 0, e)
	_ = c.Insert("n", 1, NewArray(NativeUint8, 3))

	cl := c.Clone()
	if !Equal(c, cl) {
		t.Fatal("clone differs from original")
	}
	cl.Members[0].Type.Enum.Values[0][0] = 9
	if Equal(c, cl) {
		t.Fatal("clone shares enum storage with original")
	}
}

func TestNativeOrder(t *testing.T) {
	if NativeUint32.Order != HostOrder {
		t.Fatalf("native order = %s, host = %s", NativeUint32.Order, HostOrder)
	}
	if HostOrder != OrderLE && HostOrder != OrderBE {
		t.Fatalf("unexpected host order %s", HostOrder)
	}
}
