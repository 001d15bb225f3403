package witdesc

import (
	"encoding/binary"
	"math"
	"testing"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/typeconv/conv"
	"github.com/wippyai/typeconv/dtype"
	"github.com/wippyai/typeconv/errors"
	"github.com/wippyai/typeconv/vlstore"
)

func TestBuildPrimitives(t *testing.T) {
	tests := []struct {
		typ    wit.Type
		name   string
		class  dtype.Class
		size   int
		signed bool
	}{
		{wit.Bool{}, "bool", dtype.ClassInteger, 1, false},
		{wit.U8{}, "u8", dtype.ClassInteger, 1, false},
		{wit.S8{}, "s8", dtype.ClassInteger, 1, true},
		{wit.U16{}, "u16", dtype.ClassInteger, 2, false},
		{wit.S16{}, "s16", dtype.ClassInteger, 2, true},
		{wit.U32{}, "u32", dtype.ClassInteger, 4, false},
		{wit.S32{}, "s32", dtype.ClassInteger, 4, true},
		{wit.U64{}, "u64", dtype.ClassInteger, 8, false},
		{wit.S64{}, "s64", dtype.ClassInteger, 8, true},
		{wit.Char{}, "char", dtype.ClassInteger, 4, false},
		{wit.F32{}, "f32", dtype.ClassFloat, 4, false},
		{wit.F64{}, "f64", dtype.ClassFloat, 8, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Build(tc.typ, nil)
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if d.Class != tc.class || d.Size != tc.size {
				t.Errorf("got %s size %d, want %s size %d", d.Class, d.Size, tc.class, tc.size)
			}
			if got := d.Sign == dtype.SignTwos; got != tc.signed {
				t.Errorf("signed: got %v, want %v", got, tc.signed)
			}
			if d.Order != dtype.OrderLE {
				t.Errorf("order: got %s, want le", d.Order)
			}
		})
	}
}

func TestBuildRecord(t *testing.T) {
	record := &wit.TypeDef{Kind: &wit.Record{
		Fields: []wit.Field{
			{Name: "a", Type: wit.U8{}},
			{Name: "b", Type: wit.U32{}},
			{Name: "c", Type: wit.U8{}},
		},
	}}

	d, err := Build(record, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if d.Class != dtype.ClassCompound {
		t.Fatalf("class: got %s", d.Class)
	}
	if d.Size != 12 {
		t.Errorf("size: got %d, want 12", d.Size)
	}

	want := map[string]int{"a": 0, "b": 4, "c": 8}
	for name, off := range want {
		i := d.MemberIndex(name)
		if i < 0 {
			t.Fatalf("member %s missing", name)
		}
		if d.Members[i].Offset != off {
			t.Errorf("member %s offset: got %d, want %d", name, d.Members[i].Offset, off)
		}
	}
}

func TestBuildTupleAndNesting(t *testing.T) {
	inner := &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U16{}, wit.U8{}}}}
	outer := &wit.TypeDef{Kind: &wit.Record{
		Fields: []wit.Field{
			{Name: "flag", Type: wit.Bool{}},
			{Name: "pair", Type: inner},
			{Name: "big", Type: wit.U64{}},
		},
	}}

	d, err := Build(outer, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	// flag@0, pair@2 (size 4, align 2), big@8; size 16.
	if d.Size != 16 {
		t.Errorf("size: got %d, want 16", d.Size)
	}
	pair := d.Members[d.MemberIndex("pair")]
	if pair.Offset != 2 || pair.Type.Size != 4 {
		t.Errorf("pair: offset %d size %d", pair.Offset, pair.Type.Size)
	}
	if pair.Type.MemberIndex("1") != 1 || pair.Type.Members[1].Offset != 2 {
		t.Errorf("tuple members: %v", pair.Type)
	}
	if big := d.Members[d.MemberIndex("big")]; big.Offset != 8 {
		t.Errorf("big offset: got %d, want 8", big.Offset)
	}
}

func TestBuildEnumAndFlags(t *testing.T) {
	cases := make([]wit.EnumCase, 300)
	for i := range cases {
		cases[i].Name = "c" + string(rune('a'+i%26)) + string(rune('a'+i/26))
	}
	big := &wit.TypeDef{Kind: &wit.Enum{Cases: cases}}
	d, err := Build(big, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if d.Size != 2 || d.EnumLen() != 300 {
		t.Errorf("enum: size %d, %d members", d.Size, d.EnumLen())
	}

	flagCounts := map[int]int{1: 1, 8: 1, 9: 2, 17: 4, 33: 8, 65: 12}
	for n, size := range flagCounts {
		flags := make([]wit.Flag, n)
		for i := range flags {
			flags[i].Name = "f" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		}
		d, err := Build(&wit.TypeDef{Kind: &wit.Flags{Flags: flags}}, nil)
		if err != nil {
			t.Fatalf("flags(%d): %v", n, err)
		}
		if d.Class != dtype.ClassBitfield || d.Size != size {
			t.Errorf("flags(%d): got %s size %d, want bitfield size %d", n, d.Class, d.Size, size)
		}
	}
}

func TestBuildListAndString(t *testing.T) {
	store := vlstore.NewTable("wit")
	list := &wit.TypeDef{Kind: &wit.List{Type: wit.S16{}}}
	rec := &wit.TypeDef{Kind: &wit.Record{
		Fields: []wit.Field{
			{Name: "tag", Type: wit.U8{}},
			{Name: "name", Type: wit.String{}},
			{Name: "xs", Type: list},
		},
	}}

	d, err := Build(rec, store)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	name := d.Members[d.MemberIndex("name")]
	if !name.Type.VLString || name.Offset != 4 {
		t.Errorf("name: vlstring %v offset %d", name.Type.VLString, name.Offset)
	}
	xs := d.Members[d.MemberIndex("xs")]
	if xs.Type.Class != dtype.ClassVLen || xs.Offset != 12 || xs.Type.Base.Size != 2 {
		t.Errorf("xs: %s offset %d", xs.Type, xs.Offset)
	}
	if d.Size != 20 {
		t.Errorf("size: got %d, want 20", d.Size)
	}

	if _, err := Build(list, nil); err == nil {
		t.Error("list without store should fail")
	}
}

func TestBuildUnsupported(t *testing.T) {
	tests := []struct {
		name string
		typ  wit.Type
	}{
		{"option", &wit.TypeDef{Kind: &wit.Option{Type: wit.U32{}}}},
		{"result", &wit.TypeDef{Kind: &wit.Result{OK: wit.U32{}}}},
		{"variant", &wit.TypeDef{Kind: &wit.Variant{Cases: []wit.Case{{Name: "a"}}}}},
		{"record of option", &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
			{Name: "x", Type: &wit.TypeDef{Kind: &wit.Option{Type: wit.U8{}}}},
		}}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.typ, nil)
			if !errors.IsCapability(err) {
				t.Fatalf("expected unsupported error, got %v", err)
			}
		})
	}
}

func TestBuildSharesTypeDefs(t *testing.T) {
	point := &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "x", Type: wit.F32{}},
		{Name: "y", Type: wit.F32{}},
	}}}
	b := NewBuilder(nil)
	a, err := b.Build(point)
	if err != nil {
		t.Fatal(err)
	}
	c, err := b.Build(point)
	if err != nil {
		t.Fatal(err)
	}
	if a != c {
		t.Error("repeated builds of one type definition should share the descriptor")
	}
}

// A record lowered by a component converts to a host layout with the
// fields widened and reordered.
func TestConvertToHostLayout(t *testing.T) {
	rec := &wit.TypeDef{Kind: &wit.Record{
		Fields: []wit.Field{
			{Name: "id", Type: wit.U16{}},
			{Name: "score", Type: wit.F32{}},
		},
	}}
	src, err := Build(rec, nil)
	if err != nil {
		t.Fatal(err)
	}

	host := dtype.NewCompound(16)
	if err := host.Insert("score", 0, dtype.IEEEFloat64(dtype.HostOrder)); err != nil {
		t.Fatal(err)
	}
	if err := host.Insert("id", 8, dtype.Int(8, false, dtype.HostOrder)); err != nil {
		t.Fatal(err)
	}

	e := conv.New()
	defer e.Close()
	p, err := e.Init(src, host)
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 16)
	binary.LittleEndian.PutUint16(buf[0:], 1337)
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(1.5))
	if err := p.Convert(1, buf, 0, nil, 0); err != nil {
		t.Fatal(err)
	}

	if got := math.Float64frombits(binary.NativeEndian.Uint64(buf[0:])); got != 1.5 {
		t.Errorf("score: got %v, want 1.5", got)
	}
	if got := binary.NativeEndian.Uint64(buf[8:]); got != 1337 {
		t.Errorf("id: got %d, want 1337", got)
	}
}
