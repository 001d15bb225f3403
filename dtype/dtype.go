package dtype

// Class is the type category of a descriptor.
type Class uint8

const (
	ClassInteger Class = iota
	ClassFloat
	ClassString
	ClassBitfield
	ClassEnum
	ClassCompound
	ClassArray
	ClassVLen
)

var classNames = [...]string{
	ClassInteger:  "integer",
	ClassFloat:    "float",
	ClassString:   "string",
	ClassBitfield: "bitfield",
	ClassEnum:     "enum",
	ClassCompound: "compound",
	ClassArray:    "array",
	ClassVLen:     "vlen",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "unknown"
}

// IsAtomic reports whether values of the class are converted bit by bit
// rather than by recursing into sub-types.
func (c Class) IsAtomic() bool {
	return c <= ClassBitfield
}

// Order is the byte order of an atomic value.
type Order uint8

const (
	OrderLE Order = iota
	OrderBE
	// OrderVAX stores little-endian 16-bit words most significant word first.
	OrderVAX
	// OrderNone is used by single-byte and character types.
	OrderNone
)

var orderNames = [...]string{
	OrderLE:   "le",
	OrderBE:   "be",
	OrderVAX:  "vax",
	OrderNone: "none",
}

func (o Order) String() string {
	if int(o) < len(orderNames) {
		return orderNames[o]
	}
	return "unknown"
}

// Sign is the sign representation of an integer.
type Sign uint8

const (
	SignNone Sign = iota
	SignTwos
)

// Norm is the mantissa normalization of a float.
type Norm uint8

const (
	NormNone Norm = iota
	// NormImplied leaves the leading mantissa bit unstored.
	NormImplied
)

// Pad is the fill value for bits outside a value's significant range.
type Pad uint8

const (
	PadZero Pad = iota
	PadOne
)

// Charset is the character set of string data.
type Charset uint8

const (
	CharsetASCII Charset = iota
	CharsetUTF8
)

func (c Charset) String() string {
	if c == CharsetUTF8 {
		return "utf8"
	}
	return "ascii"
}

// StrPad is the termination convention of a fixed-length string.
type StrPad uint8

const (
	StrNullTerm StrPad = iota
	StrNullPad
	StrSpacePad
)

var strPadNames = [...]string{
	StrNullTerm: "nullterm",
	StrNullPad:  "nullpad",
	StrSpacePad: "spacepad",
}

func (p StrPad) String() string {
	if int(p) < len(strPadNames) {
		return strPadNames[p]
	}
	return "unknown"
}

// FloatFields locates the parts of a floating-point value. Positions are bit
// numbers from the least significant bit of the little-endian value.
type FloatFields struct {
	SignPos  int
	ExpPos   int
	ExpSize  int
	ExpBias  uint64
	MantPos  int
	MantSize int
	Norm     Norm
}

// Member is one field of a compound type.
type Member struct {
	Type   *Datatype
	Name   string
	Offset int
}

// End returns the byte offset just past the member.
func (m Member) End() int {
	return m.Offset + m.Type.Size
}

// EnumInfo holds the members of an enumeration in insertion order. Values
// are raw bytes in the base type's layout.
type EnumInfo struct {
	Names  []string
	Values [][]byte
}

// Datatype is a structural description of a byte layout.
type Datatype struct {
	Store     VLStore
	Base      *Datatype
	Enum      *EnumInfo
	Members   []Member
	Dims      []int
	Float     FloatFields
	Size      int
	Precision int
	Offset    int
	Class     Class
	Order     Order
	LSBPad    Pad
	MSBPad    Pad
	Sign      Sign
	Charset   Charset
	StrPad    StrPad
	VLString  bool
}

// IsAtomic reports whether d is converted bit by bit.
func (d *Datatype) IsAtomic() bool {
	return d.Class.IsAtomic()
}

// Nelem returns the element count of an array type and 1 otherwise.
func (d *Datatype) Nelem() int {
	if d.Class != ClassArray {
		return 1
	}
	n := 1
	for _, dim := range d.Dims {
		n *= dim
	}
	return n
}

// MemberIndex returns the index of the named compound member or -1.
func (d *Datatype) MemberIndex(name string) int {
	for i := range d.Members {
		if d.Members[i].Name == name {
			return i
		}
	}
	return -1
}

// EnumIndex returns the index of the named enum member or -1.
func (d *Datatype) EnumIndex(name string) int {
	if d.Enum == nil {
		return -1
	}
	for i, n := range d.Enum.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// EnumLen returns the number of enum members.
func (d *Datatype) EnumLen() int {
	if d.Enum == nil {
		return 0
	}
	return len(d.Enum.Names)
}

// Clone returns a deep copy of d. Backing stores are shared.
func (d *Datatype) Clone() *Datatype {
	if d == nil {
		return nil
	}
	c := *d
	c.Base = d.Base.Clone()
	if d.Enum != nil {
		e := &EnumInfo{
			Names:  append([]string(nil), d.Enum.Names...),
			Values: make([][]byte, len(d.Enum.Values)),
		}
		for i, v := range d.Enum.Values {
			e.Values[i] = append([]byte(nil), v...)
		}
		c.Enum = e
	}
	if d.Members != nil {
		c.Members = make([]Member, len(d.Members))
		for i, m := range d.Members {
			c.Members[i] = Member{Name: m.Name, Offset: m.Offset, Type: m.Type.Clone()}
		}
	}
	c.Dims = append([]int(nil), d.Dims...)
	return &c
}
