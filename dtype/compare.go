package dtype

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	blake2b "github.com/minio/blake2b-simd"
)

// Equal reports whether a and b describe the same layout. VLen types are
// equal only when they share a backing store.
func Equal(a, b *Datatype) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return bytes.Equal(a.appendCanonical(nil), b.appendCanonical(nil))
}

// Fingerprint returns a digest of the canonical form of d. Structurally equal
// descriptors have equal fingerprints.
func (d *Datatype) Fingerprint() [32]byte {
	var fp [32]byte
	h, err := blake2b.New(&blake2b.Config{Size: 32})
	if err != nil {
		// Only reachable with an invalid config.
		panic(err)
	}
	_, _ = h.Write(d.appendCanonical(nil))
	copy(fp[:], h.Sum(nil))
	return fp
}

func (d *Datatype) appendCanonical(b []byte) []byte {
	if d == nil {
		return append(b, 0xff)
	}
	u := func(v uint64) { b = binary.LittleEndian.AppendUint64(b, v) }
	str := func(s string) {
		u(uint64(len(s)))
		b = append(b, s...)
	}

	b = append(b, byte(d.Class))
	u(uint64(d.Size))

	switch d.Class {
	case ClassInteger, ClassBitfield, ClassFloat:
		b = append(b, byte(d.Order), byte(d.LSBPad), byte(d.MSBPad), byte(d.Sign))
		u(uint64(d.Precision))
		u(uint64(d.Offset))
		if d.Class == ClassFloat {
			f := d.Float
			u(uint64(f.SignPos))
			u(uint64(f.ExpPos))
			u(uint64(f.ExpSize))
			u(f.ExpBias)
			u(uint64(f.MantPos))
			u(uint64(f.MantSize))
			b = append(b, byte(f.Norm))
		}
	case ClassString:
		b = append(b, byte(d.Charset), byte(d.StrPad))
	case ClassEnum:
		b = d.Base.appendCanonical(b)
		if d.Enum != nil {
			u(uint64(len(d.Enum.Names)))
			for i, n := range d.Enum.Names {
				str(n)
				b = append(b, d.Enum.Values[i]...)
			}
		}
	case ClassCompound:
		u(uint64(len(d.Members)))
		for _, m := range d.Members {
			str(m.Name)
			u(uint64(m.Offset))
			b = m.Type.appendCanonical(b)
		}
	case ClassArray:
		u(uint64(len(d.Dims)))
		for _, dim := range d.Dims {
			u(uint64(dim))
		}
		b = d.Base.appendCanonical(b)
	case ClassVLen:
		if d.VLString {
			b = append(b, 1, byte(d.Charset))
		} else {
			b = append(b, 0)
		}
		if d.Store != nil {
			str(d.Store.ID())
		} else {
			str("")
		}
		b = d.Base.appendCanonical(b)
	}
	return b
}

// String returns a compact human-readable form such as "u32be" or
// "compound{a:u32le@0,b:u16le@4}".
func (d *Datatype) String() string {
	if d == nil {
		return "<nil>"
	}
	var sb strings.Builder
	d.writeString(&sb)
	return sb.String()
}

func (d *Datatype) writeString(sb *strings.Builder) {
	if d == nil {
		sb.WriteString("<nil>")
		return
	}
	switch d.Class {
	case ClassInteger:
		if d.Sign == SignTwos {
			sb.WriteByte('i')
		} else {
			sb.WriteByte('u')
		}
		fmt.Fprintf(sb, "%d%s", d.Precision, orderSuffix(d))
		d.writeBits(sb)
	case ClassBitfield:
		fmt.Fprintf(sb, "b%d%s", d.Precision, orderSuffix(d))
		d.writeBits(sb)
	case ClassFloat:
		if d.Order == OrderVAX {
			fmt.Fprintf(sb, "vaxf%d", 8*d.Size)
		} else {
			fmt.Fprintf(sb, "f%d%s", 8*d.Size, orderSuffix(d))
		}
		if d.Precision != 8*d.Size || d.Offset != 0 {
			d.writeBits(sb)
		}
	case ClassString:
		fmt.Fprintf(sb, "string[%d,%s,%s]", d.Size, d.Charset, d.StrPad)
	case ClassEnum:
		sb.WriteString("enum<")
		d.Base.writeString(sb)
		sb.WriteString(">{")
		for i, n := range d.enumNames() {
			if i > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(sb, "%s=%d", n, DecodeInt(d.Enum.Values[i], d.Base))
		}
		sb.WriteByte('}')
	case ClassCompound:
		sb.WriteString("compound{")
		for i, m := range d.Members {
			if i > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(sb, "%s:", m.Name)
			m.Type.writeString(sb)
			fmt.Fprintf(sb, "@%d", m.Offset)
		}
		sb.WriteByte('}')
	case ClassArray:
		sb.WriteString("array[")
		for i, dim := range d.Dims {
			if i > 0 {
				sb.WriteByte('x')
			}
			fmt.Fprintf(sb, "%d", dim)
		}
		sb.WriteString("]<")
		d.Base.writeString(sb)
		sb.WriteByte('>')
	case ClassVLen:
		if d.VLString {
			fmt.Fprintf(sb, "vlstring[%s]", d.Charset)
		} else {
			sb.WriteString("vlen<")
			d.Base.writeString(sb)
			sb.WriteByte('>')
		}
	default:
		sb.WriteString("unknown")
	}
}

func (d *Datatype) writeBits(sb *strings.Builder) {
	if d.Offset != 0 || d.Precision != 8*d.Size {
		fmt.Fprintf(sb, "(%dB@%d)", d.Size, d.Offset)
	}
}

func orderSuffix(d *Datatype) string {
	if d.Size == 1 {
		return ""
	}
	return d.Order.String()
}

func (d *Datatype) enumNames() []string {
	if d.Enum == nil || d.Base == nil {
		return nil
	}
	return d.Enum.Names
}
