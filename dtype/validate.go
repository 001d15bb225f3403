package dtype

import (
	"sort"

	"github.com/wippyai/typeconv/errors"
)

// maxExpSize bounds exponent fields so biased exponents fit in an int64.
const maxExpSize = 32

// Validate reports the first structural problem found in d.
func (d *Datatype) Validate() error {
	return d.validate(nil)
}

func (d *Datatype) validate(path []string) error {
	if d == nil {
		return errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
			Path(path...).
			Detail("nil datatype").
			Build()
	}
	if d.Size <= 0 {
		return invalid(path, "%s size %d", d.Class, d.Size)
	}

	switch d.Class {
	case ClassInteger, ClassBitfield:
		if err := d.validateAtomic(path); err != nil {
			return err
		}
		if d.Class == ClassBitfield && d.Sign != SignNone {
			return invalid(path, "bitfield cannot be signed")
		}
		if d.Sign == SignTwos && d.Precision < 2 {
			return invalid(path, "signed integer needs at least 2 bits of precision")
		}
	case ClassFloat:
		if err := d.validateAtomic(path); err != nil {
			return err
		}
		return d.validateFloat(path)
	case ClassString:
		if d.Charset > CharsetUTF8 || d.StrPad > StrSpacePad {
			return invalid(path, "unknown string charset or padding")
		}
	case ClassEnum:
		return d.validateEnum(path)
	case ClassCompound:
		return d.validateCompound(path)
	case ClassArray:
		if len(d.Dims) == 0 {
			return invalid(path, "array without dimensions")
		}
		for _, dim := range d.Dims {
			if dim <= 0 {
				return invalid(path, "array extent %d", dim)
			}
		}
		if err := d.Base.validate(append(path[:len(path):len(path)], "[]")); err != nil {
			return err
		}
		if d.Size != d.Base.Size*d.Nelem() {
			return invalid(path, "array size %d does not match %d elements of %d bytes",
				d.Size, d.Nelem(), d.Base.Size)
		}
	case ClassVLen:
		if d.Store == nil {
			return invalid(path, "vlen without backing store")
		}
		if d.Size != d.Store.SlotSize() {
			return invalid(path, "vlen size %d does not match store slot size %d",
				d.Size, d.Store.SlotSize())
		}
		if err := d.Base.validate(append(path[:len(path):len(path)], "[]")); err != nil {
			return err
		}
		if d.VLString && (d.Base.Class != ClassString || d.Base.Size != 1) {
			return invalid(path, "vlen string base must be a 1-byte string")
		}
	default:
		return invalid(path, "unknown class %d", d.Class)
	}
	return nil
}

func (d *Datatype) validateAtomic(path []string) error {
	if d.Precision <= 0 || d.Offset < 0 || d.Offset+d.Precision > 8*d.Size {
		return errors.New(errors.PhaseDescribe, errors.KindOutOfBounds).
			Path(path...).
			Detail("precision %d at offset %d does not fit %d bytes", d.Precision, d.Offset, d.Size).
			Build()
	}
	switch d.Order {
	case OrderLE, OrderBE:
	case OrderNone:
		if d.Size != 1 {
			return invalid(path, "byte order none on a %d-byte value", d.Size)
		}
	case OrderVAX:
		if d.Class != ClassFloat || d.Size%4 != 0 {
			return invalid(path, "vax order needs a float of a multiple of 4 bytes")
		}
	default:
		return invalid(path, "unknown byte order %d", d.Order)
	}
	return nil
}

func (d *Datatype) validateFloat(path []string) error {
	f := d.Float
	lo, hi := d.Offset, d.Offset+d.Precision
	in := func(pos, n int) bool { return n >= 0 && pos >= lo && pos+n <= hi }

	switch {
	case f.ExpSize < 2 || f.ExpSize > maxExpSize:
		return invalid(path, "exponent size %d", f.ExpSize)
	case f.MantSize < 1 || f.MantSize > 8*d.Size:
		return invalid(path, "mantissa size %d", f.MantSize)
	case !in(f.SignPos, 1), !in(f.ExpPos, f.ExpSize), !in(f.MantPos, f.MantSize):
		return errors.New(errors.PhaseDescribe, errors.KindOutOfBounds).
			Path(path...).
			Detail("float fields fall outside the significant bits").
			Build()
	case f.ExpPos < f.MantPos+f.MantSize && f.MantPos < f.ExpPos+f.ExpSize:
		return invalid(path, "exponent and mantissa overlap")
	case f.SignPos >= f.ExpPos && f.SignPos < f.ExpPos+f.ExpSize,
		f.SignPos >= f.MantPos && f.SignPos < f.MantPos+f.MantSize:
		return invalid(path, "sign bit overlaps exponent or mantissa")
	case f.Norm > NormImplied:
		return invalid(path, "unknown normalization %d", f.Norm)
	}
	return nil
}

func (d *Datatype) validateEnum(path []string) error {
	if d.Base == nil || d.Base.Class != ClassInteger {
		return errors.InvalidEnum(errors.PhaseDescribe, joinPath(path), "base must be an integer")
	}
	if err := d.Base.validate(path); err != nil {
		return err
	}
	if d.Size != d.Base.Size {
		return errors.InvalidEnum(errors.PhaseDescribe, joinPath(path), "size differs from base")
	}
	if d.Enum == nil || len(d.Enum.Names) != len(d.Enum.Values) {
		return errors.InvalidEnum(errors.PhaseDescribe, joinPath(path), "names and values disagree")
	}
	seen := make(map[string]bool, len(d.Enum.Names))
	vals := make(map[string]bool, len(d.Enum.Values))
	for i, name := range d.Enum.Names {
		if seen[name] {
			return errors.InvalidEnum(errors.PhaseDescribe, name, "duplicate name")
		}
		seen[name] = true
		v := d.Enum.Values[i]
		if len(v) != d.Base.Size {
			return errors.InvalidEnum(errors.PhaseDescribe, name, "value size does not match base type")
		}
		if vals[string(v)] {
			return errors.InvalidEnum(errors.PhaseDescribe, name, "duplicate value")
		}
		vals[string(v)] = true
	}
	return nil
}

func (d *Datatype) validateCompound(path []string) error {
	seen := make(map[string]bool, len(d.Members))
	order := make([]Member, len(d.Members))
	copy(order, d.Members)
	sort.SliceStable(order, func(i, j int) bool { return order[i].Offset < order[j].Offset })

	for i, m := range order {
		mp := append(path[:len(path):len(path)], m.Name)
		if seen[m.Name] {
			return invalid(mp, "duplicate member name")
		}
		seen[m.Name] = true
		if err := m.Type.validate(mp); err != nil {
			return err
		}
		if m.Offset < 0 || m.End() > d.Size {
			return errors.New(errors.PhaseDescribe, errors.KindOutOfBounds).
				Path(mp...).
				Detail("member spans [%d, %d) in a %d-byte compound", m.Offset, m.End(), d.Size).
				Build()
		}
		if i > 0 && order[i-1].End() > m.Offset {
			return invalid(mp, "overlaps member %q", order[i-1].Name)
		}
	}
	return nil
}

func invalid(path []string, detail string, args ...any) error {
	return errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
		Path(path...).
		Detail(detail, args...).
		Build()
}

func joinPath(path []string) string {
	if len(path) == 0 {
		return "enum"
	}
	s := path[0]
	for _, p := range path[1:] {
		s += "." + p
	}
	return s
}
