package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/wippyai/typeconv/dtype"
	"github.com/wippyai/typeconv/errors"
)

// Named float layouts beyond the IEEE single and double formats.
var floatFormats = map[string]func(dtype.Order) *dtype.Datatype{
	"f16": func(o dtype.Order) *dtype.Datatype {
		return dtype.Float(2, o, dtype.FloatFields{
			SignPos: 15, ExpPos: 10, ExpSize: 5, ExpBias: 15,
			MantPos: 0, MantSize: 10, Norm: dtype.NormImplied,
		})
	},
	"bf16": func(o dtype.Order) *dtype.Datatype {
		return dtype.Float(2, o, dtype.FloatFields{
			SignPos: 15, ExpPos: 7, ExpSize: 8, ExpBias: 127,
			MantPos: 0, MantSize: 7, Norm: dtype.NormImplied,
		})
	},
	"f32": dtype.IEEEFloat32,
	"f64": dtype.IEEEFloat64,
}

// parseType resolves a type name such as "u32", "i16be", "be-u32",
// "f16le" or "vax-f". Byte order defaults to little endian.
func parseType(name string) (*dtype.Datatype, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	switch s {
	case "vax-f", "vaxf":
		return dtype.VAXFloat32(), nil
	case "vax-g", "vaxg":
		return dtype.VAXFloat64(), nil
	}

	order, orderSet := dtype.OrderLE, false
	for _, p := range []struct {
		affix string
		order dtype.Order
	}{{"le", dtype.OrderLE}, {"be", dtype.OrderBE}} {
		switch {
		case strings.HasPrefix(s, p.affix+"-"):
			s, order, orderSet = s[len(p.affix)+1:], p.order, true
		case strings.HasSuffix(s, p.affix) && len(s) > 2 && s[len(s)-3] >= '0' && s[len(s)-3] <= '9':
			s, order, orderSet = s[:len(s)-2], p.order, true
		}
	}

	if mk, ok := floatFormats[s]; ok {
		return mk(order), nil
	}

	if len(s) < 2 {
		return nil, errors.NotFound(errors.PhaseDescribe, "type", name)
	}
	var signed bool
	switch s[0] {
	case 'u':
	case 'i', 's':
		signed = true
	default:
		return nil, errors.NotFound(errors.PhaseDescribe, "type", name)
	}
	bits, err := strconv.Atoi(s[1:])
	if err != nil || bits <= 0 || bits%8 != 0 || bits > 128 {
		return nil, errors.NotFound(errors.PhaseDescribe, "type", name)
	}
	if bits == 8 && !orderSet {
		order = dtype.OrderNone
	}
	return dtype.Int(bits/8, signed, order), nil
}

// typeNames lists the canonical names accepted by parseType.
func typeNames() []string {
	var names []string
	for _, bits := range []int{8, 16, 32, 64} {
		for _, sign := range []string{"u", "i"} {
			base := sign + strconv.Itoa(bits)
			if bits == 8 {
				names = append(names, base)
				continue
			}
			names = append(names, base+"le", base+"be")
		}
	}
	var floats []string
	for f := range floatFormats {
		floats = append(floats, f+"le", f+"be")
	}
	sort.Strings(floats)
	names = append(names, floats...)
	return append(names, "vax-f", "vax-g")
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List named datatypes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := table.New().
				Headers("NAME", "CLASS", "SIZE", "LAYOUT")
			for _, name := range typeNames() {
				d, err := parseType(name)
				if err != nil {
					return err
				}
				t.Row(name, d.Class.String(), strconv.Itoa(d.Size), d.String())
			}
			fmt.Fprintln(cmd.OutOrStdout(), render(cmd, t))
			return nil
		},
	}
}
