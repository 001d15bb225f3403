package main

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/typeconv/conv"
	"github.com/wippyai/typeconv/dtype"
	"github.com/wippyai/typeconv/errors"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	eventStyle  = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#FF6B6B"))
	frameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
)

type convertFlags struct {
	from string
	to   string
	raw  bool
}

func newConvertCmd() *cobra.Command {
	var cf convertFlags
	cmd := &cobra.Command{
		Use:   "convert --from TYPE --to TYPE VALUE...",
		Short: "Convert values from one datatype to another",
		Example: `  typeconv convert --from be-u32 --to le-u16 0 4294967295 1000
  typeconv convert --from f64 --to f16 0.1 65520 -inf nan
  typeconv convert --raw --from vax-f --to f32 80400000`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := parseType(cf.from)
			if err != nil {
				return err
			}
			dst, err := parseType(cf.to)
			if err != nil {
				return err
			}

			rec := &recorder{}
			e, log, err := newEngine(conv.WithHandler(rec.handle))
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			defer e.Close()

			rows, err := convertValues(e, rec, src, dst, args, cf.raw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render(cmd, resultTable(rows)))
			return nil
		},
	}
	cmd.Flags().StringVar(&cf.from, "from", "", "source type (see 'typeconv types')")
	cmd.Flags().StringVar(&cf.to, "to", "", "destination type")
	cmd.Flags().BoolVar(&cf.raw, "raw", false, "values are hex bytes in the source layout")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// row is one converted value.
type row struct {
	input  string
	src    []byte
	dst    []byte
	value  string
	events []string
}

// recorder collects exception events per element while armed. Encoding
// and decoding conversions run unarmed.
type recorder struct {
	armed  bool
	events map[int][]string
}

func (r *recorder) handle(ex *conv.Exception) conv.Action {
	if r.armed {
		r.events[ex.Index] = append(r.events[ex.Index], ex.Event.String())
	}
	return conv.Unhandled
}

// convertValues encodes each argument in src, converts the whole batch in
// place and decodes the results.
func convertValues(e *conv.Engine, rec *recorder, src, dst *dtype.Datatype, args []string, raw bool) ([]row, error) {
	n := len(args)
	w := max(src.Size, dst.Size)
	buf := make([]byte, n*w)
	rows := make([]row, n)

	for i, a := range args {
		el := buf[i*src.Size : (i+1)*src.Size]
		var err error
		if raw {
			err = decodeHex(el, a)
		} else {
			err = encodeValue(e, el, src, a)
		}
		if err != nil {
			return nil, errors.Wrap(errors.PhaseDescribe, errors.KindInvalidInput, err,
				fmt.Sprintf("value %d (%q)", i, a))
		}
		rows[i] = row{input: a, src: append([]byte(nil), el...)}
	}

	p, err := e.Init(src, dst)
	if err != nil {
		return nil, err
	}

	rec.armed, rec.events = true, make(map[int][]string)
	err = p.Convert(n, buf, 0, nil, 0)
	rec.armed = false
	if err != nil {
		return nil, err
	}

	for i := range rows {
		el := buf[i*dst.Size : (i+1)*dst.Size]
		rows[i].dst = append([]byte(nil), el...)
		rows[i].events = rec.events[i]
		v, err := decodeValue(e, el, dst)
		if err != nil {
			return nil, err
		}
		rows[i].value = v
	}
	return rows, nil
}

func decodeHex(el []byte, s string) error {
	s = strings.TrimPrefix(strings.ReplaceAll(s, " ", ""), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(b) != len(el) {
		return errors.OutOfBounds(errors.PhaseDescribe, "value", len(el), len(b))
	}
	copy(el, b)
	return nil
}

// encodeValue writes a decimal integer or float literal into el using t.
func encodeValue(e *conv.Engine, el []byte, t *dtype.Datatype, s string) error {
	switch t.Class {
	case dtype.ClassInteger:
		if v, err := strconv.ParseInt(s, 0, 64); err == nil {
			dtype.EncodeInt(el, t, v)
			return nil
		}
		u, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return err
		}
		dtype.EncodeInt(el, t, int64(u))
		return nil

	case dtype.ClassFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		p, err := e.Init(dtype.NativeFloat64, t)
		if err != nil {
			return err
		}
		tmp := make([]byte, max(8, t.Size))
		binary.NativeEndian.PutUint64(tmp, math.Float64bits(f))
		if err := p.Convert(1, tmp, 0, nil, 0); err != nil {
			return err
		}
		copy(el, tmp[:t.Size])
		return nil
	}
	return fmt.Errorf("cannot parse values of class %s", t.Class)
}

// decodeValue renders el of type t in decimal.
func decodeValue(e *conv.Engine, el []byte, t *dtype.Datatype) (string, error) {
	switch t.Class {
	case dtype.ClassInteger:
		v := dtype.DecodeInt(el, t)
		if t.Sign == dtype.SignNone && t.Precision >= 64 {
			return strconv.FormatUint(uint64(v), 10), nil
		}
		return strconv.FormatInt(v, 10), nil

	case dtype.ClassFloat:
		p, err := e.Init(t, dtype.NativeFloat64)
		if err != nil {
			return "", err
		}
		tmp := make([]byte, max(8, t.Size))
		copy(tmp, el)
		if err := p.Convert(1, tmp, 0, nil, 0); err != nil {
			return "", err
		}
		return strconv.FormatFloat(math.Float64frombits(binary.NativeEndian.Uint64(tmp)), 'g', -1, 64), nil
	}
	return hex.EncodeToString(el), nil
}

func resultTable(rows []row) *table.Table {
	t := table.New().Headers("#", "INPUT", "SOURCE", "DESTINATION", "VALUE", "EVENTS")
	for i, r := range rows {
		t.Row(strconv.Itoa(i), r.input, hex.EncodeToString(r.src), hex.EncodeToString(r.dst),
			r.value, strings.Join(r.events, ","))
	}
	return t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case col == 5:
			return eventStyle
		default:
			return cellStyle
		}
	})
}

// render draws t with rounded borders on a terminal and plain ones
// otherwise.
func render(cmd *cobra.Command, t *table.Table) string {
	border := lipgloss.NormalBorder()
	if f, ok := cmd.OutOrStdout().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		border = lipgloss.RoundedBorder()
	}
	return t.Border(border).BorderStyle(frameStyle).Render()
}
