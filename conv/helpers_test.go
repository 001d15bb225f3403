package conv

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/typeconv/dtype"
)

func initPath(t *testing.T, e *Engine, src, dst *dtype.Datatype) *Path {
	t.Helper()
	p, err := e.Init(src, dst)
	require.NoError(t, err)
	return p
}

// packInts lays vals out as consecutive elements of typ in a buffer with
// room for len(vals) elements of w bytes.
func packInts(typ *dtype.Datatype, w int, vals ...int64) []byte {
	buf := make([]byte, len(vals)*max(w, typ.Size))
	for i, v := range vals {
		dtype.EncodeInt(buf[i*typ.Size:], typ, v)
	}
	return buf
}

func unpackInts(buf []byte, typ *dtype.Datatype, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = dtype.DecodeInt(buf[i*typ.Size:], typ)
	}
	return out
}

// convertInts converts vals from src to dst in place and decodes the result.
func convertInts(t *testing.T, e *Engine, src, dst *dtype.Datatype, vals ...int64) []int64 {
	t.Helper()
	p := initPath(t, e, src, dst)
	buf := packInts(src, dst.Size, vals...)
	require.NoError(t, p.Convert(len(vals), buf, 0, nil, 0))
	return unpackInts(buf, dst, len(vals))
}

func f32Bytes(w int, vals ...float32) []byte {
	buf := make([]byte, len(vals)*max(w, 4))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func f64Bytes(w int, vals ...float64) []byte {
	buf := make([]byte, len(vals)*max(w, 8))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func f32Values(buf []byte, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

func f64Values(buf []byte, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out
}

// eventLog records every exception and answers with a fixed action.
type eventLog struct {
	events []Event
	index  []int
	action Action
}

func (l *eventLog) handle(e *Exception) Action {
	l.events = append(l.events, e.Event)
	l.index = append(l.index, e.Index)
	return l.action
}
