package conv

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/typeconv/dtype"
)

func TestIntToFloatExact(t *testing.T) {
	vals := []int64{0, 1, -1, 42, -1000, 123456789, math.MaxInt32, math.MinInt32}
	e := New()
	p := initPath(t, e, dtype.Int(4, true, dtype.OrderBE), dtype.IEEEFloat64(dtype.OrderLE))
	assert.Equal(t, KindIntFloat, p.Kind())

	buf := packInts(dtype.Int(4, true, dtype.OrderBE), 8, vals...)
	require.NoError(t, p.Convert(len(vals), buf, 0, nil, 0))
	got := f64Values(buf, len(vals))
	for i, v := range vals {
		assert.Equal(t, float64(v), got[i])
	}
}

func TestIntToFloatRounding(t *testing.T) {
	log := &eventLog{action: Unhandled}
	e := New(WithHandler(log.handle))

	t.Run("u64 max to f64", func(t *testing.T) {
		*log = eventLog{action: Unhandled}
		p := initPath(t, e, dtype.Int(8, false, dtype.OrderLE), dtype.IEEEFloat64(dtype.OrderLE))
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.MaxUint64)
		require.NoError(t, p.Convert(1, buf, 0, nil, 0))
		assert.Equal(t, math.Ldexp(1, 64), f64Values(buf, 1)[0])
		assert.Equal(t, []Event{Precision}, log.events)
	})

	t.Run("i32 to f32", func(t *testing.T) {
		*log = eventLog{action: Unhandled}
		src := dtype.Int(4, true, dtype.OrderLE)
		p := initPath(t, e, src, dtype.IEEEFloat32(dtype.OrderLE))
		buf := packInts(src, 4, 16777216, 16777217, 33554431, -16777217)
		require.NoError(t, p.Convert(4, buf, 0, nil, 0))
		assert.Equal(t, []float32{16777216, 16777218, 33554432, -16777218}, f32Values(buf, 4))
		assert.Equal(t, []Event{Precision, Precision, Precision}, log.events)
		assert.Equal(t, []int{1, 2, 3}, log.index)
	})
}

func TestIntToFloatOverflow(t *testing.T) {
	log := &eventLog{action: Unhandled}
	e := New(WithHandler(log.handle))
	src := dtype.Int(4, true, dtype.OrderLE)
	p := initPath(t, e, src, half())

	buf := packInts(src, 2, 131072, -131072, 2048)
	require.NoError(t, p.Convert(3, buf, 0, nil, 0))
	assert.Equal(t, uint16(0x7c00), binary.LittleEndian.Uint16(buf[0:]))
	assert.Equal(t, uint16(0xfc00), binary.LittleEndian.Uint16(buf[2:]))
	assert.Equal(t, uint16(0x6800), binary.LittleEndian.Uint16(buf[4:]))
	assert.Equal(t, []Event{RangeHigh, RangeHigh}, log.events)
}

func TestFloatToInt(t *testing.T) {
	log := &eventLog{action: Unhandled}
	e := New(WithHandler(log.handle))

	t.Run("f64 to i32", func(t *testing.T) {
		*log = eventLog{action: Unhandled}
		dst := dtype.Int(4, true, dtype.OrderLE)
		p := initPath(t, e, dtype.IEEEFloat64(dtype.OrderLE), dst)
		vals := []float64{3.7, -3.7, 1e10, -2147483648, 2147483648, -2147483649, 0, 2147483647}
		buf := f64Bytes(4, vals...)
		require.NoError(t, p.Convert(len(vals), buf, 0, nil, 0))
		assert.Equal(t,
			[]int64{3, -3, math.MaxInt32, math.MinInt32, math.MaxInt32, math.MinInt32, 0, math.MaxInt32},
			unpackInts(buf, dst, len(vals)))
		assert.Equal(t, []Event{Truncate, Truncate, RangeHigh, RangeHigh, RangeLow}, log.events)
	})

	t.Run("f32 to u8", func(t *testing.T) {
		*log = eventLog{action: Unhandled}
		dst := dtype.Int(1, false, dtype.OrderNone)
		p := initPath(t, e, dtype.IEEEFloat32(dtype.OrderLE), dst)
		vals := []float32{-1, 300, 255.9, -0.5, 17}
		buf := f32Bytes(1, vals...)
		require.NoError(t, p.Convert(len(vals), buf, 0, nil, 0))
		assert.Equal(t, []byte{0, 255, 255, 0, 17}, buf[:len(vals)])
		assert.Equal(t, []Event{RangeLow, RangeHigh, Truncate, Truncate}, log.events)
	})

	t.Run("specials", func(t *testing.T) {
		*log = eventLog{action: Unhandled}
		dst := dtype.Int(2, true, dtype.OrderBE)
		p := initPath(t, e, dtype.IEEEFloat32(dtype.OrderLE), dst)
		buf := f32Bytes(2, float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1)))
		require.NoError(t, p.Convert(3, buf, 0, nil, 0))
		assert.Equal(t, []int64{0, math.MaxInt16, math.MinInt16}, unpackInts(buf, dst, 3))
		assert.Equal(t, []Event{NaN, PosInf, NegInf}, log.events)
	})

	t.Run("negative infinity to unsigned", func(t *testing.T) {
		dst := dtype.Int(2, false, dtype.OrderLE)
		p := initPath(t, e, dtype.IEEEFloat32(dtype.OrderLE), dst)
		buf := f32Bytes(2, float32(math.Inf(-1)))
		require.NoError(t, p.Convert(1, buf, 0, nil, 0))
		assert.Equal(t, []int64{0}, unpackInts(buf, dst, 1))
	})

	t.Run("huge exponent", func(t *testing.T) {
		dst := dtype.Int(8, true, dtype.OrderLE)
		p := initPath(t, e, dtype.IEEEFloat64(dtype.OrderLE), dst)
		buf := f64Bytes(8, 1e300, -1e300, 9.007199254740993e15)
		require.NoError(t, p.Convert(3, buf, 0, nil, 0))
		assert.Equal(t, []int64{math.MaxInt64, math.MinInt64, 9007199254740992}, unpackInts(buf, dst, 3))
	})
}

func TestFloatToIntHandled(t *testing.T) {
	e := New(WithHandler(func(ex *Exception) Action {
		if ex.Event != NaN {
			return Unhandled
		}
		// Big-endian -1.
		ex.DstBytes[0], ex.DstBytes[1] = 0xff, 0xff
		return Handled
	}))
	dst := dtype.Int(2, true, dtype.OrderBE)
	p := initPath(t, e, dtype.IEEEFloat32(dtype.OrderLE), dst)
	buf := f32Bytes(2, float32(math.NaN()), 12.5)
	require.NoError(t, p.Convert(2, buf, 0, nil, 0))
	assert.Equal(t, []int64{-1, 12}, unpackInts(buf, dst, 2))
}
