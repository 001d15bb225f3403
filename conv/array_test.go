package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/typeconv/dtype"
	"github.com/wippyai/typeconv/errors"
)

func TestArrayConvert(t *testing.T) {
	i16 := dtype.Int(2, true, dtype.OrderLE)
	src := dtype.NewArray(i16, 2, 3)
	dst := dtype.NewArray(dtype.IEEEFloat32(dtype.OrderLE), 2, 3)

	e := New()
	p := initPath(t, e, src, dst)
	assert.Equal(t, KindArray, p.Kind())
	assert.False(t, p.NeedsBackground())
	assert.False(t, p.IsNoop())

	vals := []int64{1, -2, 3, -4, 5, 32767, 0, 10, -10, 100, -100, 7}
	buf := packInts(i16, 4, vals...)
	require.NoError(t, p.Convert(2, buf, 0, nil, 0))

	got := f32Values(buf, len(vals))
	for i, v := range vals {
		assert.Equal(t, float32(v), got[i])
	}
}

func TestArrayNoop(t *testing.T) {
	u8 := dtype.Int(1, false, dtype.OrderLE)
	p := initPath(t, New(), dtype.NewArray(u8, 4), dtype.NewArray(dtype.Int(1, false, dtype.OrderBE), 4))
	assert.Equal(t, KindArray, p.Kind())
	assert.True(t, p.IsNoop())

	buf := []byte{1, 2, 3, 4}
	require.NoError(t, p.Convert(1, buf, 0, nil, 0))
	assert.Equal(t, []byte{1, 2, 3, 4}, buf)
}

func TestArrayOfCompound(t *testing.T) {
	u8 := dtype.Int(1, false, dtype.OrderNone)
	narrow := newCompound(t, 1, field{"a", 0, u8})
	wide := newCompound(t, 2, field{"a", 0, u8}, field{"b", 1, u8})
	src := dtype.NewArray(narrow, 2)
	dst := dtype.NewArray(wide, 2)

	e := New()
	p := initPath(t, e, src, dst)
	assert.True(t, p.NeedsBackground())

	buf := []byte{1, 2, 3, 4, 0, 0, 0, 0}
	require.NoError(t, p.Convert(2, buf, 0, nil, 0))
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 0, 4, 0}, buf)

	buf = []byte{1, 2, 3, 4, 0, 0, 0, 0}
	bkg := []byte{0, 9, 0, 8, 0, 7, 0, 6}
	require.NoError(t, p.Convert(2, buf, 0, bkg, 0))
	assert.Equal(t, []byte{1, 9, 2, 8, 3, 7, 4, 6}, buf)
}

func TestArrayShapeMismatch(t *testing.T) {
	i16 := dtype.Int(2, true, dtype.OrderLE)
	e := New()

	_, err := e.Init(dtype.NewArray(i16, 2, 3), dtype.NewArray(i16, 3, 2))
	require.Error(t, err)
	assert.True(t, errors.IsCapability(err))

	_, err = e.Init(dtype.NewArray(i16, 6), dtype.NewArray(i16, 2, 3))
	require.Error(t, err)
	assert.True(t, errors.IsCapability(err))
}

func TestArrayEventIndex(t *testing.T) {
	i32 := dtype.Int(4, true, dtype.OrderLE)
	i16 := dtype.Int(2, true, dtype.OrderLE)
	log := &eventLog{action: Abort}
	p := initPath(t, New(WithHandler(log.handle)), dtype.NewArray(i32, 3), dtype.NewArray(i16, 3))

	buf := packInts(i32, 4, 1, 2, 3, 4, 5, -40000)
	err := p.Convert(2, buf, 0, nil, 0)
	require.Error(t, err)
	assert.True(t, errors.IsAbort(err))
	assert.Contains(t, err.Error(), "element 1")
	assert.Equal(t, []int{1}, log.index)
}
