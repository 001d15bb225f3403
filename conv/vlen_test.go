package conv

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/typeconv/dtype"
	"github.com/wippyai/typeconv/errors"
	"github.com/wippyai/typeconv/vlstore"
)

// writeSeq stores vals as a sequence of base in store and returns its slot.
func writeSeq(t *testing.T, store dtype.VLStore, base *dtype.Datatype, vals ...int64) []byte {
	t.Helper()
	slot := make([]byte, store.SlotSize())
	seq := packInts(base, base.Size, vals...)
	require.NoError(t, store.Write(slot, nil, seq, len(vals), base.Size))
	return slot
}

// readSeq decodes the sequence referenced by slot.
func readSeq(t *testing.T, store dtype.VLStore, base *dtype.Datatype, slot []byte) []int64 {
	t.Helper()
	n, err := store.Len(slot)
	require.NoError(t, err)
	seq := make([]byte, n*base.Size)
	require.NoError(t, store.Read(slot, seq))
	return unpackInts(seq, base, n)
}

func TestVLenConvert(t *testing.T) {
	i16 := dtype.Int(2, true, dtype.OrderBE)
	i32 := dtype.Int(4, true, dtype.OrderLE)
	a, b := vlstore.NewTable("a"), vlstore.NewTable("b")
	src, dst := dtype.NewVLen(i16, a), dtype.NewVLen(i32, b)

	p := initPath(t, New(), src, dst)
	assert.Equal(t, KindVLen, p.Kind())
	assert.False(t, p.vlen.direct)
	assert.False(t, p.NeedsBackground())

	buf := make([]byte, 3*vlstore.SlotSize)
	copy(buf[0:], writeSeq(t, a, i16, 1, -2, 300))
	// Element 1 stays zero: the null sequence.
	copy(buf[16:], writeSeq(t, a, i16))

	require.NoError(t, p.Convert(3, buf, 0, nil, 0))

	assert.Equal(t, []int64{1, -2, 300}, readSeq(t, b, i32, buf[0:8]))

	null, err := b.IsNull(buf[8:16])
	require.NoError(t, err)
	assert.True(t, null)

	null, err = b.IsNull(buf[16:24])
	require.NoError(t, err)
	assert.False(t, null, "an empty sequence is not null")
	n, err := b.Len(buf[16:24])
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 2, b.Count())
}

func TestVLenDirect(t *testing.T) {
	store := vlstore.NewTable("shared")
	le := dtype.Int(1, false, dtype.OrderLE)
	be := dtype.Int(1, false, dtype.OrderBE)

	p := initPath(t, New(), dtype.NewVLen(le, store), dtype.NewVLen(be, store))
	assert.True(t, p.vlen.direct)

	buf := writeSeq(t, store, le, 5, 6, 7)
	src := append([]byte(nil), buf...)
	require.NoError(t, p.Convert(1, buf, 0, nil, 0))

	assert.NotEqual(t, src, buf)
	assert.Equal(t, []int64{5, 6, 7}, readSeq(t, store, be, buf))
	assert.Equal(t, []int64{5, 6, 7}, readSeq(t, store, le, src))
	assert.Equal(t, 2, store.Count())
}

func TestVLString(t *testing.T) {
	a, b := vlstore.NewTable("a"), vlstore.NewTable("b")
	e := New()

	p := initPath(t, e, dtype.NewVLString(dtype.CharsetUTF8, a), dtype.NewVLString(dtype.CharsetUTF8, b))
	assert.True(t, p.vlen.sub.noop)

	slot := make([]byte, vlstore.SlotSize)
	require.NoError(t, a.Write(slot, nil, []byte("héllo"), len("héllo"), 1))
	require.NoError(t, p.Convert(1, slot, 0, nil, 0))

	out := make([]byte, len("héllo"))
	require.NoError(t, b.Read(slot, out))
	assert.Equal(t, "héllo", string(out))

	_, err := e.Init(dtype.NewVLString(dtype.CharsetASCII, a), dtype.NewVLString(dtype.CharsetUTF8, b))
	assert.True(t, errors.IsCapability(err))

	_, err = e.Init(dtype.NewVLString(dtype.CharsetASCII, a),
		dtype.NewVLen(dtype.FixedString(1, dtype.CharsetASCII, dtype.StrNullPad), b))
	assert.True(t, errors.IsCapability(err))
}

func TestVLenNestedReclaim(t *testing.T) {
	store := vlstore.NewTable("t")
	i16 := dtype.Int(2, true, dtype.OrderLE)
	i32 := dtype.Int(4, true, dtype.OrderLE)
	inner16, inner32 := dtype.NewVLen(i16, store), dtype.NewVLen(i32, store)
	src, dst := dtype.NewVLen(inner16, store), dtype.NewVLen(inner32, store)

	p := initPath(t, New(), src, dst)
	assert.True(t, p.vlen.nested)
	assert.True(t, p.NeedsBackground())

	// Source: one inner sequence.
	buf := make([]byte, vlstore.SlotSize)
	inner := writeSeq(t, store, i16, 1, 2)
	require.NoError(t, store.Write(buf, nil, inner, 1, vlstore.SlotSize))

	// Background: three inner sequences.
	var outer []byte
	for k := 0; k < 3; k++ {
		outer = append(outer, writeSeq(t, store, i32, int64(10*k), int64(10*k+1))...)
	}
	bkg := make([]byte, vlstore.SlotSize)
	require.NoError(t, store.Write(bkg, nil, outer, 3, vlstore.SlotSize))
	require.Equal(t, 6, store.Count())

	require.NoError(t, p.Convert(1, buf, 0, bkg, 0))

	// The surplus background sequences are released; the first one and the
	// outer sequence are reused.
	assert.Equal(t, 4, store.Count())
	assert.Equal(t, bkg[4:], buf[4:])

	n, err := store.Len(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	slot := make([]byte, vlstore.SlotSize)
	require.NoError(t, store.Read(buf, slot))
	assert.Equal(t, outer[4:8], slot[4:8])
	assert.Equal(t, []int64{1, 2}, readSeq(t, store, i32, slot))
}

func TestVLenScratchLimit(t *testing.T) {
	a, b := vlstore.NewTable("a"), vlstore.NewTable("b")
	i16 := dtype.Int(2, true, dtype.OrderLE)
	i32 := dtype.Int(4, true, dtype.OrderLE)

	p := initPath(t, New(WithScratchLimit(16)), dtype.NewVLen(i16, a), dtype.NewVLen(i32, b))

	buf := make([]byte, 2*vlstore.SlotSize)
	copy(buf, writeSeq(t, a, i16, 1, 2))
	second := writeSeq(t, a, i16, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	copy(buf[8:], second)

	err := p.Convert(2, buf, 0, nil, 0)
	require.Error(t, err)
	assert.True(t, errors.IsResource(err))

	assert.Equal(t, []int64{1, 2}, readSeq(t, b, i32, buf[:8]))
	assert.Equal(t, second, buf[8:])
}

// failingStore fails every read.
type failingStore struct {
	*vlstore.Table
}

var errDisk = stderrors.New("disk on fire")

func (failingStore) Read([]byte, []byte) error { return errDisk }

func (failingStore) Direct([]byte) ([]byte, bool) { return nil, false }

func TestVLenStoreFailure(t *testing.T) {
	fs := failingStore{vlstore.NewTable("f")}
	i16 := dtype.Int(2, true, dtype.OrderLE)
	p := initPath(t, New(), dtype.NewVLen(i16, fs), dtype.NewVLen(dtype.Int(4, true, dtype.OrderLE), vlstore.NewTable("b")))

	buf := writeSeq(t, fs, i16, 1)
	err := p.Convert(1, buf, 0, nil, 0)
	require.Error(t, err)
	assert.True(t, errors.IsStore(err))
	assert.ErrorIs(t, err, errDisk)
}
