package vlstore

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/typeconv/errors"
)

// memoryWASM is a module exporting one page of memory as "memory".
var memoryWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 page, no max
	0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, // name: "memory"
	0x02, 0x00, // kind: memory, index 0
}

// PageSize is the WASM page size.
const PageSize = 65536

// LinearMemory is WASM linear memory owned by a private wazero runtime.
type LinearMemory struct {
	rt  wazero.Runtime
	mod api.Module
	mem api.Memory
}

// NewLinearMemory instantiates a one-page memory that may grow up to
// maxPages pages (0 means the wazero default).
func NewLinearMemory(ctx context.Context, maxPages uint32) (*LinearMemory, error) {
	cfg := wazero.NewRuntimeConfig()
	if maxPages > 0 {
		cfg = cfg.WithMemoryLimitPages(maxPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)

	compiled, err := rt.CompileModule(ctx, memoryWASM)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("compile memory module: %w", err)
	}
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("vlheap"))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("instantiate memory module: %w", err)
	}
	return &LinearMemory{rt: rt, mod: mod, mem: mod.ExportedMemory("memory")}, nil
}

// Read returns a view into the runtime's memory. Grow invalidates it.
func (m *LinearMemory) Read(offset uint32, length uint32) ([]byte, error) {
	if data, ok := m.mem.Read(offset, length); ok {
		return data, nil
	}
	return nil, m.outOfBounds(offset, uint64(length))
}

// Write stores a sequence body at offset.
func (m *LinearMemory) Write(offset uint32, data []byte) error {
	if m.mem.Write(offset, data) {
		return nil
	}
	return m.outOfBounds(offset, uint64(len(data)))
}

// ReadU32 reads a little-endian slot or block header word.
func (m *LinearMemory) ReadU32(offset uint32) (uint32, error) {
	if v, ok := m.mem.ReadUint32Le(offset); ok {
		return v, nil
	}
	return 0, m.outOfBounds(offset, 4)
}

// WriteU32 writes a little-endian slot or block header word.
func (m *LinearMemory) WriteU32(offset uint32, value uint32) error {
	if m.mem.WriteUint32Le(offset, value) {
		return nil
	}
	return m.outOfBounds(offset, 4)
}

// outOfBounds reports an access ending past the current memory size.
func (m *LinearMemory) outOfBounds(offset uint32, n uint64) error {
	return errors.OutOfBounds(errors.PhaseStore, "linear memory access",
		int(uint64(offset)+n), int(m.mem.Size()))
}

// Size returns the memory size in bytes.
func (m *LinearMemory) Size() uint32 {
	return m.mem.Size()
}

// Grow adds delta pages and returns the previous size in pages.
func (m *LinearMemory) Grow(delta uint32) (uint32, bool) {
	return m.mem.Grow(delta)
}

// Close releases the runtime.
func (m *LinearMemory) Close(ctx context.Context) error {
	return m.rt.Close(ctx)
}
