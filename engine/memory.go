package engine

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// WazeroMemory wraps wazero memory to implement wasmcoverage.Memory and
// wasmcoverage.MemorySizer.
type WazeroMemory struct {
	mem api.Memory
}

// NewWazeroMemory adapts a wazero api.Memory.
func NewWazeroMemory(mem api.Memory) *WazeroMemory {
	return &WazeroMemory{mem: mem}
}

func (m *WazeroMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

func (m *WazeroMemory) ReadU64(offset uint32) (uint64, error) {
	val, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, fmt.Errorf("read out of bounds")
	}
	return val, nil
}

func (m *WazeroMemory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}
