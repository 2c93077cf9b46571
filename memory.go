package wasmcoverage

// Memory is a read-only window onto WASM linear memory.
//
// The coverage core never launches or controls a runtime; it only observes
// memory the runtime exposes. Implementations adapt a concrete runtime's
// memory object (see the engine package for the wazero adapter) or a raw
// dump captured from a browser session.
//
// Read should return the underlying storage without copying where the
// runtime allows it; callers treat the returned bytes as immutable.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	ReadU64(offset uint32) (uint64, error)
}

// MemorySizer reports the current size of WASM linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}
