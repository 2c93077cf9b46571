// Package wasmbin builds minimal WASM binaries for test fixtures: a
// module with linear memory, exported i32 const globals, and active data
// segments is enough to stand in for an instrumented guest. Not a
// general encoder; sections beyond what an instrumented-memory fixture
// needs are not supported.
package wasmbin

import (
	"bytes"
	"encoding/binary"
)

const (
	magic   = 0x6d736100 // "\0asm"
	version = 1

	sectionMemory = 5
	sectionGlobal = 6
	sectionExport = 7
	sectionData   = 11

	kindMemory = 0x02
	kindGlobal = 0x03

	valTypeI32  = 0x7f
	opI32Const  = 0x41
	opEnd       = 0x0b
	globalConst = 0x00
)

type globalDef struct {
	name  string
	value int32
}

type dataSegment struct {
	offset uint32
	bytes  []byte
}

// Builder assembles a module. Zero value is unusable; use New.
type Builder struct {
	memPages uint32
	globals  []globalDef
	data     []dataSegment
}

// New creates a builder for a module with one linear memory of the given
// minimum page count (64KiB pages), exported as "memory".
func New(memPages uint32) *Builder {
	return &Builder{memPages: memPages}
}

// ExportGlobalI32 adds an immutable i32 global exported under name.
func (b *Builder) ExportGlobalI32(name string, value int32) *Builder {
	b.globals = append(b.globals, globalDef{name: name, value: value})
	return b
}

// Data adds an active data segment copied into memory 0 at offset during
// instantiation.
func (b *Builder) Data(offset uint32, data []byte) *Builder {
	b.data = append(b.data, dataSegment{offset: offset, bytes: data})
	return b
}

// Bytes encodes the module. The same builder state always produces the
// same bytes.
func (b *Builder) Bytes() []byte {
	var w bytes.Buffer
	writeU32LE(&w, magic)
	writeU32LE(&w, version)

	// Memory section
	var sec bytes.Buffer
	writeU32(&sec, 1)
	sec.WriteByte(0x00) // limits: min only
	writeU32(&sec, b.memPages)
	writeSection(&w, sectionMemory, sec.Bytes())

	// Global section
	if len(b.globals) > 0 {
		sec.Reset()
		writeU32(&sec, uint32(len(b.globals)))
		for _, g := range b.globals {
			sec.WriteByte(valTypeI32)
			sec.WriteByte(globalConst)
			sec.WriteByte(opI32Const)
			writeS32(&sec, g.value)
			sec.WriteByte(opEnd)
		}
		writeSection(&w, sectionGlobal, sec.Bytes())
	}

	// Export section: memory plus every global
	sec.Reset()
	writeU32(&sec, uint32(1+len(b.globals)))
	writeName(&sec, "memory")
	sec.WriteByte(kindMemory)
	writeU32(&sec, 0)
	for i, g := range b.globals {
		writeName(&sec, g.name)
		sec.WriteByte(kindGlobal)
		writeU32(&sec, uint32(i))
	}
	writeSection(&w, sectionExport, sec.Bytes())

	// Data section
	if len(b.data) > 0 {
		sec.Reset()
		writeU32(&sec, uint32(len(b.data)))
		for _, d := range b.data {
			sec.WriteByte(0x00) // active, memory 0
			sec.WriteByte(opI32Const)
			writeS32(&sec, int32(d.offset))
			sec.WriteByte(opEnd)
			writeU32(&sec, uint32(len(d.bytes)))
			sec.Write(d.bytes)
		}
		writeSection(&w, sectionData, sec.Bytes())
	}

	return w.Bytes()
}

// Instrumented builds the common fixture: a one-page module whose
// counters live at base, described by the conventional export names, with
// the given counter values pre-populated through a data segment.
func Instrumented(base uint32, counters []uint64) []byte {
	payload := make([]byte, len(counters)*8)
	for i, c := range counters {
		binary.LittleEndian.PutUint64(payload[i*8:], c)
	}
	b := New(1).
		ExportGlobalI32("__coverage_base", int32(base)).
		ExportGlobalI32("__coverage_count", int32(len(counters)))
	if len(payload) > 0 {
		b.Data(base, payload)
	}
	return b.Bytes()
}

func writeSection(w *bytes.Buffer, id byte, body []byte) {
	w.WriteByte(id)
	writeU32(w, uint32(len(body)))
	w.Write(body)
}

func writeU32(w *bytes.Buffer, v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.WriteByte(b)
		if v == 0 {
			break
		}
	}
}

func writeS32(w *bytes.Buffer, v int32) {
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && (b&0x40) == 0) || (v == -1 && (b&0x40) != 0) {
			more = false
		} else {
			b |= 0x80
		}
		w.WriteByte(b)
	}
}

func writeName(w *bytes.Buffer, s string) {
	writeU32(w, uint32(len(s)))
	w.WriteString(s)
}

func writeU32LE(w *bytes.Buffer, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	w.Write(buf[:])
}
