package executor

import (
	wasmcoverage "github.com/wippyai/wasm-coverage"
)

// Superblock is an ordered group of blocks scheduled and executed as one
// atomic unit. Grouping amortizes scheduling overhead: the executor pays
// queueing and stealing costs once per superblock instead of once per
// block. Immutable after construction.
type Superblock struct {
	id     wasmcoverage.SuperblockID
	blocks []wasmcoverage.BlockID
}

// NewSuperblock creates a superblock over a copy of blocks.
func NewSuperblock(id wasmcoverage.SuperblockID, blocks []wasmcoverage.BlockID) *Superblock {
	owned := make([]wasmcoverage.BlockID, len(blocks))
	copy(owned, blocks)
	return &Superblock{id: id, blocks: owned}
}

// ID returns the superblock's identifier.
func (s *Superblock) ID() wasmcoverage.SuperblockID {
	return s.id
}

// Len returns the number of blocks in the superblock.
func (s *Superblock) Len() int {
	return len(s.blocks)
}

// Block returns the i-th block in scheduling order.
func (s *Superblock) Block(i int) wasmcoverage.BlockID {
	return s.blocks[i]
}

// Blocks returns a copy of the block list in scheduling order.
func (s *Superblock) Blocks() []wasmcoverage.BlockID {
	out := make([]wasmcoverage.BlockID, len(s.blocks))
	copy(out, s.blocks)
	return out
}

// SuperblockBuilder tiles a flat block sequence into superblocks of a
// target size. Tiling is contiguous chunking in input order, so the same
// input always produces the same superblocks; reproducible grouping keeps
// coverage runs comparable across machines.
type SuperblockBuilder struct {
	tileSize int
	blocks   []wasmcoverage.BlockID
}

// NewSuperblockBuilder creates a builder with the given target tile size.
// Sizes of 0 or less fall back to the default.
func NewSuperblockBuilder(tileSize int) *SuperblockBuilder {
	if tileSize <= 0 {
		tileSize = wasmcoverage.DefaultTileSize
	}
	return &SuperblockBuilder{tileSize: tileSize}
}

// Add appends blocks in order. Returns the builder for chaining.
func (b *SuperblockBuilder) Add(blocks ...wasmcoverage.BlockID) *SuperblockBuilder {
	b.blocks = append(b.blocks, blocks...)
	return b
}

// Build partitions the accumulated blocks into contiguous tiles of at
// most tileSize blocks, assigning sequential ids from 0. The final tile
// may be short. Build may be called once; the builder is not reusable.
func (b *SuperblockBuilder) Build() []*Superblock {
	if len(b.blocks) == 0 {
		return nil
	}
	out := make([]*Superblock, 0, (len(b.blocks)+b.tileSize-1)/b.tileSize)
	for start := 0; start < len(b.blocks); start += b.tileSize {
		end := start + b.tileSize
		if end > len(b.blocks) {
			end = len(b.blocks)
		}
		id := wasmcoverage.SuperblockID(len(out))
		out = append(out, NewSuperblock(id, b.blocks[start:end]))
	}
	return out
}
