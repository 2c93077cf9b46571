// Package executor implements the coverage control plane: tiling blocks
// into superblocks, running them across parallel workers with optional
// work stealing, and turning per-superblock failures into stop or
// continue-with-taint decisions.
//
// A Superblock is an immutable ordered group of blocks scheduled as one
// atomic unit; a worker never partially executes one. Superblocks are
// dealt round-robin onto per-worker deques. When stealing is enabled an
// idle worker pops work from the back of a busy peer's deque; a claimed
// superblock is never revoked or duplicated, so every superblock executes
// at most once per run.
//
// Each worker owns its own cover.ThreadLocalCounters and merges into the
// shared accumulator only on flush, keeping the hot recording path free
// of shared-memory traffic. Failures flow through a jidoka Policy: a Stop
// decision aborts scheduling at the next superblock boundary, while
// LogAndContinue taints the superblock's blocks and keeps the run going.
// The caller always gets a report back, marked incomplete when the run
// was cut short.
package executor
