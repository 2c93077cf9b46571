// Package engine observes coverage counters inside a live wazero module.
//
// It is strictly an observer: it never instantiates, drives, or mutates
// the guest. ModuleView finds the instrumentation metadata the guest
// exports (counter base and block count globals), grabs the module's
// linear memory without copying, and hands back a cover.MemoryView.
// ModuleSnapshot is the owned-copy variant for reading while the guest
// keeps running.
package engine
