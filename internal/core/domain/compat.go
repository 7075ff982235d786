package domain

import (
	"maps"
	"slices"
)

// FlagForm is the command-line prefix used to pass a codegen flag to the compiler.
type FlagForm string

const (
	// FlagStable passes the flag as a stable codegen option.
	FlagStable FlagForm = "-C"
	// FlagUnstable passes the flag as an unstable option, required on channels
	// where the option had not been stabilized yet.
	FlagUnstable FlagForm = "-Z"
)

// SourceComponentRustSrc is the component carrying the standard library sources.
const SourceComponentRustSrc = "rust-src"

// CompatEntry is one known-good toolchain channel together with the exact
// codegen flags the embedded target and the downstream patcher expect from it.
type CompatEntry struct {
	Channel         string
	Codegen         map[string]string
	Unstable        bool
	SourceComponent string
}

// CodegenKeys returns the entry's required flag names in sorted order.
func (e CompatEntry) CodegenKeys() []string {
	return slices.Sorted(maps.Keys(e.Codegen))
}

// CompatTable lists the toolchain/flag combinations known to produce artifacts
// that link and patch correctly.
type CompatTable struct {
	entries map[string]CompatEntry
}

// NewCompatTable builds a table from entries. Later entries replace earlier ones
// with the same channel.
func NewCompatTable(entries ...CompatEntry) CompatTable {
	t := CompatTable{entries: make(map[string]CompatEntry, len(entries))}
	for _, e := range entries {
		if e.SourceComponent == "" {
			e.SourceComponent = SourceComponentRustSrc
		}
		e.Codegen = maps.Clone(e.Codegen)
		t.entries[e.Channel] = e
	}
	return t
}

// Lookup returns the entry for channel.
func (t CompatTable) Lookup(channel string) (CompatEntry, bool) {
	e, ok := t.entries[channel]
	return e, ok
}

// Channels returns every channel in the table, sorted.
func (t CompatTable) Channels() []string {
	return slices.Sorted(maps.Keys(t.entries))
}

// DefaultCompatTable returns the channels the patcher has been validated against.
//
// The v0 mangling scheme was only accepted as an unstable option on early
// nightlies; later channels take it as a regular codegen option.
func DefaultCompatTable() CompatTable {
	v0 := map[string]string{"symbol-mangling-version": "v0"}
	return NewCompatTable(
		CompatEntry{Channel: "nightly-2021-08-01", Codegen: v0, Unstable: true},
		CompatEntry{Channel: "nightly-2022-11-01", Codegen: v0},
		CompatEntry{Channel: "nightly-2023-06-30", Codegen: v0},
		CompatEntry{Channel: "nightly-2024-02-01", Codegen: v0},
	)
}
