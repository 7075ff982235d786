package domain

import (
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// ToolchainSpec pins the exact compiler toolchain used to produce the embedded artifact.
//
// Channel and Codegen are co-dependent: a combination that is not listed in the
// compat table produces an artifact the downstream patcher rejects, so the toolchain is
// validated before any process is spawned.
type ToolchainSpec struct {
	// Channel is the exact toolchain identifier, e.g. "nightly-2023-06-30".
	Channel string
	// Components are the toolchain components that must be installed, e.g. "rust-src".
	Components []string
	// Target is the path to the custom target descriptor file.
	Target string
	// Codegen maps code-generation flag names to values, e.g. "symbol-mangling-version" -> "v0".
	Codegen map[string]string
}

// NewToolchainSpec creates a ToolchainSpec with components sorted and de-duplicated
// and the codegen map copied, so the result does not alias caller state.
func NewToolchainSpec(channel string, components []string, target string, codegen map[string]string) ToolchainSpec {
	return ToolchainSpec{
		Channel:    strings.TrimSpace(channel),
		Components: canonicalize(components),
		Target:     target,
		Codegen:    maps.Clone(codegen),
	}
}

// HasComponent reports whether the toolchain requests the named component.
func (s ToolchainSpec) HasComponent(name string) bool {
	return slices.Contains(s.Components, name)
}

// CodegenKeys returns the codegen flag names in sorted order.
func (s ToolchainSpec) CodegenKeys() []string {
	return slices.Sorted(maps.Keys(s.Codegen))
}

// Validate checks the toolchain against the compat table.
// rebuildsCore reports whether the core library will be rebuilt from source,
// which additionally requires the channel's source component.
func (s ToolchainSpec) Validate(table CompatTable, rebuildsCore bool) error {
	if s.Channel == "" {
		return wrapInvalid("toolchain channel is required", "toolchain.channel")
	}
	if s.Target == "" {
		return wrapInvalid("target descriptor is required", "toolchain.target")
	}

	entry, ok := table.Lookup(s.Channel)
	if !ok {
		err := zerr.Wrap(ErrIncompatibleToolchain, "channel is not in the known-compatible table")
		err = zerr.With(err, "channel", s.Channel)
		return zerr.With(err, "known_channels", table.Channels())
	}

	for _, flag := range entry.CodegenKeys() {
		want := entry.Codegen[flag]
		got, present := s.Codegen[flag]
		if !present || got != want {
			err := zerr.Wrap(ErrIncompatibleToolchain, "codegen flag does not match channel")
			err = zerr.With(err, "channel", s.Channel)
			err = zerr.With(err, "flag", flag)
			err = zerr.With(err, "expected", want)
			return zerr.With(err, "actual", got)
		}
	}
	for _, flag := range s.CodegenKeys() {
		if _, known := entry.Codegen[flag]; !known {
			err := zerr.Wrap(ErrIncompatibleToolchain, "codegen flag is not part of the channel contract")
			err = zerr.With(err, "channel", s.Channel)
			return zerr.With(err, "flag", flag)
		}
	}

	if rebuildsCore && !s.HasComponent(entry.SourceComponent) {
		err := zerr.Wrap(ErrMissingSourceComponent, "add the source component to toolchain.components")
		err = zerr.With(err, "channel", s.Channel)
		return zerr.With(err, "component", entry.SourceComponent)
	}

	return nil
}

// RenderCodegen renders the codegen flags as compiler arguments in the form the
// channel expects, sorted by flag name. The result is suitable for RUSTFLAGS.
func (s ToolchainSpec) RenderCodegen(table CompatTable) string {
	prefix := FlagStable
	if entry, ok := table.Lookup(s.Channel); ok && entry.Unstable {
		prefix = FlagUnstable
	}

	parts := make([]string, 0, len(s.Codegen))
	for _, flag := range s.CodegenKeys() {
		parts = append(parts, string(prefix)+" "+flag+"="+s.Codegen[flag])
	}
	return strings.Join(parts, " ")
}

func wrapInvalid(msg, field string) error {
	return zerr.With(zerr.Wrap(ErrInvalidConfig, msg), "field", field)
}

func canonicalize(strs []string) []string {
	if len(strs) == 0 {
		return nil
	}
	res := make([]string, 0, len(strs))
	for _, s := range strs {
		if s = strings.TrimSpace(s); s != "" {
			res = append(res, s)
		}
	}
	slices.Sort(res)
	return slices.Compact(res)
}
