// Package policy defines the hook points that shape a generated program for a target.
package policy

import (
	"github.com/retroenv/rvtestgen/internal/config"
	"github.com/retroenv/rvtestgen/internal/signature"
	"github.com/retroenv/rvtestgen/internal/target"
	"github.com/retroenv/rvtestgen/internal/trap"
)

// Names of the implemented policies.
const (
	Baseline = "baseline"
	Ibex     = "ibex"
)

// EntrySymbol is the global entry label of every program.
const EntrySymbol = "_start"

// Env is the read only environment that policy hooks are called with.
type Env struct {
	Config    *config.Config
	Profile   target.Profile
	Signature *signature.Protocol
}

// Policy defines the target specific parts of a generated program.
type Policy interface {
	// Name returns the policy name.
	Name() string
	// EffectiveConfig returns the configuration with target specific overrides applied.
	// The passed configuration is not modified, the result is validated by the caller.
	EffectiveConfig(cfg config.Config, profile target.Profile) config.Config
	// Header returns the program header lines.
	Header(env Env) []string
	// VectorTableAtHeader returns whether the trap vectors of all harts follow the header
	// instead of being placed with the trap handlers.
	VectorTableAtHeader() bool
	// TestEnd returns the end of test sequence for the result.
	TestEnd(env Env, result signature.Result) []string
	// EcallHandler returns the body of the ECALL handler of a hart.
	EcallHandler(env Env, builder *trap.Builder) []string
	// EcallReturns returns whether the ECALL handler returns to the code after the ecall.
	EcallReturns() bool
}

// DefaultHeader returns the section, entry symbol and instruction width mode directives.
func DefaultHeader(env Env) []string {
	lines := []string{
		".section .text",
		".globl " + EntrySymbol,
	}
	if !env.Config.CompressedAllowed() {
		lines = append(lines, ".option norvc;")
	}
	return lines
}
