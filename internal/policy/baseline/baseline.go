// Package baseline implements the generic program policy, ECALL ends the test.
package baseline

import (
	"fmt"

	"github.com/retroenv/rvtestgen/internal/config"
	"github.com/retroenv/rvtestgen/internal/policy"
	"github.com/retroenv/rvtestgen/internal/riscv"
	"github.com/retroenv/rvtestgen/internal/signature"
	"github.com/retroenv/rvtestgen/internal/target"
	"github.com/retroenv/rvtestgen/internal/trap"
)

// Policy is the generic policy.
type Policy struct{}

// New returns the baseline policy.
func New() policy.Policy {
	return Policy{}
}

// Name returns the policy name.
func (Policy) Name() string {
	return policy.Baseline
}

// EffectiveConfig returns the configuration unchanged.
func (Policy) EffectiveConfig(cfg config.Config, _ target.Profile) config.Config {
	return cfg
}

// Header returns the program header.
func (Policy) Header(env policy.Env) []string {
	return policy.DefaultHeader(env)
}

// VectorTableAtHeader returns false, the trap vectors are placed with the handlers.
func (Policy) VectorTableAtHeader() bool {
	return false
}

// TestEnd loads the riscv-tests style result code into gp before the signature write,
// write_tohost stores it to tohost.
func (Policy) TestEnd(env policy.Env, result signature.Result) []string {
	code := 1
	if result == signature.TestFail {
		code = 3
	}
	instrs := []string{fmt.Sprintf("li %s, %d", riscv.GP, code)}
	return append(instrs, env.Signature.TestEnd(result)...)
}

// EcallHandler dumps the GPRs and ends the test through write_tohost.
func (Policy) EcallHandler(env policy.Env, builder *trap.Builder) []string {
	instrs := env.Signature.DumpGPRs()
	return append(instrs, builder.JumpTo(signature.WriteToHost, riscv.Zero)...)
}

// EcallReturns returns false.
func (Policy) EcallReturns() bool {
	return false
}
