// Package ibex implements the program policy of the Ibex core. ECALL is used as a mid
// test checkpoint that dumps the performance counters and registers and returns.
package ibex

import (
	"math/rand"

	"github.com/retroenv/rvtestgen/internal/config"
	"github.com/retroenv/rvtestgen/internal/policy"
	"github.com/retroenv/rvtestgen/internal/signature"
	"github.com/retroenv/rvtestgen/internal/target"
	"github.com/retroenv/rvtestgen/internal/trap"
)

// Policy of the Ibex core.
type Policy struct{}

// New returns the Ibex policy.
func New() policy.Policy {
	return Policy{}
}

// Name returns the policy name.
func (Policy) Name() string {
	return policy.Ibex
}

// EffectiveConfig applies the Ibex overrides. A requested mstatus.mprv is drawn from the
// seed, the remaining mstatus fields and the status checks are not supported by the
// co-simulation flow and are disabled.
func (Policy) EffectiveConfig(cfg config.Config, _ target.Profile) config.Config {
	if cfg.MstatusMPRV {
		rng := rand.New(rand.NewSource(cfg.Seed))
		cfg.MstatusMPRV = rng.Intn(2) == 1
	}
	cfg.MstatusMXR = false
	cfg.MstatusSUM = false
	cfg.MstatusTVM = false
	cfg.CheckXStatus = false
	cfg.CheckMisaInitVal = false
	return cfg
}

// Header returns the program header.
func (Policy) Header(env policy.Env) []string {
	return policy.DefaultHeader(env)
}

// VectorTableAtHeader returns true, the trap vectors follow the header.
func (Policy) VectorTableAtHeader() bool {
	return true
}

// TestEnd writes the test result to the signature address.
func (Policy) TestEnd(env policy.Env, result signature.Result) []string {
	return env.Signature.TestEnd(result)
}

// EcallHandler dumps the performance counters and GPRs, skips the ecall and returns.
func (Policy) EcallHandler(env policy.Env, builder *trap.Builder) []string {
	var instrs []string
	for _, counter := range env.Profile.PerfCounters() {
		instrs = append(instrs, env.Signature.DumpCSR(counter)...)
	}
	instrs = append(instrs, env.Signature.DumpGPRs()...)
	return append(instrs, builder.ReturnAfterTrap()...)
}

// EcallReturns returns true.
func (Policy) EcallReturns() bool {
	return true
}
