package baseline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/rvtestgen/internal/config"
	"github.com/retroenv/rvtestgen/internal/policy"
	"github.com/retroenv/rvtestgen/internal/riscv"
	"github.com/retroenv/rvtestgen/internal/signature"
	"github.com/retroenv/rvtestgen/internal/target"
	"github.com/retroenv/rvtestgen/internal/trap"
)

func testEnv(t *testing.T, bare bool) (policy.Env, *trap.Builder) {
	t.Helper()

	profile, err := target.Builtin(target.RV32IMC)
	assert.NoError(t, err)

	cfg := &config.Config{
		NumOfHarts:             1,
		BareProgramMode:        bare,
		DisableCompressedInstr: true,
		SignatureAddr:          0x1000,
		ScratchReg:             riscv.Reg(5),
		GPR:                    [config.NumGPR]riscv.Reg{10, 11, 12, 13},
		SP:                     riscv.SP,
		TP:                     riscv.TP,
	}
	sig := signature.New(cfg, profile.XLEN())
	env := policy.Env{Config: cfg, Profile: profile, Signature: sig}
	builder := trap.NewBuilder(cfg, profile.XLEN(), profile.MaxInterruptVectorNum(), trap.MachineMode, sig, 0)
	return env, builder
}

func TestEffectiveConfigUnchanged(t *testing.T) {
	cfg := config.Config{Seed: 3, MstatusMXR: true, CheckXStatus: true}
	assert.Equal(t, cfg, New().EffectiveConfig(cfg, nil))
}

func TestEcallHandlerEndsTest(t *testing.T) {
	env, builder := testEnv(t, false)
	p := New()
	assert.False(t, p.EcallReturns())
	assert.False(t, p.VectorTableAtHeader())

	instrs := p.EcallHandler(env, builder)
	want := []string{"la x5, write_tohost", "jalr x0, x5, 0"}
	if diff := cmp.Diff(want, instrs[len(instrs)-2:]); diff != "" {
		t.Errorf("ecall handler end mismatch (-want +got):\n%s", diff)
	}
}

func TestTestEnd(t *testing.T) {
	env, _ := testEnv(t, false)
	p := New()

	pass := p.TestEnd(env, signature.TestPass)
	assert.Equal(t, "li x3, 1", pass[0])
	assert.Equal(t, "ecall", pass[len(pass)-3])
	assert.Equal(t, "j 1b", pass[len(pass)-1])

	fail := p.TestEnd(env, signature.TestFail)
	assert.Equal(t, "li x3, 3", fail[0])

	bareEnv, _ := testEnv(t, true)
	bare := p.TestEnd(bareEnv, signature.TestPass)
	if diff := cmp.Diff([]string{"li x3, 1", "j write_tohost"}, bare); diff != "" {
		t.Errorf("bare test end mismatch (-want +got):\n%s", diff)
	}
}

func TestHeaderWithoutCompressed(t *testing.T) {
	env, _ := testEnv(t, false)
	want := []string{".section .text", ".globl _start", ".option norvc;"}
	if diff := cmp.Diff(want, New().Header(env)); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
}
