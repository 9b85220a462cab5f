package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/rvtestgen/internal/options"
	"github.com/retroenv/rvtestgen/internal/riscv"
	"github.com/retroenv/rvtestgen/internal/target"
)

func testOptions() options.Program {
	return options.Program{Generation: options.NewGeneration()}
}

func ibex(t *testing.T) target.Profile {
	t.Helper()
	profile, err := target.Builtin(target.Ibex)
	assert.NoError(t, err)
	return profile
}

func TestDeriveIsReproducible(t *testing.T) {
	profile := ibex(t)
	opts := testOptions()
	opts.Generation.MtvecMode = ""

	first, err := Derive(opts, profile, 1234)
	assert.NoError(t, err)
	second, err := Derive(opts, profile, 1234)
	assert.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1234), first.Seed)
}

func TestDeriveRegisters(t *testing.T) {
	profile := ibex(t)

	for seed := int64(0); seed < 50; seed++ {
		cfg, err := Derive(testOptions(), profile, seed)
		assert.NoError(t, err)

		used := append([]riscv.Reg{cfg.SP, cfg.TP, cfg.ScratchReg}, cfg.GPR[:]...)
		for i, reg := range used {
			assert.False(t, slices.Contains(used[:i], reg), "register assigned twice")
			assert.True(t, reg != riscv.Zero && reg != riscv.RA && reg != riscv.GP)
		}
	}
}

func TestDeriveFixSP(t *testing.T) {
	opts := testOptions()
	opts.Generation.FixSP = true

	cfg, err := Derive(opts, ibex(t), 7)
	assert.NoError(t, err)
	assert.Equal(t, riscv.SP, cfg.SP)
	assert.Equal(t, riscv.TP, cfg.TP)
}

func TestDeriveModes(t *testing.T) {
	profile := ibex(t)

	opts := testOptions()
	opts.Generation.MtvecMode = "vectored"
	cfg, err := Derive(opts, profile, 1)
	assert.NoError(t, err)
	assert.Equal(t, riscv.Vectored, cfg.MtvecMode)
	assert.Equal(t, 7, cfg.TvecAlignment)
	assert.False(t, cfg.SupportPMP)

	opts.Generation.MtvecMode = "direct"
	cfg, err = Derive(opts, profile, 1)
	assert.NoError(t, err)
	assert.Equal(t, 2, cfg.TvecAlignment)
}

func TestDerivePMP(t *testing.T) {
	pmpProfile, err := target.Builtin(target.IbexPMP)
	assert.NoError(t, err)

	cfg, err := Derive(testOptions(), pmpProfile, 1)
	assert.NoError(t, err)
	assert.True(t, cfg.SupportPMP)

	opts := testOptions()
	opts.Generation.PMP = options.PMPOff
	cfg, err = Derive(opts, pmpProfile, 1)
	assert.NoError(t, err)
	assert.False(t, cfg.SupportPMP)

	opts.Generation.PMP = options.PMPOn
	_, err = Derive(opts, ibex(t), 1)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.ErrorContains(t, err, "does not implement PMP")
}

func TestValidateCounts(t *testing.T) {
	tests := []struct {
		name   string
		modify func(gen *options.Generation)
		want   string
	}{
		{"zero harts", func(gen *options.Generation) { gen.NumOfHarts = 0 }, "hart count"},
		{"too many harts", func(gen *options.Generation) { gen.NumOfHarts = 2 }, "exceeds"},
		{"negative instructions", func(gen *options.Generation) { gen.MainProgramInstrCnt = -1 }, "main program instruction"},
		{"zero sub programs", func(gen *options.Generation) { gen.NumOfSubProgram = 0 }, "sub program count"},
		{"unaligned signature", func(gen *options.Generation) { gen.SignatureAddr = 0x1002 }, "signature address"},
		{"unsupported mode", func(gen *options.Generation) { gen.InitPrivilegedMode = "supervisor" }, "not supported"},
		{"bad mtvec", func(gen *options.Generation) { gen.MtvecMode = "clic" }, "unsupported mtvec mode"},
		{"short kernel stack", func(gen *options.Generation) { gen.KernelStackLen = 31 }, "kernel stack length 31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.modify(&opts.Generation)

			_, err := Derive(opts, ibex(t), 1)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestValidateKernelStack(t *testing.T) {
	opts := testOptions()
	opts.Generation.KernelStackLen = riscv.NumGPR
	_, err := Derive(opts, ibex(t), 1)
	assert.NoError(t, err)

	// bare programs do not have trap handlers
	opts.Generation.KernelStackLen = 1
	opts.Generation.BareProgramMode = true
	_, err = Derive(opts, ibex(t), 1)
	assert.NoError(t, err)
}

func TestValidateUnsetPrivilegedMode(t *testing.T) {
	cfg, err := Derive(testOptions(), ibex(t), 1)
	assert.NoError(t, err)

	cfg.InitPrivilegedMode = riscv.UnsetMode
	assert.ErrorContains(t, cfg.Validate(ibex(t)), "privileged mode")
}

func TestValidateRegisters(t *testing.T) {
	cfg, err := Derive(testOptions(), ibex(t), 3)
	assert.NoError(t, err)

	clash := cfg
	clash.GPR[1] = clash.GPR[0]
	assert.ErrorContains(t, clash.Validate(ibex(t)), "assigned twice")

	clash = cfg
	clash.ScratchReg = riscv.GP
	assert.ErrorContains(t, clash.Validate(ibex(t)), "can not be reserved")

	clash = cfg
	clash.GPR[2] = clash.SP
	assert.ErrorContains(t, clash.Validate(ibex(t)), "reserved register")
}

func TestLoadFile(t *testing.T) {
	content := "num_of_harts: 1\nbare_program_mode: true\nmain_program_instr_cnt: 42\nsignature_addr: 0x1000\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	gen := options.NewGeneration()
	assert.NoError(t, LoadFile(path, &gen))
	assert.True(t, gen.BareProgramMode)
	assert.Equal(t, 42, gen.MainProgramInstrCnt)
	assert.Equal(t, uint64(0x1000), gen.SignatureAddr)
	assert.Equal(t, 5, gen.NumOfSubProgram)
}

func TestCreateLogger(t *testing.T) {
	assert.NotNil(t, CreateLogger(true, false))
	assert.NotNil(t, CreateLogger(false, true))
}
