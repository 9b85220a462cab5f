package signature

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/rvtestgen/internal/config"
	"github.com/retroenv/rvtestgen/internal/riscv"
)

func testConfig() *config.Config {
	return &config.Config{
		SignatureAddr: 0x1000,
		GPR:           [config.NumGPR]riscv.Reg{10, 11, 12, 13},
	}
}

func countEcalls(instrs []string) int {
	var count int
	for _, instr := range instrs {
		if instr == "ecall" {
			count++
		}
	}
	return count
}

func TestMessageEncode(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want uint32
	}{
		{"pass", ResultMessage(TestPass), 0x001},
		{"fail", ResultMessage(TestFail), 0x101},
		{"handling exception", StatusMessage(HandlingException), 0x800},
		{"csr dump", Message{Tag: CSRDump, Payload: uint16(riscv.Mcycle)}, 0xb0004},
		{"payload is masked", Message{Tag: CoreStatus, Payload: 0xffff}, 0xfff00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.msg.Encode()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, uint32(0), got&0xfff00000)
		})
	}
}

func TestWriteTestResult(t *testing.T) {
	p := New(testConfig(), 32)
	assert.Equal(t, uint64(0xffc), p.ControlAddress())

	want := []string{
		"li x11, 0xffc",
		"li x10, 0x1",
		"slli x10, x10, 8",
		"addi x10, x10, 0x1",
		"sw x10, 0(x11)",
		"ecall",
		"1:",
		"j 1b",
	}
	if diff := cmp.Diff(want, p.TestEnd(TestFail)); diff != "" {
		t.Errorf("test end mismatch (-want +got):\n%s", diff)
	}
}

func TestTerminalWriteHalts(t *testing.T) {
	p := New(testConfig(), 32)

	for _, result := range []Result{TestPass, TestFail} {
		instrs := p.Write(ResultMessage(result))
		assert.Equal(t, 1, countEcalls(instrs))

		// a returning ecall handler resumes at the loop, nothing after it is reachable
		ecall := len(instrs) - 3
		assert.Equal(t, "ecall", instrs[ecall])
		if diff := cmp.Diff(Halt(), instrs[ecall+1:]); diff != "" {
			t.Errorf("halt loop mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestWriteStatusIsNotTerminal(t *testing.T) {
	p := New(testConfig(), 32)

	instrs := p.Write(StatusMessage(HandlingException))
	assert.Equal(t, 0, countEcalls(instrs))
	assert.Equal(t, "li x10, 0x8", instrs[1])
	assert.Equal(t, "addi x10, x10, 0x0", instrs[3])
}

func TestTestEndBareMode(t *testing.T) {
	cfg := testConfig()
	cfg.BareProgramMode = true
	p := New(cfg, 32)

	for _, result := range []Result{TestPass, TestFail} {
		instrs := p.TestEnd(result)
		if diff := cmp.Diff([]string{"j write_tohost"}, instrs); diff != "" {
			t.Errorf("bare test end mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestDumpGPRs(t *testing.T) {
	p := New(testConfig(), 64)

	instrs := p.DumpGPRs()
	assert.Len(t, instrs, 5+32)
	assert.Equal(t, "addi x10, x10, 0x2", instrs[3])
	assert.Equal(t, "sd x0, 0(x11)", instrs[5])
	assert.Equal(t, "sd x31, 0(x11)", instrs[len(instrs)-1])
	assert.Equal(t, 0, countEcalls(instrs))
}

func TestDumpCSR(t *testing.T) {
	p := New(testConfig(), 32)

	instrs := p.DumpCSR(riscv.MhpmCounter(3))
	assert.Equal(t, "li x10, 0xb03", instrs[1])
	assert.True(t, strings.HasPrefix(instrs[5], "csrr x10, 0xb03"))
	assert.Equal(t, "sw x10, 0(x11)", instrs[6])
}
