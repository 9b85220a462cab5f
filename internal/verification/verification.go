// Package verification verifies that a generated test file is accepted by a RISC-V assembler.
package verification

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/rvtestgen/internal/riscv"
	"github.com/retroenv/rvtestgen/internal/target"
)

// DefaultAssembler is the name of the external assembler used when none is configured.
const DefaultAssembler = "riscv64-unknown-elf-as"

// extensions lists the single letter extensions in canonical ISA string order.
var extensions = []struct {
	letter string
	groups []riscv.InstrGroup
}{
	{"m", []riscv.InstrGroup{riscv.RV32M, riscv.RV64M}},
	{"a", []riscv.InstrGroup{riscv.RV32A, riscv.RV64A}},
	{"f", []riscv.InstrGroup{riscv.RV32F, riscv.RV64F}},
	{"d", []riscv.InstrGroup{riscv.RV32D, riscv.RV64D}},
	{"c", []riscv.InstrGroup{riscv.RV32C, riscv.RV64C}},
	{"b", []riscv.InstrGroup{riscv.RV32B, riscv.RV64B}},
}

// March returns the -march value for the instruction groups of the profile. The CSR
// and fence.i extensions are always included.
func March(profile target.Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "rv%di", profile.XLEN())

	for _, ext := range extensions {
		for _, group := range ext.groups {
			if profile.SupportsGroup(group) {
				sb.WriteString(ext.letter)
				break
			}
		}
	}

	sb.WriteString("_zicsr_zifencei")
	return sb.String()
}

// Options configures the verification.
type Options struct {
	Assembler string // assembler executable, DefaultAssembler if empty
	Debug     bool   // keep the object file next to the source file
}

// VerifyOutput assembles the given source file with the external assembler.
func VerifyOutput(ctx context.Context, logger *log.Logger, file string, profile target.Profile, opts Options) error {
	if file == "" {
		return errors.New("missing file to verify")
	}

	var objectFile string
	if opts.Debug {
		objectFile = strings.TrimSuffix(file, ".S") + ".o"
	} else {
		tmp, err := os.CreateTemp("", "rvtestgen.*.o")
		if err != nil {
			return fmt.Errorf("creating temp file: %w", err)
		}
		objectFile = tmp.Name()
		_ = tmp.Close()
		defer func() {
			_ = os.Remove(objectFile)
		}()
	}

	march := March(profile)
	if err := assembleUsingExternalApp(ctx, opts.Assembler, march, file, objectFile); err != nil {
		return fmt.Errorf("assembling %s failed: %w", file, err)
	}

	info, err := os.Stat(objectFile)
	if err != nil {
		return fmt.Errorf("reading object file: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("assembler created an empty object file for %s", file)
	}

	logger.Debug("Verified test",
		log.String("file", file),
		log.String("march", march),
	)
	return nil
}

func assembleUsingExternalApp(ctx context.Context, assembler, march, asmFile, objectFile string) error {
	if assembler == "" {
		assembler = DefaultAssembler
	}
	if runtime.GOOS == "windows" && !strings.HasSuffix(assembler, ".exe") {
		assembler += ".exe"
	}

	if _, err := exec.LookPath(assembler); err != nil {
		return fmt.Errorf("%s is not installed", assembler)
	}

	cmd := exec.CommandContext(ctx, assembler, "-march="+march, asmFile, "-o", objectFile)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("assembling file: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}
