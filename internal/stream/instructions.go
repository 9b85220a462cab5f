package stream

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/retroenv/rvtestgen/internal/riscv"
)

type format uint8

const (
	formatR     format = iota // rd, rs1, rs2
	formatI                   // rd, rs1, imm12
	formatShift               // rd, rs1, shamt
	formatU                   // rd, imm20
)

type instruction struct {
	name   string
	group  riscv.InstrGroup
	format format
}

var instructions = []instruction{
	{"add", riscv.RV32I, formatR},
	{"sub", riscv.RV32I, formatR},
	{"and", riscv.RV32I, formatR},
	{"or", riscv.RV32I, formatR},
	{"xor", riscv.RV32I, formatR},
	{"sll", riscv.RV32I, formatR},
	{"srl", riscv.RV32I, formatR},
	{"sra", riscv.RV32I, formatR},
	{"slt", riscv.RV32I, formatR},
	{"sltu", riscv.RV32I, formatR},
	{"addi", riscv.RV32I, formatI},
	{"andi", riscv.RV32I, formatI},
	{"ori", riscv.RV32I, formatI},
	{"xori", riscv.RV32I, formatI},
	{"slti", riscv.RV32I, formatI},
	{"sltiu", riscv.RV32I, formatI},
	{"slli", riscv.RV32I, formatShift},
	{"srli", riscv.RV32I, formatShift},
	{"srai", riscv.RV32I, formatShift},
	{"lui", riscv.RV32I, formatU},
	{"auipc", riscv.RV32I, formatU},

	{"mul", riscv.RV32M, formatR},
	{"mulh", riscv.RV32M, formatR},
	{"mulhsu", riscv.RV32M, formatR},
	{"mulhu", riscv.RV32M, formatR},
	{"div", riscv.RV32M, formatR},
	{"divu", riscv.RV32M, formatR},
	{"rem", riscv.RV32M, formatR},
	{"remu", riscv.RV32M, formatR},

	{"addw", riscv.RV64I, formatR},
	{"subw", riscv.RV64I, formatR},
	{"sllw", riscv.RV64I, formatR},
	{"srlw", riscv.RV64I, formatR},
	{"sraw", riscv.RV64I, formatR},
	{"addiw", riscv.RV64I, formatI},
	{"slliw", riscv.RV64I, formatShift},
	{"srliw", riscv.RV64I, formatShift},
	{"sraiw", riscv.RV64I, formatShift},

	{"mulw", riscv.RV64M, formatR},
	{"divw", riscv.RV64M, formatR},
	{"divuw", riscv.RV64M, formatR},
	{"remw", riscv.RV64M, formatR},
	{"remuw", riscv.RV64M, formatR},
}

var branches = []string{"beq", "bne", "blt", "bge", "bltu", "bgeu"}

// memoryAccess is a load or store of the given width in bytes.
type memoryAccess struct {
	load  string
	store string
	width int
	group riscv.InstrGroup
}

var memoryAccesses = []memoryAccess{
	{"lb", "sb", 1, riscv.RV32I},
	{"lbu", "sb", 1, riscv.RV32I},
	{"lh", "sh", 2, riscv.RV32I},
	{"lhu", "sh", 2, riscv.RV32I},
	{"lw", "sw", 4, riscv.RV32I},
	{"lwu", "sw", 4, riscv.RV64I},
	{"ld", "sd", 8, riscv.RV64I},
}

// supported returns the instructions of all groups that the predicate accepts.
func supported(accepts func(riscv.InstrGroup) bool) []instruction {
	var result []instruction
	for _, ins := range instructions {
		if accepts(ins.group) {
			result = append(result, ins)
		}
	}
	return result
}

// render formats the instruction with random operands. Only registers of dest are
// written, any register can be read.
func (ins instruction) render(rng *rand.Rand, xlen int, dest []riscv.Reg) string {
	rd := dest[rng.Intn(len(dest))]
	rs1 := riscv.Reg(rng.Intn(riscv.NumGPR))

	switch ins.format {
	case formatR:
		rs2 := riscv.Reg(rng.Intn(riscv.NumGPR))
		return fmt.Sprintf("%s %s, %s, %s", ins.name, rd, rs1, rs2)

	case formatI:
		imm := rng.Intn(4096) - 2048
		return fmt.Sprintf("%s %s, %s, %d", ins.name, rd, rs1, imm)

	case formatShift:
		limit := xlen
		if strings.HasSuffix(ins.name, "w") {
			limit = 32
		}
		return fmt.Sprintf("%s %s, %s, %d", ins.name, rd, rs1, rng.Intn(limit))

	default:
		return fmt.Sprintf("%s %s, 0x%x", ins.name, rd, rng.Intn(1<<20))
	}
}
