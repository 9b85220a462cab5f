package program

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/retroenv/retrogolib/set"
)

var (
	// ErrUndefinedLabel is returned when an instruction references a label that is not defined.
	ErrUndefinedLabel = errors.New("undefined label")
	// ErrDuplicateLabel is returned when a label is defined more than once.
	ErrDuplicateLabel = errors.New("duplicate label")
)

// referenceOperand maps control transfer and address instructions to the operand index
// that holds the referenced label. Negative indexes count from the end of the operands.
var referenceOperand = map[string]int{
	"j":    0,
	"jal":  -1,
	"call": 0,
	"tail": 0,
	"la":   1,
	"beq":  2,
	"bne":  2,
	"blt":  2,
	"bge":  2,
	"bltu": 2,
	"bgeu": 2,
	"bgt":  2,
	"ble":  2,
	"beqz": 1,
	"bnez": 1,
	"bltz": 1,
	"bgez": 1,
	"blez": 1,
	"bgtz": 1,
}

// Validate checks that every named label is defined exactly once and that every
// referenced label is defined in the program or is one of the external symbols.
// Numeric local labels like "1:" and references like "1f" are not checked.
func (p *Program) Validate(external ...string) error {
	defined := set.New[string]()
	for _, line := range p.lines {
		if !line.IsType(LabelLine) || isLocalLabel(line.Label) {
			continue
		}
		if defined.Contains(line.Label) {
			return fmt.Errorf("%w: %s", ErrDuplicateLabel, line.Label)
		}
		defined.Add(line.Label)
	}
	for _, symbol := range external {
		defined.Add(symbol)
	}

	for _, line := range p.lines {
		if !line.IsType(InstructionLine) {
			continue
		}
		ref, ok := reference(line.Code)
		if !ok || isLocalReference(ref) {
			continue
		}
		if !defined.Contains(ref) {
			return fmt.Errorf("%w: '%s' referenced by '%s'", ErrUndefinedLabel, ref, line.Code)
		}
	}
	return nil
}

// reference returns the label operand of an instruction.
func reference(code string) (string, bool) {
	mnemonic, rest, _ := strings.Cut(code, " ")
	index, ok := referenceOperand[mnemonic]
	if !ok {
		return "", false
	}

	operands := strings.Split(rest, ",")
	if index < 0 {
		index += len(operands)
	}
	if index < 0 || index >= len(operands) {
		return "", false
	}

	ref := strings.TrimSpace(operands[index])
	// jal with a register only operand list or an offset is not a label reference
	if ref == "" || isNumber(ref) || (mnemonic == "jal" && len(operands) == 1 && isRegister(ref)) {
		return "", false
	}
	return ref, true
}

func isLocalLabel(name string) bool {
	return name != "" && isNumber(name)
}

func isLocalReference(ref string) bool {
	if len(ref) < 2 {
		return false
	}
	suffix := ref[len(ref)-1]
	return (suffix == 'f' || suffix == 'b') && isNumber(ref[:len(ref)-1])
}

func isNumber(s string) bool {
	s = strings.TrimPrefix(s, "-")
	hex := strings.HasPrefix(s, "0x")
	if hex {
		s = s[2:]
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if unicode.IsDigit(r) || (hex && strings.ContainsRune("abcdefABCDEF", r)) {
			continue
		}
		return false
	}
	return true
}

func isRegister(s string) bool {
	if len(s) < 2 || s[0] != 'x' {
		return false
	}
	return isNumber(s[1:])
}
