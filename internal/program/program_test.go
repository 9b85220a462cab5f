package program

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestLine_IsType(t *testing.T) {
	line := &Line{}

	line.SetType(LabelLine)
	assert.True(t, line.IsType(LabelLine))
	assert.False(t, line.IsType(InstructionLine))

	line.SetType(InstructionLine)
	assert.True(t, line.IsType(LabelLine|InstructionLine))

	line.ClearType(LabelLine)
	assert.False(t, line.IsType(LabelLine))
	assert.True(t, line.IsType(InstructionLine))
}

func TestHartPrefix(t *testing.T) {
	assert.Equal(t, "", HartPrefix(0, 1))
	assert.Equal(t, "h0_", HartPrefix(0, 2))
	assert.Equal(t, "h1_main", Label("main", 1, 2))
	assert.Equal(t, "main", Label("main", 0, 1))
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		input   string
		typ     LineType
		label   string
		code    string
		comment string
	}{
		{"_start:", LabelLine, "_start", "", ""},
		{"1:", LabelLine, "1", "", ""},
		{".section .text", DirectiveLine, "", ".section .text", ""},
		{".4byte 0x12345678", DataLine, "", ".4byte 0x12345678", ""},
		{"  addi x1, x2, 3", InstructionLine, "", "addi x1, x2, 3", ""},
		{"csrr x10, 0x342 # MCAUSE", InstructionLine, "", "csrr x10, 0x342", "MCAUSE"},
		{"# only a comment", CommentLine, "", "", "only a comment"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			line := ParseLine(tt.input)
			assert.Equal(t, tt.typ, line.Type)
			assert.Equal(t, tt.label, line.Label)
			assert.Equal(t, tt.code, line.Code)
			assert.Equal(t, tt.comment, line.Comment)
		})
	}
}

func TestProgramLabels(t *testing.T) {
	p := New()
	p.Add(".section .text")
	p.AddLabeled("main", "addi x1, x1, 1", "j main")

	assert.Equal(t, 4, p.Len())
	assert.Equal(t, 1, p.LabelIndex("main"))
	assert.Equal(t, -1, p.LabelIndex("missing"))
	assert.Equal(t, 1, p.Count("j main"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		external []string
		err      error
	}{
		{
			name:  "resolved references",
			lines: []string{"main:", "beq x1, x2, done", "jal x1, sub_1", "la x5, main", "j done", "sub_1:", "jalr x0, x1, 0", "done:", "nop"},
		},
		{
			name:  "local labels are not checked",
			lines: []string{"1:", "bne x1, x2, 1b", "beqz x3, 2f", "2:", "1:", "jal x1"},
		},
		{
			name:  "numeric offsets are not references",
			lines: []string{"jal x0, 8", "beq x1, x2, -4"},
		},
		{
			name:  "undefined jump target",
			lines: []string{"main:", "j missing"},
			err:   ErrUndefinedLabel,
		},
		{
			name:  "undefined branch target",
			lines: []string{"main:", "bltu x1, x2, nowhere"},
			err:   ErrUndefinedLabel,
		},
		{
			name:     "external symbol",
			lines:    []string{"main:", "la x5, tohost"},
			external: []string{"tohost"},
		},
		{
			name:  "duplicate label",
			lines: []string{"main:", "nop", "main:"},
			err:   ErrDuplicateLabel,
		},
		{
			name:  "label named like hex digits",
			lines: []string{"face:", "j face", "j bad"},
			err:   ErrUndefinedLabel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			p.Add(tt.lines...)

			err := p.Validate(tt.external...)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.err))
		})
	}
}
