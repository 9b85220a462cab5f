// Package program represents a generated RISC-V assembly test program.
package program

import (
	"fmt"
	"strings"
)

// Line defines one line of a program that can represent a label, directive, instruction or data.
type Line struct {
	Type LineType

	Label   string // name of the label if the line defines one
	Code    string // directive, instruction or data text
	Comment string
}

// Program is the ordered line buffer of one generated test program.
// It is rebuilt from empty for every generation pass and is not safe for concurrent use.
type Program struct {
	lines []Line
}

// New creates a new empty program.
func New() *Program {
	return &Program{}
}

// HartPrefix returns the label prefix of a hart. Programs with a single hart use
// unprefixed labels.
func HartPrefix(hart, numHarts int) string {
	if numHarts <= 1 {
		return ""
	}
	return fmt.Sprintf("h%d_", hart)
}

// Label returns the hart specific name of a label.
func Label(name string, hart, numHarts int) string {
	return HartPrefix(hart, numHarts) + name
}

// ParseLine classifies an assembly text line. A trailing "# comment" is split off.
func ParseLine(s string) Line {
	var line Line
	code := strings.TrimSpace(s)
	if idx := strings.Index(code, "#"); idx >= 0 {
		line.Comment = strings.TrimSpace(code[idx+1:])
		code = strings.TrimSpace(code[:idx])
	}

	switch {
	case code == "":
		line.SetType(CommentLine)
	case strings.HasSuffix(code, ":") && !strings.ContainsAny(code, " \t,"):
		line.SetType(LabelLine)
		line.Label = strings.TrimSuffix(code, ":")
	case isDataDirective(code):
		line.SetType(DataLine)
		line.Code = code
	case strings.HasPrefix(code, "."):
		line.SetType(DirectiveLine)
		line.Code = code
	default:
		line.SetType(InstructionLine)
		line.Code = code
	}
	return line
}

func isDataDirective(code string) bool {
	for _, prefix := range []string{".byte", ".2byte", ".4byte", ".8byte", ".dword", ".word", ".zero", ".space"} {
		if code == prefix || strings.HasPrefix(code, prefix+" ") {
			return true
		}
	}
	return false
}

// Add parses and appends text lines.
func (p *Program) Add(lines ...string) {
	for _, s := range lines {
		p.lines = append(p.lines, ParseLine(s))
	}
}

// AddLabel appends a label definition.
func (p *Program) AddLabel(name string) {
	p.lines = append(p.lines, Line{Type: LabelLine, Label: name})
}

// AddLabeled appends a label definition followed by the text lines.
func (p *Program) AddLabeled(name string, lines ...string) {
	p.AddLabel(name)
	p.Add(lines...)
}

// Lines returns all lines of the program.
func (p *Program) Lines() []Line {
	return p.lines
}

// Len returns the number of lines in the program.
func (p *Program) Len() int {
	return len(p.lines)
}

// LabelIndex returns the line index of the label definition or -1 if the label is not defined.
func (p *Program) LabelIndex(name string) int {
	for i, line := range p.lines {
		if line.IsType(LabelLine) && line.Label == name {
			return i
		}
	}
	return -1
}

// Count returns the number of lines whose code equals the given text.
func (p *Program) Count(code string) int {
	var count int
	for _, line := range p.lines {
		if line.Code == code {
			count++
		}
	}
	return count
}
