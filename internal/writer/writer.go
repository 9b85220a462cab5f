// Package writer implements common assembly file writing functionality.
package writer

import (
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/rvtestgen/internal/program"
)

const dataBytesPerLine = 16

// DefaultIndent is the column that instructions and directives start at.
const DefaultIndent = 18

type lineWriterFunc func(line string, byteCount int) error

// Writer implements common assembly file writing functionality.
type Writer struct {
	options Options
	writer  io.Writer
}

// Options of the writer.
type Options struct {
	Indent        int  // number of spaces in front of instructions and directives
	LabelSpacing  bool // print an empty line in front of labels that follow code
	CommentColumn int  // column that trailing comments are aligned to, 0 disables alignment
}

// DefaultOptions returns the options used for generated test files.
func DefaultOptions() Options {
	return Options{
		Indent:        DefaultIndent,
		LabelSpacing:  true,
		CommentColumn: 40,
	}
}

// New creates a new writer.
func New(writer io.Writer, options Options) *Writer {
	return &Writer{
		options: options,
		writer:  writer,
	}
}

// Write writes all lines of the program.
func (w Writer) Write(prog *program.Program) error {
	var previousLineWasLabel bool

	for i, line := range prog.Lines() {
		isLabel := line.IsType(program.LabelLine)

		// print an empty line in front of a label that follows code
		if w.options.LabelSpacing && isLabel && i > 0 && !previousLineWasLabel && !isLocal(line.Label) {
			if _, err := fmt.Fprintln(w.writer); err != nil {
				return fmt.Errorf("writing line: %w", err)
			}
		}
		previousLineWasLabel = isLabel

		if _, err := fmt.Fprintln(w.writer, w.Format(line)); err != nil {
			return fmt.Errorf("writing line %d: %w", i, err)
		}
	}
	return nil
}

// Format returns the text of a single line.
func (w Writer) Format(line program.Line) string {
	switch {
	case line.IsType(program.LabelLine):
		if line.Comment == "" {
			return line.Label + ":"
		}
		return w.withComment(line.Label+":", line.Comment)

	case line.IsType(program.CommentLine):
		return strings.Repeat(" ", w.options.Indent) + "# " + line.Comment

	default:
		code := strings.Repeat(" ", w.options.Indent) + line.Code
		if line.Comment == "" {
			return code
		}
		return w.withComment(code, line.Comment)
	}
}

func (w Writer) withComment(code, comment string) string {
	if len(code) < w.options.CommentColumn {
		return fmt.Sprintf("%-*s # %s", w.options.CommentColumn, code, comment)
	}
	return code + " # " + comment
}

// BundleDataWrites bundles writes of data bytes to print dataBytesPerLine bytes per line.
// Every line is passed to the line writer together with the number of bytes it contains.
func BundleDataWrites(data []byte, lineWriter lineWriterFunc) error {
	remaining := len(data)
	for i := 0; remaining > 0; {
		toWrite := min(remaining, dataBytesPerLine)

		buf := &strings.Builder{}
		buf.WriteString(".byte ")

		for j := range toWrite {
			if _, err := fmt.Fprintf(buf, "0x%02x, ", data[i+j]); err != nil {
				return fmt.Errorf("writing data byte: %w", err)
			}
		}

		line := strings.TrimRight(buf.String(), ", ")
		if err := lineWriter(line, toWrite); err != nil {
			return fmt.Errorf("writing data line using custom writer: %w", err)
		}

		i += toWrite
		remaining -= toWrite
	}

	return nil
}

func isLocal(label string) bool {
	for _, r := range label {
		if r < '0' || r > '9' {
			return false
		}
	}
	return label != ""
}
