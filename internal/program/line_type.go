package program

// LineType defines the type of a program line.
type LineType uint8

// line types.
const (
	UnknownLine     LineType = 0
	LabelLine       LineType = 1 << iota
	DirectiveLine            // assembler directive like .section or .align
	InstructionLine          // instruction or pseudo instruction
	DataLine                 // data directive like .4byte or .byte
	CommentLine
)

// IsType returns whether the line is of given type.
func (l *Line) IsType(typ LineType) bool {
	return l.Type&typ != 0
}

// SetType sets the type of the line.
func (l *Line) SetType(typ LineType) {
	l.Type |= typ
}

// ClearType unsets the type of the line.
func (l *Line) ClearType(typ LineType) {
	mask := ^(typ)
	l.Type &= mask
}
