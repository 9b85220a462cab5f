package asmgen

import (
	"github.com/retroenv/rvtestgen/internal/riscv"
)

// Sequence is a labeled instruction sequence of a main or sub program.
type Sequence struct {
	Label string
	Lines []string
}

// SequenceOptions defines the sequence that an instruction source generates.
type SequenceOptions struct {
	Hart     int
	Label    string
	Count    int  // number of instructions
	Main     bool // main program, sub programs end with a return
	NoBranch bool
	Reserved []riscv.Reg // registers that must not be written
}

// DirectedOptions selects the directed instruction streams inserted into a main program.
type DirectedOptions struct {
	Hart       int
	Ecall      bool   // insert an ECALL checkpoint, only valid if the ECALL handler returns
	DataRegion string // label of a data region for a load and store stream, empty disables it
	Reserved   []riscv.Reg
}

// PageTableOptions defines the page tables that a data source generates.
type PageTableOptions struct {
	Prefix   string // hart label prefix
	SatpMode riscv.SatpMode
	XLEN     int
	User     bool // mark pages as accessible from user mode
}

// InstructionSource produces the randomized instruction sequences.
type InstructionSource interface {
	// Sequence returns a new instruction sequence.
	Sequence(opts SequenceOptions) (Sequence, error)
	// InsertDirected inserts directed instruction streams at random positions.
	InsertDirected(seq *Sequence, opts DirectedOptions) error
}

// CallStack wires sub programs into a call graph.
type CallStack interface {
	// Connect inserts calls into the main program and the sub programs. The call graph
	// has no cycles and every sub program returns to its caller.
	Connect(main *Sequence, subs []Sequence) error
}

// DataSource produces data pages and page tables.
type DataSource interface {
	// DataPage returns a labeled data region of the given size.
	DataPage(label string, size int) []string
	// PageTables returns the labeled page tables, the root table is page_table_0.
	PageTables(opts PageTableOptions) []string
}

// Collaborators bundles the external producers of program content.
type Collaborators struct {
	Instructions InstructionSource
	CallStack    CallStack
	Data         DataSource
}
