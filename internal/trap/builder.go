package trap

import (
	"fmt"

	"github.com/retroenv/rvtestgen/internal/config"
	"github.com/retroenv/rvtestgen/internal/program"
	"github.com/retroenv/rvtestgen/internal/riscv"
	"github.com/retroenv/rvtestgen/internal/signature"
)

// Labels that do not carry a hart prefix, they are defined once per program.
const (
	TestDone = "test_done"
	TestFail = "test_fail"
)

// Section is a labeled block of handler code.
type Section struct {
	Label  string
	Instrs []string
}

// Builder builds the trap handling code of one hart for one privileged mode.
type Builder struct {
	cfg       *config.Config
	xlen      int
	vectors   int
	spec      HandlerSpec
	signature *signature.Protocol
	prefix    string
}

// NewBuilder returns a trap handler builder for the hart. maxVectors is the number of
// trap vector table entries of the target.
func NewBuilder(cfg *config.Config, xlen, maxVectors int, spec HandlerSpec, sig *signature.Protocol, hart int) *Builder {
	return &Builder{
		cfg:       cfg,
		xlen:      xlen,
		vectors:   maxVectors,
		spec:      spec,
		signature: sig,
		prefix:    program.HartPrefix(hart, cfg.NumOfHarts),
	}
}

// Spec returns the handler spec the builder uses.
func (b *Builder) Spec() HandlerSpec {
	return b.spec
}

// Label returns the hart specific name of a handler label.
func (b *Builder) Label(name string) string {
	return b.prefix + name
}

// TvecLabel returns the hart specific trap vector label.
func (b *Builder) TvecLabel() string {
	return b.Label(b.spec.TvecLabel())
}

// ExceptionHandlerLabel returns the hart specific exception dispatch label.
func (b *Builder) ExceptionHandlerLabel() string {
	return b.Label(b.spec.Tag() + "_exception_handler")
}

// InterruptHandlerLabel returns the hart specific interrupt handler label.
func (b *Builder) InterruptHandlerLabel() string {
	return b.Label(b.spec.Tag() + "_intr_handler")
}

// InterruptVectorLabel returns the hart specific label of an interrupt vector entry.
func (b *Builder) InterruptVectorLabel(vector int) string {
	return b.Label(fmt.Sprintf("%s_intr_vector_%d", b.spec.Tag(), vector))
}

// Handler labels that the dispatch and the vector table reference.
const (
	EcallHandler        = "ecall_handler"
	EbreakHandler       = "ebreak_handler"
	IllegalInstrHandler = "illegal_instr_handler"
	InstrFaultHandler   = "instr_fault_handler"
	LoadFaultHandler    = "load_fault_handler"
	StoreFaultHandler   = "store_fault_handler"
)

// Push returns the instructions that save the GPRs to the kernel stack.
func (b *Builder) Push() []string {
	return PushGPR(b.cfg, b.xlen, b.spec)
}

// Pop returns the instructions that restore the GPRs from the kernel stack.
func (b *Builder) Pop() []string {
	return PopGPR(b.cfg, b.xlen, b.spec)
}

// Tvec returns the code at the trap vector base address.
// In vectored mode this is a jump table of one exception slot followed by one slot per
// interrupt vector. Every slot target saves the GPRs itself. In direct mode the entry
// saves the GPRs and separates interrupts from exceptions by the top bit of the cause.
func (b *Builder) Tvec() Section {
	if b.cfg.MtvecMode == riscv.Vectored {
		return Section{Label: b.TvecLabel(), Instrs: b.vectorTable()}
	}

	g0 := b.cfg.GPR[0]
	instrs := b.Push()
	if b.cfg.CheckXStatus {
		instrs = append(instrs, riscv.CSRRead(g0, b.spec.Status))
	}
	instrs = append(instrs,
		riscv.CSRRead(g0, b.spec.Cause),
		fmt.Sprintf("srli %s, %s, %d", g0, g0, b.xlen-1),
	)
	instrs = append(instrs, BranchFar("bne", g0, riscv.Zero, b.InterruptHandlerLabel())...)
	instrs = append(instrs, "j "+b.ExceptionHandlerLabel())
	return Section{Label: b.TvecLabel(), Instrs: instrs}
}

func (b *Builder) vectorTable() []string {
	instrs := []string{
		".option norvc;",
		"j " + b.ExceptionHandlerLabel(),
	}
	for i := 1; i < b.vectors; i++ {
		instrs = append(instrs, "j "+b.InterruptVectorLabel(i))
	}
	if b.cfg.CompressedAllowed() {
		instrs = append(instrs, ".option rvc;")
	}
	return instrs
}

// DispatchCauses returns the exception causes that the dispatch checks, in priority order.
func (b *Builder) DispatchCauses() []riscv.ExceptionCause {
	causes := []riscv.ExceptionCause{riscv.EcallMmode}
	switch b.cfg.InitPrivilegedMode {
	case riscv.SupervisorMode:
		causes = append(causes, riscv.EcallSmode)
	case riscv.UserMode:
		causes = append(causes, riscv.EcallUmode)
	}
	return append(causes, riscv.IllegalInstruction, riscv.Breakpoint)
}

func (b *Builder) dispatchTarget(cause riscv.ExceptionCause) string {
	switch cause {
	case riscv.IllegalInstruction:
		return b.Label(IllegalInstrHandler)
	case riscv.Breakpoint:
		return b.Label(EbreakHandler)
	default:
		return b.Label(EcallHandler)
	}
}

var invertedBranch = map[string]string{
	"beq": "bne", "bne": "beq",
	"blt": "bge", "bge": "blt",
	"bltu": "bgeu", "bgeu": "bltu",
}

// BranchFar returns a branch to a label that can be out of the range of a conditional
// branch. The inverted condition skips an unconditional jump to the label.
func BranchFar(cond string, rs1, rs2 riscv.Reg, label string) []string {
	return []string{
		fmt.Sprintf("%s %s, %s, 1f", invertedBranch[cond], rs1, rs2),
		"j " + label,
		"1:",
	}
}

// ExceptionHandler returns the exception dispatch. The cause is compared against the
// known causes and the first match branches to its handler. An unmatched cause jumps
// to test_done, the fault handlers are not reachable from the dispatch.
func (b *Builder) ExceptionHandler() Section {
	g0, g1 := b.cfg.GPR[0], b.cfg.GPR[1]

	var instrs []string
	if b.cfg.MtvecMode == riscv.Vectored {
		instrs = b.Push()
		if b.cfg.CheckXStatus {
			instrs = append(instrs, riscv.CSRRead(g0, b.spec.Status))
		}
	}

	instrs = append(instrs, b.signature.Write(signature.StatusMessage(signature.HandlingException))...)
	instrs = append(instrs,
		riscv.CSRRead(g0, b.spec.Epc),
		riscv.CSRRead(g0, b.spec.Cause),
	)
	for _, cause := range b.DispatchCauses() {
		instrs = append(instrs, fmt.Sprintf("li %s, 0x%x # %s", g1, uint8(cause), cause))
		instrs = append(instrs, BranchFar("beq", g0, g1, b.dispatchTarget(cause))...)
	}
	instrs = append(instrs, riscv.CSRRead(g1, b.spec.Tval))
	instrs = append(instrs, b.JumpTo(TestDone, riscv.RA)...)
	return Section{Label: b.ExceptionHandlerLabel(), Instrs: instrs}
}

// JumpTo returns a register indirect jump to a label, which reaches labels outside of the
// range of a direct jump. rd receives the return address.
func (b *Builder) JumpTo(label string, rd riscv.Reg) []string {
	return []string{
		fmt.Sprintf("la %s, %s", b.cfg.ScratchReg, label),
		fmt.Sprintf("jalr %s, %s, 0", rd, b.cfg.ScratchReg),
	}
}

// InterruptHandler returns the interrupt handler, it disables the pending and enabled
// interrupts and returns to the interrupted code.
func (b *Builder) InterruptHandler() Section {
	g0, g1 := b.cfg.GPR[0], b.cfg.GPR[1]

	instrs := b.signature.Write(signature.StatusMessage(signature.HandlingIRQ))
	instrs = append(instrs,
		riscv.CSRRead(g0, b.spec.IP),
		riscv.CSRRead(g1, b.spec.IE),
		fmt.Sprintf("and %s, %s, %s", g0, g0, g1),
		riscv.CSRClear(riscv.Zero, b.spec.IE, g0),
	)
	instrs = append(instrs, b.signature.Write(signature.StatusMessage(signature.FinishedIRQ))...)
	instrs = append(instrs, b.Pop()...)
	instrs = append(instrs, b.spec.ReturnInstr())
	return Section{Label: b.InterruptHandlerLabel(), Instrs: instrs}
}

// InterruptVectors returns one entry per interrupt vector slot, each saves the GPRs and
// joins the interrupt handler. Direct mode does not have vector entries.
func (b *Builder) InterruptVectors() []Section {
	if b.cfg.MtvecMode != riscv.Vectored {
		return nil
	}

	sections := make([]Section, 0, b.vectors-1)
	for i := 1; i < b.vectors; i++ {
		instrs := b.Push()
		instrs = append(instrs, "j "+b.InterruptHandlerLabel())
		sections = append(sections, Section{Label: b.InterruptVectorLabel(i), Instrs: instrs})
	}
	return sections
}

// EcallHandler returns the ECALL handler with a policy supplied body.
func (b *Builder) EcallHandler(body []string) Section {
	return Section{Label: b.Label(EcallHandler), Instrs: body}
}

// ReturnAfterTrap returns the instructions that skip the trapping instruction, restore the
// GPRs and return from the trap.
func (b *Builder) ReturnAfterTrap() []string {
	g0 := b.cfg.GPR[0]
	instrs := []string{
		riscv.CSRRead(g0, b.spec.Epc),
		fmt.Sprintf("addi %s, %s, 4", g0, g0),
		riscv.CSRWrite(b.spec.Epc, g0),
	}
	instrs = append(instrs, b.Pop()...)
	return append(instrs, b.spec.ReturnInstr())
}

// EbreakHandler returns the breakpoint handler, it continues after the ebreak.
func (b *Builder) EbreakHandler() Section {
	instrs := b.signature.Write(signature.StatusMessage(signature.EbreakException))
	instrs = append(instrs, b.ReturnAfterTrap()...)
	return Section{Label: b.Label(EbreakHandler), Instrs: instrs}
}

// IllegalInstrHandler returns the illegal instruction handler, it continues after the
// illegal instruction.
func (b *Builder) IllegalInstrHandler() Section {
	instrs := b.signature.Write(signature.StatusMessage(signature.IllegalInstrException))
	instrs = append(instrs, b.ReturnAfterTrap()...)
	return Section{Label: b.Label(IllegalInstrHandler), Instrs: instrs}
}

// FaultHandlers returns the instruction, load and store fault handlers. A fault is not
// recoverable, each handler announces the fault and ends the test through test_done.
func (b *Builder) FaultHandlers() []Section {
	faults := []struct {
		label  string
		status signature.Status
	}{
		{InstrFaultHandler, signature.InstrFaultException},
		{LoadFaultHandler, signature.LoadFaultException},
		{StoreFaultHandler, signature.StoreFaultException},
	}

	sections := make([]Section, 0, len(faults))
	for _, fault := range faults {
		instrs := b.signature.Write(signature.StatusMessage(fault.status))
		instrs = append(instrs, b.Pop()...)
		instrs = append(instrs, b.JumpTo(TestDone, riscv.Zero)...)
		sections = append(sections, Section{Label: b.Label(fault.label), Instrs: instrs})
	}
	return sections
}

// Handlers returns the cause specific handlers in emission order.
func (b *Builder) Handlers(ecallBody []string) []Section {
	sections := []Section{
		b.EcallHandler(ecallBody),
		b.EbreakHandler(),
		b.IllegalInstrHandler(),
	}
	return append(sections, b.FaultHandlers()...)
}

// TrapSections returns the dispatch and interrupt code of the hart in emission order,
// the trap vector itself is not included.
func (b *Builder) TrapSections() []Section {
	sections := []Section{
		b.ExceptionHandler(),
		b.InterruptHandler(),
	}
	return append(sections, b.InterruptVectors()...)
}
