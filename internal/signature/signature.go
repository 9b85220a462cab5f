// Package signature implements the handshake protocol between a generated program and
// the simulation harness. The program writes tagged status words to a control address
// that the harness monitors.
package signature

import (
	"fmt"

	"github.com/retroenv/rvtestgen/internal/config"
	"github.com/retroenv/rvtestgen/internal/riscv"
)

// ControlOffset is the distance of the control word below the signature address.
const ControlOffset = 4

// WriteToHost is the label of the routine that bare programs jump to at the end of the test.
const WriteToHost = "write_tohost"

// Type is the tag of a signature word, stored in its low byte. Tag 3 announces floating
// point register dumps, which generated programs never write.
type Type uint8

const (
	CoreStatus Type = 0
	TestResult Type = 1
	GPRDump    Type = 2
	CSRDump    Type = 4
)

// Terminal returns whether a write with this tag ends the test.
func (t Type) Terminal() bool {
	return t == TestResult
}

// Status is the payload of a CoreStatus write.
type Status uint8

const (
	Initialized Status = iota
	InDebugMode
	InMachineMode
	InHypervisorMode
	InSupervisorMode
	InUserMode
	HandlingIRQ
	FinishedIRQ
	HandlingException
	InstrFaultException
	IllegalInstrException
	LoadFaultException
	StoreFaultException
	EbreakException
)

// Result is the payload of a TestResult write.
type Result uint8

const (
	TestPass Result = iota
	TestFail
)

// payloadMask limits the payload to 12 bits, wide enough for a CSR address. Status and
// result payloads fit into the byte above the tag, a CSR dump announcement occupies
// bits 8 to 19 of the word.
const payloadMask = 0xfff

// Message is a signature word.
type Message struct {
	Tag     Type
	Payload uint16
}

// StatusMessage returns a core status message.
func StatusMessage(status Status) Message {
	return Message{Tag: CoreStatus, Payload: uint16(status)}
}

// ResultMessage returns a test result message.
func ResultMessage(result Result) Message {
	return Message{Tag: TestResult, Payload: uint16(result)}
}

// Encode returns the 32 bit word that is written to the control address.
func (m Message) Encode() uint32 {
	return uint32(m.Payload&payloadMask)<<8 | uint32(m.Tag)
}

// Protocol generates the instruction sequences of the handshake for one configuration.
type Protocol struct {
	controlAddr uint64
	addrReg     riscv.Reg
	dataReg     riscv.Reg
	xlen        int
	bare        bool
}

// New returns the protocol for the configuration. The first two handler registers are
// used as data and address registers.
func New(cfg *config.Config, xlen int) *Protocol {
	return &Protocol{
		controlAddr: cfg.SignatureAddr - ControlOffset,
		dataReg:     cfg.GPR[0],
		addrReg:     cfg.GPR[1],
		xlen:        xlen,
		bare:        cfg.BareProgramMode,
	}
}

// ControlAddress returns the address that signature words are written to.
func (p *Protocol) ControlAddress() uint64 {
	return p.controlAddr
}

// Write returns the instructions that write the message to the control address.
// Terminal messages are followed by the single ecall that hands control to the harness.
// The ecall handler may return, the code after the ecall loops forever.
func (p *Protocol) Write(msg Message) []string {
	instrs := append(p.loadAddress(), p.storeWord(msg)...)
	if msg.Tag.Terminal() {
		instrs = append(instrs, "ecall")
		instrs = append(instrs, Halt()...)
	}
	return instrs
}

// Halt returns a loop that never exits.
func Halt() []string {
	return []string{"1:", "j 1b"}
}

// TestEnd returns the end of test sequence for the result. Bare programs do not use the
// signature address and jump to the write back routine instead.
func (p *Protocol) TestEnd(result Result) []string {
	if p.bare {
		return []string{"j " + WriteToHost}
	}
	return p.Write(ResultMessage(result))
}

// DumpGPRs returns the instructions that announce and write all general purpose registers.
func (p *Protocol) DumpGPRs() []string {
	instrs := append(p.loadAddress(), p.storeWord(Message{Tag: GPRDump})...)
	store := riscv.StoreInstr(p.xlen)
	for reg := riscv.Reg(0); reg < riscv.NumGPR; reg++ {
		instrs = append(instrs, fmt.Sprintf("%s %s, 0(%s)", store, reg, p.addrReg))
	}
	return instrs
}

// DumpCSR returns the instructions that announce the CSR address and write its value.
func (p *Protocol) DumpCSR(csr riscv.CSR) []string {
	instrs := append(p.loadAddress(), p.storeWord(Message{Tag: CSRDump, Payload: uint16(csr)})...)
	return append(instrs,
		riscv.CSRRead(p.dataReg, csr),
		fmt.Sprintf("%s %s, 0(%s)", riscv.StoreInstr(p.xlen), p.dataReg, p.addrReg),
	)
}

func (p *Protocol) loadAddress() []string {
	return []string{fmt.Sprintf("li %s, 0x%x", p.addrReg, p.controlAddr)}
}

// storeWord builds the word (payload << 8) | tag in the data register and stores it.
func (p *Protocol) storeWord(msg Message) []string {
	return []string{
		fmt.Sprintf("li %s, 0x%x", p.dataReg, msg.Payload&payloadMask),
		fmt.Sprintf("slli %s, %s, 8", p.dataReg, p.dataReg),
		fmt.Sprintf("addi %s, %s, 0x%x", p.dataReg, p.dataReg, uint8(msg.Tag)),
		fmt.Sprintf("sw %s, 0(%s)", p.dataReg, p.addrReg),
	}
}
