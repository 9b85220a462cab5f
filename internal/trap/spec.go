// Package trap builds the trap vector tables, the exception dispatch and the
// per cause handlers of a generated program.
package trap

import "github.com/retroenv/rvtestgen/internal/riscv"

// HandlerSpec selects the privileged registers that handlers of one mode use.
// All registers of a spec belong to the same privileged mode.
type HandlerSpec struct {
	Mode    riscv.PrivilegedMode
	Status  riscv.CSR
	Cause   riscv.CSR
	Tvec    riscv.CSR
	Tval    riscv.CSR
	Epc     riscv.CSR
	Scratch riscv.CSR
	IE      riscv.CSR
	IP      riscv.CSR
}

// MachineMode is the spec of the machine mode handlers. Traps are not delegated, all
// handlers of a generated program run in machine mode.
var MachineMode = HandlerSpec{
	Mode:    riscv.MachineMode,
	Status:  riscv.Mstatus,
	Cause:   riscv.Mcause,
	Tvec:    riscv.Mtvec,
	Tval:    riscv.Mtval,
	Epc:     riscv.Mepc,
	Scratch: riscv.Mscratch,
	IE:      riscv.Mie,
	IP:      riscv.Mip,
}

// Tag returns the short mode name used in handler labels.
func (s HandlerSpec) Tag() string {
	switch s.Mode {
	case riscv.SupervisorMode:
		return "smode"
	case riscv.UserMode:
		return "umode"
	default:
		return "mmode"
	}
}

// TvecLabel returns the name of the trap vector label, for example mtvec_handler.
func (s HandlerSpec) TvecLabel() string {
	return s.Tag()[:1] + "tvec_handler"
}

// ReturnInstr returns the trap return instruction of the mode.
func (s HandlerSpec) ReturnInstr() string {
	return s.Tag()[:1] + "ret"
}
