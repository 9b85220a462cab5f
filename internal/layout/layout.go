// Package layout decides which sections a generated program contains, in which order
// the trap handlers are placed and how the trap vector region is aligned.
package layout

import (
	"github.com/retroenv/rvtestgen/internal/config"
	"github.com/retroenv/rvtestgen/internal/riscv"
	"github.com/retroenv/rvtestgen/internal/target"
)

// PageAlignment is the alignment of a 4KB page as power of two.
const PageAlignment = 12

// Plan contains the layout decisions for one configuration and target.
type Plan struct {
	// PrivilegedSetup is set when the program configures privileged registers and
	// contains trap handlers.
	PrivilegedSetup bool
	// PageTables is set when page tables are created and emitted.
	PageTables bool
	// HandlersBeforeMain places the trap handlers in front of the main program, PMP
	// can make code behind the permitted region unreachable.
	HandlersBeforeMain bool
	// PMP is set when the PMP regions are configured.
	PMP bool
	// TrapVectorAlignment is the power of two alignment of the trap vector region.
	TrapVectorAlignment int
	// DebugROM is set when the debug ROM section is emitted.
	DebugROM bool
	// KernelData is set when kernel data and stack sections are emitted.
	KernelData bool
	// DataPages is set when user data pages are emitted.
	DataPages bool

	amo bool
}

// Decide returns the layout plan for the configuration and the target profile.
func Decide(cfg *config.Config, profile target.Profile) Plan {
	privileged := !cfg.BareProgramMode
	pmp := privileged && cfg.SupportPMP && profile.SupportPMP()
	paging := profile.SatpMode() != riscv.Bare

	alignment := cfg.TvecAlignment
	if paging {
		alignment = PageAlignment
	}

	return Plan{
		PrivilegedSetup:     privileged,
		PageTables:          privileged && paging,
		HandlersBeforeMain:  pmp,
		PMP:                 pmp,
		TrapVectorAlignment: alignment,
		DebugROM:            privileged && profile.SupportDebugMode() && cfg.GenDebugSection,
		KernelData:          privileged,
		DataPages:           !cfg.NoDataPage,
		amo:                 !cfg.NoDataPage && profile.SupportsAtomics(),
	}
}

// AMORegion returns whether the atomic memory operation region is emitted for the hart.
// Only hart 0 owns the shared region.
func (p Plan) AMORegion(hart int) bool {
	return p.amo && hart == 0
}
