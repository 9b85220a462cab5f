// Package options contains the program options.
package options

// Parameters contains file path and naming options.
type Parameters struct {
	Output  string // output directory of the generated .S files
	Name    string // base name of the generated test files
	Suffix  string // optional suffix appended to the base name
	Target  string // name of a built-in target
	Profile string // target profile YAML file, overrides Target
	Config  string // generation options YAML file

	Assembler string // external assembler used to verify the generated files
}

// Flags contains behavior options.
type Flags struct {
	Seed       int64 // seed of the first iteration, negative picks a random seed
	Iterations int
	StartIndex int
	Jobs       int // number of iterations generated in parallel
	Retries    int // generation retries with a new seed per iteration
	Verify     bool
	Debug      bool
	Quiet      bool
}

// Program options of the generator.
type Program struct {
	Parameters
	Flags

	Generation Generation
}

// Generation contains the user choices that a per iteration configuration is derived from.
// Empty string mode fields are randomized or derived from the target profile.
type Generation struct {
	NumOfHarts             int    `yaml:"num_of_harts"`
	BareProgramMode        bool   `yaml:"bare_program_mode"`
	MtvecMode              string `yaml:"mtvec_mode"`
	PMP                    string `yaml:"pmp"` // auto, on or off
	DisableCompressedInstr bool   `yaml:"disable_compressed_instr"`
	NoDataPage             bool   `yaml:"no_data_page"`
	NoBranchJump           bool   `yaml:"no_branch_jump"`
	MainProgramInstrCnt    int    `yaml:"main_program_instr_cnt"`
	NumOfSubProgram        int    `yaml:"num_of_sub_program"`
	SubProgramInstrCnt     int    `yaml:"sub_program_instr_cnt"`
	SignatureAddr          uint64 `yaml:"signature_addr"`
	CheckXStatus           bool   `yaml:"check_xstatus"`
	CheckMisaInitVal       bool   `yaml:"check_misa_init_val"`
	InitPrivilegedMode     string `yaml:"init_privileged_mode"`
	FixSP                  bool   `yaml:"fix_sp"`
	MstatusMPRV            bool   `yaml:"set_mstatus_mprv"`
	MstatusMXR             bool   `yaml:"mstatus_mxr"`
	MstatusSUM             bool   `yaml:"mstatus_sum"`
	MstatusTVM             bool   `yaml:"mstatus_tvm"`
	GenDebugSection        bool   `yaml:"gen_debug_section"`
	StackLen               int    `yaml:"stack_len"`
	KernelStackLen         int    `yaml:"kernel_stack_len"`
	DataPageSize           int    `yaml:"data_page_size"`
}

// PMP request values.
const (
	PMPAuto = "auto"
	PMPOn   = "on"
	PMPOff  = "off"
)

// NewGeneration returns generation options with default values.
func NewGeneration() Generation {
	return Generation{
		NumOfHarts:          1,
		PMP:                 PMPAuto,
		MainProgramInstrCnt: 100,
		NumOfSubProgram:     5,
		SubProgramInstrCnt:  20,
		SignatureAddr:       0x8ffffffc,
		InitPrivilegedMode:  "machine",
		StackLen:            5000,
		KernelStackLen:      4000,
		DataPageSize:        4096,
	}
}
