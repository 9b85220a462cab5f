package target

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Names of the built-in targets.
const (
	Ibex    = "ibex"
	IbexPMP = "ibex_pmp"
	RV32IMC = "rv32imc"
	RV64GC  = "rv64gc"
)

func ibexPerfCounters() []string {
	counters := []string{"MCYCLE", "MINSTRET", "MCYCLEH", "MINSTRETH"}
	for i := 3; i <= 12; i++ {
		counters = append(counters, fmt.Sprintf("MHPMCOUNTER%d", i), fmt.Sprintf("MHPMCOUNTER%dH", i))
	}
	return counters
}

var builtins = map[string]Definition{
	Ibex: {
		Name:                  Ibex,
		Policy:                "ibex",
		XLEN:                  32,
		SupportedISA:          []string{"RV32I", "RV32M", "RV32C", "RV32B"},
		SatpMode:              "BARE",
		MaxInterruptVectorNum: 32,
		SupportDebugMode:      true,
		PrivilegedModes:       []string{"machine", "user"},
		InterruptModes:        []string{"direct", "vectored"},
		PerfCounters:          ibexPerfCounters(),
		NumHarts:              1,
	},
	IbexPMP: {
		Name:                  IbexPMP,
		Policy:                "ibex",
		XLEN:                  32,
		SupportedISA:          []string{"RV32I", "RV32M", "RV32C", "RV32B"},
		SatpMode:              "BARE",
		MaxInterruptVectorNum: 32,
		SupportDebugMode:      true,
		SupportPMP:            true,
		PrivilegedModes:       []string{"machine", "user"},
		InterruptModes:        []string{"direct", "vectored"},
		PerfCounters:          ibexPerfCounters(),
		NumHarts:              1,
	},
	RV32IMC: {
		Name:                  RV32IMC,
		Policy:                "baseline",
		XLEN:                  32,
		SupportedISA:          []string{"RV32I", "RV32M", "RV32C"},
		SatpMode:              "BARE",
		MaxInterruptVectorNum: 16,
		PrivilegedModes:       []string{"machine"},
		InterruptModes:        []string{"direct", "vectored"},
		PerfCounters:          []string{"MCYCLE", "MINSTRET"},
		NumHarts:              4,
	},
	RV64GC: {
		Name:                  RV64GC,
		Policy:                "baseline",
		XLEN:                  64,
		SupportedISA:          []string{"RV32I", "RV32M", "RV32A", "RV32C", "RV64I", "RV64M", "RV64A", "RV64C"},
		SatpMode:              "SV39",
		MaxInterruptVectorNum: 16,
		PrivilegedModes:       []string{"machine", "supervisor", "user"},
		InterruptModes:        []string{"direct", "vectored"},
		PerfCounters:          []string{"MCYCLE", "MINSTRET"},
		NumHarts:              2,
	},
}

// BuiltinNames returns the sorted names of all built-in targets.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Builtin returns the built-in target profile with the given name.
func Builtin(name string) (*Settings, error) {
	def, ok := builtins[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unsupported target '%s', valid options: %s",
			name, strings.Join(BuiltinNames(), ", "))
	}
	return New(def)
}

// LoadFile loads a target profile from a YAML file.
func LoadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading target profile '%s': %w", path, err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing target profile '%s': %w", path, err)
	}

	s, err := New(def)
	if err != nil {
		return nil, fmt.Errorf("loading target profile '%s': %w", path, err)
	}
	return s, nil
}

// Select returns the target profile loaded from the given file if a path is set,
// otherwise the built-in target with the given name.
func Select(name, path string) (*Settings, error) {
	if path != "" {
		return LoadFile(path)
	}
	return Builtin(name)
}
