// Package datapage generates the data regions and page tables of the test programs.
package datapage

import (
	"fmt"
	"hash/crc32"
	"math/rand"
	"strings"

	"github.com/retroenv/rvtestgen/internal/asmgen"
	"github.com/retroenv/rvtestgen/internal/config"
	"github.com/retroenv/rvtestgen/internal/riscv"
	"github.com/retroenv/rvtestgen/internal/writer"
)

// Pattern is the content pattern of the data regions.
type Pattern uint8

const (
	RandomData Pattern = iota
	AllZero
	Increment
)

var patternNames = map[Pattern]string{
	RandomData: "random",
	AllZero:    "zero",
	Increment:  "increment",
}

func (p Pattern) String() string {
	return patternNames[p]
}

// Page table entry flags.
const (
	pteValid    = 1 << 0
	pteRead     = 1 << 1
	pteWrite    = 1 << 2
	pteExecute  = 1 << 3
	pteUser     = 1 << 4
	pteAccessed = 1 << 6
	pteDirty    = 1 << 7

	pteFlags = pteValid | pteRead | pteWrite | pteExecute | pteAccessed | pteDirty
)

const (
	pageOffsetBits = 12
	ppnShift       = 10
	entriesPerLine = 4
)

// Source is the default data source.
type Source struct {
	seed    int64
	pattern Pattern
}

var _ asmgen.DataSource = (*Source)(nil)

// New returns a data source. The content pattern of the data regions is drawn from
// the configuration seed.
func New(cfg *config.Config) *Source {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible test generation
	return &Source{
		seed:    cfg.Seed,
		pattern: Pattern(rng.Intn(len(patternNames))),
	}
}

// Pattern returns the content pattern of the data regions.
func (s *Source) Pattern() Pattern {
	return s.pattern
}

// DataPage returns the label followed by size bytes of data.
func (s *Source) DataPage(label string, size int) []string {
	lines := []string{label + ":"}

	data := s.content(label, size)
	_ = writer.BundleDataWrites(data, func(line string, _ int) error {
		lines = append(lines, line)
		return nil
	})
	return lines
}

func (s *Source) content(label string, size int) []byte {
	data := make([]byte, size)

	switch s.pattern {
	case RandomData:
		seed := s.seed ^ int64(crc32.ChecksumIEEE([]byte(label)))
		rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible test generation
		_, _ = rng.Read(data)

	case Increment:
		for i := range data {
			data[i] = byte(i)
		}
	}
	return data
}

// PageTables returns a root page table that identity maps the whole address space with
// pages of the largest size of the translation scheme.
func (s *Source) PageTables(opts asmgen.PageTableOptions) []string {
	levels := opts.SatpMode.Levels()
	if levels == 0 {
		return nil
	}

	vpnBits := 9
	if opts.SatpMode == riscv.Sv32 {
		vpnBits = 10
	}
	pageBits := pageOffsetBits + vpnBits*(levels-1)
	entries := 1 << vpnBits

	flags := uint64(pteFlags)
	if opts.User {
		flags |= pteUser
	}

	lines := []string{
		fmt.Sprintf(".align %d", pageOffsetBits),
		opts.Prefix + "page_table_0:",
	}

	directive := riscv.WordDirective(opts.XLEN)
	values := make([]string, 0, entriesPerLine)
	for i := range entries {
		address := uint64(i) << pageBits
		pte := address>>pageOffsetBits<<ppnShift | flags
		values = append(values, fmt.Sprintf("0x%x", pte))

		if len(values) == entriesPerLine || i == entries-1 {
			lines = append(lines, directive+" "+strings.Join(values, ", "))
			values = values[:0]
		}
	}
	return lines
}
