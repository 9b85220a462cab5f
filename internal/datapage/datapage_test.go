package datapage

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/rvtestgen/internal/asmgen"
	"github.com/retroenv/rvtestgen/internal/config"
	"github.com/retroenv/rvtestgen/internal/riscv"
)

// byteCount returns the number of bytes of .byte lines.
func byteCount(lines []string) int {
	count := 0
	for _, line := range lines {
		if !strings.HasPrefix(line, ".byte ") {
			continue
		}
		count += len(strings.Split(strings.TrimPrefix(line, ".byte "), ","))
	}
	return count
}

func TestDataPage(t *testing.T) {
	for seed := range int64(6) {
		src := New(&config.Config{Seed: seed})
		lines := src.DataPage("region_0", 100)

		assert.Equal(t, "region_0:", lines[0])
		assert.Equal(t, 100, byteCount(lines), src.Pattern().String())
		assert.Len(t, lines, 1+7) // 6 lines of 16 bytes and one of 4 bytes
	}
}

func TestDataPageDeterministic(t *testing.T) {
	first := New(&config.Config{Seed: 42}).DataPage("region_0", 64)
	second := New(&config.Config{Seed: 42}).DataPage("region_0", 64)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("data pages differ (-first +second):\n%s", diff)
	}
}

func TestDataPagePatterns(t *testing.T) {
	tests := []struct {
		pattern Pattern
		first   string
	}{
		{AllZero, ".byte 0x00, 0x00, 0x00, 0x00"},
		{Increment, ".byte 0x00, 0x01, 0x02, 0x03"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern.String(), func(t *testing.T) {
			src := &Source{pattern: tt.pattern}
			lines := src.DataPage("d", 4)
			if diff := cmp.Diff([]string{"d:", tt.first}, lines); diff != "" {
				t.Errorf("unexpected data page:\n%s", diff)
			}
		})
	}
}

func TestPageTablesBare(t *testing.T) {
	src := New(&config.Config{})
	assert.Empty(t, src.PageTables(asmgen.PageTableOptions{SatpMode: riscv.Bare, XLEN: 64}))
}

func TestPageTables(t *testing.T) {
	tests := []struct {
		name    string
		opts    asmgen.PageTableOptions
		lines   int
		label   string
		entries string
	}{
		{
			name:    "sv39",
			opts:    asmgen.PageTableOptions{SatpMode: riscv.Sv39, XLEN: 64},
			lines:   2 + 512/4,
			label:   "page_table_0:",
			entries: ".8byte 0xcf, 0x100000cf, 0x200000cf, 0x300000cf",
		},
		{
			name:    "sv32 user",
			opts:    asmgen.PageTableOptions{Prefix: "h1_", SatpMode: riscv.Sv32, XLEN: 32, User: true},
			lines:   2 + 1024/4,
			label:   "h1_page_table_0:",
			entries: ".4byte 0xdf, 0x1000df, 0x2000df, 0x3000df",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := New(&config.Config{}).PageTables(tt.opts)
			assert.Len(t, lines, tt.lines)
			assert.Equal(t, ".align 12", lines[0])
			assert.Equal(t, tt.label, lines[1])
			assert.Equal(t, tt.entries, lines[2])
		})
	}
}
