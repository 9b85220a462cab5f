package layout

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/rvtestgen/internal/config"
	"github.com/retroenv/rvtestgen/internal/target"
)

func profile(t *testing.T, name string) target.Profile {
	t.Helper()
	p, err := target.Builtin(name)
	assert.NoError(t, err)
	return p
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		cfg     config.Config
		check   func(t *testing.T, plan Plan)
	}{
		{
			name:   "ibex without pmp",
			target: target.Ibex,
			cfg:    config.Config{TvecAlignment: 2},
			check: func(t *testing.T, plan Plan) {
				t.Helper()
				assert.True(t, plan.PrivilegedSetup)
				assert.False(t, plan.HandlersBeforeMain)
				assert.False(t, plan.PageTables)
				assert.Equal(t, 2, plan.TrapVectorAlignment)
				assert.False(t, plan.AMORegion(0))
			},
		},
		{
			name:   "pmp capability without request",
			target: target.IbexPMP,
			cfg:    config.Config{TvecAlignment: 7},
			check: func(t *testing.T, plan Plan) {
				t.Helper()
				assert.False(t, plan.HandlersBeforeMain)
				assert.Equal(t, 7, plan.TrapVectorAlignment)
			},
		},
		{
			name:   "pmp requested",
			target: target.IbexPMP,
			cfg:    config.Config{TvecAlignment: 2, SupportPMP: true},
			check: func(t *testing.T, plan Plan) {
				t.Helper()
				assert.True(t, plan.HandlersBeforeMain)
				assert.True(t, plan.PMP)
			},
		},
		{
			name:   "pmp requested in bare mode",
			target: target.IbexPMP,
			cfg:    config.Config{TvecAlignment: 2, SupportPMP: true, BareProgramMode: true},
			check: func(t *testing.T, plan Plan) {
				t.Helper()
				assert.False(t, plan.HandlersBeforeMain)
				assert.False(t, plan.PrivilegedSetup)
				assert.False(t, plan.KernelData)
			},
		},
		{
			name:   "paging uses page alignment",
			target: target.RV64GC,
			cfg:    config.Config{TvecAlignment: 2},
			check: func(t *testing.T, plan Plan) {
				t.Helper()
				assert.True(t, plan.PageTables)
				assert.Equal(t, PageAlignment, plan.TrapVectorAlignment)
				assert.True(t, plan.AMORegion(0))
				assert.False(t, plan.AMORegion(1))
			},
		},
		{
			name:   "bare mode has no page tables",
			target: target.RV64GC,
			cfg:    config.Config{TvecAlignment: 2, BareProgramMode: true},
			check: func(t *testing.T, plan Plan) {
				t.Helper()
				assert.False(t, plan.PageTables)
			},
		},
		{
			name:   "no data page suppresses amo region",
			target: target.RV64GC,
			cfg:    config.Config{TvecAlignment: 2, NoDataPage: true},
			check: func(t *testing.T, plan Plan) {
				t.Helper()
				assert.False(t, plan.DataPages)
				assert.False(t, plan.AMORegion(0))
			},
		},
		{
			name:   "debug rom needs request and support",
			target: target.Ibex,
			cfg:    config.Config{TvecAlignment: 2, GenDebugSection: true},
			check: func(t *testing.T, plan Plan) {
				t.Helper()
				assert.True(t, plan.DebugROM)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Decide(&tt.cfg, profile(t, tt.target))
			tt.check(t, plan)
		})
	}
}
