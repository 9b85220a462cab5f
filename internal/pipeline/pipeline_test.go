package pipeline

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/rvtestgen/internal/config"
	"github.com/retroenv/rvtestgen/internal/options"
	"github.com/retroenv/rvtestgen/internal/policy"
	"github.com/retroenv/rvtestgen/internal/target"
	"github.com/retroenv/rvtestgen/internal/writer"
)

func testOptions() options.Program {
	opts := options.Program{
		Flags: options.Flags{
			Seed:       100,
			Iterations: 3,
			StartIndex: 5,
			Jobs:       2,
			Retries:    1,
		},
		Generation: options.NewGeneration(),
	}
	opts.Generation.MainProgramInstrCnt = 30
	opts.Generation.NumOfSubProgram = 3
	opts.Generation.SubProgramInstrCnt = 8
	opts.Generation.StackLen = 32
	opts.Generation.KernelStackLen = 32
	opts.Generation.DataPageSize = 128
	return opts
}

func builtin(t *testing.T, name string) target.Profile {
	t.Helper()
	profile, err := target.Builtin(name)
	assert.NoError(t, err)
	return profile
}

func render(t *testing.T, it Iteration) string {
	t.Helper()
	var buf bytes.Buffer
	assert.NoError(t, writer.New(&buf, writer.DefaultOptions()).Write(it.Program))
	return buf.String()
}

func TestNew(t *testing.T) {
	p := New(log.NewTestLogger(t))
	assert.NotNil(t, p)
	assert.NotNil(t, p.logger)
}

func TestSeeds(t *testing.T) {
	seeds := Seeds(7, 4)
	assert.Len(t, seeds, 4)
	assert.Equal(t, int64(7), seeds[0])

	if diff := cmp.Diff(seeds, Seeds(7, 4)); diff != "" {
		t.Errorf("seeds differ:\n%s", diff)
	}
	assert.Empty(t, Seeds(7, 0))
}

func TestSelectPolicy(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "ibex", want: policy.Ibex},
		{name: "IBEX", want: policy.Ibex},
		{name: "baseline", want: policy.Baseline},
		{name: "", want: policy.Baseline},
		{name: "unknown", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pol, err := SelectPolicy(tt.name)
			if tt.wantErr {
				assert.True(t, errors.Is(err, config.ErrInvalidConfig))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, pol.Name())
		})
	}
}

func TestExecuteBuiltins(t *testing.T) {
	for _, name := range target.BuiltinNames() {
		t.Run(name, func(t *testing.T) {
			p := New(log.NewTestLogger(t))
			opts := testOptions()

			var mu sync.Mutex
			results := map[int]Iteration{}
			err := p.Execute(context.Background(), opts, builtin(t, name), func(it Iteration) error {
				mu.Lock()
				defer mu.Unlock()
				results[it.Index] = it
				return nil
			})
			assert.NoError(t, err)
			assert.Len(t, results, 3)

			seeds := Seeds(opts.Seed, opts.Iterations)
			for i, seed := range seeds {
				it, ok := results[i+opts.StartIndex]
				assert.True(t, ok)
				assert.Equal(t, seed, it.Seed)
				assert.Equal(t, 0, it.Retries)
				assert.True(t, it.Program.Len() > 0)
			}
		})
	}
}

func TestExecuteDeterministic(t *testing.T) {
	opts := testOptions()
	opts.Iterations = 1
	profile := builtin(t, "ibex")

	var outputs []string
	for range 2 {
		p := New(log.NewTestLogger(t))
		err := p.Execute(context.Background(), opts, profile, func(it Iteration) error {
			outputs = append(outputs, render(t, it))
			return nil
		})
		assert.NoError(t, err)
	}

	assert.Len(t, outputs, 2)
	if diff := cmp.Diff(outputs[0], outputs[1]); diff != "" {
		t.Errorf("programs differ:\n%s", diff)
	}
}

func TestExecuteInvalidConfig(t *testing.T) {
	p := New(log.NewTestLogger(t))
	opts := testOptions()
	opts.Generation.MainProgramInstrCnt = 0

	called := false
	err := p.Execute(context.Background(), opts, builtin(t, "rv32imc"), func(Iteration) error {
		called = true
		return nil
	})
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
	assert.False(t, called)
}

func TestExecuteEmitError(t *testing.T) {
	p := New(log.NewTestLogger(t))
	opts := testOptions()
	opts.Jobs = 1
	errEmit := errors.New("disk full")

	err := p.Execute(context.Background(), opts, builtin(t, "rv32imc"), func(Iteration) error {
		return errEmit
	})
	assert.True(t, errors.Is(err, errEmit))
}

func TestExecuteCanceled(t *testing.T) {
	p := New(log.NewTestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Execute(ctx, testOptions(), builtin(t, "rv32imc"), func(Iteration) error {
		return nil
	})
	assert.True(t, errors.Is(err, context.Canceled))
}
