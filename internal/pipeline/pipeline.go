// Package pipeline drives the generation of the test iterations.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/rvtestgen/internal/asmgen"
	"github.com/retroenv/rvtestgen/internal/config"
	"github.com/retroenv/rvtestgen/internal/datapage"
	"github.com/retroenv/rvtestgen/internal/options"
	"github.com/retroenv/rvtestgen/internal/policy"
	"github.com/retroenv/rvtestgen/internal/policy/baseline"
	"github.com/retroenv/rvtestgen/internal/policy/ibex"
	"github.com/retroenv/rvtestgen/internal/program"
	"github.com/retroenv/rvtestgen/internal/stream"
	"github.com/retroenv/rvtestgen/internal/target"
	"golang.org/x/sync/errgroup"
)

// Iteration is a generated test program.
type Iteration struct {
	Index   int   // file index, the iteration number plus the start index
	Seed    int64 // seed that the program was generated with
	Retries int
	Config  config.Config
	Program *program.Program
}

// EmitFunc receives every generated iteration. It can be called concurrently.
type EmitFunc func(it Iteration) error

// Pipeline orchestrates the generation of all test iterations.
type Pipeline struct {
	logger *log.Logger
}

// New creates a new generation pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{
		logger: logger,
	}
}

// Seeds returns the seeds of all iterations. The first iteration uses the given seed,
// the following seeds are derived from it.
func Seeds(seed int64, iterations int) []int64 {
	if iterations <= 0 {
		return nil
	}

	seeds := make([]int64, iterations)
	seeds[0] = seed
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible test generation
	for i := 1; i < iterations; i++ {
		seeds[i] = rng.Int63()
	}
	return seeds
}

// Execute generates all iterations with up to opts.Jobs iterations in parallel and
// passes every program to emit. The first error cancels the remaining iterations.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program, profile target.Profile, emit EmitFunc) error {
	pol, err := SelectPolicy(profile.Policy())
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(opts.Jobs, 1))

	for i, seed := range Seeds(opts.Seed, opts.Iterations) {
		index := i + opts.StartIndex
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			it, err := p.Generate(opts, profile, pol, seed)
			if err != nil {
				return fmt.Errorf("iteration %d: %w", index, err)
			}
			it.Index = index

			if err := emit(it); err != nil {
				return fmt.Errorf("iteration %d: %w", index, err)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("generating tests: %w", err)
	}
	return nil
}

// Generate generates the program of one iteration. A generation failure is retried
// with a seed derived from the failed one, configuration errors are returned at once.
func (p *Pipeline) Generate(opts options.Program, profile target.Profile, pol policy.Policy,
	seed int64) (Iteration, error) {

	retry := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible test generation

	var lastErr error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		it, err := p.generate(opts, profile, pol, seed)
		if err == nil {
			it.Retries = attempt
			return it, nil
		}
		if errors.Is(err, config.ErrInvalidConfig) || !errors.Is(err, asmgen.ErrGeneration) {
			return Iteration{}, err
		}

		p.logger.Debug("Generation failed, retrying",
			log.String("seed", strconv.FormatInt(seed, 10)),
			log.Int("attempt", attempt),
			log.Err(err),
		)
		lastErr = err
		seed = retry.Int63()
	}
	return Iteration{}, fmt.Errorf("giving up after %d retries: %w", opts.Retries, lastErr)
}

func (p *Pipeline) generate(opts options.Program, profile target.Profile, pol policy.Policy,
	seed int64) (Iteration, error) {

	cfg, err := config.Derive(opts, profile, seed)
	if err != nil {
		return Iteration{}, fmt.Errorf("deriving configuration: %w", err)
	}

	gen, err := asmgen.New(p.logger, cfg, profile, pol, Collaborators(&cfg, profile))
	if err != nil {
		return Iteration{}, fmt.Errorf("creating generator: %w", err)
	}

	prog, err := gen.Generate()
	if err != nil {
		return Iteration{}, err
	}

	return Iteration{
		Seed:    seed,
		Config:  gen.Config(),
		Program: prog,
	}, nil
}

// SelectPolicy returns the target policy of the given name.
func SelectPolicy(name string) (policy.Policy, error) {
	switch strings.ToLower(name) {
	case policy.Ibex:
		return ibex.New(), nil

	case policy.Baseline, "":
		return baseline.New(), nil

	default:
		return nil, fmt.Errorf("%w: unsupported target policy '%s'", config.ErrInvalidConfig, name)
	}
}

// Collaborators returns the default instruction, call stack and data collaborators.
func Collaborators(cfg *config.Config, profile target.Profile) asmgen.Collaborators {
	return asmgen.Collaborators{
		Instructions: stream.New(cfg, profile),
		CallStack:    stream.NewCallStack(cfg, profile.XLEN()),
		Data:         datapage.New(cfg),
	}
}
