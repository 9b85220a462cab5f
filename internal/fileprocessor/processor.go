// Package fileprocessor handles output file naming and writing operations
package fileprocessor

import (
	"context"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/rvtestgen/internal/options"
	"github.com/retroenv/rvtestgen/internal/pipeline"
	"github.com/retroenv/rvtestgen/internal/program"
	"github.com/retroenv/rvtestgen/internal/target"
	"github.com/retroenv/rvtestgen/internal/verification"
	"github.com/retroenv/rvtestgen/internal/writer"
)

// ProcessIterations generates all test iterations and writes every program to its
// own file in the output directory.
func ProcessIterations(ctx context.Context, logger *log.Logger, opts options.Program) error {
	profile, err := target.Select(opts.Target, opts.Profile)
	if err != nil {
		return fmt.Errorf("selecting target: %w", err)
	}

	if opts.Output != "" {
		if err := os.MkdirAll(opts.Output, 0o755); err != nil {
			return fmt.Errorf("creating output directory %s: %w", opts.Output, err)
		}
	}

	printInfo(logger, opts, profile)

	pipe := pipeline.New(logger)
	emit := func(it pipeline.Iteration) error {
		name := OutputFilename(opts.Output, opts.Name, opts.Suffix, it.Index)

		checksum, err := WriteProgram(name, it.Program, writer.DefaultOptions())
		if err != nil {
			return err
		}

		if opts.Verify {
			verifyOpts := verification.Options{
				Assembler: opts.Assembler,
				Debug:     opts.Debug,
			}
			if err := verification.VerifyOutput(ctx, logger, name, profile, verifyOpts); err != nil {
				return fmt.Errorf("verification failed: %w", err)
			}
		}

		logger.Info("Generated test",
			log.String("file", name),
			log.String("seed", strconv.FormatInt(it.Seed, 10)),
			log.Hex("crc32", checksum),
			log.Int("retries", it.Retries),
		)
		return nil
	}

	if err := pipe.Execute(ctx, opts, profile, emit); err != nil {
		return fmt.Errorf("processing iterations: %w", err)
	}
	return nil
}

// OutputFilename generates the file name of a test iteration:
// <name>[.<suffix>]_<index>.S in the output directory.
func OutputFilename(dir, name, suffix string, index int) string {
	base := name
	if suffix != "" {
		base += "." + suffix
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%d.S", base, index))
}

// WriteProgram writes the program to the named file and returns the CRC32 checksum of
// the written content. The program is written to a temporary file first that replaces
// the target only if writing succeeded.
func WriteProgram(name string, prog *program.Program, opts writer.Options) (uint32, error) {
	file, err := os.CreateTemp(filepath.Dir(name), filepath.Base(name)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temporary file for %s: %w", name, err)
	}
	tmpName := file.Name()
	defer func() {
		_ = file.Close()
		_ = os.Remove(tmpName)
	}()

	hash := crc32.NewIEEE()
	w := writer.New(io.MultiWriter(file, hash), opts)
	if err := w.Write(prog); err != nil {
		return 0, fmt.Errorf("writing program to %s: %w", tmpName, err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("closing file %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, name); err != nil {
		return 0, fmt.Errorf("renaming %s to %s: %w", tmpName, name, err)
	}
	return hash.Sum32(), nil
}

// PrintBanner prints application version information
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}

	logger.Info("rvtestgen", log.String("version", buildinfo.Version(version, commit, date)))

	if date != "" && !strings.Contains(date, "unknown") {
		logger.Info("Build", log.String("date", date))
	}
}

// printInfo prints information about the target and the requested iterations.
func printInfo(logger *log.Logger, opts options.Program, profile target.Profile) {
	if opts.Quiet {
		return
	}

	logger.Info("Generating tests",
		log.String("target", profile.Name()),
		log.String("policy", profile.Policy()),
		log.Int("xlen", profile.XLEN()),
		log.Int("iterations", opts.Iterations),
		log.String("seed", strconv.FormatInt(opts.Seed, 10)),
	)
}
