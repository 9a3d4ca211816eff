package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/redact/internal/files"
	"github.com/dshills/redact/internal/mapping"
	"github.com/dshills/redact/internal/output"
	"github.com/dshills/redact/internal/redact"
)

// stdinName is the output file name used for standard input with --out-dir.
const stdinName = "stdin"

// input is one document of the run.
type input struct {
	path string
	text string
	err  error
}

func runRedact(cmd *cobra.Command, args []string) {
	start := time.Now()
	stderr := cmd.ErrOrStderr()

	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		exitCode = ExitConfigError
		return
	}
	logger, runID := setupLogging(cfg, stderr)

	types, err := loadCatalog(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		exitCode = ExitConfigError
		return
	}

	policy, _ := redact.ParseFailurePolicy(cfg.ValidatorFailure)
	rd, err := redact.New(types,
		redact.WithLogger(logger),
		redact.WithFailurePolicy(policy),
		redact.WithWorkers(cfg.Workers),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		exitCode = ExitConfigError
		return
	}

	matcher, err := files.NewMatcher(cfg.Include, cfg.Exclude)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		exitCode = ExitConfigError
		return
	}
	if len(args) == 0 {
		args = []string{files.Stdin}
	}
	paths, expandErr := matcher.Expand(args)
	failed := false
	if expandErr != nil {
		logger.Error().Err(expandErr).Msg("some inputs could not be read")
		failed = true
	}

	inputs := readInputs(paths, cmd.InOrStdin(), logger)
	report := &output.Report{Tool: "redact", Version: version, RunID: runID}

	var docs []string
	var readable []*input
	for _, in := range inputs {
		if in.err != nil {
			failed = true
			report.Files = append(report.Files, output.FileResult{Path: in.path, Error: in.err.Error()})
			continue
		}
		docs = append(docs, in.text)
		readable = append(readable, in)
	}

	redacted, err := rd.RedactAll(cmd.Context(), docs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		if redact.IsInvocationError(err) {
			exitCode = ExitValidatorError
		}
		return
	}

	for i, in := range readable {
		res := output.FileResult{
			Path:    in.path,
			Bytes:   len(redacted[i]),
			Changed: redacted[i] != in.text,
		}
		dest, err := writeOutput(cmd.OutOrStdout(), cfg.OutDir, in.path, redacted[i])
		if err != nil {
			logger.Error().Err(err).Str("file", in.path).Msg("writing redacted output")
			res.Error = err.Error()
			failed = true
		}
		res.Output = dest
		report.Files = append(report.Files, res)
	}

	if cfg.WriteSubstitutions != "" {
		if err := saveMapping(cfg.WriteSubstitutions, rd, logger); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			failed = true
		} else {
			report.Mapping = cfg.WriteSubstitutions
		}
	}

	report.Finish(rd, time.Since(start))
	logger.Debug().
		Int("files", report.Summary.Files).
		Int("secrets", report.Summary.Secrets).
		Dur("elapsed", time.Since(start)).
		Msg("run complete")
	if err := output.WriteReport(report, cfg.Report, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		failed = true
	}

	if failed {
		exitCode = ExitRuntimeError
	}
}

// readInputs reads every path; a failed read is recorded on its input.
func readInputs(paths []string, stdin io.Reader, logger zerolog.Logger) []*input {
	inputs := make([]*input, 0, len(paths))
	for _, p := range paths {
		in := &input{path: p}
		var data []byte
		if p == files.Stdin {
			data, in.err = io.ReadAll(stdin)
		} else {
			data, in.err = os.ReadFile(p)
		}
		if in.err != nil {
			logger.Error().Err(in.err).Str("file", p).Msg("reading input, skipped")
		}
		in.text = string(data)
		inputs = append(inputs, in)
	}
	return inputs
}

// writeOutput writes text to stdout, or below outDir when set, and returns
// the destination path.
func writeOutput(stdout io.Writer, outDir, path, text string) (string, error) {
	if outDir == "" {
		_, err := io.WriteString(stdout, text)
		return "", err
	}
	dest := filepath.Join(outDir, outputName(path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return dest, fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(dest, []byte(text), 0o644); err != nil {
		return dest, fmt.Errorf("writing %s: %w", dest, err)
	}
	return dest, nil
}

// outputName maps an input path to a relative path that stays inside the
// output directory.
func outputName(path string) string {
	if path == files.Stdin {
		return stdinName
	}
	p := filepath.ToSlash(filepath.Clean(path))
	p = strings.TrimPrefix(p, filepath.ToSlash(filepath.VolumeName(path)))
	var parts []string
	for _, part := range strings.Split(p, "/") {
		switch part {
		case "", ".":
		case "..":
			parts = append(parts, "_")
		default:
			parts = append(parts, part)
		}
	}
	return filepath.Join(parts...)
}

func saveMapping(dir string, rd *redact.Redactor, logger zerolog.Logger) error {
	res, err := mapping.Write(dir, rd.Export())
	if err != nil {
		return fmt.Errorf("saving mapping: %w", err)
	}
	if res.Skipped > 0 {
		logger.Warn().Int("skipped", res.Skipped).Msg("some secrets cannot be saved to the mapping and were left out")
	}
	logger.Debug().Int("entries", res.Entries).Int("files", len(res.Files)).Str("dir", dir).Msg("mapping saved")
	return nil
}
