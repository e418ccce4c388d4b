package launch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/roach88/recap/internal/record"
)

// RunResult is what a launch mode observes about the script run. The
// orchestrator never interprets the script's semantics, only its exit
// status and captured output.
type RunResult struct {
	ExitCode int
	Output   string // combined stdout/stderr tail, for diagnostics
}

// Runner executes the composed command under some launch mode.
type Runner interface {
	Mode() record.LaunchMode
	Run(ctx context.Context, workdir string, argv []string) (RunResult, error)
}

// NewRunner builds the runner for a launch-mode descriptor.
func NewRunner(mode record.LaunchMode) (Runner, error) {
	switch mode.Kind {
	case "", record.LaunchSerial:
		return serialRunner{}, nil
	case record.LaunchDistributed:
		if mode.Processes < 1 {
			return nil, fmt.Errorf("distributed launch mode needs at least one process, got %d", mode.Processes)
		}
		return distributedRunner{n: mode.Processes}, nil
	default:
		return nil, fmt.Errorf("unknown launch mode %q", mode.Kind)
	}
}

// serialRunner runs the command as a single foreground process.
type serialRunner struct{}

func (serialRunner) Mode() record.LaunchMode {
	return record.LaunchMode{Kind: record.LaunchSerial}
}

func (serialRunner) Run(ctx context.Context, workdir string, argv []string) (RunResult, error) {
	return runProcess(ctx, workdir, argv)
}

// distributedRunner starts N copies of the command in parallel and
// waits on aggregate completion. The run fails if any worker fails;
// per-worker status is not tracked beyond the first failure.
type distributedRunner struct {
	n int
}

func (r distributedRunner) Mode() record.LaunchMode {
	return record.LaunchMode{Kind: record.LaunchDistributed, Processes: r.n}
}

func (r distributedRunner) Run(ctx context.Context, workdir string, argv []string) (RunResult, error) {
	type workerResult struct {
		res RunResult
		err error
	}
	results := make(chan workerResult, r.n)
	for i := 0; i < r.n; i++ {
		go func() {
			res, err := runProcess(ctx, workdir, argv)
			results <- workerResult{res: res, err: err}
		}()
	}
	agg := RunResult{}
	for i := 0; i < r.n; i++ {
		wr := <-results
		if wr.err != nil {
			return RunResult{}, wr.err
		}
		if wr.res.ExitCode != 0 && agg.ExitCode == 0 {
			agg.ExitCode = wr.res.ExitCode
			agg.Output = wr.res.Output
		}
	}
	return agg, nil
}

// outputTailLimit bounds how much combined output is kept on the
// result for diagnostics.
const outputTailLimit = 4096

func runProcess(ctx context.Context, workdir string, argv []string) (RunResult, error) {
	if len(argv) == 0 {
		return RunResult{}, fmt.Errorf("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = workdir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	res := RunResult{Output: tail(out.String())}
	if err != nil {
		if ctx.Err() != nil {
			return RunResult{}, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return RunResult{}, fmt.Errorf("run %s: %w", strings.Join(argv, " "), err)
	}
	return res, nil
}

func tail(s string) string {
	if len(s) <= outputTailLimit {
		return s
	}
	return s[len(s)-outputTailLimit:]
}
