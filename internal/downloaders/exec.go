package downloaders

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/TC6IDM/SPOTMP3/internal/shared"
)

// osRunner executes tools as real subprocesses. Tool output is echoed to the
// console (the tools render their own progress) and buffered for excerpts.
type osRunner struct {
	echo io.Writer
}

// NewOSRunner creates a ToolRunner backed by os/exec. Output is teed to echo
// when it is non-nil.
func NewOSRunner(echo io.Writer) ToolRunner {
	if echo == nil {
		echo = io.Discard
	}
	return &osRunner{echo: echo}
}

func (r *osRunner) Run(ctx context.Context, spec ExecSpec) (*ExecResult, error) {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, spec.Binary, spec.Args...)
	cmd.Dir = spec.Dir

	var buf bytes.Buffer
	out := io.MultiWriter(r.echo, &buf)
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	result := &ExecResult{Output: buf.String()}

	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, fmt.Errorf("%w: %s", shared.ErrToolTimeout, spec.Binary)
		}
		return result, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.ExitCode = -1
		return result, fmt.Errorf("%w: %s", shared.ErrToolTimeout, spec.Binary)
	}

	result.ExitCode = -1
	return result, fmt.Errorf("%w: %s: %v", shared.ErrToolFailed, spec.Binary, err)
}
