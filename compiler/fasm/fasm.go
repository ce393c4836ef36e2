package fasm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	// Assembler runs the flat assembler on generated sources.
	Assembler struct {
		// Tool is the executable to run. Empty means fasm from PATH.
		Tool string

		// Stderr receives the tool stderr verbatim. Nil means os.Stderr.
		Stderr io.Writer
	}

	// LaunchError is returned when the tool could not be started.
	// It matches ErrToolLaunch and unwraps to the spawn error.
	LaunchError struct {
		Tool string
		Err  error
	}
)

const DefaultTool = "fasm"

var ErrToolLaunch = errors.New("launch assembler")

// Assemble runs the tool on path and waits for it.
// Tool stderr is forwarded, and the exit status is not inspected.
func (a *Assembler) Assemble(ctx context.Context, path string) (err error) {
	tool := a.Tool
	if tool == "" {
		tool = DefaultTool
	}

	var stderr bytes.Buffer

	// nil Stdout discards the tool output
	cmd := exec.CommandContext(ctx, tool, path)
	cmd.Stderr = &stderr

	tlog.SpanFromContext(ctx).Printw("run assembler", "cmd", cmd.String())

	err = cmd.Run()

	if _, ok := err.(*exec.ExitError); err != nil && !ok {
		return LaunchError{Tool: tool, Err: err}
	}

	if stderr.Len() == 0 {
		return nil
	}

	w := a.Stderr
	if w == nil {
		w = os.Stderr
	}

	_, err = w.Write(stderr.Bytes())
	if err != nil {
		return errors.Wrap(err, "forward assembler stderr")
	}

	return nil
}

func (e LaunchError) Error() string {
	return fmt.Sprintf("%v %v: %v", ErrToolLaunch, e.Tool, e.Err)
}

func (e LaunchError) Unwrap() error { return e.Err }

func (e LaunchError) Is(target error) bool { return target == ErrToolLaunch }
