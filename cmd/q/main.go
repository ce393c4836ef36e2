package main

import (
	"context"
	"os"
	"time"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/qlang/q/compiler"
	"github.com/qlang/q/compiler/fasm"
)

func main() {
	app := &cli.Command{
		Name:        "q",
		Description: "q <source_path> compiles a Q source file to an x86_64 ELF64 executable using fasm",
		Action:      compileAct,
		Args:        cli.Args{},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func compileAct(c *cli.Command) (err error) {
	start := time.Now()

	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	if len(c.Args) != 1 {
		return errors.New("expected exactly one source path, got %d args", len(c.Args))
	}

	src := c.Args[0]

	a := &fasm.Assembler{
		Stderr: os.Stderr,
	}

	_, err = compiler.Build(ctx, src, a)
	if err != nil {
		return errors.Wrap(err, "compile %v", src)
	}

	tlog.Printw("compilation finished", "elapsed", time.Since(start))

	return nil
}
