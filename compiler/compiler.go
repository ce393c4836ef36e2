package compiler

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/qlang/q/compiler/back"
	"github.com/qlang/q/compiler/fasm"
	"github.com/qlang/q/compiler/format"
	"github.com/qlang/q/compiler/front"
	"github.com/qlang/q/compiler/ir"
)

// Build compiles the source file name and assembles the result.
func Build(ctx context.Context, name string, a *fasm.Assembler) (asmPath string, err error) {
	asmPath, err = CompileFile(ctx, name)
	if err != nil {
		return "", err
	}

	err = a.Assemble(ctx, asmPath)
	if err != nil {
		return asmPath, errors.Wrap(err, "assemble")
	}

	return asmPath, nil
}

// CompileFile compiles the source file name and writes the assembly
// to OutputPath(name).
func CompileFile(ctx context.Context, name string) (asmPath string, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return "", errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	obj, err := Compile(ctx, name, text)
	if err != nil {
		return "", err
	}

	asmPath = OutputPath(name)

	err = writeFile(asmPath, obj)
	if err != nil {
		return "", errors.Wrap(err, "write output")
	}

	tlog.SpanFromContext(ctx).Printw("wrote assembly", "size", len(obj), "name", asmPath)

	return asmPath, nil
}

func Compile(ctx context.Context, name string, text []byte) (obj []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name)
	defer tr.Finish("err", &err)

	p, err := front.Parse(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "lex")
	}

	dump(ctx, p)

	var c back.Compiler

	obj, err = c.CompileProgram(ctx, nil, p)
	if err != nil {
		return nil, errors.Wrap(err, "codegen")
	}

	return obj, nil
}

// OutputPath is name in the same directory with everything from the
// first dot of its base name replaced by ".asm".
func OutputPath(name string) string {
	dir, base := filepath.Split(name)

	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}

	return dir + base + ".asm"
}

func writeFile(name string, data []byte) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "open")
	}

	defer func() {
		e := f.Close()
		if err == nil && e != nil {
			err = errors.Wrap(e, "close")
		}
	}()

	_, err = f.Write(data)
	if err != nil {
		return errors.Wrap(err, "write")
	}

	return nil
}

func dump(ctx context.Context, p *ir.Program) {
	if !tlog.If("dump") {
		return
	}

	src, err := format.Format(ctx, nil, p)
	if err != nil {
		tlog.SpanFromContext(ctx).Printw("format program", "err", err)
		return
	}

	tlog.SpanFromContext(ctx).Printw("program", "src", string(src))
}
