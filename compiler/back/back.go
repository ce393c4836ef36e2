package back

import (
	"bytes"
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/qlang/q/compiler/asm"
	"github.com/qlang/q/compiler/ir"
)

type (
	// Compiler lowers a Program to FASM x86_64 assembly.
	Compiler struct{}
)

var ErrNoBranchTarget = errors.New("comparison has no if block")

func New() *Compiler { return &Compiler{} }

func (c *Compiler) CompileProgram(ctx context.Context, b []byte, p *ir.Program) (_ []byte, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "back: x86_64", "program", p)
	defer tr.Finish("err", &err)

	b = hfmt.Appendf(b, "%s\n%s\n", asm.Format, asm.SegmentCode)
	b = append(b, asm.PrintRoutine...)
	b = hfmt.Appendf(b, "entry %s\n%[1]s:\n", asm.Entry)

	for ip, t := range p.Tokens {
		b = hfmt.Appendf(b, "%v:\n", asm.Label(ip))

		b, err = c.compileToken(b, p, ip, t)
		if err != nil {
			return nil, errors.Wrap(err, "inst %d (%v)", ip, t)
		}
	}

	b = hfmt.Appendf(b, "%v:\n", asm.Label(p.Len()))
	b = app(b, "; exit")
	b = app(b, "mov rax, %d", asm.SysExit)
	b = app(b, "mov rdi, 0")
	b = app(b, "syscall")

	b = hfmt.Appendf(b, "%s\n", asm.SegmentData)

	for k, s := range p.Strings {
		b = compileString(b, k, s)
	}

	return b, nil
}

func (c *Compiler) compileToken(b []byte, p *ir.Program, ip int, t ir.Token) (_ []byte, err error) {
	switch t := t.(type) {
	case ir.Push:
		b = app(b, "; push")

		if asm.FitsImm32(t.Value) {
			b = app(b, "push %d", t.Value)
		} else {
			b = app(b, "mov %v, %d", asm.RAX, t.Value)
			b = app(b, "push %v", asm.RAX)
		}
	case ir.PushString:
		b = app(b, "; push string")
		b = app(b, "push %v", asm.StrLabel(t.Index))
	case ir.Add:
		b = binop(b, "add", "add")
	case ir.Sub:
		b = binop(b, "sub", "sub")
	case ir.Mul:
		b = binop(b, "mul", "imul")
	case ir.Dup:
		b = app(b, "; dup")
		b = pop(b, asm.RAX)
		b = push(b, asm.RAX, asm.RAX)
	case ir.Swap:
		b = app(b, "; swap")
		b = pop(b, asm.RAX, asm.RDX)
		b = push(b, asm.RAX, asm.RDX)
	case ir.Over:
		b = app(b, "; over")
		b = pop(b, asm.RAX, asm.RDX)
		b = push(b, asm.RDX, asm.RAX, asm.RDX)
	case ir.Pop:
		// label only
	case ir.Print:
		b = app(b, "; print")
		b = pop(b, asm.RDI)
		b = app(b, "call %s", asm.PrintFunc)
	case ir.Equals:
		b, err = guard(b, p, ip, "equals", asm.NE)
	case ir.Greater:
		b, err = guard(b, p, ip, "greater", asm.BE)
	case ir.Less:
		b, err = guard(b, p, ip, "less", asm.AE)
	case ir.InlineAsm:
		b = app(b, "; inline")

		for _, l := range bytes.Split(t.Text, []byte{'\n'}) {
			b = app(b, "%s", l)
		}
	default:
		return nil, errors.New("unsupported token: %T", t)
	}

	return b, err
}

// binop pops A then B and pushes B op A.
func binop(b []byte, name, op string) []byte {
	b = app(b, "; %s", name)
	b = pop(b, asm.RAX, asm.RDX)
	b = app(b, "%s %v, %v", op, asm.RDX, asm.RAX)
	b = push(b, asm.RDX)

	return b
}

// guard pops A then B and skips the following if block unless B cond A.
func guard(b []byte, p *ir.Program, ip int, name string, skip asm.Cond) ([]byte, error) {
	end, ok := p.Target(ip + 1)
	if !ok {
		return nil, ErrNoBranchTarget
	}

	b = app(b, "; %s", name)
	b = pop(b, asm.RAX, asm.RDX)
	b = app(b, "cmp %v, %v", asm.RDX, asm.RAX)
	b = app(b, "%s %v", skip.Jump(), asm.Label(end))

	return b, nil
}

func compileString(b []byte, k int, s []byte) []byte {
	b = hfmt.Appendf(b, "%v:", asm.StrLabel(k))

	for i, c := range s {
		if i == 0 {
			b = append(b, " db "...)
		} else {
			b = append(b, ',')
		}

		b = hfmt.Appendf(b, "%d", c)
	}

	return append(b, '\n')
}

func pop(b []byte, regs ...asm.Reg) []byte {
	for _, r := range regs {
		b = app(b, "pop %v", r)
	}

	return b
}

func push(b []byte, regs ...asm.Reg) []byte {
	for _, r := range regs {
		b = app(b, "push %v", r)
	}

	return b
}

func app(b []byte, f string, args ...any) []byte {
	b = append(b, "    "...)
	b = hfmt.Appendf(b, f, args...)
	return append(b, '\n')
}
