package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/qlang/q/compiler/ir"
)

// Format renders p as Q source, one token per line.
// Lexing the result gives back the same program.
func Format(ctx context.Context, b []byte, p *ir.Program) ([]byte, error) {
	// number of if blocks ending at each IP
	ends := map[int]int{}

	for _, end := range p.Branches {
		ends[end]++
	}

	d := 0

	for ip, t := range p.Tokens {
		for ; ends[ip] > 0; ends[ip]-- {
			d--
			b = app(b, d, "end\n")
		}

		var err error

		b, err = formatToken(ctx, b, p, t, d)
		if err != nil {
			return nil, errors.Wrap(err, "inst %d", ip)
		}

		if _, ok := p.Branches[ip+1]; ok {
			if _, ok := t.(ir.Guard); ok {
				b = app(b, d, "if\n")
				d++
			}
		}
	}

	for ip := p.Len(); ends[ip] > 0; ends[ip]-- {
		d--
		b = app(b, d, "end\n")
	}

	if d != 0 {
		return nil, errors.New("unbalanced blocks: %d", d)
	}

	return b, nil
}

func formatToken(ctx context.Context, b []byte, p *ir.Program, t ir.Token, d int) ([]byte, error) {
	switch t := t.(type) {
	case ir.PushString:
		if t.Index >= len(p.Strings) {
			return nil, errors.New("no string %d", t.Index)
		}

		b = app(b, d, "\"%s\"\n", p.Strings[t.Index])
	case ir.InlineAsm, ir.Push,
		ir.Add, ir.Sub, ir.Mul, ir.Dup, ir.Swap, ir.Over, ir.Pop, ir.Print,
		ir.Equals, ir.Greater, ir.Less:
		b = app(b, d, "%v\n", t)
	default:
		return nil, errors.New("unsupported token: %T", t)
	}

	return b, nil
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	if d > len(tabs) {
		d = len(tabs)
	}
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
