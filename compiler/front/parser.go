package front

import (
	"bytes"
	"context"
	"os"
	"strconv"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/qlang/q/compiler/ir"
)

type (
	Parser struct{}

	state struct {
		b []byte
		p *ir.Program

		scope []opener

		// IP of a comparison not yet claimed by if, or -1.
		guard    int
		guardPos int

		tr tlog.Span
	}

	opener struct {
		ip  int
		pos int
	}
)

func ParseFile(ctx context.Context, name string) (*ir.Program, error) {
	var p Parser

	return p.ParseFile(ctx, name)
}

func Parse(ctx context.Context, text []byte) (*ir.Program, error) {
	var p Parser

	return p.Parse(ctx, text)
}

func (p *Parser) ParseFile(ctx context.Context, name string) (*ir.Program, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(data), "name", name)

	return p.Parse(ctx, data)
}

func (p *Parser) Parse(ctx context.Context, b []byte) (_ *ir.Program, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "front: lex", "size", len(b))
	defer tr.Finish("err", &err)

	s := &state{
		b: b,
		p: &ir.Program{
			Branches: map[int]int{},
		},
		guard: -1,
		tr:    tr,
	}

	for i := 0; i < len(b); {
		i, err = s.next(i)
		if err != nil {
			return nil, err
		}
	}

	err = s.finish()
	if err != nil {
		return nil, err
	}

	tr.Printw("lexed program", "program", s.p)

	return s.p, nil
}

func (s *state) next(st int) (i int, err error) {
	b := s.b

	i = spaces.Skip(b, st)
	if i == len(b) {
		return i, nil
	}

	st = i

	switch c := b[i]; c {
	case '#':
		return skipLine(b, i), nil
	case '"':
		pld, i, err := s.span(st, '"')
		if err != nil {
			return i, err
		}

		err = s.emit(st, ir.PushString{Index: len(s.p.Strings)})
		if err != nil {
			return i, err
		}

		s.p.Strings = append(s.p.Strings, pld)

		return i, nil
	case '(':
		pld, i, err := s.span(st, ')')
		if err != nil {
			return i, err
		}

		return i, s.emit(st, ir.InlineAsm{Text: pld})
	case '+':
		return i + 1, s.emit(st, ir.Add{})
	case '-':
		return i + 1, s.emit(st, ir.Sub{})
	case '*':
		return i + 1, s.emit(st, ir.Mul{})
	case '=':
		return i + 1, s.emit(st, ir.Equals{})
	case '>':
		return i + 1, s.emit(st, ir.Greater{})
	case '<':
		return i + 1, s.emit(st, ir.Less{})
	}

	i = wordEnd.Until(b, i)

	return i, s.word(st, b[st:i])
}

// span returns the payload between b[st] and the matching close char.
func (s *state) span(st int, close byte) (pld []byte, i int, err error) {
	end := bytes.IndexByte(s.b[st+1:], close)
	if end < 0 {
		return nil, len(s.b), s.errorf(st, ErrUnterminatedSpan, "%c", s.b[st])
	}

	i = st + 1 + end

	return s.b[st+1 : i], i + 1, nil
}

func (s *state) word(st int, w []byte) error {
	switch string(w) {
	case "dup":
		return s.emit(st, ir.Dup{})
	case "drop":
		return s.emit(st, ir.Pop{})
	case "swap":
		return s.emit(st, ir.Swap{})
	case "over":
		return s.emit(st, ir.Over{})
	case "print":
		return s.emit(st, ir.Print{})
	case "if":
		return s.openIf(st)
	case "end":
		return s.closeIf(st)
	}

	v, err := strconv.ParseUint(string(w), 10, 64)
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return s.errorf(st, ErrIntRange, "%s", w)
	}
	if err != nil {
		return s.errorf(st, ErrUnknownKeyword, "%s", w)
	}

	return s.emit(st, ir.Push{Value: v})
}

func (s *state) emit(st int, t ir.Token) error {
	err := s.checkGuard()
	if err != nil {
		return err
	}

	ip := len(s.p.Tokens)

	s.p.Tokens = append(s.p.Tokens, t)
	s.p.Pos = append(s.p.Pos, st)

	if _, ok := t.(ir.Guard); ok {
		s.guard = ip
		s.guardPos = st
	}

	if s.tr.If("tokens") {
		s.tr.Printw("token", "ip", ip, "token", t, "type", tlog.NextAsType, t)
	}

	return nil
}

// openIf records the IP of the next token. It must follow a comparison.
func (s *state) openIf(st int) error {
	ip := len(s.p.Tokens)

	if s.guard < 0 || s.guard != ip-1 {
		return s.errorf(st, ErrUnguardedIf, "")
	}

	s.guard = -1
	s.scope = append(s.scope, opener{ip: ip, pos: st})

	s.tr.V("scope").Printw("open scope", "ip", ip, "depth", len(s.scope), "from", loc.Callers(1, 2))

	return nil
}

func (s *state) closeIf(st int) error {
	err := s.checkGuard()
	if err != nil {
		return err
	}

	if len(s.scope) == 0 {
		return s.errorf(st, ErrMismatchedEnd, "")
	}

	last := len(s.scope) - 1
	o := s.scope[last]
	s.scope = s.scope[:last]

	ip := len(s.p.Tokens)
	s.p.Branches[o.ip] = ip

	s.tr.V("scope").Printw("close scope", "ip", o.ip, "end", ip, "depth", len(s.scope), "from", loc.Callers(1, 2))

	return nil
}

func (s *state) checkGuard() error {
	if s.guard < 0 {
		return nil
	}

	return s.errorf(s.guardPos, ErrDanglingGuard, "%v", s.p.Tokens[s.guard])
}

func (s *state) finish() error {
	err := s.checkGuard()
	if err != nil {
		return err
	}

	if len(s.scope) != 0 {
		o := s.scope[len(s.scope)-1]

		return s.errorf(o.pos, ErrUnclosedIf, "")
	}

	return nil
}

func skipLine(b []byte, i int) int {
	for i < len(b) && b[i] != '\n' {
		i++
	}

	return i
}
