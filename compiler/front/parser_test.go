package front

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qlang/q/compiler/ir"
)

func parse(t *testing.T, src string) *ir.Program {
	t.Helper()

	p, err := Parse(context.Background(), []byte(src))
	require.NoError(t, err, "source: %q", src)

	return p
}

func TestTokens(t *testing.T) {
	p := parse(t, "34 35 + print 10 5 - * dup swap over drop 1 2 < if end 3 3 > if end 4 4 = if end")

	assert.Equal(t, []ir.Token{
		ir.Push{Value: 34},
		ir.Push{Value: 35},
		ir.Add{},
		ir.Print{},
		ir.Push{Value: 10},
		ir.Push{Value: 5},
		ir.Sub{},
		ir.Mul{},
		ir.Dup{},
		ir.Swap{},
		ir.Over{},
		ir.Pop{},
		ir.Push{Value: 1},
		ir.Push{Value: 2},
		ir.Less{},
		ir.Push{Value: 3},
		ir.Push{Value: 3},
		ir.Greater{},
		ir.Push{Value: 4},
		ir.Push{Value: 4},
		ir.Equals{},
	}, p.Tokens)

	assert.Len(t, p.Pos, p.Len())
	assert.Equal(t, map[int]int{15: 15, 18: 18, 21: 21}, p.Branches)
}

func TestOperatorsSplitWords(t *testing.T) {
	p := parse(t, "34 35+print 7 dup*print")

	assert.Equal(t, []ir.Token{
		ir.Push{Value: 34},
		ir.Push{Value: 35},
		ir.Add{},
		ir.Print{},
		ir.Push{Value: 7},
		ir.Dup{},
		ir.Mul{},
		ir.Print{},
	}, p.Tokens)

	assert.Equal(t, []int{0, 3, 5, 6, 12, 14, 17, 18}, p.Pos)
}

func TestWhitespace(t *testing.T) {
	p := parse(t, "\t1\r\n2\n\n  +\tprint\n")

	assert.Equal(t, []ir.Token{
		ir.Push{Value: 1},
		ir.Push{Value: 2},
		ir.Add{},
		ir.Print{},
	}, p.Tokens)
}

func TestComments(t *testing.T) {
	p := parse(t, "# header\n1 print # trailing ( \" words\n2# glued\nprint")

	assert.Equal(t, []ir.Token{
		ir.Push{Value: 1},
		ir.Print{},
		ir.Push{Value: 2},
		ir.Print{},
	}, p.Tokens)
}

func TestStrings(t *testing.T) {
	p := parse(t, `"Hello" drop "a b  # (x)"` + "\"\" \"multi\nline\"")

	assert.Equal(t, []ir.Token{
		ir.PushString{Index: 0},
		ir.Pop{},
		ir.PushString{Index: 1},
		ir.PushString{Index: 2},
		ir.PushString{Index: 3},
	}, p.Tokens)

	assert.Equal(t, [][]byte{
		[]byte("Hello"),
		[]byte("a b  # (x)"),
		{},
		[]byte("multi\nline"),
	}, p.Strings)

	n := 0

	for _, tk := range p.Tokens {
		if s, ok := tk.(ir.PushString); ok {
			assert.Equal(t, n, s.Index)
			n++
		}
	}

	assert.Equal(t, n, len(p.Strings))
}

func TestInlineAsm(t *testing.T) {
	p := parse(t, "1(pop rax\n  push rax)print")

	assert.Equal(t, []ir.Token{
		ir.Push{Value: 1},
		ir.InlineAsm{Text: []byte("pop rax\n  push rax")},
		ir.Print{},
	}, p.Tokens)
}

func TestNestedIf(t *testing.T) {
	// ip:        0 1 2    3 4 5    6  7         8 9
	p := parse(t, "1 1 = if 2 2 > if 42 print end 7 print end")

	assert.Equal(t, map[int]int{3: 10, 6: 8}, p.Branches)
	assertBranchesWellFormed(t, p)

	p = parse(t, "1 1 = if 5 print end 2 2 = if 6 print end 9 print")

	assert.Equal(t, map[int]int{3: 5, 8: 10}, p.Branches)
	assertBranchesWellFormed(t, p)
}

func TestBranchesWellFormed(t *testing.T) {
	for _, src := range []string{
		"1 1 = if end",
		"1 2 < if 1 1 = if 2 2 = if 3 print end end 4 print end",
		"\"s\" drop 5 5 = if (nop) 1 1 > if end end 1 print",
	} {
		p := parse(t, src)

		assertBranchesWellFormed(t, p)
	}
}

func TestNestedEndsShareTarget(t *testing.T) {
	// ip:        0 1 2    3 4 5    6
	p := parse(t, "1 1 = if 1 1 = if end end")

	// inner and outer end at the same IP, so two openers share one target
	assert.Equal(t, map[int]int{3: 6, 6: 6}, p.Branches)
	assertBranchesWellFormed(t, p)

	p = parse(t, "1 1 = if 2 2 = if 3 print end end 4 print")

	assert.Equal(t, map[int]int{3: 8, 6: 8}, p.Branches)
	assertBranchesWellFormed(t, p)
}

func assertBranchesWellFormed(t *testing.T, p *ir.Program) {
	t.Helper()

	for open, end := range p.Branches {
		assert.True(t, open >= 1 && open <= p.Len(), "open %d", open)
		assert.True(t, end >= open && end <= p.Len(), "end %d for %d", end, open)

		_, ok := p.Tokens[open-1].(ir.Guard)
		assert.True(t, ok, "if at %d does not follow a guard", open)

		// strict nesting: two blocks either nest or are disjoint
		for o2, e2 := range p.Branches {
			if o2 == open {
				continue
			}

			disjoint := e2 <= open || end <= o2
			nested := open <= o2 && e2 <= end || o2 <= open && end <= e2

			assert.True(t, disjoint || nested, "blocks %d-%d and %d-%d overlap", open, end, o2, e2)
		}
	}
}

func TestErrors(t *testing.T) {
	for _, tc := range []struct {
		src  string
		err  error
		line int
		col  int
	}{
		{"1 2 foo", ErrUnknownKeyword, 1, 5},
		{"1 prin\n", ErrUnknownKeyword, 1, 3},
		{"1 2)", ErrUnknownKeyword, 1, 3},
		{"18446744073709551616", ErrIntRange, 1, 1},
		{"1 \"abc", ErrUnterminatedSpan, 1, 3},
		{"1\n (nop", ErrUnterminatedSpan, 2, 2},
		{"1 print end", ErrMismatchedEnd, 1, 9},
		{"1 1 = if 2 print", ErrUnclosedIf, 1, 7},
		{"1 1 = if\n 1 1 = if end", ErrUnclosedIf, 1, 7},
		{"1 if 2 end", ErrUnguardedIf, 1, 3},
		{"if end", ErrUnguardedIf, 1, 1},
		{"1 1 = if if end end", ErrUnguardedIf, 1, 10},
		{"1 1 = print", ErrDanglingGuard, 1, 5},
		{"1 1 <", ErrDanglingGuard, 1, 5},
		{"1 1 = if 2 2 > end", ErrDanglingGuard, 1, 14},
	} {
		_, err := Parse(context.Background(), []byte(tc.src))
		require.Error(t, err, "source: %q", tc.src)

		assert.ErrorIs(t, err, tc.err, "source: %q", tc.src)

		var e Error
		if assert.ErrorAs(t, err, &e, "source: %q", tc.src) {
			assert.Equal(t, tc.line, e.Line, "source: %q: %v", tc.src, err)
			assert.Equal(t, tc.col, e.Col, "source: %q: %v", tc.src, err)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	_, err := Parse(context.Background(), []byte("1\n2 foo"))

	assert.EqualError(t, err, "2:3: unknown keyword: foo")
}

func TestParseFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "prog.q")

	err := os.WriteFile(name, []byte("34 35 + print\n"), 0o644)
	require.NoError(t, err)

	p, err := ParseFile(context.Background(), name)
	require.NoError(t, err)

	assert.Equal(t, 4, p.Len())

	_, err = ParseFile(context.Background(), filepath.Join(t.TempDir(), "missing.q"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
