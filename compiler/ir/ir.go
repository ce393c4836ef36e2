package ir

import (
	"strconv"

	"tlog.app/go/tlog/tlwire"
)

type (
	// Token is one emitted instruction. The variant set is closed.
	Token interface {
		token()
	}

	// Guard is a comparison token. It consumes two words and skips
	// the following if-body when the predicate does not hold.
	Guard interface {
		Token
		guard()
	}

	Push struct {
		Value uint64
	}

	PushString struct {
		Index int
	}

	InlineAsm struct {
		Text []byte
	}

	Add     struct{}
	Sub     struct{}
	Mul     struct{}
	Dup     struct{}
	Swap    struct{}
	Over    struct{}
	Pop     struct{}
	Print   struct{}
	Equals  struct{}
	Greater struct{}
	Less    struct{}

	// Program is the lexer output. It is not modified after lexing.
	Program struct {
		Tokens []Token
		Pos    []int // source offset of each token

		// Branches maps the IP recorded by if to the IP of its end.
		// A value equal to Len() is the exit trailer.
		Branches map[int]int

		Strings [][]byte
	}
)

func (Push) token()       {}
func (PushString) token() {}
func (InlineAsm) token()  {}
func (Add) token()        {}
func (Sub) token()        {}
func (Mul) token()        {}
func (Dup) token()        {}
func (Swap) token()       {}
func (Over) token()       {}
func (Pop) token()        {}
func (Print) token()      {}
func (Equals) token()     {}
func (Greater) token()    {}
func (Less) token()       {}

func (Equals) guard()  {}
func (Greater) guard() {}
func (Less) guard()    {}

func (p *Program) Len() int { return len(p.Tokens) }

// Target returns the end IP of the if block opened at ip.
func (p *Program) Target(ip int) (end int, ok bool) {
	end, ok = p.Branches[ip]
	return
}

func (x Push) String() string       { return strconv.FormatUint(x.Value, 10) }
func (x PushString) String() string { return "str_" + strconv.Itoa(x.Index) }
func (x InlineAsm) String() string  { return "(" + string(x.Text) + ")" }
func (Add) String() string          { return "+" }
func (Sub) String() string          { return "-" }
func (Mul) String() string          { return "*" }
func (Dup) String() string          { return "dup" }
func (Swap) String() string         { return "swap" }
func (Over) String() string         { return "over" }
func (Pop) String() string          { return "drop" }
func (Print) String() string        { return "print" }
func (Equals) String() string       { return "=" }
func (Greater) String() string      { return ">" }
func (Less) String() string         { return "<" }

func (p *Program) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	if p == nil {
		return e.AppendNil(b)
	}

	b = e.AppendMap(b, 3)

	b = e.AppendKeyInt(b, "tokens", len(p.Tokens))
	b = e.AppendKeyInt(b, "branches", len(p.Branches))
	b = e.AppendKeyInt(b, "strings", len(p.Strings))

	return b
}
