package front

type charset uint64

var (
	spaces = newCharset(' ', '\t', '\r', '\n')

	// wordEnd terminates a word token.
	wordEnd = spaces | newCharset('#', '"', '(', '+', '-', '*', '=', '>', '<')
)

func newCharset(chars ...byte) (cs charset) {
	for _, q := range chars {
		if q >= 64 {
			panic("too high char code")
		}

		cs |= 1 << q
	}

	return
}

func (cs charset) Has(c byte) bool {
	return c < 64 && cs&(1<<c) != 0
}

// Skip returns the first index at or after st holding a char not in cs.
func (cs charset) Skip(b []byte, st int) (i int) {
	i = st

	for i < len(b) && cs.Has(b[i]) {
		i++
	}

	return
}

// Until returns the first index at or after st holding a char in cs.
func (cs charset) Until(b []byte, st int) (i int) {
	i = st

	for i < len(b) && !cs.Has(b[i]) {
		i++
	}

	return
}
