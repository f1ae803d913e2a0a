package shell

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lex splits a raw input line into tokens.
//
// Variables inside double quotes are substituted during lexing through vars;
// an unknown variable keeps its literal $NAME or ${NAME} spelling. History
// references are never recognized inside quotes, and single-quoted spans
// are taken verbatim. An unterminated quote runs to the end of the line.
func Lex(input string, vars Lookup) []Token {
	lx := &lexer{input: input, vars: vars}
	var tokens []Token
	for {
		lx.skipSpace()
		if lx.done() {
			return tokens
		}
		if tok, ok := lx.next(); ok {
			tokens = append(tokens, tok)
		}
	}
}

type lexer struct {
	input string
	pos   int
	vars  Lookup
}

func (lx *lexer) done() bool { return lx.pos >= len(lx.input) }

func (lx *lexer) peek() rune {
	if lx.done() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(lx.input[lx.pos:])
	return r
}

func (lx *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(lx.input[lx.pos:])
	lx.pos += size
	return r
}

func (lx *lexer) skipSpace() {
	for !lx.done() && unicode.IsSpace(lx.peek()) {
		lx.advance()
	}
}

func (lx *lexer) next() (Token, bool) {
	switch lx.peek() {
	case '|':
		lx.pos++
		return Pipe(), true
	case '$':
		return lx.variable(), true
	case '!':
		return lx.history(), true
	case '"':
		return lx.doubleQuoted(), true
	case '\'':
		return lx.singleQuoted(), true
	}
	return lx.word("")
}

// varRef is the outcome of reading a reference after '$'.
type varRef struct {
	name   string
	braced bool
	raw    string // literal spelling when the reference is not a valid name
	ok     bool
}

// readVar consumes a $NAME or ${NAME} reference; the '$' is already consumed.
func (lx *lexer) readVar() varRef {
	if lx.peek() == '{' {
		lx.pos++
		end := strings.IndexByte(lx.input[lx.pos:], '}')
		if end < 0 {
			rest := lx.input[lx.pos:]
			lx.pos = len(lx.input)
			return varRef{raw: "${" + rest}
		}
		name := lx.input[lx.pos : lx.pos+end]
		lx.pos += end + 1
		if !IsValidName(name) {
			return varRef{raw: "${" + name + "}"}
		}
		return varRef{name: name, braced: true, ok: true}
	}

	start := lx.pos
	for !lx.done() {
		c := lx.input[lx.pos]
		if c == '_' || isASCIILetter(c) || (lx.pos > start && isASCIIDigit(c)) {
			lx.pos++
			continue
		}
		break
	}
	if lx.pos == start {
		return varRef{raw: "$"}
	}
	return varRef{name: lx.input[start:lx.pos], ok: true}
}

func (lx *lexer) variable() Token {
	lx.pos++ // '$'
	ref := lx.readVar()
	if ref.ok {
		return Variable(ref.name)
	}
	if ref.raw == "$" {
		// "$5", "$-" and a lone "$" stay part of an ordinary word.
		tok, _ := lx.word("$")
		return tok
	}
	return Word(ref.raw)
}

func (lx *lexer) history() Token {
	lx.pos++ // '!'
	if lx.done() {
		return Word("!")
	}
	if lx.peek() == '!' {
		lx.pos++
		return HistoryLast()
	}

	start := lx.pos
	if lx.peek() == '-' {
		lx.pos++
	}
	for !lx.done() && isASCIIDigit(lx.input[lx.pos]) {
		lx.pos++
	}
	if n, err := strconv.ParseInt(lx.input[start:lx.pos], 10, 64); err == nil {
		return HistoryIndex(n)
	}

	lx.pos = start
	tok, _ := lx.word("!")
	return tok
}

func (lx *lexer) doubleQuoted() Token {
	lx.pos++ // opening quote
	var b strings.Builder
	for !lx.done() {
		c := lx.advance()
		switch {
		case c == '"':
			return Word(b.String())
		case c == '\\' && !lx.done():
			switch e := lx.advance(); e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteRune(e)
			}
		case c == '$' && !lx.done():
			b.WriteString(lx.expandInline(lx.readVar()))
		default:
			b.WriteRune(c)
		}
	}
	return Word(b.String())
}

func (lx *lexer) expandInline(ref varRef) string {
	if !ref.ok {
		return ref.raw
	}
	if lx.vars != nil {
		if v, found := lx.vars(ref.name); found {
			return v
		}
	}
	if ref.braced {
		return "${" + ref.name + "}"
	}
	return "$" + ref.name
}

func (lx *lexer) singleQuoted() Token {
	lx.pos++ // opening quote
	end := strings.IndexByte(lx.input[lx.pos:], '\'')
	if end < 0 {
		content := lx.input[lx.pos:]
		lx.pos = len(lx.input)
		return Word(content)
	}
	content := lx.input[lx.pos : lx.pos+end]
	lx.pos += end + 1
	return Word(content)
}

// word reads a bare word. It stops at whitespace, a pipe, or the start of
// a variable, history reference or quote.
func (lx *lexer) word(prefix string) (Token, bool) {
	start := lx.pos
	for !lx.done() {
		r := lx.peek()
		if unicode.IsSpace(r) || strings.ContainsRune("|$!\"'", r) {
			break
		}
		lx.advance()
	}
	w := prefix + lx.input[start:lx.pos]
	if w == "" {
		return Token{}, false
	}
	return Word(w), true
}
