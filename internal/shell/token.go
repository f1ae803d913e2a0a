// Package shell turns a raw input line into a pipeline of words.
//
// The three stages are Lex (characters to tokens), Expand (variable and
// history references to words) and ParsePipeline (words grouped by pipe).
package shell

import "fmt"

// TokenKind identifies the variant of a Token.
type TokenKind int

const (
	TokWord TokenKind = iota
	TokPipe
	TokVariable
	TokHistoryLast
	TokHistoryIndex
)

// Token is one lexical unit. Text holds the word or the variable name;
// Index holds the history offset for TokHistoryIndex.
type Token struct {
	Kind  TokenKind
	Text  string
	Index int64
}

func Word(s string) Token        { return Token{Kind: TokWord, Text: s} }
func Pipe() Token                { return Token{Kind: TokPipe} }
func Variable(name string) Token { return Token{Kind: TokVariable, Text: name} }
func HistoryLast() Token         { return Token{Kind: TokHistoryLast} }
func HistoryIndex(n int64) Token { return Token{Kind: TokHistoryIndex, Index: n} }

func (t Token) isHistory() bool {
	return t.Kind == TokHistoryLast || t.Kind == TokHistoryIndex
}

func (t Token) String() string {
	switch t.Kind {
	case TokWord:
		return fmt.Sprintf("Word(%q)", t.Text)
	case TokPipe:
		return "Pipe"
	case TokVariable:
		return fmt.Sprintf("Variable(%s)", t.Text)
	case TokHistoryLast:
		return "HistoryLast"
	case TokHistoryIndex:
		return fmt.Sprintf("HistoryIndex(%d)", t.Index)
	}
	return fmt.Sprintf("Token(%d)", int(t.Kind))
}

// Lookup resolves a variable name. The env store satisfies it through an
// adapter; nil means no variables are defined.
type Lookup func(name string) (string, bool)

// IsValidName reports whether s is a legal variable name: a letter or
// underscore followed by letters, digits or underscores.
func IsValidName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || isASCIILetter(c) || (i > 0 && isASCIIDigit(c)) {
			continue
		}
		return false
	}
	return true
}

func isASCIILetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isASCIIDigit(c byte) bool  { return c >= '0' && c <= '9' }
