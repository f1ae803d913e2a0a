package shell

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func vars(m map[string]string) Lookup {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func TestLex(t *testing.T) {
	env := vars(map[string]string{"USER": "alice", "EMPTY": ""})

	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{"empty", "", nil},
		{"blank", "   \t ", nil},
		{"simple", "ls -la", []Token{Word("ls"), Word("-la")}},
		{"pipe", "ls | grep blog", []Token{Word("ls"), Pipe(), Word("grep"), Word("blog")}},
		{"pipe without spaces", "ls|wc", []Token{Word("ls"), Pipe(), Word("wc")}},
		{"variable", "echo $HOME", []Token{Word("echo"), Variable("HOME")}},
		{"braced variable", "echo ${HOME}x", []Token{Word("echo"), Variable("HOME"), Word("x")}},
		{"variable stops at punctuation", "echo $A.b", []Token{Word("echo"), Variable("A"), Word(".b")}},
		{"lone dollar", "echo $", []Token{Word("echo"), Word("$")}},
		{"dollar digit", "echo $5", []Token{Word("echo"), Word("$5")}},
		{"unclosed brace", "echo ${HOME", []Token{Word("echo"), Word("${HOME")}},
		{"empty braces", "echo ${}", []Token{Word("echo"), Word("${}")}},
		{"history last", "!!", []Token{HistoryLast()}},
		{"history index", "!3", []Token{HistoryIndex(3)}},
		{"history negative", "!-2", []Token{HistoryIndex(-2)}},
		{"bang at end", "echo !", []Token{Word("echo"), Word("!")}},
		{"bang word", "echo !foo", []Token{Word("echo"), Word("!foo")}},
		{"bang dash word", "echo !-x", []Token{Word("echo"), Word("!-x")}},
		{"single quotes", "echo 'a | $B !!'", []Token{Word("echo"), Word("a | $B !!")}},
		{"unterminated single", "echo 'abc def", []Token{Word("echo"), Word("abc def")}},
		{"double quotes", `echo "hello world"`, []Token{Word("echo"), Word("hello world")}},
		{"double quote escapes", `echo "a\tb\nc\"d"`, []Token{Word("echo"), Word("a\tb\nc\"d")}},
		{"double quote variable", `echo "hi $USER"`, []Token{Word("echo"), Word("hi alice")}},
		{"double quote braced variable", `echo "${USER}s"`, []Token{Word("echo"), Word("alices")}},
		{"double quote unknown variable", `echo "$NOPE ${NOPE}"`, []Token{Word("echo"), Word("$NOPE ${NOPE}")}},
		{"double quote empty variable", `echo "[$EMPTY]"`, []Token{Word("echo"), Word("[]")}},
		{"double quote keeps history", `echo "!! !1"`, []Token{Word("echo"), Word("!! !1")}},
		{"unterminated double", `echo "abc`, []Token{Word("echo"), Word("abc")}},
		{"adjacent quote splits", `a"b"`, []Token{Word("a"), Word("b")}},
		{"unicode word", "cat ~/日本/読む.md", []Token{Word("cat"), Word("~/日本/読む.md")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Lex(tt.input, env)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Lex(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestLexNilLookupKeepsLiteral(t *testing.T) {
	got := Lex(`"$A"`, nil)
	if diff := cmp.Diff([]Token{Word("$A")}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestIsValidName(t *testing.T) {
	valid := []string{"FOO", "foo", "_foo", "FOO_BAR", "foo123", "_123", "a", "_"}
	invalid := []string{"", "123", "1foo", "foo-bar", "foo.bar", "foo bar", "foo=bar", "é"}

	for _, n := range valid {
		if !IsValidName(n) {
			t.Errorf("IsValidName(%q) = false, want true", n)
		}
	}
	for _, n := range invalid {
		if IsValidName(n) {
			t.Errorf("IsValidName(%q) = true, want false", n)
		}
	}
}
