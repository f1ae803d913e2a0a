package shell

// Expand replaces variable and history tokens with words.
//
// history is ordered oldest first and must not yet contain the line being
// expanded. A missing variable becomes an empty word. A history reference
// is replaced by the tokens of the referenced line; history references in
// that replayed line are dropped rather than followed, but its variables are
// expanded. An out-of-range index becomes an empty word.
func Expand(tokens []Token, vars Lookup, history []string) []Token {
	out := make([]Token, 0, len(tokens))
	for _, tok := range tokens {
		switch tok.Kind {
		case TokVariable:
			out = append(out, Word(lookup(vars, tok.Text)))
		case TokHistoryLast:
			out = append(out, replay(historyAt(history, int64(len(history))-1), vars)...)
		case TokHistoryIndex:
			idx, ok := resolveIndex(tok.Index, len(history))
			if !ok {
				out = append(out, Word(""))
				continue
			}
			out = append(out, replay(history[idx], vars)...)
		default:
			out = append(out, tok)
		}
	}
	return out
}

func lookup(vars Lookup, name string) string {
	if vars == nil {
		return ""
	}
	v, _ := vars(name)
	return v
}

func historyAt(history []string, i int64) string {
	if i < 0 || i >= int64(len(history)) {
		return ""
	}
	return history[i]
}

// resolveIndex maps !N (N >= 0, from the oldest) or !-N (from the newest)
// onto a slice index without overflowing.
func resolveIndex(n int64, length int) (int, bool) {
	if n >= 0 {
		if n >= int64(length) {
			return 0, false
		}
		return int(n), true
	}
	if n < -int64(length) {
		return 0, false
	}
	return length + int(n), true
}

func replay(line string, vars Lookup) []Token {
	var out []Token
	for _, tok := range Lex(line, vars) {
		switch {
		case tok.isHistory():
			continue
		case tok.Kind == TokVariable:
			out = append(out, Word(lookup(vars, tok.Text)))
		default:
			out = append(out, tok)
		}
	}
	return out
}
