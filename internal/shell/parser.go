package shell

import "fmt"

// Stage is one pipe-separated segment: a name and its argument words.
type Stage struct {
	Name string
	Args []string
}

// Pipeline is a head stage followed by zero or more filter stages.
type Pipeline struct {
	Stages []Stage
}

// Empty reports whether there is nothing to run.
func (p Pipeline) Empty() bool { return len(p.Stages) == 0 }

// Head returns the first stage. It panics on an empty pipeline.
func (p Pipeline) Head() Stage { return p.Stages[0] }

// Filters returns the stages after the head.
func (p Pipeline) Filters() []Stage {
	if len(p.Stages) < 2 {
		return nil
	}
	return p.Stages[1:]
}

// SyntaxErrorKind classifies a pipe placement error.
type SyntaxErrorKind int

const (
	ErrLeadingPipe SyntaxErrorKind = iota
	ErrEmptyStage
	ErrTrailingPipe
)

// SyntaxError reports a misplaced pipe. Position is the zero-based index
// of the offending token.
type SyntaxError struct {
	Kind     SyntaxErrorKind
	Position int
}

func (e *SyntaxError) Error() string {
	switch e.Kind {
	case ErrLeadingPipe:
		return fmt.Sprintf("syntax error near token %d: unexpected '|'", e.Position+1)
	case ErrEmptyStage:
		return fmt.Sprintf("syntax error near token %d: empty pipe stage", e.Position+1)
	default:
		return fmt.Sprintf("syntax error near token %d: unexpected end after '|'", e.Position+1)
	}
}

// ParsePipeline groups expanded tokens into stages split on pipes.
// Empty words (an unset variable, say) are dropped. Tokens that are
// neither words nor pipes are ignored; Expand removes them beforehand.
func ParsePipeline(tokens []Token) (Pipeline, error) {
	var (
		p         Pipeline
		words     []string
		afterPipe bool
		lastPipe  int
	)
	for i, tok := range tokens {
		switch tok.Kind {
		case TokWord:
			if tok.Text == "" {
				continue
			}
			words = append(words, tok.Text)
			afterPipe = false
		case TokPipe:
			if len(words) == 0 {
				if p.Empty() {
					return p, &SyntaxError{Kind: ErrLeadingPipe, Position: i}
				}
				return p, &SyntaxError{Kind: ErrEmptyStage, Position: i}
			}
			p.Stages = append(p.Stages, Stage{Name: words[0], Args: words[1:]})
			words = nil
			afterPipe = true
			lastPipe = i
		}
	}
	if afterPipe {
		return p, &SyntaxError{Kind: ErrTrailingPipe, Position: lastPipe}
	}
	if len(words) > 0 {
		p.Stages = append(p.Stages, Stage{Name: words[0], Args: words[1:]})
	}
	return p, nil
}

// Parse runs the whole front end: Lex, Expand and ParsePipeline.
func Parse(line string, vars Lookup, history []string) (Pipeline, error) {
	return ParsePipeline(Expand(Lex(line, vars), vars, history))
}
