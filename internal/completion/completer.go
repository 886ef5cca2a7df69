package completion

import (
	"sort"

	"github.com/sahilm/fuzzy"

	"github.com/nhle/mailrepl/internal/grammar"
)

// Outcome tells the caller what a completion request decided.
type Outcome int

const (
	// NoMatch means nothing qualified; the buffer stays as it is and any
	// listed candidates should be cleared.
	NoMatch Outcome = iota
	// Completed means exactly one candidate qualified and Line holds the
	// new buffer content.
	Completed
	// Ambiguous means several candidates qualified; they are listed in
	// Candidates and the buffer stays as it is.
	Ambiguous
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Ambiguous:
		return "ambiguous"
	default:
		return "no match"
	}
}

// Result is the outcome of one completion request.
type Result struct {
	Outcome    Outcome
	Line       string
	Candidates []string
}

// Candidate is a grammar child that survived filtering, with its rank.
type Candidate struct {
	Name  string
	Score int
}

// Completer completes command lines against a grammar.
type Completer struct {
	grammar *grammar.Grammar
}

// New returns a Completer for g.
func New(g *grammar.Grammar) *Completer {
	return &Completer{grammar: g}
}

// Complete completes input, which is the whole content of the line
// being edited.
func (c *Completer) Complete(input string) Result {
	tokens := grammar.Split(input)

	committed := make([]string, 0, len(tokens))
	partial := ""
	if grammar.EndsWithSpace(input) || len(tokens) == 0 {
		for _, t := range tokens {
			committed = append(committed, t.Text)
		}
	} else {
		for _, t := range tokens[:len(tokens)-1] {
			committed = append(committed, t.Text)
		}
		partial = tokens[len(tokens)-1].Text
	}

	children := c.grammar.ChildrenAt(committed)
	if len(children) == 0 {
		return Result{Outcome: NoMatch}
	}

	ranked := Rank(partial, children)
	switch len(ranked) {
	case 0:
		return Result{Outcome: NoMatch}
	case 1:
		prefix := input[:len(input)-len(partial)]
		return Result{Outcome: Completed, Line: prefix + ranked[0].Name + " "}
	default:
		names := make([]string, 0, len(ranked))
		for _, r := range ranked {
			names = append(names, r.Name)
		}
		return Result{Outcome: Ambiguous, Candidates: names}
	}
}

// Rank filters children against the partial token and orders the
// survivors by score descending, then name ascending. An empty partial
// keeps every child in name order, ranked by position.
func Rank(partial string, children []grammar.Node) []Candidate {
	names := make([]string, 0, len(children))
	for _, child := range children {
		names = append(names, child.Name)
	}

	if partial == "" {
		sort.Strings(names)
		out := make([]Candidate, 0, len(names))
		for i, name := range names {
			out = append(out, Candidate{Name: name, Score: -i})
		}
		return out
	}

	matches := fuzzy.Find(partial, names)
	out := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		out = append(out, Candidate{Name: m.Str, Score: m.Score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	return out
}
