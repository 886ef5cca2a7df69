package grammar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Command describes one command and its sub-commands. A Command with no
// children is a leaf command.
type Command struct {
	Name     string
	Children []Command
}

// Node is a read-only view of a grammar node.
type Node struct {
	Name string
	Leaf bool
}

// node is an arena entry. children holds indexes into Grammar.nodes,
// kept in ascending name order.
type node struct {
	name     string
	children []int
}

// Grammar is an immutable forest of commands. It is safe for concurrent
// use since nothing mutates it after New returns.
type Grammar struct {
	nodes []node
	roots []int
}

// New builds a grammar from the given top-level commands. Names must be
// non-empty, free of whitespace and unique among their siblings.
func New(defs ...Command) (*Grammar, error) {
	g := &Grammar{}
	roots, err := g.add(defs, nil)
	if err != nil {
		return nil, err
	}
	g.roots = roots
	return g, nil
}

// MustNew is like New but panics on an invalid definition. It is meant
// for grammars fixed at build time.
func MustNew(defs ...Command) *Grammar {
	g, err := New(defs...)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Grammar) add(defs []Command, parent []string) ([]int, error) {
	seen := make(map[string]bool, len(defs))
	ids := make([]int, 0, len(defs))

	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("empty command name under %q", strings.Join(parent, " "))
		}
		if strings.IndexFunc(def.Name, unicode.IsSpace) >= 0 {
			return nil, fmt.Errorf("command name %q contains whitespace", def.Name)
		}
		path := append(append([]string(nil), parent...), def.Name)
		if seen[def.Name] {
			return nil, fmt.Errorf("duplicate command %q", strings.Join(path, " "))
		}
		seen[def.Name] = true

		id := len(g.nodes)
		g.nodes = append(g.nodes, node{name: def.Name})

		children, err := g.add(def.Children, path)
		if err != nil {
			return nil, err
		}
		g.nodes[id].children = children
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		return g.nodes[ids[i]].name < g.nodes[ids[j]].name
	})
	return ids, nil
}

// ChildrenAt follows path through the grammar by exact, case-sensitive
// name matches and returns the children of the node it lands on. An
// empty path yields the top-level commands. The result is empty as soon
// as a token has no matching child.
func (g *Grammar) ChildrenAt(path []string) []Node {
	ids, ok := g.walk(path)
	if !ok {
		return nil
	}
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.view(id))
	}
	return out
}

// walk returns the child ids reached by path.
func (g *Grammar) walk(path []string) ([]int, bool) {
	ids := g.roots
	for _, token := range path {
		id, ok := g.child(ids, token)
		if !ok {
			return nil, false
		}
		ids = g.nodes[id].children
	}
	return ids, true
}

func (g *Grammar) child(ids []int, name string) (int, bool) {
	i := sort.Search(len(ids), func(i int) bool {
		return g.nodes[ids[i]].name >= name
	})
	if i < len(ids) && g.nodes[ids[i]].name == name {
		return ids[i], true
	}
	return 0, false
}

func (g *Grammar) view(id int) Node {
	n := g.nodes[id]
	return Node{Name: n.name, Leaf: len(n.children) == 0}
}

// Leaves returns the path of every leaf command, depth first in name
// order.
func (g *Grammar) Leaves() [][]string {
	var out [][]string
	var visit func(ids []int, prefix []string)
	visit = func(ids []int, prefix []string) {
		for _, id := range ids {
			path := append(append([]string(nil), prefix...), g.nodes[id].name)
			if len(g.nodes[id].children) == 0 {
				out = append(out, path)
				continue
			}
			visit(g.nodes[id].children, path)
		}
	}
	visit(g.roots, nil)
	return out
}

// ErrNotFound is returned by Resolve when a line does not name a leaf
// command.
var ErrNotFound = errors.New("command not found")

// Resolve walks the tokens of a submitted line through the grammar until
// it reaches a leaf. It returns the leaf path and the rest of the line
// after the leaf token, trimmed of surrounding whitespace.
func (g *Grammar) Resolve(line string) (path []string, rest string, err error) {
	tokens := Split(line)
	ids := g.roots

	for _, token := range tokens {
		id, ok := g.child(ids, token.Text)
		if !ok {
			return nil, "", ErrNotFound
		}
		path = append(path, token.Text)
		if len(g.nodes[id].children) == 0 {
			return path, strings.TrimSpace(line[token.End:]), nil
		}
		ids = g.nodes[id].children
	}

	return nil, "", ErrNotFound
}

// Token is a whitespace-delimited substring of a line. Start and End are
// byte offsets into the line.
type Token struct {
	Text  string
	Start int
	End   int
}

// Split cuts line on Unicode whitespace, the same way strings.Fields does,
// but keeps the byte offsets of every token.
func Split(line string) []Token {
	var tokens []Token
	start := -1
	for i, r := range line {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, Token{Text: line[start:i], Start: start, End: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, Token{Text: line[start:], Start: start, End: len(line)})
	}
	return tokens
}

// EndsWithSpace reports whether the last character of line is whitespace.
func EndsWithSpace(line string) bool {
	r, size := utf8.DecodeLastRuneInString(line)
	return size > 0 && unicode.IsSpace(r)
}
