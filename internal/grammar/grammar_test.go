package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func TestChildrenAtRoot(t *testing.T) {
	g := Default()
	assert.Equal(t,
		[]string{"account", "envelope", "flag", "folder", "message"},
		names(g.ChildrenAt(nil)),
	)
	for _, n := range g.ChildrenAt(nil) {
		assert.False(t, n.Leaf, n.Name)
	}
}

func TestChildrenAtNested(t *testing.T) {
	g := Default()

	tests := []struct {
		path []string
		want []string
	}{
		{[]string{"account"}, []string{"doctor", "list"}},
		{[]string{"folder"}, []string{"add", "delete", "expunge", "list", "purge"}},
		{[]string{"envelope"}, []string{"list", "thread"}},
		{[]string{"flag"}, []string{"add", "remove", "set"}},
		{[]string{"message"}, []string{"copy", "delete", "forward", "move", "read", "reply", "thread", "write"}},
	}
	for _, tt := range tests {
		t.Run(tt.path[0], func(t *testing.T) {
			children := g.ChildrenAt(tt.path)
			assert.Equal(t, tt.want, names(children))
			for _, n := range children {
				assert.True(t, n.Leaf, n.Name)
			}
		})
	}
}

func TestChildrenAtUnknownPrefix(t *testing.T) {
	g := Default()
	assert.Empty(t, g.ChildrenAt([]string{"acount"}))
	assert.Empty(t, g.ChildrenAt([]string{"Account"}))
	assert.Empty(t, g.ChildrenAt([]string{"account", "nope"}))
	assert.Empty(t, g.ChildrenAt([]string{"account", "list"}))
	assert.Empty(t, g.ChildrenAt([]string{"account", "list", "more"}))
}

func TestNewRejectsInvalidDefinitions(t *testing.T) {
	_, err := New(Command{Name: ""})
	assert.Error(t, err)

	_, err = New(Command{Name: "a b"})
	assert.Error(t, err)

	_, err = New(Command{Name: "folder", Children: []Command{{Name: "list"}, {Name: "list"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "folder list")

	_, err = New(Command{Name: "list"}, Command{Name: "folder", Children: []Command{{Name: "list"}}})
	assert.NoError(t, err)
}

func TestResolve(t *testing.T) {
	g := Default()

	tests := []struct {
		line string
		path []string
		rest string
	}{
		{"folder list", []string{"folder", "list"}, ""},
		{"  envelope   list -f Archive ", []string{"envelope", "list"}, "-f Archive"},
		{"message move Archive 1 2", []string{"message", "move"}, "Archive 1 2"},
		{"flag add 3 seen", []string{"flag", "add"}, "3 seen"},
		{"message write\t", []string{"message", "write"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			path, rest, err := g.Resolve(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.rest, rest)
		})
	}
}

func TestResolveNotFound(t *testing.T) {
	g := Default()
	for _, line := range []string{"", "   ", "account", "select", "folder lst", "Folder list"} {
		_, _, err := g.Resolve(line)
		assert.ErrorIs(t, err, ErrNotFound, line)
	}
}

func TestLeaves(t *testing.T) {
	leaves := Default().Leaves()
	assert.Len(t, leaves, 20)
	assert.Equal(t, []string{"account", "doctor"}, leaves[0])
	assert.Equal(t, []string{"message", "write"}, leaves[len(leaves)-1])
}

func TestSplit(t *testing.T) {
	tokens := Split(" message  méss ")
	require.Len(t, tokens, 2)
	assert.Equal(t, Token{Text: "message", Start: 1, End: 8}, tokens[0])
	assert.Equal(t, Token{Text: "méss", Start: 10, End: 15}, tokens[1])

	assert.Empty(t, Split(""))
	assert.Empty(t, Split(" \t "))
}

func TestEndsWithSpace(t *testing.T) {
	assert.True(t, EndsWithSpace("account "))
	assert.True(t, EndsWithSpace("account\t"))
	assert.True(t, EndsWithSpace("account "))
	assert.False(t, EndsWithSpace("account"))
	assert.False(t, EndsWithSpace(""))
}
