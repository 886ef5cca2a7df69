package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailrepl/internal/grammar"
)

func TestCompleteSingleCandidate(t *testing.T) {
	c := New(grammar.Default())

	tests := []struct {
		input string
		want  string
	}{
		{"acc", "account "},
		{"ACC", "account "},
		{"message m", "message move "},
		{"  folder  exp", "  folder  expunge "},
		{"flag rem", "flag remove "},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			res := c.Complete(tt.input)
			require.Equal(t, Completed, res.Outcome)
			assert.Equal(t, tt.want, res.Line)
			assert.Empty(t, res.Candidates)
		})
	}
}

func TestCompleteEmptyPartialListsChildren(t *testing.T) {
	c := New(grammar.Default())

	res := c.Complete("account ")
	require.Equal(t, Ambiguous, res.Outcome)
	assert.Equal(t, []string{"doctor", "list"}, res.Candidates)

	res = c.Complete("")
	require.Equal(t, Ambiguous, res.Outcome)
	assert.Equal(t, []string{"account", "envelope", "flag", "folder", "message"}, res.Candidates)
}

func TestCompleteEmptyPartialSingleChildAppends(t *testing.T) {
	g := grammar.MustNew(grammar.Command{Name: "solo", Children: []grammar.Command{{Name: "only"}}})
	res := New(g).Complete("solo ")
	require.Equal(t, Completed, res.Outcome)
	assert.Equal(t, "solo only ", res.Line)
}

func TestCompleteNoMatch(t *testing.T) {
	c := New(grammar.Default())
	for _, input := range []string{"xyz", "account zz", "acount l", "account list ", "account list x"} {
		res := c.Complete(input)
		assert.Equal(t, NoMatch, res.Outcome, input)
		assert.Empty(t, res.Candidates, input)
		assert.Empty(t, res.Line, input)
	}
}

func TestCompleteAmbiguousOrdering(t *testing.T) {
	c := New(grammar.Default())

	res := c.Complete("message re")
	require.Equal(t, Ambiguous, res.Outcome)
	assert.ElementsMatch(t, []string{"read", "reply", "thread", "write"}, res.Candidates)
	assert.Equal(t, []string{"read", "reply"}, res.Candidates[:2])
}

func TestRankOrdersByScoreThenName(t *testing.T) {
	children := grammar.Default().ChildrenAt([]string{"message"})
	for _, partial := range []string{"e", "r", "t", "o", "de"} {
		ranked := Rank(partial, children)
		for i := 1; i < len(ranked); i++ {
			prev, cur := ranked[i-1], ranked[i]
			require.GreaterOrEqual(t, prev.Score, cur.Score, partial)
			if prev.Score == cur.Score {
				assert.Less(t, prev.Name, cur.Name, partial)
			}
		}
	}
}

func TestRankEmptyPartialKeepsNameOrder(t *testing.T) {
	children := grammar.Default().ChildrenAt([]string{"folder"})
	ranked := Rank("", children)
	got := make([]string, 0, len(ranked))
	for _, r := range ranked {
		got = append(got, r.Name)
	}
	assert.Equal(t, []string{"add", "delete", "expunge", "list", "purge"}, got)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "no match", NoMatch.String())
	assert.Equal(t, "completed", Completed.String())
	assert.Equal(t, "ambiguous", Ambiguous.String())
}
