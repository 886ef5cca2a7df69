package dispatch

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailrepl/internal/model"
)

func env(id, msgID, inReplyTo string, hour int) model.Envelope {
	return model.Envelope{
		ID:        id,
		Subject:   "s" + id,
		MessageID: msgID,
		InReplyTo: inReplyTo,
		Date:      time.Date(2024, 1, 1, hour, 0, 0, 0, time.UTC),
	}
}

func TestBuildThreads(t *testing.T) {
	roots := buildThreads([]model.Envelope{
		env("4", "d", "b", 4),
		env("1", "a", "", 1),
		env("3", "c", "a", 3),
		env("2", "b", "a", 2),
		env("5", "e", "missing", 5),
	})

	require.Len(t, roots, 2)
	assert.Equal(t, "1", roots[0].env.ID)
	assert.Equal(t, "5", roots[1].env.ID)

	require.Len(t, roots[0].children, 2)
	assert.Equal(t, "2", roots[0].children[0].env.ID)
	assert.Equal(t, "3", roots[0].children[1].env.ID)
	assert.Equal(t, "4", roots[0].children[0].children[0].env.ID)

	var ids []string
	for _, e := range roots[0].flatten() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids)

	assert.Same(t, roots[0], threadOf(roots, "4"))
	assert.Nil(t, threadOf(roots, "42"))
}

func TestBuildThreadsBreaksCycles(t *testing.T) {
	roots := buildThreads([]model.Envelope{
		env("1", "a", "b", 1),
		env("2", "b", "a", 2),
		env("3", "c", "c", 3),
	})

	require.Len(t, roots, 2)
	assert.Equal(t, "1", roots[0].env.ID)
	require.Len(t, roots[0].children, 1)
	assert.Equal(t, "2", roots[0].children[0].env.ID)
	assert.Equal(t, "3", roots[1].env.ID)
}

func TestBuildThreadsKeepsOldestAsCycleRoot(t *testing.T) {
	roots := buildThreads([]model.Envelope{
		env("2", "b", "a", 2),
		env("1", "a", "b", 1),
	})

	require.Len(t, roots, 1)
	assert.Equal(t, "1", roots[0].env.ID)
	require.Len(t, roots[0].children, 1)
	assert.Equal(t, "2", roots[0].children[0].env.ID)
	assert.Empty(t, roots[0].children[0].children)
}

func TestBuildThreadsLinksReplyToNewerParent(t *testing.T) {
	roots := buildThreads([]model.Envelope{
		env("1", "a", "b", 1),
		env("2", "b", "", 2),
		env("3", "c", "b", 3),
	})

	require.Len(t, roots, 1)
	assert.Equal(t, "2", roots[0].env.ID)
	require.Len(t, roots[0].children, 2)
	assert.Equal(t, "1", roots[0].children[0].env.ID)
	assert.Equal(t, "3", roots[0].children[1].env.ID)
}

func TestRenderThreads(t *testing.T) {
	roots := buildThreads([]model.Envelope{
		env("1", "a", "", 1),
		env("2", "b", "a", 2),
		env("3", "c", "b", 3),
	})
	out := renderThreads(roots, func(e model.Envelope) string { return e.Subject })

	assert.Contains(t, out, "s1")
	assert.Contains(t, out, "s2")
	assert.Contains(t, out, "s3")
	assert.Less(t, strings.Index(out, "s1"), strings.Index(out, "s3"))
}

func TestEnvelopeFlags(t *testing.T) {
	var cfg model.TableConfig
	assert.Equal(t, "*  ", envelopeFlags(cfg, model.Envelope{}))
	assert.Equal(t, "R!@", envelopeFlags(cfg, model.Envelope{
		Flags:         model.Flags{model.FlagSeen, model.FlagAnswered, model.FlagFlagged},
		HasAttachment: true,
	}))

	cfg.UnseenChar = "N"
	assert.Equal(t, "N  ", envelopeFlags(cfg, model.Envelope{}))
	assert.Equal(t, "   ", envelopeFlags(cfg, model.Envelope{Flags: model.Flags{model.FlagSeen}}))
}
