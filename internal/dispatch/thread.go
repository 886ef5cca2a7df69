package dispatch

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"

	"github.com/nhle/mailrepl/internal/model"
)

// threadNode is one envelope of a conversation tree.
type threadNode struct {
	env      model.Envelope
	parent   *threadNode
	children []*threadNode
}

// buildThreads links envelopes through In-Reply-To. Links to an older
// parent are made first, then links to a newer one. Envelopes whose parent
// is not in envs, or whose link would close a cycle, become roots. Roots
// and children are ordered oldest first.
func buildThreads(envs []model.Envelope) []*threadNode {
	all := make([]*threadNode, 0, len(envs))
	for _, env := range envs {
		all = append(all, &threadNode{env: env})
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].env.Date.Before(all[j].env.Date)
	})

	byMessageID := make(map[string]*threadNode, len(all))
	for _, n := range all {
		if id := n.env.MessageID; id != "" {
			if _, dup := byMessageID[id]; !dup {
				byMessageID[id] = n
			}
		}
	}

	link := func(n *threadNode, newer bool) {
		if n.parent != nil || n.env.InReplyTo == "" {
			return
		}
		p := byMessageID[n.env.InReplyTo]
		if p == nil || p == n || p.env.Date.After(n.env.Date) != newer || p.descendsFrom(n) {
			return
		}
		n.parent = p
		p.children = append(p.children, n)
	}
	for _, n := range all {
		link(n, false)
	}
	for _, n := range all {
		link(n, true)
	}

	var roots []*threadNode
	for _, n := range all {
		sort.SliceStable(n.children, func(i, j int) bool {
			return n.children[i].env.Date.Before(n.children[j].env.Date)
		})
		if n.parent == nil {
			roots = append(roots, n)
		}
	}
	return roots
}

func (n *threadNode) descendsFrom(ancestor *threadNode) bool {
	for p := n.parent; p != nil; p = p.parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

func (n *threadNode) contains(id string) bool {
	if n.env.ID == id {
		return true
	}
	for _, c := range n.children {
		if c.contains(id) {
			return true
		}
	}
	return false
}

// flatten returns the envelopes of the subtree, oldest first.
func (n *threadNode) flatten() []model.Envelope {
	envs := []model.Envelope{n.env}
	for _, c := range n.children {
		envs = append(envs, c.flatten()...)
	}
	sort.SliceStable(envs, func(i, j int) bool {
		return envs[i].Date.Before(envs[j].Date)
	})
	return envs
}

// threadOf returns the root of the thread holding id.
func threadOf(roots []*threadNode, id string) *threadNode {
	for _, r := range roots {
		if r.contains(id) {
			return r
		}
	}
	return nil
}

func renderThreads(roots []*threadNode, label func(model.Envelope) string) string {
	parts := make([]string, 0, len(roots))
	for _, r := range roots {
		parts = append(parts, subtree(r, label).String())
	}
	return strings.Join(parts, "\n")
}

func subtree(n *threadNode, label func(model.Envelope) string) *tree.Tree {
	t := tree.Root(label(n.env))
	for _, c := range n.children {
		if len(c.children) == 0 {
			t.Child(label(c.env))
			continue
		}
		t.Child(subtree(c, label))
	}
	return t
}
