package blockie

import (
	"strings"

	"github.com/benjaminschreck/go-blockie/pkg/blockie/align"
)

// composer concatenates a clone tree into the output text.
type composer struct {
	tab int
}

// sequence emits the clones of one sibling group in creation order, with
// their align tags padded to common columns.
func (cp *composer) sequence(seq []*Clone) string {
	if len(seq) == 0 {
		return ""
	}
	members := make([][]string, len(seq))
	for i, c := range seq {
		members[i] = cp.segments(c, i == len(seq)-1)
	}
	return strings.Join(align.Join(members, cp.tab), "")
}

// segments renders one clone, split at its align tags. last reports whether
// the clone ends its sequence, which selects the variant of auto-reference
// blocks inside it.
func (cp *composer) segments(c *Clone, last bool) []string {
	n := c.node
	if c.asIs {
		return []string{n.Variants[c.variant].Source}
	}

	vi := c.variant
	if vi == autoVariant {
		vi = 0
		if last {
			vi = 1
		}
	}
	if vi >= len(n.Variants) {
		return nil
	}

	segs := []string{""}
	cur := &strings.Builder{}
	flush := func() {
		segs[len(segs)-1] += cur.String()
		cur.Reset()
	}

	for _, el := range n.Variants[vi].Elements {
		switch e := el.(type) {
		case *TextElement:
			cur.WriteString(e.Content)
		case *VariableElement:
			if b, ok := c.vars[e.Name]; ok {
				if b.passthrough {
					cur.WriteString(e.Tag)
				} else {
					cur.WriteString(b.text)
				}
			}
		case *AlignElement:
			flush()
			segs = append(segs, "")
		case *Node:
			if !e.Auto {
				cur.WriteString(cp.sequence(c.children[e]))
				continue
			}
			// Auto-reference blocks belong to the enclosing clone, so their
			// align tags split its segments.
			for _, ac := range c.children[e] {
				inner := cp.segments(ac, last)
				if len(inner) == 0 {
					continue
				}
				cur.WriteString(inner[0])
				for _, s := range inner[1:] {
					flush()
					segs = append(segs, s)
				}
			}
		}
	}
	flush()
	return segs
}

// compose renders a sequence of root clones.
func compose(clones []*Clone, tab int) string {
	cp := &composer{tab: tab}
	return cp.sequence(clones)
}
