package blockie

import (
	"fmt"
	"strings"
)

// Element is one item of a variant body: *TextElement, *VariableElement,
// *AlignElement or a child *Node.
type Element interface {
	String() string
}

// TextElement represents literal template text
type TextElement struct {
	Content string
}

func (e *TextElement) String() string {
	return fmt.Sprintf("Text(%q)", e.Content)
}

// VariableElement represents a variable tag
type VariableElement struct {
	Name string
	Tag  string // source text of the tag, emitted for pass-through bindings
}

func (e *VariableElement) String() string {
	return fmt.Sprintf("Var(%s)", e.Name)
}

// AlignElement represents the auto-align tag
type AlignElement struct {
	Tag string
}

func (e *AlignElement) String() string {
	return "Align"
}

// Variant is one alternative body of a block.
type Variant struct {
	Elements []Element
	// Source is the raw template text of the body, emitted by as-is clones.
	Source string
}

// Node is a block of the parsed template. The root node has an empty name.
// Auto nodes come from the auto-reference tag: they carry the name of the
// nearest enclosing block and pick their variant from the position of the
// enclosing clone.
type Node struct {
	Name     string
	Auto     bool
	Variants []*Variant

	refs  map[string]bool
	known map[string]bool
}

func (n *Node) String() string {
	if n.Auto {
		return fmt.Sprintf("Auto(%s)", blockLabel(n.Name))
	}
	return fmt.Sprintf("Block(%s)", blockLabel(n.Name))
}

// VariantCount returns the number of variants of the block.
func (n *Node) VariantCount() int {
	return len(n.Variants)
}

// Children returns the direct child blocks named name, across all variants.
func (n *Node) Children(name string) []*Node {
	name = asciiLower(name)
	var out []*Node
	for _, v := range n.Variants {
		for _, el := range v.Elements {
			if child, ok := el.(*Node); ok && !child.Auto && child.Name == name {
				out = append(out, child)
			}
		}
	}
	return out
}

// References reports whether name is a variable or child block of the node.
func (n *Node) References(name string) bool {
	return n.refs[asciiLower(name)]
}

// HasAlign reports whether variant v contains the auto-align tag.
func (n *Node) HasAlign(v int) bool {
	if v < 0 || v >= len(n.Variants) {
		return false
	}
	for _, el := range n.Variants[v].Elements {
		if _, ok := el.(*AlignElement); ok {
			return true
		}
	}
	return false
}

// Dump renders the block tree as an indented outline.
func (n *Node) Dump() string {
	var sb strings.Builder
	n.dump(&sb, 0)
	return sb.String()
}

func (n *Node) dump(sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(sb, "%s%s\n", indent, n)
	for i, v := range n.Variants {
		if len(n.Variants) > 1 {
			fmt.Fprintf(sb, "%s  variant %d\n", indent, i)
		}
		for _, el := range v.Elements {
			if child, ok := el.(*Node); ok {
				child.dump(sb, depth+2)
				continue
			}
			fmt.Fprintf(sb, "%s    %s\n", indent, el)
		}
	}
}

// indexRefs records the names the node's variants refer to. Auto-reference
// blocks share the data of their enclosing block, so their names count as the
// enclosing block's own.
func (n *Node) indexRefs() {
	n.refs = make(map[string]bool)
	for _, v := range n.Variants {
		for _, el := range v.Elements {
			switch e := el.(type) {
			case *VariableElement:
				n.refs[e.Name] = true
			case *Node:
				e.indexRefs()
				if !e.Auto {
					n.refs[e.Name] = true
					continue
				}
				for name := range e.refs {
					n.refs[name] = true
				}
			}
		}
	}
	n.shareRefs()
}

// shareRefs gives the child blocks that share a name the union of their
// references, since they are filled from the same data.
func (n *Node) shareRefs() {
	groups := make(map[string][]*Node)
	var walk func(p *Node)
	walk = func(p *Node) {
		for _, child := range p.blocks(p.allVariants()) {
			if child.Auto {
				walk(child)
				continue
			}
			groups[child.Name] = append(groups[child.Name], child)
		}
	}
	walk(n)

	for _, nodes := range groups {
		if len(nodes) < 2 {
			continue
		}
		known := make(map[string]bool)
		for _, c := range nodes {
			for name := range c.refs {
				known[name] = true
			}
		}
		for _, c := range nodes {
			c.known = known
		}
	}
}

// accepts reports whether a data key given to the block names one of its tags,
// or a tag of a sibling block with the same name.
func (n *Node) accepts(name string) bool {
	if n.known != nil {
		return n.known[name]
	}
	return n.refs[name]
}

// variables returns the distinct variable names of the given variants in document order.
func (n *Node) variables(variants []int) []string {
	seen := make(map[string]bool)
	var names []string
	for _, vi := range variants {
		for _, el := range n.Variants[vi].Elements {
			if v, ok := el.(*VariableElement); ok && !seen[v.Name] {
				seen[v.Name] = true
				names = append(names, v.Name)
			}
		}
	}
	return names
}

// blocks returns the child nodes of the given variants in document order.
func (n *Node) blocks(variants []int) []*Node {
	var out []*Node
	for _, vi := range variants {
		for _, el := range n.Variants[vi].Elements {
			if child, ok := el.(*Node); ok {
				out = append(out, child)
			}
		}
	}
	return out
}

func (n *Node) allVariants() []int {
	out := make([]int, len(n.Variants))
	for i := range out {
		out[i] = i
	}
	return out
}
