package blockie

import "fmt"

// autoVariant marks an auto-reference clone whose variant is chosen at compose time.
const autoVariant = -1

// binding is the value bound to one variable of a clone.
type binding struct {
	text        string
	passthrough bool // emit the tag text unchanged
}

// Clone is one rendered instance of a block: its selected variant, variable
// bindings and the clone sequences of its child blocks. A clone is immutable
// once it has been appended to its parent's sequence.
type Clone struct {
	node       *Node
	variant    int
	asIs       bool
	vars       map[string]binding
	children   map[*Node][]*Clone
	index      int
	finalized  bool
	variantSet bool
}

func newClone(n *Node, index int) *Clone {
	return &Clone{
		node:     n,
		vars:     make(map[string]binding),
		children: make(map[*Node][]*Clone),
		index:    index,
	}
}

// Node returns the block the clone instantiates.
func (c *Clone) Node() *Node {
	return c.node
}

// Name returns the lower-cased block name.
func (c *Clone) Name() string {
	return c.node.Name
}

// Variant returns the selected variant index.
func (c *Clone) Variant() int {
	return c.variant
}

// SetVariant selects the variant of a clone that is still being built.
func (c *Clone) SetVariant(index int) error {
	if c.finalized {
		return fmt.Errorf("clone of block '%s' is finalized", blockLabel(c.node.Name))
	}
	if index < 0 || index >= len(c.node.Variants) {
		return &VariantIndexError{Block: c.node.Name, Index: index, Count: len(c.node.Variants)}
	}
	c.variant = index
	c.variantSet = true
	return nil
}

// AsIs reports whether the clone emits its variant source verbatim.
func (c *Clone) AsIs() bool {
	return c.asIs
}

// Index returns the ordinal of the clone within its repetition.
func (c *Clone) Index() int {
	return c.index
}

// Finalized reports whether the clone has been appended to its parent.
func (c *Clone) Finalized() bool {
	return c.finalized
}

// Binding returns the text bound to a variable.
func (c *Clone) Binding(name string) (string, bool) {
	b, ok := c.vars[asciiLower(name)]
	return b.text, ok
}

// Children returns the clone sequence of a child block.
func (c *Clone) Children(child *Node) []*Clone {
	return c.children[child]
}

func (c *Clone) finalize() {
	if c.finalized {
		return
	}
	c.finalized = true
	for _, seq := range c.children {
		for _, child := range seq {
			child.finalize()
		}
	}
}

// count returns the number of clones in the subtree, the clone included.
func (c *Clone) count() int {
	n := 1
	for _, seq := range c.children {
		for _, child := range seq {
			n += child.count()
		}
	}
	return n
}
