package blockie

import (
	"sort"
)

// ReferenceKind identifies extracted reference categories.
type ReferenceKind string

const (
	ReferenceVariable ReferenceKind = "variable"
	ReferenceBlock    ReferenceKind = "block"
	ReferenceAuto     ReferenceKind = "auto"
	ReferenceAlign    ReferenceKind = "align"
)

// Reference is one tag of a parsed template.
type Reference struct {
	Kind     ReferenceKind `json:"kind" yaml:"kind"`
	Name     string        `json:"name,omitempty" yaml:"name,omitempty"`
	Path     string        `json:"path" yaml:"path"`
	Variants int           `json:"variants,omitempty" yaml:"variants,omitempty"`
	Tag      string        `json:"tag,omitempty" yaml:"tag,omitempty"`
}

// References returns the tags of the template in document order. Block paths
// are dot-separated block names; variables carry the path of their block.
func (t *Template) References() []Reference {
	var refs []Reference
	collectReferences(t.root, "", &refs)
	return refs
}

func collectReferences(n *Node, path string, refs *[]Reference) {
	seen := make(map[string]bool)
	for _, v := range n.Variants {
		for _, el := range v.Elements {
			switch e := el.(type) {
			case *VariableElement:
				if seen[e.Name] {
					continue
				}
				seen[e.Name] = true
				*refs = append(*refs, Reference{Kind: ReferenceVariable, Name: e.Name, Path: blockLabel(path), Tag: e.Tag})
			case *AlignElement:
				*refs = append(*refs, Reference{Kind: ReferenceAlign, Path: blockLabel(path), Tag: e.Tag})
			case *Node:
				if e.Auto {
					*refs = append(*refs, Reference{Kind: ReferenceAuto, Name: e.Name, Path: blockLabel(path), Variants: len(e.Variants)})
					collectReferences(e, path, refs)
					continue
				}
				childPath := joinPath(path, e.Name)
				*refs = append(*refs, Reference{Kind: ReferenceBlock, Name: e.Name, Path: childPath, Variants: len(e.Variants)})
				collectReferences(e, childPath, refs)
			}
		}
	}
}

// Names returns the distinct variable and block names of the template, sorted.
func (t *Template) Names() []string {
	set := make(map[string]bool)
	for _, ref := range t.References() {
		if ref.Name != "" && ref.Kind != ReferenceAuto {
			set[ref.Name] = true
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckData reports the data keys that name no tag of the block they are
// given to, as a MultiError of UnknownTagReferenceError. It does not fill.
func (t *Template) CheckData(data any) error {
	v, err := FromGo(data)
	if err != nil {
		return err
	}
	u := newUnknownKeys()
	checkNode(t.root, v, u)
	return u.errs.Err()
}

// unknownKeys collects unknown data keys once per block name.
type unknownKeys struct {
	errs *MultiError
	seen map[string]bool
}

func newUnknownKeys() *unknownKeys {
	return &unknownKeys{errs: NewMultiError(), seen: make(map[string]bool)}
}

func (u *unknownKeys) add(block, name string) {
	key := block + "\x00" + name
	if u.seen[key] {
		return
	}
	u.seen[key] = true
	u.errs.Add(&UnknownTagReferenceError{Block: block, Name: name})
}

func checkNode(n *Node, v Value, u *unknownKeys) {
	switch x := v.(type) {
	case List:
		for _, item := range x {
			checkNode(n, item, u)
		}
	case Map:
		for _, key := range x.Keys() {
			name := asciiLower(key)
			if name == VariantKey || name == HandlerKey || n.accepts(name) {
				continue
			}
			u.add(n.Name, name)
		}
		checkChildren(n, x, u)
	}
}

func checkChildren(n *Node, m Map, u *unknownKeys) {
	for _, child := range n.blocks(n.allVariants()) {
		if child.Auto {
			checkChildren(child, m, u)
			continue
		}
		if v, ok := m.Lookup(child.Name); ok {
			checkNode(child, v, u)
		}
	}
}
