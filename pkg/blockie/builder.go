package blockie

import (
	"errors"
	"fmt"
)

// Block is a fill handle for one block of a template. The handle of the root
// block owns the clone tree; handles of child blocks are scoped to the clone
// their parent handle is currently staging.
//
// A handle stages one clone at a time. SetVariables and child handles add to
// the staged clone, and Set or Clone append it to the parent. Fill appends
// clones directly. A Block is not safe for concurrent use.
type Block struct {
	node   *Node
	tmpl   *Template
	parent *Block
	strict bool

	clones []*Clone // committed root clones, root handle only
	filled bool     // root handle received a fill, even one yielding no clones

	stage *Clone // staged clone, holds attached child clones and the variant
	owner *Clone // parent's staged clone the stage belongs to
	vars  Map
	dirty bool
	subs  map[*Node]*Block
}

func newBlock(t *Template, strict bool) *Block {
	return &Block{
		node:   t.root,
		tmpl:   t,
		strict: strict,
	}
}

// NewBlock returns a root handle for the template. Strictness follows the
// global configuration.
func (t *Template) NewBlock() *Block {
	return newBlock(t, GetGlobalConfig().StrictMode)
}

// StageOption configures SetVariables.
type StageOption func(*stageOptions)

type stageOptions struct {
	autoclone bool
}

// Autoclone finalizes the staged clone after the variables are set, so every
// SetVariables call produces one clone.
func Autoclone() StageOption {
	return func(o *stageOptions) {
		o.autoclone = true
	}
}

// Name returns the lower-cased block name, empty for the root.
func (b *Block) Name() string {
	return b.node.Name
}

// Node returns the block of the parsed template.
func (b *Block) Node() *Node {
	return b.node
}

// Template returns the template the handle belongs to.
func (b *Block) Template() *Template {
	return b.tmpl
}

func (b *Block) path() string {
	if b.parent == nil {
		return ""
	}
	return joinPath(b.parent.path(), b.node.Name)
}

// Subblock returns the handle of the first child block named name.
func (b *Block) Subblock(name string) (*Block, error) {
	children := b.node.Children(name)
	if len(children) == 0 {
		return nil, &UnknownTagReferenceError{Block: b.node.Name, Name: asciiLower(name)}
	}
	n := children[0]
	if sub, ok := b.subs[n]; ok {
		return sub, nil
	}
	if b.subs == nil {
		b.subs = make(map[*Node]*Block)
	}
	sub := &Block{
		node:   n,
		tmpl:   b.tmpl,
		parent: b,
		strict: b.strict,
	}
	b.subs[n] = sub
	return sub, nil
}

// Subblocks returns the handles of several child blocks, in argument order.
func (b *Block) Subblocks(names ...string) ([]*Block, error) {
	out := make([]*Block, 0, len(names))
	for _, name := range names {
		sub, err := b.Subblock(name)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

// staging returns the staged clone, starting a new one when there is none or
// when the parent has moved on to another clone.
func (b *Block) staging() *Clone {
	if b.parent != nil {
		owner := b.parent.staging()
		if owner != b.owner {
			b.owner = owner
			b.discard()
		}
	}
	if b.stage == nil {
		b.stage = newClone(b.node, 0)
		b.vars = Map{}
	}
	return b.stage
}

func (b *Block) discard() {
	b.stage = nil
	b.vars = nil
	b.dirty = false
}

// committed returns the clones appended so far in the current scope.
func (b *Block) committed() []*Clone {
	if b.parent == nil {
		return b.clones
	}
	b.staging()
	return b.owner.children[b.node]
}

func (b *Block) commit(clones []*Clone) {
	for _, c := range clones {
		c.finalize()
	}
	if b.parent == nil {
		b.clones = append(b.clones, clones...)
		b.filled = true
		return
	}
	b.staging()
	b.owner.children[b.node] = append(b.owner.children[b.node], clones...)
	b.parent.dirty = true
}

// SetVariables stages variable values, and child block values, for the clone
// being built. Sequence values broadcast into one clone per element when the
// clone is finalized.
func (b *Block) SetVariables(vars map[string]any, opts ...StageOption) error {
	var o stageOptions
	for _, opt := range opts {
		opt(&o)
	}

	v, err := FromGo(vars)
	if err != nil {
		return err
	}
	b.staging()
	if m, ok := v.(Map); ok {
		for k, val := range m {
			b.vars[k] = val
		}
	}
	b.dirty = true

	if o.autoclone {
		return b.finalize()
	}
	return nil
}

// SetVariant stages the variant of the clone being built.
func (b *Block) SetVariant(index int) error {
	if err := b.staging().SetVariant(index); err != nil {
		return err
	}
	b.dirty = true
	return nil
}

// Set without arguments finalizes the staged clone. When nothing was staged and
// the block already has clones in this scope, it does nothing.
//
// With one argument it behaves like Fill for one value: nil drops the staged
// clone, a mapping is merged over the staged variables and finalized, an
// integer selects the variant of the staged clone, and true or false keep the
// block as-is or remove it.
func (b *Block) Set(values ...any) error {
	switch len(values) {
	case 0:
		if !b.dirty && len(b.committed()) > 0 {
			return nil
		}
		return b.finalize()
	case 1:
	default:
		return fmt.Errorf("set takes at most one value, got %d", len(values))
	}

	v, err := FromGo(values[0])
	if err != nil {
		return err
	}

	switch x := v.(type) {
	case NoneValue:
		b.staging()
		b.discard()
		b.filled = true
		return nil
	case Map:
		b.staging()
		for k, val := range x {
			b.vars[k] = val
		}
		b.dirty = true
		return b.finalize()
	case Int:
		if err := b.SetVariant(int(x)); err != nil {
			return &FillError{Path: blockLabel(b.path()), Cause: err}
		}
		return b.finalize()
	default:
		clones, err := fill(b.node, v, b.strict, b.path(), len(b.committed()))
		if err != nil {
			return err
		}
		b.staging()
		b.discard()
		b.commit(clones)
		return nil
	}
}

// Clone finalizes the staged clone and starts staging the next one.
func (b *Block) Clone() error {
	return b.finalize()
}

// Fill appends the clones built from data. It accepts the same values as
// FromGo. On error no clone is appended.
func (b *Block) Fill(data any) error {
	v, err := FromGo(data)
	if err != nil {
		return err
	}
	logger := GetLogger()
	if logger.IsDebugMode() {
		logger.WithField("block", blockLabel(b.node.Name)).Debug("Filling block")
	}
	clones, err := fill(b.node, v, b.strict, b.path(), len(b.committed()))
	if err != nil {
		return err
	}
	b.commit(clones)
	return nil
}

// FillValue is like Fill for data that is already a Value.
func (b *Block) FillValue(v Value) error {
	clones, err := fill(b.node, v, b.strict, b.path(), len(b.committed()))
	if err != nil {
		return err
	}
	b.commit(clones)
	return nil
}

// finalize turns the staged clone into committed clones.
func (b *Block) finalize() error {
	stage := b.staging()
	for _, sub := range b.subs {
		if sub.owner == stage && (sub.dirty || sub.pending()) {
			if err := sub.finalize(); err != nil {
				return err
			}
		}
	}

	data := b.vars.clone()
	if stage.variantSet {
		if _, ok := data.Lookup(VariantKey); !ok {
			data[VariantKey] = Int(stage.variant)
		}
	}

	clones, err := fill(b.node, data, b.strict, b.path(), len(b.committed()))
	if err != nil {
		return err
	}
	for _, c := range clones {
		for n, seq := range stage.children {
			c.children[n] = append(c.children[n], seq...)
		}
	}

	b.discard()
	b.commit(clones)
	return nil
}

// pending reports whether a child handle staged work for the current clone.
func (b *Block) pending() bool {
	if b.stage == nil {
		return false
	}
	for _, sub := range b.subs {
		if sub.owner == b.stage && (sub.dirty || sub.pending()) {
			return true
		}
	}
	return false
}

// Clones returns the clones committed in the current scope.
func (b *Block) Clones() []*Clone {
	return b.committed()
}

// Reset drops all clones of the root handle so the template can be filled again.
func (b *Block) Reset() error {
	if b.parent != nil {
		return errors.New("reset is only supported on the root block")
	}
	b.clones = nil
	b.filled = false
	b.discard()
	return nil
}

// Content finalizes pending work of the root handle and returns the output.
// A root that was never filled renders as one clone with no data; a root
// filled with none, false or an empty list renders as "".
func (b *Block) Content() (string, error) {
	if b.parent != nil {
		return "", errors.New("content is only available from the root block")
	}
	if b.dirty || b.pending() || (len(b.clones) == 0 && !b.filled) {
		if err := b.finalize(); err != nil {
			return "", err
		}
	}
	return compose(b.clones, b.tmpl.grammar.TabSize), nil
}

// MustContent is like Content but panics on error.
func (b *Block) MustContent() string {
	s, err := b.Content()
	if err != nil {
		panic(fmt.Sprintf("blockie: %v", err))
	}
	return s
}
