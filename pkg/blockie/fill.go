package blockie

import "fmt"

// fillContext carries the settings of one fill call.
type fillContext struct {
	strict  bool
	unknown *unknownKeys
	logger  *Logger
	clones  int
}

func newFillContext(strict bool) *fillContext {
	return &fillContext{
		strict:  strict,
		unknown: newUnknownKeys(),
		logger:  GetLogger(),
	}
}

// fillNode builds the clones of a block for one fill value. pos is the ordinal
// of the enclosing ancestor repetition, or -1 when there is none.
func (ctx *fillContext) fillNode(n *Node, v Value, pos int, path string) ([]*Clone, error) {
	switch x := v.(type) {
	case nil, NoneValue:
		return nil, nil

	case Bool:
		if !x {
			return nil, nil
		}
		c := newClone(n, 0)
		c.asIs = true
		return []*Clone{c}, nil

	case Int, Float:
		idx, ok := variantIndex(x)
		if !ok {
			return nil, ctx.fail(path, &ValueKindError{Name: n.Name, Kind: x.Kind(), Want: "variant index"})
		}
		c := newClone(n, 0)
		if err := ctx.selectVariant(c, idx, path); err != nil {
			return nil, err
		}
		return []*Clone{c}, nil

	case Map:
		return ctx.fillMapping(n, x, pos, pos, 0, path)

	case FillHandler:
		return ctx.fillMapping(n, Map{HandlerKey: x}, pos, pos, 0, path)

	case List:
		var out []*Clone
		for i, item := range x {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			var clones []*Clone
			var err error
			switch el := item.(type) {
			case Map:
				clones, err = ctx.fillMapping(n, el, pos, i, len(out), itemPath)
			case FillHandler:
				clones, err = ctx.fillMapping(n, Map{HandlerKey: el}, pos, i, len(out), itemPath)
			case List:
				err = ctx.fail(itemPath, &ValueKindError{Name: n.Name, Kind: KindList, Want: "mapping, boolean, variant index or none"})
			default:
				clones, err = ctx.fillNode(n, el, i, itemPath)
				for _, c := range clones {
					c.index = len(out)
				}
			}
			if err != nil {
				return nil, err
			}
			out = append(out, clones...)
		}
		return out, nil

	default:
		return nil, ctx.fail(path, &ValueKindError{Name: n.Name, Kind: v.Kind(), Want: "mapping, list, boolean, variant index or none"})
	}
}

// fillMapping builds the clones for one mapping. Variables pick their element
// at varPos and child blocks are filled at childPos. Without an ancestor
// repetition, sequence-valued variables broadcast into one clone per element.
func (ctx *fillContext) fillMapping(n *Node, m Map, varPos, childPos, base int, path string) ([]*Clone, error) {
	ctx.checkKeys(n, m)

	if varPos < 0 {
		count, err := ctx.broadcastCount(n, m, path)
		if err != nil {
			return nil, err
		}
		if count >= 0 {
			out := make([]*Clone, 0, count)
			for j := range count {
				c, err := ctx.fillClone(n, m, j, j, base+j, path)
				if err != nil {
					return nil, err
				}
				out = append(out, c)
			}
			return out, nil
		}
	}

	c, err := ctx.fillClone(n, m, varPos, childPos, base, path)
	if err != nil {
		return nil, err
	}
	return []*Clone{c}, nil
}

// broadcastCount returns the common length of the sequence-valued variables of
// a mapping, or -1 when none of them is a sequence. Only the variables of the
// variant the mapping selects count; with a fill handler, which may pick a
// different variant per clone, the variables of every variant count.
func (ctx *fillContext) broadcastCount(n *Node, m Map, path string) (int, error) {
	lengths := make(map[string]int)
	for _, name := range broadcastNames(n, broadcastVariants(n, m)) {
		if v, ok := m.Lookup(name); ok {
			if list, ok := v.(List); ok {
				lengths[name] = len(list)
			}
		}
	}
	if len(lengths) == 0 {
		return -1, nil
	}
	count := -1
	for _, l := range lengths {
		if count >= 0 && l != count {
			return 0, ctx.fail(path, &VariableArityMismatchError{Block: n.Name, Lengths: lengths, Position: -1})
		}
		count = l
	}
	return count, nil
}

// fillClone builds one clone: it runs the fill handler, selects the variant,
// binds the variables and fills the child blocks of the selected variant.
func (ctx *fillContext) fillClone(n *Node, m Map, varPos, childPos, index int, path string) (*Clone, error) {
	c := newClone(n, index)
	data := m

	if hv, ok := m.Lookup(HandlerKey); ok {
		handler, ok := hv.(FillHandler)
		if !ok {
			return nil, ctx.fail(path, &ValueKindError{Name: HandlerKey, Kind: kindOf(hv), Want: "fill handler"})
		}
		data = m.clone()
		data.Delete(HandlerKey)
		if err := ctx.callHandler(handler, c, data, index); err != nil {
			return nil, ctx.fail(path, err)
		}
	}

	if !c.variantSet {
		if sel, ok := data.Lookup(VariantKey); ok {
			idx, ok := variantIndex(sel)
			if !ok {
				return nil, ctx.fail(path, &ValueKindError{Name: VariantKey, Kind: kindOf(sel), Want: "variant index"})
			}
			if err := ctx.selectVariant(c, idx, path); err != nil {
				return nil, err
			}
		}
	}

	if err := ctx.bind(c, data, []int{c.variant}, varPos, childPos, path); err != nil {
		return nil, err
	}
	ctx.clones++
	return c, nil
}

// fillAuto builds the clone of an auto-reference block. It shares the data of
// the enclosing clone and is bound over all of its variants, since the variant
// is only known once the enclosing sequence is complete.
func (ctx *fillContext) fillAuto(n *Node, data Map, varPos, childPos int, path string) (*Clone, error) {
	c := newClone(n, 0)
	c.variant = autoVariant
	if err := ctx.bind(c, data, n.allVariants(), varPos, childPos, path); err != nil {
		return nil, err
	}
	ctx.clones++
	return c, nil
}

// bind binds the variables and fills the child blocks of the given variants.
func (ctx *fillContext) bind(c *Clone, data Map, variants []int, varPos, childPos int, path string) error {
	n := c.node
	for _, name := range n.variables(variants) {
		v, ok := data.Lookup(name)
		if !ok {
			continue
		}
		b, bound, err := ctx.bindVariable(n, name, v, varPos)
		if err != nil {
			return ctx.fail(path, err)
		}
		if bound {
			c.vars[name] = b
		}
	}

	for _, child := range n.blocks(variants) {
		if child.Auto {
			ac, err := ctx.fillAuto(child, data, varPos, childPos, path)
			if err != nil {
				return err
			}
			c.children[child] = append(c.children[child], ac)
			continue
		}
		v, ok := data.Lookup(child.Name)
		if !ok {
			continue
		}
		clones, err := ctx.fillNode(child, v, childPos, joinPath(path, child.Name))
		if err != nil {
			return err
		}
		c.children[child] = append(c.children[child], clones...)
	}
	return nil
}

// bindVariable converts a variable value into its binding. A false result
// leaves the variable unbound.
func (ctx *fillContext) bindVariable(n *Node, name string, v Value, pos int) (binding, bool, error) {
	switch x := v.(type) {
	case nil, NoneValue:
		return binding{}, true, nil
	case Bool:
		return binding{passthrough: bool(x)}, true, nil
	case List:
		if pos < 0 {
			return binding{}, false, &ValueKindError{Name: name, Kind: KindList, Want: "scalar"}
		}
		if pos >= len(x) {
			return binding{}, false, &VariableArityMismatchError{Block: n.Name, Lengths: map[string]int{name: len(x)}, Position: pos}
		}
		if _, nested := x[pos].(List); nested {
			return binding{}, false, &ValueKindError{Name: name, Kind: KindList, Want: "scalar"}
		}
		return ctx.bindVariable(n, name, x[pos], -1)
	default:
		s, ok := text(v)
		if !ok {
			return binding{}, false, &ValueKindError{Name: name, Kind: v.Kind(), Want: "scalar"}
		}
		return binding{text: s}, true, nil
	}
}

func (ctx *fillContext) selectVariant(c *Clone, idx int, path string) error {
	if idx < 0 || idx >= len(c.node.Variants) {
		return ctx.fail(path, &VariantIndexError{Block: c.node.Name, Index: idx, Count: len(c.node.Variants)})
	}
	c.variant = idx
	return nil
}

// callHandler runs a fill handler, converting a panic into an error.
func (ctx *fillContext) callHandler(h FillHandler, c *Clone, data Map, index int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = RecoverError(r)
		}
	}()
	return h(c, data, index)
}

// checkKeys reports data keys that name no tag of the block.
func (ctx *fillContext) checkKeys(n *Node, m Map) {
	for _, key := range m.Keys() {
		name := asciiLower(key)
		if name == VariantKey || name == HandlerKey || n.accepts(name) {
			continue
		}
		if ctx.logger.IsDebugMode() {
			ctx.logger.WithFields(Fields{
				"block": blockLabel(n.Name),
				"key":   key,
			}).Debug("Ignoring data key with no matching tag")
		}
		if ctx.strict {
			ctx.unknown.add(n.Name, name)
		}
	}
}

// fail attaches the block path to an error unless it already carries one.
func (ctx *fillContext) fail(path string, err error) error {
	if _, ok := err.(*FillError); ok {
		return err
	}
	return &FillError{Path: blockLabel(path), Cause: err}
}

// broadcastNames returns the variables bound from one mapping: those of the
// block and of its auto-reference blocks.
func broadcastNames(n *Node, variants []int) []string {
	names := n.variables(variants)
	for _, child := range n.blocks(variants) {
		if child.Auto {
			names = append(names, broadcastNames(child, child.allVariants())...)
		}
	}
	return names
}

// broadcastVariants returns the variants whose variables decide the broadcast
// count of a mapping.
func broadcastVariants(n *Node, m Map) []int {
	if _, ok := m.Lookup(HandlerKey); ok {
		return n.allVariants()
	}
	if sel, ok := m.Lookup(VariantKey); ok {
		if idx, ok := variantIndex(sel); ok && idx >= 0 && idx < len(n.Variants) {
			return []int{idx}
		}
	}
	return []int{0}
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// fill runs one complete fill of a block and returns the new clones, numbered
// from base. Nothing is returned on error, so a failed fill leaves the clone
// tree untouched.
func fill(n *Node, v Value, strict bool, path string, base int) ([]*Clone, error) {
	ctx := newFillContext(strict)
	var clones []*Clone
	var err error
	if m, ok := v.(Map); ok {
		clones, err = ctx.fillMapping(n, m, -1, -1, base, path)
	} else {
		clones, err = ctx.fillNode(n, v, -1, path)
		for i, c := range clones {
			c.index = base + i
		}
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.unknown.errs.Err(); err != nil {
		return nil, err
	}
	if ctx.logger.IsDebugMode() {
		ctx.logger.WithFields(Fields{
			"block":  blockLabel(n.Name),
			"clones": ctx.clones,
			"top":    len(clones),
		}).Debug("Fill complete")
	}
	return clones, nil
}
