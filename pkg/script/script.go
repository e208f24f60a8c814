package script

import (
	"fmt"
	"os"
	"sort"

	"go.starlark.net/starlark"

	"github.com/benjaminschreck/go-blockie/pkg/blockie"
)

// Handlers holds the fill handlers defined by a Starlark script. Each
// top-level function not starting with an underscore is a handler.
//
// A handler is called as fn(data, index). data is a dict holding the mapping
// the clone is filled from and index is the ordinal of the clone. The function
// may change data in place and returns None, an int selecting the variant of
// the clone, or a dict replacing data.
type Handlers struct {
	filename string
	funcs    map[string]*starlark.Function
}

// Load executes a Starlark script and collects its handler functions.
// src may be a string, []byte, io.Reader or nil to read filename.
func Load(filename string, src any) (*Handlers, error) {
	thread := newThread(filename)
	globals, err := starlark.ExecFile(thread, filename, src, nil)
	if err != nil {
		return nil, fmt.Errorf("starlark execution error: %w", err)
	}
	globals.Freeze()

	h := &Handlers{
		filename: filename,
		funcs:    make(map[string]*starlark.Function),
	}
	for name, v := range globals {
		fn, ok := v.(*starlark.Function)
		if !ok || name[0] == '_' {
			continue
		}
		h.funcs[name] = fn
	}

	blockie.WithFields(blockie.Fields{
		"file":     filename,
		"handlers": len(h.funcs),
	}).Debug("Loaded fill handlers")
	return h, nil
}

// LoadFile reads and executes a Starlark script file.
func LoadFile(path string) (*Handlers, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read handler script: %w", err)
	}
	return Load(path, src)
}

// Names returns the handler names in sorted order.
func (h *Handlers) Names() []string {
	names := make([]string, 0, len(h.funcs))
	for name := range h.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handler returns the fill handler for a script function.
func (h *Handlers) Handler(name string) (blockie.FillHandler, bool) {
	fn, ok := h.funcs[name]
	if !ok {
		return nil, false
	}
	return func(clone *blockie.Clone, data blockie.Map, index int) error {
		return h.call(fn, clone, data, index)
	}, true
}

func (h *Handlers) call(fn *starlark.Function, clone *blockie.Clone, data blockie.Map, index int) error {
	dict := ToStarlark(data).(*starlark.Dict)
	thread := newThread(h.filename)
	result, err := starlark.Call(thread, fn, starlark.Tuple{dict, starlark.MakeInt(index)}, nil)
	if err != nil {
		return fmt.Errorf("fill handler %s: %w", fn.Name(), err)
	}

	switch r := result.(type) {
	case starlark.NoneType:
		return syncMap(data, dict)
	case starlark.Int:
		if err := syncMap(data, dict); err != nil {
			return err
		}
		idx, ok := r.Int64()
		if !ok {
			return fmt.Errorf("fill handler %s: variant index %s out of range", fn.Name(), r.String())
		}
		return clone.SetVariant(int(idx))
	case *starlark.Dict:
		return syncMap(data, r)
	default:
		return fmt.Errorf("fill handler %s returned %s, want None, int or dict", fn.Name(), result.Type())
	}
}

// syncMap replaces the contents of data with the converted dict, keeping the
// fill handlers, which have no Starlark form.
func syncMap(data blockie.Map, dict *starlark.Dict) error {
	m, err := dictToMap(dict)
	if err != nil {
		return err
	}
	for key, v := range data {
		if _, ok := v.(blockie.FillHandler); ok {
			if _, replaced := m[key]; !replaced {
				m[key] = v
			}
		}
	}
	for key := range data {
		delete(data, key)
	}
	for key, v := range m {
		data[key] = v
	}
	return nil
}

// Bind replaces handler names stored under the fill_hndl key of every mapping
// in v with the matching script function.
func (h *Handlers) Bind(v blockie.Value) (blockie.Value, error) {
	switch x := v.(type) {
	case blockie.List:
		out := make(blockie.List, len(x))
		for i, item := range x {
			bound, err := h.Bind(item)
			if err != nil {
				return nil, err
			}
			out[i] = bound
		}
		return out, nil
	case blockie.Map:
		out := make(blockie.Map, len(x))
		for key, item := range x {
			if key == blockie.HandlerKey {
				if name, ok := item.(blockie.String); ok {
					handler, ok := h.Handler(string(name))
					if !ok {
						return nil, fmt.Errorf("unknown fill handler %q in %s", string(name), h.filename)
					}
					out[key] = handler
					continue
				}
			}
			bound, err := h.Bind(item)
			if err != nil {
				return nil, err
			}
			out[key] = bound
		}
		return out, nil
	default:
		return v, nil
	}
}

func newThread(name string) *starlark.Thread {
	return &starlark.Thread{
		Name: name,
		Print: func(thread *starlark.Thread, msg string) {
			blockie.WithField("script", thread.Name).Info("%s", msg)
		},
	}
}
