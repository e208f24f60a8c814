package blockie

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     any
		want     string
	}{
		{
			name:     "single variable",
			template: "<WORD> ",
			data:     map[string]any{"word": "Hello!"},
			want:     "Hello! ",
		},
		{
			name:     "block per sequence element",
			template: "<SENTENCE><WORD> </SENTENCE>",
			data: map[string]any{"sentence": []map[string]any{
				{"word": "Hello"},
				{"word": "world!"},
			}},
			want: "Hello world! ",
		},
		{
			name:     "variant selected by integer",
			template: "<DATE>24.12.<^DATE>24 December</DATE>",
			data:     map[string]any{"date": 1},
			want:     "24 December",
		},
		{
			name:     "none variable collapses",
			template: "<NAME> <MIDNAME> <SURNAME>",
			data:     map[string]any{"name": "Patrick", "midname": nil, "surname": "Bateman"},
			want:     "Patrick  Bateman",
		},
		{
			name:     "missing variable is empty",
			template: "[<A>]",
			data:     map[string]any{},
			want:     "[]",
		},
		{
			name:     "keys are case-insensitive",
			template: "<Word>",
			data:     map[string]any{"WORD": "x"},
			want:     "x",
		},
		{
			name:     "numbers are converted to text",
			template: "<I> <F>",
			data:     map[string]any{"i": 3, "f": 1.5},
			want:     "3 1.5",
		},
		{
			name:     "none block is omitted",
			template: "a<B>x</B>c",
			data:     map[string]any{"b": nil},
			want:     "ac",
		},
		{
			name:     "missing block is omitted",
			template: "a<B>x</B>c",
			data:     map[string]any{},
			want:     "ac",
		},
		{
			name:     "false block is omitted",
			template: "a<B>x</B>c",
			data:     map[string]any{"b": false},
			want:     "ac",
		},
		{
			name:     "true block is kept as-is",
			template: "a<B> <X> </B>c",
			data:     map[string]any{"b": true, "x": "ignored"},
			want:     "a <X> c",
		},
		{
			name:     "true variable passes its tag through",
			template: "<A>|<B>",
			data:     map[string]any{"a": true, "b": false},
			want:     "<A>|",
		},
		{
			name:     "mapping selects variant",
			template: "<UNIT> kg<^UNIT> l</UNIT>",
			data:     map[string]any{"unit": map[string]any{"vari_idx": 1}},
			want:     " l",
		},
		{
			name:     "nested blocks",
			template: "<ROW><CELL><V>,</CELL>;</ROW>",
			data: map[string]any{"row": []any{
				map[string]any{"cell": []any{map[string]any{"v": 1}, map[string]any{"v": 2}}},
				map[string]any{"cell": map[string]any{"v": 3}},
			}},
			want: "1,2,;3,;",
		},
		{
			name:     "sequence of variant indexes",
			template: "<D>a<^D>b</D>",
			data:     map[string]any{"d": []any{1, 0, 1}},
			want:     "bab",
		},
		{
			name:     "auto-reference joins without trailing separator",
			template: "<ITEMS><ITEM><.>, <^.></.></ITEMS>",
			data: map[string]any{"items": []map[string]any{
				{"item": "apples"}, {"item": "rice"}, {"item": "milk"},
			}},
			want: "apples, rice, milk",
		},
		{
			name:     "auto-reference last variant",
			template: "<ITEMS><ITEM><.>, <^.>.</.></ITEMS>",
			data: map[string]any{"items": []map[string]any{
				{"item": "apples"}, {"item": "rice"},
			}},
			want: "apples, rice.",
		},
		{
			name:     "broadcast sequences zip",
			template: "<ITEMS><ITEM>:<QTY> </ITEMS>",
			data: map[string]any{"items": map[string]any{
				"item": []string{"apples", "rice"},
				"qty":  []string{"1", "2"},
			}},
			want: "apples:1 rice:2 ",
		},
		{
			name:     "broadcast with a scalar",
			template: "<ITEMS><ITEM>:<QTY> </ITEMS>",
			data: map[string]any{"items": map[string]any{
				"item": []string{"apples", "rice"},
				"qty":  "1",
			}},
			want: "apples:1 rice:1 ",
		},
		{
			name:     "variables pick the ancestor repetition",
			template: "<ROWS><CELLS><V> </CELLS>\n</ROWS>",
			data: map[string]any{"rows": []any{
				map[string]any{"cells": map[string]any{"v": []string{"a", "b"}}},
				map[string]any{"cells": map[string]any{"v": []string{"a", "b"}}},
			}},
			want: "a \nb \n",
		},
		{
			name:     "struct data",
			template: "<ITEMS><ITEM>=<QTY>;</ITEMS>",
			data: struct {
				Items []struct {
					Name string `blockie:"item"`
					Qty  int
				}
			}{
				Items: []struct {
					Name string `blockie:"item"`
					Qty  int
				}{{"apples", 1}, {"rice", 2}},
			},
			want: "apples=1;rice=2;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.template, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderRoundTrip(t *testing.T) {
	for _, src := range []string{"", "plain text", "line 1\n\tline 2\n", "a < b > c", "100% done"} {
		got, err := Render(src, map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, src, got)

		blk, err := New(src)
		require.NoError(t, err)
		assert.Equal(t, src, blk.MustContent())
	}
}

func TestFillSequenceYieldsOneClonePerElement(t *testing.T) {
	tmpl := MustParse("<ITEMS><ITEM></ITEMS>", nil)
	items := tmpl.Root().Children("items")[0]

	for n := range 6 {
		data := make([]map[string]any, n)
		for i := range data {
			data[i] = map[string]any{"item": fmt.Sprint(i)}
		}
		blk := newBlock(tmpl, false)
		require.NoError(t, blk.Fill(map[string]any{"items": data}))

		require.Len(t, blk.Clones(), 1)
		clones := blk.Clones()[0].Children(items)
		require.Len(t, clones, n)
		for i, c := range clones {
			assert.Equal(t, i, c.Index())
			got, ok := c.Binding("item")
			require.True(t, ok)
			assert.Equal(t, fmt.Sprint(i), got)
		}
	}
}

func TestFillNoneYieldsNoClones(t *testing.T) {
	tmpl := MustParse("<B>x<^B>y</B>", nil)
	b := tmpl.Root().Children("b")[0]

	for _, v := range []any{nil, false, []any{}, []map[string]any(nil)} {
		blk := newBlock(tmpl, false)
		require.NoError(t, blk.Fill(map[string]any{"b": v}))
		assert.Empty(t, blk.Clones()[0].Children(b))
		assert.Equal(t, "", blk.MustContent())
	}

	for _, v := range []any{nil, false, []any{}, []map[string]any(nil)} {
		blk, err := New("head <X> tail")
		require.NoError(t, err)
		require.NoError(t, blk.Fill(v))
		assert.Empty(t, blk.Clones())
		assert.Equal(t, "", blk.MustContent(), "root filled with %v", v)

		out, err := Render("head <X> tail", v)
		require.NoError(t, err)
		assert.Equal(t, "", out)
	}

	blk, err := New("head <X> tail")
	require.NoError(t, err)
	require.NoError(t, blk.Set(nil))
	assert.Equal(t, "", blk.MustContent())

	require.NoError(t, blk.Reset())
	assert.Equal(t, "head  tail", blk.MustContent())
}

func TestFillVariantOutOfRange(t *testing.T) {
	for _, idx := range []any{-1, 2, 100, map[string]any{"vari_idx": 2}, map[string]any{"vari_idx": -1}} {
		_, err := Render("<DATE>24.12.<^DATE>24 December</DATE>", map[string]any{"date": idx})
		require.Error(t, err, "index %v", idx)

		var variantErr *VariantIndexError
		require.ErrorAs(t, err, &variantErr)
		assert.Equal(t, "date", variantErr.Block)
		assert.Equal(t, 2, variantErr.Count)

		var fillErr *FillError
		require.ErrorAs(t, err, &fillErr)
		assert.Equal(t, "date", fillErr.Path)
	}
}

func TestFillErrors(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     any
		check    func(t *testing.T, err error)
	}{
		{
			name:     "broadcast lengths differ",
			template: "<ITEMS><ITEM>:<QTY> </ITEMS>",
			data: map[string]any{"items": map[string]any{
				"item": []string{"apples", "rice"},
				"qty":  []string{"1"},
			}},
			check: func(t *testing.T, err error) {
				var arity *VariableArityMismatchError
				require.ErrorAs(t, err, &arity)
				assert.Equal(t, map[string]int{"item": 2, "qty": 1}, arity.Lengths)
				assert.Equal(t, -1, arity.Position)
			},
		},
		{
			name:     "sequence shorter than ancestor repetition",
			template: "<ROWS><CELLS><V></CELLS></ROWS>",
			data: map[string]any{"rows": []any{
				map[string]any{"cells": map[string]any{"v": []string{"a"}}},
				map[string]any{"cells": map[string]any{"v": []string{"a"}}},
			}},
			check: func(t *testing.T, err error) {
				var arity *VariableArityMismatchError
				require.ErrorAs(t, err, &arity)
				assert.Equal(t, 1, arity.Position)

				var fillErr *FillError
				require.ErrorAs(t, err, &fillErr)
				assert.Equal(t, "rows[1].cells", fillErr.Path)
			},
		},
		{
			name:     "mapping bound to a variable",
			template: "<WORD>",
			data:     map[string]any{"word": map[string]any{"x": 1}},
			check: func(t *testing.T, err error) {
				var kindErr *ValueKindError
				require.ErrorAs(t, err, &kindErr)
				assert.Equal(t, "word", kindErr.Name)
				assert.Equal(t, KindMap, kindErr.Kind)
			},
		},
		{
			name:     "string filled into a block",
			template: "<B>x</B>",
			data:     map[string]any{"b": "text"},
			check: func(t *testing.T, err error) {
				assert.True(t, IsValueKindError(err))
			},
		},
		{
			name:     "nested sequence filled into a block",
			template: "<B>x</B>",
			data:     map[string]any{"b": []any{[]any{1}}},
			check: func(t *testing.T, err error) {
				assert.True(t, IsValueKindError(err))
			},
		},
		{
			name:     "fractional variant index",
			template: "<B>x</B>",
			data:     map[string]any{"b": 0.5},
			check: func(t *testing.T, err error) {
				assert.True(t, IsValueKindError(err))
			},
		},
		{
			name:     "handler key that is not a handler",
			template: "<B>x</B>",
			data:     map[string]any{"b": map[string]any{"fill_hndl": "name"}},
			check: func(t *testing.T, err error) {
				var kindErr *ValueKindError
				require.ErrorAs(t, err, &kindErr)
				assert.Equal(t, HandlerKey, kindErr.Name)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.template, tt.data)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestFillIsAtomic(t *testing.T) {
	blk, err := New("<ITEMS><D>a<^D>b</D></ITEMS>")
	require.NoError(t, err)

	err = blk.Fill(map[string]any{"items": []any{
		map[string]any{"d": 0},
		map[string]any{"d": 5},
	}})
	require.Error(t, err)
	assert.True(t, IsVariantIndexError(err))
	assert.Empty(t, blk.Clones())

	require.NoError(t, blk.Fill(map[string]any{"items": []any{map[string]any{"d": 1}}}))
	assert.Equal(t, "b", blk.MustContent())
}

func TestFillAppends(t *testing.T) {
	tmpl := MustParse("<SENTENCE><WORD> </SENTENCE>", nil)
	sentence := tmpl.Root().Children("sentence")[0]

	blk := newBlock(tmpl, false)
	sub, err := blk.Subblock("sentence")
	require.NoError(t, err)

	require.NoError(t, sub.Fill(map[string]any{"word": "Hello"}))
	require.NoError(t, sub.Fill([]map[string]any{{"word": "big"}, {"word": "world!"}}))

	clones := sub.Clones()
	require.Len(t, clones, 3)
	for i, c := range clones {
		assert.Equal(t, i, c.Index())
		assert.Same(t, sentence, c.Node())
	}
	assert.Equal(t, "Hello big world! ", blk.MustContent())
}

func TestFillHandler(t *testing.T) {
	plural := func(clone *Clone, data Map, index int) error {
		if n, _ := data.Lookup("n"); n != Int(1) {
			return clone.SetVariant(1)
		}
		return nil
	}

	t.Run("selects variant from data", func(t *testing.T) {
		got, err := Render("<ROW>[<N> file]<^ROW>[<N> files]</ROW>", map[string]any{"row": []map[string]any{
			{"n": 1, "fill_hndl": plural},
			{"n": 3, "fill_hndl": plural},
		}})
		require.NoError(t, err)
		assert.Equal(t, "[1 file][3 files]", got)
	})

	t.Run("runs before binding and may change data", func(t *testing.T) {
		var indexes []int
		handler := FillHandler(func(clone *Clone, data Map, index int) error {
			indexes = append(indexes, index)
			data["word"] = String(strings.ToUpper(string(data["word"].(String))))
			return nil
		})
		got, err := Render("<W><WORD> </W>", map[string]any{"w": []map[string]any{
			{"word": "a", "fill_hndl": handler},
			{"word": "b", "fill_hndl": handler},
		}})
		require.NoError(t, err)
		assert.Equal(t, "A B ", got)
		assert.Equal(t, []int{0, 1}, indexes)
	})

	t.Run("handler variant wins over vari_idx", func(t *testing.T) {
		got, err := Render("<U>kg<^U>l</U>", map[string]any{"u": map[string]any{
			"vari_idx":  0,
			"fill_hndl": func(clone *Clone, data Map, index int) error { return clone.SetVariant(1) },
		}})
		require.NoError(t, err)
		assert.Equal(t, "l", got)
	})

	t.Run("vari_idx applies when handler leaves the variant", func(t *testing.T) {
		got, err := Render("<U>kg<^U>l</U>", map[string]any{"u": map[string]any{
			"vari_idx":  1,
			"fill_hndl": func(clone *Clone, data Map, index int) error { return nil },
		}})
		require.NoError(t, err)
		assert.Equal(t, "l", got)
	})

	t.Run("handler alone as block value", func(t *testing.T) {
		got, err := Render("<U>kg<^U>l</U>", map[string]any{
			"u": func(clone *Clone, data Map, index int) error { return clone.SetVariant(1) },
		})
		require.NoError(t, err)
		assert.Equal(t, "l", got)
	})

	t.Run("handler error aborts the fill", func(t *testing.T) {
		sentinel := errors.New("no stock")
		_, err := Render("<U>kg</U>", map[string]any{"u": map[string]any{
			"fill_hndl": func(clone *Clone, data Map, index int) error { return sentinel },
		}})
		require.Error(t, err)
		assert.ErrorIs(t, err, sentinel)

		var fillErr *FillError
		require.ErrorAs(t, err, &fillErr)
		assert.Equal(t, "u", fillErr.Path)
	})

	t.Run("handler panic is recovered", func(t *testing.T) {
		_, err := Render("<U>kg</U>", map[string]any{"u": map[string]any{
			"fill_hndl": func(clone *Clone, data Map, index int) error { panic("broken handler") },
		}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panic recovered: broken handler")
	})

	t.Run("handler variant out of range", func(t *testing.T) {
		_, err := Render("<U>kg</U>", map[string]any{"u": map[string]any{
			"fill_hndl": func(clone *Clone, data Map, index int) error { return clone.SetVariant(3) },
		}})
		require.Error(t, err)
		assert.True(t, IsVariantIndexError(err))
	})
}

func TestFillStrictMode(t *testing.T) {
	data := map[string]any{"word": "x", "extra": 1, "items": []map[string]any{{"item": "a", "price": 2}}}
	src := "<WORD><ITEMS><ITEM></ITEMS>"

	got, err := Render(src, data)
	require.NoError(t, err)
	assert.Equal(t, "xa", got)

	_, err = Render(src, data, WithStrictMode(true))
	require.Error(t, err)
	assert.True(t, IsUnknownTagReferenceError(err))

	var multi *MultiError
	require.ErrorAs(t, err, &multi)
	require.Equal(t, 2, multi.Len())
	assert.Equal(t, "block '<root>' has no tag named 'extra'", multi.Errors()[0].Error())
	assert.Equal(t, "block 'items' has no tag named 'price'", multi.Errors()[1].Error())
}

func TestFillStrictModeSharedBlockNames(t *testing.T) {
	data := map[string]any{"items": []map[string]any{{"item": "apples", "qty": "1 kg"}}}

	got, err := Render(shoplistTemplate, data, WithStrictMode(true))
	require.NoError(t, err)
	assert.Contains(t, got, "Short list: apples\n")
}

func TestCloneSetVariantAfterFinalize(t *testing.T) {
	blk, err := New("<D>a<^D>b</D>")
	require.NoError(t, err)
	require.NoError(t, blk.Fill(map[string]any{"d": 0}))

	root := blk.Clones()[0]
	assert.True(t, root.Finalized())
	d := root.Children(blk.Node().Children("d")[0])
	require.Len(t, d, 1)
	assert.Error(t, d[0].SetVariant(1))
	assert.Equal(t, 0, d[0].Variant())
	assert.Equal(t, "d", d[0].Name())
	assert.False(t, d[0].AsIs())
}

func TestFillBroadcastFollowsSelectedVariant(t *testing.T) {
	const src = "<A>[<X>]<^A>(<Y>)</A>"
	ys := []string{"1", "2", "3"}
	second := FillHandler(func(c *Clone, data Map, index int) error { return c.SetVariant(1) })
	keep := FillHandler(func(c *Clone, data Map, index int) error { return nil })

	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{name: "unused list is ignored", data: map[string]any{"x": "p", "y": ys}, want: "[p]"},
		{name: "selected list broadcasts", data: map[string]any{"x": "p", "y": ys, "vari_idx": 1}, want: "(1)(2)(3)"},
		{name: "handler selects variant", data: map[string]any{"y": ys, "fill_hndl": second}, want: "(1)(2)(3)"},
		{name: "handler counts every variant", data: map[string]any{"x": "p", "y": ys, "fill_hndl": keep}, want: "[p][p][p]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(src, map[string]any{"a": tt.data})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
