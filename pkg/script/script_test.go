package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"

	"github.com/benjaminschreck/go-blockie/pkg/blockie"
)

const handlersScript = `
LIMIT = 3

def plural(data, index):
    if data["n"] != 1:
        return 1

def upper(data, index):
    data["word"] = data["word"].upper() + str(index)

def replace(data, index):
    return {"word": "replaced"}

def bad(data, index):
    return "x"

def boom(data, index):
    return 1 // 0

def _helper(data, index):
    pass
`

func loadHandlers(t *testing.T) *Handlers {
	t.Helper()
	h, err := Load("handlers.star", handlersScript)
	require.NoError(t, err)
	return h
}

func render(t *testing.T, h *Handlers, src string, data any) (string, error) {
	t.Helper()
	v, err := blockie.FromGo(data)
	require.NoError(t, err)
	bound, err := h.Bind(v)
	if err != nil {
		return "", err
	}
	return blockie.Render(src, bound)
}

func TestLoad(t *testing.T) {
	h := loadHandlers(t)
	assert.Equal(t, []string{"bad", "boom", "plural", "replace", "upper"}, h.Names())

	_, ok := h.Handler("_helper")
	assert.False(t, ok)
	_, ok = h.Handler("LIMIT")
	assert.False(t, ok)

	_, err := Load("broken.star", "def f(:\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starlark execution error")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "handlers.star")
	require.NoError(t, os.WriteFile(path, []byte(handlersScript), 0o644))

	h, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, h.Names(), 5)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.star"))
	assert.Error(t, err)
}

func TestHandlers(t *testing.T) {
	h := loadHandlers(t)

	tests := []struct {
		name    string
		src     string
		data    any
		want    string
		wantErr string
	}{
		{
			name: "return value selects variant",
			src:  "<ROW>[<N> file]<^ROW>[<N> files]</ROW>",
			data: map[string]any{"row": []map[string]any{
				{"n": 1, "fill_hndl": "plural"},
				{"n": 3, "fill_hndl": "plural"},
			}},
			want: "[1 file][3 files]",
		},
		{
			name: "data changed in place",
			src:  "<W><WORD> </W>",
			data: map[string]any{"w": []map[string]any{
				{"word": "a", "fill_hndl": "upper"},
				{"word": "b", "fill_hndl": "upper"},
			}},
			want: "A0 B1 ",
		},
		{
			name: "returned dict replaces data",
			src:  "<W><WORD></W>",
			data: map[string]any{"w": map[string]any{"word": "a", "fill_hndl": "replace"}},
			want: "replaced",
		},
		{
			name:    "unsupported return value",
			src:     "<W><WORD></W>",
			data:    map[string]any{"w": map[string]any{"fill_hndl": "bad"}},
			wantErr: "returned string, want None, int or dict",
		},
		{
			name:    "script error",
			src:     "<W><WORD></W>",
			data:    map[string]any{"w": map[string]any{"fill_hndl": "boom"}},
			wantErr: "fill handler boom",
		},
		{
			name:    "unknown handler name",
			src:     "<W><WORD></W>",
			data:    map[string]any{"w": []any{map[string]any{"fill_hndl": "missing"}}},
			wantErr: `unknown fill handler "missing"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := render(t, h, tt.src, tt.data)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandlerVariantOutOfRange(t *testing.T) {
	h, err := Load("v.star", "def pick(data, index):\n    return 5\n")
	require.NoError(t, err)

	_, err = render(t, h, "<U>kg<^U>l</U>", map[string]any{"u": map[string]any{"fill_hndl": "pick"}})
	require.Error(t, err)
	assert.True(t, blockie.IsVariantIndexError(err))
}

func TestStarlarkConversion(t *testing.T) {
	handler := blockie.FillHandler(func(*blockie.Clone, blockie.Map, int) error { return nil })
	v := blockie.Map{
		"s":         blockie.String("x"),
		"i":         blockie.Int(2),
		"f":         blockie.Float(0.5),
		"b":         blockie.Bool(true),
		"n":         blockie.None,
		"l":         blockie.List{blockie.Int(1), blockie.String("y")},
		"fill_hndl": handler,
	}

	sv := ToStarlark(v)
	dict, ok := sv.(*starlark.Dict)
	require.True(t, ok)
	assert.Equal(t, 6, dict.Len())
	_, found, err := dict.Get(starlark.String("fill_hndl"))
	require.NoError(t, err)
	assert.False(t, found)

	back, err := FromStarlark(sv)
	require.NoError(t, err)
	delete(v, "fill_hndl")
	assert.Equal(t, blockie.Value(v), back)

	tuple, err := FromStarlark(starlark.Tuple{starlark.MakeInt(1), starlark.String("a")})
	require.NoError(t, err)
	assert.Equal(t, blockie.List{blockie.Int(1), blockie.String("a")}, tuple)

	_, err = FromStarlark(starlark.NewSet(0))
	assert.Error(t, err)

	d := starlark.NewDict(1)
	require.NoError(t, d.SetKey(starlark.MakeInt(1), starlark.None))
	_, err = FromStarlark(d)
	assert.Error(t, err)
}
