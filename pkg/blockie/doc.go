// Package blockie is a text template engine built around nested, repeatable
// blocks.
//
// A template is plain text with tags. Variables are replaced by values, blocks
// are cloned once per data item, and each block may have several variants of
// which one is chosen per clone. The engine does not evaluate expressions;
// all logic lives in the data.
//
// # Quick Start
//
// The simplest way to use blockie is through the package-level functions:
//
//	out, err := blockie.Render("<SENTENCE><WORD> </SENTENCE>", map[string]any{
//	    "sentence": []map[string]any{
//	        {"word": "Hello"},
//	        {"word": "world!"},
//	    },
//	})
//	// out == "Hello world! "
//
// # Template Syntax
//
// With the default grammar:
//
//	<NAME>                     - Variable, or block start when a </NAME> follows
//	</NAME>                    - Block end
//	<^NAME>                    - Separator between block variants
//	<+>                        - Align tag, padded to a common column across clones
//	<.>...<^.>...</.>          - Auto block: first variant between clones, second after the last
//
// Tag names are case-insensitive. The delimiters are configurable through
// Grammar, or through a GrammarConfig file using {name} patterns.
//
// # Fill Values
//
// Fill data is converted to a Value:
//
//	nil                        - Block removed, variable empty
//	true / false               - Block kept verbatim / removed; variable keeps its tag / is empty
//	int                        - Block variant index
//	string, number             - Variable text
//	map                        - One clone; keys bind variables and child blocks
//	slice                      - One clone per element
//	struct                     - Map of its fields (the "blockie" struct tag renames them)
//
// A map may hold the reserved keys "vari_idx", selecting the variant, and
// "fill_hndl", a FillHandler run before each clone is bound.
//
// # Manual Binding
//
// Block handles build clones step by step:
//
//	blk, _ := blockie.New(template)
//	items, _ := blk.Subblock("items")
//	for _, it := range list {
//	    items.SetVariables(map[string]any{"item": it.Name, "qty": it.Qty}, blockie.Autoclone())
//	}
//	out, _ := blk.Content()
//
// # Error Handling
//
// Parse errors are *MalformedTemplateError with line and column. Fill errors
// are wrapped in *FillError carrying the block path; the cause is one of
// *VariantIndexError, *VariableArityMismatchError or *ValueKindError. A failed
// fill adds no clones. Unknown data keys are ignored unless strict mode is on,
// in which case they are reported as *UnknownTagReferenceError.
//
// # Configuration
//
// The engine reads BLOCKIE_CACHE_MAX_SIZE, BLOCKIE_CACHE_TTL, BLOCKIE_LOG_LEVEL,
// BLOCKIE_STRICT_MODE and BLOCKIE_TAB_SIZE, or takes a Config through
// WithConfig.
package blockie
