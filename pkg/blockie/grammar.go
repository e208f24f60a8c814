package blockie

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultAutotagAlign is the name payload of the auto-align tag, <+> in the default grammar.
	DefaultAutotagAlign = "+"
	// DefaultAutotagVariant is the name payload of the auto-reference tag, <.> in the default grammar.
	DefaultAutotagVariant = "."
	// DefaultTabSize is the tab stop width used for alignment.
	DefaultTabSize = 8

	// NamePlaceholder marks where the tag name goes in a grammar pattern.
	NamePlaceholder = "{name}"
)

// Grammar defines how a logical tag name maps to concrete delimiter text.
//
// Each generator must produce prefix + name + suffix with a non-empty prefix,
// so tags can be recognized in a template before their names are known. The
// auto-tags are name payloads: the align tag is Var(AutotagAlign) and the
// auto-reference tags are BlockStart/BlockEnd/BlockVariant(AutotagVariant).
type Grammar struct {
	Var          func(name string) string
	BlockStart   func(name string) string
	BlockEnd     func(name string) string
	BlockVariant func(name string) string

	AutotagAlign   string
	AutotagVariant string
	TabSize        int
}

// DefaultGrammar returns the <NAME>, </NAME>, <^NAME> grammar.
func DefaultGrammar() *Grammar {
	return &Grammar{
		Var:            func(name string) string { return "<" + name + ">" },
		BlockStart:     func(name string) string { return "<" + name + ">" },
		BlockEnd:       func(name string) string { return "</" + name + ">" },
		BlockVariant:   func(name string) string { return "<^" + name + ">" },
		AutotagAlign:   DefaultAutotagAlign,
		AutotagVariant: DefaultAutotagVariant,
		TabSize:        DefaultTabSize,
	}
}

// PatternGrammar builds a grammar from patterns containing {name}, such as "@!{name}".
func PatternGrammar(varPattern, startPattern, endPattern, variantPattern string) (*Grammar, error) {
	for _, p := range []string{varPattern, startPattern, endPattern, variantPattern} {
		if strings.Count(p, NamePlaceholder) != 1 {
			return nil, fmt.Errorf("invalid grammar: pattern %q must contain %s exactly once", p, NamePlaceholder)
		}
	}
	g := DefaultGrammar()
	g.Var = patternFunc(varPattern)
	g.BlockStart = patternFunc(startPattern)
	g.BlockEnd = patternFunc(endPattern)
	g.BlockVariant = patternFunc(variantPattern)
	return g, nil
}

func patternFunc(pattern string) func(string) string {
	return func(name string) string {
		return strings.Replace(pattern, NamePlaceholder, name, 1)
	}
}

// affix is the fixed text around the name in a generated tag.
type affix struct {
	prefix string
	suffix string
}

// probeName cannot occur in a tag name, so it locates the name inside generated text.
const probeName = "\x00"

func deriveAffix(role string, gen func(string) string) (affix, error) {
	if gen == nil {
		return affix{}, fmt.Errorf("invalid grammar: %s generator is nil", role)
	}
	out := gen(probeName)
	if strings.Count(out, probeName) != 1 {
		return affix{}, fmt.Errorf("invalid grammar: %s generator must embed the name exactly once", role)
	}
	idx := strings.Index(out, probeName)
	a := affix{prefix: out[:idx], suffix: out[idx+len(probeName):]}
	if a.prefix == "" {
		return affix{}, fmt.Errorf("invalid grammar: %s tags need a non-empty prefix", role)
	}
	if got := gen("name_1"); got != a.prefix+"name_1"+a.suffix {
		return affix{}, fmt.Errorf("invalid grammar: %s generator must be prefix+name+suffix, got %q", role, got)
	}
	return a, nil
}

// Validate checks that the grammar can be used to parse templates.
func (g *Grammar) Validate() error {
	_, err := g.compile()
	return err
}

// Fingerprint identifies the delimiters the grammar produces.
func (g *Grammar) Fingerprint() string {
	c, err := g.compile()
	if err != nil {
		return "invalid:" + err.Error()
	}
	return strings.Join([]string{
		c.varTag.prefix, c.varTag.suffix,
		c.startTag.prefix, c.startTag.suffix,
		c.endTag.prefix, c.endTag.suffix,
		c.variantTag.prefix, c.variantTag.suffix,
		g.AutotagAlign, g.AutotagVariant, strconv.Itoa(g.TabSize),
	}, "\x00")
}

// compiledGrammar holds the lower-cased delimiters derived from a Grammar.
type compiledGrammar struct {
	grammar    *Grammar
	varTag     affix
	startTag   affix
	endTag     affix
	variantTag affix

	alignText       string
	autoStartText   string
	autoEndText     string
	autoVariantText string
	autoName        string
}

func (g *Grammar) compile() (*compiledGrammar, error) {
	if g == nil {
		return nil, fmt.Errorf("invalid grammar: nil")
	}
	if g.AutotagAlign == "" || g.AutotagVariant == "" {
		return nil, fmt.Errorf("invalid grammar: auto-tag tokens must not be empty")
	}
	if g.TabSize <= 0 {
		return nil, fmt.Errorf("invalid grammar: tab size must be positive, got %d", g.TabSize)
	}

	c := &compiledGrammar{grammar: g}
	var err error
	if c.varTag, err = deriveAffix("variable", g.Var); err != nil {
		return nil, err
	}
	if c.startTag, err = deriveAffix("block start", g.BlockStart); err != nil {
		return nil, err
	}
	if c.endTag, err = deriveAffix("block end", g.BlockEnd); err != nil {
		return nil, err
	}
	if c.variantTag, err = deriveAffix("block variant", g.BlockVariant); err != nil {
		return nil, err
	}

	c.alignText = asciiLower(g.Var(g.AutotagAlign))
	c.autoStartText = asciiLower(g.BlockStart(g.AutotagVariant))
	c.autoEndText = asciiLower(g.BlockEnd(g.AutotagVariant))
	c.autoVariantText = asciiLower(g.BlockVariant(g.AutotagVariant))
	c.autoName = asciiLower(g.AutotagVariant)

	// One block's start, end and variant tags must be told apart.
	start, end, variant := c.start("x"), c.end("x"), c.variant("x")
	if start == end || start == variant || end == variant {
		return nil, fmt.Errorf("invalid grammar: block start, end and variant tags must differ (%q, %q, %q)", start, end, variant)
	}
	if c.variable("x") == end || c.variable("x") == variant {
		return nil, fmt.Errorf("invalid grammar: variable tags must differ from block end and variant tags")
	}
	return c, nil
}

func (c *compiledGrammar) variable(name string) string { return asciiLower(c.grammar.Var(name)) }
func (c *compiledGrammar) start(name string) string    { return asciiLower(c.grammar.BlockStart(name)) }
func (c *compiledGrammar) end(name string) string      { return asciiLower(c.grammar.BlockEnd(name)) }
func (c *compiledGrammar) variant(name string) string  { return asciiLower(c.grammar.BlockVariant(name)) }

// asciiLower lower-cases ASCII letters only, so byte offsets stay valid.
func asciiLower(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if b[j] >= 'A' && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}

func isNameByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}
