package blockie

import (
	"fmt"
	"sort"
	"strings"
)

// TokenType represents the type of a template token
type TokenType int

const (
	TokenText TokenType = iota
	TokenVariable
	TokenBlockStart
	TokenBlockEnd
	TokenBlockVariant
	TokenAlign
)

func (t TokenType) String() string {
	switch t {
	case TokenText:
		return "text"
	case TokenVariable:
		return "variable"
	case TokenBlockStart:
		return "block-start"
	case TokenBlockEnd:
		return "block-end"
	case TokenBlockVariant:
		return "block-variant"
	case TokenAlign:
		return "align"
	default:
		return "unknown"
	}
}

// Token represents a recognized piece of a template
type Token struct {
	Type TokenType
	// Value is the literal text for TokenText and the lower-cased name otherwise.
	// Auto-reference block tokens carry the name of the nearest enclosing block.
	Value string
	// Raw is the exact source text of the token.
	Raw  string
	Auto bool
	Pos  int
}

// frame is an open block on the scanner stack.
type frame struct {
	name string
	auto bool
	pos  int
	raw  string
}

// scanner recognizes tags left to right. It keeps the stack of open blocks
// because end and variant tags only match the innermost block.
type scanner struct {
	src   string
	lower string
	pos   int
	g     *compiledGrammar
	names []string // known block names, longest first
	stack []frame
}

func newScanner(src string, g *compiledGrammar) (*scanner, error) {
	s := &scanner{
		src:   src,
		lower: asciiLower(src),
		g:     g,
	}
	s.names = discoverBlockNames(s.lower, g)
	if err := s.checkAmbiguity(); err != nil {
		return nil, err
	}
	return s, nil
}

// discoverBlockNames collects the names of all block end tags in the template.
// A block exists only where it is closed, so end tags define the block names.
func discoverBlockNames(lower string, g *compiledGrammar) []string {
	seen := make(map[string]bool)
	prefix, suffix := g.endTag.prefix, g.endTag.suffix
	for i := 0; i < len(lower); {
		idx := strings.Index(lower[i:], prefix)
		if idx < 0 {
			break
		}
		start := i + idx + len(prefix)
		end := start
		for end < len(lower) && isNameByte(lower[end]) {
			end++
		}
		if end > start && strings.HasPrefix(lower[end:], suffix) {
			name := lower[start:end]
			if name != g.autoName {
				seen[name] = true
			}
		}
		i += idx + 1
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}

// checkAmbiguity rejects templates whose block delimiters cannot be told apart.
// Two distinct delimiters collide when they are equal, or when one is a prefix of
// an end or variant delimiter of another block. Start tags may share prefixes
// with each other since the longest name wins.
func (s *scanner) checkAmbiguity() error {
	type delim struct {
		text  string
		owner string
		role  string
	}
	var delims []delim
	for _, name := range s.names {
		delims = append(delims,
			delim{s.g.start(name), name, "start"},
			delim{s.g.end(name), name, "end"},
			delim{s.g.variant(name), name, "variant"},
		)
	}
	delims = append(delims,
		delim{s.g.alignText, s.g.grammar.AutotagAlign, "align"},
		delim{s.g.autoStartText, s.g.autoName, "start"},
		delim{s.g.autoEndText, s.g.autoName, "end"},
		delim{s.g.autoVariantText, s.g.autoName, "variant"},
	)

	for i, a := range delims {
		for j, b := range delims {
			if i == j || a.owner == b.owner {
				continue
			}
			if a.text == b.text {
				return NewMalformedTemplateError(
					fmt.Sprintf("%s tag of '%s' and %s tag of '%s' are both %q", a.role, a.owner, b.role, b.owner, a.text),
					a.text, 0, 0)
			}
			if (b.role == "end" || b.role == "variant") && strings.HasPrefix(b.text, a.text) {
				return NewMalformedTemplateError(
					fmt.Sprintf("%s tag %q of '%s' is a prefix of %s tag %q of '%s'", a.role, a.text, a.owner, b.role, b.text, b.owner),
					a.text, 0, 0)
			}
		}
	}
	return nil
}

func (s *scanner) top() (frame, bool) {
	if len(s.stack) == 0 {
		return frame{}, false
	}
	return s.stack[len(s.stack)-1], true
}

// enclosingName is the name of the nearest open block that is not an auto-reference block.
func (s *scanner) enclosingName() string {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if !s.stack[i].auto {
			return s.stack[i].name
		}
	}
	return ""
}

func (s *scanner) endText(f frame) string {
	if f.auto {
		return s.g.autoEndText
	}
	return s.g.end(f.name)
}

func (s *scanner) variantText(f frame) string {
	if f.auto {
		return s.g.autoVariantText
	}
	return s.g.variant(f.name)
}

func (s *scanner) errorAt(pos int, tag, message string) error {
	line, col := lineColumn(s.src, pos)
	return NewMalformedTemplateError(message, tag, line, col)
}

// next returns the next token, or false at the end of input.
func (s *scanner) next() (Token, bool, error) {
	if s.pos >= len(s.src) {
		if f, open := s.top(); open {
			return Token{}, false, s.errorAt(f.pos, f.raw,
				fmt.Sprintf("block '%s' has no matching end tag", blockLabel(f.name)))
		}
		return Token{}, false, nil
	}

	start := s.pos
	for i := s.pos; i < len(s.src); i++ {
		tok, width, err := s.matchTag(i)
		if err != nil {
			return Token{}, false, err
		}
		if width == 0 {
			continue
		}
		if i > start {
			// Emit the pending literal first; the tag is matched again on the next call.
			s.pos = i
			return Token{Type: TokenText, Value: s.src[start:i], Raw: s.src[start:i], Pos: start}, true, nil
		}
		s.apply(tok)
		s.pos = i + width
		return tok, true, nil
	}

	s.pos = len(s.src)
	return Token{Type: TokenText, Value: s.src[start:], Raw: s.src[start:], Pos: start}, true, nil
}

// apply updates the block stack for an emitted tag.
func (s *scanner) apply(tok Token) {
	switch tok.Type {
	case TokenBlockStart:
		s.stack = append(s.stack, frame{name: tok.Value, auto: tok.Auto, pos: tok.Pos, raw: tok.Raw})
	case TokenBlockEnd:
		s.stack = s.stack[:len(s.stack)-1]
	}
}

// matchTag tries every tag role at position i in priority order.
// A zero width means literal text.
func (s *scanner) matchTag(i int) (Token, int, error) {
	rest := s.lower[i:]
	raw := func(n int) string { return s.src[i : i+n] }

	if f, open := s.top(); open {
		if end := s.endText(f); strings.HasPrefix(rest, end) {
			return Token{Type: TokenBlockEnd, Value: f.name, Raw: raw(len(end)), Auto: f.auto, Pos: i}, len(end), nil
		}
		if variant := s.variantText(f); strings.HasPrefix(rest, variant) {
			return Token{Type: TokenBlockVariant, Value: f.name, Raw: raw(len(variant)), Auto: f.auto, Pos: i}, len(variant), nil
		}
	}

	if n := len(s.g.autoStartText); strings.HasPrefix(rest, s.g.autoStartText) {
		return Token{Type: TokenBlockStart, Value: s.enclosingName(), Raw: raw(n), Auto: true, Pos: i}, n, nil
	}

	for _, name := range s.names {
		startText := s.g.start(name)
		if !strings.HasPrefix(rest, startText) {
			continue
		}
		after := i + len(startText)
		if startText == s.g.variable(name) && !strings.Contains(s.lower[after:], s.g.end(name)) {
			// Same text as a variable tag and never closed: it is a variable.
			break
		}
		return Token{Type: TokenBlockStart, Value: name, Raw: raw(len(startText)), Pos: i}, len(startText), nil
	}

	if name, n := matchAffix(s.g.startTag, rest); n > 0 && s.g.start(name) != s.g.variable(name) {
		return Token{}, 0, s.errorAt(i, raw(n), fmt.Sprintf("block '%s' has no matching end tag", name))
	}

	if err := s.checkMisplaced(i, rest); err != nil {
		return Token{}, 0, err
	}

	if strings.HasPrefix(rest, s.g.alignText) {
		n := len(s.g.alignText)
		return Token{Type: TokenAlign, Value: s.g.grammar.AutotagAlign, Raw: raw(n), Pos: i}, n, nil
	}

	if name, n := matchAffix(s.g.varTag, rest); n > 0 {
		return Token{Type: TokenVariable, Value: name, Raw: raw(n), Pos: i}, n, nil
	}

	return Token{}, 0, nil
}

// checkMisplaced reports end and variant tags of blocks that are not innermost.
func (s *scanner) checkMisplaced(i int, rest string) error {
	inner := "<root>"
	if f, open := s.top(); open {
		inner = blockLabel(f.name)
		if f.auto {
			inner = "auto-reference block"
		}
	}
	for _, name := range s.names {
		if end := s.g.end(name); strings.HasPrefix(rest, end) {
			return s.errorAt(i, s.src[i:i+len(end)],
				fmt.Sprintf("end tag for '%s' does not close the innermost open block (%s)", name, inner))
		}
		if variant := s.g.variant(name); strings.HasPrefix(rest, variant) {
			return s.errorAt(i, s.src[i:i+len(variant)],
				fmt.Sprintf("variant tag for '%s' outside its block (innermost open block is %s)", name, inner))
		}
	}
	for _, text := range []string{s.g.autoEndText, s.g.autoVariantText} {
		if strings.HasPrefix(rest, text) {
			return s.errorAt(i, s.src[i:i+len(text)],
				fmt.Sprintf("auto-reference tag does not match the innermost open block (%s)", inner))
		}
	}
	return nil
}

// matchAffix matches prefix + name + suffix of a tag at the start of rest.
func matchAffix(a affix, rest string) (string, int) {
	if !strings.HasPrefix(rest, a.prefix) {
		return "", 0
	}
	end := len(a.prefix)
	for end < len(rest) && isNameByte(rest[end]) {
		end++
	}
	if end == len(a.prefix) || !strings.HasPrefix(rest[end:], a.suffix) {
		return "", 0
	}
	return rest[len(a.prefix):end], end + len(a.suffix)
}

// lineColumn converts a byte offset into 1-based line and column numbers.
func lineColumn(src string, pos int) (int, int) {
	if pos > len(src) {
		pos = len(src)
	}
	line := 1 + strings.Count(src[:pos], "\n")
	col := pos - strings.LastIndex(src[:pos], "\n")
	return line, col
}

// Tokenize splits a template into tokens using the given grammar (nil selects
// the default grammar). Block tags are balanced by the time it returns.
func Tokenize(input string, grammar *Grammar) ([]Token, error) {
	if grammar == nil {
		grammar = DefaultGrammar()
	}
	g, err := grammar.compile()
	if err != nil {
		return nil, err
	}

	logger := GetLogger()
	if logger.IsDebugMode() {
		logger.WithField("input_length", len(input)).Debug("Starting tokenization")
	}

	s, err := newScanner(input, g)
	if err != nil {
		return nil, err
	}

	var tokens []Token
	for {
		tok, ok, err := s.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		tokens = append(tokens, tok)
	}

	if logger.IsDebugMode() {
		logger.WithFields(Fields{
			"token_count": len(tokens),
			"block_names": len(s.names),
		}).Debug("Tokenization complete")
	}
	return tokens, nil
}
