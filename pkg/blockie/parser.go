package blockie

import (
	"fmt"
)

// Template is a parsed template: the immutable block tree plus the grammar it
// was parsed with. A Template is safe for concurrent use; fill state lives in
// the Block handles created from it.
type Template struct {
	root    *Node
	source  string
	grammar *Grammar
}

// Root returns the synthetic root block covering the whole template.
func (t *Template) Root() *Node {
	return t.root
}

// Source returns the template text.
func (t *Template) Source() string {
	return t.source
}

// Grammar returns the grammar the template was parsed with.
func (t *Template) Grammar() *Grammar {
	return t.grammar
}

// openBlock is a block under construction.
type openBlock struct {
	node        *Node
	variant     *Variant
	bodyStart   int
	lastWasText bool
}

// blockParser builds the block tree from scanner tokens
type blockParser struct {
	src   string
	stack []*openBlock
}

// Parse parses a template with the given grammar (nil selects the default grammar).
func Parse(src string, grammar *Grammar) (*Template, error) {
	if grammar == nil {
		grammar = DefaultGrammar()
	}
	g, err := grammar.compile()
	if err != nil {
		return nil, err
	}

	logger := GetLogger()
	if logger.IsDebugMode() {
		logger.WithField("input_length", len(src)).Debug("Parsing template")
	}

	s, err := newScanner(src, g)
	if err != nil {
		return nil, err
	}

	root := &Node{}
	p := &blockParser{src: src}
	p.push(root, 0)

	for {
		tok, ok, err := s.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if err := p.consume(tok); err != nil {
			return nil, err
		}
	}

	p.closeVariant(len(src))
	root.indexRefs()

	if logger.IsDebugMode() {
		logger.WithFields(Fields{
			"block_names": len(s.names),
			"variants":    len(root.Variants),
		}).Debug("Template parsed")
	}

	return &Template{root: root, source: src, grammar: grammar}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string, grammar *Grammar) *Template {
	t, err := Parse(src, grammar)
	if err != nil {
		panic(fmt.Sprintf("blockie: %v", err))
	}
	return t
}

func (p *blockParser) current() *openBlock {
	return p.stack[len(p.stack)-1]
}

func (p *blockParser) push(n *Node, bodyStart int) {
	v := &Variant{}
	n.Variants = append(n.Variants, v)
	p.stack = append(p.stack, &openBlock{node: n, variant: v, bodyStart: bodyStart})
}

func (p *blockParser) closeVariant(end int) {
	cur := p.current()
	cur.variant.Source = p.src[cur.bodyStart:end]
}

func (p *blockParser) add(el Element) {
	cur := p.current()
	cur.variant.Elements = append(cur.variant.Elements, el)
	cur.lastWasText = false
}

func (p *blockParser) consume(tok Token) error {
	switch tok.Type {
	case TokenText:
		cur := p.current()
		if cur.lastWasText {
			last := cur.variant.Elements[len(cur.variant.Elements)-1].(*TextElement)
			last.Content += tok.Value
			return nil
		}
		p.add(&TextElement{Content: tok.Value})
		cur.lastWasText = true

	case TokenVariable:
		p.add(&VariableElement{Name: tok.Value, Tag: tok.Raw})

	case TokenAlign:
		p.add(&AlignElement{Tag: tok.Raw})

	case TokenBlockStart:
		child := &Node{Name: tok.Value, Auto: tok.Auto}
		p.add(child)
		p.push(child, tok.Pos+len(tok.Raw))

	case TokenBlockVariant:
		p.closeVariant(tok.Pos)
		cur := p.current()
		v := &Variant{}
		cur.node.Variants = append(cur.node.Variants, v)
		cur.variant = v
		cur.bodyStart = tok.Pos + len(tok.Raw)
		cur.lastWasText = false

	case TokenBlockEnd:
		if len(p.stack) < 2 {
			line, col := lineColumn(p.src, tok.Pos)
			return NewMalformedTemplateError("end tag without open block", tok.Raw, line, col)
		}
		p.closeVariant(tok.Pos)
		p.stack = p.stack[:len(p.stack)-1]

	default:
		return fmt.Errorf("unexpected token type: %v", tok.Type)
	}
	return nil
}
