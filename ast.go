package fizz

import (
	"strconv"
	"strings"
)

// LeafKind classifies a Leaf node's payload.
type LeafKind int

const (
	LeafKeyword LeafKind = iota
	LeafIdentifier
	LeafString
	LeafBool
	LeafInt
	LeafFloat
)

var keywords = map[string]bool{
	"if":     true,
	"lambda": true,
	"define": true,
	"import": true,
}

// Node is either a Leaf (keyword, identifier, string, boolean, int,
// float) or a Tree (an ordered sequence of child nodes produced by a
// parenthesized form).
type Node interface {
	node()
	span() Span
}

type Leaf struct {
	Kind  LeafKind
	Text  string // raw identifier/keyword text, or the decoded string contents
	Bool  bool
	Int   int64
	Float float64
	Span  Span
}

func (*Leaf) node()         {}
func (l *Leaf) span() Span  { return l.Span }

type Tree struct {
	Children []Node
	Span     Span
}

func (*Tree) node()        {}
func (t *Tree) span() Span { return t.Span }

// Parser consumes a pre-scanned token stream and produces a forest of
// top-level Nodes.
type Parser struct {
	toks []Token
	pos  int
	diag *Diagnostics
}

func NewParser(src []byte) *Parser {
	return &Parser{toks: Tokens(src)}
}

// WithDiagnostics makes p append every syntax error it returns to sink
// before returning it, in addition to returning it normally. Returns p
// for chaining onto NewParser.
func (p *Parser) WithDiagnostics(sink *Diagnostics) *Parser {
	p.diag = sink
	return p
}

// fail records err into p's diagnostics sink, if one is set, then
// returns it so call sites can keep their existing `return nil, fail(...)` shape.
func (p *Parser) fail(kind ErrorKind, span Span, format string, args ...any) *Error {
	err := newErrAt(kind, span, format, args...)
	if p.diag != nil {
		p.diag.Add(err.Kind, err.Message, err.Span)
	}
	return err
}

func (p *Parser) atEnd() bool { return p.pos >= len(p.toks) }

func (p *Parser) peek() (Token, bool) {
	if p.atEnd() {
		return Token{}, false
	}
	return p.toks[p.pos], true
}

// Parse consumes the entire token stream and returns every top-level
// form. It is the caller's job (the IR builder) to wrap these in a
// single `ret`.
func (p *Parser) Parse() ([]Node, error) {
	var forms []Node
	for !p.atEnd() {
		n, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		forms = append(forms, n)
	}
	return forms, nil
}

func (p *Parser) parseForm() (Node, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, p.fail(SyntaxError, Span{}, "unexpected end of input")
	}
	switch tok.Kind {
	case TokOpenParen:
		return p.parseTree()
	case TokCloseParen:
		return nil, p.fail(SyntaxError, tok.Span, "unmatched close parenthesis")
	case TokString:
		p.pos++
		return &Leaf{Kind: LeafString, Text: tok.Text, Span: tok.Span}, nil
	default:
		p.pos++
		return parseIdentifierLeaf(tok), nil
	}
}

func (p *Parser) parseTree() (Node, error) {
	open, _ := p.peek()
	p.pos++ // consume '('

	var children []Node
	for {
		tok, ok := p.peek()
		if !ok {
			return nil, p.fail(SyntaxError, open.Span, "unclosed parenthesis")
		}
		if tok.Kind == TokCloseParen {
			p.pos++
			return &Tree{Children: children, Span: NewSpan(open.Span.Start, tok.Span.End)}, nil
		}
		child, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
}

// dumpNode renders a parsed form as an indented debug tree. It is an
// internal helper for tests that want a readable failure message
// instead of comparing Node structs field by field; it deliberately
// stays unexported rather than becoming part of the public API.
func dumpNode(n Node) string {
	var sb strings.Builder
	dumpNodeInto(&sb, n, 0)
	return sb.String()
}

func dumpNodeInto(sb *strings.Builder, n Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	switch v := n.(type) {
	case *Leaf:
		sb.WriteString(v.Text)
		sb.WriteByte('\n')
	case *Tree:
		sb.WriteString("(\n")
		for _, c := range v.Children {
			dumpNodeInto(sb, c, depth+1)
		}
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(")\n")
	}
}

func parseIdentifierLeaf(tok Token) *Leaf {
	text := tok.Text
	if keywords[text] {
		return &Leaf{Kind: LeafKeyword, Text: text, Span: tok.Span}
	}
	if text == "true" || text == "false" {
		return &Leaf{Kind: LeafBool, Text: text, Bool: text == "true", Span: tok.Span}
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return &Leaf{Kind: LeafInt, Text: text, Int: n, Span: tok.Span}
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return &Leaf{Kind: LeafFloat, Text: text, Float: f, Span: tok.Span}
	}
	return &Leaf{Kind: LeafIdentifier, Text: text, Span: tok.Span}
}
