package fizz

import "strings"

// ConstKind tags the payload of an IRConst node.
type ConstKind int

const (
	ConstNone ConstKind = iota
	ConstSymbol
	ConstString
	ConstBool
	ConstInt
	ConstFloat
)

// IRConstant is the pre-interned payload of a Constant IR node; the
// compiler is responsible for interning Str into the memory manager.
type IRConstant struct {
	Kind  ConstKind
	Str   string
	Bool  bool
	Int   int64
	Float float64
}

// IR is the intermediate tree the compiler emits bytecode from.
type IR interface {
	ir()
}

type IRConst struct{ Const IRConstant }
type IRDeref struct{ Name string }
type IRCall struct {
	Func IR
	Args []IR
}
type IRIf struct {
	Pred, Then, Else IR // Else is nil when the source had no else-branch
}
type IRLambda struct {
	Name   string
	Params []string
	Body   []IR
}
type IRDefine struct {
	Name string
	Expr IR
}
type IRImport struct{ Path string }
type IRRet struct{ Exprs []IR }

func (*IRConst) ir()  {}
func (*IRDeref) ir()  {}
func (*IRCall) ir()   {}
func (*IRIf) ir()     {}
func (*IRLambda) ir() {}
func (*IRDefine) ir() {}
func (*IRImport) ir() {}
func (*IRRet) ir()    {}

// BuildIR lowers a forest of parsed top-level forms into a single Ret
// node, the only place Define and Import are permitted. sink may be
// nil; when set, every validation error lowering produces is recorded
// there before being returned.
func BuildIR(forms []Node, sink *Diagnostics) (*IRRet, error) {
	b := &irBuilder{diag: sink}
	exprs := make([]IR, 0, len(forms))
	for _, f := range forms {
		e, err := b.lowerExpr(f)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return &IRRet{Exprs: exprs}, nil
}

// irBuilder carries the diagnostics sink through the lowering pass.
type irBuilder struct {
	diag *Diagnostics
}

func (b *irBuilder) fail(kind ErrorKind, span Span, format string, args ...any) *Error {
	err := newErrAt(kind, span, format, args...)
	if b.diag != nil {
		b.diag.Add(err.Kind, err.Message, err.Span)
	}
	return err
}

func (b *irBuilder) lowerExpr(n Node) (IR, error) {
	switch v := n.(type) {
	case *Leaf:
		return b.lowerLeaf(v)
	case *Tree:
		return b.lowerTree(v)
	default:
		return nil, b.fail(SyntaxError, Span{}, "unrecognized node type %T", n)
	}
}

func (b *irBuilder) lowerLeaf(l *Leaf) (IR, error) {
	switch l.Kind {
	case LeafString:
		return &IRConst{Const: IRConstant{Kind: ConstString, Str: l.Text}}, nil
	case LeafBool:
		return &IRConst{Const: IRConstant{Kind: ConstBool, Bool: l.Bool}}, nil
	case LeafInt:
		return &IRConst{Const: IRConstant{Kind: ConstInt, Int: l.Int}}, nil
	case LeafFloat:
		return &IRConst{Const: IRConstant{Kind: ConstFloat, Float: l.Float}}, nil
	case LeafKeyword:
		return nil, b.fail(SyntaxError, l.Span, "keyword %q used outside of a form", l.Text)
	case LeafIdentifier:
		if strings.HasPrefix(l.Text, "'") && len(l.Text) > 1 {
			return &IRConst{Const: IRConstant{Kind: ConstSymbol, Str: l.Text[1:]}}, nil
		}
		if l.Text == "none" {
			return &IRConst{Const: IRConstant{Kind: ConstNone}}, nil
		}
		return &IRDeref{Name: l.Text}, nil
	default:
		return nil, b.fail(SyntaxError, l.Span, "unrecognized leaf")
	}
}

func (b *irBuilder) lowerTree(t *Tree) (IR, error) {
	if len(t.Children) == 0 {
		return nil, b.fail(SyntaxError, t.Span, "empty form")
	}
	if kw, ok := t.Children[0].(*Leaf); ok && kw.Kind == LeafKeyword {
		switch kw.Text {
		case "if":
			return b.lowerIf(t)
		case "lambda":
			return b.lowerLambda(t)
		case "define":
			return b.lowerDefine(t)
		case "import":
			return b.lowerImport(t)
		}
	}
	return b.lowerCall(t)
}

func (b *irBuilder) lowerCall(t *Tree) (IR, error) {
	fn, err := b.lowerExpr(t.Children[0])
	if err != nil {
		return nil, err
	}
	args := make([]IR, 0, len(t.Children)-1)
	for _, c := range t.Children[1:] {
		a, err := b.lowerExpr(c)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return &IRCall{Func: fn, Args: args}, nil
}

func (b *irBuilder) lowerIf(t *Tree) (IR, error) {
	if len(t.Children) < 3 || len(t.Children) > 4 {
		return nil, b.fail(SyntaxError, t.Span, "if requires (if pred then [else]), got %d form(s)", len(t.Children)-1)
	}
	pred, err := b.lowerExpr(t.Children[1])
	if err != nil {
		return nil, err
	}
	then, err := b.lowerExpr(t.Children[2])
	if err != nil {
		return nil, err
	}
	var elseIR IR
	if len(t.Children) == 4 {
		elseIR, err = b.lowerExpr(t.Children[3])
		if err != nil {
			return nil, err
		}
	}
	return &IRIf{Pred: pred, Then: then, Else: elseIR}, nil
}

func (b *irBuilder) lowerParamList(n Node) ([]string, error) {
	tree, ok := n.(*Tree)
	if !ok {
		return nil, b.fail(SyntaxError, n.span(), "malformed parameter list")
	}
	return b.lowerParamListFrom(tree.Children)
}

func (b *irBuilder) lowerBody(forms []Node, span Span) ([]IR, error) {
	if len(forms) == 0 {
		return nil, b.fail(SyntaxError, span, "lambda body must not be empty")
	}
	body := make([]IR, 0, len(forms))
	for _, f := range forms {
		e, err := b.lowerExpr(f)
		if err != nil {
			return nil, err
		}
		body = append(body, e)
	}
	return body, nil
}

func (b *irBuilder) lowerLambda(t *Tree) (IR, error) {
	if len(t.Children) < 2 {
		return nil, b.fail(SyntaxError, t.Span, "lambda requires a parameter list")
	}
	params, err := b.lowerParamList(t.Children[1])
	if err != nil {
		return nil, err
	}
	body, err := b.lowerBody(t.Children[2:], t.Span)
	if err != nil {
		return nil, err
	}
	return &IRLambda{Params: params, Body: body}, nil
}

// lowerDefine handles both `(define name expr)` and the sugar
// `(define (name params...) body...)`, which desugars to
// `(define name (lambda (params...) body...))` with the lambda's
// display name set to `name`.
func (b *irBuilder) lowerDefine(t *Tree) (IR, error) {
	if len(t.Children) < 3 {
		return nil, b.fail(SyntaxError, t.Span, "define requires a name and an expression")
	}
	switch target := t.Children[1].(type) {
	case *Leaf:
		if target.Kind != LeafIdentifier {
			return nil, b.fail(SyntaxError, target.Span, "define target must be an identifier")
		}
		if len(t.Children) != 3 {
			return nil, b.fail(SyntaxError, t.Span, "define with a plain name takes exactly one expression")
		}
		expr, err := b.lowerExpr(t.Children[2])
		if err != nil {
			return nil, err
		}
		return &IRDefine{Name: target.Text, Expr: expr}, nil

	case *Tree:
		if len(target.Children) == 0 {
			return nil, b.fail(SyntaxError, target.Span, "define sugar is missing a function name")
		}
		nameLeaf, ok := target.Children[0].(*Leaf)
		if !ok || nameLeaf.Kind != LeafIdentifier {
			return nil, b.fail(SyntaxError, target.Span, "define sugar's function name must be an identifier")
		}
		params, err := b.lowerParamListFrom(target.Children[1:])
		if err != nil {
			return nil, err
		}
		body, err := b.lowerBody(t.Children[2:], t.Span)
		if err != nil {
			return nil, err
		}
		lambda := &IRLambda{Name: nameLeaf.Text, Params: params, Body: body}
		return &IRDefine{Name: nameLeaf.Text, Expr: lambda}, nil

	default:
		return nil, b.fail(SyntaxError, t.Span, "malformed define")
	}
}

func (b *irBuilder) lowerParamListFrom(nodes []Node) ([]string, error) {
	params := make([]string, 0, len(nodes))
	for _, c := range nodes {
		leaf, ok := c.(*Leaf)
		if !ok || leaf.Kind != LeafIdentifier {
			return nil, b.fail(SyntaxError, c.span(), "parameter list must contain only identifiers")
		}
		params = append(params, leaf.Text)
	}
	return params, nil
}

func (b *irBuilder) lowerImport(t *Tree) (IR, error) {
	if len(t.Children) != 2 {
		return nil, b.fail(SyntaxError, t.Span, "import requires exactly one string path")
	}
	pathLeaf, ok := t.Children[1].(*Leaf)
	if !ok || pathLeaf.Kind != LeafString {
		return nil, b.fail(SyntaxError, t.Span, "import path must be a string literal")
	}
	return &IRImport{Path: pathLeaf.Text}, nil
}

// TopLevelNames walks a Ret's direct expressions (Define may only
// appear there) and collects the set of names the module defines,
// used by the compiler to classify a bare Deref as module-local vs.
// global.
func TopLevelNames(ret *IRRet) map[string]bool {
	names := make(map[string]bool)
	for _, e := range ret.Exprs {
		if d, ok := e.(*IRDefine); ok {
			names[d.Name] = true
		}
	}
	return names
}
