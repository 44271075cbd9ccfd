package fizz

// Compiler lowers an IR tree into a Bytecode object. A Compiler value
// is scoped to one function body (or the module top level, when
// params is nil): the set of parameter names it resolves GetArg
// against, and whether Define/Import are syntactically permitted in
// the IR it is currently emitting.
type Compiler struct {
	mm       *MemoryManager
	mod      *Module
	params   []string
	topNames map[string]bool
	topLevel bool

	out []Instruction
}

// CompileModule compiles an entire parsed source file into a single
// zero-argument Bytecode value bound to mod: running it (via Eval with
// no arguments) executes every top-level form in order and leaves the
// module populated by any top-level Define.
func CompileModule(mm *MemoryManager, mod *Module, ret *IRRet) (Value, error) {
	c := &Compiler{
		mm:       mm,
		mod:      mod,
		topNames: TopLevelNames(ret),
		topLevel: true,
	}
	for _, e := range ret.Exprs {
		if err := c.emit(e); err != nil {
			return None, err
		}
	}
	c.finish()

	bcVal := mm.AllocBytecode("", 0, mod)
	bcVal.AsBytecode().Instructions = c.out
	return bcVal, nil
}

// compileFunction compiles a lambda's body into a Bytecode value of
// ArgCount == len(params). It shares the enclosing module's top-level
// name set, so a reference to a module-level define resolves the same
// way whether it appears at the top level or nested arbitrarily deep
// inside lambda bodies.
func compileFunction(mm *MemoryManager, mod *Module, name string, params []string, body []IR, topNames map[string]bool) (Value, error) {
	c := &Compiler{
		mm:       mm,
		mod:      mod,
		params:   params,
		topNames: topNames,
		topLevel: false,
	}
	for _, e := range body {
		if err := c.emit(e); err != nil {
			return None, err
		}
	}
	c.finish()

	bcVal := mm.AllocBytecode(name, len(params), mod)
	bcVal.AsBytecode().Instructions = c.out
	return bcVal, nil
}

// finish appends a trailing Ret if the body didn't already end on one
// (emit never produces Ret itself, so in practice it always appends),
// first pushing none when the body emitted no instructions at all.
func (c *Compiler) finish() {
	if len(c.out) == 0 {
		c.out = append(c.out, PushConst{Value: None}, Ret{})
		return
	}
	if _, ok := c.out[len(c.out)-1].(Ret); !ok {
		c.out = append(c.out, Ret{})
	}
}

func (c *Compiler) emit(n IR) error {
	switch v := n.(type) {
	case *IRConst:
		return c.emitConst(v)
	case *IRDeref:
		return c.emitDeref(v)
	case *IRCall:
		return c.emitCall(v)
	case *IRIf:
		return c.emitIf(v)
	case *IRLambda:
		return c.emitLambda(v)
	case *IRDefine:
		return c.emitDefine(v)
	case *IRImport:
		return c.emitImport(v)
	default:
		return newErr(SyntaxError, "unrecognized IR node %T", n)
	}
}

func (c *Compiler) emitConst(v *IRConst) error {
	c.out = append(c.out, PushConst{Value: c.intern(v.Const)})
	return nil
}

func (c *Compiler) intern(k IRConstant) Value {
	switch k.Kind {
	case ConstNone:
		return None
	case ConstBool:
		return Bool(k.Bool)
	case ConstInt:
		return Int(k.Int)
	case ConstFloat:
		return Float(k.Float)
	case ConstString:
		return c.mm.InternString(k.Str)
	case ConstSymbol:
		return c.mm.InternSymbol(k.Str)
	default:
		return None
	}
}

// emitDeref resolves a bare identifier in priority order: a parameter
// of the function currently being compiled, a qualified (aliased)
// reference, a module-level define, or else the global module.
func (c *Compiler) emitDeref(v *IRDeref) error {
	for i, p := range c.params {
		if p == v.Name {
			c.out = append(c.out, GetArg{Index: i})
			return nil
		}
	}
	if _, _, qualified := parseQualified(v.Name); qualified {
		c.out = append(c.out, DerefLocal{Qualified: v.Name})
		return nil
	}
	if c.topNames[v.Name] {
		c.out = append(c.out, DerefLocal{Qualified: v.Name})
		return nil
	}
	c.out = append(c.out, DerefGlobal{Symbol: v.Name})
	return nil
}

// emitCall compiles the callee and each argument as nested
// expressions: define/import are BadSyntax in any of these positions
// even when the call itself sits at module top level, so each is
// compiled through subCompile rather than inheriting c.topLevel.
func (c *Compiler) emitCall(v *IRCall) error {
	fnBC, err := c.subCompile(v.Func)
	if err != nil {
		return err
	}
	c.out = append(c.out, fnBC...)
	for _, a := range v.Args {
		argBC, err := c.subCompile(a)
		if err != nil {
			return err
		}
		c.out = append(c.out, argBC...)
	}
	c.out = append(c.out, Eval{N: len(v.Args) + 1})
	return nil
}

// emitIf compiles predicate, else-branch, then-branch into:
//
//	pred
//	jump_if  len(elseBC)+1
//	<elseBC>
//	jump     len(thenBC)
//	<thenBC>
//
// Both Jump and JumpIf advance past themselves before applying their
// delta, so a predicate-true branch lands exactly at the start of
// thenBC, and falling through elseBC's own trailing jump lands exactly
// past thenBC.
func (c *Compiler) emitIf(v *IRIf) error {
	predBC, err := c.subCompile(v.Pred)
	if err != nil {
		return err
	}
	c.out = append(c.out, predBC...)

	thenBC, err := c.subCompile(v.Then)
	if err != nil {
		return err
	}

	var elseBC []Instruction
	if v.Else != nil {
		elseBC, err = c.subCompile(v.Else)
		if err != nil {
			return err
		}
	} else {
		elseBC = []Instruction{PushConst{Value: None}}
	}

	c.out = append(c.out, JumpIf{Delta: len(elseBC) + 1})
	c.out = append(c.out, elseBC...)
	c.out = append(c.out, Jump{Delta: len(thenBC)})
	c.out = append(c.out, thenBC...)
	return nil
}

// subCompile emits a single IR node into a fresh instruction buffer,
// sharing this compiler's scope (params, module, top-level names), for
// callers that need the emitted instructions as a self-contained block
// rather than appended to the running output.
func (c *Compiler) subCompile(n IR) ([]Instruction, error) {
	sub := &Compiler{mm: c.mm, mod: c.mod, params: c.params, topNames: c.topNames, topLevel: false}
	if err := sub.emit(n); err != nil {
		return nil, err
	}
	return sub.out, nil
}

func (c *Compiler) emitLambda(v *IRLambda) error {
	bcVal, err := compileFunction(c.mm, c.mod, v.Name, v.Params, v.Body, c.topNames)
	if err != nil {
		return err
	}
	c.out = append(c.out, PushConst{Value: bcVal})
	return nil
}

// emitDefine is only reachable at module top level (BadSyntax
// otherwise): it pushes the `%define%` native, the target name as a
// symbol constant, compiles the expression, and calls the three-deep
// stack as `%define% name expr`.
func (c *Compiler) emitDefine(v *IRDefine) error {
	if !c.topLevel {
		return newErr(SyntaxError, "define is only permitted at module top level")
	}
	exprBC, err := c.subCompile(v.Expr)
	if err != nil {
		return err
	}
	c.out = append(c.out, DerefGlobal{Symbol: "%define%"})
	c.out = append(c.out, PushConst{Value: c.mm.InternSymbol(v.Name)})
	c.out = append(c.out, exprBC...)
	c.out = append(c.out, Eval{N: 3})
	return nil
}

func (c *Compiler) emitImport(v *IRImport) error {
	if !c.topLevel {
		return newErr(SyntaxError, "import is only permitted at module top level")
	}
	c.out = append(c.out, ImportModule{Path: v.Path})
	c.out = append(c.out, PushConst{Value: None})
	return nil
}
