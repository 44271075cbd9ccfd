package fizz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileSrc(t *testing.T, src string) *Bytecode {
	t.Helper()
	forms, err := NewParser([]byte(src)).Parse()
	require.NoError(t, err)
	ret, err := BuildIR(forms, nil)
	require.NoError(t, err)
	mm := newMemoryManager()
	mod := NewModule("main", ".")
	bcVal, err := CompileModule(mm, mod, ret)
	require.NoError(t, err)
	return bcVal.AsBytecode()
}

func instructionNames(bc *Bytecode) []string {
	names := make([]string, len(bc.Instructions))
	for i, ins := range bc.Instructions {
		names[i] = ins.Name()
	}
	return names
}

func TestCompile_SimpleCallShape(t *testing.T) {
	bc := compileSrc(t, "(+ 1 2)")
	assert.Equal(t, []string{"deref_global", "push_const", "push_const", "eval", "ret"}, instructionNames(bc))
	eval := bc.Instructions[3].(Eval)
	assert.Equal(t, 3, eval.N)
}

func TestCompile_EndsOnRetEvenWithoutTrailingExpr(t *testing.T) {
	bc := compileSrc(t, `(define x 1)`)
	last := bc.Instructions[len(bc.Instructions)-1]
	_, ok := last.(Ret)
	assert.True(t, ok)
}

func TestCompile_DefineEmitsDefineProtocol(t *testing.T) {
	bc := compileSrc(t, "(define x 1)")
	assert.Equal(t, []string{"deref_global", "push_const", "push_const", "eval", "ret"}, instructionNames(bc))
	deref := bc.Instructions[0].(DerefGlobal)
	assert.Equal(t, "%define%", deref.Symbol)
	eval := bc.Instructions[3].(Eval)
	assert.Equal(t, 3, eval.N)
}

func TestCompile_IfShape(t *testing.T) {
	bc := compileSrc(t, "(if true 1 2)")
	// pred, jump_if, <else>, jump, <then>, ret
	assert.Equal(t, []string{"push_const", "jump_if", "push_const", "jump", "push_const", "ret"}, instructionNames(bc))
	jumpIf := bc.Instructions[1].(JumpIf)
	assert.Equal(t, 2, jumpIf.Delta, "skip the 1-instruction else block plus the jump after it")
	jump := bc.Instructions[3].(Jump)
	assert.Equal(t, 1, jump.Delta, "skip the 1-instruction then block")
}

func TestCompile_LambdaParamResolvesToGetArg(t *testing.T) {
	bc := compileSrc(t, "(define (id x) x)")
	// deref_global(%define%), push_const(symbol), push_const(lambda bytecode), eval, ret
	lambdaConst := bc.Instructions[2].(PushConst).Value
	require.Equal(t, KindBytecode, lambdaConst.Kind())
	inner := lambdaConst.AsBytecode()
	assert.Equal(t, []string{"get_arg", "ret"}, instructionNames(inner))
	assert.Equal(t, 0, inner.Instructions[0].(GetArg).Index)
}

func TestCompile_ModuleLocalDefineResolvesToDerefLocal(t *testing.T) {
	bc := compileSrc(t, `
		(define x 1)
		x
	`)
	// first statement's define block, then second statement's deref.
	// Scan every instruction for a deref_local of x.
	var found bool
	for _, ins := range bc.Instructions {
		if dl, ok := ins.(DerefLocal); ok && dl.Qualified == "x" {
			found = true
		}
	}
	assert.True(t, found, "a reference to a module-level define compiles to deref_local, not deref_global")
}

func TestCompile_DefineAtNonTopLevelIsRejected(t *testing.T) {
	_, err := compileError(t, "(lambda () (define x 1))")
	require.Error(t, err)
	assert.Equal(t, SyntaxError, KindOf(err))
}

func compileError(t *testing.T, src string) (Value, error) {
	t.Helper()
	forms, err := NewParser([]byte(src)).Parse()
	require.NoError(t, err)
	ret, err := BuildIR(forms, nil)
	require.NoError(t, err)
	mm := newMemoryManager()
	mod := NewModule("main", ".")
	return CompileModule(mm, mod, ret)
}
