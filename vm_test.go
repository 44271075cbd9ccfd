package fizz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalSrc(t *testing.T, src string) (Value, error) {
	t.Helper()
	vm := NewVM(nil)
	return EvalString(vm, src)
}

func TestEvalString_Arithmetic(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{"addition", "(+ 1 2 3)", "6"},
		{"no-arg addition is zero", "(+ )", "0"},
		{"no-arg multiplication is one", "(* )", "1"},
		{"unary negation", "(- 5)", "-5"},
		{"subtraction chain", "(- 10 2 3)", "5"},
		{"int division exact", "(/ 10 2)", "5"},
		{"int division inexact widens to float", "(/ 1 2)", "0.5"},
		{"mixed int/float widens", "(+ 1 0.5)", "1.5"},
		{"less-than chain true", "(< 1 2 3)", "true"},
		{"less-than chain false", "(< 1 3 2)", "false"},
		{"less-than no args is true", "(< )", "true"},
		{"less-than one arg is true", "(< 0)", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := evalSrc(t, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, Print(v))
		})
	}
}

func TestEvalString_SubtractAndDivideRequireAnArgument(t *testing.T) {
	_, err := evalSrc(t, "(- )")
	require.Error(t, err)
	assert.Equal(t, ArityError, KindOf(err))

	_, err = evalSrc(t, "(/ )")
	require.Error(t, err)
	assert.Equal(t, ArityError, KindOf(err))
}

func TestEvalString_DivisionByZero(t *testing.T) {
	_, err := evalSrc(t, "(/ 1 0)")
	require.Error(t, err)
	assert.Equal(t, RuntimeError, KindOf(err))
}

func TestEvalString_IfBranches(t *testing.T) {
	v, err := evalSrc(t, "(if true 1 2)")
	require.NoError(t, err)
	assert.Equal(t, "1", Print(v))

	v, err = evalSrc(t, "(if false 1 2)")
	require.NoError(t, err)
	assert.Equal(t, "2", Print(v))

	v, err = evalSrc(t, "(if false 1)")
	require.NoError(t, err)
	assert.Equal(t, "none", Print(v))
}

func TestEvalString_RecursiveDefine(t *testing.T) {
	v, err := evalSrc(t, `
		(define (fib n)
		  (if (< n 2)
		      n
		      (+ (fib (- n 1)) (fib (- n 2)))))
		(fib 10)
	`)
	require.NoError(t, err)
	assert.Equal(t, "55", Print(v))
}

func TestEvalString_DefineOutsideTopLevelIsSyntaxError(t *testing.T) {
	_, err := evalSrc(t, "(if true (define x 1) 2)")
	require.Error(t, err)
	assert.Equal(t, SyntaxError, KindOf(err))
}

func TestEvalString_DefineInsideLambdaBodyIsSyntaxError(t *testing.T) {
	_, err := evalSrc(t, "(lambda (x) (define y 1) y)")
	require.Error(t, err)
	assert.Equal(t, SyntaxError, KindOf(err))
}

func TestEvalString_ImportInsideIfPredicateIsSyntaxError(t *testing.T) {
	_, err := evalSrc(t, `(if (import "x.fizz") 1 2)`)
	require.Error(t, err)
	assert.Equal(t, SyntaxError, KindOf(err))
}

func TestEvalString_UndefinedGlobalIsSymbolNotFound(t *testing.T) {
	_, err := evalSrc(t, "(no-such-function 1)")
	require.Error(t, err)
	assert.Equal(t, SymbolNotFound, KindOf(err))
}

func TestEvalString_ArityMismatch(t *testing.T) {
	_, err := evalSrc(t, "(define (id x) x) (id 1 2)")
	require.Error(t, err)
	assert.Equal(t, ArityError, KindOf(err))
}

func TestEvalString_Lists(t *testing.T) {
	v, err := evalSrc(t, "(first (list 1 2 3))")
	require.NoError(t, err)
	assert.Equal(t, "1", Print(v))

	v, err = evalSrc(t, "(len (rest (list 1 2 3)))")
	require.NoError(t, err)
	assert.Equal(t, "2", Print(v))

	v, err = evalSrc(t, "(nth (list 1 2 3) 2)")
	require.NoError(t, err)
	assert.Equal(t, "3", Print(v))

	_, err = evalSrc(t, "(first (list))")
	require.Error(t, err)
	assert.Equal(t, RuntimeError, KindOf(err))
}

func TestEvalString_MapAndFilter(t *testing.T) {
	v, err := evalSrc(t, `
		(define (inc x) (+ x 1))
		(map inc (list 1 2 3))
	`)
	require.NoError(t, err)
	assert.Equal(t, "(2 3 4)", Print(v))

	v, err = evalSrc(t, `(filter (lambda (x) (< x 3)) (list 1 2 3 4))`)
	require.NoError(t, err)
	assert.Equal(t, "(1 2)", Print(v))
}

func TestEvalString_Apply(t *testing.T) {
	v, err := evalSrc(t, `(apply + (list 1 2 3))`)
	require.NoError(t, err)
	assert.Equal(t, "6", Print(v))
}

func TestEvalString_Structs(t *testing.T) {
	v, err := evalSrc(t, `
		(define p (struct 'name "Ada" 'age 36))
		(struct-set! p 'age (+ (struct-get p 'age) 1))
		(struct-get p 'age)
	`)
	require.NoError(t, err)
	assert.Equal(t, "37", Print(v))
}

func TestEvalString_StrBuiltins(t *testing.T) {
	v, err := evalSrc(t, `(str-concat "foo" "-" "bar")`)
	require.NoError(t, err)
	assert.Equal(t, "foo-bar", v.AsString())

	v, err = evalSrc(t, `(str-substr "hello world" 0 5)`)
	require.NoError(t, err)
	assert.Equal(t, "hello", v.AsString())

	v, err = evalSrc(t, `(str-len "hello")`)
	require.NoError(t, err)
	assert.Equal(t, "5", Print(v))
}

func TestImportModule_QualifiedAccess(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geometry.fizz"), []byte(`
		(define (square-area side) (* side side))
	`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.fizz"), []byte(`
		(import "geometry.fizz")
		(geometry/square-area 4)
	`), 0o644))

	vm := NewVM(nil)
	mainMod := NewModule(filepath.Join(dir, "main.fizz"), dir)
	src, err := os.ReadFile(filepath.Join(dir, "main.fizz"))
	require.NoError(t, err)
	bc, err := vm.compileModuleSource(src, mainMod)
	require.NoError(t, err)
	result, err := vm.Eval(bc, nil)
	require.NoError(t, err)
	assert.Equal(t, "16", Print(result))
}

// TestExamples_Fibonacci runs the worked example under examples/ end
// to end through the same file-reading path the CLI uses.
func TestExamples_Fibonacci(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("examples", "fibonacci.fizz"))
	require.NoError(t, err)
	v, err := evalSrc(t, string(src))
	require.NoError(t, err)
	assert.Equal(t, "55", Print(v))
}

// TestExamples_GeometryImport runs the cross-module example pair under
// examples/, exercising import resolution against real files on disk
// rather than a t.TempDir() fixture.
func TestExamples_GeometryImport(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("examples", "use_geometry.fizz"))
	require.NoError(t, err)

	vm := NewVM(nil)
	mod := NewModule(filepath.Join("examples", "use_geometry.fizz"), "examples")
	bc, err := vm.compileModuleSource(src, mod)
	require.NoError(t, err)
	result, err := vm.Eval(bc, nil)
	require.NoError(t, err)
	assert.InDelta(t, 12.56636, result.AsFloat(), 1e-9)
}

func TestImportModule_FileTooLarge(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.fizz"), []byte("(+ 1 1)"), 0o644))

	cfg := NewConfig()
	cfg.SetInt("import.max_file_bytes", 1)
	vm := NewVM(cfg)
	mod := NewModule(filepath.Join(dir, "main.fizz"), dir)

	err := vm.importModule(mod, "big.fizz")
	require.Error(t, err)
	assert.Equal(t, FileError, KindOf(err))
}

// TestVM_EvalZeroConsumesToFrameBase exercises `Eval 0` directly by
// hand-assembling bytecode, since the compiler itself never emits it
// (every FunctionCall node compiles to a fixed Eval(argc+1)).
func TestVM_EvalZeroConsumesToFrameBase(t *testing.T) {
	vm := NewVM(nil)
	addFn, ok := vm.Global().GetValue("+")
	require.True(t, ok)

	bcVal := vm.Memory().AllocBytecode("spread", 0, vm.Global())
	bcVal.AsBytecode().Instructions = []Instruction{
		PushConst{Value: addFn},
		PushConst{Value: Int(1)},
		PushConst{Value: Int(2)},
		PushConst{Value: Int(3)},
		Eval{N: 0},
		Ret{},
	}

	result, err := vm.Eval(bcVal, nil)
	require.NoError(t, err)
	assert.Equal(t, "6", Print(result))
}

func TestVM_CollectGarbageDoesNotDisturbLiveState(t *testing.T) {
	vm := NewVM(nil)
	v, err := EvalString(vm, `(define x (list 1 2 3)) x`)
	require.NoError(t, err)
	vm.CollectGarbage()
	assert.Equal(t, "(1 2 3)", Print(v))
}
