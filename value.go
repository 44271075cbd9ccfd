package fizz

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSymbol
	KindList
	KindStruct
	KindBytecode
	KindNativeFn
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "boolean"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindList:
		return "list"
	case KindStruct:
		return "struct"
	case KindBytecode:
		return "bytecode"
	case KindNativeFn:
		return "native_fn"
	default:
		return "unknown"
	}
}

// NativeFn is the fixed signature every host-registered built-in must
// implement.
type NativeFn func(vm *VM, args []Value) (Value, error)

// Value is a tagged sum. Primitive variants (none, boolean, int, float)
// are inline; reference-carrying variants hold a handle into the
// memory manager's pools and have no Go-level lifecycle of their own.
type Value struct {
	kind Kind

	b bool
	i int64
	f float64

	// ref is the GC handle for string/symbol/list/struct/bytecode
	// values. nat is held directly since native functions are not
	// memory-manager allocations; they live for the lifetime of the
	// module that holds them.
	ref *object
	nat *nativeObj
}

// nativeObj wraps a NativeFn so two Values referencing the same
// registration compare equal by pointer, the way bytecode and other
// ref-carrying values do.
type nativeObj struct {
	name string
	fn   NativeFn
}

// object is the memory manager's reference-carrying allocation
// record. Exactly one of the typed payload fields is meaningful,
// selected by kind.
type object struct {
	kind  Kind
	color bool

	// str holds the interned content shared by KindString and
	// KindSymbol; symbol identity is this pointer.
	str string

	// list is the backing slice for KindList.
	list []Value

	// strct is the backing map for KindStruct, keyed by the interned
	// symbol object. Go's randomized map iteration order matches the
	// spec's "iteration order is unspecified" invariant for free.
	strct map[*object]Value

	// code is populated for KindBytecode.
	code *Bytecode
}

var None = Value{kind: KindNone}
var True = Value{kind: KindBool, b: true}
var False = Value{kind: KindBool, b: false}

func Bool(v bool) Value {
	if v {
		return True
	}
	return False
}

func Int(v int64) Value     { return Value{kind: KindInt, i: v} }
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

func nativeFnValue(name string, fn NativeFn) Value {
	return Value{kind: KindNativeFn, nat: &nativeObj{name: name, fn: fn}}
}

func bytecodeValue(o *object) Value { return Value{kind: KindBytecode, ref: o} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNone() bool { return v.kind == KindNone }
func (v Value) AsBool() bool { return v.b }
func (v Value) AsInt() int64 { return v.i }
func (v Value) AsFloat() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}
func (v Value) AsString() string   { return v.ref.str }
func (v Value) AsBytecode() *Bytecode { return v.ref.code }

// AsList returns the backing slice for a list value. Callers must not
// retain it across a GC-triggering call without keeping the Value
// itself reachable — see the re-entrant GC safety note in SPEC_FULL.md:
// native functions must keep intermediates on the data stack or pin
// them via the memory manager's keep-alive set.
func (v Value) AsList() []Value { return v.ref.list }

func (v Value) ListLen() int { return len(v.ref.list) }

// structSet and structGet key a struct's backing map by the field
// symbol's interned object pointer, so two occurrences of the same
// symbol name always address the same field regardless of which
// Value instance carries them.
func (v Value) structSet(field, val Value) { v.ref.strct[field.ref] = val }

func (v Value) structGet(field Value) (Value, bool) {
	val, ok := v.ref.strct[field.ref]
	return val, ok
}

// Truthy implements the language's notion of a boolean context: only
// `false` is false; everything else (including 0, "", and none) is
// true.
func (v Value) Truthy() bool {
	return v.kind != KindBool || v.b
}

// Equal implements the `=` built-in's structural equality rules.
func Equal(a, b Value) (bool, error) {
	if a.kind != b.kind {
		return false, newErr(TypeError, "cannot compare %s with %s", a.kind, b.kind)
	}
	switch a.kind {
	case KindNone:
		return true, nil
	case KindBool:
		return a.b == b.b, nil
	case KindInt:
		return a.i == b.i, nil
	case KindFloat:
		return a.f == b.f, nil
	case KindString:
		return a.ref.str == b.ref.str, nil
	case KindSymbol:
		return a.ref == b.ref, nil
	case KindList:
		al, bl := a.AsList(), b.AsList()
		if len(al) != len(bl) {
			return false, nil
		}
		for i := range al {
			eq, err := Equal(al[i], bl[i])
			if err != nil || !eq {
				return eq, err
			}
		}
		return true, nil
	case KindStruct:
		am, bm := a.ref.strct, b.ref.strct
		if len(am) != len(bm) {
			return false, nil
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok {
				return false, nil
			}
			eq, err := Equal(av, bv)
			if err != nil || !eq {
				return eq, err
			}
		}
		return true, nil
	case KindBytecode:
		return a.ref == b.ref, nil
	case KindNativeFn:
		return a.nat == b.nat, nil
	default:
		return false, newErr(TypeError, "unsupported comparison for %s", a.kind)
	}
}

// Print renders a value the way the `->str` built-in and host
// introspection do, per the printed-value grammar in the spec.
func Print(v Value) string {
	switch v.kind {
	case KindNone:
		return "none"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.ref.str)
	case KindSymbol:
		return "'" + v.ref.str
	case KindList:
		var sb strings.Builder
		sb.WriteByte('(')
		for i, item := range v.AsList() {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(Print(item))
		}
		sb.WriteByte(')')
		return sb.String()
	case KindStruct:
		var sb strings.Builder
		sb.WriteString("(struct")
		for k, val := range v.ref.strct {
			sb.WriteByte(' ')
			sb.WriteByte('\'')
			sb.WriteString(k.str)
			sb.WriteByte(' ')
			sb.WriteString(Print(val))
		}
		sb.WriteByte(')')
		return sb.String()
	case KindBytecode:
		return fmt.Sprintf("<function %s>", v.ref.code.Name)
	case KindNativeFn:
		return fmt.Sprintf("<function native%p>", v.nat)
	default:
		return "<unknown>"
	}
}
