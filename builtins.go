package fizz

// installBuiltins registers the fixed set of native functions into a
// freshly constructed VM's global module. This set is closed: there is
// no host-facing API to add to it beyond RegisterNative, which a host
// embedding the VM may use for its own additions.
func installBuiltins(vm *VM) {
	reg := func(name string, fn NativeFn) { vm.RegisterNative(name, fn) }

	reg("%define%", builtinDefine)
	reg("*modules*", builtinModules)
	reg("do", builtinDo)
	reg("apply", builtinApply)
	reg("->str", builtinToStr)
	reg("=", builtinEq)

	reg("str-len", builtinStrLen)
	reg("str-concat", builtinStrConcat)
	reg("str-substr", builtinStrSubstr)

	reg("struct", builtinStruct)
	reg("struct-set!", builtinStructSet)
	reg("struct-get", builtinStructGet)

	reg("list", builtinList)
	reg("list?", builtinListP)
	reg("len", builtinLen)
	reg("first", builtinFirst)
	reg("rest", builtinRest)
	reg("nth", builtinNth)
	reg("map", builtinMap)
	reg("filter", builtinFilter)

	reg("+", builtinAdd)
	reg("-", builtinSub)
	reg("*", builtinMul)
	reg("/", builtinDiv)
	reg("<", builtinLt)
	reg("<=", builtinLe)
	reg(">", builtinGt)
	reg(">=", builtinGe)
}

// builtinDefine implements `%define%`: it is never called directly by
// source text (only the compiler emits it, for a top-level `define`),
// and binds into whichever module owns the frame that issued the call.
func builtinDefine(vm *VM, args []Value) (Value, error) {
	if len(args) != 2 {
		return None, newErr(ArityError, "%%define%% expects 2 arguments, got %d", len(args))
	}
	if args[0].Kind() != KindSymbol {
		return None, newErr(TypeError, "%%define%% target must be a symbol, got %s", args[0].Kind())
	}
	vm.currentModule().SetValue(args[0].AsString(), args[1])
	return args[1], nil
}

func builtinModules(vm *VM, args []Value) (Value, error) {
	if len(args) != 0 {
		return None, newErr(ArityError, "*modules* takes no arguments, got %d", len(args))
	}
	return vm.Memory().AllocList(vm.ModuleNames()), nil
}

// builtinDo returns its last argument; arguments are already evaluated
// left-to-right by the calling convention, so `do`'s only job is to
// discard every intermediate result.
func builtinDo(_ *VM, args []Value) (Value, error) {
	if len(args) == 0 {
		return None, nil
	}
	return args[len(args)-1], nil
}

// builtinApply invokes f with the elements of l spread as its
// arguments, through the re-entrant evaluator so a bytecode f can
// itself call back into native code without disturbing the caller's
// in-flight stack. f and l are pinned for the duration: when apply is
// reached through an `Eval` instruction, vm.call leaves both on the
// data stack until apply returns, but when a host calls apply through
// Eval/evalNoReset directly they are on no stack, and the pin is what
// roots them.
func builtinApply(vm *VM, args []Value) (Value, error) {
	if len(args) != 2 {
		return None, newErr(ArityError, "apply expects 2 arguments, got %d", len(args))
	}
	if args[1].Kind() != KindList {
		return None, newErr(TypeError, "apply's second argument must be a list, got %s", args[1].Kind())
	}
	mm := vm.Memory()
	mm.Pin(args[0])
	mm.Pin(args[1])
	defer mm.Unpin(args[0])
	defer mm.Unpin(args[1])
	return vm.evalNoReset(args[0], args[1].AsList())
}

func builtinToStr(vm *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return None, newErr(ArityError, "->str expects 1 argument, got %d", len(args))
	}
	return vm.Memory().InternString(Print(args[0])), nil
}

func builtinEq(_ *VM, args []Value) (Value, error) {
	if len(args) < 2 {
		return None, newErr(ArityError, "= expects at least 2 arguments, got %d", len(args))
	}
	for i := 1; i < len(args); i++ {
		eq, err := Equal(args[0], args[i])
		if err != nil {
			return None, err
		}
		if !eq {
			return False, nil
		}
	}
	return True, nil
}

func builtinStrLen(_ *VM, args []Value) (Value, error) {
	if len(args) != 1 || args[0].Kind() != KindString {
		return None, newErr(TypeError, "str-len expects 1 string argument")
	}
	return Int(int64(len(args[0].AsString()))), nil
}

func builtinStrConcat(vm *VM, args []Value) (Value, error) {
	var sb []byte
	for _, a := range args {
		if a.Kind() != KindString {
			return None, newErr(TypeError, "str-concat expects string arguments, got %s", a.Kind())
		}
		sb = append(sb, a.AsString()...)
	}
	return vm.Memory().InternString(string(sb)), nil
}

func builtinStrSubstr(vm *VM, args []Value) (Value, error) {
	if len(args) != 3 || args[0].Kind() != KindString || args[1].Kind() != KindInt || args[2].Kind() != KindInt {
		return None, newErr(TypeError, "str-substr expects (string, int, int)")
	}
	s := args[0].AsString()
	start, end := args[1].AsInt(), args[2].AsInt()
	if start < 0 || end < start || end > int64(len(s)) {
		return None, newErr(RuntimeError, "str-substr bounds [%d, %d) out of range for length %d", start, end, len(s))
	}
	return vm.Memory().InternString(s[start:end]), nil
}

func builtinStruct(vm *VM, args []Value) (Value, error) {
	if len(args)%2 != 0 {
		return None, newErr(ArityError, "struct expects an even number of symbol/value arguments, got %d", len(args))
	}
	s := vm.Memory().AllocStruct()
	for i := 0; i < len(args); i += 2 {
		if args[i].Kind() != KindSymbol {
			return None, newErr(TypeError, "struct field name must be a symbol, got %s", args[i].Kind())
		}
		s.structSet(args[i], args[i+1])
	}
	return s, nil
}

func builtinStructSet(_ *VM, args []Value) (Value, error) {
	if len(args) != 3 || args[0].Kind() != KindStruct || args[1].Kind() != KindSymbol {
		return None, newErr(TypeError, "struct-set! expects (struct, symbol, value)")
	}
	args[0].structSet(args[1], args[2])
	return args[2], nil
}

func builtinStructGet(_ *VM, args []Value) (Value, error) {
	if len(args) != 2 || args[0].Kind() != KindStruct || args[1].Kind() != KindSymbol {
		return None, newErr(TypeError, "struct-get expects (struct, symbol)")
	}
	v, ok := args[0].structGet(args[1])
	if !ok {
		return None, newErr(RuntimeError, "struct has no field %q", args[1].AsString())
	}
	return v, nil
}

func builtinList(vm *VM, args []Value) (Value, error) {
	return vm.Memory().AllocList(args), nil
}

func builtinListP(_ *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return None, newErr(ArityError, "list? expects 1 argument, got %d", len(args))
	}
	return Bool(args[0].Kind() == KindList), nil
}

func builtinLen(_ *VM, args []Value) (Value, error) {
	if len(args) != 1 || args[0].Kind() != KindList {
		return None, newErr(TypeError, "len expects 1 list argument")
	}
	return Int(int64(args[0].ListLen())), nil
}

func builtinFirst(_ *VM, args []Value) (Value, error) {
	if len(args) != 1 || args[0].Kind() != KindList {
		return None, newErr(TypeError, "first expects 1 list argument")
	}
	l := args[0].AsList()
	if len(l) == 0 {
		return None, newErr(RuntimeError, "first of empty list")
	}
	return l[0], nil
}

func builtinRest(vm *VM, args []Value) (Value, error) {
	if len(args) != 1 || args[0].Kind() != KindList {
		return None, newErr(TypeError, "rest expects 1 list argument")
	}
	l := args[0].AsList()
	if len(l) == 0 {
		return None, newErr(RuntimeError, "rest of empty list")
	}
	return vm.Memory().AllocList(l[1:]), nil
}

func builtinNth(_ *VM, args []Value) (Value, error) {
	if len(args) != 2 || args[0].Kind() != KindList || args[1].Kind() != KindInt {
		return None, newErr(TypeError, "nth expects (list, int)")
	}
	l := args[0].AsList()
	i := args[1].AsInt()
	if i < 0 || i >= int64(len(l)) {
		return None, newErr(RuntimeError, "nth index %d out of range for length %d", i, len(l))
	}
	return l[i], nil
}

// builtinMap and builtinFilter hold a Go-level reference to the source
// list (and, for map, to each produced value) across a loop of
// re-entrant evalNoReset calls. The values map produces are on no
// stack until they are placed in the output list, and f and l are on
// the data stack only when the call came through an `Eval` instruction
// (vm.call leaves them there until the native returns), not when a
// host calls the native directly; a GC cycle triggered from inside one
// of those nested calls would otherwise be free to collect them.
// Pinning keeps them alive for the duration.
func builtinMap(vm *VM, args []Value) (Value, error) {
	if len(args) != 2 || args[1].Kind() != KindList {
		return None, newErr(TypeError, "map expects (function, list)")
	}
	mm := vm.Memory()
	mm.Pin(args[0])
	mm.Pin(args[1])
	defer mm.Unpin(args[0])
	defer mm.Unpin(args[1])

	l := args[1].AsList()
	out := make([]Value, len(l))
	for i, item := range l {
		r, err := vm.evalNoReset(args[0], []Value{item})
		if err != nil {
			for _, v := range out[:i] {
				mm.Unpin(v)
			}
			return None, err
		}
		mm.Pin(r)
		out[i] = r
	}
	result := mm.AllocList(out)
	for _, v := range out {
		mm.Unpin(v)
	}
	return result, nil
}

func builtinFilter(vm *VM, args []Value) (Value, error) {
	if len(args) != 2 || args[1].Kind() != KindList {
		return None, newErr(TypeError, "filter expects (predicate, list)")
	}
	mm := vm.Memory()
	mm.Pin(args[0])
	mm.Pin(args[1])
	defer mm.Unpin(args[0])
	defer mm.Unpin(args[1])

	l := args[1].AsList()
	var out []Value
	for _, item := range l {
		r, err := vm.evalNoReset(args[0], []Value{item})
		if err != nil {
			return None, err
		}
		if r.Truthy() {
			out = append(out, item)
		}
	}
	return mm.AllocList(out), nil
}

func builtinAdd(_ *VM, args []Value) (Value, error) {
	if len(args) == 0 {
		return Int(0), nil
	}
	return foldNumeric(args, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
}

func builtinMul(_ *VM, args []Value) (Value, error) {
	if len(args) == 0 {
		return Int(1), nil
	}
	return foldNumeric(args, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
}

func builtinSub(_ *VM, args []Value) (Value, error) {
	if len(args) == 0 {
		return None, newErr(ArityError, "- requires at least 1 argument")
	}
	if len(args) == 1 {
		return negate(args[0])
	}
	return foldNumeric(args, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
}

func builtinDiv(_ *VM, args []Value) (Value, error) {
	if len(args) == 0 {
		return None, newErr(ArityError, "/ requires at least 1 argument")
	}
	if len(args) == 1 {
		return divide(Float(1), args[0])
	}
	acc := args[0]
	for _, v := range args[1:] {
		var err error
		acc, err = divide(acc, v)
		if err != nil {
			return None, err
		}
	}
	return acc, nil
}

func builtinLt(_ *VM, args []Value) (Value, error)  { return chainCompare(args, func(c int) bool { return c < 0 }) }
func builtinLe(_ *VM, args []Value) (Value, error)  { return chainCompare(args, func(c int) bool { return c <= 0 }) }
func builtinGt(_ *VM, args []Value) (Value, error)  { return chainCompare(args, func(c int) bool { return c > 0 }) }
func builtinGe(_ *VM, args []Value) (Value, error)  { return chainCompare(args, func(c int) bool { return c >= 0 }) }
