package fizz

// EvalString tokenizes, parses, lowers, and compiles src as a module
// top-level program, then runs it once against the given VM, returning
// the value of the last top-level expression (a trailing define yields
// the value it binds; a trailing import yields none).
func EvalString(vm *VM, src string) (Value, error) {
	bc, err := vm.compileModuleSource([]byte(src), vm.Global())
	if err != nil {
		return None, err
	}
	return vm.Eval(bc, nil)
}

// compileModuleSource runs the full front end (tokenize, parse, lower
// to IR, compile to bytecode) against src, producing a zero-argument
// Bytecode value bound to mod. It is also the entry point importModule
// uses to compile an imported file before running it once to populate
// the module it defines into.
func (vm *VM) compileModuleSource(src []byte, mod *Module) (Value, error) {
	forms, err := NewParser(src).WithDiagnostics(vm.diag).Parse()
	if err != nil {
		return None, err
	}
	ret, err := BuildIR(forms, vm.diag)
	if err != nil {
		return None, err
	}
	return CompileModule(vm.Memory(), mod, ret)
}
