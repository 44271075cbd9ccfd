package fizz

import (
	"fmt"
	"os"
	"path/filepath"
)

// Bytecode is a compiled function: a display name (possibly empty), a
// fixed argument count, an instruction buffer, and a non-owning
// reference to the module it was compiled under. Identity is
// pointer-equality on the owning *object (self).
type Bytecode struct {
	Name         string
	ArgCount     int
	Instructions []Instruction
	Module       *Module

	self *object
}

// frame describes an in-progress invocation: the executing bytecode,
// an instruction cursor, the stack index where the frame's local
// region begins, and whether returning from it crosses the host
// boundary.
type frame struct {
	bc       *Bytecode
	pc       int
	base     int
	boundary bool
}

// VM executes bytecode against a preallocated data stack and frame
// stack. A VM is not safe for concurrent use; all operations on it,
// its modules, and its memory manager must be serialized by the host.
type VM struct {
	mm      *MemoryManager
	cfg     *Config
	global  *Module
	modules map[string]*Module

	stack  []Value
	frames []frame

	callCount int
	diag      *Diagnostics
}

const globalModuleName = "*global*"

// NewVM creates a VM primed with the fixed set of built-ins registered
// into its global module.
func NewVM(cfg *Config) *VM {
	if cfg == nil {
		cfg = NewConfig()
	}
	wd, _ := os.Getwd()
	global := NewModule(globalModuleName, wd)
	vm := &VM{
		mm:      newMemoryManager(),
		cfg:     cfg,
		global:  global,
		modules: map[string]*Module{globalModuleName: global},
		stack:   make([]Value, 0, cfg.GetInt("vm.stack_size")),
		frames:  make([]frame, 0, cfg.GetInt("vm.frame_size")),
		diag:    newDiagnostics(),
	}
	installBuiltins(vm)
	return vm
}

// Memory exposes the VM's memory manager, e.g. for native functions
// that need to intern strings/symbols or allocate lists and structs.
func (vm *VM) Memory() *MemoryManager { return vm.mm }

// Global returns the VM's distinguished global module.
func (vm *VM) Global() *Module { return vm.global }

// Diagnostics returns the VM's append-only diagnostics sink.
func (vm *VM) Diagnostics() *Diagnostics { return vm.diag }

// RegisterNative installs a host-provided native function under name
// in the global module.
func (vm *VM) RegisterNative(name string, fn NativeFn) {
	vm.global.SetValue(name, nativeFnValue(name, fn))
}

// ModuleNames returns the names of every registered module, global first.
func (vm *VM) ModuleNames() []Value {
	names := make([]Value, 0, len(vm.modules))
	names = append(names, vm.mm.InternString(globalModuleName))
	for name := range vm.modules {
		if name == globalModuleName {
			continue
		}
		names = append(names, vm.mm.InternString(name))
	}
	return names
}

// Eval resets the stack and frame buffers and evaluates fn with args.
// This is the public entry point; native functions that need to call
// back into the VM use evalNoReset instead, so that a re-entrant call
// does not clobber the caller's in-flight stack.
func (vm *VM) Eval(fn Value, args []Value) (Value, error) {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	return vm.evalNoReset(fn, args)
}

// evalNoReset is the re-entrant evaluation primitive used by native
// functions (map, filter, apply, and any host-registered callback).
func (vm *VM) evalNoReset(fn Value, args []Value) (Value, error) {
	switch fn.Kind() {
	case KindNativeFn:
		return fn.nat.fn(vm, args)
	case KindBytecode:
		bc := fn.AsBytecode()
		if bc.ArgCount != len(args) {
			return None, newErr(ArityError, "%s expects %d argument(s), got %d", displayName(bc), bc.ArgCount, len(args))
		}
		base := len(vm.stack)
		vm.stack = append(vm.stack, args...)
		vm.frames = append(vm.frames, frame{bc: bc, base: base, boundary: true})
		return vm.run()
	default:
		return None, newErr(TypeError, "value of kind %s is not callable", fn.Kind())
	}
}

func displayName(bc *Bytecode) string {
	if bc.Name == "" {
		return "<anonymous function>"
	}
	return bc.Name
}

// run dispatches instructions, one per step, until the boundary frame
// pushed by evalNoReset returns.
func (vm *VM) run() (Value, error) {
	for {
		fi := len(vm.frames) - 1
		f := &vm.frames[fi]
		if f.pc >= len(f.bc.Instructions) {
			return None, newErr(RuntimeError, "%s fell off the end of its bytecode without ret", displayName(f.bc))
		}
		ins := f.bc.Instructions[f.pc]

		switch in := ins.(type) {
		case PushConst:
			vm.stack = append(vm.stack, in.Value)
			f.pc++

		case GetArg:
			vm.stack = append(vm.stack, vm.stack[f.base+in.Index])
			f.pc++

		case DerefGlobal:
			v, ok := vm.global.GetValue(in.Symbol)
			if !ok {
				return None, newErr(SymbolNotFound, "global symbol %q not found", in.Symbol)
			}
			vm.stack = append(vm.stack, v)
			f.pc++

		case DerefLocal:
			v, err := vm.resolveLocal(f.bc.Module, in.Qualified)
			if err != nil {
				return None, err
			}
			vm.stack = append(vm.stack, v)
			f.pc++

		case Jump:
			f.pc++
			f.pc += in.Delta

		case JumpIf:
			top := vm.stack[len(vm.stack)-1]
			vm.stack = vm.stack[:len(vm.stack)-1]
			f.pc++
			if top.Kind() != KindBool {
				return None, newErr(TypeError, "jump_if requires a boolean, got %s", top.Kind())
			}
			if top.AsBool() {
				f.pc += in.Delta
			}

		case ImportModule:
			// Increment before the reentrant call, not after: importModule
			// runs a nested evalNoReset/run that can grow vm.frames and
			// invalidate f. Advancing first matches the Eval case below and
			// keeps the live frame's pc off a stale copy of f.
			f.pc++
			if err := vm.importModule(f.bc.Module, in.Path); err != nil {
				return None, err
			}

		case Eval:
			f.pc++
			result, pushedFrame, err := vm.call(f.base, in.N)
			if err != nil {
				return None, err
			}
			if !pushedFrame {
				vm.stack = append(vm.stack, result)
			}

		case Ret:
			res, boundary, err := vm.doReturn()
			if err != nil {
				return None, err
			}
			if boundary {
				return res, nil
			}

		default:
			return None, newErr(RuntimeError, "unknown instruction %T", ins)
		}

		if err := vm.afterStep(); err != nil {
			return None, err
		}
	}
}

// call implements `Eval n`. frameBase is the *caller* frame's base,
// used only to normalize n == 0. It returns (result, true, nil) when
// a new bytecode frame was pushed (the caller should not push a
// result; the dispatch loop continues inside the callee), or
// (result, false, nil) when a native function ran synchronously.
func (vm *VM) call(frameBase, n int) (Value, bool, error) {
	normN := n
	if normN == 0 {
		normN = len(vm.stack) - frameBase
	}
	if normN < 1 {
		return None, false, newErr(RuntimeError, "eval with no callee on the stack")
	}
	calleeIdx := len(vm.stack) - normN
	callee := vm.stack[calleeIdx]
	argc := normN - 1

	switch callee.Kind() {
	case KindBytecode:
		bc := callee.AsBytecode()
		if bc.ArgCount != argc {
			return None, false, newErr(ArityError, "%s expects %d argument(s), got %d", displayName(bc), bc.ArgCount, argc)
		}
		vm.frames = append(vm.frames, frame{bc: bc, base: calleeIdx + 1, boundary: false})
		return None, true, nil

	case KindNativeFn:
		args := append([]Value(nil), vm.stack[calleeIdx+1:]...)
		result, err := callee.nat.fn(vm, args)
		if err != nil {
			return None, false, err
		}
		vm.stack = vm.stack[:calleeIdx]
		return result, false, nil

	default:
		return None, false, newErr(TypeError, "value of kind %s is not callable", callee.Kind())
	}
}

// doReturn implements `Ret`. It pops the current frame; if it was a
// boundary frame, the caller of run() takes over. Otherwise it
// truncates the stack to the frame's base and overwrites the slot
// that held the callee (base-1) with the return value.
func (vm *VM) doReturn() (Value, bool, error) {
	fi := len(vm.frames) - 1
	f := vm.frames[fi]
	vm.frames = vm.frames[:fi]

	var result Value
	if len(vm.stack) > f.base {
		result = vm.stack[len(vm.stack)-1]
	}
	if f.boundary {
		vm.stack = vm.stack[:f.base]
		return result, true, nil
	}
	vm.stack = vm.stack[:f.base-1]
	vm.stack = append(vm.stack, result)
	return None, false, nil
}

// resolveLocal implements DerefLocal: with an alias, look up the
// alias in owner's alias table, then fetch from that module; without
// one, look up directly in owner.
func (vm *VM) resolveLocal(owner *Module, qualified string) (Value, error) {
	alias, symbol, ok := parseQualified(qualified)
	if !ok {
		v, found := owner.GetValue(qualified)
		if !found {
			return None, newErr(SymbolNotFound, "symbol %q not found in module %q", qualified, owner.Name())
		}
		return v, nil
	}
	target, found := owner.GetAlias(alias)
	if !found {
		return None, newErr(SymbolNotFound, "unknown module alias %q", alias)
	}
	v, found := target.GetValue(symbol)
	if !found {
		return None, newErr(SymbolNotFound, "symbol %q not found in module %q", symbol, target.Name())
	}
	return v, nil
}

// importModule implements ImportModule: resolve path relative to
// owner's directory, load (or reuse) the target module, and install
// its default alias into owner.
func (vm *VM) importModule(owner *Module, path string) error {
	fullPath := path
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(owner.Directory(), path)
	}
	fullPath = filepath.Clean(fullPath)
	alias := defaultAlias(fullPath)

	if existing, ok := vm.modules[fullPath]; ok {
		owner.SetAlias(alias, existing)
		return nil
	}

	maxBytes := int64(vm.cfg.GetInt("import.max_file_bytes"))
	info, err := os.Stat(fullPath)
	if err != nil {
		return newErr(FileError, "cannot import %q: %s", fullPath, err)
	}
	if info.Size() > maxBytes {
		return newErr(FileError, "cannot import %q: file exceeds %d byte cap", fullPath, maxBytes)
	}
	src, err := os.ReadFile(fullPath)
	if err != nil {
		return newErr(FileError, "cannot import %q: %s", fullPath, err)
	}

	mod := NewModule(fullPath, filepath.Dir(fullPath))
	vm.modules[fullPath] = mod

	bcVal, err := vm.compileModuleSource(src, mod)
	if err != nil {
		delete(vm.modules, fullPath)
		return err
	}
	if _, err := vm.evalNoReset(bcVal, nil); err != nil {
		delete(vm.modules, fullPath)
		return err
	}

	owner.SetAlias(alias, mod)
	return nil
}

// afterStep counts one function-call event and triggers GC under the
// configured policy. Every dispatched instruction counts once,
// matching the spec's per_256_calls description of counting VM steps
// against a 256-boundary.
func (vm *VM) afterStep() error {
	vm.callCount++
	if vm.cfg.GCPolicy() == GCPer256Calls {
		threshold := vm.cfg.GetInt("gc.call_threshold")
		if threshold <= 0 {
			threshold = 256
		}
		if vm.callCount%threshold == 0 {
			vm.CollectGarbage()
		}
	}
	return nil
}

// currentModule returns the module owning the innermost executing
// frame, or the global module if the VM is idle. Native functions that
// must act on "the module currently being compiled into" (%define%)
// call this at the moment they run: a native call never pushes a
// frame, so the top frame is still the one that issued the Eval.
func (vm *VM) currentModule() *Module {
	if len(vm.frames) == 0 {
		return vm.global
	}
	return vm.frames[len(vm.frames)-1].bc.Module
}

// CollectGarbage runs one mark-and-sweep cycle rooted at the data
// stack, the frame stack's bytecode objects, the global module, and
// every registered module.
func (vm *VM) CollectGarbage() {
	vm.mm.Collect(vm.stack, vm.frames, vm.global, vm.modules)
}

func (vm *VM) String() string {
	return fmt.Sprintf("VM{modules=%d, stack=%d, frames=%d}", len(vm.modules), len(vm.stack), len(vm.frames))
}
