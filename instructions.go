package fizz

// Instruction is one bytecode operation. Instructions are kept as a
// typed Go interface rather than byte-packed, the way the rest of
// this bytecode VM's ancestry distinguishes "contiguous instruction
// buffer" (a requirement on layout, not on encoding) from a specific
// wire format: each opcode is its own struct exposing the mnemonic
// used in disassembly and error messages.
type Instruction interface {
	Name() string
}

// PushConst pushes a constant Value onto the data stack.
type PushConst struct{ Value Value }

func (PushConst) Name() string { return "push_const" }

// DerefGlobal pushes the global module's binding for Symbol, or fails
// with SymbolNotFound.
type DerefGlobal struct{ Symbol string }

func (DerefGlobal) Name() string { return "deref_global" }

// DerefLocal pushes a module-local (or, if Qualified contains a `/`,
// an aliased) binding, resolved against the current frame's owning
// module at run time.
type DerefLocal struct{ Qualified string }

func (DerefLocal) Name() string { return "deref_local" }

// GetArg pushes stack[frame_base + Index].
type GetArg struct{ Index int }

func (GetArg) Name() string { return "get_arg" }

// Eval pops N stack slots (the callee at depth N, its N-1 arguments
// above it) and calls the callee. N == 0 means "consume everything
// above the current frame's base" — the apply/variadic-expansion form.
type Eval struct{ N int }

func (Eval) Name() string { return "eval" }

// Jump unconditionally advances the instruction cursor by Delta
// instructions.
type Jump struct{ Delta int }

func (Jump) Name() string { return "jump" }

// JumpIf pops a boolean; if true, advances the cursor by Delta.
type JumpIf struct{ Delta int }

func (JumpIf) Name() string { return "jump_if" }

// ImportModule resolves Path against the owning module's directory,
// loads (or reuses) the target module, and installs its default alias
// into the current module.
type ImportModule struct{ Path string }

func (ImportModule) Name() string { return "import_module" }

// Ret returns from the current frame.
type Ret struct{}

func (Ret) Name() string { return "ret" }
