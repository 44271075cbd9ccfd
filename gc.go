package fizz

// GCPolicy selects when a VM triggers garbage collection.
type GCPolicy int

const (
	// GCManual means the host must call VM.CollectGarbage explicitly.
	GCManual GCPolicy = iota
	// GCPer256Calls triggers a collection every time the VM's step
	// counter (one count per dispatched instruction) reaches a multiple
	// of the gc.call_threshold setting, 256 by default.
	GCPer256Calls
)

// MemoryManager owns every heap-allocated Value: interned
// strings/symbols, lists, structs, and bytecode objects. It implements
// stop-the-world mark-and-sweep: reachableColor alternates between
// true and false across cycles, a fresh allocation is tagged with the
// opposite color, and sweep (run before the flip) frees everything
// that still carries that opposite color — i.e. everything the mark
// phase did not reach from a root this cycle, new or old alike.
type MemoryManager struct {
	reachableColor bool

	interned map[string]*object

	lists   map[*object]struct{}
	structs map[*object]struct{}
	code    map[*object]struct{}

	// keepAlive pins objects a native function has not yet placed on
	// the data stack but must survive a GC triggered by a re-entrant
	// call. One of the two strategies named in the design notes for
	// GC-safe native code; callers release the pin when done.
	keepAlive map[*object]int

	allocated int
	freed     int
}

func newMemoryManager() *MemoryManager {
	return &MemoryManager{
		reachableColor: true,
		interned:       make(map[string]*object),
		lists:          make(map[*object]struct{}),
		structs:        make(map[*object]struct{}),
		code:           make(map[*object]struct{}),
		keepAlive:      make(map[*object]int),
	}
}

func (m *MemoryManager) newColor() bool { return !m.reachableColor }

// InternString returns a Value wrapping the interned object for s,
// allocating one if this is the first time s has been seen.
func (m *MemoryManager) InternString(s string) Value {
	return Value{kind: KindString, ref: m.intern(s)}
}

// InternSymbol returns a Value wrapping the interned object for name;
// symbols and strings share the same content pool, so `(= 'foo "foo")`
// is a TypeError (different Kind), not a content comparison, while two
// occurrences of `'foo` always share a handle.
func (m *MemoryManager) InternSymbol(name string) Value {
	return Value{kind: KindSymbol, ref: m.intern(name)}
}

func (m *MemoryManager) intern(s string) *object {
	if o, ok := m.interned[s]; ok {
		return o
	}
	o := &object{str: s, color: m.newColor()}
	m.interned[s] = o
	m.allocated++
	return o
}

// AllocList copies items into a freshly allocated list object.
func (m *MemoryManager) AllocList(items []Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	o := &object{kind: KindList, list: cp, color: m.newColor()}
	m.lists[o] = struct{}{}
	m.allocated++
	return Value{kind: KindList, ref: o}
}

// AllocListOfLen allocates an uninitialized (none-filled) list of
// length n, for callers that fill it in after allocation.
func (m *MemoryManager) AllocListOfLen(n int) Value {
	items := make([]Value, n)
	o := &object{kind: KindList, list: items, color: m.newColor()}
	m.lists[o] = struct{}{}
	m.allocated++
	return Value{kind: KindList, ref: o}
}

// AllocStruct allocates an empty struct.
func (m *MemoryManager) AllocStruct() Value {
	o := &object{kind: KindStruct, strct: make(map[*object]Value), color: m.newColor()}
	m.structs[o] = struct{}{}
	m.allocated++
	return Value{kind: KindStruct, ref: o}
}

// AllocBytecode allocates an empty bytecode object bound to mod.
func (m *MemoryManager) AllocBytecode(name string, argCount int, mod *Module) Value {
	bc := &Bytecode{Name: name, ArgCount: argCount, Module: mod}
	o := &object{kind: KindBytecode, code: bc, color: m.newColor()}
	bc.self = o
	m.code[o] = struct{}{}
	m.allocated++
	return bytecodeValue(o)
}

func (m *MemoryManager) Pin(v Value) {
	if v.ref == nil {
		return
	}
	m.keepAlive[v.ref]++
}

func (m *MemoryManager) Unpin(v Value) {
	if v.ref == nil {
		return
	}
	if n := m.keepAlive[v.ref]; n <= 1 {
		delete(m.keepAlive, v.ref)
	} else {
		m.keepAlive[v.ref] = n - 1
	}
}

// Collect runs one full mark-and-sweep cycle rooted at the given data
// stack, frame stack, global module, and module registry.
func (m *MemoryManager) Collect(stack []Value, frames []frame, global *Module, modules map[string]*Module) {
	for _, v := range stack {
		m.mark(v)
	}
	for _, f := range frames {
		if f.bc != nil {
			m.markObject(f.bc.self)
		}
	}
	m.markModule(global)
	for _, mod := range modules {
		m.markModule(mod)
	}
	for o := range m.keepAlive {
		m.markObject(o)
	}
	m.sweep()
	m.reachableColor = !m.reachableColor
}

func (m *MemoryManager) markModule(mod *Module) {
	if mod == nil {
		return
	}
	for _, v := range mod.values {
		m.mark(v)
	}
}

func (m *MemoryManager) mark(v Value) {
	switch v.kind {
	case KindString, KindSymbol, KindList, KindStruct, KindBytecode:
		m.markObject(v.ref)
	}
}

func (m *MemoryManager) markObject(o *object) {
	if o == nil || o.color == m.reachableColor {
		return
	}
	o.color = m.reachableColor
	switch o.kind {
	case KindList:
		for _, item := range o.list {
			m.mark(item)
		}
	case KindStruct:
		for k, val := range o.strct {
			m.markObject(k)
			m.mark(val)
		}
	case KindBytecode:
		for _, ins := range o.code.Instructions {
			if pc, ok := ins.(PushConst); ok {
				m.mark(pc.Value)
			}
		}
	}
}

func (m *MemoryManager) sweep() {
	for s, o := range m.interned {
		if o.color != m.reachableColor {
			delete(m.interned, s)
			m.freed++
		}
	}
	sweepSet(m.lists, m.reachableColor, &m.freed)
	sweepSet(m.structs, m.reachableColor, &m.freed)
	sweepSet(m.code, m.reachableColor, &m.freed)
}

func sweepSet(set map[*object]struct{}, reachable bool, freed *int) {
	for o := range set {
		if o.color != reachable {
			delete(set, o)
			*freed++
		}
	}
}
