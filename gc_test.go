package fizz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect_UnreachableListIsFreed(t *testing.T) {
	mm := newMemoryManager()
	mm.AllocList([]Value{Int(1), Int(2)})
	assert.Equal(t, 1, len(mm.lists))

	mm.Collect(nil, nil, NewModule(globalModuleName, "."), nil)
	assert.Equal(t, 0, len(mm.lists))
	assert.Equal(t, 1, mm.freed)
}

func TestCollect_StackRootedListSurvives(t *testing.T) {
	mm := newMemoryManager()
	list := mm.AllocList([]Value{Int(1), Int(2)})

	mm.Collect([]Value{list}, nil, NewModule(globalModuleName, "."), nil)
	assert.Equal(t, 1, len(mm.lists))
}

func TestCollect_ModuleRootedValueSurvives(t *testing.T) {
	mm := newMemoryManager()
	s := mm.InternString("kept")
	global := NewModule(globalModuleName, ".")
	global.SetValue("x", s)

	mm.Collect(nil, nil, global, nil)
	_, ok := mm.interned["kept"]
	assert.True(t, ok)
}

func TestCollect_NestedListKeepsChildAlive(t *testing.T) {
	mm := newMemoryManager()
	inner := mm.AllocList([]Value{Int(1)})
	outer := mm.AllocList([]Value{inner})

	mm.Collect([]Value{outer}, nil, NewModule(globalModuleName, "."), nil)
	assert.Equal(t, 2, len(mm.lists), "both inner and outer lists stay reachable")
}

func TestCollect_RepeatedCyclesStayEmpty(t *testing.T) {
	mm := newMemoryManager()
	mm.AllocStruct()
	root := NewModule(globalModuleName, ".")

	mm.Collect(nil, nil, root, nil)
	assert.Equal(t, 0, len(mm.structs))
	mm.Collect(nil, nil, root, nil)
	assert.Equal(t, 0, len(mm.structs))
}

func TestPinKeepsObjectAliveAcrossCollect(t *testing.T) {
	mm := newMemoryManager()
	s := mm.AllocStruct()
	mm.Pin(s)

	mm.Collect(nil, nil, NewModule(globalModuleName, "."), nil)
	assert.Equal(t, 1, len(mm.structs))

	mm.Unpin(s)
	mm.Collect(nil, nil, NewModule(globalModuleName, "."), nil)
	assert.Equal(t, 0, len(mm.structs))
}

func TestCollect_BytecodeConstantsStayReachable(t *testing.T) {
	mm := newMemoryManager()
	mod := NewModule(globalModuleName, ".")
	inner := mm.InternString("payload")
	bc := mm.AllocBytecode("f", 0, mod)
	bc.AsBytecode().Instructions = []Instruction{PushConst{Value: inner}, Ret{}}

	frames := []frame{{bc: bc.AsBytecode(), base: 0, boundary: true}}
	mm.Collect(nil, frames, mod, nil)

	_, ok := mm.interned["payload"]
	require.True(t, ok, "a string referenced only from a live frame's bytecode must survive")
}
