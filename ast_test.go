package fizz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Leaves(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind LeafKind
	}{
		{"keyword", "if", LeafKeyword},
		{"bool true", "true", LeafBool},
		{"bool false", "false", LeafBool},
		{"int", "42", LeafInt},
		{"negative int", "-7", LeafInt},
		{"float", "3.14", LeafFloat},
		{"identifier", "frobnicate", LeafIdentifier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forms, err := NewParser([]byte(tt.src)).Parse()
			require.NoError(t, err)
			require.Len(t, forms, 1)
			leaf, ok := forms[0].(*Leaf)
			require.True(t, ok)
			assert.Equal(t, tt.kind, leaf.Kind)
		})
	}
}

func TestParser_NestedForm(t *testing.T) {
	forms, err := NewParser([]byte("(if (< n 2) n (+ n 1))")).Parse()
	require.NoError(t, err)
	require.Len(t, forms, 1)
	tree, ok := forms[0].(*Tree)
	require.True(t, ok)
	assert.Len(t, tree.Children, 4)
}

func TestParser_UnclosedParenIsSyntaxError(t *testing.T) {
	_, err := NewParser([]byte("(+ 1 2")).Parse()
	require.Error(t, err)
	assert.Equal(t, SyntaxError, KindOf(err))
}

func TestParser_UnmatchedCloseParenIsSyntaxError(t *testing.T) {
	_, err := NewParser([]byte(")")).Parse()
	require.Error(t, err)
	assert.Equal(t, SyntaxError, KindOf(err))
}

func TestDumpNode(t *testing.T) {
	forms, err := NewParser([]byte("(+ 1 2)")).Parse()
	require.NoError(t, err)
	out := dumpNode(forms[0])
	assert.Contains(t, out, "+")
	assert.Contains(t, out, "1")
	assert.Contains(t, out, "2")
}
