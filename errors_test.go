package fizz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := newErr(TypeError, "boom")
	assert.True(t, errors.Is(err, &Error{Kind: TypeError}))
	assert.False(t, errors.Is(err, &Error{Kind: ArityError}))
}

func TestKindOf_NonFizzErrorDefaultsToRuntimeError(t *testing.T) {
	assert.Equal(t, RuntimeError, KindOf(errors.New("boom")))
}

func TestError_MessageIncludesSpanWhenSet(t *testing.T) {
	span := NewSpan(Location{Line: 1, Column: 2}, Location{Line: 1, Column: 3})
	err := newErrAt(SyntaxError, span, "bad token")
	assert.Contains(t, err.Error(), "1:2")
}
