package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_EvaluatesFibonacciExample(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"../../examples/fibonacci.fizz"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "55\n", out.String())
}

func TestRun_GCPolicyFlagIsAccepted(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-gc-policy", "manual", "../../examples/structs.fizz"}, &out)
	require.NoError(t, err)
	assert.NotEmpty(t, out.String())
}

func TestRun_MissingScriptArgumentIsAnError(t *testing.T) {
	var out bytes.Buffer
	err := run(nil, &out)
	require.Error(t, err)
}

func TestRun_UnreadableScriptPathIsAnError(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"/no/such/script.fizz"}, &out)
	require.Error(t, err)
}
