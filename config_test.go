package fizz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	c := NewConfig()
	assert.Equal(t, 256, c.GetInt("gc.call_threshold"))
	assert.Equal(t, 64*1024*1024, c.GetInt("import.max_file_bytes"))
	assert.Equal(t, GCPer256Calls, c.GCPolicy())
}

func TestConfig_GCPolicyManual(t *testing.T) {
	c := NewConfig()
	c.SetString("gc.policy", "manual")
	assert.Equal(t, GCManual, c.GCPolicy())
}

func TestConfig_WrongTypeGetterPanics(t *testing.T) {
	c := NewConfig()
	assert.Panics(t, func() { c.GetString("gc.call_threshold") })
}

func TestConfig_MissingKeyPanics(t *testing.T) {
	c := NewConfig()
	assert.Panics(t, func() { c.GetInt("no.such.key") })
}
