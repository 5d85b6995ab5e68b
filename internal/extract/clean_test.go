package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanValue(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"192[.]168[.]1[.]1", "192.168.1.1"},
		{"[b.com]", "b.com"},
		{"  evil[.]example \t", "evil.example"},
		{"[ spaced ]", "spaced"},
		{"]]][[[", ""},
		{"   ", ""},
		{"plain.example", "plain.example"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanValue(tt.input))
		})
	}
}

func TestClean_PreservesOrderAndLength(t *testing.T) {
	in := []string{"[a]", "", " b ", "c[.]d"}

	out := Clean(in)

	assert.Equal(t, []string{"a", "", "b", "c.d"}, out)
	assert.Equal(t, []string{"[a]", "", " b ", "c[.]d"}, in, "Input must not be modified")
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{"[x]", " [ y ] ", "a[b]c", "\n[.]\n", "hxxp://z[.]example/[path]"}

	for _, in := range inputs {
		once := CleanValue(in)
		assert.Equal(t, once, CleanValue(once))
		assert.False(t, strings.ContainsAny(once, "[]"))
		assert.Equal(t, strings.TrimSpace(once), once)
	}
}

func TestClean_Empty(t *testing.T) {
	assert.Empty(t, Clean(nil))
}
