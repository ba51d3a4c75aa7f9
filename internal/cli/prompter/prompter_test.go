package prompter

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(t *testing.T, input string) *bytes.Buffer {
	t.Helper()
	prevIn, prevOut := in, out
	t.Cleanup(func() { in, out = prevIn, prevOut })

	var buf bytes.Buffer
	in = bufio.NewReader(strings.NewReader(input))
	out = &buf
	return &buf
}

func TestPromptString(t *testing.T) {
	buf := feed(t, "  alice  \n")

	got, err := PromptString("Login: ")
	require.NoError(t, err)
	assert.Equal(t, "alice", got)
	assert.Equal(t, "Login: ", buf.String())
}

func TestPromptStringWithoutNewline(t *testing.T) {
	feed(t, "bob")

	got, err := PromptString("Login: ")
	require.NoError(t, err)
	assert.Equal(t, "bob", got)
}

func TestPromptConfirm(t *testing.T) {
	for input, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false} {
		feed(t, input)
		got, err := PromptConfirm("Delete?")
		require.NoError(t, err)
		assert.Equal(t, want, got, input)
	}
}

func TestPromptSelect(t *testing.T) {
	buf := feed(t, "2\n")

	idx, err := PromptSelect("Decision", []string{"approved", "rejected"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Contains(t, buf.String(), "2) rejected")

	feed(t, "7\n")
	_, err = PromptSelect("Decision", []string{"approved", "rejected"})
	assert.Error(t, err)
}
