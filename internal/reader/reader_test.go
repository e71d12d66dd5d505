package reader

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	r := New(strings.NewReader("first\nsecond\nthird\n"))

	line, number, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "first", line)
	assert.Equal(t, 1, number)

	line, number, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "second", line)
	assert.Equal(t, 2, number)

	line, number, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "third", line)
	assert.Equal(t, 3, number)

	_, _, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestNextNoTrailingNewline(t *testing.T) {
	r := New(strings.NewReader("only line"))
	line, _, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "only line", line)
	_, _, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestNextEmptyInput(t *testing.T) {
	r := New(strings.NewReader(""))
	_, number, err := r.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, number)
}

func TestNextKeepsEmptyLines(t *testing.T) {
	r := New(strings.NewReader("a\n\nb\n"))
	line, _, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", line)
	line, number, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "", line)
	assert.Equal(t, 2, number)
}
