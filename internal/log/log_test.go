package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelError)
	t.Cleanup(func() { SetLevel(LevelInfo) })

	Info("hidden", "k", "v")
	assert.Empty(t, buf.String())

	Error("visible", errors.New("boom"), "community", "guild-1")
	out := buf.String()
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "err=boom")
	assert.Contains(t, out, "community=guild-1")
}

func TestOddKeyValuesAreDropped(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelDebug)
	t.Cleanup(func() { SetLevel(LevelInfo) })

	Debug("pairs", "a", 1, 42, "skipped", "dangling")
	out := buf.String()
	assert.Contains(t, out, "a=1")
	assert.NotContains(t, out, "dangling")
	assert.NotContains(t, out, "skipped")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}
