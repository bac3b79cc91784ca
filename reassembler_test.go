package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeChunk(t *testing.T) {
	assert.Equal(t, "get-alarms", decodeChunk([]byte("get-alarms ")))
	assert.Equal(t, "", decodeChunk([]byte("x")))
	assert.Equal(t, "", decodeChunk(nil))
	// The filler is one character, not one byte.
	assert.Equal(t, "ab", decodeChunk([]byte("abé")))
	assert.Equal(t, "é", decodeChunk([]byte("é ")))
}

func TestReassemblerJoinsUntilClosingBracket(t *testing.T) {
	parts := []string{`[{"time":"06:00",`, `"enabled":true},`, `{"time":"07:00","enabled":false}]`}

	var r reassembler
	for i, p := range parts {
		msg, ok := r.feed(chunk(p))
		if i < len(parts)-1 {
			assert.False(t, ok, "completed early at fragment %d", i)
			assert.Empty(t, msg)
			assert.Equal(t, i+1, r.pending())
			continue
		}
		assert.True(t, ok)
		assert.Equal(t, strings.Join(parts, ""), msg)
	}
	assert.Equal(t, 0, r.pending())
}

func TestReassemblerCompletesOncePerMessage(t *testing.T) {
	var r reassembler
	completed := 0
	for _, p := range []string{"[1,", "2]", "[3", "]"} {
		if _, ok := r.feed(chunk(p)); ok {
			completed++
		}
	}
	assert.Equal(t, 2, completed)
	assert.Equal(t, 0, r.pending())
}

func TestReassemblerBracketInFillerNeverCompletes(t *testing.T) {
	var r reassembler
	_, ok := r.feed([]byte("[1,2"))
	assert.False(t, ok)
	// "]" arrives as the last byte of the write and is dropped as filler.
	_, ok = r.feed([]byte("]"))
	assert.False(t, ok)
	assert.Equal(t, 2, r.pending())
}

func TestReassemblerReset(t *testing.T) {
	var r reassembler
	r.feed(chunk("[1,"))
	r.reset()
	msg, ok := r.feed(chunk("2]"))
	assert.True(t, ok)
	assert.Equal(t, "2]", msg)
}
