package main

import (
	"strings"
	"unicode/utf8"
)

// decodeChunk turns one raw write into text. Clients terminate every write
// with one filler character that is not part of the payload, so the last
// rune is dropped.
func decodeChunk(raw []byte) string {
	s := strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	if s == "" {
		return ""
	}
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}

// reassembler joins chunks until one of them contains the closing ']' of a
// JSON array. A payload whose ']' only ever arrives as the dropped filler
// never completes.
type reassembler struct {
	fragments []string
}

// feed adds one raw chunk. It returns the joined message and true when the
// chunk closes the array.
func (r *reassembler) feed(raw []byte) (string, bool) {
	chunk := decodeChunk(raw)
	r.fragments = append(r.fragments, chunk)
	if !strings.Contains(chunk, "]") {
		return "", false
	}
	msg := strings.Join(r.fragments, "")
	r.reset()
	return msg, true
}

func (r *reassembler) reset() {
	r.fragments = r.fragments[:0]
}

func (r *reassembler) pending() int {
	return len(r.fragments)
}
