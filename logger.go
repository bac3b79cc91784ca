//go:build !tinygo

package main

import (
	"fmt"
	"io"
	"log"
	"os"
)

// newLogger logs to stderr and, if filename is set, appends to that file as
// well. The returned closer releases the file.
func newLogger(filename string) (*log.Logger, io.Closer, error) {
	flags := log.LstdFlags | log.Lmicroseconds
	if filename == "" {
		return log.New(os.Stderr, "", flags), nopCloser{}, nil
	}
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return log.New(io.MultiWriter(os.Stderr, f), "", flags), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
