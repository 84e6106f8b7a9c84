// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package spectroapp

import (
	"io"
	"testing"
	"time"
)

type pipePort struct {
	io.Reader
	io.Writer
	closed chan struct{}
}

func (p *pipePort) Close() error {
	close(p.closed)
	return nil
}

func waitLine(t *testing.T, l *SerialLink) string {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if line, ok := l.ReadLine(); ok {
			return line
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for a line")
	return ""
}

func TestSerialLink(t *testing.T) {
	pr, pw := io.Pipe()
	port := &pipePort{Reader: pr, Writer: io.Discard, closed: make(chan struct{})}
	link := NewSerialLink(port)

	// Nothing buffered yet: ReadLine must return immediately.
	if line, ok := link.ReadLine(); ok {
		t.Fatalf("unexpected line %q", line)
	}

	go func() {
		_, _ = pw.Write([]byte("RES,one\nRES,two\n"))
		pw.Close()
	}()

	if got := waitLine(t, link); got != "RES,one" {
		t.Errorf("first line = %q, want RES,one", got)
	}
	if got := waitLine(t, link); got != "RES,two" {
		t.Errorf("second line = %q, want RES,two", got)
	}

	// After EOF the channel drains to the closed state.
	deadline := time.Now().Add(time.Second)
	for {
		if line, ok := link.ReadLine(); !ok {
			break
		} else if time.Now().After(deadline) {
			t.Fatalf("still producing lines: %q", line)
		}
	}
}
