// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package spectroapp

import (
	"bufio"
	"fmt"
	"io"

	"go.bug.st/serial"
)

// SerialLink adapts a serial port to the Link interface. A reader goroutine
// scans inbound bytes into whole lines and parks them on a buffered channel,
// which is what makes ReadLine non-blocking; unread lines simply accumulate
// there (and in the OS buffer behind it) until a later cycle drains them.
type SerialLink struct {
	port  io.ReadWriteCloser
	lines chan string
}

// OpenSerialLink opens the named serial port at the given baud rate (8N1)
// and wraps it in a SerialLink.
func OpenSerialLink(name string, baud int) (*SerialLink, error) {
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("spectroapp: opening %s: %w", name, err)
	}
	return NewSerialLink(port), nil
}

// NewSerialLink wraps an already opened port.
func NewSerialLink(port io.ReadWriteCloser) *SerialLink {
	l := &SerialLink{port: port, lines: make(chan string, 8)}
	go l.scan()
	return l
}

func (l *SerialLink) scan() {
	sc := bufio.NewScanner(l.port)
	for sc.Scan() {
		l.lines <- sc.Text()
	}
	close(l.lines)
}

func (l *SerialLink) Write(p []byte) (int, error) {
	return l.port.Write(p)
}

// ReadLine returns one buffered inbound line, if any, without blocking.
func (l *SerialLink) ReadLine() (string, bool) {
	select {
	case line, ok := <-l.lines:
		if !ok {
			return "", false
		}
		return line, true
	default:
		return "", false
	}
}

// Close closes the underlying port, which also stops the reader goroutine.
func (l *SerialLink) Close() error {
	return l.port.Close()
}

var _ Link = &SerialLink{}
