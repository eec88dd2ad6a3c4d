// Package console provides the best-effort debug line sink.
package console

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// Sink accepts debug lines. WriteLine must not block; a sink that cannot
// take the line drops it.
type Sink interface {
	WriteLine(line string)
}

// DefaultQueue is the number of lines held before new lines are dropped.
const DefaultQueue = 64

// Console writes lines to an io.Writer from a background goroutine.
type Console struct {
	out     io.Writer
	lines   chan string
	done    chan struct{}
	dropped atomic.Uint64

	closeOnce sync.Once
}

// New starts a Console writing to out with room for queue pending lines.
func New(out io.Writer, queue int) *Console {
	if queue <= 0 {
		queue = DefaultQueue
	}
	c := &Console{
		out:   out,
		lines: make(chan string, queue),
		done:  make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *Console) run() {
	defer close(c.done)
	for line := range c.lines {
		// Write errors are dropped like a full queue.
		fmt.Fprintf(c.out, "%s\r\n", line)
	}
}

// WriteLine queues line for output. If the queue is full the line is dropped.
func (c *Console) WriteLine(line string) {
	select {
	case c.lines <- line:
	default:
		c.dropped.Add(1)
	}
}

// Dropped returns the number of lines dropped because the queue was full.
func (c *Console) Dropped() uint64 {
	return c.dropped.Load()
}

// Close flushes queued lines and stops the writer. WriteLine must not be
// called after Close.
func (c *Console) Close() error {
	c.closeOnce.Do(func() {
		close(c.lines)
	})
	<-c.done
	return nil
}

// multi fans a line out to several sinks.
type multi []Sink

func (m multi) WriteLine(line string) {
	for _, s := range m {
		s.WriteLine(line)
	}
}

// Multi returns a Sink that writes each line to every non-nil sink.
func Multi(sinks ...Sink) Sink {
	var m multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}
