// Package shared holds the process-wide runtime context: the one LED state
// machine and the one debug console, each behind its own critical section.
package shared

import (
	"fmt"
	"sync"

	"github.com/sweeney/twin-led/internal/console"
	"github.com/sweeney/twin-led/internal/logic"
)

// Context is created once at startup and passed by reference to the main
// loop and the edge handlers.
type Context struct {
	sysMu  sync.Mutex
	system *logic.System

	conMu   sync.Mutex
	console console.Sink
}

// New returns an empty Context. Both slots must be filled before edge
// delivery is enabled.
func New() *Context {
	return &Context{}
}

// InitSystem fills the system slot.
func (c *Context) InitSystem(s *logic.System) {
	c.sysMu.Lock()
	c.system = s
	c.sysMu.Unlock()
}

// InitConsole fills the console slot.
func (c *Context) InitConsole(sink console.Sink) {
	c.conMu.Lock()
	c.console = sink
	c.conMu.Unlock()
}

// WithSystem runs fn with exclusive access to the System. It does nothing
// if the slot is empty.
func (c *Context) WithSystem(fn func(s *logic.System)) {
	c.sysMu.Lock()
	defer c.sysMu.Unlock()
	if c.system != nil {
		fn(c.system)
	}
}

// Println writes one formatted line to the console. It does nothing if the
// slot is empty.
func (c *Context) Println(format string, args ...any) {
	c.conMu.Lock()
	defer c.conMu.Unlock()
	if c.console != nil {
		c.console.WriteLine(fmt.Sprintf(format, args...))
	}
}
