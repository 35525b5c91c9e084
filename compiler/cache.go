package compiler

import (
	"sync"

	"github.com/typhoon/typhoon-go"
)

// Cache memoizes compiled procedures by source text so a template written
// inline in a render function is compiled on first use only.
type Cache struct {
	compiler *Compiler
	mu       sync.Mutex
	procs    map[string]*Procedure
}

// NewCache creates a cache compiling with c. A nil compiler uses defaults.
func NewCache(c *Compiler) *Cache {
	if c == nil {
		c = New()
	}
	return &Cache{compiler: c, procs: make(map[string]*Procedure)}
}

// Get returns the procedure for src, compiling it the first time. Failed
// compilations are not cached.
func (c *Cache) Get(src string) (*Procedure, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if proc, ok := c.procs[src]; ok {
		return proc, nil
	}
	proc, err := c.compiler.Compile(src)
	if err != nil {
		return nil, err
	}
	c.procs[src] = proc
	return proc, nil
}

// Len returns the number of cached procedures.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.procs)
}

var defaultCache = NewCache(nil)

// Tp compiles src through the package cache and runs it. It is the runtime
// counterpart of a generated template function.
func Tp(host typhoon.Host, src string, env Env) (typhoon.Node, error) {
	proc, err := defaultCache.Get(src)
	if err != nil {
		return nil, err
	}
	return proc.Run(host, env)
}
