// Package tools holds the gated read capabilities. Every reader is
// registered under the action kind that gates it and is only reachable
// through the GatedInvoker, never directly from user-facing code.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Reader is an external data source behind the authorization engine.
type Reader interface {
	Name() string // also the action kind gating it
	Read(ctx context.Context, query string) (string, error)
}

// Registry maps action kinds to readers. Populated once at startup,
// read-only afterwards.
type Registry struct {
	mu      sync.RWMutex
	readers map[string]Reader
}

func NewRegistry() *Registry {
	return &Registry{readers: make(map[string]Reader)}
}

func (r *Registry) Register(reader Reader) {
	if r == nil || reader == nil {
		return
	}
	name := strings.TrimSpace(reader.Name())
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readers[name] = reader
}

func (r *Registry) Get(name string) (Reader, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	reader, ok := r.readers[strings.TrimSpace(name)]
	return reader, ok
}

func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.readers))
	for name := range r.readers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) MustGet(name string) (Reader, error) {
	reader, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("no reader registered for %q", name)
	}
	return reader, nil
}
