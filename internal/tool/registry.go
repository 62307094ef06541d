package tool

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Meta describes a registered tool for protocol listings.
type Meta struct {
	Name        string
	Description string
	Params      []Param
}

// Registry holds tools by name. List keeps registration order, which is the
// order clients see them in.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Tool
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]Tool{}}
}

func (r *Registry) Register(t Tool) error {
	if t == nil {
		return errors.New("tool is nil")
	}
	name := strings.TrimSpace(t.Name())
	if name == "" {
		return errors.New("tool name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.byName[name] = t
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// List returns metadata for every tool in registration order.
func (r *Registry) List() []Meta {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Meta, 0, len(r.order))
	for _, name := range r.order {
		t := r.byName[name]
		out = append(out, Meta{Name: name, Description: t.Description(), Params: t.Params()})
	}
	return out
}
