package ethartifact

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
)

func NewRegistry() *Registry {
	return &Registry{
		artifacts: map[string][]byte{},
		names:     []string{},
	}
}

// Registry is an in-memory Store of raw artifacts keyed by contract name.
type Registry struct {
	mu        sync.RWMutex
	artifacts map[string][]byte
	names     []string // sorted index of contract names in the map
}

// Add stores a copy of artifactJSON under contractName, replacing any
// previous artifact of that name.
func (r *Registry) Add(contractName string, artifactJSON []byte) error {
	if contractName == "" {
		return fmt.Errorf("ethartifact: unable to register artifact with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.artifacts == nil {
		r.artifacts = map[string][]byte{}
	}
	if _, ok := r.artifacts[contractName]; !ok {
		r.names = append(r.names, contractName)
		sort.Strings(r.names)
	}
	r.artifacts[contractName] = bytes.Clone(artifactJSON)
	return nil
}

func (r *Registry) MustAdd(contractName string, artifactJSON []byte) {
	err := r.Add(contractName, artifactJSON)
	if err != nil {
		panic(err)
	}
}

func (r *Registry) Get(contractName string) ([]byte, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.artifacts[contractName]
	return data, ok
}

func (r *Registry) ContractNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

func (r *Registry) Load(contractName string) ([]byte, error) {
	data, ok := r.Get(contractName)
	if !ok {
		return nil, fmt.Errorf("%w: registry has no artifact for '%s'", ErrNotFound, contractName)
	}
	return data, nil
}
