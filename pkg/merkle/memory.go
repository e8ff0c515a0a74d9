package merkle

import (
	"context"
	"errors"
	"sync"
)

// MemoryStorer keeps nodes in a map for the lifetime of the process.
type MemoryStorer struct {
	mu       sync.RWMutex
	nodes    map[string]*Node
	children map[string]int
	order    []string
}

// NewMemoryStorer creates an empty MemoryStorer.
func NewMemoryStorer() *MemoryStorer {
	return &MemoryStorer{
		nodes:    make(map[string]*Node),
		children: make(map[string]int),
	}
}

func (s *MemoryStorer) Put(_ context.Context, node *Node) (bool, error) {
	if node == nil {
		return false, errors.New("cannot store nil node")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[node.Hash]; ok {
		return false, nil
	}
	s.nodes[node.Hash] = node
	s.order = append(s.order, node.Hash)
	if node.ParentHash != nil {
		s.children[*node.ParentHash]++
	}
	return true, nil
}

func (s *MemoryStorer) Get(_ context.Context, hash string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[hash]
	if !ok {
		return nil, ErrNotFound{Hash: hash}
	}
	return n, nil
}

func (s *MemoryStorer) Has(_ context.Context, hash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.nodes[hash]
	return ok, nil
}

func (s *MemoryStorer) GetByParent(_ context.Context, parentHash *string) ([]*Node, error) {
	return s.filter(func(n *Node) bool {
		if parentHash == nil {
			return n.ParentHash == nil
		}
		return n.ParentHash != nil && *n.ParentHash == *parentHash
	}), nil
}

func (s *MemoryStorer) List(_ context.Context) ([]*Node, error) {
	return s.filter(func(*Node) bool { return true }), nil
}

func (s *MemoryStorer) Roots(ctx context.Context) ([]*Node, error) {
	return s.GetByParent(ctx, nil)
}

func (s *MemoryStorer) Leaves(_ context.Context) ([]*Node, error) {
	s.mu.RLock()
	children := make(map[string]int, len(s.children))
	for k, v := range s.children {
		children[k] = v
	}
	s.mu.RUnlock()

	return s.filter(func(n *Node) bool { return children[n.Hash] == 0 }), nil
}

func (s *MemoryStorer) Ancestry(ctx context.Context, hash string) ([]*Node, error) {
	var out []*Node
	for {
		n, err := s.Get(ctx, hash)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		if n.ParentHash == nil {
			return out, nil
		}
		hash = *n.ParentHash
	}
}

func (s *MemoryStorer) Close() error {
	return nil
}

// filter returns matching nodes in insertion order.
func (s *MemoryStorer) filter(keep func(*Node) bool) []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Node, 0)
	for _, h := range s.order {
		if n := s.nodes[h]; keep(n) {
			out = append(out, n)
		}
	}
	return out
}
