package merkle

import "context"

// Storer persists and traverses transcript nodes. Identical content under an
// identical parent produces an identical hash and is stored once.
type Storer interface {
	// Put stores a node. It reports whether the node was new; storing an
	// existing hash is a no-op.
	Put(ctx context.Context, node *Node) (bool, error)

	// Get retrieves a node by its hash. Returns ErrNotFound if the node doesn't exist.
	Get(ctx context.Context, hash string) (*Node, error)

	// Has checks if a node exists by its hash.
	Has(ctx context.Context, hash string) (bool, error)

	// GetByParent retrieves all nodes that have the given parent hash.
	// Pass nil to get root nodes.
	GetByParent(ctx context.Context, parentHash *string) ([]*Node, error)

	// List returns all nodes in the store.
	List(ctx context.Context) ([]*Node, error)

	// Roots returns all nodes with no parent.
	Roots(ctx context.Context) ([]*Node, error)

	// Leaves returns all nodes with no children.
	Leaves(ctx context.Context) ([]*Node, error)

	// Ancestry returns the path from a node back to its root (node first, root last).
	Ancestry(ctx context.Context, hash string) ([]*Node, error)

	// Close releases any resources.
	Close() error
}

// ErrNotFound is returned when a node doesn't exist in the store.
type ErrNotFound struct {
	Hash string
}

func (e ErrNotFound) Error() string {
	if e.Hash == "" {
		return "node not found"
	}

	return "node not found: " + e.Hash
}

// Chronological returns the ancestry of hash oldest first.
func Chronological(ctx context.Context, s Storer, hash string) ([]*Node, error) {
	ancestry, err := s.Ancestry(ctx, hash)
	if err != nil {
		return nil, err
	}
	out := make([]*Node, len(ancestry))
	for i, n := range ancestry {
		out[len(ancestry)-1-i] = n
	}
	return out, nil
}
