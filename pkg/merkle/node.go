// Package merkle is a content-addressed DAG of transcript entries.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Bucket is the hashable payload of a Node: one envelope seen or sent by the
// assistant.
type Bucket struct {
	Type           string `json:"type"` // "message"
	Role           string `json:"role"` // "user" or "agent"
	Text           string `json:"text"`
	ContentType    string `json:"content_type,omitempty"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id,omitempty"`
	Route          string `json:"route,omitempty"` // set on replies: "stock" or "chat"
}

// Node represents a single content-addressed node in the DAG.
type Node struct {
	// Hash is the content-addressed identifier (SHA-256, hex-encoded)
	Hash string `json:"hash"`

	// ParentHash links to the previous node hash.
	// This will be nil for root nodes.
	ParentHash *string `json:"parent_hash"`

	Bucket Bucket `json:"bucket"`
}

type input struct {
	Bucket Bucket `json:"bucket"`
	Parent string `json:"parent,omitempty"`
}

// NewNode creates a new node with the computed hash for the provided bucket.
func NewNode(bucket Bucket, parent *Node) *Node {
	n := &Node{
		Bucket: bucket,
	}

	if parent != nil {
		h := parent.Hash
		n.ParentHash = &h
	}

	n.Hash = n.computeHash()
	return n
}

// Verify reports whether the node's hash matches its content and parent.
func (n *Node) Verify() bool {
	return n.Hash == n.computeHash()
}

func (n *Node) computeHash() string {
	i := &input{
		Bucket: n.Bucket,
	}

	if n.ParentHash != nil {
		i.Parent = *n.ParentHash
	}

	// encoding/json emits struct fields in declaration order, which keeps
	// the hash input canonical.
	data, err := json.Marshal(i)
	if err != nil {
		panic("failed to marshal hash input: " + err.Error())
	}

	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
