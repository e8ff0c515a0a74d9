// Package conversation holds per-conversation dialogue history in memory.
package conversation

import "sync"

// Conversation is the ordered, append-only history of one Key.
//
// Each Conversation has its own lock so that callers working on different
// keys never contend, while callers sharing a key are serialized.
type Conversation struct {
	key   Key
	mu    sync.Mutex
	turns []Turn
}

// Key returns the key this conversation is stored under.
func (c *Conversation) Key() Key {
	return c.key
}

// Len returns the number of turns. The caller must hold the conversation
// (see Store.With).
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Append adds a turn. The caller must hold the conversation.
func (c *Conversation) Append(t Turn) {
	c.turns = append(c.turns, t)
}

// Turns returns a copy of the history. The caller must hold the conversation.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Store owns every conversation for the lifetime of the process.
// Conversations are created lazily and never evicted.
type Store struct {
	mu            sync.RWMutex
	conversations map[Key]*Conversation
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		conversations: make(map[Key]*Conversation),
	}
}

// get returns the conversation for key, creating it if needed. created is
// true when this call created it.
func (s *Store) get(key Key) (c *Conversation, created bool) {
	s.mu.RLock()
	c, ok := s.conversations[key]
	s.mu.RUnlock()
	if ok {
		return c, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.conversations[key]; ok {
		return c, false
	}
	c = &Conversation{key: key}
	s.conversations[key] = c
	return c, true
}

// With runs fn while holding the conversation for key, creating the
// conversation first if it does not exist. created reports whether this call
// created it. Calls for the same key never overlap.
func (s *Store) With(key Key, fn func(c *Conversation, created bool) error) error {
	c, created := s.get(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c, created)
}

// Append adds a turn to the conversation for key, creating it if absent.
func (s *Store) Append(key Key, t Turn) {
	_ = s.With(key, func(c *Conversation, _ bool) error {
		c.Append(t)
		return nil
	})
}

// History returns a copy of the ordered history for key. Unknown keys yield
// an empty history and are not created.
func (s *Store) History(key Key) []Turn {
	s.mu.RLock()
	c, ok := s.conversations[key]
	s.mu.RUnlock()
	if !ok {
		return []Turn{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Turns()
}

// Has reports whether a conversation exists for key.
func (s *Store) Has(key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.conversations[key]
	return ok
}

// Len returns the number of conversations, side conversations included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}
