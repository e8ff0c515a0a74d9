package intent

import (
	"strings"
	"sync/atomic"
)

// Route is the outcome of classification.
type Route string

const (
	RouteStock Route = "stock"
	RouteChat  Route = "chat"
)

// Classifier picks the route for a message text.
type Classifier interface {
	Classify(text string) Route
}

// VocabularySource exposes the vocabulary currently in effect.
type VocabularySource interface {
	Vocabulary() Vocabulary
}

// KeywordClassifier routes to RouteStock iff the lowercased text contains a
// trigger word AND a company keyword. Either alone is not enough: missing a
// stock query is preferred over misrouting ordinary chat.
//
// The vocabulary can be swapped at runtime with SetVocabulary.
type KeywordClassifier struct {
	vocab atomic.Pointer[Vocabulary]
}

// NewKeywordClassifier creates a classifier over v.
func NewKeywordClassifier(v Vocabulary) *KeywordClassifier {
	c := &KeywordClassifier{}
	c.SetVocabulary(v)
	return c
}

// SetVocabulary replaces the tables used by later calls.
func (c *KeywordClassifier) SetVocabulary(v Vocabulary) {
	n := v.normalized()
	c.vocab.Store(&n)
}

// Vocabulary returns the tables currently in effect.
func (c *KeywordClassifier) Vocabulary() Vocabulary {
	return *c.vocab.Load()
}

func (c *KeywordClassifier) Classify(text string) Route {
	v := c.vocab.Load()
	lowered := strings.ToLower(text)
	if !v.HasTrigger(lowered) {
		return RouteChat
	}
	if _, ok := v.FirstCompany(lowered); !ok {
		return RouteChat
	}
	return RouteStock
}
