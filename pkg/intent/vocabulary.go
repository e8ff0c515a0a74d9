// Package intent decides whether a message is a stock query.
package intent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Vocabulary is the pair of fixed keyword tables used for routing. Scan order
// of Companies is significant: the first match wins.
type Vocabulary struct {
	Triggers  []string `toml:"triggers"`
	Companies []string `toml:"companies"`
}

// DefaultVocabulary returns the built-in keyword tables.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Triggers:  []string{"stock", "price", "trading"},
		Companies: []string{"apple", "microsoft", "google", "amazon", "tesla", "facebook", "meta"},
	}
}

// Validate rejects empty tables.
func (v Vocabulary) Validate() error {
	if len(v.Triggers) == 0 {
		return errors.New("vocabulary has no triggers")
	}
	if len(v.Companies) == 0 {
		return errors.New("vocabulary has no companies")
	}
	return nil
}

// normalized lowercases and trims every entry and drops blanks.
func (v Vocabulary) normalized() Vocabulary {
	return Vocabulary{
		Triggers:  normalize(v.Triggers),
		Companies: normalize(v.Companies),
	}
}

func normalize(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// HasTrigger reports whether lowered contains any trigger word.
func (v Vocabulary) HasTrigger(lowered string) bool {
	for _, t := range v.Triggers {
		if strings.Contains(lowered, t) {
			return true
		}
	}
	return false
}

// FirstCompany returns the first company keyword, in table order, that
// lowered contains.
func (v Vocabulary) FirstCompany(lowered string) (string, bool) {
	for _, c := range v.Companies {
		if strings.Contains(lowered, c) {
			return c, true
		}
	}
	return "", false
}

// LoadVocabulary reads a TOML file of the form
//
//	triggers  = ["stock", "price", "trading"]
//	companies = ["apple", "microsoft"]
func LoadVocabulary(path string) (Vocabulary, error) {
	var v Vocabulary
	if _, err := toml.DecodeFile(path, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("decoding vocabulary %s: %w", path, err)
	}
	v = v.normalized()
	if err := v.Validate(); err != nil {
		return Vocabulary{}, fmt.Errorf("invalid vocabulary %s: %w", path, err)
	}
	return v, nil
}
