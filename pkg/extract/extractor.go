// Package extract derives the company name a stock query is about.
package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/papercomputeco/tickertape/pkg/conversation"
	"github.com/papercomputeco/tickertape/pkg/intent"
	"github.com/papercomputeco/tickertape/pkg/logger"
)

// Purpose names the side conversation used for extraction prompts.
const Purpose = "extract"

// MaxNameLength is the longest model answer accepted as a company name.
const MaxNameLength = 20

// Completer runs one turn on a conversation and returns the model's reply.
// chat.Responder implements it.
type Completer interface {
	Complete(ctx context.Context, key conversation.Key, userText string) (string, error)
}

// Extractor returns the company a query is about, or "" when it cannot tell.
type Extractor interface {
	ExtractCompany(ctx context.Context, key conversation.Key, query string) string
}

// CompanyExtractor asks the model first and falls back to a keyword scan.
//
// The model prompt runs on a side conversation derived from the user's key,
// so it never shows up in the user-visible history.
type CompanyExtractor struct {
	completer Completer
	vocab     intent.VocabularySource
	logger    *zap.Logger
}

// NewCompanyExtractor creates a CompanyExtractor. completer may be nil, in
// which case only the keyword scan is used.
func NewCompanyExtractor(completer Completer, vocab intent.VocabularySource, log *zap.Logger) *CompanyExtractor {
	return &CompanyExtractor{
		completer: completer,
		vocab:     vocab,
		logger:    log,
	}
}

// Prompt builds the extraction instruction for query.
func Prompt(query string) string {
	return fmt.Sprintf("Extract only the company name from this query: '%s'. Return ONLY the company name, nothing else.", query)
}

// Clean trims whitespace and surrounding quote or punctuation characters.
func Clean(answer string) string {
	s := strings.TrimSpace(answer)
	s = strings.Trim(s, "\"'.,`")
	return strings.TrimSpace(s)
}

// Plausible reports whether a cleaned answer can be a company name.
func Plausible(name string) bool {
	n := utf8.RuneCountInString(name)
	return n > 0 && n <= MaxNameLength
}

func (e *CompanyExtractor) ExtractCompany(ctx context.Context, key conversation.Key, query string) string {
	if e.completer != nil {
		answer, err := e.completer.Complete(ctx, key.Side(Purpose), Prompt(query))
		if err != nil {
			e.logger.Warn("company extraction failed, using keyword scan",
				zap.Stringer("conversation", key),
				zap.Error(err),
			)
		} else {
			name := Clean(answer)
			if Plausible(name) {
				e.logger.Debug("extracted company", zap.String("company", name))
				return name
			}
			e.logger.Debug("discarding implausible company answer",
				zap.String("answer", logger.Truncate(answer, 60)),
			)
		}
	}

	company, ok := e.vocab.Vocabulary().FirstCompany(strings.ToLower(query))
	if !ok {
		e.logger.Debug("no company found", zap.String("query", logger.Truncate(query, 60)))
		return ""
	}
	return company
}
