package extract_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/tickertape/pkg/chat"
	"github.com/papercomputeco/tickertape/pkg/conversation"
	"github.com/papercomputeco/tickertape/pkg/extract"
	"github.com/papercomputeco/tickertape/pkg/intent"
	"github.com/papercomputeco/tickertape/pkg/llm"
)

type stubCompleter struct {
	answer string
	err    error
	keys   []conversation.Key
	texts  []string
}

func (s *stubCompleter) Complete(_ context.Context, key conversation.Key, text string) (string, error) {
	s.keys = append(s.keys, key)
	s.texts = append(s.texts, text)
	return s.answer, s.err
}

type stubBackend struct{ reply string }

func (b stubBackend) Chat(context.Context, []llm.Message) (string, error) { return b.reply, nil }

var _ = Describe("CompanyExtractor", func() {
	var (
		ctx       context.Context
		completer *stubCompleter
		vocab     *intent.KeywordClassifier
		key       conversation.Key
	)

	BeforeEach(func() {
		ctx = context.Background()
		completer = &stubCompleter{}
		vocab = intent.NewKeywordClassifier(intent.DefaultVocabulary())
		key = conversation.Main("conv-1")
	})

	newExtractor := func() *extract.CompanyExtractor {
		return extract.NewCompanyExtractor(completer, vocab, zap.NewNop())
	}

	It("uses the cleaned model answer", func() {
		completer.answer = "  \"Apple Inc.\"\n"

		Expect(newExtractor().ExtractCompany(ctx, key, "What's the stock price of Apple?")).To(Equal("Apple Inc"))
	})

	It("prompts on a side conversation", func() {
		completer.answer = "Tesla"

		newExtractor().ExtractCompany(ctx, key, "tesla stock")

		Expect(completer.keys).To(Equal([]conversation.Key{key.Side(extract.Purpose)}))
		Expect(completer.texts[0]).To(ContainSubstring("'tesla stock'"))
		Expect(completer.texts[0]).To(ContainSubstring("Return ONLY the company name"))
	})

	It("falls back to the keyword scan for long answers", func() {
		completer.answer = "The company mentioned in this query is Microsoft Corporation"

		Expect(newExtractor().ExtractCompany(ctx, key, "microsoft stock price")).To(Equal("microsoft"))
	})

	It("falls back to the keyword scan for empty answers", func() {
		completer.answer = " '' "

		Expect(newExtractor().ExtractCompany(ctx, key, "Amazon trading")).To(Equal("amazon"))
	})

	It("falls back to the keyword scan when the model fails", func() {
		completer.err = errors.New("backend down")

		Expect(newExtractor().ExtractCompany(ctx, key, "google stock")).To(Equal("google"))
	})

	It("preserves vocabulary order in the fallback", func() {
		completer.answer = ""

		Expect(newExtractor().ExtractCompany(ctx, key, "meta vs apple stock")).To(Equal("apple"))
	})

	It("returns empty when nothing matches", func() {
		completer.answer = ""

		Expect(newExtractor().ExtractCompany(ctx, key, "stock price of acme")).To(BeEmpty())
	})

	It("works without a completer", func() {
		e := extract.NewCompanyExtractor(nil, vocab, zap.NewNop())

		Expect(e.ExtractCompany(ctx, key, "tesla stock")).To(Equal("tesla"))
	})

	It("keeps the extraction prompt out of the user conversation", func() {
		store := conversation.NewStore()
		responder := chat.NewResponder(stubBackend{reply: "Apple"}, store, "system", zap.NewNop())
		e := extract.NewCompanyExtractor(responder, vocab, zap.NewNop())

		Expect(e.ExtractCompany(ctx, key, "apple stock")).To(Equal("Apple"))
		Expect(store.Has(key)).To(BeFalse())
		Expect(store.History(key.Side(extract.Purpose))).To(HaveLen(3))
	})
})

var _ = Describe("Clean and Plausible", func() {
	DescribeTable("Clean",
		func(in, want string) {
			Expect(extract.Clean(in)).To(Equal(want))
		},
		Entry("quotes", `"Tesla"`, "Tesla"),
		Entry("single quotes and period", "'Amazon'.", "Amazon"),
		Entry("surrounding whitespace", "\n  Meta \t", "Meta"),
		Entry("inner punctuation kept", "Alphabet, Inc.", "Alphabet, Inc"),
	)

	It("accepts names up to the length threshold", func() {
		Expect(extract.Plausible("12345678901234567890")).To(BeTrue())
		Expect(extract.Plausible("123456789012345678901")).To(BeFalse())
		Expect(extract.Plausible("")).To(BeFalse())
	})
})
