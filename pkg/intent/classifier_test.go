package intent_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tickertape/pkg/intent"
)

var _ = Describe("KeywordClassifier", func() {
	var classifier *intent.KeywordClassifier

	BeforeEach(func() {
		classifier = intent.NewKeywordClassifier(intent.DefaultVocabulary())
	})

	DescribeTable("Classify",
		func(text string, want intent.Route) {
			Expect(classifier.Classify(text)).To(Equal(want))
		},
		Entry("stock price of Apple", "What's the stock price of Apple?", intent.RouteStock),
		Entry("uppercase input", "TESLA STOCK", intent.RouteStock),
		Entry("trading keyword", "Is Microsoft trading higher today?", intent.RouteStock),
		Entry("meta price", "meta price please", intent.RouteStock),
		Entry("a joke", "Tell me a joke", intent.RouteChat),
		Entry("company without trigger", "Apple pie recipe", intent.RouteChat),
		Entry("trigger without company", "What is the price of gold?", intent.RouteChat),
		Entry("empty text", "", intent.RouteChat),
	)

	It("uses a replaced vocabulary", func() {
		classifier.SetVocabulary(intent.Vocabulary{
			Triggers:  []string{"Quote"},
			Companies: []string{" Nvidia "},
		})

		Expect(classifier.Classify("quote for nvidia")).To(Equal(intent.RouteStock))
		Expect(classifier.Classify("apple stock")).To(Equal(intent.RouteChat))
		Expect(classifier.Vocabulary().Companies).To(Equal([]string{"nvidia"}))
	})
})

var _ = Describe("Vocabulary", func() {
	It("returns the first company in table order", func() {
		v := intent.DefaultVocabulary()

		company, ok := v.FirstCompany("meta or facebook or apple")
		Expect(ok).To(BeTrue())
		Expect(company).To(Equal("apple"))
	})

	It("reports no company when none matches", func() {
		_, ok := intent.DefaultVocabulary().FirstCompany("nothing here")
		Expect(ok).To(BeFalse())
	})

	It("rejects empty tables", func() {
		Expect(intent.Vocabulary{Triggers: []string{"x"}}.Validate()).To(HaveOccurred())
		Expect(intent.Vocabulary{Companies: []string{"x"}}.Validate()).To(HaveOccurred())
		Expect(intent.DefaultVocabulary().Validate()).To(Succeed())
	})
})
