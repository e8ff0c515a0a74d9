package conversation_test

import (
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tickertape/pkg/conversation"
	"github.com/papercomputeco/tickertape/pkg/llm"
)

var _ = Describe("Store", func() {
	var store *conversation.Store

	BeforeEach(func() {
		store = conversation.NewStore()
	})

	Describe("Append and History", func() {
		It("creates a conversation lazily on first append", func() {
			key := conversation.Main("A")
			Expect(store.Has(key)).To(BeFalse())

			store.Append(key, conversation.UserTurn("hello"))

			Expect(store.Has(key)).To(BeTrue())
			Expect(store.History(key)).To(Equal([]conversation.Turn{
				{Role: llm.RoleUser, Text: "hello"},
			}))
		})

		It("preserves append order", func() {
			key := conversation.Main("A")
			store.Append(key, conversation.SystemTurn("be nice"))
			store.Append(key, conversation.UserTurn("hi"))
			store.Append(key, conversation.AssistantTurn("hello!"))

			history := store.History(key)
			Expect(history).To(HaveLen(3))
			Expect(history[0].Role).To(Equal(llm.RoleSystem))
			Expect(history[1].Role).To(Equal(llm.RoleUser))
			Expect(history[2].Role).To(Equal(llm.RoleAssistant))
		})

		It("returns an empty history for unknown keys without creating them", func() {
			Expect(store.History(conversation.Main("missing"))).To(BeEmpty())
			Expect(store.Len()).To(Equal(0))
		})

		It("returns a copy that callers cannot use to mutate the store", func() {
			key := conversation.Main("A")
			store.Append(key, conversation.UserTurn("original"))

			history := store.History(key)
			history[0].Text = "changed"

			Expect(store.History(key)[0].Text).To(Equal("original"))
		})
	})

	Describe("isolation", func() {
		It("never leaks turns between conversation ids", func() {
			store.Append(conversation.Main("A"), conversation.SystemTurn("prompt"))
			store.Append(conversation.Main("A"), conversation.UserTurn("secret"))

			Expect(store.History(conversation.Main("B"))).To(BeEmpty())
		})

		It("keeps side conversations apart from the conversation they serve", func() {
			main := conversation.Main("A")
			side := main.Side("extract")

			store.Append(side, conversation.UserTurn("extract this"))

			Expect(store.History(main)).To(BeEmpty())
			Expect(store.History(side)).To(HaveLen(1))
		})

		It("cannot collide a side key with a user id that looks like one", func() {
			side := conversation.Main("A").Side("extract")
			lookalike := conversation.Main(side.String())

			store.Append(side, conversation.UserTurn("internal"))

			Expect(store.History(lookalike)).To(BeEmpty())
		})
	})

	Describe("With", func() {
		It("reports creation only on the first call", func() {
			key := conversation.Main("A")
			var first, second bool

			Expect(store.With(key, func(_ *conversation.Conversation, created bool) error {
				first = created
				return nil
			})).To(Succeed())
			Expect(store.With(key, func(_ *conversation.Conversation, created bool) error {
				second = created
				return nil
			})).To(Succeed())

			Expect(first).To(BeTrue())
			Expect(second).To(BeFalse())
		})

		It("propagates the callback error", func() {
			err := store.With(conversation.Main("A"), func(_ *conversation.Conversation, _ bool) error {
				return fmt.Errorf("boom")
			})
			Expect(err).To(MatchError("boom"))
		})
	})

	Describe("concurrency", func() {
		It("keeps read-modify-write sequences on one key intact", func() {
			key := conversation.Main("shared")
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_ = store.With(key, func(c *conversation.Conversation, _ bool) error {
						c.Append(conversation.UserTurn(fmt.Sprintf("q%d", i)))
						c.Append(conversation.AssistantTurn(fmt.Sprintf("a%d", i)))
						return nil
					})
				}(i)
			}
			wg.Wait()

			history := store.History(key)
			Expect(history).To(HaveLen(100))
			for i := 0; i < len(history); i += 2 {
				Expect(history[i].Role).To(Equal(llm.RoleUser))
				Expect(history[i+1].Role).To(Equal(llm.RoleAssistant))
				Expect(history[i+1].Text[1:]).To(Equal(history[i].Text[1:]))
			}
		})

		It("handles many distinct keys concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					key := conversation.Main(fmt.Sprintf("c%d", i))
					for j := 0; j < 10; j++ {
						store.Append(key, conversation.UserTurn("x"))
						_ = store.History(key)
					}
				}(i)
			}
			wg.Wait()

			Expect(store.Len()).To(Equal(20))
			Expect(store.History(conversation.Main("c7"))).To(HaveLen(10))
		})
	})
})
