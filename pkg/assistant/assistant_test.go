package assistant_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/tickertape/pkg/a2a"
	"github.com/papercomputeco/tickertape/pkg/assistant"
	"github.com/papercomputeco/tickertape/pkg/chat"
	"github.com/papercomputeco/tickertape/pkg/conversation"
	"github.com/papercomputeco/tickertape/pkg/extract"
	"github.com/papercomputeco/tickertape/pkg/intent"
	"github.com/papercomputeco/tickertape/pkg/llm"
	"github.com/papercomputeco/tickertape/pkg/lookup"
)

// scriptedBackend answers extraction prompts with Company and everything
// else with a chat reply.
type scriptedBackend struct {
	mu      sync.Mutex
	Company string
	Err     error
	calls   int
}

func (b *scriptedBackend) Chat(_ context.Context, messages []llm.Message) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++

	if b.Err != nil {
		return "", b.Err
	}
	last := messages[len(messages)-1].Content
	if strings.HasPrefix(last, "Extract only the company name") {
		return b.Company, nil
	}
	return "chat: " + last, nil
}

type fakeAgent struct {
	reply    string
	err      error
	panics   bool
	requests []string
}

func (a *fakeAgent) Ask(_ context.Context, text string) (string, error) {
	if a.panics {
		panic("agent exploded")
	}
	a.requests = append(a.requests, text)
	return a.reply, a.err
}

var _ = Describe("Assistant", func() {
	var (
		ctx         context.Context
		backend     *scriptedBackend
		store       *conversation.Store
		tickerAgent *fakeAgent
		priceAgent  *fakeAgent
		asst        *assistant.Assistant
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = &scriptedBackend{Company: "apple"}
		store = conversation.NewStore()
		tickerAgent = &fakeAgent{reply: "The ticker symbol for apple is AAPL."}
		priceAgent = &fakeAgent{reply: "$150.25"}

		log := zap.NewNop()
		responder := chat.NewResponder(backend, store, assistant.DefaultSystemPrompt, log)
		classifier := intent.NewKeywordClassifier(intent.DefaultVocabulary())
		extractor := extract.NewCompanyExtractor(responder, classifier, log)
		pipeline := lookup.NewPipeline(tickerAgent, priceAgent, log)
		asst = assistant.New(classifier, extractor, pipeline, responder, log)
	})

	ask := func(text string) (a2a.Message, a2a.Message) {
		in := a2a.NewTextMessage("conv-1", text)
		return in, asst.HandleMessage(ctx, in)
	}

	Describe("stock path", func() {
		It("composes company, ticker and price", func() {
			in, out := ask("What's the stock price of Apple?")

			Expect(out.Text()).To(Equal("apple (AAPL): $150.25"))
			Expect(out.ParentMessageID).To(Equal(in.MessageID))
			Expect(out.ConversationID).To(Equal("conv-1"))
			Expect(out.Role).To(Equal(a2a.RoleAgent))
			Expect(tickerAgent.requests).To(Equal([]string{"What's the ticker for apple?"}))
			Expect(priceAgent.requests).To(Equal([]string{"What's the current price of AAPL?"}))
		})

		It("never touches the user-visible history", func() {
			ask("What's the stock price of Apple?")

			Expect(store.Has(conversation.Main("conv-1"))).To(BeFalse())
		})

		It("apologizes naming the company when no ticker is found", func() {
			tickerAgent.reply = "I don't know"

			_, out := ask("apple stock")

			Expect(out.Text()).To(Equal("I couldn't find the ticker symbol for apple."))
			Expect(priceAgent.requests).To(BeEmpty())
		})

		It("apologizes when no company can be determined", func() {
			backend.Company = ""
			asst = assistant.New(
				alwaysStock{},
				extract.NewCompanyExtractor(nil, intent.NewKeywordClassifier(intent.DefaultVocabulary()), zap.NewNop()),
				lookup.NewPipeline(tickerAgent, priceAgent, zap.NewNop()),
				chat.NewResponder(backend, store, "", zap.NewNop()),
				zap.NewNop(),
			)

			_, out := ask("stock of acme corp")

			Expect(out.Text()).To(ContainSubstring("Sorry"))
			Expect(tickerAgent.requests).To(BeEmpty())
		})

		It("falls back to keywords when the backend is down", func() {
			backend.Err = errors.New("connection refused")

			_, out := ask("tesla stock price")

			Expect(out.Text()).To(Equal("tesla (AAPL): $150.25"))
			Expect(tickerAgent.requests).To(Equal([]string{"What's the ticker for tesla?"}))
		})

		It("reports unreachable collaborators as an apology with the error", func() {
			tickerAgent.err = errors.New("dial tcp 127.0.0.1:5003: connection refused")

			_, out := ask("apple stock")

			Expect(out.Text()).To(HavePrefix("Sorry, I encountered an error:"))
			Expect(out.Text()).To(ContainSubstring("connection refused"))
		})

		It("recovers from panics in the stock path", func() {
			tickerAgent.panics = true

			in, out := ask("apple stock")

			Expect(out.Text()).To(ContainSubstring("Sorry"))
			Expect(out.Text()).To(ContainSubstring("agent exploded"))
			Expect(out.ParentMessageID).To(Equal(in.MessageID))
		})
	})

	Describe("chat path", func() {
		It("delegates to the conversational core unmodified", func() {
			_, out := ask("Tell me a joke")

			Expect(out.Text()).To(Equal("chat: Tell me a joke"))
			Expect(store.History(conversation.Main("conv-1"))).To(HaveLen(3))
		})

		It("routes a company mention without a trigger to chat", func() {
			_, out := ask("Apple pie recipe")

			Expect(out.Text()).To(Equal("chat: Apple pie recipe"))
			Expect(tickerAgent.requests).To(BeEmpty())
		})

		It("turns backend failures into an apology", func() {
			backend.Err = errors.New("model not loaded")

			_, out := ask("Tell me a joke")

			Expect(out.Text()).To(ContainSubstring("Sorry"))
			Expect(out.Text()).To(ContainSubstring("model not loaded"))
		})

		It("rejects non-text content without side effects", func() {
			in := a2a.Message{
				MessageID:      "m-1",
				ConversationID: "conv-1",
				Role:           a2a.RoleUser,
				Content:        a2a.Content{Type: "image"},
			}

			out := asst.HandleMessage(ctx, in)

			Expect(out.Text()).To(Equal(chat.UnsupportedContentReply))
			Expect(out.ParentMessageID).To(Equal("m-1"))
			Expect(store.Len()).To(Equal(0))
			Expect(backend.calls).To(Equal(0))
		})
	})

	Describe("observers", func() {
		It("sees every exchange with its route", func() {
			var routes []intent.Route
			asst.Observe(func(_ context.Context, in, reply a2a.Message, route intent.Route) {
				Expect(reply.ParentMessageID).To(Equal(in.MessageID))
				routes = append(routes, route)
			})

			ask("apple stock")
			ask("hello")

			Expect(routes).To(Equal([]intent.Route{intent.RouteStock, intent.RouteChat}))
		})
	})
})

type alwaysStock struct{}

func (alwaysStock) Classify(string) intent.Route { return intent.RouteStock }
