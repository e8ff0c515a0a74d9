package conversation

import "github.com/papercomputeco/tickertape/pkg/llm"

// Turn is one role-tagged utterance in a conversation history.
type Turn struct {
	Role string `json:"role"` // llm.RoleSystem, llm.RoleUser or llm.RoleAssistant
	Text string `json:"text"`
}

// SystemTurn, UserTurn and AssistantTurn build turns for each role.
func SystemTurn(text string) Turn    { return Turn{Role: llm.RoleSystem, Text: text} }
func UserTurn(text string) Turn      { return Turn{Role: llm.RoleUser, Text: text} }
func AssistantTurn(text string) Turn { return Turn{Role: llm.RoleAssistant, Text: text} }

// Messages converts a history into the inference backend's message list.
func Messages(turns []Turn) []llm.Message {
	msgs := make([]llm.Message, len(turns))
	for i, t := range turns {
		msgs[i] = llm.Message{Role: t.Role, Content: t.Text}
	}
	return msgs
}
