package llm

// ChatRequest represents a chat completion request (Ollama-compatible).
type ChatRequest struct {
	Model    string    `json:"model"`            // Model name (e.g., "llama3")
	Messages []Message `json:"messages"`         // Conversation history
	Stream   *bool     `json:"stream,omitempty"` // Ollama streams unless this is false

	// Keep model loaded
	KeepAlive string `json:"keep_alive,omitempty"`
}
