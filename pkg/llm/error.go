// Package llm provides the Ollama-compatible chat representations exchanged
// with the inference backend.
package llm

// ErrorResponse represents an error returned by the inference backend or by
// the tickertape server itself.
type ErrorResponse struct {
	Error string `json:"error"`
}
