package llm

// Message is a single turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams tunes a single completion request.
type ChatParams struct {
	// Model overrides the client's default model when set.
	Model string

	// MaxTokens caps the generated tokens. 0 leaves it to the server.
	MaxTokens int

	// Temperature is omitted from the request when 0.
	Temperature float32
}
