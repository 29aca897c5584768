package upstream

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single chat message as sent to the backend.
// Content is passed through untouched so multimodal payloads survive
// the relay.
type Message struct {
	// Role is the author of the message.
	Role string `json:"role"`

	// Content is the message content, usually a string.
	Content any `json:"content"`

	// Name is the optional author name.
	Name string `json:"name,omitempty"`

	// ToolCallID links a tool message to the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ChatPayload is the composed request body sent to the backend's
// chat-completion endpoint.
type ChatPayload struct {
	// Model is the model identifier forwarded to the backend.
	Model string `json:"model"`

	// Messages is the composed message sequence, template first.
	Messages []Message `json:"messages"`

	// Temperature controls sampling randomness.
	Temperature float64 `json:"temperature"`

	// MaxTokens caps generated tokens.
	MaxTokens int `json:"max_tokens"`

	// Stream requests incremental delivery from the backend.
	Stream bool `json:"stream"`
}

// StreamChunk is one unit of a streaming completion.
//
// Exactly one of Data or Err is set. A chunk with Err set is terminal:
// the channel is closed immediately after it. A clean end of stream
// closes the channel without an error chunk, so consumers can always
// distinguish failure from normal completion.
type StreamChunk struct {
	// Data is the raw SSE data payload, relayed verbatim.
	Data []byte

	// Err is the terminal stream error, if any.
	Err error
}
