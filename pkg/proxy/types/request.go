package types

import "fmt"

// Default generation parameters applied when the client omits them.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 100
)

// ChatCompletionRequest is an OpenAI-compatible chat completion request.
//
// The gateway validates it strictly: unknown fields are rejected at the
// boundary. Temperature and MaxTokens are pointers so an omitted field
// can be distinguished from an explicit zero; defaults are applied when
// building the backend payload.
type ChatCompletionRequest struct {
	// Model is the model identifier forwarded to the backend.
	Model string `json:"model"`

	// Messages is the conversation history, in order.
	Messages []Message `json:"messages"`

	// Temperature controls randomness (0.0 to 2.0). Defaults to 0.7.
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxTokens caps generated tokens. Defaults to 100.
	MaxTokens *int `json:"max_tokens,omitempty"`

	// Stream enables server-sent events streaming.
	Stream bool `json:"stream,omitempty"`
}

// Message is a single message in a conversation.
type Message struct {
	// Role is the author of the message ("system", "user", "assistant", or "tool").
	Role string `json:"role"`

	// Content is the text content. Kept as any so structured content
	// passes through to the backend untouched.
	Content any `json:"content"`

	// Name is the optional author name.
	Name string `json:"name,omitempty"`

	// ToolCallID links a tool message to the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// EffectiveTemperature returns the requested temperature or the default.
func (r *ChatCompletionRequest) EffectiveTemperature() float64 {
	if r.Temperature != nil {
		return *r.Temperature
	}
	return DefaultTemperature
}

// EffectiveMaxTokens returns the requested max_tokens or the default.
func (r *ChatCompletionRequest) EffectiveMaxTokens() int {
	if r.MaxTokens != nil {
		return *r.MaxTokens
	}
	return DefaultMaxTokens
}

// Validate checks required fields and value ranges.
func (r *ChatCompletionRequest) Validate() error {
	if r.Model == "" {
		return &ValidationError{
			Field:   "model",
			Message: "model is required",
		}
	}

	if len(r.Messages) == 0 {
		return &ValidationError{
			Field:   "messages",
			Message: "messages must contain at least one message",
		}
	}

	if r.Temperature != nil && (*r.Temperature < 0.0 || *r.Temperature > 2.0) {
		return &ValidationError{
			Field:   "temperature",
			Message: "temperature must be between 0.0 and 2.0",
		}
	}

	if r.MaxTokens != nil && *r.MaxTokens < 1 {
		return &ValidationError{
			Field:   "max_tokens",
			Message: "max_tokens must be greater than 0",
		}
	}

	for i, msg := range r.Messages {
		if msg.Role == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: "message role is required",
			}
		}
		if msg.Content == nil {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].content", i),
				Message: "message content is required",
			}
		}
	}

	return nil
}

// ValidationError represents a request validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}
