package prompts

import "halcyon-ai/promptgate/pkg/upstream"

// Compose merges an optional template into a client message sequence.
//
// With a template, the result is a new slice with a synthesized system
// message at index 0 followed by the client messages in their original
// order. Client-supplied system messages are kept alongside by default;
// when replaceSystem is set they are dropped in favor of the template.
//
// Without a template the input is returned unchanged.
func Compose(msgs []upstream.Message, tmpl *Template, replaceSystem bool) []upstream.Message {
	if tmpl == nil {
		return msgs
	}

	composed := make([]upstream.Message, 0, len(msgs)+1)
	composed = append(composed, upstream.Message{
		Role:    upstream.RoleSystem,
		Content: tmpl.Body,
	})

	for _, msg := range msgs {
		if replaceSystem && msg.Role == upstream.RoleSystem {
			continue
		}
		composed = append(composed, msg)
	}

	return composed
}
