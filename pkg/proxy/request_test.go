package proxy

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"halcyon-ai/promptgate/pkg/proxy/types"
)

func parseBody(t *testing.T, body string) (*types.ChatCompletionRequest, error) {
	t.Helper()
	r := httptest.NewRequest("POST", "/v1/chat/completions", strings.NewReader(body))
	return ParseChatCompletionRequest(r)
}

func TestParseChatCompletionRequest(t *testing.T) {
	req, err := parseBody(t, `{
		"model": "llama-3",
		"messages": [{"role": "user", "content": "hi"}]
	}`)
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}

	if req.Model != "llama-3" {
		t.Errorf("unexpected model: %s", req.Model)
	}
	if len(req.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(req.Messages))
	}
	if req.Messages[0].Content != "hi" {
		t.Errorf("unexpected content: %v", req.Messages[0].Content)
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	req, err := parseBody(t, `{
		"model": "llama-3",
		"messages": [{"role": "user", "content": "hi"}]
	}`)
	if err != nil {
		t.Fatal(err)
	}

	if req.EffectiveTemperature() != types.DefaultTemperature {
		t.Errorf("expected default temperature %v, got %v", types.DefaultTemperature, req.EffectiveTemperature())
	}
	if req.EffectiveMaxTokens() != types.DefaultMaxTokens {
		t.Errorf("expected default max_tokens %d, got %d", types.DefaultMaxTokens, req.EffectiveMaxTokens())
	}
}

func TestParseExplicitZeroTemperature(t *testing.T) {
	req, err := parseBody(t, `{
		"model": "llama-3",
		"messages": [{"role": "user", "content": "hi"}],
		"temperature": 0.0
	}`)
	if err != nil {
		t.Fatal(err)
	}

	if req.EffectiveTemperature() != 0.0 {
		t.Errorf("explicit zero temperature lost, got %v", req.EffectiveTemperature())
	}
}

func TestParseRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{
			name: "unknown field",
			body: `{"model": "m", "messages": [{"role": "user", "content": "x"}], "bogus": true}`,
			code: types.CodeInvalidJSON,
		},
		{
			name: "not json",
			body: `hello`,
			code: types.CodeInvalidJSON,
		},
		{
			name: "missing model",
			body: `{"messages": [{"role": "user", "content": "x"}]}`,
			code: types.CodeInvalidValue,
		},
		{
			name: "empty messages",
			body: `{"model": "m", "messages": []}`,
			code: types.CodeInvalidValue,
		},
		{
			name: "temperature out of range",
			body: `{"model": "m", "messages": [{"role": "user", "content": "x"}], "temperature": 3.0}`,
			code: types.CodeInvalidValue,
		},
		{
			name: "zero max_tokens",
			body: `{"model": "m", "messages": [{"role": "user", "content": "x"}], "max_tokens": 0}`,
			code: types.CodeInvalidValue,
		},
		{
			name: "message without role",
			body: `{"model": "m", "messages": [{"content": "x"}]}`,
			code: types.CodeInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseBody(t, tt.body)
			if err == nil {
				t.Fatal("expected parse error")
			}

			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected *RequestError, got %T", err)
			}
			if reqErr.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, reqErr.Code)
			}
		})
	}
}

func TestParseRejectsOversizedBody(t *testing.T) {
	huge := bytes.Repeat([]byte("a"), MaxRequestBodySize+1)
	r := httptest.NewRequest("POST", "/v1/chat/completions", bytes.NewReader(huge))

	_, err := ParseChatCompletionRequest(r)

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %v", err)
	}
	if reqErr.Code != types.CodeRequestTooLarge {
		t.Errorf("expected code %q, got %q", types.CodeRequestTooLarge, reqErr.Code)
	}
}

func TestExtractPromptName(t *testing.T) {
	r := httptest.NewRequest("POST", "/v1/chat/completions?prompt=helpful", nil)
	if name := ExtractPromptName(r); name != "helpful" {
		t.Errorf("expected %q, got %q", "helpful", name)
	}

	r = httptest.NewRequest("POST", "/v1/chat/completions", nil)
	if name := ExtractPromptName(r); name != "" {
		t.Errorf("expected empty name, got %q", name)
	}
}
