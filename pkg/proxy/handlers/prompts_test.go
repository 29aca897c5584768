package handlers

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"reflect"
	"testing"
)

type fakeLister struct {
	names []string
	err   error
}

func (l *fakeLister) List() ([]string, error) {
	return l.names, l.err
}

func TestPromptsHandler(t *testing.T) {
	handler := NewPrompts(&fakeLister{names: []string{"concise", "helpful", "pirate"}})

	r := httptest.NewRequest("GET", "/prompts", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var names []string
	if err := json.Unmarshal(w.Body.Bytes(), &names); err != nil {
		t.Fatalf("response not valid JSON: %v", err)
	}

	want := []string{"concise", "helpful", "pirate"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("expected %v, got %v", want, names)
	}
}

func TestPromptsHandlerEmpty(t *testing.T) {
	handler := NewPrompts(&fakeLister{names: []string{}})

	r := httptest.NewRequest("GET", "/prompts", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestPromptsHandlerStoreFailure(t *testing.T) {
	handler := NewPrompts(&fakeLister{err: errors.New("disk gone")})

	r := httptest.NewRequest("GET", "/prompts", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != 500 {
		t.Errorf("expected status 500, got %d", w.Code)
	}
}
