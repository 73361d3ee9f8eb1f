// Package llm provides the model invocation gateway using langchaingo.
package llm

import (
	"context"
	"strings"
)

// ChatMessage is a role-tagged message ready for submission to a model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseKind discriminates the shape of a provider response.
type ResponseKind string

const (
	// KindText is a single-string response.
	KindText ResponseKind = "text"

	// KindParts is a multi-part response; parts are concatenated in order
	// when flattened.
	KindParts ResponseKind = "parts"
)

// Response is the tagged variant returned by every gateway implementation.
// Providers that return strings, part arrays, or objects are all normalized
// here so callers never branch on dynamic shapes.
type Response struct {
	Kind  ResponseKind
	Value string
	Parts []string
}

// TextResponse builds a single-string response.
func TextResponse(s string) Response {
	return Response{Kind: KindText, Value: s}
}

// PartsResponse builds a multi-part response.
func PartsResponse(parts []string) Response {
	return Response{Kind: KindParts, Parts: parts}
}

// Flatten collapses the response to a single string.
func (r Response) Flatten() string {
	switch r.Kind {
	case KindParts:
		return strings.Join(r.Parts, "")
	default:
		return r.Value
	}
}

// Gateway is the model invocation interface. Implementations perform their
// own provider-specific formatting and auth; errors propagate to the caller.
type Gateway interface {
	// Invoke submits the ordered message list to the named model and returns
	// the generated response.
	Invoke(ctx context.Context, model string, messages []ChatMessage) (Response, error)

	// Name returns the provider name.
	Name() string
}
