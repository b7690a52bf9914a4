// Package content describes the external structured-content generation capability.
package content

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned by providers that answered without any payload.
var ErrEmptyResponse = errors.New("content provider returned an empty response")

// Provider turns a prompt plus a response schema into raw structured output (JSON bytes).
type Provider interface {
	Generate(ctx context.Context, req Request) ([]byte, error)
}

// Request is a single generation call.
type Request struct {
	Prompt      string
	Schema      *Schema
	Temperature float64
}

// Type names follow the OpenAPI subset accepted by generative-model response schemas.
type Type string

const (
	TypeArray   Type = "ARRAY"
	TypeObject  Type = "OBJECT"
	TypeString  Type = "STRING"
	TypeInteger Type = "INTEGER"
)

// Schema declares the expected shape of the generated payload.
type Schema struct {
	Type        Type               `json:"type"`
	Description string             `json:"description,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	MinItems    *int               `json:"minItems,omitempty"`
	MaxItems    *int               `json:"maxItems,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, req Request) ([]byte, error)

func (f ProviderFunc) Generate(ctx context.Context, req Request) ([]byte, error) {
	return f(ctx, req)
}

// StaticProvider returns a fixed payload or error; used offline and in tests.
type StaticProvider struct {
	Payload []byte
	Err     error
}

func NewStaticProvider(payload []byte, err error) *StaticProvider {
	return &StaticProvider{Payload: payload, Err: err}
}

func (p *StaticProvider) Generate(ctx context.Context, _ Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Err != nil {
		return nil, p.Err
	}
	if len(p.Payload) == 0 {
		return nil, ErrEmptyResponse
	}
	out := make([]byte, len(p.Payload))
	copy(out, p.Payload)
	return out, nil
}
