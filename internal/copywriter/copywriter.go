// Package copywriter is the client side of the generative text service used to
// write product copy.
package copywriter

import (
	"context"
	"errors"
)

var (
	ErrUnavailable   = errors.New("generative text service is not configured")
	ErrEmptyResponse = errors.New("generative text service returned no text")
)

type Params struct {
	Temperature     float32
	MaxOutputTokens int32
}

type Request struct {
	SystemPrompt string
	UserPrompt   string
	Params       Params
}

type Response struct {
	Content string
}

// Generator is treated as unreliable: callers are expected to have a fallback
// for every error it returns.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Unavailable is the generator used when no service is configured.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, Request) (*Response, error) {
	return nil, ErrUnavailable
}
