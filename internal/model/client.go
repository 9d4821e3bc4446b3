// Package model abstracts the generative model behind a text-in/text-out
// client. The pipelines treat it as opaque: no retries, no rate limiting,
// just a bounded call that either returns text or fails.
package model

import (
	"context"
	"errors"
)

// Sentinel errors for the two failure modes callers distinguish. The
// synchronous chat path surfaces both as Internal; background pipelines log
// and abort without writing.
var (
	ErrUnavailable = errors.New("model unavailable")
	ErrTimeout     = errors.New("model call timed out")
)

// Message is one turn of prior conversation attached to a request.
type Message struct {
	Role string // "user" or "assistant"
	Text string
}

// Request describes one generation call. History and SystemInstruction are
// optional: the live chat call attaches both, the daydream and dream calls
// attach neither (one-shot completions).
type Request struct {
	Prompt            string
	History           []Message
	SystemInstruction string
}

// Client generates text from a prompt.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}
