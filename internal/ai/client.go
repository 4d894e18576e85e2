// Package ai talks to the remote completion agent. The agent exposes two
// endpoints sharing one credential: a blocking one returning a whole answer
// and a streaming one emitting SSE text fragments.
package ai

import (
	"context"
	"errors"
)

// ErrMissingCredentials is returned when the client is constructed without a
// complete credential/endpoint triple.
var ErrMissingCredentials = errors.New("api key, invoke url and stream url are all required")

// ModelClient is the capability surface the chat pipeline depends on.
// Invoke blocks until the full answer is available. Stream calls onChunk for
// every fragment in order and returns the concatenation of all fragments;
// each Stream call produces a fresh, finite, non-restartable sequence.
type ModelClient interface {
	Invoke(ctx context.Context, prompt string) (string, error)
	Stream(ctx context.Context, prompt string, onChunk func(chunk string) error) (string, error)
}

// ClientFactory builds a ModelClient for a new session.
type ClientFactory func() (ModelClient, error)
