// Package llm provides the model-invocation clients used by the pass
// executor. Each Complete call performs exactly one external invocation;
// retry policy lives with the caller.
package llm

import "context"

// Client invokes a language model with a system prompt and a user prompt
// and returns the raw completion text. Two calls with identical input may
// return different output; callers must not assume idempotence.
type Client interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}
