// Package brain is the narrow interface to the generation capability.
// Prompt construction, including the confidential-redaction boundary,
// is the core's responsibility; generation itself is external.
package brain

import "context"

type Request struct {
	Model  string
	System string
	Prompt string

	MaxTokens   int
	Temperature float64
}

type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}
