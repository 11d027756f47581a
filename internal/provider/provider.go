// Package provider implements clients for LLM completion APIs.
//
// Two providers are supported: Groq (OpenAI-compatible chat completions,
// the default upstream) and Anthropic. Both return the raw text reply;
// interpreting that text is the caller's job.
package provider

import (
	"context"
	"fmt"
	"time"
)

// Request contains the data sent to an LLM.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response contains the raw response from an LLM.
type Response struct {
	Content    string
	TokensUsed int
}

// Completer is the provider abstraction interface.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}

// Config configures a provider client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// New creates a provider by name.
func New(name string, cfg Config) (Completer, error) {
	switch name {
	case "groq":
		return NewGroq(cfg)
	case "anthropic":
		return NewAnthropic(cfg)
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}
