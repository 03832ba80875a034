package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Completer is the single long-latency collaborator of the interview engine.
// The completion service is consumed as an opaque text function; calls are
// never retried server-side.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Close() error
}

// FromEnv constructs the configured backend. LLM_PROVIDER selects "openai"
// (default) or "vertex".
func FromEnv(ctx context.Context) (Completer, error) {
	switch strings.ToLower(os.Getenv("LLM_PROVIDER")) {
	case "", "openai":
		return NewOpenAI(), nil
	case "vertex":
		return NewVertexGemini(ctx, os.Getenv("GCP_PROJECT_ID"), os.Getenv("GCP_LOCATION"), os.Getenv("VERTEX_MODEL"))
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", os.Getenv("LLM_PROVIDER"))
	}
}

var quotaMarkers = []string{
	"quota",
	"rate limit",
	"rate_limit",
	"resource exhausted",
	"resource_exhausted",
	"429",
	"too many requests",
	"billing",
	"insufficient_quota",
}

// IsQuotaError classifies an upstream failure by its error text: quota and
// rate-limit failures get retry guidance, everything else is a generic
// upstream failure.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range quotaMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
