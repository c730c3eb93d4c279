package adapter

import "context"

// Adapter is a hosted-model client used by the connectivity check. The
// pipeline's stage scripts own the real LLM traffic; adapters exist so an
// operator can verify provider credentials before a long run.
type Adapter interface {
	// Generate sends a prompt to the model and returns the reply text.
	Generate(ctx context.Context, model string, prompt string) (string, error)

	// Name returns the adapter's identifier.
	Name() string

	// Models returns the list of supported models.
	Models() []string
}
