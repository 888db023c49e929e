// Package provider calls the Gemini text model through an SDK transport with a
// REST fallback and always yields a reply string.
package provider

import "context"

// Replies returned instead of model output when a transport fails.
const (
	UnreachableReply  = "Error: unable to reach AI server."
	NetworkErrorReply = "Network Error: Could not connect to the Gemini server endpoint."
	SDKMissingPrefix  = "SDK not available. Falling back to REST call..."
)

// SDKClient is the primary transport. Errors trigger the REST fallback.
type SDKClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RESTClient is the fallback transport. It never fails; transport problems
// are reported as reply text.
type RESTClient interface {
	Generate(ctx context.Context, prompt string) string
}
