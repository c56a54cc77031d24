package billing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Gateway adapts one payment provider's webhook format.
type Gateway interface {
	Provider() string
	// Verify authenticates the raw body before anything is parsed.
	Verify(payload []byte, headers http.Header) error
	Parse(payload []byte, headers http.Header) (*Event, error)
	// Transition maps the provider event type to a plan change.
	Transition(eventType string) Transition
}

// Registry looks gateways up by provider name.
type Registry struct {
	gateways map[string]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[strings.ToLower(g.Provider())] = g
	}
	return r
}

// NewDefaultRegistry wires Dodo and Paystack from the config.
func NewDefaultRegistry(cfg Config) *Registry {
	return NewRegistry(NewDodoGateway(cfg), NewPaystackGateway(cfg))
}

func (r *Registry) Get(provider string) (Gateway, error) {
	g, ok := r.gateways[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	return g, nil
}

func (r *Registry) Providers() []string {
	out := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// metadataPaths lists where gateways put checkout metadata, most specific
// first.
func metadataPaths(key string) []string {
	parents := []string{
		"data.metadata",
		"data.payload.metadata",
		"data.payment.metadata",
		"data.subscription.metadata",
		"data.checkout.metadata",
		"data.customer.metadata",
	}
	out := make([]string, len(parents))
	for i, p := range parents {
		out[i] = p + "." + key
	}
	return out
}

// hashReference keys events that carry no id of their own.
func hashReference(payload []byte) string {
	sum := sha256.Sum256(payload)
	return "hash:" + hex.EncodeToString(sum[:])
}

func invalidPayload(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
}
