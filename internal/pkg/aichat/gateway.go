// Package aichat answers storefront visitors on behalf of a pro business,
// metered by a monthly message quota.
package aichat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/env"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// MaxHistory is how many trailing turns are forwarded upstream.
	MaxHistory      = 20
	maxMessageChars = 2000

	DefaultTimeout = 30 * time.Second

	FallbackReply = "Sorry, I could not come up with an answer right now. Please contact the business directly."
)

var (
	ErrInvalidRequest = errors.New("businessId and at least one user message are required")
	ErrNotFound       = errors.New("business not found")
	ErrNotPro         = errors.New("AI chat requires the pro plan")
	ErrAIDisabled     = errors.New("AI chat is disabled for this business")
	ErrLimitReached   = errors.New("monthly AI message limit reached")
	ErrUnavailable    = errors.New("AI service unavailable")
	ErrNotConfigured  = errors.New("AI service is not configured")
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reply is a completed turn.
type Reply struct {
	Text string
	// Fallback is set when the upstream answered with nothing usable.
	Fallback bool
}

// Store is the slice of the business repository the gateway needs.
type Store interface {
	GetByID(id string) (*models.Business, error)
	TryConsumeAIQuota(id string) (bool, error)
	ConsumeAIQuotaUnsafe(id string) (bool, error)
	ResetAIUsage() (int64, error)
}

// ProductLister feeds the system prompt.
type ProductLister interface {
	ListByBusiness(businessID string, activeOnly bool) ([]models.Product, error)
}

type Gateway struct {
	businesses Store
	products   ProductLister
	llm        Client
	timeout    time.Duration
}

// NewGateway wires the gateway. A nil client makes every chat fail with
// ErrNotConfigured before any quota is spent.
func NewGateway(businesses Store, products ProductLister, llm Client, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{businesses: businesses, products: products, llm: llm, timeout: timeout}
}

func NewGatewayFromEnv(businesses Store, products ProductLister) *Gateway {
	var llm Client
	if c := NewOpenAIClientFromEnv(); c != nil {
		llm = c
	}
	return NewGateway(businesses, products, llm, env.GetEnvDuration("AI_CHAT_TIMEOUT", DefaultTimeout))
}

// Chat runs the precondition chain, charges one message and asks the model.
// The charge is not refunded when the model fails.
func (g *Gateway) Chat(ctx context.Context, businessID string, messages []Message) (*Reply, error) {
	id := strings.TrimSpace(businessID)
	history := TrimHistory(messages)
	if id == "" || !hasUserTurn(history) {
		return nil, ErrInvalidRequest
	}

	biz, err := g.businesses.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load business: %w", err)
	}
	if !biz.IsPro() {
		return nil, ErrNotPro
	}
	if !biz.AIEnabled {
		return nil, ErrAIDisabled
	}
	if biz.AIUsageCount >= biz.AIUsageLimit {
		return nil, ErrLimitReached
	}
	if g.llm == nil {
		return nil, ErrNotConfigured
	}

	products, err := g.products.ListByBusiness(biz.ID, true)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	if err := g.consumeQuota(biz.ID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.llm.Complete(ctx, BuildSystemPrompt(biz, products), history)
	if err != nil {
		if errors.Is(err, ErrUnexpectedResponse) {
			log.Warnf("[AIChat] business %s: %v", biz.ID, err)
			return &Reply{Text: FallbackReply, Fallback: true}, nil
		}
		log.Errorf("[AIChat] business %s: %v", biz.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Reply{Text: text}, nil
}

// consumeQuota prefers the single-statement conditional increment. If that
// statement errors, a read-then-write is tried; it can overshoot the limit
// under concurrency.
func (g *Gateway) consumeQuota(id string) error {
	ok, err := g.businesses.TryConsumeAIQuota(id)
	if err != nil {
		log.Warnf("[AIChat] conditional quota update failed for %s, using fallback: %v", id, err)
		ok, err = g.businesses.ConsumeAIQuotaUnsafe(id)
		if err != nil {
			return fmt.Errorf("consume quota: %w", err)
		}
	}
	if !ok {
		return ErrLimitReached
	}
	return nil
}

// ResetMonthlyUsage zeroes every business's counter.
func (g *Gateway) ResetMonthlyUsage(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return g.businesses.ResetAIUsage()
}

// TrimHistory keeps user and assistant turns with content, shortens long
// messages and returns at most the last MaxHistory of them.
func TrimHistory(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != RoleUser && role != RoleAssistant {
			continue
		}
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		if r := []rune(content); len(r) > maxMessageChars {
			content = string(r[:maxMessageChars])
		}
		out = append(out, Message{Role: role, Content: content})
	}
	if len(out) > MaxHistory {
		out = out[len(out)-MaxHistory:]
	}
	return out
}

func hasUserTurn(messages []Message) bool {
	for _, m := range messages {
		if m.Role == RoleUser {
			return true
		}
	}
	return false
}
