package billing

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ManuelReschke/Marktplatz/app/models"
)

const (
	HeaderPaystackSignature = "x-paystack-signature"

	paystackEventChargeSuccess      = "charge.success"
	paystackEventSubscriptionCreate = "subscription.create"
)

// PaystackGateway handles the direct charge gateway.
type PaystackGateway struct {
	cfg Config
}

func NewPaystackGateway(cfg Config) *PaystackGateway {
	return &PaystackGateway{cfg: cfg}
}

func (g *PaystackGateway) Provider() string { return models.BillingProviderPaystack }

// Verify fails closed: without a secret key nothing can be accepted.
func (g *PaystackGateway) Verify(payload []byte, headers http.Header) error {
	if g.cfg.PaystackSecretKey == "" {
		return ErrNotConfigured
	}
	if !VerifyPaystackSignature(payload, headers.Get(HeaderPaystackSignature), g.cfg.PaystackSecretKey) {
		return ErrInvalidSignature
	}
	return nil
}

func (g *PaystackGateway) Parse(payload []byte, _ http.Header) (*Event, error) {
	p, err := decodePayload(payload)
	if err != nil {
		return nil, invalidPayload(err)
	}
	eventType := strings.ToLower(p.FirstString("event"))
	if eventType == "" {
		return nil, invalidPayload(errors.New("missing event"))
	}

	ref := p.FirstString("data.reference", "data.subscription_code", "data.id")
	if ref == "" {
		ref = hashReference(payload)
	}

	amount, _ := p.FirstInt64("data.amount")
	ev := &Event{
		Provider:        models.BillingProviderPaystack,
		Reference:       ref,
		Type:            eventType,
		BusinessID:      p.FirstString(metadataPaths("user_id")...),
		Email:           p.FirstString("data.customer.email", "data.email"),
		BillingCycle:    NormalizeCycle(p.FirstString(metadataPaths("billing_cycle")...)),
		SubscriptionRef: p.FirstString("data.subscription_code", "data.subscription.subscription_code", "data.reference"),
		PlanCode:        p.FirstString("data.plan.plan_code", "data.plan", "data.plan_code"),
		Amount:          amount,
		Status:          p.FirstString("data.status"),
		EndsAt:          p.FirstTime("data.next_payment_date", "data.subscription.next_payment_date"),
		Raw:             payload,
	}
	if ev.BillingCycle == "" {
		ev.BillingCycle = NormalizeCycle(p.FirstString("data.plan.interval"))
	}
	if ev.BillingCycle == "" {
		ev.BillingCycle = g.cfg.cycleForPlanRef(ev.PlanCode)
	}
	if ev.SubscriptionRef == "" {
		ev.SubscriptionRef = ref
	}
	return ev, nil
}

func (g *PaystackGateway) Transition(eventType string) Transition {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case paystackEventChargeSuccess, paystackEventSubscriptionCreate:
		return TransitionPro
	default:
		return TransitionNone
	}
}
