package billing

import (
	"strings"
	"time"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/env"
)

const (
	defaultDodoBaseURL     = "https://live.dodopayments.com"
	defaultPaystackBaseURL = "https://api.paystack.co"
)

// Config carries both gateways' credentials and the plan catalogue.
type Config struct {
	DodoWebhookSecret  string
	DodoAPIKey         string
	DodoBaseURL        string
	DodoProductMonthly string
	DodoProductYearly  string

	PaystackSecretKey     string
	PaystackBaseURL       string
	PaystackPlanMonthly   string
	PaystackPlanYearly    string
	PaystackAmountMonthly int64
	PaystackAmountYearly  int64

	// ReturnURL is where both hosted checkouts send the buyer back to.
	ReturnURL string
	// GracePeriod is how long a lapsed subscription keeps pro before the sweep.
	GracePeriod time.Duration
}

func ConfigFromEnv() Config {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	returnURL := strings.TrimSpace(env.GetEnv("BILLING_RETURN_URL", ""))
	if returnURL == "" && base != "" {
		returnURL = base + "/dashboard?billing=success"
	}

	return Config{
		DodoWebhookSecret:     strings.TrimSpace(env.GetEnv("DODO_WEBHOOK_SECRET", "")),
		DodoAPIKey:            strings.TrimSpace(env.GetEnv("DODO_API_KEY", "")),
		DodoBaseURL:           strings.TrimRight(env.GetEnv("DODO_API_BASE_URL", defaultDodoBaseURL), "/"),
		DodoProductMonthly:    strings.TrimSpace(env.GetEnv("DODO_PRODUCT_MONTHLY", "")),
		DodoProductYearly:     strings.TrimSpace(env.GetEnv("DODO_PRODUCT_YEARLY", "")),
		PaystackSecretKey:     strings.TrimSpace(env.GetEnv("PAYSTACK_SECRET_KEY", "")),
		PaystackBaseURL:       strings.TrimRight(env.GetEnv("PAYSTACK_API_BASE_URL", defaultPaystackBaseURL), "/"),
		PaystackPlanMonthly:   strings.TrimSpace(env.GetEnv("PAYSTACK_PLAN_MONTHLY", "")),
		PaystackPlanYearly:    strings.TrimSpace(env.GetEnv("PAYSTACK_PLAN_YEARLY", "")),
		PaystackAmountMonthly: env.GetEnvInt64("PAYSTACK_AMOUNT_MONTHLY", 0),
		PaystackAmountYearly:  env.GetEnvInt64("PAYSTACK_AMOUNT_YEARLY", 0),
		ReturnURL:             returnURL,
		GracePeriod:           time.Duration(env.GetEnvInt("BILLING_GRACE_DAYS", 3)) * 24 * time.Hour,
	}
}

// DodoProduct returns the product id for a billing cycle.
func (c Config) DodoProduct(cycle string) string {
	if NormalizeCycle(cycle) == models.BillingCycleYearly {
		return c.DodoProductYearly
	}
	return c.DodoProductMonthly
}

// PaystackPlan returns the plan code for a billing cycle.
func (c Config) PaystackPlan(cycle string) string {
	if NormalizeCycle(cycle) == models.BillingCycleYearly {
		return c.PaystackPlanYearly
	}
	return c.PaystackPlanMonthly
}

// PaystackAmount is the expected charge in the smallest currency unit, 0
// when not configured.
func (c Config) PaystackAmount(cycle string) int64 {
	if NormalizeCycle(cycle) == models.BillingCycleYearly {
		return c.PaystackAmountYearly
	}
	return c.PaystackAmountMonthly
}

// cycleForPlanRef maps a configured product or plan code back to its cycle.
func (c Config) cycleForPlanRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	switch ref {
	case c.DodoProductYearly, c.PaystackPlanYearly:
		return models.BillingCycleYearly
	case c.DodoProductMonthly, c.PaystackPlanMonthly:
		return models.BillingCycleMonthly
	}
	return ""
}

// amountAccepted guards against underpaid charges. Only Paystack charge
// events carry a comparable amount, and only when a price is configured.
func (c Config) amountAccepted(ev *Event) bool {
	if ev.Provider != models.BillingProviderPaystack || ev.Type != paystackEventChargeSuccess {
		return true
	}
	expected := c.PaystackAmount(ev.BillingCycle)
	if expected <= 0 {
		return true
	}
	return ev.Amount >= expected
}

// NormalizeCycle accepts the spellings gateways use and returns monthly,
// yearly or "".
func NormalizeCycle(cycle string) string {
	switch strings.ToLower(strings.TrimSpace(cycle)) {
	case "yearly", "year", "annual", "annually":
		return models.BillingCycleYearly
	case "monthly", "month":
		return models.BillingCycleMonthly
	default:
		return ""
	}
}

// periodEnd is the fallback subscription end when the gateway sends none.
func periodEnd(now time.Time, cycle string) time.Time {
	if NormalizeCycle(cycle) == models.BillingCycleYearly {
		return now.AddDate(1, 0, 0)
	}
	return now.AddDate(0, 1, 0)
}
