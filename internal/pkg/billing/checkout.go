package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ManuelReschke/Marktplatz/app/models"
)

// CheckoutRequest describes who is buying which cycle.
type CheckoutRequest struct {
	BusinessID   string
	Email        string
	Name         string
	BillingCycle string
}

// CheckoutSession is what the buyer is redirected to.
type CheckoutSession struct {
	URL       string
	Reference string
}

// CheckoutProvider starts a hosted checkout on one gateway.
type CheckoutProvider interface {
	Provider() string
	CreateCheckout(ctx context.Context, in CheckoutRequest) (*CheckoutSession, error)
}

func checkoutMetadata(in CheckoutRequest, cycle string) map[string]string {
	return map[string]string{
		"user_id":       in.BusinessID,
		"billing_cycle": cycle,
	}
}

func validateCheckout(in CheckoutRequest) (string, error) {
	if strings.TrimSpace(in.BusinessID) == "" || strings.TrimSpace(in.Email) == "" {
		return "", errors.New("business id and email are required")
	}
	cycle := NormalizeCycle(in.BillingCycle)
	if cycle == "" {
		return "", fmt.Errorf("unknown billing cycle %q", in.BillingCycle)
	}
	return cycle, nil
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// DodoCheckoutClient creates Dodo Payments checkout sessions.
type DodoCheckoutClient struct {
	cfg        Config
	HTTPClient *http.Client
}

func NewDodoCheckoutClient(cfg Config) *DodoCheckoutClient {
	return &DodoCheckoutClient{cfg: cfg, HTTPClient: defaultHTTPClient()}
}

func (c *DodoCheckoutClient) Provider() string { return models.BillingProviderDodo }

func (c *DodoCheckoutClient) CreateCheckout(ctx context.Context, in CheckoutRequest) (*CheckoutSession, error) {
	cycle, err := validateCheckout(in)
	if err != nil {
		return nil, err
	}
	product := c.cfg.DodoProduct(cycle)
	if c.cfg.DodoAPIKey == "" || product == "" {
		return nil, fmt.Errorf("%w: DODO_API_KEY/DODO_PRODUCT_%s", ErrNotConfigured, strings.ToUpper(cycle))
	}

	type cartItem struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	type customer struct {
		Email string `json:"email"`
		Name  string `json:"name,omitempty"`
	}
	reqBody := struct {
		ProductCart []cartItem        `json:"product_cart"`
		Customer    customer          `json:"customer"`
		ReturnURL   string            `json:"return_url,omitempty"`
		Metadata    map[string]string `json:"metadata"`
	}{
		ProductCart: []cartItem{{ProductID: product, Quantity: 1}},
		Customer:    customer{Email: in.Email, Name: in.Name},
		ReturnURL:   c.cfg.ReturnURL,
		Metadata:    checkoutMetadata(in, cycle),
	}

	var out struct {
		SessionID   string `json:"session_id"`
		CheckoutURL string `json:"checkout_url"`
	}
	if err := postJSON(ctx, c.HTTPClient, c.cfg.DodoBaseURL+"/checkouts", "Bearer "+c.cfg.DodoAPIKey, reqBody, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.CheckoutURL) == "" {
		return nil, fmt.Errorf("%w: dodo response missing checkout_url", ErrUpstream)
	}
	return &CheckoutSession{URL: out.CheckoutURL, Reference: out.SessionID}, nil
}

// PaystackCheckoutClient initializes Paystack transactions on a plan.
type PaystackCheckoutClient struct {
	cfg        Config
	HTTPClient *http.Client
	// NewReference returns a fresh transaction reference.
	NewReference func() string
}

func NewPaystackCheckoutClient(cfg Config) *PaystackCheckoutClient {
	return &PaystackCheckoutClient{
		cfg:          cfg,
		HTTPClient:   defaultHTTPClient(),
		NewReference: func() string { return "mkt_" + ulid.Make().String() },
	}
}

func (c *PaystackCheckoutClient) Provider() string { return models.BillingProviderPaystack }

func (c *PaystackCheckoutClient) CreateCheckout(ctx context.Context, in CheckoutRequest) (*CheckoutSession, error) {
	cycle, err := validateCheckout(in)
	if err != nil {
		return nil, err
	}
	plan := c.cfg.PaystackPlan(cycle)
	if c.cfg.PaystackSecretKey == "" || plan == "" {
		return nil, fmt.Errorf("%w: PAYSTACK_SECRET_KEY/PAYSTACK_PLAN_%s", ErrNotConfigured, strings.ToUpper(cycle))
	}

	reference := c.NewReference()
	reqBody := struct {
		Email       string            `json:"email"`
		Amount      int64             `json:"amount,omitempty"`
		Plan        string            `json:"plan"`
		Reference   string            `json:"reference"`
		CallbackURL string            `json:"callback_url,omitempty"`
		Metadata    map[string]string `json:"metadata"`
	}{
		Email:       in.Email,
		Amount:      c.cfg.PaystackAmount(cycle),
		Plan:        plan,
		Reference:   reference,
		CallbackURL: c.cfg.ReturnURL,
		Metadata:    checkoutMetadata(in, cycle),
	}

	var out struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			AuthorizationURL string `json:"authorization_url"`
			Reference        string `json:"reference"`
		} `json:"data"`
	}
	if err := postJSON(ctx, c.HTTPClient, c.cfg.PaystackBaseURL+"/transaction/initialize", "Bearer "+c.cfg.PaystackSecretKey, reqBody, &out); err != nil {
		return nil, err
	}
	if !out.Status || strings.TrimSpace(out.Data.AuthorizationURL) == "" {
		return nil, fmt.Errorf("%w: paystack initialize: %s", ErrUpstream, out.Message)
	}
	if out.Data.Reference != "" {
		reference = out.Data.Reference
	}
	return &CheckoutSession{URL: out.Data.AuthorizationURL, Reference: reference}, nil
}

func postJSON(ctx context.Context, client *http.Client, url, authorization string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status=%d body=%s", ErrUpstream, resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	return nil
}

// Checkouts looks checkout providers up by name.
type Checkouts map[string]CheckoutProvider

func NewCheckouts(providers ...CheckoutProvider) Checkouts {
	out := make(Checkouts, len(providers))
	for _, p := range providers {
		out[p.Provider()] = p
	}
	return out
}

func NewDefaultCheckouts(cfg Config) Checkouts {
	return NewCheckouts(NewDodoCheckoutClient(cfg), NewPaystackCheckoutClient(cfg))
}
