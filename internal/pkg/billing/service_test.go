package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/testdb"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		DodoWebhookSecret:    testStandardSecret,
		DodoProductMonthly:   "pdt_month",
		DodoProductYearly:    "pdt_year",
		PaystackSecretKey:    "sk_test_reconcile",
		PaystackPlanMonthly:  "PLN_month",
		PaystackPlanYearly:   "PLN_year",
		PaystackAmountYearly: 5000000,
		GracePeriod:          3 * 24 * time.Hour,
	}
}

func newTestService(t *testing.T, cfg Config) (*Service, *gorm.DB) {
	t.Helper()
	db := testdb.New(t)
	dodo := NewDodoGateway(cfg)
	dodo.now = func() time.Time { return testNow }
	svc := NewService(NewRepository(db), NewRegistry(dodo, NewPaystackGateway(cfg)), cfg)
	svc.now = func() time.Time { return testNow }
	return svc, db
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func dodoEvent(t *testing.T, eventType string, data map[string]interface{}) []byte {
	return mustJSON(t, map[string]interface{}{
		"business_id": "bus_dodo",
		"type":        eventType,
		"timestamp":   testNow.Format(time.RFC3339),
		"data":        data,
	})
}

func dodoHeaders(payload []byte, msgID, secret string) http.Header {
	ts := fmt.Sprintf("%d", testNow.Unix())
	h := http.Header{}
	h.Set(HeaderWebhookID, msgID)
	h.Set(HeaderWebhookTimestamp, ts)
	h.Set(HeaderWebhookSignature, SignStandardWebhook(payload, msgID, ts, secret))
	return h
}

func paystackHeaders(payload []byte, secret string) http.Header {
	h := http.Header{}
	h.Set(HeaderPaystackSignature, SignPaystack(payload, secret))
	return h
}

func reload(t *testing.T, db *gorm.DB, id string) models.Business {
	t.Helper()
	var b models.Business
	require.NoError(t, db.First(&b, "id = ?", id).Error)
	return b
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestDodoActivationIsIdempotent(t *testing.T) {
	cfg := testConfig()
	svc, db := newTestService(t, cfg)
	biz := testdb.Business(t, db, nil)

	payload := dodoEvent(t, "subscription.active", map[string]interface{}{
		"subscription_id":   "sub_123",
		"product_id":        "pdt_year",
		"next_billing_date": "2027-10-15T12:00:00Z",
		"customer":          map[string]interface{}{"email": "someone-else@example.com"},
		"metadata":          map[string]interface{}{"user_id": biz.ID},
	})
	headers := dodoHeaders(payload, "msg_activate", cfg.DodoWebhookSecret)

	res, err := svc.HandleWebhook(context.Background(), "dodo", payload, headers)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, TransitionPro, res.Transition)
	assert.Equal(t, biz.ID, res.BusinessID)

	stored := reload(t, db, biz.ID)
	assert.Equal(t, models.PlanPro, stored.Plan)
	assert.True(t, stored.IsVerified)
	require.NotNil(t, stored.SubscriptionID)
	assert.Equal(t, "sub_123", *stored.SubscriptionID)
	require.NotNil(t, stored.SubscriptionEndsAt)
	assert.WithinDuration(t, time.Date(2027, 10, 15, 12, 0, 0, 0, time.UTC), *stored.SubscriptionEndsAt, time.Second)

	for i := 0; i < 3; i++ {
		res, err = svc.HandleWebhook(context.Background(), "dodo", payload, headers)
		require.NoError(t, err)
		assert.Equal(t, OutcomeDuplicate, res.Outcome)
	}
	assert.Equal(t, int64(1), countRows(t, db, &models.BillingWebhookEvent{}))

	var ledger models.BillingWebhookEvent
	require.NoError(t, db.First(&ledger).Error)
	assert.Equal(t, "msg_activate", ledger.ProviderEventID)
	assert.Equal(t, "subscription.active", ledger.EventType)
	require.NotNil(t, ledger.BusinessID)
	assert.Equal(t, biz.ID, *ledger.BusinessID)
	assert.NotNil(t, ledger.ProcessedAt)
	assert.Empty(t, ledger.ProcessingError)
}

func TestDodoTamperedPayloadChangesNothing(t *testing.T) {
	cfg := testConfig()
	svc, db := newTestService(t, cfg)
	biz := testdb.Business(t, db, nil)

	payload := dodoEvent(t, "subscription.active", map[string]interface{}{
		"metadata": map[string]interface{}{"user_id": biz.ID},
	})
	headers := dodoHeaders(payload, "msg_tamper", cfg.DodoWebhookSecret)
	tampered := dodoEvent(t, "subscription.active", map[string]interface{}{
		"metadata": map[string]interface{}{"user_id": biz.ID, "extra": "x"},
	})

	_, err := svc.HandleWebhook(context.Background(), "dodo", tampered, headers)
	assert.True(t, errors.Is(err, ErrInvalidSignature))

	_, err = svc.HandleWebhook(context.Background(), "dodo", payload, http.Header{})
	assert.True(t, errors.Is(err, ErrInvalidSignature))

	assert.Equal(t, int64(0), countRows(t, db, &models.BillingWebhookEvent{}))
	assert.Equal(t, models.PlanFree, reload(t, db, biz.ID).Plan)
}

func TestDodoWithoutSecretSkipsVerification(t *testing.T) {
	cfg := testConfig()
	cfg.DodoWebhookSecret = ""
	svc, db := newTestService(t, cfg)
	biz := testdb.Business(t, db, nil)

	payload := dodoEvent(t, "payment.succeeded", map[string]interface{}{
		"payload": map[string]interface{}{"metadata": map[string]interface{}{"user_id": biz.ID}},
	})
	h := http.Header{}
	h.Set(HeaderWebhookID, "msg_unsigned")

	res, err := svc.HandleWebhook(context.Background(), "dodo", payload, h)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, models.PlanPro, reload(t, db, biz.ID).Plan)
}

func TestDodoCancellationDowngradesAndHidesExtraProducts(t *testing.T) {
	cfg := testConfig()
	svc, db := newTestService(t, cfg)
	ends := testNow.Add(24 * time.Hour)
	biz := testdb.Business(t, db, func(b *models.Business) {
		b.Plan = models.PlanPro
		b.IsVerified = true
		b.SubscriptionEndsAt = &ends
	})
	for i := 1; i <= 5; i++ {
		require.NoError(t, db.Create(&models.Product{
			BusinessID: biz.ID,
			Name:       fmt.Sprintf("Product %d", i),
			Price:      1000,
			IsActive:   true,
			CreatedAt:  testNow.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	payload := dodoEvent(t, "subscription.cancelled", map[string]interface{}{
		"subscription_id": "sub_123",
		"metadata":        map[string]interface{}{"user_id": biz.ID},
	})
	res, err := svc.HandleWebhook(context.Background(), "dodo", payload, dodoHeaders(payload, "msg_cancel", cfg.DodoWebhookSecret))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, TransitionFree, res.Transition)

	stored := reload(t, db, biz.ID)
	assert.Equal(t, models.PlanFree, stored.Plan)
	assert.False(t, stored.IsVerified)
	assert.Nil(t, stored.SubscriptionEndsAt)

	var active []models.Product
	require.NoError(t, db.Where("business_id = ? AND is_active = ?", biz.ID, true).Order("name").Find(&active).Error)
	require.Len(t, active, 3)
	assert.Equal(t, "Product 3", active[0].Name)
	assert.Equal(t, "Product 5", active[2].Name)
	assert.Equal(t, int64(5), countRows(t, db, &models.Product{}))
}

func TestDodoCheckoutYearlyThenCancel(t *testing.T) {
	cfg := testConfig()
	svc, db := newTestService(t, cfg)
	biz := testdb.Business(t, db, nil)

	checkout := dodoEvent(t, "checkout.succeeded", map[string]interface{}{
		"metadata": map[string]interface{}{"user_id": biz.ID, "billing_cycle": "yearly"},
	})
	res, err := svc.HandleWebhook(context.Background(), "dodo", checkout, dodoHeaders(checkout, "msg_checkout", cfg.DodoWebhookSecret))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)

	stored := reload(t, db, biz.ID)
	assert.Equal(t, models.PlanPro, stored.Plan)
	assert.True(t, stored.IsVerified)
	require.NotNil(t, stored.SubscriptionEndsAt)
	assert.WithinDuration(t, testNow.AddDate(1, 0, 0), *stored.SubscriptionEndsAt, time.Second)

	cancel := dodoEvent(t, "subscription.cancelled", map[string]interface{}{
		"metadata": map[string]interface{}{"user_id": biz.ID},
	})
	res, err = svc.HandleWebhook(context.Background(), "dodo", cancel, dodoHeaders(cancel, "msg_cancel_yearly", cfg.DodoWebhookSecret))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)

	stored = reload(t, db, biz.ID)
	assert.Equal(t, models.PlanFree, stored.Plan)
	assert.False(t, stored.IsVerified)
	assert.Nil(t, stored.SubscriptionID)
	assert.Equal(t, int64(2), countRows(t, db, &models.BillingWebhookEvent{}))
}

func TestDodoRejectsStaleTimestamp(t *testing.T) {
	cfg := testConfig()
	svc, db := newTestService(t, cfg)
	biz := testdb.Business(t, db, nil)

	payload := dodoEvent(t, "subscription.active", map[string]interface{}{
		"metadata": map[string]interface{}{"user_id": biz.ID},
	})
	stale := fmt.Sprintf("%d", testNow.Add(-10*time.Minute).Unix())
	h := http.Header{}
	h.Set(HeaderWebhookID, "msg_stale")
	h.Set(HeaderWebhookTimestamp, stale)
	h.Set(HeaderWebhookSignature, SignStandardWebhook(payload, "msg_stale", stale, cfg.DodoWebhookSecret))

	_, err := svc.HandleWebhook(context.Background(), "dodo", payload, h)
	assert.True(t, errors.Is(err, ErrInvalidSignature))
	assert.Equal(t, int64(0), countRows(t, db, &models.BillingWebhookEvent{}))
	assert.Equal(t, models.PlanFree, reload(t, db, biz.ID).Plan)
}

func TestResolveFallsBackToEmail(t *testing.T) {
	cfg := testConfig()
	svc, db := newTestService(t, cfg)
	biz := testdb.Business(t, db, func(b *models.Business) { b.Email = "owner@shop.example" })

	payload := dodoEvent(t, "subscription.renewed", map[string]interface{}{
		"customer": map[string]interface{}{"email": "Owner@Shop.example"},
		"metadata": map[string]interface{}{"user_id": "deleted-account"},
	})
	res, err := svc.HandleWebhook(context.Background(), "dodo", payload, dodoHeaders(payload, "msg_email", cfg.DodoWebhookSecret))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, biz.ID, res.BusinessID)

	// Without next_billing_date a monthly period is assumed.
	stored := reload(t, db, biz.ID)
	require.NotNil(t, stored.SubscriptionEndsAt)
	assert.WithinDuration(t, testNow.AddDate(0, 1, 0), *stored.SubscriptionEndsAt, time.Second)
}

func TestUnresolvedAndIgnoredEventsAreAcknowledged(t *testing.T) {
	cfg := testConfig()
	svc, db := newTestService(t, cfg)
	biz := testdb.Business(t, db, nil)

	orphan := dodoEvent(t, "subscription.active", map[string]interface{}{
		"customer": map[string]interface{}{"email": "nobody@example.com"},
	})
	res, err := svc.HandleWebhook(context.Background(), "dodo", orphan, dodoHeaders(orphan, "msg_orphan", cfg.DodoWebhookSecret))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnresolved, res.Outcome)

	other := dodoEvent(t, "refund.succeeded", map[string]interface{}{
		"metadata": map[string]interface{}{"user_id": biz.ID},
	})
	res, err = svc.HandleWebhook(context.Background(), "dodo", other, dodoHeaders(other, "msg_refund", cfg.DodoWebhookSecret))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Outcome)

	assert.Equal(t, models.PlanFree, reload(t, db, biz.ID).Plan)
	assert.Equal(t, int64(2), countRows(t, db, &models.BillingWebhookEvent{}))

	var ledger models.BillingWebhookEvent
	require.NoError(t, db.Where("provider_event_id = ?", "msg_orphan").First(&ledger).Error)
	assert.Equal(t, string(OutcomeUnresolved), ledger.ProcessingError)
	assert.Nil(t, ledger.BusinessID)
}

func TestPaystackYearlyChargeLifecycle(t *testing.T) {
	cfg := testConfig()
	svc, db := newTestService(t, cfg)
	biz := testdb.Business(t, db, nil)

	charge := func(reference string, amount int64) []byte {
		return mustJSON(t, map[string]interface{}{
			"event": "charge.success",
			"data": map[string]interface{}{
				"id":        4099260516,
				"reference": reference,
				"amount":    amount,
				"status":    "success",
				"customer":  map[string]interface{}{"email": biz.Email},
				"plan":      map[string]interface{}{"plan_code": "PLN_year", "interval": "annually"},
				// Paystack forwards metadata as a JSON string from some clients.
				"metadata": string(mustJSON(t, map[string]interface{}{"user_id": biz.ID})),
			},
		})
	}

	underpaid := charge("mkt_under", 100)
	res, err := svc.HandleWebhook(context.Background(), "paystack", underpaid, paystackHeaders(underpaid, cfg.PaystackSecretKey))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAmountMismatch, res.Outcome)
	assert.Equal(t, models.PlanFree, reload(t, db, biz.ID).Plan)

	paid := charge("mkt_paid", 5000000)
	res, err = svc.HandleWebhook(context.Background(), "paystack", paid, paystackHeaders(paid, cfg.PaystackSecretKey))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)

	stored := reload(t, db, biz.ID)
	assert.Equal(t, models.PlanPro, stored.Plan)
	assert.True(t, stored.IsVerified)
	require.NotNil(t, stored.SubscriptionEndsAt)
	assert.WithinDuration(t, testNow.AddDate(1, 0, 0), *stored.SubscriptionEndsAt, time.Second)

	res, err = svc.HandleWebhook(context.Background(), "paystack", paid, paystackHeaders(paid, cfg.PaystackSecretKey))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)

	var txs []models.PaystackTransaction
	require.NoError(t, db.Order("id").Find(&txs).Error)
	require.Len(t, txs, 2)
	assert.Equal(t, "mkt_under", txs[0].Reference)
	assert.Equal(t, string(OutcomeAmountMismatch), txs[0].Status)
	assert.Equal(t, "mkt_paid", txs[1].Reference)
	assert.Equal(t, "PLN_year", txs[1].PlanCode)
	assert.Equal(t, int64(5000000), txs[1].Amount)
}

func TestPaystackRequiresSecret(t *testing.T) {
	cfg := testConfig()
	cfg.PaystackSecretKey = ""
	svc, db := newTestService(t, cfg)

	payload := []byte(`{"event":"charge.success","data":{"reference":"r1"}}`)
	_, err := svc.HandleWebhook(context.Background(), "paystack", payload, paystackHeaders(payload, "anything"))
	assert.True(t, errors.Is(err, ErrNotConfigured))
	assert.Equal(t, int64(0), countRows(t, db, &models.PaystackTransaction{}))
}

func TestPaystackBadSignatureAndPayload(t *testing.T) {
	cfg := testConfig()
	svc, db := newTestService(t, cfg)

	payload := []byte(`{"event":"charge.success","data":{"reference":"r1"}}`)
	_, err := svc.HandleWebhook(context.Background(), "paystack", payload, paystackHeaders(payload, "sk_wrong"))
	assert.True(t, errors.Is(err, ErrInvalidSignature))

	broken := []byte(`{"event":`)
	_, err = svc.HandleWebhook(context.Background(), "paystack", broken, paystackHeaders(broken, cfg.PaystackSecretKey))
	assert.True(t, errors.Is(err, ErrInvalidPayload))

	noEvent := []byte(`{"data":{}}`)
	_, err = svc.HandleWebhook(context.Background(), "paystack", noEvent, paystackHeaders(noEvent, cfg.PaystackSecretKey))
	assert.True(t, errors.Is(err, ErrInvalidPayload))

	assert.Equal(t, int64(0), countRows(t, db, &models.PaystackTransaction{}))
}

func TestUnknownProvider(t *testing.T) {
	svc, _ := newTestService(t, testConfig())
	_, err := svc.HandleWebhook(context.Background(), "stripe", []byte(`{}`), http.Header{})
	assert.True(t, errors.Is(err, ErrUnknownProvider))
}

func TestSweepLapsedDowngradesAfterGrace(t *testing.T) {
	svc, db := newTestService(t, testConfig())

	longGone := testNow.Add(-10 * 24 * time.Hour)
	withinGrace := testNow.Add(-24 * time.Hour)
	lapsed := testdb.Business(t, db, func(b *models.Business) {
		b.Plan = models.PlanPro
		b.IsVerified = true
		b.SubscriptionEndsAt = &longGone
	})
	grace := testdb.Business(t, db, func(b *models.Business) {
		b.Plan = models.PlanPro
		b.IsVerified = true
		b.SubscriptionEndsAt = &withinGrace
	})

	n, err := svc.SweepLapsed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, models.PlanFree, reload(t, db, lapsed.ID).Plan)
	assert.Equal(t, models.PlanPro, reload(t, db, grace.ID).Plan)
}

func TestRegistryProviders(t *testing.T) {
	r := NewDefaultRegistry(testConfig())
	assert.Equal(t, []string{"dodo", "paystack"}, r.Providers())

	g, err := r.Get(" DODO ")
	require.NoError(t, err)
	assert.Equal(t, TransitionFree, g.Transition("subscription.expired"))
	assert.Equal(t, TransitionNone, g.Transition("payment.failed"))
}
