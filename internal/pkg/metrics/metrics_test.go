package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.WebhookEvent("dodo", "applied")
	m.WebhookEvent("dodo", "applied")
	m.WebhookEvent("paystack", "duplicate")
	m.Upvote("ok")
	m.PageView()
	m.JobRun("billing_sweep", "ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.webhookEvents.WithLabelValues("dodo", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhookEvents.WithLabelValues("paystack", "duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upvotes.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pageViews))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sweeps.WithLabelValues("billing_sweep", "ok")))
}

func TestDefaultIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}
