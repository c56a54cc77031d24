// Package metrics exposes Prometheus counters for the money and quota paths.
package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marktplatz"

type Metrics struct {
	webhookEvents *prometheus.CounterVec
	checkouts     *prometheus.CounterVec
	upvotes       *prometheus.CounterVec
	aiChats       *prometheus.CounterVec
	pageViews     prometheus.Counter
	sweeps        *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	metricsOnce    sync.Once
)

// Default returns the process-wide metrics registered on the default registerer.
func Default() *Metrics {
	metricsOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billing_webhook_events_total",
			Help:      "Payment webhook deliveries by provider and outcome.",
		}, []string{"provider", "outcome"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billing_checkouts_total",
			Help:      "Checkout sessions requested by provider and result.",
		}, []string{"provider", "result"}),
		upvotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upvotes_total",
			Help:      "Upvote requests by result.",
		}, []string{"result"}),
		aiChats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_chat_requests_total",
			Help:      "AI chat requests by result.",
		}, []string{"result"}),
		pageViews: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storefront_page_views_total",
			Help:      "Recorded storefront page views.",
		}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_job_runs_total",
			Help:      "Scheduled job runs by job and result.",
		}, []string{"job", "result"}),
	}
	registerer.MustRegister(m.webhookEvents, m.checkouts, m.upvotes, m.aiChats, m.pageViews, m.sweeps)
	return m
}

func (m *Metrics) WebhookEvent(provider, outcome string) {
	m.webhookEvents.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) Checkout(provider, result string) {
	m.checkouts.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) Upvote(result string) {
	m.upvotes.WithLabelValues(result).Inc()
}

func (m *Metrics) AIChat(result string) {
	m.aiChats.WithLabelValues(result).Inc()
}

func (m *Metrics) PageView() {
	m.pageViews.Inc()
}

func (m *Metrics) JobRun(job, result string) {
	m.sweeps.WithLabelValues(job, result).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
